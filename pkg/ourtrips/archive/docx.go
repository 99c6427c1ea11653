package archive

import (
	"fmt"
	"strings"
	"time"

	"github.com/gingfrederik/docx"
)

const dateLayout = "Mon 2 Jan 2006"

// SaveDOCX writes a printable itinerary: dates, pinned places and the plan
// conversation.
func SaveDOCX(path string, t *Trip) error {
	f := docx.NewFile()

	title := f.AddParagraph().AddText(t.Trip.Title)
	title.Size(24)

	dates := t.Trip.StartDate.Format(dateLayout)
	if !t.Trip.EndDate.IsZero() && !t.Trip.EndDate.Equal(t.Trip.StartDate) {
		dates += " to " + t.Trip.EndDate.Format(dateLayout)
	}
	meta := f.AddParagraph().AddText(dates)
	meta.Size(12)
	meta.Color("808080")
	f.AddParagraph()

	heading(f, "Places")
	if len(t.Locations) == 0 {
		muted(f, "No places pinned yet.")
	}
	for _, l := range t.Locations {
		f.AddParagraph().AddText(fmt.Sprintf("%s (%.5f, %.5f)", l.Name, l.Latitude, l.Longitude))
	}
	f.AddParagraph()

	heading(f, "Plan")
	if len(t.Plans) == 0 {
		muted(f, "Nobody has posted yet.")
	}
	for _, p := range t.Plans {
		who := f.AddParagraph().AddText(fmt.Sprintf("%s, %s", p.AuthorName, formatMs(p.CreatedAtMs)))
		who.Size(10)
		who.Color("808080")
		for _, line := range strings.Split(p.Text, "\n") {
			if line = strings.TrimSpace(line); line != "" {
				f.AddParagraph().AddText(line)
			}
		}
	}

	if len(t.Photos) > 0 {
		f.AddParagraph()
		muted(f, fmt.Sprintf("%d photo(s) attached to this trip.", len(t.Photos)))
	}

	if err := f.Save(path); err != nil {
		return fmt.Errorf("saving docx itinerary: %w", err)
	}
	return nil
}

func heading(f *docx.File, text string) {
	f.AddParagraph().AddText(text).Size(16)
}

func muted(f *docx.File, text string) {
	run := f.AddParagraph().AddText(text)
	run.Color("808080")
}

func formatMs(ms int64) string {
	return time.UnixMilli(ms).UTC().Format("2006-01-02 15:04 UTC")
}
