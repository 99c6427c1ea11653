package plan

import (
	"cmp"
	"slices"

	"github.com/himanishpuri/ourtrips/pkg/models"
	"github.com/himanishpuri/ourtrips/pkg/ourtrips/validate"
)

// SortByTime returns a copy of entries ordered by CreatedAtMs, earliest
// first. Entries sharing a timestamp keep their input order.
func SortByTime(entries []models.Plan) []models.Plan {
	out := make([]models.Plan, len(entries))
	copy(out, entries)
	slices.SortStableFunc(out, func(a, b models.Plan) int {
		return cmp.Compare(a.CreatedAtMs, b.CreatedAtMs)
	})
	return out
}

// Validate rejects entries that cannot be placed on the timeline.
func Validate(entries []models.Plan) error {
	for i, e := range entries {
		if e.AuthorID == "" {
			return validate.Entry("plans", i, "author id is empty")
		}
		if e.CreatedAtMs < 0 {
			return validate.Entry("plans", i, "created_at_ms is negative")
		}
	}
	return nil
}
