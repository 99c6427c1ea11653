package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/himanishpuri/ourtrips/pkg/ourtrips"
	"github.com/himanishpuri/ourtrips/pkg/ourtrips/archive"
)

type cliEnv struct {
	dir     string
	global  []string
	fixture string
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	t.Setenv("OURTRIPS_CONFIG", "")
	dir := t.TempDir()
	fixture := filepath.Join(dir, "vision.yaml")
	require.NoError(t, os.WriteFile(fixture, []byte(`
default:
  - name: Colosseum
    confidence: 0.92
    locations:
      - {latitude: 41.8902, longitude: 12.4922}
  - name: Roman Forum
    confidence: 0.41
`), 0o644))

	return &cliEnv{
		dir:     dir,
		fixture: fixture,
		global: []string{
			"--db", filepath.Join(dir, "trips.sqlite3"),
			"--bucket", filepath.Join(dir, "bucket"),
			"--vision-fixture", fixture,
		},
	}
}

func (e *cliEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(append(append([]string{}, e.global...), args...))
	err := cmd.Execute()
	return out.String(), err
}

func (e *cliEnv) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := e.run(t, args...)
	require.NoError(t, err, "ourtrips %s", strings.Join(args, " "))
	return out
}

// seed registers Ana and her friend Bo and creates a trip for both. It
// returns Ana's ID and the trip ID.
func (e *cliEnv) seed(t *testing.T) (string, string) {
	t.Helper()
	user := strings.TrimSpace(e.mustRun(t, "user", "add", "ana@example.com", "Ana", "Silva"))
	require.NotEmpty(t, user)
	friend := strings.TrimSpace(e.mustRun(t, "user", "add", "bo@example.com", "Bo"))
	require.NotEmpty(t, friend)
	trip := strings.TrimSpace(e.mustRun(t, "trip", "create", "--title", "Rome", "--owner", user, "--friend", friend, "--start", "2026-11-02", "--end", "2026-11-06"))
	require.NotEmpty(t, trip)
	return user, trip
}

func TestUserAndTripCommands(t *testing.T) {
	e := newCLIEnv(t)
	user, trip := e.seed(t)

	again := strings.TrimSpace(e.mustRun(t, "user", "add", "ana@example.com", "Someone"))
	assert.Equal(t, user, again)
	assert.Contains(t, e.mustRun(t, "user", "show", user), "Ana Silva")

	out := e.mustRun(t, "trip", "list", "--user", user)
	assert.Contains(t, out, "Rome")
	assert.Contains(t, out, "2026-11-02 to 2026-11-06")

	friend := strings.TrimSpace(e.mustRun(t, "user", "add", "bo@example.com", "Bo"))
	assert.Contains(t, e.mustRun(t, "trip", "list", "--user", friend), "Rome")
	assert.Contains(t, e.mustRun(t, "trip", "show", trip), "travellers: "+user+", "+friend)
	cy := strings.TrimSpace(e.mustRun(t, "user", "add", "cy@example.com", "Cy"))
	assert.Contains(t, e.mustRun(t, "trip", "list", "--user", cy), "No trips yet")

	_, err := e.run(t, "trip", "create", "--title", "x", "--owner", user, "--friend", friend, "--start", "tomorrow", "--end", "2026-11-06")
	assert.Error(t, err)
	_, err = e.run(t, "trip", "create", "--title", "x", "--owner", user, "--friend", friend, "--start", "2026-11-02")
	assert.Error(t, err, "end date is required")
	_, err = e.run(t, "trip", "create", "--title", "x", "--owner", user, "--start", "2026-11-02", "--end", "2026-11-02")
	assert.Error(t, err, "friend is required")
	_, err = e.run(t, "user", "add", "nope", "X")
	assert.Error(t, err)

	e.mustRun(t, "trip", "delete", trip)
	_, err = e.run(t, "trip", "show", trip)
	assert.Error(t, err)
}

func TestPlanCommands(t *testing.T) {
	e := newCLIEnv(t)
	user, trip := e.seed(t)

	e.mustRun(t, "plan", "add", trip, "--author", user, "--at", "3000", "hi")
	e.mustRun(t, "plan", "add", trip, "--author", user, "--at", "1000", "yo")
	e.mustRun(t, "plan", "add", trip, "--author", user, "--at", "2000", "sup", "everyone")

	out := e.mustRun(t, "plan", "list", trip)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasSuffix(lines[0], "Ana Silva: yo"), lines[0])
	assert.True(t, strings.HasSuffix(lines[1], "Ana Silva: sup everyone"), lines[1])
	assert.True(t, strings.HasSuffix(lines[2], "Ana Silva: hi"), lines[2])

	_, err := e.run(t, "plan", "add", trip, "--author", user, "   ")
	assert.Error(t, err)

	cy := strings.TrimSpace(e.mustRun(t, "user", "add", "cy@example.com", "Cy"))
	_, err = e.run(t, "plan", "add", trip, "--author", cy, "hello?")
	assert.ErrorIs(t, err, ourtrips.ErrNotMember)
}

func TestPhotoRecognizeAndExport(t *testing.T) {
	e := newCLIEnv(t)
	user, trip := e.seed(t)

	pics := filepath.Join(e.dir, "pics")
	require.NoError(t, os.MkdirAll(filepath.Join(pics, "day1"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(pics, "day1", "colosseum.jpg"), []byte("c"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(pics, "forum.jpg"), []byte("f"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(pics, "notes.txt"), []byte("n"), 0o644))

	cy := strings.TrimSpace(e.mustRun(t, "user", "add", "cy@example.com", "Cy"))
	_, err := e.run(t, "photo", "add", trip, "--uploader", cy, filepath.Join(pics, "forum.jpg"))
	assert.ErrorIs(t, err, ourtrips.ErrNotMember)

	out := e.mustRun(t, "photo", "add", trip, "--uploader", user, filepath.Join(pics, "**", "*.jpg"))
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	photoID, _, ok := strings.Cut(lines[0], "\t")
	require.True(t, ok)

	_, err = e.run(t, "photo", "add", trip, "--uploader", user, filepath.Join(pics, "*.png"))
	assert.Error(t, err, "pattern without matches")

	out = e.mustRun(t, "recognize", trip, photoID)
	assert.Contains(t, out, "Colosseum")

	out = e.mustRun(t, "recognize", trip, photoID, "--pin")
	assert.Contains(t, out, "41.89020")
	out = e.mustRun(t, "location", "list", trip)
	assert.Contains(t, out, "Colosseum")

	e.mustRun(t, "location", "add", trip, "--name", "Trevi Fountain", "--lat", "41.9009", "--lng", "12.4833")

	jsonPath := filepath.Join(e.dir, "rome.json")
	e.mustRun(t, "export", trip, "--out", jsonPath)
	f, err := os.Open(jsonPath)
	require.NoError(t, err)
	defer f.Close()
	a, err := archive.Decode(f, archive.FormatJSON)
	require.NoError(t, err)
	assert.Len(t, a.Photos, 2)
	assert.Len(t, a.Locations, 2)

	mp := e.mustRun(t, "export", trip, "--format", "msgpack")
	decoded, err := archive.Decode(strings.NewReader(mp), archive.FormatMsgpack)
	require.NoError(t, err)
	assert.Equal(t, "Rome", decoded.Trip.Title)

	docxPath := filepath.Join(e.dir, "rome.docx")
	e.mustRun(t, "export", trip, "--format", "docx", "--out", docxPath)
	_, err = os.Stat(docxPath)
	assert.NoError(t, err)
	_, err = e.run(t, "export", trip, "--format", "docx")
	assert.Error(t, err)

	e.mustRun(t, "photo", "delete", trip, photoID)
	out = e.mustRun(t, "photo", "list", trip)
	assert.NotContains(t, out, photoID)

	out = e.mustRun(t, "stats")
	assert.Contains(t, out, `"photos": 1`)
}

func TestExpandPhotos(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.jpg")
	require.NoError(t, os.WriteFile(a, []byte("a"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.jpg"), 0o755))

	files, err := expandPhotos([]string{a, filepath.Join(dir, "*.jpg")})
	require.NoError(t, err)
	assert.Equal(t, []string{a}, files, "duplicates and directories dropped")

	_, err = expandPhotos([]string{filepath.Join(dir, "[")})
	assert.Error(t, err)
}
