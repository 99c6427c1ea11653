package landmark

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/himanishpuri/ourtrips/pkg/models"
	"github.com/himanishpuri/ourtrips/pkg/ourtrips/validate"
)

func TestSelectBest(t *testing.T) {
	nan := math.NaN()

	tests := []struct {
		name       string
		candidates []models.Landmark
		want       string
		found      bool
	}{
		{
			name:  "nil input",
			found: false,
		},
		{
			name:       "empty input",
			candidates: []models.Landmark{},
			found:      false,
		},
		{
			name: "tie keeps first seen",
			candidates: []models.Landmark{
				{Name: "A", Confidence: 0.4},
				{Name: "B", Confidence: 0.9},
				{Name: "C", Confidence: 0.9},
			},
			want:  "B",
			found: true,
		},
		{
			name: "single candidate",
			candidates: []models.Landmark{
				{Name: "Eiffel Tower", Confidence: 0.12},
			},
			want:  "Eiffel Tower",
			found: true,
		},
		{
			name: "negative scores are still real scores",
			candidates: []models.Landmark{
				{Name: "low", Confidence: -5},
				{Name: "lower", Confidence: -7},
			},
			want:  "low",
			found: true,
		},
		{
			name: "NaN never beats a real score",
			candidates: []models.Landmark{
				{Name: "nan", Confidence: nan},
				{Name: "real", Confidence: 0.01},
				{Name: "nan2", Confidence: nan},
			},
			want:  "real",
			found: true,
		},
		{
			name: "NaN only yields nothing",
			candidates: []models.Landmark{
				{Name: "nan", Confidence: nan},
			},
			found: false,
		},
		{
			name: "negative infinity is not above the sentinel",
			candidates: []models.Landmark{
				{Name: "floor", Confidence: math.Inf(-1)},
			},
			found: false,
		},
		{
			name: "missing locations still eligible",
			candidates: []models.Landmark{
				{Name: "with", Confidence: 0.5, Locations: []models.LatLng{{Latitude: 1, Longitude: 2}}},
				{Name: "without", Confidence: 0.8},
			},
			want:  "without",
			found: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := SelectBest(tt.candidates)
			require.Equal(t, tt.found, ok)
			if ok {
				assert.Equal(t, tt.want, got.Name)
			} else {
				assert.Equal(t, models.Landmark{}, got)
			}
		})
	}
}

func TestSelectBestProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for round := 0; round < 200; round++ {
		n := 1 + rng.Intn(12)
		candidates := make([]models.Landmark, n)
		for i := range candidates {
			// A small score range forces frequent ties.
			candidates[i] = models.Landmark{
				Name:       string(rune('a' + i)),
				Confidence: float64(rng.Intn(4)) / 4,
			}
		}
		snapshot := append([]models.Landmark(nil), candidates...)

		got, ok := SelectBest(candidates)
		require.True(t, ok)

		firstMax := -1
		for i, c := range candidates {
			assert.GreaterOrEqual(t, got.Confidence, c.Confidence)
			if c.Confidence == got.Confidence && firstMax < 0 {
				firstMax = i
			}
		}
		assert.Equal(t, candidates[firstMax].Name, got.Name, "first maximum must win")
		assert.Equal(t, snapshot, candidates, "input must not be mutated")
	}
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate(nil))
	assert.NoError(t, Validate([]models.Landmark{{Name: "Big Ben", Confidence: 0.7}}))

	err := Validate([]models.Landmark{{Name: "ok"}, {Name: ""}})
	require.ErrorIs(t, err, validate.ErrInvalidInput)
	assert.Contains(t, err.Error(), "landmarks[1]")
}

func TestFirstLocation(t *testing.T) {
	_, ok := FirstLocation(models.Landmark{Name: "x"})
	assert.False(t, ok)

	loc, ok := FirstLocation(models.Landmark{
		Name: "Colosseum",
		Locations: []models.LatLng{
			{Latitude: 41.8902, Longitude: 12.4922},
			{Latitude: 0, Longitude: 0},
		},
	})
	require.True(t, ok)
	assert.Equal(t, 41.8902, loc.Latitude)
	assert.Equal(t, 12.4922, loc.Longitude)
}
