package landmark

import (
	"math"

	"github.com/himanishpuri/ourtrips/pkg/models"
	"github.com/himanishpuri/ourtrips/pkg/ourtrips/validate"
)

// SelectBest returns the landmark with the strictly greatest confidence.
//
// The scan keeps a running best that starts at negative infinity and only
// moves on strict improvement, so:
//   - the first of several equal top scores wins,
//   - NaN never wins (every comparison with NaN is false),
//   - an input made only of NaN or -Inf scores yields no landmark.
//
// Locations are not inspected; a landmark without any is still eligible.
func SelectBest(candidates []models.Landmark) (models.Landmark, bool) {
	best := -1
	top := math.Inf(-1)
	for i, c := range candidates {
		if c.Confidence > top {
			top = c.Confidence
			best = i
		}
	}
	if best < 0 {
		return models.Landmark{}, false
	}
	return candidates[best], true
}

// Validate rejects malformed detector output before selection.
func Validate(candidates []models.Landmark) error {
	for i, c := range candidates {
		if c.Name == "" {
			return validate.Entry("landmarks", i, "name is empty")
		}
	}
	return nil
}

// FirstLocation returns the primary location reported for a landmark.
func FirstLocation(l models.Landmark) (models.LatLng, bool) {
	if len(l.Locations) == 0 {
		return models.LatLng{}, false
	}
	return l.Locations[0], true
}
