package ourtrips

import (
	"errors"

	"github.com/himanishpuri/ourtrips/pkg/ourtrips/bucket"
	"github.com/himanishpuri/ourtrips/pkg/ourtrips/storage"
	"github.com/himanishpuri/ourtrips/pkg/ourtrips/validate"
)

var (
	// ErrInvalidInput is returned for requests rejected before any work.
	ErrInvalidInput = validate.ErrInvalidInput
	// ErrNotFound is returned when a user, trip or photo does not exist.
	ErrNotFound = errors.New("not found")
	// ErrNoLandmark is returned when the vision provider found nothing selectable.
	ErrNoLandmark = errors.New("no landmark recognized")
	// ErrNoLocation is returned when a landmark carries no coordinates.
	ErrNoLocation = errors.New("landmark has no location")
	// ErrNotMember is returned when a user acts on a trip they are not part of.
	ErrNotMember = errors.New("not a member of this trip")
	// ErrProviderResponse is returned when the vision provider answers with
	// malformed candidates.
	ErrProviderResponse = errors.New("malformed vision provider response")
	// ErrCorruptRecord is returned when stored rows fail validation on read.
	ErrCorruptRecord = errors.New("corrupt stored record")
)

// notFoundError lets collaborator misses satisfy errors.Is(err, ErrNotFound)
// while keeping the original chain intact.
type notFoundError struct{ err error }

func (e *notFoundError) Error() string { return e.err.Error() }

func (e *notFoundError) Is(target error) bool { return target == ErrNotFound }

func (e *notFoundError) Unwrap() error { return e.err }

func mapNotFound(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, storage.ErrNotFound) || errors.Is(err, bucket.ErrObjectNotFound) {
		return &notFoundError{err: err}
	}
	return err
}
