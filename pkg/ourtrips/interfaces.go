package ourtrips

import (
	"context"
	"io"

	"github.com/himanishpuri/ourtrips/pkg/models"
	"github.com/himanishpuri/ourtrips/pkg/ourtrips/archive"
)

type Service interface {
	RegisterUser(ctx context.Context, email, name string) (string, error)
	GetUser(ctx context.Context, userID string) (*models.User, error)
	GetUserName(ctx context.Context, userID string) (string, error)

	CreateTrip(ctx context.Context, req TripRequest) (*models.Trip, error)
	GetTrip(ctx context.Context, tripID string) (*models.Trip, error)
	// ListTrips lists the trips userID is a member of; empty lists all.
	ListTrips(ctx context.Context, userID string) ([]models.Trip, error)
	DeleteTrip(ctx context.Context, tripID string) error

	AddPlan(ctx context.Context, tripID, authorID, text string, createdAtMs int64) (*models.Plan, error)
	ListPlans(ctx context.Context, tripID string) ([]models.Plan, error)

	UploadPhoto(ctx context.Context, tripID, uploaderID, filename, contentType string, r io.Reader) (*models.Photo, error)
	ListPhotos(ctx context.Context, tripID string) ([]models.Photo, error)
	DeletePhoto(ctx context.Context, tripID, photoID string) error

	RecognizeLandmark(ctx context.Context, tripID, photoID string) (models.Landmark, error)
	AddLocation(ctx context.Context, tripID string, landmark models.Landmark) (*models.TripLocation, error)
	RecognizeAndPin(ctx context.Context, tripID, photoID string) (*models.TripLocation, error)
	ListLocations(ctx context.Context, tripID string) ([]models.TripLocation, error)

	ExportTrip(ctx context.Context, tripID string) (*archive.Trip, error)
	Stats(ctx context.Context) (Stats, error)
	Close() error
}

type Storage interface {
	RegisterUser(ctx context.Context, email, name string) (string, error)
	GetUser(ctx context.Context, userID string) (*models.User, error)
	// CreateTrip stores the trip with its MemberIDs; the owner is always a member.
	CreateTrip(ctx context.Context, trip *models.Trip) error
	GetTrip(ctx context.Context, tripID string) (*models.Trip, error)
	ListTrips(ctx context.Context, userID string) ([]models.Trip, error)
	IsMember(ctx context.Context, tripID, userID string) (bool, error)
	// DeleteTrip returns the bucket keys of the photos it removed.
	DeleteTrip(ctx context.Context, tripID string) ([]string, error)
	AddPlan(ctx context.Context, p *models.Plan) error
	ListPlans(ctx context.Context, tripID string) ([]models.Plan, error)
	AddPhoto(ctx context.Context, p *models.Photo) error
	GetPhoto(ctx context.Context, tripID, photoID string) (*models.Photo, error)
	ListPhotos(ctx context.Context, tripID string) ([]models.Photo, error)
	DeletePhoto(ctx context.Context, tripID, photoID string) error
	AddLocation(ctx context.Context, l *models.TripLocation) error
	ListLocations(ctx context.Context, tripID string) ([]models.TripLocation, error)
	Stats(ctx context.Context) (Stats, error)
	Close() error
}

// Detector is the vision provider.
type Detector interface {
	DetectLandmarks(ctx context.Context, image []byte) ([]models.Landmark, error)
}

// Bucket is the object store holding photo bytes.
type Bucket interface {
	Put(ctx context.Context, key string, r io.Reader) (int64, error)
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

type Logger interface {
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
	Debugf(format string, args ...any)
}
