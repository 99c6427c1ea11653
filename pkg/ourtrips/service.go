package ourtrips

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/himanishpuri/ourtrips/pkg/logger"
	"github.com/himanishpuri/ourtrips/pkg/metrics"
	"github.com/himanishpuri/ourtrips/pkg/models"
	"github.com/himanishpuri/ourtrips/pkg/ourtrips/archive"
	"github.com/himanishpuri/ourtrips/pkg/ourtrips/bucket"
	"github.com/himanishpuri/ourtrips/pkg/ourtrips/landmark"
	"github.com/himanishpuri/ourtrips/pkg/ourtrips/plan"
	"github.com/himanishpuri/ourtrips/pkg/ourtrips/validate"
)

// ErrNoDetector is returned by recognition when no vision provider is set.
var ErrNoDetector = errors.New("no vision provider configured")

// tripService is the default implementation of the Service interface.
type tripService struct {
	storage  Storage
	bucket   Bucket
	detector Detector
	log      Logger
	config   *Config
}

func NewService(opts ...Option) (Service, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	// Set default logger if none provided
	if cfg.Logger == nil {
		cfg.Logger = logger.GetLogger().With("[ourtrips]")
	}

	stor := cfg.Storage
	if stor == nil {
		var err error
		stor, err = NewSQLiteStorage(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create storage: %w", err)
		}
	}

	b := cfg.Bucket
	if b == nil {
		local, err := bucket.NewLocal(cfg.BucketDir)
		if err != nil {
			stor.Close()
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
		b = local
	}

	return &tripService{
		storage:  stor,
		bucket:   b,
		detector: cfg.Detector,
		log:      cfg.Logger,
		config:   cfg,
	}, nil
}

func (s *tripService) nowMs() int64 {
	return s.config.Now().UnixMilli()
}

// RegisterUser creates a profile, or returns the existing one for this e-mail.
func (s *tripService) RegisterUser(ctx context.Context, email, name string) (string, error) {
	email = strings.TrimSpace(email)
	if err := validate.Email(email); err != nil {
		return "", err
	}
	if err := validate.Required("name", name); err != nil {
		return "", err
	}

	id, err := s.storage.RegisterUser(ctx, email, strings.TrimSpace(name))
	if err != nil {
		return "", fmt.Errorf("failed to register user: %w", err)
	}
	s.log.Infof("Registered user %s (%s)", id, email)
	return id, nil
}

func (s *tripService) GetUser(ctx context.Context, userID string) (*models.User, error) {
	if err := validate.Required("user_id", userID); err != nil {
		return nil, err
	}
	u, err := s.storage.GetUser(ctx, userID)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return u, nil
}

func (s *tripService) GetUserName(ctx context.Context, userID string) (string, error) {
	u, err := s.GetUser(ctx, userID)
	if err != nil {
		return "", err
	}
	return u.Name, nil
}

// CreateTrip validates the request form and stores the trip with the owner
// and the invited friend as its members.
func (s *tripService) CreateTrip(ctx context.Context, req TripRequest) (*models.Trip, error) {
	if err := validate.Required("title", req.Title); err != nil {
		return nil, err
	}
	if err := validate.Required("owner_id", req.OwnerID); err != nil {
		return nil, err
	}
	if err := validate.Required("friend_id", req.FriendID); err != nil {
		return nil, err
	}
	if req.FriendID == req.OwnerID {
		return nil, &validate.FieldError{Field: "friend_id", Reason: "must differ from owner_id"}
	}
	if err := validate.DateRange(req.StartDate, req.EndDate); err != nil {
		return nil, err
	}
	if _, err := s.GetUser(ctx, req.OwnerID); err != nil {
		return nil, fmt.Errorf("trip owner: %w", err)
	}
	if _, err := s.GetUser(ctx, req.FriendID); err != nil {
		return nil, fmt.Errorf("trip friend: %w", err)
	}

	trip := &models.Trip{
		Title:     strings.TrimSpace(req.Title),
		OwnerID:   req.OwnerID,
		MemberIDs: []string{req.OwnerID, req.FriendID},
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
	}
	if err := s.storage.CreateTrip(ctx, trip); err != nil {
		return nil, fmt.Errorf("failed to create trip: %w", err)
	}
	s.log.Infof("Created trip %s %q for %s with %s", trip.ID, trip.Title, trip.OwnerID, req.FriendID)
	return trip, nil
}

func (s *tripService) GetTrip(ctx context.Context, tripID string) (*models.Trip, error) {
	if err := validate.Required("trip_id", tripID); err != nil {
		return nil, err
	}
	t, err := s.storage.GetTrip(ctx, tripID)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return t, nil
}

func (s *tripService) ListTrips(ctx context.Context, userID string) ([]models.Trip, error) {
	trips, err := s.storage.ListTrips(ctx, strings.TrimSpace(userID))
	if err != nil {
		return nil, fmt.Errorf("failed to list trips: %w", err)
	}
	return trips, nil
}

// DeleteTrip removes the trip and its records, then the photo objects.
// Objects that are already gone are not an error.
func (s *tripService) DeleteTrip(ctx context.Context, tripID string) error {
	if err := validate.Required("trip_id", tripID); err != nil {
		return err
	}
	paths, err := s.storage.DeleteTrip(ctx, tripID)
	if err != nil {
		return mapNotFound(err)
	}

	var errs []error
	for _, p := range paths {
		if err := s.bucket.Delete(ctx, p); err != nil && !errors.Is(err, bucket.ErrObjectNotFound) {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		s.log.Warnf("Trip %s deleted but %d photo object(s) remain", tripID, len(errs))
		return fmt.Errorf("trip deleted, photo cleanup failed: %w", errors.Join(errs...))
	}
	s.log.Infof("Deleted trip %s and %d photo(s)", tripID, len(paths))
	return nil
}

// requireMember checks that the trip exists and that userID belongs to it.
func (s *tripService) requireMember(ctx context.Context, tripID, userID string) error {
	if _, err := s.GetTrip(ctx, tripID); err != nil {
		return err
	}
	ok, err := s.storage.IsMember(ctx, tripID, userID)
	if err != nil {
		return fmt.Errorf("failed to check membership: %w", err)
	}
	if !ok {
		return fmt.Errorf("user %s, trip %s: %w", userID, tripID, ErrNotMember)
	}
	return nil
}

// AddPlan posts a message to the trip's plan board. createdAtMs is the
// author's clock; zero means now.
func (s *tripService) AddPlan(ctx context.Context, tripID, authorID, text string, createdAtMs int64) (*models.Plan, error) {
	if err := validate.Required("author_id", authorID); err != nil {
		return nil, err
	}
	if err := validate.MessageText(text); err != nil {
		return nil, err
	}
	if createdAtMs < 0 {
		return nil, &validate.FieldError{Field: "created_at_ms", Reason: "is negative"}
	}
	if err := s.requireMember(ctx, tripID, authorID); err != nil {
		return nil, err
	}
	name, err := s.GetUserName(ctx, authorID)
	if err != nil {
		return nil, fmt.Errorf("plan author: %w", err)
	}
	if createdAtMs == 0 {
		createdAtMs = s.nowMs()
	}

	p := &models.Plan{
		TripID:      tripID,
		AuthorID:    authorID,
		AuthorName:  name,
		Text:        text,
		CreatedAtMs: createdAtMs,
	}
	if err := s.storage.AddPlan(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to add plan: %w", err)
	}
	metrics.PlansPosted.Inc()
	s.log.Debugf("Plan %s posted to trip %s by %s", p.ID, tripID, name)
	return p, nil
}

// ListPlans returns the trip's plans, earliest first.
func (s *tripService) ListPlans(ctx context.Context, tripID string) ([]models.Plan, error) {
	if _, err := s.GetTrip(ctx, tripID); err != nil {
		return nil, err
	}
	stored, err := s.storage.ListPlans(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	if err := plan.Validate(stored); err != nil {
		return nil, fmt.Errorf("%w: plans of trip %s: %v", ErrCorruptRecord, tripID, err)
	}
	return plan.SortByTime(stored), nil
}

func photoKey(tripID, photoID, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	return "trips/" + tripID + "/" + photoID + ext
}

// UploadPhoto stores the image bytes, then the photo record. If the record
// cannot be written the object is removed again. Only trip members may upload.
func (s *tripService) UploadPhoto(ctx context.Context, tripID, uploaderID, filename, contentType string, r io.Reader) (*models.Photo, error) {
	if r == nil {
		return nil, &validate.FieldError{Field: "image", Reason: "is required"}
	}
	if err := validate.Required("uploader_id", uploaderID); err != nil {
		return nil, err
	}
	if err := s.requireMember(ctx, tripID, uploaderID); err != nil {
		return nil, err
	}
	if contentType == "" {
		contentType = mime.TypeByExtension(strings.ToLower(filepath.Ext(filename)))
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	photoID := uuid.NewString()
	key := photoKey(tripID, photoID, filename)
	size, err := s.bucket.Put(ctx, key, r)
	if err != nil {
		return nil, fmt.Errorf("failed to store photo: %w", err)
	}
	if size == 0 {
		if delErr := s.bucket.Delete(ctx, key); delErr != nil {
			s.log.Warnf("Failed to remove empty photo object %s: %v", key, delErr)
		}
		return nil, &validate.FieldError{Field: "image", Reason: "is empty"}
	}

	p := &models.Photo{
		ID:          photoID,
		TripID:      tripID,
		Path:        key,
		ContentType: contentType,
		SizeBytes:   size,
		CreatedAtMs: s.nowMs(),
	}
	if err := s.storage.AddPhoto(ctx, p); err != nil {
		if delErr := s.bucket.Delete(ctx, key); delErr != nil {
			s.log.Warnf("Failed to roll back photo object %s: %v", key, delErr)
		}
		return nil, fmt.Errorf("failed to record photo: %w", err)
	}
	s.log.Infof("Uploaded photo %s (%d bytes) to trip %s by %s", p.ID, size, tripID, uploaderID)
	return p, nil
}

func (s *tripService) ListPhotos(ctx context.Context, tripID string) ([]models.Photo, error) {
	if _, err := s.GetTrip(ctx, tripID); err != nil {
		return nil, err
	}
	photos, err := s.storage.ListPhotos(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("failed to list photos: %w", err)
	}
	return photos, nil
}

// DeletePhoto removes both the record and the object. Both are attempted
// even if one fails.
func (s *tripService) DeletePhoto(ctx context.Context, tripID, photoID string) error {
	if err := validate.Required("photo_id", photoID); err != nil {
		return err
	}
	p, err := s.storage.GetPhoto(ctx, tripID, photoID)
	if err != nil {
		return mapNotFound(err)
	}

	dbErr := s.storage.DeletePhoto(ctx, tripID, photoID)
	objErr := s.bucket.Delete(ctx, p.Path)
	if errors.Is(objErr, bucket.ErrObjectNotFound) {
		s.log.Warnf("Photo object %s was already missing", p.Path)
		objErr = nil
	}
	if err := errors.Join(dbErr, objErr); err != nil {
		return fmt.Errorf("failed to delete photo %s: %w", photoID, err)
	}
	s.log.Infof("Deleted photo %s from trip %s", photoID, tripID)
	return nil
}

// RecognizeLandmark sends the photo to the vision provider and returns the
// most confident landmark.
func (s *tripService) RecognizeLandmark(ctx context.Context, tripID, photoID string) (models.Landmark, error) {
	if s.detector == nil {
		return models.Landmark{}, ErrNoDetector
	}
	if err := validate.Required("photo_id", photoID); err != nil {
		return models.Landmark{}, err
	}
	p, err := s.storage.GetPhoto(ctx, tripID, photoID)
	if err != nil {
		return models.Landmark{}, mapNotFound(err)
	}
	image, err := s.bucket.Get(ctx, p.Path)
	if err != nil {
		return models.Landmark{}, fmt.Errorf("failed to read photo: %w", mapNotFound(err))
	}

	candidates, err := s.detector.DetectLandmarks(ctx, image)
	if err != nil {
		metrics.Recognitions.WithLabelValues("error").Inc()
		return models.Landmark{}, fmt.Errorf("recognition failed: %w", err)
	}
	if err := landmark.Validate(candidates); err != nil {
		metrics.Recognitions.WithLabelValues("error").Inc()
		return models.Landmark{}, fmt.Errorf("%w: %v", ErrProviderResponse, err)
	}
	s.log.Debugf("Vision provider returned %d candidate(s) for photo %s", len(candidates), photoID)

	best, ok := landmark.SelectBest(candidates)
	if !ok {
		metrics.Recognitions.WithLabelValues("none").Inc()
		return models.Landmark{}, ErrNoLandmark
	}
	metrics.Recognitions.WithLabelValues("found").Inc()
	metrics.RecognitionConfidence.Observe(best.Confidence)
	s.log.Infof("Recognized %q (confidence %.3f) in photo %s", best.Name, best.Confidence, photoID)
	return best, nil
}

// AddLocation pins a landmark on the trip map at its first reported location.
func (s *tripService) AddLocation(ctx context.Context, tripID string, l models.Landmark) (*models.TripLocation, error) {
	if err := validate.Required("name", l.Name); err != nil {
		return nil, err
	}
	if _, err := s.GetTrip(ctx, tripID); err != nil {
		return nil, err
	}
	at, ok := landmark.FirstLocation(l)
	if !ok {
		return nil, fmt.Errorf("%s: %w", l.Name, ErrNoLocation)
	}

	loc := &models.TripLocation{
		TripID:      tripID,
		Name:        l.Name,
		Latitude:    at.Latitude,
		Longitude:   at.Longitude,
		Confidence:  l.Confidence,
		CreatedAtMs: s.nowMs(),
	}
	if err := s.storage.AddLocation(ctx, loc); err != nil {
		return nil, fmt.Errorf("failed to add location: %w", err)
	}
	s.log.Infof("Pinned %s at %.5f,%.5f on trip %s", loc.Name, loc.Latitude, loc.Longitude, tripID)
	return loc, nil
}

// RecognizeAndPin recognizes the photo and pins the result in one step.
func (s *tripService) RecognizeAndPin(ctx context.Context, tripID, photoID string) (*models.TripLocation, error) {
	best, err := s.RecognizeLandmark(ctx, tripID, photoID)
	if err != nil {
		return nil, err
	}
	return s.AddLocation(ctx, tripID, best)
}

func (s *tripService) ListLocations(ctx context.Context, tripID string) ([]models.TripLocation, error) {
	if _, err := s.GetTrip(ctx, tripID); err != nil {
		return nil, err
	}
	locs, err := s.storage.ListLocations(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("failed to list locations: %w", err)
	}
	return locs, nil
}

// ExportTrip gathers everything known about a trip into an archive.
func (s *tripService) ExportTrip(ctx context.Context, tripID string) (*archive.Trip, error) {
	trip, err := s.GetTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}
	plans, err := s.ListPlans(ctx, tripID)
	if err != nil {
		return nil, err
	}
	locs, err := s.ListLocations(ctx, tripID)
	if err != nil {
		return nil, err
	}
	photos, err := s.ListPhotos(ctx, tripID)
	if err != nil {
		return nil, err
	}
	return &archive.Trip{
		Version:    archive.Version,
		ExportedAt: s.nowMs(),
		Trip:       *trip,
		Plans:      plans,
		Locations:  locs,
		Photos:     photos,
	}, nil
}

func (s *tripService) Stats(ctx context.Context) (Stats, error) {
	return s.storage.Stats(ctx)
}

// Close releases all resources held by the service.
func (s *tripService) Close() error {
	return s.storage.Close()
}
