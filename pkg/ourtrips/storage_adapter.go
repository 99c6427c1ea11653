package ourtrips

import (
	"context"

	"github.com/himanishpuri/ourtrips/pkg/models"
	"github.com/himanishpuri/ourtrips/pkg/ourtrips/storage"
)

// storageAdapter adapts the storage.DBClient to implement the Storage interface.
type storageAdapter struct {
	db *storage.DBClient
}

// NewSQLiteStorage creates a new SQLite storage backend.
func NewSQLiteStorage(dbPath string) (Storage, error) {
	db, err := storage.NewDBClientWithPath(dbPath)
	if err != nil {
		return nil, err
	}
	return &storageAdapter{db: db}, nil
}

func (s *storageAdapter) RegisterUser(ctx context.Context, email, name string) (string, error) {
	return s.db.RegisterUser(ctx, email, name)
}

func (s *storageAdapter) GetUser(ctx context.Context, userID string) (*models.User, error) {
	u, err := s.db.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &models.User{ID: u.ID, Email: u.Email, Name: u.Name, CreatedAt: u.CreatedAt}, nil
}

func (s *storageAdapter) CreateTrip(ctx context.Context, trip *models.Trip) error {
	row := storage.Trip{
		ID:        trip.ID,
		Title:     trip.Title,
		OwnerID:   trip.OwnerID,
		StartDate: trip.StartDate,
		EndDate:   trip.EndDate,
	}
	if err := s.db.CreateTrip(ctx, &row, trip.MemberIDs...); err != nil {
		return err
	}
	members, err := s.db.Members(ctx, row.ID)
	if err != nil {
		return err
	}
	trip.ID = row.ID
	trip.MemberIDs = members[row.ID]
	trip.CreatedAt = row.CreatedAt
	return nil
}

func tripFromRow(r storage.Trip, members []string) models.Trip {
	return models.Trip{
		ID:        r.ID,
		Title:     r.Title,
		OwnerID:   r.OwnerID,
		MemberIDs: members,
		StartDate: r.StartDate,
		EndDate:   r.EndDate,
		CreatedAt: r.CreatedAt,
	}
}

func (s *storageAdapter) GetTrip(ctx context.Context, tripID string) (*models.Trip, error) {
	r, err := s.db.GetTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}
	members, err := s.db.Members(ctx, r.ID)
	if err != nil {
		return nil, err
	}
	t := tripFromRow(*r, members[r.ID])
	return &t, nil
}

func (s *storageAdapter) ListTrips(ctx context.Context, userID string) ([]models.Trip, error) {
	rows, err := s.db.ListTrips(ctx, userID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(rows))
	for i, r := range rows {
		ids[i] = r.ID
	}
	members, err := s.db.Members(ctx, ids...)
	if err != nil {
		return nil, err
	}
	trips := make([]models.Trip, len(rows))
	for i, r := range rows {
		trips[i] = tripFromRow(r, members[r.ID])
	}
	return trips, nil
}

func (s *storageAdapter) IsMember(ctx context.Context, tripID, userID string) (bool, error) {
	return s.db.IsMember(ctx, tripID, userID)
}

func (s *storageAdapter) DeleteTrip(ctx context.Context, tripID string) ([]string, error) {
	return s.db.DeleteTrip(ctx, tripID)
}

func (s *storageAdapter) AddPlan(ctx context.Context, p *models.Plan) error {
	row := storage.Plan{
		ID:          p.ID,
		TripID:      p.TripID,
		AuthorID:    p.AuthorID,
		AuthorName:  p.AuthorName,
		Text:        p.Text,
		CreatedAtMs: p.CreatedAtMs,
	}
	if err := s.db.AddPlan(ctx, &row); err != nil {
		return err
	}
	p.ID = row.ID
	return nil
}

func (s *storageAdapter) ListPlans(ctx context.Context, tripID string) ([]models.Plan, error) {
	rows, err := s.db.ListPlans(ctx, tripID)
	if err != nil {
		return nil, err
	}
	plans := make([]models.Plan, len(rows))
	for i, r := range rows {
		plans[i] = models.Plan{
			ID:          r.ID,
			TripID:      r.TripID,
			AuthorID:    r.AuthorID,
			AuthorName:  r.AuthorName,
			Text:        r.Text,
			CreatedAtMs: r.CreatedAtMs,
		}
	}
	return plans, nil
}

func photoFromRow(r storage.Photo) models.Photo {
	return models.Photo{
		ID:          r.ID,
		TripID:      r.TripID,
		Path:        r.Path,
		ContentType: r.ContentType,
		SizeBytes:   r.SizeBytes,
		CreatedAtMs: r.CreatedAtMs,
	}
}

func (s *storageAdapter) AddPhoto(ctx context.Context, p *models.Photo) error {
	row := storage.Photo{
		ID:          p.ID,
		TripID:      p.TripID,
		Path:        p.Path,
		ContentType: p.ContentType,
		SizeBytes:   p.SizeBytes,
		CreatedAtMs: p.CreatedAtMs,
	}
	if err := s.db.AddPhoto(ctx, &row); err != nil {
		return err
	}
	p.ID = row.ID
	return nil
}

func (s *storageAdapter) GetPhoto(ctx context.Context, tripID, photoID string) (*models.Photo, error) {
	r, err := s.db.GetPhoto(ctx, tripID, photoID)
	if err != nil {
		return nil, err
	}
	p := photoFromRow(*r)
	return &p, nil
}

func (s *storageAdapter) ListPhotos(ctx context.Context, tripID string) ([]models.Photo, error) {
	rows, err := s.db.ListPhotos(ctx, tripID)
	if err != nil {
		return nil, err
	}
	photos := make([]models.Photo, len(rows))
	for i, r := range rows {
		photos[i] = photoFromRow(r)
	}
	return photos, nil
}

func (s *storageAdapter) DeletePhoto(ctx context.Context, tripID, photoID string) error {
	return s.db.DeletePhoto(ctx, tripID, photoID)
}

func (s *storageAdapter) AddLocation(ctx context.Context, l *models.TripLocation) error {
	row := storage.Location{
		ID:          l.ID,
		TripID:      l.TripID,
		Name:        l.Name,
		Latitude:    l.Latitude,
		Longitude:   l.Longitude,
		Confidence:  l.Confidence,
		CreatedAtMs: l.CreatedAtMs,
	}
	if err := s.db.AddLocation(ctx, &row); err != nil {
		return err
	}
	l.ID = row.ID
	return nil
}

func (s *storageAdapter) ListLocations(ctx context.Context, tripID string) ([]models.TripLocation, error) {
	rows, err := s.db.ListLocations(ctx, tripID)
	if err != nil {
		return nil, err
	}
	locs := make([]models.TripLocation, len(rows))
	for i, r := range rows {
		locs[i] = models.TripLocation{
			ID:          r.ID,
			TripID:      r.TripID,
			Name:        r.Name,
			Latitude:    r.Latitude,
			Longitude:   r.Longitude,
			Confidence:  r.Confidence,
			CreatedAtMs: r.CreatedAtMs,
		}
	}
	return locs, nil
}

func (s *storageAdapter) Stats(ctx context.Context) (Stats, error) {
	c, err := s.db.Counts(ctx)
	if err != nil {
		return Stats{}, err
	}
	return Stats{Users: c.Users, Trips: c.Trips, Plans: c.Plans, Photos: c.Photos, Locations: c.Locations}, nil
}

func (s *storageAdapter) Close() error {
	return s.db.Close()
}
