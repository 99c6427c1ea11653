package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const DefaultDBFile = "ourtrips.sqlite3"
const errDBClientNil = "db client is nil"

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("record not found")

type DBClient struct {
	DB *gorm.DB
	db *sql.DB
}

type User struct {
	ID        string `gorm:"primaryKey;type:varchar(36)"`
	Email     string `gorm:"uniqueIndex:idx_user_email"`
	Name      string
	CreatedAt time.Time
}

type Trip struct {
	ID        string `gorm:"primaryKey;type:varchar(36)"`
	Title     string
	OwnerID   string `gorm:"type:varchar(36);index:idx_trip_owner"`
	StartDate time.Time
	EndDate   time.Time
	CreatedAt time.Time
}

// TripMember links a user to a trip they may post to and upload into.
// Position 0 is the owner.
type TripMember struct {
	TripID   string `gorm:"primaryKey;type:varchar(36)"`
	UserID   string `gorm:"primaryKey;type:varchar(36);index:idx_member_user"`
	Position int
}

// Plan rows carry an autoincrement sequence so listing can fall back to
// insertion order.
type Plan struct {
	Seq         uint   `gorm:"primaryKey;autoIncrement"`
	ID          string `gorm:"uniqueIndex:idx_plan_id;type:varchar(36)"`
	TripID      string `gorm:"type:varchar(36);index:idx_plan_trip"`
	AuthorID    string `gorm:"type:varchar(36)"`
	AuthorName  string
	Text        string
	CreatedAtMs int64
}

type Photo struct {
	ID          string `gorm:"primaryKey;type:varchar(36)"`
	TripID      string `gorm:"type:varchar(36);index:idx_photo_trip"`
	Path        string
	ContentType string
	SizeBytes   int64
	CreatedAtMs int64
}

type Location struct {
	Seq         uint   `gorm:"primaryKey;autoIncrement"`
	ID          string `gorm:"uniqueIndex:idx_location_id;type:varchar(36)"`
	TripID      string `gorm:"type:varchar(36);index:idx_location_trip"`
	Name        string
	Latitude    float64
	Longitude   float64
	Confidence  float64
	CreatedAtMs int64
}

func NewDBClient() (*DBClient, error) {
	dbPath := os.Getenv("OURTRIPS_DB_PATH")
	if dbPath == "" {
		dbPath = DefaultDBFile
	}
	return NewDBClientWithPath(dbPath)
}

func NewDBClientWithPath(dbPath string) (*DBClient, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating db dir: %w", err)
		}
	}

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}

	db, err := gorm.Open(sqlite.Open(dbPath+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting sql.DB from gorm: %w", err)
	}

	// SQLite serializes writers; one connection avoids SQLITE_BUSY under load.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&User{}, &Trip{}, &TripMember{}, &Plan{}, &Photo{}, &Location{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("auto migrate: %w", err)
	}

	return &DBClient{DB: db, db: sqlDB}, nil
}

func (c *DBClient) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

func (c *DBClient) ready() error {
	if c == nil || c.DB == nil {
		return errors.New(errDBClientNil)
	}
	return nil
}

func notFound(err error, what, id string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s %s: %w", what, id, ErrNotFound)
	}
	return fmt.Errorf("querying %s %s: %w", what, id, err)
}

func isUniqueViolation(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) ||
		strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "constraint failed")
}

// RegisterUser returns the ID of the user with this e-mail, creating the
// row when it does not exist yet.
func (c *DBClient) RegisterUser(ctx context.Context, email, name string) (string, error) {
	if err := c.ready(); err != nil {
		return "", err
	}
	db := c.DB.WithContext(ctx)

	var user User
	err := db.Where("email = ?", email).First(&user).Error
	if err == nil {
		return user.ID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", fmt.Errorf("querying existing user: %w", err)
	}

	user = User{ID: uuid.NewString(), Email: email, Name: name}
	if err := db.Create(&user).Error; err != nil {
		if isUniqueViolation(err) {
			if fetchErr := db.Where("email = ?", email).First(&user).Error; fetchErr != nil {
				return "", fmt.Errorf("fetching user after constraint violation: %w", fetchErr)
			}
			return user.ID, nil
		}
		return "", fmt.Errorf("creating user: %w", err)
	}
	return user.ID, nil
}

func (c *DBClient) GetUser(ctx context.Context, id string) (*User, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	var user User
	if err := c.DB.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, notFound(err, "user", id)
	}
	return &user, nil
}

// CreateTrip stores the trip and its members in one transaction. The owner
// is always a member; repeated IDs are stored once.
func (c *DBClient) CreateTrip(ctx context.Context, trip *Trip, memberIDs ...string) error {
	if err := c.ready(); err != nil {
		return err
	}
	if trip.ID == "" {
		trip.ID = uuid.NewString()
	}

	seen := make(map[string]bool)
	var members []TripMember
	for _, id := range append([]string{trip.OwnerID}, memberIDs...) {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		members = append(members, TripMember{TripID: trip.ID, UserID: id, Position: len(members)})
	}

	err := c.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(trip).Error; err != nil {
			return err
		}
		if len(members) == 0 {
			return nil
		}
		return tx.Create(&members).Error
	})
	if err != nil {
		return fmt.Errorf("creating trip: %w", err)
	}
	return nil
}

func (c *DBClient) GetTrip(ctx context.Context, id string) (*Trip, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	var trip Trip
	if err := c.DB.WithContext(ctx).Where("id = ?", id).First(&trip).Error; err != nil {
		return nil, notFound(err, "trip", id)
	}
	return &trip, nil
}

// ListTrips lists the trips userID is a member of, by start date. An empty
// userID lists every trip.
func (c *DBClient) ListTrips(ctx context.Context, userID string) ([]Trip, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	db := c.DB.WithContext(ctx)
	q := db.Order("start_date ASC").Order("created_at ASC")
	if userID != "" {
		q = q.Where("id IN (?)", db.Model(&TripMember{}).Select("trip_id").Where("user_id = ?", userID))
	}
	var trips []Trip
	if err := q.Find(&trips).Error; err != nil {
		return nil, fmt.Errorf("listing trips: %w", err)
	}
	return trips, nil
}

// Members returns the member user IDs of each given trip, owner first.
func (c *DBClient) Members(ctx context.Context, tripIDs ...string) (map[string][]string, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	out := make(map[string][]string, len(tripIDs))
	if len(tripIDs) == 0 {
		return out, nil
	}
	var rows []TripMember
	err := c.DB.WithContext(ctx).Where("trip_id IN ?", tripIDs).
		Order("position ASC").Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("listing trip members: %w", err)
	}
	for _, r := range rows {
		out[r.TripID] = append(out[r.TripID], r.UserID)
	}
	return out, nil
}

func (c *DBClient) IsMember(ctx context.Context, tripID, userID string) (bool, error) {
	if err := c.ready(); err != nil {
		return false, err
	}
	var n int64
	err := c.DB.WithContext(ctx).Model(&TripMember{}).
		Where("trip_id = ? AND user_id = ?", tripID, userID).Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("checking trip member: %w", err)
	}
	return n > 0, nil
}

// DeleteTrip removes a trip with its members, plans, photos and locations, and
// returns the object paths of the removed photos.
func (c *DBClient) DeleteTrip(ctx context.Context, id string) ([]string, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	var paths []string
	err := c.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ?", id).Delete(&Trip{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("trip %s: %w", id, ErrNotFound)
		}
		if err := tx.Model(&Photo{}).Where("trip_id = ?", id).Pluck("path", &paths).Error; err != nil {
			return err
		}
		for _, model := range []any{&TripMember{}, &Plan{}, &Photo{}, &Location{}} {
			if err := tx.Where("trip_id = ?", id).Delete(model).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}

func (c *DBClient) AddPlan(ctx context.Context, p *Plan) error {
	if err := c.ready(); err != nil {
		return err
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if err := c.DB.WithContext(ctx).Create(p).Error; err != nil {
		return fmt.Errorf("creating plan: %w", err)
	}
	return nil
}

// ListPlans returns a trip's plans in insertion order. Ordering by time is
// left to the caller.
func (c *DBClient) ListPlans(ctx context.Context, tripID string) ([]Plan, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	var rows []Plan
	if err := c.DB.WithContext(ctx).Where("trip_id = ?", tripID).Order("seq ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("listing plans: %w", err)
	}
	return rows, nil
}

func (c *DBClient) AddPhoto(ctx context.Context, p *Photo) error {
	if err := c.ready(); err != nil {
		return err
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if err := c.DB.WithContext(ctx).Create(p).Error; err != nil {
		return fmt.Errorf("creating photo: %w", err)
	}
	return nil
}

func (c *DBClient) GetPhoto(ctx context.Context, tripID, photoID string) (*Photo, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	var p Photo
	err := c.DB.WithContext(ctx).Where("id = ? AND trip_id = ?", photoID, tripID).First(&p).Error
	if err != nil {
		return nil, notFound(err, "photo", photoID)
	}
	return &p, nil
}

func (c *DBClient) ListPhotos(ctx context.Context, tripID string) ([]Photo, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	var rows []Photo
	if err := c.DB.WithContext(ctx).Where("trip_id = ?", tripID).Order("created_at_ms ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("listing photos: %w", err)
	}
	return rows, nil
}

func (c *DBClient) DeletePhoto(ctx context.Context, tripID, photoID string) error {
	if err := c.ready(); err != nil {
		return err
	}
	res := c.DB.WithContext(ctx).Where("id = ? AND trip_id = ?", photoID, tripID).Delete(&Photo{})
	if res.Error != nil {
		return fmt.Errorf("deleting photo: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("photo %s: %w", photoID, ErrNotFound)
	}
	return nil
}

func (c *DBClient) AddLocation(ctx context.Context, l *Location) error {
	if err := c.ready(); err != nil {
		return err
	}
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	if err := c.DB.WithContext(ctx).Create(l).Error; err != nil {
		return fmt.Errorf("creating location: %w", err)
	}
	return nil
}

func (c *DBClient) ListLocations(ctx context.Context, tripID string) ([]Location, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	var rows []Location
	err := c.DB.WithContext(ctx).Where("trip_id = ?", tripID).
		Order("created_at_ms ASC").Order("seq ASC").Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("listing locations: %w", err)
	}
	return rows, nil
}

// Counts reports row totals per table.
type Counts struct {
	Users     int64
	Trips     int64
	Plans     int64
	Photos    int64
	Locations int64
}

func (c *DBClient) Counts(ctx context.Context) (Counts, error) {
	var out Counts
	if err := c.ready(); err != nil {
		return out, err
	}
	db := c.DB.WithContext(ctx)
	targets := []struct {
		model any
		dst   *int64
	}{
		{&User{}, &out.Users},
		{&Trip{}, &out.Trips},
		{&Plan{}, &out.Plans},
		{&Photo{}, &out.Photos},
		{&Location{}, &out.Locations},
	}
	for _, t := range targets {
		if err := db.Model(t.model).Count(t.dst).Error; err != nil {
			return out, fmt.Errorf("counting rows: %w", err)
		}
	}
	return out, nil
}
