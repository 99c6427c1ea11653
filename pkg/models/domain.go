package models

import "time"

// LatLng is a point reported by the vision provider for a landmark.
type LatLng struct {
	Latitude  float64 `json:"latitude" yaml:"latitude" msgpack:"latitude"`
	Longitude float64 `json:"longitude" yaml:"longitude" msgpack:"longitude"`
}

// Landmark is a scored recognition result returned by the vision provider.
// Higher Confidence is better; no fixed range is assumed.
type Landmark struct {
	Name       string   `json:"name" yaml:"name"`
	Confidence float64  `json:"confidence" yaml:"confidence"`
	Locations  []LatLng `json:"locations,omitempty" yaml:"locations"`
}

// Plan is a message posted to a trip's plan board.
// CreatedAtMs is the author's clock at creation, in Unix milliseconds.
type Plan struct {
	ID          string `json:"id" msgpack:"id"`
	TripID      string `json:"trip_id" msgpack:"trip_id"`
	AuthorID    string `json:"author_id" msgpack:"author_id"`
	AuthorName  string `json:"author_name" msgpack:"author_name"`
	Text        string `json:"text" msgpack:"text"`
	CreatedAtMs int64  `json:"created_at_ms" msgpack:"created_at_ms"`
}

// User is a traveller profile.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Trip is a planned trip. MemberIDs lists the owner first, then the
// travellers the trip was requested with.
type Trip struct {
	ID        string    `json:"id" msgpack:"id"`
	Title     string    `json:"title" msgpack:"title"`
	OwnerID   string    `json:"owner_id" msgpack:"owner_id"`
	MemberIDs []string  `json:"member_ids" msgpack:"member_ids"`
	StartDate time.Time `json:"start_date" msgpack:"start_date"`
	EndDate   time.Time `json:"end_date" msgpack:"end_date"`
	CreatedAt time.Time `json:"created_at" msgpack:"created_at"`
}

// Photo is an image attached to a trip. Path is the object key in the bucket.
type Photo struct {
	ID          string `json:"id" msgpack:"id"`
	TripID      string `json:"trip_id" msgpack:"trip_id"`
	Path        string `json:"path" msgpack:"path"`
	ContentType string `json:"content_type" msgpack:"content_type"`
	SizeBytes   int64  `json:"size_bytes" msgpack:"size_bytes"`
	CreatedAtMs int64  `json:"created_at_ms" msgpack:"created_at_ms"`
}

// TripLocation is a point pinned on a trip's map.
type TripLocation struct {
	ID          string  `json:"id" msgpack:"id"`
	TripID      string  `json:"trip_id" msgpack:"trip_id"`
	Name        string  `json:"name" msgpack:"name"`
	Latitude    float64 `json:"latitude" msgpack:"latitude"`
	Longitude   float64 `json:"longitude" msgpack:"longitude"`
	Confidence  float64 `json:"confidence" msgpack:"confidence"`
	CreatedAtMs int64   `json:"created_at_ms" msgpack:"created_at_ms"`
}
