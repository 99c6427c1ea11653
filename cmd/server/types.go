package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/himanishpuri/ourtrips/pkg/models"
	"github.com/himanishpuri/ourtrips/pkg/ourtrips"
)

// dateLayout is the form's date format; RFC 3339 timestamps are accepted too.
const dateLayout = "2006-01-02"

func parseDate(field, s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s must be YYYY-MM-DD", field)
	}
	return t, nil
}

// RegisterUserRequest is the request body for POST /api/users
type RegisterUserRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type RegisterUserResponse struct {
	ID string `json:"id"`
}

// CreateTripRequest is the request body for POST /api/trips
type CreateTripRequest struct {
	Title     string `json:"title"`
	OwnerID   string `json:"owner_id"`
	FriendID  string `json:"friend_id"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// ToTripRequest parses the dates; field checks are left to the service.
func (r *CreateTripRequest) ToTripRequest() (ourtrips.TripRequest, error) {
	start, err := parseDate("start_date", r.StartDate)
	if err != nil {
		return ourtrips.TripRequest{}, err
	}
	end, err := parseDate("end_date", r.EndDate)
	if err != nil {
		return ourtrips.TripRequest{}, err
	}
	return ourtrips.TripRequest{
		Title:     r.Title,
		OwnerID:   r.OwnerID,
		FriendID:  r.FriendID,
		StartDate: start,
		EndDate:   end,
	}, nil
}

type ListTripsResponse struct {
	Trips []models.Trip `json:"trips"`
	Count int           `json:"count"`
}

// AddPlanRequest is the request body for POST /api/trips/{id}/plans.
// CreatedAtMs is optional; zero means the server clock.
type AddPlanRequest struct {
	AuthorID    string `json:"author_id"`
	Text        string `json:"text"`
	CreatedAtMs int64  `json:"created_at_ms,omitempty"`
}

type ListPlansResponse struct {
	Plans []models.Plan `json:"plans"`
	Count int           `json:"count"`
}

type ListPhotosResponse struct {
	Photos []models.Photo `json:"photos"`
	Count  int            `json:"count"`
}

type ListLocationsResponse struct {
	Locations []models.TripLocation `json:"locations"`
	Count     int                   `json:"count"`
}

// RecognizeResponse carries the selected landmark, and the pinned location
// when pin=true was requested.
type RecognizeResponse struct {
	Landmark models.Landmark      `json:"landmark"`
	Location *models.TripLocation `json:"location,omitempty"`
}

type DeleteResponse struct {
	Message string `json:"message"`
	ID      string `json:"id"`
}

// ErrorResponse is the standard error response format
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code,omitempty"`
}
