package ourtrips

import "time"

// TripRequest carries the fields of the trip request form. FriendID is the
// traveller the owner invites; both become members of the trip.
type TripRequest struct {
	Title     string
	OwnerID   string
	FriendID  string
	StartDate time.Time
	EndDate   time.Time
}

// Stats summarizes stored records.
type Stats struct {
	Users     int64 `json:"users"`
	Trips     int64 `json:"trips"`
	Plans     int64 `json:"plans"`
	Photos    int64 `json:"photos"`
	Locations int64 `json:"locations"`
}
