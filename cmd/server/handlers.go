package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/himanishpuri/ourtrips/pkg/config"
	"github.com/himanishpuri/ourtrips/pkg/logger"
	"github.com/himanishpuri/ourtrips/pkg/models"
	"github.com/himanishpuri/ourtrips/pkg/ourtrips"
	"github.com/himanishpuri/ourtrips/pkg/ourtrips/archive"
)

// Server encapsulates the HTTP server and its dependencies
type Server struct {
	service ourtrips.Service
	config  config.ServerConfig
	log     ourtrips.Logger
}

// NewServer creates a new server instance
func NewServer(service ourtrips.Service, cfg config.ServerConfig) *Server {
	return &Server{
		service: service,
		config:  cfg,
		log:     logger.GetLogger().With("[http]"),
	}
}

// respondJSON writes a JSON response
func (s *Server) respondJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Errorf("Failed to encode JSON response: %v", err)
	}
}

// respondError writes an error response
func (s *Server) respondError(w http.ResponseWriter, statusCode int, message string) {
	s.respondJSON(w, statusCode, ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	})
}

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, ourtrips.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ourtrips.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ourtrips.ErrNotMember):
		return http.StatusForbidden
	case errors.Is(err, ourtrips.ErrNoLandmark), errors.Is(err, ourtrips.ErrNoLocation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ourtrips.ErrProviderResponse):
		return http.StatusBadGateway
	case errors.Is(err, ourtrips.ErrNoDetector):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

// respondServiceError logs server-side failures and hides their details.
func (s *Server) respondServiceError(w http.ResponseWriter, action string, err error) {
	code := statusFor(err)
	if code >= http.StatusInternalServerError {
		s.log.Errorf("Failed to %s: %v", action, err)
		s.respondError(w, code, "Failed to "+action)
		return
	}
	s.log.Debugf("Rejected %s: %v", action, err)
	s.respondError(w, code, err.Error())
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.log.Debugf("Failed to decode request: %v", err)
		s.respondError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

func (s *Server) timeout(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), s.config.RequestTimeout)
}

// handleRoot handles GET /
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]any{
		"service": "OurTrips API",
		"version": "1.0.0",
		"endpoints": map[string]string{
			"health":     "GET /health",
			"metrics":    "GET /metrics",
			"stats":      "GET /api/stats",
			"addUser":    "POST /api/users",
			"getUser":    "GET /api/users/{id}",
			"trips":      "GET|POST /api/trips",
			"trip":       "GET|DELETE /api/trips/{id}",
			"plans":      "GET|POST /api/trips/{id}/plans",
			"photos":     "GET|POST /api/trips/{id}/photos",
			"photo":      "DELETE /api/trips/{id}/photos/{pid}",
			"recognize":  "POST /api/trips/{id}/photos/{pid}/recognize?pin=true",
			"locations":  "GET|POST /api/trips/{id}/locations",
			"exportTrip": "GET /api/trips/{id}/export?format=json|msgpack",
		},
	})
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// handleStats handles GET /api/stats
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.timeout(r)
	defer cancel()

	stats, err := s.service.Stats(ctx)
	if err != nil {
		s.respondServiceError(w, "retrieve stats", err)
		return
	}
	s.respondJSON(w, http.StatusOK, stats)
}

// handleRegisterUser handles POST /api/users
func (s *Server) handleRegisterUser(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.timeout(r)
	defer cancel()

	var req RegisterUserRequest
	if !s.decode(w, r, &req) {
		return
	}
	id, err := s.service.RegisterUser(ctx, req.Email, req.Name)
	if err != nil {
		s.respondServiceError(w, "register user", err)
		return
	}
	s.respondJSON(w, http.StatusCreated, RegisterUserResponse{ID: id})
}

// handleGetUser handles GET /api/users/{id}
func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.timeout(r)
	defer cancel()

	u, err := s.service.GetUser(ctx, r.PathValue("id"))
	if err != nil {
		s.respondServiceError(w, "get user", err)
		return
	}
	s.respondJSON(w, http.StatusOK, u)
}

// handleListTrips handles GET /api/trips?user={id}, listing the trips the
// user is a member of.
func (s *Server) handleListTrips(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.timeout(r)
	defer cancel()

	trips, err := s.service.ListTrips(ctx, r.URL.Query().Get("user"))
	if err != nil {
		s.respondServiceError(w, "list trips", err)
		return
	}
	if trips == nil {
		trips = []models.Trip{}
	}
	s.respondJSON(w, http.StatusOK, ListTripsResponse{Trips: trips, Count: len(trips)})
}

// handleCreateTrip handles POST /api/trips
func (s *Server) handleCreateTrip(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.timeout(r)
	defer cancel()

	var req CreateTripRequest
	if !s.decode(w, r, &req) {
		return
	}
	tr, err := req.ToTripRequest()
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	trip, err := s.service.CreateTrip(ctx, tr)
	if err != nil {
		s.respondServiceError(w, "create trip", err)
		return
	}
	s.respondJSON(w, http.StatusCreated, trip)
}

// handleGetTrip handles GET /api/trips/{id}
func (s *Server) handleGetTrip(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.timeout(r)
	defer cancel()

	trip, err := s.service.GetTrip(ctx, r.PathValue("id"))
	if err != nil {
		s.respondServiceError(w, "get trip", err)
		return
	}
	s.respondJSON(w, http.StatusOK, trip)
}

// handleDeleteTrip handles DELETE /api/trips/{id}
func (s *Server) handleDeleteTrip(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.timeout(r)
	defer cancel()

	id := r.PathValue("id")
	if err := s.service.DeleteTrip(ctx, id); err != nil {
		s.respondServiceError(w, "delete trip", err)
		return
	}
	s.respondJSON(w, http.StatusOK, DeleteResponse{Message: "Trip deleted successfully", ID: id})
}

// handleListPlans handles GET /api/trips/{id}/plans
func (s *Server) handleListPlans(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.timeout(r)
	defer cancel()

	plans, err := s.service.ListPlans(ctx, r.PathValue("id"))
	if err != nil {
		s.respondServiceError(w, "list plans", err)
		return
	}
	s.respondJSON(w, http.StatusOK, ListPlansResponse{Plans: plans, Count: len(plans)})
}

// handleAddPlan handles POST /api/trips/{id}/plans
func (s *Server) handleAddPlan(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.timeout(r)
	defer cancel()

	var req AddPlanRequest
	if !s.decode(w, r, &req) {
		return
	}
	p, err := s.service.AddPlan(ctx, r.PathValue("id"), req.AuthorID, req.Text, req.CreatedAtMs)
	if err != nil {
		s.respondServiceError(w, "add plan", err)
		return
	}
	s.respondJSON(w, http.StatusCreated, p)
}

// handleListPhotos handles GET /api/trips/{id}/photos
func (s *Server) handleListPhotos(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.timeout(r)
	defer cancel()

	photos, err := s.service.ListPhotos(ctx, r.PathValue("id"))
	if err != nil {
		s.respondServiceError(w, "list photos", err)
		return
	}
	if photos == nil {
		photos = []models.Photo{}
	}
	s.respondJSON(w, http.StatusOK, ListPhotosResponse{Photos: photos, Count: len(photos)})
}

// handleUploadPhoto handles POST /api/trips/{id}/photos (multipart, fields
// "photo" and "uploader_id")
func (s *Server) handleUploadPhoto(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.config.UploadTimeout)
	defer cancel()

	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.config.MaxUploadBytes); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			s.respondError(w, http.StatusRequestEntityTooLarge, "photo is too large")
			return
		}
		s.log.Debugf("Failed to parse form: %v", err)
		s.respondError(w, http.StatusBadRequest, "Failed to parse form data")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("photo")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "photo file is required")
		return
	}
	defer file.Close()

	uploader := r.FormValue("uploader_id")
	p, err := s.service.UploadPhoto(ctx, r.PathValue("id"), uploader, header.Filename, header.Header.Get("Content-Type"), file)
	if err != nil {
		s.respondServiceError(w, "upload photo", err)
		return
	}
	s.respondJSON(w, http.StatusCreated, p)
}

// handleDeletePhoto handles DELETE /api/trips/{id}/photos/{pid}
func (s *Server) handleDeletePhoto(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.timeout(r)
	defer cancel()

	pid := r.PathValue("pid")
	if err := s.service.DeletePhoto(ctx, r.PathValue("id"), pid); err != nil {
		s.respondServiceError(w, "delete photo", err)
		return
	}
	s.respondJSON(w, http.StatusOK, DeleteResponse{Message: "Photo deleted successfully", ID: pid})
}

// handleRecognize handles POST /api/trips/{id}/photos/{pid}/recognize
func (s *Server) handleRecognize(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.config.UploadTimeout)
	defer cancel()

	pin := false
	if v := r.URL.Query().Get("pin"); v != "" {
		var err error
		if pin, err = strconv.ParseBool(v); err != nil {
			s.respondError(w, http.StatusBadRequest, "pin must be true or false")
			return
		}
	}

	tripID := r.PathValue("id")
	best, err := s.service.RecognizeLandmark(ctx, tripID, r.PathValue("pid"))
	if err != nil {
		s.respondServiceError(w, "recognize landmark", err)
		return
	}
	resp := RecognizeResponse{Landmark: best}
	if pin {
		loc, err := s.service.AddLocation(ctx, tripID, best)
		if err != nil {
			s.respondServiceError(w, "pin location", err)
			return
		}
		resp.Location = loc
	}
	s.respondJSON(w, http.StatusOK, resp)
}

// handleListLocations handles GET /api/trips/{id}/locations
func (s *Server) handleListLocations(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.timeout(r)
	defer cancel()

	locs, err := s.service.ListLocations(ctx, r.PathValue("id"))
	if err != nil {
		s.respondServiceError(w, "list locations", err)
		return
	}
	if locs == nil {
		locs = []models.TripLocation{}
	}
	s.respondJSON(w, http.StatusOK, ListLocationsResponse{Locations: locs, Count: len(locs)})
}

// handleAddLocation handles POST /api/trips/{id}/locations with a landmark body.
func (s *Server) handleAddLocation(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.timeout(r)
	defer cancel()

	var l models.Landmark
	if !s.decode(w, r, &l) {
		return
	}
	loc, err := s.service.AddLocation(ctx, r.PathValue("id"), l)
	if err != nil {
		s.respondServiceError(w, "add location", err)
		return
	}
	s.respondJSON(w, http.StatusCreated, loc)
}

// handleExport handles GET /api/trips/{id}/export?format=json|msgpack
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.timeout(r)
	defer cancel()

	format, err := archive.ParseFormat(r.URL.Query().Get("format"))
	if err != nil || format == archive.FormatDOCX {
		s.respondError(w, http.StatusBadRequest, "format must be json or msgpack")
		return
	}

	a, err := s.service.ExportTrip(ctx, r.PathValue("id"))
	if err != nil {
		s.respondServiceError(w, "export trip", err)
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", `attachment; filename="trip-`+a.Trip.ID+"."+string(format)+`"`)
	if err := archive.Encode(w, format, a); err != nil {
		s.log.Errorf("Failed to write export: %v", err)
	}
}
