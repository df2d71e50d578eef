package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mt-krainski/chrzaszcz-simple/internal/logic/arm"
	"github.com/mt-krainski/chrzaszcz-simple/internal/logic/drive"
)

type errorResponse struct {
	Error string `json:"error"`
}

// driveRequest uses pointers so a missing side is rejected instead of read as zero.
type driveRequest struct {
	Left  *int `json:"left"`
	Right *int `json:"right"`
}

type armMoveRequest struct {
	Deltas []int `json:"deltas"`
}

type armResponse struct {
	Joints arm.Position `json:"joints"`
}

type heartbeatResponse struct {
	Heartbeat int64 `json:"heartbeat"`
}

type watchdogStatus struct {
	Timeout       string `json:"timeout"`
	CheckInterval string `json:"checkInterval"`
	Trips         uint64 `json:"trips"`
}

type roverStatus struct {
	Drive           drive.State    `json:"drive"`
	LastCommand     string         `json:"lastCommand"`
	LastCommandAgeS float64        `json:"lastCommandAgeSeconds"`
	Arm             armResponse    `json:"arm"`
	Watchdog        watchdogStatus `json:"watchdog"`
}

// handleSetControl keeps the query-string drive call browser pages poll with.
func (s *Server) handleSetControl(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	left, err := strconv.Atoi(query.Get("left"))
	if err != nil {
		s.writeError(w, r, fmt.Errorf("%w: left: %w", ErrInvalidRequest, err))

		return
	}

	right, err := strconv.Atoi(query.Get("right"))
	if err != nil {
		s.writeError(w, r, fmt.Errorf("%w: right: %w", ErrInvalidRequest, err))

		return
	}

	cmd := drive.Command{Left: left, Right: right}
	if err := s.deps.Drive.ApplyDriveCommand(r.Context(), drive.SourceHTTP, cmd); err != nil {
		s.writeError(w, r, err)

		return
	}

	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleDrive(w http.ResponseWriter, r *http.Request) {
	var req driveRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)

		return
	}

	if req.Left == nil || req.Right == nil {
		s.writeError(w, r, fmt.Errorf("%w: left and right are required", ErrInvalidRequest))

		return
	}

	cmd := drive.Command{Left: *req.Left, Right: *req.Right}
	if err := s.deps.Drive.ApplyDriveCommand(r.Context(), drive.SourceHTTP, cmd); err != nil {
		s.writeError(w, r, err)

		return
	}

	s.writeJSON(w, r, http.StatusOK, s.deps.Drive.StateQuery())
}

func (s *Server) handleArmPosition(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusOK, armResponse{Joints: s.deps.Arm.PositionQuery()})
}

func (s *Server) handleArmMove(w http.ResponseWriter, r *http.Request) {
	var req armMoveRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)

		return
	}

	position, err := s.deps.Arm.ApplyDeltasCommand(r.Context(), req.Deltas)
	if err != nil {
		s.writeError(w, r, err)

		return
	}

	s.writeJSON(w, r, http.StatusOK, armResponse{Joints: position})
}

func (s *Server) handleArmReset(w http.ResponseWriter, r *http.Request) {
	position, err := s.deps.Arm.ResetCommand(r.Context())
	if err != nil {
		s.writeError(w, r, err)

		return
	}

	s.writeJSON(w, r, http.StatusOK, armResponse{Joints: position})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	now := s.deps.Clock.Now()
	state := s.deps.Drive.StateQuery()
	cfg := s.deps.Watchdog.ConfigQuery()

	s.writeJSON(w, r, http.StatusOK, roverStatus{
		Drive:           state,
		LastCommand:     humanize.RelTime(state.LastCommandAt, now, "ago", "from now"),
		LastCommandAgeS: now.Sub(state.LastCommandAt).Seconds(),
		Arm:             armResponse{Joints: s.deps.Arm.PositionQuery()},
		Watchdog: watchdogStatus{
			Timeout:       cfg.Timeout.String(),
			CheckInterval: cfg.CheckInterval.String(),
			Trips:         s.deps.Watchdog.TripsQuery(),
		},
	})
}

// handleHeartbeat toggles once per second so a page can show it is still connected.
func (s *Server) handleHeartbeat(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusOK, heartbeatResponse{
		Heartbeat: s.deps.Clock.Now().Unix() % 2,
	})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("%w: decode body: %w", ErrInvalidRequest, err)
	}

	if _, err := decoder.Token(); !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: trailing data after body", ErrInvalidRequest)
	}

	return nil
}

// statusFor maps command errors to response codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, drive.ErrInvalidRange),
		errors.Is(err, arm.ErrArityMismatch):
		return http.StatusBadRequest
	case errors.Is(err, drive.ErrMotorOutput),
		errors.Is(err, arm.ErrServoOutput):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)

	logger := s.logger.With("traceID", middleware.GetReqID(r.Context()))
	if code >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "command failed", "path", r.URL.Path, "reason", err)
	} else {
		logger.DebugContext(r.Context(), "command rejected", "path", r.URL.Path, "reason", err)
	}

	s.writeJSON(w, r, code, errorResponse{Error: err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.ErrorContext(r.Context(), "failed to encode response",
			"traceID", middleware.GetReqID(r.Context()),
			"error", err,
		)
	}
}

