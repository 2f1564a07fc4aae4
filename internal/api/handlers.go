package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/yourusername/edgeboard/internal/cache"
	"github.com/yourusername/edgeboard/internal/consensus"
	"github.com/yourusername/edgeboard/internal/edge"
	"github.com/yourusername/edgeboard/internal/models"
	"github.com/yourusername/edgeboard/internal/service"
	"github.com/yourusername/edgeboard/internal/source"
)

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// IndexResponse describes the cached accuracy index of a sport
type IndexResponse struct {
	Sport      models.Sport               `json:"sport"`
	SnapshotID string                     `json:"snapshot_id"`
	Origin     string                     `json:"origin"`
	BuiltAt    time.Time                  `json:"built_at"`
	Stats      edge.IndexStats            `json:"stats"`
	Buckets    []models.AccuracyBucketRow `json:"buckets,omitempty"`
}

// ConsensusRequest is the body of POST /api/v1/consensus
type ConsensusRequest struct {
	Target      string                   `json:"target"`
	Predictions []models.ModelPrediction `json:"predictions"`
}

func (s *Server) handleSports(w http.ResponseWriter, r *http.Request) {
	sports := s.indexes.Sports()
	if sports == nil {
		sports = []models.Sport{models.SportNBA, models.SportNCAAB, models.SportNFL, models.SportCFB}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"sports": sports,
	})
}

// handleBoard serves GET /api/v1/sports/{sport}/board?date=YYYY-MM-DD&sort=mode.
// Without a date the current day in the configured timezone is used.
func (s *Server) handleBoard(w http.ResponseWriter, r *http.Request) {
	sport, err := edge.ParseSport(chi.URLParam(r, "sport"))
	if err != nil {
		s.respondError(w, err)
		return
	}

	sortMode := s.opts.DefaultSort
	if raw := r.URL.Query().Get("sort"); raw != "" {
		if sortMode, err = edge.ParseSortMode(raw); err != nil {
			s.respondMessage(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	date, err := s.resolveDate(r.URL.Query().Get("date"))
	if err != nil {
		s.respondError(w, err)
		return
	}

	board, err := s.boards.Board(r.Context(), service.BoardRequest{Sport: sport, Date: date, Sort: sortMode})
	if err != nil {
		s.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, board)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	sport, err := edge.ParseSport(chi.URLParam(r, "sport"))
	if err != nil {
		s.respondError(w, err)
		return
	}

	snap, err := s.indexes.Index(r.Context(), sport)
	if err != nil {
		s.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, indexResponse(snap, r.URL.Query().Get("buckets") != "false"))
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	sport, err := edge.ParseSport(chi.URLParam(r, "sport"))
	if err != nil {
		s.respondError(w, err)
		return
	}

	snap, err := s.indexes.Refresh(r.Context(), sport)
	if err != nil {
		s.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, indexResponse(snap, false))
}

func (s *Server) handleConsensus(w http.ResponseWriter, r *http.Request) {
	var req ConsensusRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		s.respondMessage(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	target, err := consensus.ParseTarget(req.Target)
	if err != nil {
		s.respondMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.consensus.Compute(target, req.Predictions)
	if err != nil {
		s.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) resolveDate(raw string) (time.Time, error) {
	if raw == "" {
		now := s.now().In(s.opts.Location)
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	date, err := time.Parse(models.DateLayout, raw)
	if err != nil {
		return time.Time{}, models.ErrInvalidDate
	}
	return date, nil
}

func indexResponse(snap *cache.Snapshot, withBuckets bool) IndexResponse {
	resp := IndexResponse{
		Sport:      snap.Sport,
		SnapshotID: snap.ID,
		Origin:     snap.Origin,
		BuiltAt:    snap.BuiltAt,
		Stats:      snap.Index.Stats(),
	}
	if withBuckets {
		resp.Buckets = snap.Index.Rows()
	}
	return resp
}

// statusFor maps domain errors onto HTTP statuses
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrUnknownSport), errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrInvalidDate):
		return http.StatusBadRequest
	case errors.Is(err, consensus.ErrInsufficientData):
		return http.StatusUnprocessableEntity
	case errors.Is(err, source.ErrSourceUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) respondError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.WithError(err).Error("Request failed")
	}
	s.respondMessage(w, status, err.Error())
}

func (s *Server) respondMessage(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Code:    status,
	})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
