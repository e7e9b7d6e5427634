package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// handleMatches handles GET /admin/matches.
func (s *Server) handleMatches(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_matches"
	records, err := s.deps.Matches(r.Context())
	if err != nil {
		s.fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

// handleCandidates handles GET /admin/candidates.
func (s *Server) handleCandidates(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_candidates"
	profiles, err := s.deps.Candidates(r.Context())
	if err != nil {
		s.fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, profiles)
}

// handleSeekers handles GET /admin/seekers.
func (s *Server) handleSeekers(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_seekers"
	profiles, err := s.deps.Seekers(r.Context())
	if err != nil {
		s.fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, profiles)
}

// handleRanking handles GET /admin/seekers/{id}/ranking?limit=N. A missing
// limit selects the service default.
func (s *Server) handleRanking(w http.ResponseWriter, r *http.Request) {
	const op = "api.preview_ranking"
	id := chi.URLParam(r, "id")

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || validation.Validate(n, validation.Required, validation.Min(1)) != nil {
			writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
			return
		}
		if validation.Validate(n, validation.Max(s.maxRankingLimit)) != nil {
			writeError(w, http.StatusBadRequest, "limit_exceeded", NewKind(op, ErrBadRequest))
			return
		}
		limit = n
	}

	entries, err := s.deps.PreviewMatch(r.Context(), id, limit)
	if err != nil {
		s.fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
