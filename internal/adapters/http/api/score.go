package api

import (
	"net/http"
	"time"

	"github.com/okian/catalyst/internal/domain/calendar"
)

// ScoreHandler serves the JSON views of the score.
type ScoreHandler struct {
	deps Dependencies
}

// NewScoreHandler creates a new score handler.
func NewScoreHandler(deps Dependencies) *ScoreHandler {
	return &ScoreHandler{deps: deps}
}

// HandleScore handles GET /api/score?date=YYYY-MM-DD.
func (h *ScoreHandler) HandleScore(w http.ResponseWriter, r *http.Request) {
	date, ok := h.date(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.deps.Dashboard(r.Context(), date))
}

// HandleWeekly handles GET /api/weekly?date=YYYY-MM-DD.
func (h *ScoreHandler) HandleWeekly(w http.ResponseWriter, r *http.Request) {
	date, ok := h.date(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"start": date,
		"days":  h.deps.Weekly(r.Context(), date),
	})
}

// HandleFedCalendar handles GET /api/fed-calendar?date=YYYY-MM-DD.
func (h *ScoreHandler) HandleFedCalendar(w http.ResponseWriter, r *http.Request) {
	date, ok := h.date(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"from":     date,
		"meetings": h.deps.FedCalendar(r.Context(), date),
	})
}

// date checks the method and resolves the optional date parameter, writing
// the error response itself when the request is unusable.
func (h *ScoreHandler) date(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return time.Time{}, false
	}
	date, err := ParseDateParam(r, h.deps.Today)
	if err != nil {
		writeKind(w, err)
		return time.Time{}, false
	}
	return date, true
}

// ParseDateParam reads ?date=YYYY-MM-DD, falling back to today when absent.
func ParseDateParam(r *http.Request, today func() time.Time) (time.Time, error) {
	raw := r.URL.Query().Get("date")
	if raw == "" {
		return today(), nil
	}
	date, err := calendar.ParseDate(raw)
	if err != nil {
		return time.Time{}, WrapKind("parse date", ErrBadRequest, err)
	}
	return date, nil
}
