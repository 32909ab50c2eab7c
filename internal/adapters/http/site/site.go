// Package site renders the HTML dashboard pages.
package site

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/okian/catalyst/internal/adapters/http/api"
	service "github.com/okian/catalyst/internal/app"
	"github.com/okian/catalyst/internal/domain/calendar"
	"github.com/okian/catalyst/pkg/logger"
)

// Error constants
var (
	ErrRender = errors.New("page render failed")
)

//go:embed templates/*.html
var templatesFS embed.FS

var pages = template.Must(template.New("site").Funcs(template.FuncMap{
	"date": calendar.Format,
}).ParseFS(templatesFS, "templates/*.html"))

// Views is what the pages display.
type Views interface {
	Today() time.Time
	Dashboard(ctx context.Context, date time.Time) service.Dashboard
	Weekly(ctx context.Context, date time.Time) []service.DayScore
	FedCalendar(ctx context.Context, date time.Time) []service.FedMeeting
}

// Register attaches the HTML pages to mux. Each accepts ?date=YYYY-MM-DD.
func Register(_ context.Context, mux *http.ServeMux, views Views) {
	if mux == nil {
		panic("mux is nil")
	}
	h := &handler{views: views, logger: logger.Get().Named("site")}

	mux.HandleFunc("/", api.MetricsMiddleware(h.index, "page_index"))
	mux.HandleFunc("/weekly", api.MetricsMiddleware(h.weekly, "page_weekly"))
	mux.HandleFunc("/fed-calendar", api.MetricsMiddleware(h.fedCalendar, "page_fed_calendar"))
}

type handler struct {
	views  Views
	logger logger.Logger
}

func (h *handler) index(w http.ResponseWriter, r *http.Request) {
	// "/" is the catch-all pattern
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	date, ok := h.date(w, r)
	if !ok {
		return
	}
	h.render(w, r, "index.html", map[string]any{
		"Title":     "Today",
		"Dashboard": h.views.Dashboard(r.Context(), date),
	})
}

func (h *handler) weekly(w http.ResponseWriter, r *http.Request) {
	date, ok := h.date(w, r)
	if !ok {
		return
	}
	h.render(w, r, "weekly.html", map[string]any{
		"Title": "Weekly",
		"Days":  h.views.Weekly(r.Context(), date),
	})
}

func (h *handler) fedCalendar(w http.ResponseWriter, r *http.Request) {
	date, ok := h.date(w, r)
	if !ok {
		return
	}
	h.render(w, r, "fed.html", map[string]any{
		"Title":    "Fed Calendar",
		"Meetings": h.views.FedCalendar(r.Context(), date),
	})
}

func (h *handler) date(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return time.Time{}, false
	}
	date, err := api.ParseDateParam(r, h.views.Today)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return time.Time{}, false
	}
	return date, true
}

// render executes into a buffer first so a template failure never sends a
// half-written page.
func (h *handler) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	var buf bytes.Buffer
	if err := pages.ExecuteTemplate(&buf, name, data); err != nil {
		err = api.WrapKind("render "+name, ErrRender, err)
		h.logger.Error(r.Context(), "page render failed", logger.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}
