// Package httptransport is the thin HTTP layer. Handlers decode, validate and
// delegate; every business decision lives in the services behind them.
package httptransport

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/asaskevich/govalidator"
	"github.com/go-chi/chi/v5"

	"shiftledger/internal/clock"
	"shiftledger/internal/domain"
	"shiftledger/internal/views"
	pkgstrings "shiftledger/pkg/platform/strings"
	"shiftledger/pkg/requestcontext"
)

const dateLayout = "2006-01-02"

var errBadRange = errors.New("range requires from=YYYY-MM-DD plus an optional to date or day count")

// Summarizer is the outbound text-summary dependency.
type Summarizer interface {
	Summarize(ctx context.Context, sessions []domain.Session, from, to time.Time) (string, error)
}

// ProjectionReader serves the live projection the views are computed from.
type ProjectionReader interface {
	Sessions(ctx context.Context, tenantID string) ([]domain.Session, error)
}

// Handler carries the clock coordinator and the read-side dependencies.
type Handler struct {
	coordinator *clock.Coordinator
	projection  ProjectionReader
	summarizer  Summarizer
	viewCache   *views.Cache
	logger      *slog.Logger
}

func NewHandler(coordinator *clock.Coordinator, projection ProjectionReader, summarizer Summarizer, logger *slog.Logger) *Handler {
	return &Handler{
		coordinator: coordinator,
		projection:  projection,
		summarizer:  summarizer,
		viewCache:   &views.Cache{},
		logger:      logger,
	}
}

// Register mounts the ledger routes. Authentication is applied by the router;
// manager-only gates are applied per route here.
func (h *Handler) Register(r chi.Router) {
	r.Post("/clock/actions", h.handleClockAction)
	r.Get("/sessions", h.handleSessions)
	r.Get("/views/active", h.handleActiveView)
	r.Get("/views/site-status", h.handleSiteStatus)
	r.Get("/views/totals", h.handleTotals)
	r.Post("/summary", h.handleSummary)
}

type clockActionRequest struct {
	Action           string   `json:"action"`
	EmployeeID       string   `json:"employee_id"`
	EmployeeName     string   `json:"employee_name"`
	SiteName         string   `json:"site_name"`
	SiteLat          *float64 `json:"site_lat,omitempty"`
	SiteLng          *float64 `json:"site_lng,omitempty"`
	GeofenceRadiusFt float64  `json:"geofence_radius_ft,omitempty"`
	FixLat           *float64 `json:"fix_lat,omitempty"`
	FixLng           *float64 `json:"fix_lng,omitempty"`
	ForDate          string   `json:"for_date,omitempty"`
	Override         bool     `json:"override"`
	Note             string   `json:"note,omitempty"`
}

func (h *Handler) handleClockAction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body clockActionRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	action, err := domain.ParseAction(body.Action)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	if body.SiteLat != nil && !govalidator.InRangeFloat64(*body.SiteLat, -90, 90) {
		writeBadRequest(w, "site_lat out of range")
		return
	}
	if body.SiteLng != nil && !govalidator.InRangeFloat64(*body.SiteLng, -180, 180) {
		writeBadRequest(w, "site_lng out of range")
		return
	}
	if body.FixLat != nil && !govalidator.InRangeFloat64(*body.FixLat, -90, 90) {
		writeBadRequest(w, "fix_lat out of range")
		return
	}
	if body.FixLng != nil && !govalidator.InRangeFloat64(*body.FixLng, -180, 180) {
		writeBadRequest(w, "fix_lng out of range")
		return
	}
	if (body.FixLat == nil) != (body.FixLng == nil) {
		writeBadRequest(w, "fix_lat and fix_lng must be supplied together")
		return
	}
	var fix *clock.Fix
	if body.FixLat != nil {
		fix = &clock.Fix{Lat: *body.FixLat, Lng: *body.FixLng}
	}

	var forDate time.Time
	if body.ForDate != "" {
		if forDate, err = time.Parse(dateLayout, body.ForDate); err != nil {
			writeBadRequest(w, "for_date must be YYYY-MM-DD")
			return
		}
	}
	if body.Override && !requestcontext.IsManager(ctx) {
		writeJSON(w, http.StatusForbidden, errorBody{Error: "forbidden", Message: "override requires manager role"})
		return
	}

	result, err := h.coordinator.Record(ctx, clock.Request{
		TenantID: requestcontext.TenantID(ctx),
		Action:   action,
		Employee: domain.Employee{ID: body.EmployeeID, Name: body.EmployeeName},
		Site: domain.Site{
			Name:             body.SiteName,
			Lat:              body.SiteLat,
			Lng:              body.SiteLng,
			GeofenceRadiusFt: body.GeofenceRadiusFt,
		},
		Fix:      fix,
		ForDate:  forDate,
		Override: body.Override,
		Note:     body.Note,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"events": result.Events})
}

func (h *Handler) handleSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.projection.Sessions(r.Context(), requestcontext.TenantID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": sessions})
}

func (h *Handler) handleActiveView(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.projection.Sessions(r.Context(), requestcontext.TenantID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"active": h.viewCache.Active(sessions)})
}

func (h *Handler) handleSiteStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	day, err := time.Parse(dateLayout, r.URL.Query().Get("date"))
	if err != nil {
		writeBadRequest(w, "date must be YYYY-MM-DD")
		return
	}
	sites := make([]domain.Site, 0)
	for _, name := range pkgstrings.DedupeAndTrim(r.URL.Query()["site"]) {
		sites = append(sites, domain.Site{Name: name})
	}
	if len(sites) == 0 {
		writeBadRequest(w, "at least one site is required")
		return
	}

	sessions, err := h.projection.Sessions(ctx, requestcontext.TenantID(ctx))
	if err != nil {
		writeError(w, err)
		return
	}
	statuses := views.SiteDailyStatus(day, sites, sessions, requestcontext.Now(ctx))
	writeJSON(w, http.StatusOK, map[string]any{"date": day.Format(dateLayout), "statuses": statuses})
}

func (h *Handler) handleTotals(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	from, to, err := parseRange(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	sessions, err := h.projection.Sessions(ctx, requestcontext.TenantID(ctx))
	if err != nil {
		writeError(w, err)
		return
	}
	totals := views.RangeTotals(sessions, from, to)
	writeJSON(w, http.StatusOK, map[string]any{
		"minutes_by_employee": totals.MinutesByEmployee,
		"active_shifts":       totals.ActiveShifts,
	})
}

type summaryRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body summaryRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	from, err := time.Parse(dateLayout, body.From)
	if err != nil {
		writeBadRequest(w, "from must be YYYY-MM-DD")
		return
	}
	to, err := time.Parse(dateLayout, body.To)
	if err != nil {
		writeBadRequest(w, "to must be YYYY-MM-DD")
		return
	}
	if to.Before(from) {
		writeBadRequest(w, "to precedes from")
		return
	}

	sessions, err := h.projection.Sessions(ctx, requestcontext.TenantID(ctx))
	if err != nil {
		writeError(w, err)
		return
	}
	prose, err := h.summarizer.Summarize(ctx, sessions, from, to.Add(24*time.Hour))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"summary": prose})
}

func parseRange(r *http.Request) (time.Time, time.Time, error) {
	from, err := time.Parse(dateLayout, r.URL.Query().Get("from"))
	if err != nil {
		return time.Time{}, time.Time{}, errBadRange
	}
	days := 1
	if raw := r.URL.Query().Get("days"); raw != "" {
		if days, err = strconv.Atoi(raw); err != nil || days < 1 {
			return time.Time{}, time.Time{}, errBadRange
		}
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		to, err := time.Parse(dateLayout, raw)
		if err != nil || to.Before(from) {
			return time.Time{}, time.Time{}, errBadRange
		}
		return from, to.Add(24 * time.Hour), nil
	}
	return from, from.AddDate(0, 0, days), nil
}
