// Package clock validates and constructs new clock events. It is the only
// component that writes to the event store, and the only place the
// one-open-session rule, GPS/geofence gating and manager-override semantics
// live.
package clock

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"shiftledger/internal/clock/metrics"
	"shiftledger/internal/domain"
	"shiftledger/internal/events"
	"shiftledger/internal/views"
	"shiftledger/pkg/requestcontext"
)

// DefaultLocationTimeout bounds how long a caller may wait for a GPS fix.
const DefaultLocationTimeout = 10 * time.Second

// SessionSource supplies the latest known session snapshot. Open-session
// checks are derived from it at call time; the guarantee is best-effort, not
// linearizable, matching the eventually consistent feed behind it.
type SessionSource interface {
	Sessions(ctx context.Context, tenantID string) ([]domain.Session, error)
}

// Config carries the deployment's clock-in gating policy.
type Config struct {
	RequireGPS      bool
	RequireGeofence bool
	LocationTimeout time.Duration
}

func (c Config) locationTimeout() time.Duration {
	if c.LocationTimeout <= 0 {
		return DefaultLocationTimeout
	}
	return c.LocationTimeout
}

// Request describes one clock action to record. ForDate is midnight of the
// target calendar day in the tenant's timezone; it only matters for
// overrides, which project time-of-day onto it.
type Request struct {
	TenantID string
	Action   domain.Action
	Employee domain.Employee
	Site     domain.Site
	// Fix is the caller's GPS position, captured by the device that submitted
	// the action. When set it satisfies the GPS requirement directly; the
	// ambient LocationProvider is only consulted when it is absent.
	Fix      *Fix
	ForDate  time.Time
	Override bool
	Note     string
}

// Result lists the events appended by one action. Normal actions append one
// event; an override clock-out with no open session appends a synthetic pair.
type Result struct {
	Events []domain.TimeEvent
}

// Coordinator is the clock-action state machine.
type Coordinator struct {
	store    events.Store
	sessions SessionSource
	location LocationProvider
	cfg      Config
	metrics  *metrics.Metrics
	logger   *slog.Logger
	tracer   trace.Tracer
}

func NewCoordinator(store events.Store, sessions SessionSource, location LocationProvider, cfg Config, m *metrics.Metrics, logger *slog.Logger) *Coordinator {
	return &Coordinator{
		store:    store,
		sessions: sessions,
		location: location,
		cfg:      cfg,
		metrics:  m,
		logger:   logger,
		tracer:   otel.Tracer("shiftledger/clock"),
	}
}

// Record validates the request and appends the resulting event(s). Expected
// refusals come back as *Denial; anything else is an infrastructure error.
func (c *Coordinator) Record(ctx context.Context, req Request) (Result, error) {
	ctx, span := c.tracer.Start(ctx, "clock.record", trace.WithAttributes(
		attribute.String("clock.action", string(req.Action)),
		attribute.Bool("clock.override", req.Override),
		attribute.String("clock.site", req.Site.Name),
	))
	defer span.End()

	res, err := c.record(ctx, req)
	if err != nil {
		if d, ok := AsDenial(err); ok {
			c.metrics.ActionsDenied.WithLabelValues(string(d.Reason)).Inc()
			c.logger.Info("clock action denied",
				"tenant_id", req.TenantID,
				"employee_id", req.Employee.ID,
				"site", req.Site.Name,
				"reason", string(d.Reason),
			)
		}
		return Result{}, err
	}

	c.metrics.ActionsRecorded.WithLabelValues(string(req.Action), fmt.Sprintf("%t", req.Override)).
		Add(float64(len(res.Events)))
	return res, nil
}

func (c *Coordinator) record(ctx context.Context, req Request) (Result, error) {
	if req.Employee.ID == "" {
		return Result{}, &Denial{Reason: ReasonNoEmployee}
	}
	if req.Site.Name == "" {
		return Result{}, &Denial{Reason: ReasonNoSite}
	}

	now := requestcontext.Now(ctx)
	sessions, err := c.sessions.Sessions(ctx, req.TenantID)
	if err != nil {
		return Result{}, fmt.Errorf("load session snapshot: %w", err)
	}
	idx := views.BuildActiveIndex(sessions)

	switch req.Action {
	case domain.ActionIn:
		if req.Override {
			return c.append(ctx, req, c.newEvent(req, domain.ActionIn, projectOntoDay(now, req.ForDate), nil))
		}
		return c.normalIn(ctx, req, idx, now)
	case domain.ActionOut:
		if req.Override {
			return c.overrideOut(ctx, req, sessions, now)
		}
		if !idx.IsClockedIn(req.Employee.ID, req.Site.Name) {
			return Result{}, &Denial{Reason: ReasonNotClockedInHere, SiteName: req.Site.Name}
		}
		return c.append(ctx, req, c.newEvent(req, domain.ActionOut, now.UnixMilli(), nil))
	}
	return Result{}, fmt.Errorf("unknown clock action %q", req.Action)
}

func (c *Coordinator) normalIn(ctx context.Context, req Request, idx views.ActiveIndex, now time.Time) (Result, error) {
	// One open session per employee, across all sites.
	if idx.IsClockedIn(req.Employee.ID, "") {
		return Result{}, &Denial{Reason: ReasonShiftActive, SiteName: req.Site.Name}
	}

	var fix *Fix
	if c.cfg.RequireGPS || c.cfg.RequireGeofence {
		acquired, err := c.acquireFix(ctx, req)
		if err != nil {
			return Result{}, &Denial{Reason: ReasonLocationUnavailable, SiteName: req.Site.Name, Underlying: err}
		}
		fix = &acquired
	}

	if c.cfg.RequireGeofence {
		if !req.Site.HasCoordinates() {
			return Result{}, &Denial{Reason: ReasonSiteMissingCoordinates, SiteName: req.Site.Name}
		}
		distance := distanceFt(fix.Lat, fix.Lng, *req.Site.Lat, *req.Site.Lng)
		radius := req.Site.RadiusFt()
		// A fix exactly at the radius is allowed; only strictly beyond denies.
		if distance > radius {
			return Result{}, &Denial{
				Reason:     ReasonOutOfRange,
				SiteName:   req.Site.Name,
				DistanceFt: distance,
				RadiusFt:   radius,
			}
		}
	}

	return c.append(ctx, req, c.newEvent(req, domain.ActionIn, now.UnixMilli(), fix))
}

// overrideOut closes the open session at the named site, or synthesizes a
// one-minute pair inside the target day when there is nothing to close, so a
// manual out is always paired and minutes stay non-negative.
func (c *Coordinator) overrideOut(ctx context.Context, req Request, sessions []domain.Session, now time.Time) (Result, error) {
	open := findOpenSession(sessions, req.Employee.ID, req.Site.Name)
	if open == nil {
		outMillis := projectOntoDay(now, req.ForDate)
		if floor := req.ForDate.UnixMilli() + 60000; outMillis < floor {
			outMillis = floor
		}
		in := c.newEvent(req, domain.ActionIn, outMillis-60000, nil)
		out := c.newEvent(req, domain.ActionOut, outMillis, nil)
		return c.append(ctx, req, in, out)
	}

	outMillis := projectOntoDay(now, req.ForDate)
	if outMillis <= open.In.Timestamp {
		// The shift crossed midnight: the projected time-of-day lands before
		// the opening event, so roll forward exactly one day.
		outMillis += 24 * time.Hour.Milliseconds()
	}
	if floor := open.In.Timestamp + 60000; outMillis < floor {
		outMillis = floor
	}
	return c.append(ctx, req, c.newEvent(req, domain.ActionOut, outMillis, nil))
}

func (c *Coordinator) acquireFix(ctx context.Context, req Request) (Fix, error) {
	if req.Fix != nil {
		return *req.Fix, nil
	}
	if c.location == nil {
		return Fix{}, fmt.Errorf("no location fix supplied and no provider configured")
	}
	ctx, cancel := context.WithTimeout(ctx, c.cfg.locationTimeout())
	defer cancel()
	return c.location.Current(ctx)
}

func (c *Coordinator) newEvent(req Request, action domain.Action, tsMillis int64, fix *Fix) domain.TimeEvent {
	ev := domain.TimeEvent{
		TenantID:     req.TenantID,
		EmployeeID:   req.Employee.ID,
		EmployeeName: req.Employee.Name,
		Action:       action,
		Timestamp:    tsMillis,
		SiteName:     req.Site.Name,
		Note:         req.Note,
	}
	if fix != nil {
		lat, lng := fix.Lat, fix.Lng
		ev.Lat = &lat
		ev.Lng = &lng
	}
	return ev
}

func (c *Coordinator) append(ctx context.Context, req Request, evs ...domain.TimeEvent) (Result, error) {
	appended, err := c.store.Append(ctx, req.TenantID, evs...)
	if err != nil {
		return Result{}, fmt.Errorf("append clock event: %w", err)
	}
	return Result{Events: appended}, nil
}

// projectOntoDay places now's time-of-day onto the target calendar day.
func projectOntoDay(now, day time.Time) int64 {
	if day.IsZero() {
		return now.UnixMilli()
	}
	hour, minute, sec := now.In(day.Location()).Clock()
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, sec, 0, day.Location()).UnixMilli()
}

func findOpenSession(sessions []domain.Session, employeeID, siteName string) *domain.Session {
	for i := len(sessions) - 1; i >= 0; i-- {
		s := sessions[i]
		if s.Active && s.In != nil && s.EmployeeID == employeeID && strings.EqualFold(s.SiteName, siteName) {
			return &sessions[i]
		}
	}
	return nil
}
