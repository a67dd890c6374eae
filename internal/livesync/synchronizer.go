package livesync

import (
	"context"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"shiftledger/internal/domain"
	"shiftledger/internal/ledger"
	"shiftledger/internal/livesync/metrics"
)

// Diagnostic is a structured feed-failure report. Permission-class failures
// carry the logical path and attempted operation so a caller can distinguish
// "you don't have rights here" from "the connection dropped".
type Diagnostic struct {
	Path       Path
	Op         string
	Permission bool
	Err        error
}

// Synchronizer owns the subscription tree and the projection. All pushes are
// serialized through its mutex, so partial updates from one feed never
// interleave; cross-feed ordering stays unspecified, as the source delivers.
type Synchronizer struct {
	source  Source
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
	diags   chan Diagnostic

	mu            sync.Mutex
	attached      bool
	top           map[string]Cancel           // collection -> cancel
	confirmations map[string]*confirmationSub // periodID -> live sub-feed
	proj          Projection
}

// confirmationSub is a registry entry for one period's sub-feed. The entry is
// registered before the source subscribe call so membership doubles as the
// liveness signal for incoming pushes; cancel stays nil while that call is
// still in flight.
type confirmationSub struct {
	cancel Cancel
}

func New(source Source, m *metrics.Metrics, logger *slog.Logger) *Synchronizer {
	return &Synchronizer{
		source:        source,
		logger:        logger,
		metrics:       m,
		tracer:        otel.Tracer("shiftledger/livesync"),
		diags:         make(chan Diagnostic, 64),
		top:           make(map[string]Cancel),
		confirmations: make(map[string]*confirmationSub),
	}
}

// Diagnostics exposes the structured failure channel. Reports are dropped,
// not blocked on, when no one drains it.
func (s *Synchronizer) Diagnostics() <-chan Diagnostic {
	return s.diags
}

// Attach subscribes every top-level feed for the tenant. Attaching while
// already attached (tenant change, mode toggle) tears the whole tree down
// first; the tree is never partially migrated.
func (s *Synchronizer) Attach(ctx context.Context, tenantID string) {
	_, span := s.tracer.Start(ctx, "livesync.attach",
		trace.WithAttributes(attribute.String("tenant_id", tenantID)))
	defer span.End()

	s.DetachAll()

	s.mu.Lock()
	s.attached = true
	s.proj = Projection{TenantID: tenantID}
	s.mu.Unlock()

	for _, collection := range topLevelCollections {
		s.subscribeTop(Path{TenantID: tenantID, Collection: collection})
	}
}

func (s *Synchronizer) subscribeTop(path Path) {
	cancel, err := s.source.Subscribe(path,
		func(snapshot []byte) { s.applyTop(path, snapshot) },
		func(err error) { s.reportFeedError(path, err) },
	)
	if err != nil {
		// One feed failing to attach never blocks its siblings.
		s.reportFeedError(path, err)
		return
	}

	s.mu.Lock()
	if !s.attached {
		s.mu.Unlock()
		cancel()
		return
	}
	s.top[path.Collection] = cancel
	s.mu.Unlock()
	s.metrics.SubscriptionsActive.Inc()
}

// applyTop merges one top-level snapshot. The snapshot supersedes that feed's
// prior contents entirely.
func (s *Synchronizer) applyTop(path Path, snapshot []byte) {
	var stale []Cancel
	var resubscribe []domain.PayrollPeriod

	s.mu.Lock()
	if !s.attached || s.proj.TenantID != path.TenantID {
		s.mu.Unlock()
		return
	}

	var err error
	switch path.Collection {
	case CollectionEvents:
		var events []domain.TimeEvent
		if events, err = decodeEvents(snapshot); err == nil {
			s.proj.Events = events
			s.proj.Sessions = ledger.Derive(s.proj.Events)
		}
	case CollectionSchedules:
		s.proj.Schedules, err = decodeSnapshot[domain.Schedule](snapshot)
	case CollectionMileageLogs:
		s.proj.MileageLogs, err = decodeSnapshot[domain.MileageLog](snapshot)
	case CollectionExpenses:
		s.proj.Expenses, err = decodeSnapshot[domain.Expense](snapshot)
	case CollectionEmployees:
		s.proj.Employees, err = decodeSnapshot[domain.Employee](snapshot)
	case CollectionInvoices:
		s.proj.Invoices, err = decodeSnapshot[domain.Invoice](snapshot)
	case CollectionUpdateRequests:
		s.proj.UpdateRequests, err = decodeSnapshot[domain.EmployeeUpdateRequest](snapshot)
	case CollectionPayrollPeriods:
		var periods []domain.PayrollPeriod
		if periods, err = decodeSnapshot[domain.PayrollPeriod](snapshot); err == nil {
			s.proj.Periods = periods
			// The parent set changed: every held confirmation sub-feed is
			// stale. Clear the registry before invoking cancel handles so a
			// push racing the cancel fails the membership check and drops.
			for _, sub := range s.confirmations {
				if sub.cancel != nil {
					stale = append(stale, sub.cancel)
				}
			}
			s.confirmations = make(map[string]*confirmationSub)
			resubscribe = append(resubscribe, periods...)
		}
	}
	s.mu.Unlock()

	if err != nil {
		s.reportFeedError(path, err)
		return
	}
	s.metrics.PushesApplied.WithLabelValues(path.Collection).Inc()

	for _, cancel := range stale {
		cancel()
		s.metrics.SubscriptionsActive.Dec()
	}
	for _, period := range resubscribe {
		s.subscribeConfirmations(path.TenantID, period.ID)
	}
}

func (s *Synchronizer) subscribeConfirmations(tenantID, periodID string) {
	path := ConfirmationsPath(tenantID, periodID)

	sub := &confirmationSub{}
	s.mu.Lock()
	if !s.attached || s.proj.TenantID != tenantID {
		s.mu.Unlock()
		return
	}
	prior := s.confirmations[periodID]
	// Registered before subscribing: the source may deliver the initial
	// snapshot synchronously, and applyConfirmations only accepts pushes for
	// periods present in the registry.
	s.confirmations[periodID] = sub
	s.mu.Unlock()

	if prior != nil && prior.cancel != nil {
		// A replacement subscription supersedes the prior handle.
		prior.cancel()
		s.metrics.SubscriptionsActive.Dec()
	}

	cancel, err := s.source.Subscribe(path,
		func(snapshot []byte) { s.applyConfirmations(path, snapshot) },
		func(err error) { s.reportFeedError(path, err) },
	)
	if err != nil {
		s.mu.Lock()
		if s.confirmations[periodID] == sub {
			delete(s.confirmations, periodID)
		}
		s.mu.Unlock()
		s.reportFeedError(path, err)
		return
	}

	s.mu.Lock()
	if s.confirmations[periodID] != sub {
		// Detached or superseded while the subscribe call was in flight.
		s.mu.Unlock()
		cancel()
		return
	}
	sub.cancel = cancel
	s.mu.Unlock()
	s.metrics.SubscriptionsActive.Inc()
}

// applyConfirmations replaces only its own period's confirmations in the
// flat projection; sibling periods' confirmations stay untouched.
func (s *Synchronizer) applyConfirmations(path Path, snapshot []byte) {
	incoming, err := decodeSnapshot[domain.PayrollConfirmation](snapshot)
	if err != nil {
		s.reportFeedError(path, err)
		return
	}

	s.mu.Lock()
	if !s.attached || s.proj.TenantID != path.TenantID {
		s.mu.Unlock()
		return
	}
	if _, ok := s.confirmations[path.PeriodID]; !ok {
		// The period left the parent set; a push still in flight for its
		// cancelled sub-feed must not reenter the projection.
		s.mu.Unlock()
		return
	}
	s.proj.Confirmations = mergeConfirmations(s.proj.Confirmations, path.PeriodID, incoming)
	s.mu.Unlock()
	s.metrics.PushesApplied.WithLabelValues(collectionConfirmations).Inc()
}

// DetachAll unsubscribes every feed and clears the nested registry. It is
// idempotent and safe to call from within a feed callback: the registries
// are cleared under the lock first, and cancel handles run outside it.
func (s *Synchronizer) DetachAll() {
	s.mu.Lock()
	if !s.attached && len(s.top) == 0 && len(s.confirmations) == 0 {
		s.mu.Unlock()
		return
	}
	s.attached = false
	cancels := make([]Cancel, 0, len(s.top)+len(s.confirmations))
	for _, cancel := range s.top {
		cancels = append(cancels, cancel)
	}
	for _, sub := range s.confirmations {
		// A pending sub-feed has no handle yet; its subscribe call cancels
		// itself when it finds the registry entry gone.
		if sub.cancel != nil {
			cancels = append(cancels, sub.cancel)
		}
	}
	s.top = make(map[string]Cancel)
	s.confirmations = make(map[string]*confirmationSub)
	s.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
	s.metrics.SubscriptionsActive.Sub(float64(len(cancels)))
}

// Snapshot returns a copy of the projection safe for concurrent reads.
func (s *Synchronizer) Snapshot() Projection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.proj
}

// Sessions satisfies the clock coordinator's session source with the latest
// derived snapshot.
func (s *Synchronizer) Sessions(_ context.Context, tenantID string) ([]domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.proj.TenantID != tenantID {
		return nil, nil
	}
	return s.proj.Sessions, nil
}

func (s *Synchronizer) reportFeedError(path Path, err error) {
	feedErr := &FeedError{Path: path, Op: "list", Err: err, Permission: isPermissionDenied(err)}

	kind := "generic"
	if feedErr.Permission {
		kind = "permission"
		s.logger.Warn("feed permission denied", "path", path.String(), "op", feedErr.Op, "error", err)
	} else {
		s.logger.Error("feed listener failed", "path", path.String(), "error", err)
	}
	s.metrics.FeedErrors.WithLabelValues(kind).Inc()

	select {
	case s.diags <- Diagnostic{Path: path, Op: feedErr.Op, Permission: feedErr.Permission, Err: err}:
	default:
		// Nobody draining; drop rather than block a feed callback.
	}
}
