// Package livesync maintains an in-memory projection of the tenant's remote
// collections through a tree of feed subscriptions: eight top-level feeds
// plus one nested confirmations sub-feed per known payroll period. It owns
// every listener's lifecycle; nothing else attaches or detaches feeds.
package livesync

import (
	"fmt"
	"strings"
)

// Collection names mirror the persisted layout of the remote feed tree.
const (
	CollectionEvents         = "events"
	CollectionSchedules      = "schedules"
	CollectionMileageLogs    = "mileage_logs"
	CollectionExpenses       = "other_expenses"
	CollectionEmployees      = "employees"
	CollectionInvoices       = "invoices"
	CollectionUpdateRequests = "employee_update_requests"
	CollectionPayrollPeriods = "payroll_periods"
	collectionConfirmations  = "confirmations"
)

// topLevelCollections is the fixed set of root feeds attached per tenant.
var topLevelCollections = []string{
	CollectionEvents,
	CollectionSchedules,
	CollectionMileageLogs,
	CollectionExpenses,
	CollectionEmployees,
	CollectionInvoices,
	CollectionUpdateRequests,
	CollectionPayrollPeriods,
}

// Path identifies one feed in the subscription tree. PeriodID is set only
// for nested confirmation sub-feeds.
type Path struct {
	TenantID   string
	Collection string
	PeriodID   string
}

// ConfirmationsPath addresses the nested sub-feed of one payroll period.
func ConfirmationsPath(tenantID, periodID string) Path {
	return Path{TenantID: tenantID, Collection: collectionConfirmations, PeriodID: periodID}
}

func (p Path) String() string {
	if p.PeriodID != "" {
		return fmt.Sprintf("tenants/%s/%s/%s/%s", p.TenantID, CollectionPayrollPeriods, p.PeriodID, p.Collection)
	}
	return fmt.Sprintf("tenants/%s/%s", p.TenantID, p.Collection)
}

// Topic maps the logical path onto a broker topic for the live source.
func (p Path) Topic() string {
	return "shiftledger." + strings.ReplaceAll(p.String(), "/", ".")
}

// Cancel stops one subscription. Implementations must make it idempotent and
// safe to call from within the feed's own callback; after it returns, no
// further callbacks fire for that subscription.
type Cancel func()

// Source delivers snapshot pushes for feeds. Each push supersedes the feed's
// prior snapshot entirely; cross-feed ordering is unspecified.
type Source interface {
	Subscribe(path Path, push func(snapshot []byte), fail func(err error)) (Cancel, error)
}

// FeedError wraps a failure on one feed with the logical path and the
// operation that was being attempted. Permission reports the
// permission-denied class, which callers route to a dedicated diagnostics
// channel rather than treating as a dropped connection.
type FeedError struct {
	Path       Path
	Op         string // operation attempted, e.g. "list"
	Permission bool
	Err        error
}

func (e *FeedError) Error() string {
	kind := "feed error"
	if e.Permission {
		kind = "permission denied"
	}
	return fmt.Sprintf("%s on %s (%s): %v", kind, e.Path, e.Op, e.Err)
}

func (e *FeedError) Unwrap() error {
	return e.Err
}

// permissionSignature matches the remote service's permission-denied failure
// category by message, since the transport does not carry a typed code.
func isPermissionDenied(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "permission denied") ||
		strings.Contains(msg, "permission_denied") ||
		strings.Contains(msg, "not authorized") ||
		strings.Contains(msg, "unauthorized")
}
