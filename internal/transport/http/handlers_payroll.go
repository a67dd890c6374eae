package httptransport

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"shiftledger/internal/domain"
	"shiftledger/internal/employees"
	"shiftledger/internal/payroll"
	"shiftledger/pkg/requestcontext"
)

// PayrollHandler exposes period finalization, revision bumps and employee
// confirmations. Finalize and bump are manager actions; confirming is not.
type PayrollHandler struct {
	service *payroll.Service
	store   payroll.Store
	logger  *slog.Logger
}

func NewPayrollHandler(service *payroll.Service, store payroll.Store, logger *slog.Logger) *PayrollHandler {
	return &PayrollHandler{service: service, store: store, logger: logger}
}

func (h *PayrollHandler) Register(r chi.Router) {
	r.Get("/payroll/periods", h.handleListPeriods)
	r.Post("/payroll/periods", RequireManager(h.handleFinalize))
	r.Post("/payroll/periods/{periodID}/bump", RequireManager(h.handleBump))
	r.Get("/payroll/periods/{periodID}/confirmations", h.handleListConfirmations)
	r.Post("/payroll/periods/{periodID}/confirmations", h.handleConfirm)
}

type finalizeRequest struct {
	StartDate string               `json:"start_date"`
	EndDate   string               `json:"end_date"`
	Lines     []domain.PayrollLine `json:"lines"`
}

func (h *PayrollHandler) handleFinalize(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body finalizeRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	start, err := time.Parse(dateLayout, body.StartDate)
	if err != nil {
		writeBadRequest(w, "start_date must be YYYY-MM-DD")
		return
	}
	end, err := time.Parse(dateLayout, body.EndDate)
	if err != nil {
		writeBadRequest(w, "end_date must be YYYY-MM-DD")
		return
	}

	period, err := h.service.Finalize(ctx, domain.PayrollPeriod{
		TenantID:  requestcontext.TenantID(ctx),
		StartDate: start,
		EndDate:   end,
		Lines:     body.Lines,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, period)
}

func (h *PayrollHandler) handleListPeriods(w http.ResponseWriter, r *http.Request) {
	periods, err := h.store.ListPeriods(r.Context(), requestcontext.TenantID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"periods": periods})
}

func (h *PayrollHandler) handleBump(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	period, err := h.service.Bump(ctx, requestcontext.TenantID(ctx), chi.URLParam(r, "periodID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, period)
}

func (h *PayrollHandler) handleListConfirmations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	confirmations, err := h.store.ListConfirmations(ctx, requestcontext.TenantID(ctx), chi.URLParam(r, "periodID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"confirmations": confirmations})
}

func (h *PayrollHandler) handleConfirm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	confirmation, err := h.service.Confirm(ctx,
		requestcontext.TenantID(ctx), chi.URLParam(r, "periodID"), requestcontext.ActorUID(ctx))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, confirmation)
}

// EmployeesHandler exposes employee records and the update-request lifecycle.
type EmployeesHandler struct {
	service *employees.Service
	store   employees.Store
	logger  *slog.Logger
}

func NewEmployeesHandler(service *employees.Service, store employees.Store, logger *slog.Logger) *EmployeesHandler {
	return &EmployeesHandler{service: service, store: store, logger: logger}
}

func (h *EmployeesHandler) Register(r chi.Router) {
	r.Get("/employees", h.handleList)
	r.Post("/employees/update-requests", h.handleSubmit)
	r.Get("/employees/update-requests", h.handleListRequests)
	r.Post("/employees/update-requests/{requestID}/approve", RequireManager(h.handleApprove))
	r.Post("/employees/update-requests/{requestID}/reject", RequireManager(h.handleReject))
}

func (h *EmployeesHandler) handleList(w http.ResponseWriter, r *http.Request) {
	listed, err := h.store.ListEmployees(r.Context(), requestcontext.TenantID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"employees": listed})
}

type submitUpdateRequest struct {
	EmployeeID string            `json:"employee_id"`
	Updates    map[string]string `json:"updates"`
}

func (h *EmployeesHandler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body submitUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	request, err := h.service.Submit(ctx, requestcontext.TenantID(ctx), body.EmployeeID, body.Updates)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, request)
}

func (h *EmployeesHandler) handleListRequests(w http.ResponseWriter, r *http.Request) {
	listed, err := h.store.ListUpdateRequests(r.Context(), requestcontext.TenantID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"requests": listed})
}

func (h *EmployeesHandler) handleApprove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	request, err := h.service.Approve(ctx, requestcontext.TenantID(ctx), chi.URLParam(r, "requestID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, request)
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

func (h *EmployeesHandler) handleReject(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body rejectRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	request, err := h.service.Reject(ctx, requestcontext.TenantID(ctx), chi.URLParam(r, "requestID"), body.Reason)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, request)
}
