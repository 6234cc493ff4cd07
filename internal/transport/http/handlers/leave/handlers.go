package leavehandler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ptoinfo/internal/domain/auth"
	"ptoinfo/internal/domain/leave"
	"ptoinfo/internal/transport/http/api"
	"ptoinfo/internal/transport/http/middleware"
	"ptoinfo/internal/transport/http/shared"
)

// Source is the tenant scoped leave read contract.
type Source interface {
	GetEmployeeLeaveInfo(ctx context.Context, employeeID string) (leave.LeaveRecordSet, error)
	GetEmployeeLeaveTypeSummary(ctx context.Context, employeeID string) ([]leave.LeaveSummary, error)
}

type Handler struct {
	Sources func(tenantID string) Source
	Perms   middleware.PermissionStore
}

func NewHandler(sources func(tenantID string) Source, perms middleware.PermissionStore) *Handler {
	return &Handler{Sources: sources, Perms: perms}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/pto/employees/{employeeID}", func(r chi.Router) {
		r.Use(middleware.RequirePermission(auth.PermLeaveRead, h.Perms))
		r.Get("/leave-info", h.handleLeaveInfo)
		r.Get("/leave-summary", h.handleLeaveSummary)
	})
}

func (h *Handler) handleLeaveInfo(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	set, err := h.Sources(user.TenantID).GetEmployeeLeaveInfo(r.Context(), chi.URLParam(r, "employeeID"))
	if err != nil {
		shared.FailFetch(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, set, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleLeaveSummary(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	summaries, err := h.Sources(user.TenantID).GetEmployeeLeaveTypeSummary(r.Context(), chi.URLParam(r, "employeeID"))
	if err != nil {
		shared.FailFetch(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, summaries, middleware.GetRequestID(r.Context()))
}
