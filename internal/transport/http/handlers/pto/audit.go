package ptohandler

import (
	"context"
	"log/slog"
	"net"
	"net/http"

	"ptoinfo/internal/domain/audit"
	"ptoinfo/internal/domain/leave"
	"ptoinfo/internal/domain/pto"
	"ptoinfo/internal/transport/http/middleware"
)

// AuditRecorder stores audit events.
type AuditRecorder interface {
	Record(ctx context.Context, evt audit.Event) error
}

type auditedRequest struct {
	EmployeeID  string `json:"employeeId"`
	LeaveTypeID string `json:"leaveTypeId"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
	StartHalf   bool   `json:"startHalf"`
	EndHalf     bool   `json:"endHalf"`
	SessionID   string `json:"sessionId"`
	Status      string `json:"status"`
}

func (h *Handler) recordAudit(r *http.Request, session *pto.Session, leaveRequestID string, input leave.RequestInput) {
	if h.Audit == nil {
		return
	}
	evt := audit.Event{
		TenantID:   session.TenantID,
		ActorID:    session.UserID,
		Action:     audit.ActionLeaveRequestCreate,
		EntityType: audit.EntityLeaveRequest,
		EntityID:   leaveRequestID,
		RequestID:  middleware.GetRequestID(r.Context()),
		IP:         remoteIP(r),
		After: auditedRequest{
			EmployeeID:  input.EmployeeID,
			LeaveTypeID: input.LeaveTypeID,
			StartDate:   input.StartDate.Format("2006-01-02"),
			EndDate:     input.EndDate.Format("2006-01-02"),
			StartHalf:   input.StartHalf,
			EndHalf:     input.EndHalf,
			SessionID:   session.ID,
			Status:      leave.StatusPending,
		},
	}
	if err := h.Audit.Record(r.Context(), evt); err != nil {
		slog.WarnContext(r.Context(), "audit record failed", "action", evt.Action, "entityId", leaveRequestID, "err", err)
	}
}

func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
