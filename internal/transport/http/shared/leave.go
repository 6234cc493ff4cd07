package shared

import (
	"errors"
	"net/http"

	"ptoinfo/internal/domain/leave"
	"ptoinfo/internal/transport/http/api"
)

// LeaveRequestPayload is the body of a leave request form submission.
type LeaveRequestPayload struct {
	LeaveTypeID string `json:"leaveTypeId"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
	StartHalf   bool   `json:"startHalf"`
	EndHalf     bool   `json:"endHalf"`
	Reason      string `json:"reason"`
}

// Input validates the payload into v and builds the request for employeeID.
func (p LeaveRequestPayload) Input(v *Validator, employeeID string) leave.RequestInput {
	v.UUID("leaveTypeId", p.LeaveTypeID)
	start, okStart := v.Date("startDate", p.StartDate)
	end, okEnd := v.Date("endDate", p.EndDate)
	if okStart && okEnd {
		v.DateOrder("startDate", start, "endDate", end)
	}
	return leave.RequestInput{
		EmployeeID:  employeeID,
		LeaveTypeID: p.LeaveTypeID,
		StartDate:   start,
		EndDate:     end,
		StartHalf:   p.StartHalf,
		EndHalf:     p.EndHalf,
		Reason:      p.Reason,
	}
}

// FailFetch maps a leave read failure onto the envelope.
func FailFetch(w http.ResponseWriter, err error, requestID string) {
	var fetchErr *leave.FetchError
	if !errors.As(err, &fetchErr) {
		api.Fail(w, http.StatusInternalServerError, "internal_error", "unknown error occurred", requestID)
		return
	}
	switch fetchErr.Kind {
	case leave.KindNetwork:
		api.Fail(w, http.StatusServiceUnavailable, "leave_service_unavailable", fetchErr.Message, requestID)
	case leave.KindService:
		api.Fail(w, http.StatusBadGateway, "leave_service_error", fetchErr.Message, requestID)
	default:
		api.Fail(w, http.StatusInternalServerError, "internal_error", "unknown error occurred", requestID)
	}
}

// FailSubmit maps a leave request submission failure onto the envelope.
func FailSubmit(w http.ResponseWriter, err error, requestID string) {
	switch {
	case errors.Is(err, leave.ErrEmployeeNotFound):
		api.Fail(w, http.StatusNotFound, "employee_not_found", "employee not found", requestID)
	case errors.Is(err, leave.ErrLeaveTypeNotFound):
		FailValidation(w, requestID, []ValidationIssue{{Field: "leaveTypeId", Reason: "leave type not found"}})
	case errors.Is(err, leave.ErrInvalidRequest):
		api.Fail(w, http.StatusBadRequest, "invalid_request", err.Error(), requestID)
	default:
		api.Fail(w, http.StatusInternalServerError, "leave_request_failed", "failed to create leave request", requestID)
	}
}
