package leave

import "time"

const (
	StatusPending   = "pending"
	StatusApproved  = "approved"
	StatusRejected  = "rejected"
	StatusCancelled = "cancelled"
)

// LeaveRecord is one leave request as shown in an employee's history.
type LeaveRecord struct {
	ID            string    `json:"id"`
	LeaveTypeID   string    `json:"leaveTypeId"`
	LeaveTypeName string    `json:"leaveTypeName"`
	StartDate     time.Time `json:"startDate"`
	EndDate       time.Time `json:"endDate"`
	StartHalf     bool      `json:"startHalf"`
	EndHalf       bool      `json:"endHalf"`
	Days          float64   `json:"days"`
	Reason        string    `json:"reason"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"createdAt"`
}

// LeaveRecordSet is the Leave Info Service result. Success is false when the
// employee is unknown to the tenant.
type LeaveRecordSet struct {
	Success bool          `json:"success"`
	Message string        `json:"message,omitempty"`
	Records []LeaveRecord `json:"records"`
}

// LeaveSummary aggregates one leave type for one employee, in days.
type LeaveSummary struct {
	LeaveTypeID   string  `json:"leaveTypeId"`
	LeaveTypeName string  `json:"leaveTypeName"`
	AllocatedDays float64 `json:"allocatedDays"`
	UsedDays      float64 `json:"usedDays"`
	RemainingDays float64 `json:"remainingDays"`
	RecordCount   int     `json:"recordCount"`
}

type RequestInput struct {
	EmployeeID  string
	LeaveTypeID string
	StartDate   time.Time
	EndDate     time.Time
	StartHalf   bool
	EndHalf     bool
	Reason      string
}
