package leave

import "context"

type StoreAPI interface {
	EmployeeExists(ctx context.Context, tenantID, employeeID string) (bool, error)
	LeaveTypeExists(ctx context.Context, tenantID, leaveTypeID string) (bool, error)
	ListEmployeeRecords(ctx context.Context, tenantID, employeeID string) ([]LeaveRecord, error)
	ListEmployeeSummaries(ctx context.Context, tenantID, employeeID string) ([]LeaveSummary, error)
	CreatePendingRequest(ctx context.Context, tenantID string, input RequestInput, days float64) (string, error)
}
