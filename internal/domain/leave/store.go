package leave

import (
	"context"

	"ptoinfo/internal/platform/querier"
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

func (s *Store) EmployeeExists(ctx context.Context, tenantID, employeeID string) (bool, error) {
	var count int
	if err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1)
    FROM employees
    WHERE tenant_id = $1 AND id = $2
  `, tenantID, employeeID).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Store) LeaveTypeExists(ctx context.Context, tenantID, leaveTypeID string) (bool, error) {
	var count int
	if err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1)
    FROM leave_types
    WHERE tenant_id = $1 AND id = $2
  `, tenantID, leaveTypeID).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Store) ListEmployeeRecords(ctx context.Context, tenantID, employeeID string) ([]LeaveRecord, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT r.id, r.leave_type_id, lt.name, r.start_date, r.end_date, r.start_half, r.end_half,
           r.days::float8, r.reason, r.status, r.created_at
    FROM leave_requests r
    JOIN leave_types lt ON lt.id = r.leave_type_id
    WHERE r.tenant_id = $1 AND r.employee_id = $2
    ORDER BY r.start_date DESC, r.created_at DESC
  `, tenantID, employeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []LeaveRecord{}
	for rows.Next() {
		var rec LeaveRecord
		if err := rows.Scan(&rec.ID, &rec.LeaveTypeID, &rec.LeaveTypeName, &rec.StartDate, &rec.EndDate, &rec.StartHalf, &rec.EndHalf,
			&rec.Days, &rec.Reason, &rec.Status, &rec.CreatedAt); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// ListEmployeeSummaries returns one row per leave type the employee has a
// balance or a request for. Remaining is balance minus used.
func (s *Store) ListEmployeeSummaries(ctx context.Context, tenantID, employeeID string) ([]LeaveSummary, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT lt.id, lt.name,
           COALESCE(b.balance, 0)::float8,
           COALESCE(b.used, 0)::float8,
           (COALESCE(b.balance, 0) - COALESCE(b.used, 0))::float8,
           (
             SELECT COUNT(1)
             FROM leave_requests r
             WHERE r.tenant_id = lt.tenant_id AND r.employee_id = $2 AND r.leave_type_id = lt.id AND r.status <> $3
           )
    FROM leave_types lt
    LEFT JOIN leave_balances b ON b.leave_type_id = lt.id AND b.employee_id = $2 AND b.tenant_id = lt.tenant_id
    WHERE lt.tenant_id = $1
      AND (b.id IS NOT NULL OR EXISTS (
        SELECT 1 FROM leave_requests r WHERE r.employee_id = $2 AND r.leave_type_id = lt.id
      ))
    ORDER BY lt.name
  `, tenantID, employeeID, StatusCancelled)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summaries := []LeaveSummary{}
	for rows.Next() {
		var sum LeaveSummary
		if err := rows.Scan(&sum.LeaveTypeID, &sum.LeaveTypeName, &sum.AllocatedDays, &sum.UsedDays, &sum.RemainingDays, &sum.RecordCount); err != nil {
			return nil, err
		}
		summaries = append(summaries, sum)
	}
	return summaries, rows.Err()
}

// CreatePendingRequest inserts the request and reserves its days as pending
// balance in a single statement.
func (s *Store) CreatePendingRequest(ctx context.Context, tenantID string, input RequestInput, days float64) (string, error) {
	var id string
	if err := s.DB.QueryRow(ctx, `
    WITH req AS (
      INSERT INTO leave_requests (tenant_id, employee_id, leave_type_id, start_date, end_date, start_half, end_half, days, reason, status)
      VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
      RETURNING id
    ), bal AS (
      INSERT INTO leave_balances (tenant_id, employee_id, leave_type_id, balance, pending, used)
      VALUES ($1,$2,$3,0,$8,0)
      ON CONFLICT (employee_id, leave_type_id) DO UPDATE SET pending = leave_balances.pending + EXCLUDED.pending, updated_at = now()
    )
    SELECT id FROM req
  `, tenantID, input.EmployeeID, input.LeaveTypeID, input.StartDate, input.EndDate, input.StartHalf, input.EndHalf, days, input.Reason, StatusPending).Scan(&id); err != nil {
		return "", err
	}
	return id, nil
}
