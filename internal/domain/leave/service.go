package leave

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"

	"ptoinfo/internal/requestctx"
)

const employeeNotFoundMessage = "employee not found"

type Service struct {
	Store       StoreAPI
	Cache       Cache
	CachePrefix string
	InfoTTL     time.Duration
}

// NewService builds the leave service. cache may be nil.
func NewService(store StoreAPI, cache Cache, cachePrefix string, infoTTL time.Duration) *Service {
	return &Service{Store: store, Cache: cache, CachePrefix: cachePrefix, InfoTTL: infoTTL}
}

// ForTenant scopes the service to one tenant. The returned value implements
// both the leave info and the leave summary contracts.
func (s *Service) ForTenant(tenantID string) *Tenant {
	return &Tenant{svc: s, tenantID: tenantID}
}

type Tenant struct {
	svc      *Service
	tenantID string
}

func (t *Tenant) TenantID() string {
	return t.tenantID
}

// GetEmployeeLeaveInfo returns the employee's leave history. Results are
// cached when a cache is configured.
func (t *Tenant) GetEmployeeLeaveInfo(ctx context.Context, employeeID string) (LeaveRecordSet, error) {
	if _, err := uuid.Parse(employeeID); err != nil {
		return LeaveRecordSet{Success: false, Message: employeeNotFoundMessage, Records: []LeaveRecord{}}, nil
	}

	key := t.leaveInfoKey(employeeID)
	if cached, ok := t.cachedLeaveInfo(ctx, key); ok {
		return cached, nil
	}

	exists, err := t.svc.Store.EmployeeExists(ctx, t.tenantID, employeeID)
	if err != nil {
		return LeaveRecordSet{}, t.fetchFailed(ctx, "leave.info", employeeID, err)
	}
	if !exists {
		return LeaveRecordSet{Success: false, Message: employeeNotFoundMessage, Records: []LeaveRecord{}}, nil
	}

	records, err := t.svc.Store.ListEmployeeRecords(ctx, t.tenantID, employeeID)
	if err != nil {
		return LeaveRecordSet{}, t.fetchFailed(ctx, "leave.info", employeeID, err)
	}

	out := LeaveRecordSet{Success: true, Records: records}
	t.storeLeaveInfo(ctx, key, out)
	return out, nil
}

// GetEmployeeLeaveTypeSummary always reads through to the store; summaries
// are never cached.
func (t *Tenant) GetEmployeeLeaveTypeSummary(ctx context.Context, employeeID string) ([]LeaveSummary, error) {
	if _, err := uuid.Parse(employeeID); err != nil {
		return []LeaveSummary{}, nil
	}
	summaries, err := t.svc.Store.ListEmployeeSummaries(ctx, t.tenantID, employeeID)
	if err != nil {
		return nil, t.fetchFailed(ctx, "leave.summary", employeeID, err)
	}
	return summaries, nil
}

// SubmitRequest records a pending leave request and drops the cached leave
// info of the employee.
func (t *Tenant) SubmitRequest(ctx context.Context, input RequestInput) (string, error) {
	if _, err := uuid.Parse(input.EmployeeID); err != nil {
		return "", ErrEmployeeNotFound
	}
	if _, err := uuid.Parse(input.LeaveTypeID); err != nil {
		return "", ErrLeaveTypeNotFound
	}

	days, err := CalculateRequestDays(input.StartDate, input.EndDate, input.StartHalf, input.EndHalf)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	input.StartDate, input.EndDate = CivilDate(input.StartDate), CivilDate(input.EndDate)
	input.Reason = strings.TrimSpace(input.Reason)

	exists, err := t.svc.Store.EmployeeExists(ctx, t.tenantID, input.EmployeeID)
	if err != nil {
		return "", goerr.Wrap(err, "failed to check employee", goerr.V("employee_id", input.EmployeeID))
	}
	if !exists {
		return "", ErrEmployeeNotFound
	}
	typeExists, err := t.svc.Store.LeaveTypeExists(ctx, t.tenantID, input.LeaveTypeID)
	if err != nil {
		return "", goerr.Wrap(err, "failed to check leave type", goerr.V("leave_type_id", input.LeaveTypeID))
	}
	if !typeExists {
		return "", ErrLeaveTypeNotFound
	}

	id, err := t.svc.Store.CreatePendingRequest(ctx, t.tenantID, input, days)
	if err != nil {
		return "", goerr.Wrap(err, "failed to create leave request", goerr.V("employee_id", input.EmployeeID))
	}

	if t.svc.Cache != nil {
		if err := t.svc.Cache.Delete(ctx, t.leaveInfoKey(input.EmployeeID)); err != nil {
			requestctx.Logger(ctx).Warn("leave info cache invalidation failed", "employeeId", input.EmployeeID, "err", err)
		}
	}
	return id, nil
}

func (t *Tenant) leaveInfoKey(employeeID string) string {
	return t.svc.CachePrefix + ":leave-info:" + t.tenantID + ":" + employeeID
}

func (t *Tenant) cachedLeaveInfo(ctx context.Context, key string) (LeaveRecordSet, bool) {
	if t.svc.Cache == nil {
		return LeaveRecordSet{}, false
	}
	raw, err := t.svc.Cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			requestctx.Logger(ctx).Warn("leave info cache read failed", "key", key, "err", err)
		}
		return LeaveRecordSet{}, false
	}
	var out LeaveRecordSet
	if err := json.Unmarshal(raw, &out); err != nil {
		requestctx.Logger(ctx).Warn("leave info cache entry unreadable", "key", key, "err", err)
		return LeaveRecordSet{}, false
	}
	return out, true
}

func (t *Tenant) storeLeaveInfo(ctx context.Context, key string, value LeaveRecordSet) {
	if t.svc.Cache == nil || t.svc.InfoTTL <= 0 {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		requestctx.Logger(ctx).Warn("leave info cache encode failed", "key", key, "err", err)
		return
	}
	if err := t.svc.Cache.Set(ctx, key, raw, t.svc.InfoTTL); err != nil {
		requestctx.Logger(ctx).Warn("leave info cache write failed", "key", key, "err", err)
	}
}

func (t *Tenant) fetchFailed(ctx context.Context, op, employeeID string, err error) error {
	out := classifyFetchError(op, err)
	requestctx.Logger(ctx).Warn("leave fetch failed", "op", op, "tenantId", t.tenantID, "employeeId", employeeID, "err", err)
	return out
}
