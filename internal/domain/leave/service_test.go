package leave

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"ptoinfo/internal/requestctx"
)

const (
	testTenant    = "tenant-1"
	testEmployee  = "6f1c3c1e-8f6b-4a53-9d55-2a0c1b9e8f10"
	testLeaveType = "0b8f7a52-3f0f-4c8e-9f0e-52a7c4a0d1a2"
)

type fakeStore struct {
	mu           sync.Mutex
	employees    map[string]bool
	leaveTypes   map[string]bool
	records      []LeaveRecord
	summaries    []LeaveSummary
	recordErr    error
	summaryErr   error
	recordCalls  int
	summaryCalls int
	created      []RequestInput
	createdDays  []float64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		employees:  map[string]bool{testEmployee: true},
		leaveTypes: map[string]bool{testLeaveType: true},
		records:    []LeaveRecord{{ID: "r1", LeaveTypeID: testLeaveType, Days: 2, Status: StatusApproved}},
		summaries:  []LeaveSummary{{LeaveTypeID: testLeaveType, AllocatedDays: 10, UsedDays: 4, RemainingDays: 6, RecordCount: 2}},
	}
}

func (f *fakeStore) EmployeeExists(ctx context.Context, tenantID, employeeID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.recordErr != nil {
		return false, f.recordErr
	}
	return f.employees[employeeID], nil
}

func (f *fakeStore) LeaveTypeExists(ctx context.Context, tenantID, leaveTypeID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.leaveTypes[leaveTypeID], nil
}

func (f *fakeStore) ListEmployeeRecords(ctx context.Context, tenantID, employeeID string) ([]LeaveRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recordCalls++
	return append([]LeaveRecord(nil), f.records...), nil
}

func (f *fakeStore) ListEmployeeSummaries(ctx context.Context, tenantID, employeeID string) ([]LeaveSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.summaryCalls++
	if f.summaryErr != nil {
		return nil, f.summaryErr
	}
	return append([]LeaveSummary(nil), f.summaries...), nil
}

func (f *fakeStore) CreatePendingRequest(ctx context.Context, tenantID string, input RequestInput, days float64) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, input)
	f.createdDays = append(f.createdDays, days)
	return "req-1", nil
}

type memoryCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	sets    int
	deletes int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string][]byte{}}
}

func (c *memoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	value, ok := c.entries[key]
	if !ok {
		return nil, ErrCacheMiss
	}
	return value, nil
}

func (c *memoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
	c.sets++
	return nil
}

func (c *memoryCache) Delete(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range keys {
		delete(c.entries, key)
	}
	c.deletes++
	return nil
}

func TestGetEmployeeLeaveInfoCachesRecords(t *testing.T) {
	store := newFakeStore()
	cache := newMemoryCache()
	tenant := NewService(store, cache, "pto", time.Minute).ForTenant(testTenant)
	ctx := context.Background()

	first, err := tenant.GetEmployeeLeaveInfo(ctx, testEmployee)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !first.Success || len(first.Records) != 1 {
		t.Fatalf("unexpected first result: %+v", first)
	}

	second, err := tenant.GetEmployeeLeaveInfo(ctx, testEmployee)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !second.Success || len(second.Records) != 1 || second.Records[0].ID != "r1" {
		t.Fatalf("unexpected cached result: %+v", second)
	}
	if store.recordCalls != 1 {
		t.Fatalf("expected one store read, got %d", store.recordCalls)
	}
	if cache.sets != 1 {
		t.Fatalf("expected one cache write, got %d", cache.sets)
	}
}

func TestGetEmployeeLeaveTypeSummaryIsNeverCached(t *testing.T) {
	store := newFakeStore()
	cache := newMemoryCache()
	tenant := NewService(store, cache, "pto", time.Minute).ForTenant(testTenant)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		summaries, err := tenant.GetEmployeeLeaveTypeSummary(ctx, testEmployee)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(summaries) != 1 {
			t.Fatalf("expected one summary, got %d", len(summaries))
		}
	}
	if store.summaryCalls != 3 {
		t.Fatalf("expected every summary read to reach the store, got %d", store.summaryCalls)
	}
	if cache.sets != 0 {
		t.Fatalf("summaries must not be written to the cache, got %d writes", cache.sets)
	}
}

func TestGetEmployeeLeaveInfoUnknownEmployee(t *testing.T) {
	store := newFakeStore()
	tenant := NewService(store, nil, "pto", time.Minute).ForTenant(testTenant)

	for _, id := range []string{"not-a-uuid", "1d3f4b8e-0000-4000-8000-000000000000"} {
		set, err := tenant.GetEmployeeLeaveInfo(context.Background(), id)
		if err != nil {
			t.Fatalf("unexpected error for %s: %v", id, err)
		}
		if set.Success || set.Message != "employee not found" {
			t.Fatalf("expected unsuccessful set for %s, got %+v", id, set)
		}
	}
}

func TestFetchFailuresAreClassified(t *testing.T) {
	store := newFakeStore()
	store.recordErr = context.DeadlineExceeded
	store.summaryErr = errors.New("boom")
	tenant := NewService(store, nil, "pto", time.Minute).ForTenant(testTenant)
	ctx := context.Background()

	_, err := tenant.GetEmployeeLeaveInfo(ctx, testEmployee)
	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) || fetchErr.Kind != KindNetwork {
		t.Fatalf("expected network FetchError, got %v", err)
	}

	_, err = tenant.GetEmployeeLeaveTypeSummary(ctx, testEmployee)
	if !errors.As(err, &fetchErr) || fetchErr.Kind != KindUnknown {
		t.Fatalf("expected unknown FetchError, got %v", err)
	}
}

func TestSubmitRequestInvalidatesLeaveInfo(t *testing.T) {
	store := newFakeStore()
	cache := newMemoryCache()
	tenant := NewService(store, cache, "pto", time.Minute).ForTenant(testTenant)
	ctx := context.Background()

	if _, err := tenant.GetEmployeeLeaveInfo(ctx, testEmployee); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	id, err := tenant.SubmitRequest(ctx, RequestInput{
		EmployeeID:  testEmployee,
		LeaveTypeID: testLeaveType,
		StartDate:   time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		EndDate:     time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC),
		EndHalf:     true,
		Reason:      "  family trip ",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "req-1" {
		t.Fatalf("unexpected id %q", id)
	}
	if len(store.created) != 1 || store.createdDays[0] != 1.5 || store.created[0].Reason != "family trip" {
		t.Fatalf("unexpected stored request: %+v days=%v", store.created, store.createdDays)
	}

	if _, err := tenant.SubmitRequest(ctx, RequestInput{
		EmployeeID:  testEmployee,
		LeaveTypeID: testLeaveType,
		StartDate:   time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC),
		EndDate:     time.Date(2026, 3, 11, 8, 0, 0, 0, time.UTC),
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.createdDays[1] != 2 || store.created[1].StartDate.Hour() != 0 || store.created[1].EndDate.Hour() != 0 {
		t.Fatalf("expected whole calendar days, got %+v days=%v", store.created[1], store.createdDays[1])
	}
	if len(cache.entries) != 0 {
		t.Fatalf("expected cache entry to be invalidated, got %d entries", len(cache.entries))
	}

	if _, err := tenant.GetEmployeeLeaveInfo(ctx, testEmployee); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.recordCalls != 2 {
		t.Fatalf("expected a fresh store read after submission, got %d reads", store.recordCalls)
	}
}

func TestSubmitRequestValidation(t *testing.T) {
	store := newFakeStore()
	tenant := NewService(store, nil, "pto", time.Minute).ForTenant(testTenant)
	start := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		input RequestInput
		want  error
	}{
		{name: "bad employee", input: RequestInput{EmployeeID: "x", LeaveTypeID: testLeaveType, StartDate: start, EndDate: start}, want: ErrEmployeeNotFound},
		{name: "unknown employee", input: RequestInput{EmployeeID: "1d3f4b8e-0000-4000-8000-000000000000", LeaveTypeID: testLeaveType, StartDate: start, EndDate: start}, want: ErrEmployeeNotFound},
		{name: "unknown leave type", input: RequestInput{EmployeeID: testEmployee, LeaveTypeID: "1d3f4b8e-0000-4000-8000-000000000001", StartDate: start, EndDate: start}, want: ErrLeaveTypeNotFound},
		{name: "reversed dates", input: RequestInput{EmployeeID: testEmployee, LeaveTypeID: testLeaveType, StartDate: start, EndDate: start.AddDate(0, 0, -1)}, want: ErrInvalidRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tenant.SubmitRequest(context.Background(), tt.input)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
	if len(store.created) != 0 {
		t.Fatalf("no request should have been stored, got %d", len(store.created))
	}
}

type failingCache struct{ *memoryCache }

func (c *failingCache) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("redis down")
}

func TestCacheFailuresLogRequestID(t *testing.T) {
	var buf bytes.Buffer
	previous := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(previous) })

	cache := &failingCache{memoryCache: newMemoryCache()}
	tenant := NewService(newFakeStore(), cache, "pto", time.Minute).ForTenant(testTenant)
	ctx := requestctx.WithRequestID(context.Background(), "req-42")

	if _, err := tenant.GetEmployeeLeaveInfo(ctx, testEmployee); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "leave info cache write failed") || !strings.Contains(out, `"requestId":"req-42"`) {
		t.Fatalf("expected cache failure logged with request id, got %s", out)
	}
}
