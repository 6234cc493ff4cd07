package pto

import (
	"context"
	"sync"

	"ptoinfo/internal/domain/leave"
)

type fakeSources struct {
	mu           sync.Mutex
	records      map[string]leave.LeaveRecordSet
	summaries    map[string][]leave.LeaveSummary
	recordErr    error
	summaryErr   error
	recordGate   map[string]chan struct{}
	summaryGate  map[string]chan struct{}
	recordCalls  int
	summaryCalls int
}

func newFakeSources() *fakeSources {
	return &fakeSources{
		records:     map[string]leave.LeaveRecordSet{},
		summaries:   map[string][]leave.LeaveSummary{},
		recordGate:  map[string]chan struct{}{},
		summaryGate: map[string]chan struct{}{},
	}
}

func (f *fakeSources) GetEmployeeLeaveInfo(ctx context.Context, employeeID string) (leave.LeaveRecordSet, error) {
	f.mu.Lock()
	f.recordCalls++
	gate := f.recordGate[employeeID]
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.recordErr != nil {
		return leave.LeaveRecordSet{}, f.recordErr
	}
	return f.records[employeeID], nil
}

func (f *fakeSources) GetEmployeeLeaveTypeSummary(ctx context.Context, employeeID string) ([]leave.LeaveSummary, error) {
	f.mu.Lock()
	f.summaryCalls++
	gate := f.summaryGate[employeeID]
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.summaryErr != nil {
		return nil, f.summaryErr
	}
	return append([]leave.LeaveSummary(nil), f.summaries[employeeID]...), nil
}

func (f *fakeSources) calls() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.recordCalls, f.summaryCalls
}

type recordingNavigator struct {
	mu   sync.Mutex
	refs []PageReference
}

func (n *recordingNavigator) Navigate(ctx context.Context, ref PageReference) {
	n.mu.Lock()
	n.refs = append(n.refs, ref)
	n.mu.Unlock()
}

type recordingNotifier struct {
	mu     sync.Mutex
	toasts []Toast
	err    error
}

func (n *recordingNotifier) Notify(ctx context.Context, toast Toast) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.toasts = append(n.toasts, toast)
	return n.err
}
