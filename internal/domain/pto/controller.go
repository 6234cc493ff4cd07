package pto

import (
	"context"
	"sync"
	"time"

	"ptoinfo/internal/domain/leave"
	"ptoinfo/internal/requestctx"
)

const DefaultLoadTimeout = 10 * time.Second

type LeaveInfoSource interface {
	GetEmployeeLeaveInfo(ctx context.Context, employeeID string) (leave.LeaveRecordSet, error)
}

type LeaveSummarySource interface {
	GetEmployeeLeaveTypeSummary(ctx context.Context, employeeID string) ([]leave.LeaveSummary, error)
}

// Navigator asks the host to show a page.
type Navigator interface {
	Navigate(ctx context.Context, ref PageReference)
}

// Notifier shows a toast through the host.
type Notifier interface {
	Notify(ctx context.Context, toast Toast) error
}

// LoadObserver is called once per finished load, stale or not.
type LoadObserver func(source string, err error, elapsed time.Duration)

type Option func(*Controller)

func WithLoadTimeout(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.loadTimeout = d
		}
	}
}

func WithNavigator(n Navigator) Option {
	return func(c *Controller) { c.navigator = n }
}

func WithNotifier(n Notifier) Option {
	return func(c *Controller) { c.notifier = n }
}

func WithLoadObserver(fn LoadObserver) Option {
	return func(c *Controller) { c.observe = fn }
}

// Controller holds the state of one PTO view for one employee. Loads run
// against the two leave sources; results that belong to an older employee
// id are discarded.
type Controller struct {
	info        LeaveInfoSource
	summaries   LeaveSummarySource
	navigator   Navigator
	notifier    Notifier
	observe     LoadObserver
	loadTimeout time.Duration

	mu         sync.Mutex
	employeeID string
	records    *leave.LeaveRecordSet
	display    []DisplaySummary
	err        *LoadError
	loading    bool
	modalOpen  bool
	generation uint64
	inFlight   int
	idle       chan struct{}
}

func NewController(info LeaveInfoSource, summaries LeaveSummarySource, opts ...Option) *Controller {
	idle := make(chan struct{})
	close(idle)
	c := &Controller{
		info:        info,
		summaries:   summaries,
		loadTimeout: DefaultLoadTimeout,
		loading:     true,
		idle:        idle,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Initialize sets the employee and starts both loads in the background. An
// empty id is stored but triggers nothing. Wait blocks until the loads end.
func (c *Controller) Initialize(ctx context.Context, employeeID string) {
	c.mu.Lock()
	c.employeeID = employeeID
	if employeeID == "" {
		c.mu.Unlock()
		return
	}
	c.generation++
	gen := c.generation
	c.beginLocked(2)
	c.mu.Unlock()

	base := context.WithoutCancel(ctx)
	go c.fetchRecords(base, employeeID, gen)
	go c.fetchSummaries(base, employeeID, gen)
}

// LoadLeaveRecords reloads the leave history of the current employee.
func (c *Controller) LoadLeaveRecords(ctx context.Context) {
	id, gen, ok := c.begin()
	if !ok {
		return
	}
	c.fetchRecords(ctx, id, gen)
}

// LoadLeaveSummaries reloads the per leave type summaries.
func (c *Controller) LoadLeaveSummaries(ctx context.Context) {
	id, gen, ok := c.begin()
	if !ok {
		return
	}
	c.fetchSummaries(ctx, id, gen)
}

// Refresh reloads records, then summaries.
func (c *Controller) Refresh(ctx context.Context) {
	c.LoadLeaveRecords(ctx)
	c.LoadLeaveSummaries(ctx)
}

// Wait blocks until no load is in flight or ctx is done.
func (c *Controller) Wait(ctx context.Context) error {
	c.mu.Lock()
	idle := c.idle
	c.mu.Unlock()
	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Controller) OpenModal() {
	c.mu.Lock()
	c.modalOpen = true
	c.mu.Unlock()
}

func (c *Controller) CloseModal() {
	c.mu.Lock()
	c.modalOpen = false
	c.mu.Unlock()
}

// SubmitNewLeaveRequest navigates to the new leave request page for the
// current employee and returns the reference it used.
func (c *Controller) SubmitNewLeaveRequest(ctx context.Context) PageReference {
	ref := NewLeaveRequestPage(c.EmployeeID())
	if c.navigator != nil {
		c.navigator.Navigate(ctx, ref)
	}
	return ref
}

// OnLeaveRequestSubmitted is called by the host once its form saved a
// request: the modal closes, a success toast is shown and the data reloads.
func (c *Controller) OnLeaveRequestSubmitted(ctx context.Context) {
	c.CloseModal()
	if c.notifier != nil {
		if err := c.notifier.Notify(ctx, LeaveRequestCreatedToast); err != nil {
			requestctx.Logger(ctx).Warn("toast delivery failed", "employeeId", c.EmployeeID(), "err", err)
		}
	}
	c.Refresh(ctx)
}

func (c *Controller) EmployeeID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.employeeID
}

func (c *Controller) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

func (c *Controller) begin() (string, uint64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.employeeID == "" {
		return "", 0, false
	}
	c.beginLocked(1)
	return c.employeeID, c.generation, true
}

func (c *Controller) beginLocked(n int) {
	if c.inFlight == 0 {
		c.idle = make(chan struct{})
	}
	c.inFlight += n
	c.loading = true
}

func (c *Controller) endLocked() {
	c.inFlight--
	if c.inFlight == 0 {
		c.loading = false
		close(c.idle)
	}
}

func (c *Controller) fetchRecords(ctx context.Context, employeeID string, gen uint64) {
	ctx, cancel := context.WithTimeout(ctx, c.loadTimeout)
	defer cancel()

	start := time.Now()
	set, err := c.info.GetEmployeeLeaveInfo(ctx, employeeID)
	c.observed(SourceLeaveRecords, err, time.Since(start))

	c.mu.Lock()
	defer c.mu.Unlock()
	defer c.endLocked()
	if gen != c.generation {
		return
	}
	if err != nil {
		c.err = newLoadError(SourceLeaveRecords, err)
		c.records = nil
		requestctx.Logger(ctx).Warn("leave records load failed", "employeeId", employeeID, "err", err)
		return
	}
	c.records = &set
	c.err = nil
}

func (c *Controller) fetchSummaries(ctx context.Context, employeeID string, gen uint64) {
	ctx, cancel := context.WithTimeout(ctx, c.loadTimeout)
	defer cancel()

	start := time.Now()
	summaries, err := c.summaries.GetEmployeeLeaveTypeSummary(ctx, employeeID)
	c.observed(SourceLeaveSummaries, err, time.Since(start))

	c.mu.Lock()
	defer c.mu.Unlock()
	defer c.endLocked()
	if gen != c.generation {
		return
	}
	if err != nil {
		c.err = newLoadError(SourceLeaveSummaries, err)
		c.display = nil
		requestctx.Logger(ctx).Warn("leave summaries load failed", "employeeId", employeeID, "err", err)
		return
	}
	c.display = BuildDisplaySummaries(summaries)
	c.err = nil
}

func (c *Controller) observed(source string, err error, elapsed time.Duration) {
	if c.observe != nil {
		c.observe(source, err, elapsed)
	}
}
