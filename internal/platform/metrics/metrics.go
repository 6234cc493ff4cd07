package metrics

import (
	"sync/atomic"
	"time"
)

type Collector struct {
	totalRequests   uint64
	errorRequests   uint64
	rateLimited     uint64
	totalDurationMs uint64

	recordLoads     loadCounters
	summaryLoads    loadCounters
	sessionsSwept   uint64
	toastsDelivered uint64
}

type loadCounters struct {
	total      uint64
	failed     uint64
	durationMs uint64
}

func (l *loadCounters) record(err error, d time.Duration) {
	atomic.AddUint64(&l.total, 1)
	if err != nil {
		atomic.AddUint64(&l.failed, 1)
	}
	atomic.AddUint64(&l.durationMs, uint64(d.Milliseconds()))
}

func (l *loadCounters) snapshot() map[string]any {
	total := atomic.LoadUint64(&l.total)
	totalMs := atomic.LoadUint64(&l.durationMs)
	avg := float64(0)
	if total > 0 {
		avg = float64(totalMs) / float64(total)
	}
	return map[string]any{
		"total":         total,
		"failed":        atomic.LoadUint64(&l.failed),
		"avgDurationMs": avg,
	}
}

func New() *Collector {
	return &Collector{}
}

func (c *Collector) Record(status int, duration time.Duration) {
	atomic.AddUint64(&c.totalRequests, 1)
	if status >= 500 {
		atomic.AddUint64(&c.errorRequests, 1)
	}
	if status == 429 {
		atomic.AddUint64(&c.rateLimited, 1)
	}
	atomic.AddUint64(&c.totalDurationMs, uint64(duration.Milliseconds()))
}

// RecordLoad counts one PTO data load. source is "leave_records" or
// "leave_summaries"; anything else is ignored.
func (c *Collector) RecordLoad(source string, err error, duration time.Duration) {
	switch source {
	case "leave_records":
		c.recordLoads.record(err, duration)
	case "leave_summaries":
		c.summaryLoads.record(err, duration)
	}
}

func (c *Collector) RecordSweep(removed int) {
	if removed > 0 {
		atomic.AddUint64(&c.sessionsSwept, uint64(removed))
	}
}

func (c *Collector) RecordToast() {
	atomic.AddUint64(&c.toastsDelivered, 1)
}

func (c *Collector) Snapshot() map[string]any {
	total := atomic.LoadUint64(&c.totalRequests)
	errs := atomic.LoadUint64(&c.errorRequests)
	limited := atomic.LoadUint64(&c.rateLimited)
	totalMs := atomic.LoadUint64(&c.totalDurationMs)
	avg := float64(0)
	if total > 0 {
		avg = float64(totalMs) / float64(total)
	}
	return map[string]any{
		"requestsTotal":        total,
		"errorsTotal":          errs,
		"rateLimitedTotal":     limited,
		"avgDurationMs":        avg,
		"totalDurationMs":      totalMs,
		"leaveRecordLoads":     c.recordLoads.snapshot(),
		"leaveSummaryLoads":    c.summaryLoads.snapshot(),
		"sessionsSweptTotal":   atomic.LoadUint64(&c.sessionsSwept),
		"toastsDeliveredTotal": atomic.LoadUint64(&c.toastsDelivered),
	}
}
