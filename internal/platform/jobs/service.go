package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"ptoinfo/internal/platform/querier"
)

const JobSessionSweep = "pto_session_sweep"

const (
	statusRunning   = "running"
	statusCompleted = "completed"
	statusFailed    = "failed"
)

type RunFunc func(context.Context) (any, error)

type task struct {
	name string
	run  RunFunc
}

type periodic struct {
	task
	every time.Duration
	busy  *atomic.Bool
}

// Service executes maintenance tasks one at a time. Every run is recorded in
// job_runs when DB is set.
type Service struct {
	DB       querier.Querier
	pending  chan task
	periodic []periodic
}

func New(db querier.Querier) *Service {
	return &Service{DB: db, pending: make(chan task, 64)}
}

// Every schedules run once per interval after Start. Non positive intervals
// are ignored.
func (s *Service) Every(name string, interval time.Duration, run RunFunc) {
	if interval > 0 {
		s.periodic = append(s.periodic, periodic{task: task{name: name, run: run}, every: interval, busy: new(atomic.Bool)})
	}
}

func (s *Service) Start(ctx context.Context) {
	go s.drain(ctx)
	for _, p := range s.periodic {
		go s.tick(ctx, p)
	}
}

// Run executes a task inline and records it.
func (s *Service) Run(ctx context.Context, name string, run RunFunc) (any, error) {
	return s.execute(ctx, task{name: name, run: run})
}

func (s *Service) tick(ctx context.Context, p periodic) {
	ticker := time.NewTicker(p.every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.enqueue(p)
		}
	}
}

// enqueue queues one run of p unless its previous run is still queued or
// running, in which case the tick is skipped.
func (s *Service) enqueue(p periodic) bool {
	if !p.busy.CompareAndSwap(false, true) {
		slog.Debug("job still running, tick skipped", "job", p.name)
		return false
	}
	run := func(ctx context.Context) (any, error) {
		defer p.busy.Store(false)
		return p.run(ctx)
	}
	select {
	case s.pending <- task{name: p.name, run: run}:
		return true
	default:
		p.busy.Store(false)
		slog.Warn("job queue full", "job", p.name)
		return false
	}
}

func (s *Service) drain(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case t := <-s.pending:
			if _, err := s.execute(ctx, t); err != nil {
				slog.Warn("job failed", "job", t.name, "err", err)
			}
		}
	}
}

func (s *Service) execute(ctx context.Context, t task) (any, error) {
	runID, err := s.begin(ctx, t.name)
	if err != nil {
		slog.Warn("job run not recorded", "job", t.name, "err", err)
	}

	details, runErr := t.run(ctx)
	if runID != "" {
		if err := s.finish(ctx, runID, details, runErr); err != nil {
			slog.Warn("job run not finalised", "job", t.name, "err", err)
		}
	}
	return details, runErr
}

func (s *Service) begin(ctx context.Context, name string) (string, error) {
	if s.DB == nil {
		return "", nil
	}
	var id string
	err := s.DB.QueryRow(ctx, "INSERT INTO job_runs (job_type, status) VALUES ($1, $2) RETURNING id", name, statusRunning).Scan(&id)
	if err != nil {
		return "", goerr.Wrap(err, "failed to insert job run", goerr.V("job", name))
	}
	return id, nil
}

func (s *Service) finish(ctx context.Context, runID string, details any, runErr error) error {
	status := statusCompleted
	if runErr != nil {
		status = statusFailed
		details = map[string]string{"error": runErr.Error()}
	}
	payload, err := json.Marshal(details)
	if err != nil {
		payload = []byte("{}")
	}
	if _, err := s.DB.Exec(ctx, "UPDATE job_runs SET status = $1, details_json = $2, completed_at = now() WHERE id = $3", status, payload, runID); err != nil {
		return goerr.Wrap(err, "failed to update job run", goerr.V("runId", runID))
	}
	return nil
}
