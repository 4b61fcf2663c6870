package mirror

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jende/inventory-service/internal/domain"
)

// Snapshot is a full copy of the primary store contents.
type Snapshot struct {
	Users    []domain.User
	Products []domain.Product
}

// Source reads the current contents of the primary store.
type Source interface {
	SnapshotUsers(ctx context.Context) ([]domain.User, error)
	SnapshotProducts(ctx context.Context) ([]domain.Product, error)
}

// Target replaces the secondary store contents with the snapshot. The
// replace must be all-or-nothing: a failed sync leaves the previous copy
// intact.
type Target interface {
	Replace(ctx context.Context, snap Snapshot) error
}

// Status captures the last observed state of the job.
type Status struct {
	Running   bool       `json:"running"`
	Runs      int64      `json:"runs"`
	LastRun   *time.Time `json:"last_run,omitempty"`
	LastError string     `json:"last_error,omitempty"`
}

// Job periodically mirrors the primary store into the secondary one. Tick
// errors are logged and recorded, never propagated; the next tick retries
// from scratch.
type Job struct {
	source   Source
	target   Target
	interval time.Duration
	logger   *zap.Logger

	mu      sync.Mutex
	running bool
	runs    int64
	lastRun time.Time
	lastErr error

	stop chan struct{}
	done chan struct{}
}

// NewJob constructs the mirror job.
func NewJob(source Source, target Target, interval time.Duration, logger *zap.Logger) *Job {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Job{
		source:   source,
		target:   target,
		interval: interval,
		logger:   logger,
	}
}

// Start launches the tick loop. Calling Start on a running job is a no-op.
func (j *Job) Start(ctx context.Context) {
	j.mu.Lock()
	if j.running {
		j.mu.Unlock()
		return
	}
	j.running = true
	j.stop = make(chan struct{})
	j.done = make(chan struct{})
	j.mu.Unlock()

	go j.run(ctx)
}

// Stop halts the tick loop and waits for an in-flight sync to finish.
func (j *Job) Stop() {
	j.mu.Lock()
	if !j.running {
		j.mu.Unlock()
		return
	}
	stop, done := j.stop, j.done
	j.mu.Unlock()

	close(stop)
	<-done

	j.mu.Lock()
	j.running = false
	j.mu.Unlock()
}

func (j *Job) run(ctx context.Context) {
	defer close(j.done)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.logger.Info("mirror job started", zap.Duration("interval", j.interval))
	for {
		select {
		case <-ticker.C:
			if err := j.RunOnce(ctx); err != nil {
				j.logger.Error("mirror sync failed", zap.Error(err))
			}
		case <-j.stop:
			j.logger.Info("mirror job stopped")
			return
		case <-ctx.Done():
			j.logger.Info("mirror job context cancelled")
			return
		}
	}
}

// RunOnce performs a single sync and records the outcome.
func (j *Job) RunOnce(ctx context.Context) error {
	err := j.sync(ctx)

	j.mu.Lock()
	j.runs++
	j.lastRun = time.Now()
	j.lastErr = err
	j.mu.Unlock()

	return err
}

func (j *Job) sync(ctx context.Context) error {
	users, err := j.source.SnapshotUsers(ctx)
	if err != nil {
		return err
	}
	products, err := j.source.SnapshotProducts(ctx)
	if err != nil {
		return err
	}

	snap := Snapshot{Users: users, Products: products}
	if err := j.target.Replace(ctx, snap); err != nil {
		return err
	}

	j.logger.Info("mirror sync completed",
		zap.Int("users", len(users)),
		zap.Int("products", len(products)),
	)
	return nil
}

// Status reports the job's last observed state.
func (j *Job) Status() Status {
	j.mu.Lock()
	defer j.mu.Unlock()

	st := Status{Running: j.running, Runs: j.runs}
	if !j.lastRun.IsZero() {
		t := j.lastRun
		st.LastRun = &t
	}
	if j.lastErr != nil {
		st.LastError = j.lastErr.Error()
	}
	return st
}
