package auth

import (
	"context"
	"time"
)

// Reaper periodically deletes expired and revoked session rows. It runs
// independently of request traffic and relies on the store's atomic
// delete, so it never blocks or is blocked by concurrent session
// operations.
type Reaper struct {
	sessions Sessions
	interval time.Duration
	logger   Logger
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewReaper returns a Reaper sweeping at the given interval.
func NewReaper(sessions Sessions, interval time.Duration) *Reaper {
	return &Reaper{
		sessions: sessions,
		interval: interval,
		logger:   defLogger{},
	}
}

func (r *Reaper) WithLogger(logger Logger) *Reaper {
	r.logger = logger
	return r
}

// Start launches the sweep loop. It stops when Stop is called or the
// given context is cancelled.
func (r *Reaper) Start(ctx context.Context) {
	ctx, r.cancel = context.WithCancel(ctx)
	r.done = make(chan struct{})

	go func() {
		defer close(r.done)

		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := r.RunOnce(ctx); err != nil && ctx.Err() == nil {
					r.logger.Error("session sweep error", "error", err)
				}
			}
		}
	}()
}

// Stop cancels the sweep loop and waits for it to exit.
func (r *Reaper) Stop() {
	if r.cancel == nil {
		return
	}
	r.cancel()
	<-r.done
}

// RunOnce performs a single sweep and logs the removed count.
func (r *Reaper) RunOnce(ctx context.Context) (int64, error) {
	count, err := r.sessions.Sweep(ctx)
	if err != nil {
		return 0, err
	}

	r.logger.Info("cleaned expired sessions", "count", count)

	return count, nil
}
