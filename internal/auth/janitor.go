// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"context"
	"sync"
	"time"

	"github.com/samber/oops"
)

// SweepRecorder is implemented by a Recorder that also wants the row counts
// of each successful background sweep.
type SweepRecorder interface {
	RecordSweep(sessions, refreshTokens int64)
}

// Janitor periodically removes expired sessions and refresh tokens.
// Resolution never depends on it: expired rows are rejected regardless.
type Janitor struct {
	uows     UnitOfWorkFactory
	interval time.Duration
	opts     options

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewJanitor creates a Janitor sweeping every interval.
func NewJanitor(uows UnitOfWorkFactory, interval time.Duration, opts ...Option) (*Janitor, error) {
	if uows == nil {
		return nil, oops.Code("JANITOR_INVALID").Errorf("unit of work factory is required")
	}
	if interval <= 0 {
		return nil, oops.Code("JANITOR_INVALID").With("interval", interval).Errorf("interval must be positive")
	}
	return &Janitor{uows: uows, interval: interval, opts: applyOptions(opts)}, nil
}

// SweepOnce deletes rows that expired at or before now in one unit of work
// and returns the number of sessions and refresh tokens removed.
func (j *Janitor) SweepOnce(ctx context.Context) (sessions, refreshTokens int64, err error) {
	uow, release, err := begin(ctx, j.uows)
	if err != nil {
		return 0, 0, oops.Code("SWEEP_FAILED").With("operation", "begin").Wrap(err)
	}
	defer release()

	now := j.opts.now()
	sessions, err = uow.Sessions().DeleteExpired(ctx, now)
	if err != nil {
		return 0, 0, oops.Code("SWEEP_FAILED").With("operation", "delete expired sessions").Wrap(err)
	}
	refreshTokens, err = uow.RefreshTokens().DeleteExpired(ctx, now)
	if err != nil {
		return 0, 0, oops.Code("SWEEP_FAILED").With("operation", "delete expired refresh tokens").Wrap(err)
	}
	if err := uow.Commit(ctx); err != nil {
		return 0, 0, oops.Code("SWEEP_FAILED").With("operation", "commit").Wrap(err)
	}
	return sessions, refreshTokens, nil
}

// Start begins sweeping in the background until Stop or ctx is cancelled.
func (j *Janitor) Start(ctx context.Context) {
	ctx, j.cancel = context.WithCancel(ctx)
	j.wg.Add(1)
	go j.run(ctx)
}

// Stop halts the background sweep and waits for it to exit.
func (j *Janitor) Stop() {
	if j.cancel != nil {
		j.cancel()
	}
	j.wg.Wait()
}

func (j *Janitor) run(ctx context.Context) {
	defer j.wg.Done()

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.sweep(ctx)
		}
	}
}

func (j *Janitor) sweep(ctx context.Context) {
	sessions, tokens, err := j.SweepOnce(ctx)
	if err != nil {
		if ctx.Err() == nil {
			j.opts.logger.ErrorContext(ctx, "expired credential sweep failed", "error", err)
		}
		return
	}
	if r, ok := j.opts.recorder.(SweepRecorder); ok {
		r.RecordSweep(sessions, tokens)
	}
	if sessions > 0 || tokens > 0 {
		j.opts.logger.InfoContext(ctx, "swept expired credentials",
			"sessions", sessions,
			"refresh_tokens", tokens)
	}
}
