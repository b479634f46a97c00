package main

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"stockforecast/internal/artifact"
)

type modelSetter interface {
	Model() *artifact.Artifact
	SetModel(a *artifact.Artifact) error
}

// reloader swaps the serving model whenever the stored artifact changes.
type reloader struct {
	store  artifact.Store
	target modelSetter
	log    *slog.Logger
}

// reload loads the stored artifact and installs it when its trained_at
// differs from the serving one. A missing artifact is not an error.
func (r *reloader) reload(ctx context.Context) (bool, error) {
	a, err := r.store.Load(ctx)
	if errors.Is(err, artifact.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if cur := r.target.Model(); cur != nil && cur.TrainedAt.Equal(a.TrainedAt) {
		return false, nil
	}
	if err := r.target.SetModel(a); err != nil {
		return false, err
	}
	return true, nil
}

// run polls every interval and additionally on each value from notify
// (which may be nil) until ctx is done.
func (r *reloader) run(ctx context.Context, interval time.Duration, notify <-chan string) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-notify:
			if !ok {
				notify = nil
				continue
			}
		case <-ticker.C:
		}
		changed, err := r.reload(ctx)
		if err != nil {
			r.log.Warn("model reload failed; keeping current model",
				slog.String("store", r.store.Location()),
				slog.String("error", err.Error()),
			)
			continue
		}
		if changed {
			r.log.Info("model reloaded", slog.String("store", r.store.Location()))
		}
	}
}
