package main

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockforecast/internal/artifact"
	"stockforecast/internal/features"
	"stockforecast/internal/learn"
	"stockforecast/internal/model"
)

type fakeTarget struct {
	mu     sync.Mutex
	cur    *artifact.Artifact
	sets   int
	reject error
}

func (f *fakeTarget) Model() *artifact.Artifact {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cur
}

func (f *fakeTarget) SetModel(a *artifact.Artifact) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.reject != nil {
		return f.reject
	}
	f.cur = a
	f.sets++
	return nil
}

func (f *fakeTarget) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sets
}

func trained(t *testing.T, at time.Time) *artifact.Artifact {
	t.Helper()
	rng := rand.New(rand.NewSource(7))
	prices := make([]model.PricePoint, 200)
	for i := range prices {
		prices[i] = model.PricePoint{
			Time:  time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i),
			Close: 50 + 0.2*float64(i) + rng.NormFloat64(),
		}
	}
	tr := learn.NewTrainer()
	tr.Learners = []learn.Learner{learn.NewRidge(1)}
	tr.Folds = 3
	res, err := tr.Train(context.Background(), features.Build(prices, true))
	require.NoError(t, err)
	a, err := artifact.New(res, at)
	require.NoError(t, err)
	return a
}

func newReloader(t *testing.T) (*reloader, *artifact.FileStore, *fakeTarget) {
	t.Helper()
	fs := artifact.NewFileStore(filepath.Join(t.TempDir(), "model.json"))
	target := &fakeTarget{}
	return &reloader{store: fs, target: target, log: slog.Default()}, fs, target
}

func TestReload_MissingArtifact(t *testing.T) {
	r, _, target := newReloader(t)
	changed, err := r.reload(context.Background())
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Nil(t, target.Model())
}

func TestReload_SwapsOnlyOnNewTrainedAt(t *testing.T) {
	r, fs, target := newReloader(t)
	ctx := context.Background()
	first := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, fs.Save(ctx, trained(t, first)))
	changed, err := r.reload(ctx)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = r.reload(ctx)
	require.NoError(t, err)
	assert.False(t, changed, "same artifact is not reinstalled")

	require.NoError(t, fs.Save(ctx, trained(t, first.Add(time.Hour))))
	changed, err = r.reload(ctx)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, 2, target.count())
	assert.True(t, target.Model().TrainedAt.Equal(first.Add(time.Hour)))
}

func TestReload_RejectedKeepsCurrent(t *testing.T) {
	r, fs, target := newReloader(t)
	ctx := context.Background()
	require.NoError(t, fs.Save(ctx, trained(t, time.Now())))

	target.reject = errors.New("schema mismatch")
	_, err := r.reload(ctx)
	require.Error(t, err)
	assert.Nil(t, target.Model())
}

func TestRun_ReloadsOnNotify(t *testing.T) {
	r, fs, target := newReloader(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	notify := make(chan string, 1)
	done := make(chan struct{})
	go func() {
		r.run(ctx, time.Hour, notify)
		close(done)
	}()

	require.NoError(t, fs.Save(ctx, trained(t, time.Now())))
	notify <- "updated"
	assert.Eventually(t, func() bool { return target.count() == 1 }, 2*time.Second, 10*time.Millisecond)

	close(notify)
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("run did not stop after cancel")
	}
}
