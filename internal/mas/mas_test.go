package mas

import (
	"context"
	stdErrors "errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"OxyGent-Console/internal/events"
	"OxyGent-Console/internal/executor"
	"OxyGent-Console/internal/registry"
)

type recordingExecutor struct {
	*executor.Mock
	mu      sync.Mutex
	started []string
	stopped []string
}

func (r *recordingExecutor) StartMAS(ctx context.Context, target executor.Target) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started = append(r.started, target.ID)
	return nil
}

func (r *recordingExecutor) StopMAS(ctx context.Context, target executor.Target) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopped = append(r.stopped, target.ID)
	return nil
}

func newInstance(t *testing.T, svc *Service, name string) Instance {
	t.Helper()
	rec, err := svc.Create(context.Background(), CreateRequest{Name: name, OxySpace: []map[string]any{{"name": "master"}}})
	require.NoError(t, err)
	return rec
}

func TestCreateStartsInactive(t *testing.T) {
	svc := NewService(nil, nil, time.Second)
	rec := newInstance(t, svc, "m1")
	assert.Equal(t, StatusInactive, rec.Status)

	_, err := svc.Create(context.Background(), CreateRequest{Name: "m2"})
	assert.True(t, stdErrors.Is(err, registry.ErrValidation))
}

func TestStartStopAreIdempotent(t *testing.T) {
	exec := &recordingExecutor{Mock: executor.NewMock()}
	svc := NewService(nil, exec, time.Second)
	ctx := context.Background()
	rec := newInstance(t, svc, "m1")

	started, err := svc.Start(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusActive, started.Status)

	again, err := svc.Start(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusActive, again.Status)
	assert.Equal(t, []string{rec.ID}, exec.started)

	stopped, err := svc.Stop(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusInactive, stopped.Status)
	_, err = svc.Stop(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{rec.ID}, exec.stopped)

	_, err = svc.Start(ctx, "404")
	assert.True(t, stdErrors.Is(err, registry.ErrNotFound))
}

func TestQueryRequiresActiveInstance(t *testing.T) {
	svc := NewService(nil, nil, time.Second)
	ctx := context.Background()
	rec := newInstance(t, svc, "m1")

	_, err := svc.Query(ctx, rec.ID, "hello")
	require.Error(t, err)
	assert.True(t, stdErrors.Is(err, registry.ErrPrecondition))
	assert.Contains(t, err.Error(), "MAS instance with ID '1' is not active")

	_, err = svc.Start(ctx, rec.ID)
	require.NoError(t, err)

	res, err := svc.Query(ctx, rec.ID, "hello")
	require.NoError(t, err)
	assert.Equal(t, rec.ID, res.MASID)
	assert.Equal(t, "hello", res.Query)
	assert.True(t, strings.Contains(res.Response, "mock query response"))

	_, err = svc.Query(ctx, rec.ID, " ")
	assert.True(t, stdErrors.Is(err, registry.ErrValidation))

	_, err = svc.Query(ctx, "404", "hello")
	assert.True(t, stdErrors.Is(err, registry.ErrNotFound))
}

func TestDeleteStopsActiveInstance(t *testing.T) {
	exec := &recordingExecutor{Mock: executor.NewMock()}
	svc := NewService(nil, exec, time.Second)
	ctx := context.Background()
	rec := newInstance(t, svc, "m1")
	_, err := svc.Start(ctx, rec.ID)
	require.NoError(t, err)

	n, err := svc.ActiveCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, svc.Delete(ctx, rec.ID))
	assert.Equal(t, []string{rec.ID}, exec.stopped)

	_, err = svc.Get(ctx, rec.ID)
	assert.True(t, stdErrors.Is(err, registry.ErrNotFound))
	assert.True(t, stdErrors.Is(svc.Delete(ctx, rec.ID), registry.ErrNotFound))
}

func TestStartPublishesEvent(t *testing.T) {
	bus := events.NewMemoryBus(8)
	defer bus.Close()
	svc := NewService(nil, nil, time.Second, registry.WithPublisher(bus))
	ctx := context.Background()
	rec := newInstance(t, svc, "m1")
	_, err := svc.Start(ctx, rec.ID)
	require.NoError(t, err)
	_, err = svc.Start(ctx, rec.ID)
	require.NoError(t, err)
	require.NoError(t, bus.Close())

	var actions []events.Action
	consumeCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	_ = bus.Consume(consumeCtx, 1, func(_ context.Context, e events.Event) error {
		actions = append(actions, e.Action)
		return nil
	})
	assert.Equal(t, []events.Action{events.ActionCreated, events.ActionStarted}, actions)
}

type gatedExecutor struct {
	*executor.Mock
	entered chan struct{}
	release chan struct{}
}

func (g *gatedExecutor) StartMAS(ctx context.Context, _ executor.Target) error {
	close(g.entered)
	select {
	case <-g.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func TestSlowStartDoesNotBlockOtherInstances(t *testing.T) {
	exec := &gatedExecutor{Mock: executor.NewMock(), entered: make(chan struct{}), release: make(chan struct{})}
	svc := NewService(nil, exec, 5*time.Second)
	ctx := context.Background()
	slow := newInstance(t, svc, "slow")
	other := newInstance(t, svc, "other")

	started := make(chan error, 1)
	go func() {
		_, err := svc.Start(ctx, slow.ID)
		started <- err
	}()
	<-exec.entered

	done := make(chan error, 1)
	go func() {
		name := "renamed"
		if _, err := svc.Update(ctx, other.ID, UpdateRequest{Name: &name}); err != nil {
			done <- err
			return
		}
		done <- svc.Delete(ctx, other.ID)
	}()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("update and delete waited for another instance's start")
	}

	close(exec.release)
	require.NoError(t, <-started)
	got, err := svc.Get(ctx, slow.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusActive, got.Status)
}
