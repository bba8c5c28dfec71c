package registry

import (
	"context"
	stdErrors "errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	xerrors "OxyGent-Console/internal/errors"
	"OxyGent-Console/internal/events"
)

type widget struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Kind   string         `json:"kind"`
	Note   string         `json:"note"`
	Tags   []string       `json:"tags"`
	Config map[string]any `json:"config"`
	Status string         `json:"status"`
}

func (w widget) ResourceID() string   { return w.ID }
func (w widget) ResourceName() string { return w.Name }
func (w widget) Clone() widget {
	w.Tags = CloneStrings(w.Tags)
	w.Config = CloneMap(w.Config)
	return w
}

type widgetCreate struct {
	Name   string
	Kind   string
	Note   string
	Tags   []string
	Config map[string]any
}

type widgetUpdate struct {
	Name   *string
	Note   *string
	Tags   []string
	Config map[string]any
}

var widgetKinds = Enum{"small", "large"}

func widgetKind() Kind[widget, widgetCreate, widgetUpdate] {
	return Kind[widget, widgetCreate, widgetUpdate]{
		Name:   "Widget",
		Key:    "widgets",
		NameOf: func(in widgetCreate) string { return in.Name },
		Validate: func(in widgetCreate) error {
			if !widgetKinds.Contains(in.Kind) {
				return Validation("Invalid widget kind. Must be one of: %s", widgetKinds)
			}
			return nil
		},
		Build: func(id string, in widgetCreate) widget {
			return widget{ID: id, Name: in.Name, Kind: in.Kind, Note: in.Note,
				Tags: CloneStrings(in.Tags), Config: CloneMap(in.Config), Status: "active"}
		},
		Patch: func(rec *widget, in widgetUpdate) {
			if in.Name != nil {
				rec.Name = *in.Name
			}
			if in.Note != nil {
				rec.Note = *in.Note
			}
			if in.Tags != nil {
				rec.Tags = CloneStrings(in.Tags)
			}
			if in.Config != nil {
				rec.Config = CloneMap(in.Config)
			}
		},
	}
}

func strPtr(s string) *string { return &s }

func newWidgets(t *testing.T, opts ...Option) *Registry[widget, widgetCreate, widgetUpdate] {
	t.Helper()
	return New(widgetKind(), nil, opts...)
}

func TestCreateAssignsSequentialIDsAndDefaults(t *testing.T) {
	ctx := context.Background()
	reg := newWidgets(t)

	first, err := reg.Create(ctx, widgetCreate{Name: "w1", Kind: "small", Tags: []string{"a"}})
	require.NoError(t, err)
	assert.Equal(t, "1", first.ID)
	assert.Equal(t, "active", first.Status)

	second, err := reg.Create(ctx, widgetCreate{Name: "w2", Kind: "LARGE"})
	require.NoError(t, err)
	assert.Equal(t, "2", second.ID)
	assert.Equal(t, "LARGE", second.Kind, "discriminator is stored as supplied")

	got, err := reg.Get(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, first, got)
}

func TestCreateDuplicateNameConflicts(t *testing.T) {
	ctx := context.Background()
	reg := newWidgets(t)

	_, err := reg.Create(ctx, widgetCreate{Name: "dup", Kind: "small"})
	require.NoError(t, err)

	_, err = reg.Create(ctx, widgetCreate{Name: "dup", Kind: "large"})
	require.Error(t, err)
	assert.True(t, stdErrors.Is(err, ErrConflict))
	assert.Contains(t, err.Error(), "Widget with name 'dup' already exists")

	n, err := reg.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// 冲突不消耗 ID。
	next, err := reg.Create(ctx, widgetCreate{Name: "other", Kind: "small"})
	require.NoError(t, err)
	assert.Equal(t, "2", next.ID)
}

func TestCreateReportsConflictBeforeValidation(t *testing.T) {
	ctx := context.Background()
	reg := newWidgets(t)

	_, err := reg.Create(ctx, widgetCreate{Name: "dup", Kind: "small"})
	require.NoError(t, err)

	_, err = reg.Create(ctx, widgetCreate{Name: "dup", Kind: "bogus"})
	require.Error(t, err)
	assert.Equal(t, xerrors.CodeConflict, xerrors.CodeOf(err))
	assert.Contains(t, err.Error(), "Widget with name 'dup' already exists")
}

func TestCreateRejectsBlankName(t *testing.T) {
	ctx := context.Background()
	reg := newWidgets(t)

	for _, name := range []string{"", "   "} {
		_, err := reg.Create(ctx, widgetCreate{Name: name, Kind: "small"})
		require.Error(t, err)
		assert.True(t, stdErrors.Is(err, ErrValidation))
		assert.Contains(t, err.Error(), "Widget name is required")
	}
	n, err := reg.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCreateValidation(t *testing.T) {
	ctx := context.Background()
	reg := newWidgets(t)

	_, err := reg.Create(ctx, widgetCreate{Name: "w", Kind: "medium"})
	require.Error(t, err)
	assert.Equal(t, xerrors.CodeInvalidArgument, xerrors.CodeOf(err))
	assert.Contains(t, err.Error(), "small, large")

	_, err = reg.Create(ctx, widgetCreate{Name: "  ", Kind: "small"})
	assert.True(t, stdErrors.Is(err, ErrValidation))

	n, err := reg.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestUpdateMergesOnlyProvidedFields(t *testing.T) {
	ctx := context.Background()
	reg := newWidgets(t)

	created, err := reg.Create(ctx, widgetCreate{
		Name: "w", Kind: "small", Note: "orig", Tags: []string{"x"}, Config: map[string]any{"k": "v"},
	})
	require.NoError(t, err)

	updated, err := reg.Update(ctx, created.ID, widgetUpdate{Note: strPtr("changed")})
	require.NoError(t, err)

	want := created
	want.Note = "changed"
	assert.Equal(t, want, updated)

	unchanged, err := reg.Update(ctx, created.ID, widgetUpdate{})
	require.NoError(t, err)
	assert.Equal(t, want, unchanged)

	stored, err := reg.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, want, stored)
}

func TestUpdateAllowsRenameToExistingName(t *testing.T) {
	ctx := context.Background()
	reg := newWidgets(t)

	_, err := reg.Create(ctx, widgetCreate{Name: "a", Kind: "small"})
	require.NoError(t, err)
	b, err := reg.Create(ctx, widgetCreate{Name: "b", Kind: "small"})
	require.NoError(t, err)

	renamed, err := reg.Update(ctx, b.ID, widgetUpdate{Name: strPtr("a")})
	require.NoError(t, err)
	assert.Equal(t, "a", renamed.Name)

	_, err = reg.Create(ctx, widgetCreate{Name: "a", Kind: "small"})
	assert.True(t, stdErrors.Is(err, ErrConflict))

	// 旧名称释放后可以再次使用。
	_, err = reg.Create(ctx, widgetCreate{Name: "b", Kind: "small"})
	assert.NoError(t, err)
}

func TestGetUpdateDeleteUnknownID(t *testing.T) {
	ctx := context.Background()
	reg := newWidgets(t)

	_, err := reg.Get(ctx, "42")
	assert.True(t, stdErrors.Is(err, ErrNotFound))
	assert.Contains(t, err.Error(), "Widget with ID '42' not found")

	_, err = reg.Update(ctx, "42", widgetUpdate{Note: strPtr("x")})
	assert.True(t, stdErrors.Is(err, ErrNotFound))

	err = reg.Delete(ctx, "42")
	assert.True(t, stdErrors.Is(err, ErrNotFound))
}

func TestDeleteRemovesAndNeverReusesID(t *testing.T) {
	ctx := context.Background()
	reg := newWidgets(t)

	created, err := reg.Create(ctx, widgetCreate{Name: "w", Kind: "small"})
	require.NoError(t, err)
	require.NoError(t, reg.Delete(ctx, created.ID))

	_, err = reg.Get(ctx, created.ID)
	assert.True(t, stdErrors.Is(err, ErrNotFound))

	again, err := reg.Create(ctx, widgetCreate{Name: "w", Kind: "small"})
	require.NoError(t, err)
	assert.Equal(t, "2", again.ID)
}

func TestListKeepsInsertionOrderAndCopies(t *testing.T) {
	ctx := context.Background()
	reg := newWidgets(t)

	for i := 0; i < 3; i++ {
		_, err := reg.Create(ctx, widgetCreate{Name: fmt.Sprintf("w%d", i), Kind: "small", Tags: []string{"t"}})
		require.NoError(t, err)
	}
	require.NoError(t, reg.Delete(ctx, "2"))

	list, err := reg.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "1", list[0].ID)
	assert.Equal(t, "3", list[1].ID)

	list[0].Tags[0] = "mutated"
	stored, err := reg.Get(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "t", stored.Tags[0])
}

func TestMutateAbortsOnError(t *testing.T) {
	ctx := context.Background()
	reg := newWidgets(t)
	created, err := reg.Create(ctx, widgetCreate{Name: "w", Kind: "small"})
	require.NoError(t, err)

	_, err = reg.Mutate(ctx, created.ID, events.ActionStarted, func(rec *widget) error {
		rec.Status = "broken"
		return Precondition("nope")
	})
	assert.True(t, stdErrors.Is(err, ErrPrecondition))

	stored, err := reg.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "active", stored.Status)

	n, err := reg.CountWhere(ctx, func(w widget) bool { return w.Status == "active" })
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestConcurrentCreateSameNameOnlyOneWins(t *testing.T) {
	ctx := context.Background()
	reg := newWidgets(t)

	const workers = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := reg.Create(ctx, widgetCreate{Name: "race", Kind: "small"}); err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	n, err := reg.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRegistryPublishesLifecycleEvents(t *testing.T) {
	ctx := context.Background()
	bus := events.NewMemoryBus(8)
	defer bus.Close()
	reg := newWidgets(t, WithPublisher(bus), WithIDGenerator(UUIDs{}))

	created, err := reg.Create(ctx, widgetCreate{Name: "w", Kind: "small"})
	require.NoError(t, err)
	assert.Len(t, created.ID, 36)

	_, err = reg.Update(ctx, created.ID, widgetUpdate{Note: strPtr("n")})
	require.NoError(t, err)
	require.NoError(t, reg.Delete(ctx, created.ID))

	var got []events.Action
	consumeCtx, cancel := context.WithCancel(ctx)
	go func() {
		_ = bus.Consume(consumeCtx, 1, func(_ context.Context, e events.Event) error {
			assert.Equal(t, "widgets", e.Kind)
			assert.Equal(t, created.ID, e.ResourceID)
			got = append(got, e.Action)
			if len(got) == 3 {
				cancel()
			}
			return nil
		})
	}()
	<-consumeCtx.Done()
	assert.Equal(t, []events.Action{events.ActionCreated, events.ActionUpdated, events.ActionDeleted}, got)
}

func TestFullEventBufferDoesNotStallOtherOperations(t *testing.T) {
	ctx := context.Background()
	bus := events.NewMemoryBus(1)
	defer bus.Close()
	reg := newWidgets(t, WithPublisher(bus))

	_, err := reg.Create(ctx, widgetCreate{Name: "a", Kind: "small"})
	require.NoError(t, err)
	// 缓冲区已满，后续事件被丢弃，操作本身仍然成功。
	_, err = reg.Create(ctx, widgetCreate{Name: "b", Kind: "small"})
	require.NoError(t, err)

	deleted := make(chan error, 1)
	go func() { deleted <- reg.Delete(ctx, "1") }()

	updated := make(chan error, 1)
	go func() {
		_, err := reg.Update(ctx, "2", widgetUpdate{Name: strPtr("b2")})
		updated <- err
	}()

	for name, ch := range map[string]chan error{"delete": deleted, "update": updated} {
		select {
		case err := <-ch:
			require.NoError(t, err, name)
		case <-time.After(time.Second):
			t.Fatalf("%s blocked while the event buffer was full", name)
		}
	}

	got, err := reg.Get(ctx, "2")
	require.NoError(t, err)
	assert.Equal(t, "b2", got.Name)
	_, err = reg.Get(ctx, "1")
	assert.True(t, stdErrors.Is(err, ErrNotFound))
}
