package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-flowgate/internal/core/ports"
	"go-flowgate/internal/domain"
)

func TestBlueprintStore_InsertGetList(t *testing.T) {
	ctx := context.Background()
	store := NewBlueprintStore()

	second := domain.DefaultBlueprint()
	second.ID = "a-first"

	require.NoError(t, store.Insert(ctx, domain.DefaultBlueprint()))
	require.NoError(t, store.Insert(ctx, second))

	got, err := store.Get(ctx, domain.DefaultBlueprintID)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultBlueprint(), got)

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "a-first", list[0].ID)
	assert.Equal(t, domain.DefaultBlueprintID, list[1].ID)
}

func TestBlueprintStore_DuplicateInsert(t *testing.T) {
	ctx := context.Background()
	store := NewBlueprintStore()

	require.NoError(t, store.Insert(ctx, domain.DefaultBlueprint()))
	err := store.Insert(ctx, domain.DefaultBlueprint())
	assert.ErrorIs(t, err, domain.ErrDuplicateBlueprintID)
}

func TestBlueprintStore_GetNotFound(t *testing.T) {
	_, err := NewBlueprintStore().Get(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrBlueprintNotFound)
}

func TestBlueprintStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewBlueprintStore()
	require.NoError(t, store.Insert(ctx, domain.DefaultBlueprint()))

	got, err := store.Get(ctx, domain.DefaultBlueprintID)
	require.NoError(t, err)
	got.Actions[0].FromStates[0] = "tampered"
	got.States[0].Name = "tampered"

	again, err := store.Get(ctx, domain.DefaultBlueprintID)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultBlueprint(), again)
}

func TestBlueprintStore_ConcurrentInsertSameID(t *testing.T) {
	ctx := context.Background()
	store := NewBlueprintStore()

	const n = 32
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := store.Insert(ctx, domain.DefaultBlueprint()); err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
}

func TestProcessStore_InsertGetList(t *testing.T) {
	ctx := context.Background()
	store := NewProcessStore()
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	p2 := domain.Instantiate(domain.DefaultBlueprint(), "p-2", t0.Add(time.Minute))
	p1 := domain.Instantiate(domain.DefaultBlueprint(), "p-1", t0)
	other := domain.WorkflowProcess{ID: "p-3", BlueprintID: "other", CurrentStateID: "x", CreatedAt: t0}

	require.NoError(t, store.Insert(ctx, p2))
	require.NoError(t, store.Insert(ctx, p1))
	require.NoError(t, store.Insert(ctx, other))

	got, err := store.Get(ctx, "p-1")
	require.NoError(t, err)
	assert.Equal(t, p1, got)

	all, err := store.List(ctx, ports.ProcessFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"p-1", "p-3", "p-2"}, []string{all[0].ID, all[1].ID, all[2].ID})

	filtered, err := store.List(ctx, ports.ProcessFilter{BlueprintID: domain.DefaultBlueprintID})
	require.NoError(t, err)
	assert.Len(t, filtered, 2)
}

func TestProcessStore_GetNotFound(t *testing.T) {
	_, err := NewProcessStore().Get(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrProcessNotFound)

	_, err = NewProcessStore().Update(context.Background(), "missing", func(p domain.WorkflowProcess) (domain.WorkflowProcess, error) {
		return p, nil
	})
	assert.ErrorIs(t, err, domain.ErrProcessNotFound)
}

func TestProcessStore_UpdateErrorLeavesValue(t *testing.T) {
	ctx := context.Background()
	store := NewProcessStore()
	p := domain.Instantiate(domain.DefaultBlueprint(), "p-1", time.Now())
	require.NoError(t, store.Insert(ctx, p))

	boom := errors.New("boom")
	_, err := store.Update(ctx, "p-1", func(cur domain.WorkflowProcess) (domain.WorkflowProcess, error) {
		cur.CurrentStateID = "preparing"
		return cur, boom
	})
	require.ErrorIs(t, err, boom)

	got, err := store.Get(ctx, "p-1")
	require.NoError(t, err)
	assert.Equal(t, "created", got.CurrentStateID)
}

func TestProcessStore_ConcurrentTransitionsHaveOneWinner(t *testing.T) {
	ctx := context.Background()
	bp := domain.DefaultBlueprint()
	store := NewProcessStore()
	require.NoError(t, store.Insert(ctx, domain.Instantiate(bp, "p-1", time.Now())))

	const n = 32
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		rejected  int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Update(ctx, "p-1", func(cur domain.WorkflowProcess) (domain.WorkflowProcess, error) {
				return domain.ApplyAction(cur, bp, "start-prep", time.Now())
			})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				successes++
			} else if errors.Is(err, domain.ErrActionNotAllowedFromCurrentState) {
				rejected++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, n-1, rejected)

	got, err := store.Get(ctx, "p-1")
	require.NoError(t, err)
	assert.Equal(t, "preparing", got.CurrentStateID)
	assert.Len(t, got.History, 1)
}

func TestProcessStore_UpdateHonoursCancelledContext(t *testing.T) {
	store := NewProcessStore()
	require.NoError(t, store.Insert(context.Background(), domain.Instantiate(domain.DefaultBlueprint(), "p-1", time.Now())))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	_, err := store.Update(ctx, "p-1", func(cur domain.WorkflowProcess) (domain.WorkflowProcess, error) {
		called = true
		return cur, nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}
