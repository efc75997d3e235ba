package storage

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"whatflower/internal/domain/entity"
)

func TestMemoryUserRepository_GetCreatesUser(t *testing.T) {
	repo := NewMemoryUserRepository()
	ctx := context.Background()

	user, err := repo.Get(ctx, 1, 10)
	require.NoError(t, err)
	require.Equal(t, entity.StateMainMenu, user.State)

	user.SetState(entity.StateProcessing)
	stored, err := repo.Get(ctx, 1, 10)
	require.NoError(t, err)
	require.Equal(t, entity.StateMainMenu, stored.State, "changes to a returned copy must not leak into the store")
}

func TestMemoryUserRepository_TryBeginAndFinish(t *testing.T) {
	repo := NewMemoryUserRepository()
	ctx := context.Background()

	ok, err := repo.TryBegin(ctx, 1, 10)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = repo.TryBegin(ctx, 1, 10)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, repo.Finish(ctx, 1))
	ok, err = repo.TryBegin(ctx, 1, 10)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestMemoryUserRepository_SetStateUnlessBusy(t *testing.T) {
	repo := NewMemoryUserRepository()
	ctx := context.Background()

	user, applied, err := repo.SetStateUnlessBusy(ctx, 1, 10, entity.StateMainMenu)
	require.NoError(t, err)
	require.True(t, applied)
	require.Equal(t, entity.StateMainMenu, user.State)

	ok, err := repo.TryBegin(ctx, 1, 10)
	require.NoError(t, err)
	require.True(t, ok)

	user, applied, err = repo.SetStateUnlessBusy(ctx, 1, 10, entity.StateMainMenu)
	require.NoError(t, err)
	require.False(t, applied)
	require.Equal(t, entity.StateProcessing, user.State)

	ok, err = repo.TryBegin(ctx, 1, 10)
	require.NoError(t, err)
	require.False(t, ok, "a reset during processing must not reopen the busy guard")
}

func TestMemoryUserRepository_ConcurrentTryBegin(t *testing.T) {
	repo := NewMemoryUserRepository()
	ctx := context.Background()

	var wg sync.WaitGroup
	var won atomic.Int32
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := repo.TryBegin(ctx, 1, 10); ok {
				won.Add(1)
			}
			_, _, _ = repo.SetStateUnlessBusy(ctx, 1, 10, entity.StateMainMenu)
		}()
	}
	wg.Wait()

	require.Equal(t, int32(1), won.Load())
}

func TestMemoryLookupRepository_ListByUser(t *testing.T) {
	repo := NewMemoryLookupRepository()
	ctx := context.Background()

	for i, label := range []string{"daisy", "tulip", "rose"} {
		require.NoError(t, repo.Save(ctx, &entity.Lookup{
			UserID:    1,
			Label:     label,
			CreatedAt: time.Unix(int64(i), 0),
		}))
	}
	require.NoError(t, repo.Save(ctx, &entity.Lookup{UserID: 2, Label: "lotus"}))

	got, err := repo.ListByUser(ctx, 1, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "rose", got[0].Label)
	require.Equal(t, "tulip", got[1].Label)

	all, err := repo.ListByUser(ctx, 1, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)

	none, err := repo.ListByUser(ctx, 3, 5)
	require.NoError(t, err)
	require.Empty(t, none)
}

func TestListLimit(t *testing.T) {
	require.Equal(t, MaxListLimit, listLimit(0))
	require.Equal(t, MaxListLimit, listLimit(-5))
	require.Equal(t, MaxListLimit, listLimit(MaxListLimit+1))
	require.Equal(t, 7, listLimit(7))
}

func TestMemoryLookupRepository_LimitCapped(t *testing.T) {
	repo := NewMemoryLookupRepository()
	ctx := context.Background()

	for i := 0; i < MaxListLimit+20; i++ {
		require.NoError(t, repo.Save(ctx, &entity.Lookup{UserID: 1, Label: "daisy"}))
	}

	got, err := repo.ListByUser(ctx, 1, 0)
	require.NoError(t, err)
	require.Len(t, got, MaxListLimit)
}
