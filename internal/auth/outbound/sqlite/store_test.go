package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shandysiswandi/folio/internal/auth/entity"
	"github.com/shandysiswandi/folio/internal/pkg/goerror"
	"github.com/shandysiswandi/folio/internal/pkg/instrument"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(context.Background(), filepath.Join(t.TempDir(), "folio.db"), instrument.NewNoop())
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, store.Close()) })

	return store
}

func TestOpen(t *testing.T) {
	_, err := Open(context.Background(), "  ", instrument.NewNoop())
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "folio.db")
	first, err := Open(context.Background(), path, instrument.NewNoop())
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := Open(context.Background(), path, instrument.NewNoop())
	require.NoError(t, err)
	require.NoError(t, second.Close())
}

func TestStore_Users(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	created, err := store.UpsertUserByEmail(ctx, entity.User{ID: 7, Email: "jane@example.com", CreatedAt: now, UpdatedAt: now})
	require.NoError(t, err)
	require.Equal(t, int64(7), created.ID)
	require.Equal(t, now, created.CreatedAt)

	again, err := store.UpsertUserByEmail(ctx, entity.User{ID: 8, Email: "jane@example.com", CreatedAt: now, UpdatedAt: now})
	require.NoError(t, err)
	require.Equal(t, int64(7), again.ID)

	require.NoError(t, store.UpdateUserName(ctx, 7, "Jane", "Doe", now.Add(time.Hour)))

	got, err := store.GetUserByID(ctx, 7)
	require.NoError(t, err)
	require.Equal(t, "Jane", got.FirstName)
	require.Equal(t, "Doe", got.LastName)
	require.Equal(t, now.Add(time.Hour), got.UpdatedAt)

	_, err = store.GetUserByID(ctx, 404)
	require.ErrorIs(t, err, goerror.ErrNotFound)
	require.ErrorIs(t, store.UpdateUserName(ctx, 404, "x", "", now), goerror.ErrNotFound)
}
