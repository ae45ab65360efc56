package projection

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clubreg/internal/registration/models"
)

func TestInMemoryProjection(t *testing.T) {
	ctx := context.Background()

	t.Run("miss reports not found without error", func(t *testing.T) {
		s := NewInMemory()
		_, ok, err := s.Get(ctx, 1)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("locally-ahead entries are listed until confirmed", func(t *testing.T) {
		s := NewInMemory()
		r := &models.Registration{ID: 7, Status: models.StatusRejected}
		require.NoError(t, s.MarkLocallyAhead(ctx, r))

		ahead, err := s.LocallyAhead(ctx)
		require.NoError(t, err)
		require.Len(t, ahead, 1)
		assert.Equal(t, SyncLocallyAhead, ahead[0].SyncState)

		require.NoError(t, s.MarkConfirmed(ctx, r))
		ahead, err = s.LocallyAhead(ctx)
		require.NoError(t, err)
		assert.Empty(t, ahead)

		e, ok, err := s.Get(ctx, 7)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, SyncConfirmed, e.SyncState)
	})

	t.Run("entries are copies", func(t *testing.T) {
		s := NewInMemory()
		r := &models.Registration{ID: 3, Status: models.StatusPending}
		require.NoError(t, s.MarkConfirmed(ctx, r))

		e, ok, err := s.Get(ctx, 3)
		require.NoError(t, err)
		require.True(t, ok)
		e.Registration.Status = models.StatusAccepted

		again, _, err := s.Get(ctx, 3)
		require.NoError(t, err)
		assert.Equal(t, models.StatusPending, again.Registration.Status)
	})

	t.Run("discard and clear remove entries", func(t *testing.T) {
		s := NewInMemory()
		require.NoError(t, s.MarkLocallyAhead(ctx, &models.Registration{ID: 1}))
		require.NoError(t, s.MarkLocallyAhead(ctx, &models.Registration{ID: 2}))

		require.NoError(t, s.Discard(ctx, 1))
		_, ok, err := s.Get(ctx, 1)
		require.NoError(t, err)
		assert.False(t, ok)

		require.NoError(t, s.Clear(ctx))
		ahead, err := s.LocallyAhead(ctx)
		require.NoError(t, err)
		assert.Empty(t, ahead)
	})
}
