package policy

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"claimguard/internal/claims/models"
	"claimguard/pkg/platform/sentinel"
)

type countingDirectory struct {
	inner Directory
	calls int
	err   error
}

func (c *countingDirectory) Lookup(ctx context.Context, number string) (models.PolicyRecord, error) {
	c.calls++
	if c.err != nil {
		return models.PolicyRecord{}, c.err
	}
	return c.inner.Lookup(ctx, number)
}

func TestCachedDirectoryLocal(t *testing.T) {
	ctx := context.Background()

	t.Run("second lookup is served from memory", func(t *testing.T) {
		backing := &countingDirectory{inner: NewInMemory(models.PolicyRecord{Number: "66777", Status: models.PolicyActive})}
		d := NewCached(backing)

		first, err := d.Lookup(ctx, "66777")
		require.NoError(t, err)
		second, err := d.Lookup(ctx, "66777")
		require.NoError(t, err)

		assert.Equal(t, first, second)
		assert.Equal(t, 1, backing.calls)
	})

	t.Run("not found is not cached", func(t *testing.T) {
		mem := NewInMemory()
		backing := &countingDirectory{inner: mem}
		d := NewCached(backing)

		_, err := d.Lookup(ctx, "1")
		require.ErrorIs(t, err, sentinel.ErrNotFound)

		mem.Put(models.PolicyRecord{Number: "1", Status: models.PolicyActive})
		_, err = d.Lookup(ctx, "1")
		require.NoError(t, err)
		assert.Equal(t, 2, backing.calls)
	})

	t.Run("backing errors pass through", func(t *testing.T) {
		boom := errors.New("boom")
		d := NewCached(&countingDirectory{err: boom})
		_, err := d.Lookup(ctx, "1")
		require.ErrorIs(t, err, boom)
	})

	t.Run("invalidate forces a reload", func(t *testing.T) {
		backing := &countingDirectory{inner: NewInMemory(models.PolicyRecord{Number: "7"})}
		d := NewCached(backing)
		_, _ = d.Lookup(ctx, "7")
		require.NoError(t, d.Invalidate(ctx, "7"))
		_, _ = d.Lookup(ctx, "7")
		assert.Equal(t, 2, backing.calls)
	})
}
