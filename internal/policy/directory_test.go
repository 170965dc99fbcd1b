package policy

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"claimguard/internal/claims/models"
	"claimguard/pkg/platform/sentinel"
)

func TestInMemoryLookup(t *testing.T) {
	d := NewInMemory(models.PolicyRecord{Number: "66777", CoverageLimit: 5_000_000, Status: models.PolicyActive})

	t.Run("found ignores case and whitespace", func(t *testing.T) {
		d.Put(models.PolicyRecord{Number: "abc-1", Status: models.PolicyActive})
		r, err := d.Lookup(context.Background(), " ABC-1 ")
		require.NoError(t, err)
		assert.Equal(t, "abc-1", r.Number)
	})

	t.Run("unknown number is not found", func(t *testing.T) {
		_, err := d.Lookup(context.Background(), "99999")
		require.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := d.Lookup(ctx, "66777")
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestLoadSeed(t *testing.T) {
	t.Run("decodes money and dates", func(t *testing.T) {
		doc := `
policies:
  - number: "66777"
    coverage_limit: "50000.00"
    status: active
    valid_from: 2025-01-01
    valid_to: 2025-12-31
    insured_name: Lotta Dietz
  - number: "12000"
    coverage_limit: "1500"
    valid_from: 2024-01-01
    valid_to: 2024-06-30
`
		records, err := LoadSeed(strings.NewReader(doc))
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, models.Money(5_000_000), records[0].CoverageLimit)
		assert.Equal(t, time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC), records[0].ValidTo.UTC())
		assert.Equal(t, models.PolicyActive, records[1].Status, "status defaults to active")
	})

	t.Run("empty document", func(t *testing.T) {
		records, err := LoadSeed(strings.NewReader(""))
		require.NoError(t, err)
		assert.Empty(t, records)
	})

	t.Run("rejects inverted window", func(t *testing.T) {
		doc := "policies:\n  - number: \"1\"\n    valid_from: 2025-02-01\n    valid_to: 2025-01-01\n"
		_, err := LoadSeed(strings.NewReader(doc))
		require.ErrorContains(t, err, "valid_to before valid_from")
	})

	t.Run("rejects unknown fields", func(t *testing.T) {
		doc := "policies:\n  - number: \"1\"\n    limit: 3\n"
		_, err := LoadSeed(strings.NewReader(doc))
		require.Error(t, err)
	})

	t.Run("rejects missing number", func(t *testing.T) {
		doc := "policies:\n  - status: active\n"
		_, err := LoadSeed(strings.NewReader(doc))
		require.ErrorContains(t, err, "number is required")
	})
}
