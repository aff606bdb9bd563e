package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oleoflores/planta-cli/internal/model"
)

func openTestCache(t *testing.T) *Cache {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func sampleDataset() *model.Dataset {
	table := model.NewTable([]string{"fecha", "zona", "rff_real", "rff_cumplimiento"})
	table.AppendRow([]model.Cell{
		model.Date(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
		model.String("Codazzi"),
		model.Number(100.5),
		model.Undefined(),
	})
	table.AppendRow([]model.Cell{
		model.Missing(),
		model.String("MLB"),
		model.Number(80),
		model.Number(94.1),
	})
	return &model.Dataset{
		Kind:   "upstream",
		Source: "produccion.csv",
		Table:  table,
		Warnings: []model.CleaningWarning{
			{Row: 1, Column: "fecha", Reason: "invalid or ambiguous date"},
		},
		Violations: []model.Violation{
			{Row: 0, Column: "tea_real", Value: "40", Severity: model.SeverityError},
		},
	}
}

func TestCachePutGet(t *testing.T) {
	c := openTestCache(t)
	ctx := context.Background()
	hash := HashBytes([]byte("source bytes"))

	require.NoError(t, c.Put(ctx, hash, "upstream", sampleDataset()))

	got, ok, err := c.Get(ctx, hash, "upstream")
	require.NoError(t, err)
	require.True(t, ok)

	want := sampleDataset()
	assert.Equal(t, want.Kind, got.Kind)
	assert.Equal(t, want.Source, got.Source)
	assert.Equal(t, want.Warnings, got.Warnings)
	assert.Equal(t, want.Violations, got.Violations)
	require.Equal(t, want.Table.Columns, got.Table.Columns)
	require.Equal(t, want.Table.NumRows(), got.Table.NumRows())
	for i := range want.Table.Rows {
		for j := range want.Table.Rows[i] {
			assert.True(t, want.Table.Rows[i][j].Equal(got.Table.Rows[i][j]),
				"cell (%d,%d) did not survive the round trip", i, j)
		}
	}
}

func TestCacheMiss(t *testing.T) {
	c := openTestCache(t)

	_, ok, err := c.Get(context.Background(), HashBytes([]byte("never stored")), "upstream")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCacheKindIsPartOfTheKey(t *testing.T) {
	c := openTestCache(t)
	ctx := context.Background()
	hash := HashBytes([]byte("same bytes"))

	require.NoError(t, c.Put(ctx, hash, "upstream", sampleDataset()))

	_, ok, err := c.Get(ctx, hash, "downstream")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCachePutReplaces(t *testing.T) {
	c := openTestCache(t)
	ctx := context.Background()
	hash := HashBytes([]byte("source"))

	first := sampleDataset()
	require.NoError(t, c.Put(ctx, hash, "upstream", first))

	second := sampleDataset()
	second.Source = "produccion-v2.csv"
	require.NoError(t, c.Put(ctx, hash, "upstream", second))

	got, ok, err := c.Get(ctx, hash, "upstream")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "produccion-v2.csv", got.Source)
}

func TestCachePurge(t *testing.T) {
	c := openTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, HashBytes([]byte("a")), "upstream", sampleDataset()))
	require.NoError(t, c.Put(ctx, HashBytes([]byte("b")), "downstream", sampleDataset()))

	n, err := c.Purge(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	_, ok, err := c.Get(ctx, HashBytes([]byte("a")), "upstream")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHashBytesIsStable(t *testing.T) {
	assert.Equal(t, HashBytes([]byte("x")), HashBytes([]byte("x")))
	assert.NotEqual(t, HashBytes([]byte("x")), HashBytes([]byte("y")))
	assert.Len(t, HashBytes(nil), 64)
}
