package etl

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oleoflores/planta-cli/internal/model"
	"github.com/oleoflores/planta-cli/internal/schema"
	"github.com/oleoflores/planta-cli/internal/store"
)

// upstreamCSV covers the whole happy path: mixed header casing, out-of-order
// dates, a thousands separator, and a TEA above the technical maximum.
const upstreamCSV = "Fecha,Zona,RFF Real,RFF Presupuesto,CPO Real,CPO Presupuesto,TEA Real,TEA Meta,Inventario CPO\n" +
	"2024-01-02,MLB,80,85,16,17,40,21,\n" +
	"2024-01-01,Codazzi,100,90,21,20,22,21,\"1,021\"\n"

func testPipeline(opts ...Option) *Pipeline {
	base := []Option{WithCleanOptions(CleanOptions{Now: fixedNow})}
	return New(schema.Default(), append(base, opts...)...)
}

func TestPipelineRunBytes(t *testing.T) {
	ds, err := testPipeline().RunBytes(context.Background(), []byte(upstreamCSV), "produccion.csv", schema.Upstream)
	require.NoError(t, err)

	table := ds.Table
	assert.Equal(t, 2, table.NumRows())
	for _, col := range []string{"rff_variacion", "rff_cumplimiento", "cpo_variacion", "cpo_cumplimiento", "tea_variacion", "tea_cumplimiento"} {
		assert.True(t, table.HasColumn(col), "missing derived column %s", col)
	}

	// Rows come back sorted by date: Codazzi (Jan 1) before MLB (Jan 2).
	assert.Equal(t, model.String("Codazzi"), table.Cell(0, "zona"))
	assert.Equal(t, model.Date(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)), table.Cell(0, "fecha"))
	assert.Equal(t, model.String("MLB"), table.Cell(1, "zona"))

	assert.Equal(t, model.Number(10), table.Cell(0, "rff_variacion"))
	assert.Equal(t, model.Number(-5), table.Cell(1, "rff_variacion"))
	assert.InDelta(t, 111.1, table.Cell(0, "rff_cumplimiento").Num, 0.1)
	assert.InDelta(t, 94.1, table.Cell(1, "rff_cumplimiento").Num, 0.1)

	assert.Equal(t, model.Number(1021), table.Cell(0, "inventario_cpo"), "thousands separator is cleaned")
	assert.True(t, table.Cell(1, "inventario_cpo").IsMissing())

	assert.Empty(t, ds.Warnings)
	require.Len(t, ds.Violations, 1, "TEA 40 breaks the technical range")
	assert.Equal(t, "tea_real", ds.Violations[0].Column)
	assert.Equal(t, model.SeverityError, ds.Violations[0].Severity)
	assert.Equal(t, model.Number(40), table.Cell(ds.Violations[0].Row, "tea_real"),
		"violation row index must point at the offending cell in the sorted table")
	assert.Equal(t, 1, ds.ErrorCount())
}

func TestPipelineSchemaFailure(t *testing.T) {
	raw := []byte("fecha,zona,rff_real\n2024-01-01,MLB,100\n")

	_, err := testPipeline().RunBytes(context.Background(), raw, "x.csv", schema.Upstream)
	var serr *model.SchemaError
	require.ErrorAs(t, err, &serr)
	assert.Contains(t, serr.Missing, "tea_meta")
}

func TestPipelineLoadFailure(t *testing.T) {
	_, err := testPipeline().RunBytes(context.Background(), []byte("fecha,zona\n"), "x.csv", schema.Upstream)
	var lerr *model.LoadError
	require.ErrorAs(t, err, &lerr)
	assert.Equal(t, model.LoadEmpty, lerr.Kind)
}

func TestPipelineUnknownKind(t *testing.T) {
	_, err := testPipeline().RunBytes(context.Background(), []byte(upstreamCSV), "x.csv", schema.Kind("bodega"))
	assert.Error(t, err)
}

func TestPipelineBadCellsDegradeToWarnings(t *testing.T) {
	raw := "fecha,zona,rff_real,rff_presupuesto,cpo_real,cpo_presupuesto,tea_real,tea_meta\n" +
		"2024-01-01,Codazzi,cien,90,21,20,22,21\n"

	ds, err := testPipeline().RunBytes(context.Background(), []byte(raw), "x.csv", schema.Upstream)
	require.NoError(t, err, "one bad cell never aborts the run")
	require.Len(t, ds.Warnings, 1)
	assert.Equal(t, "rff_real", ds.Warnings[0].Column)
	assert.True(t, ds.Table.Cell(0, "rff_variacion").IsMissing())
}

func TestPipelineCacheReturnsIdenticalDataset(t *testing.T) {
	cache, err := store.Open(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	defer cache.Close()

	p := testPipeline(WithCache(cache))
	raw := []byte(upstreamCSV)

	fresh, err := p.RunBytes(context.Background(), raw, "produccion.csv", schema.Upstream)
	require.NoError(t, err)
	cached, err := p.RunBytes(context.Background(), raw, "produccion.csv", schema.Upstream)
	require.NoError(t, err)

	freshJSON, err := json.Marshal(fresh)
	require.NoError(t, err)
	cachedJSON, err := json.Marshal(cached)
	require.NoError(t, err)
	assert.JSONEq(t, string(freshJSON), string(cachedJSON))
}

func TestPipelineAnnotationRowsTrackSortedTable(t *testing.T) {
	// The offending row loads first but sorts last, so row indices taken
	// before the sort would point operators at a healthy row.
	raw := "fecha,zona,rff_real,rff_presupuesto,cpo_real,cpo_presupuesto,tea_real,tea_meta\n" +
		"2024-01-03,MLB,ochenta,85,16,17,40,21\n" +
		"2024-01-01,Codazzi,100,90,21,20,22,21\n" +
		"2024-01-02,Sinú,95,90,20,20,23,21\n"

	ds, err := testPipeline().RunBytes(context.Background(), []byte(raw), "x.csv", schema.Upstream)
	require.NoError(t, err)

	require.Len(t, ds.Violations, 1)
	v := ds.Violations[0]
	assert.Equal(t, 2, v.Row)
	assert.Equal(t, model.Number(40), ds.Table.Cell(v.Row, v.Column))

	require.Len(t, ds.Warnings, 1)
	w := ds.Warnings[0]
	assert.Equal(t, 2, w.Row)
	assert.Equal(t, "rff_real", w.Column)
	assert.True(t, ds.Table.Cell(w.Row, w.Column).IsMissing())
	assert.Equal(t, model.String("MLB"), ds.Table.Cell(w.Row, "zona"))
}

func TestPipelineCacheHitReportsCurrentSource(t *testing.T) {
	cache, err := store.Open(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	defer cache.Close()

	p := testPipeline(WithCache(cache))
	raw := []byte(upstreamCSV)

	first, err := p.RunBytes(context.Background(), raw, "enero.csv", schema.Upstream)
	require.NoError(t, err)
	assert.Equal(t, "enero.csv", first.Source)

	second, err := p.RunBytes(context.Background(), raw, "copia-enero.csv", schema.Upstream)
	require.NoError(t, err)
	assert.Equal(t, "copia-enero.csv", second.Source, "a cache hit reports the name it was asked for")
}

func TestPipelineSortPlacesMissingDatesLast(t *testing.T) {
	raw := "fecha,zona,rff_real,rff_presupuesto,cpo_real,cpo_presupuesto,tea_real,tea_meta\n" +
		"sin fecha,MLB,80,85,16,17,20,21\n" +
		"2024-01-05,Codazzi,100,90,21,20,22,21\n"

	ds, err := testPipeline().RunBytes(context.Background(), []byte(raw), "x.csv", schema.Upstream)
	require.NoError(t, err)
	assert.Equal(t, model.String("Codazzi"), ds.Table.Cell(0, "zona"))
	assert.True(t, ds.Table.Cell(1, "fecha").IsMissing())
}
