package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCellEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b Cell
		want bool
	}{
		{"numbers equal", Number(1.5), Number(1.5), true},
		{"numbers differ", Number(1.5), Number(2.5), false},
		{"strings equal", String("Codazzi"), String("Codazzi"), true},
		{"strings differ", String("Codazzi"), String("MLB"), false},
		{"missing equal", Missing(), Missing(), true},
		{"zero value is missing", Cell{}, Missing(), true},
		{"undefined equal", Undefined(), Undefined(), true},
		{"undefined not missing", Undefined(), Missing(), false},
		{"kind mismatch", Number(0), Missing(), false},
		{"dates equal", Date(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)), Date(time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Equal(tt.b))
		})
	}
}

func TestCellJSONRoundTrip(t *testing.T) {
	cells := []Cell{
		Number(1234.5),
		Number(-5),
		String("A&G"),
		Date(time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)),
		Missing(),
		Undefined(),
	}
	for _, cell := range cells {
		raw, err := json.Marshal(cell)
		require.NoError(t, err)

		var got Cell
		require.NoError(t, json.Unmarshal(raw, &got))
		assert.True(t, cell.Equal(got), "cell %+v round-tripped to %+v", cell, got)
	}
}

func TestTableAppendColumn(t *testing.T) {
	table := NewTable([]string{"fecha", "zona"})
	table.AppendRow([]Cell{String("2024-01-01"), String("MLB")})
	table.AppendRow([]Cell{String("2024-01-02"), String("Sinú")})

	require.NoError(t, table.AppendColumn("rff_real", []Cell{Number(100), Number(80)}))
	assert.Equal(t, []string{"fecha", "zona", "rff_real"}, table.Columns)
	assert.Equal(t, Number(80), table.Cell(1, "rff_real"))

	err := table.AppendColumn("rff_real", []Cell{Number(1), Number(2)})
	assert.Error(t, err, "duplicate column must be rejected")

	err = table.AppendColumn("cpo_real", []Cell{Number(1)})
	assert.Error(t, err, "cell count mismatch must be rejected")
}

func TestTableAppendRowPads(t *testing.T) {
	table := NewTable([]string{"a", "b", "c"})
	table.AppendRow([]Cell{String("1")})
	require.Len(t, table.Rows[0], 3)
	assert.True(t, table.Rows[0][1].IsMissing())
	assert.True(t, table.Rows[0][2].IsMissing())

	table.AppendRow([]Cell{String("1"), String("2"), String("3"), String("overflow")})
	assert.Len(t, table.Rows[1], 3)
}

func TestTableCloneIsIndependent(t *testing.T) {
	table := NewTable([]string{"a"})
	table.AppendRow([]Cell{Number(1)})

	clone := table.Clone()
	clone.Rows[0][0] = Number(99)
	require.NoError(t, clone.AppendColumn("b", []Cell{Number(2)}))

	assert.Equal(t, Number(1), table.Cell(0, "a"))
	assert.False(t, table.HasColumn("b"))
}

func TestDatasetRecords(t *testing.T) {
	table := NewTable([]string{"fecha", "zona", "rff_cumplimiento"})
	table.AppendRow([]Cell{
		Date(time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)),
		String("Codazzi"),
		Undefined(),
	})
	ds := &Dataset{Kind: "upstream", Table: table}

	recs := ds.Records("2006-01-02")
	require.Len(t, recs, 1)
	assert.Equal(t, "2024-05-10", recs[0]["fecha"])
	assert.Equal(t, "Codazzi", recs[0]["zona"])
	assert.Equal(t, "N/A", recs[0]["rff_cumplimiento"])
}

func TestDatasetCounts(t *testing.T) {
	ds := &Dataset{Violations: []Violation{
		{Severity: SeverityError},
		{Severity: SeverityWarning},
		{Severity: SeverityError},
	}}
	assert.Equal(t, 2, ds.ErrorCount())
	assert.Equal(t, 1, ds.WarningCount())
}

func TestSchemaErrorMessage(t *testing.T) {
	err := &SchemaError{Kind: "upstream", Missing: []string{"cpo_real", "tea_meta"}}
	assert.Contains(t, err.Error(), "cpo_real")
	assert.Contains(t, err.Error(), "tea_meta")
}
