package etl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oleoflores/planta-cli/internal/model"
	"github.com/oleoflores/planta-cli/internal/schema"
)

func upstreamSpec(t *testing.T) schema.Spec {
	t.Helper()
	spec, err := schema.Default().Spec(schema.Upstream)
	require.NoError(t, err)
	return spec
}

func downstreamSpec(t *testing.T) schema.Spec {
	t.Helper()
	spec, err := schema.Default().Spec(schema.Downstream)
	require.NoError(t, err)
	return spec
}

func TestCheckRangesTEA(t *testing.T) {
	tests := []struct {
		name       string
		tea        model.Cell
		violations int
		severity   model.Severity
	}{
		{"nominal", model.Number(22), 0, ""},
		{"above technical max", model.Number(40), 1, model.SeverityError},
		{"negative", model.Number(-1), 1, model.SeverityError},
		{"zero production day", model.Number(0), 0, ""}, // no extraction, no low-TEA warning
		{"unusually low", model.Number(10), 1, model.SeverityWarning},
		{"at boundary", model.Number(35), 0, ""},
		{"missing is skipped", model.Missing(), 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := model.NewTable([]string{"tea_real"})
			table.AppendRow([]model.Cell{tt.tea})

			violations := CheckRanges(table, upstreamSpec(t))
			assert.Len(t, violations, tt.violations)
			if tt.violations == 1 && tt.severity != "" {
				assert.Equal(t, tt.severity, violations[0].Severity)
				assert.Equal(t, "tea_real", violations[0].Column)
				assert.Equal(t, 0, violations[0].Row)
			}
		})
	}
}

func TestCheckRangesDomain(t *testing.T) {
	table := model.NewTable([]string{"zona"})
	table.AppendRow([]model.Cell{model.String("Codazzi")})
	table.AppendRow([]model.Cell{model.String("Bogotá")})

	violations := CheckRanges(table, upstreamSpec(t))
	require.Len(t, violations, 1)
	assert.Equal(t, 1, violations[0].Row)
	assert.Equal(t, "Bogotá", violations[0].Value)
	assert.Equal(t, model.SeverityError, violations[0].Severity)
}

func TestCheckRangesRatioUpstream(t *testing.T) {
	table := model.NewTable([]string{"rff_real", "cpo_real"})
	table.AppendRow([]model.Cell{model.Number(100), model.Number(22)}) // fine
	table.AppendRow([]model.Cell{model.Number(70), model.Number(80)}) // CPO exceeds RFF
	table.AppendRow([]model.Cell{model.Number(0), model.Number(5)})   // zero denominator skipped

	violations := CheckRanges(table, upstreamSpec(t))
	require.Len(t, violations, 1)
	assert.Equal(t, 1, violations[0].Row)
	assert.Equal(t, "cpo_real", violations[0].Column)
	assert.Equal(t, model.SeverityError, violations[0].Severity)
}

func TestCheckRangesRatioDownstream(t *testing.T) {
	table := model.NewTable([]string{"cpo_entrada", "mermas"})
	table.AppendRow([]model.Cell{model.Number(200), model.Number(20)}) // 10%, fine
	table.AppendRow([]model.Cell{model.Number(200), model.Number(40)}) // 20%, over the 15% cap

	violations := CheckRanges(table, downstreamSpec(t))
	require.Len(t, violations, 1)
	assert.Equal(t, 1, violations[0].Row)
	assert.Equal(t, "mermas", violations[0].Column)
	assert.Equal(t, model.SeverityWarning, violations[0].Severity)
}

func TestCheckRangesMultiplePerRow(t *testing.T) {
	table := model.NewTable([]string{"tea_real", "rff_real"})
	table.AppendRow([]model.Cell{model.Number(40), model.Number(-10)})

	violations := CheckRanges(table, upstreamSpec(t))
	assert.Len(t, violations, 2, "each bad cell is flagged separately")
}

func TestCheckRangesNeverMutates(t *testing.T) {
	table := model.NewTable([]string{"tea_real"})
	table.AppendRow([]model.Cell{model.Number(40)})

	_ = CheckRanges(table, upstreamSpec(t))
	assert.Equal(t, model.Number(40), table.Cell(0, "tea_real"), "offending rows stay in the table")
	assert.Equal(t, 1, table.NumRows())
}
