package etl

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oleoflores/planta-cli/internal/model"
	"github.com/oleoflores/planta-cli/internal/schema"
)

func TestNormalizeColumn(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"TEA Real", "tea_real"},
		{"  fecha  ", "fecha"},
		{"RFF Presupuesto", "rff_presupuesto"},
		{"zona", "zona"},
		{"CPO  Real", "cpo__real"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeColumn(tt.in))
	}
}

func TestNormalizeHeader(t *testing.T) {
	table := model.NewTable([]string{"Fecha", "ZONA", "TEA Real"})
	require.NoError(t, NormalizeHeader(table, schema.Upstream))
	assert.Equal(t, []string{"fecha", "zona", "tea_real"}, table.Columns)
}

func TestNormalizeHeaderAmbiguous(t *testing.T) {
	table := model.NewTable([]string{"TEA Real", "tea_real", "fecha"})
	err := NormalizeHeader(table, schema.Upstream)

	var serr *model.SchemaError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, []string{"tea_real"}, serr.Ambiguous)
	assert.Equal(t, []string{"TEA Real", "tea_real", "fecha"}, table.Columns,
		"ambiguous header must not be rewritten")
}

func TestValidateReportsAllMissing(t *testing.T) {
	spec, err := schema.Default().Spec(schema.Upstream)
	require.NoError(t, err)

	table := model.NewTable([]string{
		"fecha", "zona", "rff_real", "rff_presupuesto", "cpo_presupuesto", "tea_real",
	})
	verr := Validate(table, spec)

	var serr *model.SchemaError
	require.ErrorAs(t, verr, &serr)
	assert.Equal(t, []string{"cpo_real", "tea_meta"}, serr.Missing)
	assert.Equal(t, "upstream", serr.Kind)
}

func TestValidateAcceptsCompleteHeader(t *testing.T) {
	spec, err := schema.Default().Spec(schema.Upstream)
	require.NoError(t, err)

	table := model.NewTable(append(append([]string(nil), spec.Required...), "acidez"))
	assert.NoError(t, Validate(table, spec), "extra columns are allowed")
}

func TestValidateMatchingIsCaseInsensitive(t *testing.T) {
	spec := schema.Spec{Kind: schema.Upstream, Required: []string{"fecha", "tea_real"}}
	table := model.NewTable([]string{"Fecha", "TEA Real"})
	assert.NoError(t, Validate(table, spec))
}

func TestValidateDistinguishesLoadErrors(t *testing.T) {
	spec := schema.Spec{Kind: schema.Upstream, Required: []string{"fecha"}}
	err := Validate(model.NewTable([]string{"zona"}), spec)

	var lerr *model.LoadError
	assert.False(t, errors.As(err, &lerr), "schema failures are not load failures")
}
