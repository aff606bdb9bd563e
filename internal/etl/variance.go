package etl

import (
	"github.com/rotisserie/eris"

	"github.com/oleoflores/planta-cli/internal/model"
	"github.com/oleoflores/planta-cli/internal/schema"
)

// Derived column suffixes, fixed convention shared with presentation.
const (
	SuffixVariation  = "_variacion"
	SuffixCompliance = "_cumplimiento"
)

// DeriveVariance appends, for every metric pair whose columns are present,
// <name>_variacion = actual − presupuesto and <name>_cumplimiento =
// actual / presupuesto × 100. A zero budget yields an undefined cell, never
// a division crash or a silent zero; a missing operand yields a missing
// cell. Source columns are never touched.
//
// Without overwrite, a pre-existing derived column is an error: it guards
// against a double invocation corrupting the table.
func DeriveVariance(t *model.Table, pairs []schema.MetricPair, overwrite bool) (*model.Table, error) {
	out := t.Clone()

	for _, pair := range pairs {
		actualIdx := out.ColumnIndex(pair.Actual)
		budgetIdx := out.ColumnIndex(pair.Budget)
		if actualIdx < 0 || budgetIdx < 0 {
			continue // pair not present in this table
		}

		variation := make([]model.Cell, out.NumRows())
		compliance := make([]model.Cell, out.NumRows())
		for i, row := range out.Rows {
			actual, budget := row[actualIdx], row[budgetIdx]
			if actual.Kind != model.CellNumber || budget.Kind != model.CellNumber {
				variation[i] = model.Missing()
				compliance[i] = model.Missing()
				continue
			}
			variation[i] = model.Number(actual.Num - budget.Num)
			if budget.Num == 0 {
				compliance[i] = model.Undefined()
			} else {
				compliance[i] = model.Number(actual.Num / budget.Num * 100)
			}
		}

		for _, derived := range []struct {
			name  string
			cells []model.Cell
		}{
			{pair.Name + SuffixVariation, variation},
			{pair.Name + SuffixCompliance, compliance},
		} {
			if out.HasColumn(derived.name) {
				if !overwrite {
					return nil, eris.Errorf("variance: column %q already exists (pass overwrite to recompute)", derived.name)
				}
				if err := out.ReplaceColumn(derived.name, derived.cells); err != nil {
					return nil, eris.Wrap(err, "variance: replace column")
				}
				continue
			}
			if err := out.AppendColumn(derived.name, derived.cells); err != nil {
				return nil, eris.Wrap(err, "variance: append column")
			}
		}
	}

	return out, nil
}
