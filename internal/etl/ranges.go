package etl

import (
	"strconv"

	"github.com/oleoflores/planta-cli/internal/model"
	"github.com/oleoflores/planta-cli/internal/schema"
)

// CheckRanges scans the table against the kind's range, domain, and ratio
// rules and returns one Violation per offending cell. The table is only
// annotated, never mutated, and no row is dropped: a row with two bad
// columns yields two violations.
func CheckRanges(t *model.Table, spec schema.Spec) []model.Violation {
	var violations []model.Violation

	for _, rule := range spec.Ranges {
		idx := t.ColumnIndex(rule.Column)
		if idx < 0 {
			continue
		}
		for rowIdx, row := range t.Rows {
			cell := row[idx]
			if cell.Kind != model.CellNumber || rule.Allows(cell.Num) {
				continue
			}
			violations = append(violations, model.Violation{
				Row:      rowIdx,
				Column:   rule.Column,
				Value:    formatFloat(cell.Num),
				Rule:     rule.Name(),
				Severity: rule.Severity,
				Message:  rule.Message,
			})
		}
	}

	for _, rule := range spec.Categories {
		idx := t.ColumnIndex(rule.Column)
		if idx < 0 {
			continue
		}
		for rowIdx, row := range t.Rows {
			cell := row[idx]
			if cell.Kind != model.CellString || rule.Allows(cell.Str) {
				continue
			}
			violations = append(violations, model.Violation{
				Row:      rowIdx,
				Column:   rule.Column,
				Value:    cell.Str,
				Rule:     rule.Name(),
				Severity: rule.Severity,
				Message:  "valor fuera del catálogo",
			})
		}
	}

	for _, rule := range spec.Ratios {
		numIdx := t.ColumnIndex(rule.Numerator)
		denIdx := t.ColumnIndex(rule.Denominator)
		if numIdx < 0 || denIdx < 0 {
			continue
		}
		for rowIdx, row := range t.Rows {
			num, den := row[numIdx], row[denIdx]
			if num.Kind != model.CellNumber || den.Kind != model.CellNumber || den.Num <= 0 {
				continue
			}
			if num.Num <= rule.MaxPct/100*den.Num {
				continue
			}
			violations = append(violations, model.Violation{
				Row:      rowIdx,
				Column:   rule.Numerator,
				Value:    formatFloat(num.Num),
				Rule:     rule.Name(),
				Severity: rule.Severity,
				Message:  rule.Message,
			})
		}
	}

	return violations
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
