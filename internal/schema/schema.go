// Package schema declares the dataset contracts: required columns, metric
// pairs, and range rules per dataset kind. The registry is built once at
// startup and passed by reference; nothing here mutates at runtime.
package schema

import (
	"fmt"

	"github.com/rotisserie/eris"

	"github.com/oleoflores/planta-cli/internal/model"
)

// Kind identifies a dataset variant.
type Kind string

const (
	// Upstream covers field and extraction-plant data (RFF, CPO, TEA).
	Upstream Kind = "upstream"

	// Downstream covers refinery data (oleína, margarinas, mermas).
	Downstream Kind = "downstream"
)

// ParseKind converts user input into a Kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "upstream":
		return Upstream, nil
	case "downstream":
		return Downstream, nil
	default:
		return "", eris.Errorf("unknown dataset kind: %q (valid: upstream, downstream)", s)
	}
}

// MetricPair names an (actual, budget) column association. Variance and
// compliance columns are derived per pair as <name>_variacion and
// <name>_cumplimiento.
type MetricPair struct {
	Name   string `yaml:"name"`
	Actual string `yaml:"actual"`
	Budget string `yaml:"budget"`
}

// RangeRule bounds a numeric column. Nil bounds are open; exclusive flags
// turn the corresponding bound strict.
type RangeRule struct {
	Column       string   `yaml:"column"`
	Min          *float64 `yaml:"min"`
	MinExclusive bool     `yaml:"min_exclusive"`
	Max          *float64 `yaml:"max"`
	MaxExclusive bool     `yaml:"max_exclusive"`

	// AppliesAbove limits the rule to values strictly greater than the
	// threshold. The low-TEA warning sets it to 0 so a zero-production day
	// is not flagged as unusually low extraction.
	AppliesAbove *float64 `yaml:"applies_above"`

	Severity model.Severity `yaml:"severity"`
	Message  string         `yaml:"message"`
}

// Name renders the rule in interval notation for violation reports.
func (r RangeRule) Name() string {
	lo, lob := "-inf", "("
	if r.Min != nil {
		lo = trimFloat(*r.Min)
		if !r.MinExclusive {
			lob = "["
		}
	}
	hi, hib := "+inf", ")"
	if r.Max != nil {
		hi = trimFloat(*r.Max)
		if !r.MaxExclusive {
			hib = "]"
		}
	}
	return fmt.Sprintf("%s in %s%s, %s%s", r.Column, lob, lo, hi, hib)
}

// Allows reports whether the value satisfies the rule.
func (r RangeRule) Allows(v float64) bool {
	if r.AppliesAbove != nil && v <= *r.AppliesAbove {
		return true
	}
	if r.Min != nil {
		if r.MinExclusive && v <= *r.Min {
			return false
		}
		if !r.MinExclusive && v < *r.Min {
			return false
		}
	}
	if r.Max != nil {
		if r.MaxExclusive && v >= *r.Max {
			return false
		}
		if !r.MaxExclusive && v > *r.Max {
			return false
		}
	}
	return true
}

// RatioRule bounds one column relative to another: the numerator may not
// exceed MaxPct percent of the denominator. Rows where either side is
// missing or the denominator is not positive are skipped.
type RatioRule struct {
	Numerator   string         `yaml:"numerator"`
	Denominator string         `yaml:"denominator"`
	MaxPct      float64        `yaml:"max_pct"`
	Severity    model.Severity `yaml:"severity"`
	Message     string         `yaml:"message"`
}

// Name renders the rule for violation reports.
func (r RatioRule) Name() string {
	return fmt.Sprintf("%s <= %s%% of %s", r.Numerator, trimFloat(r.MaxPct), r.Denominator)
}

// DomainRule restricts a categorical column to a fixed catalog.
type DomainRule struct {
	Column   string         `yaml:"column"`
	Allowed  []string       `yaml:"allowed"`
	Severity model.Severity `yaml:"severity"`
}

// Name renders the rule for violation reports.
func (r DomainRule) Name() string {
	return fmt.Sprintf("%s in catalog", r.Column)
}

// Allows reports whether the value is in the catalog.
func (r DomainRule) Allows(v string) bool {
	for _, a := range r.Allowed {
		if a == v {
			return true
		}
	}
	return false
}

// Spec is the full contract for one dataset kind.
type Spec struct {
	Kind       Kind         `yaml:"-"`
	Required   []string     `yaml:"required"`
	Optional   []string     `yaml:"optional"`
	DateColumn string       `yaml:"date_column"`
	Categories []DomainRule `yaml:"categories"`
	Pairs      []MetricPair `yaml:"metric_pairs"`
	Ranges     []RangeRule  `yaml:"ranges"`
	Ratios     []RatioRule  `yaml:"ratios"`
}

// IsNumeric reports whether a column holds numbers: anything that is not
// the date column or a declared category.
func (s Spec) IsNumeric(column string) bool {
	if column == s.DateColumn {
		return false
	}
	for _, c := range s.Categories {
		if c.Column == column {
			return false
		}
	}
	return true
}

func trimFloat(v float64) string {
	out := fmt.Sprintf("%g", v)
	return out
}
