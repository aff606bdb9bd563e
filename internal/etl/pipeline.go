package etl

import (
	"context"
	"os"
	"sort"

	"go.uber.org/zap"

	"github.com/oleoflores/planta-cli/internal/model"
	"github.com/oleoflores/planta-cli/internal/schema"
	"github.com/oleoflores/planta-cli/internal/store"
)

// Pipeline wires the linear stage sequence together. It is stateless across
// invocations: each Run owns its table end to end, so independent files can
// be processed concurrently from the caller's side.
type Pipeline struct {
	reg       *schema.Registry
	cache     *store.Cache
	cleanOpts CleanOptions
	loadOpts  LoadOptions
	overwrite bool
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithCache enables content-addressed result memoization.
func WithCache(c *store.Cache) Option {
	return func(p *Pipeline) { p.cache = c }
}

// WithCleanOptions overrides the cleaning defaults.
func WithCleanOptions(opts CleanOptions) Option {
	return func(p *Pipeline) { p.cleanOpts = opts }
}

// WithLoadOptions overrides the loader defaults.
func WithLoadOptions(opts LoadOptions) Option {
	return func(p *Pipeline) { p.loadOpts = opts }
}

// WithOverwrite lets variance derivation replace existing derived columns,
// for inputs that already carry stale *_variacion/*_cumplimiento data.
func WithOverwrite(overwrite bool) Option {
	return func(p *Pipeline) { p.overwrite = overwrite }
}

// New creates a Pipeline over the given schema registry.
func New(reg *schema.Registry, opts ...Option) *Pipeline {
	p := &Pipeline{reg: reg}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run executes load → validate → clean → derive variance → check ranges for
// one source file and returns the enriched dataset. Only load and schema
// failures halt; cell-level problems degrade to warnings so one bad cell
// never hides thousands of good ones.
func (p *Pipeline) Run(ctx context.Context, path string, kind schema.Kind) (*model.Dataset, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &model.LoadError{Kind: model.LoadUnreadable, Source: path, Err: err}
	}
	return p.RunBytes(ctx, raw, path, kind)
}

// RunBytes is Run over in-memory source bytes.
func (p *Pipeline) RunBytes(ctx context.Context, raw []byte, source string, kind schema.Kind) (*model.Dataset, error) {
	log := zap.L().With(
		zap.String("component", "etl.pipeline"),
		zap.String("source", source),
		zap.String("kind", string(kind)),
	)

	spec, err := p.reg.Spec(kind)
	if err != nil {
		return nil, err
	}

	var hash string
	if p.cache != nil {
		hash = store.HashBytes(raw)
		if ds, ok, err := p.cache.Get(ctx, hash, string(kind)); err != nil {
			log.Warn("cache lookup failed, recomputing", zap.Error(err))
		} else if ok {
			log.Debug("cache hit", zap.String("hash", hash))
			// Identical bytes may arrive under a different name.
			ds.Source = source
			return ds, nil
		}
	}

	table, err := LoadBytes(ctx, raw, source, p.loadOpts)
	if err != nil {
		return nil, err
	}
	log.Info("loaded", zap.Int("rows", table.NumRows()), zap.Int("columns", len(table.Columns)))

	if err := NormalizeHeader(table, kind); err != nil {
		return nil, err
	}
	if err := Validate(table, spec); err != nil {
		return nil, err
	}

	cleaned, warnings := Clean(table, spec, p.cleanOpts)
	if len(warnings) > 0 {
		log.Warn("cleaning produced warnings", zap.Int("count", len(warnings)))
	}

	// Sort before deriving and checking so Violation and CleaningWarning row
	// indices refer to the table consumers actually see.
	perm := sortRows(cleaned, spec)
	for i := range warnings {
		warnings[i].Row = perm[warnings[i].Row]
	}

	enriched, err := DeriveVariance(cleaned, spec.Pairs, p.overwrite)
	if err != nil {
		return nil, err
	}

	violations := CheckRanges(enriched, spec)

	ds := &model.Dataset{
		Kind:       string(kind),
		Source:     source,
		Table:      enriched,
		Warnings:   warnings,
		Violations: violations,
	}

	if p.cache != nil {
		if err := p.cache.Put(ctx, hash, string(kind), ds); err != nil {
			log.Warn("cache store failed", zap.Error(err))
		}
	}

	log.Info("pipeline complete",
		zap.Int("rows", enriched.NumRows()),
		zap.Int("warnings", len(warnings)),
		zap.Int("violations", len(violations)),
	)
	return ds, nil
}

// sortRows orders rows by date, then by the first category column, and
// returns the old→new index mapping so row-indexed annotations can follow
// their rows. The sort is stable, so duplicate (fecha, categoría) keys keep
// file order and the later row wins wherever a consumer collapses by key.
func sortRows(t *model.Table, spec schema.Spec) []int {
	dateIdx := t.ColumnIndex(spec.DateColumn)
	catIdx := -1
	if len(spec.Categories) > 0 {
		catIdx = t.ColumnIndex(spec.Categories[0].Column)
	}

	order := make([]int, len(t.Rows))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		ri, rj := t.Rows[order[i]], t.Rows[order[j]]
		if dateIdx >= 0 {
			a, b := ri[dateIdx], rj[dateIdx]
			// Missing dates sort last.
			switch {
			case a.Kind == model.CellDate && b.Kind != model.CellDate:
				return true
			case a.Kind != model.CellDate && b.Kind == model.CellDate:
				return false
			case a.Kind == model.CellDate && b.Kind == model.CellDate:
				if !a.Date.Equal(b.Date) {
					return a.Date.Before(b.Date)
				}
			}
		}
		if catIdx >= 0 {
			a, b := ri[catIdx], rj[catIdx]
			if a.Kind == model.CellString && b.Kind == model.CellString {
				return a.Str < b.Str
			}
		}
		return false
	})

	rows := make([][]model.Cell, len(t.Rows))
	oldToNew := make([]int, len(t.Rows))
	for newPos, oldPos := range order {
		rows[newPos] = t.Rows[oldPos]
		oldToNew[oldPos] = newPos
	}
	t.Rows = rows
	return oldToNew
}
