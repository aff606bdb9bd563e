package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/oleoflores/planta-cli/internal/etl"
	"github.com/oleoflores/planta-cli/internal/model"
	"github.com/oleoflores/planta-cli/internal/schema"
	"github.com/oleoflores/planta-cli/internal/store"
)

var (
	processFile      string
	processKind      string
	processAll       bool
	processOutput    string
	processFormat    string
	processNoCache   bool
	processOverwrite bool
)

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Run the full pipeline on a dataset file",
	Long: `Runs load → validate → clean → variance → range checks on one file
and prints a summary. With --output the enriched table is exported.

Examples:
  # Process the upstream file and export the enriched table
  planta-cli process --file data/upstream.csv --kind upstream --output enriched.csv

  # Both configured datasets, JSON to stdout
  planta-cli process --all --format json`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		pipe, closeCache, err := buildPipeline(processNoCache, processOverwrite)
		if err != nil {
			return err
		}
		defer closeCache()

		if processAll {
			return processConfigured(ctx, pipe)
		}

		if processFile == "" {
			return eris.New("process: --file is required (or pass --all)")
		}
		kind, err := schema.ParseKind(processKind)
		if err != nil {
			return err
		}

		ds, err := pipe.Run(ctx, processFile, kind)
		if err != nil {
			return err
		}
		return emitDataset(ds)
	},
}

// buildPipeline assembles the pipeline from config. The returned func closes
// the cache (a no-op when caching is off).
func buildPipeline(noCache, overwrite bool) (*etl.Pipeline, func(), error) {
	reg, err := loadRegistry()
	if err != nil {
		return nil, nil, err
	}

	opts := []etl.Option{
		etl.WithCleanOptions(etl.CleanOptions{
			ThousandsSep:    cfg.Clean.ThousandsSeparator,
			CurrencySymbols: cfg.Clean.CurrencySymbols,
		}),
		etl.WithOverwrite(overwrite),
	}

	closeCache := func() {}
	if cfg.Cache.Enabled && !noCache {
		cache, err := store.Open(cfg.Cache.Path)
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, etl.WithCache(cache))
		closeCache = func() { _ = cache.Close() }
	}

	return etl.New(reg, opts...), closeCache, nil
}

// processConfigured runs both standing dataset files in parallel.
func processConfigured(ctx context.Context, pipe *etl.Pipeline) error {
	targets := []struct {
		file string
		kind schema.Kind
	}{
		{cfg.Data.UpstreamFile, schema.Upstream},
		{cfg.Data.DownstreamFile, schema.Downstream},
	}

	results := make([]*model.Dataset, len(targets))
	g, gctx := errgroup.WithContext(ctx)
	for i, t := range targets {
		g.Go(func() error {
			ds, err := pipe.Run(gctx, t.file, t.kind)
			if err != nil {
				return eris.Wrapf(err, "process: %s", t.kind)
			}
			results[i] = ds
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, ds := range results {
		if err := emitDataset(ds); err != nil {
			return err
		}
	}
	return nil
}

func emitDataset(ds *model.Dataset) error {
	zap.L().Info("dataset processed",
		zap.String("kind", ds.Kind),
		zap.Int("rows", ds.Table.NumRows()),
		zap.Int("warnings", len(ds.Warnings)),
		zap.Int("errors", ds.ErrorCount()),
	)

	fmt.Printf("%s: %d filas, %d advertencias de limpieza, %d violaciones (%d errores)\n",
		ds.Kind, ds.Table.NumRows(), len(ds.Warnings), len(ds.Violations), ds.ErrorCount())
	for _, v := range ds.Violations {
		fmt.Printf("  [%s] fila %d %s=%s: %s\n", v.Severity, v.Row+1, v.Column, v.Value, v.Message)
	}

	if processOutput == "" && processFormat != "json" {
		return nil
	}

	exportOpts := etl.ExportOptions{
		DateLayout:     cfg.Export.DateLayout,
		Decimals:       cfg.Export.Decimals,
		GroupThousands: cfg.Export.GroupThousands,
		Locale:         cfg.Export.Locale,
	}

	if processFormat == "json" {
		out := os.Stdout
		if processOutput != "" {
			f, err := os.Create(processOutput)
			if err != nil {
				return eris.Wrapf(err, "process: create %s", processOutput)
			}
			defer f.Close()
			out = f
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(map[string]any{
			"kind":       ds.Kind,
			"records":    ds.Records(exportOpts.DateLayout),
			"warnings":   ds.Warnings,
			"violations": ds.Violations,
		}), "process: encode json")
	}

	f, err := os.Create(processOutput)
	if err != nil {
		return eris.Wrapf(err, "process: create %s", processOutput)
	}
	defer f.Close()
	return etl.ExportCSV(f, ds.Table, exportOpts)
}

func init() {
	processCmd.Flags().StringVar(&processFile, "file", "", "dataset file (csv or xlsx)")
	processCmd.Flags().StringVar(&processKind, "kind", "upstream", "dataset kind: upstream or downstream")
	processCmd.Flags().BoolVar(&processAll, "all", false, "process both configured dataset files")
	processCmd.Flags().StringVar(&processOutput, "output", "", "write the enriched table to this path")
	processCmd.Flags().StringVar(&processFormat, "format", "csv", "output format: csv or json")
	processCmd.Flags().BoolVar(&processNoCache, "no-cache", false, "skip the result cache")
	processCmd.Flags().BoolVar(&processOverwrite, "overwrite", false, "recompute derived columns already present in the input")
	rootCmd.AddCommand(processCmd)
}
