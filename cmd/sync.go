package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/oleoflores/planta-cli/internal/fetcher"
)

var syncConcurrency int

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Download the configured remote data files into the data directory",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if len(cfg.Sync.Sources) == 0 {
			return eris.New("sync: no sources configured (sync.sources)")
		}
		if err := os.MkdirAll(cfg.Data.Dir, 0o755); err != nil {
			return eris.Wrapf(err, "sync: create data dir %s", cfg.Data.Dir)
		}

		httpF := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
			Timeout:    time.Duration(cfg.Sync.TimeoutSecs) * time.Second,
			MaxRetries: cfg.Sync.MaxRetries,
			RatePerSec: cfg.Sync.RatePerSec,
		})
		ftpF := fetcher.NewFTPFetcher(fetcher.FTPOptions{
			Timeout: time.Duration(cfg.Sync.TimeoutSecs) * time.Second,
		})

		log := zap.L().With(zap.String("component", "sync"))

		g, gctx := errgroup.WithContext(cmd.Context())
		g.SetLimit(syncConcurrency)
		for _, src := range cfg.Sync.Sources {
			g.Go(func() error {
				f, err := fetcher.ForURL(src.URL, httpF, ftpF)
				if err != nil {
					return eris.Wrapf(err, "sync: source %s", src.Name)
				}
				dest := filepath.Join(cfg.Data.Dir, src.Name)
				start := time.Now()
				n, err := f.DownloadToFile(gctx, src.URL, dest)
				if err != nil {
					return eris.Wrapf(err, "sync: download %s", src.Name)
				}
				log.Info("source synced",
					zap.String("name", src.Name),
					zap.Int64("bytes", n),
					zap.Duration("elapsed", time.Since(start)),
				)
				fmt.Printf("%s: %d bytes\n", dest, n)
				return nil
			})
		}
		return g.Wait()
	},
}

func init() {
	syncCmd.Flags().IntVar(&syncConcurrency, "concurrency", 3, "parallel downloads")
	rootCmd.AddCommand(syncCmd)
}
