package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/oleoflores/planta-cli/internal/model"
	"github.com/oleoflores/planta-cli/internal/schema"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve processed datasets as JSON for the dashboard",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		pipe, closeCache, err := buildPipeline(false, false)
		if err != nil {
			return err
		}
		defer closeCache()

		r := chi.NewRouter()
		r.Use(middleware.RequestID)
		r.Use(middleware.Recoverer)
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.Server.CORSOrigins,
			AllowedMethods: []string{http.MethodGet},
		}))

		r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		r.Get("/api/datasets/{kind}", func(w http.ResponseWriter, req *http.Request) {
			kind, err := schema.ParseKind(chi.URLParam(req, "kind"))
			if err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
				return
			}

			file := cfg.Data.UpstreamFile
			if kind == schema.Downstream {
				file = cfg.Data.DownstreamFile
			}

			ds, err := pipe.Run(req.Context(), file, kind)
			if err != nil {
				status := http.StatusInternalServerError
				var loadErr *model.LoadError
				var schemaErr *model.SchemaError
				if errors.As(err, &loadErr) || errors.As(err, &schemaErr) {
					status = http.StatusUnprocessableEntity
				}
				zap.L().Error("dataset request failed", zap.String("kind", string(kind)), zap.Error(err))
				writeJSON(w, status, map[string]string{"error": err.Error()})
				return
			}

			writeJSON(w, http.StatusOK, map[string]any{
				"kind":       ds.Kind,
				"records":    ds.Records(cfg.Export.DateLayout),
				"warnings":   ds.Warnings,
				"violations": ds.Violations,
			})
		})

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}
		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() { errCh <- srv.ListenAndServe() }()
		zap.L().Info("serving datasets", zap.Int("port", port))

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		}
	},
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "listen port (overrides config)")
	rootCmd.AddCommand(serveCmd)
}
