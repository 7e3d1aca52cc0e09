package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jobsift/enrich-cli/internal/enrich"
	"github.com/jobsift/enrich-cli/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server for enrichment triggers",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := openStore(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		scheduler, err := newScheduler(st, cfg)
		if err != nil {
			return err
		}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: newRouter(ctx, st, scheduler),
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			_ = srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// newRouter builds the HTTP API. runCtx outlives individual requests so an
// accepted enrichment run survives its trigger request.
func newRouter(runCtx context.Context, st store.Store, scheduler *enrich.Scheduler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	}))

	var running atomic.Bool

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/status", func(w http.ResponseWriter, req *http.Request) {
		source := req.URL.Query().Get("source")
		pending, err := st.CountPending(req.Context(), source)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "count pending failed"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"pending": pending,
			"running": running.Load(),
		})
	})

	r.Post("/enrich", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			Source string `json:"source"`
		}
		if req.Body != nil && req.ContentLength > 0 {
			if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
				return
			}
		}

		if !running.CompareAndSwap(false, true) {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "a run is already in progress"})
			return
		}

		// Run enrichment asynchronously
		go func() {
			defer running.Store(false)
			stats, err := scheduler.EnrichAllPending(runCtx, pendingOptions(cfg.Enrich, body.Source))
			if err != nil {
				zap.L().Error("triggered enrichment failed",
					zap.String("source", body.Source),
					zap.Error(err),
				)
				return
			}
			zap.L().Info("triggered enrichment complete",
				zap.Int("processed", stats.Processed),
				zap.Int("enriched", stats.Enriched),
				zap.Int("errors", stats.Errors),
			)
		}()

		writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
