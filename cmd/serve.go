package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/deep-research/internal/framework"
	"github.com/sells-group/deep-research/internal/model"
)

var servePort int

// runStarter starts a run and returns its progress stream.
type runStarter func(ctx context.Context, frameworkName, topic string, opts runOptions) <-chan model.Update

type runRequest struct {
	Framework    string `json:"framework"`
	Topic        string `json:"topic"`
	EnableCritic *bool  `json:"enable_critic,omitempty"`
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve research runs over HTTP, streaming progress as NDJSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(cfg, "serve")
		if err != nil {
			return err
		}
		defer env.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           buildRouter(env.start, env.table, cfg.Server.CORSOrigins, cfg.Research.EnableCritic),
			ReadHeaderTimeout: 10 * time.Second,
			// Runs inherit the server context so shutdown cancels them.
			BaseContext: func(net.Listener) context.Context { return ctx },
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}
		return nil
	},
}

func buildRouter(start runStarter, table framework.Table, origins []string, criticDefault bool) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/frameworks", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, table)
	})

	r.Post("/runs", func(w http.ResponseWriter, r *http.Request) {
		var req runRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
		req.Topic = strings.TrimSpace(req.Topic)
		if req.Topic == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "topic is required"})
			return
		}
		opts := runOptions{EnableCritic: criticDefault}
		if req.EnableCritic != nil {
			opts.EnableCritic = *req.EnableCritic
		}

		log := zap.L().With(
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("framework", req.Framework),
		)
		log.Info("run requested", zap.String("topic", req.Topic))

		w.Header().Set("Content-Type", "application/x-ndjson")
		w.Header().Set("Cache-Control", "no-cache")
		w.WriteHeader(http.StatusOK)
		flusher, _ := w.(http.Flusher)
		enc := json.NewEncoder(w)

		// The request context ends the run when the client disconnects.
		for u := range start(r.Context(), req.Framework, req.Topic, opts) {
			if err := enc.Encode(u); err != nil {
				log.Warn("stream write failed", zap.Error(err))
				continue
			}
			if flusher != nil {
				flusher.Flush()
			}
		}
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
