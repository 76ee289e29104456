package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/trustgate/internal/conflict"
	"github.com/sells-group/trustgate/internal/decision"
	"github.com/sells-group/trustgate/internal/model"
	"github.com/sells-group/trustgate/internal/monitoring"
	"github.com/sells-group/trustgate/internal/webhook"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the decision and webhook ingest server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initApp(ctx, "serve")
		if err != nil {
			return err
		}
		defer env.Close()

		handler, inflight := buildMux(ctx, env, cfg.Webhook.Secret, cfg.Decision.DefaultContainer)

		if cfg.Monitoring.AlertWebhookURL != "" {
			alerter := monitoring.NewAlerter(cfg.Monitoring)
			go alerter.Run(ctx, env.Collector)
		}

		port := resolvePort(servePort, cfg.Server.Port)
		shutdownTimeout := time.Duration(cfg.Server.ShutdownTimeoutSecs) * time.Second

		return startServer(ctx, handler, port, shutdownTimeout, inflight)
	},
}

// resolvePort prefers the --port flag over the configured port.
func resolvePort(flag, configured int) int {
	if flag != 0 {
		return flag
	}
	return configured
}

// buildMux assembles the HTTP surface. The returned WaitGroup counts
// webhook events handed to background processing so shutdown can drain
// them.
func buildMux(ctx context.Context, env *appEnv, secret, defaultContainer string) (http.Handler, *sync.WaitGroup) {
	inflight := &sync.WaitGroup{}

	var verifier webhook.Verifier
	if secret != "" {
		verifier = webhook.NewHMACVerifier(secret)
	}

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Webhook-Signature"},
	}))
	r.Use(logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/v1/decision", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			Query      string        `json:"query"`
			Container  string        `json:"container"`
			Filters    model.Payload `json:"filters"`
			Threshold  float64       `json:"confidence_threshold"`
			Strictness string        `json:"strictness_level"`
			AutoDetect *bool         `json:"auto_detect_strictness"`
			UseCache   bool          `json:"use_cache"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if body.Query == "" {
			writeError(w, http.StatusBadRequest, "query is required")
			return
		}
		tier, err := model.ParseStrictness(body.Strictness)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		container := body.Container
		if container == "" {
			container = defaultContainer
		}
		autoDetect := true
		if body.AutoDetect != nil {
			autoDetect = *body.AutoDetect
		}

		records := env.Engine.Retrieve(req.Context(), container, body.Filters)
		d := env.Engine.Generate(decision.Request{
			Query:      body.Query,
			Threshold:  body.Threshold,
			Strictness: tier,
			AutoDetect: autoDetect,
			UseCache:   body.UseCache,
		}, records)

		writeJSON(w, http.StatusOK, d)
	})

	r.Post("/v1/conflicts", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			Records []model.ScoredRecord `json:"records"`
			Field   string               `json:"field_name"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		writeJSON(w, http.StatusOK, conflict.Detect(body.Records, body.Field))
	})

	r.Post("/v1/validate", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			Query    string               `json:"query"`
			Response string               `json:"llm_response"`
			Records  []model.ScoredRecord `json:"records"`
			Strict   bool                 `json:"strict"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if body.Query == "" {
			writeError(w, http.StatusBadRequest, "query is required")
			return
		}

		check := decision.CheckResponse(body.Query, body.Response, body.Records, env.Engine.Threshold(), body.Strict)
		writeJSON(w, http.StatusOK, check)
	})

	r.Post("/webhook/{source}", func(w http.ResponseWriter, req *http.Request) {
		body, err := io.ReadAll(req.Body)
		if err != nil {
			writeError(w, http.StatusBadRequest, "unreadable request body")
			return
		}

		if verifier != nil && !verifier.Verify(body, req.Header.Get("X-Webhook-Signature")) {
			writeError(w, http.StatusForbidden, "invalid signature")
			return
		}

		pathKind := model.ParseSourceKind(chi.URLParam(req, "source"))
		if !pathKind.Known() {
			writeError(w, http.StatusBadRequest, "unknown source")
			return
		}

		var event model.WebhookEvent
		if err := json.Unmarshal(body, &event); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if event.Source == "" {
			event.Source = pathKind
		} else if event.Source != pathKind {
			writeError(w, http.StatusBadRequest, "source in path and body do not agree")
			return
		}
		if event.ReceivedAt.IsZero() {
			event.ReceivedAt = time.Now().UTC()
		}

		delivery := uuid.NewString()
		zap.L().Info("webhook event accepted",
			zap.String("delivery", delivery),
			zap.String("source", string(event.Source)),
			zap.String("event_type", event.Kind.String()),
			zap.String("record_id", event.RecordID),
		)

		inflight.Add(1)
		go func() {
			defer inflight.Done()
			// Server shutdown must not abort in-flight retries; the
			// drain window in startServer bounds them instead.
			result := env.Processor.Process(context.WithoutCancel(ctx), event)
			if !result.Success {
				zap.L().Warn("webhook event finished unsuccessfully",
					zap.String("delivery", delivery),
					zap.String("error", result.Error),
				)
			}
		}()

		writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
	})

	r.Get("/v1/stats", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, env.Collector.Collect())
	})

	r.Delete("/v1/cache", func(w http.ResponseWriter, _ *http.Request) {
		cleared := env.Store.Size()
		env.Store.Clear()
		zap.L().Info("decision cache cleared", zap.Int("entries", cleared))
		writeJSON(w, http.StatusOK, map[string]int{"cleared": cleared})
	})

	return r, inflight
}

// startServer runs the HTTP server until ctx is cancelled, then shuts it
// down and drains in-flight webhook events, both bounded by
// shutdownTimeout.
func startServer(ctx context.Context, handler http.Handler, port int, shutdownTimeout time.Duration, inflight *sync.WaitGroup) error {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: handler,
	}

	go func() {
		<-ctx.Done()
		zap.L().Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	zap.L().Info("starting server", zap.Int("port", port))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return eris.Wrap(err, "server listen")
	}

	if inflight != nil {
		done := make(chan struct{})
		go func() {
			inflight.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(shutdownTimeout):
			zap.L().Warn("webhook drain timed out")
		}
	}

	return nil
}

// logRequests logs one line per request with the zap global logger.
func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		zap.L().Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
