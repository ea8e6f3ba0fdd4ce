package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/insights-cli/internal/config"
	"github.com/sells-group/insights-cli/internal/ingest"
	"github.com/sells-group/insights-cli/internal/insights"
	"github.com/sells-group/insights-cli/internal/monitoring"
	"github.com/sells-group/insights-cli/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the feedback API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		checker := monitoring.NewChecker(env.Collector, env.Alerter,
			monitoring.SettingsSource(settingsSource(env.Store)), cfg.Monitoring)
		go checker.Run(ctx)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: buildRouter(env),
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx) //nolint:errcheck
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

// buildRouter assembles the HTTP API. Split out from serveCmd so tests
// can drive it with httptest.
func buildRouter(env *appEnv) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "Authorization"},
	}))

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/feedback", func(r chi.Router) {
		r.Post("/", handleSubmitFeedback(env))
		r.Get("/", handleListFeedback(env))
		r.Post("/import", handleImportFeedback(env))
		r.Get("/{id}", handleGetFeedback(env))
		r.Post("/{id}/analyze", handleAnalyzeFeedback(env))
	})

	r.Get("/config", handleGetConfig(env))
	r.Put("/config", handlePutConfig(env))

	r.Route("/insights", func(r chi.Router) {
		r.Get("/", handleInsightsSummary(env))
		r.Get("/trends", handleTrends(env))
	})

	r.Route("/reports", func(r chi.Router) {
		r.Post("/", handleGenerateReport(env))
		r.Get("/", handleListReports(env))
		r.Get("/{id}", handleGetReport(env))
	})

	r.Post("/crm/actions", handleCRMAction(env))

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func handleSubmitFeedback(env *appEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		var sub ingest.Submission
		if err := json.NewDecoder(req.Body).Decode(&sub); err != nil {
			writeError(w, http.StatusBadRequest, eris.New("invalid request body"))
			return
		}
		if err := sub.Validate(); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}

		item, err := env.Service.Submit(req.Context(), sub)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusCreated, item)
	}
}

func handleListFeedback(env *appEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		q := req.URL.Query()
		filter := store.FeedbackFilter{
			CustomerID: q.Get("customer_id"),
			Channel:    q.Get("channel"),
			Origin:     q.Get("origin"),
			Limit:      queryInt(q.Get("limit"), 50),
			Offset:     queryInt(q.Get("offset"), 0),
		}

		items, err := env.Store.ListFeedback(req.Context(), filter)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items, "count": len(items)})
	}
}

func handleGetFeedback(env *appEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		id := chi.URLParam(req, "id")
		item, err := env.Store.GetFeedback(req.Context(), id)
		if err != nil {
			writeError(w, http.StatusNotFound, eris.Errorf("feedback %s not found", id))
			return
		}

		resp := map[string]any{"feedback": item}
		if obs, err := env.Store.GetObservation(req.Context(), id); err == nil {
			resp["observation"] = obs
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func handleAnalyzeFeedback(env *appEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		id := chi.URLParam(req, "id")
		obs, err := env.Service.Process(req.Context(), id)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, obs)
	}
}

func handleImportFeedback(env *appEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			Source  string `json:"source"`
			Format  string `json:"format,omitempty"`
			Charset string `json:"charset,omitempty"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil || body.Source == "" {
			writeError(w, http.StatusBadRequest, eris.New("source is required"))
			return
		}

		result, err := env.Importer.Import(req.Context(), body.Source, ingest.ImportOptions{
			Format:  body.Format,
			Charset: body.Charset,
		})
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

func handleGetConfig(env *appEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		raw, err := env.Store.AllSettings(req.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, config.ParseSettings(raw).Raw())
	}
}

func handlePutConfig(env *appEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		var updates map[string]string
		if err := json.NewDecoder(req.Body).Decode(&updates); err != nil {
			writeError(w, http.StatusBadRequest, eris.New("invalid request body"))
			return
		}

		for key := range updates {
			if !config.IsSettingKey(key) {
				writeError(w, http.StatusBadRequest, eris.Errorf("unknown setting: %s", key))
				return
			}
		}
		for key, value := range updates {
			if err := env.Store.PutSetting(req.Context(), key, value); err != nil {
				writeError(w, http.StatusInternalServerError, err)
				return
			}
		}

		raw, err := env.Store.AllSettings(req.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, config.ParseSettings(raw).Raw())
	}
}

func handleInsightsSummary(env *appEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		hours := queryInt(req.URL.Query().Get("hours"), cfg.Monitoring.LookbackWindowHours)
		snap, err := env.Collector.Collect(req.Context(), hours)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, snap)
	}
}

func handleTrends(env *appEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		q := req.URL.Query()
		days := queryInt(q.Get("days"), cfg.Insights.DefaultWindowDays)
		criteria := insights.WindowEndingNow(days, q.Get("customer_id"))

		report, err := env.Reporter.Trends(req.Context(), criteria)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, report)
	}
}

func handleGenerateReport(env *appEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			Days       int    `json:"days,omitempty"`
			CustomerID string `json:"customer_id,omitempty"`
		}
		if req.ContentLength > 0 {
			if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
				writeError(w, http.StatusBadRequest, eris.New("invalid request body"))
				return
			}
		}
		if body.Days <= 0 {
			body.Days = cfg.Insights.DefaultWindowDays
		}

		artifact, err := env.Reporter.Generate(req.Context(), insights.WindowEndingNow(body.Days, body.CustomerID))
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusCreated, artifact)
	}
}

func handleListReports(env *appEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		limit := queryInt(req.URL.Query().Get("limit"), 20)
		reports, err := env.Store.ListReports(req.Context(), limit)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"reports": reports, "count": len(reports)})
	}
}

func handleGetReport(env *appEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		id := chi.URLParam(req, "id")
		artifact, err := env.Store.GetReport(req.Context(), id)
		if err != nil {
			writeError(w, http.StatusNotFound, eris.Errorf("report %s not found", id))
			return
		}
		writeJSON(w, http.StatusOK, artifact)
	}
}

func handleCRMAction(env *appEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			Action string         `json:"action"`
			Data   map[string]any `json:"data,omitempty"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil || body.Action == "" {
			writeError(w, http.StatusBadRequest, eris.New("action is required"))
			return
		}

		result, err := env.Router.Dispatch(req.Context(), body.Action, body.Data)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

func queryInt(raw string, def int) int {
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return def
	}
	return n
}
