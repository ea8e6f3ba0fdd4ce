//go:build !integration

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/insights-cli/internal/config"
	"github.com/sells-group/insights-cli/internal/crm"
	"github.com/sells-group/insights-cli/internal/ingest"
	"github.com/sells-group/insights-cli/internal/insights"
	"github.com/sells-group/insights-cli/internal/monitoring"
	"github.com/sells-group/insights-cli/internal/store"
)

// testEnv wires a full appEnv over a temp SQLite store, with no
// evaluator and no CRM providers registered.
func testEnv(t *testing.T) *appEnv {
	t.Helper()

	cfg = &config.Config{
		Insights:   config.InsightsConfig{DefaultWindowDays: 7, BatchConcurrency: 2},
		Monitoring: config.MonitoringConfig{LookbackWindowHours: 24},
	}

	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "serve.db"))
	require.NoError(t, err)
	require.NoError(t, st.Migrate(context.Background()))
	t.Cleanup(func() { _ = st.Close() })

	analyzer := insights.NewAnalyzer(st, nil, insights.AnalyzerConfig{})
	service := ingest.NewService(st, analyzer)
	registry := crm.NewRegistry()

	return &appEnv{
		Store:     st,
		Analyzer:  analyzer,
		Service:   service,
		Importer:  ingest.NewImporter(service, 0),
		Reporter:  insights.NewReporter(st),
		Registry:  registry,
		Router:    crm.NewRouter(registry, crm.SettingsSource(settingsSource(st))),
		Collector: monitoring.NewCollector(st),
		Alerter:   monitoring.NewAlerter(""),
	}
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestServeHealth(t *testing.T) {
	router := buildRouter(testEnv(t))

	rr := doJSON(t, router, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"ok"`)
}

func TestServeSubmitFeedback(t *testing.T) {
	router := buildRouter(testEnv(t))

	rr := doJSON(t, router, http.MethodPost, "/feedback", map[string]any{
		"feedback_text": "The dashboard is fantastic",
		"channel":       "web_form",
		"customer_id":   "cust-1",
		"rating":        5,
	})
	require.Equal(t, http.StatusCreated, rr.Code)

	var item struct {
		ID string `json:"feedback_id"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &item))
	assert.NotEmpty(t, item.ID)

	got := doJSON(t, router, http.MethodGet, "/feedback/"+item.ID, nil)
	assert.Equal(t, http.StatusOK, got.Code)
	assert.Contains(t, got.Body.String(), "cust-1")
}

func TestServeSubmitFeedbackValidation(t *testing.T) {
	router := buildRouter(testEnv(t))

	rr := doJSON(t, router, http.MethodPost, "/feedback", map[string]any{
		"channel": "web_form",
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "feedback_text")

	rr = doJSON(t, router, http.MethodPost, "/feedback", map[string]any{
		"feedback_text": "hi",
		"channel":       "web_form",
		"rating":        9,
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "out of range")
}

func TestServeAnalyzeFeedback(t *testing.T) {
	router := buildRouter(testEnv(t))

	rr := doJSON(t, router, http.MethodPost, "/feedback", map[string]any{
		"feedback_text": "Billing is a mess",
		"channel":       "email",
		"rating":        1,
	})
	require.Equal(t, http.StatusCreated, rr.Code)
	var item struct {
		ID string `json:"feedback_id"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &item))

	an := doJSON(t, router, http.MethodPost, "/feedback/"+item.ID+"/analyze", nil)
	require.Equal(t, http.StatusOK, an.Code)

	var obs struct {
		Score float64 `json:"sentiment_score"`
		Label string  `json:"sentiment_label"`
	}
	require.NoError(t, json.Unmarshal(an.Body.Bytes(), &obs))
	assert.Equal(t, 0.2, obs.Score)
	assert.Equal(t, "negative", obs.Label)
}

func TestServeConfigRoundTrip(t *testing.T) {
	router := buildRouter(testEnv(t))

	rr := doJSON(t, router, http.MethodPut, "/config", map[string]string{
		"auto_process_feedback": "true",
		"negative_threshold":    "0.25",
	})
	require.Equal(t, http.StatusOK, rr.Code)

	get := doJSON(t, router, http.MethodGet, "/config", nil)
	require.Equal(t, http.StatusOK, get.Code)

	var effective map[string]string
	require.NoError(t, json.Unmarshal(get.Body.Bytes(), &effective))
	assert.Equal(t, "true", effective["auto_process_feedback"])
	assert.Equal(t, "0.25", effective["negative_threshold"])
	assert.Equal(t, "false", effective["crm_enabled"])
}

func TestServeConfigUnknownKey(t *testing.T) {
	router := buildRouter(testEnv(t))

	rr := doJSON(t, router, http.MethodPut, "/config", map[string]string{
		"nonsense": "1",
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "unknown setting")
}

func TestServeTrendsEmptyWindow(t *testing.T) {
	router := buildRouter(testEnv(t))

	rr := doJSON(t, router, http.MethodGet, "/insights/trends?days=7", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "insufficient_data")
}

func TestServeReportRoundTrip(t *testing.T) {
	router := buildRouter(testEnv(t))

	rr := doJSON(t, router, http.MethodPost, "/reports", map[string]any{"days": 7})
	require.Equal(t, http.StatusCreated, rr.Code)

	var artifact struct {
		ID string `json:"report_id"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &artifact))
	require.NotEmpty(t, artifact.ID)

	get := doJSON(t, router, http.MethodGet, "/reports/"+artifact.ID, nil)
	assert.Equal(t, http.StatusOK, get.Code)

	list := doJSON(t, router, http.MethodGet, "/reports", nil)
	assert.Equal(t, http.StatusOK, list.Code)
	assert.Contains(t, list.Body.String(), artifact.ID)
}

func TestServeCRMActionDisabled(t *testing.T) {
	router := buildRouter(testEnv(t))

	rr := doJSON(t, router, http.MethodPost, "/crm/actions", map[string]any{
		"action": crm.ActionCreateTask,
		"data":   map[string]any{"subject": "Follow up"},
	})
	require.Equal(t, http.StatusOK, rr.Code)

	var result crm.Result
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &result))
	assert.Equal(t, crm.StatusDisabled, result.Status)
}

func TestServeCRMActionMissingAction(t *testing.T) {
	router := buildRouter(testEnv(t))

	rr := doJSON(t, router, http.MethodPost, "/crm/actions", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
