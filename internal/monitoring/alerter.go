package monitoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/insights-cli/internal/config"
)

// AlertType identifies the kind of alert.
type AlertType string

const (
	AlertLowSentiment  AlertType = "low_sentiment"
	AlertNegativeSpike AlertType = "negative_spike"
)

// minSamplesForAlert avoids alerting on statistically meaningless windows.
const minSamplesForAlert = 5

// Alert represents a single alert to be sent.
type Alert struct {
	Type      AlertType      `json:"type"`
	Severity  string         `json:"severity"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Alerter evaluates a MetricsSnapshot against the runtime sentiment
// thresholds and sends alerts via webhook when they are breached.
type Alerter struct {
	webhookURL string
	client     *http.Client
}

// NewAlerter creates an Alerter posting to the given webhook URL. An
// empty URL disables delivery but not evaluation.
func NewAlerter(webhookURL string) *Alerter {
	return &Alerter{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

// Evaluate checks the snapshot against the settings thresholds and
// returns any alerts.
func (a *Alerter) Evaluate(snap *MetricsSnapshot, settings config.Settings) []Alert {
	var alerts []Alert
	now := time.Now().UTC()

	if snap.TotalObservations < minSamplesForAlert {
		return nil
	}

	if snap.AverageSentiment < settings.NegativeThreshold {
		alerts = append(alerts, Alert{
			Type:     AlertLowSentiment,
			Severity: "high",
			Message: fmt.Sprintf(
				"Average sentiment %.3f fell below threshold %.2f over the last %dh (%d observations)",
				snap.AverageSentiment, settings.NegativeThreshold,
				snap.LookbackHours, snap.TotalObservations,
			),
			Details: map[string]any{
				"average_sentiment": snap.AverageSentiment,
				"threshold":         settings.NegativeThreshold,
				"observations":      snap.TotalObservations,
			},
			Timestamp: now,
		})
	}

	if snap.Distribution.Negative*2 > snap.TotalObservations {
		alerts = append(alerts, Alert{
			Type:     AlertNegativeSpike,
			Severity: "medium",
			Message: fmt.Sprintf(
				"%d of %d observations in the last %dh are negative",
				snap.Distribution.Negative, snap.TotalObservations, snap.LookbackHours,
			),
			Details: map[string]any{
				"negative": snap.Distribution.Negative,
				"total":    snap.TotalObservations,
			},
			Timestamp: now,
		})
	}

	return alerts
}

// SendAlerts delivers alerts to the configured webhook URL.
// Returns the number of alerts successfully sent.
func (a *Alerter) SendAlerts(ctx context.Context, alerts []Alert) int {
	if a.webhookURL == "" || len(alerts) == 0 {
		return 0
	}

	sent := 0
	for _, alert := range alerts {
		if err := a.sendWebhook(ctx, alert); err != nil {
			zap.L().Error("monitoring: failed to send alert",
				zap.String("type", string(alert.Type)),
				zap.Error(err),
			)
			continue
		}
		zap.L().Info("monitoring: alert sent",
			zap.String("type", string(alert.Type)),
			zap.String("severity", alert.Severity),
		)
		sent++
	}
	return sent
}

// sendWebhook posts a single alert to the webhook URL.
func (a *Alerter) sendWebhook(ctx context.Context, alert Alert) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return eris.Wrap(err, "monitoring: marshal alert")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return eris.Wrap(err, "monitoring: create webhook request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return eris.Wrap(err, "monitoring: webhook request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= 400 {
		return eris.Errorf("monitoring: webhook returned status %d", resp.StatusCode)
	}
	return nil
}
