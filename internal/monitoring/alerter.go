package monitoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/trustgate/internal/config"
	"github.com/sells-group/trustgate/internal/resilience"
)

// AlertType identifies the kind of alert.
type AlertType string

const (
	AlertDontKnowRate       AlertType = "dont_know_rate"
	AlertWebhookFailureRate AlertType = "webhook_failure_rate"
	AlertDeadLetterDepth    AlertType = "dead_letter_depth"
	AlertBreakerOpen        AlertType = "breaker_open"
)

// Alert represents a single alert to be sent.
type Alert struct {
	Type      AlertType      `json:"type"`
	Severity  string         `json:"severity"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Alerter evaluates a Snapshot against configured thresholds and sends
// alerts via webhook when thresholds are breached.
type Alerter struct {
	cfg    config.MonitoringConfig
	client *http.Client
}

// NewAlerter creates a new Alerter with the given monitoring config.
func NewAlerter(cfg config.MonitoringConfig) *Alerter {
	return &Alerter{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Evaluate checks the snapshot against thresholds and returns any alerts.
func (a *Alerter) Evaluate(snap *Snapshot) []Alert {
	var alerts []Alert
	now := time.Now().UTC()

	minSamples := a.cfg.MinSamples
	if minSamples <= 0 {
		minSamples = 5
	}

	// Dont-know rate across generated decisions.
	generated := intStat(snap.Decisions, "prompts_generated")
	dontKnowRate := floatStat(snap.Decisions, "dont_know_rate")
	if generated >= minSamples && dontKnowRate > a.cfg.DontKnowRateThreshold {
		alerts = append(alerts, Alert{
			Type:     AlertDontKnowRate,
			Severity: "high",
			Message: fmt.Sprintf(
				"Dont-know rate %.1f%% exceeds threshold %.1f%% (%d decisions generated)",
				dontKnowRate*100, a.cfg.DontKnowRateThreshold*100, generated,
			),
			Details: map[string]any{
				"dont_know_rate": dontKnowRate,
				"threshold":      a.cfg.DontKnowRateThreshold,
				"generated":      generated,
			},
			Timestamp: now,
		})
	}

	// Webhook failure rate across terminal outcomes.
	processed := intStat(snap.Webhooks, "total_processed")
	failed := intStat(snap.Webhooks, "total_failed")
	terminal := processed + failed
	if terminal >= minSamples {
		failureRate := float64(failed) / float64(terminal)
		if failureRate > a.cfg.FailureRateThreshold {
			alerts = append(alerts, Alert{
				Type:     AlertWebhookFailureRate,
				Severity: "high",
				Message: fmt.Sprintf(
					"Webhook failure rate %.1f%% exceeds threshold %.1f%% (%d failed / %d terminal)",
					failureRate*100, a.cfg.FailureRateThreshold*100, failed, terminal,
				),
				Details: map[string]any{
					"failure_rate": failureRate,
					"threshold":    a.cfg.FailureRateThreshold,
					"failed":       failed,
					"terminal":     terminal,
				},
				Timestamp: now,
			})
		}
	}

	// Dead-letter depth.
	if a.cfg.DeadLetterThreshold > 0 && snap.DLQDepth >= a.cfg.DeadLetterThreshold {
		alerts = append(alerts, Alert{
			Type:     AlertDeadLetterDepth,
			Severity: "high",
			Message: fmt.Sprintf(
				"Dead-letter queue depth %d at or above threshold %d",
				snap.DLQDepth, a.cfg.DeadLetterThreshold,
			),
			Details: map[string]any{
				"depth":     snap.DLQDepth,
				"threshold": a.cfg.DeadLetterThreshold,
			},
			Timestamp: now,
		})
	}

	// Open circuit breakers, one alert per tripped source.
	names := make([]string, 0, len(snap.Breakers))
	for name := range snap.Breakers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if snap.Breakers[name] != string(resilience.BreakerOpen) {
			continue
		}
		alerts = append(alerts, Alert{
			Type:     AlertBreakerOpen,
			Severity: "critical",
			Message:  fmt.Sprintf("Circuit breaker for source %s is open", name),
			Details: map[string]any{
				"source": name,
				"state":  snap.Breakers[name],
			},
			Timestamp: now,
		})
	}

	return alerts
}

// SendAlerts delivers alerts to the configured webhook URL.
// Returns the number of alerts successfully sent.
func (a *Alerter) SendAlerts(ctx context.Context, alerts []Alert) int {
	if a.cfg.AlertWebhookURL == "" || len(alerts) == 0 {
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

// Run starts the periodic check loop against the collector. It blocks
// until ctx is cancelled.
func (a *Alerter) Run(ctx context.Context, collector *Collector) {
	interval := time.Duration(a.cfg.CheckIntervalSecs) * time.Second
	if interval <= 0 {
		interval = time.Minute
	}

	log := zap.L().With(zap.String("component", "monitoring.alerter"))
	log.Info("starting alert checker", zap.Duration("interval", interval))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("alert checker stopped")
			return
		case <-ticker.C:
			alerts := a.Evaluate(collector.Collect())
			if len(alerts) == 0 {
				log.Debug("monitoring: no alerts triggered")
				continue
			}
			sent := a.SendAlerts(ctx, alerts)
			log.Info("monitoring: alert check complete",
				zap.Int("alerts_triggered", len(alerts)),
				zap.Int("alerts_sent", sent),
			)
		}
	}
}

// sendWebhook posts a single alert to the webhook URL.
func (a *Alerter) sendWebhook(ctx context.Context, alert Alert) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return eris.Wrap(err, "monitoring: marshal alert")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.AlertWebhookURL, bytes.NewReader(payload))
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

// intStat reads an integer counter from a metrics snapshot section.
func intStat(stats map[string]any, key string) int {
	if v, ok := stats[key].(int); ok {
		return v
	}
	return 0
}

// floatStat reads a float gauge from a metrics snapshot section.
func floatStat(stats map[string]any, key string) float64 {
	if v, ok := stats[key].(float64); ok {
		return v
	}
	return 0
}
