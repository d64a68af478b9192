// Package notifier delivers alerts to their destinations. Sinks are fire and
// forget; a failing sink never blocks rule evaluation.
package notifier

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"stockwatch/internal/model"
)

// Sink receives fired alerts.
type Sink interface {
	Notify(alert model.Alert) error
	Name() string
}

// LogSink writes alerts to the structured log.
type LogSink struct {
	log zerolog.Logger
}

// NewLogSink creates a sink that logs alerts at a level matching their
// severity.
func NewLogSink(log zerolog.Logger) *LogSink {
	return &LogSink{log: log.With().Str("module", "alerts").Logger()}
}

func (s *LogSink) Name() string { return "log" }

func (s *LogSink) Notify(alert model.Alert) error {
	event := s.log.Info()
	switch alert.Severity {
	case model.SeverityWarning:
		event = s.log.Warn()
	case model.SeverityError:
		event = s.log.Error()
	}
	event = event.Str("rule_id", alert.RuleID).Str("symbol", alert.Symbol)
	if alert.SuggestedAction != "" {
		event = event.Str("action", alert.SuggestedAction)
	}
	event.Msg(alert.Message)
	return nil
}

// WebhookSink posts alerts as JSON to an HTTP endpoint.
type WebhookSink struct {
	url    string
	client *http.Client
}

// NewWebhookSink creates a webhook sink.
func NewWebhookSink(url string) *WebhookSink {
	return &WebhookSink{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *WebhookSink) Name() string { return "webhook" }

func (s *WebhookSink) Notify(alert model.Alert) error {
	body, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("marshal alert: %w", err)
	}
	resp, err := s.client.Post(s.url, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("post alert: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("webhook error: status %d, body: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

// Dispatch sends one alert to every sink, logging failures instead of
// propagating them.
func Dispatch(alert model.Alert, sinks []Sink, log zerolog.Logger) {
	for _, sink := range sinks {
		if err := sink.Notify(alert); err != nil {
			log.Warn().Err(err).Str("sink", sink.Name()).Str("rule_id", alert.RuleID).Msg("alert delivery failed")
		}
	}
}
