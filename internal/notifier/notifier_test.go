package notifier

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"stockwatch/internal/model"
)

func TestFormatAlert(t *testing.T) {
	alert := model.Alert{
		Severity:        model.SeverityWarning,
		Message:         "🚨 STOP LOSS TRIGGERED: AAPL at $149.00 (Stop: $150.00)",
		SuggestedAction: "Consider selling 10 shares",
	}
	line := FormatAlert(alert)
	if !strings.HasPrefix(line, "[WARNING]") {
		t.Errorf("expected severity prefix, got %q", line)
	}
	if !strings.Contains(line, "Consider selling 10 shares") {
		t.Errorf("expected suggested action, got %q", line)
	}

	plain := FormatAlert(model.Alert{Severity: model.SeverityInfo, Message: "hi"})
	if strings.Contains(plain, "|") {
		t.Errorf("no action separator without an action: %q", plain)
	}
}

func TestFormatPortfolioStatus(t *testing.T) {
	metrics := model.PortfolioMetrics{
		TotalInvested:      10000,
		TotalCurrentValue:  12500.50,
		RealizedGains:      300,
		UnrealizedGains:    2200.5,
		TotalReturn:        2500.5,
		TotalReturnPercent: 25.0,
		NumberOfTrades:     7,
	}
	valuation := model.Valuation{
		Total:    12500.50,
		Unpriced: []string{"DELISTED"},
	}
	status := FormatPortfolioStatus(metrics, valuation)
	if !strings.Contains(status, "12,500.50") {
		t.Errorf("expected humanized market value, got %q", status)
	}
	if !strings.Contains(status, "DELISTED") {
		t.Errorf("expected unpriced symbols listed, got %q", status)
	}
	if !strings.Contains(status, "+25.00%") {
		t.Errorf("expected signed return percent, got %q", status)
	}
}

func TestWebhookSink(t *testing.T) {
	var received model.Alert
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("expected JSON content type, got %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	sink := NewWebhookSink(srv.URL)
	alert := model.Alert{Severity: model.SeverityWarning, Message: "test", Symbol: "AAPL", RuleID: "r1", Timestamp: time.Now()}
	if err := sink.Notify(alert); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if received.Symbol != "AAPL" || received.RuleID != "r1" {
		t.Errorf("webhook payload lost fields: %+v", received)
	}
}

func TestWebhookSink_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	sink := NewWebhookSink(srv.URL)
	if err := sink.Notify(model.Alert{Message: "test"}); err == nil {
		t.Error("expected error for non-2xx response")
	}
}

func TestDispatch_FailingSinkDoesNotBlock(t *testing.T) {
	failing := NewWebhookSink("http://127.0.0.1:1/unreachable")
	logSink := NewLogSink(zerolog.Nop())

	// Must not panic or propagate the webhook failure.
	Dispatch(model.Alert{Severity: model.SeverityInfo, Message: "test"}, []Sink{failing, logSink}, zerolog.Nop())
}
