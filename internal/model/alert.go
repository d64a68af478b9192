package model

import "time"

// Severity grades an alert for display.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Alert is produced when a trading rule condition is met. Alerts are
// transient: they are rebuilt on every evaluation pass and never persisted.
type Alert struct {
	Severity        Severity  `json:"type"`
	Message         string    `json:"message"`
	RuleID          string    `json:"rule_id"`
	Symbol          string    `json:"symbol"`
	Timestamp       time.Time `json:"timestamp"`
	SuggestedAction string    `json:"action_suggested,omitempty"`
}
