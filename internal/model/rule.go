package model

import "time"

// RuleRecord is the flat, JSON-serializable form of a trading rule, as
// persisted by the store. Only the fields relevant to a rule's type are set.
// The rules package converts between records and typed rule variants.
type RuleRecord struct {
	ID                  string    `json:"id"`
	Type                string    `json:"type"`
	Symbol              string    `json:"symbol"`
	TargetPrice         float64   `json:"target_price,omitempty"`
	StopPrice           float64   `json:"stop_price,omitempty"`
	AlertType           string    `json:"alert_type,omitempty"`
	PercentageThreshold float64   `json:"percentage_threshold,omitempty"`
	Direction           string    `json:"direction,omitempty"`
	VolumeThreshold     float64   `json:"volume_threshold,omitempty"`
	Comparison          string    `json:"comparison,omitempty"`
	Quantity            float64   `json:"quantity,omitempty"`
	Active              bool      `json:"active"`
	CreatedAt           time.Time `json:"created_at"`
}
