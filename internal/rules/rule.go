// Package rules defines user trading rules and evaluates them against live
// market data to produce alerts.
package rules

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"stockwatch/internal/model"
)

// Kind tags a rule variant.
type Kind string

const (
	KindPriceAlert       Kind = "price_alert"
	KindStopLoss         Kind = "stop_loss"
	KindTakeProfit       Kind = "take_profit"
	KindPercentageChange Kind = "percentage_change"
	KindVolumeAlert      Kind = "volume_alert"
)

// Direction is a comparison side for price alerts ("above"/"below") and
// percentage-change alerts ("up"/"down").
type Direction string

const (
	Above Direction = "above"
	Below Direction = "below"
	Up    Direction = "up"
	Down  Direction = "down"
)

// Rule is the common surface of all rule variants. Concrete behavior lives in
// exhaustive type switches in the engine, not behind this interface.
type Rule interface {
	ID() string
	Symbol() string
	Kind() Kind
	Active() bool
	CreatedAt() time.Time
	Summary() string
}

// Base carries the fields shared by every variant.
type Base struct {
	RuleID     string
	RuleSymbol string
	Created    time.Time
	Enabled    bool
}

func (b Base) ID() string           { return b.RuleID }
func (b Base) Symbol() string       { return b.RuleSymbol }
func (b Base) Active() bool         { return b.Enabled }
func (b Base) CreatedAt() time.Time { return b.Created }

func newBase(kind Kind, symbol string) Base {
	symbol = model.NormalizeSymbol(symbol)
	return Base{
		RuleID:     fmt.Sprintf("%s_%s_%s", kind, symbol, uuid.NewString()),
		RuleSymbol: symbol,
		Created:    time.Now(),
		Enabled:    true,
	}
}

// PriceAlert fires when the price crosses a target in the given direction.
type PriceAlert struct {
	Base
	TargetPrice float64
	Direction   Direction // Above or Below
}

func NewPriceAlert(symbol string, targetPrice float64, direction Direction) PriceAlert {
	return PriceAlert{Base: newBase(KindPriceAlert, symbol), TargetPrice: targetPrice, Direction: direction}
}

func (r PriceAlert) Kind() Kind { return KindPriceAlert }
func (r PriceAlert) Summary() string {
	return fmt.Sprintf("Alert when %s goes %s $%.2f", r.RuleSymbol, r.Direction, r.TargetPrice)
}

// StopLoss fires when the price drops to or below the stop price.
type StopLoss struct {
	Base
	StopPrice float64
	Quantity  float64 // held quantity the suggested action refers to
}

func NewStopLoss(symbol string, stopPrice, quantity float64) StopLoss {
	return StopLoss{Base: newBase(KindStopLoss, symbol), StopPrice: stopPrice, Quantity: quantity}
}

func (r StopLoss) Kind() Kind { return KindStopLoss }
func (r StopLoss) Summary() string {
	return fmt.Sprintf("Stop loss for %s at $%.2f", r.RuleSymbol, r.StopPrice)
}

// TakeProfit fires when the price rises to or above the target price.
type TakeProfit struct {
	Base
	TargetPrice float64
	Quantity    float64
}

func NewTakeProfit(symbol string, targetPrice, quantity float64) TakeProfit {
	return TakeProfit{Base: newBase(KindTakeProfit, symbol), TargetPrice: targetPrice, Quantity: quantity}
}

func (r TakeProfit) Kind() Kind { return KindTakeProfit }
func (r TakeProfit) Summary() string {
	return fmt.Sprintf("Take profit for %s at $%.2f", r.RuleSymbol, r.TargetPrice)
}

// PercentageChangeAlert fires on a day move beyond a threshold percent.
type PercentageChangeAlert struct {
	Base
	Threshold float64   // percent, must be positive
	Direction Direction // Up or Down
}

func NewPercentageChangeAlert(symbol string, threshold float64, direction Direction) PercentageChangeAlert {
	return PercentageChangeAlert{Base: newBase(KindPercentageChange, symbol), Threshold: threshold, Direction: direction}
}

func (r PercentageChangeAlert) Kind() Kind { return KindPercentageChange }
func (r PercentageChangeAlert) Summary() string {
	return fmt.Sprintf("Alert when %s moves %s %.1f%%", r.RuleSymbol, r.Direction, r.Threshold)
}

// VolumeAlert fires when volume relative to average crosses a ratio.
type VolumeAlert struct {
	Base
	Threshold  float64   // ratio of volume to average volume, must be positive
	Comparison Direction // Above or Below
}

func NewVolumeAlert(symbol string, threshold float64, comparison Direction) VolumeAlert {
	return VolumeAlert{Base: newBase(KindVolumeAlert, symbol), Threshold: threshold, Comparison: comparison}
}

func (r VolumeAlert) Kind() Kind { return KindVolumeAlert }
func (r VolumeAlert) Summary() string {
	return fmt.Sprintf("Alert when %s volume is %s %.1fx average", r.RuleSymbol, r.Comparison, r.Threshold)
}
