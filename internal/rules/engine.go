package rules

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"stockwatch/internal/model"
	"stockwatch/internal/quotes"
)

// Engine evaluates rules against live market data.
//
// Evaluation is level-triggered: a rule whose condition holds fires again on
// every pass until the condition clears or the rule is deactivated.
type Engine struct {
	quotes quotes.Source
	log    zerolog.Logger
}

// NewEngine creates a rule engine.
func NewEngine(src quotes.Source, log zerolog.Logger) *Engine {
	return &Engine{
		quotes: src,
		log:    log.With().Str("module", "rules").Logger(),
	}
}

// Evaluate checks one rule and returns an alert if it fired, or nil.
// Missing quote data is transient and yields no alert; a lookup fault yields
// an error-severity alert naming the symbol and rule.
func (e *Engine) Evaluate(rule Rule) *model.Alert {
	if !rule.Active() {
		return nil
	}
	symbol := rule.Symbol()

	price, err := e.quotes.GetPrice(symbol)
	if err != nil {
		return e.lookupFault(rule, err)
	}
	if price <= 0 {
		return nil
	}
	info, err := e.quotes.GetInfo(symbol)
	if err != nil {
		return e.lookupFault(rule, err)
	}

	switch r := rule.(type) {
	case PriceAlert:
		if r.Direction == Above && price >= r.TargetPrice {
			return e.alert(rule, model.SeverityWarning,
				fmt.Sprintf("%s has reached target price $%.2f (Current: $%.2f)", symbol, r.TargetPrice, price), "")
		}
		if r.Direction == Below && price <= r.TargetPrice {
			return e.alert(rule, model.SeverityWarning,
				fmt.Sprintf("%s has dropped to $%.2f (Current: $%.2f)", symbol, r.TargetPrice, price), "")
		}

	case StopLoss:
		if price <= r.StopPrice {
			return e.alert(rule, model.SeverityWarning,
				fmt.Sprintf("🚨 STOP LOSS TRIGGERED: %s at $%.2f (Stop: $%.2f)", symbol, price, r.StopPrice),
				fmt.Sprintf("Consider selling %g shares", r.Quantity))
		}

	case TakeProfit:
		if price >= r.TargetPrice {
			return e.alert(rule, model.SeveritySuccess,
				fmt.Sprintf("🎯 TAKE PROFIT: %s reached $%.2f (Current: $%.2f)", symbol, r.TargetPrice, price),
				fmt.Sprintf("Consider selling %g shares", r.Quantity))
		}

	case PercentageChangeAlert:
		change := info.DayChangePercent
		if r.Direction == Up && change >= r.Threshold {
			return e.alert(rule, model.SeverityInfo,
				fmt.Sprintf("📈 %s up %.2f%% today (Threshold: %.2f%%)", symbol, change, r.Threshold), "")
		}
		if r.Direction == Down && change <= -r.Threshold {
			return e.alert(rule, model.SeverityWarning,
				fmt.Sprintf("📉 %s down %.2f%% today (Threshold: %.2f%%)", symbol, math.Abs(change), r.Threshold), "")
		}

	case VolumeAlert:
		var ratio float64
		if info.AvgVolume > 0 {
			ratio = info.Volume / info.AvgVolume
		}
		if r.Comparison == Above && ratio >= r.Threshold {
			return e.alert(rule, model.SeverityInfo,
				fmt.Sprintf("📊 %s volume %.1fx average (Threshold: %.1fx)", symbol, ratio, r.Threshold), "")
		}
		if r.Comparison == Below && ratio <= r.Threshold {
			return e.alert(rule, model.SeverityInfo,
				fmt.Sprintf("📊 %s low volume %.1fx average (Threshold: %.1fx)", symbol, ratio, r.Threshold), "")
		}
	}
	return nil
}

// EvaluateAll checks every rule independently. One rule's failure never
// aborts the others.
func (e *Engine) EvaluateAll(all []Rule) []model.Alert {
	var alerts []model.Alert
	for _, rule := range all {
		if a := e.Evaluate(rule); a != nil {
			alerts = append(alerts, *a)
		}
	}
	return alerts
}

// Validate returns human-readable problems with a rule. A rule with any
// errors must not be admitted to the active rule set. The symbol itself is
// checked against the market data source; a failing lookup is itself a
// validation error rather than a silent accept.
func (e *Engine) Validate(rule Rule) []string {
	var errs []string

	symbol := rule.Symbol()
	if symbol == "" {
		errs = append(errs, "Symbol is required")
	}

	switch r := rule.(type) {
	case PriceAlert:
		if r.TargetPrice <= 0 {
			errs = append(errs, "Target price must be greater than 0")
		}
		if r.Direction != Above && r.Direction != Below {
			errs = append(errs, "Direction must be 'above' or 'below'")
		}
	case StopLoss:
		if r.StopPrice <= 0 {
			errs = append(errs, "Stop price must be greater than 0")
		}
	case TakeProfit:
		if r.TargetPrice <= 0 {
			errs = append(errs, "Target price must be greater than 0")
		}
	case PercentageChangeAlert:
		if r.Threshold <= 0 {
			errs = append(errs, "Percentage threshold must be greater than 0")
		}
		if r.Direction != Up && r.Direction != Down {
			errs = append(errs, "Direction must be 'up' or 'down'")
		}
	case VolumeAlert:
		if r.Threshold <= 0 {
			errs = append(errs, "Volume threshold must be greater than 0")
		}
		if r.Comparison != Above && r.Comparison != Below {
			errs = append(errs, "Comparison must be 'above' or 'below'")
		}
	default:
		errs = append(errs, "Rule type is required")
	}

	if symbol != "" && len(errs) == 0 {
		if _, err := e.quotes.GetInfo(symbol); err != nil {
			if errors.Is(err, quotes.ErrUnavailable) {
				errs = append(errs, fmt.Sprintf("Invalid symbol: %s", symbol))
			} else {
				errs = append(errs, fmt.Sprintf("Could not validate symbol: %s", symbol))
			}
		}
	}
	return errs
}

func (e *Engine) alert(rule Rule, severity model.Severity, message, action string) *model.Alert {
	return &model.Alert{
		Severity:        severity,
		Message:         message,
		RuleID:          rule.ID(),
		Symbol:          rule.Symbol(),
		Timestamp:       time.Now(),
		SuggestedAction: action,
	}
}

func (e *Engine) lookupFault(rule Rule, err error) *model.Alert {
	if errors.Is(err, quotes.ErrUnavailable) {
		// Transient data gap, skip this cycle.
		return nil
	}
	e.log.Error().Err(err).Str("rule_id", rule.ID()).Str("symbol", rule.Symbol()).Msg("rule evaluation lookup failed")
	return &model.Alert{
		Severity:  model.SeverityError,
		Message:   fmt.Sprintf("Error checking rule for %s: %v", rule.Symbol(), err),
		RuleID:    rule.ID(),
		Symbol:    rule.Symbol(),
		Timestamp: time.Now(),
	}
}
