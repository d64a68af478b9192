package rules

import (
	"fmt"

	"stockwatch/internal/model"
)

// ToRecord flattens a rule into its persisted form.
func ToRecord(r Rule) model.RuleRecord {
	rec := model.RuleRecord{
		ID:        r.ID(),
		Type:      string(r.Kind()),
		Symbol:    r.Symbol(),
		Active:    r.Active(),
		CreatedAt: r.CreatedAt(),
	}
	switch v := r.(type) {
	case PriceAlert:
		rec.TargetPrice = v.TargetPrice
		rec.AlertType = string(v.Direction)
	case StopLoss:
		rec.StopPrice = v.StopPrice
		rec.Quantity = v.Quantity
	case TakeProfit:
		rec.TargetPrice = v.TargetPrice
		rec.Quantity = v.Quantity
	case PercentageChangeAlert:
		rec.PercentageThreshold = v.Threshold
		rec.Direction = string(v.Direction)
	case VolumeAlert:
		rec.VolumeThreshold = v.Threshold
		rec.Comparison = string(v.Comparison)
	}
	return rec
}

// FromRecord rebuilds a typed rule from its persisted form.
func FromRecord(rec model.RuleRecord) (Rule, error) {
	base := Base{
		RuleID:     rec.ID,
		RuleSymbol: rec.Symbol,
		Created:    rec.CreatedAt,
		Enabled:    rec.Active,
	}
	switch Kind(rec.Type) {
	case KindPriceAlert:
		return PriceAlert{Base: base, TargetPrice: rec.TargetPrice, Direction: Direction(rec.AlertType)}, nil
	case KindStopLoss:
		return StopLoss{Base: base, StopPrice: rec.StopPrice, Quantity: rec.Quantity}, nil
	case KindTakeProfit:
		return TakeProfit{Base: base, TargetPrice: rec.TargetPrice, Quantity: rec.Quantity}, nil
	case KindPercentageChange:
		return PercentageChangeAlert{Base: base, Threshold: rec.PercentageThreshold, Direction: Direction(rec.Direction)}, nil
	case KindVolumeAlert:
		return VolumeAlert{Base: base, Threshold: rec.VolumeThreshold, Comparison: Direction(rec.Comparison)}, nil
	default:
		return nil, fmt.Errorf("unknown rule type %q", rec.Type)
	}
}
