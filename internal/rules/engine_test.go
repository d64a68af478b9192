package rules

import (
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"stockwatch/internal/model"
	"stockwatch/internal/quotes"
)

func sourceWith(price float64, info *model.StockInfo) *quotes.MockSource {
	return &quotes.MockSource{
		Prices: map[string]float64{"AAPL": price},
		Infos:  map[string]*model.StockInfo{"AAPL": info},
	}
}

func TestEvaluate_StopLoss(t *testing.T) {
	engine := NewEngine(sourceWith(179, &model.StockInfo{}), zerolog.Nop())
	rule := NewStopLoss("AAPL", 180, 10)

	alert := engine.Evaluate(rule)
	if alert == nil {
		t.Fatal("expected stop loss to fire at 179 with stop 180")
	}
	if alert.Severity != model.SeverityWarning {
		t.Errorf("expected warning severity, got %q", alert.Severity)
	}
	if !strings.Contains(alert.Message, "STOP LOSS TRIGGERED") {
		t.Errorf("unexpected message: %q", alert.Message)
	}
	if !strings.Contains(alert.SuggestedAction, "selling 10 shares") {
		t.Errorf("unexpected action: %q", alert.SuggestedAction)
	}
	if alert.RuleID != rule.ID() || alert.Symbol != "AAPL" {
		t.Errorf("alert must name its rule and symbol: %+v", alert)
	}

	engine = NewEngine(sourceWith(181, &model.StockInfo{}), zerolog.Nop())
	if a := engine.Evaluate(rule); a != nil {
		t.Errorf("stop loss must not fire above the stop, got %+v", a)
	}
}

func TestEvaluate_TakeProfit(t *testing.T) {
	engine := NewEngine(sourceWith(205, &model.StockInfo{}), zerolog.Nop())
	rule := NewTakeProfit("AAPL", 200, 5)

	alert := engine.Evaluate(rule)
	if alert == nil {
		t.Fatal("expected take profit to fire at 205 with target 200")
	}
	if alert.Severity != model.SeveritySuccess {
		t.Errorf("expected success severity, got %q", alert.Severity)
	}
	if !strings.Contains(alert.Message, "TAKE PROFIT") {
		t.Errorf("unexpected message: %q", alert.Message)
	}
}

func TestEvaluate_PriceAlertDirections(t *testing.T) {
	above := NewPriceAlert("AAPL", 150, Above)
	below := NewPriceAlert("AAPL", 150, Below)

	engine := NewEngine(sourceWith(155, &model.StockInfo{}), zerolog.Nop())
	if a := engine.Evaluate(above); a == nil {
		t.Error("above-alert must fire at 155 with target 150")
	}
	if a := engine.Evaluate(below); a != nil {
		t.Errorf("below-alert must not fire at 155, got %+v", a)
	}

	engine = NewEngine(sourceWith(145, &model.StockInfo{}), zerolog.Nop())
	if a := engine.Evaluate(above); a != nil {
		t.Errorf("above-alert must not fire at 145, got %+v", a)
	}
	if a := engine.Evaluate(below); a == nil {
		t.Error("below-alert must fire at 145 with target 150")
	}
}

func TestEvaluate_PercentageChange(t *testing.T) {
	down := NewPercentageChangeAlert("AAPL", 5, Down)
	up := NewPercentageChangeAlert("AAPL", 5, Up)

	engine := NewEngine(sourceWith(100, &model.StockInfo{DayChangePercent: -6}), zerolog.Nop())
	alert := engine.Evaluate(down)
	if alert == nil {
		t.Fatal("down-alert must fire at -6% with threshold 5%")
	}
	if alert.Severity != model.SeverityWarning {
		t.Errorf("expected warning for a drop, got %q", alert.Severity)
	}
	if !strings.Contains(alert.Message, "down 6.00%") {
		t.Errorf("message should report the absolute move: %q", alert.Message)
	}
	if a := engine.Evaluate(up); a != nil {
		t.Errorf("up-alert must not fire on a drop, got %+v", a)
	}

	engine = NewEngine(sourceWith(100, &model.StockInfo{DayChangePercent: -4}), zerolog.Nop())
	if a := engine.Evaluate(down); a != nil {
		t.Errorf("down-alert must not fire at -4%% with threshold 5%%, got %+v", a)
	}

	engine = NewEngine(sourceWith(100, &model.StockInfo{DayChangePercent: 7}), zerolog.Nop())
	alert = engine.Evaluate(up)
	if alert == nil {
		t.Fatal("up-alert must fire at +7% with threshold 5%")
	}
	if alert.Severity != model.SeverityInfo {
		t.Errorf("expected info for a gain, got %q", alert.Severity)
	}
}

func TestEvaluate_VolumeAlert(t *testing.T) {
	rule := NewVolumeAlert("AAPL", 2, Above)

	engine := NewEngine(sourceWith(100, &model.StockInfo{Volume: 3_000_000, AvgVolume: 1_000_000}), zerolog.Nop())
	alert := engine.Evaluate(rule)
	if alert == nil {
		t.Fatal("expected volume alert at 3x average with threshold 2x")
	}
	if !strings.Contains(alert.Message, "3.0x") {
		t.Errorf("message should report the ratio: %q", alert.Message)
	}

	engine = NewEngine(sourceWith(100, &model.StockInfo{Volume: 1_500_000, AvgVolume: 1_000_000}), zerolog.Nop())
	if a := engine.Evaluate(rule); a != nil {
		t.Errorf("must not fire at 1.5x with threshold 2x, got %+v", a)
	}
}

func TestEvaluate_VolumeAlertNoAverage(t *testing.T) {
	// Ratio degrades to zero when the source reports no average volume.
	engine := NewEngine(sourceWith(100, &model.StockInfo{Volume: 5_000_000}), zerolog.Nop())

	if a := engine.Evaluate(NewVolumeAlert("AAPL", 2, Above)); a != nil {
		t.Errorf("above-comparison must not fire with no average volume, got %+v", a)
	}
	if a := engine.Evaluate(NewVolumeAlert("AAPL", 0.5, Below)); a == nil {
		t.Error("below-comparison fires at ratio zero")
	}
}

func TestEvaluate_InactiveRule(t *testing.T) {
	engine := NewEngine(sourceWith(100, &model.StockInfo{}), zerolog.Nop())
	rule := NewStopLoss("AAPL", 180, 10)
	rule.Enabled = false

	if a := engine.Evaluate(rule); a != nil {
		t.Errorf("inactive rule must never fire, got %+v", a)
	}
}

func TestEvaluate_UnavailableSymbolIsSilent(t *testing.T) {
	engine := NewEngine(&quotes.MockSource{}, zerolog.Nop())
	if a := engine.Evaluate(NewStopLoss("GHOST", 180, 10)); a != nil {
		t.Errorf("missing quote data must yield no alert, got %+v", a)
	}
}

func TestEvaluate_LookupFaultRaisesErrorAlert(t *testing.T) {
	engine := NewEngine(&quotes.MockSource{Err: errors.New("connection refused")}, zerolog.Nop())
	rule := NewStopLoss("AAPL", 180, 10)

	alert := engine.Evaluate(rule)
	if alert == nil {
		t.Fatal("source fault must surface as an alert")
	}
	if alert.Severity != model.SeverityError {
		t.Errorf("expected error severity, got %q", alert.Severity)
	}
	if !strings.Contains(alert.Message, "Error checking rule for AAPL") {
		t.Errorf("unexpected message: %q", alert.Message)
	}
	if alert.RuleID != rule.ID() {
		t.Error("fault alert must name the failing rule")
	}
}

func TestEvaluateAll_IndependentRules(t *testing.T) {
	engine := NewEngine(sourceWith(179, &model.StockInfo{}), zerolog.Nop())
	all := []Rule{
		NewStopLoss("AAPL", 180, 10),  // fires
		NewStopLoss("GHOST", 50, 1),   // unavailable, silent
		NewTakeProfit("AAPL", 500, 5), // not reached
	}
	alerts := engine.EvaluateAll(all)
	if len(alerts) != 1 {
		t.Fatalf("expected exactly 1 alert, got %d", len(alerts))
	}
	if alerts[0].Symbol != "AAPL" {
		t.Errorf("wrong alert: %+v", alerts[0])
	}
}

func TestValidate_RejectsBadParameters(t *testing.T) {
	engine := NewEngine(sourceWith(100, &model.StockInfo{}), zerolog.Nop())

	cases := []struct {
		name string
		rule Rule
	}{
		{"zero target", NewPriceAlert("AAPL", 0, Above)},
		{"bad price direction", NewPriceAlert("AAPL", 100, Up)},
		{"zero stop", NewStopLoss("AAPL", 0, 10)},
		{"zero take-profit target", NewTakeProfit("AAPL", 0, 10)},
		{"zero percentage threshold", NewPercentageChangeAlert("AAPL", 0, Down)},
		{"bad percentage direction", NewPercentageChangeAlert("AAPL", 5, Above)},
		{"zero volume threshold", NewVolumeAlert("AAPL", 0, Above)},
		{"bad volume comparison", NewVolumeAlert("AAPL", 2, Up)},
		{"empty symbol", NewStopLoss("", 100, 10)},
	}
	for _, tc := range cases {
		if problems := engine.Validate(tc.rule); len(problems) == 0 {
			t.Errorf("%s: expected validation problems", tc.name)
		}
	}
}

func TestValidate_SymbolChecks(t *testing.T) {
	engine := NewEngine(sourceWith(100, &model.StockInfo{}), zerolog.Nop())
	if problems := engine.Validate(NewStopLoss("AAPL", 150, 10)); len(problems) != 0 {
		t.Errorf("valid rule rejected: %v", problems)
	}

	problems := engine.Validate(NewStopLoss("GHOST", 150, 10))
	if len(problems) != 1 || problems[0] != "Invalid symbol: GHOST" {
		t.Errorf("expected invalid-symbol problem, got %v", problems)
	}

	engine = NewEngine(&quotes.MockSource{Err: errors.New("timeout")}, zerolog.Nop())
	problems = engine.Validate(NewStopLoss("AAPL", 150, 10))
	if len(problems) != 1 || problems[0] != "Could not validate symbol: AAPL" {
		t.Errorf("expected could-not-validate problem, got %v", problems)
	}
}
