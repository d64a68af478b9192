package notifier

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"stockwatch/internal/model"
)

// FormatAlert renders one alert as a plain-text line.
func FormatAlert(alert model.Alert) string {
	line := fmt.Sprintf("[%s] %s", strings.ToUpper(string(alert.Severity)), alert.Message)
	if alert.SuggestedAction != "" {
		line += " | " + alert.SuggestedAction
	}
	return line
}

// FormatPortfolioStatus renders a daily status summary.
func FormatPortfolioStatus(metrics model.PortfolioMetrics, valuation model.Valuation) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📊 Portfolio status | %s\n\n", time.Now().Format("2006-01-02")))
	b.WriteString(fmt.Sprintf("Market value: $%s\n", humanize.CommafWithDigits(valuation.Total, 2)))
	b.WriteString(fmt.Sprintf("Invested:     $%s\n", humanize.CommafWithDigits(metrics.TotalInvested, 2)))
	b.WriteString(fmt.Sprintf("Realized:     %+.2f\n", metrics.RealizedGains))
	b.WriteString(fmt.Sprintf("Unrealized:   %+.2f\n", metrics.UnrealizedGains))
	b.WriteString(fmt.Sprintf("Total return: %+.2f (%+.2f%%)\n", metrics.TotalReturn, metrics.TotalReturnPercent))
	b.WriteString(fmt.Sprintf("Positions:    %d | Trades: %d\n", len(valuation.Positions), metrics.NumberOfTrades))
	if len(valuation.Unpriced) > 0 {
		b.WriteString(fmt.Sprintf("Unpriced:     %s\n", strings.Join(valuation.Unpriced, ", ")))
	}
	return b.String()
}
