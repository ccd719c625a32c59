package notifier

import (
	"fmt"
	"sort"
	"strings"

	"github.com/r464r64r/FractalTrader-sub001/internal/model"
	"github.com/r464r64r/FractalTrader-sub001/internal/risk"
)

// FormatSignal renders one trade signal as a Telegram message.
func FormatSignal(sig *model.Signal) string {
	var b strings.Builder

	arrow := "🟢 LONG"
	if sig.Direction == model.Short {
		arrow = "🔴 SHORT"
	}
	b.WriteString(fmt.Sprintf("%s <b>%s</b> | %s\n", arrow, sig.Symbol, sig.Time.Format("2006-01-02 15:04")))
	b.WriteString(fmt.Sprintf("Strategy: %s\n", sig.Strategy))
	b.WriteString(fmt.Sprintf("Confidence: %.0f/100\n\n", sig.Confidence))

	b.WriteString(fmt.Sprintf("Entry:  %.4f\n", sig.EntryPrice))
	b.WriteString(fmt.Sprintf("Stop:   %.4f\n", sig.StopLoss))
	b.WriteString(fmt.Sprintf("Target: %.4f\n", sig.TakeProfit))
	b.WriteString(fmt.Sprintf("RR:     %.2f\n", sig.RiskReward()))

	if size, ok := sig.Metadata["size"]; ok && size > 0 {
		b.WriteString(fmt.Sprintf("Size:   %.6f units\n", size))
	}

	if len(sig.Metadata) > 0 {
		keys := make([]string, 0, len(sig.Metadata))
		for k := range sig.Metadata {
			if k == "size" || k == "rr" {
				continue
			}
			keys = append(keys, k)
		}
		sort.Strings(keys)
		if len(keys) > 0 {
			b.WriteString("\n")
			for _, k := range keys {
				b.WriteString(fmt.Sprintf("  %s: %.4f\n", k, sig.Metadata[k]))
			}
		}
	}
	return b.String()
}

// FormatPortfolioStatus renders the portfolio state for the /status command.
func FormatPortfolioStatus(st risk.PortfolioState) string {
	var b strings.Builder
	b.WriteString("📦 <b>Portfolio</b>\n\n")
	b.WriteString(fmt.Sprintf("Value: %.2f\n", st.Value))
	b.WriteString(fmt.Sprintf("Win streak: %d\n", st.ConsecutiveWins))
	b.WriteString(fmt.Sprintf("Loss streak: %d\n", st.ConsecutiveLosses))
	if !st.UpdatedAt.IsZero() {
		b.WriteString(fmt.Sprintf("Updated: %s\n", st.UpdatedAt.Format("2006-01-02 15:04")))
	}
	return b.String()
}
