// Package renderer builds markdown reports from reconstructed state and tax
// events.
package renderer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/andref/lotledger"
)

// HoldingsMarkdown renders the reconstructed portfolio state as a markdown
// report: one row per open position plus the cash and capital accumulators.
func HoldingsMarkdown(state *lotledger.State) string {
	var b strings.Builder

	fmt.Fprint(&b, "# Portfolio Holdings\n\n")
	fmt.Fprintln(&b, "| Asset | Name | Shares | Cost Basis | Avg Cost |")
	fmt.Fprintln(&b, "|:---|:---|---:|---:|---:|")

	for _, pos := range sortedPositions(state) {
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n",
			label(pos.Ticker, pos.AssetKey),
			pos.Name,
			pos.Shares,
			pos.CostBasis,
			pos.AverageCost(),
		)
	}

	fmt.Fprint(&b, "\n## Cash & Capital\n\n")
	fmt.Fprintln(&b, "| | |")
	fmt.Fprintln(&b, "|:---|---:|")
	fmt.Fprintf(&b, "| Cash balance | %s |\n", state.CashBalance)
	fmt.Fprintf(&b, "| Net deposits | %s |\n", state.NetDeposits)
	fmt.Fprintf(&b, "| Dividends | %s |\n", state.TotalDividends)
	fmt.Fprintf(&b, "| Interest | %s |\n", state.TotalInterest)
	fmt.Fprintf(&b, "| Fees | %s |\n", state.TotalFees)
	fmt.Fprintf(&b, "| Realized gains | %s |\n", state.RealizedGains.SignedString())

	appendDiagnostics(&b, state.Diagnostics)
	return b.String()
}

// TaxEventsMarkdown renders the realized disposals of a run.
func TaxEventsMarkdown(events []lotledger.TaxEvent, method lotledger.Method) string {
	var b strings.Builder

	fmt.Fprint(&b, "# Realized Tax Events\n\n")
	fmt.Fprintf(&b, "Method: %s\n\n", method)
	fmt.Fprintln(&b, "| Disposed | Asset | Acquired | Quantity | Proceeds | Cost Basis | Gain | Days |")
	fmt.Fprintln(&b, "|:---|:---|:---|---:|---:|---:|---:|---:|")

	var total lotledger.Money
	for _, e := range events {
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s | %s | %d |\n",
			e.DisposalDate,
			label(e.Ticker, e.AssetKey),
			e.AcquisitionDate,
			e.Quantity,
			e.Proceeds,
			e.CostBasis,
			e.RealizedGain.SignedString(),
			e.HoldingPeriodDays,
		)
		total = total.Add(e.RealizedGain)
	}
	fmt.Fprintf(&b, "| **Total** | | | | | | **%s** | |\n", total.SignedString())

	return b.String()
}

// LotsMarkdown renders the open lots remaining after a run, per asset.
func LotsMarkdown(lots map[string][]lotledger.TaxLot, method lotledger.Method) string {
	var b strings.Builder

	fmt.Fprint(&b, "# Open Lots\n\n")
	fmt.Fprintf(&b, "Method: %s\n\n", method)
	fmt.Fprintln(&b, "| Asset | Acquired | Remaining | Original | Cost Basis |")
	fmt.Fprintln(&b, "|:---|:---|---:|---:|---:|")

	keys := make([]string, 0, len(lots))
	for key := range lots {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		for _, lot := range lots[key] {
			fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n",
				key,
				lot.AcquisitionDate,
				lot.Quantity,
				lot.OriginalQuantity,
				lot.CostBasis,
			)
		}
	}
	return b.String()
}

func sortedPositions(state *lotledger.State) []*lotledger.Position {
	out := make([]*lotledger.Position, 0, len(state.Positions))
	for _, pos := range state.Positions {
		out = append(out, pos)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AssetKey < out[j].AssetKey })
	return out
}

func label(ticker, assetKey string) string {
	if ticker != "" {
		return ticker
	}
	return assetKey
}

func appendDiagnostics(b *strings.Builder, diags []lotledger.Diagnostic) {
	if len(diags) == 0 {
		return
	}
	fmt.Fprint(b, "\n## Diagnostics\n\n")
	for _, d := range diags {
		fmt.Fprintf(b, "- %s\n", d)
	}
}
