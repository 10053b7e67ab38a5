package lotledger

import (
	"github.com/shopspring/decimal"
)

// SplitAdjuster supplies cumulative split ratios so a transaction history can
// be normalized to post-split share counts before replay. Implementations
// typically wrap a corporate actions feed; the engines only consume the
// interface.
type SplitAdjuster interface {
	// CumulativeRatio returns the product of all split ratios announced for
	// the asset after asOf, i.e. the factor that converts shares held on asOf
	// into today's share count. Assets with no splits return 1.
	CumulativeRatio(assetKey string, asOf Date) decimal.Decimal
}

// ApplySplitAdjustments returns a copy of the transactions with share counts
// and per-share prices normalized through the adjuster. Totals are cash that
// actually moved and are never rescaled.
func ApplySplitAdjustments(transactions []Transaction, adjuster SplitAdjuster) []Transaction {
	out := make([]Transaction, len(transactions))
	copy(out, transactions)
	if adjuster == nil {
		return out
	}
	for i, t := range out {
		if !t.HasAsset() || t.Shares.IsZero() {
			continue
		}
		ratio := adjuster.CumulativeRatio(t.AssetKey(), t.Date)
		if ratio.Equal(decimal.New(1, 0)) || ratio.IsZero() {
			continue
		}
		out[i].Shares = Q(t.Shares.Decimal().Mul(ratio))
		out[i].Price = M(t.Price.Decimal().Div(ratio), t.Price.Currency())
	}
	return out
}
