package lotledger

import "github.com/shopspring/decimal"

// tolerance is the absolute threshold under which a quantity or a cost basis
// is considered exhausted.
var tolerance = decimal.New(1, -6) // 1e-6

// Position is the current aggregate holding of one asset, maintained by the
// moving-average replay. It blends all historical purchases into one running
// cost; it is used for display and valuation, not for tax reporting.
type Position struct {
	AssetKey string
	Ticker   string
	ISIN     string
	Name     string
	Asset    AssetType

	Shares    Quantity
	CostBasis Money // total cost of the currently held quantity, reporting currency
}

// AverageCost returns the blended cost per share; zero when no shares are held.
func (p *Position) AverageCost() Money {
	if !p.Shares.IsPositive() {
		return M(0, p.CostBasis.Currency())
	}
	return p.CostBasis.Div(p.Shares)
}

// closed reports whether the position is exhausted within tolerance.
func (p *Position) closed() bool {
	return p.Shares.Decimal().Abs().LessThanOrEqual(tolerance)
}
