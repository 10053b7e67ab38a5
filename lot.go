package lotledger

import (
	"fmt"

	"github.com/google/uuid"
)

// TaxLot is one acquisition parcel held inside a matching strategy. Quantity
// and CostBasis are consumed in lock step: a partial disposal removes the
// same fraction from both, so a lot's average unit cost never drifts as it
// shrinks.
type TaxLot struct {
	LotID            string   `json:"lotId"`
	AssetKey         string   `json:"assetKey"`
	AcquisitionDate  Date     `json:"acquisitionDate"`
	Quantity         Quantity `json:"quantity"`         // remaining shares, > 0 while open
	OriginalQuantity Quantity `json:"originalQuantity"` // shares at acquisition
	CostBasis        Money    `json:"costBasis"`        // basis of the remaining shares
	Fees             Money    `json:"fees"`             // fees attached to the remaining shares
}

// newTaxLot opens a lot from an acquiring transaction.
func newTaxLot(t Transaction, basis, fees Money) TaxLot {
	return TaxLot{
		LotID:            uuid.NewString(),
		AssetKey:         t.AssetKey(),
		AcquisitionDate:  t.Date,
		Quantity:         t.Shares,
		OriginalQuantity: t.Shares,
		CostBasis:        basis,
		Fees:             fees,
	}
}

// consume removes qty shares from the lot and returns the basis and fees
// carried by them, pro-rated on the remaining quantity. qty must not exceed
// the lot's remaining quantity.
func (l *TaxLot) consume(qty Quantity) (basis, fees Money) {
	fraction := qty.Div(l.Quantity)
	basis = l.CostBasis.Mul(fraction)
	fees = l.Fees.Mul(fraction)
	l.Quantity = l.Quantity.Sub(qty)
	l.CostBasis = l.CostBasis.Sub(basis)
	l.Fees = l.Fees.Sub(fees)
	return basis, fees
}

// exhausted reports whether the lot has no shares left within tolerance.
func (l *TaxLot) exhausted() bool {
	return l.Quantity.Decimal().Abs().LessThanOrEqual(tolerance)
}

func (l TaxLot) String() string {
	return fmt.Sprintf("%s %s acquired %s: %s shares, basis %s",
		l.LotID[:8], l.AssetKey, l.AcquisitionDate, l.Quantity, l.CostBasis.Decimal())
}
