package lotledger

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TaxEvent is one realized disposal matched against a specific acquisition.
// A FIFO sell spanning several lots produces several events; a weighted
// average sell produces exactly one.
type TaxEvent struct {
	EventID           string
	AssetKey          string
	Ticker            string
	ISIN              string
	DisposalDate      Date
	AcquisitionDate   Date
	Quantity          Quantity
	Proceeds          Money
	CostBasis         Money
	Fees              Money
	RealizedGain      Money
	HoldingPeriodDays int
	Method            Method

	// seq orders events sharing the same disposal date and asset so a rerun
	// reproduces the exact same sequence.
	seq int
}

func newTaxEvent(t Transaction, lot Date, qty Quantity, proceeds, basis, fees Money, method Method, seq int) TaxEvent {
	return TaxEvent{
		EventID:           uuid.NewString(),
		AssetKey:          t.AssetKey(),
		Ticker:            t.Ticker,
		ISIN:              t.ISIN,
		DisposalDate:      t.Date,
		AcquisitionDate:   lot,
		Quantity:          qty,
		Proceeds:          proceeds,
		CostBasis:         basis,
		Fees:              fees,
		RealizedGain:      proceeds.Sub(basis).Sub(fees),
		HoldingPeriodDays: lot.DaysBetween(t.Date),
		Method:            method,
		seq:               seq,
	}
}

// LongTerm reports whether the matched holding period exceeds one year.
func (e TaxEvent) LongTerm() bool { return e.HoldingPeriodDays > 365 }

// GainPerShare returns the realized gain per disposed share.
func (e TaxEvent) GainPerShare() decimal.Decimal {
	if e.Quantity.IsZero() {
		return decimal.Zero
	}
	return e.RealizedGain.Div(e.Quantity).Decimal()
}

// MarshalJSON implements the json.Marshaler interface with a stable field order.
func (e TaxEvent) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("eventId", e.EventID)
	w.Append("assetKey", e.AssetKey)
	w.Optional("ticker", e.Ticker)
	w.Optional("isin", e.ISIN)
	w.Append("disposalDate", e.DisposalDate)
	w.Append("acquisitionDate", e.AcquisitionDate)
	w.Append("quantity", e.Quantity)
	w.Append("proceeds", e.Proceeds)
	w.Append("costBasis", e.CostBasis)
	if !e.Fees.IsZero() {
		w.Append("fees", e.Fees)
	}
	w.Append("realizedGain", e.RealizedGain)
	w.Append("holdingPeriodDays", e.HoldingPeriodDays)
	w.Append("method", e.Method)
	return w.MarshalJSON()
}
