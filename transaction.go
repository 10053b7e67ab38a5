package lotledger

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Kind is a typed string identifying the economic nature of a transaction.
type Kind string

// The closed set of transaction kinds.
const (
	KindBuy           Kind = "buy"
	KindSell          Kind = "sell"
	KindDividend      Kind = "dividend"
	KindInterest      Kind = "interest"
	KindTransferIn    Kind = "transfer-in"
	KindTransferOut   Kind = "transfer-out"
	KindStockDividend Kind = "stock-dividend"
	KindFee           Kind = "fee"
)

// ParseKind parses a string into a Kind.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindBuy, KindSell, KindDividend, KindInterest,
		KindTransferIn, KindTransferOut, KindStockDividend, KindFee:
		return Kind(s), nil
	default:
		return "", fmt.Errorf("unknown transaction kind: %q", s)
	}
}

// AssetType classifies the instrument for cash-tracking and reporting purposes.
type AssetType string

const (
	AssetStock   AssetType = "stock"
	AssetETF     AssetType = "etf"
	AssetBond    AssetType = "bond"
	AssetCrypto  AssetType = "crypto"
	AssetCash    AssetType = "cash"
	AssetUnknown AssetType = ""
)

// Transaction is one normalized, immutable record of an economic event.
//
// It is produced by an upstream ingestion collaborator that has already
// classified the kind, separated ticker from ISIN, and resolved currency
// conversion into Total. Total is expressed in the reporting currency;
// FXRate is the historical rate that produced it and is retained for audit
// only. It must never be applied again.
type Transaction struct {
	Date     Date      // calendar date of the event, required
	Kind     Kind      // economic nature of the event, required
	Ticker   string    // exchange symbol, optional
	ISIN     string    // international securities id, optional
	Name     string    // display name, optional
	Shares   Quantity  // always non-negative; the sign is implied by Kind
	Price    Money     // per-share price in the original currency
	Fees     Money     // non-negative, reporting currency
	Total    Money     // signed net cash effect, reporting currency
	Currency string    // original transaction currency
	FXRate   decimal.Decimal
	Broker   string    // source account identifier, used by the cash policy
	Asset    AssetType // instrument classification

	// RealizedGain is an optional pass-through from source data. When the
	// broker already reports the realized gain of a sell, it is preferred
	// over recomputation.
	RealizedGain *decimal.Decimal
}

// AssetKey returns the canonical identity used to group transactions of the
// same security: "ISIN:<code>" when an ISIN is present, else
// "TICKER:<symbol>". The ISIN-derived key is stable under later ticker
// enrichment. It is empty when the transaction names no asset at all.
func (t Transaction) AssetKey() string {
	if t.ISIN != "" {
		return "ISIN:" + t.ISIN
	}
	if t.Ticker != "" {
		return "TICKER:" + t.Ticker
	}
	return ""
}

// HasAsset reports whether the transaction names a security (as opposed to a
// pure cash movement).
func (t Transaction) HasAsset() bool { return t.Ticker != "" || t.ISIN != "" }

// Validate checks the structural contract of the record: a transaction with
// no date or no kind is unprocessable and rejected loudly. Data messiness
// (missing prices, zero totals) is not a validation error; the engines
// degrade with documented fallbacks instead.
func (t Transaction) Validate() error {
	if t.Date.IsZero() {
		return errors.New("transaction has no date")
	}
	if t.Kind == "" {
		return errors.New("transaction has no kind")
	}
	if _, err := ParseKind(string(t.Kind)); err != nil {
		return err
	}
	if t.Shares.IsNegative() {
		return fmt.Errorf("transaction shares must be non-negative, got %s", t.Shares)
	}
	if t.Fees.IsNegative() {
		return fmt.Errorf("transaction fees must be non-negative, got %s", t.Fees.Decimal())
	}
	return nil
}

// MarshalJSON implements the json.Marshaler interface with a stable field order.
func (t Transaction) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("kind", t.Kind)
	w.Append("date", t.Date)
	w.Optional("ticker", t.Ticker)
	w.Optional("isin", t.ISIN)
	w.Optional("name", t.Name)
	if !t.Shares.IsZero() {
		w.Append("shares", t.Shares)
	}
	if !t.Price.IsZero() {
		w.Append("price", t.Price)
	}
	if !t.Fees.IsZero() {
		w.Append("fees", t.Fees)
	}
	w.Append("total", t.Total)
	w.Optional("currency", t.Currency)
	if !t.FXRate.IsZero() {
		w.Append("fxRate", t.FXRate)
	}
	w.Optional("broker", t.Broker)
	w.Optional("assetType", string(t.Asset))
	if t.RealizedGain != nil {
		w.Append("realizedGain", *t.RealizedGain)
	}
	return w.MarshalJSON()
}
