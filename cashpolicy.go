package lotledger

// SourceClass describes how much of a source account's activity is visible
// in the input data.
type SourceClass int

const (
	// AssetOnly sources are observed through their security positions only;
	// their funding cash flows are invisible, so folding their buy/sell cash
	// effects into the balance would fabricate a deficit.
	AssetOnly SourceClass = iota
	// FullyCashTracked sources export their complete cash movement history.
	FullyCashTracked
)

// CashPolicy decides whether a transaction's cash effect is folded into the
// tracked cash balance. It is a configuration surface: the classification of
// each source is injected data, not logic.
type CashPolicy struct {
	Sources map[string]SourceClass
}

// NewCashPolicy classifies the given brokers as fully cash-tracked; every
// other source defaults to AssetOnly.
func NewCashPolicy(fullyTracked ...string) CashPolicy {
	sources := make(map[string]SourceClass, len(fullyTracked))
	for _, b := range fullyTracked {
		sources[b] = FullyCashTracked
	}
	return CashPolicy{Sources: sources}
}

// DefaultCashPolicy returns the policy used when no configuration is given:
// the brokers whose exports carry full cash histories.
func DefaultCashPolicy() CashPolicy {
	return NewCashPolicy(
		"scalable_capital",
		"trade_republic",
		"interactive_brokers",
		"flatex",
	)
}

// Eligible reports whether the transaction's cash effect participates in the
// cash balance: the broker must be known and fully cash-tracked, and crypto
// venues are always excluded.
func (p CashPolicy) Eligible(t Transaction) bool {
	if t.Broker == "" {
		return false
	}
	if t.Asset == AssetCrypto {
		return false
	}
	return p.Sources[t.Broker] == FullyCashTracked
}
