package lotledger

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

// tx builders keep the test tables readable. All totals are in EUR, the
// reporting currency of these fixtures.

func buyTx(d Date, ticker string, shares, price, total float64) Transaction {
	return Transaction{
		Date: d, Kind: KindBuy, Ticker: ticker,
		Shares: Q(shares), Price: M(price, "EUR"), Total: M(total, "EUR"),
		Broker: "scalable_capital", Asset: AssetStock,
	}
}

func sellTx(d Date, ticker string, shares, price, total float64) Transaction {
	return Transaction{
		Date: d, Kind: KindSell, Ticker: ticker,
		Shares: Q(shares), Price: M(price, "EUR"), Total: M(total, "EUR"),
		Broker: "scalable_capital", Asset: AssetStock,
	}
}

func depositTx(d Date, total float64) Transaction {
	return Transaction{
		Date: d, Kind: KindTransferIn, Total: M(total, "EUR"),
		Broker: "scalable_capital", Asset: AssetCash,
	}
}

// approxEqual compares a decimal against an expected value within the engine
// tolerance.
func approxEqual(t *testing.T, name string, got decimal.Decimal, want string) {
	t.Helper()
	w, err := decimal.NewFromString(want)
	if err != nil {
		t.Fatalf("bad expected value %q: %v", want, err)
	}
	if got.Sub(w).Abs().GreaterThan(tolerance) {
		t.Errorf("%s = %s, want %s", name, got, want)
	}
}

func TestReconstructMovingAverage(t *testing.T) {
	txs := []Transaction{
		buyTx(NewDate(2024, time.January, 10), "ACME", 10, 100, -1000),
		sellTx(NewDate(2024, time.February, 10), "ACME", 5, 120, 600),
		buyTx(NewDate(2024, time.March, 10), "ACME", 10, 200, -2000),
		sellTx(NewDate(2024, time.April, 10), "ACME", 8, 225, 1800),
	}

	state, err := Reconstruct(txs, DefaultCashPolicy())
	if err != nil {
		t.Fatalf("Reconstruct() failed: %v", err)
	}

	pos, ok := state.Positions["TICKER:ACME"]
	if !ok {
		t.Fatal("position TICKER:ACME not found")
	}
	approxEqual(t, "shares", pos.Shares.Decimal(), "7")
	// After sell 5: basis 500. After buy 10@200: basis 2500 over 15 shares.
	// Sell 8 removes 8 * 2500/15.
	approxEqual(t, "costBasis", pos.CostBasis.Decimal(), "1166.6666666666666667")
	approxEqual(t, "avgCost", pos.AverageCost().Decimal(), "166.6666666666666667")

	// Gains: (600-500) + (1800 - 8*2500/15).
	approxEqual(t, "realizedGains", state.RealizedGains.Decimal(), "566.6666666666666667")

	if len(state.Diagnostics) != 0 {
		t.Errorf("unexpected diagnostics: %v", state.Diagnostics)
	}
	if state.Summary.Processed != 4 {
		t.Errorf("Processed = %d, want 4", state.Summary.Processed)
	}
}

func TestReconstructBuysOnlyConservation(t *testing.T) {
	txs := []Transaction{
		buyTx(NewDate(2024, time.January, 1), "ACME", 3, 100, -300),
		buyTx(NewDate(2024, time.February, 1), "ACME", 2.5, 110, -275),
		buyTx(NewDate(2024, time.March, 1), "ACME", 4, 120, -480),
	}

	state, err := Reconstruct(txs, DefaultCashPolicy())
	if err != nil {
		t.Fatalf("Reconstruct() failed: %v", err)
	}

	pos := state.Positions["TICKER:ACME"]
	if pos == nil {
		t.Fatal("position TICKER:ACME not found")
	}
	approxEqual(t, "shares", pos.Shares.Decimal(), "9.5")
	approxEqual(t, "costBasis", pos.CostBasis.Decimal(), "1055")
}

func TestReconstructDividendsLeaveBasisAlone(t *testing.T) {
	txs := []Transaction{
		buyTx(NewDate(2024, time.January, 1), "ACME", 10, 100, -1000),
		{
			Date: NewDate(2024, time.April, 1), Kind: KindDividend,
			Ticker: "ACME", Total: M(35, "EUR"),
			Broker: "scalable_capital", Asset: AssetStock,
		},
	}

	state, err := Reconstruct(txs, DefaultCashPolicy())
	if err != nil {
		t.Fatalf("Reconstruct() failed: %v", err)
	}

	pos := state.Positions["TICKER:ACME"]
	approxEqual(t, "costBasis", pos.CostBasis.Decimal(), "1000")
	approxEqual(t, "shares", pos.Shares.Decimal(), "10")
	approxEqual(t, "dividends", state.TotalDividends.Decimal(), "35")
	// -1000 buy + 35 dividend
	approxEqual(t, "cash", state.CashBalance.Decimal(), "-965")
}

func TestReconstructConservation(t *testing.T) {
	// Basis removed by sells plus basis remaining must equal basis added by
	// buys, within tolerance.
	txs := []Transaction{
		buyTx(NewDate(2024, time.January, 1), "ACME", 3, 100, -300),
		buyTx(NewDate(2024, time.January, 2), "ACME", 7, 110, -770),
		sellTx(NewDate(2024, time.January, 3), "ACME", 4, 120, 480),
		buyTx(NewDate(2024, time.January, 4), "ACME", 2, 130, -260),
		sellTx(NewDate(2024, time.January, 5), "ACME", 6, 140, 840),
	}

	state, err := Reconstruct(txs, DefaultCashPolicy())
	if err != nil {
		t.Fatalf("Reconstruct() failed: %v", err)
	}

	pos := state.Positions["TICKER:ACME"]
	if pos == nil {
		t.Fatal("position TICKER:ACME not found")
	}
	approxEqual(t, "shares", pos.Shares.Decimal(), "2")

	// added basis 1330; proceeds 1320; gains = 1320 - (1330 - remaining).
	added := decimal.NewFromInt(1330)
	proceeds := decimal.NewFromInt(1320)
	consumed := added.Sub(pos.CostBasis.Decimal())
	approxEqual(t, "gains", state.RealizedGains.Decimal(), proceeds.Sub(consumed).String())
}

func TestReconstructFXTotals(t *testing.T) {
	// Total is already in the reporting currency; FXRate is audit metadata
	// and must never be applied again.
	tx := buyTx(NewDate(2024, time.May, 2), "ACME", 10, 117.6, -1000)
	tx.Currency = "USD"
	tx.FXRate = decimal.RequireFromString("0.85")

	state, err := Reconstruct([]Transaction{tx}, DefaultCashPolicy())
	if err != nil {
		t.Fatalf("Reconstruct() failed: %v", err)
	}

	pos := state.Positions["TICKER:ACME"]
	approxEqual(t, "costBasis", pos.CostBasis.Decimal(), "1000")
	approxEqual(t, "cash", state.CashBalance.Decimal(), "-1000")
}

func TestReconstructOverSell(t *testing.T) {
	txs := []Transaction{
		buyTx(NewDate(2024, time.January, 1), "ACME", 5, 100, -500),
		sellTx(NewDate(2024, time.January, 2), "ACME", 8, 100, 800),
	}

	state, err := Reconstruct(txs, DefaultCashPolicy())
	if err != nil {
		t.Fatalf("Reconstruct() failed: %v", err)
	}

	pos, ok := state.Positions["TICKER:ACME"]
	if !ok {
		t.Fatal("over-sold position should stay visible, not be pruned")
	}
	approxEqual(t, "shares", pos.Shares.Decimal(), "-3")

	if len(state.Diagnostics) != 1 {
		t.Fatalf("diagnostics = %v, want exactly one", state.Diagnostics)
	}
	d := state.Diagnostics[0]
	if d.Code != DataIncompleteness {
		t.Errorf("diagnostic code = %s, want %s", d.Code, DataIncompleteness)
	}
	approxEqual(t, "requested", d.Requested.Decimal(), "8")
	approxEqual(t, "available", d.Available.Decimal(), "5")
}

func TestReconstructCashEligibility(t *testing.T) {
	eligible := buyTx(NewDate(2024, time.January, 1), "ACME", 1, 100, -100)
	ineligible := buyTx(NewDate(2024, time.January, 1), "OTHR", 1, 100, -100)
	ineligible.Broker = "legacy_csv"

	state, err := Reconstruct([]Transaction{eligible, ineligible}, DefaultCashPolicy())
	if err != nil {
		t.Fatalf("Reconstruct() failed: %v", err)
	}

	// Both affect positions, only the eligible one affects cash.
	if len(state.Positions) != 2 {
		t.Fatalf("positions = %d, want 2", len(state.Positions))
	}
	approxEqual(t, "cash", state.CashBalance.Decimal(), "-100")
}

func TestReconstructCryptoExcludedFromCash(t *testing.T) {
	tx := buyTx(NewDate(2024, time.January, 1), "BTC", 1, 100, -100)
	tx.Asset = AssetCrypto

	state, err := Reconstruct([]Transaction{tx}, DefaultCashPolicy())
	if err != nil {
		t.Fatalf("Reconstruct() failed: %v", err)
	}
	if !state.CashBalance.IsZero() {
		t.Errorf("cash = %s, want 0 for crypto source", state.CashBalance.Decimal())
	}
}

func TestReconstructDepositsAndWithdrawals(t *testing.T) {
	txs := []Transaction{
		depositTx(NewDate(2024, time.January, 1), 5000),
		{
			Date: NewDate(2024, time.June, 1), Kind: KindTransferOut,
			Total: M(-1200, "EUR"), Broker: "scalable_capital", Asset: AssetCash,
		},
	}

	state, err := Reconstruct(txs, DefaultCashPolicy())
	if err != nil {
		t.Fatalf("Reconstruct() failed: %v", err)
	}
	approxEqual(t, "netDeposits", state.NetDeposits.Decimal(), "3800")
	approxEqual(t, "invested", state.TotalInvested.Decimal(), "5000")
	approxEqual(t, "withdrawn", state.TotalWithdrawn.Decimal(), "1200")
	approxEqual(t, "cash", state.CashBalance.Decimal(), "3800")
}

func TestReconstructTransferInFallbackBasis(t *testing.T) {
	tx := Transaction{
		Date: NewDate(2024, time.March, 1), Kind: KindTransferIn,
		Ticker: "ACME", Shares: Q(4), Price: M(50, "EUR"), Total: M(0, "EUR"),
		Broker: "trade_republic", Asset: AssetStock,
	}

	state, err := Reconstruct([]Transaction{tx}, DefaultCashPolicy())
	if err != nil {
		t.Fatalf("Reconstruct() failed: %v", err)
	}

	pos := state.Positions["TICKER:ACME"]
	approxEqual(t, "costBasis", pos.CostBasis.Decimal(), "200")
	if state.Summary.Flagged != 1 {
		t.Errorf("Flagged = %d, want 1", state.Summary.Flagged)
	}
	// A security transfer moves no cash.
	if !state.CashBalance.IsZero() {
		t.Errorf("cash = %s, want 0", state.CashBalance.Decimal())
	}
}

func TestReconstructRejectsMissingIdentity(t *testing.T) {
	tx := Transaction{
		Date: NewDate(2024, time.January, 1), Kind: KindBuy,
		Shares: Q(1), Total: M(-100, "EUR"), Broker: "scalable_capital",
	}

	state, err := Reconstruct([]Transaction{tx}, DefaultCashPolicy())
	if err != nil {
		t.Fatalf("Reconstruct() failed: %v", err)
	}
	if state.Summary.Rejected != 1 || len(state.Rejected) != 1 {
		t.Fatalf("Rejected = %d (%d listed), want 1", state.Summary.Rejected, len(state.Rejected))
	}
	if len(state.Positions) != 0 {
		t.Errorf("positions = %d, want 0", len(state.Positions))
	}
}

func TestReconstructStructuralValidation(t *testing.T) {
	txs := []Transaction{{Kind: KindBuy, Ticker: "ACME", Total: M(-100, "EUR")}}
	if _, err := Reconstruct(txs, DefaultCashPolicy()); err == nil {
		t.Fatal("Reconstruct() should fail on a transaction without a date")
	}
}

func TestReconstructISINKeyStability(t *testing.T) {
	// The first record carries only the ISIN; a later one adds the ticker.
	// Both must land on the same ISIN-derived position.
	first := Transaction{
		Date: NewDate(2024, time.January, 1), Kind: KindBuy,
		ISIN: "IE00B4L5Y983", Shares: Q(10), Total: M(-1000, "EUR"),
		Broker: "scalable_capital", Asset: AssetETF,
	}
	second := Transaction{
		Date: NewDate(2024, time.February, 1), Kind: KindSell,
		ISIN: "IE00B4L5Y983", Ticker: "IWDA", Shares: Q(4), Total: M(480, "EUR"),
		Broker: "scalable_capital", Asset: AssetETF,
	}

	state, err := Reconstruct([]Transaction{first, second}, DefaultCashPolicy())
	if err != nil {
		t.Fatalf("Reconstruct() failed: %v", err)
	}
	if len(state.Positions) != 1 {
		t.Fatalf("positions = %d, want 1", len(state.Positions))
	}
	pos := state.Positions["ISIN:IE00B4L5Y983"]
	if pos == nil {
		t.Fatal("position ISIN:IE00B4L5Y983 not found")
	}
	approxEqual(t, "shares", pos.Shares.Decimal(), "6")
	if pos.Ticker != "IWDA" {
		t.Errorf("ticker = %q, want enrichment to IWDA", pos.Ticker)
	}
}

func TestReconstructInputNotMutated(t *testing.T) {
	txs := []Transaction{
		sellTx(NewDate(2024, time.February, 1), "ACME", 1, 100, 100),
		buyTx(NewDate(2024, time.January, 1), "ACME", 1, 100, -100),
	}
	if _, err := Reconstruct(txs, DefaultCashPolicy()); err != nil {
		t.Fatalf("Reconstruct() failed: %v", err)
	}
	if txs[0].Kind != KindSell {
		t.Error("input slice was reordered")
	}
}
