package lotledger

import (
	"fmt"
	"log/slog"
	"sort"
)

// State is the outcome of one full moving-average replay: final positions,
// the cash balance of cash-eligible sources, and scalar accumulators.
// It is never patched incrementally; a new import means a new Reconstruct
// call over the full transaction set, because the moving average is fully
// path-dependent.
type State struct {
	Positions map[string]*Position // keyed by asset key

	CashBalance    Money // replay-derived, cash-eligible sources only
	NetDeposits    Money // deposits minus withdrawals (invested capital)
	TotalInvested  Money
	TotalWithdrawn Money
	TotalDividends Money
	TotalInterest  Money
	TotalFees      Money
	RealizedGains  Money // moving-average realized gains across all sells

	Rejected    []Transaction
	Diagnostics []Diagnostic
	Summary     RunSummary
}

// Reconstruct replays the full transaction sequence in chronological order
// and returns the resulting portfolio state. The input is not mutated; ties
// on the same date keep their input order so the path-dependent moving
// average stays reproducible.
//
// All transactions affect positions; only those passing the cash policy
// affect the cash balance. The function returns an error only for structural
// violations (no date, no kind); data messiness degrades to documented
// fallbacks recorded as diagnostics.
func Reconstruct(transactions []Transaction, policy CashPolicy) (*State, error) {
	for i, t := range transactions {
		if err := t.Validate(); err != nil {
			return nil, fmt.Errorf("transaction %d: %w", i, err)
		}
	}

	txs := make([]Transaction, len(transactions))
	copy(txs, transactions)
	sort.SliceStable(txs, func(i, j int) bool {
		return txs[i].Date.Before(txs[j].Date)
	})

	s := &State{Positions: make(map[string]*Position)}
	for _, t := range txs {
		s.apply(t, policy)
	}

	// Prune exhausted positions; over-sold (negative) positions stay visible.
	for key, pos := range s.Positions {
		if pos.closed() {
			delete(s.Positions, key)
		}
	}

	slog.Info("portfolio state reconstructed",
		"transactions", len(txs),
		"holdings", len(s.Positions),
		"summary", s.Summary.String())
	return s, nil
}

// apply folds a single transaction into the state.
func (s *State) apply(t Transaction, policy CashPolicy) {
	total := t.Total
	cashTransfer := (t.Kind == KindTransferIn || t.Kind == KindTransferOut) && !t.HasAsset()

	// A security transaction with no usable identity is rejected whole: its
	// cash effect is as unattributable as its position effect.
	switch t.Kind {
	case KindBuy, KindSell, KindStockDividend:
		if !t.HasAsset() {
			s.reject(t, "security transaction without ticker or ISIN")
			return
		}
	}

	s.TotalFees = s.TotalFees.Add(t.Fees)

	s.applyCash(t, policy, cashTransfer)

	// Deposits and withdrawals feed the capital accumulators regardless of
	// the cash policy: they describe money crossing the portfolio boundary.
	if cashTransfer {
		switch t.Kind {
		case KindTransferIn:
			s.NetDeposits = s.NetDeposits.Add(total.Abs())
			s.TotalInvested = s.TotalInvested.Add(total.Abs())
		case KindTransferOut:
			s.NetDeposits = s.NetDeposits.Sub(total.Abs())
			s.TotalWithdrawn = s.TotalWithdrawn.Add(total.Abs())
		}
		s.Summary.Processed++
		return
	}

	switch t.Kind {
	case KindBuy, KindTransferIn, KindStockDividend:
		pos := s.position(t)
		pos.Shares = pos.Shares.Add(t.Shares)
		pos.CostBasis = pos.CostBasis.Add(s.acquisitionCost(t))
		s.Summary.Processed++

	case KindSell, KindTransferOut:
		s.applyDisposal(t)

	case KindDividend:
		s.TotalDividends = s.TotalDividends.Add(total.Abs())
		s.Summary.Processed++

	case KindInterest:
		s.TotalInterest = s.TotalInterest.Add(total.Abs())
		s.Summary.Processed++

	case KindFee:
		s.TotalFees = s.TotalFees.Add(total.Abs())
		s.Summary.Processed++

	default:
		s.Summary.Skipped++
	}
}

// acquisitionCost returns the cost basis contributed by an acquiring
// transaction. Stock dividends only increase the share count. A transfer-in
// whose source row carried no cash flow falls back to shares*price so the
// transferred asset does not silently acquire a free basis.
func (s *State) acquisitionCost(t Transaction) Money {
	switch t.Kind {
	case KindStockDividend:
		return M(0, t.Total.Currency())
	case KindTransferIn:
		if t.Total.Decimal().Abs().LessThanOrEqual(tolerance) {
			s.Summary.Flagged++
			slog.Warn("transfer-in without cash flow, using shares*price as basis",
				"assetKey", t.AssetKey(), "date", t.Date.String())
			return M(t.Price.Decimal().Mul(t.Shares.Decimal()), t.Total.Currency())
		}
		return t.Total.Abs()
	default:
		return t.Total.Abs()
	}
}

// applyDisposal reduces a position by a sell or transfer-out, realizing a
// gain for sells. The requested quantity is applied in full: an over-sell
// drives the share count negative and raises a DataIncompleteness diagnostic
// instead of being silently clamped.
func (s *State) applyDisposal(t Transaction) {
	pos := s.position(t)

	available := pos.Shares
	var soldCost Money
	if pos.Shares.IsPositive() {
		costPerShare := pos.CostBasis.Div(pos.Shares)
		removed := minQuantity(t.Shares, pos.Shares)
		soldCost = costPerShare.Mul(removed)
		pos.CostBasis = pos.CostBasis.Sub(soldCost)
	}

	if t.Kind == KindSell {
		gain := t.Total.Abs().Sub(soldCost)
		if t.RealizedGain != nil {
			// Source data already reports the realized gain; prefer it.
			gain = M(*t.RealizedGain, t.Total.Currency())
		}
		s.RealizedGains = s.RealizedGains.Add(gain)
	}

	pos.Shares = pos.Shares.Sub(t.Shares)
	s.Summary.Processed++

	if pos.Shares.IsNegative() && pos.Shares.Decimal().Abs().GreaterThan(tolerance) {
		s.Summary.Flagged++
		d := Diagnostic{
			Code:      DataIncompleteness,
			AssetKey:  t.AssetKey(),
			Date:      t.Date,
			Requested: t.Shares,
			Available: available,
			Detail:    "disposal exceeds held shares; possible missing buys or split mismatch",
		}
		s.Diagnostics = append(s.Diagnostics, d)
		slog.Warn(d.String())
	}

	if pos.CostBasis.Decimal().LessThan(tolerance.Neg()) {
		d := Diagnostic{
			Code:     NumericInvariantViolation,
			AssetKey: t.AssetKey(),
			Date:     t.Date,
			Detail:   fmt.Sprintf("cost basis went negative: %s", pos.CostBasis.Decimal()),
		}
		s.Diagnostics = append(s.Diagnostics, d)
		slog.Error(d.String())
	}
}

// applyCash folds the transaction's cash effect into the balance when the
// policy allows it. Security transfers move assets, not cash.
func (s *State) applyCash(t Transaction, policy CashPolicy, cashTransfer bool) {
	if !policy.Eligible(t) {
		return
	}
	if (t.Kind == KindTransferIn || t.Kind == KindTransferOut) && !cashTransfer {
		return
	}

	switch t.Kind {
	case KindBuy, KindSell, KindDividend, KindInterest:
		// Total is the signed net cash effect: negative for buys,
		// positive for sells and income.
		s.CashBalance = s.CashBalance.Add(t.Total)
	case KindTransferIn:
		s.CashBalance = s.CashBalance.Add(t.Total.Abs())
	case KindTransferOut:
		s.CashBalance = s.CashBalance.Sub(t.Total.Abs())
	case KindFee:
		s.CashBalance = s.CashBalance.Sub(t.Total.Abs())
	}
}

// position returns the position for the transaction's asset, creating it on
// first sight. The asset key is ISIN-derived when possible and never changes
// when a later record enriches the ticker.
func (s *State) position(t Transaction) *Position {
	key := t.AssetKey()
	pos, ok := s.Positions[key]
	if !ok {
		pos = &Position{
			AssetKey: key,
			Ticker:   t.Ticker,
			ISIN:     t.ISIN,
			Name:     t.Name,
			Asset:    t.Asset,
		}
		s.Positions[key] = pos
	}
	if pos.Name == "" && t.Name != "" {
		pos.Name = t.Name
	}
	if pos.Ticker == "" && t.Ticker != "" {
		pos.Ticker = t.Ticker
	}
	if pos.Asset == AssetUnknown && t.Asset != AssetUnknown {
		pos.Asset = t.Asset
	}
	return pos
}

// reject records an unprocessable transaction without aborting the replay.
func (s *State) reject(t Transaction, detail string) {
	s.Summary.Rejected++
	s.Rejected = append(s.Rejected, t)
	d := Diagnostic{
		Code:   AmbiguousAssetIdentity,
		Date:   t.Date,
		Detail: detail,
	}
	s.Diagnostics = append(s.Diagnostics, d)
	slog.Warn(d.String())
}
