package lotledger

import (
	"fmt"
	"log/slog"
	"sort"
)

// Engine matches disposals against acquisition lots and produces the tax
// events of a full transaction history. Each asset key carries its own
// independent lot state; an over-sell in one asset never touches another.
type Engine struct {
	transactions []Transaction
	method       Method
	feePolicy    FeePolicy
	shortfall    ShortfallPolicy

	processed   bool
	matchers    map[string]matcher
	events      []TaxEvent
	diagnostics []Diagnostic
	rejected    []Transaction
	summary     RunSummary
}

// Option configures an Engine.
type Option func(*Engine)

// WithFeePolicy sets how fees enter the realized gain computation.
// The default is FeesCapitalized.
func WithFeePolicy(p FeePolicy) Option {
	return func(e *Engine) { e.feePolicy = p }
}

// WithShortfallPolicy sets how disposals exceeding the open lots are handled.
// The default is ShortfallFlag.
func WithShortfallPolicy(p ShortfallPolicy) Option {
	return func(e *Engine) { e.shortfall = p }
}

// NewEngine builds an engine over a transaction history. The input is not
// mutated; Process replays a sorted copy.
func NewEngine(transactions []Transaction, method Method, opts ...Option) *Engine {
	e := &Engine{
		transactions: transactions,
		method:       method,
		matchers:     make(map[string]matcher),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Process replays the transactions chronologically, building lots from
// acquisitions and matching disposals against them. It is idempotent: calling
// it again returns immediately without reprocessing, so a rerun over the same
// engine cannot duplicate events.
func (e *Engine) Process() error {
	if e.processed {
		return nil
	}

	for i, t := range e.transactions {
		if err := t.Validate(); err != nil {
			return fmt.Errorf("transaction %d: %w", i, err)
		}
	}

	// A failed run (ShortfallHalt) leaves partial state behind; every replay
	// starts from scratch so a retry cannot double lots or events.
	e.matchers = make(map[string]matcher)
	e.events = nil
	e.diagnostics = nil
	e.rejected = nil
	e.summary = RunSummary{}

	txs := make([]Transaction, len(e.transactions))
	copy(txs, e.transactions)
	sort.SliceStable(txs, func(i, j int) bool {
		return txs[i].Date.Before(txs[j].Date)
	})

	seq := 0
	for _, t := range txs {
		if err := e.apply(t, &seq); err != nil {
			return err
		}
	}

	sort.SliceStable(e.events, func(i, j int) bool {
		a, b := e.events[i], e.events[j]
		if !a.DisposalDate.Equal(b.DisposalDate) {
			return a.DisposalDate.Before(b.DisposalDate)
		}
		if a.AssetKey != b.AssetKey {
			return a.AssetKey < b.AssetKey
		}
		return a.seq < b.seq
	})

	e.processed = true
	slog.Info("lot matching complete",
		"method", string(e.method),
		"events", len(e.events),
		"summary", e.summary.String())
	return nil
}

func (e *Engine) apply(t Transaction, seq *int) error {
	switch t.Kind {
	case KindBuy, KindTransferIn, KindStockDividend:
		if !t.HasAsset() {
			if t.Kind == KindTransferIn {
				e.summary.Skipped++ // cash deposit, no lot
				return nil
			}
			e.reject(t)
			return nil
		}
		e.matcher(t).open(t, e.acquisitionBasis(t), t.Fees)
		e.summary.Processed++

	case KindSell, KindTransferOut:
		if !t.HasAsset() {
			if t.Kind == KindTransferOut {
				e.summary.Skipped++ // cash withdrawal, no lot
				return nil
			}
			e.reject(t)
			return nil
		}
		events, diag := e.matcher(t).match(t, e.feePolicy, seq)
		// A transfer-out consumes lots so later sells match correctly, but
		// moving an asset between accounts realizes nothing.
		if t.Kind == KindSell {
			e.events = append(e.events, events...)
		}
		e.summary.Processed++
		if diag != nil {
			e.diagnostics = append(e.diagnostics, *diag)
			e.summary.Flagged++
			slog.Warn(diag.String())
			if e.shortfall == ShortfallHalt {
				return fmt.Errorf("lot shortfall: %s", diag)
			}
		}

	default:
		// Dividends, interest and fees carry no lots.
		e.summary.Skipped++
	}
	return nil
}

// acquisitionBasis returns the cost basis of a new lot, mirroring the
// reconstruction rules: stock dividends open a zero-basis lot, and a
// transfer-in without cash flow falls back to shares*price.
func (e *Engine) acquisitionBasis(t Transaction) Money {
	switch t.Kind {
	case KindStockDividend:
		return M(0, t.Total.Currency())
	case KindTransferIn:
		if t.Total.Decimal().Abs().LessThanOrEqual(tolerance) {
			e.summary.Flagged++
			slog.Warn("transfer-in without cash flow, using shares*price as lot basis",
				"assetKey", t.AssetKey(), "date", t.Date.String())
			return M(t.Price.Decimal().Mul(t.Shares.Decimal()), t.Total.Currency())
		}
		return t.Total.Abs()
	default:
		return t.Total.Abs()
	}
}

func (e *Engine) matcher(t Transaction) matcher {
	key := t.AssetKey()
	m, ok := e.matchers[key]
	if !ok {
		m = newMatcher(e.method)
		e.matchers[key] = m
	}
	return m
}

func (e *Engine) reject(t Transaction) {
	e.summary.Rejected++
	e.rejected = append(e.rejected, t)
	d := Diagnostic{
		Code:   AmbiguousAssetIdentity,
		Date:   t.Date,
		Detail: "security transaction without ticker or ISIN",
	}
	e.diagnostics = append(e.diagnostics, d)
	slog.Warn(d.String())
}

// RealizedEvents returns the tax events whose disposal date falls inside the
// inclusive [from, to] range. A zero Date leaves that bound open. Events are
// ordered by disposal date, then asset key, then match sequence.
func (e *Engine) RealizedEvents(from, to Date) []TaxEvent {
	var out []TaxEvent
	for _, ev := range e.events {
		if !from.IsZero() && ev.DisposalDate.Before(from) {
			continue
		}
		if !to.IsZero() && ev.DisposalDate.After(to) {
			continue
		}
		out = append(out, ev)
	}
	return out
}

// Events returns all tax events of the run, in deterministic order.
func (e *Engine) Events() []TaxEvent {
	return e.RealizedEvents(Date{}, Date{})
}

// OpenLots returns a snapshot of the remaining open lots for one asset.
// Mutating the returned slice does not affect the engine.
func (e *Engine) OpenLots(assetKey string) []TaxLot {
	m, ok := e.matchers[assetKey]
	if !ok {
		return nil
	}
	return m.lots()
}

// Lots returns the remaining open lots of every asset with at least one.
func (e *Engine) Lots() map[string][]TaxLot {
	out := make(map[string][]TaxLot)
	for key, m := range e.matchers {
		if lots := m.lots(); len(lots) > 0 {
			out[key] = lots
		}
	}
	return out
}

// Diagnostics returns the diagnostics raised during Process.
func (e *Engine) Diagnostics() []Diagnostic { return e.diagnostics }

// Rejected returns the transactions the engine could not attribute to an asset.
func (e *Engine) Rejected() []Transaction { return e.rejected }

// Summary returns the run counters.
func (e *Engine) Summary() RunSummary { return e.summary }
