package lotledger

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Method selects the lot matching strategy used to compute cost basis.
type Method string

const (
	// FIFO consumes the oldest open lots first, emitting one tax event per
	// lot touched.
	FIFO Method = "fifo"
	// WeightedAverage merges all open lots of an asset into one pooled lot
	// and emits a single tax event per disposal.
	WeightedAverage Method = "average"
)

// ParseMethod parses a string into a Method.
func ParseMethod(s string) (Method, error) {
	switch Method(s) {
	case FIFO, WeightedAverage:
		return Method(s), nil
	default:
		return "", fmt.Errorf("unknown cost basis method: %q (want %q or %q)", s, FIFO, WeightedAverage)
	}
}

// FeePolicy controls whether acquisition and disposal fees reduce the
// realized gain of a tax event.
type FeePolicy int

const (
	// FeesCapitalized folds fees into the event: gain = proceeds - basis - fees.
	FeesCapitalized FeePolicy = iota
	// FeesExcluded keeps fees out of the gain computation entirely.
	FeesExcluded
)

// ShortfallPolicy controls how a disposal exceeding the open lots is handled.
type ShortfallPolicy int

const (
	// ShortfallFlag matches what the lots can cover, raises a diagnostic for
	// the rest, and continues. Lots are never fabricated.
	ShortfallFlag ShortfallPolicy = iota
	// ShortfallHalt stops processing at the first shortfall.
	ShortfallHalt
)

// matcher is the per-asset state of one matching strategy: it accumulates
// open lots from acquisitions and consumes them on disposals.
type matcher interface {
	// open records an acquisition lot.
	open(t Transaction, basis, fees Money)
	// match consumes lots against a disposal, returning the tax events and a
	// diagnostic when the open lots could not fully cover it. seq numbers the
	// events within the run.
	match(t Transaction, fees FeePolicy, seq *int) ([]TaxEvent, *Diagnostic)
	// lots returns a snapshot of the remaining open lots.
	lots() []TaxLot
}

func newMatcher(method Method) matcher {
	if method == WeightedAverage {
		return &averageMatcher{}
	}
	return &fifoMatcher{}
}

// fifoMatcher holds open lots in acquisition order.
type fifoMatcher struct {
	openLots []TaxLot
}

func (m *fifoMatcher) open(t Transaction, basis, fees Money) {
	m.openLots = append(m.openLots, newTaxLot(t, basis, fees))
}

func (m *fifoMatcher) match(t Transaction, fees FeePolicy, seq *int) ([]TaxEvent, *Diagnostic) {
	sellQty := t.Shares
	if sellQty.IsZero() {
		return nil, nil
	}
	proceeds := t.Total.Abs()

	var events []TaxEvent
	remaining := sellQty
	for i := range m.openLots {
		if remaining.Decimal().LessThanOrEqual(tolerance) {
			break
		}
		lot := &m.openLots[i]
		if lot.exhausted() {
			continue
		}
		qty := minQuantity(remaining, lot.Quantity)
		acquired := lot.AcquisitionDate
		basis, lotFees := lot.consume(qty)

		// Proceeds are pro-rated on the requested quantity, so an unmatched
		// shortfall leaves its share of the proceeds unmatched too.
		portion := proceeds.Mul(qty).Div(sellQty)
		eventFees := disposalFees(t, qty, sellQty, lotFees, fees)

		*seq++
		events = append(events, newTaxEvent(t, acquired, qty, portion, basis, eventFees, FIFO, *seq))
		remaining = remaining.Sub(qty)
	}
	m.compact()

	return events, shortfall(t, sellQty, remaining)
}

// compact drops exhausted lots from the front so long runs do not scan them.
func (m *fifoMatcher) compact() {
	keep := m.openLots[:0]
	for _, lot := range m.openLots {
		if !lot.exhausted() {
			keep = append(keep, lot)
		}
	}
	m.openLots = keep
}

func (m *fifoMatcher) lots() []TaxLot {
	out := make([]TaxLot, len(m.openLots))
	copy(out, m.openLots)
	return out
}

// averageMatcher pools all acquisitions of an asset into a single merged lot
// carrying the earliest contributing acquisition date.
type averageMatcher struct {
	pool *TaxLot
}

func (m *averageMatcher) open(t Transaction, basis, fees Money) {
	lot := newTaxLot(t, basis, fees)
	if m.pool == nil {
		m.pool = &lot
		return
	}
	if lot.AcquisitionDate.Before(m.pool.AcquisitionDate) {
		m.pool.AcquisitionDate = lot.AcquisitionDate
	}
	m.pool.Quantity = m.pool.Quantity.Add(lot.Quantity)
	m.pool.OriginalQuantity = m.pool.OriginalQuantity.Add(lot.OriginalQuantity)
	m.pool.CostBasis = m.pool.CostBasis.Add(lot.CostBasis)
	m.pool.Fees = m.pool.Fees.Add(lot.Fees)
}

func (m *averageMatcher) match(t Transaction, fees FeePolicy, seq *int) ([]TaxEvent, *Diagnostic) {
	sellQty := t.Shares
	if sellQty.IsZero() {
		return nil, nil
	}
	proceeds := t.Total.Abs()

	if m.pool == nil || m.pool.exhausted() {
		return nil, shortfall(t, sellQty, sellQty)
	}

	qty := minQuantity(sellQty, m.pool.Quantity)
	acquired := m.pool.AcquisitionDate
	basis, lotFees := m.pool.consume(qty)

	portion := proceeds.Mul(qty).Div(sellQty)
	eventFees := disposalFees(t, qty, sellQty, lotFees, fees)

	*seq++
	event := newTaxEvent(t, acquired, qty, portion, basis, eventFees, WeightedAverage, *seq)
	return []TaxEvent{event}, shortfall(t, sellQty, sellQty.Sub(qty))
}

func (m *averageMatcher) lots() []TaxLot {
	if m.pool == nil || m.pool.exhausted() {
		return nil
	}
	return []TaxLot{*m.pool}
}

// disposalFees combines the acquisition fees carried by the consumed lot
// shares with the disposal's own fees, pro-rated on the matched quantity.
func disposalFees(t Transaction, qty, sellQty Quantity, lotFees Money, policy FeePolicy) Money {
	if policy == FeesExcluded {
		return M(decimal.Zero, t.Total.Currency())
	}
	return lotFees.Add(t.Fees.Mul(qty).Div(sellQty))
}

// shortfall builds the diagnostic for a disposal the open lots could not
// fully cover, or nil when it was covered within tolerance.
func shortfall(t Transaction, requested, unmatched Quantity) *Diagnostic {
	if unmatched.Decimal().LessThanOrEqual(tolerance) {
		return nil
	}
	return &Diagnostic{
		Code:      DataIncompleteness,
		AssetKey:  t.AssetKey(),
		Date:      t.Date,
		Requested: requested,
		Available: requested.Sub(unmatched),
		Detail:    "disposal exceeds open lots; unmatched remainder has no cost basis",
	}
}
