package lotledger

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	"github.com/shopspring/decimal"
)

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// txRecord is a specialized struct for decoding one JSONL transaction line.
// Monetary fields travel as bare decimals; their currencies are restored from
// the currency field and the reporting currency.
type txRecord struct {
	Kind         string           `json:"kind"`
	Date         Date             `json:"date"`
	Ticker       string           `json:"ticker"`
	ISIN         string           `json:"isin"`
	Name         string           `json:"name"`
	Shares       Quantity         `json:"shares"`
	Price        decimal.Decimal  `json:"price"`
	Fees         decimal.Decimal  `json:"fees"`
	Total        decimal.Decimal  `json:"total"`
	Currency     string           `json:"currency"`
	FXRate       decimal.Decimal  `json:"fxRate"`
	Broker       string           `json:"broker"`
	AssetType    string           `json:"assetType"`
	RealizedGain *decimal.Decimal `json:"realizedGain"`
}

// DecodeTransactions decodes a stream of JSONL transaction records.
// Monetary totals and fees are denominated in reportingCurrency; the price
// keeps the transaction's original currency.
func DecodeTransactions(r io.Reader, reportingCurrency string) ([]Transaction, error) {
	var txs []Transaction
	scanner := bufio.NewScanner(r)
	line := 0

	for scanner.Scan() {
		line++
		lineBytes := scanner.Bytes()
		if len(lineBytes) == 0 {
			continue
		}

		var rec txRecord
		if err := json.Unmarshal(lineBytes, &rec); err != nil {
			return nil, fmt.Errorf("line %d: could not decode transaction: %w", line, err)
		}

		kind, err := ParseKind(rec.Kind)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		priceCur := rec.Currency
		if priceCur == "" {
			priceCur = reportingCurrency
		}
		tx := Transaction{
			Date:         rec.Date,
			Kind:         kind,
			Ticker:       rec.Ticker,
			ISIN:         rec.ISIN,
			Name:         rec.Name,
			Shares:       rec.Shares,
			Price:        M(rec.Price, priceCur),
			Fees:         M(rec.Fees, reportingCurrency),
			Total:        M(rec.Total, reportingCurrency),
			Currency:     rec.Currency,
			FXRate:       rec.FXRate,
			Broker:       rec.Broker,
			Asset:        AssetType(rec.AssetType),
			RealizedGain: rec.RealizedGain,
		}
		if err := tx.Validate(); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		txs = append(txs, tx)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("could not read transactions: %w", err)
	}
	return txs, nil
}

// EncodeTransactions writes transactions as JSONL, one record per line.
func EncodeTransactions(w io.Writer, txs []Transaction) error {
	for _, tx := range txs {
		b, err := json.Marshal(tx)
		if err != nil {
			return fmt.Errorf("could not encode transaction on %s: %w", tx.Date, err)
		}
		if _, err := fmt.Fprintf(w, "%s\n", b); err != nil {
			return err
		}
	}
	return nil
}

// EncodeTaxEvents writes realized tax events as JSONL for downstream
// jurisdiction-specific calculators.
func EncodeTaxEvents(w io.Writer, events []TaxEvent) error {
	for _, e := range events {
		b, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("could not encode tax event %s: %w", e.EventID, err)
		}
		if _, err := fmt.Fprintf(w, "%s\n", b); err != nil {
			return err
		}
	}
	return nil
}
