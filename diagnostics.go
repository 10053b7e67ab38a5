package lotledger

import "fmt"

// Code classifies a diagnostic raised during a replay or lot-matching run.
type Code string

const (
	// DataIncompleteness marks a disposal requesting more shares than
	// available. The run continues; no cost basis is fabricated.
	DataIncompleteness Code = "data-incompleteness"
	// AmbiguousAssetIdentity marks a security transaction carrying neither
	// ticker nor ISIN. The transaction is rejected, not the run.
	AmbiguousAssetIdentity Code = "ambiguous-asset-identity"
	// NumericInvariantViolation marks a negative cost basis or quantity
	// beyond tolerance. This is a logic bug, not a data issue.
	NumericInvariantViolation Code = "numeric-invariant-violation"
)

// Diagnostic records one degraded or rejected record encountered during a run.
type Diagnostic struct {
	Code      Code
	AssetKey  string
	Date      Date
	Requested Quantity
	Available Quantity
	Detail    string
}

// MarshalJSON implements the json.Marshaler interface with a stable field
// order; zero quantities are omitted.
func (d Diagnostic) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("code", d.Code)
	w.Optional("assetKey", d.AssetKey)
	w.Append("date", d.Date)
	if !d.Requested.IsZero() {
		w.Append("requested", d.Requested)
	}
	if !d.Available.IsZero() {
		w.Append("available", d.Available)
	}
	w.Optional("detail", d.Detail)
	return w.MarshalJSON()
}

func (d Diagnostic) String() string {
	if d.Code == DataIncompleteness {
		return fmt.Sprintf("%s: %s on %s requested %s, available %s",
			d.Code, d.AssetKey, d.Date, d.Requested, d.Available)
	}
	return fmt.Sprintf("%s: %s on %s: %s", d.Code, d.AssetKey, d.Date, d.Detail)
}

// RunSummary accompanies every run with processed vs skipped vs flagged counts.
type RunSummary struct {
	Processed int // transactions fully applied
	Skipped   int // transactions with no effect on this engine (e.g. foreign kinds)
	Flagged   int // transactions applied with a degraded fallback
	Rejected  int // transactions rejected as unprocessable
}

func (s RunSummary) String() string {
	return fmt.Sprintf("processed %d, skipped %d, flagged %d, rejected %d",
		s.Processed, s.Skipped, s.Flagged, s.Rejected)
}
