package lotledger

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestDiagnosticMarshalJSON(t *testing.T) {
	shortfall := Diagnostic{
		Code:      DataIncompleteness,
		AssetKey:  "TICKER:ACME",
		Date:      NewDate(2024, time.February, 1),
		Requested: Q(8),
		Available: Q(5),
		Detail:    "disposal exceeds open lots",
	}
	b, err := json.Marshal(shortfall)
	if err != nil {
		t.Fatalf("Marshal() failed: %v", err)
	}
	for _, field := range []string{`"code":"data-incompleteness"`, `"requested":8`, `"available":5`} {
		if !strings.Contains(string(b), field) {
			t.Errorf("marshaled diagnostic missing %s: %s", field, b)
		}
	}

	rejection := Diagnostic{
		Code:   AmbiguousAssetIdentity,
		Date:   NewDate(2024, time.February, 1),
		Detail: "security transaction without ticker or ISIN",
	}
	b, err = json.Marshal(rejection)
	if err != nil {
		t.Fatalf("Marshal() failed: %v", err)
	}
	for _, field := range []string{`"requested"`, `"available"`, `"assetKey"`} {
		if strings.Contains(string(b), field) {
			t.Errorf("marshaled diagnostic should omit zero %s: %s", field, b)
		}
	}
}
