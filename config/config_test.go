package config

import (
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"LOTLEDGER_CURRENCY", "LOTLEDGER_METHOD", "LOTLEDGER_DB_PATH",
		"LOTLEDGER_LOG_LEVEL", "LOTLEDGER_CASH_BROKERS",
	} {
		t.Setenv(key, "")
	}

	Load()

	if Cfg.ReportingCurrency != "EUR" {
		t.Errorf("ReportingCurrency = %q, want EUR", Cfg.ReportingCurrency)
	}
	if Cfg.Method != "fifo" {
		t.Errorf("Method = %q, want fifo", Cfg.Method)
	}
	if Cfg.DatabasePath != "lotledger.db" {
		t.Errorf("DatabasePath = %q, want lotledger.db", Cfg.DatabasePath)
	}
	if len(Cfg.CashBrokers) != 0 {
		t.Errorf("CashBrokers = %v, want empty (use built-in defaults)", Cfg.CashBrokers)
	}
}

func TestLoadCashBrokers(t *testing.T) {
	t.Setenv("LOTLEDGER_CASH_BROKERS", " scalable_capital, flatex ,,custom_bank ")

	Load()

	want := []string{"scalable_capital", "flatex", "custom_bank"}
	if len(Cfg.CashBrokers) != len(want) {
		t.Fatalf("CashBrokers = %v, want %v", Cfg.CashBrokers, want)
	}
	for i, b := range want {
		if Cfg.CashBrokers[i] != b {
			t.Errorf("CashBrokers[%d] = %q, want %q", i, Cfg.CashBrokers[i], b)
		}
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("LOTLEDGER_CURRENCY", "USD")
	t.Setenv("LOTLEDGER_METHOD", "average")

	Load()

	if Cfg.ReportingCurrency != "USD" {
		t.Errorf("ReportingCurrency = %q, want USD", Cfg.ReportingCurrency)
	}
	if Cfg.Method != "average" {
		t.Errorf("Method = %q, want average", Cfg.Method)
	}
}
