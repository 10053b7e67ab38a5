// Package cmd implements the CLI application to inspect a transaction
// history: reconstructed holdings, tax events and open lots.
package cmd

import (
	"flag"
	"fmt"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/google/subcommands"

	"github.com/andref/lotledger"
	"github.com/andref/lotledger/config"
	"github.com/andref/lotledger/store"
)

// Register the subcommands.
func Register(c *subcommands.Commander) {
	c.Register(&importCmd{}, "ledger")
	c.Register(&holdingsCmd{}, "reports")
	c.Register(&taxEventsCmd{}, "reports")
	c.Register(&lotsCmd{}, "reports")
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to
// use global variables.

var ledgerFile = flag.String("l", "", "Path to a transactions file (JSONL format); defaults to the local database")

// LoadTransactions reads the history from the -l file when given, else from
// the configured database.
func LoadTransactions() ([]lotledger.Transaction, error) {
	if *ledgerFile != "" {
		f, err := os.Open(*ledgerFile)
		if err != nil {
			return nil, fmt.Errorf("opening ledger %q: %w", *ledgerFile, err)
		}
		defer f.Close()
		return lotledger.DecodeTransactions(f, config.Cfg.ReportingCurrency)
	}

	db, err := store.Open(config.Cfg.DatabasePath)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	return db.Transactions(config.Cfg.ReportingCurrency)
}

// cashPolicy builds the cash eligibility predicate from config, falling back
// to the built-in broker list.
func cashPolicy() lotledger.CashPolicy {
	if len(config.Cfg.CashBrokers) > 0 {
		return lotledger.NewCashPolicy(config.Cfg.CashBrokers...)
	}
	return lotledger.DefaultCashPolicy()
}

// printMarkdown renders markdown for the terminal; on render errors the raw
// markdown is still printed.
func printMarkdown(md string) {
	out, err := glamour.Render(md, "auto")
	if err != nil {
		fmt.Print(md)
		return
	}
	fmt.Print(out)
}
