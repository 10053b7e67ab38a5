package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/andref/lotledger"
	"github.com/andref/lotledger/config"
	"github.com/andref/lotledger/renderer"
	"github.com/andref/lotledger/store"
)

// taxEventsCmd holds the flags for the 'taxevents' subcommand.
type taxEventsCmd struct {
	start  string
	end    string
	method string
	json   bool
	save   bool
}

func (*taxEventsCmd) Name() string     { return "taxevents" }
func (*taxEventsCmd) Synopsis() string { return "realized disposals matched against tax lots" }
func (*taxEventsCmd) Usage() string {
	return `llt taxevents [-method <method>] [-s <date>] [-d <date>] [-json] [-save]

  Matches every disposal in the history against its acquisition lots and
  displays the realized tax events of the reporting period.
`
}

func (c *taxEventsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.method, "method", "", "Cost basis method (fifo, average); defaults to the configured one")
	f.StringVar(&c.start, "s", "", "Start date of the reporting period (inclusive)")
	f.StringVar(&c.end, "d", "", "End date of the reporting period (inclusive)")
	f.BoolVar(&c.json, "json", false, "Emit events as JSONL instead of a report")
	f.BoolVar(&c.save, "save", false, "Persist the full run into the local database")
}

func (c *taxEventsCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	methodStr := c.method
	if methodStr == "" {
		methodStr = config.Cfg.Method
	}
	method, err := lotledger.ParseMethod(methodStr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing method: %v\n", err)
		return subcommands.ExitUsageError
	}

	var from, to lotledger.Date
	if c.start != "" {
		if from, err = lotledger.ParseDate(c.start); err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing start date: %v\n", err)
			return subcommands.ExitUsageError
		}
	}
	if c.end != "" {
		if to, err = lotledger.ParseDate(c.end); err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing end date: %v\n", err)
			return subcommands.ExitUsageError
		}
	}

	txs, err := LoadTransactions()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading transactions: %v\n", err)
		return subcommands.ExitFailure
	}

	engine := lotledger.NewEngine(txs, method)
	if err := engine.Process(); err != nil {
		fmt.Fprintf(os.Stderr, "Error matching lots: %v\n", err)
		return subcommands.ExitFailure
	}

	if c.save {
		db, err := store.Open(config.Cfg.DatabasePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
			return subcommands.ExitFailure
		}
		defer db.Close()
		if err := db.ReplaceTaxEvents(method, engine.Events()); err != nil {
			fmt.Fprintf(os.Stderr, "Error saving tax events: %v\n", err)
			return subcommands.ExitFailure
		}
	}

	events := engine.RealizedEvents(from, to)
	if c.json {
		if err := lotledger.EncodeTaxEvents(os.Stdout, events); err != nil {
			fmt.Fprintf(os.Stderr, "Error encoding tax events: %v\n", err)
			return subcommands.ExitFailure
		}
		return subcommands.ExitSuccess
	}

	printMarkdown(renderer.TaxEventsMarkdown(events, method))
	return subcommands.ExitSuccess
}
