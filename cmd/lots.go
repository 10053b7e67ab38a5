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
)

// lotsCmd holds the flags for the 'lots' subcommand.
type lotsCmd struct {
	method string
}

func (*lotsCmd) Name() string     { return "lots" }
func (*lotsCmd) Synopsis() string { return "open tax lots remaining after full replay" }
func (*lotsCmd) Usage() string {
	return `llt lots [-method <method>]

  Displays the acquisition lots still open after matching every disposal in
  the history.
`
}

func (c *lotsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.method, "method", "", "Cost basis method (fifo, average); defaults to the configured one")
}

func (c *lotsCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	methodStr := c.method
	if methodStr == "" {
		methodStr = config.Cfg.Method
	}
	method, err := lotledger.ParseMethod(methodStr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing method: %v\n", err)
		return subcommands.ExitUsageError
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

	printMarkdown(renderer.LotsMarkdown(engine.Lots(), method))
	return subcommands.ExitSuccess
}
