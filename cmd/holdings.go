package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/andref/lotledger"
	"github.com/andref/lotledger/renderer"
)

// holdingsCmd holds the flags for the 'holdings' subcommand.
type holdingsCmd struct{}

func (*holdingsCmd) Name() string     { return "holdings" }
func (*holdingsCmd) Synopsis() string { return "current positions and cash from full replay" }
func (*holdingsCmd) Usage() string {
	return `llt holdings [-l <file>]

  Replays the full transaction history and displays the resulting positions,
  cash balance and capital accumulators.
`
}

func (c *holdingsCmd) SetFlags(f *flag.FlagSet) {}

func (c *holdingsCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	txs, err := LoadTransactions()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading transactions: %v\n", err)
		return subcommands.ExitFailure
	}

	state, err := lotledger.Reconstruct(txs, cashPolicy())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reconstructing portfolio: %v\n", err)
		return subcommands.ExitFailure
	}

	printMarkdown(renderer.HoldingsMarkdown(state))
	return subcommands.ExitSuccess
}
