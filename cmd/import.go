package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/andref/lotledger"
	"github.com/andref/lotledger/config"
	"github.com/andref/lotledger/store"
)

// importCmd holds the flags for the 'import' subcommand.
type importCmd struct {
	file string
}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "import a transactions file into the local database" }
func (*importCmd) Usage() string {
	return `llt import -f <file>

  Reads a normalized transactions file (JSONL) and replaces the local
  database history with it. Replay always runs over the full history, so an
  import of new records means re-importing the full file.
`
}

func (c *importCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.file, "f", "", "Transactions file to import (JSONL format)")
}

func (c *importCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.file == "" {
		fmt.Fprintln(os.Stderr, "the -f flag is required")
		return subcommands.ExitUsageError
	}

	in, err := os.Open(c.file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening %q: %v\n", c.file, err)
		return subcommands.ExitFailure
	}
	defer in.Close()

	txs, err := lotledger.DecodeTransactions(in, config.Cfg.ReportingCurrency)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error decoding %q: %v\n", c.file, err)
		return subcommands.ExitFailure
	}

	db, err := store.Open(config.Cfg.DatabasePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
		return subcommands.ExitFailure
	}
	defer db.Close()

	if err := db.SaveTransactions(txs); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving transactions: %v\n", err)
		return subcommands.ExitFailure
	}

	fmt.Printf("Imported %d transactions into %s\n", len(txs), config.Cfg.DatabasePath)
	return subcommands.ExitSuccess
}
