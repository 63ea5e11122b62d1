package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"

	"github.com/trezcool/ecolage/core/fee"
	"github.com/trezcool/ecolage/core/school"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	db        *sql.DB
	schoolSvc *school.Service
	feeSvc    *fee.Service
	ledger    *fee.Ledger
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate COMMAND [ARGS] - run a goose migration command (up, down, status, ...)")
	fmt.Println("  seed - load a demo roster and fee definitions")
	fmt.Println("  remindoverdue - email each student a summary of their overdue fees")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	seedCmd := flag.NewFlagSet("seed", flag.ExitOnError)
	seedYear := seedCmd.String("year", "", "The academic year to seed, eg 2024-2025. Defaults to the current one.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "seed":
		if err := seedCmd.Parse(args[2:]); err != nil {
			return err
		}
		return cli.seed(context.Background(), *seedYear)
	case "remindoverdue":
		return cli.remindOverdue(context.Background())
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) remindOverdue(ctx context.Context) error {
	sent, err := cli.ledger.RemindOverdue(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("%d reminder(s) sent\n", sent)
	return nil
}
