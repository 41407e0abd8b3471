package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/trezcool/ontrack/core"
	"github.com/trezcool/ontrack/core/inference"
	"github.com/trezcool/ontrack/core/risk"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	conf *core.Config
	db   *sql.DB
	out  io.Writer

	loadModel      func() *inference.ModelContext
	newRiskService func(mc *inference.ModelContext) risk.Service
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS] - run a goose migration command (up, down, status, create NAME sql, ...)")
	fmt.Fprintln(cli.out, "  assess -student ID [-prediction] - print the risk assessment of a student")
	fmt.Fprintln(cli.out, "  checkmodel - load the model artifacts and report their state")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	assessCmd := flag.NewFlagSet("assess", flag.ContinueOnError)
	assessCmd.SetOutput(cli.out)
	assessStudent := assessCmd.Int("student", 0, "The student ID.")
	assessPrediction := assessCmd.Bool("prediction", false, "Only print the model prediction.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			fmt.Fprintln(cli.out, "Usage: migrate COMMAND [ARGS]")
			return errHelp
		}
		return cli.migrate(args[2:])
	case "assess":
		if err := assessCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *assessStudent <= 0 {
			assessCmd.Usage()
			return errHelp
		}
		return cli.assess(*assessStudent, *assessPrediction)
	case "checkmodel":
		return cli.checkModel()
	default:
		cli.printUsage()
		return errHelp
	}
}
