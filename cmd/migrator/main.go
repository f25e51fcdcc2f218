// Command migrator applies or rolls back the worker's database schema
// from the command line, independent of worker startup.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/nova-stream/eventpipe/internal/migrations"
)

func main() {
	flag.Usage = printUsage
	flag.Parse()

	if flag.NArg() < 1 {
		printUsage()
		os.Exit(1)
	}

	dsn := os.Getenv("STORE_URL")
	if dsn == "" {
		dsn = "postgres://localhost:5432/eventpipe?sslmode=disable"
	}

	runner, err := migrations.NewRunner(dsn)
	if err != nil {
		fmt.Fprintln(os.Stderr, "migrator:", err)
		os.Exit(1)
	}
	defer runner.Close()

	if err := executeCommand(flag.Arg(0), runner); err != nil {
		fmt.Fprintln(os.Stderr, "migrator:", err)
		os.Exit(1)
	}
}

func executeCommand(command string, runner *migrations.Runner) error {
	switch command {
	case "up":
		return runner.Up()
	case "down":
		return runner.Down()
	case "version":
		version, dirty, err := runner.Version()
		if err != nil {
			return err
		}
		dirtyNote := ""
		if dirty {
			dirtyNote = " (dirty)"
		}
		fmt.Printf("version %d%s\n", version, dirtyNote)
		return nil
	default:
		return fmt.Errorf("unknown command: %s", command)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `migrator - applies the worker's database schema

USAGE:
    migrator COMMAND

COMMANDS:
    up       Apply all pending migrations
    down     Roll back the most recent migration
    version  Show the currently applied migration version

ENVIRONMENT:
    STORE_URL  Postgres connection string (default: postgres://localhost:5432/eventpipe?sslmode=disable)
`)
}
