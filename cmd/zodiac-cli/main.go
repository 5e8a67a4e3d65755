// Command zodiac-cli looks up signs from the terminal and manages the
// SQLite sign table.
//
//	zodiac-cli -month 3 -day 21
//	zodiac-cli -month march -day 21
//	zodiac-cli -sign leo
//	zodiac-cli -list
//	zodiac-cli -verify
//	zodiac-cli -export > signs.yaml
//	zodiac-cli -import signs.yaml
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"zodiac/internal/catalog/memory"
	"zodiac/internal/cli"
	"zodiac/internal/config"
	"zodiac/internal/core"
	"zodiac/internal/log"
	"zodiac/internal/storage"
)

func main() {
	cli.LoadEnvFile()
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("zodiac-cli", flag.ContinueOnError)
	fs.SetOutput(stderr)
	month := fs.String("month", "", "birth month, number or name")
	day := fs.Int("day", 0, "birth day of month")
	name := fs.String("sign", "", "print a sign by name")
	list := fs.Bool("list", false, "print the sign table")
	export := fs.Bool("export", false, "write the sign table as a YAML seed file to stdout")
	verify := fs.Bool("verify", false, "check that the table covers every date exactly once")
	importPath := fs.String("import", "", "replace the SQLite sign table with a YAML seed file")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	level := slog.LevelWarn
	if l := os.Getenv("LOG_LEVEL"); l != "" {
		level = log.ParseLevel(l)
	}
	logger := log.New(log.Config{Level: level, Output: stderr, Component: log.ComponentCLI})

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	if *importPath != "" {
		if err := importSigns(ctx, *importPath, cfg.SQLiteDBPath); err != nil {
			fmt.Fprintf(stderr, "import: %v\n", err)
			return 1
		}
		fmt.Fprintf(stdout, "imported %s into %s\n", *importPath, cfg.SQLiteDBPath)
		return 0
	}

	if !*list && !*verify && !*export && *name == "" && *month == "" {
		fs.Usage()
		return 2
	}

	table, err := cli.LoadSignTable(ctx, cfg, logger)
	if err != nil {
		fmt.Fprintf(stderr, "load signs: %v\n", err)
		return 1
	}

	switch {
	case *list:
		printTable(stdout, table)
		return 0
	case *export:
		data, err := memory.MarshalSeed(table.Signs())
		if err != nil {
			fmt.Fprintf(stderr, "export: %v\n", err)
			return 1
		}
		_, _ = stdout.Write(data)
		return 0
	case *name != "":
		sign, ok := table.Find(*name)
		if !ok {
			fmt.Fprintf(stderr, "unknown sign %q\n", *name)
			return 1
		}
		printSign(stdout, sign)
		return 0
	case *verify:
		if err := table.Verify(); err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
		fmt.Fprintf(stdout, "ok: %d signs cover all %d dates exactly once\n", table.Len(), len(core.CalendarDates()))
		return 0
	}

	m, err := core.ParseMonth(*month)
	if err != nil {
		fmt.Fprintln(stderr, "Invalid date. Please enter a valid month and day.")
		return 1
	}
	sign, err := table.Lookup(m, *day)
	switch {
	case errors.Is(err, core.ErrInvalidDate):
		fmt.Fprintln(stderr, "Invalid date. Please enter a valid month and day.")
		return 1
	case err != nil:
		logger.Error("No sign matched", log.FieldError, err, log.FieldMonth, m, log.FieldDay, *day)
		fmt.Fprintln(stderr, "Could not determine zodiac sign. Please check your date.")
		return 1
	}
	printSign(stdout, sign)
	return 0
}

func importSigns(ctx context.Context, path, dbPath string) error {
	store, err := memory.NewFromFile(path)
	if err != nil {
		return err
	}
	table, err := store.LoadTable(ctx)
	if err != nil {
		return err
	}
	if err := table.Verify(); err != nil {
		return fmt.Errorf("refusing to import: %w", err)
	}

	repo, err := storage.NewSQLiteRepository(dbPath)
	if err != nil {
		return err
	}
	defer repo.Close()
	return repo.ReplaceSigns(ctx, table.Signs())
}

func printSign(w io.Writer, s core.Sign) {
	fmt.Fprintf(w, "%s %s (%s)\n", s.Symbol, s.Name, s.SpanLabel())
	if s.Description != "" {
		fmt.Fprintln(w, s.Description)
	}
	if s.Element != "" {
		fmt.Fprintf(w, "Element: %s\n", s.Element)
	}
	if s.RulingPlanet != "" {
		fmt.Fprintf(w, "Ruling Planet: %s\n", s.RulingPlanet)
	}
	if fact, ok := core.ElementFact(s.Element); ok {
		fmt.Fprintln(w, fact)
	}
}

func printTable(w io.Writer, t core.Table) {
	for _, s := range t.Signs() {
		fmt.Fprintf(w, "%s %-12s %s\n", s.Symbol, s.Name, s.SpanLabel())
	}
}
