// Command ignite is a one-shot CLI for the ignite key-value store: each
// invocation opens the store, runs a single put/get/delete/compact
// operation, and closes it. It is a demo and admin tool, not an
// interactive shell.
//
// Usage:
//
//	ignite put --dir <path> <key> <value>
//	ignite get --dir <path> <key>
//	ignite delete --dir <path> <key>
//	ignite compact --dir <path>
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/ignitedb/ignite/pkg/config"
	"github.com/ignitedb/ignite/pkg/ignite"
	"github.com/ignitedb/ignite/pkg/options"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		fmt.Println(usage())
		return nil
	}

	cmd, rest := args[0], args[1:]
	if cmd == "help" || cmd == "-h" || cmd == "--help" {
		fmt.Println(usage())
		return nil
	}

	flags := flag.NewFlagSet(cmd, flag.ContinueOnError)
	dir := flags.String("dir", "", "data directory (defaults to the config file's dataDir, then the built-in default)")
	configPath := flags.StringP("config", "c", "", "path to a YAML config file")
	if err := flags.Parse(rest); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	opts, err := resolveOptions(*configPath, *dir)
	if err != nil {
		return err
	}

	db, err := ignite.NewInstance("ignite-cli", opts...)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer db.Close()

	positional := flags.Args()

	switch cmd {
	case "put":
		return cmdPut(db, positional)
	case "get":
		return cmdGet(db, positional)
	case "delete", "rm":
		return cmdDelete(db, positional)
	case "compact":
		return cmdCompact(db)
	default:
		return fmt.Errorf("unknown command: %s\n%s", cmd, usage())
	}
}

func resolveOptions(configPath, dir string) ([]options.OptionFunc, error) {
	var opts []options.OptionFunc

	if configPath != "" {
		f, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		opts = append(opts, f.OptionFuncs()...)
	}

	if dir != "" {
		opts = append(opts, options.WithDataDir(dir))
	}

	return opts, nil
}

func cmdPut(db *ignite.Instance, args []string) error {
	if len(args) != 2 {
		return errors.New("usage: ignite put --dir <path> <key> <value>")
	}
	return db.Put([]byte(args[0]), []byte(args[1]))
}

func cmdGet(db *ignite.Instance, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: ignite get --dir <path> <key>")
	}
	value, err := db.Get([]byte(args[0]))
	if err != nil {
		return err
	}
	fmt.Println(string(value))
	return nil
}

func cmdDelete(db *ignite.Instance, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: ignite delete --dir <path> <key>")
	}
	return db.Delete([]byte(args[0]))
}

func cmdCompact(db *ignite.Instance) error {
	stats, err := db.Compact(context.Background())
	if err != nil {
		return err
	}
	fmt.Printf("compacted %d segments, wrote %d records, took %s\n",
		stats.SegmentsCompacted, stats.RecordsWritten, stats.Duration)
	return nil
}

func usage() string {
	return `ignite - embedded key-value store CLI

Commands:
  put --dir <path> <key> <value>      Store a value
  get --dir <path> <key>              Retrieve a value
  delete, rm --dir <path> <key>       Remove a value
  compact --dir <path>                Run a compaction pass

Flags:
  --dir string        data directory
  -c, --config string path to a YAML config file

Examples:
  ignite put --dir /tmp/ignite-data user:1 alice
  ignite get --dir /tmp/ignite-data user:1
  ignite compact --dir /tmp/ignite-data`
}
