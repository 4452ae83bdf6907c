package main

import (
	"context"
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"fastlog/internal/logger"
	"fastlog/pkg/fastlog"
)

func main() {
	var cli CLI
	parser := kong.Must(&cli,
		kong.Name("fastlog"),
		kong.Description("Manage fasting logs directly against the store."),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{Compact: true}),
	)
	kctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)

	if err := cli.Log.Init(!cli.Log.Debug); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	store, closeStore, err := cli.Store.Open(ctx)
	if err != nil {
		logger.Error("open store", "store", cli.Store.Driver, "error", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer closeStore()

	a := &app{ctx: ctx, logs: fastlog.NewService(store), out: os.Stdout, format: cli.Format}
	if err := kctx.Run(a); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		closeStore()
		os.Exit(1)
	}
}
