package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/spf13/pflag"

	"github.com/seitarof/layout-lens/internal/cli"
	"github.com/seitarof/layout-lens/internal/matcher"
	"github.com/seitarof/layout-lens/internal/printer"
	"github.com/seitarof/layout-lens/internal/resolver"
)

var version = "dev"

func main() {
	env, err := cli.LoadEnv(".env")
	if err != nil {
		log.Fatal(err)
	}
	cfg, err := cli.ParseArgs(os.Args[1:], env)
	if errors.Is(err, pflag.ErrHelp) {
		return
	}
	if err != nil {
		log.Fatal(err)
	}
	if cfg.ShowVersion {
		fmt.Println(version)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, cfg *cli.Config) error {
	provider, err := cli.NewProvider(cfg)
	if err != nil {
		return err
	}
	m := matcher.NewContractMatcher()
	r := resolver.New(
		resolver.WithMode(cfg.Mode),
		resolver.WithMaxDepth(cfg.MaxDepth),
		resolver.WithFallback(cli.WarnASTFallback),
	)
	p, err := printer.New(cfg.Format)
	if err != nil {
		return err
	}

	out, err := cli.OpenOutput(cfg.Output)
	if err != nil {
		return err
	}
	runner := cli.NewRunner(provider, m, r, p)
	if err := runner.Run(ctx, cfg, out); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
