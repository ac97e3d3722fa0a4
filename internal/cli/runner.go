package cli

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/seitarof/layout-lens/internal/artifact"
	"github.com/seitarof/layout-lens/internal/matcher"
	"github.com/seitarof/layout-lens/internal/printer"
	"github.com/seitarof/layout-lens/internal/resolver"
)

// Runner orchestrates artifact/matcher/resolver/printer layers.
type Runner interface {
	Run(ctx context.Context, cfg *Config, w io.Writer) error
}

type runnerImpl struct {
	provider artifact.Provider
	matcher  matcher.ContractMatcher
	resolver resolver.Resolver
	printer  printer.Printer
}

// NewRunner creates a default runner implementation.
func NewRunner(
	p artifact.Provider,
	m matcher.ContractMatcher,
	r resolver.Resolver,
	pr printer.Printer,
) Runner {
	return &runnerImpl{
		provider: p,
		matcher:  m,
		resolver: r,
		printer:  pr,
	}
}

// Run resolves and prints the layout of cfg.Contract, or lists contracts when cfg.List is set.
func (r *runnerImpl) Run(ctx context.Context, cfg *Config, w io.Writer) error {
	names, err := r.provider.FullyQualifiedNames(ctx)
	if err != nil {
		return fmt.Errorf("list contracts: %w", err)
	}
	if cfg.List {
		for _, name := range names {
			if _, err := fmt.Fprintln(w, name); err != nil {
				return err
			}
		}
		return nil
	}

	fqn, err := r.matcher.Match(cfg.Contract, names)
	if err != nil {
		return fmt.Errorf("match contract: %w", err)
	}
	bi, err := r.provider.BuildInfo(ctx, fqn)
	if err != nil {
		return fmt.Errorf("load build info: %w", err)
	}
	refs, err := r.resolver.ResolveStorageLayout(fqn, bi.Output)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", fqn, err)
	}
	if err := r.printer.Print(w, fqn, refs); err != nil {
		return fmt.Errorf("print layout: %w", err)
	}
	return nil
}

// NewProvider returns the artifact source selected by cfg.
func NewProvider(cfg *Config, opts ...artifact.Option) (artifact.Provider, error) {
	if cfg.UseS3() {
		return artifact.NewS3Provider(cfg.S3, opts...)
	}
	return artifact.NewDiskProvider(cfg.ArtifactsDir, opts...)
}

// OpenOutput returns stdout for an empty path and a created file otherwise.
func OpenOutput(path string) (io.WriteCloser, error) {
	if path == "" {
		return nopCloser{os.Stdout}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("open output: %w", err)
	}
	return f, nil
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// WarnASTFallback logs that a contract's layout is read from the AST, so slots
// and offsets will be missing.
func WarnASTFallback(fullyQualifiedName string, reason error) {
	log.Printf(
		"layout-lens: warning: %s: storage layout unusable (%v), reading the AST instead (slots and offsets unavailable)",
		fullyQualifiedName,
		reason,
	)
}
