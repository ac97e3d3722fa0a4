package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"

	"github.com/seitarof/layout-lens/internal/printer"
	"github.com/seitarof/layout-lens/internal/resolver"
)

// ParseArgs parses command line arguments into Config. Flags left unset take
// their defaults from env.
func ParseArgs(args []string, env Env) (*Config, error) {
	cfg := &Config{}
	var contractFlag, modeRaw, formatRaw string

	fs := pflag.NewFlagSet("layout-lens", pflag.ContinueOnError)
	fs.StringVarP(&contractFlag, "contract", "c", "", `contract name, or "path/to/File.sol:Name" when ambiguous`)
	fs.StringVar(&cfg.ArtifactsDir, "artifacts", env.get(EnvArtifacts, defaultArtifactsDir), "hardhat artifacts directory")
	fs.StringVar(&modeRaw, "mode", env.get(EnvMode, resolver.ModeAuto.String()), "layout source: auto, ast or layout")
	fs.StringVarP(&formatRaw, "format", "f", env.get(EnvFormat, string(printer.FormatText)), "output format: text or json")
	fs.IntVar(&cfg.MaxDepth, "max-depth", resolver.DefaultMaxDepth, "maximum nesting of composite types")
	fs.StringVarP(&cfg.Output, "output", "o", "", "write to file instead of stdout")
	fs.BoolVar(&cfg.List, "list", false, "list compiled contracts and exit")
	fs.StringVar(&cfg.S3.Endpoint, "s3-endpoint", env.get(EnvS3Endpoint, ""), "S3 endpoint holding the artifacts")
	fs.StringVar(&cfg.S3.Region, "s3-region", env.get(EnvS3Region, ""), "S3 region")
	fs.StringVar(&cfg.S3.Bucket, "s3-bucket", env.get(EnvS3Bucket, ""), "S3 bucket; reads artifacts from S3 when set")
	fs.StringVar(&cfg.S3.Prefix, "s3-prefix", env.get(EnvS3Prefix, ""), "key prefix of the artifacts directory")
	fs.StringVar(&cfg.S3.AccessKey, "s3-access-key", env.get(EnvS3AccessKey, ""), "S3 access key")
	fs.StringVar(&cfg.S3.SecretKey, "s3-secret-key", env.get(EnvS3SecretKey, ""), "S3 secret key")
	fs.BoolVar(&cfg.S3.UseSSL, "s3-use-ssl", env.getBool(EnvS3UseSSL, true), "use TLS for S3")
	fs.BoolVarP(&cfg.ShowVersion, "version", "v", false, "show version")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if cfg.ShowVersion {
		return cfg, nil
	}

	contract, err := contractName(contractFlag, fs.Args())
	if err != nil {
		return nil, err
	}
	cfg.Contract = contract
	if cfg.Contract == "" && !cfg.List {
		return nil, fmt.Errorf("--contract is required")
	}

	if cfg.Mode, err = resolver.ParseMode(modeRaw); err != nil {
		return nil, err
	}
	if cfg.Format, err = printer.ParseFormat(formatRaw); err != nil {
		return nil, err
	}
	if cfg.MaxDepth <= 0 {
		return nil, fmt.Errorf("--max-depth must be positive, got %d", cfg.MaxDepth)
	}
	if cfg.UseS3() {
		if strings.TrimSpace(cfg.S3.Endpoint) == "" {
			return nil, fmt.Errorf("--s3-endpoint is required with --s3-bucket")
		}
	} else if strings.TrimSpace(cfg.ArtifactsDir) == "" {
		return nil, fmt.Errorf("--artifacts is required")
	}
	return cfg, nil
}

// contractName accepts the contract either as --contract or as the single positional argument.
func contractName(flag string, positional []string) (string, error) {
	flag = strings.TrimSpace(flag)
	switch len(positional) {
	case 0:
		return flag, nil
	case 1:
		arg := strings.TrimSpace(positional[0])
		if flag != "" && flag != arg {
			return "", fmt.Errorf("contract given twice: %q and %q", flag, arg)
		}
		return arg, nil
	default:
		return "", fmt.Errorf("expected one contract, got %d: %s", len(positional), strings.Join(positional, " "))
	}
}
