package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/seitarof/layout-lens/internal/artifact"
	"github.com/seitarof/layout-lens/internal/printer"
	"github.com/seitarof/layout-lens/internal/resolver"
)

// Environment variables that provide defaults for command line flags.
const (
	EnvArtifacts   = "LAYOUT_LENS_ARTIFACTS"
	EnvMode        = "LAYOUT_LENS_MODE"
	EnvFormat      = "LAYOUT_LENS_FORMAT"
	EnvS3Endpoint  = "LAYOUT_LENS_S3_ENDPOINT"
	EnvS3Region    = "LAYOUT_LENS_S3_REGION"
	EnvS3Bucket    = "LAYOUT_LENS_S3_BUCKET"
	EnvS3Prefix    = "LAYOUT_LENS_S3_PREFIX"
	EnvS3AccessKey = "LAYOUT_LENS_S3_ACCESS_KEY"
	EnvS3SecretKey = "LAYOUT_LENS_S3_SECRET_KEY"
	EnvS3UseSSL    = "LAYOUT_LENS_S3_USE_SSL"
)

const defaultArtifactsDir = "artifacts"

// Config stores CLI options for a single run.
type Config struct {
	Contract     string
	ArtifactsDir string
	Mode         resolver.Mode
	Format       printer.Format
	MaxDepth     int
	Output       string
	List         bool
	S3           artifact.S3Config
	ShowVersion  bool
}

// UseS3 reports whether artifacts are read from a bucket instead of ArtifactsDir.
func (c *Config) UseS3() bool {
	return strings.TrimSpace(c.S3.Bucket) != ""
}

// Env looks up a configuration variable. Unset variables read as "".
type Env func(key string) string

// LoadEnv reads dotenv files and returns a lookup where the process environment
// wins over file values and earlier files win over later ones. Missing files are skipped.
func LoadEnv(files ...string) (Env, error) {
	fileVars := map[string]string{}
	for _, name := range files {
		vars, err := godotenv.Read(name)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		for k, v := range vars {
			if _, ok := fileVars[k]; !ok {
				fileVars[k] = v
			}
		}
	}
	return func(key string) string {
		if v, ok := os.LookupEnv(key); ok {
			return v
		}
		return fileVars[key]
	}, nil
}

func (e Env) get(key, fallback string) string {
	if e == nil {
		e = os.Getenv
	}
	if v := strings.TrimSpace(e(key)); v != "" {
		return v
	}
	return fallback
}

func (e Env) getBool(key string, fallback bool) bool {
	raw := e.get(key, "")
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return v
}
