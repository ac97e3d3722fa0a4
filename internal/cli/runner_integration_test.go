package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seitarof/layout-lens/internal/artifact"
	"github.com/seitarof/layout-lens/internal/layout"
	"github.com/seitarof/layout-lens/internal/matcher"
	"github.com/seitarof/layout-lens/internal/printer"
	"github.com/seitarof/layout-lens/internal/resolver"
	"github.com/seitarof/layout-lens/internal/testutil/solcfixture"
)

var sampleContracts = []string{
	solcfixture.BaseFQN,
	solcfixture.OtherFQN,
	solcfixture.TokenFQN,
	solcfixture.VaultFQN,
	solcfixture.LegacyFQN,
	solcfixture.TreeFQN,
}

// writeSampleArtifacts lays out the sample build as a hardhat artifacts directory.
func writeSampleArtifacts(t testing.TB) string {
	t.Helper()
	layouts, err := solcfixture.LoadArchive("../../testdata/layouts.txtar")
	require.NoError(t, err)
	b := solcfixture.Sample()
	require.NoError(t, solcfixture.AttachLayout(b, layouts, "Vault.json", solcfixture.VaultFQN))

	dir := filepath.Join(t.TempDir(), "artifacts")
	require.NoError(t, solcfixture.WriteTree(dir, solcfixture.Hardhat(solcfixture.SampleBuildID, b.Output(), sampleContracts...)))
	return dir
}

func newTestRunner(t *testing.T, cfg *Config) Runner {
	t.Helper()
	provider, err := NewProvider(cfg)
	require.NoError(t, err)
	p, err := printer.New(cfg.Format)
	require.NoError(t, err)
	return NewRunner(
		provider,
		matcher.NewContractMatcher(),
		resolver.New(resolver.WithMode(cfg.Mode), resolver.WithMaxDepth(cfg.MaxDepth)),
		p,
	)
}

func TestRunner_Run_PrintsStorageLayout(t *testing.T) {
	cfg, err := ParseArgs([]string{"Vault", "--artifacts", writeSampleArtifacts(t)}, envOf(nil))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, newTestRunner(t, cfg).Run(context.Background(), cfg, &buf))

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.NotEmpty(t, lines)
	assert.Equal(t, "layout of contracts/Token.sol:Vault:", lines[0])
	assert.Contains(t, lines, "x [21][uint256] slot=0 offset=0")
	assert.Contains(t, lines, "pts [37][struct Point[5]] slot=7 offset=0")
	assert.Contains(t, lines, "  - y [3][uint256] slot=1 offset=0")
	assert.Contains(t, lines, "flag [52][bool] slot=19 offset=20")
}

func TestRunner_Run_ASTFallbackAsJSON(t *testing.T) {
	dir := writeSampleArtifacts(t)
	cfg, err := ParseArgs([]string{"contracts/Token.sol:Token", "--artifacts", dir, "--format", "json"}, envOf(nil))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, newTestRunner(t, cfg).Run(context.Background(), cfg, &buf))

	var doc struct {
		Contract string                 `json:"contract"`
		Storage  []layout.TypeReference `json:"storage"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, solcfixture.TokenFQN, doc.Contract)
	require.Len(t, doc.Storage, 1)
	assert.Equal(t, "supply", doc.Storage[0].Name)
	assert.Empty(t, doc.Storage[0].Slot)
}

func TestRunner_Run_AmbiguousShortName(t *testing.T) {
	cfg, err := ParseArgs([]string{"Token", "--artifacts", writeSampleArtifacts(t)}, envOf(nil))
	require.NoError(t, err)

	err = newTestRunner(t, cfg).Run(context.Background(), cfg, &bytes.Buffer{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, layout.ErrAmbiguousName), "got %v", err)
	assert.Contains(t, err.Error(), `please use full path like "contracts/target.sol:ContractName"`)
}

func TestRunner_Run_RecursiveStructFails(t *testing.T) {
	cfg, err := ParseArgs([]string{"Tree", "--artifacts", writeSampleArtifacts(t), "--max-depth", "6"}, envOf(nil))
	require.NoError(t, err)

	err = newTestRunner(t, cfg).Run(context.Background(), cfg, &bytes.Buffer{})
	assert.ErrorIs(t, err, layout.ErrRecursionLimitExceeded)
}

func TestRunner_Run_ListAndOutputFile(t *testing.T) {
	cfg, err := ParseArgs([]string{"--list", "--artifacts", writeSampleArtifacts(t)}, envOf(nil))
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "contracts.txt")
	w, err := OpenOutput(out)
	require.NoError(t, err)
	require.NoError(t, newTestRunner(t, cfg).Run(context.Background(), cfg, w))
	require.NoError(t, w.Close())

	content, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, []string{
		solcfixture.BaseFQN,
		solcfixture.OtherFQN,
		solcfixture.TokenFQN,
		solcfixture.VaultFQN,
		solcfixture.TreeFQN,
		solcfixture.LegacyFQN,
	}, strings.Fields(string(content)))
}

func BenchmarkRunnerRun_EndToEnd(b *testing.B) {
	layouts, err := solcfixture.LoadArchive("../../testdata/layouts.txtar")
	if err != nil {
		b.Fatal(err)
	}
	builder := solcfixture.Sample()
	if err := solcfixture.AttachLayout(builder, layouts, "Vault.json", solcfixture.VaultFQN); err != nil {
		b.Fatal(err)
	}
	files := solcfixture.Files(solcfixture.Hardhat(solcfixture.SampleBuildID, builder.Output(), sampleContracts...))
	provider, err := artifact.NewHardhatProvider(artifact.NewMemoryStore(files))
	if err != nil {
		b.Fatal(err)
	}

	p, _ := printer.New(printer.FormatText)
	runner := NewRunner(provider, matcher.NewContractMatcher(), resolver.New(), p)
	cfg := &Config{Contract: "Vault"}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		var buf bytes.Buffer
		if err := runner.Run(context.Background(), cfg, &buf); err != nil {
			b.Fatal(err)
		}
	}
}
