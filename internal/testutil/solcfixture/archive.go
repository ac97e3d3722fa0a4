package solcfixture

import (
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/tools/txtar"
)

// LoadArchive parses a txtar archive, typically from a package's testdata directory.
func LoadArchive(file string) (*txtar.Archive, error) {
	a, err := txtar.ParseFile(file)
	if err != nil {
		return nil, fmt.Errorf("load archive %s: %w", file, err)
	}
	return a, nil
}

// Files returns the archive contents keyed by slash-separated file name.
func Files(a *txtar.Archive) map[string][]byte {
	out := make(map[string][]byte, len(a.Files))
	for _, f := range a.Files {
		out[strings.TrimSpace(f.Name)] = f.Data
	}
	return out
}

// File returns one file of the archive.
func File(a *txtar.Archive, name string) ([]byte, bool) {
	for _, f := range a.Files {
		if strings.TrimSpace(f.Name) == name {
			return f.Data, true
		}
	}
	return nil, false
}

// WriteTree writes every archive file below dir.
func WriteTree(dir string, a *txtar.Archive) error {
	for _, f := range a.Files {
		dst := filepath.Join(dir, filepath.FromSlash(strings.TrimSpace(f.Name)))
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(dst, f.Data, 0o644); err != nil {
			return err
		}
	}
	return nil
}

// Hardhat lays out compiler output the way hardhat stores it below its artifacts
// directory: one build-info file plus an artifact and a debug file per contract.
func Hardhat(buildID string, output []byte, fullyQualifiedNames ...string) *txtar.Archive {
	buildInfo, _ := json.Marshal(map[string]any{
		"_format":         "hh-sol-build-info-1",
		"id":              buildID,
		"solcVersion":     "0.8.24",
		"solcLongVersion": "0.8.24+commit.e11b9ed9",
		"input":           map[string]any{"language": "Solidity"},
		"output":          json.RawMessage(output),
	})
	a := &txtar.Archive{}
	a.Files = append(a.Files, txtar.File{Name: "build-info/" + buildID + ".json", Data: buildInfo})

	names := append([]string(nil), fullyQualifiedNames...)
	sort.Strings(names)
	for _, fqn := range names {
		i := strings.LastIndex(fqn, ":")
		source, contract := fqn[:i], fqn[i+1:]
		artifact, _ := json.Marshal(map[string]any{
			"_format":      "hh-sol-artifact-1",
			"contractName": contract,
			"sourceName":   source,
			"abi":          []any{},
			"bytecode":     "0x",
		})
		depth := strings.Count(source, "/") + 1
		dbg, _ := json.Marshal(map[string]any{
			"_format":   "hh-sol-dbg-1",
			"buildInfo": strings.Repeat("../", depth) + "build-info/" + buildID + ".json",
		})
		a.Files = append(a.Files,
			txtar.File{Name: path.Join(source, contract+".json"), Data: artifact},
			txtar.File{Name: path.Join(source, contract+".dbg.json"), Data: dbg},
		)
	}
	return a
}

// AttachLayout attaches the storage layout stored as file in the archive to the
// contract named by fullyQualifiedName.
func AttachLayout(b *Builder, a *txtar.Archive, file string, fullyQualifiedName string) error {
	data, ok := File(a, file)
	if !ok {
		return fmt.Errorf("archive has no file %q", file)
	}
	i := strings.LastIndex(fullyQualifiedName, ":")
	if i < 0 {
		return fmt.Errorf("%q is not a fully qualified name", fullyQualifiedName)
	}
	return b.StorageLayout(fullyQualifiedName[:i], fullyQualifiedName[i+1:], string(data))
}
