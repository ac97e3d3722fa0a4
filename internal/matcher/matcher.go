package matcher

import (
	"fmt"
	"sort"
	"strings"

	"github.com/seitarof/layout-lens/internal/layout"
)

// ContractMatcher resolves a contract name given on the command line to exactly one
// fully-qualified "path:ContractName".
type ContractMatcher interface {
	Match(name string, fullyQualifiedNames []string) (string, error)
	Candidates(name string, fullyQualifiedNames []string) []string
}

type contractMatcherImpl struct{}

// NewContractMatcher returns default contract matcher.
func NewContractMatcher() ContractMatcher {
	return &contractMatcherImpl{}
}

// Match returns a name containing ":" unchanged. A short name must match the contract
// part of exactly one fully-qualified name.
func (m *contractMatcherImpl) Match(name string, fullyQualifiedNames []string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: empty contract name", layout.ErrMalformedInput)
	}
	if strings.Contains(name, ":") {
		return name, nil
	}

	found := m.Candidates(name, fullyQualifiedNames)
	switch len(found) {
	case 0:
		if similar := similarNames(name, fullyQualifiedNames); len(similar) > 0 {
			return "", fmt.Errorf("%w: contract %q (did you mean %s?)", layout.ErrNotFound, name, strings.Join(similar, ", "))
		}
		return "", fmt.Errorf("%w: contract %q", layout.ErrNotFound, name)
	case 1:
		return found[0], nil
	default:
		return "", fmt.Errorf(
			"%w: more than one path found for %s (%d candidates), please use full path like \"contracts/target.sol:ContractName\"",
			layout.ErrAmbiguousName, name, len(found),
		)
	}
}

// Candidates lists the fully-qualified names whose contract part equals name, sorted.
func (m *contractMatcherImpl) Candidates(name string, fullyQualifiedNames []string) []string {
	var found []string
	for _, fqn := range fullyQualifiedNames {
		_, contract, err := layout.SplitFullyQualifiedName(fqn)
		if err != nil {
			continue
		}
		if contract == name {
			found = append(found, fqn)
		}
	}
	sort.Strings(found)
	return found
}

func similarNames(name string, fullyQualifiedNames []string) []string {
	lower := strings.ToLower(name)
	seen := map[string]bool{}
	var out []string
	for _, fqn := range fullyQualifiedNames {
		_, contract, err := layout.SplitFullyQualifiedName(fqn)
		if err != nil || seen[fqn] {
			continue
		}
		if strings.ToLower(contract) == lower {
			seen[fqn] = true
			out = append(out, fqn)
		}
	}
	sort.Strings(out)
	return out
}
