package matcher

import (
	"errors"
	"strings"
	"testing"

	"github.com/seitarof/layout-lens/internal/layout"
)

var names = []string{
	"contracts/legacy/Token.sol:Token",
	"contracts/Token.sol:Token",
	"contracts/Token.sol:Vault",
	"contracts/Tree.sol:Tree",
}

func TestContractMatcher_Match_ShortName(t *testing.T) {
	got, err := NewContractMatcher().Match("Vault", names)
	if err != nil {
		t.Fatalf("Match() error = %v", err)
	}
	if got != "contracts/Token.sol:Vault" {
		t.Fatalf("Match() = %q", got)
	}
}

func TestContractMatcher_Match_FullyQualifiedPassesThrough(t *testing.T) {
	got, err := NewContractMatcher().Match("contracts/legacy/Token.sol:Token", nil)
	if err != nil {
		t.Fatalf("Match() error = %v", err)
	}
	if got != "contracts/legacy/Token.sol:Token" {
		t.Fatalf("Match() = %q", got)
	}
}

func TestContractMatcher_Match_Ambiguous(t *testing.T) {
	_, err := NewContractMatcher().Match("Token", names)
	if !errors.Is(err, layout.ErrAmbiguousName) {
		t.Fatalf("Match() error = %v, want ErrAmbiguousName", err)
	}
	if !strings.Contains(err.Error(), "2 candidates") {
		t.Fatalf("error should report candidate count: %v", err)
	}
	if !strings.Contains(err.Error(), "contracts/target.sol:ContractName") {
		t.Fatalf("error should ask for the full path form: %v", err)
	}
}

func TestContractMatcher_Match_NotFound(t *testing.T) {
	_, err := NewContractMatcher().Match("vault", names)
	if !errors.Is(err, layout.ErrNotFound) {
		t.Fatalf("Match() error = %v, want ErrNotFound", err)
	}
	if !strings.Contains(err.Error(), "did you mean contracts/Token.sol:Vault") {
		t.Fatalf("error should suggest the differently cased name: %v", err)
	}

	_, err = NewContractMatcher().Match("Missing", names)
	if !errors.Is(err, layout.ErrNotFound) {
		t.Fatalf("Match() error = %v, want ErrNotFound", err)
	}

	_, err = NewContractMatcher().Match("  ", names)
	if !errors.Is(err, layout.ErrMalformedInput) {
		t.Fatalf("Match() error = %v, want ErrMalformedInput", err)
	}
}

func TestContractMatcher_Candidates(t *testing.T) {
	got := NewContractMatcher().Candidates("Token", names)
	want := []string{"contracts/Token.sol:Token", "contracts/legacy/Token.sol:Token"}
	if len(got) != len(want) {
		t.Fatalf("Candidates() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Candidates()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
