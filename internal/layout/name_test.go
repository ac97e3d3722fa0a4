package layout

import (
	"errors"
	"testing"
)

func TestSplitFullyQualifiedName(t *testing.T) {
	tests := []struct {
		in       string
		source   string
		contract string
		wantErr  bool
	}{
		{in: "contracts/Token.sol:Token", source: "contracts/Token.sol", contract: "Token"},
		{in: "c:/work/Token.sol:Token", source: "c:/work/Token.sol", contract: "Token"},
		{in: "Token", wantErr: true},
		{in: ":Token", wantErr: true},
		{in: "contracts/Token.sol:", wantErr: true},
	}
	for _, tt := range tests {
		source, contract, err := SplitFullyQualifiedName(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrMalformedInput) {
				t.Fatalf("SplitFullyQualifiedName(%q) error = %v, want ErrMalformedInput", tt.in, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("SplitFullyQualifiedName(%q) error = %v", tt.in, err)
		}
		if source != tt.source || contract != tt.contract {
			t.Fatalf("SplitFullyQualifiedName(%q) = (%q, %q), want (%q, %q)", tt.in, source, contract, tt.source, tt.contract)
		}
	}
}

func TestKind_Composite(t *testing.T) {
	if KindElementary.Composite() {
		t.Fatal("elementary kind should not be composite")
	}
	for _, k := range []Kind{KindStruct, KindFixedArray, KindDynamicArray, KindMapping} {
		if !k.Composite() {
			t.Fatalf("%s should be composite", k)
		}
	}
}
