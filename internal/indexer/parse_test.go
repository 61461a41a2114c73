package indexer

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestParseAddresses(t *testing.T) {
	got, err := ParseAddresses([]string{" 0x1111111111111111111111111111111111111111 ", ""})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0] != common.HexToAddress("0x1111111111111111111111111111111111111111") {
		t.Fatalf("unexpected addresses: %v", got)
	}
	if _, err := ParseAddresses([]string{"0x12"}); err == nil {
		t.Fatalf("expected error for short address")
	}
}

func TestParseSources(t *testing.T) {
	router := "0x6666666666666666666666666666666666666666"
	got, err := ParseSources(map[string]string{router: " gem.xyz "})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got[common.HexToAddress(router)] != "gem.xyz" {
		t.Fatalf("unexpected sources: %v", got)
	}
	if _, err := ParseSources(map[string]string{"nope": "x"}); err == nil {
		t.Fatalf("expected error for invalid router")
	}
	if _, err := ParseSources(map[string]string{router: ""}); err == nil {
		t.Fatalf("expected error for empty source")
	}
}
