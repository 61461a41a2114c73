package model

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestFieldsAccessors(t *testing.T) {
	addr := common.HexToAddress("0x1111111111111111111111111111111111111111")
	fields := Fields{
		"to":      addr,
		"amount":  big.NewInt(5),
		"fee":     uint16(250),
		"ids":     []*big.Int{big.NewInt(1)},
		"enabled": true,
	}

	if got, err := fields.Address("to"); err != nil || got != addr {
		t.Fatalf("address mismatch: %s %v", got.Hex(), err)
	}
	if got, err := fields.BigInt("fee"); err != nil || got.Int64() != 250 {
		t.Fatalf("uint16 not widened: %v %v", got, err)
	}
	ids, err := fields.BigInts("ids")
	if err != nil || len(ids) != 1 {
		t.Fatalf("ids mismatch: %v %v", ids, err)
	}
	ids[0].SetInt64(99)
	if again, _ := fields.BigInts("ids"); again[0].Int64() != 1 {
		t.Fatalf("BigInts must return copies")
	}
	if ok, err := fields.Bool("enabled"); err != nil || !ok {
		t.Fatalf("bool mismatch: %v", err)
	}
	if _, err := fields.Address("missing"); err == nil {
		t.Fatalf("expected missing field error")
	}
	if _, err := fields.BigInt("to"); err == nil {
		t.Fatalf("expected type error")
	}
}

func TestFieldsJSONStringifiesIntegers(t *testing.T) {
	big1, _ := new(big.Int).SetString("123456789012345678901234567890", 10)
	b, err := json.Marshal(Fields{"amount": big1, "ids": []*big.Int{big.NewInt(3)}})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"amount":"123456789012345678901234567890","ids":["3"]}`
	if string(b) != want {
		t.Fatalf("json mismatch: %s", b)
	}
}
