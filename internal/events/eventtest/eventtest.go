// Package eventtest encodes fixture logs for registered event definitions.
package eventtest

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"fillScope/internal/events"
	"fillScope/internal/model"
)

// Registry returns the mainnet registry or fails the test.
func Registry(t testing.TB) *events.Registry {
	t.Helper()
	reg, err := events.NewRegistry(events.Config{ChainID: 1})
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	return reg
}

// Log encodes args, given in ABI input order, into a log emitted by address.
// Indexed arguments become topics; the rest is packed into data.
func Log(t testing.TB, reg *events.Registry, subKind model.SubKind, address common.Address, args ...interface{}) model.RawLog {
	t.Helper()

	def, ok := reg.Definition(subKind)
	if !ok {
		t.Fatalf("no definition for %s", subKind)
	}
	if len(args) != len(def.Event.Inputs) {
		t.Fatalf("%s: expected %d args, got %d", subKind, len(def.Event.Inputs), len(args))
	}

	topics := []common.Hash{def.Topic()}
	var data []interface{}
	for i, input := range def.Event.Inputs {
		if !input.Indexed {
			data = append(data, args[i])
			continue
		}
		encoded, err := abi.MakeTopics([]interface{}{args[i]})
		if err != nil {
			t.Fatalf("%s: encode topic %s: %v", subKind, input.Name, err)
		}
		topics = append(topics, encoded[0][0])
	}

	packed, err := def.Event.Inputs.NonIndexed().Pack(data...)
	if err != nil {
		t.Fatalf("%s: pack data: %v", subKind, err)
	}

	return model.RawLog{
		ChainID: 1,
		Address: address,
		Topics:  topics,
		Data:    packed,
	}
}

// At places log at a position inside a transaction.
func At(log model.RawLog, txHash common.Hash, block, logIndex, timestamp uint64) model.RawLog {
	log.TxHash = txHash
	log.BlockNumber = block
	log.BlockHash = common.BigToHash(new(big.Int).SetUint64(block))
	log.LogIndex = logIndex
	log.Timestamp = timestamp
	return log
}
