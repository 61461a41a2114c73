package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"fillScope/internal/model"
	"fillScope/internal/onchain"
)

// JsonlStorage appends records to a JSONL file.
type JsonlStorage struct {
	path string
	mu   sync.Mutex
}

func NewJsonlStorage(path string) *JsonlStorage {
	return &JsonlStorage{path: path}
}

// BatchRecord is the line written for one processed block range.
type BatchRecord struct {
	FromBlock uint64        `json:"from_block"`
	ToBlock   uint64        `json:"to_block"`
	Data      *onchain.Data `json:"data"`
}

// SaveOnChainData appends one line per block range. Empty ranges are skipped.
func (s *JsonlStorage) SaveOnChainData(_ context.Context, fromBlock, toBlock uint64, data *onchain.Data) error {
	if data == nil || data.Empty() {
		return nil
	}
	return appendLines(s, []BatchRecord{{FromBlock: fromBlock, ToBlock: toBlock, Data: data}})
}

// PutDecodeErrors appends one line per diagnostic.
func (s *JsonlStorage) PutDecodeErrors(errs []model.DecodeError) error {
	return appendLines(s, errs)
}

// PutEvents appends one line per decoded event.
func (s *JsonlStorage) PutEvents(events []*model.DecodedEvent) error {
	return appendLines(s, events)
}

func appendLines[T any](s *JsonlStorage, records []T) error {
	if len(records) == 0 {
		return nil
	}

	dir := filepath.Dir(s.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open output file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	for _, record := range records {
		line, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("marshal record: %w", err)
		}
		if _, err := writer.Write(line); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
		if err := writer.WriteByte('\n'); err != nil {
			return fmt.Errorf("write newline: %w", err)
		}
	}

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}

	return nil
}

var (
	_ Sink            = (*JsonlStorage)(nil)
	_ DecodeErrorSink = (*JsonlStorage)(nil)
)
