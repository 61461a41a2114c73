package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"fillScope/internal/config"
	"fillScope/internal/events"
	"fillScope/internal/indexer"
	"fillScope/internal/model"
	"fillScope/internal/storage"
)

// decodeFlushSize bounds the decoded events buffered before a write.
const decodeFlushSize = 1000

func runDecode(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadDecode(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.In == "" {
		return fmt.Errorf("input path is required")
	}
	if cfg.Out == "" {
		return fmt.Errorf("output path is required")
	}
	if cfg.Errors == "" {
		return fmt.Errorf("errors path is required")
	}

	omnibus, err := indexer.ParseAddress(cfg.ZoraOfferOmnibus)
	if err != nil {
		return fmt.Errorf("zora offer omnibus: %w", err)
	}
	registry, err := events.NewRegistry(events.Config{
		ChainID:   cfg.ChainID,
		Contracts: contractOverrides(omnibus),
	})
	if err != nil {
		return fmt.Errorf("build event registry: %w", err)
	}

	inputFile, err := os.Open(cfg.In)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer inputFile.Close()

	for _, path := range []string{cfg.Out, cfg.Errors} {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("truncate %s: %w", path, err)
		}
	}
	outSink := storage.NewJsonlStorage(cfg.Out)
	errSink := storage.NewJsonlStorage(cfg.Errors)

	logger.Info("decode start",
		zap.String("in", cfg.In),
		zap.String("out", cfg.Out),
		zap.String("errors", cfg.Errors),
		zap.Uint64("chain_id", cfg.ChainID),
	)

	scanner := bufio.NewScanner(inputFile)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 10*1024*1024)

	var (
		total, decoded, skipped, failed int
		pending                         []*model.DecodedEvent
		decodeErrs                      []model.DecodeError
	)
	flush := func() error {
		if err := outSink.PutEvents(pending); err != nil {
			return err
		}
		if err := errSink.PutDecodeErrors(decodeErrs); err != nil {
			return err
		}
		pending, decodeErrs = pending[:0], decodeErrs[:0]
		return nil
	}

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		total++

		var log model.RawLog
		if err := json.Unmarshal(line, &log); err != nil {
			failed++
			decodeErrs = append(decodeErrs, model.DecodeError{Error: err.Error()})
			continue
		}
		if log.Removed {
			skipped++
			continue
		}

		def, ok := registry.Classify(log.Address, log.Topic0())
		if !ok {
			skipped++
			continue
		}

		event, err := events.Decode(log, def)
		if err != nil {
			failed++
			decodeErrs = append(decodeErrs, model.NewDecodeError(log, def.SubKind, err))
			continue
		}
		pending = append(pending, event)
		decoded++

		if len(pending) >= decodeFlushSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scan input: %w", err)
	}
	if err := flush(); err != nil {
		return err
	}

	logger.Info("decode complete",
		zap.Int("total", total),
		zap.Int("decoded", decoded),
		zap.Int("skipped", skipped),
		zap.Int("failed", failed),
	)

	return nil
}
