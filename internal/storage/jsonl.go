package storage

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"exchangeLedger/internal/model"
)

// JsonlStorage appends events and receipts to JSONL files. An empty path
// disables that stream.
type JsonlStorage struct {
	eventsPath   string
	receiptsPath string
	mu           sync.Mutex
}

func NewJsonlStorage(eventsPath, receiptsPath string) *JsonlStorage {
	return &JsonlStorage{eventsPath: eventsPath, receiptsPath: receiptsPath}
}

// PutEvents appends a batch of events as JSON lines.
func (s *JsonlStorage) PutEvents(events []model.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return appendLines(s.eventsPath, events)
}

// PutReceipts appends a batch of receipts as JSON lines.
func (s *JsonlStorage) PutReceipts(receipts []model.Receipt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return appendLines(s.receiptsPath, receipts)
}

// JsonlMetrics writes aggregated pools and window metrics to JSONL files.
type JsonlMetrics struct {
	PoolsPath   string
	MetricsPath string
	mu          sync.Mutex
}

func (s *JsonlMetrics) UpsertPools(_ context.Context, pools []model.Pool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return appendLines(s.PoolsPath, pools)
}

func (s *JsonlMetrics) UpsertWindowMetrics(_ context.Context, metrics []model.PoolWindowMetrics) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return appendLines(s.MetricsPath, metrics)
}

func appendLines[T any](path string, records []T) error {
	if path == "" || len(records) == 0 {
		return nil
	}

	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
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

// ScanLines calls fn with every non-empty line of a JSONL file. Returning an
// error from fn stops the scan.
func ScanLines(path string, fn func(line []byte) error) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 10*1024*1024)

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		if err := fn(line); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scan input: %w", err)
	}
	return nil
}
