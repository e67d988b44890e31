package metrics

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// OpeningRecord describes one sampled position and how it was classified.
type OpeningRecord struct {
	Sample   int
	Position string
	Stones   int
	Verdict  string
	Score    int
	Bound    string
	Nodes    uint64
	Duration time.Duration
}

type Writer struct {
	f      *os.File
	writer *csv.Writer
}

// NewWriter creates path, with its parent directories, and writes the header.
func NewWriter(path string) (*Writer, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create opening records file: %w", err)
	}

	w := &Writer{f: f, writer: csv.NewWriter(f)}
	header := []string{"sample", "position", "stones", "verdict", "score", "bound", "nodes", "duration"}
	if err := w.writer.Write(header); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write opening records header: %w", err)
	}
	return w, nil
}

func (w *Writer) WriteOpeningRecord(record OpeningRecord) error {
	row := []string{
		strconv.Itoa(record.Sample),
		record.Position,
		strconv.Itoa(record.Stones),
		record.Verdict,
		strconv.Itoa(record.Score),
		record.Bound,
		strconv.FormatUint(record.Nodes, 10),
		record.Duration.String(),
	}
	if err := w.writer.Write(row); err != nil {
		return fmt.Errorf("failed to write opening record row: %w", err)
	}
	return nil
}

func (w *Writer) Close() error {
	w.writer.Flush()
	if err := w.writer.Error(); err != nil {
		w.f.Close()
		return fmt.Errorf("failed to flush opening records: %w", err)
	}
	return w.f.Close()
}
