package snapshot

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hamed0406/uptimeprober/internal/domain"
)

type Meta struct {
	GeneratedAt string `json:"generated_at"`
}

// Record is one result as the viewer sees it. TimeToAnswer is the measured
// latency in seconds for every status; readers should only trust it for UP.
type Record struct {
	URL          string        `json:"url"`
	Status       domain.Status `json:"status"`
	TimeToAnswer float64       `json:"time_to_answer"`
	Time         string        `json:"time"`
	HTTPStatus   int           `json:"http_status,omitempty"`
}

type Document struct {
	Meta    Meta     `json:"meta"`
	Results []Record `json:"results"`
}

// Build converts an ordered batch into the snapshot document.
func Build(batch domain.Batch, generatedAt time.Time) Document {
	doc := Document{
		Meta:    Meta{GeneratedAt: generatedAt.Format(time.RFC3339Nano)},
		Results: make([]Record, 0, len(batch)),
	}
	for _, r := range batch {
		doc.Results = append(doc.Results, Record{
			URL:          r.URL,
			Status:       r.Status,
			TimeToAnswer: r.Latency.Seconds(),
			Time:         r.ObservedAt.Format(time.RFC3339Nano),
			HTTPStatus:   r.StatusCode,
		})
	}
	return doc
}

// Writer replaces the snapshot file on every call.
type Writer struct {
	Path string
	Now  func() time.Time
}

func NewWriter(path string) *Writer {
	return &Writer{Path: path, Now: time.Now}
}

// Write serializes batch (already ordered) and swaps it in with a rename, so
// readers see either the previous snapshot or the new one.
func (w *Writer) Write(batch domain.Batch) error {
	data, err := json.MarshalIndent(Build(batch, w.Now()), "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(filepath.Dir(w.Path), ".snapshot-*.tmp")
	if err != nil {
		return fmt.Errorf("create snapshot temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) // no-op once renamed

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), w.Path); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}
