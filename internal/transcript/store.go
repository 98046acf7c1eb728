// internal/transcript/store.go
//
// Store persists one session's transcript as JSONL so runs can be inspected
// after the process exits. One file per run, named with the run timestamp.

package transcript

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Store appends one JSON record per message to a run-scoped file.
type Store struct {
	mu    sync.Mutex
	path  string
	runID string
	file  *os.File
}

type storeRecord struct {
	Timestamp string `json:"timestamp"`
	Speaker   string `json:"speaker"`
	Seq       int    `json:"seq"`
	Message   string `json:"message"`
	RunID     string `json:"run_id,omitempty"`
}

// NewStore creates the transcript file for a run inside dir. The filename
// carries the wall-clock timestamp so successive runs never collide.
func NewStore(dir, runID string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("transcript: ensure log dir: %w", err)
	}
	name := fmt.Sprintf("kallipolis_%s.jsonl", time.Now().Format("20060102_150405"))
	path := filepath.Join(dir, name)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("transcript: open %s: %w", path, err)
	}
	return &Store{path: path, runID: runID, file: file}, nil
}

// Path returns the file backing this store.
func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// Record implements Sink.
func (s *Store) Record(msg Message) error {
	if s == nil || s.file == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := storeRecord{
		Timestamp: msg.Timestamp.Format(time.RFC3339),
		Speaker:   string(msg.Speaker),
		Seq:       msg.Seq,
		Message:   msg.Text,
		RunID:     s.runID,
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("transcript: encode record: %w", err)
	}
	if _, err := s.file.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("transcript: write record: %w", err)
	}
	return nil
}

// Close releases the underlying file handle.
func (s *Store) Close() error {
	if s == nil || s.file == nil {
		return nil
	}
	return s.file.Close()
}
