package logstore

import (
	"encoding/csv"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/clubhub/wifimon/internal/model"
)

const timestampLayout = "2006-01-02 15:04:05"

// StorageError marks a failed log write. The monitoring loop treats it as
// fatal: polling while unable to record results defeats the point.
type StorageError struct {
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	if e == nil {
		return "storage error"
	}
	return fmt.Sprintf("log write to %s failed: %v", e.Path, e.Err)
}

func (e *StorageError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// IsStorageError reports whether err carries a StorageError anywhere in its
// chain.
func IsStorageError(err error) bool {
	var storageErr *StorageError
	return errors.As(err, &storageErr)
}

// Store appends cycle results to append-only CSV files: a per-day
// connection log, the unknown-device log and the raw snapshot log. A single
// mutex serializes every append so concurrent collaborators never interleave
// bytes.
type Store struct {
	dir          string
	unknownPath  string
	snapshotPath string
	logger       *slog.Logger

	mu sync.Mutex
}

func New(dir, unknownPath, snapshotPath string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{dir: dir, unknownPath: unknownPath, snapshotPath: snapshotPath, logger: logger}
}

// Append writes one row per observation to the day file named after the
// observation timestamp. The header is written only when the file is first
// created; repeated appends only ever add rows.
func (s *Store) Append(observations []model.Observation) error {
	if len(observations) == 0 {
		return nil
	}
	day := observations[0].Timestamp.UTC().Format("2006-01-02")
	path := filepath.Join(s.dir, day+".csv")

	records := make([][]string, 0, len(observations))
	for _, obs := range observations {
		connected := "0"
		if obs.Connected {
			connected = "1"
		}
		records = append(records, []string{
			obs.Timestamp.UTC().Format(timestampLayout),
			obs.MAC,
			connected,
		})
	}
	return s.appendRows(path, []string{"timestamp", "mac", "connected"}, records)
}

// AppendUnknown records unclassified devices. Nothing is written for a
// cycle without unknowns.
func (s *Store) AppendUnknown(entries []model.UnknownDevice) error {
	if len(entries) == 0 {
		return nil
	}
	records := make([][]string, 0, len(entries))
	for _, entry := range entries {
		records = append(records, []string{
			entry.Timestamp.UTC().Format(timestampLayout),
			entry.MAC,
			entry.IP,
			entry.Hostname,
			entry.Vendor,
		})
	}
	return s.appendRows(s.unknownPath, []string{"timestamp", "mac", "ip", "device_name", "vendor"}, records)
}

// AppendSnapshot persists the full deduplicated client table for audit.
func (s *Store) AppendSnapshot(snapshot model.Snapshot) error {
	if len(snapshot.Rows) == 0 {
		return nil
	}
	ts := snapshot.Timestamp.UTC().Format(timestampLayout)
	records := make([][]string, 0, len(snapshot.Rows))
	for _, row := range snapshot.Rows {
		records = append(records, []string{ts, row.MAC, row.IP, row.Hostname, row.Section})
	}
	return s.appendRows(s.snapshotPath, []string{"timestamp", "mac", "ip", "device_name", "section"}, records)
}

func (s *Store) appendRows(path string, header []string, records [][]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, statErr := os.Stat(path)
	needHeader := os.IsNotExist(statErr)

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return &StorageError{Path: path, Err: err}
	}

	writer := csv.NewWriter(file)
	if needHeader {
		if err := writer.Write(header); err != nil {
			file.Close()
			return &StorageError{Path: path, Err: err}
		}
	}
	if err := writer.WriteAll(records); err != nil {
		file.Close()
		return &StorageError{Path: path, Err: err}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		file.Close()
		return &StorageError{Path: path, Err: err}
	}
	if err := file.Close(); err != nil {
		return &StorageError{Path: path, Err: err}
	}
	s.logger.Debug("log rows appended", "path", path, "rows", len(records))
	return nil
}
