package logstore

import (
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/clubhub/wifimon/internal/model"
)

var cycleTime = time.Date(2026, 8, 25, 10, 15, 0, 0, time.UTC)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	store := New(dir, filepath.Join(dir, "unknown.csv"), filepath.Join(dir, "wireless.csv"), nil)
	return store, dir
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer file.Close()
	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return records
}

func TestAppendWritesHeaderOncePerFile(t *testing.T) {
	store, dir := newTestStore(t)
	observations := []model.Observation{
		{Timestamp: cycleTime, MAC: "aa:bb:cc:dd:ee:01", Connected: true},
		{Timestamp: cycleTime, MAC: "aa:bb:cc:dd:ee:02", Connected: false},
	}

	if err := store.Append(observations); err != nil {
		t.Fatalf("first append: %v", err)
	}
	if err := store.Append(observations); err != nil {
		t.Fatalf("second append: %v", err)
	}

	records := readCSV(t, filepath.Join(dir, "2026-08-25.csv"))
	if len(records) != 5 {
		t.Fatalf("expected header + 4 rows, got %d records", len(records))
	}
	if strings.Join(records[0], ",") != "timestamp,mac,connected" {
		t.Fatalf("unexpected header %v", records[0])
	}
	for _, record := range records[1:] {
		if record[0] == "timestamp" {
			t.Fatalf("header duplicated in file")
		}
	}
	if records[1][2] != "1" || records[2][2] != "0" {
		t.Fatalf("connected flags not encoded 1/0: %v %v", records[1], records[2])
	}
	if records[1][0] != "2026-08-25 10:15:00" {
		t.Fatalf("unexpected timestamp format %q", records[1][0])
	}
}

func TestAppendPartitionsByDay(t *testing.T) {
	store, dir := newTestStore(t)
	nextDay := cycleTime.Add(24 * time.Hour)

	if err := store.Append([]model.Observation{{Timestamp: cycleTime, MAC: "aa:bb:cc:dd:ee:01", Connected: true}}); err != nil {
		t.Fatalf("append day 1: %v", err)
	}
	if err := store.Append([]model.Observation{{Timestamp: nextDay, MAC: "aa:bb:cc:dd:ee:01", Connected: true}}); err != nil {
		t.Fatalf("append day 2: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "2026-08-25.csv")); err != nil {
		t.Fatalf("missing day 1 file: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "2026-08-26.csv")); err != nil {
		t.Fatalf("missing day 2 file: %v", err)
	}
}

func TestAppendEmptyIsNoop(t *testing.T) {
	store, dir := newTestStore(t)
	if err := store.Append(nil); err != nil {
		t.Fatalf("empty append: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("no files expected, got %v", entries)
	}
}

func TestAppendUnknown(t *testing.T) {
	store, dir := newTestStore(t)

	if err := store.AppendUnknown(nil); err != nil {
		t.Fatalf("empty unknown append: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "unknown.csv")); !os.IsNotExist(err) {
		t.Fatalf("unknown.csv must not be created for an empty cycle")
	}

	entries := []model.UnknownDevice{
		{Timestamp: cycleTime, MAC: "aa:bb:cc:dd:ee:09", IP: "10.0.0.9", Hostname: "mystery", Vendor: "VendorZ"},
	}
	if err := store.AppendUnknown(entries); err != nil {
		t.Fatalf("unknown append: %v", err)
	}

	records := readCSV(t, filepath.Join(dir, "unknown.csv"))
	if len(records) != 2 {
		t.Fatalf("expected header + 1 row, got %d", len(records))
	}
	if strings.Join(records[0], ",") != "timestamp,mac,ip,device_name,vendor" {
		t.Fatalf("unexpected header %v", records[0])
	}
	if records[1][1] != "aa:bb:cc:dd:ee:09" || records[1][4] != "VendorZ" {
		t.Fatalf("unexpected row %v", records[1])
	}
}

func TestAppendSnapshot(t *testing.T) {
	store, dir := newTestStore(t)
	snapshot := model.Snapshot{
		Timestamp: cycleTime,
		Rows: []model.ClientRow{
			{MAC: "aa:bb:cc:dd:ee:01", IP: "10.0.0.5", Hostname: "laptop", Section: "無線デバイス"},
			{MAC: "aa:bb:cc:dd:ee:02"},
		},
	}
	if err := store.AppendSnapshot(snapshot); err != nil {
		t.Fatalf("snapshot append: %v", err)
	}

	records := readCSV(t, filepath.Join(dir, "wireless.csv"))
	if len(records) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(records))
	}
	if records[1][4] != "無線デバイス" {
		t.Fatalf("section column lost: %v", records[1])
	}
}

func TestAppendUnwritableDirIsStorageError(t *testing.T) {
	store := New(filepath.Join(t.TempDir(), "missing-subdir"), "", "", nil)
	err := store.Append([]model.Observation{{Timestamp: cycleTime, MAC: "aa:bb:cc:dd:ee:01"}})
	if err == nil {
		t.Fatalf("expected error writing into missing directory")
	}
	var storageErr *StorageError
	if !errors.As(err, &storageErr) {
		t.Fatalf("expected StorageError, got %v", err)
	}
	if !IsStorageError(err) {
		t.Fatalf("IsStorageError must match")
	}
}
