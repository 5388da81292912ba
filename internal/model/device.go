package model

import "time"

const (
	ConnectionWireless = "wireless"
	ConnectionWired    = "wired"
	ConnectionUnknown  = "unknown"
)

// Member is one known roster entry keyed by canonical MAC.
type Member struct {
	StudentID string `json:"student_id"`
	Name      string `json:"name"`
	MAC       string `json:"mac"`
}

// ClientRow is a single client-table row as extracted from the router page.
// MAC is canonical; optional cells are empty strings when missing.
type ClientRow struct {
	MAC            string
	IP             string
	Hostname       string
	Connected      bool
	Section        string
	ConnectionType string
}

// Observation records one roster hit for one polling cycle.
type Observation struct {
	Timestamp time.Time
	MAC       string
	Connected bool
	Hostname  string
}

// UnknownDevice is a table row whose MAC has no roster entry.
type UnknownDevice struct {
	Timestamp time.Time
	MAC       string
	IP        string
	Hostname  string
	Vendor    string
}

// Snapshot is the full deduplicated client table for one cycle, kept for
// audit regardless of roster classification.
type Snapshot struct {
	Timestamp time.Time
	Rows      []ClientRow
}

// CycleSummary is what the monitor reports after each completed cycle.
type CycleSummary struct {
	Timestamp    time.Time `json:"timestamp"`
	TotalClients int       `json:"total_clients"`
	KnownOnline  int       `json:"known_online"`
	Unknown      int       `json:"unknown"`
	Error        string    `json:"error,omitempty"`
}
