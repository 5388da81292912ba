package reconcile

import (
	"time"

	"github.com/clubhub/wifimon/internal/model"
)

// MemberLookup is the single roster extension point the reconciler uses.
// *roster.Store satisfies it.
type MemberLookup interface {
	Lookup(canonicalMAC string) (model.Member, bool)
}

// VendorLookup annotates unknown devices with a hardware vendor. *oui.DB
// satisfies it; a nil lookup disables annotation.
type VendorLookup interface {
	Lookup(mac string) string
}

// Result partitions one cycle's table into roster hits, unknown devices and
// the full audit snapshot.
type Result struct {
	Observations []model.Observation
	Unknown      []model.UnknownDevice
	Snapshot     model.Snapshot
}

// Reconciler classifies parsed table rows against the member roster. Pure
// with respect to the roster; performs no I/O.
type Reconciler struct {
	vendors VendorLookup
}

func New(vendors VendorLookup) *Reconciler {
	return &Reconciler{vendors: vendors}
}

// Reconcile deduplicates rows by canonical MAC (routers report a device once
// per band), ORs the connected flag across duplicates, then assigns every
// distinct MAC to exactly one of known or unknown. The snapshot carries
// every deduplicated row regardless of classification.
func (r *Reconciler) Reconcile(rows []model.ClientRow, roster MemberLookup, timestamp time.Time) Result {
	deduped := dedupe(rows)

	result := Result{
		Snapshot: model.Snapshot{Timestamp: timestamp, Rows: deduped},
	}
	for _, row := range deduped {
		if _, known := roster.Lookup(row.MAC); known {
			result.Observations = append(result.Observations, model.Observation{
				Timestamp: timestamp,
				MAC:       row.MAC,
				Connected: row.Connected,
				Hostname:  row.Hostname,
			})
			continue
		}
		vendor := ""
		if r.vendors != nil {
			vendor = r.vendors.Lookup(row.MAC)
		}
		result.Unknown = append(result.Unknown, model.UnknownDevice{
			Timestamp: timestamp,
			MAC:       row.MAC,
			IP:        row.IP,
			Hostname:  row.Hostname,
			Vendor:    vendor,
		})
	}
	return result
}

// dedupe merges duplicate MACs preserving first-seen order. Connected is the
// logical OR across duplicates; the first non-empty value wins for the
// remaining cells.
func dedupe(rows []model.ClientRow) []model.ClientRow {
	index := make(map[string]int, len(rows))
	deduped := make([]model.ClientRow, 0, len(rows))
	for _, row := range rows {
		at, seen := index[row.MAC]
		if !seen {
			index[row.MAC] = len(deduped)
			deduped = append(deduped, row)
			continue
		}
		merged := deduped[at]
		merged.Connected = merged.Connected || row.Connected
		if merged.IP == "" {
			merged.IP = row.IP
		}
		if merged.Hostname == "" {
			merged.Hostname = row.Hostname
		}
		if merged.Section == "" {
			merged.Section = row.Section
		}
		if merged.ConnectionType == "" || merged.ConnectionType == model.ConnectionUnknown {
			if row.ConnectionType != "" {
				merged.ConnectionType = row.ConnectionType
			}
		}
		deduped[at] = merged
	}
	return deduped
}
