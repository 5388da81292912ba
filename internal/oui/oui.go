package oui

import (
	_ "embed"
	"encoding/json"
	"strings"
)

//go:embed data/oui.json
var embeddedDB []byte

// DB resolves the first three MAC octets to a vendor name. Used to annotate
// unknown-device log entries so an operator can tell a stray phone from a
// stray laptop.
type DB struct {
	vendors map[string]string
}

// LoadEmbedded loads the vendor table compiled into the binary.
func LoadEmbedded() (*DB, error) {
	return Load(embeddedDB)
}

func Load(data []byte) (*DB, error) {
	m := map[string]string{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	vendors := make(map[string]string, len(m))
	for prefix, vendor := range m {
		vendors[normalizePrefix(prefix)] = strings.TrimSpace(vendor)
	}
	return &DB{vendors: vendors}, nil
}

// Lookup returns the vendor for a MAC address, or "" when the prefix is not
// in the table.
func (db *DB) Lookup(mac string) string {
	if db == nil {
		return ""
	}
	return db.vendors[normalizePrefix(mac)]
}

func normalizePrefix(v string) string {
	replacer := strings.NewReplacer(":", "", "-", "", ".", "")
	v = strings.ToUpper(strings.TrimSpace(replacer.Replace(v)))
	if len(v) >= 6 {
		return v[:6]
	}
	return v
}
