package mac

import (
	"fmt"
	"regexp"
	"strings"
)

var canonicalPattern = regexp.MustCompile(`^(?:[0-9a-f]{2}:){5}[0-9a-f]{2}$`)

// Normalize folds a MAC address into canonical form: lowercase hex octets
// separated by colons. Dash separators and mixed case are accepted.
func Normalize(raw string) (string, error) {
	cleaned := strings.ToLower(strings.TrimSpace(raw))
	cleaned = strings.ReplaceAll(cleaned, "-", ":")
	if !canonicalPattern.MatchString(cleaned) {
		return "", fmt.Errorf("invalid mac address: %q", raw)
	}
	return cleaned, nil
}

// IsValid reports whether raw normalizes to a well-formed MAC address.
func IsValid(raw string) bool {
	_, err := Normalize(raw)
	return err == nil
}
