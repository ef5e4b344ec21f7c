// Package id formats and parses ledger transaction IDs of the form
// "YYYY-MM-NNN", where NNN is the 1-based sequence within the month file.
package id

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Format returns a transaction ID like "2025-01-001".
func Format(year, month, seq int) string {
	return fmt.Sprintf("%04d-%02d-%03d", year, month, seq)
}

// ForDate returns the ID of the seq-th transaction in the month of t.
func ForDate(t time.Time, seq int) string {
	return Format(t.Year(), int(t.Month()), seq)
}

// Parse parses "2025-01-001" into year, month, seq.
func Parse(id string) (year, month, seq int, err error) {
	parts := strings.SplitN(strings.TrimSpace(id), "-", 3)
	if len(parts) != 3 {
		return 0, 0, 0, fmt.Errorf("invalid transaction ID format: %q", id)
	}

	year, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, 0, fmt.Errorf("invalid year in transaction ID %q: %w", id, err)
	}

	month, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, 0, fmt.Errorf("invalid month in transaction ID %q: %w", id, err)
	}
	if month < 1 || month > 12 {
		return 0, 0, 0, fmt.Errorf("invalid month in transaction ID %q", id)
	}

	seq, err = strconv.Atoi(parts[2])
	if err != nil {
		return 0, 0, 0, fmt.Errorf("invalid sequence in transaction ID %q: %w", id, err)
	}
	if seq < 1 {
		return 0, 0, 0, fmt.Errorf("invalid sequence in transaction ID %q", id)
	}

	return year, month, seq, nil
}

// InMonth reports whether id is a well-formed ID belonging to year/month.
func InMonth(id string, year, month int) bool {
	y, m, _, err := Parse(id)
	return err == nil && y == year && m == month
}
