package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// table is a CSV file split into its header and data rows.
type table struct {
	header map[string]int
	rows   [][]string
}

// readTable reads a whole CSV file. A file with no data rows yields nil.
func readTable(r io.Reader, format string) (*table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 0 // every row must match the header width

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading %s CSV: %w", format, err)
	}
	if len(records) <= 1 {
		return nil, nil
	}

	header := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		header[strings.ToLower(strings.TrimSpace(name))] = i
	}
	return &table{header: header, rows: records[1:]}, nil
}

// column returns the index of the first header present among names, or -1
// with an error.
func (t *table) column(names ...string) (int, error) {
	for _, name := range names {
		if i, ok := t.header[strings.ToLower(name)]; ok {
			return i, nil
		}
	}
	return -1, fmt.Errorf("missing column %q", names[0])
}

// parseAmount accepts "1,234.50", "$12.00" and "(12.00)" as well as plain
// decimals.
func parseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	negative := strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")")
	s = strings.Trim(s, "()")
	s = strings.NewReplacer(",", "", "$", "").Replace(s)
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, err
	}
	if negative {
		d = d.Neg()
	}
	return d, nil
}

// makeRef creates a reference like chase_20250103_GITHUBPROS.
func makeRef(format string, date time.Time, desc string) string {
	prefix := strings.Map(func(r rune) rune {
		if r >= 'A' && r <= 'Z' || r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, desc)
	if len(prefix) > 10 {
		prefix = prefix[:10]
	}
	return fmt.Sprintf("%s_%s_%s", format, date.Format("20060102"), prefix)
}
