// Package importer turns bank statement exports into ledger transactions.
package importer

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/finstate/internal/engine"
	"github.com/cleared-dev/finstate/internal/ledger"
	"github.com/cleared-dev/finstate/internal/model"
)

// BankTransaction is one line of a bank export. Amount is signed from the
// account holder's side: deposits are positive.
type BankTransaction struct {
	Date        time.Time
	Description string
	Amount      decimal.Decimal
	Reference   string
	Type        string
}

// Parser converts a bank CSV file into BankTransactions.
type Parser interface {
	Parse(r io.Reader) ([]BankTransaction, error)
	Format() string
}

// Registry holds named parsers.
type Registry struct {
	parsers map[string]Parser
}

// FileInfo describes a CSV file in the import directory.
type FileInfo struct {
	Name string
	Path string
	Size int64
}

// NewRegistry creates an empty parser registry.
func NewRegistry() *Registry {
	return &Registry{parsers: make(map[string]Parser)}
}

// Register adds a parser. Panics on duplicate format.
func (r *Registry) Register(p Parser) {
	key := strings.ToLower(p.Format())
	if _, ok := r.parsers[key]; ok {
		panic("duplicate parser format: " + key)
	}
	r.parsers[key] = p
}

// Get returns the parser for format, or nil.
func (r *Registry) Get(format string) Parser {
	return r.parsers[strings.ToLower(format)]
}

// DefaultRegistry returns a registry with all built-in parsers.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(&ChaseParser{})
	r.Register(&SimpleParser{})
	return r
}

// Rule classifies bank lines whose description contains Match
// (case-insensitive).
type Rule struct {
	Match    string                `yaml:"match"`
	Type     model.TransactionType `yaml:"type"`
	Category string                `yaml:"category"`
}

// Classify maps bank lines to ledger postings. The first matching rule sets
// type and category. Unmatched deposits become revenue and unmatched
// withdrawals become expenses, both left uncategorized. Every posting is
// cash-settled, and its amount is signed so that the posting moves cash the
// way the bank line did: a withdrawal mapped to long-term debt is a
// repayment, a deposit mapped to equipment is a sale.
func Classify(txns []BankTransaction, rules []Rule) []ledger.AddParams {
	params := make([]ledger.AddParams, 0, len(txns))
	for _, bt := range txns {
		p := ledger.AddParams{
			Date:        bt.Date,
			Type:        model.TypeRevenue,
			Description: bt.Description,
		}
		if bt.Amount.IsNegative() {
			p.Type = model.TypeExpense
		}
		if r, ok := match(bt.Description, rules); ok {
			if typ, known := model.ParseTransactionType(string(r.Type)); known {
				p.Type = typ
			}
			p.Category = r.Category
		}
		p.Amount = bt.Amount
		if engine.CashSign(p.Type, model.ParseCategory(p.Category)) < 0 {
			p.Amount = bt.Amount.Neg()
		}
		params = append(params, p)
	}
	return params
}

func match(desc string, rules []Rule) (Rule, bool) {
	desc = strings.ToLower(desc)
	for _, r := range rules {
		if r.Match != "" && strings.Contains(desc, strings.ToLower(r.Match)) {
			return r, true
		}
	}
	return Rule{}, false
}

// importDir is the subdirectory for import CSVs.
const importDir = "import"

// processedDir is the subdirectory for processed CSVs.
const processedDir = "import/processed"

// Scan returns CSV files in <repoRoot>/import/.
func Scan(repoRoot string) ([]FileInfo, error) {
	dir := filepath.Join(repoRoot, importDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading import dir: %w", err)
	}

	var files []FileInfo
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(strings.ToLower(e.Name()), ".csv") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", e.Name(), err)
		}
		files = append(files, FileInfo{
			Name: e.Name(),
			Path: filepath.Join(dir, e.Name()),
			Size: info.Size(),
		})
	}
	return files, nil
}

// MarkProcessed moves a file from import/ to import/processed/.
func MarkProcessed(repoRoot, fileName string) error {
	src := filepath.Join(repoRoot, importDir, fileName)
	dstDir := filepath.Join(repoRoot, processedDir)

	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return fmt.Errorf("creating processed dir: %w", err)
	}

	dst := filepath.Join(dstDir, fileName)
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("moving %s to processed: %w", fileName, err)
	}
	return nil
}
