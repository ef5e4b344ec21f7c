// Package report renders statement sets as Markdown, JSON or styled terminal
// output.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/finstate/internal/model"
)

// Format selects an output rendering.
type Format string

const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
)

// ParseFormat accepts "text", "markdown" (or "md") and "json".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text":
		return FormatText, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown format %q (want text, markdown or json)", s)
	}
}

type line struct {
	label string
	value func(model.StatementSet) decimal.Decimal
	total bool
}

var plLines = []line{
	{"Revenue", func(s model.StatementSet) decimal.Decimal { return s.PL.Revenue }, false},
	{"Cost of goods sold", func(s model.StatementSet) decimal.Decimal { return s.PL.COGS }, false},
	{"Operating expenses", func(s model.StatementSet) decimal.Decimal { return s.PL.OperatingExpenses }, false},
	{"Net profit", func(s model.StatementSet) decimal.Decimal { return s.PL.NetProfit }, true},
}

var balanceLines = []line{
	{"Cash", func(s model.StatementSet) decimal.Decimal { return s.BalanceSheet.Cash }, false},
	{"Accounts receivable", func(s model.StatementSet) decimal.Decimal { return s.BalanceSheet.AccountsReceivable }, false},
	{"Fixed assets", func(s model.StatementSet) decimal.Decimal { return s.BalanceSheet.FixedAssets }, false},
	{"Other assets", func(s model.StatementSet) decimal.Decimal { return s.BalanceSheet.OtherAssets }, false},
	{"Total assets", func(s model.StatementSet) decimal.Decimal { return s.BalanceSheet.TotalAssets }, true},
	{"Accounts payable", func(s model.StatementSet) decimal.Decimal { return s.BalanceSheet.AccountsPayable }, false},
	{"Short-term debt", func(s model.StatementSet) decimal.Decimal { return s.BalanceSheet.ShortTermDebt }, false},
	{"Long-term debt", func(s model.StatementSet) decimal.Decimal { return s.BalanceSheet.LongTermDebt }, false},
	{"Other liabilities", func(s model.StatementSet) decimal.Decimal { return s.BalanceSheet.OtherLiabilities }, false},
	{"Total liabilities", func(s model.StatementSet) decimal.Decimal { return s.BalanceSheet.TotalLiabilities }, true},
	{"Contributed capital", func(s model.StatementSet) decimal.Decimal { return s.BalanceSheet.ContributedCapital }, false},
	{"Retained earnings", func(s model.StatementSet) decimal.Decimal { return s.BalanceSheet.RetainedEarnings }, false},
	{"Total equity", func(s model.StatementSet) decimal.Decimal { return s.BalanceSheet.TotalEquity }, true},
}

var cashLines = []line{
	{"Beginning cash", func(s model.StatementSet) decimal.Decimal { return s.CashFlow.BeginningCash }, false},
	{"Operating activities", func(s model.StatementSet) decimal.Decimal { return s.CashFlow.OperatingCashFlow }, false},
	{"Investing activities", func(s model.StatementSet) decimal.Decimal { return s.CashFlow.InvestingCashFlow }, false},
	{"Financing activities", func(s model.StatementSet) decimal.Decimal { return s.CashFlow.FinancingCashFlow }, false},
	{"Net cash flow", func(s model.StatementSet) decimal.Decimal { return s.CashFlow.NetCashFlow }, true},
	{"Ending cash", func(s model.StatementSet) decimal.Decimal { return s.CashFlow.EndingCash }, true},
}

// Markdown writes one statement set as three tables followed by its
// diagnostics.
func Markdown(w io.Writer, title string, set model.StatementSet, currency string) error {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", title)
	section(&b, "Profit & Loss", plLines, []string{"Amount"}, []model.StatementSet{set}, currency)
	section(&b, "Balance Sheet", balanceLines, []string{"Amount"}, []model.StatementSet{set}, currency)
	section(&b, "Cash Flow", cashLines, []string{"Amount"}, []model.StatementSet{set}, currency)
	diagnostics(&b, "", set)
	_, err := io.WriteString(w, b.String())
	return err
}

// PeriodsMarkdown writes a period series with one column per bucket. P&L and
// cash flow columns cover their own bucket; balance sheet columns are as of
// the bucket's end.
func PeriodsMarkdown(w io.Writer, title string, periods []model.PeriodStatement, currency string) error {
	if len(periods) == 0 {
		_, err := fmt.Fprintf(w, "# %s\n\n_No transactions._\n", title)
		return err
	}
	labels := make([]string, len(periods))
	sets := make([]model.StatementSet, len(periods))
	for i, p := range periods {
		labels[i] = p.PeriodLabel
		sets[i] = p.Statements
	}
	return ColumnsMarkdown(w, title, labels, sets, currency)
}

// ColumnsMarkdown writes several statement sets side by side, one labelled
// column each, followed by the diagnostics of the sets that do not validate.
func ColumnsMarkdown(w io.Writer, title string, labels []string, sets []model.StatementSet, currency string) error {
	if len(labels) != len(sets) {
		return fmt.Errorf("%d labels for %d statement sets", len(labels), len(sets))
	}
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", title)
	section(&b, "Profit & Loss", plLines, labels, sets, currency)
	section(&b, "Balance Sheet", balanceLines, labels, sets, currency)
	section(&b, "Cash Flow", cashLines, labels, sets, currency)
	for i, s := range sets {
		diagnostics(&b, labels[i], s)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func section(b *strings.Builder, heading string, lines []line, columns []string, sets []model.StatementSet, currency string) {
	fmt.Fprintf(b, "## %s\n\n", heading)
	b.WriteString("| |")
	for _, c := range columns {
		fmt.Fprintf(b, " %s |", c)
	}
	b.WriteString("\n|---|")
	for range columns {
		b.WriteString("---:|")
	}
	b.WriteString("\n")
	for _, l := range lines {
		label := l.label
		if l.total {
			label = "**" + label + "**"
		}
		fmt.Fprintf(b, "| %s |", label)
		for _, s := range sets {
			v := Money(l.value(s), currency)
			if l.total {
				v = "**" + v + "**"
			}
			fmt.Fprintf(b, " %s |", v)
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
}

func diagnostics(b *strings.Builder, label string, set model.StatementSet) {
	if set.IsValid {
		if label == "" {
			b.WriteString("Statements are consistent.\n")
		}
		return
	}
	if label != "" {
		fmt.Fprintf(b, "**%s**\n\n", label)
	}
	for _, e := range set.Errors {
		fmt.Fprintf(b, "- %s\n", e)
	}
	b.WriteString("\n")
}

// JSON writes v as indented JSON.
func JSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding JSON: %w", err)
	}
	return nil
}

// Render styles Markdown for the terminal. An empty style picks one from the
// terminal's background; width <= 0 keeps glamour's default of 80 columns.
func Render(markdown, style string, width int) (string, error) {
	var opts []glamour.TermRendererOption
	if width > 0 {
		opts = append(opts, glamour.WithWordWrap(width))
	}
	if style == "" {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStandardStyle(style))
	}
	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return "", fmt.Errorf("creating renderer: %w", err)
	}
	out, err := r.Render(markdown)
	if err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	return out, nil
}

// Write renders content in the requested format. markdown produces the
// Markdown body; value is what JSON output encodes.
func Write(w io.Writer, format Format, value any, markdown func(io.Writer) error, style string, width int) error {
	switch format {
	case FormatJSON:
		return JSON(w, value)
	case FormatMarkdown:
		return markdown(w)
	default:
		var b strings.Builder
		if err := markdown(&b); err != nil {
			return err
		}
		out, err := Render(b.String(), style, width)
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, out)
		return err
	}
}
