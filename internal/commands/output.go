package commands

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/cleared-dev/finstate/internal/engine"
	"github.com/cleared-dev/finstate/internal/ledger"
	"github.com/cleared-dev/finstate/internal/logger"
	"github.com/cleared-dev/finstate/internal/model"
	"github.com/cleared-dev/finstate/internal/report"
)

const dayLayout = "2006-01-02"

// outputFlags are shared by every command that prints statements.
type outputFlags struct {
	format string
	style  string
	width  int
}

func (o *outputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.format, "format", "f", "text", "output format (text, markdown, json)")
	cmd.Flags().StringVar(&o.style, "style", "", "terminal style for text output (dark, light, notty, ascii; default: auto)")
	cmd.Flags().IntVar(&o.width, "width", 100, "wrap width for text output")
}

func (o *outputFlags) write(cmd *cobra.Command, value any, markdown func(io.Writer) error) error {
	format, err := report.ParseFormat(o.format)
	if err != nil {
		return err
	}
	return report.Write(cmd.OutOrStdout(), format, value, markdown, o.style, o.width)
}

// parseDay parses an optional YYYY-MM-DD flag value. Empty gives the zero time.
func parseDay(flag, s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dayLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --%s %q (want YYYY-MM-DD)", flag, s)
	}
	return t, nil
}

func parseDecimal(flag, s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid --%s %q: %w", flag, s, err)
	}
	return d, nil
}

// loadTransactions reads and normalizes the repo's whole ledger. With
// skipMalformed, records that do not normalize are logged and left out;
// otherwise the first of them fails the command.
func loadTransactions(cmd *cobra.Command, repo string, skipMalformed bool) ([]model.Transaction, error) {
	ctx := cmd.Context()
	raws, err := ledger.NewService(repo).ReadAll(ctx)
	if err != nil {
		return nil, err
	}
	txns, err := engine.NormalizeAll(raws)
	if err != nil {
		if !skipMalformed {
			return nil, fmt.Errorf("normalizing ledger (use --skip-malformed to leave bad records out): %w", err)
		}
		log := logger.FromContext(ctx)
		log.Warn().Err(err).Int("kept", len(txns)).Int("read", len(raws)).Msg("skipping malformed records")
	}
	return txns, nil
}

// openingSeed returns the configured opening balance, or nil when none is set.
func openingSeed(o model.OpeningBalance) *model.OpeningBalance {
	if o.IsZero() {
		return nil
	}
	return &o
}

// latest returns the date of the last transaction, or the zero time.
func latest(txns []model.Transaction) time.Time {
	var last time.Time
	for _, t := range txns {
		if t.Date.After(last) {
			last = t.Date
		}
	}
	return last
}
