package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/finstate/internal/engine"
	"github.com/cleared-dev/finstate/internal/model"
	"github.com/cleared-dev/finstate/internal/report"
	"github.com/cleared-dev/finstate/internal/store"
)

func newStatementsCommand(a *app) *cobra.Command {
	var asOf string
	var skipMalformed bool
	var out outputFlags

	cmd := &cobra.Command{
		Use:   "statements",
		Short: "Show the P&L, balance sheet and cash flow from inception",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.config()
			if err != nil {
				return err
			}
			through, err := parseDay("as-of", asOf)
			if err != nil {
				return err
			}
			txns, err := loadTransactions(cmd, a.repo, skipMalformed)
			if err != nil {
				return err
			}

			set := engine.Financials(txns, cfg.Reporting.OpeningCash,
				engine.WithEpsilon(cfg.Reporting.Epsilon),
				engine.WithOpening(openingSeed(cfg.Opening)),
				engine.WithThrough(through))

			label := "inception"
			switch {
			case !through.IsZero():
				label = through.Format(dayLayout)
			case len(txns) > 0:
				label = latest(txns).Format(dayLayout)
			}
			title := fmt.Sprintf("%s as of %s", cfg.Company.Name, label)
			return out.write(cmd, set, func(w io.Writer) error {
				return report.Markdown(w, title, set, cfg.Company.Currency)
			})
		},
	}

	cmd.Flags().StringVar(&asOf, "as-of", "", "ignore transactions after this date (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&skipMalformed, "skip-malformed", false, "leave out records that cannot be read instead of failing")
	out.register(cmd)

	return cmd
}

func newPeriodsCommand(a *app) *cobra.Command {
	var (
		granularity   string
		from          string
		through       string
		skipEmpty     bool
		skipMalformed bool
		cached        bool
		out           outputFlags
	)

	cmd := &cobra.Command{
		Use:   "periods",
		Short: "Show statements per week, month, quarter or year",
		Long: `Shows one column per period. P&L and cash flow cover each period alone;
the balance sheet is cumulative to the period's end. Periods without
transactions are shown unless --skip-empty is set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.config()
			if err != nil {
				return err
			}
			if granularity == "" {
				granularity = cfg.Reporting.Granularity
			}
			g, err := engine.ParseGranularity(granularity)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("skip-empty") {
				skipEmpty = cfg.Reporting.SkipEmpty
			}

			var periods []model.PeriodStatement
			if cached {
				periods, err = cachedPeriods(cmd.Context(), cfg.Database.URL, cfg.Company.ID, g)
				if err != nil {
					return err
				}
			} else {
				start, err := parseDay("from", from)
				if err != nil {
					return err
				}
				end, err := parseDay("through", through)
				if err != nil {
					return err
				}
				txns, err := loadTransactions(cmd, a.repo, skipMalformed)
				if err != nil {
					return err
				}
				opts := []engine.Option{
					engine.WithEpsilon(cfg.Reporting.Epsilon),
					engine.WithFrom(start),
					engine.WithThrough(end),
				}
				if skipEmpty {
					opts = append(opts, engine.WithSkipEmpty())
				}
				periods = engine.FinancialsByPeriod(txns, g, cfg.Reporting.OpeningCash, openingSeed(cfg.Opening), opts...)
			}

			title := fmt.Sprintf("%s by %s", cfg.Company.Name, g)
			return out.write(cmd, periods, func(w io.Writer) error {
				return report.PeriodsMarkdown(w, title, periods, cfg.Company.Currency)
			})
		},
	}

	cmd.Flags().StringVarP(&granularity, "granularity", "g", "", "week, month, quarter or year (default from finstate.yaml)")
	cmd.Flags().StringVar(&from, "from", "", "start at the period containing this date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&through, "through", "", "extend the series through the period containing this date")
	cmd.Flags().BoolVar(&skipEmpty, "skip-empty", false, "omit periods without transactions")
	cmd.Flags().BoolVar(&skipMalformed, "skip-malformed", false, "leave out records that cannot be read instead of failing")
	cmd.Flags().BoolVar(&cached, "cached", false, "read the statements stored by the last rebuild instead of recomputing")
	out.register(cmd)

	return cmd
}

// cachedPeriods reads stored statements for the company from the database.
func cachedPeriods(ctx context.Context, url, companyID string, g engine.Granularity) ([]model.PeriodStatement, error) {
	pool, err := store.Open(ctx, url)
	if err != nil {
		return nil, err
	}
	defer pool.Close()
	return store.New(pool).LoadStatements(ctx, companyID, g.String())
}
