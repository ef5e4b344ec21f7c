package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/finstate/internal/config"
	"github.com/cleared-dev/finstate/internal/engine"
	"github.com/cleared-dev/finstate/internal/ledger"
	"github.com/cleared-dev/finstate/internal/model"
	"github.com/cleared-dev/finstate/internal/portfolio"
	"github.com/cleared-dev/finstate/internal/report"
)

func newPortfolioCommand(a *app) *cobra.Command {
	var (
		granularity string
		through     string
		concurrency int
		byPeriod    bool
		out         outputFlags
	)

	cmd := &cobra.Command{
		Use:   "portfolio",
		Short: "Recompute every portfolio company and show the consolidated statements",
		Long: `Reads the companies listed under "portfolio" in finstate.yaml, each a
company repo of its own, recomputes them concurrently and consolidates them.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.config()
			if err != nil {
				return err
			}
			if len(cfg.Portfolio) == 0 {
				return fmt.Errorf("no portfolio companies in %s", config.FileName)
			}
			if granularity == "" {
				granularity = cfg.Reporting.Granularity
			}
			g, err := engine.ParseGranularity(granularity)
			if err != nil {
				return err
			}
			end, err := parseDay("through", through)
			if err != nil {
				return err
			}

			companies, err := portfolioCompanies(a.repo, cfg.Portfolio)
			if err != nil {
				return err
			}
			res, err := portfolio.Recompute(cmd.Context(), companies, portfolio.Request{
				Granularity: g,
				Through:     end,
				Epsilon:     cfg.Reporting.Epsilon,
				Concurrency: concurrency,
			})
			if err != nil {
				return err
			}

			currency := cfg.Company.Currency
			return out.write(cmd, res, func(w io.Writer) error {
				if byPeriod {
					return report.PeriodsMarkdown(w, fmt.Sprintf("Portfolio by %s (consolidated)", g), res.Periods, currency)
				}
				labels := make([]string, 0, len(res.Companies)+1)
				sets := make([]model.StatementSet, 0, len(res.Companies)+1)
				for _, c := range res.Companies {
					labels = append(labels, c.Name)
					sets = append(sets, c.Statements)
				}
				labels = append(labels, "Consolidated")
				sets = append(sets, res.Consolidated)
				return report.ColumnsMarkdown(w, "Portfolio", labels, sets, currency)
			})
		},
	}

	cmd.Flags().StringVarP(&granularity, "granularity", "g", "", "bucket size of the consolidated series (default from finstate.yaml)")
	cmd.Flags().StringVar(&through, "through", "", "statements as of this date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&concurrency, "concurrency", portfolio.DefaultConcurrency, "companies recomputed at once")
	cmd.Flags().BoolVar(&byPeriod, "by-period", false, "show the consolidated period series instead of per-company columns")
	out.register(cmd)

	return cmd
}

// portfolioCompanies loads each member repo's config. Members share the
// holding repo's currency; their own opening cash and seed apply.
func portfolioCompanies(baseDir string, refs []config.CompanyRef) ([]portfolio.Company, error) {
	companies := make([]portfolio.Company, 0, len(refs))
	for _, ref := range refs {
		dir := config.PortfolioPath(baseDir, ref)
		cfg, err := config.LoadRepo(dir)
		if err != nil {
			return nil, fmt.Errorf("portfolio company %q: %w", ref.Name, err)
		}
		name := ref.Name
		if name == "" {
			name = cfg.Company.Name
		}
		companies = append(companies, portfolio.Company{
			Name:        name,
			Source:      ledger.NewService(dir),
			OpeningCash: cfg.Reporting.OpeningCash,
			Opening:     openingSeed(cfg.Opening),
		})
	}
	return companies, nil
}
