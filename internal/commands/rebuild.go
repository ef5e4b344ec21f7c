package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/finstate/internal/engine"
	"github.com/cleared-dev/finstate/internal/ledger"
	"github.com/cleared-dev/finstate/internal/logger"
	"github.com/cleared-dev/finstate/internal/portfolio"
	"github.com/cleared-dev/finstate/internal/store"
)

const (
	sourceLedger = "ledger"
	sourceDB     = "db"
)

func newRebuildCommand(a *app) *cobra.Command {
	var (
		databaseURL string
		companyID   string
		source      string
		granularity string
	)

	cmd := &cobra.Command{
		Use:   "rebuild",
		Short: "Recompute stored statements in the database from the ledger",
		Long: `Deletes the stored statements of the company for one granularity,
recomputes them from the full ledger and stores the result in a single
database transaction. The ledger is read from the repo or, with
--source db, from the ledger_transactions table.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.config()
			if err != nil {
				return err
			}
			if databaseURL == "" {
				databaseURL = cfg.Database.URL
			}
			if companyID == "" {
				companyID = cfg.Company.ID
			}
			if companyID == "" {
				return fmt.Errorf("no company id (set company.id in finstate.yaml or pass --company)")
			}
			if granularity == "" {
				granularity = cfg.Reporting.Granularity
			}
			g, err := engine.ParseGranularity(granularity)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			log := logger.FromContext(ctx)

			pool, err := store.Open(ctx, databaseURL)
			if err != nil {
				return err
			}
			defer pool.Close()
			st := store.New(pool)
			if err := st.EnsureSchema(ctx); err != nil {
				return err
			}

			var src portfolio.Source
			switch source {
			case sourceLedger:
				src = ledger.NewService(a.repo)
			case sourceDB:
				src = store.Ledger{Store: st, CompanyID: companyID}
			default:
				return fmt.Errorf("invalid --source %q (want %s or %s)", source, sourceLedger, sourceDB)
			}

			raws, err := src.ReadAll(ctx)
			if err != nil {
				return err
			}
			periods, err := engine.CalculateFinancialsByPeriod(raws, g, cfg.Reporting.OpeningCash, openingSeed(cfg.Opening),
				engine.WithEpsilon(cfg.Reporting.Epsilon))
			if err != nil {
				return err
			}
			if err := st.ReplaceStatements(ctx, companyID, g.String(), periods); err != nil {
				return err
			}

			invalid := 0
			for _, p := range periods {
				if !p.Statements.IsValid {
					invalid++
					log.Warn().Str("period", p.PeriodLabel).Strs("errors", p.Statements.Errors).Msg("stored statements do not validate")
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Stored %d %s statements for %s (%d invalid)\n", len(periods), g, companyID, invalid)
			return nil
		},
	}

	cmd.Flags().StringVar(&databaseURL, "database-url", "", "Postgres URL (default from finstate.yaml or FINSTATE_DATABASE_URL)")
	cmd.Flags().StringVar(&companyID, "company", "", "company key in the database (default company.id)")
	cmd.Flags().StringVar(&source, "source", sourceLedger, "where to read the ledger: ledger or db")
	cmd.Flags().StringVarP(&granularity, "granularity", "g", "", "week, month, quarter or year (default from finstate.yaml)")

	return cmd
}
