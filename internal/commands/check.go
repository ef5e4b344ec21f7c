package commands

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/finstate/internal/engine"
	"github.com/cleared-dev/finstate/internal/ledger"
)

func newCheckCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Check ledger structure and that the statements reconcile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.config()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			byMonth, err := ledger.NewService(a.repo).Check(cmd.Context())
			if err != nil {
				return err
			}
			months := make([]ledger.Month, 0, len(byMonth))
			for m := range byMonth {
				months = append(months, m)
			}
			sort.Slice(months, func(i, j int) bool { return months[i].String() < months[j].String() })

			problems := 0
			for _, m := range months {
				for _, ve := range byMonth[m] {
					fmt.Fprintf(out, "%s: %s\n", m, ve.Error())
					problems++
				}
			}
			if problems > 0 {
				return fmt.Errorf("ledger has %d structural problems", problems)
			}

			txns, err := loadTransactions(cmd, a.repo, false)
			if err != nil {
				return err
			}
			set := engine.Financials(txns, cfg.Reporting.OpeningCash,
				engine.WithEpsilon(cfg.Reporting.Epsilon),
				engine.WithOpening(openingSeed(cfg.Opening)))
			for _, e := range set.Errors {
				fmt.Fprintln(out, e)
			}
			if !set.IsValid {
				return fmt.Errorf("statements do not reconcile (%d problems)", len(set.Errors))
			}

			fmt.Fprintf(out, "Ledger OK: %d transactions, statements reconcile.\n", len(txns))
			return nil
		},
	}
}
