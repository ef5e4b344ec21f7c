package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/finstate/internal/ledger"
	"github.com/cleared-dev/finstate/internal/model"
)

func newAddCommand(a *app) *cobra.Command {
	var (
		on          string
		typ         string
		category    string
		amount      string
		description string
		pl          bool
		cashFlow    bool
		balance     bool
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Append a transaction to the ledger",
		Example: `  finstate add --date 2025-01-14 --type revenue --category sales --amount 3500 --description "Invoice 1042"
  finstate add --date 2025-01-20 --type revenue --amount 800 --cash-flow=false   # invoiced, not yet paid`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.config(); err != nil {
				return err
			}
			date, err := parseDay("date", on)
			if err != nil {
				return err
			}
			t, ok := model.ParseTransactionType(typ)
			if !ok {
				return fmt.Errorf("invalid --type %q (want revenue, expense, asset, liability or equity)", typ)
			}
			amt, err := parseDecimal("amount", amount)
			if err != nil {
				return err
			}

			p := ledger.AddParams{
				Date:        date,
				Type:        t,
				Category:    category,
				Amount:      amt,
				Description: description,
			}
			// Unset flags stay blank in the ledger and default to true.
			if cmd.Flags().Changed("pl") {
				p.AffectsPL = &pl
			}
			if cmd.Flags().Changed("cash-flow") {
				p.AffectsCashFlow = &cashFlow
			}
			if cmd.Flags().Changed("balance") {
				p.AffectsBalance = &balance
			}

			txnID, err := ledger.NewService(a.repo).Add(cmd.Context(), p)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), txnID)
			return nil
		},
	}

	cmd.Flags().StringVar(&on, "date", "", "transaction date, YYYY-MM-DD (required)")
	cmd.Flags().StringVar(&typ, "type", "", "revenue, expense, asset, liability or equity (required)")
	cmd.Flags().StringVar(&category, "category", "", "category, e.g. sales, direct_costs, equipment, accounts_payable")
	cmd.Flags().StringVar(&amount, "amount", "", "amount in the company currency (required)")
	cmd.Flags().StringVar(&description, "description", "", "free-text description")
	cmd.Flags().BoolVar(&pl, "pl", true, "affects the profit & loss statement")
	cmd.Flags().BoolVar(&cashFlow, "cash-flow", true, "affects the cash flow statement (false records an accrual)")
	cmd.Flags().BoolVar(&balance, "balance", true, "affects the balance sheet")
	for _, f := range []string{"date", "type", "amount"} {
		_ = cmd.MarkFlagRequired(f)
	}

	return cmd
}
