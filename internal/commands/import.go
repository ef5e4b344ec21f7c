package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/finstate/internal/importer"
	"github.com/cleared-dev/finstate/internal/ledger"
	"github.com/cleared-dev/finstate/internal/logger"
)

func newImportCommand(a *app) *cobra.Command {
	var format string
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import bank CSV files from import/ into the ledger",
		Long: `Parses every CSV file in import/, classifies each line with the rules
in finstate.yaml and appends the result to the ledger. Imported files are
moved to import/processed/.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.config()
			if err != nil {
				return err
			}
			if format == "" {
				format = cfg.Import.Format
			}
			parser := importer.DefaultRegistry().Get(format)
			if parser == nil {
				return fmt.Errorf("unknown import format %q", format)
			}
			return runImport(cmd, a.repo, parser, cfg.Import.Rules, dryRun)
		},
	}

	cmd.Flags().StringVar(&format, "format", "", "bank CSV format (chase, simple; default from finstate.yaml)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the classified transactions without writing")

	return cmd
}

func runImport(cmd *cobra.Command, repo string, parser importer.Parser, rules []importer.Rule, dryRun bool) error {
	ctx := cmd.Context()
	log := logger.FromContext(ctx)
	out := cmd.OutOrStdout()

	files, err := importer.Scan(repo)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Fprintln(out, "No files to import.")
		return nil
	}

	svc := ledger.NewService(repo)
	for _, f := range files {
		fh, err := os.Open(f.Path)
		if err != nil {
			return fmt.Errorf("opening %s: %w", f.Name, err)
		}
		txns, err := parser.Parse(fh)
		fh.Close()
		if err != nil {
			return fmt.Errorf("parsing %s: %w", f.Name, err)
		}

		params := importer.Classify(txns, rules)
		if dryRun {
			for _, p := range params {
				fmt.Fprintf(out, "%s  %-9s %-22s %12s  %s\n",
					p.Date.Format(dayLayout), p.Type, p.Category, p.Amount.StringFixed(2), p.Description)
			}
			continue
		}

		ids, err := svc.AddBatch(ctx, params)
		if err != nil {
			return fmt.Errorf("importing %s: %w", f.Name, err)
		}
		if err := importer.MarkProcessed(repo, f.Name); err != nil {
			return err
		}
		log.Info().Str("file", f.Name).Str("format", parser.Format()).Int("transactions", len(ids)).Msg("imported")
		fmt.Fprintf(out, "Imported %d transactions from %s\n", len(ids), f.Name)
	}
	return nil
}
