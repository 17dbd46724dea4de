package main

import (
	"time"

	billingapp "github.com/ispbill/backend/internal/application/billing"
	"github.com/ispbill/backend/internal/domain/billing"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Recompute and store the financial summary",
	Long: `Recomputes the financial summary and writes back invoice statuses. A
summary of the current month replaces the stored dashboard; one computed for
an earlier month is printed only.`,
	Example: `  # Summary as of now
  billingctl summary

  # Summary as of the end of a past day
  billingctl summary --as-of 2026-03-31`,
	Args: cobra.NoArgs,
	RunE: runSummary,
}

var generateCmd = &cobra.Command{
	Use:   "generate-invoices",
	Short: "Create the monthly invoices for a billing period",
	Long: `Creates one invoice per billable customer for the period. Customers who
already have an invoice in the period are skipped, so running it twice is safe.`,
	Example: `  billingctl generate-invoices --period 2026-04`,
	Args:    cobra.NoArgs,
	RunE:    runGenerate,
}

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Export and remove settled invoices past the retention window",
	Example: `  billingctl archive
  billingctl archive --as-of 2026-01-01`,
	Args: cobra.NoArgs,
	RunE: runArchive,
}

func init() {
	rootCmd.AddCommand(summaryCmd, generateCmd, archiveCmd)

	summaryCmd.Flags().String("as-of", "", "Compute as of this date or RFC 3339 time (default: now)")
	generateCmd.Flags().String("period", "", "Billing period as YYYY-MM (default: current month)")
	archiveCmd.Flags().String("as-of", "", "Compute the retention cutoff from this date (default: now)")
}

func runSummary(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.close()

	raw, _ := cmd.Flags().GetString("as-of")
	asOf, err := resolveAsOf(raw, s.container.Location)
	if err != nil {
		return err
	}

	started := time.Now()
	summary, err := s.container.Summary.Recompute(s.ctx, asOf)
	if err != nil {
		return err
	}
	s.log.Info("summary recomputed", zap.Duration("took", time.Since(started)))
	return printJSON(cmd.OutOrStdout(), summary)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.close()

	raw, _ := cmd.Flags().GetString("period")
	period := billing.PeriodOf(time.Now().In(s.container.Location))
	if raw != "" {
		if period, err = billing.ParsePeriod(raw); err != nil {
			return err
		}
	}

	resp, err := s.container.Invoices.GenerateMonthly(s.ctx, period)
	if err != nil {
		return err
	}
	if resp.Created > 0 {
		if _, err := s.container.Summary.Recompute(s.ctx, time.Time{}); err != nil {
			s.log.Warn("summary refresh after generation failed", zap.Error(err))
		}
	}
	return printJSON(cmd.OutOrStdout(), resp)
}

func runArchive(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.close()

	raw, _ := cmd.Flags().GetString("as-of")
	asOf, err := resolveAsOf(raw, s.container.Location)
	if err != nil {
		return err
	}
	req := billingapp.ArchiveRequest{}
	if !asOf.IsZero() {
		req.AsOf = &asOf
	}

	resp, err := s.container.Archive.RunArchive(s.ctx, req)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), resp)
}
