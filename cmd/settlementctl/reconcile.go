package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/SscSPs/partner_settlement_app/internal/dto"
	"github.com/SscSPs/partner_settlement_app/internal/platform/app"
	"github.com/spf13/cobra"
)

func newReconcileCmd(logger *slog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Run reconciliations on demand",
	}

	var (
		req     dto.RunReconciliationRequest
		dateStr string
		all     bool
	)
	run := &cobra.Command{
		Use:   "run",
		Short: "Run one reconciliation unit, or every due unit with --all",
		Example: `  # Supplier cost of one order
  settlementctl reconcile run --kind supplier_cost --order ORD-1

  # One channel for a day
  settlementctl reconcile run --kind payment_channel --channel alipay --date 2025-04-01

  # Everything the scheduler would run now
  settlementctl reconcile run --all`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			application, err := app.New(cmd.Context(), cfg, logger, false)
			if err != nil {
				return err
			}
			defer application.Close()

			if all {
				summary, err := application.Scheduler.RunOnce(cmd.Context())
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), summary)
			}

			if req.Kind == "" {
				return fmt.Errorf("--kind is required unless --all is set")
			}
			if dateStr != "" {
				date, err := time.Parse("2006-01-02", dateStr)
				if err != nil {
					return fmt.Errorf("invalid date format. Use YYYY-MM-DD: %w", err)
				}
				req.Date = date
			}
			rec, err := application.Services.Reconciliation.Run(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), dto.ToReconciliationResponse(rec))
		},
	}
	run.Flags().StringVar(&req.Kind, "kind", "", "supplier_cost, payment_channel, withdrawal or invoice")
	run.Flags().StringVar(&req.OrderID, "order", "", "Order ID (supplier_cost)")
	run.Flags().StringVar(&req.Channel, "channel", "", "Payment channel (payment_channel)")
	run.Flags().StringVar(&req.PartnerID, "partner", "", "Partner ID (withdrawal)")
	run.Flags().StringVar(&dateStr, "date", "", "Day or any day of the month (YYYY-MM-DD, default today)")
	run.Flags().BoolVar(&all, "all", false, "Run every due unit once")

	cmd.AddCommand(run)
	return cmd
}
