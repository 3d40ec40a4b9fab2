package main

import (
	"encoding/json"
	"io"
	"log/slog"

	"github.com/SscSPs/partner_settlement_app/internal/platform/config"
	"github.com/spf13/cobra"
)

func newRootCmd(logger *slog.Logger) *cobra.Command {
	root := &cobra.Command{
		Use:   "settlementctl",
		Short: "Operator tooling for the partner settlement back office",
		Long: `settlementctl runs the maintenance tasks of the settlement back office:
schema migrations, business rules files and on-demand reconciliation runs.

It reads the same environment as the server (PGSQL_URL, STORAGE_DRIVER,
BUSINESS_RULES_PATH, the *_FEED_URL variables, ...).`,
		SilenceUsage: true,
	}
	root.AddCommand(
		newMigrateCmd(logger),
		newRulesCmd(logger),
		newReconcileCmd(logger),
	)
	return root
}

func loadConfig() (*config.Config, error) {
	return config.LoadConfig()
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
