package main

import (
	"log/slog"

	"github.com/SscSPs/partner_settlement_app/internal/platform/app"
	"github.com/SscSPs/partner_settlement_app/internal/platform/config"
	"github.com/spf13/cobra"
)

func newRulesCmd(logger *slog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Manage the business rules file",
	}
	var path string
	cmd.PersistentFlags().StringVar(&path, "file", "", "Rules file (default BUSINESS_RULES_PATH)")
	rulesPath := func() (string, error) {
		if path != "" {
			return path, nil
		}
		cfg, err := loadConfig()
		if err != nil {
			return "", err
		}
		return cfg.BusinessRulesPath, nil
	}

	var overwrite bool
	seed := &cobra.Command{
		Use:   "seed",
		Short: "Write the default rules",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := rulesPath()
			if err != nil {
				return err
			}
			written, err := config.SeedBusinessRules(p, overwrite)
			if err != nil {
				return err
			}
			if written {
				logger.Info("Business rules written", slog.String("path", p))
			} else {
				logger.Info("Business rules already exist, left untouched", slog.String("path", p))
			}
			return nil
		},
	}
	seed.Flags().BoolVar(&overwrite, "overwrite", false, "Replace an existing file")

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the effective rules",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := rulesPath()
			if err != nil {
				return err
			}
			rules, err := app.LoadRules(p, logger)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), rules)
		},
	}

	migrate := &cobra.Command{
		Use:   "migrate",
		Short: "Upgrade the rules file to the current version",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := rulesPath()
			if err != nil {
				return err
			}
			rules, migrated, err := config.LoadBusinessRules(p)
			if err != nil {
				return err
			}
			if !migrated {
				logger.Info("Business rules already current", slog.Int("version", rules.Version))
				return nil
			}
			if err := config.SaveBusinessRules(p, rules); err != nil {
				return err
			}
			logger.Info("Business rules migrated", slog.String("path", p), slog.Int("version", rules.Version))
			return nil
		},
	}

	cmd.AddCommand(seed, show, migrate)
	return cmd
}
