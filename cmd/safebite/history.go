package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent scans",
		Long: `Show recent scans for a profile, newest first.

Examples:
  safebite history
  safebite history --profile family --limit 50`,
		RunE: runHistory,
	}

	cmd.Flags().StringP("profile", "p", "default", "Profile to list scans for")
	cmd.Flags().IntP("limit", "n", 20, "Maximum number of scans to show")

	_ = viper.BindPFlag("history.profile", cmd.Flags().Lookup("profile"))
	_ = viper.BindPFlag("history.limit", cmd.Flags().Lookup("limit"))

	return cmd
}

func runHistory(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = store.Close() }()

	records, err := store.ListScanHistory(ctx, viper.GetString("history.profile"), viper.GetInt("history.limit"))
	if err != nil {
		return fmt.Errorf("failed to list scan history: %w", err)
	}

	if len(records) == 0 {
		cmd.Println("No scans recorded yet")
		return nil
	}

	for _, rec := range records {
		name := rec.Product
		if name == "" {
			name = rec.Barcode
		}
		cmd.Printf("%s  %s  %s (%s)\n",
			rec.ScannedAt.Format("2006-01-02 15:04"),
			verdictBadge(rec.Analysis.ComplianceLevel),
			name,
			rec.Analysis.Method)
	}
	return nil
}
