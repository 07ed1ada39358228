package main

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/safebite/safebite/internal/common"
	"github.com/safebite/safebite/internal/storage"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func scanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan <barcode>",
		Short: "Analyze a product against your dietary profile",
		Long: `Look up a product by barcode and check its ingredients against the
active dietary profile.

The analysis tries the primary AI provider, then the secondary, and
falls back to deterministic keyword matching if neither responds. A
verdict is always produced, even fully offline against cached products.

Examples:
  safebite scan 3017620422003
  safebite scan 3017620422003 --profile family
  safebite scan 3017620422003 --json`,
		Args: cobra.ExactArgs(1),
		RunE: runScan,
	}

	cmd.Flags().StringP("profile", "p", "default", "Profile to analyze against")
	cmd.Flags().Bool("json", false, "Emit the verdict as JSON")

	_ = viper.BindPFlag("scan.profile", cmd.Flags().Lookup("profile"))
	_ = viper.BindPFlag("scan.json", cmd.Flags().Lookup("json"))

	return cmd
}

func runScan(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	barcode := args[0]
	profileID := viper.GetString("scan.profile")

	logger := slog.Default()

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = store.Close() }()

	profile, err := store.GetProfile(ctx, profileID)
	if err != nil {
		if errors.Is(err, storage.ErrProfileNotFound) {
			return common.NewUserError(
				fmt.Sprintf("profile %q does not exist; create it with 'safebite profile set %s'", profileID, profileID), err)
		}
		return fmt.Errorf("failed to load profile %q: %w", profileID, err)
	}

	q, err := openQueue(logger)
	if err != nil {
		return fmt.Errorf("failed to open offline queue: %w", err)
	}
	defer func() { _ = q.Close() }()

	analyses, products, err := openCaches(logger)
	if err != nil {
		return err
	}
	defer func() {
		_ = analyses.Close()
		_ = products.Close()
	}()

	finder := newLookupService(products, q, logger)

	product, err := finder.Find(ctx, barcode)
	if err != nil {
		if errors.Is(err, common.ErrProductNotFound) {
			return common.NewUserError(
				fmt.Sprintf("no product found for barcode %s", barcode), err)
		}
		return fmt.Errorf("failed to look up product %s: %w", barcode, err)
	}

	orch, err := newOrchestrator(analyses, store, q, logger)
	if err != nil {
		return err
	}

	start := time.Now()
	analysis, err := orch.Analyze(ctx, product, profile)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	slog.Debug("Analysis complete",
		"barcode", product.Barcode,
		"method", analysis.Method,
		"elapsed", formatDuration(time.Since(start)))

	if viper.GetBool("scan.json") {
		return printJSON(cmd, scanOutput{Product: productSummary(product), Analysis: analysis})
	}

	printVerdict(cmd, product, analysis)
	return nil
}
