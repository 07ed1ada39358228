package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/safebite/safebite/internal/engine"
	"github.com/safebite/safebite/internal/queue"
	"github.com/spf13/cobra"
)

func queueCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Manage the offline operation queue",
	}

	cmd.AddCommand(queueStatusCmd())
	cmd.AddCommand(queueDrainCmd())

	return cmd
}

func queueStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show how many operations are waiting",
		RunE: func(cmd *cobra.Command, _ []string) error {
			q, err := openQueue(slog.Default())
			if err != nil {
				return fmt.Errorf("failed to open offline queue: %w", err)
			}
			defer func() { _ = q.Close() }()

			n, err := q.Len(cmd.Context())
			if err != nil {
				return err
			}
			cmd.Printf("%d operation(s) queued\n", n)
			return nil
		},
	}
}

func queueDrainCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "drain",
		Short: "Replay queued operations against their stores",
		Long: `Replay queued operations in the order they were enqueued.

Draining stops at the first operation that fails to apply; that
operation and everything behind it stay queued for the next drain.`,
		RunE: runQueueDrain,
	}
}

func runQueueDrain(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	logger := slog.Default()

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = store.Close() }()

	products, err := openProductCache(logger)
	if err != nil {
		return err
	}
	defer func() { _ = products.Close() }()

	q, err := openQueue(logger)
	if err != nil {
		return fmt.Errorf("failed to open offline queue: %w", err)
	}
	defer func() { _ = q.Close() }()

	applied, err := q.DrainInOrder(ctx, engine.NewApplier(store, products))
	if err != nil {
		if errors.Is(err, queue.ErrApplyFailed) {
			remaining, lenErr := q.Len(ctx)
			if lenErr != nil {
				remaining = -1
			}
			cmd.Printf("Applied %d operation(s), stopped at a failure; %d still queued\n", applied, remaining)
			return err
		}
		return err
	}

	cmd.Printf("Applied %d operation(s), queue empty\n", applied)
	return nil
}
