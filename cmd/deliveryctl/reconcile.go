package main

import (
	"context"
	"fmt"
	"food_delivery/internal/domain/payment"
	"food_delivery/internal/pkg/bootstrap"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

var (
	olderThan      time.Duration
	reconcileLimit int
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Re-check pending payments against their provider",
	Long: `Sweep PENDING payments older than --older-than, fetch the provider state and
apply it through the same transition path the webhooks use.
PIX payments past their expiry are cancelled. Intended to run from cron.`,
	RunE: runReconcile,
}

func init() {
	reconcileCmd.Flags().DurationVar(&olderThan, "older-than", 15*time.Minute, "only payments created before now minus this duration")
	reconcileCmd.Flags().IntVar(&reconcileLimit, "limit", 200, "maximum payments per run")
}

func runReconcile(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	infra, err := bootstrap.New(cfg, bootstrap.Options{})
	if err != nil {
		return err
	}
	defer infra.Close(context.Background())

	svc := payment.Build(infra.Context)
	started := time.Now()
	report, err := svc.ReconcilePending(ctx, olderThan, reconcileLimit)
	if err != nil {
		return fmt.Errorf("reconcile: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Checked:  %d\n", report.Checked)
	fmt.Fprintf(out, "Changed:  %d\n", report.Changed)
	fmt.Fprintf(out, "Expired:  %d\n", report.Expired)
	fmt.Fprintf(out, "Failed:   %d\n", report.Failed)
	fmt.Fprintf(out, "Elapsed:  %s\n", time.Since(started).Round(time.Millisecond))
	if report.Failed > 0 {
		return fmt.Errorf("%d payments could not be reconciled", report.Failed)
	}
	return nil
}
