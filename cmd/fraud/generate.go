package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Veraticus/the-fraud-must-flow/internal/cli"
)

func generateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Replace the stored ledger with freshly generated transactions",
		Long: `Clear the transaction table, generate a new synthetic batch, and persist it.

The batch mixes clean transactions with suspicious ones covering every rule
combination.`,
		RunE: runGenerate,
	}

	cmd.Flags().Int("clean", 0, "number of clean transactions (default: generator.clean_count, 40)")
	cmd.Flags().Int("suspicious", 0, "number of suspicious transactions (default: generator.suspicious_count, 10)")
	cmd.Flags().Bool("show", false, "print the generated transactions")

	return cmd
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if n, _ := cmd.Flags().GetInt("clean"); n > 0 {
		cfg.Generator.CleanCount = n
	}
	if n, _ := cmd.Flags().GetInt("suspicious"); n > 0 {
		cfg.Generator.SuspiciousCount = n
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	store, err := initStorage(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	eng, err := initEngine(cfg, store)
	if err != nil {
		return err
	}

	batch, err := eng.Generate(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	progress := cli.NewFlushProgress(out, len(batch))
	if err := eng.Queue().Drain(ctx, progress.Add); err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), cli.FormatPartialPersist(progress.Done(), len(batch)))
		return fmt.Errorf("failed to persist generated transactions: %w", err)
	}

	slog.Debug("Generated ledger persisted", "count", progress.Done(), "database", store.Path())

	if show, _ := cmd.Flags().GetBool("show"); show {
		if err := cli.WriteTransactions(out, batch); err != nil {
			return err
		}
	}

	fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Generated %d transactions (%d clean, %d suspicious)",
		len(batch), cfg.Generator.CleanCount, cfg.Generator.SuspiciousCount)))
	return nil
}
