package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/the-fraud-must-flow/internal/cli"
	"github.com/Veraticus/the-fraud-must-flow/internal/model"
)

func evaluateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Screen the stored ledger against fraud rules",
		Long: `Load the stored transactions and apply fraud rules to them.

Rules are built-in ids (banned_region, foreign_currency, high_amount) or custom
predicates of the form "field operator value", for example "amount >= 750" or
"ip startswith 172.16.". Invalid rules are reported and skipped.`,
		Example: `  fraud evaluate
  fraud evaluate --rule banned_region --rule "currency == EUR"
  fraud evaluate --all --report-to ops@example.com`,
		RunE: runEvaluate,
	}

	cmd.Flags().StringArray("rule", model.BuiltinRuleNames(), "rule to apply (repeatable)")
	cmd.Flags().Bool("all", false, "show every transaction instead of only suspicious ones")
	cmd.Flags().String("report-to", "", "e-mail the suspicious transactions to this address")

	return cmd
}

func runEvaluate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig()
	if err != nil {
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

	rawRules, _ := cmd.Flags().GetStringArray("rule")
	result, err := eng.ApplyRules(ctx, model.RuleSpecs(rawRules))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, cli.FormatTitle("Fraud Screening"))

	rows := result.Suspicious
	if all, _ := cmd.Flags().GetBool("all"); all {
		rows = result.All
	}
	if err := cli.WriteTransactions(out, rows); err != nil {
		return err
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, cli.Summary(len(result.All), len(result.Suspicious), result.Skipped))

	to, _ := cmd.Flags().GetString("report-to")
	if to == "" {
		return nil
	}

	sent, err := eng.SendReport(ctx, to)
	if err != nil {
		return fmt.Errorf("failed to send report: %w", err)
	}
	if sent {
		fmt.Fprintln(out, cli.FormatSuccess("Report sent to "+to))
	} else {
		fmt.Fprintln(out, cli.FormatInfo("No suspicious transactions to report"))
	}
	return nil
}
