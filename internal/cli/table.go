package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/Veraticus/the-fraud-must-flow/internal/model"
)

const timeLayout = "2006-01-02 15:04:05"

// WriteTransactions writes txns as an aligned table. Suspicious rows are
// highlighted and list their reasons.
func WriteTransactions(out io.Writer, txns []model.Transaction) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	if _, err := fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
		TableHeaderStyle.Render("Transaction"),
		TableHeaderStyle.Render("User"),
		TableHeaderStyle.Render("IP"),
		TableHeaderStyle.Render("Amount"),
		TableHeaderStyle.Render("Created"),
		TableHeaderStyle.Render("Reason")); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	if _, err := fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
		strings.Repeat("─", 36),
		strings.Repeat("─", 6),
		strings.Repeat("─", 15),
		strings.Repeat("─", 12),
		strings.Repeat("─", 19),
		strings.Repeat("─", 20)); err != nil {
		return fmt.Errorf("failed to write separator: %w", err)
	}

	for _, t := range txns {
		reason := SubtleStyle.Render("-")
		if t.Suspicious {
			reason = FlaggedStyle.Render(strings.Join(t.Reason, "; "))
		}

		if _, err := fmt.Fprintf(w, "%s\t%s\t%s\t%s %s\t%s\t%s\n",
			t.ID,
			t.UserID,
			t.IP,
			t.Amount.StringFixed(2),
			t.Currency,
			t.CreatedAt.Local().Format(timeLayout),
			reason); err != nil {
			return fmt.Errorf("failed to write transaction row: %w", err)
		}
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to flush table: %w", err)
	}
	return nil
}

// Summary renders rule application counts in a box.
func Summary(total, suspicious int, skipped []string) string {
	content := fmt.Sprintf("  • Transactions: %d\n", total) +
		fmt.Sprintf("  • Suspicious: %d\n", suspicious)
	if len(skipped) > 0 {
		content += fmt.Sprintf("  • Skipped rules: %s\n", strings.Join(skipped, ", "))
	}
	return RenderBox(summaryIcon+" Evaluation Complete", content)
}
