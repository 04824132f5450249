// Package notify delivers suspicious-transaction reports.
package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/Veraticus/the-fraud-must-flow/internal/model"
)

// Subject is the subject line of every report.
const Subject = "Fraud Alert - Suspicious Transactions Report"

var htmlReport = template.Must(template.New("report").Funcs(template.FuncMap{
	"inc":  func(i int) int { return i + 1 },
	"join": func(reasons []string) string { return strings.Join(reasons, ", ") },
}).Parse(`<h3>Fraud Alert - Suspicious Transactions</h3>
<table border="1" cellpadding="6" cellspacing="0" style="border-collapse: collapse;">
  <tr><th>#</th><th>Transaction</th><th>User</th><th>Amount</th><th>Currency</th><th>Reason</th></tr>
{{- range $i, $t := . }}
  <tr><td>{{ inc $i }}</td><td>{{ $t.ID }}</td><td>{{ $t.UserID }}</td><td>{{ $t.Amount.StringFixed 2 }}</td><td>{{ $t.Currency }}</td><td>{{ join $t.Reason }}</td></tr>
{{- end }}
</table>
`))

// TextBody renders the plain-text summary, one line per transaction.
func TextBody(txns []model.Transaction) string {
	lines := make([]string, len(txns))
	for i, t := range txns {
		lines[i] = fmt.Sprintf("#%d | ID: %s, Amount: %s %s, User: %s, Reason: %s",
			i+1, t.ID, t.Amount.StringFixed(2), t.Currency, t.UserID, strings.Join(t.Reason, ", "))
	}
	return strings.Join(lines, "\n")
}

// HTMLBody renders the report as an HTML table.
func HTMLBody(txns []model.Transaction) (string, error) {
	var buf bytes.Buffer
	if err := htmlReport.Execute(&buf, txns); err != nil {
		return "", fmt.Errorf("failed to render report: %w", err)
	}
	return buf.String(), nil
}
