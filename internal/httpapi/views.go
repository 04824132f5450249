package httpapi

import "github.com/Veraticus/the-fraud-must-flow/internal/model"

// SuspiciousView is the public shape of a flagged transaction.
type SuspiciousView struct {
	TransactionID string   `json:"transaction_id"`
	UserID        string   `json:"user_id"`
	Reason        []string `json:"reason"`
}

func suspiciousViews(txns []model.Transaction) []SuspiciousView {
	views := make([]SuspiciousView, len(txns))
	for i, t := range txns {
		views[i] = SuspiciousView{
			TransactionID: t.ID,
			UserID:        t.UserID,
			Reason:        t.Reason,
		}
	}
	return views
}
