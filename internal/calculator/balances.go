// Package calculator recomputes member balances from the expense history.
//
// The service layer keeps balances denormalized on the user records; this
// package derives the same numbers from first principles, so tests (and any
// future consistency check) can verify the two never drift apart.
package calculator

import "github.com/sisihe/sisiexpense/internal/models"

// Balances folds the expense history into a payer-name → balance map.
//
// Only expenses that currently count (IsCalculate) and have a real payer
// (not the System sentinel) contribute. Payers with a zero net balance are
// omitted, matching what the ledger reports to clients.
func Balances(expenses []models.Expense) map[string]float64 {
	totals := make(map[string]float64)
	for _, e := range expenses {
		if !e.IsCalculate || e.IsSystem {
			continue
		}
		totals[e.Payer] += e.Price
	}

	for name, total := range totals {
		if total == 0 {
			delete(totals, name)
		}
	}
	return totals
}

// Total sums the contributing expense prices across all payers. Equals the
// sum of the values returned by Balances.
func Total(expenses []models.Expense) float64 {
	var sum float64
	for _, balance := range Balances(expenses) {
		sum += balance
	}
	return sum
}
