package models

import "time"

// SystemPayer is the sentinel payer name for expenses that belong to the
// group as a whole and never contribute to any member's balance.
const SystemPayer = "System"

// Expense represents one recorded purchase.
type Expense struct {
	// ID is the unique, monotonically assigned identifier. IDs are never
	// reused, even after the expense is deleted.
	ID uint64 `json:"id"`

	// Time is the UTC instant the expense was recorded.
	Time time.Time `json:"time"`

	// Payer is the name of the member who paid, or SystemPayer.
	Payer string `json:"payer"`

	// Item describes what was bought.
	Item string `json:"item"`

	// Price is the amount paid. Non-negative.
	Price float64 `json:"price"`

	// Uploader is the authenticated member who recorded the expense.
	Uploader string `json:"uploader"`

	// IsCalculate reports whether this expense currently contributes to
	// its payer's balance. Clearing balances flips it to false; the
	// expense stays visible but inert.
	IsCalculate bool `json:"is_calculate"`

	// IsSystem is true iff Payer == SystemPayer.
	IsSystem bool `json:"is_system"`
}
