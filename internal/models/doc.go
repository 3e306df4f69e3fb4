// Package models defines the core domain records for the shared-expense ledger.
//
// # Models
//
//   - Expense: a single recorded purchase, attributed to a payer
//   - User: a known group member with a running balance
//   - State: the aggregate ledger persisted as one unit
//
// The group is a fixed allow-list of people; there is no user registration.
// Expenses carry the name of whoever paid, or the sentinel payer "System" for
// entries that should never affect anyone's balance.
//
// # Design principles
//
//  1. The whole ledger is one serializable value. State round-trips through
//     JSON unchanged, so the persisted file and the in-memory form never
//     diverge structurally.
//  2. Expense IDs are monotonic integers assigned from State.System.LastID
//     and are never reused, even after deletion.
//  3. Balances are denormalized onto User and kept in step by the service
//     layer; the expense history remains the ground truth (see the
//     calculator package).
package models
