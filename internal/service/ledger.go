// Package service implements the ledger business logic on top of the
// storage and auth layers.
package service

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"time"
	"unicode"

	"github.com/sisihe/sisiexpense/internal/auth"
	"github.com/sisihe/sisiexpense/internal/models"
	"github.com/sisihe/sisiexpense/internal/storage"
)

// recentLimit caps how many expenses a listing returns.
const recentLimit = 10

var (
	// ErrInvalidUser is returned when a login names a user outside the
	// allow-list.
	ErrInvalidUser = errors.New("user is not allowed")

	// ErrNotFound is returned when a referenced expense does not exist.
	ErrNotFound = errors.New("expense not found")

	// ErrInvalidValue is returned for a price that is not a non-negative
	// real number.
	ErrInvalidValue = errors.New("price must be a non-negative number")
)

// Session is the result of a successful login.
type Session struct {
	User  string `json:"user"`
	Token string `json:"token"`
}

// Ledger implements the expense-ledger operations. Every operation runs
// inside a single store scope, so each request observes and produces a
// consistent state.
type Ledger struct {
	store   storage.Store
	tokens  *auth.TokenManager
	allowed map[string]bool
	logger  *slog.Logger
}

// NewLedger creates a ledger service. users is the allow-list, lower-case.
func NewLedger(store storage.Store, tokens *auth.TokenManager, users []string, logger *slog.Logger) *Ledger {
	allowed := make(map[string]bool, len(users))
	for _, name := range users {
		allowed[name] = true
	}
	return &Ledger{
		store:   store,
		tokens:  tokens,
		allowed: allowed,
		logger:  logger,
	}
}

// Login validates the username against the allow-list and issues a session
// token. No password is checked beyond the presence of the stored
// placeholder credential; see auth.PlaceholderCredential.
func (l *Ledger) Login(ctx context.Context, username string) (Session, error) {
	var session Session
	err := l.store.WithState(ctx, func(state *models.State) error {
		if !l.allowed[username] {
			return ErrInvalidUser
		}
		user, ok := state.Users[username]
		if !ok || user.Password == "" {
			return ErrInvalidUser
		}

		token, err := l.tokens.Issue(username)
		if err != nil {
			if errors.Is(err, auth.ErrUnknownUser) {
				return ErrInvalidUser
			}
			return err
		}

		session = Session{User: username, Token: token}
		return nil
	})
	if err != nil {
		l.logger.Warn("Login failed", "username", username, "error", err)
		return Session{}, err
	}

	l.logger.Info("User logged in", "username", username)
	return session, nil
}

// Expense returns the expense with the given ID, or ErrNotFound.
func (l *Ledger) Expense(ctx context.Context, id uint64) (models.Expense, error) {
	var expense models.Expense
	err := l.store.WithState(ctx, func(state *models.State) error {
		i := state.FindExpense(id)
		if i < 0 {
			return ErrNotFound
		}
		expense = state.Expenses[i]
		return nil
	})
	return expense, err
}

// RecentExpenses returns up to the last 10 expenses, most recent first.
func (l *Ledger) RecentExpenses(ctx context.Context) ([]models.Expense, error) {
	var recent []models.Expense
	err := l.store.WithState(ctx, func(state *models.State) error {
		n := len(state.Expenses)
		start := n - recentLimit
		if start < 0 {
			start = 0
		}

		recent = make([]models.Expense, 0, n-start)
		for i := n - 1; i >= start; i-- {
			recent = append(recent, state.Expenses[i])
		}
		return nil
	})
	return recent, err
}

// AddExpense records a new expense paid by payer and uploaded by the
// authenticated uploader. Assigns the next monotonic ID and, unless the
// payer is the System sentinel, adds the price to the payer's balance.
func (l *Ledger) AddExpense(ctx context.Context, payer, item string, price float64, uploader string) (models.Expense, error) {
	if price < 0 || math.IsNaN(price) || math.IsInf(price, 0) {
		return models.Expense{}, ErrInvalidValue
	}

	var expense models.Expense
	err := l.store.WithState(ctx, func(state *models.State) error {
		expense = models.Expense{
			ID:          state.System.LastID + 1,
			Time:        time.Now().UTC(),
			Payer:       payer,
			Item:        item,
			Price:       price,
			Uploader:    uploader,
			IsCalculate: true,
			IsSystem:    payer == models.SystemPayer,
		}
		state.System.LastID++
		state.Expenses = append(state.Expenses, expense)

		if !expense.IsSystem {
			if user, ok := state.Users[payer]; ok {
				user.Balance += price
			} else {
				// Payers outside the user map are recorded but carry
				// no balance, same as the System sentinel.
				l.logger.Warn("Expense payer has no user record", "payer", payer)
			}
		}
		return nil
	})
	if err != nil {
		return models.Expense{}, err
	}

	l.logger.Info("Expense added",
		"id", expense.ID,
		"payer", expense.Payer,
		"price", expense.Price,
		"uploader", uploader,
	)
	return expense, nil
}

// Balances returns display-cased user name → balance, omitting users whose
// balance is exactly zero.
func (l *Ledger) Balances(ctx context.Context) (map[string]float64, error) {
	balances := make(map[string]float64)
	err := l.store.WithState(ctx, func(state *models.State) error {
		for name, user := range state.Users {
			if user.Balance != 0 {
				balances[displayName(name)] = user.Balance
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return balances, nil
}

// ClearBalances settles the group: every balance drops to zero and every
// existing expense stops counting toward future balances. The history
// stays visible. Irreversible, and idempotent by construction.
func (l *Ledger) ClearBalances(ctx context.Context) error {
	err := l.store.WithState(ctx, func(state *models.State) error {
		for _, user := range state.Users {
			user.Balance = 0
		}
		for i := range state.Expenses {
			state.Expenses[i].IsCalculate = false
		}
		return nil
	})
	if err != nil {
		return err
	}

	l.logger.Info("Balances cleared")
	return nil
}

// DeleteExpense removes the expense with the given ID. If it still counted
// toward a balance, the payer's balance is reduced by its price — unless
// the payer no longer has a user record, in which case the adjustment is
// skipped. The freed ID is never reassigned.
func (l *Ledger) DeleteExpense(ctx context.Context, id uint64) error {
	err := l.store.WithState(ctx, func(state *models.State) error {
		i := state.FindExpense(id)
		if i < 0 {
			return ErrNotFound
		}

		expense := state.Expenses[i]
		if expense.IsCalculate {
			if user, ok := state.Users[expense.Payer]; ok {
				user.Balance -= expense.Price
			}
		}

		state.Expenses = append(state.Expenses[:i], state.Expenses[i+1:]...)
		return nil
	})
	if err != nil {
		return err
	}

	l.logger.Info("Expense deleted", "id", id)
	return nil
}

// displayName upper-cases the first rune and leaves the rest unchanged.
// Allow-list names are stored lower-case internally.
func displayName(name string) string {
	runes := []rune(name)
	if len(runes) == 0 {
		return name
	}
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
