package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/sisihe/sisiexpense/internal/auth"
	"github.com/sisihe/sisiexpense/internal/calculator"
	"github.com/sisihe/sisiexpense/internal/models"
	"github.com/sisihe/sisiexpense/internal/storage/file"
)

var testUsers = []string{"bowei", "winston", "alan", "zach"}

func placeholder(name string) string {
	return "hashed_" + name
}

func newTestLedger(t *testing.T) (*Ledger, *file.FileStore) {
	t.Helper()

	store, err := file.New(filepath.Join(t.TempDir(), "ledger.json"), testUsers, placeholder)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	tokens, err := auth.NewTokenManager("test-secret", time.Hour, testUsers)
	if err != nil {
		t.Fatalf("Failed to create token manager: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewLedger(store, tokens, testUsers, logger), store
}

func mustAdd(t *testing.T, l *Ledger, payer, item string, price float64) models.Expense {
	t.Helper()
	expense, err := l.AddExpense(context.Background(), payer, item, price, "alan")
	if err != nil {
		t.Fatalf("AddExpense(%q, %q, %v) failed: %v", payer, item, price, err)
	}
	return expense
}

func TestLogin(t *testing.T) {
	ledger, _ := newTestLedger(t)
	ctx := context.Background()

	t.Run("allowed user gets a verifiable token", func(t *testing.T) {
		session, err := ledger.Login(ctx, "alan")
		if err != nil {
			t.Fatalf("Login failed: %v", err)
		}
		if session.User != "alan" {
			t.Errorf("Session user = %q, want %q", session.User, "alan")
		}
		user, err := ledger.tokens.Verify(session.Token)
		if err != nil || user != "alan" {
			t.Errorf("Issued token does not verify: user=%q err=%v", user, err)
		}
	})

	t.Run("unknown user is rejected", func(t *testing.T) {
		if _, err := ledger.Login(ctx, "mallory"); !errors.Is(err, ErrInvalidUser) {
			t.Fatalf("Expected ErrInvalidUser, got %v", err)
		}
	})
}

func TestAddExpenseRoundTrip(t *testing.T) {
	ledger, _ := newTestLedger(t)
	ctx := context.Background()

	created := mustAdd(t, ledger, "bowei", "lunch", 12.5)

	if created.ID != 1 {
		t.Errorf("First expense ID = %d, want 1", created.ID)
	}
	if !created.IsCalculate {
		t.Error("New expense must count toward balances")
	}
	if created.IsSystem {
		t.Error("Non-System payer flagged as system")
	}
	if created.Uploader != "alan" {
		t.Errorf("Uploader = %q, want %q", created.Uploader, "alan")
	}
	if created.Time.Location() != time.UTC {
		t.Error("Expense timestamp must be UTC")
	}

	fetched, err := ledger.Expense(ctx, created.ID)
	if err != nil {
		t.Fatalf("Expense failed: %v", err)
	}
	if !fetched.Time.Equal(created.Time) || fetched.ID != created.ID ||
		fetched.Payer != created.Payer || fetched.Item != created.Item ||
		fetched.Price != created.Price || fetched.Uploader != created.Uploader ||
		fetched.IsCalculate != created.IsCalculate || fetched.IsSystem != created.IsSystem {
		t.Errorf("Round trip mismatch: got %+v, want %+v", fetched, created)
	}
}

func TestAddExpenseRejectsInvalidPrice(t *testing.T) {
	ledger, _ := newTestLedger(t)
	ctx := context.Background()

	for _, price := range []float64{-0.01, -100, math.NaN(), math.Inf(1)} {
		if _, err := ledger.AddExpense(ctx, "bowei", "bad", price, "alan"); !errors.Is(err, ErrInvalidValue) {
			t.Errorf("AddExpense(price=%v): expected ErrInvalidValue, got %v", price, err)
		}
	}

	// Nothing was recorded and no ID was burned.
	expense := mustAdd(t, ledger, "bowei", "good", 1)
	if expense.ID != 1 {
		t.Errorf("Rejected expenses consumed IDs: next ID = %d, want 1", expense.ID)
	}
}

func TestIDsAreMonotonicAcrossDeletions(t *testing.T) {
	ledger, _ := newTestLedger(t)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		if e := mustAdd(t, ledger, "zach", "snack", 1); e.ID != uint64(i) {
			t.Fatalf("Expense %d got ID %d", i, e.ID)
		}
	}

	if err := ledger.DeleteExpense(ctx, 2); err != nil {
		t.Fatalf("DeleteExpense failed: %v", err)
	}
	if err := ledger.DeleteExpense(ctx, 3); err != nil {
		t.Fatalf("DeleteExpense failed: %v", err)
	}

	// Freed IDs are never handed out again.
	if e := mustAdd(t, ledger, "zach", "snack", 1); e.ID != 4 {
		t.Errorf("Expected ID 4 after deletions, got %d", e.ID)
	}
}

func TestExpenseNotFound(t *testing.T) {
	ledger, _ := newTestLedger(t)
	ctx := context.Background()

	if _, err := ledger.Expense(ctx, 42); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
	if err := ledger.DeleteExpense(ctx, 42); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestRecentExpensesReturnsLastTenDescending(t *testing.T) {
	ledger, _ := newTestLedger(t)
	ctx := context.Background()

	for i := 0; i < 12; i++ {
		mustAdd(t, ledger, "winston", "coffee", 3)
	}

	recent, err := ledger.RecentExpenses(ctx)
	if err != nil {
		t.Fatalf("RecentExpenses failed: %v", err)
	}
	if len(recent) != 10 {
		t.Fatalf("Expected 10 expenses, got %d", len(recent))
	}
	for i, e := range recent {
		want := uint64(12 - i)
		if e.ID != want {
			t.Errorf("recent[%d].ID = %d, want %d", i, e.ID, want)
		}
	}
}

func TestBalances(t *testing.T) {
	ledger, _ := newTestLedger(t)
	ctx := context.Background()

	mustAdd(t, ledger, "bowei", "lunch", 12.5)
	mustAdd(t, ledger, "bowei", "dinner", 30)
	mustAdd(t, ledger, "winston", "taxi", 8)
	mustAdd(t, ledger, models.SystemPayer, "adjustment", 100)

	balances, err := ledger.Balances(ctx)
	if err != nil {
		t.Fatalf("Balances failed: %v", err)
	}

	want := map[string]float64{"Bowei": 42.5, "Winston": 8}
	if len(balances) != len(want) {
		t.Fatalf("Balances = %v, want %v", balances, want)
	}
	for name, balance := range want {
		if balances[name] != balance {
			t.Errorf("Balance[%q] = %v, want %v", name, balances[name], balance)
		}
	}

	// Zero-balance users (alan, zach) and the System sentinel are omitted,
	// and names come back display-cased.
	for _, absent := range []string{"Alan", "Zach", "System", "bowei"} {
		if _, ok := balances[absent]; ok {
			t.Errorf("Balances unexpectedly contains %q", absent)
		}
	}
}

func TestClearBalancesIsIdempotent(t *testing.T) {
	ledger, store := newTestLedger(t)
	ctx := context.Background()

	mustAdd(t, ledger, "bowei", "lunch", 12.5)
	mustAdd(t, ledger, "winston", "taxi", 8)

	for i := 0; i < 2; i++ {
		if err := ledger.ClearBalances(ctx); err != nil {
			t.Fatalf("ClearBalances (call %d) failed: %v", i+1, err)
		}

		balances, err := ledger.Balances(ctx)
		if err != nil {
			t.Fatalf("Balances failed: %v", err)
		}
		if len(balances) != 0 {
			t.Errorf("Expected empty balances after clear, got %v", balances)
		}

		err = store.WithState(ctx, func(state *models.State) error {
			if len(state.Expenses) != 2 {
				t.Errorf("Clearing must not delete history: %d expenses", len(state.Expenses))
			}
			for _, e := range state.Expenses {
				if e.IsCalculate {
					t.Errorf("Expense %d still marked calculable after clear", e.ID)
				}
			}
			return nil
		})
		if err != nil {
			t.Fatalf("WithState failed: %v", err)
		}
	}
}

func TestDeleteExpenseAdjustsBalances(t *testing.T) {
	ledger, _ := newTestLedger(t)
	ctx := context.Background()

	t.Run("counting expense reduces payer balance", func(t *testing.T) {
		e := mustAdd(t, ledger, "bowei", "lunch", 12.5)
		mustAdd(t, ledger, "bowei", "dinner", 30)

		if err := ledger.DeleteExpense(ctx, e.ID); err != nil {
			t.Fatalf("DeleteExpense failed: %v", err)
		}

		balances, _ := ledger.Balances(ctx)
		if balances["Bowei"] != 30 {
			t.Errorf("Balance after delete = %v, want 30", balances["Bowei"])
		}
	})

	t.Run("inert expense leaves balances unchanged", func(t *testing.T) {
		e := mustAdd(t, ledger, "winston", "taxi", 8)
		if err := ledger.ClearBalances(ctx); err != nil {
			t.Fatalf("ClearBalances failed: %v", err)
		}

		if err := ledger.DeleteExpense(ctx, e.ID); err != nil {
			t.Fatalf("DeleteExpense failed: %v", err)
		}

		balances, _ := ledger.Balances(ctx)
		if len(balances) != 0 {
			t.Errorf("Deleting an inert expense changed balances: %v", balances)
		}
	})

	t.Run("missing payer is tolerated", func(t *testing.T) {
		e := mustAdd(t, ledger, "stranger", "mystery", 5)
		if err := ledger.DeleteExpense(ctx, e.ID); err != nil {
			t.Fatalf("DeleteExpense with unknown payer failed: %v", err)
		}
	})
}

// TestStoredBalancesMatchHistory checks the core invariant: after any
// sequence of operations, the balances denormalized onto the user records
// equal what the calculator derives from the surviving expense history.
func TestStoredBalancesMatchHistory(t *testing.T) {
	ledger, store := newTestLedger(t)
	ctx := context.Background()

	mustAdd(t, ledger, "bowei", "lunch", 12.5)
	mustAdd(t, ledger, "winston", "taxi", 8)
	e := mustAdd(t, ledger, "bowei", "groceries", 55.2)
	mustAdd(t, ledger, models.SystemPayer, "note", 9)
	mustAdd(t, ledger, "zach", "drinks", 21)
	if err := ledger.DeleteExpense(ctx, e.ID); err != nil {
		t.Fatalf("DeleteExpense failed: %v", err)
	}

	err := store.WithState(ctx, func(state *models.State) error {
		derived := calculator.Balances(state.Expenses)
		for name, user := range state.Users {
			if math.Abs(user.Balance-derived[name]) > 1e-9 {
				t.Errorf("Balance drift for %q: stored %v, derived %v", name, user.Balance, derived[name])
			}
		}
		for name := range derived {
			if _, ok := state.Users[name]; !ok {
				t.Errorf("History names payer %q with no user record", name)
			}
		}
		if got, want := calculator.Total(state.Expenses), 12.5+8+21.0; math.Abs(got-want) > 1e-9 {
			t.Errorf("Total = %v, want %v", got, want)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WithState failed: %v", err)
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"bowei", "Bowei"},
		{"winston", "Winston"},
		{"mcDonald", "McDonald"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := displayName(tt.in); got != tt.want {
			t.Errorf("displayName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
