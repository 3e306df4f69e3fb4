package models

// Counters holds the ledger-wide sequence state.
type Counters struct {
	// LastID is the highest expense ID ever assigned. Always >= the max
	// ID among current expenses.
	LastID uint64 `json:"last_id"`
}

// State is the aggregate ledger: the full expense history in insertion
// order, every known user, and the ID counter. It is persisted as a single
// record and only ever read or written as a whole.
type State struct {
	Expenses []Expense        `json:"expenses"`
	Users    map[string]*User `json:"users"`
	System   Counters         `json:"system"`
}

// NewState returns an empty ledger with a zero-balance user per name.
// Names are expected lower-case; display casing is a presentation concern.
func NewState(usernames []string, credential func(name string) string) *State {
	users := make(map[string]*User, len(usernames))
	for _, name := range usernames {
		users[name] = &User{Password: credential(name)}
	}
	return &State{
		Expenses: []Expense{},
		Users:    users,
	}
}

// FindExpense returns the index of the expense with the given ID, or -1.
// Linear scan: the history is small and every caller already holds the
// store's exclusive lock.
func (s *State) FindExpense(id uint64) int {
	for i := range s.Expenses {
		if s.Expenses[i].ID == id {
			return i
		}
	}
	return -1
}
