package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sisihe/sisiexpense/internal/middleware"
)

// allExpenses is the sentinel path ID that requests the recent listing.
const allExpenses = "-1"

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "request body must be JSON")
		return
	}
	if req.Username == "" {
		writeError(w, http.StatusForbidden, "invalid_user", "user is not allowed")
		return
	}

	session, err := s.ledger.Login(r.Context(), req.Username)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, session)
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	idParam := chi.URLParam(r, "id")

	if idParam == allExpenses {
		recent, err := s.ledger.RecentExpenses(r.Context())
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, recent)
		return
	}

	id, err := strconv.ParseUint(idParam, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_value", "expense id must be a number")
		return
	}

	expense, err := s.ledger.Expense(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, expense)
}

func (s *Server) handleAddExpense(w http.ResponseWriter, r *http.Request) {
	decoder := json.NewDecoder(r.Body)
	decoder.UseNumber()

	var body map[string]any
	if err := decoder.Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "request body must be JSON")
		return
	}

	var missing []string
	for _, field := range []string{"payer", "item", "price"} {
		if _, ok := body[field]; !ok {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		writeError(w, http.StatusBadRequest, "bad_request",
			fmt.Sprintf("missing fields: %s", strings.Join(missing, ", ")))
		return
	}

	payer, payerOK := body["payer"].(string)
	item, itemOK := body["item"].(string)
	if !payerOK || !itemOK {
		writeError(w, http.StatusBadRequest, "invalid_value", "payer and item must be strings")
		return
	}

	price, err := parsePrice(body["price"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_value", "price must be a non-negative number")
		return
	}

	expense, err := s.ledger.AddExpense(r.Context(), payer, item, price, middleware.GetUser(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, expense)
}

func (s *Server) handleBalances(w http.ResponseWriter, r *http.Request) {
	balances, err := s.ledger.Balances(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, balances)
}

func (s *Server) handleClearBalances(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.ClearBalances(r.Context()); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "all balances cleared"})
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_value", "expense id must be a number")
		return
	}

	if err := s.ledger.DeleteExpense(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "expense deleted"})
}

// parsePrice accepts a JSON number or a numeric string, matching what
// clients of the original API were allowed to send.
func parsePrice(value any) (float64, error) {
	switch v := value.(type) {
	case json.Number:
		return v.Float64()
	case string:
		return strconv.ParseFloat(v, 64)
	default:
		return 0, fmt.Errorf("price has unsupported type %T", value)
	}
}
