package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"financas/internal/core"
	"financas/internal/log"
	"financas/internal/services"
	"financas/internal/storage"
)

type errorResponse struct {
	Error string `json:"error"`
}

type idResponse struct {
	ID int64 `json:"id"`
}

type accountSummaryResponse struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	InitialBalance string `json:"initial_balance"`
	CurrentBalance string `json:"current_balance"`
}

type categoryResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Kind string `json:"kind"`
}

type transactionRowResponse struct {
	ID                     int64  `json:"id"`
	Kind                   string `json:"kind"`
	OccurredAt             string `json:"occurred_at"`
	Amount                 string `json:"amount"`
	SourceAccountID        int64  `json:"source_account_id"`
	SourceAccountName      string `json:"source_account_name"`
	DestinationAccountID   *int64 `json:"destination_account_id,omitempty"`
	DestinationAccountName string `json:"destination_account_name,omitempty"`
	CategoryID             *int64 `json:"category_id,omitempty"`
	CategoryName           string `json:"category_name,omitempty"`
	Memo                   string `json:"memo,omitempty"`
}

type monthSummaryResponse struct {
	Year    int    `json:"year"`
	Month   int    `json:"month"`
	Income  string `json:"income"`
	Expense string `json:"expense"`
	Net     string `json:"net"`
}

func (s *Server) handleAccounts(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listAccounts(w, r)
	case http.MethodPost:
		s.createAccount(w, r)
	default:
		methodNotAllowed(w, "GET, POST")
	}
}

func (s *Server) createAccount(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name           string `json:"name"`
		InitialBalance string `json:"initial_balance"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	var balance core.Money
	if strings.TrimSpace(req.InitialBalance) != "" {
		cents, err := core.ParseSignedDecimalToCents(req.InitialBalance)
		if err != nil {
			respondError(w, r, err)
			return
		}
		balance = core.Money{Cents: cents}
	}

	id, err := s.ledger.CreateAccount(r.Context(), req.Name, balance)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, idResponse{ID: id})
}

func (s *Server) listAccounts(w http.ResponseWriter, r *http.Request) {
	summaries, err := s.ledger.ListAccounts(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	resp := make([]accountSummaryResponse, 0, len(summaries))
	for _, a := range summaries {
		resp = append(resp, accountSummaryResponse{
			ID:             a.ID,
			Name:           a.Name,
			InitialBalance: a.InitialBalance.String(),
			CurrentBalance: a.CurrentBalance.String(),
		})
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listCategories(w, r)
	case http.MethodPost:
		s.createCategory(w, r)
	default:
		methodNotAllowed(w, "GET, POST")
	}
}

func (s *Server) createCategory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
		Kind string `json:"kind"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	id, err := s.ledger.CreateCategory(r.Context(), req.Name, core.CategoryKind(req.Kind))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, idResponse{ID: id})
}

func (s *Server) listCategories(w http.ResponseWriter, r *http.Request) {
	var kind *core.CategoryKind
	if v := strings.TrimSpace(r.URL.Query().Get("kind")); v != "" {
		k := core.CategoryKind(v)
		kind = &k
	}

	cats, err := s.ledger.ListCategories(r.Context(), kind)
	if err != nil {
		respondError(w, r, err)
		return
	}
	resp := make([]categoryResponse, 0, len(cats))
	for _, c := range cats {
		resp = append(resp, categoryResponse{ID: c.ID, Name: c.Name, Kind: string(c.Kind)})
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listTransactions(w, r)
	case http.MethodPost:
		s.recordTransaction(w, r)
	default:
		methodNotAllowed(w, "GET, POST")
	}
}

func (s *Server) recordTransaction(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Kind                 string `json:"kind"`
		Amount               string `json:"amount"`
		SourceAccountID      int64  `json:"source_account_id"`
		CategoryID           *int64 `json:"category_id"`
		DestinationAccountID *int64 `json:"destination_account_id"`
		OccurredAt           string `json:"occurred_at"`
		Memo                 string `json:"memo"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		respondError(w, r, err)
		return
	}

	id, err := s.ledger.RecordTransaction(r.Context(), services.RecordTransactionInput{
		Kind:                 core.TransactionKind(req.Kind),
		Amount:               core.Money{Cents: cents},
		SourceAccountID:      req.SourceAccountID,
		CategoryID:           req.CategoryID,
		DestinationAccountID: req.DestinationAccountID,
		OccurredAt:           req.OccurredAt,
		Memo:                 req.Memo,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, idResponse{ID: id})
}

func (s *Server) listTransactions(w http.ResponseWriter, r *http.Request) {
	var filter core.TransactionFilter

	if v := strings.TrimSpace(r.URL.Query().Get("account_id")); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			respondBadRequest(w, "account_id must be an integer")
			return
		}
		filter.AccountID = &id
	}
	year, month, ok := optionalYearMonth(w, r)
	if !ok {
		return
	}
	filter.Year, filter.Month = year, month

	rows, err := s.ledger.ListTransactions(r.Context(), filter)
	if err != nil {
		respondError(w, r, err)
		return
	}
	resp := make([]transactionRowResponse, 0, len(rows))
	for _, t := range rows {
		resp = append(resp, transactionRowResponse{
			ID:                     t.ID,
			Kind:                   string(t.Kind),
			OccurredAt:             t.OccurredAt,
			Amount:                 t.Amount.String(),
			SourceAccountID:        t.SourceAccountID,
			SourceAccountName:      t.SourceAccountName,
			DestinationAccountID:   t.DestinationAccountID,
			DestinationAccountName: t.DestinationAccountName,
			CategoryID:             t.CategoryID,
			CategoryName:           t.CategoryName,
			Memo:                   t.Memo,
		})
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}

	v := strings.TrimSpace(r.URL.Query().Get("account_id"))
	if v == "" {
		respondBadRequest(w, "account_id is required")
		return
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		respondBadRequest(w, "account_id must be an integer")
		return
	}

	balance, err := s.ledger.GetBalance(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, struct {
		AccountID int64  `json:"account_id"`
		Balance   string `json:"balance"`
	}{AccountID: id, Balance: balance.String()})
}

func (s *Server) handleMonthSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}

	year, err := strconv.Atoi(strings.TrimSpace(r.URL.Query().Get("year")))
	if err != nil {
		respondBadRequest(w, "year must be an integer")
		return
	}
	month, err := strconv.Atoi(strings.TrimSpace(r.URL.Query().Get("month")))
	if err != nil {
		respondBadRequest(w, "month must be an integer")
		return
	}

	summary, err := s.ledger.MonthSummary(r.Context(), year, month)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, monthSummaryResponse{
		Year:    summary.Year,
		Month:   summary.Month,
		Income:  summary.Income.String(),
		Expense: summary.Expense.String(),
		Net:     summary.Net.String(),
	})
}

func optionalYearMonth(w http.ResponseWriter, r *http.Request) (year, month int, ok bool) {
	ys := strings.TrimSpace(r.URL.Query().Get("year"))
	ms := strings.TrimSpace(r.URL.Query().Get("month"))
	if ys == "" && ms == "" {
		return 0, 0, true
	}
	if ys == "" || ms == "" {
		respondBadRequest(w, "year and month must be given together")
		return 0, 0, false
	}
	var err error
	if year, err = strconv.Atoi(ys); err != nil {
		respondBadRequest(w, "year must be an integer")
		return 0, 0, false
	}
	if month, err = strconv.Atoi(ms); err != nil {
		respondBadRequest(w, "month must be an integer")
		return 0, 0, false
	}
	return year, month, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		respondBadRequest(w, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

func methodNotAllowed(w http.ResponseWriter, allow string) {
	w.Header().Set("Allow", allow)
	respondJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
}

func respondBadRequest(w http.ResponseWriter, msg string) {
	respondJSON(w, http.StatusBadRequest, errorResponse{Error: msg})
}

// respondError maps ledger failures to status codes. Validation failures are
// 422, missing accounts on reads are 404, duplicates are 409; anything else
// is a storage fault and stays a 500.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, core.ErrDuplicateName):
		status = http.StatusConflict
	case errors.Is(err, core.ErrAccountNotFound):
		status = http.StatusNotFound
	case errors.Is(err, core.ErrInvalidKind),
		errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrUnknownAccount),
		errors.Is(err, core.ErrUnknownCategory),
		errors.Is(err, core.ErrMissingDestination),
		errors.Is(err, core.ErrMissingCategory),
		errors.Is(err, core.ErrCategoryKindMismatch),
		errors.Is(err, core.ErrEmptyName),
		errors.Is(err, core.ErrInvalidMonth),
		errors.Is(err, core.ErrInvalidTimestamp):
		status = http.StatusUnprocessableEntity
	}

	var storageErr *storage.StorageError
	if errors.As(err, &storageErr) {
		status = http.StatusInternalServerError
	}

	if status == http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "Request failed",
			log.FieldComponent, log.ComponentHTTP,
			log.FieldError, err,
			log.FieldPath, r.URL.Path)
	}
	respondJSON(w, status, errorResponse{Error: err.Error()})
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}
