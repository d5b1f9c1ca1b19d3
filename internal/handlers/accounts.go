package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"homeledger/internal/middleware"
	"homeledger/internal/money"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var payload accountPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	account, err := payload.toModel()
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	created, err := h.accounts.CreateAccount(r.Context(), userID, account)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, accountResponse(created))
}

func (h *Handler) GetAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	account, err := h.accounts.GetAccount(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, accountResponse(account))
}

func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	limit, offset := pageParams(r, 100)
	accounts, err := h.accounts.ListAccounts(r.Context(), userID, limit, offset)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	response := make([]map[string]any, 0, len(accounts))
	for _, account := range accounts {
		response = append(response, accountResponse(account))
	}
	respondJSON(w, http.StatusOK, response)
}

func (h *Handler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var payload accountPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	account, err := payload.toModel()
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	account.ID = chi.URLParam(r, "id")
	updated, err := h.accounts.UpdateAccount(r.Context(), userID, account)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, accountResponse(updated))
}

func (h *Handler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if err := h.accounts.DeleteAccount(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// SelfCheck recomputes every account balance from transaction history
// and reports the differences. All zeros means the ledger is healthy.
func (h *Handler) SelfCheck(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	rows, err := h.accounts.SelfCheck(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to self-check")
		return
	}
	response := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		response = append(response, map[string]any{
			"account_id":         row.ID,
			"name":               row.Name,
			"currency_id":        row.CurrencyID,
			"stored_balance":     money.FormatMinor(row.StoredBalance),
			"calculated_balance": money.FormatMinor(row.CalculatedBalance),
			"difference":         money.FormatMinor(row.Difference),
		})
	}
	respondJSON(w, http.StatusOK, response)
}

// TotalBalance reports the sum of the user's active accounts in the
// reporting currency.
func (h *Handler) TotalBalance(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	total, err := h.balances.TotalBalance(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, "total balance unavailable")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"total":    money.FormatMinor(total),
		"currency": h.cfg.ReportingCurrency,
	})
}

func pageParams(r *http.Request, defaultLimit int) (int, int) {
	limit := defaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 500 {
			limit = parsed
		}
	}
	offset := 0
	if raw := r.URL.Query().Get("offset"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed >= 0 {
			offset = parsed
		}
	}
	return limit, offset
}
