package handlers

import (
	"net/http"

	"atmcore/internal/middleware"
	"atmcore/internal/money"
)

func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	account, err := h.accounts.GetByID(r.Context(), sess.AccountID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load account")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"account_number":        money.MaskAccountNumber(account.AccountNumber),
		"type":                  account.Type,
		"balance":               money.FormatMinor(account.Balance),
		"available":             money.FormatMinor(account.Available),
		"daily_withdrawal_used": money.FormatMinor(account.DailyWithdrawalUsed),
		"daily_transfer_used":   money.FormatMinor(account.DailyTransferUsed),
	})
}
