package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"atmcore/internal/middleware"
	"atmcore/internal/money"
	"atmcore/internal/services"
)

type withdrawRequest struct {
	Amount string `json:"amount"`
}

func (h *Handler) Withdraw(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req withdrawRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	amount, err := parseAmountMinor(req.Amount)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_amount")
		return
	}
	receipt, err := h.service.Withdraw(r.Context(), sess.AccountID, amount)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{
		"reference": receipt.Reference,
		"amount":    money.FormatMinor(receipt.Amount),
		"balance":   money.FormatMinor(receipt.Balance),
		"available": money.FormatMinor(receipt.Available),
		"bills":     receipt.Breakdown,
	})
}

type depositRequest struct {
	Amount      string `json:"amount"`
	Kind        string `json:"kind"`
	CheckNumber string `json:"check_number"`
}

func (h *Handler) Deposit(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req depositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	amount, err := parseAmountMinor(req.Amount)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_amount")
		return
	}
	receipt, err := h.service.Deposit(r.Context(), sess.AccountID, amount, req.Kind, req.CheckNumber)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	payload := map[string]any{
		"reference":             receipt.Reference,
		"amount":                money.FormatMinor(receipt.Amount),
		"balance":               money.FormatMinor(receipt.Balance),
		"available":             money.FormatMinor(receipt.Available),
		"available_immediately": money.FormatMinor(receipt.AvailableImmediately),
		"held":                  money.FormatMinor(receipt.Held),
	}
	if receipt.HoldUntil != nil {
		payload["hold_until"] = receipt.HoldUntil
	}
	respondJSON(w, http.StatusCreated, payload)
}

type transferRequest struct {
	DestinationAccountNumber string `json:"destination_account_number"`
	Amount                   string `json:"amount"`
}

func (h *Handler) Transfer(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req transferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	amount, err := parseAmountMinor(req.Amount)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_amount")
		return
	}
	receipt, err := h.service.Transfer(r.Context(), sess.AccountID, req.DestinationAccountNumber, amount)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{
		"reference":   receipt.Reference,
		"amount":      money.FormatMinor(receipt.Amount),
		"balance":     money.FormatMinor(receipt.Balance),
		"available":   money.FormatMinor(receipt.Available),
		"destination": receipt.DestinationMasked,
	})
}

func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	transactions, err := h.service.History(r.Context(), sess.AccountID, limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load transactions")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"transactions": transactions})
}

func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidAmount),
		errors.Is(err, services.ErrInvalidRequest):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrInsufficientFunds),
		errors.Is(err, services.ErrDailyLimitExceeded),
		errors.Is(err, services.ErrInsufficientInventory):
		respondError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, services.ErrAccountUnavailable),
		errors.Is(err, services.ErrDestinationUnavailable):
		respondError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, services.ErrDestinationNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, "operation failed")
	}
}
