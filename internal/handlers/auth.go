package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"atmcore/internal/middleware"
	"atmcore/internal/money"
	"atmcore/internal/services"
)

type loginRequest struct {
	CardNumber string `json:"card_number"`
	Pin        string `json:"pin"`
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	result, err := h.auth.Authenticate(r.Context(), req.CardNumber, req.Pin)
	if err != nil {
		if errors.Is(err, services.ErrAccountLocked) {
			respondError(w, http.StatusForbidden, err.Error())
			return
		}
		if errors.Is(err, services.ErrAuthenticationFailed) {
			respondError(w, http.StatusUnauthorized, err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, "login failed")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"token":          result.Token,
		"account_number": result.MaskedAccountNumber,
		"display_name":   result.OwnerName,
	})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	token, ok := middleware.BearerToken(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "missing authorization header")
		return
	}
	ended, err := h.auth.Logout(r.Context(), token)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "logout failed")
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"ended": ended})
}

type changePinRequest struct {
	CurrentPin string `json:"current_pin"`
	NewPin     string `json:"new_pin"`
	ConfirmPin string `json:"confirm_pin"`
}

func (h *Handler) ChangePin(w http.ResponseWriter, r *http.Request) {
	token, ok := middleware.BearerToken(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "missing authorization header")
		return
	}
	var req changePinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := h.auth.ChangePin(r.Context(), token, req.CurrentPin, req.NewPin, req.ConfirmPin); err != nil {
		if errors.Is(err, services.ErrSessionExpired) {
			respondError(w, http.StatusUnauthorized, err.Error())
			return
		}
		if errors.Is(err, services.ErrPinChangeRejected) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, "PIN change failed")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "changed"})
}

// Session reports the caller's live session; the middleware already slid the
// expiry window as part of validation.
func (h *Handler) Session(w http.ResponseWriter, r *http.Request) {
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
		"account_number": money.MaskAccountNumber(account.AccountNumber),
		"display_name":   sess.OwnerName,
		"last_activity":  sess.LastActivity,
	})
}
