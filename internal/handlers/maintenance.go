package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"atmcore/internal/cash"
)

func (h *Handler) Rollover(w http.ResponseWriter, r *http.Request) {
	reset, err := h.service.RolloverDay(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "rollover failed")
		return
	}
	respondJSON(w, http.StatusOK, map[string]int64{"accounts_reset": reset})
}

func (h *Handler) ReleaseHolds(w http.ResponseWriter, r *http.Request) {
	released, err := h.service.ReleaseHolds(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "hold release failed")
		return
	}
	respondJSON(w, http.StatusOK, map[string]int64{"accounts_released": released})
}

type postFeeRequest struct {
	AccountID   int64  `json:"account_id"`
	Amount      string `json:"amount"`
	Description string `json:"description"`
}

func (h *Handler) PostFee(w http.ResponseWriter, r *http.Request) {
	var req postFeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	amount, err := parseAmountMinor(req.Amount)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_amount")
		return
	}
	description := req.Description
	if description == "" {
		description = "Service fee"
	}
	reference, err := h.service.PostFee(r.Context(), req.AccountID, amount, description)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{"reference": reference})
}

type accrueInterestRequest struct {
	AccountID int64 `json:"account_id"`
	RateBps   int64 `json:"rate_bps"`
}

func (h *Handler) AccrueInterest(w http.ResponseWriter, r *http.Request) {
	var req accrueInterestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	reference, err := h.service.AccrueInterest(r.Context(), req.AccountID, req.RateBps)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{"reference": reference})
}

type restockRequest struct {
	Denomination int64 `json:"denomination"`
	Count        int   `json:"count"`
}

func (h *Handler) RestockCassette(w http.ResponseWriter, r *http.Request) {
	var req restockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.Count <= 0 {
		respondError(w, http.StatusBadRequest, "count must be positive")
		return
	}
	if err := h.inventory.Restock(req.Denomination, req.Count); err != nil {
		if errors.Is(err, cash.ErrOverCapacity) || errors.Is(err, cash.ErrNoCassette) {
			respondError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, "restock failed")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"cassettes": h.inventory.Counts()})
}

func (h *Handler) ListCassettes(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"cassettes": h.inventory.Counts()})
}

func (h *Handler) ListAuditEvents(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	if offset < 0 {
		offset = 0
	}
	events, err := h.audit.List(r.Context(), limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load audit events")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"events": events})
}
