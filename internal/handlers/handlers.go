package handlers

import (
	"encoding/json"
	"net/http"

	"atmcore/internal/config"
	"atmcore/internal/websocket"
)

type Handler struct {
	cfg       config.Config
	auth      AuthService
	service   TransactionService
	accounts  AccountReader
	inventory Inventory
	audit     AuditReader
	hub       *websocket.Hub
}

func New(cfg config.Config, auth AuthService, service TransactionService, accounts AccountReader, inventory Inventory, audit AuditReader, hub *websocket.Hub) *Handler {
	return &Handler{
		cfg:       cfg,
		auth:      auth,
		service:   service,
		accounts:  accounts,
		inventory: inventory,
		audit:     audit,
		hub:       hub,
	}
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
