package handlers

import (
	"net/http"

	ws "atmcore/internal/websocket"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// WSBalances streams balance updates for the session's account. The token
// rides the query string because browser websocket clients cannot set headers.
func (h *Handler) WSBalances(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		respondError(w, http.StatusUnauthorized, "missing token")
		return
	}
	sess, valid, err := h.auth.ValidateSession(r.Context(), token)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "session lookup failed")
		return
	}
	if !valid {
		respondError(w, http.StatusUnauthorized, "session expired")
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	client := ws.NewClient(conn)
	go client.Run(h.hub, sess.AccountID)
}
