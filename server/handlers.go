package server

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/cipherdesk/cipherdesk/desk"
	"github.com/cipherdesk/cipherdesk/shared"
	"github.com/cipherdesk/cipherdesk/wallet"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// NewRouter wires the relay's HTTP surface: wallet verification, the
// pop-out entry point, the message history endpoint, and the websocket
// upgrade.
func NewRouter(hub *Hub, db *sql.DB) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/wallet/verify", handleWalletVerify)
	mux.HandleFunc("/popout", handlePopOut)
	mux.HandleFunc("/messages", func(w http.ResponseWriter, r *http.Request) {
		handleMessages(w, r, db)
	})
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		serveWS(hub, db, w, r)
	})
	return mux
}

// handleWalletVerify checks a wallet-ownership proof: the public key must
// hash to the claimed address and the signature must verify over a fresh,
// well-formed challenge. The relay stores nothing; verification is
// stateless.
func handleWalletVerify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req wallet.VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := wallet.VerifyOwnership(req, time.Now()); err != nil {
		WalletLogger.Warn("Wallet verification rejected", map[string]interface{}{
			"address": req.Address,
			"reason":  err.Error(),
		})
		http.Error(w, "verification failed", http.StatusUnauthorized)
		return
	}

	WalletLogger.Info("Wallet verified", map[string]interface{}{"address": req.Address})
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]bool{"verified": true})
}

// handlePopOut is the external-window entry point: it reconstructs a page
// purely from the serialized state blob in the query string. A malformed
// or unknown payload renders a placeholder, never an error page.
func handlePopOut(w http.ResponseWriter, r *http.Request) {
	state := desk.DecodePopOutState(r.URL.Query().Get(desk.PopOutQueryParam))

	title := state.Title
	if title == "" {
		title = "cipherdesk"
	}

	var body string
	switch state.Type {
	case desk.ContentChat:
		body = fmt.Sprintf("<main data-type=%q data-conversation=%q></main>",
			state.Type, state.Props["conversation"])
	case desk.ContentNote, desk.ContentCode, desk.ContentPerfMonitor:
		body = fmt.Sprintf("<main data-type=%q></main>", state.Type)
	default:
		body = `<main data-type="unknown"><p>This content cannot be displayed.</p></main>`
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, "<!doctype html><html><head><title>%s</title></head><body>%s</body></html>",
		html.EscapeString(title), body)
}

func handleMessages(w http.ResponseWriter, r *http.Request, db *sql.DB) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	messages := GetRecentMessages(db)
	if messages == nil {
		messages = []shared.Message{}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(messages)
}

func serveWS(hub *Hub, db *sql.DB, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		ServerLogger.Error("WebSocket upgrade failed", err)
		return
	}

	var hs shared.Handshake
	if err := conn.ReadJSON(&hs); err != nil || hs.Username == "" {
		ServerLogger.Warn("Rejected connection without handshake")
		_ = conn.Close()
		return
	}

	client := &Client{
		hub:      hub,
		conn:     conn,
		send:     make(chan interface{}, 256),
		db:       db,
		username: hs.Username,
	}
	hub.register <- client

	// Replay recent history before live traffic starts flowing.
	for _, msg := range GetRecentMessages(db) {
		client.send <- msg
	}

	go client.writePump()
	go client.readPump()
}
