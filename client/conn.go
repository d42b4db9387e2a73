package client

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/cipherdesk/cipherdesk/shared"
)

// Conn is the client's relay connection. Reads are surfaced as bubbletea
// messages via Receive; writes are serialized by an internal mutex so the
// Update loop and background commands can both send.
type Conn struct {
	ws *websocket.Conn
	mu sync.Mutex
}

type serverMsg shared.Message

type userListMsg shared.UserList

type connErrMsg struct{ err error }

// Dial connects to the relay and performs the handshake. serverURL is the
// HTTP base URL; the websocket scheme is derived from it.
func Dial(serverURL, username, walletAddress string) (*Conn, error) {
	wsURL := strings.Replace(serverURL, "http", "ws", 1) + "/ws"
	ws, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", wsURL, err)
	}

	hs := shared.Handshake{Username: username, WalletAddress: walletAddress}
	if err := ws.WriteJSON(hs); err != nil {
		ws.Close()
		return nil, fmt.Errorf("handshake: %w", err)
	}
	return &Conn{ws: ws}, nil
}

// Send writes a message to the relay.
func (c *Conn) Send(msg shared.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ws.WriteJSON(msg)
}

// Receive blocks on the next relay frame and returns it as a bubbletea
// message. Frames are either chat messages or user-list broadcasts; the
// two are distinguished by shape.
func (c *Conn) Receive() interface{} {
	_, raw, err := c.ws.ReadMessage()
	if err != nil {
		return connErrMsg{err}
	}

	var list shared.UserList
	if err := json.Unmarshal(raw, &list); err == nil && list.Users != nil {
		return userListMsg(list)
	}

	var msg shared.Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		return connErrMsg{fmt.Errorf("malformed frame: %w", err)}
	}
	return serverMsg(msg)
}

func (c *Conn) Close() error {
	return c.ws.Close()
}
