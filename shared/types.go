package shared

import "time"

// MessageType distinguishes chat payloads from control traffic on the relay
type MessageType string

const (
	TextMessage   MessageType = "text"
	SystemMessage MessageType = "system"
)

// ProtocolVersion tags the relay wire protocol. Bumped only on breaking
// changes to the message shapes below.
const ProtocolVersion = "1"

type Message struct {
	Sender    string      `json:"sender"`
	Content   string      `json:"content"`
	CreatedAt time.Time   `json:"created_at"`
	Type      MessageType `json:"type,omitempty"`
	Encrypted bool        `json:"encrypted,omitempty"` // Content is an iv|cipherText envelope
}

// Handshake is sent by the client on WebSocket connect.
// Username is always sent (case-insensitive match on server).
type Handshake struct {
	Username      string `json:"username"`
	WalletAddress string `json:"wallet_address,omitempty"`
}

// UserList is broadcast by the relay whenever membership changes.
type UserList struct {
	Users []string `json:"users"`
}
