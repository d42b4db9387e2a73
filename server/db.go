package server

import (
	"database/sql"
	"log"

	"github.com/cipherdesk/cipherdesk/shared"
	_ "modernc.org/sqlite"
)

// InitDB opens the relay's message log database.
func InitDB(filepath string) *sql.DB {
	db, err := sql.Open("sqlite", filepath)
	if err != nil {
		log.Fatal(err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		log.Fatal("failed to enable WAL:", err)
	}
	return db
}

// CreateSchema creates the message log schema. Encrypted message bodies are
// stored opaquely: the relay never holds a key and treats the iv|cipherText
// envelope as an arbitrary string.
func CreateSchema(db *sql.DB) {
	schema := `
	CREATE TABLE IF NOT EXISTS messages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		sender TEXT,
		content TEXT,
		created_at DATETIME,
		type TEXT DEFAULT 'text',
		encrypted BOOLEAN DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_messages_created_at ON messages(created_at);
	`
	if _, err := db.Exec(schema); err != nil {
		log.Fatal("failed to create schema:", err)
	}
}

// InsertMessage appends a message, keeping only the most recent 1000.
func InsertMessage(db *sql.DB, msg shared.Message) {
	_, err := db.Exec(`INSERT INTO messages (sender, content, created_at, type, encrypted) VALUES (?, ?, ?, ?, ?)`,
		msg.Sender, msg.Content, msg.CreatedAt, string(msg.Type), msg.Encrypted)
	if err != nil {
		DBLogger.Error("Insert error", err)
		return
	}
	_, err = db.Exec(`DELETE FROM messages WHERE id NOT IN (SELECT id FROM messages ORDER BY id DESC LIMIT 1000)`)
	if err != nil {
		DBLogger.Error("Error enforcing message cap", err)
	}
}

// GetRecentMessages returns up to the 50 most recent messages in
// chronological order.
func GetRecentMessages(db *sql.DB) []shared.Message {
	rows, err := db.Query(`SELECT sender, content, created_at, type, encrypted FROM messages ORDER BY id DESC LIMIT 50`)
	if err != nil {
		DBLogger.Error("Query error", err)
		return nil
	}
	defer rows.Close()

	var msgs []shared.Message
	for rows.Next() {
		var msg shared.Message
		var msgType string
		if err := rows.Scan(&msg.Sender, &msg.Content, &msg.CreatedAt, &msgType, &msg.Encrypted); err != nil {
			DBLogger.Error("Scan error", err)
			continue
		}
		msg.Type = shared.MessageType(msgType)
		msgs = append(msgs, msg)
	}

	// Reverse into chronological order.
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs
}

// ClearMessages wipes the message log.
func ClearMessages(db *sql.DB) error {
	_, err := db.Exec(`DELETE FROM messages`)
	return err
}
