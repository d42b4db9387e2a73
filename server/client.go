package server

import (
	"database/sql"
	"log"
	"time"

	"github.com/gorilla/websocket"

	"github.com/cipherdesk/cipherdesk/shared"
)

type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	send     chan interface{}
	db       *sql.DB
	username string
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	for {
		var msg shared.Message
		err := c.conn.ReadJSON(&msg)
		if err != nil {
			log.Println("readPump error:", err)
			break
		}
		msg.Sender = c.username
		msg.CreatedAt = time.Now()
		InsertMessage(c.db, msg)
		c.hub.broadcast <- msg
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()
	for msg := range c.send {
		switch v := msg.(type) {
		case shared.Message:
			if err := c.conn.WriteJSON(v); err != nil {
				log.Println("writePump error:", err)
				return
			}
		case shared.UserList:
			if err := c.conn.WriteJSON(v); err != nil {
				log.Println("writePump error:", err)
				return
			}
		default:
			log.Println("writePump: unknown message type")
		}
	}
}
