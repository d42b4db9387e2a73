package server

import (
	"sort"

	"github.com/cipherdesk/cipherdesk/shared"
)

type Hub struct {
	clients    map[*Client]bool
	broadcast  chan interface{}
	register   chan *Client
	unregister chan *Client
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan interface{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			HubLogger.Info("Client registered", map[string]interface{}{"username": client.username})
			h.broadcastUserList()
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				HubLogger.Info("Client unregistered", map[string]interface{}{"username": client.username})
			}
			h.broadcastUserList()
		case message := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					HubLogger.Warn("Dropping client due to full send channel", map[string]interface{}{"username": client.username})
					close(client.send)
					delete(h.clients, client)
				}
			}
		}
	}
}

func (h *Hub) broadcastUserList() {
	users := make([]string, 0, len(h.clients))
	for client := range h.clients {
		users = append(users, client.username)
	}
	sort.Strings(users)

	list := shared.UserList{Users: users}
	for client := range h.clients {
		select {
		case client.send <- list:
		default:
		}
	}
}
