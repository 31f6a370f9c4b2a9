package hub

import (
	"airbnb-clone-server/models"
	"airbnb-clone-server/services"
	"encoding/json"
	"fmt"
	"log"

	"github.com/gorilla/websocket"
	"gorm.io/gorm"
)

// Event is the wire format for the realtime channel. Clients send join_room
// and send_message; the server emits receive_message to room members.
type Event struct {
	Type       string `json:"type"`
	SenderID   uint   `json:"senderId"`
	ReceiverID uint   `json:"receiverId"`
	Message    string `json:"message,omitempty"`
}

// clientEvent bundles a client with their incoming event.
type clientEvent struct {
	client *Client
	event  Event
}

// RoomKey returns the deterministic channel id for a pair of users: the two
// numeric ids in ascending order joined with an underscore. Both
// participants converge on the same room regardless of who joins first, and
// a uint can never contain the separator.
func RoomKey(a, b uint) string {
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("%d_%d", a, b)
}

// Hub relays direct chat messages. A single goroutine owns room membership;
// each connection gets its own read and write pumps. For every message the
// pipeline is: persist, notify, broadcast, then best-effort email.
type Hub struct {
	clients    map[*Client]bool
	rooms      map[string]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	events     chan *clientEvent

	db       *gorm.DB
	notifier *services.NotificationService
}

func NewHub(db *gorm.DB, notifier *services.NotificationService) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		rooms:      make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		events:     make(chan *clientEvent),
		db:         db,
		notifier:   notifier,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			// room membership happens later, via join_room
			h.clients[client] = true
		case client := <-h.unregister:
			h.dropClient(client)
		case ce := <-h.events:
			h.handleEvent(ce)
		}
	}
}

// ServeWs registers a websocket connection with the hub and starts its pumps.
func (h *Hub) ServeWs(conn *websocket.Conn) {
	client := &Client{hub: h, conn: conn, send: make(chan []byte, 256)}
	h.register <- client
	go client.writePump()
	go client.readPump()
}

func (h *Hub) handleEvent(ce *clientEvent) {
	switch ce.event.Type {
	case "join_room":
		h.joinRoom(ce.client, ce.event)
	case "send_message":
		h.sendMessage(ce.client, ce.event)
	default:
		log.Printf("unknown event type: %s", ce.event.Type)
	}
}

func (h *Hub) joinRoom(client *Client, ev Event) {
	room := RoomKey(ev.SenderID, ev.ReceiverID)
	if h.rooms[room] == nil {
		h.rooms[room] = make(map[*Client]bool)
	}
	h.rooms[room][client] = true
	client.room = room
}

func (h *Hub) sendMessage(client *Client, ev Event) {
	room := RoomKey(ev.SenderID, ev.ReceiverID)

	// 1. persist the message
	msg := models.ChatMessage{
		SenderID:   ev.SenderID,
		ReceiverID: ev.ReceiverID,
		Body:       ev.Message,
	}
	if err := h.db.Create(&msg).Error; err != nil {
		log.Printf("failed to persist chat message in room %s: %v", room, err)
		return
	}

	// 2. persist an in-app notification for the receiver
	if err := h.notifier.NotifyMessage(ev.ReceiverID, ev.Message, msg.SenderID); err != nil {
		log.Printf("failed to create message notification for user %d: %v", ev.ReceiverID, err)
	}

	// 3. broadcast to everyone currently joined to the room
	out := ev
	out.Type = "receive_message"
	payload, err := json.Marshal(out)
	if err != nil {
		log.Printf("failed to encode receive_message: %v", err)
		return
	}
	for member := range h.rooms[room] {
		select {
		case member.send <- payload:
		default:
			// slow consumer, drop it
			h.dropClient(member)
		}
	}

	// 4. best-effort email, never surfaced to the sender
	go h.notifier.EmailUser(ev.ReceiverID, "You have a new message",
		fmt.Sprintf("New message: %s", ev.Message))
}

// dropClient removes a client from the hub and its room and closes its send
// channel.
// Only ever called from the hub goroutine, so the closed flag needs no lock.
func (h *Hub) dropClient(client *Client) {
	if client.closed {
		return
	}
	client.closed = true
	delete(h.clients, client)

	if client.room != "" {
		if members, ok := h.rooms[client.room]; ok {
			delete(members, client)
			if len(members) == 0 {
				delete(h.rooms, client.room)
			}
		}
		client.room = ""
	}
	close(client.send)
}
