package hub

import (
	"encoding/json"
	"testing"

	"airbnb-clone-server/models"
	"airbnb-clone-server/services"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestRoomKeySymmetric(t *testing.T) {
	if RoomKey(2, 7) != RoomKey(7, 2) {
		t.Errorf("RoomKey(2,7) = %q, RoomKey(7,2) = %q", RoomKey(2, 7), RoomKey(7, 2))
	}
	if got := RoomKey(7, 2); got != "2_7" {
		t.Errorf("RoomKey(7,2) = %q, want \"2_7\"", got)
	}
	if got := RoomKey(5, 5); got != "5_5" {
		t.Errorf("RoomKey(5,5) = %q, want \"5_5\"", got)
	}
}

func TestRoomKeyNoCollision(t *testing.T) {
	// concatenation without a separator would collide here
	if RoomKey(1, 23) == RoomKey(12, 3) {
		t.Errorf("RoomKey(1,23) and RoomKey(12,3) collide: %q", RoomKey(1, 23))
	}
}

func newTestHub(t *testing.T) (*Hub, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.ChatMessage{}, &models.Notification{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	db.Create(&models.User{FirstName: "Asha", Email: "a@example.com", Password: "x"})
	db.Create(&models.User{FirstName: "Ben", Email: "b@example.com", Password: "x"})

	return NewHub(db, services.NewNotificationService(db, services.NewMailerFromEnv())), db
}

func TestSendMessagePipeline(t *testing.T) {
	h, db := newTestHub(t)

	sender := &Client{hub: h, send: make(chan []byte, 1)}
	receiver := &Client{hub: h, send: make(chan []byte, 1)}

	h.handleEvent(&clientEvent{client: sender, event: Event{Type: "join_room", SenderID: 1, ReceiverID: 2}})
	h.handleEvent(&clientEvent{client: receiver, event: Event{Type: "join_room", SenderID: 2, ReceiverID: 1}})
	h.handleEvent(&clientEvent{client: sender, event: Event{Type: "send_message", SenderID: 1, ReceiverID: 2, Message: "hello"}})

	// the message row was persisted
	var msg models.ChatMessage
	if err := db.First(&msg).Error; err != nil {
		t.Fatalf("chat message not persisted: %v", err)
	}
	if msg.SenderID != 1 || msg.ReceiverID != 2 || msg.Body != "hello" {
		t.Errorf("stored message = (%d, %d, %q)", msg.SenderID, msg.ReceiverID, msg.Body)
	}

	// the receiver got a notification row
	var count int64
	db.Model(&models.Notification{}).
		Where("user_id = ? AND kind = ?", 2, models.NotificationKindMessage).
		Count(&count)
	if count != 1 {
		t.Errorf("receiver notifications = %d, want 1", count)
	}

	// both room members received the broadcast
	for name, c := range map[string]*Client{"sender": sender, "receiver": receiver} {
		select {
		case payload := <-c.send:
			var ev Event
			if err := json.Unmarshal(payload, &ev); err != nil {
				t.Fatalf("%s payload: %v", name, err)
			}
			if ev.Type != "receive_message" || ev.Message != "hello" {
				t.Errorf("%s got event %+v", name, ev)
			}
		default:
			t.Errorf("%s received no broadcast", name)
		}
	}
}

func TestClientTrackedBeforeJoiningRoom(t *testing.T) {
	h, _ := newTestHub(t)

	c := &Client{hub: h, send: make(chan []byte, 1)}
	h.clients[c] = true // what the Run loop does on register

	// the connection dies before it ever joined a room
	h.dropClient(c)
	if h.clients[c] {
		t.Error("dropped client still tracked")
	}
	if _, open := <-c.send; open {
		t.Error("send channel not closed")
	}
}

func TestSlowConsumerDropped(t *testing.T) {
	h, _ := newTestHub(t)

	full := &Client{hub: h, send: make(chan []byte)} // unbuffered, never drained
	h.handleEvent(&clientEvent{client: full, event: Event{Type: "join_room", SenderID: 1, ReceiverID: 2}})
	h.handleEvent(&clientEvent{client: full, event: Event{Type: "send_message", SenderID: 1, ReceiverID: 2, Message: "hi"}})

	if !full.closed {
		t.Error("slow consumer not dropped")
	}
	if len(h.rooms[RoomKey(1, 2)]) != 0 {
		t.Error("dropped client still in room")
	}
}
