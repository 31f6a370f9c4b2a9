package routes

import (
	"airbnb-clone-server/hub"
	"airbnb-clone-server/models"
	"airbnb-clone-server/storage"
	"airbnb-clone-server/utils"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/jwt"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     checkWsOrigin,
}

// checkWsOrigin allows any origin unless ALLOWED_ORIGINS (comma-separated)
// restricts the upgrade. Requests without an Origin header are non-browser
// clients and pass.
func checkWsOrigin(r *http.Request) bool {
	allowed := os.Getenv("ALLOWED_ORIGINS")
	if allowed == "" {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, candidate := range strings.Split(allowed, ",") {
		if strings.TrimSpace(candidate) == origin {
			return true
		}
	}
	return false
}

// ChatHandler serves the realtime channel backed by the injected hub.
type ChatHandler struct {
	relay *hub.Hub
}

func NewChatHandler(relay *hub.Hub) *ChatHandler {
	return &ChatHandler{relay: relay}
}

// ServeWs upgrades the connection and hands it to the relay
func (h *ChatHandler) ServeWs(ctx iris.Context) {
	conn, err := upgrader.Upgrade(ctx.ResponseWriter(), ctx.Request(), nil)
	if err != nil {
		log.Printf("websocket upgrade failed: %v", err)
		return
	}
	h.relay.ServeWs(conn)
}

// GetInbox returns the latest message per conversation partner, newest first
func GetInbox(ctx iris.Context) {
	claims := jwt.Get(ctx).(*utils.AccessToken)

	var messages []models.ChatMessage
	res := storage.DB.
		Preload("Sender").
		Preload("Receiver").
		Where("sender_id = ? OR receiver_id = ?", claims.ID, claims.ID).
		Order("created_at DESC").
		Find(&messages)
	if res.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	// keep only the newest message per counterpart
	seen := make(map[uint]bool)
	conversations := []models.ChatMessage{}
	for _, msg := range messages {
		other := msg.SenderID
		if other == claims.ID {
			other = msg.ReceiverID
		}
		if seen[other] {
			continue
		}
		seen[other] = true
		conversations = append(conversations, msg)
	}

	ctx.JSON(conversations)
}

// GetChatHistory returns the full exchange with one user in chronological
// order, marking their messages and message notifications as read.
func GetChatHistory(ctx iris.Context) {
	claims := jwt.Get(ctx).(*utils.AccessToken)
	otherID, err := ctx.Params().GetUint("userId")
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Bad Request", "Invalid user ID", ctx)
		return
	}

	var messages []models.ChatMessage
	res := storage.DB.
		Preload("Sender").
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)",
			claims.ID, otherID, otherID, claims.ID).
		Order("created_at ASC").
		Find(&messages)
	if res.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	// opening the conversation marks it read
	storage.DB.Model(&models.ChatMessage{}).
		Where("sender_id = ? AND receiver_id = ? AND is_read = ?", otherID, claims.ID, false).
		Update("is_read", true)

	now := time.Now()
	storage.DB.Model(&models.Notification{}).
		Where("user_id = ? AND kind = ? AND related_id = ? AND is_read = ?",
			claims.ID, models.NotificationKindMessage, otherID, false).
		Updates(map[string]interface{}{"is_read": true, "read_at": now})

	ctx.JSON(iris.Map{
		"roomKey":  hub.RoomKey(claims.ID, otherID),
		"messages": messages,
	})
}

// Typing sets a short-lived typing indicator in Redis for 5 seconds
func Typing(ctx iris.Context) {
	claims := jwt.Get(ctx).(*utils.AccessToken)
	otherID, err := ctx.Params().GetUint("userId")
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Bad Request", "Invalid user ID", ctx)
		return
	}

	key := typingKey(hub.RoomKey(claims.ID, otherID), claims.ID)
	storage.Redis.Set(ctx, key, "1", 5*time.Second)
	ctx.JSON(iris.Map{"success": true})
}

// IsTyping reports whether the other participant is currently typing
func IsTyping(ctx iris.Context) {
	claims := jwt.Get(ctx).(*utils.AccessToken)
	otherID, err := ctx.Params().GetUint("userId")
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Bad Request", "Invalid user ID", ctx)
		return
	}

	key := typingKey(hub.RoomKey(claims.ID, otherID), otherID)
	typing := false
	if val, getErr := storage.Redis.Get(ctx, key).Result(); getErr == nil && val == "1" {
		typing = true
	}
	ctx.JSON(iris.Map{"typing": typing})
}

func typingKey(room string, userID uint) string {
	return fmt.Sprintf("typing:room:%s:user:%d", room, userID)
}
