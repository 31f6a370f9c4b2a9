package routes

import (
	"airbnb-clone-server/models"
	"airbnb-clone-server/storage"
	"airbnb-clone-server/utils"
	"time"

	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/jwt"
)

// ListNotifications returns the requester's notifications, newest first
func ListNotifications(ctx iris.Context) {
	claims := jwt.Get(ctx).(*utils.AccessToken)

	var notifications []models.Notification
	res := storage.DB.
		Where("user_id = ?", claims.ID).
		Order("created_at DESC").
		Limit(100).
		Find(&notifications)
	if res.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(notifications)
}

// GetUnreadCount returns how many notifications are unread
func GetUnreadCount(ctx iris.Context) {
	claims := jwt.Get(ctx).(*utils.AccessToken)

	var count int64
	res := storage.DB.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", claims.ID, false).
		Count(&count)
	if res.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{"unread": count})
}

// MarkNotificationRead flips the read flag on one notification
func MarkNotificationRead(ctx iris.Context) {
	claims := jwt.Get(ctx).(*utils.AccessToken)
	id, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Bad Request", "Invalid notification ID", ctx)
		return
	}

	now := time.Now()
	res := storage.DB.Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", id, claims.ID).
		Updates(map[string]interface{}{"is_read": true, "read_at": now})
	if res.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	if res.RowsAffected == 0 {
		utils.CreateNotFound(ctx)
		return
	}

	ctx.JSON(iris.Map{"success": true})
}

// MarkAllNotificationsRead flips the read flag on everything unread
func MarkAllNotificationsRead(ctx iris.Context) {
	claims := jwt.Get(ctx).(*utils.AccessToken)

	now := time.Now()
	res := storage.DB.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", claims.ID, false).
		Updates(map[string]interface{}{"is_read": true, "read_at": now})
	if res.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{"success": true, "updated": res.RowsAffected})
}
