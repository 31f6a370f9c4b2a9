package routes

import (
	"airbnb-clone-server/models"
	"airbnb-clone-server/storage"
	"airbnb-clone-server/utils"

	"github.com/kataras/iris/v12"
)

// AdminDashboard returns marketplace stats and the most recent rows
func AdminDashboard(ctx iris.Context) {
	var totalUsers, totalListings, totalBookings int64
	storage.DB.Model(&models.User{}).Count(&totalUsers)
	storage.DB.Model(&models.Listing{}).Count(&totalListings)
	storage.DB.Model(&models.Booking{}).Count(&totalBookings)

	// revenue is the sum over booked records only
	var totalRevenue float64
	storage.DB.Model(&models.Booking{}).
		Where("status = ?", models.BookingStatusBooked).
		Select("COALESCE(SUM(total_price), 0)").
		Scan(&totalRevenue)

	var recentUsers []models.User
	storage.DB.Order("id DESC").Limit(5).Find(&recentUsers)

	var recentListings []models.Listing
	storage.DB.Preload("Host").Order("id DESC").Limit(5).Find(&recentListings)

	ctx.JSON(iris.Map{
		"totalUsers":     totalUsers,
		"totalListings":  totalListings,
		"totalBookings":  totalBookings,
		"totalRevenue":   totalRevenue,
		"recentUsers":    recentUsers,
		"recentListings": recentListings,
	})
}

func AdminListUsers(ctx iris.Context) {
	page := ctx.URLParamIntDefault("page", 1)
	perPage := ctx.URLParamIntDefault("per_page", 20)
	if perPage > 100 {
		perPage = 100
	}

	var total int64
	storage.DB.Model(&models.User{}).Count(&total)

	var users []models.User
	res := storage.DB.Order("id DESC").
		Offset((page - 1) * perPage).Limit(perPage).
		Find(&users)
	if res.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	utils.JSONPage(ctx, users, page, perPage, total)
}

func AdminListListings(ctx iris.Context) {
	page := ctx.URLParamIntDefault("page", 1)
	perPage := ctx.URLParamIntDefault("per_page", 20)
	if perPage > 100 {
		perPage = 100
	}

	query := storage.DB.Model(&models.Listing{})
	if country := ctx.URLParam("country"); country != "" {
		query = query.Where("country ILIKE ?", country)
	}

	var total int64
	query.Count(&total)

	var listings []models.Listing
	res := query.Preload("Host").
		Order("id DESC").
		Offset((page - 1) * perPage).Limit(perPage).
		Find(&listings)
	if res.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	utils.JSONPage(ctx, listings, page, perPage, total)
}

func AdminListBookings(ctx iris.Context) {
	page := ctx.URLParamIntDefault("page", 1)
	perPage := ctx.URLParamIntDefault("per_page", 20)
	if perPage > 100 {
		perPage = 100
	}

	query := storage.DB.Model(&models.Booking{})
	if status := ctx.URLParam("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	query.Count(&total)

	var bookings []models.Booking
	res := query.Preload("Listing").Preload("Author").
		Order("created_at DESC").
		Offset((page - 1) * perPage).Limit(perPage).
		Find(&bookings)
	if res.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	utils.JSONPage(ctx, bookings, page, perPage, total)
}

type ChangeUserRoleInput struct {
	Role string `json:"role" validate:"required,oneof=user admin"`
}

// AdminChangeUserRole grants or revokes the admin role
func AdminChangeUserRole(ctx iris.Context) {
	id, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Bad Request", "Invalid user ID", ctx)
		return
	}

	var input ChangeUserRoleInput
	if readErr := ctx.ReadJSON(&input); readErr != nil {
		utils.HandleValidationErrors(readErr, ctx)
		return
	}

	var user models.User
	if dbErr := storage.DB.First(&user, id).Error; dbErr != nil {
		utils.CreateNotFound(ctx)
		return
	}

	user.Role = input.Role
	if dbErr := storage.DB.Save(&user).Error; dbErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(user)
}

// AdminDeleteUser removes a user account
func AdminDeleteUser(ctx iris.Context) {
	id, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Bad Request", "Invalid user ID", ctx)
		return
	}

	res := storage.DB.Delete(&models.User{}, id)
	if res.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	if res.RowsAffected == 0 {
		utils.CreateNotFound(ctx)
		return
	}

	ctx.StatusCode(iris.StatusNoContent)
}

// AdminDeleteListing removes a listing (admin override)
func AdminDeleteListing(ctx iris.Context) {
	id, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Bad Request", "Invalid listing ID", ctx)
		return
	}

	res := storage.DB.Delete(&models.Listing{}, id)
	if res.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	if res.RowsAffected == 0 {
		utils.CreateNotFound(ctx)
		return
	}

	ctx.StatusCode(iris.StatusNoContent)
}
