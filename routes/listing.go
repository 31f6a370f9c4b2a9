package routes

import (
	"airbnb-clone-server/models"
	"airbnb-clone-server/storage"
	"airbnb-clone-server/utils"
	"encoding/json"

	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/jwt"
)

type CreateListingInput struct {
	Title        string   `json:"title" validate:"required,max=256"`
	Description  string   `json:"description" validate:"required"`
	Location     string   `json:"location" validate:"required,max=256"`
	Country      string   `json:"country" validate:"required,max=128"`
	Lat          float64  `json:"lat"`
	Lng          float64  `json:"lng"`
	NightlyPrice float64  `json:"nightlyPrice" validate:"required,min=0"`
	Capacity     int      `json:"capacity" validate:"min=1"`
	Images       []string `json:"images"`
}

type UpdateListingInput struct {
	Title        *string  `json:"title" validate:"omitempty,max=256"`
	Description  *string  `json:"description"`
	Location     *string  `json:"location" validate:"omitempty,max=256"`
	Country      *string  `json:"country" validate:"omitempty,max=128"`
	NightlyPrice *float64 `json:"nightlyPrice" validate:"omitempty,min=0"`
	Capacity     *int     `json:"capacity" validate:"omitempty,min=1"`
	Images       []string `json:"images"`
}

func CreateListing(ctx iris.Context) {
	claims := jwt.Get(ctx).(*utils.AccessToken)

	var input CreateListingInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	images, marshalErr := json.Marshal(input.Images)
	if marshalErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	listing := models.Listing{
		HostID:       claims.ID,
		Title:        input.Title,
		Description:  input.Description,
		Location:     input.Location,
		Country:      input.Country,
		Lat:          input.Lat,
		Lng:          input.Lng,
		NightlyPrice: input.NightlyPrice,
		Capacity:     input.Capacity,
		Images:       images,
	}

	if err := storage.DB.Create(&listing).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(listing)
}

// GetListings lists all listings, optionally filtered by country
func GetListings(ctx iris.Context) {
	country := ctx.URLParam("country")

	query := storage.DB.Order("created_at DESC")
	if country != "" {
		query = query.Where("country ILIKE ?", country)
	}

	var listings []models.Listing
	if err := query.Find(&listings).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(listings)
}

// GetListing returns one listing with host, reviews and its booking calendar
func GetListing(ctx iris.Context) {
	params := ctx.Params()
	id := params.Get("id")

	var listing models.Listing
	listingExists := storage.DB.
		Preload("Host").
		Preload("Reviews").
		Preload("Reviews.User").
		Preload("Bookings", "status <> ?", models.BookingStatusCancelled).
		Where("id = ?", id).Limit(1).Find(&listing)

	if listingExists.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	if listingExists.RowsAffected == 0 {
		utils.CreateNotFound(ctx)
		return
	}

	ctx.JSON(listing)
}

func GetListingsByHostID(ctx iris.Context) {
	params := ctx.Params()
	id := params.Get("id")

	var listings []models.Listing
	if err := storage.DB.Where("host_id = ?", id).Order("created_at DESC").Find(&listings).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(listings)
}

func UpdateListing(ctx iris.Context) {
	claims := jwt.Get(ctx).(*utils.AccessToken)
	id := ctx.Params().Get("id")

	var listing models.Listing
	listingExists := storage.DB.Where("id = ?", id).Limit(1).Find(&listing)
	if listingExists.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	if listingExists.RowsAffected == 0 {
		utils.CreateNotFound(ctx)
		return
	}

	if listing.HostID != claims.ID {
		utils.CreateError(iris.StatusForbidden, "Forbidden", "You do not own this listing.", ctx)
		return
	}

	var input UpdateListingInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	if input.Title != nil {
		listing.Title = *input.Title
	}
	if input.Description != nil {
		listing.Description = *input.Description
	}
	if input.Location != nil {
		listing.Location = *input.Location
	}
	if input.Country != nil {
		listing.Country = *input.Country
	}
	if input.NightlyPrice != nil {
		listing.NightlyPrice = *input.NightlyPrice
	}
	if input.Capacity != nil {
		listing.Capacity = *input.Capacity
	}
	if input.Images != nil {
		images, marshalErr := json.Marshal(input.Images)
		if marshalErr != nil {
			utils.CreateInternalServerError(ctx)
			return
		}
		listing.Images = images
	}

	if err := storage.DB.Save(&listing).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(listing)
}

func DeleteListing(ctx iris.Context) {
	claims := jwt.Get(ctx).(*utils.AccessToken)
	id := ctx.Params().Get("id")

	var listing models.Listing
	listingExists := storage.DB.Where("id = ?", id).Limit(1).Find(&listing)
	if listingExists.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	if listingExists.RowsAffected == 0 {
		utils.CreateNotFound(ctx)
		return
	}

	if listing.HostID != claims.ID && claims.Role != "admin" {
		utils.CreateError(iris.StatusForbidden, "Forbidden", "You do not own this listing.", ctx)
		return
	}

	if err := storage.DB.Delete(&listing).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.StatusCode(iris.StatusNoContent)
}
