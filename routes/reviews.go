package routes

import (
	"airbnb-clone-server/models"
	"airbnb-clone-server/storage"
	"airbnb-clone-server/utils"

	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/jwt"
)

type CreateReviewInput struct {
	Stars int    `json:"stars" validate:"required,min=1,max=5"`
	Body  string `json:"body" validate:"max=1000"`
}

func CreateReview(ctx iris.Context) {
	listingID, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Bad Request", "Invalid listing ID", ctx)
		return
	}

	claims := jwt.Get(ctx).(*utils.AccessToken)

	var input CreateReviewInput
	if readErr := ctx.ReadJSON(&input); readErr != nil {
		utils.HandleValidationErrors(readErr, ctx)
		return
	}

	var listing models.Listing
	if dbErr := storage.DB.First(&listing, listingID).Error; dbErr != nil {
		utils.CreateNotFound(ctx)
		return
	}

	review := models.Review{
		ListingID: listingID,
		UserID:    claims.ID,
		Stars:     input.Stars,
		Body:      input.Body,
	}

	if dbErr := storage.DB.Create(&review).Error; dbErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	storage.DB.Preload("User").First(&review, review.ID)
	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(review)
}

// ListListingReviews returns reviews with the average rating
func ListListingReviews(ctx iris.Context) {
	listingID := ctx.Params().Get("id")

	var reviews []models.Review
	if err := storage.DB.Preload("User").
		Where("listing_id = ?", listingID).
		Order("created_at DESC").
		Find(&reviews).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	var totalStars float64
	for _, review := range reviews {
		totalStars += float64(review.Stars)
	}
	avgRating := 0.0
	if len(reviews) > 0 {
		avgRating = totalStars / float64(len(reviews))
	}

	ctx.JSON(iris.Map{
		"reviews":   reviews,
		"avgRating": avgRating,
	})
}

// DeleteReview removes a review; only the author or an admin may delete
func DeleteReview(ctx iris.Context) {
	reviewID, err := ctx.Params().GetUint("reviewId")
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Bad Request", "Invalid review ID", ctx)
		return
	}

	claims := jwt.Get(ctx).(*utils.AccessToken)

	var review models.Review
	if dbErr := storage.DB.First(&review, reviewID).Error; dbErr != nil {
		utils.CreateNotFound(ctx)
		return
	}

	if review.UserID != claims.ID && claims.Role != "admin" {
		utils.CreateError(iris.StatusForbidden, "Forbidden", "You can only delete your own reviews.", ctx)
		return
	}

	if dbErr := storage.DB.Delete(&review).Error; dbErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.StatusCode(iris.StatusNoContent)
}
