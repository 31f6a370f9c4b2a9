package main

import (
	"airbnb-clone-server/hub"
	"airbnb-clone-server/routes"
	"airbnb-clone-server/services"
	"airbnb-clone-server/storage"
	"airbnb-clone-server/utils"
	"fmt"
	"log"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/jwt"
)

func main() {
	// Only load .env in development
	if os.Getenv("RENDER") == "" {
		godotenv.Load()
	}

	storage.InitializeDB()
	storage.InitializeRedis()

	app := iris.New()
	app.Validator = validator.New()

	// CORS configuration
	app.AllowMethods(iris.MethodOptions)
	app.UseRouter(func(ctx iris.Context) {
		ctx.Header("Access-Control-Allow-Origin", ctx.GetHeader("Origin"))
		ctx.Header("Vary", "Origin")
		ctx.Header("Access-Control-Allow-Credentials", "true")
		ctx.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Requested-With")
		ctx.Header("Access-Control-Allow-Methods", "GET,POST,PATCH,PUT,DELETE,OPTIONS")
		if ctx.Method() == iris.MethodOptions {
			ctx.StatusCode(iris.StatusNoContent)
			return
		}
		ctx.Next()
	})

	app.Use(iris.Compression)

	// JWT verifiers
	accessTokenVerifier := jwt.NewVerifier(jwt.HS256, []byte(os.Getenv("ACCESS_TOKEN_SECRET")))
	accessTokenVerifier.WithDefaultBlocklist()
	accessTokenVerifierMiddleware := accessTokenVerifier.Verify(func() interface{} {
		return new(utils.AccessToken)
	})

	refreshTokenVerifier := jwt.NewVerifier(jwt.HS256, []byte(os.Getenv("REFRESH_TOKEN_SECRET")))
	refreshTokenVerifier.WithDefaultBlocklist()
	refreshTokenVerifierMiddleware := refreshTokenVerifier.Verify(func() interface{} {
		return new(jwt.Claims)
	})

	refreshTokenVerifier.Extractors = append(refreshTokenVerifier.Extractors, func(ctx iris.Context) string {
		var tokenInput utils.RefreshTokenInput
		err := ctx.ReadJSON(&tokenInput)
		if err != nil {
			return ""
		}
		return tokenInput.RefreshToken
	})

	// Services
	mailer := services.NewMailerFromEnv()
	notifier := services.NewNotificationService(storage.DB, mailer)

	var gateway services.PaymentGateway
	if secretKey := os.Getenv("OMISE_SECRET_KEY"); secretKey != "" {
		omiseGateway, err := services.NewOmiseGateway(
			os.Getenv("OMISE_PUBLIC_KEY"), secretKey, os.Getenv("PAYMENT_RETURN_URI"))
		if err != nil {
			log.Fatalf("payment gateway: %v", err)
		}
		gateway = omiseGateway
	} else {
		log.Println("OMISE_SECRET_KEY not set, using mock payment gateway")
		gateway = services.NewMockGateway()
	}

	bookingService := services.NewBookingService(storage.DB, gateway, notifier)
	bookingHandler := routes.NewBookingHandler(bookingService)

	relay := hub.NewHub(storage.DB, notifier)
	go relay.Run()
	chatHandler := routes.NewChatHandler(relay)

	// Health check endpoint
	app.Get("/health", func(ctx iris.Context) {
		ctx.JSON(iris.Map{"status": "ok"})
	})

	user := app.Party("/api/user")
	{
		user.Post("/register", routes.Register)
		user.Post("/login", routes.Login)
		user.Post("/google", routes.GoogleLoginOrSignUp)
		user.Get("/{id}/listings/saved", accessTokenVerifierMiddleware, utils.UserIDMiddleware, routes.GetUserSavedListings)
		user.Patch("/{id}/listings/saved", accessTokenVerifierMiddleware, utils.UserIDMiddleware, routes.AlterUserSavedListings)
		user.Get("/{id}", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware, routes.GetUser)
	}

	listing := app.Party("/api/listing")
	{
		listing.Post("/", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware, routes.CreateListing)
		listing.Get("/{id}", routes.GetListing)
		listing.Get("/userid/{id}", accessTokenVerifierMiddleware, utils.UserIDMiddleware, routes.GetListingsByHostID)
		listing.Patch("/update/{id}", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware, routes.UpdateListing)
		listing.Delete("/{id}", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware, routes.DeleteListing)
	}

	listings := app.Party("/api/listings")
	{
		listings.Get("/", routes.GetListings)
	}

	booking := app.Party("/api/booking")
	{
		booking.Post("/listing/{id}", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware, bookingHandler.CreateBooking)
		booking.Post("/listing/{id}/block", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware, bookingHandler.CreateBlock)
		booking.Get("/listing/{id}", bookingHandler.GetListingBookings)
		booking.Delete("/{bookingId:uint}", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware, bookingHandler.CancelBooking)
		booking.Get("/trips", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware, bookingHandler.GetUserTrips)
		booking.Post("/listing/{id}/checkout", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware, bookingHandler.InitiatePayment)
		booking.Get("/confirm", bookingHandler.ConfirmPayment)
	}

	review := app.Party("/api/review")
	{
		review.Post("/listing/{id}", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware, routes.CreateReview)
		review.Delete("/{reviewId:uint}", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware, routes.DeleteReview)
	}

	reviews := app.Party("/api/reviews")
	{
		reviews.Get("/listing/{id}", routes.ListListingReviews)
	}

	chat := app.Party("/api/chat")
	{
		chat.Get("/ws", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware, chatHandler.ServeWs)
		chat.Get("/inbox", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware, routes.GetInbox)
		chat.Get("/history/{userId:uint}", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware, routes.GetChatHistory)
		chat.Post("/typing/{userId:uint}", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware, routes.Typing)
		chat.Get("/typing/{userId:uint}", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware, routes.IsTyping)
	}

	notifications := app.Party("/api/notifications")
	{
		notifications.Get("/", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware, routes.ListNotifications)
		notifications.Get("/unread-count", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware, routes.GetUnreadCount)
		notifications.Patch("/{id:uint}/read", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware, routes.MarkNotificationRead)
		notifications.Post("/read-all", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware, routes.MarkAllNotificationsRead)
	}

	admin := app.Party("/api/admin", accessTokenVerifierMiddleware, utils.AdminOnlyMiddleware)
	{
		admin.Get("/dashboard", routes.AdminDashboard)
		admin.Get("/users", routes.AdminListUsers)
		admin.Patch("/users/{id:uint}/role", routes.AdminChangeUserRole)
		admin.Get("/listings", routes.AdminListListings)
		admin.Get("/bookings", routes.AdminListBookings)
		admin.Delete("/users/{id:uint}", routes.AdminDeleteUser)
		admin.Delete("/listings/{id:uint}", routes.AdminDeleteListing)
	}

	app.Post("/api/refresh", refreshTokenVerifierMiddleware, utils.RefreshToken)

	port := os.Getenv("PORT")
	if port == "" {
		port = "4000"
	}
	addr := "0.0.0.0:" + port

	fmt.Printf("Server starting on %s\n", addr)

	if err := app.Listen(addr); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
