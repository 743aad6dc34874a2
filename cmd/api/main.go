package main

import (
	"context"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/gigworkid/gigwork_be/internal/config"
	"github.com/gigworkid/gigwork_be/internal/db"
	"github.com/gigworkid/gigwork_be/internal/handlers"
	"github.com/gigworkid/gigwork_be/internal/middleware"
	"github.com/gigworkid/gigwork_be/internal/models"
	"github.com/gigworkid/gigwork_be/internal/services/flowpay"
	"github.com/gigworkid/gigwork_be/internal/services/notify"
	"github.com/gigworkid/gigwork_be/internal/services/wallet"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	gdb, err := db.Connect(cfg.DBDSN)
	if err != nil {
		log.Fatal(err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Fatal("Redis not reachable:", err)
	}

	if err := gdb.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Payment{},
		&models.Job{},
		&models.Application{},
		&models.Review{},
		&models.Notification{},
		&models.WalletTransaction{},
	); err != nil {
		log.Fatal(err)
	}
	seedCategories(gdb)

	gateway := flowpay.NewFlowpayService()
	notifySvc := notify.NewService(gdb)
	walletSvc := wallet.NewWalletService(gdb)

	authH := &handlers.AuthHandler{
		DB:        gdb,
		JWTSecret: cfg.JWTSecret,
		Expires:   cfg.JWTExpiresMin,
	}
	googleH := &handlers.GoogleOAuthHandler{
		DB:              gdb,
		JWTSecret:       cfg.JWTSecret,
		Expires:         cfg.JWTExpiresMin,
		GoogleClientID:  cfg.GoogleClientID,
		GoogleSecret:    cfg.GoogleSecret,
		GoogleRedirect:  cfg.GoogleRedirect,
		FrontendBaseURL: cfg.FrontendBaseURL,
	}
	paymentH := handlers.NewPaymentHandler(gdb, gateway, rdb, notifySvc, cfg.AppBaseURL, cfg.FrontendBaseURL)
	jobH := handlers.NewJobHandler(gdb, notifySvc, walletSvc)
	appH := handlers.NewApplicationHandler(gdb, notifySvc)
	categoryH := handlers.NewCategoryHandler(gdb)
	notifH := handlers.NewNotificationHandler(gdb)
	walletH := handlers.NewWalletHandler(gdb)

	app := fiber.New()

	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.FrontendBaseURL,
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		ExposeHeaders:    "Content-Length",
		AllowCredentials: true,
	}))

	jwtMw := middleware.JWTProtect(cfg.JWTSecret)

	// Gateway-facing routes live at the root: the webhook URL and the redirect
	// landings are registered with the gateway as-is.
	app.Post("/create-payment-checkout", jwtMw, paymentH.InitiateCheckout)
	app.Post("/payment-webhook", paymentH.HandleWebhook)
	app.Get("/payment/success", paymentH.SuccessRedirect)
	app.Get("/payment/cancel", paymentH.CancelRedirect)

	api := app.Group("/api")

	// public
	api.Post("/auth/register", authH.Register)
	api.Post("/auth/login", authH.Login)
	api.Post("/auth/logout", authH.Logout)
	api.Get("/auth/google/start", googleH.GoogleStart)
	api.Get("/auth/google/callback", googleH.GoogleCallback)
	api.Get("/categories", categoryH.GetCategories)
	api.Get("/pricing/quote", categoryH.Quote)
	api.Get("/jobs", jobH.ListOpen)
	api.Get("/jobs/:id", jobH.GetDetail)

	// protected (JWT)
	protected := api.Group("/", jwtMw)

	protected.Get("/auth/me", authH.Me)
	protected.Get("/wallet", walletH.GetWallet)

	protected.Get("/notifications", notifH.ListMine)
	protected.Patch("/notifications/read-all", notifH.MarkAllRead)
	protected.Patch("/notifications/:id/read", notifH.MarkRead)

	protected.Post("/payments",
		middleware.RequireRoles("hirer", "admin"),
		paymentH.CreatePayment,
	)
	protected.Get("/payments/:id/status", paymentH.PaymentStatus)
	protected.Get("/payment-channels", paymentH.GetChannels)

	// hirer side of jobs
	protected.Get("/hirer/jobs",
		middleware.RequireRoles("hirer", "admin"),
		jobH.ListMineHirer,
	)
	protected.Post("/jobs/:id/complete",
		middleware.RequireRoles("hirer", "admin"),
		jobH.Complete,
	)
	protected.Post("/jobs/:id/cancel",
		middleware.RequireRoles("hirer", "admin"),
		jobH.Cancel,
	)
	protected.Get("/jobs/:id/applications",
		middleware.RequireRoles("hirer", "admin"),
		appH.ListForJob,
	)
	protected.Post("/applications/:id/accept",
		middleware.RequireRoles("hirer", "admin"),
		appH.Accept,
	)
	protected.Post("/applications/:id/reject",
		middleware.RequireRoles("hirer", "admin"),
		appH.Reject,
	)

	// freelancer side
	protected.Get("/freelancer/jobs",
		middleware.RequireRoles("freelancer"),
		jobH.ListMineFreelancer,
	)
	protected.Post("/jobs/:id/start",
		middleware.RequireRoles("freelancer"),
		jobH.Start,
	)
	protected.Post("/jobs/:id/submit",
		middleware.RequireRoles("freelancer"),
		jobH.Submit,
	)
	protected.Post("/jobs/:id/applications",
		middleware.RequireRoles("freelancer"),
		appH.Apply,
	)
	protected.Get("/applications/mine",
		middleware.RequireRoles("freelancer"),
		appH.ListMine,
	)
	protected.Delete("/applications/:id",
		middleware.RequireRoles("freelancer"),
		appH.Withdraw,
	)

	// either party of a completed job
	protected.Post("/jobs/:id/reviews", jobH.CreateReview)

	log.Fatal(app.Listen(":" + cfg.AppPort))
}

// seedCategories fills an empty category table with starter rates so a fresh
// deployment can price jobs immediately. Rates are editable in the DB.
func seedCategories(gdb *gorm.DB) {
	var count int64
	gdb.Model(&models.Category{}).Count(&count)
	if count > 0 {
		return
	}

	defaults := []models.Category{
		{Name: "Essay Writing", BasePricePerPage: 10},
		{Name: "Translation", BasePricePerPage: 8},
		{Name: "Data Entry", BasePricePerPage: 5},
		{Name: "Presentation Design", BasePricePerPage: 12},
		{Name: "Programming Help", BasePricePerPage: 20},
	}
	if err := gdb.Create(&defaults).Error; err != nil {
		log.Println("Error seeding categories:", err)
	}
}
