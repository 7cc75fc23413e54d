package main

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"

	"bazaar_backend/internal/controller"
	"bazaar_backend/internal/middleware"
	"bazaar_backend/internal/model"
	"bazaar_backend/internal/service"
	"bazaar_backend/pkg/cache"
	"bazaar_backend/pkg/config"
	"bazaar_backend/pkg/cron"
	"bazaar_backend/pkg/database"
	"bazaar_backend/pkg/email"
	"bazaar_backend/pkg/events"
	"bazaar_backend/pkg/seed"
	"bazaar_backend/pkg/storage"
	"bazaar_backend/pkg/utils/jwt"
)

func setupRoutes(app *fiber.App, cfg *config.Config, s *controller.Services) {
	api := app.Group("/api")

	auth := api.Group("/auth", limiter.New(limiter.Config{
		Max:        cfg.Server.MaxRequests,
		Expiration: cfg.Server.RateWindow,
	}))
	auth.Post("/signup", controller.Signup)
	auth.Post("/login", controller.Login)

	// Public catalog
	api.Get("/packages", controller.ListPackages)
	api.Get("/slots", controller.ListSlots)
	api.Get("/categories", controller.ListCategories)
	api.Get("/settings", controller.GetSettings)
	api.Get("/settings/:key", controller.GetSetting)

	protected := middleware.AuthMiddleware()
	notBanned := middleware.CheckNotBanned(s.Moderation)
	adminOnly := middleware.AdminOnly(s.Accounts)

	me := api.Group("/me", protected)
	me.Get("/", controller.GetMe)
	me.Put("/", controller.UpdateMe)
	me.Get("/entitlement", controller.GetEntitlement)
	me.Get("/logins", controller.GetMyLogins)
	api.Get("/check-admin", protected, controller.CheckAdmin)

	// Listings; /my must be registered before /:id
	products := api.Group("/products")
	products.Get("/", controller.ListProducts)
	products.Get("/my", protected, controller.ListMyProducts)
	products.Get("/:id", controller.GetProduct)
	products.Post("/", protected, notBanned, middleware.CheckListingEntitlement(s.Entitlements), controller.CreateProduct)
	products.Put("/:id", protected, notBanned, middleware.CheckProductOwnership(s.Listings, s.Accounts, false), controller.UpdateProduct)
	products.Delete("/:id", protected, middleware.CheckProductOwnership(s.Listings, s.Accounts, true), controller.DeleteProduct)
	products.Post("/:id/images", protected, notBanned, middleware.CheckProductOwnership(s.Listings, s.Accounts, false), controller.AddProductImages)
	products.Delete("/:id/images/:image_id", protected, notBanned, middleware.CheckProductOwnership(s.Listings, s.Accounts, false), controller.DeleteProductImage)
	products.Post("/:id/purchase", protected, notBanned, controller.PurchaseProduct)

	subscriptions := api.Group("/subscriptions", protected)
	subscriptions.Post("/checkout", notBanned, controller.Checkout)
	subscriptions.Get("/my", controller.GetMySubscriptions)
	api.Post("/create-product-slot", protected, notBanned, controller.CreateProductSlot)
	api.Get("/transactions/my", protected, controller.ListMyTransactions)

	payouts := api.Group("/payouts", protected)
	payouts.Get("/my", controller.GetMyPayouts)
	payouts.Post("/", notBanned, controller.RequestPayout)

	messages := api.Group("/messages", protected)
	messages.Post("/", notBanned, controller.SendMessage)
	messages.Get("/", controller.GetMessages)
	messages.Put("/:id/read", controller.MarkMessageAsRead)

	// /role must be registered before /:id
	users := api.Group("/users", protected, adminOnly)
	users.Get("/", controller.ListUsers)
	users.Put("/role", controller.SetUserRole)
	users.Get("/:id", controller.GetUser)
	users.Put("/:id", controller.UpdateUser)
	users.Delete("/:id", controller.DeleteUser)
	users.Post("/:id/ban", controller.BanUser)
	users.Post("/:id/unban", controller.UnbanUser)
	users.Get("/:id/bans", controller.ListUserBans)

	adm := api.Group("/admin", protected, adminOnly)
	adm.Get("/stats", controller.GetAdminStats)
	adm.Get("/packages", controller.ListAllPackages)
	adm.Post("/packages", controller.CreatePackage)
	adm.Put("/packages/:id", controller.UpdatePackage)
	adm.Delete("/packages/:id", controller.DeletePackage)
	adm.Get("/slots", controller.ListAllSlots)
	adm.Post("/slots", controller.CreateSlot)
	adm.Put("/slots/:id", controller.UpdateSlot)
	adm.Delete("/slots/:id", controller.DeleteSlot)
	adm.Post("/categories", controller.CreateCategory)
	adm.Delete("/categories/:id", controller.DeleteCategory)
	adm.Get("/payouts", controller.ListPayouts)
	adm.Put("/payouts/:id", controller.ReviewPayout)
	api.Put("/settings/:key", protected, adminOnly, controller.UpdateSetting)

	dashboard := api.Group("/dashboard", protected)
	dashboard.Get("/stats", controller.GetDashboardStats)
}

func newStore(ctx context.Context, cfg config.StorageConfig) storage.ObjectStore {
	if cfg.AccessKey == "" {
		log.Println("Object storage is not configured, keeping images in memory")
		return storage.NewMemoryStore(cfg.PublicBaseURL)
	}
	store, err := storage.NewS3Store(ctx, cfg)
	if err != nil {
		log.Fatal("Could not initialize object storage:", err)
	}
	return store
}

func newPublisher(cfg config.KafkaConfig) (events.Publisher, func()) {
	if cfg.Broker == "" {
		return events.Noop{}, func() {}
	}
	producer, err := events.NewProducer(cfg)
	if err != nil {
		log.Printf("Events disabled: %v", err)
		return events.Noop{}, func() {}
	}
	pub := events.NewKafkaPublisher(producer, cfg.Topic)
	return pub, func() {
		if err := pub.Close(); err != nil {
			log.Printf("Failed to close kafka producer: %v", err)
		}
	}
}

func main() {
	cfg := config.Load()
	ctx := context.Background()

	if cfg.Database.URL == "" {
		log.Fatal("DATABASE_URL is not set")
	}
	database.InitDB(cfg.Database.URL)
	err := database.MigrateDatabase(
		&model.Profile{},
		&model.UserBan{},
		&model.LoginHistory{},
		&model.Category{},
		&model.SubscriptionPackage{},
		&model.ProductSlot{},
		&model.Subscription{},
		&model.Product{},
		&model.ProductImage{},
		&model.Transaction{},
		&model.Payout{},
		&model.Message{},
		&model.SiteSetting{},
	)
	if err != nil {
		log.Printf("Migration warning: %v", err)
	}
	if err := database.EnsureConstraints(); err != nil {
		log.Printf("Migration warning: %v", err)
	}

	if cfg.Seed.Enabled {
		seed.Run(database.DB, cfg.Seed)
	}

	jwt.Init(cfg.JWT)

	if err := email.InitEmailService(cfg.Email); err != nil {
		log.Printf("Email disabled: %v", err)
	}

	settingsCache, err := cache.New(ctx, cfg.Redis)
	if err != nil {
		log.Printf("Settings cache disabled: %v", err)
	}
	defer settingsCache.Close()

	publisher, closePublisher := newPublisher(cfg.Kafka)
	defer closePublisher()

	store := newStore(ctx, cfg.Storage)
	deps := service.Deps{DB: database.DB, Events: publisher}

	services := &controller.Services{
		Accounts:     &service.Accounts{Deps: deps, Store: store},
		Entitlements: &service.Entitlements{Deps: deps},
		Listings: &service.Listings{
			Deps:            deps,
			Store:           store,
			TTL:             cfg.Listing.ListingTTL(),
			MaxCreateImages: cfg.Listing.MaxCreateImages,
			MaxImages:       cfg.Listing.MaxImages,
		},
		Moderation: &service.Moderation{Deps: deps},
		Catalog:    &service.Catalog{Deps: deps},
		Billing:    &service.Billing{Deps: deps, CheckoutDelay: cfg.Server.CheckoutDelay},
		Payouts:    &service.Payouts{Deps: deps},
		Messages:   &service.Messages{Deps: deps},
		Settings:   &service.Settings{Deps: deps, Cache: settingsCache, TTL: cfg.Redis.SettingsTTL},
		Stats:      &service.Stats{Deps: deps},
	}
	controller.Init(services)

	jobs := &cron.Jobs{
		Subscriptions: &service.Subscriptions{Deps: deps},
		Listings:      services.Listings,
		Stats:         services.Stats,
		Settings:      services.Settings,
	}
	if email.GlobalEmailService != nil {
		jobs.Mailer = email.GlobalEmailService
	}
	scheduler, err := cron.Start(jobs)
	if err != nil {
		log.Fatal("Could not start cron jobs:", err)
	}
	defer scheduler.Stop()

	app := fiber.New(fiber.Config{
		BodyLimit:    cfg.Server.BodyLimit,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				code = fe.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	app.Use(logger.New())
	app.Use(cors.New())

	setupRoutes(app, cfg, services)

	log.Printf("Server is running on port %s", cfg.Server.Port)
	if err := app.Listen(":" + cfg.Server.Port); err != nil {
		log.Printf("Server stopped: %v", err)
	}
}
