package server

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/deskhive/deskhive/internal/config"
	"github.com/deskhive/deskhive/internal/domain"
	"github.com/deskhive/deskhive/internal/handler"
	"github.com/deskhive/deskhive/internal/infrastructure/mailer"
	"github.com/deskhive/deskhive/internal/infrastructure/stripe"
	"github.com/deskhive/deskhive/internal/middleware"
	"github.com/deskhive/deskhive/internal/repository"
	"github.com/deskhive/deskhive/internal/service"
	"github.com/deskhive/deskhive/internal/telemetry"
)

// idempotencyTTL is how long a mutating response is replayable.
const idempotencyTTL = 24 * time.Hour

// AppDependencies holds the dependencies required to start the application
type AppDependencies struct {
	Config      *config.Config
	MongoClient *mongo.Client
	MongoDB     *mongo.Database
	RedisClient *redis.Client
}

// NewApp creates and configures the Fiber application with the given
// dependencies, and returns the recurring service for the scheduler.
func NewApp(deps AppDependencies) (*fiber.App, *service.RecurringService) {
	// Repositories
	bookingRepo := repository.NewMongoBookingRepository(deps.MongoDB)
	groupRepo := repository.NewMongoRecurringGroupRepository(deps.MongoDB)
	invoiceRepo := repository.NewMongoInvoiceRepository(deps.MongoDB)
	userRepo := repository.NewMongoUserRepository(deps.MongoDB)
	cacheRepo := repository.NewRedisCacheRepository(deps.RedisClient)
	roomRepo := repository.NewCachedRoomRepository(repository.NewMongoRoomRepository(deps.MongoDB), cacheRepo)
	txnRunner := repository.NewMongoTxnRunner(deps.MongoClient)

	// Billing gateway: real Stripe client when credentials are present,
	// in-memory mock otherwise.
	var gateway service.BillingGateway
	var verifier handler.SignatureVerifier
	if deps.Config.Stripe.SecretKey != "" {
		client := stripe.NewClient(stripe.Config{
			SecretKey:     deps.Config.Stripe.SecretKey,
			WebhookSecret: deps.Config.Stripe.WebhookSecret,
			BaseURL:       deps.Config.Stripe.BaseURL,
		})
		gateway = service.NewStripeGateway(client, deps.Config.Billing.Currency, deps.Config.Billing.DaysUntilDue)
		verifier = client
	} else {
		log.Println("[Server] No billing credentials configured, using mock gateway")
		gateway = service.NewMockBillingGateway()
	}

	var notifier service.Notifier
	if deps.Config.SMTP.Host != "" {
		notifier = mailer.NewMailer(mailer.Config{
			Host:     deps.Config.SMTP.Host,
			Port:     deps.Config.SMTP.Port,
			Username: deps.Config.SMTP.Username,
			Password: deps.Config.SMTP.Password,
			From:     deps.Config.SMTP.From,
		})
	} else {
		log.Println("[Server] No SMTP configured, logging notifications to console")
		notifier = service.ConsoleNotifier{}
	}

	// Services
	recurringService := service.NewRecurringService(
		groupRepo, bookingRepo, invoiceRepo, userRepo, roomRepo,
		txnRunner, gateway, notifier, deps.Config.Billing.Currency,
	)

	// Handlers
	recurringHandler := handler.NewRecurringHandler(recurringService)
	webhookHandler := handler.NewWebhookHandler(recurringService, verifier)

	app := fiber.New(fiber.Config{
		AppName:      "DeskHive Booking API",
		ErrorHandler: customErrorHandler,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(telemetry.FiberMiddleware())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Idempotency-Key",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"service": "deskhive-booking",
		})
	})

	api := app.Group("/api")

	// Webhooks are public; authenticity comes from signatures.
	api.Post("/webhooks/billing", webhookHandler.BillingWebhook)

	recurring := api.Group("/recurring-bookings")
	recurring.Use(middleware.VerifyToken(deps.Config.JWT.Secret))
	recurring.Use(middleware.Idempotency(deps.RedisClient, idempotencyTTL))

	recurring.Post("/", recurringHandler.Create)
	recurring.Get("/", recurringHandler.List)
	recurring.Post("/available-rooms", recurringHandler.AvailableRooms)
	recurring.Get("/:id", recurringHandler.Get)
	recurring.Post("/:id/cancel", recurringHandler.Cancel)
	recurring.Delete("/:id", middleware.RequireRole(domain.RoleAdmin), recurringHandler.Delete)

	return app, recurringService
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}
	log.Printf("Error: %v", err)
	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
	})
}
