package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"hvac-portal-system/handlers"
	"hvac-portal-system/middleware"
	"hvac-portal-system/models"
	"hvac-portal-system/services"
	"hvac-portal-system/utils"
	"hvac-portal-system/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	app := fiber.New(fiber.Config{
		BodyLimit: 50 * 1024 * 1024, // 50MB — product imagery and documents
	})

	// 🔐❗ GLOBAL: Only Gateway requests allowed — no exceptions
	app.Use(middleware.GatewayAuthMiddleware())

	allowedOriginsEnv := os.Getenv("ALLOWED_ORIGINS")
	if allowedOriginsEnv == "" {
		log.Println("⚠️  ALLOWED_ORIGINS environment variable not set, using default: http://localhost:3000")
		allowedOriginsEnv = "http://localhost:3000"
	}
	allowedOriginsList := strings.Split(allowedOriginsEnv, ",")
	for i, origin := range allowedOriginsList {
		allowedOriginsList[i] = strings.TrimSpace(origin)
	}
	allowedOriginsString := strings.Join(allowedOriginsList, ",")

	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOriginsString,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Accept-Language, Authorization, X-Requested-With, X-Request-ID, User-Agent, Cache-Control, X-User-ID, X-User-Role, X-Service-Token, X-Access-Token",
		ExposeHeaders:    "Content-Length, Content-Type, Authorization, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	if err := utils.InitR2(); err != nil {
		log.Fatal("failed to initialize R2 client:", err)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.PortalUser{},
		&models.ProductCategory{},
		&models.Product{},
		&models.ProductImage{},
		&models.ProductTranslation{},
		&models.Order{},
		&models.OrderItem{},
		&models.ServiceVisit{},
		&models.Benefit{},
		&models.CoinBalance{},
		&models.CoinTransaction{},
		&models.BenefitRedemption{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	if err := utils.EnsureUploadDir(); err != nil {
		log.Fatal("failed to ensure upload dir:", err)
	}

	catalogService := services.NewCatalogService(db)
	orderService := services.NewOrderService(db)
	benefitService := services.NewBenefitService(db)
	coinService := services.NewCoinService(db)

	authServiceURL := os.Getenv("AUTH_SERVICE_URL")
	if authServiceURL == "" {
		log.Fatal("AUTH_SERVICE_URL environment variable not set")
	}
	portalServiceToken := os.Getenv("PORTAL_SERVICE_TOKEN")
	if portalServiceToken == "" {
		log.Fatal("PORTAL_SERVICE_TOKEN environment variable not set")
	}

	// Fallback for callers that reach the portal with a raw access token
	// instead of the gateway's identity headers (e.g. mobile deep links):
	// validate it upstream and inject the headers the middleware expects.
	authClient := services.NewAuthServiceClient(authServiceURL, portalServiceToken)
	app.Use(func(c *fiber.Ctx) error {
		if c.Get("X-User-ID") == "" {
			if accessToken := c.Get("X-Access-Token"); accessToken != "" {
				if v, err := authClient.ValidateToken(accessToken); err == nil {
					c.Request().Header.Set("X-User-ID", v.UserID)
					c.Request().Header.Set("X-User-Role", v.Role)
				}
			}
		}
		return c.Next()
	})

	syncWorker := workers.NewPortalUserSyncWorker(db, coinService, authServiceURL, "/api/v1/public/users", portalServiceToken)
	visitAwardClient := workers.NewVisitAwardClient(db, coinService)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go workers.PollVisitAwards(ctx, visitAwardClient, 30*time.Second)

	go func() {
		log.Println("Starting Portal User Sync Worker...")
		syncWorker.Start(ctx)
	}()

	catalogService.StartPublishScheduler()
	benefitService.StartExpiryScheduler()

	handlers.SetupCatalogRoutes(app, catalogService)
	handlers.SetupOrderRoutes(app, orderService)
	handlers.SetupBenefitRoutes(app, benefitService, coinService)

	app.Static("/uploads", "./uploads")

	go func() {
		if err := app.Listen(":5300"); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Println("✅ Server running on http://localhost:5300")
	log.Println("✅ Portal User Sync Worker running")
	log.Println("✅ Visit award polling running (every 30s)")
	log.Println("✅ GatewayAuthMiddleware enforced globally — all requests must come from Gateway")
	log.Printf("✅ CORS configured for origins: %s", allowedOriginsString)

	<-ctx.Done()
	log.Println("Shutting down server...")
}
