package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"ecofootprint-service/handlers"
	"ecofootprint-service/middleware"
	"ecofootprint-service/models"
	"ecofootprint-service/services"
	"ecofootprint-service/utils"
	"ecofootprint-service/workers"

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
		BodyLimit: 20 * 1024 * 1024, // 20MB
	})

	// 🔐 GLOBAL: resolve the caller identity once; handlers decide
	// whether anonymous access is allowed
	app.Use(middleware.UserContextMiddleware())

	// Load allowed origins from environment variable
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
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, User-Agent, Cache-Control",
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

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.CouponSummary{},
		&models.Coupon{},
		&models.Challenge{},
		&models.ChallengeParticipant{},
		&models.ChallengeRecord{},
		&models.Donation{},
		&models.DonationParticipant{},
		&models.Reward{},
		&models.StoredFile{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	verifier := services.NewAdVerifier()

	challengeService := services.NewChallengeService(db)
	donationService := services.NewDonationService(db, verifier)
	rewardService := services.NewRewardService(db)
	userService := services.NewUserService(db, verifier)
	fileService := services.NewFileService(db)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// AdMob rotates its SSV keys without notice; refresh daily
	go workers.PollVerifierKeys(ctx, verifier, 24*time.Hour)

	challengeService.StartSweepScheduler(verifier)

	handlers.SetupUserRoutes(app, userService)
	handlers.SetupChallengeRoutes(app, challengeService)
	handlers.SetupDonationRoutes(app, donationService)
	handlers.SetupRewardRoutes(app, rewardService)
	handlers.SetupFileRoutes(app, fileService)

	port := os.Getenv("PORT")
	if port == "" {
		port = "5300"
	}

	go func() {
		if err := app.Listen(":" + port); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Printf("✅ Server running on http://localhost:%s", port)
	log.Println("✅ AdMob key polling running (daily)")
	log.Printf("✅ CORS configured for origins: %s", allowedOriginsString)

	<-ctx.Done()
	log.Println("Shutting down server...")
}
