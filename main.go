package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"github.com/anindya-dev/interview-assistant-backend/database"
	"github.com/anindya-dev/interview-assistant-backend/internal/handlers"
	"github.com/anindya-dev/interview-assistant-backend/internal/llm"
	"github.com/anindya-dev/interview-assistant-backend/internal/models"
	"github.com/anindya-dev/interview-assistant-backend/internal/routes"
	"github.com/anindya-dev/interview-assistant-backend/internal/scorecard"
	"github.com/anindya-dev/interview-assistant-backend/internal/services"
	"github.com/anindya-dev/interview-assistant-backend/internal/storage"
)

func main() {
	// Load .env file for local development
	if os.Getenv("INSTANCE_CONNECTION_NAME") == "" {
		err := godotenv.Load(".env")
		if err != nil {
			err = godotenv.Load("environments/.env.development")
			if err != nil {
				log.Println("⚠️  No .env file found - checking environment variables")
			}
		}
	}

	// Initialize session storage
	var sessions storage.SessionStore
	if os.Getenv("USE_MEMORY_STORE") == "true" {
		log.Println("⚠️  Using in-memory session storage (not for production!)")
		sessions = storage.NewMemoryStore()
	} else {
		redisURL := os.Getenv("REDIS_URL")
		if redisURL == "" {
			redisURL = "redis://localhost:6379"
		}
		redisStore, err := storage.NewRedisStoreFromURL(redisURL)
		if err != nil {
			log.Fatal("Failed to connect to Redis:", err)
		}
		log.Println("✅ Successfully connected to Redis")
		sessions = redisStore
	}
	storage.SetSessionStore(sessions)

	// Initialize interview archive
	var archive storage.InterviewStore
	if os.Getenv("USE_MEMORY_STORE") == "true" {
		archive = storage.NewMemoryStore()
	} else {
		log.Println("📦 Connecting to PostgreSQL database...")
		database.Connect()

		log.Println("🔄 Running database migrations...")
		if err := database.DB.AutoMigrate(
			&models.Interview{},
			&models.Result{},
		); err != nil {
			log.Fatal("Failed to migrate database:", err)
		}
		log.Println("✅ Database migrations completed!")

		archive = storage.NewDatabaseStore(database.DB)
	}

	// Initialize the Gemini client
	generator, err := llm.NewClient()
	if err != nil {
		log.Fatal("Failed to initialize Gemini client:", err)
	}
	log.Println("✅ Gemini client initialized")

	scorer := scorecard.NewLLMScorer(generator)
	mailer := services.NewBrevoMailer()

	// SMS confirmation is optional
	sms, err := services.NewSMSService()
	if err != nil {
		log.Println("⚠️  Twilio not configured - confirmation SMS disabled")
		sms = nil
	} else {
		log.Println("✅ Twilio SMS service initialized")
	}

	interviewHandler := handlers.NewInterviewHandler(sessions, archive, generator, scorer)
	onboardingHandler := handlers.NewOnboardingHandler(sessions, mailer, sms)

	// Create fiber app
	app := fiber.New(fiber.Config{
		AppName: "Interview Assistant Backend v1.0.0",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	// Middleware
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))

	// Setup routes
	routes.SetupRoutes(app, interviewHandler, onboardingHandler)

	// Get port from environment or use default
	port := os.Getenv("PORT")
	if port == "" {
		port = "5001"
	}

	// Handle graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		log.Println("\n🛑 Gracefully shutting down...")
		_ = app.Shutdown()
	}()

	log.Println("========================================")
	log.Printf("🚀 Interview Assistant Backend starting on port %s", port)
	log.Printf("📊 Session storage: %s", getStorageType())
	log.Printf("📧 Email: %s", getMailStatus())
	log.Printf("📱 SMS: %s", getSMSStatus(sms))
	log.Println("========================================")

	log.Fatal(app.Listen(":" + port))
}

func getStorageType() string {
	if os.Getenv("USE_MEMORY_STORE") == "true" {
		return "In-Memory (Testing)"
	}
	return "Redis + PostgreSQL"
}

func getMailStatus() string {
	if os.Getenv("BREVO_KEY") == "" {
		return "Not configured (codes logged in dev)"
	}
	return "Configured (Brevo)"
}

func getSMSStatus(sms *services.SMSService) string {
	if sms == nil {
		return "Not configured"
	}
	return "Configured (Twilio)"
}
