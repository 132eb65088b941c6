package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/anindya-dev/interview-assistant-backend/internal/handlers"
)

// SetupRoutes configures all API routes
func SetupRoutes(app *fiber.App, interviewHandler *handlers.InterviewHandler, onboardingHandler *handlers.OnboardingHandler) {

	// Root endpoint
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Welcome to the Intelligent Interview Assistant!",
			"version": "1.0.0",
			"endpoints": fiber.Map{
				"health":              "/health",
				"start_interview":     "/start-interview",
				"submit":              "/submit",
				"onboarding_start":    "/onboarding/start",
				"onboarding_continue": "/onboarding/continue",
				"onboarding_resend":   "/onboarding/resend",
			},
		})
	})

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	// Interview routes
	app.Post("/start-interview", interviewHandler.StartInterview)
	app.Post("/submit", interviewHandler.Submit)

	// Onboarding routes
	ob := app.Group("/onboarding")
	ob.Post("/start", onboardingHandler.Start)
	ob.Post("/continue", onboardingHandler.Continue)
	ob.Post("/resend", onboardingHandler.Resend)
}
