package handlers

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/anindya-dev/interview-assistant-backend/internal/onboarding"
	"github.com/anindya-dev/interview-assistant-backend/internal/services"
	"github.com/anindya-dev/interview-assistant-backend/internal/storage"
)

// OnboardingHandler handles onboarding-related requests
type OnboardingHandler struct {
	sessions storage.SessionStore
	mailer   services.Mailer
	sms      *services.SMSService
}

// NewOnboardingHandler creates a new onboarding handler. The SMS service
// may be nil when Twilio is not configured.
func NewOnboardingHandler(sessions storage.SessionStore, mailer services.Mailer, sms *services.SMSService) *OnboardingHandler {
	return &OnboardingHandler{
		sessions: sessions,
		mailer:   mailer,
		sms:      sms,
	}
}

type onboardingRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

// Start creates an onboarding session and returns the welcome prompt
func (h *OnboardingHandler) Start(c *fiber.Ctx) error {
	session := onboarding.NewSession(h.mailer)
	resp := session.Start()

	if err := session.Save(h.sessions); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to save session",
		})
	}

	return c.JSON(fiber.Map{
		"session_id": resp.SessionID,
		"message":    resp.Message,
		"finished":   false,
	})
}

// Continue feeds one candidate message into the flow
func (h *OnboardingHandler) Continue(c *fiber.Ctx) error {
	var req onboardingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	session, err := h.loadSession(c, req.SessionID)
	if session == nil {
		return err
	}

	resp := session.Continue(req.Message)

	// Persist even on terminal failures: the terminated flag is sticky
	if err := session.Save(h.sessions); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to save session",
		})
	}

	if resp.Candidate != nil {
		h.sendConfirmation(resp.Candidate)
	}

	return c.JSON(h.render(resp))
}

// Resend re-dispatches the verification code, subject to the cooldown
func (h *OnboardingHandler) Resend(c *fiber.Ctx) error {
	var req onboardingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	session, err := h.loadSession(c, req.SessionID)
	if session == nil {
		return err
	}

	resp := session.Resend()

	if err := session.Save(h.sessions); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to save session",
		})
	}

	return c.JSON(h.render(resp))
}

// loadSession resolves the session or writes the error response; a nil
// session means the response has already been sent
func (h *OnboardingHandler) loadSession(c *fiber.Ctx, sessionID string) (*onboarding.Session, error) {
	if sessionID == "" {
		return nil, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":    "Invalid session ID",
			"finished": true,
		})
	}

	session, err := onboarding.Load(h.sessions, sessionID, h.mailer)
	if err != nil {
		return nil, c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":    "Failed to load session",
			"finished": true,
		})
	}
	if session == nil {
		return nil, c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":    "Onboarding session not found.",
			"finished": true,
		})
	}

	return session, nil
}

func (h *OnboardingHandler) render(resp onboarding.Response) fiber.Map {
	body := fiber.Map{
		"message":  resp.Message,
		"finished": resp.Finished,
	}
	if resp.Stage != "" {
		body["stage"] = resp.Stage
		body["resend_available_in"] = resp.ResendIn
		body["expires_in"] = resp.ExpiresIn
		body["attempts_left"] = resp.AttemptsLeft
	}
	if resp.Candidate != nil {
		body["candidate"] = resp.Candidate
	}
	return body
}

func (h *OnboardingHandler) sendConfirmation(candidate *onboarding.Candidate) {
	if h.sms == nil {
		return
	}
	if err := h.sms.SendInterviewConfirmation(candidate.Phone, candidate.Name, candidate.Topic); err != nil {
		log.Printf("⚠️  Confirmation SMS failed for %s: %v", candidate.Phone, err)
	}
}
