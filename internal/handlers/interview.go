package handlers

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/anindya-dev/interview-assistant-backend/internal/interview"
	"github.com/anindya-dev/interview-assistant-backend/internal/llm"
	"github.com/anindya-dev/interview-assistant-backend/internal/models"
	"github.com/anindya-dev/interview-assistant-backend/internal/scorecard"
	"github.com/anindya-dev/interview-assistant-backend/internal/storage"
)

// InterviewHandler handles interview-related requests
type InterviewHandler struct {
	sessions  storage.SessionStore
	archive   storage.InterviewStore
	generator llm.Generator
	scorer    scorecard.Scorer
}

// NewInterviewHandler creates a new interview handler. The archive store
// may be nil when no database is configured.
func NewInterviewHandler(sessions storage.SessionStore, archive storage.InterviewStore, generator llm.Generator, scorer scorecard.Scorer) *InterviewHandler {
	return &InterviewHandler{
		sessions:  sessions,
		archive:   archive,
		generator: generator,
		scorer:    scorer,
	}
}

type startInterviewRequest struct {
	Topic string `json:"topic"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type submitRequest struct {
	SessionID string `json:"session_id"`
	Answer    string `json:"answer"`
}

// StartInterview creates a session and generates the first question
func (h *InterviewHandler) StartInterview(c *fiber.Ctx) error {
	var req startInterviewRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Topic == "" || req.Name == "" || req.Email == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Topic, name, and email are required.",
		})
	}

	session := interview.NewSession(req.Topic, req.Name, req.Email, h.generator, h.scorer)

	question, err := session.Start()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	if err := session.Save(h.sessions); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to save session",
		})
	}

	return c.JSON(fiber.Map{
		"session_id": session.SessionID,
		"question":   question,
	})
}

// Submit records an answer and returns the next question or the
// completion message
func (h *InterviewHandler) Submit(c *fiber.Ctx) error {
	var req submitRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":    "Invalid request body",
			"finished": true,
		})
	}

	if req.SessionID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":    "Invalid session ID",
			"finished": true,
		})
	}

	session, err := interview.Load(h.sessions, req.SessionID, h.generator, h.scorer)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":    "Failed to load session",
			"finished": true,
		})
	}
	if session == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":    "Session expired or not found.",
			"finished": true,
		})
	}

	result, err := session.Advance(req.Answer)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":    err.Error(),
			"finished": true,
		})
	}

	if result.Finished {
		if err := h.sessions.Delete(interview.Key(session.SessionID)); err != nil {
			log.Printf("⚠️  Failed to delete finished session %s: %v", session.SessionID, err)
		}
		h.archiveInterview(session, result.AverageScore)

		return c.JSON(fiber.Map{
			"question":      "Thank you for your time! The interview is now complete.",
			"finished":      true,
			"average_score": result.AverageScore,
		})
	}

	if err := session.Save(h.sessions); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":    "Failed to save session",
			"finished": true,
		})
	}

	return c.JSON(fiber.Map{
		"question": result.Question,
		"finished": false,
	})
}

// archiveInterview persists the finished interview. Best-effort: failures
// are logged and never surfaced to the candidate.
func (h *InterviewHandler) archiveInterview(session *interview.Session, averageScore float64) {
	if h.archive == nil {
		return
	}

	record := &models.Interview{
		CandidateName:  session.Name,
		CandidateEmail: session.Email,
		Topic:          session.Topic,
		AverageScore:   averageScore,
	}
	for _, qa := range session.Exchanges {
		record.Results = append(record.Results, models.Result{
			Question:  qa.Question,
			Answer:    qa.Answer,
			LLMAnswer: qa.LLMAnswer,
			Score:     qa.Score,
		})
	}

	if _, err := h.archive.SaveInterview(record); err != nil {
		log.Printf("⚠️  Failed to archive interview %s: %v", session.SessionID, err)
		return
	}
	log.Printf("✅ Interview archived for %s (avg score %.2f)", session.Email, averageScore)
}
