package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"
)

const brevoSendURL = "https://api.brevo.com/v3/smtp/email"

// Mailer delivers verification codes to candidates
type Mailer interface {
	SendVerificationCode(toEmail, code string) error
}

// BrevoMailer sends transactional email through the Brevo SMTP API
type BrevoMailer struct {
	apiKey     string
	sendURL    string
	httpClient *http.Client
}

// NewBrevoMailer creates a mailer from the BREVO_KEY environment variable.
// A missing key is not fatal here; sends will fail with a descriptive
// error so the onboarding flow can report it without blocking.
func NewBrevoMailer() *BrevoMailer {
	return &BrevoMailer{
		apiKey:     os.Getenv("BREVO_KEY"),
		sendURL:    brevoSendURL,
		httpClient: &http.Client{Timeout: 20 * time.Second},
	}
}

type brevoRecipient struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type brevoPayload struct {
	To          []brevoRecipient `json:"to"`
	Sender      brevoRecipient   `json:"sender"`
	Subject     string           `json:"subject"`
	HTMLContent string           `json:"htmlContent"`
}

// SendVerificationCode emails a verification code to the candidate
func (b *BrevoMailer) SendVerificationCode(toEmail, code string) error {
	// Outside stage/prod, log the code to assist local testing
	if !isStagingOrProduction() {
		log.Printf("[DEV] Verification code for %s: %s", toEmail, code)
	}

	if b.apiKey == "" {
		return fmt.Errorf("BREVO_KEY not configured on server")
	}

	payload, err := json.Marshal(brevoPayload{
		To:          []brevoRecipient{{Email: toEmail}},
		Sender:      brevoRecipient{Name: "Interview Assistant", Email: "anindya55@gmail.com"},
		Subject:     "Your verification code",
		HTMLContent: fmt.Sprintf("<p>Your verification code is: <strong>%s</strong></p>", code),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal email payload: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, b.sendURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build email request: %w", err)
	}
	req.Header.Set("accept", "application/json")
	req.Header.Set("content-type", "application/json")
	req.Header.Set("api-key", b.apiKey)

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		log.Printf("✅ Verification email sent to %s", toEmail)
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
	return fmt.Errorf("brevo error %d: %s", resp.StatusCode, string(body))
}

func isStagingOrProduction() bool {
	env := os.Getenv("APP_ENV")
	switch env {
	case "stage", "staging", "prod", "production":
		return true
	}
	return false
}
