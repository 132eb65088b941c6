package onboarding

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/anindya-dev/interview-assistant-backend/internal/services"
	"github.com/anindya-dev/interview-assistant-backend/internal/storage"
	"github.com/anindya-dev/interview-assistant-backend/internal/utils"
)

// Step sequence. Steps only ever advance; done and a tripped terminated
// flag are both absorbing.
const (
	StepName      = "name"
	StepEmail     = "email"
	StepEmailCode = "email_code"
	StepPhone     = "phone"
	StepTopic     = "topic"
	StepDone      = "done"
)

const (
	CodeExpirySec     = 180 // 3 minutes
	ResendCooldownSec = 60  // 1 minute
	MaxCodeAttempts   = 3
)

// Candidate is the finalized record handed to the client when onboarding
// completes, used to start the interview
type Candidate struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
	Topic string `json:"topic"`
}

// Response is the outcome of one onboarding transition. Stage is set only
// while the verification-code metadata (ResendIn, ExpiresIn, AttemptsLeft)
// is meaningful.
type Response struct {
	SessionID    string
	Message      string
	Finished     bool
	Stage        string
	ResendIn     int
	ExpiresIn    int
	AttemptsLeft int
	Candidate    *Candidate
}

// Session walks a candidate through identity collection and the email
// verification challenge
type Session struct {
	SessionID         string
	Step              string
	Name              string
	Email             string
	Phone             string
	Topic             string
	EmailCode         string
	EmailCodeSentAt   int64 // unix seconds of the last code dispatch
	EmailCodeAttempts int
	Terminated        bool
	CreatedAt         int64

	mailer services.Mailer
	now    func() time.Time
}

// NewSession creates a fresh onboarding session
func NewSession(mailer services.Mailer) *Session {
	return &Session{
		SessionID: uuid.NewString(),
		mailer:    mailer,
		now:       time.Now,
	}
}

// Start initializes the flow and returns the welcome prompt
func (s *Session) Start() Response {
	s.Step = StepName
	s.CreatedAt = s.now().Unix()

	return Response{
		SessionID: s.SessionID,
		Message:   "Welcome to the Intelligent Interview Assistant! Let's get you set up. What's your full name?",
	}
}

// Continue validates the message against the current step's acceptance
// rule. Validation failures re-prompt without advancing; terminal failures
// trip the sticky terminated flag.
func (s *Session) Continue(message string) Response {
	if s.Terminated {
		return Response{Message: "This onboarding session has ended. Please start over.", Finished: true}
	}

	message = strings.TrimSpace(message)

	switch s.Step {
	case StepName:
		return s.handleName(message)
	case StepEmail:
		return s.handleEmail(message)
	case StepEmailCode:
		return s.handleEmailCode(message)
	case StepPhone:
		return s.handlePhone(message)
	case StepTopic:
		return s.handleTopic(message)
	case StepDone:
		return Response{Message: "Onboarding is already complete.", Finished: true}
	}

	return Response{Message: "Invalid onboarding step.", Finished: true}
}

func (s *Session) handleName(name string) Response {
	if len(name) < 2 {
		return Response{Message: "Please provide your full name."}
	}

	s.Name = name
	s.Step = StepEmail
	return Response{Message: fmt.Sprintf("Thanks, %s. What is your email address?", name)}
}

func (s *Session) handleEmail(email string) Response {
	if !looksLikeEmail(email) {
		return Response{Message: "That does not look like a valid email. Please re-enter your email address."}
	}

	s.Email = email
	sendErr := s.dispatchCode()

	// The step advances regardless of delivery success; the candidate can
	// always type RESEND.
	s.Step = StepEmailCode

	if sendErr != nil {
		return s.withVerificationMeta(fmt.Sprintf("Could not send verification email: %v. Please enter the 5-digit code if you received it, or type RESEND to try again.", sendErr))
	}
	return s.withVerificationMeta(fmt.Sprintf("I've sent a 5-digit verification code to %s. Please enter the code here. Please also check your spam folder. Type RESEND to send it again.", email))
}

func (s *Session) handleEmailCode(input string) Response {
	if s.elapsedSinceSend() > CodeExpirySec {
		s.Terminated = true
		return Response{Message: "Your verification code has expired. Please start onboarding again.", Finished: true}
	}

	if strings.EqualFold(input, "RESEND") {
		// An explicit RESEND message resets the timer without consuming an
		// attempt; the cooldown applies only to the resend endpoint
		if err := s.dispatchCode(); err != nil {
			return s.withVerificationMeta(fmt.Sprintf("Failed to resend email: %v. You can try again with RESEND or enter the code if received.", err))
		}
		return s.withVerificationMeta("A new code has been sent. Please enter the 5-digit code.")
	}

	if input == s.EmailCode {
		s.Step = StepPhone
		return Response{Message: "Email verified! What is your phone number? (digits only, include country code if outside US)"}
	}

	s.EmailCodeAttempts++
	if s.EmailCodeAttempts >= MaxCodeAttempts {
		s.Terminated = true
		return Response{Message: "Too many incorrect attempts. Verification failed; please start onboarding again.", Finished: true}
	}

	left := MaxCodeAttempts - s.EmailCodeAttempts
	return s.withVerificationMeta(fmt.Sprintf("Incorrect code. You have %d attempts left. Please try again or type RESEND.", left))
}

func (s *Session) handlePhone(phone string) Response {
	var digits strings.Builder
	for _, ch := range phone {
		if unicode.IsDigit(ch) {
			digits.WriteRune(ch)
		}
	}
	if digits.Len() < 7 {
		return Response{Message: "Please enter a valid phone number (at least 7 digits)."}
	}

	s.Phone = digits.String()
	s.Step = StepTopic
	return Response{Message: "Great. What topic are you interviewing for?"}
}

func (s *Session) handleTopic(topic string) Response {
	if len(topic) < 2 {
		return Response{Message: "Please provide a valid topic."}
	}

	s.Topic = topic
	s.Step = StepDone

	return Response{
		Message:  fmt.Sprintf("Thanks! You're all set for the %s interview.", topic),
		Finished: true,
		Candidate: &Candidate{
			Name:  s.Name,
			Email: s.Email,
			Phone: s.Phone,
			Topic: s.Topic,
		},
	}
}

// Resend regenerates and re-dispatches the verification code, honoring
// the cooldown window. Valid only while waiting on a code.
func (s *Session) Resend() Response {
	if s.Terminated {
		return Response{Message: "This onboarding session has ended. Please start over.", Finished: true}
	}
	if s.Step != StepEmailCode {
		return Response{Message: "There is no verification code to resend at this step."}
	}

	if waited := s.elapsedSinceSend(); waited < ResendCooldownSec {
		return s.withVerificationMeta(fmt.Sprintf("Please wait %d seconds before requesting a new code.", ResendCooldownSec-int(waited)))
	}

	s.EmailCodeAttempts = 0
	if err := s.dispatchCode(); err != nil {
		return s.withVerificationMeta(fmt.Sprintf("Failed to resend email: %v. You can try again shortly.", err))
	}
	return s.withVerificationMeta("A new code has been sent. Please enter the 5-digit code.")
}

// dispatchCode generates a fresh code, records the send time, and hands
// it to the mailer
func (s *Session) dispatchCode() error {
	code, err := utils.GenerateVerificationCode()
	if err != nil {
		return err
	}

	s.EmailCode = code
	s.EmailCodeSentAt = s.now().Unix()

	return s.mailer.SendVerificationCode(s.Email, code)
}

func (s *Session) elapsedSinceSend() int64 {
	if s.EmailCodeSentAt == 0 {
		return 0
	}
	return s.now().Unix() - s.EmailCodeSentAt
}

// withVerificationMeta attaches the stage and the read-time countdowns
// that the client renders next to the code prompt
func (s *Session) withVerificationMeta(message string) Response {
	elapsed := int(s.elapsedSinceSend())

	resendIn := ResendCooldownSec - elapsed
	if resendIn < 0 {
		resendIn = 0
	}
	expiresIn := CodeExpirySec - elapsed
	if expiresIn < 0 {
		expiresIn = 0
	}

	return Response{
		Message:      message,
		Stage:        StepEmailCode,
		ResendIn:     resendIn,
		ExpiresIn:    expiresIn,
		AttemptsLeft: MaxCodeAttempts - s.EmailCodeAttempts,
	}
}

func looksLikeEmail(email string) bool {
	if len(email) < 6 {
		return false
	}
	return strings.Contains(email, "@") && strings.Contains(email, ".")
}

// Key returns the store key for an onboarding session id
func Key(sessionID string) string {
	return "onboarding:" + sessionID
}

// ToFields serializes the session to a flat string hash for the store
func (s *Session) ToFields() map[string]string {
	return map[string]string{
		"session_id":          s.SessionID,
		"step":                s.Step,
		"name":                s.Name,
		"email":               s.Email,
		"phone":               s.Phone,
		"topic":               s.Topic,
		"email_code":          s.EmailCode,
		"email_code_sent_at":  strconv.FormatInt(s.EmailCodeSentAt, 10),
		"email_code_attempts": strconv.Itoa(s.EmailCodeAttempts),
		"terminated":          strconv.FormatBool(s.Terminated),
		"created_at":          strconv.FormatInt(s.CreatedAt, 10),
	}
}

// Save persists the session to the store
func (s *Session) Save(store storage.SessionStore) error {
	return store.Put(Key(s.SessionID), s.ToFields())
}

// Load reconstructs a session from the store. A nil session with a nil
// error means the session was not found.
func Load(store storage.SessionStore, sessionID string, mailer services.Mailer) (*Session, error) {
	fields, err := store.Get(Key(sessionID))
	if err != nil {
		return nil, err
	}
	if fields == nil {
		return nil, nil
	}

	s := &Session{
		SessionID: fields["session_id"],
		Step:      fields["step"],
		Name:      fields["name"],
		Email:     fields["email"],
		Phone:     fields["phone"],
		Topic:     fields["topic"],
		EmailCode: fields["email_code"],
		mailer:    mailer,
		now:       time.Now,
	}
	if s.SessionID == "" {
		s.SessionID = sessionID
	}
	if s.Step == "" {
		s.Step = StepName
	}
	if sentAt, err := strconv.ParseInt(fields["email_code_sent_at"], 10, 64); err == nil {
		s.EmailCodeSentAt = sentAt
	}
	if attempts, err := strconv.Atoi(fields["email_code_attempts"]); err == nil {
		s.EmailCodeAttempts = attempts
	}
	if terminated, err := strconv.ParseBool(fields["terminated"]); err == nil {
		s.Terminated = terminated
	}
	if createdAt, err := strconv.ParseInt(fields["created_at"], 10, 64); err == nil {
		s.CreatedAt = createdAt
	}

	return s, nil
}
