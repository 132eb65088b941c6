package services

import (
	"fmt"
	"log"
	"os"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// SMSService sends the onboarding confirmation SMS via Twilio
type SMSService struct {
	client *twilio.RestClient
	from   string
}

// NewSMSService creates a new Twilio SMS service instance
func NewSMSService() (*SMSService, error) {
	accountSid := os.Getenv("TWILIO_ACCOUNT_SID")
	authToken := os.Getenv("TWILIO_AUTH_TOKEN")
	from := os.Getenv("TWILIO_PHONE_NUMBER")

	if accountSid == "" || authToken == "" || from == "" {
		return nil, fmt.Errorf("missing Twilio credentials in environment variables")
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSid,
		Password: authToken,
	})

	return &SMSService{
		client: client,
		from:   from,
	}, nil
}

// SendInterviewConfirmation texts the candidate that their interview slot
// is ready. Best-effort: callers log failures and move on.
func (s *SMSService) SendInterviewConfirmation(toPhone, name, topic string) error {
	params := &twilioApi.CreateMessageParams{}
	params.SetFrom(s.from)
	params.SetTo(fmt.Sprintf("+%s", toPhone))
	params.SetBody(fmt.Sprintf("Hi %s, you're all set for your %s interview. Good luck!", name, topic))

	resp, err := s.client.Api.CreateMessage(params)
	if err != nil {
		log.Printf("❌ Failed to send confirmation SMS: %v", err)
		return err
	}

	log.Printf("✅ Confirmation SMS sent! SID: %s", *resp.Sid)
	return nil
}
