package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

const defaultAPIURLFormat = "https://generativelanguage.googleapis.com/v1beta/models/gemini-1.5-pro-latest:generateContent?key=%s"

// ErrorKind classifies why a generation call failed
type ErrorKind string

const (
	KindHTTPStatus  ErrorKind = "http_status"  // non-retryable HTTP error status
	KindRateLimited ErrorKind = "rate_limited" // 429 responses exhausted all retries
	KindBadEnvelope ErrorKind = "bad_envelope" // 2xx but no usable candidate text
	KindNetwork     ErrorKind = "network"      // transport-level failure
)

// CallError carries the failure details of a generation call. It is always
// returned as a value; the client never panics past this boundary.
type CallError struct {
	Kind   ErrorKind
	Status int
	Body   string
}

func (e *CallError) Error() string {
	switch e.Kind {
	case KindHTTPStatus:
		return fmt.Sprintf("API request failed with status %d: %s", e.Status, e.Body)
	case KindRateLimited:
		return fmt.Sprintf("API request failed after multiple retries (last status %d)", e.Status)
	case KindBadEnvelope:
		return fmt.Sprintf("unexpected API response format: %s", e.Body)
	default:
		return fmt.Sprintf("API request failed: %s", e.Body)
	}
}

// Generator is the single-call contract both state machines depend on
type Generator interface {
	Generate(prompt string) (string, error)
}

// Client calls the Gemini generateContent endpoint with retry and backoff.
// It is stateless and safe to share across sessions.
type Client struct {
	apiURL        string
	httpClient    *http.Client
	retries       int
	backoffFactor int
	sleep         func(time.Duration)
}

// NewClient creates a client from the GEMINI_API_KEY environment variable
func NewClient() (*Client, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("missing GEMINI_API_KEY in environment variables")
	}
	return NewClientWithURL(fmt.Sprintf(defaultAPIURLFormat, apiKey)), nil
}

// NewClientWithURL creates a client against an explicit endpoint
func NewClientWithURL(apiURL string) *Client {
	return &Client{
		apiURL:        apiURL,
		httpClient:    &http.Client{Timeout: 120 * time.Second},
		retries:       3,
		backoffFactor: 2,
		sleep:         time.Sleep,
	}
}

// Request/response envelope for the generateContent API.
// Only the first candidate's first part is ever read.
type generateRequest struct {
	Contents []reqContent `json:"contents"`
}

type reqContent struct {
	Parts []reqPart `json:"parts"`
}

type reqPart struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Generate sends the prompt and returns the generated text. Only HTTP 429
// is retried (up to 3 attempts, sleeping backoffFactor^attempt seconds);
// every other failure is returned immediately as a *CallError.
func (c *Client) Generate(prompt string) (string, error) {
	payload, err := json.Marshal(generateRequest{
		Contents: []reqContent{{Parts: []reqPart{{Text: prompt}}}},
	})
	if err != nil {
		return "", &CallError{Kind: KindNetwork, Body: err.Error()}
	}

	var lastStatus int
	for attempt := 0; attempt < c.retries; attempt++ {
		resp, err := c.httpClient.Post(c.apiURL, "application/json", bytes.NewReader(payload))
		if err != nil {
			return "", &CallError{Kind: KindNetwork, Body: err.Error()}
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			return "", &CallError{Kind: KindNetwork, Status: resp.StatusCode, Body: readErr.Error()}
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			lastStatus = resp.StatusCode
			if attempt < c.retries-1 {
				wait := 1
				for i := 0; i < attempt; i++ {
					wait *= c.backoffFactor
				}
				c.sleep(time.Duration(wait) * time.Second)
				continue
			}
			break
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return "", &CallError{Kind: KindHTTPStatus, Status: resp.StatusCode, Body: string(body)}
		}

		var envelope generateResponse
		if err := json.Unmarshal(body, &envelope); err != nil {
			return "", &CallError{Kind: KindBadEnvelope, Status: resp.StatusCode, Body: string(body)}
		}

		if len(envelope.Candidates) > 0 && len(envelope.Candidates[0].Content.Parts) > 0 {
			text := strings.TrimSpace(envelope.Candidates[0].Content.Parts[0].Text)
			if text != "" {
				return text, nil
			}
		}

		return "", &CallError{Kind: KindBadEnvelope, Status: resp.StatusCode, Body: string(body)}
	}

	return "", &CallError{Kind: KindRateLimited, Status: lastStatus}
}
