package llm

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(url string) (*Client, *[]time.Duration) {
	client := NewClientWithURL(url)
	slept := &[]time.Duration{}
	client.sleep = func(d time.Duration) {
		*slept = append(*slept, d)
	}
	return client, slept
}

func envelope(text string) string {
	quoted, _ := json.Marshal(text)
	return `{"candidates":[{"content":{"parts":[{"text":` + string(quoted) + `}]}}]}`
}

func TestGenerateSuccess(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(envelope("Hello world\n")))
	}))
	defer server.Close()

	client, _ := newTestClient(server.URL)

	text, err := client.Generate("prompt")
	require.NoError(t, err)
	assert.Equal(t, "Hello world", text, "response text should be trimmed")
	assert.Equal(t, 1, calls)
}

func TestGenerateRetriesOnRateLimit(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(envelope("Recovered")))
	}))
	defer server.Close()

	client, slept := newTestClient(server.URL)

	text, err := client.Generate("prompt")
	require.NoError(t, err)
	assert.Equal(t, "Recovered", text)
	assert.Equal(t, 2, calls, "one retry after the 429")
	require.Len(t, *slept, 1)
	assert.Equal(t, 1*time.Second, (*slept)[0], "first backoff is backoffFactor^0 seconds")
}

func TestGenerateRateLimitExhaustsRetries(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client, slept := newTestClient(server.URL)

	_, err := client.Generate("prompt")
	require.Error(t, err)

	var callErr *CallError
	require.ErrorAs(t, err, &callErr)
	assert.Equal(t, KindRateLimited, callErr.Kind)
	assert.Equal(t, http.StatusTooManyRequests, callErr.Status)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{1 * time.Second, 2 * time.Second}, *slept)
}

func TestGenerateNonRetryableStatus(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte("bad request"))
	}))
	defer server.Close()

	client, _ := newTestClient(server.URL)

	_, err := client.Generate("prompt")
	require.Error(t, err)

	var callErr *CallError
	require.ErrorAs(t, err, &callErr)
	assert.Equal(t, KindHTTPStatus, callErr.Kind)
	assert.Equal(t, http.StatusBadRequest, callErr.Status)
	assert.Contains(t, err.Error(), "400")
	assert.Equal(t, 1, calls, "non-429 statuses are not retried")
}

func TestGenerateMalformedEnvelope(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"no candidates", `{"foo":"bar"}`},
		{"empty candidates", `{"candidates":[]}`},
		{"no parts", `{"candidates":[{"content":{"parts":[]}}]}`},
		{"empty text", envelope("")},
		{"not json", `<html>gateway error</html>`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tc.body))
			}))
			defer server.Close()

			client, _ := newTestClient(server.URL)

			_, err := client.Generate("prompt")
			require.Error(t, err)

			var callErr *CallError
			require.ErrorAs(t, err, &callErr)
			assert.Equal(t, KindBadEnvelope, callErr.Kind)
		})
	}
}

func TestGenerateNetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // connection refused from here on

	client, _ := newTestClient(server.URL)

	_, err := client.Generate("prompt")
	require.Error(t, err)

	var callErr *CallError
	require.ErrorAs(t, err, &callErr)
	assert.Equal(t, KindNetwork, callErr.Kind)
}
