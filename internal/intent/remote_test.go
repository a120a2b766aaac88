package intent

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeChatResponse wraps content in a minimal chat completions reply.
func writeChatResponse(t *testing.T, w http.ResponseWriter, content string) {
	t.Helper()
	resp := map[string]interface{}{
		"id":    "resp-1",
		"model": "test-model",
		"choices": []map[string]interface{}{
			{
				"index": 0,
				"message": map[string]interface{}{
					"role":    "assistant",
					"content": content,
				},
				"finish_reason": "stop",
			},
		},
	}
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(resp))
}

func newTestRemote(url string) *Remote {
	return NewRemote(RemoteConfig{
		APIKey:     "test-key",
		Model:      "test-model",
		BaseURL:    url,
		Timeout:    5 * time.Second,
		MaxRetries: 2,
	})
}

func TestRemoteRecognize(t *testing.T) {
	var gotAuth string
	var gotPrompt string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 1)
		gotPrompt = req.Messages[0].Content

		writeChatResponse(t, w, `Here is the result:
{"intent": "register", "confidence": 0.92, "entities": {"department": "internal medicine"}}`)
	}))
	defer server.Close()

	r := newTestRemote(server.URL)
	result := r.Recognize(context.Background(), "i want to see a doctor", []string{"register", "pay"}, &Context{
		History: []Exchange{{Role: "assistant", Content: "Welcome to the hospital"}},
	})

	assert.Equal(t, "register", result.Intent)
	assert.Equal(t, 0.92, result.Confidence)
	assert.Equal(t, "internal medicine", result.Entities["department"])
	assert.False(t, result.IsSilence)

	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Contains(t, gotPrompt, "- register")
	assert.Contains(t, gotPrompt, "- pay")
	assert.Contains(t, gotPrompt, "i want to see a doctor")
	assert.Contains(t, gotPrompt, "Welcome to the hospital")
}

func TestRemoteRetriesOnRateLimit(t *testing.T) {
	var calls int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error": "slow down"}`))
			return
		}
		writeChatResponse(t, w, `{"intent": "pay", "confidence": 0.8, "entities": {}}`)
	}))
	defer server.Close()

	r := newTestRemote(server.URL)
	start := time.Now()
	result := r.Recognize(context.Background(), "settle my bill", []string{"pay"}, nil)

	assert.Equal(t, "pay", result.Intent)
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
	// One retry means one backoff of roughly a second.
	assert.GreaterOrEqual(t, time.Since(start), time.Second)
}

func TestRemoteServerErrorDoesNotRetry(t *testing.T) {
	var calls int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	r := newTestRemote(server.URL)
	result := r.Recognize(context.Background(), "i want to register now", []string{"register", "pay"}, nil)

	// One attempt, then straight to the keyword fallback.
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
	assert.Equal(t, "register", result.Intent)
	assert.Equal(t, 0.6, result.Confidence)
}

func TestRemoteMalformedJSONFallsBack(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeChatResponse(t, w, "I believe the user wants to register.")
	}))
	defer server.Close()

	r := newTestRemote(server.URL)
	result := r.Recognize(context.Background(), "i want to register please", []string{"register", "pay"}, nil)

	assert.Equal(t, "register", result.Intent)
	assert.Equal(t, 0.6, result.Confidence)
}

func TestRemoteUnreachableEndpointFallsBack(t *testing.T) {
	r := NewRemote(RemoteConfig{
		APIKey:  "test-key",
		BaseURL: "http://127.0.0.1:1",
		Timeout: time.Second,
	})

	result := r.Recognize(context.Background(), "register now", []string{"register_desk"}, nil)

	// "register" is a word of the utterance contained in the candidate.
	assert.Equal(t, "register_desk", result.Intent)
	assert.Equal(t, 0.4, result.Confidence)
}

func TestRemoteSnapsIntentName(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeChatResponse(t, w, `{"intent": "Register", "confidence": 0.9, "entities": {}}`)
	}))
	defer server.Close()

	r := newTestRemote(server.URL)
	result := r.Recognize(context.Background(), "sign me up", []string{"register", "pay"}, nil)

	assert.Equal(t, "register", result.Intent)
	assert.Equal(t, 0.9, result.Confidence)
}

func TestRemoteUnknownIntentIsNoMatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeChatResponse(t, w, `{"intent": "banana", "confidence": 0.9, "entities": {}}`)
	}))
	defer server.Close()

	r := newTestRemote(server.URL)
	result := r.Recognize(context.Background(), "qq zz xx", []string{"register", "pay"}, nil)

	assert.Equal(t, "", result.Intent)
	assert.Equal(t, 0.0, result.Confidence)
}

func TestRemoteEmptyIntentKeepsConfidence(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeChatResponse(t, w, `{"intent": "", "confidence": 0.2, "entities": {}}`)
	}))
	defer server.Close()

	r := newTestRemote(server.URL)
	result := r.Recognize(context.Background(), "qq zz xx", []string{"register"}, nil)

	assert.Equal(t, "", result.Intent)
	assert.Equal(t, 0.2, result.Confidence)
}

func TestRemoteConfidenceClamped(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeChatResponse(t, w, `{"intent": "register", "confidence": 7.5, "entities": {}}`)
	}))
	defer server.Close()

	r := newTestRemote(server.URL)
	result := r.Recognize(context.Background(), "register", []string{"register"}, nil)

	assert.Equal(t, 1.0, result.Confidence)
}

func TestRemoteSilenceSkipsNetwork(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer server.Close()

	r := newTestRemote(server.URL)
	result := r.Recognize(context.Background(), "  \t ", []string{"register"}, nil)

	assert.True(t, result.IsSilence)
	assert.EqualValues(t, 0, atomic.LoadInt32(&calls))
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
		ok   bool
	}{
		{
			"bare object",
			`{"intent": "x"}`,
			`{"intent": "x"}`,
			true,
		},
		{
			"code fence",
			"```json\n{\"intent\": \"x\"}\n```",
			`{"intent": "x"}`,
			true,
		},
		{
			"nested braces",
			`result: {"intent": "x", "entities": {"n": 1}} done`,
			`{"intent": "x", "entities": {"n": 1}}`,
			true,
		},
		{
			"brace inside string",
			`{"intent": "weird { name"}`,
			`{"intent": "weird { name"}`,
			true,
		},
		{"no object", "just prose", "", false},
		{"unbalanced", `{"intent": "x"`, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := extractJSON(tt.text)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFallbackMatch(t *testing.T) {
	// Candidate name contained in the utterance scores higher than a
	// shared word.
	result := fallbackMatch("i want to pay now", []string{"register", "pay"})
	assert.Equal(t, "pay", result.Intent)
	assert.Equal(t, 0.6, result.Confidence)

	result = fallbackMatch("pay now", []string{"pay_fees"})
	assert.Equal(t, "pay_fees", result.Intent)
	assert.Equal(t, 0.4, result.Confidence)

	result = fallbackMatch("nothing relevant", []string{"register"})
	assert.Equal(t, "", result.Intent)
	assert.Equal(t, 0.0, result.Confidence)
}

func TestSnapToCandidate(t *testing.T) {
	candidates := []string{"register", "pay_fees"}

	assert.Equal(t, "register", snapToCandidate("Register", candidates))
	assert.Equal(t, "register", snapToCandidate("the register intent", candidates))
	assert.Equal(t, "pay_fees", snapToCandidate("pay", candidates))
	assert.Equal(t, "", snapToCandidate("banana", candidates))
	assert.Equal(t, "", snapToCandidate("", candidates))
}

func TestBuildPromptOmitsEmptyContext(t *testing.T) {
	prompt := buildPrompt("hello", []string{"greet"}, nil)
	assert.NotContains(t, prompt, "conversation context")

	prompt = buildPrompt("hello", []string{"greet"}, &Context{})
	assert.NotContains(t, prompt, "conversation context")

	prompt = buildPrompt("hello", []string{"greet"}, &Context{
		Variables: map[string]interface{}{"name": "ada"},
	})
	assert.Contains(t, prompt, "conversation context")
	assert.Contains(t, prompt, "ada")
}
