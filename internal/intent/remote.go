package intent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

// errRateLimited marks an HTTP 429 so the retry loop can tell throttling
// apart from permanent failures.
var errRateLimited = errors.New("rate limited")

// truncateForError truncates response bodies in error messages to prevent
// logging sensitive information like API keys.
func truncateForError(body []byte) string {
	s := string(body)
	if len(s) > 200 {
		return s[:200] + "... (truncated)"
	}
	return s
}

// RemoteConfig configures the LLM-backed recognizer.
type RemoteConfig struct {
	APIKey string
	Model  string

	// BaseURL is a chat-completions style endpoint. Defaults to OpenAI's.
	BaseURL string

	// Timeout bounds each individual request. Defaults to 30 seconds.
	Timeout time.Duration

	// MaxRetries is the number of retries after the first attempt, taken
	// only on rate limiting or timeouts. Defaults to 2, so 3 attempts.
	MaxRetries int
}

func (c *RemoteConfig) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = "https://api.openai.com/v1/chat/completions"
	}
	if c.Model == "" {
		c.Model = "gpt-4o-mini"
	}
	if c.Timeout == 0 {
		c.Timeout = 30 * time.Second
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 2
	}
}

// Remote classifies utterances by asking an LLM endpoint. It is total: any
// failure, including exhausted retries or unparseable responses, degrades
// to plain keyword matching against the candidate names, so Recognize never
// surfaces an error to the session.
type Remote struct {
	config     RemoteConfig
	httpClient *http.Client
}

var _ Recognizer = (*Remote)(nil)

// NewRemote creates a recognizer talking to a chat-completions endpoint.
func NewRemote(config RemoteConfig) *Remote {
	config.applyDefaults()
	return &Remote{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
	}
}

// chatRequest is the request body for the chat completions API.
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

// chatMessage is one message in the chat completions API.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatResponse is the response from the chat completions API.
type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Index   int `json:"index"`
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

// modelResult is the JSON object the prompt asks the model to produce.
type modelResult struct {
	Intent     string                 `json:"intent"`
	Confidence float64                `json:"confidence"`
	Entities   map[string]interface{} `json:"entities"`
}

func (r *Remote) Recognize(ctx context.Context, utterance string, candidates []string, conv *Context) Result {
	if strings.TrimSpace(utterance) == "" {
		return silenceResult()
	}

	prompt := buildPrompt(utterance, candidates, conv)

	response, err := r.generate(ctx, prompt)
	if err != nil {
		return fallbackMatch(utterance, candidates)
	}

	block, ok := extractJSON(response)
	if !ok {
		return fallbackMatch(utterance, candidates)
	}

	var parsed modelResult
	if err := json.Unmarshal([]byte(block), &parsed); err != nil {
		return fallbackMatch(utterance, candidates)
	}

	intent := strings.TrimSpace(parsed.Intent)
	confidence := clamp01(parsed.Confidence)
	entities := parsed.Entities
	if entities == nil {
		entities = map[string]interface{}{}
	}

	// The model must name one of the candidates. Snap near misses by
	// substring; anything else counts as no match.
	if intent != "" && !containsExact(candidates, intent) {
		snapped := snapToCandidate(intent, candidates)
		if snapped == "" {
			intent = ""
			confidence = 0
		} else {
			intent = snapped
		}
	}

	return Result{
		Intent:     intent,
		Confidence: confidence,
		Entities:   entities,
	}
}

// generate sends the prompt, retrying with exponential backoff when the
// endpoint throttles or times out. Other failures are permanent and return
// immediately.
func (r *Remote) generate(ctx context.Context, prompt string) (string, error) {
	req := chatRequest{
		Model: r.config.Model,
		Messages: []chatMessage{
			{
				Role:    "user",
				Content: prompt,
			},
		},
		Temperature: 0.1,
		MaxTokens:   256,
	}

	var lastErr error
	for attempt := 0; attempt <= r.config.MaxRetries; attempt++ {
		if attempt > 0 {
			// Exponential backoff: 1s, 2s, 4s
			backoff := time.Duration(1<<uint(attempt-1)) * time.Second
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
		}

		response, err := r.makeRequest(ctx, req)
		if err == nil {
			return response, nil
		}

		lastErr = err

		// Don't retry on context cancellation
		if ctx.Err() != nil {
			return "", ctx.Err()
		}

		if !retryable(err) {
			break
		}
	}

	return "", fmt.Errorf("intent request failed: %w", lastErr)
}

// makeRequest performs a single API request.
func (r *Remote) makeRequest(ctx context.Context, req chatRequest) (string, error) {
	bodyBytes, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", r.config.BaseURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+r.config.APIKey)

	resp, err := r.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return "", fmt.Errorf("%w: %s", errRateLimited, truncateForError(body))
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API returned status %d: %s", resp.StatusCode, truncateForError(body))
	}

	var chatResp chatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}

	return chatResp.Choices[0].Message.Content, nil
}

// retryable reports whether the request should be attempted again: only
// rate limiting and network timeouts qualify.
func retryable(err error) bool {
	if errors.Is(err, errRateLimited) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}

// buildPrompt lists the candidates, attaches conversation context when
// present, and pins the model to a JSON-only answer.
func buildPrompt(utterance string, candidates []string, conv *Context) string {
	var b strings.Builder

	b.WriteString("You are an intent classifier for a customer service dialogue system. ")
	b.WriteString("Analyze the user's input and identify their intent.\n\n")

	b.WriteString("Available intent categories:\n")
	for _, candidate := range candidates {
		fmt.Fprintf(&b, "- %s\n", candidate)
	}

	if conv != nil && (len(conv.Variables) > 0 || len(conv.History) > 0) {
		if data, err := json.MarshalIndent(conv, "", "  "); err == nil {
			b.WriteString("\nCurrent conversation context:\n")
			b.Write(data)
			b.WriteString("\n")
		}
	}

	fmt.Fprintf(&b, "\nUser input: %q\n\n", utterance)

	b.WriteString("Return the result as JSON in this exact shape:\n")
	b.WriteString("{\n")
	b.WriteString("    \"intent\": \"one of the categories above, or an empty string if none match\",\n")
	b.WriteString("    \"confidence\": 0.0 to 1.0,\n")
	b.WriteString("    \"entities\": {relevant extracted values such as quantities or names}\n")
	b.WriteString("}\n\n")
	b.WriteString("Rules:\n")
	b.WriteString("1. intent must exactly match one of the listed categories\n")
	b.WriteString("2. if the input matches none of them, return an empty string for intent\n")
	b.WriteString("3. return only the JSON, no other text\n")

	return b.String()
}

// extractJSON returns the first balanced {...} block in text. Models often
// wrap their answer in prose or code fences; this digs the object out.
func extractJSON(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}

	return "", false
}

// snapToCandidate resolves a near-miss intent name to a candidate by
// case-insensitive substring in either direction. First hit wins.
func snapToCandidate(name string, candidates []string) string {
	lowered := strings.ToLower(name)
	if lowered == "" {
		return ""
	}

	for _, candidate := range candidates {
		cl := strings.ToLower(candidate)
		if strings.Contains(cl, lowered) || strings.Contains(lowered, cl) {
			return candidate
		}
	}

	return ""
}

func containsExact(candidates []string, name string) bool {
	for _, c := range candidates {
		if c == name {
			return true
		}
	}
	return false
}

// fallbackMatch is the no-model degradation path: a candidate whose name
// appears in the utterance matches at 0.6, a word of the utterance
// appearing inside a candidate name matches at 0.4.
func fallbackMatch(utterance string, candidates []string) Result {
	text := strings.ToLower(utterance)

	for _, candidate := range candidates {
		cl := strings.ToLower(candidate)
		if cl == "" {
			continue
		}

		if strings.Contains(text, cl) {
			return Result{
				Intent:     candidate,
				Confidence: 0.6,
				Entities:   map[string]interface{}{},
			}
		}

		for _, word := range strings.Fields(text) {
			if len([]rune(word)) > 1 && strings.Contains(cl, word) {
				return Result{
					Intent:     candidate,
					Confidence: 0.4,
					Entities:   map[string]interface{}{},
				}
			}
		}
	}

	return noMatch(0)
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
