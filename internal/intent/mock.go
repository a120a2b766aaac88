package intent

import (
	"context"
	"strings"
	"sync"
)

// Mock is a recognizer for tests and offline demos. Preset responses win;
// otherwise any candidate whose name appears in the utterance matches with
// fixed confidence.
type Mock struct {
	mu        sync.Mutex
	responses map[string]Result
}

var _ Recognizer = (*Mock)(nil)

func NewMock() *Mock {
	return &Mock{responses: make(map[string]Result)}
}

// SetResponse pins the result returned for an exact utterance, compared
// case-insensitively.
func (m *Mock) SetResponse(utterance string, result Result) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if result.Entities == nil {
		result.Entities = map[string]interface{}{}
	}
	m.responses[strings.ToLower(strings.TrimSpace(utterance))] = result
}

// Stub is shorthand for SetResponse with just an intent and confidence.
func (m *Mock) Stub(utterance, intent string, confidence float64) {
	m.SetResponse(utterance, Result{
		Intent:     intent,
		Confidence: confidence,
		Entities:   map[string]interface{}{},
	})
}

func (m *Mock) Recognize(_ context.Context, utterance string, candidates []string, _ *Context) Result {
	trimmed := strings.TrimSpace(utterance)
	if trimmed == "" {
		return silenceResult()
	}

	m.mu.Lock()
	preset, ok := m.responses[strings.ToLower(trimmed)]
	m.mu.Unlock()
	if ok {
		return preset
	}

	lowered := strings.ToLower(trimmed)
	for _, candidate := range candidates {
		if candidate != "" && strings.Contains(lowered, strings.ToLower(candidate)) {
			return Result{
				Intent:     candidate,
				Confidence: 0.8,
				Entities:   map[string]interface{}{},
			}
		}
	}

	return noMatch(0)
}
