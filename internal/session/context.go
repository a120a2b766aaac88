package session

import (
	"sync"
	"time"
)

// History roles. Speak output is recorded as the assistant; utterances
// passed to ProcessInput are recorded as the user.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// HistoryEntry is one turn of the conversation
type HistoryEntry struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Context is the mutable execution state of one dialogue session.
//
// Operations on a session are serialized as a whole: the interpreter
// holds the lock from Lock across an entire Start or ProcessInput call.
// The mutating helpers below expect that lock to already be held and do
// not lock themselves.
type Context struct {
	mu sync.Mutex

	// SessionID uniquely identifies the session within the registry
	SessionID string `json:"session_id"`

	// CurrentStep names the step the session is positioned at
	CurrentStep string `json:"current_step"`

	// State is the lifecycle phase of the session
	State State `json:"state"`

	// Variables holds script variables: initial values, Set results,
	// and entities copied in from intent recognition
	Variables map[string]interface{} `json:"variables"`

	// AvailableIntents mirrors the branch intents of the current step,
	// in declaration order, duplicates preserved
	AvailableIntents []string `json:"available_intents"`

	// History records the conversation in insertion order
	History []HistoryEntry `json:"history"`

	// LastError holds the message that moved the session to StateError
	LastError string `json:"last_error,omitempty"`
}

// NewContext creates a session context positioned at no step, in
// StateIdle, with its own copy of the initial variables
func NewContext(id string, initialVars map[string]interface{}) *Context {
	vars := make(map[string]interface{}, len(initialVars))
	for k, v := range initialVars {
		vars[k] = v
	}
	return &Context{
		SessionID:        id,
		State:            StateIdle,
		Variables:        vars,
		AvailableIntents: []string{},
		History:          []HistoryEntry{},
	}
}

// Lock acquires the per-session lock
func (c *Context) Lock() { c.mu.Lock() }

// Unlock releases the per-session lock
func (c *Context) Unlock() { c.mu.Unlock() }

// AddHistory appends one turn to the conversation history
func (c *Context) AddHistory(role, content string) {
	c.History = append(c.History, HistoryEntry{
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	})
}

// RecentHistory returns a copy of the last n history entries
func (c *Context) RecentHistory(n int) []HistoryEntry {
	start := len(c.History) - n
	if start < 0 {
		start = 0
	}
	out := make([]HistoryEntry, len(c.History)-start)
	copy(out, c.History[start:])
	return out
}

// SetError moves the session to StateError with the given message
func (c *Context) SetError(message string) {
	c.State = StateError
	c.LastError = message
}

// VariablesSnapshot returns a locked copy of the session variables,
// for callers outside an interpreter operation
func (c *Context) VariablesSnapshot() map[string]interface{} {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make(map[string]interface{}, len(c.Variables))
	for k, v := range c.Variables {
		out[k] = v
	}
	return out
}
