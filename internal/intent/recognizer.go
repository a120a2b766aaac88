// Package intent turns free-form user utterances into intent names.
//
// Two implementations are provided: Local scores utterances against
// keyword/pattern libraries without any network access, and Remote asks an
// LLM endpoint to classify the utterance. Both are total: they never return
// an error, and a failed remote call degrades to keyword matching so a
// session can always make progress.
package intent

import "context"

// Result is the outcome of recognizing a single utterance.
type Result struct {
	// Intent is the matched intent name, or "" when nothing matched with
	// enough confidence.
	Intent string `json:"intent"`

	// Confidence is in [0, 1].
	Confidence float64 `json:"confidence"`

	// Entities holds values extracted from the utterance, keyed by entity
	// name. Recognizers that extract nothing return an empty map, never nil.
	Entities map[string]interface{} `json:"entities"`

	// IsSilence reports that the utterance was empty or whitespace-only.
	IsSilence bool `json:"is_silence"`
}

// Exchange is one prior turn of the conversation.
type Exchange struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Context carries conversation state that can sharpen recognition. Both
// fields may be empty; recognizers must treat a nil Context like an empty
// one.
type Context struct {
	Variables map[string]interface{} `json:"variables,omitempty"`
	History   []Exchange             `json:"history,omitempty"`
}

// Recognizer classifies an utterance against a set of candidate intents.
//
// candidates lists the intent names the current step can branch on, in
// branch order. An empty candidate list means the recognizer may consider
// everything it knows about. Implementations must be safe for concurrent
// use and must return the same Result for the same inputs.
type Recognizer interface {
	Recognize(ctx context.Context, utterance string, candidates []string, conv *Context) Result
}

// silenceResult is what every recognizer returns for blank input.
func silenceResult() Result {
	return Result{
		Intent:     "",
		Confidence: 0,
		Entities:   map[string]interface{}{},
		IsSilence:  true,
	}
}

// noMatch builds a no-intent result that still reports how close the best
// candidate came.
func noMatch(confidence float64) Result {
	return Result{
		Intent:     "",
		Confidence: confidence,
		Entities:   map[string]interface{}{},
	}
}
