// Package parley embeds the dialogue engine in other Go programs: compile
// a script once, then run any number of concurrent conversations over it.
//
//	script, err := parley.Compile(source)
//	if err != nil { ... }
//
//	engine := parley.New(script, parley.WithLocalRecognizer("hospital"))
//	conv := engine.NewConversation(nil)
//	defer conv.End()
//
//	reply, err := conv.Start(ctx)
//	for !reply.Done {
//		reply, err = conv.Say(ctx, readLine())
//	}
package parley

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/parley-lang/parley/internal/compiler/ast"
	"github.com/parley-lang/parley/internal/compiler/parser"
	"github.com/parley-lang/parley/internal/intent"
	"github.com/parley-lang/parley/internal/interpreter"
	"github.com/parley-lang/parley/internal/services"
	"github.com/parley-lang/parley/internal/session"
)

// CompileError is one parse problem, with its 1-based source position.
type CompileError struct {
	Line    int
	Column  int
	Message string
}

func (e CompileError) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Column, e.Message)
}

// CompileErrors aggregates every parse problem found in a script.
type CompileErrors []CompileError

func (e CompileErrors) Error() string {
	if len(e) == 1 {
		return fmt.Sprintf("1 parse error: %s", e[0])
	}
	return fmt.Sprintf("%d parse errors, first: %s", len(e), e[0])
}

// Script is a compiled dialogue, immutable and shared by every engine
// and conversation that runs it.
type Script struct {
	ast *ast.Script
}

// Compile parses dialogue source into a runnable script. The returned
// error, when non-nil, is a CompileErrors listing every problem found.
func Compile(source string) (*Script, error) {
	script, parseErrors := parser.Compile(source)
	if len(parseErrors) > 0 {
		errs := make(CompileErrors, len(parseErrors))
		for i, pe := range parseErrors {
			errs[i] = CompileError{Line: pe.Line, Column: pe.Column, Message: pe.Message}
		}
		return nil, errs
	}
	return &Script{ast: script}, nil
}

// CompileFile reads and compiles a script file.
func CompileFile(path string) (*Script, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Compile(string(source))
}

// Entry returns the step a conversation starts in.
func (s *Script) Entry() string {
	return s.ast.EntryStep
}

// Steps returns the step names in declaration order.
func (s *Script) Steps() []string {
	return append([]string(nil), s.ast.Order...)
}

// ServiceFunc implements one service reachable from Call statements. A
// returned error is delivered to the script as an {"error": ...} value,
// never as a failure of the conversation.
type ServiceFunc func(ctx context.Context, args []interface{}) (interface{}, error)

type engineConfig struct {
	recognizer intent.Recognizer
	registry   *services.Registry
}

// Option configures an Engine.
type Option func(*engineConfig)

// WithLocalRecognizer scores input against the built-in pattern library
// for the named scenario ("hospital", "restaurant", "theater"); any other
// name gets the whole library.
func WithLocalRecognizer(scenario string) Option {
	return func(c *engineConfig) {
		c.recognizer = intent.NewLocalForScenario(scenario)
	}
}

// WithRemoteRecognizer classifies input through an OpenAI-compatible chat
// endpoint, falling back to keyword matching whenever the call fails.
func WithRemoteRecognizer(apiKey, model string) Option {
	return func(c *engineConfig) {
		c.recognizer = intent.NewRemote(intent.RemoteConfig{APIKey: apiKey, Model: model})
	}
}

// WithService registers or replaces a service. The built-in demo services
// stay available unless overridden by name.
func WithService(name string, fn ServiceFunc) Option {
	return func(c *engineConfig) {
		c.registry.Register(name, services.Func(fn))
	}
}

// Engine runs one script for any number of conversations.
type Engine struct {
	interp *interpreter.Interpreter
}

// New creates an engine for the script. Without options it recognizes
// intents with the full local pattern library and serves Call statements
// from the built-in demo services.
func New(script *Script, opts ...Option) *Engine {
	cfg := &engineConfig{
		recognizer: intent.NewLocalForScenario(""),
		registry:   services.NewDefaultRegistry(),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return &Engine{interp: interpreter.New(script.ast, cfg.recognizer, cfg.registry)}
}

// Reply is one turn of dialogue output.
type Reply struct {
	// Message is everything the bot said this turn, newline-joined.
	Message string

	// Expecting lists the intents the dialogue can branch on next.
	Expecting []string

	// Done reports that the dialogue reached an Exit step. Further Say
	// calls return an error.
	Done bool
}

// Conversation is one session over an engine. Use each conversation from
// one goroutine at a time; distinct conversations may run concurrently.
type Conversation struct {
	engine *Engine
	id     string
}

// NewConversation opens a session seeded with the given variables (nil is
// fine).
func (e *Engine) NewConversation(vars map[string]interface{}) *Conversation {
	id := uuid.NewString()
	e.interp.CreateSession(id, vars)
	return &Conversation{engine: e, id: id}
}

// ID returns the session id, stable for the conversation's lifetime.
func (c *Conversation) ID() string {
	return c.id
}

// Start runs the entry step up to the first point input is needed.
func (c *Conversation) Start(ctx context.Context) (Reply, error) {
	return c.reply(c.engine.interp.Start(ctx, c.id))
}

// Say feeds one user utterance into the dialogue.
func (c *Conversation) Say(ctx context.Context, text string) (Reply, error) {
	return c.reply(c.engine.interp.ProcessInput(ctx, c.id, text))
}

// End discards the conversation's session state. Safe to call more than
// once.
func (c *Conversation) End() {
	c.engine.interp.RemoveSession(c.id)
}

func (c *Conversation) reply(output interpreter.Output) (Reply, error) {
	if output.State == session.StateError {
		return Reply{}, errors.New(output.Message)
	}
	return Reply{
		Message:   output.Message,
		Expecting: output.AvailableIntents,
		Done:      output.State == session.StateFinished,
	}, nil
}
