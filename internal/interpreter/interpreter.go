// Package interpreter executes parsed dialogue scripts as per-session state
// machines. One Interpreter serves many concurrent sessions of the same
// script: the AST is shared read-only, and each session's context carries
// its own lock, held across a whole Start or ProcessInput call.
package interpreter

import (
	"context"
	"fmt"
	"strings"

	"github.com/parley-lang/parley/internal/compiler/ast"
	"github.com/parley-lang/parley/internal/intent"
	"github.com/parley-lang/parley/internal/services"
	"github.com/parley-lang/parley/internal/session"
)

// maxLoopIterations caps While bodies so a script bug cannot wedge a session.
const maxLoopIterations = 1000

// unmatchedInputMessage is returned when input matches no branch and the
// step has no default handler.
const unmatchedInputMessage = "Sorry, I didn't understand. Please try again."

// Output is what Start and ProcessInput hand back to the caller: everything
// said since the last suspension plus where the session stands now.
type Output struct {
	// Message joins all Speak lines emitted since the last suspension
	// with newlines, in emission order.
	Message string `json:"message"`

	State session.State `json:"state"`

	WaitingForInput bool `json:"waiting_for_input"`

	// AvailableIntents lists the current step's branch intents in source
	// order, duplicates preserved.
	AvailableIntents []string `json:"available_intents"`
}

// Interpreter runs one script for any number of sessions.
type Interpreter struct {
	script     *ast.Script
	recognizer intent.Recognizer
	services   services.Handler
	sessions   *session.Registry
}

// New creates an interpreter for the given script. A nil handler gets the
// default service registry with the built-in demo services.
func New(script *ast.Script, recognizer intent.Recognizer, handler services.Handler) *Interpreter {
	if handler == nil {
		handler = services.NewDefaultRegistry()
	}
	return &Interpreter{
		script:     script,
		recognizer: recognizer,
		services:   handler,
		sessions:   session.NewRegistry(),
	}
}

// Script returns the shared, immutable script this interpreter runs.
func (i *Interpreter) Script() *ast.Script {
	return i.script
}

// CreateSession registers a fresh context positioned at the entry step in
// state IDLE. An existing session with the same id is replaced; uniqueness
// is the caller's responsibility.
func (i *Interpreter) CreateSession(sessionID string, initialVariables map[string]interface{}) *session.Context {
	sctx := session.NewContext(sessionID, initialVariables)
	sctx.CurrentStep = i.script.EntryStep
	i.sessions.Put(sctx)
	return sctx
}

// GetSession looks up a session context.
func (i *Interpreter) GetSession(sessionID string) (*session.Context, error) {
	return i.sessions.Get(sessionID)
}

// RemoveSession drops a session. Removing an unknown id is a no-op.
func (i *Interpreter) RemoveSession(sessionID string) {
	i.sessions.Delete(sessionID)
}

// SessionCount reports how many sessions are registered.
func (i *Interpreter) SessionCount() int {
	return i.sessions.Count()
}

// Start begins or resumes execution at the session's current step and runs
// until the first suspension.
func (i *Interpreter) Start(ctx context.Context, sessionID string) Output {
	sctx, err := i.sessions.Get(sessionID)
	if err != nil {
		return errorOutput(fmt.Sprintf("session %q does not exist", sessionID))
	}

	sctx.Lock()
	defer sctx.Unlock()

	sctx.State = session.StateRunning
	return i.run(ctx, sctx)
}

// ProcessInput feeds one user utterance into a waiting session. If the
// session does not exist or is not waiting for input, an ERROR output is
// returned and the session context is left untouched.
func (i *Interpreter) ProcessInput(ctx context.Context, sessionID, userText string) Output {
	sctx, err := i.sessions.Get(sessionID)
	if err != nil {
		return errorOutput(fmt.Sprintf("session %q does not exist", sessionID))
	}

	sctx.Lock()
	defer sctx.Unlock()

	if sctx.State != session.StateWaitingInput {
		return errorOutput(fmt.Sprintf("session %q is not waiting for input (state %s)", sessionID, sctx.State))
	}

	step, ok := i.script.Lookup(sctx.CurrentStep)
	if !ok {
		sctx.SetError(fmt.Sprintf("unknown step: %q", sctx.CurrentStep))
		return errorOutput(sctx.LastError)
	}

	sctx.AddHistory(session.RoleUser, userText)

	result := i.recognizer.Recognize(ctx, userText, sctx.AvailableIntents, &intent.Context{
		Variables: sctx.Variables,
		History:   recentExchanges(sctx, 5),
	})

	target := nextStep(result, step, sctx)
	if target == "" {
		return Output{
			Message:          unmatchedInputMessage,
			State:            session.StateWaitingInput,
			WaitingForInput:  true,
			AvailableIntents: sctx.AvailableIntents,
		}
	}

	sctx.CurrentStep = target
	sctx.State = session.StateRunning
	return i.run(ctx, sctx)
}

// nextStep resolves the recognition result against the step's routing:
// silence handler first, then the first branch whose intent literal matches
// exactly, then the default handler. A branch match also copies the
// recognized entities into session variables. Returns "" when nothing
// routes.
func nextStep(result intent.Result, step *ast.Step, sctx *session.Context) string {
	if result.IsSilence && step.SilenceTarget != "" {
		return step.SilenceTarget
	}

	if result.Intent != "" {
		for _, branch := range step.Branches {
			if branch.Intent == result.Intent {
				for key, value := range result.Entities {
					sctx.Variables[key] = value
				}
				return branch.Target
			}
		}
	}

	return step.DefaultTarget
}

// recentExchanges converts the tail of the session history for the
// recognizer.
func recentExchanges(sctx *session.Context, n int) []intent.Exchange {
	entries := sctx.RecentHistory(n)
	exchanges := make([]intent.Exchange, len(entries))
	for i, entry := range entries {
		exchanges[i] = intent.Exchange{Role: entry.Role, Content: entry.Content}
	}
	return exchanges
}

// control is how statement execution reports early exits from a block.
type control int

const (
	ctrlNone control = iota
	ctrlExit
	ctrlGoto
)

// run executes steps starting at the session's current step until the
// session suspends, finishes, or fails. Goto transfers loop back here
// rather than recursing, so deep step chains cannot grow the stack.
func (i *Interpreter) run(ctx context.Context, sctx *session.Context) Output {
	var pending []string

	for {
		step, ok := i.script.Lookup(sctx.CurrentStep)
		if !ok {
			sctx.SetError(fmt.Sprintf("unknown step: %q", sctx.CurrentStep))
			return errorOutput(sctx.LastError)
		}

		ctrl, err := i.execBlock(ctx, sctx, step.Statements, &pending)
		if err != nil {
			sctx.SetError(err.Error())
			return errorOutput(sctx.LastError)
		}

		if ctrl == ctrlGoto {
			continue
		}

		sctx.AvailableIntents = step.Intents()

		if step.IsExit || ctrl == ctrlExit {
			sctx.State = session.StateFinished
			return i.suspend(sctx, pending)
		}

		if step.WaitsForInput() {
			sctx.State = session.StateWaitingInput
			return i.suspend(sctx, pending)
		}

		sctx.State = session.StateFinished
		return i.suspend(sctx, pending)
	}
}

// suspend builds the Output for the session's settled state.
func (i *Interpreter) suspend(sctx *session.Context, pending []string) Output {
	return Output{
		Message:          strings.Join(pending, "\n"),
		State:            sctx.State,
		WaitingForInput:  sctx.State == session.StateWaitingInput,
		AvailableIntents: sctx.AvailableIntents,
	}
}

// execBlock runs a statement sequence in order. It stops early on Exit,
// Goto, or a runtime error; Goto has already updated the session's current
// step when it returns.
func (i *Interpreter) execBlock(ctx context.Context, sctx *session.Context, stmts []ast.Statement, pending *[]string) (control, error) {
	for _, stmt := range stmts {
		ctrl, err := i.execStatement(ctx, sctx, stmt, pending)
		if err != nil {
			return ctrlNone, err
		}
		if ctrl != ctrlNone {
			return ctrl, nil
		}
	}
	return ctrlNone, nil
}

func (i *Interpreter) execStatement(ctx context.Context, sctx *session.Context, stmt ast.Statement, pending *[]string) (control, error) {
	switch s := stmt.(type) {
	case *ast.SpeakStmt:
		value, err := i.eval(sctx, s.Value)
		if err != nil {
			return ctrlNone, err
		}
		line := stringify(value)
		*pending = append(*pending, line)
		sctx.AddHistory(session.RoleAssistant, line)
		return ctrlNone, nil

	case *ast.ListenStmt:
		// Only affects the suspension decision at step end.
		return ctrlNone, nil

	case *ast.SetStmt:
		value, err := i.eval(sctx, s.Value)
		if err != nil {
			return ctrlNone, err
		}
		sctx.Variables[s.Name] = value
		return ctrlNone, nil

	case *ast.GotoStmt:
		sctx.CurrentStep = s.Target
		return ctrlGoto, nil

	case *ast.IfStmt:
		cond, err := i.eval(sctx, s.Cond)
		if err != nil {
			return ctrlNone, err
		}
		if truthy(cond) {
			return i.execBlock(ctx, sctx, s.Then, pending)
		}
		if s.Else != nil {
			return i.execBlock(ctx, sctx, s.Else, pending)
		}
		return ctrlNone, nil

	case *ast.WhileStmt:
		iterations := 0
		for {
			cond, err := i.eval(sctx, s.Cond)
			if err != nil {
				return ctrlNone, err
			}
			if !truthy(cond) {
				return ctrlNone, nil
			}
			if iterations >= maxLoopIterations {
				return ctrlNone, fmt.Errorf("while loop exceeded %d iterations (line %d)", maxLoopIterations, s.Loc.Line)
			}
			iterations++

			ctrl, err := i.execBlock(ctx, sctx, s.Body, pending)
			if err != nil {
				return ctrlNone, err
			}
			if ctrl != ctrlNone {
				return ctrl, nil
			}
		}

	case *ast.CallStmt:
		args := make([]interface{}, len(s.Args))
		for idx, arg := range s.Args {
			value, err := i.eval(sctx, arg)
			if err != nil {
				return ctrlNone, err
			}
			args[idx] = value
		}
		result := i.services.Call(ctx, s.Service, args)
		if s.ResultVar != "" {
			sctx.Variables[s.ResultVar] = result
		}
		return ctrlNone, nil

	case *ast.ExitStmt:
		return ctrlExit, nil
	}

	// Branch, Silence and Default are hoisted at parse time and never
	// appear here.
	return ctrlNone, nil
}

func errorOutput(message string) Output {
	return Output{
		Message: message,
		State:   session.StateError,
	}
}
