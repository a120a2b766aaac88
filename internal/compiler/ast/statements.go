package ast

// SpeakStmt evaluates an expression and emits it as an output line.
type SpeakStmt struct {
	Value Expression
	Loc   SourceLocation
}

func (s *SpeakStmt) node()     {}
func (s *SpeakStmt) stmtNode() {}

func (s *SpeakStmt) Location() SourceLocation {
	return s.Loc
}

// ListenStmt authorizes the enclosing step to wait for user input.
// The optional timeouts are parsed and preserved but not enforced by the
// interpreter; enforcement belongs to the caller driving the session.
type ListenStmt struct {
	BeginTimeout *float64 // Seconds before the caller should prompt, nil if absent
	EndTimeout   *float64 // Seconds before the caller should give up, nil if absent
	Loc          SourceLocation
}

func (s *ListenStmt) node()     {}
func (s *ListenStmt) stmtNode() {}

func (s *ListenStmt) Location() SourceLocation {
	return s.Loc
}

// SetStmt assigns the value of an expression to a session variable.
type SetStmt struct {
	Name  string // Variable name without the $ sigil
	Value Expression
	Loc   SourceLocation
}

func (s *SetStmt) node()     {}
func (s *SetStmt) stmtNode() {}

func (s *SetStmt) Location() SourceLocation {
	return s.Loc
}

// GotoStmt transfers control to a named step. Statements after a Goto in
// the same block never run.
type GotoStmt struct {
	Target string
	Loc    SourceLocation
}

func (s *GotoStmt) node()     {}
func (s *GotoStmt) stmtNode() {}

func (s *GotoStmt) Location() SourceLocation {
	return s.Loc
}

// IfStmt executes Then when the condition is truthy, Else otherwise.
type IfStmt struct {
	Cond Expression
	Then []Statement
	Else []Statement // nil when no Else block was written
	Loc  SourceLocation
}

func (s *IfStmt) node()     {}
func (s *IfStmt) stmtNode() {}

func (s *IfStmt) Location() SourceLocation {
	return s.Loc
}

// WhileStmt repeats Body while the condition is truthy. The interpreter
// caps iteration to guard against non-terminating scripts.
type WhileStmt struct {
	Cond Expression
	Body []Statement
	Loc  SourceLocation
}

func (s *WhileStmt) node()     {}
func (s *WhileStmt) stmtNode() {}

func (s *WhileStmt) Location() SourceLocation {
	return s.Loc
}

// CallStmt invokes a named external service with evaluated arguments.
// When ResultVar is non-empty the returned value is stored under it.
type CallStmt struct {
	Service   string
	Args      []Expression
	ResultVar string // Variable name without the $ sigil, "" if absent
	Loc       SourceLocation
}

func (s *CallStmt) node()     {}
func (s *CallStmt) stmtNode() {}

func (s *CallStmt) Location() SourceLocation {
	return s.Loc
}

// ExitStmt marks the enclosing step terminal. It stays in the statement
// sequence and also flips the step's IsExit flag at parse time.
type ExitStmt struct {
	Loc SourceLocation
}

func (s *ExitStmt) node()     {}
func (s *ExitStmt) stmtNode() {}

func (s *ExitStmt) Location() SourceLocation {
	return s.Loc
}

// BranchStmt is produced while parsing a step body and immediately hoisted
// into the step's branch list; it never survives in Statements.
type BranchStmt struct {
	Intent string
	Target string
	Loc    SourceLocation
}

func (s *BranchStmt) node()     {}
func (s *BranchStmt) stmtNode() {}

func (s *BranchStmt) Location() SourceLocation {
	return s.Loc
}

// SilenceStmt is hoisted into the step's silence handler field.
type SilenceStmt struct {
	Target string
	Loc    SourceLocation
}

func (s *SilenceStmt) node()     {}
func (s *SilenceStmt) stmtNode() {}

func (s *SilenceStmt) Location() SourceLocation {
	return s.Loc
}

// DefaultStmt is hoisted into the step's default handler field.
type DefaultStmt struct {
	Target string
	Loc    SourceLocation
}

func (s *DefaultStmt) node()     {}
func (s *DefaultStmt) stmtNode() {}

func (s *DefaultStmt) Location() SourceLocation {
	return s.Loc
}
