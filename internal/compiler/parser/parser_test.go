package parser

import (
	"strings"
	"testing"

	"github.com/parley-lang/parley/internal/compiler/ast"
	"github.com/parley-lang/parley/internal/compiler/lexer"
)

// Helper function to parse source code
func parseSource(t *testing.T, source string) (*ast.Script, []ast.ParseError) {
	t.Helper()

	lex := lexer.New(source)
	tokens, lexErrors := lex.ScanTokens()

	if len(lexErrors) > 0 {
		t.Fatalf("Lexer errors: %v", lexErrors)
	}

	parser := New(tokens)
	return parser.Parse()
}

// Helper function to fetch a step that must exist
func mustStep(t *testing.T, script *ast.Script, name string) *ast.Step {
	t.Helper()

	step, ok := script.Steps[name]
	if !ok {
		t.Fatalf("Expected step '%s' to exist, have %v", name, script.Order)
	}
	return step
}

// TestParseSimpleStep tests parsing a basic step
func TestParseSimpleStep(t *testing.T) {
	source := `Step welcome
  Speak "Hello! How can I help?"
  Listen
  Branch "greeting", hello
`

	script, errors := parseSource(t, source)

	if len(errors) > 0 {
		t.Fatalf("Parse errors: %v", errors)
	}

	if len(script.Steps) != 1 {
		t.Fatalf("Expected 1 step, got %d", len(script.Steps))
	}

	if script.EntryStep != "welcome" {
		t.Errorf("Expected entry step 'welcome', got '%s'", script.EntryStep)
	}

	step := mustStep(t, script, "welcome")

	if len(step.Statements) != 2 {
		t.Fatalf("Expected 2 statements, got %d", len(step.Statements))
	}

	if _, ok := step.Statements[0].(*ast.SpeakStmt); !ok {
		t.Errorf("Expected first statement to be Speak, got %T", step.Statements[0])
	}

	if _, ok := step.Statements[1].(*ast.ListenStmt); !ok {
		t.Errorf("Expected second statement to be Listen, got %T", step.Statements[1])
	}

	if len(step.Branches) != 1 {
		t.Fatalf("Expected 1 branch, got %d", len(step.Branches))
	}

	if step.Branches[0].Intent != "greeting" {
		t.Errorf("Expected branch intent 'greeting', got '%s'", step.Branches[0].Intent)
	}

	if step.Branches[0].Target != "hello" {
		t.Errorf("Expected branch target 'hello', got '%s'", step.Branches[0].Target)
	}
}

// TestParseEntryStepOrder tests that the first step becomes the entry
// and that declaration order is preserved
func TestParseEntryStepOrder(t *testing.T) {
	source := `Step alpha
  Speak "a"

Step beta
  Speak "b"

Step gamma
  Exit
`

	script, errors := parseSource(t, source)

	if len(errors) > 0 {
		t.Fatalf("Parse errors: %v", errors)
	}

	if script.EntryStep != "alpha" {
		t.Errorf("Expected entry step 'alpha', got '%s'", script.EntryStep)
	}

	want := []string{"alpha", "beta", "gamma"}
	if len(script.Order) != len(want) {
		t.Fatalf("Expected %d steps in order, got %d", len(want), len(script.Order))
	}
	for i, name := range want {
		if script.Order[i] != name {
			t.Errorf("Expected Order[%d] = '%s', got '%s'", i, name, script.Order[i])
		}
	}
}

// TestParseBranchHoisting tests that Branch lines become step routing
// metadata instead of statements
func TestParseBranchHoisting(t *testing.T) {
	source := `Step menu
  Speak "What would you like?"
  Listen
  Branch "book", book_step
  Branch "cancel", cancel_step
  Branch "help", help_step
`

	script, errors := parseSource(t, source)

	if len(errors) > 0 {
		t.Fatalf("Parse errors: %v", errors)
	}

	step := mustStep(t, script, "menu")

	if len(step.Statements) != 2 {
		t.Errorf("Expected branches to be hoisted out of statements, got %d statements", len(step.Statements))
	}

	intents := step.Intents()
	want := []string{"book", "cancel", "help"}
	if len(intents) != len(want) {
		t.Fatalf("Expected %d intents, got %d", len(want), len(intents))
	}
	for i, intent := range want {
		if intents[i] != intent {
			t.Errorf("Expected intent[%d] = '%s', got '%s'", i, intent, intents[i])
		}
	}

	if step.Branches[1].Target != "cancel_step" {
		t.Errorf("Expected second branch target 'cancel_step', got '%s'", step.Branches[1].Target)
	}
}

// TestParseSilenceDefaultOverwrite tests that repeated Silence and
// Default declarations keep the last target
func TestParseSilenceDefaultOverwrite(t *testing.T) {
	source := `Step s
  Silence first_silence
  Default first_default
  Silence second_silence
  Default second_default
`

	script, errors := parseSource(t, source)

	if len(errors) > 0 {
		t.Fatalf("Parse errors: %v", errors)
	}

	step := mustStep(t, script, "s")

	if step.SilenceTarget != "second_silence" {
		t.Errorf("Expected silence target 'second_silence', got '%s'", step.SilenceTarget)
	}

	if step.DefaultTarget != "second_default" {
		t.Errorf("Expected default target 'second_default', got '%s'", step.DefaultTarget)
	}

	if len(step.Statements) != 0 {
		t.Errorf("Expected handler declarations to be hoisted, got %d statements", len(step.Statements))
	}
}

// TestParseExit tests that Exit stays in the statement list and also
// marks the step as terminal
func TestParseExit(t *testing.T) {
	source := `Step goodbye
  Speak "Bye!"
  Exit
`

	script, errors := parseSource(t, source)

	if len(errors) > 0 {
		t.Fatalf("Parse errors: %v", errors)
	}

	step := mustStep(t, script, "goodbye")

	if !step.IsExit {
		t.Error("Expected step to be marked as exit")
	}

	if len(step.Statements) != 2 {
		t.Fatalf("Expected Exit to remain a statement, got %d statements", len(step.Statements))
	}

	if _, ok := step.Statements[1].(*ast.ExitStmt); !ok {
		t.Errorf("Expected second statement to be Exit, got %T", step.Statements[1])
	}
}

// TestParseDuplicateStepName tests that a duplicate definition wins and
// is reported as an error
func TestParseDuplicateStepName(t *testing.T) {
	source := `Step greet
  Speak "one"

Step greet
  Speak "two"
`

	script, errors := parseSource(t, source)

	if len(errors) != 1 {
		t.Fatalf("Expected 1 error, got %d: %v", len(errors), errors)
	}

	if !strings.Contains(errors[0].Message, "Duplicate step name") {
		t.Errorf("Expected duplicate step error, got '%s'", errors[0].Message)
	}

	if len(script.Order) != 1 {
		t.Errorf("Expected 1 entry in step order, got %d", len(script.Order))
	}

	step := mustStep(t, script, "greet")
	speak, ok := step.Statements[0].(*ast.SpeakStmt)
	if !ok {
		t.Fatalf("Expected Speak statement, got %T", step.Statements[0])
	}

	lit, ok := speak.Value.(*ast.LiteralExpr)
	if !ok {
		t.Fatalf("Expected literal Speak value, got %T", speak.Value)
	}

	if lit.Value != "two" {
		t.Errorf("Expected later definition to win, got %v", lit.Value)
	}
}

// TestParseEmptySource tests that empty input yields an empty script
func TestParseEmptySource(t *testing.T) {
	for _, source := range []string{"", "\n\n\n", "# just a comment\n"} {
		script, errors := parseSource(t, source)

		if len(errors) != 0 {
			t.Errorf("Expected no errors for %q, got %v", source, errors)
		}

		if len(script.Steps) != 0 {
			t.Errorf("Expected no steps for %q, got %d", source, len(script.Steps))
		}

		if script.EntryStep != "" {
			t.Errorf("Expected empty entry step for %q, got '%s'", source, script.EntryStep)
		}
	}
}

// TestParseErrorRecovery tests that a broken step is discarded and
// parsing resumes at the next step
func TestParseErrorRecovery(t *testing.T) {
	source := `Step broken
  Speak
  Listen

Step second
  Speak "still here"
  Exit
`

	script, errors := parseSource(t, source)

	if len(errors) == 0 {
		t.Fatal("Expected parse errors for the broken step")
	}

	if _, ok := script.Steps["broken"]; ok {
		t.Error("Expected broken step to be discarded")
	}

	step := mustStep(t, script, "second")
	if len(step.Statements) != 2 {
		t.Errorf("Expected second step to parse intact, got %d statements", len(step.Statements))
	}

	if script.EntryStep != "second" {
		t.Errorf("Expected entry step 'second', got '%s'", script.EntryStep)
	}
}

// TestParseUnknownStatement tests recovery from an unrecognized keyword
func TestParseUnknownStatement(t *testing.T) {
	source := `Step broken
  Speak "hi"
  Wibble "x"

Step fine
  Exit
`

	script, errors := parseSource(t, source)

	if len(errors) != 1 {
		t.Fatalf("Expected 1 error, got %d: %v", len(errors), errors)
	}

	if !strings.Contains(errors[0].Message, "Unexpected token") {
		t.Errorf("Expected unexpected token error, got '%s'", errors[0].Message)
	}

	if _, ok := script.Steps["broken"]; ok {
		t.Error("Expected broken step to be discarded")
	}

	mustStep(t, script, "fine")
}

// TestParseStepMissingName tests that a nameless step is rejected
func TestParseStepMissingName(t *testing.T) {
	source := `Step
  Speak "x"
`

	script, errors := parseSource(t, source)

	if len(errors) == 0 {
		t.Fatal("Expected an error for missing step name")
	}

	if len(script.Steps) != 0 {
		t.Errorf("Expected no steps, got %d", len(script.Steps))
	}
}

// TestParseSetStatement tests variable assignment
func TestParseSetStatement(t *testing.T) {
	source := `Step s
  Set $name = "Ada"
`

	script, errors := parseSource(t, source)

	if len(errors) > 0 {
		t.Fatalf("Parse errors: %v", errors)
	}

	step := mustStep(t, script, "s")
	set, ok := step.Statements[0].(*ast.SetStmt)
	if !ok {
		t.Fatalf("Expected Set statement, got %T", step.Statements[0])
	}

	if set.Name != "name" {
		t.Errorf("Expected variable name 'name' without sigil, got '%s'", set.Name)
	}

	lit, ok := set.Value.(*ast.LiteralExpr)
	if !ok {
		t.Fatalf("Expected literal value, got %T", set.Value)
	}

	if lit.Value != "Ada" {
		t.Errorf("Expected value 'Ada', got %v", lit.Value)
	}
}

// setValue parses a single Set statement and returns its value expression
func setValue(t *testing.T, expr string) ast.Expression {
	t.Helper()

	script, errors := parseSource(t, "Step s\n  Set $x = "+expr+"\n")
	if len(errors) > 0 {
		t.Fatalf("Parse errors: %v", errors)
	}

	step := mustStep(t, script, "s")
	set, ok := step.Statements[0].(*ast.SetStmt)
	if !ok {
		t.Fatalf("Expected Set statement, got %T", step.Statements[0])
	}
	return set.Value
}

// TestParseArithmeticPrecedence tests that * binds tighter than +
func TestParseArithmeticPrecedence(t *testing.T) {
	value := setValue(t, "1 + 2 * 3")

	add, ok := value.(*ast.BinaryExpr)
	if !ok {
		t.Fatalf("Expected binary expression, got %T", value)
	}

	if add.Operator != "+" {
		t.Errorf("Expected '+' at the root, got '%s'", add.Operator)
	}

	mul, ok := add.Right.(*ast.BinaryExpr)
	if !ok {
		t.Fatalf("Expected binary right operand, got %T", add.Right)
	}

	if mul.Operator != "*" {
		t.Errorf("Expected '*' on the right, got '%s'", mul.Operator)
	}
}

// TestParseLeftAssociativity tests that same-precedence operators
// group to the left
func TestParseLeftAssociativity(t *testing.T) {
	value := setValue(t, "10 - 4 - 3")

	outer, ok := value.(*ast.BinaryExpr)
	if !ok {
		t.Fatalf("Expected binary expression, got %T", value)
	}

	inner, ok := outer.Left.(*ast.BinaryExpr)
	if !ok {
		t.Fatalf("Expected nested binary on the left, got %T", outer.Left)
	}

	if inner.Operator != "-" || outer.Operator != "-" {
		t.Errorf("Expected '-' operators, got '%s' and '%s'", inner.Operator, outer.Operator)
	}

	lit, ok := outer.Right.(*ast.LiteralExpr)
	if !ok || lit.Value != int64(3) {
		t.Errorf("Expected right operand 3, got %v", outer.Right)
	}
}

// TestParseParenGrouping tests that parentheses override precedence and
// survive in the tree
func TestParseParenGrouping(t *testing.T) {
	value := setValue(t, "(1 + 2) * 3")

	mul, ok := value.(*ast.BinaryExpr)
	if !ok {
		t.Fatalf("Expected binary expression, got %T", value)
	}

	if mul.Operator != "*" {
		t.Errorf("Expected '*' at the root, got '%s'", mul.Operator)
	}

	paren, ok := mul.Left.(*ast.ParenExpr)
	if !ok {
		t.Fatalf("Expected parenthesized left operand, got %T", mul.Left)
	}

	add, ok := paren.Expr.(*ast.BinaryExpr)
	if !ok || add.Operator != "+" {
		t.Errorf("Expected '+' inside parentheses, got %v", paren.Expr)
	}
}

// TestParseLogicalPrecedence tests that 'and' binds tighter than 'or'
// and 'not' tighter than both
func TestParseLogicalPrecedence(t *testing.T) {
	value := setValue(t, "$a or $b and not $c")

	or, ok := value.(*ast.LogicalExpr)
	if !ok {
		t.Fatalf("Expected logical expression, got %T", value)
	}

	if or.Operator != "or" {
		t.Errorf("Expected 'or' at the root, got '%s'", or.Operator)
	}

	and, ok := or.Right.(*ast.LogicalExpr)
	if !ok {
		t.Fatalf("Expected 'and' on the right, got %T", or.Right)
	}

	if and.Operator != "and" {
		t.Errorf("Expected 'and', got '%s'", and.Operator)
	}

	not, ok := and.Right.(*ast.UnaryExpr)
	if !ok {
		t.Fatalf("Expected unary expression, got %T", and.Right)
	}

	if not.Operator != "not" {
		t.Errorf("Expected 'not', got '%s'", not.Operator)
	}
}

// TestParseComparison tests comparison operators
func TestParseComparison(t *testing.T) {
	value := setValue(t, "$n >= 3")

	cmp, ok := value.(*ast.BinaryExpr)
	if !ok {
		t.Fatalf("Expected binary expression, got %T", value)
	}

	if cmp.Operator != ">=" {
		t.Errorf("Expected '>=', got '%s'", cmp.Operator)
	}

	v, ok := cmp.Left.(*ast.VariableExpr)
	if !ok || v.Name != "n" {
		t.Errorf("Expected variable 'n' on the left, got %v", cmp.Left)
	}
}

// TestParseUnaryMinus tests unary negation
func TestParseUnaryMinus(t *testing.T) {
	value := setValue(t, "-$n + 1")

	add, ok := value.(*ast.BinaryExpr)
	if !ok {
		t.Fatalf("Expected binary expression, got %T", value)
	}

	neg, ok := add.Left.(*ast.UnaryExpr)
	if !ok {
		t.Fatalf("Expected unary left operand, got %T", add.Left)
	}

	if neg.Operator != "-" {
		t.Errorf("Expected '-', got '%s'", neg.Operator)
	}
}

// TestParseFunctionCallExpr tests builtin call expressions
func TestParseFunctionCallExpr(t *testing.T) {
	value := setValue(t, `len($name) + str(42)`)

	add, ok := value.(*ast.BinaryExpr)
	if !ok {
		t.Fatalf("Expected binary expression, got %T", value)
	}

	call, ok := add.Left.(*ast.CallExpr)
	if !ok {
		t.Fatalf("Expected call expression, got %T", add.Left)
	}

	if call.Name != "len" {
		t.Errorf("Expected call to 'len', got '%s'", call.Name)
	}

	if len(call.Args) != 1 {
		t.Fatalf("Expected 1 argument, got %d", len(call.Args))
	}

	if _, ok := call.Args[0].(*ast.VariableExpr); !ok {
		t.Errorf("Expected variable argument, got %T", call.Args[0])
	}
}

// TestParseIfElse tests conditionals with both branches
func TestParseIfElse(t *testing.T) {
	source := `Step s
  If $count > 3
    Speak "big"
  Else
    Speak "small"
  EndIf
`

	script, errors := parseSource(t, source)

	if len(errors) > 0 {
		t.Fatalf("Parse errors: %v", errors)
	}

	step := mustStep(t, script, "s")
	ifStmt, ok := step.Statements[0].(*ast.IfStmt)
	if !ok {
		t.Fatalf("Expected If statement, got %T", step.Statements[0])
	}

	cond, ok := ifStmt.Cond.(*ast.BinaryExpr)
	if !ok || cond.Operator != ">" {
		t.Errorf("Expected '>' condition, got %v", ifStmt.Cond)
	}

	if len(ifStmt.Then) != 1 {
		t.Errorf("Expected 1 then statement, got %d", len(ifStmt.Then))
	}

	if len(ifStmt.Else) != 1 {
		t.Errorf("Expected 1 else statement, got %d", len(ifStmt.Else))
	}
}

// TestParseIfWithoutElse tests conditionals with no else branch
func TestParseIfWithoutElse(t *testing.T) {
	source := `Step s
  If $ready
    Speak "go"
  EndIf
  Speak "after"
`

	script, errors := parseSource(t, source)

	if len(errors) > 0 {
		t.Fatalf("Parse errors: %v", errors)
	}

	step := mustStep(t, script, "s")

	if len(step.Statements) != 2 {
		t.Fatalf("Expected 2 statements, got %d", len(step.Statements))
	}

	ifStmt, ok := step.Statements[0].(*ast.IfStmt)
	if !ok {
		t.Fatalf("Expected If statement, got %T", step.Statements[0])
	}

	if ifStmt.Else != nil {
		t.Errorf("Expected no else branch, got %d statements", len(ifStmt.Else))
	}
}

// TestParseMissingEndIf tests that an unterminated If is an error and
// the next step still parses
func TestParseMissingEndIf(t *testing.T) {
	source := `Step s
  If $x
    Speak "a"

Step t
  Exit
`

	script, errors := parseSource(t, source)

	if len(errors) == 0 {
		t.Fatal("Expected an error for missing EndIf")
	}

	found := false
	for _, err := range errors {
		if strings.Contains(err.Message, "EndIf") {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected an EndIf error, got %v", errors)
	}

	if _, ok := script.Steps["s"]; ok {
		t.Error("Expected unterminated step to be discarded")
	}

	mustStep(t, script, "t")
}

// TestParseWhileLoop tests loop parsing
func TestParseWhileLoop(t *testing.T) {
	source := `Step s
  Set $i = 0
  While $i < 3
    Set $i = $i + 1
  EndWhile
  Speak "done"
`

	script, errors := parseSource(t, source)

	if len(errors) > 0 {
		t.Fatalf("Parse errors: %v", errors)
	}

	step := mustStep(t, script, "s")

	if len(step.Statements) != 3 {
		t.Fatalf("Expected 3 statements, got %d", len(step.Statements))
	}

	while, ok := step.Statements[1].(*ast.WhileStmt)
	if !ok {
		t.Fatalf("Expected While statement, got %T", step.Statements[1])
	}

	if len(while.Body) != 1 {
		t.Errorf("Expected 1 body statement, got %d", len(while.Body))
	}
}

// TestParseNestedBlocks tests an If nested inside a While
func TestParseNestedBlocks(t *testing.T) {
	source := `Step s
  While $i < 10
    If $i == 5
      Speak "halfway"
    EndIf
    Set $i = $i + 1
  EndWhile
`

	script, errors := parseSource(t, source)

	if len(errors) > 0 {
		t.Fatalf("Parse errors: %v", errors)
	}

	step := mustStep(t, script, "s")
	while, ok := step.Statements[0].(*ast.WhileStmt)
	if !ok {
		t.Fatalf("Expected While statement, got %T", step.Statements[0])
	}

	if len(while.Body) != 2 {
		t.Fatalf("Expected 2 body statements, got %d", len(while.Body))
	}

	if _, ok := while.Body[0].(*ast.IfStmt); !ok {
		t.Errorf("Expected nested If, got %T", while.Body[0])
	}
}

// TestParseBranchInsideBlock tests that routing declarations are
// rejected inside If and While bodies
func TestParseBranchInsideBlock(t *testing.T) {
	source := `Step s
  If $x
    Branch "a", other
  EndIf

Step other
  Exit
`

	script, errors := parseSource(t, source)

	if len(errors) == 0 {
		t.Fatal("Expected an error for Branch inside If")
	}

	if !strings.Contains(errors[0].Message, "top level") {
		t.Errorf("Expected top-level restriction error, got '%s'", errors[0].Message)
	}

	if _, ok := script.Steps["s"]; ok {
		t.Error("Expected offending step to be discarded")
	}

	mustStep(t, script, "other")
}

// TestParseListenTimeouts tests the optional Listen timeout forms
func TestParseListenTimeouts(t *testing.T) {
	source := `Step bare
  Listen

Step begin_only
  Listen 5

Step both
  Listen 2.5, 10
`

	script, errors := parseSource(t, source)

	if len(errors) > 0 {
		t.Fatalf("Parse errors: %v", errors)
	}

	bare := mustStep(t, script, "bare").Statements[0].(*ast.ListenStmt)
	if bare.BeginTimeout != nil || bare.EndTimeout != nil {
		t.Error("Expected no timeouts on bare Listen")
	}

	begin := mustStep(t, script, "begin_only").Statements[0].(*ast.ListenStmt)
	if begin.BeginTimeout == nil || *begin.BeginTimeout != 5 {
		t.Errorf("Expected begin timeout 5, got %v", begin.BeginTimeout)
	}
	if begin.EndTimeout != nil {
		t.Error("Expected no end timeout")
	}

	both := mustStep(t, script, "both").Statements[0].(*ast.ListenStmt)
	if both.BeginTimeout == nil || *both.BeginTimeout != 2.5 {
		t.Errorf("Expected begin timeout 2.5, got %v", both.BeginTimeout)
	}
	if both.EndTimeout == nil || *both.EndTimeout != 10 {
		t.Errorf("Expected end timeout 10, got %v", both.EndTimeout)
	}
}

// TestParseCallForms tests service calls with and without arguments
// and result variables
func TestParseCallForms(t *testing.T) {
	source := `Step s
  Call ping
  Call lookup($dept, "today") = $result
  Call refresh = $ok
`

	script, errors := parseSource(t, source)

	if len(errors) > 0 {
		t.Fatalf("Parse errors: %v", errors)
	}

	step := mustStep(t, script, "s")

	if len(step.Statements) != 3 {
		t.Fatalf("Expected 3 statements, got %d", len(step.Statements))
	}

	ping := step.Statements[0].(*ast.CallStmt)
	if ping.Service != "ping" || len(ping.Args) != 0 || ping.ResultVar != "" {
		t.Errorf("Expected bare call to 'ping', got %+v", ping)
	}

	lookup := step.Statements[1].(*ast.CallStmt)
	if lookup.Service != "lookup" {
		t.Errorf("Expected service 'lookup', got '%s'", lookup.Service)
	}
	if len(lookup.Args) != 2 {
		t.Errorf("Expected 2 arguments, got %d", len(lookup.Args))
	}
	if lookup.ResultVar != "result" {
		t.Errorf("Expected result variable 'result', got '%s'", lookup.ResultVar)
	}

	refresh := step.Statements[2].(*ast.CallStmt)
	if refresh.Service != "refresh" || refresh.ResultVar != "ok" {
		t.Errorf("Expected argless call with result variable, got %+v", refresh)
	}
}

// TestParseGotoStatement tests unconditional jumps
func TestParseGotoStatement(t *testing.T) {
	source := `Step s
  Goto elsewhere

Step elsewhere
  Exit
`

	script, errors := parseSource(t, source)

	if len(errors) > 0 {
		t.Fatalf("Parse errors: %v", errors)
	}

	step := mustStep(t, script, "s")
	gotoStmt, ok := step.Statements[0].(*ast.GotoStmt)
	if !ok {
		t.Fatalf("Expected Goto statement, got %T", step.Statements[0])
	}

	if gotoStmt.Target != "elsewhere" {
		t.Errorf("Expected target 'elsewhere', got '%s'", gotoStmt.Target)
	}
}

// TestParseBranchWithoutComma tests that the comma between intent and
// target is optional
func TestParseBranchWithoutComma(t *testing.T) {
	source := `Step s
  Branch "cancel" farewell
`

	script, errors := parseSource(t, source)

	if len(errors) > 0 {
		t.Fatalf("Parse errors: %v", errors)
	}

	step := mustStep(t, script, "s")
	if len(step.Branches) != 1 {
		t.Fatalf("Expected 1 branch, got %d", len(step.Branches))
	}

	if step.Branches[0].Target != "farewell" {
		t.Errorf("Expected target 'farewell', got '%s'", step.Branches[0].Target)
	}
}

// TestParseWaitsForInput tests the input-waiting predicate on steps
func TestParseWaitsForInput(t *testing.T) {
	source := `Step listening
  Speak "choose"
  Listen
  Branch "a", terminal

Step routing_only
  Default terminal

Step terminal
  Speak "bye"
  Exit
`

	script, errors := parseSource(t, source)

	if len(errors) > 0 {
		t.Fatalf("Parse errors: %v", errors)
	}

	if !mustStep(t, script, "listening").WaitsForInput() {
		t.Error("Expected step with Listen and branches to wait for input")
	}

	if !mustStep(t, script, "routing_only").WaitsForInput() {
		t.Error("Expected step with a default handler to wait for input")
	}

	if mustStep(t, script, "terminal").WaitsForInput() {
		t.Error("Expected terminal step not to wait for input")
	}
}

// TestCompileLexErrors tests that lexical errors surface as parse
// errors and suppress all steps
func TestCompileLexErrors(t *testing.T) {
	script, errors := Compile("Step s\n  Speak \"unterminated\n")

	if len(errors) == 0 {
		t.Fatal("Expected errors from unterminated string")
	}

	if len(script.Steps) != 0 {
		t.Errorf("Expected no steps when lexing fails, got %d", len(script.Steps))
	}

	if len(script.Errors) != len(errors) {
		t.Errorf("Expected script to carry the error list")
	}
}

// TestCompileCleanSource tests the combined lex and parse entry point
func TestCompileCleanSource(t *testing.T) {
	script, errors := Compile(`Step hello
  Speak "hi"
  Exit
`)

	if len(errors) > 0 {
		t.Fatalf("Compile errors: %v", errors)
	}

	if script.EntryStep != "hello" {
		t.Errorf("Expected entry step 'hello', got '%s'", script.EntryStep)
	}
}
