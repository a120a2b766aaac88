package lexer

import (
	"strings"
	"testing"
)

// Helper function to create a lexer and scan tokens
func scanSource(source string) ([]Token, []LexError) {
	lexer := New(source)
	return lexer.ScanTokens()
}

// Helper to check if tokens match expected types
func checkTokenTypes(t *testing.T, tokens []Token, expected []TokenType) {
	t.Helper()

	// Remove EOF token for comparison
	actual := tokens
	if len(actual) > 0 && actual[len(actual)-1].Type == TOKEN_EOF {
		actual = actual[:len(actual)-1]
	}

	if len(actual) != len(expected) {
		t.Errorf("Expected %d tokens, got %d", len(expected), len(actual))
		t.Logf("Expected: %v", expected)
		t.Logf("Got: %v", tokensToTypes(actual))
		return
	}

	for i, token := range actual {
		if token.Type != expected[i] {
			t.Errorf("Token %d: expected %s, got %s", i, expected[i], token.Type)
		}
	}
}

func tokensToTypes(tokens []Token) []TokenType {
	types := make([]TokenType, len(tokens))
	for i, t := range tokens {
		types[i] = t.Type
	}
	return types
}

// Test single-character tokens
func TestLexer_SingleCharTokens(t *testing.T) {
	source := "(){}[],:+-*/"
	tokens, errors := scanSource(source)

	if len(errors) > 0 {
		t.Errorf("Unexpected errors: %v", errors)
	}

	expected := []TokenType{
		TOKEN_LPAREN, TOKEN_RPAREN,
		TOKEN_LBRACE, TOKEN_RBRACE,
		TOKEN_LBRACKET, TOKEN_RBRACKET,
		TOKEN_COMMA, TOKEN_COLON,
		TOKEN_PLUS, TOKEN_MINUS,
		TOKEN_STAR, TOKEN_SLASH,
	}

	checkTokenTypes(t, tokens, expected)
}

// Test two-character operators and their single-character prefixes
func TestLexer_Operators(t *testing.T) {
	source := "== != >= <= > < ="
	tokens, errors := scanSource(source)

	if len(errors) > 0 {
		t.Errorf("Unexpected errors: %v", errors)
	}

	expected := []TokenType{
		TOKEN_EQ, TOKEN_NEQ,
		TOKEN_GE, TOKEN_LE,
		TOKEN_GT, TOKEN_LT,
		TOKEN_ASSIGN,
	}

	checkTokenTypes(t, tokens, expected)
}

// Test keywords
func TestLexer_Keywords(t *testing.T) {
	source := "Step Speak Listen Branch Silence Default Exit Goto Set If Else EndIf While EndWhile Call and or not"
	tokens, errors := scanSource(source)

	if len(errors) > 0 {
		t.Errorf("Unexpected errors: %v", errors)
	}

	expected := []TokenType{
		TOKEN_STEP, TOKEN_SPEAK, TOKEN_LISTEN,
		TOKEN_BRANCH, TOKEN_SILENCE, TOKEN_DEFAULT,
		TOKEN_EXIT, TOKEN_GOTO, TOKEN_SET,
		TOKEN_IF, TOKEN_ELSE, TOKEN_ENDIF,
		TOKEN_WHILE, TOKEN_ENDWHILE, TOKEN_CALL,
		TOKEN_AND, TOKEN_OR, TOKEN_NOT,
	}

	checkTokenTypes(t, tokens, expected)
}

// Keywords are case-sensitive: lowercase forms are plain identifiers
func TestLexer_KeywordsCaseSensitive(t *testing.T) {
	source := "step speak listen"
	tokens, errors := scanSource(source)

	if len(errors) > 0 {
		t.Errorf("Unexpected errors: %v", errors)
	}

	expected := []TokenType{
		TOKEN_IDENTIFIER, TOKEN_IDENTIFIER, TOKEN_IDENTIFIER,
	}

	checkTokenTypes(t, tokens, expected)
}

// Test identifiers
func TestLexer_Identifiers(t *testing.T) {
	source := "welcome query_department _private x2"
	tokens, errors := scanSource(source)

	if len(errors) > 0 {
		t.Errorf("Unexpected errors: %v", errors)
	}

	expected := []TokenType{
		TOKEN_IDENTIFIER, TOKEN_IDENTIFIER,
		TOKEN_IDENTIFIER, TOKEN_IDENTIFIER,
	}
	checkTokenTypes(t, tokens, expected)

	if tokens[1].Lexeme != "query_department" {
		t.Errorf("Expected lexeme 'query_department', got '%s'", tokens[1].Lexeme)
	}
}

// Test variable references
func TestLexer_Variables(t *testing.T) {
	source := "$name $user_id $x1"
	tokens, errors := scanSource(source)

	if len(errors) > 0 {
		t.Errorf("Unexpected errors: %v", errors)
	}

	expected := []TokenType{TOKEN_VARIABLE, TOKEN_VARIABLE, TOKEN_VARIABLE}
	checkTokenTypes(t, tokens, expected)

	if tokens[0].Literal != "name" {
		t.Errorf("Expected literal 'name', got %v", tokens[0].Literal)
	}
	if tokens[0].Lexeme != "$name" {
		t.Errorf("Expected lexeme '$name', got '%s'", tokens[0].Lexeme)
	}
	if tokens[1].Literal != "user_id" {
		t.Errorf("Expected literal 'user_id', got %v", tokens[1].Literal)
	}
}

// A bare $ with no identifier body is an error
func TestLexer_VariableMissingName(t *testing.T) {
	_, errors := scanSource("$ x")

	if len(errors) != 1 {
		t.Fatalf("Expected 1 error, got %d", len(errors))
	}
	if !strings.Contains(errors[0].Message, "identifier after '$'") {
		t.Errorf("Unexpected error message: %s", errors[0].Message)
	}
}

// Test integer literals
func TestLexer_Integers(t *testing.T) {
	source := "0 42 1000"
	tokens, errors := scanSource(source)

	if len(errors) > 0 {
		t.Errorf("Unexpected errors: %v", errors)
	}

	expected := []TokenType{TOKEN_NUMBER, TOKEN_NUMBER, TOKEN_NUMBER}
	checkTokenTypes(t, tokens, expected)

	if tokens[1].Literal != int64(42) {
		t.Errorf("Expected literal int64(42), got %v (%T)", tokens[1].Literal, tokens[1].Literal)
	}
}

// Test float literals
func TestLexer_Floats(t *testing.T) {
	source := "3.14 0.5"
	tokens, errors := scanSource(source)

	if len(errors) > 0 {
		t.Errorf("Unexpected errors: %v", errors)
	}

	expected := []TokenType{TOKEN_NUMBER, TOKEN_NUMBER}
	checkTokenTypes(t, tokens, expected)

	if tokens[0].Literal != float64(3.14) {
		t.Errorf("Expected literal float64(3.14), got %v (%T)", tokens[0].Literal, tokens[0].Literal)
	}
}

// A second dot terminates the number
func TestLexer_FloatSecondDot(t *testing.T) {
	tokens, errors := scanSource("1.2.3")

	// NUMBER(1.2), then an error on the stray '.', then NUMBER(3)
	if len(errors) != 1 {
		t.Fatalf("Expected 1 error, got %d: %v", len(errors), errors)
	}
	if tokens[0].Literal != float64(1.2) {
		t.Errorf("Expected literal 1.2, got %v", tokens[0].Literal)
	}
}

// Test double-quoted strings
func TestLexer_DoubleQuotedStrings(t *testing.T) {
	source := `"hello world"`
	tokens, errors := scanSource(source)

	if len(errors) > 0 {
		t.Errorf("Unexpected errors: %v", errors)
	}

	checkTokenTypes(t, tokens, []TokenType{TOKEN_STRING})
	if tokens[0].Literal != "hello world" {
		t.Errorf("Expected literal 'hello world', got %v", tokens[0].Literal)
	}
}

// Test single-quoted strings
func TestLexer_SingleQuotedStrings(t *testing.T) {
	source := `'hi "there"'`
	tokens, errors := scanSource(source)

	if len(errors) > 0 {
		t.Errorf("Unexpected errors: %v", errors)
	}

	checkTokenTypes(t, tokens, []TokenType{TOKEN_STRING})
	if tokens[0].Literal != `hi "there"` {
		t.Errorf("Unexpected literal: %v", tokens[0].Literal)
	}
}

// Test escape sequences
func TestLexer_StringEscapes(t *testing.T) {
	source := `"line1\nline2\tend\\done\"quoted\q"`
	tokens, errors := scanSource(source)

	if len(errors) > 0 {
		t.Errorf("Unexpected errors: %v", errors)
	}

	expected := "line1\nline2\tend\\done\"quotedq"
	if tokens[0].Literal != expected {
		t.Errorf("Expected literal %q, got %q", expected, tokens[0].Literal)
	}
}

// Strings may carry non-ASCII content
func TestLexer_StringUnicode(t *testing.T) {
	source := `"你好，世界"`
	tokens, errors := scanSource(source)

	if len(errors) > 0 {
		t.Errorf("Unexpected errors: %v", errors)
	}
	if tokens[0].Literal != "你好，世界" {
		t.Errorf("Unexpected literal: %v", tokens[0].Literal)
	}
}

// A raw line feed inside a string is an error
func TestLexer_UnterminatedStringNewline(t *testing.T) {
	_, errors := scanSource("\"broken\nrest")

	if len(errors) == 0 {
		t.Fatal("Expected an error for unterminated string")
	}
	if !strings.Contains(errors[0].Message, "Unterminated string") {
		t.Errorf("Unexpected error message: %s", errors[0].Message)
	}
}

// EOF before the closing quote is an error
func TestLexer_UnterminatedStringEOF(t *testing.T) {
	_, errors := scanSource(`"no end`)

	if len(errors) == 0 {
		t.Fatal("Expected an error for unterminated string")
	}
}

// Newlines are significant and emitted as tokens
func TestLexer_Newlines(t *testing.T) {
	source := "Step a\nSpeak \"hi\"\n"
	tokens, errors := scanSource(source)

	if len(errors) > 0 {
		t.Errorf("Unexpected errors: %v", errors)
	}

	expected := []TokenType{
		TOKEN_STEP, TOKEN_IDENTIFIER, TOKEN_NEWLINE,
		TOKEN_SPEAK, TOKEN_STRING, TOKEN_NEWLINE,
	}
	checkTokenTypes(t, tokens, expected)
}

// Comments run to end of line; the line feed after them still counts
func TestLexer_Comments(t *testing.T) {
	source := "# a comment\nExit # trailing\n"
	tokens, errors := scanSource(source)

	if len(errors) > 0 {
		t.Errorf("Unexpected errors: %v", errors)
	}

	expected := []TokenType{
		TOKEN_NEWLINE,
		TOKEN_EXIT, TOKEN_NEWLINE,
	}
	checkTokenTypes(t, tokens, expected)
}

// Line and column positions are 1-based
func TestLexer_Positions(t *testing.T) {
	source := "Step a\n  Exit"
	tokens, errors := scanSource(source)

	if len(errors) > 0 {
		t.Errorf("Unexpected errors: %v", errors)
	}

	// Step at 1:1, a at 1:6, newline at 1:7, Exit at 2:3
	checks := []struct {
		index  int
		line   int
		column int
	}{
		{0, 1, 1},
		{1, 1, 6},
		{2, 1, 7},
		{3, 2, 3},
	}
	for _, c := range checks {
		tok := tokens[c.index]
		if tok.Line != c.line || tok.Column != c.column {
			t.Errorf("Token %d (%s): expected %d:%d, got %d:%d",
				c.index, tok.Type, c.line, c.column, tok.Line, tok.Column)
		}
	}
}

// Unknown characters are reported once, even when multi-byte
func TestLexer_UnexpectedCharacter(t *testing.T) {
	_, errors := scanSource("Speak ^")
	if len(errors) != 1 {
		t.Fatalf("Expected 1 error, got %d: %v", len(errors), errors)
	}

	_, errors = scanSource("Speak 中")
	if len(errors) != 1 {
		t.Fatalf("Expected 1 error for multi-byte char, got %d: %v", len(errors), errors)
	}
	if !strings.Contains(errors[0].Message, "中") {
		t.Errorf("Error should name the offending rune: %s", errors[0].Message)
	}
}

// The lexer always terminates the stream with EOF
func TestLexer_EOFToken(t *testing.T) {
	tokens, _ := scanSource("")

	if len(tokens) != 1 {
		t.Fatalf("Expected 1 token, got %d", len(tokens))
	}
	if tokens[0].Type != TOKEN_EOF {
		t.Errorf("Expected EOF, got %s", tokens[0].Type)
	}
}

// A full step scans to the expected shape
func TestLexer_FullStep(t *testing.T) {
	source := `Step welcome
  Speak "Hello, " + $name + "!"
  Listen 5, 30
  Branch "help", help
`
	tokens, errors := scanSource(source)

	if len(errors) > 0 {
		t.Errorf("Unexpected errors: %v", errors)
	}

	expected := []TokenType{
		TOKEN_STEP, TOKEN_IDENTIFIER, TOKEN_NEWLINE,
		TOKEN_SPEAK, TOKEN_STRING, TOKEN_PLUS, TOKEN_VARIABLE, TOKEN_PLUS, TOKEN_STRING, TOKEN_NEWLINE,
		TOKEN_LISTEN, TOKEN_NUMBER, TOKEN_COMMA, TOKEN_NUMBER, TOKEN_NEWLINE,
		TOKEN_BRANCH, TOKEN_STRING, TOKEN_COMMA, TOKEN_IDENTIFIER, TOKEN_NEWLINE,
	}
	checkTokenTypes(t, tokens, expected)
}

// Scanning the same input twice produces identical streams
func TestLexer_Deterministic(t *testing.T) {
	source := "Step a\n  Set $x = 1 + 2.5\n  Exit\n"

	first, _ := scanSource(source)
	second, _ := scanSource(source)

	if len(first) != len(second) {
		t.Fatalf("Token counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("Token %d differs: %v vs %v", i, first[i], second[i])
		}
	}
}
