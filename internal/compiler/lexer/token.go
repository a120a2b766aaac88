package lexer

import "fmt"

// TokenType represents the type of a token in the Parley language
type TokenType int

const (
	// TOKEN_EOF marks the end of the token stream.
	TOKEN_EOF TokenType = iota
	// TOKEN_ERROR is a sentinel used by the parser when a consume fails.
	TOKEN_ERROR
	// TOKEN_NEWLINE represents a line break. Newlines are significant:
	// they terminate statements and step headers.
	TOKEN_NEWLINE

	// Keywords - step structure
	TOKEN_STEP    // Step
	TOKEN_SPEAK   // Speak
	TOKEN_LISTEN  // Listen
	TOKEN_BRANCH  // Branch
	TOKEN_SILENCE // Silence
	TOKEN_DEFAULT // Default
	TOKEN_EXIT    // Exit
	TOKEN_GOTO    // Goto

	// Keywords - statements
	TOKEN_SET      // Set
	TOKEN_IF       // If
	TOKEN_ELSE     // Else
	TOKEN_ENDIF    // EndIf
	TOKEN_WHILE    // While
	TOKEN_ENDWHILE // EndWhile
	TOKEN_CALL     // Call

	// Keywords - logical operators
	TOKEN_AND // and
	TOKEN_OR  // or
	TOKEN_NOT // not

	// Literals
	TOKEN_STRING     // "hello", 'hello'
	TOKEN_NUMBER     // 42, 3.14
	TOKEN_IDENTIFIER // welcome, query_department
	TOKEN_VARIABLE   // $name, $count

	// Operators
	TOKEN_PLUS   // +
	TOKEN_MINUS  // -
	TOKEN_STAR   // *
	TOKEN_SLASH  // /
	TOKEN_EQ     // ==
	TOKEN_NEQ    // !=
	TOKEN_GT     // >
	TOKEN_LT     // <
	TOKEN_GE     // >=
	TOKEN_LE     // <=
	TOKEN_ASSIGN // =

	// Delimiters
	TOKEN_COMMA    // ,
	TOKEN_COLON    // :
	TOKEN_LPAREN   // (
	TOKEN_RPAREN   // )
	TOKEN_LBRACKET // [
	TOKEN_RBRACKET // ]
	TOKEN_LBRACE   // {
	TOKEN_RBRACE   // }
)

// TokenTypeNames maps token types to their string representations
var TokenTypeNames = map[TokenType]string{
	TOKEN_EOF:        "EOF",
	TOKEN_ERROR:      "ERROR",
	TOKEN_NEWLINE:    "NEWLINE",
	TOKEN_STEP:       "STEP",
	TOKEN_SPEAK:      "SPEAK",
	TOKEN_LISTEN:     "LISTEN",
	TOKEN_BRANCH:     "BRANCH",
	TOKEN_SILENCE:    "SILENCE",
	TOKEN_DEFAULT:    "DEFAULT",
	TOKEN_EXIT:       "EXIT",
	TOKEN_GOTO:       "GOTO",
	TOKEN_SET:        "SET",
	TOKEN_IF:         "IF",
	TOKEN_ELSE:       "ELSE",
	TOKEN_ENDIF:      "ENDIF",
	TOKEN_WHILE:      "WHILE",
	TOKEN_ENDWHILE:   "ENDWHILE",
	TOKEN_CALL:       "CALL",
	TOKEN_AND:        "AND",
	TOKEN_OR:         "OR",
	TOKEN_NOT:        "NOT",
	TOKEN_STRING:     "STRING",
	TOKEN_NUMBER:     "NUMBER",
	TOKEN_IDENTIFIER: "IDENTIFIER",
	TOKEN_VARIABLE:   "VARIABLE",
	TOKEN_PLUS:       "PLUS",
	TOKEN_MINUS:      "MINUS",
	TOKEN_STAR:       "STAR",
	TOKEN_SLASH:      "SLASH",
	TOKEN_EQ:         "EQ",
	TOKEN_NEQ:        "NEQ",
	TOKEN_GT:         "GT",
	TOKEN_LT:         "LT",
	TOKEN_GE:         "GE",
	TOKEN_LE:         "LE",
	TOKEN_ASSIGN:     "ASSIGN",
	TOKEN_COMMA:      "COMMA",
	TOKEN_COLON:      "COLON",
	TOKEN_LPAREN:     "LPAREN",
	TOKEN_RPAREN:     "RPAREN",
	TOKEN_LBRACKET:   "LBRACKET",
	TOKEN_RBRACKET:   "RBRACKET",
	TOKEN_LBRACE:     "LBRACE",
	TOKEN_RBRACE:     "RBRACE",
}

// String returns the string representation of a TokenType
func (t TokenType) String() string {
	if name, ok := TokenTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN(%d)", t)
}

// Token represents a single lexical token in Parley source code
type Token struct {
	Type    TokenType   // The type of the token
	Lexeme  string      // The raw text of the token
	Literal interface{} // The parsed value (for literals and variables)
	Line    int         // Line number (1-indexed)
	Column  int         // Column number (1-indexed)
}

// String returns a string representation of the token
func (t Token) String() string {
	if t.Literal != nil {
		return fmt.Sprintf("%s '%s' (%v) at %d:%d",
			t.Type.String(), t.Lexeme, t.Literal, t.Line, t.Column)
	}
	return fmt.Sprintf("%s '%s' at %d:%d",
		t.Type.String(), t.Lexeme, t.Line, t.Column)
}

// Keywords maps reserved words to their token types. Matching is
// case-sensitive: "Step" is a keyword, "step" is an identifier.
var Keywords = map[string]TokenType{
	"Step":     TOKEN_STEP,
	"Speak":    TOKEN_SPEAK,
	"Listen":   TOKEN_LISTEN,
	"Branch":   TOKEN_BRANCH,
	"Silence":  TOKEN_SILENCE,
	"Default":  TOKEN_DEFAULT,
	"Exit":     TOKEN_EXIT,
	"Goto":     TOKEN_GOTO,
	"Set":      TOKEN_SET,
	"If":       TOKEN_IF,
	"Else":     TOKEN_ELSE,
	"EndIf":    TOKEN_ENDIF,
	"While":    TOKEN_WHILE,
	"EndWhile": TOKEN_ENDWHILE,
	"Call":     TOKEN_CALL,
	"and":      TOKEN_AND,
	"or":       TOKEN_OR,
	"not":      TOKEN_NOT,
}

// IsKeyword checks if a string is a Parley keyword
func IsKeyword(s string) bool {
	_, ok := Keywords[s]
	return ok
}

// LexError represents an error encountered during lexical analysis
type LexError struct {
	Message string // Error message
	Line    int    // Line number where error occurred
	Column  int    // Column number where error occurred
	Lexeme  string // The problematic text
}

// Error implements the error interface
func (e LexError) Error() string {
	return fmt.Sprintf("Lexical error at %d:%d: %s (near '%s')",
		e.Line, e.Column, e.Message, e.Lexeme)
}
