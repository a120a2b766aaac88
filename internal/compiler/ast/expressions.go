package ast

// LiteralExpr represents a literal value. Value holds a string, an int64
// or a float64 depending on what the lexer produced.
type LiteralExpr struct {
	Value interface{}
	Loc   SourceLocation
}

func (l *LiteralExpr) node()     {}
func (l *LiteralExpr) exprNode() {}

func (l *LiteralExpr) Location() SourceLocation {
	return l.Loc
}

// VariableExpr represents a $name session-variable reference.
type VariableExpr struct {
	Name string // Without the $ sigil
	Loc  SourceLocation
}

func (v *VariableExpr) node()     {}
func (v *VariableExpr) exprNode() {}

func (v *VariableExpr) Location() SourceLocation {
	return v.Loc
}

// BinaryExpr represents an arithmetic or comparison operation
// (a + b, a == b, a < b, ...).
type BinaryExpr struct {
	Left     Expression
	Operator string // "+", "-", "*", "/", "==", "!=", "<", ">", "<=", ">="
	Right    Expression
	Loc      SourceLocation
}

func (b *BinaryExpr) node()     {}
func (b *BinaryExpr) exprNode() {}

func (b *BinaryExpr) Location() SourceLocation {
	return b.Loc
}

// LogicalExpr represents short-circuiting logical operations (and, or).
type LogicalExpr struct {
	Left     Expression
	Operator string // "and", "or"
	Right    Expression
	Loc      SourceLocation
}

func (l *LogicalExpr) node()     {}
func (l *LogicalExpr) exprNode() {}

func (l *LogicalExpr) Location() SourceLocation {
	return l.Loc
}

// UnaryExpr represents a unary operation (-x, not x).
type UnaryExpr struct {
	Operator string // "-", "not"
	Operand  Expression
	Loc      SourceLocation
}

func (u *UnaryExpr) node()     {}
func (u *UnaryExpr) exprNode() {}

func (u *UnaryExpr) Location() SourceLocation {
	return u.Loc
}

// CallExpr represents a built-in function call inside an expression
// (len, str, int, float).
type CallExpr struct {
	Name string
	Args []Expression
	Loc  SourceLocation
}

func (c *CallExpr) node()     {}
func (c *CallExpr) exprNode() {}

func (c *CallExpr) Location() SourceLocation {
	return c.Loc
}

// ParenExpr represents a parenthesized expression. The node exists so that
// source-level grouping survives formatting.
type ParenExpr struct {
	Expr Expression
	Loc  SourceLocation
}

func (p *ParenExpr) node()     {}
func (p *ParenExpr) exprNode() {}

func (p *ParenExpr) Location() SourceLocation {
	return p.Loc
}
