package fixture

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// One struct per production, a `lexer.Position` field for source
// locations, and a left operand plus a repeated (operator, right operand)
// pair for each binary-expression precedence tier: or, and, equality,
// relational, additive, multiplicative.

type posIdent struct {
	Pos   lexer.Position
	Value string `@Ident`
}

type grammarFunction struct {
	Pos    lexer.Position
	Name   posIdent       `"fn" @@ "("`
	Params []posIdent     `[ @@ { "," @@ } ] ")" "{"`
	Body   []*grammarStmt `@@* "}"`
}

type grammarStmt struct {
	Pos      lexer.Position
	If       *grammarIf       `  @@`
	While    *grammarWhile    `| @@`
	Return   *grammarReturn   `| @@`
	Break    *grammarBreak    `| @@`
	Continue *grammarContinue `| @@`
	Assign   *grammarAssign   `| @@`
	ExprStmt *grammarExprStmt `| @@`
}

type grammarIf struct {
	Pos  lexer.Position
	Cond *grammarExpr   `"if" @@ "{"`
	Then []*grammarStmt `@@* "}"`
	Else []*grammarStmt `[ "else" "{" @@* "}" ]`
}

type grammarWhile struct {
	Pos  lexer.Position
	Cond *grammarExpr   `"while" @@ "{"`
	Body []*grammarStmt `@@* "}"`
}

type grammarReturn struct {
	Pos  lexer.Position
	Expr *grammarExpr `"return" [ @@ ] ";"`
}

type grammarBreak struct {
	Pos lexer.Position `"break" ";"`
}

type grammarContinue struct {
	Pos lexer.Position `"continue" ";"`
}

type grammarAssign struct {
	Pos    lexer.Position
	Target string       `@Ident ":="`
	Expr   *grammarExpr `@@ ";"`
}

type grammarExprStmt struct {
	Pos  lexer.Position
	Expr *grammarExpr `@@ ";"`
}

// Expression grammar, loosest to tightest binding: or, and, equality,
// relational, additive, multiplicative, unary, postfix, primary.

type grammarExpr struct {
	Pos lexer.Position
	Or  *orExpr `@@`
}

type orExpr struct {
	Pos  lexer.Position
	Left *andExpr  `@@`
	Ops  []*andOp  `{ @@ }`
}

type andOp struct {
	Right *andExpr `"or" @@`
}

type andExpr struct {
	Pos  lexer.Position
	Left *equalityExpr `@@`
	Ops  []*eqGateOp   `{ @@ }`
}

type eqGateOp struct {
	Right *equalityExpr `"and" @@`
}

type equalityExpr struct {
	Pos  lexer.Position
	Left *relExpr      `@@`
	Ops  []*equalityOp `{ @@ }`
}

type equalityOp struct {
	Op    string   `@("==" | "!=")`
	Right *relExpr `@@`
}

type relExpr struct {
	Pos  lexer.Position
	Left *addExpr `@@`
	Ops  []*relOp `{ @@ }`
}

type relOp struct {
	Op    string   `@("<=" | ">=" | "<" | ">")`
	Right *addExpr `@@`
}

type addExpr struct {
	Pos  lexer.Position
	Left *mulExpr `@@`
	Ops  []*addOp `{ @@ }`
}

type addOp struct {
	Op    string   `@("+" | "-")`
	Right *mulExpr `@@`
}

type mulExpr struct {
	Pos  lexer.Position
	Left *unaryExpr `@@`
	Ops  []*mulOp   `{ @@ }`
}

type mulOp struct {
	Op    string     `@("*" | "/" | "%")`
	Right *unaryExpr `@@`
}

type unaryExpr struct {
	Pos     lexer.Position
	Op      string       `[ @("-" | "!") ]`
	Postfix *postfixExpr `@@`
}

type postfixExpr struct {
	Pos     lexer.Position
	Primary *primaryExpr `@@`
	Suffix  []*postfixOp `{ @@ }`
}

type postfixOp struct {
	Attr  *string      `  ( "." @Ident`
	Index *grammarExpr `  | "[" @@ "]" )`
}

type primaryExpr struct {
	Pos    lexer.Position
	Call   *callExpr    `  @@`
	Null   *string      `| @"null"`
	True   *string      `| @"true"`
	False  *string      `| @"false"`
	Float  *string      `| @Float`
	Int    *string      `| @Integer`
	Ident  *string      `| @Ident`
	Parens *grammarExpr `| "(" @@ ")"`
}

type callExpr struct {
	Pos  lexer.Position
	Name string         `@Ident "("`
	Args []*grammarExpr `[ @@ { "," @@ } ] ")"`
}
