package program

import (
	"fmt"
	"strings"
)

// String renders a function in a debug-friendly textual form; it is not a
// reparsable surface syntax, only a tool for test failures and logging.
func (f *Function) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "fn %s(%s) {\n", f.Name, strings.Join(f.Params, ", "))
	writeStmts(&b, f.Body, 1)
	b.WriteString("}")
	return b.String()
}

func writeStmts(b *strings.Builder, stmts []Stmt, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, s := range stmts {
		b.WriteString(indent)
		b.WriteString(stmtString(s, depth))
		b.WriteByte('\n')
	}
}

func stmtString(s Stmt, depth int) string {
	switch n := s.(type) {
	case *Assign:
		return fmt.Sprintf("%s := %s", n.Target, exprString(n.Expr))
	case *If:
		var b strings.Builder
		fmt.Fprintf(&b, "if %s {\n", exprString(n.Cond))
		writeStmts(&b, n.Then, depth+1)
		b.WriteString(strings.Repeat("  ", depth) + "}")
		if len(n.Else) > 0 {
			b.WriteString(" else {\n")
			writeStmts(&b, n.Else, depth+1)
			b.WriteString(strings.Repeat("  ", depth) + "}")
		}
		return b.String()
	case *While:
		var b strings.Builder
		fmt.Fprintf(&b, "while %s {\n", exprString(n.Cond))
		writeStmts(&b, n.Body, depth+1)
		b.WriteString(strings.Repeat("  ", depth) + "}")
		return b.String()
	case *Return:
		if n.Expr == nil {
			return "return"
		}
		return "return " + exprString(n.Expr)
	case *Break:
		return "break"
	case *Continue:
		return "continue"
	case *ExprStmt:
		return exprString(n.Expr)
	default:
		return "<unknown stmt>"
	}
}

func exprString(e Expr) string {
	switch n := e.(type) {
	case *Const:
		if n.Kind == ConstNull {
			return "null"
		}
		return n.Value
	case *Var:
		return n.Name
	case *BinOp:
		return fmt.Sprintf("(%s %s %s)", exprString(n.Left), n.Op, exprString(n.Right))
	case *UnaryOp:
		return fmt.Sprintf("(%s%s)", n.Op, exprString(n.Operand))
	case *Call:
		args := make([]string, len(n.Args))
		for i, a := range n.Args {
			args[i] = exprString(a)
		}
		return fmt.Sprintf("%s(%s)", n.Callee, strings.Join(args, ", "))
	case *Attr:
		return fmt.Sprintf("%s.%s", exprString(n.Object), n.Name)
	case *Index:
		return fmt.Sprintf("%s[%s]", exprString(n.Object), exprString(n.Idx))
	default:
		return "<unknown expr>"
	}
}
