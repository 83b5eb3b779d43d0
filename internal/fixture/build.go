package fixture

import (
	"github.com/alecthomas/participle/v2/lexer"

	"absint/internal/program"
)

func pos(p lexer.Position) program.Position {
	return program.Position{Filename: p.Filename, Line: p.Line, Column: p.Column}
}

func buildFunction(g *grammarFunction) *program.Function {
	params := make([]string, len(g.Params))
	for i, p := range g.Params {
		params[i] = p.Value
	}
	return &program.Function{
		Name:   g.Name.Value,
		Params: params,
		Body:   buildStmts(g.Body),
		Pos:    pos(g.Pos),
	}
}

func buildStmts(gs []*grammarStmt) []program.Stmt {
	out := make([]program.Stmt, 0, len(gs))
	for _, s := range gs {
		out = append(out, buildStmt(s))
	}
	return out
}

func buildStmt(g *grammarStmt) program.Stmt {
	switch {
	case g.If != nil:
		return &program.If{
			Cond:     buildExpr(g.If.Cond),
			Then:     buildStmts(g.If.Then),
			Else:     buildStmts(g.If.Else),
			Position: pos(g.If.Pos),
		}
	case g.While != nil:
		return &program.While{
			Cond:     buildExpr(g.While.Cond),
			Body:     buildStmts(g.While.Body),
			Position: pos(g.While.Pos),
		}
	case g.Return != nil:
		var e program.Expr
		if g.Return.Expr != nil {
			e = buildExpr(g.Return.Expr)
		}
		return &program.Return{Expr: e, Position: pos(g.Return.Pos)}
	case g.Break != nil:
		return &program.Break{Position: pos(g.Break.Pos)}
	case g.Continue != nil:
		return &program.Continue{Position: pos(g.Continue.Pos)}
	case g.Assign != nil:
		return &program.Assign{
			Target:   g.Assign.Target,
			Expr:     buildExpr(g.Assign.Expr),
			Position: pos(g.Assign.Pos),
		}
	default:
		return &program.ExprStmt{
			Expr:     buildExpr(g.ExprStmt.Expr),
			Position: pos(g.ExprStmt.Pos),
		}
	}
}

func buildExpr(g *grammarExpr) program.Expr {
	return buildOr(g.Or)
}

func buildOr(g *orExpr) program.Expr {
	left := buildAnd(g.Left)
	for _, op := range g.Ops {
		right := buildAnd(op.Right)
		left = &program.BinOp{Op: program.OpOr, Left: left, Right: right, Position: pos(g.Pos)}
	}
	return left
}

func buildAnd(g *andExpr) program.Expr {
	left := buildEquality(g.Left)
	for _, op := range g.Ops {
		right := buildEquality(op.Right)
		left = &program.BinOp{Op: program.OpAnd, Left: left, Right: right, Position: pos(g.Pos)}
	}
	return left
}

func buildEquality(g *equalityExpr) program.Expr {
	left := buildRel(g.Left)
	for _, op := range g.Ops {
		right := buildRel(op.Right)
		left = &program.BinOp{Op: program.BinOpKind(op.Op), Left: left, Right: right, Position: pos(g.Pos)}
	}
	return left
}

func buildRel(g *relExpr) program.Expr {
	left := buildAdd(g.Left)
	for _, op := range g.Ops {
		right := buildAdd(op.Right)
		left = &program.BinOp{Op: program.BinOpKind(op.Op), Left: left, Right: right, Position: pos(g.Pos)}
	}
	return left
}

func buildAdd(g *addExpr) program.Expr {
	left := buildMul(g.Left)
	for _, op := range g.Ops {
		right := buildMul(op.Right)
		left = &program.BinOp{Op: program.BinOpKind(op.Op), Left: left, Right: right, Position: pos(g.Pos)}
	}
	return left
}

func buildMul(g *mulExpr) program.Expr {
	left := buildUnary(g.Left)
	for _, op := range g.Ops {
		right := buildUnary(op.Right)
		left = &program.BinOp{Op: program.BinOpKind(op.Op), Left: left, Right: right, Position: pos(g.Pos)}
	}
	return left
}

func buildUnary(g *unaryExpr) program.Expr {
	operand := buildPostfix(g.Postfix)
	if g.Op == "" {
		return operand
	}
	kind := program.OpNeg
	if g.Op == "!" {
		kind = program.OpNot
	}
	return &program.UnaryOp{Op: kind, Operand: operand, Position: pos(g.Pos)}
}

func buildPostfix(g *postfixExpr) program.Expr {
	expr := buildPrimary(g.Primary)
	for _, suf := range g.Suffix {
		switch {
		case suf.Attr != nil:
			expr = &program.Attr{Object: expr, Name: *suf.Attr, Position: expr.Pos()}
		case suf.Index != nil:
			expr = &program.Index{Object: expr, Idx: buildExpr(suf.Index), Position: expr.Pos()}
		}
	}
	return expr
}

func buildPrimary(g *primaryExpr) program.Expr {
	switch {
	case g.Call != nil:
		args := make([]program.Expr, len(g.Call.Args))
		for i, a := range g.Call.Args {
			args[i] = buildExpr(a)
		}
		return &program.Call{Callee: g.Call.Name, Args: args, Position: pos(g.Call.Pos)}
	case g.Null != nil:
		return &program.Const{Kind: program.ConstNull, Position: pos(g.Pos)}
	case g.True != nil:
		return &program.Const{Kind: program.ConstBool, Value: "true", Position: pos(g.Pos)}
	case g.False != nil:
		return &program.Const{Kind: program.ConstBool, Value: "false", Position: pos(g.Pos)}
	case g.Float != nil:
		return &program.Const{Kind: program.ConstFloat, Value: *g.Float, Position: pos(g.Pos)}
	case g.Int != nil:
		return &program.Const{Kind: program.ConstInt, Value: *g.Int, Position: pos(g.Pos)}
	case g.Ident != nil:
		return &program.Var{Name: *g.Ident, Position: pos(g.Pos)}
	default:
		return buildExpr(g.Parens)
	}
}
