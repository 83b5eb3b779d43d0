package transfer

import (
	"absint/internal/domain"
	"absint/internal/errors"
	"absint/internal/program"
	"absint/internal/state"
)

// TransferBlock folds a basic block's straight-line statements (Assign and
// ExprStmt only; branches, loops, returns, break and continue are carried
// as separate CFG fields rather than entries in this list) over in,
// producing the block's out-state and any diagnostics raised along the
// way.
func TransferBlock(stmts []program.Stmt, in *state.State, resolver CallResolver, lengths LengthLookup) (*state.State, []errors.Diagnostic) {
	cur := in
	var diags []errors.Diagnostic
	for _, s := range stmts {
		if cur.IsBottom() {
			break
		}
		switch st := s.(type) {
		case *program.Assign:
			v, next, d := Eval(st.Expr, cur, resolver, lengths)
			diags = append(diags, d...)
			if next.IsBottom() {
				cur = next
				continue
			}
			cur = next.Set(st.Target, v)
		case *program.ExprStmt:
			_, next, d := Eval(st.Expr, cur, resolver, lengths)
			diags = append(diags, d...)
			cur = next
		}
	}
	return cur, diags
}

// EvalReturn computes the value a `return expr` (or bare `return`, when
// expr is nil) contributes to the function's return summary.
func EvalReturn(expr program.Expr, in *state.State, resolver CallResolver, lengths LengthLookup) (state.Value, []errors.Diagnostic) {
	if expr == nil {
		return FallOffValue(), nil
	}
	v, _, diags := Eval(expr, in, resolver, lengths)
	return v, diags
}

// FallOffValue is the convention for a path that reaches the function's
// exit without an explicit return: ⊤ nullability, ⊥ sign/range (§4.6).
func FallOffValue() state.Value {
	return state.Value{Sign: domain.SignBottom, Null: domain.Nullable, Range: domain.RangeBottom()}
}

// Condition evaluates a branching block's guard expression against in,
// producing the refined then/false states. Diagnostics raised evaluating
// cond itself (a call, a division, a dereference) apply to both branches
// and are reported once.
func Condition(cond program.Expr, in *state.State, resolver CallResolver, lengths LengthLookup) (sTrue, sFalse *state.State, diags []errors.Diagnostic) {
	_, evalOut, d := Eval(cond, in, resolver, lengths)
	diags = d
	if evalOut.IsBottom() {
		return evalOut, evalOut, diags
	}
	sTrue = refine(cond, evalOut, true, resolver, lengths)
	sFalse = refine(cond, evalOut, false, resolver, lengths)
	return sTrue, sFalse, diags
}

// refine narrows in under the assumption that cond evaluates to assumeTrue,
// implementing the comparison-refinement rule (§4.1) for direct comparisons
// on a variable against a constant or another variable, null-comparisons
// against nullability, logical negation, and short-circuit and/or.
// Expressions outside these shapes leave the state unchanged, per §4.4's
// default ("otherwise both branches receive S_in unchanged").
func refine(cond program.Expr, in *state.State, assumeTrue bool, resolver CallResolver, lengths LengthLookup) *state.State {
	switch n := cond.(type) {
	case *program.UnaryOp:
		if n.Op == program.OpNot {
			return refine(n.Operand, in, !assumeTrue, resolver, lengths)
		}
		return in

	case *program.BinOp:
		switch n.Op {
		case program.OpAnd:
			if assumeTrue {
				afterLeft := refine(n.Left, in, true, resolver, lengths)
				return refine(n.Right, afterLeft, true, resolver, lengths)
			}
			leftFalse := refine(n.Left, in, false, resolver, lengths)
			afterLeftTrue := refine(n.Left, in, true, resolver, lengths)
			rightFalse := refine(n.Right, afterLeftTrue, false, resolver, lengths)
			return state.Join(leftFalse, rightFalse)

		case program.OpOr:
			if !assumeTrue {
				afterLeft := refine(n.Left, in, false, resolver, lengths)
				return refine(n.Right, afterLeft, false, resolver, lengths)
			}
			leftTrue := refine(n.Left, in, true, resolver, lengths)
			afterLeftFalse := refine(n.Left, in, false, resolver, lengths)
			rightTrue := refine(n.Right, afterLeftFalse, true, resolver, lengths)
			return state.Join(leftTrue, rightTrue)

		case program.OpEq, program.OpNeq, program.OpLt, program.OpLe, program.OpGt, program.OpGe:
			return refineComparison(n.Op, n.Left, n.Right, in, assumeTrue)
		}
	}
	return in
}

func refineComparison(op program.BinOpKind, left, right program.Expr, in *state.State, assumeTrue bool) *state.State {
	if !assumeTrue {
		return refineComparison(negateOp(op), left, right, in, true)
	}

	if lv, ok := left.(*program.Var); ok {
		if c, ok := right.(*program.Const); ok && c.Kind == program.ConstNull {
			return refineNullComparison(op, lv.Name, in)
		}
		if c, ok := right.(*program.Const); ok && c.Kind == program.ConstInt {
			if k, ok := parseConstInt(c); ok {
				return narrowVarAgainstConst(op, lv.Name, k, in)
			}
		}
		if rv, ok := right.(*program.Var); ok {
			return narrowVarAgainstVar(op, lv.Name, rv.Name, in)
		}
	}
	if c, ok := left.(*program.Const); ok && c.Kind == program.ConstInt {
		if _, ok := right.(*program.Var); ok {
			return refineComparison(flipOp(op), right, left, in, true)
		}
	}
	if c, ok := left.(*program.Const); ok && c.Kind == program.ConstNull {
		if rvv, ok := right.(*program.Var); ok {
			return refineNullComparison(flipOp(op), rvv.Name, in)
		}
	}
	return in
}

func refineNullComparison(op program.BinOpKind, varName string, in *state.State) *state.State {
	v := in.Get(varName)
	switch op {
	case program.OpEq:
		v.Null = domain.NullMeet(v.Null, domain.DefinitelyNull)
	case program.OpNeq:
		v.Null = domain.NullMeet(v.Null, domain.NotNull)
	default:
		return in
	}
	return in.Set(varName, v)
}

func narrowVarAgainstConst(op program.BinOpKind, varName string, k int64, in *state.State) *state.State {
	v := in.Get(varName)
	switch op {
	case program.OpLt:
		v.Range = domain.RangeNarrowLess(v.Range, k)
	case program.OpLe:
		v.Range = domain.RangeNarrowLessEqual(v.Range, k)
	case program.OpGt:
		v.Range = domain.RangeNarrowGreater(v.Range, k)
	case program.OpGe:
		v.Range = domain.RangeNarrowGreaterEqual(v.Range, k)
	case program.OpEq:
		v.Range = domain.RangeNarrowEqual(v.Range, k)
	case program.OpNeq:
		if v.Range.Lo == k && v.Range.Hi == k {
			v.Range = domain.RangeBottom()
		}
	default:
		return in
	}
	return in.Set(varName, v)
}

// narrowVarAgainstVar narrows both sides of `left op right` using each
// other's current range as the bound, a generalization of the
// constant-comparison narrowing rule to the variable-variable case.
func narrowVarAgainstVar(op program.BinOpKind, leftName, rightName string, in *state.State) *state.State {
	left := in.Get(leftName)
	right := in.Get(rightName)
	out := in

	switch op {
	case program.OpLt:
		left.Range = domain.RangeNarrowLess(left.Range, right.Range.Hi)
		right.Range = domain.RangeNarrowGreater(right.Range, left.Range.Lo)
	case program.OpLe:
		left.Range = domain.RangeNarrowLessEqual(left.Range, right.Range.Hi)
		right.Range = domain.RangeNarrowGreaterEqual(right.Range, left.Range.Lo)
	case program.OpGt:
		left.Range = domain.RangeNarrowGreater(left.Range, right.Range.Lo)
		right.Range = domain.RangeNarrowLess(right.Range, left.Range.Hi)
	case program.OpGe:
		left.Range = domain.RangeNarrowGreaterEqual(left.Range, right.Range.Lo)
		right.Range = domain.RangeNarrowLessEqual(right.Range, left.Range.Hi)
	case program.OpEq:
		intersection := domain.RangeMeet(left.Range, right.Range)
		left.Range = intersection
		right.Range = intersection
	default:
		return in
	}
	out = out.Set(leftName, left)
	out = out.Set(rightName, right)
	return out
}

func parseConstInt(c *program.Const) (int64, bool) {
	v := evalConst(c)
	if v.Range.IsBottom() || v.Range.Lo != v.Range.Hi {
		return 0, false
	}
	return v.Range.Lo, true
}

func negateOp(op program.BinOpKind) program.BinOpKind {
	switch op {
	case program.OpEq:
		return program.OpNeq
	case program.OpNeq:
		return program.OpEq
	case program.OpLt:
		return program.OpGe
	case program.OpLe:
		return program.OpGt
	case program.OpGt:
		return program.OpLe
	case program.OpGe:
		return program.OpLt
	default:
		return op
	}
}

func flipOp(op program.BinOpKind) program.BinOpKind {
	switch op {
	case program.OpLt:
		return program.OpGt
	case program.OpLe:
		return program.OpGe
	case program.OpGt:
		return program.OpLt
	case program.OpGe:
		return program.OpLe
	default:
		return op
	}
}
