// Package transfer evaluates program expressions and statements against a
// joint abstract state, producing successor states and diagnostics. It is
// the analyzer's C4: the only package that touches both the domains/state
// layer and the program AST directly.
package transfer

import (
	"strconv"

	"absint/internal/domain"
	"absint/internal/errors"
	"absint/internal/program"
	"absint/internal/state"
)

// CallResult is what a call site needs from a resolved callee: its return
// value, the diagnostics it produced (not yet relabeled to the call site),
// and whether it may perform I/O (propagated into the caller's summary).
type CallResult struct {
	Value        state.Value
	Diagnostics  []errors.Diagnostic
	MayPerformIO bool
}

// CallResolver resolves a call expression to its effect on the caller's
// state. The interprocedural driver (C8) supplies the real implementation
// backed by the summary cache; tests supply stubs.
type CallResolver interface {
	Resolve(callee string, args []state.Value, pos program.Position) CallResult
}

// LengthLookup reports the known length range of an array-like variable,
// per the "conventional naming scheme" §4.9 allows for associating a
// length abstraction with an indexed object. ok is false when no length
// information is available, in which case bounds checks are skipped.
type LengthLookup func(objectName string, s *state.State) (length domain.Range, ok bool)

// lengthByConvention implements the default convention: a variable
// indexed as `name[i]` has its length tracked under the variable named
// `name_len`, if present in the state.
func lengthByConvention(objectName string, s *state.State) (domain.Range, bool) {
	v, bound := s.Vars[objectName+"_len"]
	if !bound {
		return domain.Range{}, false
	}
	return v.Range, true
}

// Eval evaluates e under s, returning its joint value, any diagnostics
// raised while evaluating it (div-by-zero, null dereference, bounds), and
// the state that results once e's evaluation is accounted for. The
// returned state only ever differs from s by refining a dereferenced
// variable's nullability (§4.1: a survived possible-null dereference
// proves the variable was not null). Evaluation that proves its own
// subexpression unreachable returns a ⊥ state; callers must check
// out.IsBottom() before trusting value.
func Eval(e program.Expr, s *state.State, resolver CallResolver, lengths LengthLookup) (value state.Value, out *state.State, diags []errors.Diagnostic) {
	if lengths == nil {
		lengths = lengthByConvention
	}
	switch n := e.(type) {
	case *program.Const:
		return evalConst(n), s, nil
	case *program.Var:
		return s.Get(n.Name), s, nil
	case *program.UnaryOp:
		return evalUnary(n, s, resolver, lengths)
	case *program.BinOp:
		return evalBinOp(n, s, resolver, lengths)
	case *program.Call:
		return evalCall(n, s, resolver, lengths)
	case *program.Attr:
		return evalAttr(n, s, resolver, lengths)
	case *program.Index:
		return evalIndex(n, s, resolver, lengths)
	default:
		return state.Top, s, []errors.Diagnostic{errors.NewDiagnostic(errors.MalformedAST, e.Pos())}
	}
}

func evalConst(c *program.Const) state.Value {
	switch c.Kind {
	case program.ConstNull:
		return state.Value{Sign: domain.SignZero, Null: domain.DefinitelyNull, Range: domain.RangePoint(0)}
	case program.ConstInt:
		n, err := strconv.ParseInt(c.Value, 10, 64)
		if err != nil {
			return state.Value{Sign: domain.SignTop, Null: domain.NotNull, Range: domain.RangeTop()}
		}
		return state.Value{Sign: domain.SignFromInt(n), Null: domain.NotNull, Range: domain.RangePoint(n)}
	case program.ConstFloat:
		f, err := strconv.ParseFloat(c.Value, 64)
		if err != nil {
			return state.Value{Sign: domain.SignTop, Null: domain.NotNull, Range: domain.RangeTop()}
		}
		lo, hi := floatBounds(f)
		return state.Value{Sign: floatSign(f), Null: domain.NotNull, Range: domain.Range{Lo: lo, Hi: hi}}
	case program.ConstBool:
		if c.Value == "true" {
			return boolValue(true)
		}
		return boolValue(false)
	default:
		return state.Value{Sign: domain.SignTop, Null: domain.NotNull, Range: domain.RangeTop()}
	}
}

// floatBounds lifts a float literal to the integer range domain by taking
// floor(lower bound)/ceil(upper bound), which for an exact literal is just
// floor(f)/ceil(f) (the Open Question decision on float representation).
func floatBounds(f float64) (int64, int64) {
	lo := int64(f)
	if float64(lo) > f {
		lo--
	}
	hi := int64(f)
	if float64(hi) < f {
		hi++
	}
	return lo, hi
}

func floatSign(f float64) domain.Sign {
	switch {
	case f < 0:
		return domain.SignNeg
	case f > 0:
		return domain.SignPos
	default:
		return domain.SignZero
	}
}

func boolValue(b bool) state.Value {
	if b {
		return state.Value{Sign: domain.SignPos, Null: domain.NotNull, Range: domain.RangePoint(1)}
	}
	return state.Value{Sign: domain.SignZero, Null: domain.NotNull, Range: domain.RangePoint(0)}
}

// unknownBool is the value of a comparison or logical expression whose
// truth could not be determined statically: it may be 0 or 1.
var unknownBool = state.Value{Sign: domain.SignTop, Null: domain.NotNull, Range: domain.Range{Lo: 0, Hi: 1}}

func evalUnary(n *program.UnaryOp, s *state.State, r CallResolver, lengths LengthLookup) (state.Value, *state.State, []errors.Diagnostic) {
	v, s1, diags := Eval(n.Operand, s, r, lengths)
	if s1.IsBottom() {
		return state.Bottom, s1, diags
	}
	switch n.Op {
	case program.OpNeg:
		return state.Value{Sign: domain.SignNegate(v.Sign), Null: v.Null, Range: domain.RangeSub(domain.RangePoint(0), v.Range)}, s1, diags
	case program.OpNot:
		return negateBool(v), s1, diags
	default:
		return state.Top, s1, diags
	}
}

// negateBool flips a boolean-shaped range: definite true/false invert, and
// an undetermined value stays undetermined.
func negateBool(v state.Value) state.Value {
	if v.Range.Contains(1) && !v.Range.Contains(0) {
		return boolValue(false)
	}
	if v.Range.Contains(0) && !v.Range.Contains(1) {
		return boolValue(true)
	}
	return unknownBool
}

func evalBinOp(n *program.BinOp, s *state.State, r CallResolver, lengths LengthLookup) (state.Value, *state.State, []errors.Diagnostic) {
	switch n.Op {
	case program.OpAnd:
		return evalShortCircuit(n, s, r, lengths, true)
	case program.OpOr:
		return evalShortCircuit(n, s, r, lengths, false)
	}

	left, s1, leftDiags := Eval(n.Left, s, r, lengths)
	if s1.IsBottom() {
		return state.Bottom, s1, leftDiags
	}
	right, s2, rightDiags := Eval(n.Right, s1, r, lengths)
	diags := append(leftDiags, rightDiags...)
	if s2.IsBottom() {
		return state.Bottom, s2, diags
	}

	switch n.Op {
	case program.OpAdd:
		return state.Value{Sign: domain.SignAdd(left.Sign, right.Sign), Null: domain.NotNull, Range: domain.RangeAdd(left.Range, right.Range)}, s2, diags
	case program.OpSub:
		return state.Value{Sign: domain.SignSub(left.Sign, right.Sign), Null: domain.NotNull, Range: domain.RangeSub(left.Range, right.Range)}, s2, diags
	case program.OpMul:
		return state.Value{Sign: domain.SignMul(left.Sign, right.Sign), Null: domain.NotNull, Range: domain.RangeMul(left.Range, right.Range)}, s2, diags
	case program.OpDiv:
		v, out, d := evalDivMod(left, right, n.Position, s2, diags, false)
		return v, out, d
	case program.OpMod:
		v, out, d := evalDivMod(left, right, n.Position, s2, diags, true)
		return v, out, d
	case program.OpEq, program.OpNeq, program.OpLt, program.OpLe, program.OpGt, program.OpGe:
		return evalComparison(n.Op, left, right), s2, diags
	default:
		return state.Top, s2, diags
	}
}

func evalDivMod(left, right state.Value, pos program.Position, s *state.State, diags []errors.Diagnostic, isMod bool) (state.Value, *state.State, []errors.Diagnostic) {
	signResult, signMayBeZero := domain.SignDiv(left.Sign, right.Sign)
	rangeResult, rangeMayBeZero := domain.RangeDiv(left.Range, right.Range)
	mayBeZero := signMayBeZero && rangeMayBeZero

	definitelyZero := right.Range.Lo == 0 && right.Range.Hi == 0
	if definitelyZero {
		diags = append(diags, errors.NewDiagnostic(errors.DivByZero, pos))
		return state.Bottom, s.MarkUnreachable(), diags
	}
	if mayBeZero {
		diags = append(diags, errors.NewDiagnostic(errors.PossibleDivByZero, pos))
	}
	if isMod {
		// Remainder's sign follows the dividend; its magnitude is bounded
		// by the divisor, which the range domain does not model precisely
		// here, so fall back to range ⊤ while keeping the sign result.
		return state.Value{Sign: left.Sign, Null: domain.NotNull, Range: domain.RangeTop()}, s, diags
	}
	return state.Value{Sign: signResult, Null: domain.NotNull, Range: rangeResult}, s, diags
}

func evalComparison(op program.BinOpKind, left, right state.Value) state.Value {
	switch op {
	case program.OpEq:
		if left.Range.IsBottom() || right.Range.IsBottom() {
			return unknownBool
		}
		if left.Range.Lo == left.Range.Hi && right.Range.Lo == right.Range.Hi && left.Range.Lo == right.Range.Lo {
			return boolValue(true)
		}
		if !rangesOverlap(left.Range, right.Range) {
			return boolValue(false)
		}
		return unknownBool
	case program.OpNeq:
		return negateBool(evalComparison(program.OpEq, left, right))
	case program.OpLt:
		if left.Range.Hi < right.Range.Lo {
			return boolValue(true)
		}
		if left.Range.Lo >= right.Range.Hi {
			return boolValue(false)
		}
		return unknownBool
	case program.OpLe:
		if left.Range.Hi <= right.Range.Lo {
			return boolValue(true)
		}
		if left.Range.Lo > right.Range.Hi {
			return boolValue(false)
		}
		return unknownBool
	case program.OpGt:
		return evalComparison(program.OpLt, right, left)
	case program.OpGe:
		return evalComparison(program.OpLe, right, left)
	default:
		return unknownBool
	}
}

func rangesOverlap(a, b domain.Range) bool {
	if a.IsBottom() || b.IsBottom() {
		return false
	}
	return a.Lo <= b.Hi && b.Lo <= a.Hi
}

// evalShortCircuit implements `and`/`or` without evaluating the right
// operand when the left operand alone decides the result, so diagnostics
// from a right-hand call guarded by `x != null and x.f()` are not raised
// when x is null.
func evalShortCircuit(n *program.BinOp, s *state.State, r CallResolver, lengths LengthLookup, isAnd bool) (state.Value, *state.State, []errors.Diagnostic) {
	left, s1, diags := Eval(n.Left, s, r, lengths)
	if s1.IsBottom() {
		return state.Bottom, s1, diags
	}
	leftDefinitelyFalse := left.Range.Contains(0) && !left.Range.Contains(1)
	leftDefinitelyTrue := left.Range.Contains(1) && !left.Range.Contains(0)

	if isAnd && leftDefinitelyFalse {
		return boolValue(false), s1, diags
	}
	if !isAnd && leftDefinitelyTrue {
		return boolValue(true), s1, diags
	}

	right, s2, rightDiags := Eval(n.Right, s1, r, lengths)
	diags = append(diags, rightDiags...)
	if s2.IsBottom() {
		return state.Bottom, s2, diags
	}

	if isAnd {
		if leftDefinitelyTrue {
			return right, s2, diags
		}
		return combineBool(left, right, isAnd), s2, diags
	}
	if leftDefinitelyFalse {
		return right, s2, diags
	}
	return combineBool(left, right, isAnd), s2, diags
}

func combineBool(left, right state.Value, isAnd bool) state.Value {
	leftTrue := left.Range.Contains(1) && !left.Range.Contains(0)
	leftFalse := left.Range.Contains(0) && !left.Range.Contains(1)
	rightTrue := right.Range.Contains(1) && !right.Range.Contains(0)
	rightFalse := right.Range.Contains(0) && !right.Range.Contains(1)

	if isAnd {
		if leftTrue && rightTrue {
			return boolValue(true)
		}
		if leftFalse || rightFalse {
			return boolValue(false)
		}
	} else {
		if leftFalse && rightFalse {
			return boolValue(false)
		}
		if leftTrue || rightTrue {
			return boolValue(true)
		}
	}
	return unknownBool
}

func evalCall(n *program.Call, s *state.State, r CallResolver, lengths LengthLookup) (state.Value, *state.State, []errors.Diagnostic) {
	args := make([]state.Value, len(n.Args))
	cur := s
	var diags []errors.Diagnostic
	for i, a := range n.Args {
		v, next, d := Eval(a, cur, r, lengths)
		if next.IsBottom() {
			return state.Bottom, next, append(diags, d...)
		}
		args[i] = v
		cur = next
		diags = append(diags, d...)
	}
	if r == nil {
		return state.Top, cur, diags
	}
	result := r.Resolve(n.Callee, args, n.Position)
	for _, d := range result.Diagnostics {
		diags = append(diags, d.RelabelCallSite(n.Position))
	}
	return result.Value, cur, diags
}

func evalAttr(n *program.Attr, s *state.State, r CallResolver, lengths LengthLookup) (state.Value, *state.State, []errors.Diagnostic) {
	obj, s1, diags := Eval(n.Object, s, r, lengths)
	if s1.IsBottom() {
		return state.Bottom, s1, diags
	}
	refinedObj, s2, nullDiags := checkNullDeref(n.Object, obj, s1, n.Position)
	diags = append(diags, nullDiags...)
	if refinedObj.IsBottom() {
		return state.Bottom, s2, diags
	}
	return state.Top, s2, diags
}

func evalIndex(n *program.Index, s *state.State, r CallResolver, lengths LengthLookup) (state.Value, *state.State, []errors.Diagnostic) {
	obj, s1, diags := Eval(n.Object, s, r, lengths)
	if s1.IsBottom() {
		return state.Bottom, s1, diags
	}
	refinedObj, s2, nullDiags := checkNullDeref(n.Object, obj, s1, n.Position)
	diags = append(diags, nullDiags...)
	if refinedObj.IsBottom() {
		return state.Bottom, s2, diags
	}

	idx, s3, idxDiags := Eval(n.Idx, s2, r, lengths)
	diags = append(diags, idxDiags...)
	if s3.IsBottom() {
		return state.Bottom, s3, diags
	}

	if objName, ok := n.Object.(*program.Var); ok {
		if length, ok := lengths(objName.Name, s3); ok {
			diags = append(diags, boundsCheck(idx.Range, length, n.Position)...)
		}
	}
	return state.Top, s3, diags
}

// checkNullDeref applies the nullability transfer rule for attribute and
// index access: definite null is an error and prunes the path; possible
// null is a warning whose surviving path refines the dereferenced
// variable (when it is a plain Var) to not-null, since the dereference
// could not otherwise have succeeded.
func checkNullDeref(objExpr program.Expr, v state.Value, s *state.State, pos program.Position) (state.Value, *state.State, []errors.Diagnostic) {
	switch v.Null {
	case domain.DefinitelyNull:
		return state.Bottom, s.MarkUnreachable(), []errors.Diagnostic{errors.NewDiagnostic(errors.NullDereference, pos)}
	case domain.Nullable:
		refined := v
		refined.Null = domain.NotNull
		out := s
		if objVar, ok := objExpr.(*program.Var); ok {
			out = s.Set(objVar.Name, refined)
		}
		return refined, out, []errors.Diagnostic{errors.NewDiagnostic(errors.PossibleNullDereference, pos)}
	default:
		return v, s, nil
	}
}

// boundsCheck compares idx's range against [0, length-1]: fully inside is
// clean, fully outside is a definite OutOfBounds, and any overlap of the
// two is only a possible violation.
func boundsCheck(idx, length domain.Range, pos program.Position) []errors.Diagnostic {
	maxValid := domain.RangeSub(length, domain.RangePoint(1))
	if maxValid.IsBottom() {
		return []errors.Diagnostic{errors.NewDiagnostic(errors.OutOfBounds, pos)}
	}
	if idx.Lo >= 0 && idx.Hi <= maxValid.Hi {
		return nil
	}
	if idx.Hi < 0 || idx.Lo > maxValid.Hi {
		return []errors.Diagnostic{errors.NewDiagnostic(errors.OutOfBounds, pos)}
	}
	return []errors.Diagnostic{errors.NewDiagnostic(errors.PossibleOutOfBounds, pos)}
}
