package transfer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"absint/internal/domain"
	"absint/internal/errors"
	"absint/internal/program"
	"absint/internal/state"
)

func p() program.Position { return program.Position{Filename: "t.k", Line: 1, Column: 1} }

func constInt(n int64) *program.Const {
	return &program.Const{Kind: program.ConstInt, Value: itoa(n), Position: p()}
}

func itoa(n int64) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf []byte
	for n > 0 {
		buf = append([]byte{byte('0' + n%10)}, buf...)
		n /= 10
	}
	if neg {
		buf = append([]byte{'-'}, buf...)
	}
	return string(buf)
}

func varE(name string) *program.Var { return &program.Var{Name: name, Position: p()} }

// S1 — direct null deref: x := null; return x.field
func TestNullDereferenceSink(t *testing.T) {
	s := state.New().Set("x", state.Value{Sign: domain.SignZero, Null: domain.DefinitelyNull, Range: domain.RangePoint(0)})
	attr := &program.Attr{Object: varE("x"), Name: "field", Position: p()}
	_, out, diags := Eval(attr, s, nil, nil)

	assert.True(t, out.IsBottom())
	assert.Len(t, diags, 1)
	assert.Equal(t, errors.NullDereference, diags[0].Kind)
}

func TestPossibleNullDereferenceRefinesToNotNull(t *testing.T) {
	s := state.New().Set("x", state.Value{Sign: domain.SignTop, Null: domain.Nullable, Range: domain.RangeTop()})
	attr := &program.Attr{Object: varE("x"), Name: "field", Position: p()}
	_, out, diags := Eval(attr, s, nil, nil)

	assert.False(t, out.IsBottom())
	assert.Equal(t, domain.NotNull, out.Get("x").Null)
	assert.Len(t, diags, 1)
	assert.Equal(t, errors.PossibleNullDereference, diags[0].Kind)
}

// S2-shaped: a * b where both are positive yields positive, range [0,+inf)-ish product.
func TestMulPositivePositiveIsPositive(t *testing.T) {
	s := state.New().
		Set("a", state.Value{Sign: domain.SignPos, Null: domain.NotNull, Range: domain.Range{Lo: 1, Hi: 5}}).
		Set("b", state.Value{Sign: domain.SignPos, Null: domain.NotNull, Range: domain.Range{Lo: 1, Hi: 5}})
	mul := &program.BinOp{Op: program.OpMul, Left: varE("a"), Right: varE("b"), Position: p()}
	v, out, diags := Eval(mul, s, nil, nil)

	assert.Empty(t, diags)
	assert.False(t, out.IsBottom())
	assert.Equal(t, domain.SignPos, v.Sign)
	assert.Equal(t, int64(1), v.Range.Lo)
	assert.Equal(t, int64(25), v.Range.Hi)
}

// S4 — division by a possibly-zero parameter.
func TestDivisionByPossiblyZeroParameterWarns(t *testing.T) {
	s := state.New().
		Set("x", state.Value{Sign: domain.SignTop, Null: domain.NotNull, Range: domain.RangeTop()}).
		Set("y", state.Value{Sign: domain.SignTop, Null: domain.NotNull, Range: domain.RangeTop()})
	div := &program.BinOp{Op: program.OpDiv, Left: varE("x"), Right: varE("y"), Position: p()}
	v, out, diags := Eval(div, s, nil, nil)

	assert.False(t, out.IsBottom())
	assert.True(t, v.Range.IsTop())
	assert.Len(t, diags, 1)
	assert.Equal(t, errors.PossibleDivByZero, diags[0].Kind)
}

func TestDivisionByDefiniteZeroIsError(t *testing.T) {
	s := state.New().
		Set("x", state.Value{Sign: domain.SignPos, Null: domain.NotNull, Range: domain.RangePoint(10)}).
		Set("y", state.Value{Sign: domain.SignZero, Null: domain.NotNull, Range: domain.RangePoint(0)})
	div := &program.BinOp{Op: program.OpDiv, Left: varE("x"), Right: varE("y"), Position: p()}
	_, out, diags := Eval(div, s, nil, nil)

	assert.True(t, out.IsBottom())
	assert.Len(t, diags, 1)
	assert.Equal(t, errors.DivByZero, diags[0].Kind)
}

func TestShortCircuitAndSkipsRightOnDefiniteFalse(t *testing.T) {
	s := state.New().Set("x", state.Value{Sign: domain.SignZero, Null: domain.DefinitelyNull, Range: domain.RangePoint(0)})
	left := &program.BinOp{Op: program.OpEq, Left: varE("x"), Right: &program.Const{Kind: program.ConstNull, Position: p()}, Position: p()}
	// Guarded dereference: `!(x == null) and x.field` with x null should not fire a deref diagnostic.
	rightUnsafeDeref := &program.Attr{Object: varE("x"), Name: "field", Position: p()}
	and := &program.BinOp{Op: program.OpAnd, Left: negate(left), Right: rightUnsafeDeref, Position: p()}
	_, _, diags := Eval(and, s, nil, nil)

	assert.Empty(t, diags, "right side must not be evaluated once left is definitely false")
}

func negate(e program.Expr) program.Expr {
	return &program.UnaryOp{Op: program.OpNot, Operand: e, Position: p()}
}

func TestIndexBoundsCheck(t *testing.T) {
	s := state.New().
		Set("arr", state.Value{Sign: domain.SignTop, Null: domain.NotNull, Range: domain.RangeTop()}).
		Set("arr_len", state.Value{Sign: domain.SignTop, Null: domain.NotNull, Range: domain.RangePoint(5)}).
		Set("i", state.Value{Sign: domain.SignTop, Null: domain.NotNull, Range: domain.Range{Lo: 0, Hi: 4}})
	idx := &program.Index{Object: varE("arr"), Idx: varE("i"), Position: p()}
	_, _, diags := Eval(idx, s, nil, nil)
	assert.Empty(t, diags)

	sOut := s.Set("i", state.Value{Sign: domain.SignTop, Null: domain.NotNull, Range: domain.RangePoint(10)})
	_, _, diags2 := Eval(idx, sOut, nil, nil)
	assert.Len(t, diags2, 1)
	assert.Equal(t, errors.OutOfBounds, diags2[0].Kind)

	sMaybe := s.Set("i", state.Value{Sign: domain.SignTop, Null: domain.NotNull, Range: domain.Range{Lo: 0, Hi: 10}})
	_, _, diags3 := Eval(idx, sMaybe, nil, nil)
	assert.Len(t, diags3, 1)
	assert.Equal(t, errors.PossibleOutOfBounds, diags3[0].Kind)
}

// stubResolver is a minimal CallResolver for tests that evaluate calls.
type stubResolver struct {
	result CallResult
}

func (r stubResolver) Resolve(callee string, args []state.Value, pos program.Position) CallResult {
	return r.result
}

// S5 — interprocedural null propagation: getUser() summary says
// DEFINITELY_NULL; greet evaluates u.name after u := getUser().
func TestCallResultPropagatesToNullDeref(t *testing.T) {
	resolver := stubResolver{result: CallResult{
		Value: state.Value{Sign: domain.SignZero, Null: domain.DefinitelyNull, Range: domain.RangePoint(0)},
	}}
	call := &program.Call{Callee: "getUser", Position: p()}
	s := state.New()
	v, out, diags := Eval(call, s, resolver, nil)
	assert.Empty(t, diags)
	s2 := out.Set("u", v)

	attr := &program.Attr{Object: varE("u"), Name: "name", Position: p()}
	_, finalOut, derefDiags := Eval(attr, s2, resolver, nil)
	assert.True(t, finalOut.IsBottom())
	assert.Len(t, derefDiags, 1)
	assert.Equal(t, errors.NullDereference, derefDiags[0].Kind)
}
