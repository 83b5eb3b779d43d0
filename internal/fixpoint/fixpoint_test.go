package fixpoint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"absint/internal/cfg"
	"absint/internal/domain"
	"absint/internal/program"
	"absint/internal/state"
)

func pos() program.Position { return program.Position{Filename: "t.k", Line: 1, Column: 1} }

func v(name string) *program.Var { return &program.Var{Name: name, Position: pos()} }

func ci(n int64) *program.Const {
	digits := "0"
	if n != 0 {
		digits = ""
		m := n
		for m > 0 {
			digits = string(rune('0'+m%10)) + digits
			m /= 10
		}
	}
	return &program.Const{Kind: program.ConstInt, Value: digits, Position: pos()}
}

// S3 — `i := 0; while i < 10 { i := i + 1 }` converges with widening and
// the loop-header's narrowed range is visible at the post-loop block.
func TestBoundedLoopWidensAndNarrows(t *testing.T) {
	fn := &program.Function{
		Name: "count",
		Body: []program.Stmt{
			&program.Assign{Target: "i", Expr: ci(0), Position: pos()},
			&program.While{
				Cond: &program.BinOp{Op: program.OpLt, Left: v("i"), Right: ci(10), Position: pos()},
				Body: []program.Stmt{
					&program.Assign{
						Target:   "i",
						Expr:     &program.BinOp{Op: program.OpAdd, Left: v("i"), Right: ci(1), Position: pos()},
						Position: pos(),
					},
				},
				Position: pos(),
			},
		},
	}
	g := cfg.Build(fn)
	result := Run(g, state.New(), nil, nil, DefaultConfig())

	assert.Empty(t, result.Diagnostics)
	assert.Len(t, g.LoopHeaders, 1)

	var headerID int
	for id := range g.LoopHeaders {
		headerID = id
	}
	header := g.Block(headerID)
	post := header.SuccessorOn(cfg.OnFalse)

	headerIn := result.In[headerID]
	assert.NotNil(t, headerIn)
	assert.Equal(t, int64(0), headerIn.Get("i").Range.Lo)

	postIn := result.In[post]
	assert.NotNil(t, postIn)
	assert.Equal(t, int64(10), postIn.Get("i").Range.Lo)
}

// If/else join: both branches assign x, and the join block sees the union
// of both ranges.
func TestIfElseJoinsBothBranches(t *testing.T) {
	fn := &program.Function{
		Name: "pick",
		Params: []string{"flag"},
		Body: []program.Stmt{
			&program.If{
				Cond: &program.BinOp{Op: program.OpEq, Left: v("flag"), Right: ci(1), Position: pos()},
				Then: []program.Stmt{
					&program.Assign{Target: "x", Expr: ci(1), Position: pos()},
				},
				Else: []program.Stmt{
					&program.Assign{Target: "x", Expr: ci(2), Position: pos()},
				},
				Position: pos(),
			},
			&program.Return{Expr: v("x"), Position: pos()},
		},
	}
	g := cfg.Build(fn)
	in := state.New().Set("flag", state.Value{Sign: domain.SignTop, Null: domain.NotNull, Range: domain.RangeTop()})
	result := Run(g, in, nil, nil, DefaultConfig())

	assert.Empty(t, result.Diagnostics)
	assert.Equal(t, int64(1), result.ReturnValue.Range.Lo)
	assert.Equal(t, int64(2), result.ReturnValue.Range.Hi)
}

// Division by a definitely-zero divisor inside a straight-line function
// reports DivByZero and the unreachable tail contributes no return value.
func TestUnreachableTailContributesNoReturn(t *testing.T) {
	fn := &program.Function{
		Name: "bad",
		Body: []program.Stmt{
			&program.Assign{Target: "z", Expr: ci(0), Position: pos()},
			&program.Assign{
				Target:   "r",
				Expr:     &program.BinOp{Op: program.OpDiv, Left: ci(10), Right: v("z"), Position: pos()},
				Position: pos(),
			},
			&program.Return{Expr: v("r"), Position: pos()},
		},
	}
	g := cfg.Build(fn)
	result := Run(g, state.New(), nil, nil, DefaultConfig())

	assert.NotEmpty(t, result.Diagnostics)
	assert.True(t, result.ReturnValue.Range.IsBottom())
}

// A function whose only path falls off the end without an explicit
// return contributes the fall-off convention to its return value rather
// than dropping the path from the join silently.
func TestFallOffPathJoinsFallOffConvention(t *testing.T) {
	fn := &program.Function{
		Name:   "maybe",
		Params: []string{"x"},
		Body: []program.Stmt{
			&program.If{
				Cond: &program.BinOp{Op: program.OpGt, Left: v("x"), Right: ci(0), Position: pos()},
				Then: []program.Stmt{
					&program.Return{Expr: ci(1), Position: pos()},
				},
				Position: pos(),
			},
		},
	}
	g := cfg.Build(fn)
	in := state.New().Set("x", state.Value{Sign: domain.SignTop, Null: domain.NotNull, Range: domain.RangeTop()})
	result := Run(g, in, nil, nil, DefaultConfig())

	assert.Equal(t, domain.Nullable, result.ReturnValue.Null, "fall-off path must join in ⊤ nullability")
	assert.False(t, result.ReturnValue.Range.IsBottom(), "explicit-return branch contributes a non-bottom range")
}

// An entirely empty function body falls off the end on its only path;
// the empty-byBlock fallback must reuse the fall-off convention, not a
// bare zero-valued state.Value.
func TestEmptyBodyFallsOffWithFallOffConvention(t *testing.T) {
	fn := &program.Function{Name: "noop", Body: nil}
	g := cfg.Build(fn)
	result := Run(g, state.New(), nil, nil, DefaultConfig())

	assert.Equal(t, domain.Nullable, result.ReturnValue.Null)
	assert.True(t, result.ReturnValue.Sign.IsBottom())
	assert.True(t, result.ReturnValue.Range.IsBottom())
}

// Disabling a domain through Config.Disabled forces that domain's
// component to ⊤ on the return value, even though the function returns a
// concrete constant.
func TestDisabledDomainForcesReturnValueTop(t *testing.T) {
	fn := &program.Function{
		Name: "five",
		Body: []program.Stmt{
			&program.Return{Expr: ci(5), Position: pos()},
		},
	}
	g := cfg.Build(fn)
	cfgConf := DefaultConfig()
	cfgConf.Disabled = state.DomainMask{Range: true}
	result := Run(g, state.New(), nil, nil, cfgConf)

	assert.Equal(t, domain.RangeTop(), result.ReturnValue.Range, "disabled Range domain must surface as top on the return value")
	assert.Equal(t, domain.SignPos, result.ReturnValue.Sign, "Sign stays active and precise")
}
