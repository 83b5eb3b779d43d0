package cfg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"absint/internal/program"
)

func pos() program.Position { return program.Position{Filename: "t", Line: 1, Column: 1} }

func TestBuildStraightLine(t *testing.T) {
	fn := &program.Function{
		Name: "f",
		Body: []program.Stmt{
			&program.Assign{Target: "x", Expr: &program.Const{Kind: program.ConstInt, Value: "1", Position: pos()}, Position: pos()},
			&program.Return{Expr: &program.Var{Name: "x", Position: pos()}, Position: pos()},
		},
	}
	g := Build(fn)
	assert.Len(t, g.Blocks[g.Entry].Stmts, 1)
	assert.NotNil(t, g.Blocks[g.Entry].Return)
	assert.Equal(t, g.Exit, g.Blocks[g.Entry].SuccessorOn(Unconditional))
}

func TestBuildIfElseJoins(t *testing.T) {
	cond := &program.Var{Name: "c", Position: pos()}
	fn := &program.Function{
		Name: "f",
		Body: []program.Stmt{
			&program.If{
				Cond:     cond,
				Then:     []program.Stmt{&program.Assign{Target: "x", Expr: &program.Const{Kind: program.ConstInt, Value: "1", Position: pos()}, Position: pos()}},
				Else:     []program.Stmt{&program.Assign{Target: "x", Expr: &program.Const{Kind: program.ConstInt, Value: "2", Position: pos()}, Position: pos()}},
				Position: pos(),
			},
			&program.Return{Expr: &program.Var{Name: "x", Position: pos()}, Position: pos()},
		},
	}
	g := Build(fn)
	entry := g.Blocks[g.Entry]
	assert.NotNil(t, entry.Cond)
	thenID := entry.SuccessorOn(OnTrue)
	elseID := entry.SuccessorOn(OnFalse)
	assert.NotEqual(t, thenID, elseID)

	join := g.Blocks[thenID].SuccessorOn(Unconditional)
	assert.Equal(t, join, g.Blocks[elseID].SuccessorOn(Unconditional))
	assert.NotNil(t, g.Blocks[join].Return)
}

func TestBuildIfBothBranchesReturnHasNoJoin(t *testing.T) {
	cond := &program.Var{Name: "c", Position: pos()}
	fn := &program.Function{
		Name: "f",
		Body: []program.Stmt{
			&program.If{
				Cond:     cond,
				Then:     []program.Stmt{&program.Return{Expr: &program.Const{Kind: program.ConstInt, Value: "1", Position: pos()}, Position: pos()}},
				Else:     []program.Stmt{&program.Return{Expr: &program.Const{Kind: program.ConstInt, Value: "2", Position: pos()}, Position: pos()}},
				Position: pos(),
			},
		},
	}
	g := Build(fn)
	entry := g.Blocks[g.Entry]
	thenID := entry.SuccessorOn(OnTrue)
	elseID := entry.SuccessorOn(OnFalse)
	assert.Equal(t, g.Exit, g.Blocks[thenID].SuccessorOn(Unconditional))
	assert.Equal(t, g.Exit, g.Blocks[elseID].SuccessorOn(Unconditional))
}

func TestBuildWhileLoopHeaderAndBackEdge(t *testing.T) {
	cond := &program.Var{Name: "c", Position: pos()}
	fn := &program.Function{
		Name: "f",
		Body: []program.Stmt{
			&program.While{
				Cond:     cond,
				Body:     []program.Stmt{&program.Assign{Target: "i", Expr: &program.Var{Name: "i", Position: pos()}, Position: pos()}},
				Position: pos(),
			},
			&program.Return{Position: pos()},
		},
	}
	g := Build(fn)
	entry := g.Blocks[g.Entry]
	headerID := entry.SuccessorOn(Unconditional)
	header := g.Blocks[headerID]
	assert.True(t, header.IsLoopHeader)
	assert.True(t, g.LoopHeaders[headerID])

	bodyID := header.SuccessorOn(OnTrue)
	postID := header.SuccessorOn(OnFalse)
	body := g.Blocks[bodyID]
	backEdge := Edge{From: bodyID, To: headerID, Branch: Unconditional}
	assert.True(t, g.BackEdges[backEdge])
	assert.Equal(t, headerID, body.SuccessorOn(Unconditional))

	post := g.Blocks[postID]
	assert.NotNil(t, post.Return)
}

func TestBuildBreakContinueTargetLoopEdges(t *testing.T) {
	cond := &program.Var{Name: "c", Position: pos()}
	inner := &program.Var{Name: "d", Position: pos()}
	fn := &program.Function{
		Name: "f",
		Body: []program.Stmt{
			&program.While{
				Cond: cond,
				Body: []program.Stmt{
					&program.If{
						Cond:     inner,
						Then:     []program.Stmt{&program.Break{Position: pos()}},
						Else:     []program.Stmt{&program.Continue{Position: pos()}},
						Position: pos(),
					},
				},
				Position: pos(),
			},
		},
	}
	g := Build(fn)
	headerID := g.Blocks[g.Entry].SuccessorOn(Unconditional)
	header := g.Blocks[headerID]
	postID := header.SuccessorOn(OnFalse)
	bodyID := header.SuccessorOn(OnTrue)
	body := g.Blocks[bodyID]

	breakTargetID := g.Blocks[body.SuccessorOn(OnTrue)].SuccessorOn(Unconditional)
	continueTargetID := g.Blocks[body.SuccessorOn(OnFalse)].SuccessorOn(Unconditional)
	assert.Equal(t, postID, breakTargetID)
	assert.Equal(t, headerID, continueTargetID)
}

func TestStatementsAfterTerminatorAreDropped(t *testing.T) {
	fn := &program.Function{
		Name: "f",
		Body: []program.Stmt{
			&program.Return{Position: pos()},
			&program.Assign{Target: "unreachable", Expr: &program.Const{Kind: program.ConstInt, Value: "1", Position: pos()}, Position: pos()},
		},
	}
	g := Build(fn)
	assert.Empty(t, g.Blocks[g.Entry].Stmts)
	assert.NotNil(t, g.Blocks[g.Entry].Return)
	for _, blk := range g.Blocks {
		for _, st := range blk.Stmts {
			if a, ok := st.(*program.Assign); ok {
				assert.NotEqual(t, "unreachable", a.Target)
			}
		}
	}
}
