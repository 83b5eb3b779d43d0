// Package fixpoint implements the intraprocedural worklist solver: given a
// function's CFG and an entry state, it computes in/out states for every
// block, applying widening at loop headers, and collects the function's
// return value and diagnostics.
package fixpoint

import (
	"go.uber.org/zap"

	"absint/internal/cfg"
	"absint/internal/errors"
	"absint/internal/observability"
	"absint/internal/program"
	"absint/internal/state"
	"absint/internal/transfer"
)

// Config bounds the solver's iteration behavior (§6's widening_threshold
// and max_block_iterations), plus optional tracing.
type Config struct {
	WideningThreshold  int
	MaxBlockIterations int

	// Disabled forces the named domains to ⊤ on every state write and on
	// the function's return value, the solver-level half of §8's
	// round-trip law; the zero value disables nothing.
	Disabled state.DomainMask

	// Logger receives per-block and per-widening trace events at debug
	// level. Nil (the zero value) runs unlogged; the interprocedural driver
	// passes its own logger to every run, including those it makes while
	// resolving a callee.
	Logger *zap.Logger
	// FunctionName labels trace events; ignored if Logger is nil.
	FunctionName string
}

// DefaultConfig matches the documented defaults.
func DefaultConfig() Config {
	return Config{WideningThreshold: 3, MaxBlockIterations: 100}
}

// Result is the solved fixpoint for one function under one calling
// context: per-block in/out states, the joined return value, and the
// diagnostics accumulated across all blocks' final (converged) states.
type Result struct {
	In          map[int]*state.State
	Out         map[int]*state.State
	ReturnValue state.Value
	Diagnostics []errors.Diagnostic
}

// globalIterationCeilingMultiplier is a defensive multiple of MaxBlockIterations
// guarding against a CFG the dominator pass failed to fully classify (an
// irreducible cycle should not arise from this source language's
// structured control flow, but a builder bug must not hang the solver).
const globalIterationCeilingMultiplier = 8

// Run solves the fixpoint for g starting from entryState at g.Entry.
func Run(g *cfg.CFG, entryState *state.State, resolver transfer.CallResolver, lengths transfer.LengthLookup, cfgConf Config) Result {
	in := map[int]*state.State{}
	out := map[int]*state.State{}
	diagsByBlock := map[int][]errors.Diagnostic{}
	returnByBlock := map[int]state.Value{}
	headerIter := map[int]int{}
	blockIter := map[int]int{}

	worklist := []int{g.Entry}
	queued := map[int]bool{g.Entry: true}

	ceiling := len(g.Blocks) * cfgConf.MaxBlockIterations * globalIterationCeilingMultiplier
	steps := 0
	overran := false

	for len(worklist) > 0 {
		steps++
		if steps > ceiling {
			overran = true
			break
		}

		b := worklist[0]
		worklist = worklist[1:]
		queued[b] = false
		block := g.Blocks[b]

		var gathered *state.State
		if b == g.Entry {
			gathered = entryState
		} else {
			gathered = gatherPredecessors(g, block, out, resolver, lengths)
			if gathered == nil {
				continue // no predecessor has contributed a live state yet
			}
		}

		blockIter[b]++
		observability.BlockVisited(cfgConf.Logger, cfgConf.FunctionName, b, blockIter[b])
		if block.IsLoopHeader {
			iter := headerIter[b]
			gathered = state.Widen(in[b], gathered, iter, cfgConf.WideningThreshold)
			observability.Widened(cfgConf.Logger, cfgConf.FunctionName, b, iter, cfgConf.WideningThreshold)
			headerIter[b] = iter + 1
		}
		if blockIter[b] > cfgConf.MaxBlockIterations {
			gathered = state.NewMasked(cfgConf.Disabled)
		}

		if old, ok := in[b]; ok && state.Equals(old, gathered) {
			continue
		}
		in[b] = gathered

		afterStmts, diags := transfer.TransferBlock(block.Stmts, gathered, resolver, lengths)
		if block.Cond != nil && !afterStmts.IsBottom() {
			_, _, condDiags := transfer.Condition(block.Cond, afterStmts, resolver, lengths)
			diags = append(diags, condDiags...)
		}
		if block.Return != nil && !afterStmts.IsBottom() {
			retVal, retDiags := transfer.EvalReturn(block.Return.Expr, afterStmts, resolver, lengths)
			diags = append(diags, retDiags...)
			returnByBlock[b] = retVal
		} else if block.Return == nil && !afterStmts.IsBottom() && hasEdgeTo(block, g.Exit) {
			// block falls off the end of the function (its only successor is
			// the exit block, with no explicit return) — contribute the
			// fall-off convention instead of silently dropping this path.
			returnByBlock[b] = transfer.FallOffValue()
		}
		diagsByBlock[b] = diags

		prevOut, existed := out[b]
		out[b] = afterStmts
		if existed && state.Equals(prevOut, afterStmts) {
			continue
		}

		for _, succ := range block.Succs {
			if !queued[succ.To] {
				worklist = append(worklist, succ.To)
				queued[succ.To] = true
			}
		}
	}

	result := Result{In: in, Out: out}
	result.ReturnValue = joinReturns(returnByBlock, !overran, cfgConf.Disabled)
	for _, d := range diagsByBlock {
		result.Diagnostics = append(result.Diagnostics, d...)
	}
	if overran {
		result.Diagnostics = append(result.Diagnostics, errors.NewDiagnostic(errors.InternalError, program.Position{}).
			WithMessage("fixpoint solver exceeded its iteration ceiling; treating function as top"))
	}
	errors.SortDiagnostics(result.Diagnostics)
	return result
}

// gatherPredecessors joins the branch-refined contributions of block's
// live predecessors, skipping any predecessor that has not yet produced an
// out-state or whose branch-specific refinement is unreachable (the
// pruned-edge rule in §4.2/§4.4). Returns nil if no predecessor
// contributed anything yet.
func gatherPredecessors(g *cfg.CFG, block *cfg.Block, out map[int]*state.State, resolver transfer.CallResolver, lengths transfer.LengthLookup) *state.State {
	var gathered *state.State
	for _, predID := range block.Preds {
		predOut, ok := out[predID]
		if !ok || predOut == nil {
			continue
		}
		predBlock := g.Blocks[predID]

		var contribution *state.State
		if predBlock.Cond != nil {
			sTrue, sFalse, _ := transfer.Condition(predBlock.Cond, predOut, resolver, lengths)
			if edgeBranch(predBlock, block.ID) == cfg.OnTrue {
				contribution = sTrue
			} else {
				contribution = sFalse
			}
		} else {
			contribution = predOut
		}

		if contribution == nil || contribution.IsBottom() {
			continue
		}
		if gathered == nil {
			gathered = contribution
		} else {
			gathered = state.Join(gathered, contribution)
		}
	}
	return gathered
}

func hasEdgeTo(from *cfg.Block, to int) bool {
	for _, e := range from.Succs {
		if e.To == to {
			return true
		}
	}
	return false
}

func edgeBranch(from *cfg.Block, to int) cfg.Branch {
	for _, e := range from.Succs {
		if e.To == to {
			return e.Branch
		}
	}
	return cfg.Unconditional
}

// joinReturns computes the function's return value as the join of every
// return-or-fall-off contribution gathered while solving. If the solver
// aborted before converging, the result is untrustworthy and ⊤ stands in
// for it; if every path fell off the end with no explicit return, the
// fall-off-the-end convention applies directly.
func joinReturns(byBlock map[int]state.Value, trustworthy bool, mask state.DomainMask) state.Value {
	if !trustworthy {
		return state.Top
	}
	if len(byBlock) == 0 {
		return state.Mask(transfer.FallOffValue(), mask)
	}
	var joined *state.State
	const key = "$return"
	for _, v := range byBlock {
		s := state.NewMasked(mask).Set(key, v)
		if joined == nil {
			joined = s
		} else {
			joined = state.Join(joined, s)
		}
	}
	return joined.Get(key)
}
