// Package interproc is the interprocedural driver (C8): it walks the call
// graph bottom-up by strongly connected component, analyzes each function
// with fixpoint.Run under every context it is called with, and serves
// cached summaries back to callers through a transfer.CallResolver seam.
package interproc

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"absint/internal/callgraph"
	"absint/internal/cfg"
	"absint/internal/config"
	"absint/internal/errors"
	"absint/internal/fixpoint"
	"absint/internal/observability"
	"absint/internal/program"
	"absint/internal/state"
	"absint/internal/summary"
	"absint/internal/transfer"
)

// sccWideningThreshold bounds how many times the summary-level fixpoint
// re-analyzes a recursive SCC before forcing its changing components to
// ⊤ (§4.8 step 3), mirroring the intraprocedural widening threshold.
const sccWideningThreshold = 3

// Driver runs the bottom-up interprocedural analysis over a call graph,
// caching summaries per (function, context) and serving them to the
// intraprocedural solver through Resolve.
type Driver struct {
	graph   *callgraph.Graph
	cfgs    map[string]*cfg.CFG
	cache   *SummaryCache
	cfg     config.AnalyzerConfig
	diags   []errors.Diagnostic
	cancel  context.Context
	pending map[string]bool // functions mid-analysis in the current SCC, for self/mutual recursion
	log     *zap.Logger
}

// NewDriver builds a driver over fns, ready to run Analyze. log may be nil
// (observability.NewNop() is also accepted) to run unlogged.
func NewDriver(fns []*program.Function, cfgConf config.AnalyzerConfig, log *zap.Logger) *Driver {
	g := callgraph.Build(fns)
	cfgs := map[string]*cfg.CFG{}
	for _, fn := range fns {
		cfgs[fn.Name] = cfg.Build(fn)
	}
	return &Driver{
		graph:   g,
		cfgs:    cfgs,
		cache:   NewSummaryCache(cfgConf.ContextCacheSize),
		cfg:     cfgConf,
		cancel:  context.Background(),
		pending: map[string]bool{},
		log:     log,
	}
}

// Analyze runs the full bottom-up pass under ctx, returning every
// function's top-level summary (the one under no caller-supplied
// arguments, i.e. all parameters ⊤) plus the diagnostics collected along
// the way, sorted deterministically.
func (d *Driver) Analyze(ctx context.Context) (map[string]summary.Summary, []errors.Diagnostic) {
	d.cancel = ctx
	results := map[string]summary.Summary{}
	for _, scc := range d.graph.SCCs() {
		if isCancelled(ctx) {
			d.diags = append(d.diags, errors.NewDiagnostic(errors.Cancelled, program.Position{}))
			break
		}
		if scc[0] == callgraph.Unknown && len(scc) == 1 {
			continue
		}
		for name, sum := range d.analyzeSCC(scc) {
			results[name] = sum
		}
	}
	errors.SortDiagnostics(d.diags)
	observability.RunSummary(d.log, len(results), len(d.diags))
	return results, d.diags
}

// analyzeSCC computes the top-level summary for every member of scc and
// returns them keyed by function name. A singleton SCC with no self-loop is
// analyzed once, directly. A singleton with a self-loop, or any SCC with
// more than one member, goes through the summary-level fixpoint of §4.8
// step 2-3.
func (d *Driver) analyzeSCC(scc []string) map[string]summary.Summary {
	recursive := len(scc) > 1 || d.hasSelfLoop(scc[0])
	observability.SCCBoundary(d.log, scc, recursive)
	if !recursive {
		fn := d.graph.Functions[scc[0]]
		sum := d.analyzeFunctionTop(fn)
		d.cache.Put(scc[0], topContextKey(), sum)
		return map[string]summary.Summary{scc[0]: sum}
	}

	for _, name := range scc {
		d.cache.Put(name, topContextKey(), summary.Bottom())
	}

	var joined map[string]summary.Summary
	prev := map[string]summary.Summary{}
	for _, name := range scc {
		prev[name] = summary.Bottom()
	}
	for iter := 0; ; iter++ {
		joined = map[string]summary.Summary{}
		for _, name := range scc {
			fn := d.graph.Functions[name]
			sum := d.analyzeFunctionTop(fn)
			if iter >= sccWideningThreshold {
				sum = summary.WidenComponents(prev[name], sum)
			}
			joined[name] = sum
			d.cache.Put(name, topContextKey(), sum)
		}
		converged := true
		for _, name := range scc {
			if !summary.Equals(prev[name], joined[name]) {
				converged = false
			}
		}
		prev = joined
		if converged {
			break
		}
		if iter > sccWideningThreshold+4 {
			// Widening forces every changing component to ⊤ within a
			// handful of rounds; this many rounds without convergence
			// means a widening/equals bug, not a slow-converging program.
			break
		}
	}
	return joined
}

// hasSelfLoop reports whether fn calls itself directly.
func (d *Driver) hasSelfLoop(fn string) bool {
	for _, callee := range d.graph.Edges[fn] {
		if callee == fn {
			return true
		}
	}
	return false
}

// topContextKey is the context a function's externally visible summary is
// published under: every parameter unconstrained.
func topContextKey() ContextKey { return ContextKey("") }

// domainMask translates the loaded configuration's three domain-enable
// flags (§6) into the solver's DomainMask: a disabled domain is forced to
// ⊤ on every state write and on every function's return value (§8).
func (d *Driver) domainMask() state.DomainMask {
	return state.DomainMask{
		Sign:  !d.cfg.EnableSignDomain,
		Null:  !d.cfg.EnableNullabilityDomain,
		Range: !d.cfg.EnableRangeDomain,
	}
}

// analyzeFunctionTop runs fn's intraprocedural fixpoint with every
// parameter bound to ⊤, under d's timeout and cancellation policy, and
// builds its summary.
func (d *Driver) analyzeFunctionTop(fn *program.Function) summary.Summary {
	entry := state.NewMasked(d.domainMask())
	for _, p := range fn.Params {
		entry = entry.Set(p, state.Top)
	}
	return d.analyzeFunction(fn, entry)
}

// analyzeFunction runs one intraprocedural fixpoint for fn under entry,
// enforcing function_timeout_ms (§5): on timeout, it installs Top() and a
// Timeout diagnostic rather than returning a partial, possibly unsound
// result.
func (d *Driver) analyzeFunction(fn *program.Function, entry *state.State) summary.Summary {
	if isCancelled(d.cancel) {
		return summary.Top(errors.NewDiagnostic(errors.Cancelled, fn.Pos))
	}

	g := d.cfgs[fn.Name]
	timeout := time.Duration(d.cfg.FunctionTimeoutMs) * time.Millisecond
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	runCtx, stop := context.WithTimeout(d.cancel, timeout)
	defer stop()

	done := make(chan fixpoint.Result, 1)
	go func() {
		done <- fixpoint.Run(g, entry, d.resolverFor(fn.Name), nil, fixpoint.Config{
			WideningThreshold:  d.cfg.WideningThreshold,
			MaxBlockIterations: d.cfg.MaxBlockIterations,
			Disabled:           d.domainMask(),
			Logger:             d.log,
			FunctionName:       fn.Name,
		})
	}()

	select {
	case fx := <-done:
		sum := summary.Build(fn, g.Exit, entry, fx)
		d.diags = append(d.diags, fx.Diagnostics...)
		return sum
	case <-runCtx.Done():
		kind := errors.Timeout
		msg := fmt.Sprintf("analysis of %s exceeded %v", fn.Name, timeout)
		if d.cancel.Err() != nil {
			kind = errors.Cancelled
			msg = fmt.Sprintf("analysis of %s cancelled", fn.Name)
		}
		diag := errors.NewDiagnostic(kind, fn.Pos).WithMessage(msg)
		d.diags = append(d.diags, diag)
		return summary.Top(diag)
	}
}

// resolverFor builds the transfer.CallResolver a caller function's
// fixpoint run should use: it serves cached summaries keyed by truncated
// argument context, computing and caching on a miss.
func (d *Driver) resolverFor(caller string) transfer.CallResolver {
	return resolverFunc(func(callee string, args []state.Value, pos program.Position) transfer.CallResult {
		target := callee
		fn, known := d.graph.Functions[callee]
		if !known {
			target = callgraph.Unknown
		}
		if target == callgraph.Unknown {
			if d.cfg.TreatUnknownCalleesAsPure {
				return transfer.CallResult{Value: state.Top}
			}
			return transfer.CallResult{Value: state.Top, MayPerformIO: true}
		}

		key := BuildContextKey(args)
		if sum, ok := d.cache.Get(callee, key); ok {
			observability.CacheEvent(d.log, "hit", callee, string(key))
			return resultFromSummary(sum)
		}
		observability.CacheEvent(d.log, "miss", callee, string(key))
		if d.pending[callee] {
			// Call site reached inside its own SCC's summary-level
			// fixpoint; the seeded or most recent round's summary already
			// in the cache under the top key stands in until convergence.
			if sum, ok := d.cache.Get(callee, topContextKey()); ok {
				return resultFromSummary(sum)
			}
			return resultFromSummary(summary.Bottom())
		}

		d.pending[callee] = true
		entry := state.NewMasked(d.domainMask())
		for i, p := range fn.Params {
			if i < len(args) {
				entry = entry.Set(p, args[i])
			}
		}
		sum := d.analyzeFunction(fn, entry)
		d.cache.Put(callee, key, sum)
		delete(d.pending, callee)
		return resultFromSummary(sum)
	})
}

func resultFromSummary(sum summary.Summary) transfer.CallResult {
	return transfer.CallResult{
		Value:        sum.Return,
		Diagnostics:  sum.Diagnostics,
		MayPerformIO: sum.Effects.MayPerformIO,
	}
}

// resolverFunc adapts a plain function to transfer.CallResolver.
type resolverFunc func(callee string, args []state.Value, pos program.Position) transfer.CallResult

func (f resolverFunc) Resolve(callee string, args []state.Value, pos program.Position) transfer.CallResult {
	return f(callee, args, pos)
}

func isCancelled(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}
