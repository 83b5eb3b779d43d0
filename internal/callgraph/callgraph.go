// Package callgraph builds the call graph from a set of function ASTs and
// decomposes it into strongly connected components in the order the
// interprocedural driver needs to analyze them: callees before callers.
package callgraph

import "absint/internal/program"

// Unknown is the distinguished node every unresolved (indirect or
// out-of-set) callee routes to; its summary is always the universal top
// summary, per §4.7.
const Unknown = "$unknown"

// Graph is a caller→callee adjacency list over function names.
type Graph struct {
	Functions map[string]*program.Function
	Edges     map[string][]string
}

// Build scans every function's body for direct call expressions and
// records an edge from the enclosing function to the callee name. A call
// to a name outside fns is routed to Unknown rather than dropped.
func Build(fns []*program.Function) *Graph {
	g := &Graph{Functions: map[string]*program.Function{}, Edges: map[string][]string{}}
	for _, fn := range fns {
		g.Functions[fn.Name] = fn
	}
	for _, fn := range fns {
		seen := map[string]bool{}
		walkStmts(fn.Body, func(callee string) {
			target := callee
			if _, ok := g.Functions[callee]; !ok {
				target = Unknown
			}
			if !seen[target] {
				seen[target] = true
				g.Edges[fn.Name] = append(g.Edges[fn.Name], target)
			}
		})
	}
	return g
}

func walkStmts(stmts []program.Stmt, onCall func(callee string)) {
	for _, s := range stmts {
		switch st := s.(type) {
		case *program.Assign:
			walkExpr(st.Expr, onCall)
		case *program.ExprStmt:
			walkExpr(st.Expr, onCall)
		case *program.If:
			walkExpr(st.Cond, onCall)
			walkStmts(st.Then, onCall)
			walkStmts(st.Else, onCall)
		case *program.While:
			walkExpr(st.Cond, onCall)
			walkStmts(st.Body, onCall)
		case *program.Return:
			if st.Expr != nil {
				walkExpr(st.Expr, onCall)
			}
		}
	}
}

func walkExpr(e program.Expr, onCall func(callee string)) {
	switch n := e.(type) {
	case *program.BinOp:
		walkExpr(n.Left, onCall)
		walkExpr(n.Right, onCall)
	case *program.UnaryOp:
		walkExpr(n.Operand, onCall)
	case *program.Call:
		onCall(n.Callee)
		for _, a := range n.Args {
			walkExpr(a, onCall)
		}
	case *program.Attr:
		walkExpr(n.Object, onCall)
	case *program.Index:
		walkExpr(n.Object, onCall)
		walkExpr(n.Idx, onCall)
	}
}

// SCCs returns the graph's strongly connected components via Tarjan's
// algorithm, in the order Tarjan naturally produces them: a component with
// no outgoing edges to an unvisited component is emitted before its
// callers, which is exactly the reverse-topological (callees-before-
// callers) order §4.7/§4.8 require for bottom-up analysis.
func (g *Graph) SCCs() [][]string {
	t := &tarjan{
		graph:   g,
		index:   map[string]int{},
		lowlink: map[string]int{},
		onStack: map[string]bool{},
	}
	names := make([]string, 0, len(g.Functions)+1)
	for name := range g.Functions {
		names = append(names, name)
	}
	if _, ok := g.Functions[Unknown]; !ok {
		names = append(names, Unknown)
	}
	// Deterministic iteration order: sort names so output order is stable
	// across runs (map iteration is not).
	sortStrings(names)

	for _, name := range names {
		if _, visited := t.index[name]; !visited {
			t.strongconnect(name)
		}
	}
	return t.result
}

type tarjan struct {
	graph   *Graph
	index   map[string]int
	lowlink map[string]int
	onStack map[string]bool
	stack   []string
	counter int
	result  [][]string
}

func (t *tarjan) strongconnect(v string) {
	t.index[v] = t.counter
	t.lowlink[v] = t.counter
	t.counter++
	t.stack = append(t.stack, v)
	t.onStack[v] = true

	for _, w := range t.graph.Edges[v] {
		if _, visited := t.index[w]; !visited {
			t.strongconnect(w)
			if t.lowlink[w] < t.lowlink[v] {
				t.lowlink[v] = t.lowlink[w]
			}
		} else if t.onStack[w] {
			if t.index[w] < t.lowlink[v] {
				t.lowlink[v] = t.index[w]
			}
		}
	}

	if t.lowlink[v] == t.index[v] {
		var scc []string
		for {
			n := len(t.stack) - 1
			w := t.stack[n]
			t.stack = t.stack[:n]
			t.onStack[w] = false
			scc = append(scc, w)
			if w == v {
				break
			}
		}
		t.result = append(t.result, scc)
	}
}

func sortStrings(s []string) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}
