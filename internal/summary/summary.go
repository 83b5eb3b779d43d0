// Package summary builds and compares per-function abstract summaries: a
// compact specification of a function's behavior under one calling
// context, synthesized from a completed intraprocedural fixpoint.
package summary

import (
	"absint/internal/errors"
	"absint/internal/fixpoint"
	"absint/internal/program"
	"absint/internal/state"
)

// SideEffects records what a function does besides return a value.
type SideEffects struct {
	Modified     []string
	MayPerformIO bool
}

// Summary is Σ: everything a caller needs to know about a function under
// one context, without re-analyzing its body.
type Summary struct {
	Preconditions map[string]state.Value
	PostStates    map[string]state.Value
	Return        state.Value
	Effects       SideEffects
	Diagnostics   []errors.Diagnostic
}

// Bottom is the initial summary assumed for every member of a recursive
// SCC before the summary-level fixpoint begins (§4.8 step 1): no return
// contribution yet, no diagnostics.
func Bottom() Summary {
	return Summary{
		Preconditions: map[string]state.Value{},
		PostStates:    map[string]state.Value{},
		Return:        state.Bottom,
	}
}

// Top is the universal conservative summary installed when a function's
// analysis is cut off by a Timeout or by cancellation (§5). Calls to the
// Unknown callee node (§4.7) do not go through a Summary; the resolver
// answers them with a ⊤ value directly.
func Top(diags ...errors.Diagnostic) Summary {
	return Summary{
		Preconditions: map[string]state.Value{},
		PostStates:    map[string]state.Value{},
		Return:        state.Top,
		Effects:       SideEffects{MayPerformIO: true},
		Diagnostics:   diags,
	}
}

// Build synthesizes Σ for fn from a completed fixpoint result, under the
// calling context captured by entry (the entry block's in-state).
func Build(fn *program.Function, exitBlockID int, entry *state.State, fx fixpoint.Result) Summary {
	s := Summary{
		Preconditions: map[string]state.Value{},
		PostStates:    map[string]state.Value{},
		Return:        fx.ReturnValue,
		Diagnostics:   fx.Diagnostics,
	}
	exitIn := fx.In[exitBlockID]
	for _, p := range fn.Params {
		s.Preconditions[p] = entry.Get(p)
		if exitIn != nil {
			s.PostStates[p] = exitIn.Get(p)
		} else {
			// Exit unreached (e.g. every path panics): aliasing is not
			// modeled, so the precondition stands as the conservative
			// post-state too.
			s.PostStates[p] = entry.Get(p)
		}
	}
	return s
}

// Join computes a summary-level least upper bound: component-wise joins of
// values, the union of modified names and effects, and the sorted
// concatenation of both diagnostic lists.
func Join(a, b Summary) Summary {
	out := Summary{
		Preconditions: joinValueMaps(a.Preconditions, b.Preconditions),
		PostStates:    joinValueMaps(a.PostStates, b.PostStates),
		Return:        joinValue(a.Return, b.Return),
		Effects: SideEffects{
			Modified:     unionStrings(a.Effects.Modified, b.Effects.Modified),
			MayPerformIO: a.Effects.MayPerformIO || b.Effects.MayPerformIO,
		},
	}
	out.Diagnostics = append(append([]errors.Diagnostic{}, a.Diagnostics...), b.Diagnostics...)
	errors.SortDiagnostics(out.Diagnostics)
	return out
}

// Equals reports whether two summaries are identical in every observable
// component (diagnostics and modified names compared element by element,
// since fixpoint.Run already orders diagnostics with SortDiagnostics).
func Equals(a, b Summary) bool {
	if !valueMapsEqual(a.Preconditions, b.Preconditions) {
		return false
	}
	if !valueMapsEqual(a.PostStates, b.PostStates) {
		return false
	}
	if !state.Equals(state.New().Set("$r", a.Return), state.New().Set("$r", b.Return)) {
		return false
	}
	if a.Effects.MayPerformIO != b.Effects.MayPerformIO {
		return false
	}
	if len(a.Effects.Modified) != len(b.Effects.Modified) {
		return false
	}
	for i := range a.Effects.Modified {
		if a.Effects.Modified[i] != b.Effects.Modified[i] {
			return false
		}
	}
	if len(a.Diagnostics) != len(b.Diagnostics) {
		return false
	}
	for i := range a.Diagnostics {
		if a.Diagnostics[i] != b.Diagnostics[i] {
			return false
		}
	}
	return true
}

// WidenComponents forces return value and post-states to ⊤ wherever they
// differ between old and new, implementing the summary-level widening
// rule of §4.8 step 3 ("force ... to ⊤ on the components that keep
// changing").
func WidenComponents(old, new_ Summary) Summary {
	out := new_
	if !valueEquals(old.Return, new_.Return) {
		out.Return = state.Top
	}
	out.PostStates = map[string]state.Value{}
	for name, v := range new_.PostStates {
		if ov, ok := old.PostStates[name]; ok && !valueEquals(ov, v) {
			out.PostStates[name] = state.Top
		} else {
			out.PostStates[name] = v
		}
	}
	return out
}

func joinValueMaps(a, b map[string]state.Value) map[string]state.Value {
	out := map[string]state.Value{}
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		if existing, ok := out[k]; ok {
			out[k] = joinValue(existing, v)
		} else {
			out[k] = v
		}
	}
	return out
}

func valueMapsEqual(a, b map[string]state.Value) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		bv, ok := b[k]
		if !ok || !valueEquals(v, bv) {
			return false
		}
	}
	return true
}

func joinValue(a, b state.Value) state.Value {
	s := state.New().Set("$x", a)
	other := state.New().Set("$x", b)
	return state.Join(s, other).Get("$x")
}

func valueEquals(a, b state.Value) bool {
	return state.Equals(state.New().Set("$x", a), state.New().Set("$x", b))
}

func unionStrings(a, b []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, s := range append(append([]string{}, a...), b...) {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
