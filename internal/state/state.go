// Package state implements the joint abstract state: a per-variable
// mapping composing the Sign, Nullability, and Range domains, with the
// pointwise lattice operations the fixpoint solver drives.
package state

import "absint/internal/domain"

// Value is the joint triple a variable is mapped to.
type Value struct {
	Sign  domain.Sign
	Null  domain.Nullability
	Range domain.Range
}

// Top is the implicit value of any variable missing from a State.
var Top = Value{Sign: domain.SignTop, Null: domain.Nullable, Range: domain.RangeTop()}

// Bottom is the unreachable value: a variable pinned to ⊥ makes the whole
// enclosing State unreachable.
var Bottom = Value{Sign: domain.SignBottom, Null: domain.NullBottom, Range: domain.RangeBottom()}

// IsBottom reports whether any single component of v is ⊥.
func (v Value) IsBottom() bool {
	return v.Sign.IsBottom() || v.Null.IsBottom() || v.Range.IsBottom()
}

// DomainMask names abstract domains forced to ⊤ on every write to a
// State, regardless of what a transfer function computes for them. The
// zero value disables nothing, so the majority of States (built via New,
// never wired to a DomainMask) behave exactly as before. A disabled
// domain is equivalent to that domain's value being ⊤ everywhere (§8's
// round-trip law for a config-disabled domain).
type DomainMask struct {
	Sign, Null, Range bool
}

// Mask forces v's disabled domains (per m) to their domain's ⊤ value.
// Used directly by callers that produce a Value outside of Set, such as
// a function's joined return value.
func Mask(v Value, m DomainMask) Value {
	return v.masked(m)
}

func (v Value) masked(m DomainMask) Value {
	if m.Sign {
		v.Sign = domain.SignTop
	}
	if m.Null {
		v.Null = domain.Nullable
	}
	if m.Range {
		v.Range = domain.RangeTop()
	}
	return v
}

func valueJoin(a, b Value) Value {
	return Value{
		Sign:  domain.SignJoin(a.Sign, b.Sign),
		Null:  domain.NullJoin(a.Null, b.Null),
		Range: domain.RangeJoin(a.Range, b.Range),
	}
}

func valueEquals(a, b Value) bool {
	return domain.SignEquals(a.Sign, b.Sign) &&
		domain.NullEquals(a.Null, b.Null) &&
		domain.RangeEquals(a.Range, b.Range)
}

// State maps variable names to joint values. A name absent from Vars is
// implicitly Top; State itself is unreachable (⊥) when any bound variable
// is ⊥ in any component — callers should check IsBottom before reading.
type State struct {
	Vars     map[string]Value
	disabled DomainMask
}

// New returns an empty state in which every variable is implicitly ⊤, with
// every domain active.
func New() *State {
	return &State{Vars: make(map[string]Value)}
}

// NewMasked returns an empty state like New, but with m's domains forced
// to ⊤ on every subsequent Set. The driver builds a function's entry
// state this way when the loaded configuration disables a domain.
func NewMasked(m DomainMask) *State {
	return &State{Vars: make(map[string]Value), disabled: m}
}

// Clone returns a deep-enough copy (Value is a small value type) safe to
// mutate independently of the receiver, preserving its domain mask.
func (s *State) Clone() *State {
	c := NewMasked(s.disabled)
	for k, v := range s.Vars {
		c.Vars[k] = v
	}
	return c
}

// Get returns the joint value bound to name, or Top if unbound.
func (s *State) Get(name string) Value {
	if v, ok := s.Vars[name]; ok {
		return v
	}
	return Top
}

// Set returns a new state identical to s except name is bound to v. The
// receiver is left unmodified so callers can safely branch one state into
// two (e.g. then/else) from a shared predecessor.
func (s *State) Set(name string, v Value) *State {
	c := s.Clone()
	c.Vars[name] = v.masked(c.disabled)
	return c
}

// unreachableMarker is a reserved variable name transfer functions bind to
// Bottom to mark an entire state unreachable, even when no ordinary
// program variable is available to carry the ⊥ (e.g. dereferencing the
// result of a call rather than a named variable).
const unreachableMarker = "$unreachable"

// MarkUnreachable returns a new state that is unconditionally ⊥, regardless
// of which (if any) ordinary variable the caller also knows to be ⊥.
func (s *State) MarkUnreachable() *State {
	return s.Set(unreachableMarker, Bottom)
}

// IsBottom reports whether any bound variable is ⊥ in any component, i.e.
// whether this program point is unreachable.
func (s *State) IsBottom() bool {
	for _, v := range s.Vars {
		if v.IsBottom() {
			return true
		}
	}
	return false
}

// Join computes the pointwise least upper bound of two states over the
// union of their variable names. A variable missing from one side is
// treated as its implicit Top, per the data model's invariant that missing
// ≡ ⊤.
func Join(a, b *State) *State {
	if a == nil {
		return b.Clone()
	}
	if b == nil {
		return a.Clone()
	}
	out := NewMasked(a.disabled)
	for name := range unionNames(a, b) {
		out.Vars[name] = valueJoin(a.Get(name), b.Get(name)).masked(out.disabled)
	}
	return out
}

// Widen applies the per-domain widening operators pointwise, over the
// union of both states' variable names, using the supplied loop-header
// iteration counter and configured threshold.
func Widen(old, new_ *State, iteration, threshold int) *State {
	if old == nil {
		return new_.Clone()
	}
	out := NewMasked(old.disabled)
	for name := range unionNames(old, new_) {
		ov, nv := old.Get(name), new_.Get(name)
		out.Vars[name] = Value{
			Sign:  domain.SignWiden(ov.Sign, nv.Sign, iteration, threshold),
			Null:  domain.NullWiden(ov.Null, nv.Null),
			Range: domain.RangeWiden(ov.Range, nv.Range, iteration, threshold),
		}.masked(out.disabled)
	}
	return out
}

// Equals reports whether two states bind the same variables to
// component-wise equal values, treating a variable missing from one side
// and bound to Top on the other as equal (missing ≡ ⊤ canonicalization).
func Equals(a, b *State) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil {
		a = New()
	}
	if b == nil {
		b = New()
	}
	for name := range unionNames(a, b) {
		if !valueEquals(a.Get(name), b.Get(name)) {
			return false
		}
	}
	return true
}

func unionNames(a, b *State) map[string]struct{} {
	names := make(map[string]struct{}, len(a.Vars)+len(b.Vars))
	for k := range a.Vars {
		names[k] = struct{}{}
	}
	for k := range b.Vars {
		names[k] = struct{}{}
	}
	return names
}
