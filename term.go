package symforms

import (
	"math"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// ============================================================
// Term — canonical multiplicative decomposition of one addend
// ============================================================

// FunctionKey is the canonical identity of a Function node: its name
// plus the canonical rendering of its canonicalized argument. The
// rendering is derived from a canonical tree, so two keys are equal
// iff the canonical arguments are structurally equal; the string is a
// grouping key only, the representative tree is kept for rebuilding.
type FunctionKey struct {
	Name string
	Arg  string
}

func (k FunctionKey) String() string { return k.Name + "(" + k.Arg + ")" }

// Term decomposes one multiplicative factor-product into
// coefficient × variable powers × function powers × opaque nested
// factors. Exponent entries with magnitude below Epsilon are never
// stored; a Term with near-zero coefficient is the additive identity
// and must be dropped wherever Terms are accumulated.
type Term struct {
	Coefficient float64
	Variables   map[string]float64
	Functions   map[FunctionKey]float64
	// Nested holds sub-trees that are not a Number, Variable,
	// Function, or numeric Power of one of those: unexpanded sums,
	// divisions, powers with non-numeric exponents. Compared by full
	// structural equality, in order.
	Nested []Expr

	funcArgs map[FunctionKey]Expr
}

// NewTerm returns the multiplicative identity.
func NewTerm() *Term {
	return &Term{
		Coefficient: 1,
		Variables:   map[string]float64{},
		Functions:   map[FunctionKey]float64{},
		funcArgs:    map[FunctionKey]Expr{},
	}
}

func (t *Term) Clone() *Term {
	c := NewTerm()
	c.Coefficient = t.Coefficient
	for k, v := range t.Variables {
		c.Variables[k] = v
	}
	for k, v := range t.Functions {
		c.Functions[k] = v
		c.funcArgs[k] = t.funcArgs[k]
	}
	c.Nested = append(c.Nested, t.Nested...)
	return c
}

func (t *Term) addVariable(name string, exp float64) {
	v := t.Variables[name] + exp
	if approxZero(v) {
		delete(t.Variables, name)
		return
	}
	t.Variables[name] = v
}

func (t *Term) addFunction(f *Function, exp float64) {
	arg := Canonicalize(f.Arg)
	key := FunctionKey{Name: f.Name, Arg: arg.String()}
	v := t.Functions[key] + exp
	if approxZero(v) {
		delete(t.Functions, key)
		delete(t.funcArgs, key)
		return
	}
	t.Functions[key] = v
	t.funcArgs[key] = arg
}

// FunctionArg returns the canonicalized representative argument for a
// function key present in the Term.
func (t *Term) FunctionArg(key FunctionKey) Expr { return t.funcArgs[key] }

// DecomposeTerm decomposes a single addend into its Term form. A
// sub-tree it cannot classify is kept verbatim as an opaque nested
// factor; the error return is reserved for inputs that are not a
// factor-product at all.
func DecomposeTerm(e Expr) (*Term, error) {
	if e == nil {
		return nil, errors.New("decompose: nil expression")
	}
	t := NewTerm()
	t.absorb(e)
	return t, nil
}

func (t *Term) absorb(e Expr) {
	switch v := e.(type) {
	case *Number:
		t.Coefficient *= v.Value
	case *Variable:
		t.addVariable(v.Name, 1)
	case *Function:
		t.addFunction(v, 1)
	case *BinaryOp:
		switch v.Op {
		case OpMultiply:
			t.absorb(v.Left)
			t.absorb(v.Right)
			return
		case OpPower:
			if exp, ok := numberValue(v.Right); ok {
				switch base := v.Left.(type) {
				case *Number:
					t.Coefficient *= math.Pow(base.Value, exp)
					return
				case *Variable:
					t.addVariable(base.Name, exp)
					return
				case *Function:
					t.addFunction(base, exp)
					return
				}
			}
		}
		t.Nested = append(t.Nested, e)
	}
}

// IsConstant reports whether the Term is a bare coefficient.
func (t *Term) IsConstant() bool {
	return len(t.Variables) == 0 && len(t.Functions) == 0 && len(t.Nested) == 0
}

// TotalDegree is the sum of the variable exponents.
func (t *Term) TotalDegree() float64 {
	total := 0.0
	for _, exp := range t.Variables {
		total += exp
	}
	return total
}

// Similar reports whether two Terms may be merged by addition: equal
// variable maps, equal function maps (keys and exponents), and equal
// nested lists element-by-element in order. Coefficients are ignored.
func (t *Term) Similar(other *Term) bool {
	if len(t.Variables) != len(other.Variables) ||
		len(t.Functions) != len(other.Functions) ||
		len(t.Nested) != len(other.Nested) {
		return false
	}
	for name, exp := range t.Variables {
		oe, ok := other.Variables[name]
		if !ok || !approxEqual(exp, oe) {
			return false
		}
	}
	for key, exp := range t.Functions {
		oe, ok := other.Functions[key]
		if !ok || !approxEqual(exp, oe) {
			return false
		}
	}
	for i, n := range t.Nested {
		if !n.Equal(other.Nested[i]) {
			return false
		}
	}
	return true
}

// BaseKey is a deterministic string built from the Term's
// non-coefficient content, used purely for grouping and dedup.
func (t *Term) BaseKey() string {
	parts := make([]string, 0, len(t.Variables)+len(t.Functions)+len(t.Nested))
	names := make([]string, 0, len(t.Variables))
	for name := range t.Variables {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		parts = append(parts, annotate(name, t.Variables[name]))
	}
	keys := make([]FunctionKey, 0, len(t.Functions))
	for key := range t.Functions {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	for _, key := range keys {
		parts = append(parts, annotate(key.String(), t.Functions[key]))
	}
	for _, n := range t.Nested {
		parts = append(parts, "{"+n.String()+"}")
	}
	return strings.Join(parts, "*")
}

func annotate(base string, exp float64) string {
	if approxEqual(exp, 1) {
		return base
	}
	return base + "^" + Num(exp).String()
}

// Render builds the Term back into an AST: variables sorted by name,
// then functions sorted by key, then nested factors verbatim, all on
// a left-associative MULTIPLY chain. A coefficient of exactly ±1
// contributes no literal Number factor; a negative unit sign becomes
// a leading ×(−1) so downstream rendering can special-case it.
func (t *Term) Render() Expr {
	if approxZero(t.Coefficient) {
		return Num(0)
	}
	factors := []Expr{}
	names := make([]string, 0, len(t.Variables))
	for name := range t.Variables {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		factors = append(factors, powerFactor(Var(name), t.Variables[name]))
	}
	keys := make([]FunctionKey, 0, len(t.Functions))
	for key := range t.Functions {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	for _, key := range keys {
		factors = append(factors, powerFactor(Fn(key.Name, t.funcArgs[key]), t.Functions[key]))
	}
	factors = append(factors, t.Nested...)

	if len(factors) == 0 {
		return Num(t.Coefficient)
	}
	switch {
	case approxEqual(t.Coefficient, 1):
	case approxEqual(t.Coefficient, -1):
		factors = append([]Expr{Num(-1)}, factors...)
	default:
		factors = append([]Expr{Num(t.Coefficient)}, factors...)
	}
	return foldMul(factors)
}

func powerFactor(base Expr, exp float64) Expr {
	if approxEqual(exp, 1) {
		return base
	}
	return Pow(base, Num(exp))
}

// DivideBy divides the Term by a factor Term: the coefficient is
// divided and every variable/function exponent is reduced by the
// factor's. Nested factors are untouched (a GCD never includes them).
func (t *Term) DivideBy(g *Term) *Term {
	out := t.Clone()
	if !approxZero(g.Coefficient) {
		out.Coefficient /= g.Coefficient
	}
	for name, exp := range g.Variables {
		out.addVariable(name, -exp)
	}
	for key, exp := range g.Functions {
		v := out.Functions[key] - exp
		if approxZero(v) {
			delete(out.Functions, key)
			delete(out.funcArgs, key)
		} else {
			out.Functions[key] = v
		}
	}
	return out
}

// mergeTerms groups similar terms by base key, sums coefficients
// within each group, and drops groups whose merged coefficient is
// near zero. Group order follows first appearance.
func mergeTerms(terms []*Term) []*Term {
	byKey := map[string]*Term{}
	order := []string{}
	for _, t := range terms {
		key := t.BaseKey()
		if existing, ok := byKey[key]; ok {
			existing.Coefficient += t.Coefficient
			continue
		}
		c := t.Clone()
		byKey[key] = c
		order = append(order, key)
	}
	out := make([]*Term, 0, len(order))
	for _, key := range order {
		if t := byKey[key]; !approxZero(t.Coefficient) {
			out = append(out, t)
		}
	}
	return out
}

// sortTerms orders terms deterministically: constant terms last, then
// total variable degree descending, then base key lexicographic.
func sortTerms(terms []*Term) {
	sort.SliceStable(terms, func(i, j int) bool {
		ti, tj := terms[i], terms[j]
		if ti.IsConstant() != tj.IsConstant() {
			return tj.IsConstant()
		}
		di, dj := ti.TotalDegree(), tj.TotalDegree()
		if !approxEqual(di, dj) {
			return di > dj
		}
		return ti.BaseKey() < tj.BaseKey()
	})
}
