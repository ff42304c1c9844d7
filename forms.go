package symforms

import (
	"math"
	"sort"
)

// ============================================================
// Form generator — factoring and fraction cancellation
// ============================================================

// FormKind classifies a generated alternative form.
type FormKind int

const (
	FormExpanded FormKind = iota
	FormFactored
	FormGrouped
	FormStructural
)

func (k FormKind) String() string {
	switch k {
	case FormExpanded:
		return "expanded"
	case FormFactored:
		return "factored"
	case FormGrouped:
		return "grouped"
	case FormStructural:
		return "structural"
	}
	return "unknown"
}

// Form is one candidate rendering of an expression.
type Form struct {
	Expr  Expr
	Kind  FormKind
	Label string
}

const labelFractionReduced = "fraction reduced"

// maxCancelRounds bounds fraction cancellation re-runs, since one
// cancellation can expose another.
const maxCancelRounds = 5

// GenerateAllForms produces the candidate forms of one expression.
// The input itself is always included, labeled as the expanded form.
func GenerateAllForms(e Expr) []Form {
	forms := []Form{{Expr: e, Kind: FormExpanded, Label: "expanded form"}}
	seen := map[string]bool{e.String(): true}
	emit := func(f Form) {
		key := f.Expr.String()
		if seen[key] {
			return
		}
		seen[key] = true
		forms = append(forms, f)
	}

	if b, ok := e.(*BinaryOp); ok && b.Op == OpDivide {
		factored := Div(ExtractCommonFactor(b.Left), b.Right)
		emit(Form{Expr: factored, Kind: FormFactored, Label: "numerator factored"})
		cancelled := SimplifyExpInFraction(factored)
		emit(Form{Expr: cancelled, Kind: FormGrouped, Label: labelFractionReduced})
		return forms
	}
	emit(Form{Expr: ExtractCommonFactor(e), Kind: FormFactored, Label: "common factor extracted"})
	return forms
}

// ExtractCommonFactor factors the greatest common coefficient and
// minimum shared variable/function exponents out of a sum with at
// least two addends. Inputs that are not sums, or sums with no
// non-trivial common factor, are returned unchanged.
func ExtractCommonFactor(e Expr) Expr {
	if !isSum(e) {
		return e
	}
	addends := flattenAddends(e, 1, nil)
	if len(addends) < 2 {
		return e
	}
	terms := make([]*Term, len(addends))
	for i, a := range addends {
		t, err := DecomposeTerm(groupFunctionPowers(a.expr))
		if err != nil {
			return e
		}
		t.Coefficient *= a.sign
		if approxZero(t.Coefficient) {
			return e
		}
		terms[i] = t
	}

	gcd := candidateGCD(terms)
	if approxEqual(gcd.Coefficient, 1) && len(gcd.Variables) == 0 && len(gcd.Functions) == 0 {
		return e
	}

	// Defensive re-check: every addend must carry at least the GCD
	// exponent for every entry; otherwise drop to a coefficient-only
	// GCD and factor only that.
	if !gcdCovered(gcd, terms) {
		gcd.Variables = map[string]float64{}
		gcd.Functions = map[FunctionKey]float64{}
		gcd.funcArgs = map[FunctionKey]Expr{}
	}

	remainders := make([]Expr, len(terms))
	for i, t := range terms {
		remainders[i] = t.DivideBy(gcd).Render()
	}
	sum := foldAdd(remainders)
	if approxEqual(gcd.Coefficient, 1) && len(gcd.Variables) == 0 && len(gcd.Functions) == 0 {
		return sum
	}
	return Mul(gcd.Render(), sum)
}

// candidateGCD builds the GCD Term across addends: the iterative
// Euclidean GCD of the absolute coefficients, plus the minimum
// exponent of every variable/function present in all addends
// (absence in any addend excludes the entry entirely).
func candidateGCD(terms []*Term) *Term {
	gcd := NewTerm()
	gcd.Coefficient = 0
	for _, t := range terms {
		gcd.Coefficient = floatGCD(gcd.Coefficient, math.Abs(t.Coefficient))
	}
	if approxZero(gcd.Coefficient) {
		gcd.Coefficient = 1
	}

	first := terms[0]
	for name, exp := range first.Variables {
		minExp := exp
		shared := true
		for _, t := range terms[1:] {
			oe, ok := t.Variables[name]
			if !ok {
				shared = false
				break
			}
			minExp = math.Min(minExp, oe)
		}
		if shared && !approxZero(minExp) {
			gcd.Variables[name] = minExp
		}
	}
	for key, exp := range first.Functions {
		minExp := exp
		shared := true
		for _, t := range terms[1:] {
			oe, ok := t.Functions[key]
			if !ok {
				shared = false
				break
			}
			minExp = math.Min(minExp, oe)
		}
		if shared && !approxZero(minExp) {
			gcd.Functions[key] = minExp
			gcd.funcArgs[key] = first.funcArgs[key]
		}
	}
	return gcd
}

func gcdCovered(gcd *Term, terms []*Term) bool {
	for _, t := range terms {
		for name, exp := range gcd.Variables {
			if t.Variables[name] < exp-Epsilon {
				return false
			}
		}
		for key, exp := range gcd.Functions {
			if t.Functions[key] < exp-Epsilon {
				return false
			}
		}
	}
	return true
}

// floatGCD is the iterative Euclidean algorithm on absolute values,
// terminating within the engine's epsilon.
func floatGCD(a, b float64) float64 {
	a, b = math.Abs(a), math.Abs(b)
	for b > Epsilon {
		a, b = b, math.Mod(a, b)
	}
	return a
}

// groupFunctionPowers merges same-identity function factors of a
// product, summing their exponents (f(x)·f(x)² → f(x)³), before Term
// decomposition. Non-products pass through untouched.
func groupFunctionPowers(e Expr) Expr {
	b, ok := e.(*BinaryOp)
	if !ok || b.Op != OpMultiply {
		return e
	}
	type fnPower struct {
		fn  *Function
		exp float64
	}
	var grouped []fnPower
	byKey := map[string]int{}
	var rest []Expr
	addFn := func(fn *Function, exp float64) {
		key := fn.Name + "(" + fn.Arg.String() + ")"
		if idx, ok := byKey[key]; ok {
			grouped[idx].exp += exp
			return
		}
		byKey[key] = len(grouped)
		grouped = append(grouped, fnPower{fn: fn, exp: exp})
	}
	for _, f := range flattenFactors(e, nil) {
		switch v := f.(type) {
		case *Function:
			addFn(v, 1)
			continue
		case *BinaryOp:
			if v.Op == OpPower {
				if fn, isFn := v.Left.(*Function); isFn {
					if exp, isNum := numberValue(v.Right); isNum {
						addFn(fn, exp)
						continue
					}
				}
			}
		}
		rest = append(rest, f)
	}
	if len(grouped) == 0 {
		return e
	}
	factors := rest
	for _, g := range grouped {
		if approxZero(g.exp) {
			continue
		}
		factors = append(factors, powerFactor(g.fn, g.exp))
	}
	if len(factors) == 0 {
		return Num(1)
	}
	return foldMul(factors)
}

// ============================================================
// Exponential fraction cancellation
// ============================================================

// SimplifyExpInFraction cancels same-argument exp factors across the
// division bar of a fraction. Non-fractions are returned unchanged.
// The pass re-runs on its own output, since one cancellation can
// expose another.
func SimplifyExpInFraction(e Expr) Expr {
	curr := e
	for i := 0; i < maxCancelRounds; i++ {
		next := cancelExpOnce(curr)
		if next.Equal(curr) {
			break
		}
		curr = next
	}
	return curr
}

type expFactor struct {
	arg Expr
	exp float64
}

func cancelExpOnce(e Expr) Expr {
	b, ok := e.(*BinaryOp)
	if !ok || b.Op != OpDivide {
		return e
	}
	numExp, numRest := partitionExpFactors(b.Left)
	denExp, denRest := partitionExpFactors(b.Right)
	cancelled := false
	for key, nf := range numExp {
		df, shared := denExp[key]
		if !shared {
			continue
		}
		cancelled = true
		remainder := nf.exp - df.exp
		delete(numExp, key)
		delete(denExp, key)
		switch {
		case approxZero(remainder):
		case remainder > 0:
			numExp[key] = expFactor{arg: nf.arg, exp: remainder}
		default:
			denExp[key] = expFactor{arg: df.arg, exp: -remainder}
		}
	}
	if !cancelled {
		return e
	}
	return Div(rebuildSide(numRest, numExp), rebuildSide(denRest, denExp))
}

// partitionExpFactors splits a side's multiplicative factors into
// exp(arg)-like factors keyed by argument (exponents summed per key)
// and everything else.
func partitionExpFactors(e Expr) (map[string]expFactor, []Expr) {
	exps := map[string]expFactor{}
	var rest []Expr
	add := func(arg Expr, exp float64) {
		key := arg.String()
		if existing, ok := exps[key]; ok {
			exps[key] = expFactor{arg: existing.arg, exp: existing.exp + exp}
			return
		}
		exps[key] = expFactor{arg: arg, exp: exp}
	}
	for _, f := range flattenFactors(e, nil) {
		switch v := f.(type) {
		case *Function:
			if v.Name == "exp" {
				add(v.Arg, 1)
				continue
			}
		case *BinaryOp:
			if v.Op == OpPower {
				if fn, isFn := v.Left.(*Function); isFn && fn.Name == "exp" {
					if exp, isNum := numberValue(v.Right); isNum {
						add(fn.Arg, exp)
						continue
					}
				}
			}
		}
		rest = append(rest, f)
	}
	return exps, rest
}

func rebuildSide(rest []Expr, exps map[string]expFactor) Expr {
	keys := make([]string, 0, len(exps))
	for key := range exps {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	factors := append([]Expr{}, rest...)
	for _, key := range keys {
		f := exps[key]
		if approxZero(f.exp) {
			continue
		}
		factors = append(factors, powerFactor(Fn("exp", f.arg), f.exp))
	}
	if len(factors) == 0 {
		return Num(1)
	}
	return foldMul(factors)
}
