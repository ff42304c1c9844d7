package symforms

import "math"

// ============================================================
// Canonicalizer — expand, merge, sort, rebuild
// ============================================================

// maxExpandPower caps self-multiplication of sum bases; larger
// integer exponents stay as opaque Power nodes.
const maxExpandPower = 10

// Canonicalize produces the unique normal form of an expression not
// dominated by a top-level division: fully expanded, like terms
// merged, highest-degree-first and constants-last. A top-level DIVIDE
// canonicalizes numerator and denominator independently; the division
// bar is never crossed by expansion.
func Canonicalize(e Expr) Expr {
	if b, ok := e.(*BinaryOp); ok && b.Op == OpDivide {
		return Div(canonicalizePolynomial(b.Left), canonicalizePolynomial(b.Right))
	}
	return canonicalizePolynomial(e)
}

func canonicalizePolynomial(e Expr) Expr {
	terms := extractTerms(expand(e))
	merged := mergeTerms(terms)
	sortTerms(merged)
	rendered := make([]Expr, len(merged))
	for i, t := range merged {
		rendered[i] = t.Render()
	}
	if len(rendered) == 0 {
		return Num(0)
	}
	return foldAdd(rendered)
}

// expand distributes products over sums, folds numeric powers, and
// self-multiplies small integer powers of sums. Atoms are never
// expanded; Function internals and DIVIDE are never distributed
// across.
func expand(e Expr) Expr {
	switch v := e.(type) {
	case *Number, *Variable:
		return e
	case *Function:
		return Fn(v.Name, expand(v.Arg))
	case *BinaryOp:
		switch v.Op {
		case OpAdd, OpSubtract:
			return &BinaryOp{Op: v.Op, Left: expand(v.Left), Right: expand(v.Right)}
		case OpMultiply:
			return distribute(expand(v.Left), expand(v.Right))
		case OpDivide:
			return Div(expand(v.Left), expand(v.Right))
		case OpPower:
			return expandPower(expand(v.Left), v.Right)
		}
	}
	return e
}

func expandPower(base Expr, exp Expr) Expr {
	// Collapse power-of-power when both exponents are numeric.
	if inner, ok := base.(*BinaryOp); ok && inner.Op == OpPower {
		if ie, iok := numberValue(inner.Right); iok {
			if oe, ook := numberValue(exp); ook {
				return expandPower(inner.Left, Num(ie*oe))
			}
		}
	}
	n, numeric := numberValue(exp)
	if !numeric {
		return Pow(base, exp)
	}
	if bv, ok := numberValue(base); ok {
		if folded := math.Pow(bv, n); !math.IsNaN(folded) && !math.IsInf(folded, 0) {
			return Num(folded)
		}
		return Pow(base, Num(n))
	}
	if _, isVar := base.(*Variable); isVar {
		return Pow(base, Num(n))
	}
	if isSum(base) && isInteger(n) && n >= 0 && n <= maxExpandPower {
		switch int(math.Round(n)) {
		case 0:
			return Num(1)
		case 1:
			return base
		}
		result := base
		for i := 1; i < int(math.Round(n)); i++ {
			result = distribute(result, base)
		}
		return result
	}
	return Pow(base, Num(n))
}

func isSum(e Expr) bool {
	b, ok := e.(*BinaryOp)
	return ok && (b.Op == OpAdd || b.Op == OpSubtract)
}

// distribute multiplies two expanded sides; if either is a sum, every
// addend pair is cross-multiplied and re-summed, with SUBTRACT
// addends negated before multiplication.
func distribute(l, r Expr) Expr {
	if !isSum(l) && !isSum(r) {
		return Mul(l, r)
	}
	left := flattenAddends(l, 1, nil)
	right := flattenAddends(r, 1, nil)
	products := make([]Expr, 0, len(left)*len(right))
	for _, a := range left {
		for _, b := range right {
			p := Expr(Mul(a.expr, b.expr))
			if a.sign*b.sign < 0 {
				p = Mul(Num(-1), p)
			}
			products = append(products, p)
		}
	}
	return foldAdd(products)
}

// extractTerms flattens the top-level additive chain of an expanded
// tree and decomposes each addend into a Term. An addend that cannot
// be decomposed survives as a single opaque nested factor.
func extractTerms(e Expr) []*Term {
	addends := flattenAddends(e, 1, nil)
	terms := make([]*Term, 0, len(addends))
	for _, a := range addends {
		t, err := DecomposeTerm(a.expr)
		if err != nil {
			t = NewTerm()
			t.Nested = append(t.Nested, a.expr)
		}
		t.Coefficient *= a.sign
		terms = append(terms, t)
	}
	return terms
}
