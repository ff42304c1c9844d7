package symforms

// ============================================================
// Trig rewriter — bounded fixed-point identity rewriting
// ============================================================

// maxSimplifyRounds bounds every fixed-point rewriting loop.
const maxSimplifyRounds = 10

// TrigSimplify rewrites trigonometric identities bottom-up and
// iterates to a fixed point (at most maxSimplifyRounds rounds,
// structural convergence). Each round runs three passes in order:
// double-angle, Pythagorean, and quotient identities. A final pass
// folds adjacent numeric factors inside MULTIPLY chains.
func TrigSimplify(e Expr) Expr {
	curr := e
	for i := 0; i < maxSimplifyRounds; i++ {
		next := rewriteBottomUp(curr, doubleAngleNode)
		next = rewriteBottomUp(next, pythagoreanNode)
		next = rewriteBottomUp(next, quotientIdentityNode)
		if next.Equal(curr) {
			curr = next
			break
		}
		curr = next
	}
	return foldNumericCoefficients(curr)
}

// rewriteBottomUp rebuilds the tree depth-first, applying fn to every
// node after its children have been rewritten.
func rewriteBottomUp(e Expr, fn func(Expr) Expr) Expr {
	switch v := e.(type) {
	case *Function:
		return fn(Fn(v.Name, rewriteBottomUp(v.Arg, fn)))
	case *BinaryOp:
		return fn(&BinaryOp{
			Op:    v.Op,
			Left:  rewriteBottomUp(v.Left, fn),
			Right: rewriteBottomUp(v.Right, fn),
		})
	}
	return fn(e)
}

// doubleAngleNode matches k·sin(θ)·cos(θ) on MULTIPLY nodes and
// k·cos(θ)² − k·sin(θ)² on SUBTRACT nodes.
func doubleAngleNode(e Expr) Expr {
	b, ok := e.(*BinaryOp)
	if !ok {
		return e
	}
	switch b.Op {
	case OpMultiply:
		k, sinArg, cosArg, matched := matchSinCosProduct(e)
		if !matched || !sinArg.Equal(cosArg) {
			return e
		}
		doubled := Fn("sin", Mul(Num(2), sinArg))
		if approxEqual(k/2, 1) {
			return doubled
		}
		return Mul(Num(k/2), doubled)
	case OpSubtract:
		kc, cosArg, okc := matchSquaredTrig(b.Left, "cos")
		ks, sinArg, oks := matchSquaredTrig(b.Right, "sin")
		if !okc || !oks || !approxEqual(kc, ks) || !cosArg.Equal(sinArg) {
			return e
		}
		doubled := Fn("cos", Mul(Num(2), cosArg))
		if approxEqual(kc, 1) {
			return doubled
		}
		return Mul(Num(kc), doubled)
	}
	return e
}

// matchSinCosProduct matches a MULTIPLY chain holding exactly one sin
// factor, exactly one cos factor, any number of purely numeric
// factors, and nothing else.
func matchSinCosProduct(e Expr) (k float64, sinArg, cosArg Expr, ok bool) {
	k = 1
	for _, f := range flattenFactors(e, nil) {
		switch v := f.(type) {
		case *Number:
			k *= v.Value
		case *Function:
			switch {
			case v.Name == "sin" && sinArg == nil:
				sinArg = v.Arg
			case v.Name == "cos" && cosArg == nil:
				cosArg = v.Arg
			default:
				return 0, nil, nil, false
			}
		default:
			return 0, nil, nil, false
		}
	}
	if sinArg == nil || cosArg == nil {
		return 0, nil, nil, false
	}
	return k, sinArg, cosArg, true
}

// matchSquaredTrig matches a MULTIPLY chain of numeric factors and
// exactly one squared application of the named function.
func matchSquaredTrig(e Expr, name string) (k float64, arg Expr, ok bool) {
	k = 1
	for _, f := range flattenFactors(e, nil) {
		if v, isNum := f.(*Number); isNum {
			k *= v.Value
			continue
		}
		p, isPow := f.(*BinaryOp)
		if !isPow || p.Op != OpPower || arg != nil {
			return 0, nil, false
		}
		fn, isFn := p.Left.(*Function)
		if !isFn || fn.Name != name || !isNumberEqual(p.Right, 2) {
			return 0, nil, false
		}
		arg = fn.Arg
	}
	if arg == nil {
		return 0, nil, false
	}
	return k, arg, true
}

// pythagoreanNode collapses a k·sin(θ)² and k·cos(θ)² addend pair
// (either order) inside an additive chain into the number k.
func pythagoreanNode(e Expr) Expr {
	b, ok := e.(*BinaryOp)
	if !ok || b.Op != OpAdd {
		return e
	}
	addends := flattenAddends(e, 1, nil)
	type squared struct {
		name string
		k    float64
		arg  Expr
		idx  int
	}
	var matches []squared
	for idx, a := range addends {
		for _, name := range []string{"sin", "cos"} {
			if k, arg, ok := matchSquaredTrig(a.expr, name); ok {
				matches = append(matches, squared{name: name, k: a.sign * k, arg: arg, idx: idx})
			}
		}
	}
	for i := 0; i < len(matches); i++ {
		for j := i + 1; j < len(matches); j++ {
			mi, mj := matches[i], matches[j]
			if mi.name == mj.name || mi.idx == mj.idx ||
				!approxEqual(mi.k, mj.k) || !mi.arg.Equal(mj.arg) {
				continue
			}
			rest := make([]Expr, 0, len(addends)-1)
			for idx, a := range addends {
				if idx == mi.idx || idx == mj.idx {
					continue
				}
				if a.sign < 0 {
					rest = append(rest, Mul(Num(-1), a.expr))
				} else {
					rest = append(rest, a.expr)
				}
			}
			rest = append(rest, Num(mi.k))
			return foldAdd(rest)
		}
	}
	return e
}

// quotientIdentityNode rewrites function quotients over an equal
// argument: sin/cos → tan, cos/sin → cot, 1/cos → sec, 1/sin → csc.
func quotientIdentityNode(e Expr) Expr {
	b, ok := e.(*BinaryOp)
	if !ok || b.Op != OpDivide {
		return e
	}
	den, isDenFn := b.Right.(*Function)
	if !isDenFn {
		return e
	}
	if num, isNumFn := b.Left.(*Function); isNumFn && num.Arg.Equal(den.Arg) {
		switch {
		case num.Name == "sin" && den.Name == "cos":
			return Fn("tan", num.Arg)
		case num.Name == "cos" && den.Name == "sin":
			return Fn("cot", num.Arg)
		}
		return e
	}
	if isNumberEqual(b.Left, 1) {
		switch den.Name {
		case "cos":
			return Fn("sec", den.Arg)
		case "sin":
			return Fn("csc", den.Arg)
		}
	}
	return e
}

// foldNumericCoefficients collapses the Number factors of every
// MULTIPLY chain into a single leading product, dropping it entirely
// when it equals 1.
func foldNumericCoefficients(e Expr) Expr {
	return rewriteBottomUp(e, func(node Expr) Expr {
		b, ok := node.(*BinaryOp)
		if !ok || b.Op != OpMultiply {
			return node
		}
		k := 1.0
		numbers := 0
		var rest []Expr
		for _, f := range flattenFactors(node, nil) {
			if n, isNum := f.(*Number); isNum {
				k *= n.Value
				numbers++
				continue
			}
			rest = append(rest, f)
		}
		if numbers == 0 {
			return node
		}
		if len(rest) == 0 {
			return Num(k)
		}
		if approxEqual(k, 1) {
			return foldMul(rest)
		}
		return foldMul(append([]Expr{Num(k)}, rest...))
	})
}
