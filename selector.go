package symforms

import "github.com/pkg/errors"

// ============================================================
// Form selector — differentiation-cost heuristic
// ============================================================

// DifferentiationCost estimates how much work differentiating the
// expression will take. Products and quotients are weighted by the
// product/quotient-rule blowup; numeric powers stay cheap while
// symbolic exponents force the logarithmic rewrite.
func DifferentiationCost(e Expr) int {
	switch v := e.(type) {
	case *Number:
		return 0
	case *Variable:
		return 1
	case *Function:
		return 3 + DifferentiationCost(v.Arg)
	case *BinaryOp:
		l, r := DifferentiationCost(v.Left), DifferentiationCost(v.Right)
		switch v.Op {
		case OpAdd, OpSubtract:
			return l + r + 1
		case OpMultiply:
			return (l + r) * 2
		case OpDivide:
			return (l + r) * 3
		case OpPower:
			if _, ok := v.Right.(*Number); ok {
				return 2*l + 2
			}
			return (l + r) * 4
		}
	}
	return 0
}

// SelectBestForDifferentiation returns the candidate with the lowest
// differentiation cost, ties broken by encounter order. An empty
// candidate list is a precondition violation.
func SelectBestForDifferentiation(candidates []Expr) (Expr, error) {
	if len(candidates) == 0 {
		return nil, errors.New("select best form: empty candidate list")
	}
	if len(candidates) == 1 {
		return candidates[0], nil
	}
	best := candidates[0]
	bestCost := DifferentiationCost(best)
	for _, c := range candidates[1:] {
		if cost := DifferentiationCost(c); cost < bestCost {
			best = c
			bestCost = cost
		}
	}
	return best, nil
}
