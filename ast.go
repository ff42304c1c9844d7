// Package symforms generates mathematically-equivalent alternative
// forms of an algebraic expression (expanded polynomial, factored,
// fraction-reduced, trig-simplified) and picks the form best suited
// for a symbolic-differentiation pass.
//
// Design goals:
//   - Pure functions over immutable tree values
//   - Deterministic canonical forms and stable output
//   - Bounded fixed-point rewriting, structural convergence checks
//   - Failures degrade to "less simplification", never to a crash
package symforms

import (
	"math"
	"strconv"
)

// ============================================================
// AST
// ============================================================

// Epsilon is the tolerance used for every numeric comparison in the
// engine: coefficients, exponents, and folded values.
const Epsilon = 1e-10

// Op is a binary operator.
type Op int

const (
	OpAdd Op = iota
	OpSubtract
	OpMultiply
	OpDivide
	OpPower
)

func (o Op) String() string {
	switch o {
	case OpAdd:
		return "+"
	case OpSubtract:
		return "-"
	case OpMultiply:
		return "*"
	case OpDivide:
		return "/"
	case OpPower:
		return "^"
	}
	return "?"
}

// Expr is one node of the expression tree. The variant set is closed:
// Number, Variable, Function, and BinaryOp. Nodes are never mutated;
// every transformation returns a new tree.
type Expr interface {
	String() string
	// Equal is value-based recursive comparison, not identity.
	Equal(other Expr) bool
	exprNode()
}

// Number is a literal constant.
type Number struct{ Value float64 }

// Variable is a free symbol.
type Variable struct{ Name string }

// Function is an opaque unary application (sin, cos, exp, ln, ...).
// Its internals are never expanded; only the argument is transformed.
type Function struct {
	Name string
	Arg  Expr
}

// BinaryOp applies Op to Left and Right.
type BinaryOp struct {
	Op          Op
	Left, Right Expr
}

func Num(v float64) *Number            { return &Number{Value: v} }
func Var(name string) *Variable        { return &Variable{Name: name} }
func Fn(name string, arg Expr) *Function { return &Function{Name: name, Arg: arg} }

func Add(l, r Expr) *BinaryOp { return &BinaryOp{Op: OpAdd, Left: l, Right: r} }
func Sub(l, r Expr) *BinaryOp { return &BinaryOp{Op: OpSubtract, Left: l, Right: r} }
func Mul(l, r Expr) *BinaryOp { return &BinaryOp{Op: OpMultiply, Left: l, Right: r} }
func Div(l, r Expr) *BinaryOp { return &BinaryOp{Op: OpDivide, Left: l, Right: r} }
func Pow(l, r Expr) *BinaryOp { return &BinaryOp{Op: OpPower, Left: l, Right: r} }

func (*Number) exprNode()   {}
func (*Variable) exprNode() {}
func (*Function) exprNode() {}
func (*BinaryOp) exprNode() {}

// ============================================================
// Numeric helpers
// ============================================================

func approxEqual(a, b float64) bool { return math.Abs(a-b) < Epsilon }
func approxZero(a float64) bool     { return math.Abs(a) < Epsilon }

func isInteger(v float64) bool { return approxEqual(v, math.Round(v)) }

// numberValue reports whether e is a Number and returns its value.
func numberValue(e Expr) (float64, bool) {
	n, ok := e.(*Number)
	if !ok {
		return 0, false
	}
	return n.Value, true
}

func isNumberEqual(e Expr, v float64) bool {
	n, ok := numberValue(e)
	return ok && approxEqual(n, v)
}

// ============================================================
// Structural equality
// ============================================================

func (n *Number) Equal(other Expr) bool {
	o, ok := other.(*Number)
	return ok && approxEqual(n.Value, o.Value)
}

func (v *Variable) Equal(other Expr) bool {
	o, ok := other.(*Variable)
	return ok && v.Name == o.Name
}

func (f *Function) Equal(other Expr) bool {
	o, ok := other.(*Function)
	return ok && f.Name == o.Name && f.Arg.Equal(o.Arg)
}

func (b *BinaryOp) Equal(other Expr) bool {
	o, ok := other.(*BinaryOp)
	return ok && b.Op == o.Op && b.Left.Equal(o.Left) && b.Right.Equal(o.Right)
}

// ============================================================
// Rendering
// ============================================================

func (n *Number) String() string {
	v := n.Value
	if approxZero(v) {
		v = 0 // avoid "-0"
	}
	if isInteger(v) && math.Abs(v) < 1e15 {
		return strconv.FormatFloat(math.Round(v), 'f', -1, 64)
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func (v *Variable) String() string { return v.Name }

func (f *Function) String() string { return f.Name + "(" + f.Arg.String() + ")" }

func (o Op) precedence() int {
	switch o {
	case OpAdd, OpSubtract:
		return 1
	case OpMultiply, OpDivide:
		return 2
	case OpPower:
		return 3
	}
	return 0
}

func (b *BinaryOp) String() string {
	sep := b.Op.String()
	if b.Op == OpAdd || b.Op == OpSubtract {
		sep = " " + sep + " "
	}
	return b.childString(b.Left, false) + sep + b.childString(b.Right, true)
}

// childString parenthesizes a child whose operator binds looser than
// b's, and right children of the non-associative operators.
func (b *BinaryOp) childString(child Expr, right bool) string {
	c, ok := child.(*BinaryOp)
	if !ok {
		s := child.String()
		if n, isNum := child.(*Number); isNum && n.Value < 0 && !approxZero(n.Value) && (right || b.Op == OpPower) {
			return "(" + s + ")"
		}
		return s
	}
	cp, bp := c.Op.precedence(), b.Op.precedence()
	nonAssoc := b.Op == OpSubtract || b.Op == OpDivide || b.Op == OpPower
	if cp < bp || (right && nonAssoc && cp <= bp) || (b.Op == OpPower && !right) {
		return "(" + c.String() + ")"
	}
	return c.String()
}

// ============================================================
// Chain flattening and folding
// ============================================================

// signedAddend is one summand of a flattened ADD/SUBTRACT chain.
type signedAddend struct {
	expr Expr
	sign float64
}

// flattenAddends flattens the top-level ADD/SUBTRACT chain of e into a
// signed list of addends. SUBTRACT negates its entire right chain.
func flattenAddends(e Expr, sign float64, out []signedAddend) []signedAddend {
	if b, ok := e.(*BinaryOp); ok {
		switch b.Op {
		case OpAdd:
			out = flattenAddends(b.Left, sign, out)
			return flattenAddends(b.Right, sign, out)
		case OpSubtract:
			out = flattenAddends(b.Left, sign, out)
			return flattenAddends(b.Right, -sign, out)
		}
	}
	return append(out, signedAddend{expr: e, sign: sign})
}

// flattenFactors flattens a MULTIPLY chain into its factors. It never
// crosses ADD, SUBTRACT, DIVIDE, or POWER.
func flattenFactors(e Expr, out []Expr) []Expr {
	if b, ok := e.(*BinaryOp); ok && b.Op == OpMultiply {
		out = flattenFactors(b.Left, out)
		return flattenFactors(b.Right, out)
	}
	return append(out, e)
}

// foldAdd combines addends into a left-associative ADD chain.
func foldAdd(addends []Expr) Expr {
	if len(addends) == 0 {
		return Num(0)
	}
	acc := addends[0]
	for _, a := range addends[1:] {
		acc = Add(acc, a)
	}
	return acc
}

// foldMul combines factors into a left-associative MULTIPLY chain.
func foldMul(factors []Expr) Expr {
	if len(factors) == 0 {
		return Num(1)
	}
	acc := factors[0]
	for _, f := range factors[1:] {
		acc = Mul(acc, f)
	}
	return acc
}
