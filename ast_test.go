package symforms_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/symgo/symforms"
)

func TestAST_StringPrecedence(t *testing.T) {
	x := symforms.Var("x")

	cases := []struct {
		expr symforms.Expr
		want string
	}{
		{symforms.Add(x, symforms.Num(3)), "x + 3"},
		{symforms.Mul(symforms.Num(2), x), "2*x"},
		{symforms.Pow(x, symforms.Num(2)), "x^2"},
		{symforms.Mul(symforms.Num(2), symforms.Add(x, symforms.Num(1))), "2*(x + 1)"},
		{symforms.Pow(symforms.Add(x, symforms.Num(1)), symforms.Num(2)), "(x + 1)^2"},
		{symforms.Sub(x, symforms.Sub(x, symforms.Num(1))), "x - (x - 1)"},
		{symforms.Div(symforms.Sub(symforms.Fn("cos", x), symforms.Fn("sin", x)), symforms.Fn("exp", x)),
			"(cos(x) - sin(x))/exp(x)"},
		{symforms.Pow(x, symforms.Num(-1)), "x^(-1)"},
		{symforms.Div(symforms.Mul(symforms.Num(2), x), symforms.Mul(symforms.Num(2), symforms.Var("y"))),
			"2*x/(2*y)"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.expr.String())
	}
}

func TestAST_NumberFormatting(t *testing.T) {
	assert.Equal(t, "4", symforms.Num(4).String())
	assert.Equal(t, "-4", symforms.Num(-4).String())
	assert.Equal(t, "0.5", symforms.Num(0.5).String())
	assert.Equal(t, "0", symforms.Num(-0.0).String())
}

func TestAST_StructuralEquality(t *testing.T) {
	x := symforms.Var("x")

	assert.True(t, symforms.Add(x, symforms.Num(1)).Equal(symforms.Add(symforms.Var("x"), symforms.Num(1))))
	assert.False(t, symforms.Add(x, symforms.Num(1)).Equal(symforms.Add(symforms.Num(1), x)))
	assert.False(t, symforms.Add(x, symforms.Num(1)).Equal(symforms.Sub(x, symforms.Num(1))))
	assert.True(t, symforms.Num(1).Equal(symforms.Num(1+1e-12)))
	assert.False(t, symforms.Num(1).Equal(symforms.Num(1.001)))
	assert.True(t, symforms.Fn("sin", x).Equal(symforms.Fn("sin", symforms.Var("x"))))
	assert.False(t, symforms.Fn("sin", x).Equal(symforms.Fn("cos", x)))
}
