package symforms_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/symgo/symforms"
)

func TestSelector_CostModel(t *testing.T) {
	x := symforms.Var("x")
	y := symforms.Var("y")

	cases := []struct {
		expr symforms.Expr
		want int
	}{
		{symforms.Num(3), 0},
		{x, 1},
		{symforms.Fn("sin", x), 4},
		{symforms.Add(x, y), 3},
		{symforms.Sub(x, y), 3},
		{symforms.Mul(x, y), 4},
		{symforms.Div(x, y), 6},
		{symforms.Pow(x, symforms.Num(2)), 4},
		{symforms.Pow(x, y), 8},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, symforms.DifferentiationCost(tc.expr), "cost of %s", tc.expr)
	}
}

func TestSelector_EmptyInput(t *testing.T) {
	_, err := symforms.SelectBestForDifferentiation(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty")
}

func TestSelector_SingleCandidate(t *testing.T) {
	x := symforms.Var("x")
	best, err := symforms.SelectBestForDifferentiation([]symforms.Expr{x})
	require.NoError(t, err)
	assert.True(t, best.Equal(x))
}

func TestSelector_PrefersCheaperForm(t *testing.T) {
	x := symforms.Var("x")
	// x/(x+1) costs less to differentiate than x·(x+1)^(-1).
	quotient := symforms.Div(x, symforms.Add(x, symforms.Num(1)))
	product := symforms.Mul(x, symforms.Pow(symforms.Add(x, symforms.Num(1)), symforms.Num(-1)))
	require.Less(t,
		symforms.DifferentiationCost(quotient),
		symforms.DifferentiationCost(product))

	best, err := symforms.SelectBestForDifferentiation([]symforms.Expr{product, quotient})
	require.NoError(t, err)
	assert.True(t, best.Equal(quotient))
}

func TestSelector_TiesKeepEncounterOrder(t *testing.T) {
	x := symforms.Var("x")
	y := symforms.Var("y")
	a := symforms.Add(x, y)
	b := symforms.Sub(y, x)
	require.Equal(t, symforms.DifferentiationCost(a), symforms.DifferentiationCost(b))

	best, err := symforms.SelectBestForDifferentiation([]symforms.Expr{a, b})
	require.NoError(t, err)
	assert.True(t, best.Equal(a))

	best, err = symforms.SelectBestForDifferentiation([]symforms.Expr{b, a})
	require.NoError(t, err)
	assert.True(t, best.Equal(b))
}
