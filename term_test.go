package symforms_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/symgo/symforms"
)

func TestTerm_Decompose(t *testing.T) {
	x := symforms.Var("x")
	// 3 * x^2 * sin(x)
	expr := symforms.Mul(symforms.Mul(symforms.Num(3), symforms.Pow(x, symforms.Num(2))), symforms.Fn("sin", x))

	term, err := symforms.DecomposeTerm(expr)
	require.NoError(t, err)
	assert.InDelta(t, 3, term.Coefficient, 1e-10)
	assert.Equal(t, map[string]float64{"x": 2}, term.Variables)
	require.Len(t, term.Functions, 1)
	for key, exp := range term.Functions {
		assert.Equal(t, "sin", key.Name)
		assert.Equal(t, "x", key.Arg)
		assert.InDelta(t, 1, exp, 1e-10)
	}
	assert.Empty(t, term.Nested)
}

func TestTerm_DecomposeNested(t *testing.T) {
	x := symforms.Var("x")
	// 2 * (x+1)/x is a product with one opaque division factor.
	div := symforms.Div(symforms.Add(x, symforms.Num(1)), x)
	term, err := symforms.DecomposeTerm(symforms.Mul(symforms.Num(2), div))
	require.NoError(t, err)
	assert.InDelta(t, 2, term.Coefficient, 1e-10)
	require.Len(t, term.Nested, 1)
	assert.True(t, term.Nested[0].Equal(div))
}

func TestTerm_ExponentsCancelOut(t *testing.T) {
	x := symforms.Var("x")
	// x^2 * x^-2 leaves no variable entry.
	expr := symforms.Mul(symforms.Pow(x, symforms.Num(2)), symforms.Pow(x, symforms.Num(-2)))
	term, err := symforms.DecomposeTerm(expr)
	require.NoError(t, err)
	assert.Empty(t, term.Variables)
	assert.True(t, term.IsConstant())
}

func TestTerm_SimilarRequiresEqualFunctionExponents(t *testing.T) {
	x := symforms.Var("x")
	y := symforms.Var("y")
	sinSq := symforms.Mul(symforms.Pow(symforms.Fn("sin", x), symforms.Num(2)), y)
	sinCu := symforms.Mul(symforms.Pow(symforms.Fn("sin", x), symforms.Num(3)), y)

	a, err := symforms.DecomposeTerm(sinSq)
	require.NoError(t, err)
	b, err := symforms.DecomposeTerm(sinCu)
	require.NoError(t, err)
	c, err := symforms.DecomposeTerm(symforms.Mul(symforms.Num(5), sinSq))
	require.NoError(t, err)

	// sin(x)²·y and sin(x)³·y are not like terms.
	assert.False(t, a.Similar(b))
	assert.NotEqual(t, a.BaseKey(), b.BaseKey())
	// Coefficients do not take part in similarity.
	assert.True(t, a.Similar(c))
	assert.Equal(t, a.BaseKey(), c.BaseKey())
}

func TestTerm_BaseKeyDeterministic(t *testing.T) {
	x := symforms.Var("x")
	y := symforms.Var("y")
	a, err := symforms.DecomposeTerm(symforms.Mul(symforms.Mul(y, symforms.Pow(x, symforms.Num(2))), symforms.Fn("sin", x)))
	require.NoError(t, err)
	b, err := symforms.DecomposeTerm(symforms.Mul(symforms.Mul(symforms.Fn("sin", x), y), symforms.Pow(x, symforms.Num(2))))
	require.NoError(t, err)

	assert.Equal(t, "x^2*y*sin(x)", a.BaseKey())
	assert.Equal(t, a.BaseKey(), b.BaseKey())
}

func TestTerm_RenderSignConvention(t *testing.T) {
	x := symforms.Var("x")

	term, err := symforms.DecomposeTerm(symforms.Mul(symforms.Num(-1), x))
	require.NoError(t, err)
	assert.Equal(t, "-1*x", term.Render().String())

	term, err = symforms.DecomposeTerm(symforms.Mul(symforms.Num(-2), x))
	require.NoError(t, err)
	assert.Equal(t, "-2*x", term.Render().String())

	term, err = symforms.DecomposeTerm(symforms.Mul(symforms.Num(1), x))
	require.NoError(t, err)
	assert.Equal(t, "x", term.Render().String())
}

func TestTerm_RenderZeroCoefficient(t *testing.T) {
	term := symforms.NewTerm()
	term.Coefficient = 0
	assert.Equal(t, "0", term.Render().String())
}
