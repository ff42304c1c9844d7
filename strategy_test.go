package symforms_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/symgo/symforms"
)

func formStrings(forms []symforms.Form) []string {
	out := make([]string, len(forms))
	for i, f := range forms {
		out[i] = f.Expr.String()
	}
	return out
}

func TestGenerateMultipleForms_Polynomial(t *testing.T) {
	x := symforms.Var("x")
	square := symforms.Mul(symforms.Add(x, symforms.Num(1)), symforms.Add(x, symforms.Num(1)))

	forms := symforms.GenerateMultipleForms(square)
	require.NotEmpty(t, forms)
	assert.Contains(t, formStrings(forms), "x^2 + 2*x + 1")
}

func TestGenerateMultipleForms_Deduplicates(t *testing.T) {
	x := symforms.Var("x")
	forms := symforms.GenerateMultipleForms(symforms.Add(x, symforms.Num(1)))

	seen := map[string]bool{}
	for _, f := range forms {
		key := f.Expr.String()
		assert.False(t, seen[key], "duplicate form %s", key)
		seen[key] = true
	}
}

func TestGenerateMultipleForms_TrigCollapse(t *testing.T) {
	x := symforms.Var("x")
	pyth := symforms.Add(
		symforms.Pow(symforms.Fn("sin", x), symforms.Num(2)),
		symforms.Pow(symforms.Fn("cos", x), symforms.Num(2)),
	)
	forms := symforms.GenerateMultipleForms(pyth)
	assert.Contains(t, formStrings(forms), "1")
}

func TestGenerateMultipleForms_FractionReduction(t *testing.T) {
	x := symforms.Var("x")
	frac := symforms.Div(
		symforms.Mul(symforms.Fn("exp", x), symforms.Sub(symforms.Fn("cos", x), symforms.Fn("sin", x))),
		symforms.Pow(symforms.Fn("exp", x), symforms.Num(2)),
	)
	forms := symforms.GenerateMultipleForms(frac)

	var labels []string
	for _, f := range forms {
		labels = append(labels, f.Label)
	}
	assert.Contains(t, labels, "fraction reduced")
}

func TestGenerateMultipleForms_VerboseCleanRun(t *testing.T) {
	x := symforms.Var("x")
	forms, diag := symforms.GenerateMultipleFormsVerbose(symforms.Add(x, symforms.Num(1)))
	assert.NoError(t, diag)
	assert.NotEmpty(t, forms)
}

func TestGenerateMultipleForms_ConstantInput(t *testing.T) {
	forms := symforms.GenerateMultipleForms(symforms.Num(7))
	require.NotEmpty(t, forms)
	for _, f := range forms {
		assert.Equal(t, "7", f.Expr.String())
	}
}
