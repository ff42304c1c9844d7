package symforms_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/symgo/symforms"
)

func TestJSON_RoundTrip(t *testing.T) {
	x := symforms.Var("x")
	// sin(2*x) + x^2/3
	e := symforms.Add(
		symforms.Fn("sin", symforms.Mul(symforms.Num(2), x)),
		symforms.Div(symforms.Pow(x, symforms.Num(2)), symforms.Num(3)))

	data, err := symforms.MarshalExpr(e)
	require.NoError(t, err)

	back, err := symforms.UnmarshalExpr(data)
	require.NoError(t, err)
	assert.True(t, back.Equal(e), "decoded %s, want %s", back, e)
}

func TestJSON_DecodeLiteral(t *testing.T) {
	raw := `{"type":"binary","op":"multiply",
		"left":{"type":"number","value":2},
		"right":{"type":"variable","name":"x"}}`

	e, err := symforms.UnmarshalExpr([]byte(raw))
	require.NoError(t, err)
	assert.Equal(t, "2*x", e.String())
}

func TestJSON_Errors(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"unknown type", `{"type":"matrix"}`},
		{"missing type", `{"value":1}`},
		{"unknown operator", `{"type":"binary","op":"mod","left":{"type":"number","value":1},"right":{"type":"number","value":2}}`},
		{"function without arg", `{"type":"function","name":"sin"}`},
		{"variable without name", `{"type":"variable"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := symforms.UnmarshalExpr([]byte(tc.raw))
			assert.Error(t, err)
		})
	}
}

func TestJSON_MarshalNil(t *testing.T) {
	_, err := symforms.MarshalExpr(nil)
	assert.Error(t, err)
}
