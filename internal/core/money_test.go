package core

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMoney(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"1", "1", true},
		{"1.0", "1", true},
		{"1.23", "1.23", true},
		{"1,23", "1.23", true},
		{" 2.50 ", "2.5", true},
		{"0", "0", true},
		{"-1", "", false},
		{"abc", "", false},
		{"1.2.3", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseMoney(tc.in)
		if !tc.ok {
			assert.ErrorIs(t, err, ErrInvalidAmount, "input %q", tc.in)
			continue
		}
		require.NoError(t, err, "input %q", tc.in)
		assert.Equal(t, tc.out, got.String(), "input %q", tc.in)
	}
}

func TestParseSignedMoneyAllowsNegatives(t *testing.T) {
	m, err := ParseSignedMoney("-25,5")
	require.NoError(t, err)
	assert.Equal(t, "-25.5", m.String())
}

func TestMoneyJSON(t *testing.T) {
	b, err := json.Marshal(struct {
		A Money `json:"a"`
	}{NewMoney(12.5)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":12.5}`, string(b))

	var v struct {
		A Money `json:"a"`
		B Money `json:"b"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":40,"b":"3.25"}`), &v))
	assert.True(t, v.A.Equal(MoneyFromInt(40)))
	assert.True(t, v.B.Equal(NewMoney(3.25)))
}

func TestMoneyArithmetic(t *testing.T) {
	a := MoneyFromInt(10)
	b := NewMoney(2.5)
	assert.Equal(t, "12.5", a.Add(b).String())
	assert.Equal(t, "7.5", a.Sub(b).String())
	assert.Equal(t, "830", a.Mul(83).String())
	assert.Equal(t, 1, a.Cmp(b))
	assert.InDelta(t, 2.5, b.Float64(), 1e-9)

	var zero Money
	assert.True(t, zero.IsZero())
	assert.Equal(t, "2.5", zero.Add(b).String())
}
