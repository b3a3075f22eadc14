package id

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewReference(t *testing.T) {
	seen := make(map[string]bool)
	for range 500 {
		ref := NewReference()
		require.Len(t, ref, 15)
		assert.True(t, strings.HasPrefix(ref, "TXN"))
		assert.Equal(t, strings.ToUpper(ref), ref)
		assert.False(t, seen[ref], "duplicate reference %s", ref)
		seen[ref] = true

		_, leg, err := ParseReference(ref)
		require.NoError(t, err)
		assert.Equal(t, -1, leg)
	}
}

func TestFormatLegReference(t *testing.T) {
	tests := []struct {
		ref  string
		leg  int
		want string
	}{
		{"TXN0K3Z9Q1B7XWD", 0, "TXN0K3Z9Q1B7XWDa"},
		{"TXN0K3Z9Q1B7XWD", 1, "TXN0K3Z9Q1B7XWDb"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatLegReference(tt.ref, tt.leg))
	}
}

func TestParseReference(t *testing.T) {
	tests := []struct {
		input     string
		wantGroup string
		wantLeg   int
	}{
		{"TXN0K3Z9Q1B7XWD", "TXN0K3Z9Q1B7XWD", -1},
		{"TXN0K3Z9Q1B7XWDa", "TXN0K3Z9Q1B7XWD", 0},
		{"TXN0K3Z9Q1B7XWDb", "TXN0K3Z9Q1B7XWD", 1},
	}
	for _, tt := range tests {
		group, leg, err := ParseReference(tt.input)
		require.NoError(t, err, "input: %s", tt.input)
		assert.Equal(t, tt.wantGroup, group)
		assert.Equal(t, tt.wantLeg, leg)
	}
}

func TestParseReference_Errors(t *testing.T) {
	badInputs := []string{
		"",
		"TXN",
		"ABC0K3Z9Q1B7XWD",
		"TXN0K3Z9Q1B7XW",
		"TXN0K3Z9Q1B7XW-",
		"TXN0K3Z9Q1B7XWDab",
	}
	for _, input := range badInputs {
		_, _, err := ParseReference(input)
		assert.Error(t, err, "expected error for input: %s", input)
	}
}

func TestReferenceGroup(t *testing.T) {
	assert.Equal(t, "TXN0K3Z9Q1B7XWD", ReferenceGroup("TXN0K3Z9Q1B7XWDa"))
	assert.Equal(t, "TXN0K3Z9Q1B7XWD", ReferenceGroup("TXN0K3Z9Q1B7XWD"))
	assert.Equal(t, "", ReferenceGroup(""))
}

func TestNewAccountNumber(t *testing.T) {
	for range 100 {
		n := NewAccountNumber()
		require.Len(t, n, 10)
		assert.NotEqual(t, byte('0'), n[0])
		for _, r := range n {
			assert.True(t, r >= '0' && r <= '9', "non-digit in %s", n)
		}
	}
}

func TestSeed(t *testing.T) {
	assert.Equal(t, Seed("demo-checking"), Seed("demo-checking"))
	assert.NotEqual(t, Seed("demo-checking"), Seed("demo-savings"))
}
