package pagerange

import (
	"testing"

	"github.com/docforge/docforge/internal/common"
	"github.com/stretchr/testify/require"
)

func TestParse_Valid(t *testing.T) {
	tests := []struct {
		in   string
		want []Range
	}{
		{"1", []Range{{1, 1}}},
		{"1-3", []Range{{1, 3}}},
		{"1-3,4,5-7", []Range{{1, 3}, {4, 4}, {5, 7}}},
		{"10-10", []Range{{10, 10}}},
		{" 1-2, 3 ", []Range{{1, 2}, {3, 3}}},
	}
	for _, tc := range tests {
		got, err := Parse(tc.in)
		require.NoError(t, err, "input %q", tc.in)
		require.Equal(t, tc.want, got, "input %q", tc.in)
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []string{
		"",
		"   ",
		"1-3,,5",
		"a-b",
		"1-",
		"-3",
		"0",
		"0-2",
		"5-3",
		"1,2,x",
		"+1",
		"1--2",
	}
	for _, in := range tests {
		_, err := Parse(in)
		require.ErrorIs(t, err, common.ErrInvalidPageRange, "input %q", in)
	}
}

func TestValidate(t *testing.T) {
	require.NoError(t, Validate("1-3,4,5-7"))
	require.Error(t, Validate("1-3,,5"))
}

func TestRange_String(t *testing.T) {
	require.Equal(t, "4", Range{4, 4}.String())
	require.Equal(t, "2-9", Range{2, 9}.String())
}
