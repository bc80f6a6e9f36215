package stringutils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIndentString(t *testing.T) {
	testcases := []struct {
		in, indent, expected string
	}{
		{in: "abc", indent: "  ", expected: "  abc"},
		{in: "a\nb", indent: "--", expected: "--a\n--b"},
		{in: "a\n\nb\n", indent: "  ", expected: "  a\n\n  b\n"},
		{in: "a\nb", indent: "", expected: "a\nb"},
		{in: "", indent: "  ", expected: ""},
	}

	for _, tc := range testcases {
		assert.Equal(t, tc.expected, IndentString(tc.in, tc.indent), "input: %q", tc.in)
	}
}
