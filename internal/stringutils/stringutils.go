// Package stringutils contains string helpers.
package stringutils

import "strings"

// IndentString prefixes each non-empty line of str with indent.
func IndentString(str, indent string) string {
	if indent == "" {
		return str
	}

	var sb strings.Builder
	sb.Grow(len(str))

	for _, line := range strings.SplitAfter(str, "\n") {
		if line != "" && line != "\n" {
			sb.WriteString(indent)
		}

		sb.WriteString(line)
	}

	return sb.String()
}
