// Package sanitize strips markup from user supplied text before it is stored.
package sanitize

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var policy = bluemonday.StrictPolicy()

// String removes any HTML and surrounding whitespace from input.
func String(input string) string {
	input = strings.ReplaceAll(input, "\x00", "")
	return strings.TrimSpace(policy.Sanitize(input))
}

// Strings applies String to every element, returning a new slice.
func Strings(inputs []string) []string {
	if inputs == nil {
		return nil
	}
	out := make([]string, len(inputs))
	for i, s := range inputs {
		out[i] = String(s)
	}
	return out
}
