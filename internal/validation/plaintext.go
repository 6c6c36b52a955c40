package validation

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// strictPolicy strips every element; bluemonday policies are safe for concurrent use.
//
//nolint:gochecknoglobals // immutable after construction
var strictPolicy = bluemonday.StrictPolicy()

// PlainText removes markup from user input and returns the remaining text
// unescaped, so templates escape it exactly once on output.
func PlainText(v string) string {
	if !strings.ContainsAny(v, "<>&") {
		return v
	}
	return html.UnescapeString(strictPolicy.Sanitize(v))
}
