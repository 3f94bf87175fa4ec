package engine

import (
	"strings"

	"github.com/hashicorp/hcl/v2/hclsyntax"
)

// operators may not appear left of an assignment's "=".
var operators = []string{
	"+", "-", "*", "/", "%", "<", ">", "&", "|", "^", "~", "!",
}

// SplitAssignment recognises the global-binding form "name = expression".
// Only the first "=" separates the name; everything after it, further "="
// signs included, is the expression. Comparisons such as "a == b" are not
// assignments because nothing stands between their two "=" signs.
func SplitAssignment(text string) (name, body string, ok bool) {
	head, rest, found := strings.Cut(text, "=")
	if !found {
		return "", "", false
	}
	if next, _, _ := strings.Cut(rest, "="); next == "" {
		return "", "", false
	}
	if len(strings.Fields(head)) != 1 {
		return "", "", false
	}
	for _, op := range operators {
		if strings.Contains(head, op) {
			return "", "", false
		}
	}
	if strings.Count(head, "(") != strings.Count(head, ")") {
		return "", "", false
	}

	name = strings.TrimSpace(head)
	if !hclsyntax.ValidIdentifier(name) {
		return "", "", false
	}
	return name, rest, true
}
