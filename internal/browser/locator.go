// Package browser abstracts the headless browser the scanner drives.
//
// Everything above this package talks to a Page through XPath Locators, so the
// same extraction code runs against a live chromedp tab or an HTML fixture.
package browser

import (
	"fmt"
	"strings"
)

// Locator is an XPath 1.0 expression addressing zero or more elements.
type Locator string

// XPath wraps an expression as a Locator.
func XPath(expr string) Locator {
	return Locator(expr)
}

// String returns the raw expression.
func (l Locator) String() string {
	return string(l)
}

// Nth addresses the i-th (zero-based) match of l.
func (l Locator) Nth(i int) Locator {
	return Locator(fmt.Sprintf("(%s)[%d]", l, i+1))
}

// First addresses the first match of l.
func (l Locator) First() Locator {
	return l.Nth(0)
}

// Last addresses the last match of l.
func (l Locator) Last() Locator {
	return Locator(fmt.Sprintf("(%s)[last()]", l))
}

// Find scopes a relative path under l. A path without a leading axis is searched
// among all descendants.
func (l Locator) Find(path string) Locator {
	switch {
	case strings.HasPrefix(path, "/"):
		return Locator(string(l) + path)
	case strings.HasPrefix(path, "following-sibling::"), strings.HasPrefix(path, "parent::"), strings.HasPrefix(path, "ancestor::"):
		return Locator(string(l) + "/" + path)
	default:
		return Locator(string(l) + "//" + path)
	}
}

// Or matches either locator, in document order.
func (l Locator) Or(other Locator) Locator {
	return Locator(fmt.Sprintf("%s | %s", l, other))
}

// HasClass returns an XPath predicate body matching elements carrying class.
func HasClass(class string) string {
	return fmt.Sprintf("contains(concat(' ', normalize-space(@class), ' '), ' %s ')", class)
}

// Class builds "//tag[class]" for a single CSS class.
func Class(tag, class string) Locator {
	return Locator(fmt.Sprintf("//%s[%s]", tag, HasClass(class)))
}

// ID builds "//tag[@id=id]".
func ID(tag, id string) Locator {
	return Locator(fmt.Sprintf("//%s[@id=%s]", tag, Quote(id)))
}

// ByText builds a locator for elements whose normalized text equals text.
func ByText(tag, text string) Locator {
	return Locator(fmt.Sprintf("//%s[normalize-space(.)=%s]", tag, Quote(text)))
}

// ContainingText builds a locator for elements whose text contains text.
func ContainingText(tag, text string) Locator {
	return Locator(fmt.Sprintf("//%s[contains(normalize-space(.), %s)]", tag, Quote(text)))
}

// Quote renders s as an XPath string literal. XPath 1.0 has no escapes, so a
// value holding both quote kinds is assembled with concat().
func Quote(s string) string {
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	parts := strings.Split(s, "'")
	quoted := make([]string, 0, len(parts)*2)
	for i, p := range parts {
		if i > 0 {
			quoted = append(quoted, `"'"`)
		}
		if p != "" {
			quoted = append(quoted, "'"+p+"'")
		}
	}
	return "concat(" + strings.Join(quoted, ", ") + ")"
}
