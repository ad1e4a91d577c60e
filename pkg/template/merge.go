package template

import "regexp"

// Placeholders are {{identifier}} where identifier is [a-zA-Z0-9_]+. There is
// no escaping and no conditional syntax; this is intentionally minimal.
var placeholderRe = regexp.MustCompile(`\{\{([a-zA-Z0-9_]+)\}\}`)

// Merge replaces every {{identifier}} in tmpl with vars[identifier], or the
// empty string when the variable is absent. A malformed `{{` with no closing
// `}}` is left untouched.
func Merge(tmpl string, vars map[string]string) string {
	return placeholderRe.ReplaceAllStringFunc(tmpl, func(m string) string {
		name := m[2 : len(m)-2]
		return vars[name]
	})
}
