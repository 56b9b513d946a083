package memory

import (
	"regexp"
	"strings"

	"github.com/felixgeelhaar/keyscope/domain/cache"
)

// compileGlob translates a glob pattern into an anchored regular
// expression. `*` matches any run of characters, `?` matches exactly one,
// and a backslash escapes the next character. Everything else is literal.
// The match is full-string, never a substring search.
func compileGlob(pattern string) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteString("^")

	for i := 0; i < len(pattern); i++ {
		switch c := pattern[i]; c {
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteString(".")
		case '\\':
			if i+1 >= len(pattern) {
				return nil, cache.ErrBadPattern
			}
			i++
			b.WriteString(regexp.QuoteMeta(string(pattern[i])))
		default:
			b.WriteString(regexp.QuoteMeta(string(c)))
		}
	}

	b.WriteString("$")

	re, err := regexp.Compile(b.String())
	if err != nil {
		return nil, cache.ErrBadPattern
	}
	return re, nil
}
