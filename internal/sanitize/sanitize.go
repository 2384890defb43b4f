package sanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	ugc    = bluemonday.UGCPolicy()
	strict = bluemonday.StrictPolicy()
)

// Body cleans user content, keeping safe formatting markup.
func Body(input string) string {
	return strings.TrimSpace(ugc.Sanitize(input))
}

// Text strips all markup, for titles, topics and usernames.
func Text(input string) string {
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(input)))
}

// Texts applies Text to each element and drops the empty ones.
func Texts(inputs []string) []string {
	out := make([]string, 0, len(inputs))
	for _, in := range inputs {
		if s := Text(in); s != "" {
			out = append(out, s)
		}
	}
	return out
}
