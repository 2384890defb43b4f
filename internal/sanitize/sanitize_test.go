package sanitize_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/anonto42/wisora/internal/sanitize"
)

func TestBodyStripsScripts(t *testing.T) {
	got := sanitize.Body(`  <b>hi</b><script>alert(1)</script>  `)
	assert.Equal(t, "<b>hi</b>", got)
}

func TestTextStripsAllMarkup(t *testing.T) {
	assert.Equal(t, "Go & generics", sanitize.Text("<i>Go &amp; generics</i>"))
	assert.Equal(t, []string{"go", "db"}, sanitize.Texts([]string{"go", "<br>", " db "}))
}
