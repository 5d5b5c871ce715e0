package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderGFM(t *testing.T) {
	r := NewRenderer(Options{})

	html, err := r.Render("# Welcome\n\n- [x] done\n- [ ] todo\n\n~~old~~ https://example.com")
	require.NoError(t, err)
	assert.Contains(t, html, `<h1 id="welcome">Welcome</h1>`)
	assert.Contains(t, html, `<input checked="" disabled="" type="checkbox"`)
	assert.Contains(t, html, "<del>old</del>")
	assert.Contains(t, html, `<a href="https://example.com">`)
}

func TestRenderRawHTML(t *testing.T) {
	safe, err := NewRenderer(Options{}).Render("<script>alert(1)</script>")
	require.NoError(t, err)
	assert.NotContains(t, safe, "<script>")

	unsafe, err := NewRenderer(Options{Unsafe: true}).Render("<b>bold</b>")
	require.NoError(t, err)
	assert.Contains(t, unsafe, "<b>bold</b>")
}

func TestCount(t *testing.T) {
	assert.Equal(t, Stats{}, Count(""))
	assert.Equal(t, Stats{Words: 0, Characters: 3}, Count("  \n"))
	assert.Equal(t, Stats{Words: 4, Characters: 17}, Count("# Hello  world\n!!"))
	// One astral rune is two UTF-16 units.
	assert.Equal(t, Stats{Words: 1, Characters: 2}, Count("😀"))
}

func TestToggleCheckbox(t *testing.T) {
	source := "# List\n- [ ] first\n  - [x] nested\ntext [ ] ignored\n- [X] upper"

	out, ok := ToggleCheckbox(source, 0)
	require.True(t, ok)
	assert.Equal(t, "# List\n- [x] first\n  - [x] nested\ntext [ ] ignored\n- [X] upper", out)

	out, ok = ToggleCheckbox(source, 1)
	require.True(t, ok)
	assert.Equal(t, "# List\n- [ ] first\n  - [ ] nested\ntext [ ] ignored\n- [X] upper", out)

	// An upper-case mark does not contain "[x]" and is therefore checked, not cleared.
	out, ok = ToggleCheckbox(source, 2)
	require.True(t, ok)
	assert.Equal(t, "# List\n- [ ] first\n  - [x] nested\ntext [ ] ignored\n- [x] upper", out)

	out, ok = ToggleCheckbox(source, 3)
	assert.False(t, ok)
	assert.Equal(t, source, out)

	_, ok = ToggleCheckbox(source, -1)
	assert.False(t, ok)
}
