// Package markdown renders previews and implements the small text edits the
// preview pane performs on the editing buffer.
package markdown

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf16"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
)

type Options struct {
	HardWraps bool
	// Unsafe passes raw HTML in the source through to the preview.
	Unsafe bool
}

// Renderer is stateless after construction and safe for concurrent use.
type Renderer struct {
	engine goldmark.Markdown
}

func NewRenderer(opts Options) *Renderer {
	rendererOptions := []renderer.Option{}
	if opts.HardWraps {
		rendererOptions = append(rendererOptions, html.WithHardWraps())
	}
	if opts.Unsafe {
		rendererOptions = append(rendererOptions, html.WithUnsafe())
	}

	engineOptions := []goldmark.Option{
		goldmark.WithExtensions(extension.GFM, extension.Linkify, extension.TaskList),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
	}
	if len(rendererOptions) > 0 {
		engineOptions = append(engineOptions, goldmark.WithRendererOptions(rendererOptions...))
	}

	return &Renderer{engine: goldmark.New(engineOptions...)}
}

func (r *Renderer) Render(source string) (string, error) {
	var buf bytes.Buffer
	if err := r.engine.Convert([]byte(source), &buf); err != nil {
		return "", fmt.Errorf("markdown render: %w", err)
	}
	return buf.String(), nil
}

type Stats struct {
	Words      int
	Characters int
}

// Count returns whitespace-separated words and the buffer length in UTF-16
// code units, which is what the browser editor reports.
func Count(source string) Stats {
	return Stats{
		Words:      len(strings.Fields(source)),
		Characters: len(utf16.Encode([]rune(source))),
	}
}

var (
	taskLine = regexp.MustCompile(`(?i)^\s*- \[([ x])\]`)
	taskBox  = regexp.MustCompile(`(?i)\[([ x])\]`)
)

// ToggleCheckbox flips the index-th task list item (zero based, in document
// order). It reports false and returns the source unchanged when there is no
// such item.
func ToggleCheckbox(source string, index int) (string, bool) {
	if index < 0 {
		return source, false
	}

	lines := strings.Split(source, "\n")
	count := 0
	for i, line := range lines {
		if !taskLine.MatchString(line) {
			continue
		}
		if count != index {
			count++
			continue
		}

		replacement := "[x]"
		if strings.Contains(line, "[x]") {
			replacement = "[ ]"
		}
		loc := taskBox.FindStringIndex(line)
		lines[i] = line[:loc[0]] + replacement + line[loc[1]:]
		return strings.Join(lines, "\n"), true
	}
	return source, false
}
