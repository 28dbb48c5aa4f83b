package tui

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// welcomeGuide is shown in place of the columns while the board has no widgets.
const welcomeGuide = `
# Welcome to widgethub

Your board has three columns. Widgets live in them, at most a few per column.

## Edit mode

Press **%[1]s** to enter edit mode. Widgets can only be grabbed, removed,
resized or repositioned while editing. You cannot leave edit mode while a
column's custom heights add up to more than 100%%.

## Adding widgets

Press **%[2]s** and pick a kind. New widgets land in the first column with room,
left to right.

## Drag and drop

Grab a widget with the mouse, or select it and press **%[3]s**. Move it with the
arrow keys, press **enter** to drop it or **esc** to put it back.
`

// markdownRenderer renders markdown for terminal views. It keeps the renderer
// and the last output until the wrap width or the source changes.
type markdownRenderer struct {
	width    int
	source   string
	output   string
	renderer *glamour.TermRenderer
}

// render converts markdown input into ANSI-styled terminal text with the requested wrap width.
func (r *markdownRenderer) render(markdown string, width int) string {
	markdown = strings.TrimSpace(markdown)
	if markdown == "" {
		return ""
	}

	wrapWidth := max(width, 24)
	if r.renderer != nil && r.width == wrapWidth && r.source == markdown {
		return r.output
	}

	if r.renderer == nil || r.width != wrapWidth {
		renderer, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle("dark"),
			glamour.WithWordWrap(wrapWidth),
		)
		if err != nil {
			return markdown
		}
		r.renderer = renderer
		r.width = wrapWidth
	}

	rendered, err := r.renderer.Render(markdown)
	if err != nil {
		return markdown
	}
	r.source = markdown
	r.output = strings.TrimRight(rendered, "\n")
	return r.output
}
