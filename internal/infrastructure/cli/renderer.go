// Package cli provides the terminal frontend: the cobra command tree,
// the interactive line editor loop, and rendering of shell and plugin
// output.
package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Renderer writes styled output. Plugin-facing methods implement the
// plugin host's Printer contract.
type Renderer struct {
	color bool
	out   io.Writer
	err   io.Writer

	errStyle  lipgloss.Style
	headStyle lipgloss.Style
}

// NewRenderer constructs a renderer writing to stdio.
func NewRenderer(color bool) *Renderer {
	return &Renderer{
		color:     color,
		out:       os.Stdout,
		err:       os.Stderr,
		errStyle:  lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		headStyle: lipgloss.NewStyle().Bold(true),
	}
}

// ShowOutput prints plugin output, optionally in a named color.
func (r *Renderer) ShowOutput(text, color string) {
	if r.color && color != "" {
		if code, ok := colorCodes[strings.ToLower(color)]; ok {
			text = lipgloss.NewStyle().Foreground(lipgloss.Color(code)).Render(text)
		}
	}
	fmt.Fprintln(r.out, text)
}

// ShowError prints an error line to stderr.
func (r *Renderer) ShowError(text string) {
	if r.color {
		text = r.errStyle.Render(text)
	}
	fmt.Fprintln(r.err, text)
}

// Heading prints a bold list heading.
func (r *Renderer) Heading(text string) {
	if r.color {
		text = r.headStyle.Render(text)
	}
	fmt.Fprintln(r.out, text)
}

// Println prints a plain line to stdout.
func (r *Renderer) Println(args ...interface{}) {
	fmt.Fprintln(r.out, args...)
}

// Printf prints formatted text to stdout.
func (r *Renderer) Printf(format string, args ...interface{}) {
	fmt.Fprintf(r.out, format, args...)
}

// colorCodes maps the protocol's color names onto ANSI 256 codes.
var colorCodes = map[string]string{
	"red":     "9",
	"green":   "10",
	"yellow":  "11",
	"blue":    "12",
	"magenta": "13",
	"cyan":    "14",
	"white":   "15",
	"gray":    "240",
}
