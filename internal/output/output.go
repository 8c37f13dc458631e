// Package output renders JSON responses and status messages to the terminal.
// Object bodies are printed as aligned key/value lines with color styling;
// the --no-color mode strips all styling.
package output

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/tidwall/gjson"
)

var (
	keyStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	valueStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	messageStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
)

// Printer writes rendered output. One printer is built per invocation from
// the resolved configuration.
type Printer struct {
	noColor bool
	out     io.Writer
	errOut  io.Writer
}

// NewPrinter creates a printer writing to stdout/stderr.
func NewPrinter(noColor bool) *Printer {
	return &Printer{noColor: noColor, out: os.Stdout, errOut: os.Stderr}
}

// NewPrinterTo creates a printer with explicit writers. Used in tests.
func NewPrinterTo(noColor bool, out, errOut io.Writer) *Printer {
	return &Printer{noColor: noColor, out: out, errOut: errOut}
}

// Dict pretty-prints a JSON body. Objects become aligned key/value lines,
// arrays are printed element by element with a blank line between objects,
// scalars are printed as-is.
func (p *Printer) Dict(body []byte) {
	p.render(gjson.ParseBytes(body))
}

func (p *Printer) render(value gjson.Result) {
	switch {
	case value.IsObject():
		p.renderObject(value)
	case value.IsArray():
		first := true
		value.ForEach(func(_, element gjson.Result) bool {
			if !first {
				fmt.Fprintln(p.out)
			}
			first = false
			p.render(element)
			return true
		})
	default:
		fmt.Fprintln(p.out, value.String())
	}
}

// renderObject prints one object with keys padded so values line up.
func (p *Printer) renderObject(obj gjson.Result) {
	width := 0
	obj.ForEach(func(key, _ gjson.Result) bool {
		if len(key.String()) > width {
			width = len(key.String())
		}
		return true
	})

	obj.ForEach(func(key, value gjson.Result) bool {
		title := fmt.Sprintf("%*s:  ", width, key.String())
		rendered := value.String()
		if value.IsObject() || value.IsArray() {
			rendered = value.Raw
		}
		fmt.Fprintln(p.out, p.style(title, keyStyle)+p.style(rendered, valueStyle))
		return true
	})
}

// Message prints a status line to stdout.
func (p *Printer) Message(msg string) {
	fmt.Fprintln(p.out, p.style(msg, messageStyle))
}

// Error prints a single-line error to stderr.
func (p *Printer) Error(msg string) {
	fmt.Fprintln(p.errOut, p.style(msg, errorStyle))
}

func (p *Printer) style(s string, st lipgloss.Style) string {
	if p.noColor {
		return s
	}
	return st.Render(s)
}
