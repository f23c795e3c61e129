// Package treeview renders tree snapshots for terminals and markdown.
package treeview

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/aretw0/vizkit/pkg/tree"
)

// Renderer draws tree snapshots as indented text.
type Renderer struct {
	profile termenv.Profile
	width   int
	// ExpandAll ignores the per-node expansion state.
	ExpandAll bool
}

// New returns a renderer for w. Colors and width are used only when w is a terminal.
func New(w io.Writer) *Renderer {
	r := &Renderer{profile: termenv.Ascii}
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		r.profile = termenv.ColorProfile()
		if width, _, err := term.GetSize(int(f.Fd())); err == nil {
			r.width = width
		}
	}
	return r
}

// Tree renders v under the heading name.
func (r *Renderer) Tree(name string, v tree.NodeView) string {
	var b strings.Builder
	b.WriteString(r.profile.String(name).Bold().String())
	if v.Type != "" {
		b.WriteString(" " + r.style(v.Type, "#6b7280").String())
	}
	b.WriteString("\n")
	if v.Kind == "scalar" {
		b.WriteString("  " + r.value(v) + "\n")
		return b.String()
	}
	r.children(&b, v, "")
	return b.String()
}

func (r *Renderer) children(b *strings.Builder, v tree.NodeView, indent string) {
	for i, c := range v.Children {
		branch, next := "├── ", "│   "
		if i == len(v.Children)-1 {
			branch, next = "└── ", "    "
		}
		line := indent + branch + r.line(c)
		b.WriteString(r.clip(line) + "\n")
		if c.Kind != "scalar" && (r.ExpandAll || c.Expanded) {
			r.children(b, c, indent+next)
		}
	}
}

func (r *Renderer) line(v tree.NodeView) string {
	key := r.style(v.Key, "#93c5fd")
	if v.Orphaned {
		key = key.CrossOut()
	}
	var out string
	switch {
	case v.Kind == "scalar":
		out = key.String() + ": " + r.value(v)
	case r.ExpandAll || v.Expanded:
		out = key.String() + " " + r.style(v.Type, "#6b7280").String()
	default:
		out = fmt.Sprintf("%s %s (%d)", key, r.style(v.Type, "#6b7280"), len(v.Children))
	}
	if v.Dirty {
		out += " " + r.style("*", "#fbbf24").Bold().String()
	}
	return out
}

func (r *Renderer) value(v tree.NodeView) string {
	if v.Dirty {
		return r.style(v.Text, "#fbbf24").String()
	}
	return v.Text
}

func (r *Renderer) style(s, color string) termenv.Style {
	return r.profile.String(s).Foreground(r.profile.Color(color))
}

// clip trims plain lines to the terminal width. Styled lines are left alone
// since escape codes do not count towards the width.
func (r *Renderer) clip(line string) string {
	if r.width <= 0 || r.profile != termenv.Ascii {
		return line
	}
	runes := []rune(line)
	if len(runes) <= r.width {
		return line
	}
	return string(runes[:r.width-1]) + "…"
}

// Markdown renders v as a nested markdown list, dirty values in bold.
func Markdown(name string, v tree.NodeView) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## %s\n\n", name)
	if v.Type != "" {
		fmt.Fprintf(&b, "_%s_\n\n", v.Type)
	}
	if v.Kind == "scalar" {
		fmt.Fprintf(&b, "- %s\n", markdownValue(v))
		return b.String()
	}
	markdownChildren(&b, v, "")
	return b.String()
}

func markdownChildren(b *strings.Builder, v tree.NodeView, indent string) {
	for _, c := range v.Children {
		key := "`" + c.Key + "`"
		if c.Orphaned {
			key = "~~" + key + "~~"
		}
		if c.Kind == "scalar" {
			fmt.Fprintf(b, "%s- %s: %s\n", indent, key, markdownValue(c))
			continue
		}
		fmt.Fprintf(b, "%s- %s _%s_\n", indent, key, c.Type)
		markdownChildren(b, c, indent+"  ")
	}
}

func markdownValue(v tree.NodeView) string {
	text := strings.ReplaceAll(v.Text, "\n", " ")
	if v.Dirty {
		return "**" + text + "**"
	}
	return text
}

// NewMarkdownRenderer returns a function that renders markdown for the terminal.
func NewMarkdownRenderer() (func(string) (string, error), error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
	)
	if err != nil {
		return nil, err
	}
	return r.Render, nil
}
