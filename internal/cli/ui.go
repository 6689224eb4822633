// Package cli holds the terminal presentation used by the j2j command:
// styled expression trees, path listings and status lines.
package cli

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/mcncl/j2j/internal/formatter"
	"github.com/mcncl/j2j/internal/models"
	"github.com/mcncl/j2j/internal/tree"
)

var (
	colorCyan  = lipgloss.Color("36")
	colorGreen = lipgloss.Color("35")
	colorRed   = lipgloss.Color("167")
	colorBlue  = lipgloss.Color("75")
	colorAmber = lipgloss.Color("220")
	colorWhite = lipgloss.Color("255")
	colorDim   = lipgloss.Color("240")
)

const (
	iconSuccess = "✓"
	iconError   = "✗"

	branchMid  = "├── "
	branchLast = "└── "
	pipeMid    = "│   "
	pipeLast   = "    "

	// maxValueWidth truncates long primitive previews in tree output.
	maxValueWidth = 48
)

// UI writes styled output to a single writer. Styles come from a renderer
// bound to that writer, so colors are dropped when it is not a terminal.
type UI struct {
	w io.Writer

	key     lipgloss.Style
	index   lipgloss.Style
	str     lipgloss.Style
	number  lipgloss.Style
	literal lipgloss.Style
	dim     lipgloss.Style
	expr    lipgloss.Style
	success lipgloss.Style
	failure lipgloss.Style
}

// NewUI creates a UI for w.
func NewUI(w io.Writer) *UI {
	r := lipgloss.NewRenderer(w)
	return &UI{
		w:       w,
		key:     r.NewStyle().Bold(true).Foreground(colorWhite),
		index:   r.NewStyle().Foreground(colorCyan),
		str:     r.NewStyle().Foreground(colorGreen),
		number:  r.NewStyle().Foreground(colorCyan),
		literal: r.NewStyle().Foreground(colorAmber),
		dim:     r.NewStyle().Foreground(colorDim),
		expr:    r.NewStyle().Foreground(colorBlue),
		success: r.NewStyle().Foreground(colorGreen),
		failure: r.NewStyle().Foreground(colorRed),
	}
}

// Tree prints root and its descendants with box-drawing connectors. Each
// non-root line ends with the expression that selects the node.
func (u *UI) Tree(root *models.TreeNode) error {
	var b strings.Builder
	b.WriteString(u.label(root, false))
	b.WriteString("\n")
	u.children(&b, root, "")
	_, err := io.WriteString(u.w, b.String())
	return err
}

func (u *UI) children(b *strings.Builder, n *models.TreeNode, prefix string) {
	for i, c := range n.Children {
		last := i == len(n.Children)-1
		branch, pipe := branchMid, pipeMid
		if last {
			branch, pipe = branchLast, pipeLast
		}

		b.WriteString(u.dim.Render(prefix + branch))
		b.WriteString(u.label(c, n.Type == models.Array))
		b.WriteString("  ")
		b.WriteString(u.expr.Render(formatter.PathToExpression(c.Path)))
		b.WriteString("\n")

		if c.IsExpandable() {
			u.children(b, c, prefix+pipe)
		}
	}
}

func (u *UI) label(n *models.TreeNode, inArray bool) string {
	key := u.key.Render(n.Key)
	if inArray {
		key = u.index.Render("[" + n.Key + "]")
	}

	switch n.Type {
	case models.Object:
		return key + " " + u.dim.Render(fmt.Sprintf("{%d}", len(n.Children)))
	case models.Array:
		return key + " " + u.dim.Render(fmt.Sprintf("[%d]", len(n.Children)))
	}
	return key + ": " + u.value(n)
}

func (u *UI) value(n *models.TreeNode) string {
	switch n.Type {
	case models.String:
		s, _ := n.Value.(string)
		raw, err := models.MarshalNoEscape(truncate(s, maxValueWidth))
		if err != nil {
			return u.str.Render(s)
		}
		return u.str.Render(string(raw))
	case models.Number:
		return u.number.Render(fmt.Sprint(n.Value))
	case models.Boolean:
		return u.literal.Render(fmt.Sprint(n.Value))
	default:
		return u.literal.Render("null")
	}
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n-1]) + "…"
}

// Paths prints one "<path>\t<expression>" line per node below root, in
// document order.
func (u *UI) Paths(root *models.TreeNode) error {
	var b strings.Builder
	err := tree.Walk(root, func(n *models.TreeNode) error {
		if n == root {
			return nil
		}
		b.WriteString(n.Path)
		b.WriteString("\t")
		b.WriteString(formatter.PathToExpression(n.Path))
		b.WriteString("\n")
		return nil
	})
	if err != nil {
		return err
	}
	_, err = io.WriteString(u.w, b.String())
	return err
}

// Success prints a success status line.
func (u *UI) Success(format string, args ...any) {
	fmt.Fprintln(u.w, u.success.Render(iconSuccess)+" "+fmt.Sprintf(format, args...))
}

// Error prints an error status line.
func (u *UI) Error(format string, args ...any) {
	fmt.Fprintln(u.w, u.failure.Render(iconError)+" "+fmt.Sprintf(format, args...))
}

// Detail prints an indented, muted line.
func (u *UI) Detail(format string, args ...any) {
	fmt.Fprintln(u.w, "  "+u.dim.Render(fmt.Sprintf(format, args...)))
}
