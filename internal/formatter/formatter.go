// Package formatter produces the text shown to users: template expressions
// for tree paths and indented JSON for composite values.
package formatter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mcncl/j2j/internal/models"
)

// DefaultIndent is the indentation width used for pretty JSON.
const DefaultIndent = 2

// PathToExpression wraps path in output delimiters. The empty path (the
// document root) has no expression and yields "".
func PathToExpression(path string) string {
	if path == "" {
		return ""
	}
	return "{{ " + path + " }}"
}

// InsertAtCursor inserts text into buffer at the rune offset cursor and
// returns the new buffer and the cursor position just after the inserted
// text. Nothing is replaced. A cursor outside the buffer appends.
func InsertAtCursor(buffer string, cursor int, text string) (string, int) {
	runes := []rune(buffer)
	if cursor < 0 || cursor > len(runes) {
		cursor = len(runes)
	}
	var b strings.Builder
	b.WriteString(string(runes[:cursor]))
	b.WriteString(text)
	b.WriteString(string(runes[cursor:]))
	return b.String(), cursor + len([]rune(text))
}

// Formatter renders values as JSON text.
type Formatter struct {
	Indent int
}

// NewFormatter creates a Formatter with the default two-space indent.
func NewFormatter() *Formatter {
	return &Formatter{Indent: DefaultIndent}
}

// Format encodes value as JSON. An Indent of zero or less produces compact
// output with no whitespace.
func (f *Formatter) Format(value interface{}) (string, error) {
	return FormatJSON(value, f.Indent)
}

// FormatJSON encodes value as JSON indented by indent spaces per level, or
// compactly when indent <= 0. Object keys keep document order and HTML
// characters are not escaped.
func FormatJSON(value interface{}, indent int) (string, error) {
	raw, err := models.MarshalNoEscape(value)
	if err != nil {
		return "", fmt.Errorf("failed to encode JSON: %w", err)
	}
	if indent <= 0 {
		return string(raw), nil
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", strings.Repeat(" ", indent)); err != nil {
		return "", fmt.Errorf("failed to indent JSON: %w", err)
	}
	return buf.String(), nil
}
