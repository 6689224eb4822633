package render

import (
	"regexp"
	"strings"
)

// DataKey is the context name bound to the whole shaped document, so that
// templates can open with a bracket: {{ ["first-name"] }} or {{ [0] }}.
const DataKey = "data"

// bracketPatterns match an expression or statement opener directly
// followed by "[". Each rewrite inserts DataKey before the bracket.
var bracketPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(\{\{-?\s*)\[`),
	regexp.MustCompile(`(\{%-?\s*for\s+[A-Za-z_]\w*(?:\s*,\s*[A-Za-z_]\w*)?\s+in\s+)\[`),
	regexp.MustCompile(`(\{%-?\s*if\s+)\[`),
}

// TransformBracketExpressions routes bracket-leading expressions through
// the data alias:
//
//	{{ [0] }}                  -> {{ data[0] }}
//	{% for x in ["items"] %}   -> {% for x in data["items"] %}
//	{% if ["ok"] %}            -> {% if data["ok"] %}
//
// Brackets after an identifier (items[0]) are left alone. The rewrite is
// purely textual, so a list literal in one of these positions is rewritten
// too.
func TransformBracketExpressions(template string) string {
	for _, re := range bracketPatterns {
		template = re.ReplaceAllString(template, "${1}"+DataKey+"[")
	}
	return template
}

var endRawPattern = regexp.MustCompile(`\{%[-+]?\s*endraw\s*[-+]?%\}`)

// WrapOutputs pipes every {{ }} expression through the output filter,
// passing the expression text so a failure can name it:
//
//	{{ user.name }}   -> {{ (user.name) | j2j_output("user.name") }}
//	{{- items -}}     -> {{- (items) | j2j_output("items") -}}
//
// Comments, statements and {% raw %} blocks are copied unchanged. An
// unterminated or empty expression is left for the parser to report.
func WrapOutputs(template string) string {
	var b strings.Builder
	b.Grow(len(template))

	i := 0
	for i < len(template) {
		open := strings.Index(template[i:], "{")
		if open < 0 || i+open+1 >= len(template) {
			b.WriteString(template[i:])
			break
		}
		open += i
		b.WriteString(template[i:open])

		switch template[open+1] {
		case '#':
			end := strings.Index(template[open+2:], "#}")
			if end < 0 {
				b.WriteString(template[open:])
				return b.String()
			}
			end += open + 4
			b.WriteString(template[open:end])
			i = end
		case '%':
			end := closeDelim(template, open+2, "%}")
			if end < 0 {
				b.WriteString(template[open:])
				return b.String()
			}
			b.WriteString(template[open:end])
			i = end
			if isRawTag(template[open+2 : end-2]) {
				loc := endRawPattern.FindStringIndex(template[i:])
				if loc == nil {
					b.WriteString(template[i:])
					return b.String()
				}
				b.WriteString(template[i : i+loc[1]])
				i += loc[1]
			}
		case '{':
			end := closeDelim(template, open+2, "}}")
			if end < 0 {
				b.WriteString(template[open:])
				return b.String()
			}
			b.WriteString(wrapExpression(template[open+2 : end-2]))
			i = end
		default:
			b.WriteByte('{')
			i = open + 1
		}
	}
	return b.String()
}

// closeDelim returns the offset just past the first delim at or after
// start that is not inside a string literal, or -1.
func closeDelim(s string, start int, delim string) int {
	var quote byte
	for i := start; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case strings.HasPrefix(s[i:], delim):
			return i + len(delim)
		}
	}
	return -1
}

func isRawTag(inner string) bool {
	return strings.TrimSpace(strings.Trim(inner, "-+")) == "raw"
}

func wrapExpression(inner string) string {
	left, right := "", ""
	if strings.HasPrefix(inner, "-") {
		left, inner = "-", inner[1:]
	}
	if strings.HasSuffix(inner, "-") {
		right, inner = "-", inner[:len(inner)-1]
	}
	expr := strings.TrimSpace(inner)
	if expr == "" {
		return "{{" + left + inner + right + "}}"
	}
	return "{{" + left + " (" + expr + ") | " + outputFilterName + "(" + quoteLiteral(expr) + ") " + right + "}}"
}

// quoteLiteral writes s as a double-quoted template string literal.
func quoteLiteral(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", " ", "\r", " ", "\t", " ")
	return `"` + r.Replace(s) + `"`
}
