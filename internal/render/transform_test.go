package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransformBracketExpressions(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"expression", `{{ ["a-b"] }}`, `{{ data["a-b"] }}`},
		{"no space", `{{[0]}}`, `{{data[0]}}`},
		{"trim marker", `{{- [0] -}}`, `{{- data[0] -}}`},
		{"for", `{% for x in ["items"] %}{% endfor %}`, `{% for x in data["items"] %}{% endfor %}`},
		{"for key value", `{% for k, v in ["obj"] %}{% endfor %}`, `{% for k, v in data["obj"] %}{% endfor %}`},
		{"if", `{% if ["ok"] %}y{% endif %}`, `{% if data["ok"] %}y{% endif %}`},
		{"trimmed if", `{%- if [0] %}{% endif %}`, `{%- if data[0] %}{% endif %}`},
		{"several", `{{ [0] }} and {{ [1] }}`, `{{ data[0] }} and {{ data[1] }}`},
		{"identifier index untouched", `{{ items[0] }}`, `{{ items[0] }}`},
		{"nested bracket untouched", `{{ user["a"][0] }}`, `{{ user["a"][0] }}`},
		{"elif untouched", `{% elif [0] %}`, `{% elif [0] %}`},
		{"set untouched", `{% set x = [1] %}`, `{% set x = [1] %}`},
		{"plain text untouched", `a [0] b`, `a [0] b`},
		// Textual rewrite: a leading list literal is routed through data too.
		{"list literal", `{% for x in [1, 2] %}`, `{% for x in data[1, 2] %}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, TransformBracketExpressions(tt.input))
		})
	}
}

func TestWrapOutputs(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"expression", `{{ name }}`, `{{ (name) | j2j_output("name") }}`},
		{"no space", `{{x}}`, `{{ (x) | j2j_output("x") }}`},
		{"trim markers", `a {{- x -}} b`, `a {{- (x) | j2j_output("x") -}} b`},
		{"negative literal", `{{ -1 }}`, `{{ (-1) | j2j_output("-1") }}`},
		{"filters kept inside", `{{ x | upper }}`, `{{ (x | upper) | j2j_output("x | upper") }}`},
		{"quoted name escaped", `{{ user["a b"] }}`, `{{ (user["a b"]) | j2j_output("user[\"a b\"]") }}`},
		{"string holding delimiter", `{{ "}}" }}`, `{{ ("}}") | j2j_output("\"}}\"") }}`},
		{"statements untouched", `{% for x in xs %}{{ x }}{% endfor %}`, `{% for x in xs %}{{ (x) | j2j_output("x") }}{% endfor %}`},
		{"comment untouched", `{# {{ x }} #}`, `{# {{ x }} #}`},
		{"raw untouched", `{% raw %}{{ x }}{% endraw %}{{ y }}`, `{% raw %}{{ x }}{% endraw %}{{ (y) | j2j_output("y") }}`},
		{"empty expression left alone", `{{ }}`, `{{ }}`},
		{"unterminated left alone", `a {{ name`, `a {{ name`},
		{"lone brace", `{ "a": {{ n }} }`, `{ "a": {{ (n) | j2j_output("n") }} }`},
		{"plain text", `hello`, `hello`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, WrapOutputs(tt.input))
		})
	}
}
