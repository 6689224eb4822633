package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/mcncl/j2j/internal/parser"
	"github.com/mcncl/j2j/internal/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUI_Tree(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:  "nested object",
			input: `{"name": "Alice", "tags": ["a", {"x": 1}], "ok": true, "n": null}`,
			expected: `root {4}
├── name: "Alice"  {{ name }}
├── tags [2]  {{ tags }}
│   ├── [0]: "a"  {{ tags[0] }}
│   └── [1] {1}  {{ tags[1] }}
│       └── x: 1  {{ tags[1].x }}
├── ok: true  {{ ok }}
└── n: null  {{ n }}
`,
		},
		{
			name:  "array root",
			input: `[1.50, "b"]`,
			expected: `root [2]
├── [0]: 1.50  {{ [0] }}
└── [1]: "b"  {{ [1] }}
`,
		},
		{
			name:  "quoted keys",
			input: `{"first name": "x"}`,
			expected: `root {1}
└── first name: "x"  {{ ["first name"] }}
`,
		},
		{
			name:     "empty object",
			input:    `{}`,
			expected: "root {0}\n",
		},
		{
			name:     "primitive root",
			input:    `42`,
			expected: "root: 42\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := parser.ParseString(tt.input)
			require.NoError(t, err)
			root, err := tree.NewBuilder().Build(doc.Root)
			require.NoError(t, err)

			var buf bytes.Buffer
			require.NoError(t, NewUI(&buf).Tree(root))
			assert.Equal(t, tt.expected, buf.String())
		})
	}
}

func TestUI_TreeTruncatesLongStrings(t *testing.T) {
	doc, err := parser.ParseString(`{"s": "` + strings.Repeat("x", 100) + `"}`)
	require.NoError(t, err)
	root, err := tree.NewBuilder().Build(doc.Root)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, NewUI(&buf).Tree(root))
	assert.Contains(t, buf.String(), strings.Repeat("x", maxValueWidth-1)+"…\"")
	assert.NotContains(t, buf.String(), strings.Repeat("x", maxValueWidth))
}

func TestUI_Paths(t *testing.T) {
	doc, err := parser.ParseString(`{"user": {"id": 1}, "items": [true], "a-b": 0}`)
	require.NoError(t, err)
	root, err := tree.NewBuilder().Build(doc.Root)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, NewUI(&buf).Paths(root))
	assert.Equal(t, "user\t{{ user }}\n"+
		"user.id\t{{ user.id }}\n"+
		"items\t{{ items }}\n"+
		"items[0]\t{{ items[0] }}\n"+
		"[\"a-b\"]\t{{ [\"a-b\"] }}\n", buf.String())
}

func TestUI_Status(t *testing.T) {
	var buf bytes.Buffer
	ui := NewUI(&buf)
	ui.Success("rendered %d bytes", 5)
	ui.Error("failed")
	ui.Detail("kind: %s", "other")

	assert.Equal(t, "✓ rendered 5 bytes\n✗ failed\n  kind: other\n", buf.String())
}
