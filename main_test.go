package main

import (
	"bytes"
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/mcncl/j2j/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleJSON = `{"name": "Alice", "items": [{"name": "pen", "price": 1.50}], "meta": {"ok": true}}`

// runCLI parses args like main does and runs the selected command against
// stdin, returning what it wrote to stdout.
func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	var cliArgs CLI
	app, err := kong.New(&cliArgs,
		kong.Name("j2j"),
		kong.Vars{"version": Version},
		kong.Exit(func(int) {}),
	)
	require.NoError(t, err)

	kctx, err := app.Parse(args)
	if err != nil {
		return "", err
	}

	var stdout, stderr bytes.Buffer
	ctx, err := newContext(&cliArgs, strings.NewReader(stdin), &stdout, &stderr)
	if err != nil {
		return "", err
	}
	err = kctx.Run(ctx)
	return stdout.String(), err
}

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestTreeCommand(t *testing.T) {
	out, err := runCLI(t, sampleJSON, "tree")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "root {3}\n"))
	assert.Contains(t, out, `├── name: "Alice"  {{ name }}`)
	assert.Contains(t, out, `│   └── [0] {2}  {{ items[0] }}`)
	assert.Contains(t, out, `│       ├── name: "pen"  {{ items[0].name }}`)
	assert.Contains(t, out, `│       └── price: 1.50  {{ items[0].price }}`)
	assert.Contains(t, out, `    └── ok: true  {{ meta.ok }}`)
}

func TestTreeCommand_DefaultWithFile(t *testing.T) {
	file := writeTemp(t, "doc.json", `{"a": 1}`)

	out, err := runCLI(t, "", "-i", file)
	require.NoError(t, err)
	assert.Equal(t, "root {1}\n└── a: 1  {{ a }}\n", out)
}

func TestTreeCommand_JSON(t *testing.T) {
	out, err := runCLI(t, `{"a": [null]}`, "tree", "--json")
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"key": "root", "type": "object", "path": "",
		"children": [
			{"key": "a", "type": "array", "path": "a", "children": [
				{"key": "0", "type": "null", "path": "a[0]", "value": null}
			]}
		]
	}`, out)
}

func TestTreeCommand_Errors(t *testing.T) {
	tests := []struct {
		name     string
		stdin    string
		args     []string
		contains string
	}{
		{"invalid json", `{"a": }`, []string{"tree"}, "Invalid JSON:"},
		{"empty stdin", "", []string{"tree"}, "empty input"},
		{"missing file", "", []string{"tree", "-i", "/nonexistent/doc.json"}, "not found"},
		{"too deep", `[[[[1]]]]`, []string{"--max-depth", "2", "tree"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runCLI(t, tt.stdin, tt.args...)
			require.Error(t, err)
			assert.Contains(t, errors.UserFriendlyError(err), tt.contains)
		})
	}
}

func TestPathsCommand(t *testing.T) {
	out, err := runCLI(t, `{"user": {"first name": "x"}, "tags": ["a"]}`, "paths")
	require.NoError(t, err)
	assert.Equal(t, "user\t{{ user }}\n"+
		"user[\"first name\"]\t{{ user[\"first name\"] }}\n"+
		"tags\t{{ tags }}\n"+
		"tags[0]\t{{ tags[0] }}\n", out)
}

func TestRenderCommand(t *testing.T) {
	templateFile := writeTemp(t, "greeting.j2", "{% for item in items %}{{ item.name | upper }}{% endfor %}")

	tests := []struct {
		name     string
		args     []string
		expected string
	}{
		{"inline template", []string{"render", "-t", "Hello {{ name }}!"}, "Hello Alice!\n"},
		{"template file", []string{"render", "-f", templateFile}, "PEN\n"},
		{"bracket root access", []string{"render", "-t", "{{ data.items[0].price }}"}, "1.5\n"},
		{"auto formatted object", []string{"render", "-t", "{{ meta }}"}, "{\n  \"ok\": true\n}\n"},
		{"json filter indent", []string{"render", "--indent", "4", "-t", "{{ meta | json }}"}, "{\n    \"ok\": true\n}\n"},
		{"json filter compact", []string{"render", "--indent", "0", "-t", "{{ meta | json }}"}, "{\"ok\":true}\n"},
		{"indent leaves auto format alone", []string{"render", "--indent", "4", "-t", "{{ meta }}"}, "{\n  \"ok\": true\n}\n"},
		{"lenient", []string{"render", "--lenient", "-t", "[{{ missing }}]"}, "[]\n"},
		{"json result", []string{"render", "--json", "-t", "{{ name }}"}, "{\"success\":true,\"output\":\"Alice\"}\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := runCLI(t, sampleJSON, tt.args...)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, out)
		})
	}
}

func TestRenderCommand_Failures(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected string
	}{
		{"undefined", []string{"render", "-t", "{{ missing }}"}, `Render error: Undefined variable: "missing" is not defined in the JSON data`},
		{"empty", []string{"render", "-t", " "}, "Render error: Template is empty"},
		{"syntax", []string{"render", "-t", "{% if name %}"}, "Render error: Template syntax error:"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := runCLI(t, sampleJSON, tt.args...)
			require.Error(t, err)
			assert.Empty(t, out)
			assert.True(t, strings.HasPrefix(errors.UserFriendlyError(err), tt.expected), errors.UserFriendlyError(err))
		})
	}
}

func TestRenderCommand_JSONFailure(t *testing.T) {
	out, err := runCLI(t, sampleJSON, "render", "--json", "-t", "{{ nope }}")
	require.Error(t, err)
	assert.JSONEq(t, `{
		"success": false,
		"kind": "undefined_reference",
		"error": "Undefined variable: \"nope\" is not defined in the JSON data"
	}`, out)
}

func TestRenderCommand_RequiresTemplate(t *testing.T) {
	_, err := runCLI(t, sampleJSON, "render")
	require.Error(t, err)
}

func TestExprCommand(t *testing.T) {
	out, err := runCLI(t, "", "expr", "items[0].name")
	require.NoError(t, err)
	assert.Equal(t, "{{ items[0].name }}\n", out)

	out, err = runCLI(t, sampleJSON, "expr", "--resolve", "items[0]")
	require.NoError(t, err)
	assert.Equal(t, "{{ items[0] }}\ntype: object\n{\n  \"name\": \"pen\",\n  \"price\": 1.50\n}\n", out)

	out, err = runCLI(t, sampleJSON, "expr", "-r", `["items"][0]["price"]`)
	require.NoError(t, err)
	assert.Equal(t, "{{ items[0].price }}\ntype: number\n1.50\n", out)
}

func TestExprCommand_Errors(t *testing.T) {
	_, err := runCLI(t, "", "expr", "items[")
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrInvalidPath))

	_, err = runCLI(t, sampleJSON, "expr", "--resolve", "items[5]")
	require.Error(t, err)
	assert.Contains(t, errors.UserFriendlyError(err), `path "items[5]" does not exist`)
}

func TestConfigFile(t *testing.T) {
	cfgPath := writeTemp(t, ".j2j.yml", "render:\n  json_indent: 3\n")

	out, err := runCLI(t, `{"a": [1]}`, "--config", cfgPath, "render", "-t", "{{ a | json }}")
	require.NoError(t, err)
	assert.Equal(t, "[\n   1\n]\n", out)
}

func TestConfigFile_Invalid(t *testing.T) {
	cfgPath := writeTemp(t, ".j2j.yml", "tree:\n  max_depth: 0\n")

	_, err := runCLI(t, sampleJSON, "--config", cfgPath, "tree")
	require.Error(t, err)
	assert.Contains(t, errors.UserFriendlyError(err), "Configuration error:")
}

func TestNewContext_Verbose(t *testing.T) {
	var stderr bytes.Buffer
	ctx, err := newContext(&CLI{Verbose: true}, strings.NewReader(""), &bytes.Buffer{}, &stderr)
	require.NoError(t, err)
	assert.Equal(t, "debug", ctx.Config.Log.Level)

	ctx.Logger.Debug("hello")
	assert.Contains(t, stderr.String(), "hello")
}
