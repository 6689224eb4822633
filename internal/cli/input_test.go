package cli

import (
	"bytes"
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mcncl/j2j/internal/errors"
	"github.com/mcncl/j2j/internal/models"
	"github.com/mcncl/j2j/internal/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadDocument(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "doc.json")
	require.NoError(t, os.WriteFile(file, []byte(`{"from": "file"}`), 0o644))

	tests := []struct {
		name    string
		in      Input
		want    string
		wantErr error
	}{
		{name: "file", in: Input{Path: file, Stdin: strings.NewReader(`{"from": "stdin"}`)}, want: "file"},
		{name: "stdin", in: Input{Stdin: strings.NewReader(`{"from": "stdin"}`)}, want: "stdin"},
		{name: "missing file", in: Input{Path: filepath.Join(dir, "nope.json")}, wantErr: errors.ErrFileNotFound},
		{name: "empty stdin", in: Input{Stdin: strings.NewReader("")}, wantErr: errors.ErrEmptyInput},
		{name: "whitespace stdin", in: Input{Stdin: strings.NewReader("  \n")}, wantErr: errors.ErrEmptyInput},
		{name: "no stdin", in: Input{}, wantErr: errors.ErrNoInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := ReadDocument(parser.New(), tt.in)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, stderrors.Is(err, tt.wantErr), "got %v", err)
				return
			}
			require.NoError(t, err)
			obj, ok := doc.Root.(*models.JSONObject)
			require.True(t, ok)
			v, _ := obj.Get("from")
			assert.Equal(t, tt.want, v)
		})
	}
}

func TestReadDocument_NoPromptWhenPiped(t *testing.T) {
	var prompt bytes.Buffer
	_, err := ReadDocument(parser.New(), Input{Stdin: strings.NewReader(`[1]`), Prompt: &prompt})
	require.NoError(t, err)
	assert.Empty(t, prompt.String())
}

func TestReadDocument_InvalidJSON(t *testing.T) {
	_, err := ReadDocument(parser.New(), Input{Stdin: strings.NewReader(`{"a": }`)})
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(errors.UserFriendlyError(err), "Invalid JSON: "))
}
