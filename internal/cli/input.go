package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/mcncl/j2j/internal/errors"
	"github.com/mcncl/j2j/internal/models"
	"github.com/mcncl/j2j/internal/parser"
)

// Input describes where a command reads its JSON document from.
type Input struct {
	Path   string
	Stdin  io.Reader
	Prompt io.Writer
}

// ReadDocument parses the document from Path, or from Stdin when Path is
// empty. A terminal stdin gets an interactive prompt and is read until EOF.
func ReadDocument(p *parser.Parser, in Input) (models.Document, error) {
	if in.Path != "" {
		return p.ParseFile(in.Path)
	}
	if in.Stdin == nil {
		return models.Document{}, errors.NewInputError("no input provided", errors.ErrNoInput)
	}

	interactive := isTerminal(in.Stdin)
	if interactive && in.Prompt != nil {
		fmt.Fprintln(in.Prompt, "j2j interactive mode")
		fmt.Fprintln(in.Prompt, "Paste your JSON below and press Ctrl+D (or Ctrl+Z on Windows) when done:")
	}

	data, err := io.ReadAll(in.Stdin)
	if err != nil {
		return models.Document{}, errors.NewInputError("failed to read from stdin", err)
	}
	if len(data) == 0 {
		return models.Document{}, errors.NewInputError("empty input received from stdin", errors.ErrEmptyInput)
	}

	if interactive && in.Prompt != nil {
		fmt.Fprintln(in.Prompt, "\nProcessing JSON...")
	}
	return p.ParseString(string(data))
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
