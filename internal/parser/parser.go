package parser

import (
	"encoding/json"
	stderrors "errors" // Standard errors package
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mcncl/j2j/internal/errors" // Custom errors package
	"github.com/mcncl/j2j/internal/models"
)

// DefaultMaxDepth bounds container nesting while decoding. It matches the
// limit encoding/json applies to its own decoder.
const DefaultMaxDepth = 10000

// Parser decodes JSON text into models values, keeping object key order.
type Parser struct {
	MaxDepth int
}

// New returns a Parser with the default depth limit.
func New() *Parser {
	return &Parser{MaxDepth: DefaultMaxDepth}
}

// Parse converts JSON data from an io.Reader into a Document
func Parse(reader io.Reader) (models.Document, error) {
	return New().Parse(reader)
}

// ParseString parses JSON from a string
func ParseString(jsonString string) (models.Document, error) {
	return New().ParseString(jsonString)
}

// ParseFile parses JSON from a file path
func ParseFile(filePath string) (models.Document, error) {
	return New().ParseFile(filePath)
}

// Parse converts JSON data from an io.Reader into a Document.
func (p *Parser) Parse(reader io.Reader) (models.Document, error) {
	decoder := json.NewDecoder(reader)
	decoder.UseNumber() // Ensure numbers are read as json.Number

	tok, err := decoder.Token()
	if err != nil {
		if stderrors.Is(err, io.EOF) {
			return models.Document{}, errors.NewParsingError("input is empty or contains only whitespace", errors.ErrEmptyInput)
		}
		return models.Document{}, wrapDecodeError(err)
	}

	root, err := p.decodeToken(decoder, tok, 0)
	if err != nil {
		return models.Document{}, wrapDecodeError(err)
	}

	// Only whitespace may follow the root value.
	if _, err := decoder.Token(); err == nil {
		return models.Document{}, errors.NewParsingError("multiple JSON values found at the root", errors.ErrMultipleJSON)
	} else if !stderrors.Is(err, io.EOF) {
		return models.Document{}, errors.NewParsingError("invalid trailing data after first JSON value", err)
	}

	_, isArray := root.(models.JSONArray)
	return models.Document{Root: root, RootIsArray: isArray}, nil
}

// ParseString parses JSON from a string.
func (p *Parser) ParseString(jsonString string) (models.Document, error) {
	if strings.TrimSpace(jsonString) == "" {
		return models.Document{}, errors.NewInputError("input string is empty or consists only of whitespace", errors.ErrEmptyInput)
	}
	return p.Parse(strings.NewReader(jsonString))
}

// ParseFile parses JSON from a file path.
func (p *Parser) ParseFile(filePath string) (models.Document, error) {
	if strings.TrimSpace(filePath) == "" {
		return models.Document{}, errors.NewInputError("file path is empty", errors.ErrInvalidFilePath)
	}
	file, err := os.Open(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return models.Document{}, errors.NewInputError(
				fmt.Sprintf("file '%s' not found", filePath),
				errors.ErrFileNotFound,
			)
		}
		return models.Document{}, errors.NewInputError(
			fmt.Sprintf("failed to open file '%s'", filePath),
			err,
		)
	}
	defer func() {
		if err := file.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Error closing file: %v\n", err)
		}
	}()

	stat, err := file.Stat()
	if err != nil {
		return models.Document{}, errors.NewInputError(
			fmt.Sprintf("failed to get file stats for '%s'", filePath),
			err,
		)
	}
	if stat.Size() == 0 {
		return models.Document{}, errors.NewInputError(
			fmt.Sprintf("input file '%s' is empty", filePath),
			errors.ErrFileEmpty,
		)
	}

	return p.Parse(file)
}

func (p *Parser) decodeValue(dec *json.Decoder, depth int) (models.JSONValue, error) {
	tok, err := dec.Token()
	if err != nil {
		if stderrors.Is(err, io.EOF) {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return p.decodeToken(dec, tok, depth)
}

// decodeToken builds the value that starts with tok. Primitives come back
// from the decoder as string, json.Number, bool or nil and are kept as is.
func (p *Parser) decodeToken(dec *json.Decoder, tok json.Token, depth int) (models.JSONValue, error) {
	delim, ok := tok.(json.Delim)
	if !ok {
		return tok, nil
	}
	if p.MaxDepth > 0 && depth >= p.MaxDepth {
		return nil, fmt.Errorf("nesting exceeds %d levels: %w", p.MaxDepth, errors.ErrTooDeep)
	}

	switch delim {
	case '{':
		obj := models.NewJSONObject()
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return nil, err
			}
			key, ok := keyTok.(string)
			if !ok {
				return nil, fmt.Errorf("object key must be a string, got %v", keyTok)
			}
			val, err := p.decodeValue(dec, depth+1)
			if err != nil {
				return nil, err
			}
			obj.Set(key, val)
		}
		if err := expectClose(dec); err != nil {
			return nil, err
		}
		return obj, nil
	case '[':
		arr := models.JSONArray{}
		for dec.More() {
			val, err := p.decodeValue(dec, depth+1)
			if err != nil {
				return nil, err
			}
			arr = append(arr, val)
		}
		if err := expectClose(dec); err != nil {
			return nil, err
		}
		return arr, nil
	default:
		return nil, fmt.Errorf("unexpected delimiter %q", rune(delim))
	}
}

func expectClose(dec *json.Decoder) error {
	if _, err := dec.Token(); err != nil {
		if stderrors.Is(err, io.EOF) {
			return io.ErrUnexpectedEOF
		}
		return err
	}
	return nil
}

// wrapDecodeError turns decoder failures into parsing AppErrors whose
// message is the decoder's own description.
func wrapDecodeError(err error) error {
	var syntaxError *json.SyntaxError
	switch {
	case stderrors.Is(err, errors.ErrTooDeep):
		return errors.NewParsingError(err.Error(), errors.ErrTooDeep)
	case stderrors.As(err, &syntaxError):
		return errors.NewParsingError(syntaxError.Error(), errors.ErrInvalidJSON)
	case stderrors.Is(err, io.ErrUnexpectedEOF):
		return errors.NewParsingError("unexpected end of JSON input", errors.ErrInvalidJSON)
	default:
		return errors.NewParsingError(err.Error(), errors.ErrInvalidJSON)
	}
}
