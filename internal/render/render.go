// Package render turns a template plus a parsed JSON document into a
// RenderResult. It shapes the document for gonja, rewrites bracket-leading
// and output expressions, and maps gonja failures onto the user-facing
// error taxonomy.
package render

import (
	stderrors "errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mcncl/j2j/internal/formatter"
	"github.com/mcncl/j2j/internal/logging"
	"github.com/mcncl/j2j/internal/models"
	"github.com/nikolalohinski/gonja/v2/builtins"
	"github.com/nikolalohinski/gonja/v2/config"
	"github.com/nikolalohinski/gonja/v2/exec"
	"github.com/nikolalohinski/gonja/v2/loaders"
)

// Messages produced by Render.
const (
	MsgEmptyTemplate     = "Template is empty"
	MsgUndefinedVariable = "Template references an undefined variable"
)

// templateName is the name every rendered template is compiled under.
const templateName = "template"

const undefinedMarker = "attempted to output null or undefined"

// undefinedMarkers identify a missing value in gonja's runtime errors and
// in the output filter's own failure.
var undefinedMarkers = []string{
	undefinedMarker,
	"Unable to evaluate name",
	"is undefined",
	"undefined variable",
	"has no attribute",
}

var undefinedNamePatterns = []*regexp.Regexp{
	regexp.MustCompile(`variable "((?:[^"\\]|\\.)*)"`),
	regexp.MustCompile(`name "((?:[^"\\]|\\.)*)"`),
	regexp.MustCompile(`'([^']+)' is undefined`),
}

// Options configures a Renderer.
type Options struct {
	// JSONIndent is the json filter's default indent. Zero gives compact
	// output.
	JSONIndent int
	// Lenient renders null and undefined output as empty strings instead of
	// failing. Off by default.
	Lenient bool
	// Logger receives a debug line per render. Nil discards.
	Logger *log.Logger
}

// Renderer renders templates against JSON documents. It is safe for
// concurrent use; the gonja environment is built once in New.
type Renderer struct {
	config *config.Config
	env    *exec.Environment
	logger *log.Logger
}

// New creates a Renderer over gonja's builtins plus the json and
// case-conversion filters.
func New(opts Options) *Renderer {
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}

	cfg := &config.Config{
		BlockStartString:    "{%",
		BlockEndString:      "%}",
		VariableStartString: "{{",
		VariableEndString:   "}}",
		CommentStartString:  "{#",
		CommentEndString:    "#}",
		AutoEscape:          false,
		StrictUndefined:     !opts.Lenient,
	}

	// Start from an empty set so registering our filters never touches the
	// shared builtins.
	filters := exec.NewFilterSet(map[string]exec.FilterFunction{}).
		Update(builtins.Filters).
		Update(exec.NewFilterSet(customFilters(opts.JSONIndent, opts.Lenient)))

	env := &exec.Environment{
		Filters:           filters,
		Tests:             builtins.Tests,
		ControlStructures: builtins.ControlStructures,
		Methods:           builtins.Methods,
		Context:           builtins.GlobalFunctions,
	}

	return &Renderer{config: cfg, env: env, logger: opts.Logger}
}

var defaultRenderer = New(Options{JSONIndent: formatter.DefaultIndent})

// RenderTemplate renders template against data with the default Renderer.
func RenderTemplate(template string, data models.JSONValue) models.RenderResult {
	return defaultRenderer.Render(template, data)
}

// Render renders template against data. Failures are returned as data in
// the result, never as a Go error.
func (r *Renderer) Render(template string, data models.JSONValue) models.RenderResult {
	start := time.Now()
	result := r.render(template, data)
	if result.Success {
		r.logger.Debug("rendered template", "bytes", len(result.Output), "duration", time.Since(start))
	} else {
		r.logger.Debug("render failed", "kind", result.Kind, "error", result.Error, "duration", time.Since(start))
	}
	return result
}

func (r *Renderer) render(template string, data models.JSONValue) (result models.RenderResult) {
	if strings.TrimSpace(template) == "" {
		return failure(models.KindEmptyTemplate, MsgEmptyTemplate)
	}

	defer func() {
		if p := recover(); p != nil {
			result = failure(models.KindOther, fmt.Sprint(p))
		}
	}()

	source := WrapOutputs(TransformBracketExpressions(template))
	tpl, err := exec.NewTemplate(templateName, r.config, sourceLoader(source), r.env)
	if err != nil {
		kind, msg := Classify(&CompileError{Err: err})
		return failure(kind, msg)
	}

	s := &shaper{record: true}
	defer s.release()
	vars := BindContext(s.wrap(data))

	out, err := tpl.ExecuteToString(exec.NewContext(vars))
	if err != nil {
		kind, msg := Classify(err)
		return failure(kind, msg)
	}
	return models.RenderResult{Success: true, Output: out}
}

func failure(kind models.RenderErrorKind, msg string) models.RenderResult {
	return models.RenderResult{Success: false, Error: msg, Kind: kind}
}

// CompileError marks a failure raised while parsing a template, before any
// data was evaluated.
type CompileError struct {
	Err error
}

func (e *CompileError) Error() string { return e.Err.Error() }

func (e *CompileError) Unwrap() error { return e.Err }

// Classify maps a gonja failure to an error kind and user-facing message.
// Parse failures are syntax errors unless they name an unknown filter;
// runtime failures that mention a missing value are undefined references.
// Everything else passes through as KindOther.
func Classify(err error) (models.RenderErrorKind, string) {
	msg := err.Error()

	var compileErr *CompileError
	if stderrors.As(err, &compileErr) {
		if isUnknownFilter(msg) {
			return models.KindOther, msg
		}
		return models.KindSyntaxError, "Template syntax error: " + msg
	}

	for _, marker := range undefinedMarkers {
		if strings.Contains(msg, marker) {
			return models.KindUndefinedReference, undefinedMessage(msg)
		}
	}
	return models.KindOther, msg
}

func isUnknownFilter(msg string) bool {
	lower := strings.ToLower(msg)
	if !strings.Contains(lower, "filter") {
		return false
	}
	return strings.Contains(lower, "not found") ||
		strings.Contains(lower, "does not exist") ||
		strings.Contains(lower, "unknown")
}

func undefinedMessage(msg string) string {
	for _, re := range undefinedNamePatterns {
		m := re.FindStringSubmatch(msg)
		if m == nil {
			continue
		}
		name, err := strconv.Unquote(`"` + m[1] + `"`)
		if err != nil {
			name = m[1]
		}
		return `Undefined variable: "` + name + `" is not defined in the JSON data`
	}
	return MsgUndefinedVariable
}

// sourceLoader serves the single template being rendered. Includes and
// extends have nothing else to load.
type sourceLoader string

func (l sourceLoader) Read(name string) (io.Reader, error) {
	if name != templateName {
		return nil, fmt.Errorf("template %q not found: includes are not supported", name)
	}
	return strings.NewReader(string(l)), nil
}

func (l sourceLoader) Resolve(name string) (string, error) {
	return name, nil
}

func (l sourceLoader) Inherit(string) (loaders.Loader, error) {
	return l, nil
}
