package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"
	"github.com/mcncl/j2j/internal/cli"
	"github.com/mcncl/j2j/internal/config"
	"github.com/mcncl/j2j/internal/errors"
	"github.com/mcncl/j2j/internal/formatter"
	"github.com/mcncl/j2j/internal/logging"
	"github.com/mcncl/j2j/internal/models"
	"github.com/mcncl/j2j/internal/parser"
	"github.com/mcncl/j2j/internal/render"
	"github.com/mcncl/j2j/internal/server"
	"github.com/mcncl/j2j/internal/store"
	"github.com/mcncl/j2j/internal/tree"
)

// Version information
const (
	Version = "0.1.0"
)

// CLI defines the command-line interface
type CLI struct {
	Config   string           `help:"Path to a config file. Defaults to the nearest .j2j.yml." short:"c" type:"path"`
	Verbose  bool             `help:"Enable debug logging." short:"v"`
	MaxDepth int              `help:"Maximum document nesting depth." name:"max-depth"`
	Version  kong.VersionFlag `help:"Show version information." short:"V"`

	Tree   TreeCmd   `cmd:"" help:"Print the expression tree of a JSON document." default:"withargs"`
	Paths  PathsCmd  `cmd:"" help:"List every path in a JSON document with its expression."`
	Render RenderCmd `cmd:"" help:"Render a template against a JSON document."`
	Expr   ExprCmd   `cmd:"" help:"Convert a tree path into a template expression."`
	Serve  ServeCmd  `cmd:"" help:"Run the HTTP service."`
}

// Context holds the runtime context shared by every command.
type Context struct {
	Config *config.Config
	Logger *log.Logger
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

func (c *Context) newParser() *parser.Parser {
	p := parser.New()
	p.MaxDepth = c.Config.Tree.MaxDepth
	return p
}

func (c *Context) jsonFormatter() *formatter.Formatter {
	return &formatter.Formatter{Indent: c.Config.Render.JSONIndent}
}

func (c *Context) readDocument(path string) (models.Document, error) {
	return cli.ReadDocument(c.newParser(), cli.Input{Path: path, Stdin: c.Stdin, Prompt: c.Stderr})
}

func (c *Context) buildTree(path string) (*models.TreeNode, error) {
	doc, err := c.readDocument(path)
	if err != nil {
		return nil, err
	}
	return c.treeOf(doc)
}

func (c *Context) treeOf(doc models.Document) (*models.TreeNode, error) {
	progress := logging.NewProgress(c.Logger)
	root, err := (&tree.Builder{MaxDepth: c.Config.Tree.MaxDepth}).Build(doc.Root)
	if err != nil {
		return nil, err
	}
	progress.Done("Built tree")
	return root, nil
}

// TreeCmd prints the expression tree.
type TreeCmd struct {
	Input string `help:"Path to input JSON file. If not specified, reads from stdin." short:"i" type:"path"`
	JSON  bool   `help:"Print the tree as JSON instead of a styled listing." name:"json"`
}

func (cmd *TreeCmd) Run(ctx *Context) error {
	root, err := ctx.buildTree(cmd.Input)
	if err != nil {
		return err
	}
	if cmd.JSON {
		out, err := ctx.jsonFormatter().Format(root)
		if err != nil {
			return errors.NewOutputError("failed to encode tree", err)
		}
		_, err = fmt.Fprintln(ctx.Stdout, out)
		return err
	}
	return cli.NewUI(ctx.Stdout).Tree(root)
}

// PathsCmd lists every path with its expression.
type PathsCmd struct {
	Input string `help:"Path to input JSON file. If not specified, reads from stdin." short:"i" type:"path"`
}

func (cmd *PathsCmd) Run(ctx *Context) error {
	root, err := ctx.buildTree(cmd.Input)
	if err != nil {
		return err
	}
	return cli.NewUI(ctx.Stdout).Paths(root)
}

// RenderCmd renders a template against a document.
type RenderCmd struct {
	Template     string `help:"Template text to render." short:"t" xor:"template" required:""`
	TemplateFile string `help:"Read the template from a file." short:"f" type:"existingfile" xor:"template" required:""`
	Input        string `help:"Path to input JSON file. If not specified, reads from stdin." short:"i" type:"path"`
	JSON         bool   `help:"Print the render result as JSON." name:"json"`
	Lenient      bool   `help:"Render undefined values as empty text instead of failing."`
	Indent       int    `help:"Default indent for the json filter; 0 is compact. Negative keeps the configured value." default:"-1"`
}

func (cmd *RenderCmd) Run(ctx *Context) error {
	template := cmd.Template
	if cmd.TemplateFile != "" {
		data, err := os.ReadFile(cmd.TemplateFile)
		if err != nil {
			return errors.NewInputError(fmt.Sprintf("failed to read template file '%s'", cmd.TemplateFile), err)
		}
		template = string(data)
	}

	doc, err := ctx.readDocument(cmd.Input)
	if err != nil {
		return err
	}

	if cmd.Indent >= 0 {
		if err := ctx.Config.Apply(config.Overrides{JSONIndent: &cmd.Indent}); err != nil {
			return err
		}
	}
	renderer := render.New(render.Options{
		JSONIndent: ctx.Config.Render.JSONIndent,
		Lenient:    cmd.Lenient || !ctx.Config.Render.StrictUndefined,
		Logger:     ctx.Logger,
	})
	result := renderer.Render(template, doc.Root)

	if cmd.JSON {
		raw, err := models.MarshalNoEscape(result)
		if err != nil {
			return errors.NewOutputError("failed to encode render result", err)
		}
		if _, err := fmt.Fprintln(ctx.Stdout, string(raw)); err != nil {
			return err
		}
	} else if result.Success {
		if _, err := fmt.Fprintln(ctx.Stdout, result.Output); err != nil {
			return err
		}
	}

	if !result.Success {
		return errors.NewRenderError(result.Error, nil)
	}
	return nil
}

// ExprCmd converts a path into a template expression, optionally
// resolving it against a document.
type ExprCmd struct {
	Path    string `arg:"" help:"Tree path, e.g. items[0].name."`
	Resolve bool   `help:"Also print the node type and the value the path selects." short:"r"`
	Input   string `help:"Path to input JSON file used with --resolve. If not specified, reads from stdin." short:"i" type:"path"`
}

func (cmd *ExprCmd) Run(ctx *Context) error {
	path, err := tree.CanonicalPath(cmd.Path)
	if err != nil {
		return errors.NewInputError(err.Error(), errors.ErrInvalidPath)
	}
	if _, err := fmt.Fprintln(ctx.Stdout, formatter.PathToExpression(path)); err != nil {
		return err
	}
	if !cmd.Resolve {
		return nil
	}

	doc, err := ctx.readDocument(cmd.Input)
	if err != nil {
		return err
	}
	root, err := ctx.treeOf(doc)
	if err != nil {
		return err
	}
	node := tree.Find(root, path)
	if node == nil {
		return errors.NewInputError(fmt.Sprintf("path %q does not exist in the document", cmd.Path), errors.ErrInvalidPath)
	}
	value, _ := tree.Lookup(doc.Root, path)
	out, err := ctx.jsonFormatter().Format(value)
	if err != nil {
		return errors.NewOutputError("failed to encode value", err)
	}
	_, err = fmt.Fprintf(ctx.Stdout, "type: %s\n%s\n", node.Type, out)
	return err
}

// ServeCmd runs the HTTP service until interrupted.
type ServeCmd struct {
	Addr string `help:"Listen address, e.g. :8080." short:"a"`
}

func (cmd *ServeCmd) Run(ctx *Context) error {
	if err := ctx.Config.Apply(config.Overrides{Addr: cmd.Addr}); err != nil {
		return err
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	sigCtx = logging.WithLogger(sigCtx, ctx.Logger)

	st, err := store.Open(sigCtx, ctx.Config.Store)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.Close(); err != nil {
			ctx.Logger.Warn("closing store", "err", err)
		}
	}()

	srv := server.New(server.Options{Config: ctx.Config, Store: st, Logger: ctx.Logger})
	return srv.ListenAndServe(sigCtx)
}

func main() {
	var cliArgs CLI
	app := kong.Must(&cliArgs,
		kong.Name("j2j"),
		kong.Description("Build expression trees from JSON and render templates against it"),
		kong.UsageOnError(),
		kong.Vars{"version": Version},
	)

	kctx, err := app.Parse(os.Args[1:])
	app.FatalIfErrorf(err)

	ctx, err := newContext(&cliArgs, os.Stdin, os.Stdout, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", errors.UserFriendlyError(err))
		os.Exit(1)
	}

	if err := kctx.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", errors.UserFriendlyError(err))
		fmt.Fprintf(os.Stderr, "\nFor help, run: j2j --help\n")
		os.Exit(1)
	}
}

// newContext loads configuration, applies global flags and builds the
// logger.
func newContext(args *CLI, stdin io.Reader, stdout, stderr io.Writer) (*Context, error) {
	cfg, err := config.Load(args.Config)
	if err != nil {
		return nil, err
	}

	overrides := config.Overrides{MaxDepth: args.MaxDepth}
	if args.Verbose {
		overrides.LogLevel = "debug"
	}
	if err := cfg.Apply(overrides); err != nil {
		return nil, err
	}

	return &Context{
		Config: cfg,
		Logger: logging.New(stderr, logging.ParseLevel(cfg.Log.Level)),
		Stdin:  stdin,
		Stdout: stdout,
		Stderr: stderr,
	}, nil
}
