package main

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	"github.com/mcncl/editrack/internal/config"
	"github.com/mcncl/editrack/internal/errors"
	"github.com/mcncl/editrack/internal/fetch"
	"github.com/mcncl/editrack/internal/formatter"
	"github.com/mcncl/editrack/internal/logging"
	"github.com/mcncl/editrack/internal/models"
	"github.com/mcncl/editrack/internal/parser"
	"github.com/mcncl/editrack/internal/report"
	"go.uber.org/zap"
)

// CLI defines the command-line interface
var CLI struct {
	Document    string        `arg:"" optional:"" name:"document-id" help:"Document ID to track (e.g. DOC-000185)."`
	DocID       string        `name:"doc-id" help:"Document ID to track. Same as the positional argument." short:"D"`
	Input       string        `help:"Path to a saved webhook response. No request is made when set." short:"i" type:"path"`
	Output      string        `help:"Path to output file. If not specified, writes to stdout." short:"o" type:"path"`
	Config      string        `help:"Path to config file. Defaults to .editrack.yml found in this or a parent directory." short:"c" type:"path"`
	EnvFile     string        `name:"env-file" help:"Dotenv file loaded before reading the environment." default:".env"`
	Format      string        `help:"Output format: table or json." short:"f"`
	Query       string        `help:"jq expression applied to the raw response before it is normalised." short:"q"`
	Drill       string        `help:"Show the incoming data of one row instead of the report, e.g. boomi:0."`
	Raw         bool          `help:"Append the raw webhook response to the report."`
	Repair      bool          `help:"Repair malformed JSON embedded in string fields."`
	Timeout     time.Duration `help:"Webhook request timeout (e.g. 30s)."`
	Debug       bool          `help:"Enable debug logging." short:"d"`
	Version     bool          `help:"Show version information." short:"v"`
	Interactive bool          `help:"Prompt for document IDs until EOF." short:"I"`
}

// Context holds the runtime context
type Context struct {
	Config  *config.Config
	Logger  *zap.Logger
	Fetcher fetch.Fetcher
	Stdin   io.Reader
	Stdout  io.Writer
	Stderr  io.Writer
	// Piped is true when stdin is a pipe or a file rather than a terminal.
	Piped bool
}

// Version information
const (
	Version = "0.1.0"
)

func main() {
	// Parse CLI arguments with Kong
	parser := kong.Must(&CLI,
		kong.Name("editrack"),
		kong.Description("Track an EDI document through the n8n workflow and show its summary and Boomi/MFT SQL data"),
		kong.UsageOnError(),
	)

	_, err := parser.Parse(os.Args[1:])
	if err != nil {
		// If there's an error parsing arguments, the usage will already be shown by kong.UsageOnError()
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	// Show version and exit if requested
	if CLI.Version {
		fmt.Printf("editrack version %s\n", Version)
		return
	}

	piped := stdinPiped()
	// No arguments on a terminal: prompt for document IDs
	if len(os.Args) == 1 && !piped {
		CLI.Interactive = true
	}

	appCtx, err := newContext(piped)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", errors.UserFriendlyError(err))
		os.Exit(1)
	}
	defer func() { _ = appCtx.Logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if CLI.Interactive {
		err = runInteractive(ctx, appCtx)
	} else {
		err = run(ctx, appCtx)
	}
	if err != nil {
		appCtx.Logger.Debug("run failed", zap.Error(err))
		// Use our custom error handling to provide user-friendly error messages
		fmt.Fprintf(os.Stderr, "%s\n", errors.UserFriendlyError(err))
		fmt.Fprintf(os.Stderr, "\nFor help, run: editrack --help\n")
		stop()
		os.Exit(1)
	}
}

// newContext loads configuration and wires the logger and cached webhook client.
func newContext(piped bool) (*Context, error) {
	if err := config.LoadDotEnv(CLI.EnvFile); err != nil {
		return nil, errors.NewConfigError("failed to load environment file", err)
	}

	configPath := CLI.Config
	if configPath == "" {
		configPath = config.FindConfigFile()
	}
	cfg, err := config.LoadConfigWithCLI(configPath, config.CLIOverrides{
		Format:  CLI.Format,
		Repair:  CLI.Repair,
		ShowRaw: CLI.Raw,
		Debug:   CLI.Debug,
		Timeout: CLI.Timeout,
	}, os.LookupEnv)
	if err != nil {
		return nil, errors.NewConfigError("failed to load configuration", err)
	}

	logger, err := logging.New(cfg.Dev.Debug)
	if err != nil {
		return nil, errors.NewConfigError("failed to create logger", err)
	}
	if configPath != "" {
		logger.Debug("using config file", zap.String("path", configPath))
	}

	client := fetch.NewClient(cfg, fetch.WithLogger(logger))
	logger.Debug("tracking endpoint", zap.String("url", client.Endpoint()))

	return &Context{
		Config:  cfg,
		Logger:  logger,
		Fetcher: fetch.NewCachedFetcher(client, fetch.NewCache(cfg, logger), logger),
		Stdin:   os.Stdin,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
		Piped:   piped,
	}, nil
}

func stdinPiped() bool {
	info, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice == 0
}

// run executes the main program logic
func run(ctx context.Context, app *Context) error {
	// 1. Load the raw webhook response
	raw, documentID, err := loadPayload(ctx, app)
	if err != nil {
		return err
	}

	// 2. Build and render the report
	out, err := renderPayload(ctx, app, raw, documentID)
	if err != nil {
		return err
	}

	// 3. Output the result
	return writeOutput(app, out)
}

// renderPayload runs the optional jq pre-selection, builds the report and
// renders it, or the requested drill-down.
func renderPayload(ctx context.Context, app *Context, raw models.Value, documentID string) (string, error) {
	builder := report.NewBuilder(app.Config, app.Logger)

	if CLI.Query != "" {
		selected, err := builder.Resolver().Select(ctx, raw, CLI.Query)
		if err != nil {
			return "", err
		}
		raw = selected
	}

	rep := builder.Build(raw)
	rep.DocumentID = documentID

	f := formatter.NewFormatterWithConfig(app.Config)
	if CLI.Drill != "" {
		dataset, row, err := report.ParseDrill(CLI.Drill)
		if err != nil {
			return "", err
		}
		value, err := report.DrillDown(rep, dataset, row)
		if err != nil {
			return "", err
		}
		return f.DrillDown(fmt.Sprintf("Incoming Data (Row %d)", row+1), value)
	}

	return f.Render(rep, app.Config.Display.Format)
}

// loadPayload reads the response from a file, the webhook or piped stdin, in that order.
func loadPayload(ctx context.Context, app *Context) (models.Value, string, error) {
	opts := parser.Options{MaxDepth: app.Config.Normalize.MaxDepth}

	if CLI.Input != "" {
		ir, err := parser.ParseFile(CLI.Input, opts)
		if err != nil {
			return nil, "", err
		}
		return rootOf(app, ir, CLI.Input), "", nil
	}

	documentID := strings.TrimSpace(CLI.DocID)
	if documentID == "" {
		documentID = strings.TrimSpace(CLI.Document)
	}
	if documentID != "" {
		raw, err := app.Fetcher.Track(ctx, documentID)
		if err != nil {
			return nil, "", err
		}
		return raw, documentID, nil
	}

	if !app.Piped {
		return nil, "", errors.NewInputError("no input provided", errors.ErrNoInput)
	}

	data, err := io.ReadAll(app.Stdin)
	if err != nil {
		return nil, "", errors.NewInputError("failed to read from stdin", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, "", errors.NewInputError("empty input received from stdin", errors.ErrEmptyInput)
	}
	ir, err := parser.Parse(bytes.NewReader(data), opts)
	if err != nil {
		return nil, "", err
	}
	return rootOf(app, ir, "stdin"), "", nil
}

// rootOf returns the decoded payload, noting whether it arrived as a chunked
// array or a single value.
func rootOf(app *Context, ir models.IntermediateRepresentation, source string) models.Value {
	shape := "single"
	if ir.RootIsArray {
		shape = "array"
	}
	app.Logger.Debug("payload loaded", zap.String("source", source), zap.String("root", shape))
	return ir.Root
}

// writeOutput writes the rendered text to file or stdout
func writeOutput(app *Context, out string) error {
	if CLI.Output != "" {
		err := os.WriteFile(CLI.Output, []byte(out+"\n"), 0o644)
		if err != nil {
			return errors.NewOutputError(fmt.Sprintf("failed to write to file '%s'", CLI.Output), err)
		}
		fmt.Fprintf(app.Stderr, "Report written to %s\n", CLI.Output)
		return nil
	}

	if _, err := fmt.Fprintln(app.Stdout, strings.TrimRight(out, "\n")); err != nil {
		return errors.NewOutputError("failed to write to stdout", err)
	}
	return nil
}

// runInteractive prompts for document IDs one per line until EOF, "quit" or
// "exit". Failures are reported and the loop carries on.
func runInteractive(ctx context.Context, app *Context) error {
	fmt.Fprintln(app.Stderr, "EDI Tracking")
	fmt.Fprintln(app.Stderr, "Enter a Document ID to fetch the AI summary and Boomi & MFT SQL data (Ctrl+D to quit).")

	scanner := bufio.NewScanner(app.Stdin)
	for {
		fmt.Fprint(app.Stderr, "Document ID: ")
		if !scanner.Scan() {
			break
		}

		documentID := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(documentID) {
		case "":
			fmt.Fprintln(app.Stderr, errors.UserFriendlyError(errors.ErrNoDocumentID))
			continue
		case "quit", "exit":
			return nil
		}

		if err := ctx.Err(); err != nil {
			return nil
		}

		raw, err := app.Fetcher.Track(ctx, documentID)
		if err != nil {
			fmt.Fprintln(app.Stderr, errors.UserFriendlyError(err))
			continue
		}
		out, err := renderPayload(ctx, app, raw, documentID)
		if err != nil {
			fmt.Fprintln(app.Stderr, errors.UserFriendlyError(err))
			continue
		}
		if err := writeOutput(app, out); err != nil {
			return err
		}
	}
	fmt.Fprintln(app.Stderr)

	if err := scanner.Err(); err != nil {
		return errors.NewInputError("error reading input", err)
	}
	return nil
}
