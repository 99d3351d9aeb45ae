// Package main provides the pagecapture command: load a page in a real
// browser and save its rendered HTML to a file.
//
// It runs a single capture from flags, a YAML job of captures, or one XML
// tool call read from stdin.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/entrhq/pagecapture/pkg/agent/tools"
	"github.com/entrhq/pagecapture/pkg/app"
	"github.com/entrhq/pagecapture/pkg/capture"
	appconfig "github.com/entrhq/pagecapture/pkg/config"
	"github.com/entrhq/pagecapture/pkg/executor/batch"
	"github.com/entrhq/pagecapture/pkg/logging"
)

const version = "0.1.0"

// errCaptureFailed marks a failure whose message was already printed.
var errCaptureFailed = errors.New("capture failed")

// CLIConfig holds command-line configuration
type CLIConfig struct {
	URL         string
	OutputFile  string
	Mode        string
	Engine      string
	Headless    bool
	Stealth     bool
	ControlURL  string
	Timeout     time.Duration
	Workspace   string
	ConfigFile  string
	JobFile     string
	ToolCall    bool
	DryRun      bool
	InitConfig  bool
	LogLevel    string
	ShowVersion bool

	set map[string]bool
}

func main() {
	config := parseFlags()

	if config.ShowVersion {
		fmt.Printf("pagecapture v%s\n", version)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nShutting down gracefully...")
		cancel()
	}()

	if err := run(ctx, config); err != nil {
		cancel()
		if !errors.Is(err, errCaptureFailed) {
			log.Printf("pagecapture: %v", err)
		}
		os.Exit(1)
	}
	cancel()
}

// parseFlags parses command line flags
func parseFlags() *CLIConfig {
	config := &CLIConfig{}

	flag.StringVar(&config.URL, "url", "", "URL of the page to capture")
	flag.StringVar(&config.OutputFile, "out", "", "File to save the HTML to")
	flag.StringVar(&config.Mode, "mode", "", "Write mode: w (overwrite) or a (append); defaults to the configured mode")
	flag.StringVar(&config.Engine, "engine", "", "Browser engine: playwright or rod")
	flag.BoolVar(&config.Headless, "headless", true, "Run the browser without a window")
	flag.BoolVar(&config.Stealth, "stealth", false, "Mask automation fingerprints (rod engine)")
	flag.StringVar(&config.ControlURL, "control-url", "", "DevTools URL of a running Chrome to attach to (rod engine)")
	flag.DurationVar(&config.Timeout, "timeout", 0, "Overall timeout for a single capture (0 uses the browser timeout)")
	flag.StringVar(&config.Workspace, "workspace", "", "Confine destinations to this directory")
	flag.StringVar(&config.ConfigFile, "config", "", "Path to the JSON settings file (default ~/.pagecapture/config.json)")
	flag.StringVar(&config.JobFile, "job", "", "Run the captures listed in a YAML job file")
	flag.BoolVar(&config.ToolCall, "tool-call", false, "Read one XML tool call from stdin and execute it")
	flag.BoolVar(&config.DryRun, "dry-run", false, "Describe the write a capture or tool call would make without loading the page")
	flag.BoolVar(&config.InitConfig, "init-config", false, "Write the default settings to the settings file and exit")
	flag.StringVar(&config.LogLevel, "log-level", "", "Minimum log level: debug, info, warn or error (overrides $"+logging.EnvLogLevel+")")
	flag.BoolVar(&config.ShowVersion, "version", false, "Show version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "pagecapture - save the rendered HTML of a web page\n\n")
		fmt.Fprintf(os.Stderr, "Usage: pagecapture [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  # Save a page\n")
		fmt.Fprintf(os.Stderr, "  pagecapture -url https://example.com -out example.html\n\n")
		fmt.Fprintf(os.Stderr, "  # Append to an existing file using go-rod\n")
		fmt.Fprintf(os.Stderr, "  pagecapture -engine rod -url https://example.org -out all.html -mode a\n\n")
		fmt.Fprintf(os.Stderr, "  # Run a job file\n")
		fmt.Fprintf(os.Stderr, "  pagecapture -job captures.yaml\n\n")
		fmt.Fprintf(os.Stderr, "  # Preview a capture without opening a browser\n")
		fmt.Fprintf(os.Stderr, "  pagecapture -url https://example.com -out example.html -mode a -dry-run\n\n")
		fmt.Fprintf(os.Stderr, "  # Execute a tool call\n")
		fmt.Fprintf(os.Stderr, "  echo '<tool><tool_name>html_saver</tool_name><arguments><url>https://example.com</url><file_path>a.html</file_path></arguments></tool>' | pagecapture -tool-call\n\n")
	}

	flag.Parse()

	config.set = make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { config.set[f.Name] = true })
	return config
}

func run(ctx context.Context, cli *CLIConfig) error {
	logger, err := logging.NewLogger("cli")
	if err != nil {
		// NewLogger already fell back to stderr
		logger.Debugf("logger fallback: %v", err)
	}
	defer logger.Close()
	if cli.LogLevel != "" {
		logger.SetLevel(logging.ParseLevel(cli.LogLevel))
	}
	logger.Infof("pagecapture v%s session %s (log: %s)", version, logger.SessionID(), logger.LogPath())

	if err := appconfig.Initialize(cli.ConfigFile); err != nil {
		return fmt.Errorf("failed to initialize configuration: %w", err)
	}

	if cli.InitConfig {
		path, err := appconfig.WriteDefaults()
		if err != nil {
			return fmt.Errorf("failed to write settings: %w", err)
		}
		fmt.Printf("Wrote default settings to %s\n", path)
		return nil
	}

	opts := app.OptionsFromConfig()
	applyOverrides(&opts, cli)

	switch {
	case cli.JobFile != "":
		return runJob(ctx, cli, opts, logger)
	case cli.ToolCall:
		return runToolCall(ctx, opts, cli.DryRun, os.Stdin, logger)
	default:
		return runOnce(ctx, cli, opts, logger)
	}
}

// applyOverrides lets explicitly set flags win over the settings file.
func applyOverrides(opts *app.Options, cli *CLIConfig) {
	if cli.Engine != "" {
		opts.Browser.Engine = cli.Engine
	}
	if cli.set["headless"] {
		opts.Browser.Headless = cli.Headless
	}
	if cli.set["stealth"] {
		opts.Browser.Stealth = cli.Stealth
	}
	if cli.Workspace != "" {
		opts.WorkspaceDir = cli.Workspace
	}
	opts.ControlURL = cli.ControlURL
}

func runOnce(ctx context.Context, cli *CLIConfig, opts app.Options, logger *logging.Logger) error {
	if cli.URL == "" || cli.OutputFile == "" {
		flag.Usage()
		return fmt.Errorf("-url and -out are required")
	}

	mode := cli.Mode
	if mode == "" {
		mode = opts.DefaultMode
	}
	m, err := capture.ParseMode(mode)
	if err != nil {
		return err
	}

	if cli.DryRun {
		a, err := app.Preview(opts, logger)
		if err != nil {
			return err
		}
		args := map[string]string{"url": cli.URL, "file_path": cli.OutputFile, "mode": mode}
		preview, err := a.Tool.GeneratePreview(ctx, tools.ArgumentsXML(args))
		if err != nil {
			return describeFailure(err)
		}
		printPreview(preview)
		return nil
	}

	a, err := app.New(ctx, opts, logger)
	if err != nil {
		return fmt.Errorf("failed to start browser: %w", err)
	}
	defer closeApp(a, logger)

	if cli.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cli.Timeout)
		defer cancel()
	}

	res, err := a.Tool.Save(ctx, "", capture.Request{URL: cli.URL, FilePath: cli.OutputFile, Mode: m})
	if err != nil {
		fmt.Println(capture.Describe(nil, err))
		return errCaptureFailed
	}

	fmt.Println(res.Output)
	return nil
}

func runToolCall(ctx context.Context, opts app.Options, dryRun bool, in io.Reader, logger *logging.Logger) error {
	text, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("failed to read tool call: %w", err)
	}

	call, _, err := tools.ParseToolCall(string(text))
	if err != nil {
		return err
	}
	if err := tools.ValidateToolCall(call); err != nil {
		return err
	}

	if dryRun {
		a, err := app.Preview(opts, logger)
		if err != nil {
			return err
		}
		preview, err := a.Registry.Preview(ctx, call)
		if err != nil {
			return describeFailure(err)
		}
		printPreview(preview)
		return nil
	}

	a, err := app.New(ctx, opts, logger)
	if err != nil {
		return fmt.Errorf("failed to start browser: %w", err)
	}
	defer closeApp(a, logger)

	res, err := a.Registry.Dispatch(ctx, call)
	if err != nil {
		return describeFailure(err)
	}

	fmt.Println(res.Output)
	return nil
}

// describeFailure prints capture errors in their user-facing form.
func describeFailure(err error) error {
	if capture.KindOf(err) != "" {
		fmt.Println(capture.Describe(nil, err))
		return errCaptureFailed
	}
	return err
}

func printPreview(p *tools.ToolPreview) {
	fmt.Println(p.Title)
	fmt.Println(p.Description)
	fmt.Println(p.Content)
}

func runJob(ctx context.Context, cli *CLIConfig, opts app.Options, logger *logging.Logger) error {
	job, err := batch.LoadConfig(cli.JobFile)
	if err != nil {
		return err
	}
	if cli.Workspace != "" {
		job.WorkspaceDir = cli.Workspace
	}
	if cli.Timeout > 0 {
		job.Timeout = cli.Timeout
	}
	if err := job.Validate(); err != nil {
		return fmt.Errorf("invalid job: %w", err)
	}

	opts.WorkspaceDir = job.WorkspaceDir
	if len(job.Constraints.AllowedPatterns) > 0 {
		opts.AllowedPatterns = job.Constraints.AllowedPatterns
	}
	if len(job.Constraints.DeniedPatterns) > 0 {
		opts.DeniedPatterns = job.Constraints.DeniedPatterns
	}
	if job.Engine != "" && cli.Engine == "" {
		opts.Browser.Engine = job.Engine
	}
	if job.Headless != nil && !cli.set["headless"] {
		opts.Browser.Headless = *job.Headless
	}

	a, err := app.New(ctx, opts, logger)
	if err != nil {
		return fmt.Errorf("failed to start browser: %w", err)
	}
	defer closeApp(a, logger)

	executor, err := batch.NewExecutor(a.Tool, job, logger.With("batch"))
	if err != nil {
		return err
	}

	summary, runErr := executor.Run(ctx)
	if summary != nil {
		for _, r := range summary.Results {
			if r.Status == "skipped" {
				fmt.Printf("skipped %s\n", r.URL)
				continue
			}
			fmt.Println(r.Message)
		}
		fmt.Printf("%s: %d/%d captured, %d bytes\n",
			summary.Status, summary.Metrics.Succeeded, summary.Metrics.Total, summary.Metrics.BytesWritten)
	}
	if runErr != nil {
		logger.Errorf("job %s: %v", cli.JobFile, runErr)
		return errCaptureFailed
	}
	return nil
}

func closeApp(a *app.App, logger *logging.Logger) {
	if err := a.Close(); err != nil {
		logger.Warnf("failed to close browser: %v", err)
	}
}
