package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"golang.org/x/term"

	"github.com/wudi/redactkit/config"
	"github.com/wudi/redactkit/fileio"
	"github.com/wudi/redactkit/fileio/native"
	"github.com/wudi/redactkit/htmlview"
	"github.com/wudi/redactkit/listing"
	"github.com/wudi/redactkit/observability"
	"github.com/wudi/redactkit/pdfdoc"
	"github.com/wudi/redactkit/raster"
	"github.com/wudi/redactkit/render"
	"github.com/wudi/redactkit/scripting"
	"github.com/wudi/redactkit/session"
	"github.com/wudi/redactkit/shell"
)

type options struct {
	configPath string
	initConfig bool
	pdfPath    string
	script     string
	batch      bool
	yes        bool
	lang       string
	htmlOut    string
	outDir     string
	logLevel   string
}

func main() {
	opts, err := parseFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "redact: %v\n", err)
		os.Exit(2)
	}
	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "redact: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags() (options, error) {
	var opts options
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: redact [flags] [pdf]\n")
		flag.PrintDefaults()
	}
	flag.StringVar(&opts.configPath, "config", config.DefaultConfigPath(), "Path to YAML configuration")
	flag.BoolVar(&opts.initConfig, "init-config", false, "Write the default configuration to -config and exit")
	flag.StringVar(&opts.script, "script", "", "Run a JavaScript automation script and exit")
	flag.BoolVar(&opts.batch, "batch", false, "Read shell commands from stdin even when it is a terminal")
	flag.BoolVar(&opts.yes, "yes", false, "Answer yes to confirmations in batch mode")
	flag.StringVar(&opts.lang, "lang", "en", "Selection list language (en, ja)")
	flag.StringVar(&opts.htmlOut, "html", "", "Rewrite this HTML file with every rendered frame")
	flag.StringVar(&opts.outDir, "out", "", "Directory for redacted output (overrides config)")
	flag.StringVar(&opts.logLevel, "log-level", "", "Log level (overrides config)")
	flag.Parse()

	switch flag.NArg() {
	case 0:
	case 1:
		opts.pdfPath = flag.Arg(0)
	default:
		flag.Usage()
		return options{}, fmt.Errorf("expected at most one pdf path")
	}
	return opts, nil
}

func run(opts options) error {
	if opts.initConfig {
		if err := config.Default().Save(opts.configPath); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", opts.configPath)
		return nil
	}

	cfg, err := config.LoadOrDefault(opts.configPath)
	if err != nil {
		return err
	}
	if opts.outDir != "" {
		cfg.Export.OutputDir = opts.outDir
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}

	logger := observability.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: observability.ParseLevel(cfg.Log.Level),
	})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var target render.Target
	if opts.htmlOut != "" {
		target = htmlview.Target{Open: func() (io.WriteCloser, error) { return os.Create(opts.htmlOut) }}
	}

	var sh *shell.Shell
	host := fileio.DiskHost{Dir: cfg.Export.OutputDir}
	switch cfg.Shell.SaveDialog {
	case "native":
		host.Choose = native.SaveDialog("Save redacted PDF")
	case "prompt":
		host.Choose = func(path string) (string, bool, error) {
			if sh == nil {
				return path, true, nil
			}
			return sh.ChooseSavePath(path)
		}
	}

	sess := session.New(session.Deps{
		Loader: raster.Loader(raster.WithMaxPixels(cfg.Viewport.MaxPixels)),
		Opener: pdfdoc.Opener(),
		Host:   host,
		Target: target,
	}, session.Options{
		Viewport:  cfg.ViewportConfig(),
		Gesture:   cfg.GestureConfig(),
		Export:    cfg.ExportOptions(),
		Container: cfg.ContainerSize(),
		Logger:    logger,
	})
	defer sess.Reset()

	if opts.pdfPath != "" {
		if err := sess.LoadFile(ctx, opts.pdfPath); err != nil {
			return err
		}
	}

	engine := scripting.NewEngine(logger)
	if err := engine.Bind(sess); err != nil {
		return err
	}

	if opts.script != "" {
		src, err := os.ReadFile(opts.script)
		if err != nil {
			return err
		}
		val, err := engine.Execute(ctx, string(src))
		if err != nil {
			return fmt.Errorf("%s: %w", opts.script, err)
		}
		if val != nil {
			fmt.Println(val)
		}
		return nil
	}

	runnerOpts := []shell.RunnerOption{
		shell.WithLabels(listing.ForLanguage(opts.lang)),
		shell.WithScripts(engine),
	}
	if !opts.batch && term.IsTerminal(int(os.Stdin.Fd())) {
		sh, err = shell.New(sess, shell.Config{HistoryFile: cfg.Shell.HistoryFile, Logger: logger}, runnerOpts...)
		if err != nil {
			return err
		}
		return sh.Run(ctx)
	}
	runner := shell.NewRunner(sess, os.Stdout, shell.AutoConfirm(opts.yes), runnerOpts...)
	return shell.RunBatch(ctx, runner, os.Stdin)
}
