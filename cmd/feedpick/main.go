package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/fatih/color"
	"github.com/go-pkgz/lgr"
	"github.com/jessevdk/go-flags"

	"github.com/umputun/feedpick/pkg/config"
	"github.com/umputun/feedpick/pkg/domain"
	"github.com/umputun/feedpick/pkg/download"
	"github.com/umputun/feedpick/pkg/feed"
	"github.com/umputun/feedpick/pkg/query"
	"github.com/umputun/feedpick/pkg/runner"
)

// Opts with all CLI options
type Opts struct {
	URL        string `short:"u" long:"url" env:"FEEDPICK_URL" description:"feed url"`
	File       string `short:"f" long:"file" description:"local feed file"`
	Output     string `short:"o" long:"output" env:"FEEDPICK_OUTPUT" description:"download directory, or the feed file for create"`
	Query      string `short:"q" long:"query" description:"item selection query, all items if empty"`
	NDownloads *int   `short:"d" long:"ndownloads" description:"max concurrent downloads, overrides config"`
	Config     string `short:"c" long:"config" env:"FEEDPICK_CONFIG" description:"yaml config file"`

	Check    struct{} `command:"check" description:"show items matching the query"`
	Download struct{} `command:"download" description:"download enclosures of matching items"`
	Create   struct {
		Title string `short:"t" long:"title" description:"title of the created feed"`
	} `command:"create" description:"create a new feed with matching items"`

	// Common options
	Debug   bool `long:"dbg" env:"DEBUG" description:"debug mode"`
	Version bool `short:"V" long:"version" description:"show version info"`
	NoColor bool `long:"no-color" env:"NO_COLOR" description:"disable color output"`
}

// exit codes
const (
	exitOK = iota
	exitUnexpected
	exitParse
	exitLoad
	exitConfig
	exitPartial
	exitWrite
)

var revision = "unknown"

// errPartialDownload is returned when some of the matched items failed to download
var errPartialDownload = errors.New("some downloads failed")

func main() {
	opts, mode, err := parseOpts(os.Args[1:])
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(exitOK)
		}
		os.Exit(exitConfig)
	}

	if opts.Version {
		fmt.Printf("Version: %s\nGolang: %s\n", revision, runtime.Version())
		os.Exit(exitOK)
	}

	if opts.NoColor {
		color.NoColor = true
	}
	setupLog(opts.Debug)

	ctx, cancel := context.WithCancel(context.Background())

	// handle termination signals
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan
		lgr.Print("[WARN] termination signal received")
		cancel()
	}()

	err = run(ctx, opts, mode, os.Stdout)
	cancel()
	if err != nil {
		lgr.Printf("[ERROR] %v", err)
		os.Exit(exitCode(err))
	}
}

// parseOpts parses command line arguments, returning options and the name of the command, if any
func parseOpts(args []string) (opts Opts, mode string, err error) {
	parser := flags.NewParser(&opts, flags.Default)
	parser.SubcommandsOptional = true
	if _, err = parser.ParseArgs(args); err != nil {
		return Opts{}, "", err
	}
	if parser.Active != nil {
		mode = parser.Active.Name
	}
	return opts, mode, nil
}

// run executes a single command and prints its report to stdout
func run(ctx context.Context, opts Opts, mode string, stdout io.Writer) error {
	if mode == "" {
		return &domain.ConfigError{Field: "command", Reason: "one of check, download or create is required"}
	}

	cfg := config.Default()
	if opts.Config != "" {
		loaded, err := config.Load(opts.Config)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	maxConcurrent := cfg.Download.MaxConcurrent
	if opts.NDownloads != nil {
		maxConcurrent = *opts.NDownloads
	}

	loader := feed.NewParser(feed.NewClient(cfg.Feed.Timeout), cfg.Feed.UserAgent)
	fetcher := download.NewHTTPFetcher(feed.NewClient(0), download.FetcherParams{
		UserAgent:  cfg.Download.UserAgent,
		Timeout:    cfg.Download.Timeout,
		Retries:    cfg.Download.Retries,
		RetryDelay: cfg.Download.RetryDelay,
	})

	report, err := runner.New(loader, fetcher).Run(ctx, runner.Config{
		Mode:          runner.Mode(mode),
		URL:           opts.URL,
		File:          opts.File,
		Output:        opts.Output,
		Query:         opts.Query,
		MaxConcurrent: maxConcurrent,
		Title:         opts.Create.Title,
	})
	if err != nil {
		return err
	}

	if err := report.Print(stdout); err != nil {
		return fmt.Errorf("print report: %w", err)
	}
	if failed := report.Failed(); failed > 0 {
		return fmt.Errorf("%w: %d of %d", errPartialDownload, failed, len(report.Outcomes))
	}
	return nil
}

// exitCode maps run error to the process exit code
func exitCode(err error) int {
	var (
		parseErr  *query.ParseError
		loadErr   *feed.LoadError
		configErr *domain.ConfigError
		writeErr  *domain.WriteError
	)
	switch {
	case err == nil:
		return exitOK
	case errors.As(err, &parseErr):
		return exitParse
	case errors.As(err, &loadErr):
		return exitLoad
	case errors.As(err, &configErr):
		return exitConfig
	case errors.Is(err, errPartialDownload):
		return exitPartial
	case errors.As(err, &writeErr):
		return exitWrite
	}
	return exitUnexpected
}

func setupLog(dbg bool) {
	logOpts := []lgr.Option{lgr.Out(os.Stderr), lgr.Err(os.Stderr)}
	if dbg {
		logOpts = append(logOpts, lgr.Debug, lgr.CallerFile, lgr.CallerFunc, lgr.Msec, lgr.LevelBraces, lgr.StackTraceOnError)
	}

	colorizer := lgr.Mapper{
		ErrorFunc:  func(s string) string { return color.New(color.FgHiRed).Sprint(s) },
		WarnFunc:   func(s string) string { return color.New(color.FgRed).Sprint(s) },
		InfoFunc:   func(s string) string { return color.New(color.FgYellow).Sprint(s) },
		DebugFunc:  func(s string) string { return color.New(color.FgWhite).Sprint(s) },
		CallerFunc: func(s string) string { return color.New(color.FgBlue).Sprint(s) },
		TimeFunc:   func(s string) string { return color.New(color.FgCyan).Sprint(s) },
	}
	logOpts = append(logOpts, lgr.Map(colorizer))
	lgr.SetupStdLogger(logOpts...)
	lgr.Setup(logOpts...)
}
