package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"os/signal"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/byteowlz/artscrpr/internal/config"
	"github.com/byteowlz/artscrpr/internal/fetcher"
	"github.com/byteowlz/artscrpr/internal/processor"
	"github.com/byteowlz/artscrpr/pkg/extractor"
)

// Exit codes for granular error handling
const (
	ExitSuccess      = 0
	ExitNetworkError = 1
	ExitProcessError = 2
	ExitInvalidInput = 3
	ExitConfigError  = 4
	ExitFileIOError  = 5
	ExitPartialError = 6 // some sources failed, some succeeded
)

var (
	cfgFile          string
	file             string
	outputPath       string
	outputFormat     string
	clipboardCopy    bool
	commentMode      string
	minCommentLength int
	bodyStrategy     string
	includeMetadata  bool
	javascript       bool
	noJS             bool
	browserName      string
	browserAgent     string
	timeout          int
	userAgent        string
	delay            int
	concurrency      int
	continueOnError  bool
	verbose          bool
	quiet            bool
)

const version = "0.3.0"

var rootCmd = &cobra.Command{
	Use:   "artscrpr [sources...]",
	Short: "Extract article text and comment threads from web pages",
	Long: `artscrpr extracts the title, main text and comment thread of a page.
Sources may be http(s) URLs, file paths, file:// URLs or "-" for HTML on stdin.`,
	Version:       version,
	RunE:          run,
	SilenceErrors: true,
	SilenceUsage:  true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		var ee *exitErr
		if errors.As(err, &ee) {
			os.Exit(ee.code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(ExitInvalidInput)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $XDG_CONFIG_HOME/artscrpr/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "only log errors")

	// Input/Output flags
	rootCmd.Flags().StringVarP(&file, "file", "f", "", "read sources from file (one per line)")
	rootCmd.Flags().StringVarP(&outputPath, "output", "o", "", "output to file or directory (default: stdout)")
	rootCmd.Flags().StringVar(&outputFormat, "format", "json", "output format (json|text|markdown)")
	rootCmd.Flags().BoolVar(&clipboardCopy, "clipboard", false, "also copy the output to the clipboard")

	// Extraction flags
	rootCmd.Flags().StringVar(&commentMode, "comment-mode", "hierarchical", "comment ordering (hierarchical|flat)")
	rootCmd.Flags().IntVar(&minCommentLength, "min-comment-length", 0, "drop comments with at most this many characters")
	rootCmd.Flags().StringVar(&bodyStrategy, "body-strategy", "first", "content candidate selection (first|best)")
	rootCmd.Flags().BoolVar(&includeMetadata, "include-metadata", false, "include page metadata in output")

	// Fetching flags
	rootCmd.Flags().BoolVar(&javascript, "javascript", false, "always render http(s) sources in headless Chrome")
	rootCmd.Flags().BoolVar(&noJS, "no-js", false, "never render http(s) sources in headless Chrome")
	rootCmd.Flags().StringVarP(&browserName, "browser", "b", "none", "browser for cookie extraction (none|auto|chrome|chromium|edge|firefox|safari|zen)")
	rootCmd.Flags().StringVar(&browserAgent, "browser-agent", "auto", "browser agent type (auto|random|chrome|firefox|safari|edge)")
	rootCmd.Flags().IntVar(&timeout, "timeout", 30, "request timeout in seconds")
	rootCmd.Flags().StringVar(&userAgent, "user-agent", "", "custom user agent string")
	rootCmd.Flags().IntVar(&delay, "delay", 0, "delay in seconds between requests (rate limiting)")

	// Parallel processing flags
	rootCmd.Flags().IntVarP(&concurrency, "concurrency", "c", 5, "max documents extracted at once")
	rootCmd.Flags().BoolVar(&continueOnError, "continue-on-error", false, "keep going when a source fails")

	rootCmd.MarkFlagsMutuallyExclusive("javascript", "no-js")

	rootCmd.AddCommand(inspectCmd)
}

// loadConfig creates the example config on first run, loads it and layers
// explicitly set flags on top.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if cfgFile == "" {
		ensureDefaultConfig()
	}

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	applyFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	setupLogging(cfg.Logging.Level)
	return cfg, nil
}

func ensureDefaultConfig() {
	path, err := config.DefaultPath()
	if err != nil {
		return
	}
	if _, err := os.Stat(path); !errors.Is(err, fs.ErrNotExist) {
		return
	}
	if err := config.CreateExampleConfig(path); err == nil && !quiet {
		fmt.Fprintf(os.Stderr, "Created config file: %s\n", path)
	}
}

func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()

	if flags.Changed("format") {
		cfg.Output.DefaultFormat = outputFormat
	}
	if flags.Changed("clipboard") {
		cfg.Output.Clipboard = clipboardCopy
	}
	if flags.Changed("include-metadata") {
		cfg.Output.IncludeMetadata = includeMetadata
	}
	if flags.Changed("comment-mode") {
		cfg.Extraction.CommentMode = commentMode
	}
	if flags.Changed("min-comment-length") {
		cfg.Extraction.MinCommentLength = minCommentLength
	}
	if flags.Changed("body-strategy") {
		cfg.Extraction.BodyStrategy = bodyStrategy
	}
	if flags.Changed("javascript") && javascript {
		cfg.Extraction.EnableJavaScript = "always"
	}
	if flags.Changed("no-js") && noJS {
		cfg.Extraction.EnableJavaScript = "never"
	}
	if flags.Changed("browser") {
		cfg.Browser.Default = browserName
	}
	if flags.Changed("browser-agent") {
		cfg.Network.BrowserAgent = browserAgent
	}
	if flags.Changed("timeout") {
		cfg.Network.Timeout = timeout
		cfg.Extraction.JSTimeout = timeout
	}
	if flags.Changed("user-agent") {
		cfg.Network.UserAgent = userAgent
	}
	if flags.Changed("delay") {
		cfg.Network.Delay = delay
	}
	if flags.Changed("concurrency") {
		cfg.Parallel.MaxConcurrency = concurrency
	}
	if flags.Changed("continue-on-error") {
		cfg.Parallel.FailFast = !continueOnError
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}
	if quiet {
		cfg.Logging.Level = "error"
	}
}

func setupLogging(level string) {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly})
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return exitError(ExitConfigError, "failed to load config: %v", err)
	}

	format, err := processor.ParseFormat(cfg.Output.DefaultFormat)
	if err != nil {
		return exitError(ExitInvalidInput, "%v", err)
	}

	sources, err := collectSources(args, file, stdinIsPiped())
	if err != nil {
		return exitError(ExitInvalidInput, "failed to collect sources: %v", err)
	}
	if len(sources) == 0 {
		return exitError(ExitInvalidInput, "no sources provided")
	}

	out, err := newSink(outputPath, format, cfg, log.Logger)
	if err != nil {
		return exitError(ExitFileIOError, "%v", err)
	}
	defer out.Close()

	ext, err := extractor.New(cfg, log.Logger)
	if err != nil {
		return exitError(ExitConfigError, "%v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	log.Debug().Int("sources", len(sources)).Int("concurrency", cfg.Parallel.MaxConcurrency).Msg("starting extraction")
	outcomes := ext.ExtractAll(ctx, sources, cfg.Parallel.MaxConcurrency, cfg.Parallel.FailFast)

	var failed []error
	for _, o := range outcomes {
		if o.Err == nil {
			continue
		}
		if !errors.Is(o.Err, context.Canceled) {
			log.Error().Err(o.Err).Str("source", o.Source).Msg("extraction failed")
		}
		failed = append(failed, o.Err)
	}

	if err := out.Write(outcomes); err != nil {
		return exitError(ExitFileIOError, "%v", err)
	}

	switch {
	case len(failed) == 0:
		return nil
	case len(failed) < len(outcomes) && !cfg.Parallel.FailFast:
		return &exitErr{code: ExitPartialError}
	default:
		return &exitErr{code: exitCodeFor(firstCause(failed))}
	}
}

// firstCause skips cancellations caused by an earlier failure.
func firstCause(errs []error) error {
	for _, err := range errs {
		if !errors.Is(err, context.Canceled) {
			return err
		}
	}
	return errs[0]
}

// exitCodeFor maps a source failure to an exit code. Path errors are checked
// first: a missing file wraps a syscall.Errno, which also satisfies net.Error.
func exitCodeFor(err error) int {
	var pathErr *fs.PathError
	var urlErr *url.Error
	switch {
	case errors.As(err, &pathErr):
		return ExitFileIOError
	case errors.Is(err, fetcher.ErrHTTPStatus), errors.As(err, &urlErr):
		return ExitNetworkError
	}
	return ExitProcessError
}

type exitErr struct {
	code int
	msg  string
}

func (e *exitErr) Error() string {
	return e.msg
}

func exitError(code int, format string, args ...any) *exitErr {
	msg := fmt.Sprintf(format, args...)
	if msg != "" && !quiet {
		fmt.Fprintf(os.Stderr, "%s\n", msg)
	}
	return &exitErr{code: code, msg: msg}
}
