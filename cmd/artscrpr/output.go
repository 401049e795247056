package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/atotto/clipboard"
	"github.com/rs/zerolog"

	"github.com/byteowlz/artscrpr/internal/config"
	"github.com/byteowlz/artscrpr/internal/fetcher"
	"github.com/byteowlz/artscrpr/internal/processor"
	"github.com/byteowlz/artscrpr/pkg/extractor"
)

// maxFilenameLength is in bytes; truncation keeps whole runes.
const maxFilenameLength = 200

// sink writes rendered results to stdout, a single file or one file per
// source in a directory.
type sink struct {
	renderer  processor.Renderer
	w         io.Writer
	file      *os.File
	dir       string
	clipboard bool
	log       zerolog.Logger
}

func newSink(path string, format processor.Format, cfg *config.Config, logger zerolog.Logger) (*sink, error) {
	s := &sink{
		renderer: processor.Renderer{
			Format:    format,
			Indent:    cfg.Output.Indent,
			LineWidth: cfg.Output.LineWidth,
		},
		w:         os.Stdout,
		clipboard: cfg.Output.Clipboard,
		log:       logger,
	}
	if path == "" {
		return s, nil
	}

	// A trailing separator or an existing directory selects directory mode.
	info, err := os.Stat(path)
	if (err == nil && info.IsDir()) || strings.HasSuffix(path, string(os.PathSeparator)) || strings.HasSuffix(path, "/") {
		if err := os.MkdirAll(path, 0755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
		s.dir = path
		return s, nil
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file %s: %w", path, err)
	}
	s.file, s.w = f, f
	return s, nil
}

func (s *sink) Close() error {
	if s.file == nil {
		return nil
	}
	return s.file.Close()
}

// Write renders the successful outcomes in order.
func (s *sink) Write(outcomes []extractor.Outcome) error {
	var results []*extractor.Result
	for _, o := range outcomes {
		if o.Err == nil && o.Result != nil {
			results = append(results, o.Result)
		}
	}
	if len(results) == 0 && len(outcomes) > 0 {
		return nil
	}

	var buf bytes.Buffer
	if err := s.renderer.Render(&buf, results); err != nil {
		return err
	}

	if s.dir != "" {
		if err := s.writeDir(outcomes); err != nil {
			return err
		}
	} else if _, err := s.w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if s.clipboard {
		s.copyToClipboard(buf.String())
	}
	return nil
}

func (s *sink) writeDir(outcomes []extractor.Outcome) error {
	used := make(map[string]bool)
	for _, o := range outcomes {
		if o.Err != nil || o.Result == nil {
			continue
		}

		name := uniqueName(sourceFilename(o.Source), used)
		path := filepath.Join(s.dir, name+s.renderer.Format.Extension())

		var buf bytes.Buffer
		if err := s.renderer.Render(&buf, []*extractor.Result{o.Result}); err != nil {
			return err
		}
		if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
			return fmt.Errorf("failed to write file %s: %w", path, err)
		}
		s.log.Debug().Str("path", path).Msg("saved")
	}
	return nil
}

var errClipboardUnsupported = errors.New("clipboard is not supported on this system")

// writeClipboard is replaced in tests.
var writeClipboard = func(text string) error {
	if clipboard.Unsupported {
		return errClipboardUnsupported
	}
	return clipboard.WriteAll(text)
}

// copyToClipboard never fails the run; the other sinks are already written.
func (s *sink) copyToClipboard(text string) {
	if err := writeClipboard(text); err != nil {
		s.log.Warn().Err(err).Msg("failed to copy output to clipboard")
		return
	}
	s.log.Info().Msg("copied output to clipboard")
}

// uniqueName returns base, or base-2, base-3, ... when taken, and records
// the result in used.
func uniqueName(base string, used map[string]bool) string {
	name := base
	for n := 2; used[name]; n++ {
		name = fmt.Sprintf("%s-%d", base, n)
	}
	used[name] = true
	return name
}

var filenameReplacer = strings.NewReplacer(
	"/", "_",
	"\\", "_",
	"?", "_",
	"&", "_",
	"=", "_",
	":", "_",
	"#", "_",
	"%", "_",
)

// sourceFilename converts a source to a safe file name without extension.
func sourceFilename(source string) string {
	if source == fetcher.StdinSource {
		return "stdin"
	}

	var name string
	switch {
	case fetcher.IsRemote(source):
		name = strings.TrimPrefix(strings.TrimPrefix(source, "https://"), "http://")
	default:
		base := filepath.Base(strings.TrimPrefix(source, "file://"))
		name = strings.TrimSuffix(base, filepath.Ext(base))
	}

	name = strings.Trim(filenameReplacer.Replace(name), "_.")
	for len(name) > maxFilenameLength {
		_, size := utf8.DecodeLastRuneInString(name)
		name = name[:len(name)-size]
	}
	if name == "" {
		return "document"
	}
	return name
}
