package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/byteowlz/artscrpr/internal/fetcher"
)

// collectSources gathers sources from args and the --file list. With neither
// given, piped stdin is read as a single HTML document.
func collectSources(args []string, listFile string, stdinPiped bool) ([]string, error) {
	sources := append([]string(nil), args...)

	if listFile != "" {
		listed, err := readSourcesFromFile(listFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read sources from file %s: %w", listFile, err)
		}
		sources = append(sources, listed...)
	}

	if len(args) == 0 && listFile == "" && stdinPiped {
		sources = append(sources, fetcher.StdinSource)
	}

	var clean []string
	stdinSeen := false
	for _, src := range sources {
		src = strings.TrimSpace(src)
		if src == "" {
			continue
		}
		if err := validateSource(src); err != nil {
			return nil, err
		}
		if src == fetcher.StdinSource {
			if stdinSeen {
				return nil, fmt.Errorf("stdin can only be read once")
			}
			stdinSeen = true
		}
		clean = append(clean, src)
	}
	return clean, nil
}

func readSourcesFromFile(filename string) ([]string, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var sources []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" && !strings.HasPrefix(line, "#") {
			sources = append(sources, line)
		}
	}
	return sources, scanner.Err()
}

func stdinIsPiped() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return stat.Mode()&os.ModeCharDevice == 0
}

// validateSource rejects URLs with schemes no loader handles.
func validateSource(src string) error {
	scheme, _, found := strings.Cut(src, "://")
	if !found {
		return nil
	}
	switch strings.ToLower(scheme) {
	case "http", "https", "file":
		return nil
	}
	return fmt.Errorf("unsupported source %q (expected http(s)://, file://, a path or -)", src)
}
