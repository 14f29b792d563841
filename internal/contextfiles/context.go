package contextfiles

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"pai-openai/internal/util"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"
)

// StdinPath is the entry path used for piped standard input.
const StdinPath = "STDIN"

const (
	DefaultMaxTotalBytes = 900_000
	DefaultMaxFileBytes  = 512 * 1024
)

// DefaultExtensions is the allow-list used when Options.IncludeExtensions is empty.
var DefaultExtensions = []string{
	".md", ".txt", ".json", ".yaml", ".yml",
	".ts", ".tsx", ".js", ".jsx",
	".py", ".rb", ".go", ".java",
}

// Options controls which files are attached and how much of them.
type Options struct {
	Globs             []string
	StdinText         string
	MaxTotalBytes     int
	MaxFileBytes      int
	IncludeExtensions []string
	Logger            *zap.Logger
}

// Entry is one attached source. Size is the original byte size; Text may be
// cut to the per-file budget.
type Entry struct {
	Path      string
	Size      int
	Text      string
	Truncated bool
}

// Result is the outcome of Build.
type Result struct {
	Entries    []Entry
	Text       string
	TotalBytes int
}

// Paths returns the entry paths in order.
func (r Result) Paths() []string {
	paths := make([]string, 0, len(r.Entries))
	for _, entry := range r.Entries {
		paths = append(paths, entry.Path)
	}
	return paths
}

// Build resolves globs to files, reads them within the configured budgets
// and renders the combined context text. Files that cannot be read are
// skipped with a warning.
func Build(opts Options) (Result, error) {
	maxTotal := opts.MaxTotalBytes
	if maxTotal <= 0 {
		maxTotal = DefaultMaxTotalBytes
	}
	maxFile := opts.MaxFileBytes
	if maxFile <= 0 {
		maxFile = DefaultMaxFileBytes
	}
	exts := opts.IncludeExtensions
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	var result Result
	for _, path := range expandGlobs(opts.Globs, logger) {
		info, err := os.Stat(path)
		if err != nil {
			logger.Warn("failed to stat context file", zap.String("path", path), zap.Error(err))
			continue
		}
		if !info.Mode().IsRegular() || info.Size() == 0 {
			continue
		}
		if !slices.Contains(exts, strings.ToLower(filepath.Ext(path))) {
			continue
		}
		size := int(info.Size())
		contribution := min(size, maxFile)
		if size > maxFile {
			logger.Warn("context file exceeds per-file budget; truncating",
				zap.String("path", path), zap.Int("size", size), zap.Int("max_file_bytes", maxFile))
		}
		if result.TotalBytes+contribution > maxTotal {
			logger.Warn("context budget reached; skipping remaining files",
				zap.String("last_attempted", path), zap.Int("max_context_bytes", maxTotal))
			break
		}

		raw, err := readContextFile(path, maxFile)
		if err != nil {
			logger.Warn("failed to read context file", zap.String("path", path), zap.Error(err))
			continue
		}
		text, truncated := util.TruncateBytes(raw, maxFile)
		// The file may have grown since it was stat'ed.
		if result.TotalBytes+len(text) > maxTotal {
			logger.Warn("context budget reached; skipping remaining files",
				zap.String("last_attempted", path), zap.Int("max_context_bytes", maxTotal))
			break
		}
		result.TotalBytes += len(text)
		result.Entries = append(result.Entries, Entry{Path: path, Size: size, Text: text, Truncated: truncated})
	}

	if opts.StdinText != "" {
		stdin := strings.TrimRight(opts.StdinText, " \t\r\n\v\f")
		limit := min(maxFile, maxTotal-result.TotalBytes)
		chunk, _ := util.ClampBytes(stdin, limit)
		result.TotalBytes += len(chunk)
		result.Entries = append(result.Entries, Entry{
			Path:      StdinPath,
			Size:      len(stdin),
			Text:      chunk,
			Truncated: len(chunk) < len(stdin),
		})
	}

	result.Text, _ = util.TruncateBytes(render(result.Entries, result.TotalBytes), maxTotal)
	return result, nil
}

var readContextFile = readFileLimited

// readFileLimited reads one byte past maxBytes so the caller can tell that
// the file was cut.
func readFileLimited(path string, maxBytes int) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, int64(maxBytes)+1))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func render(entries []Entry, totalBytes int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Context summary (%d sources, %.1fKB)\n", len(entries), float64(totalBytes)/1024)
	for i, entry := range entries {
		if i > 0 {
			b.WriteString("\n")
		}
		marker := ""
		if entry.Truncated {
			marker = ", truncated"
		}
		fmt.Fprintf(&b, "\n===== %s (%dKB%s) =====\n", entry.Path, int(math.Round(float64(entry.Size)/1024)), marker)
		b.WriteString(entry.Text)
	}
	return b.String()
}

// expandGlobs returns the matched paths in discovery order, deduplicated on
// their absolute form so that overlapping patterns attach a file once.
func expandGlobs(globs []string, logger *zap.Logger) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, pattern := range globs {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}
		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			logger.Warn("invalid context glob", zap.String("pattern", pattern), zap.Error(err))
			continue
		}
		for _, match := range matches {
			clean := filepath.Clean(match)
			if IsIgnored(clean) || IsDenylisted(clean) {
				continue
			}
			key := clean
			if abs, err := filepath.Abs(clean); err == nil {
				key = abs
			}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, clean)
		}
	}
	return out
}
