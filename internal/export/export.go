// Package export writes extracted profiles as JSON or CSV.
package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xkilldash9x/tinderscope/api/schemas"
)

// Output formats.
const (
	FormatJSON  = "json"
	FormatCSV   = "csv"
	FormatTable = "table"
)

// Writer receives profiles and finalizes the output on Close.
type Writer interface {
	Write(p *schemas.ExtractedProfile) error
	Close() error
}

// nopWriteCloser keeps Close from closing stdout.
type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

// New creates a writer for format. An empty path or "-" writes to stdout.
func New(format, outputPath string) (Writer, error) {
	switch format {
	case FormatJSON, FormatCSV, FormatTable:
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}

	var w io.WriteCloser
	if outputPath == "" || outputPath == "-" {
		w = nopWriteCloser{os.Stdout}
	} else {
		if dir := filepath.Dir(outputPath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create output directory %s: %w", dir, err)
			}
		}
		f, err := os.Create(outputPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create output file %s: %w", outputPath, err)
		}
		w = f
	}
	return NewWriter(format, w)
}

// NewWriter wraps w, taking ownership of it.
func NewWriter(format string, w io.WriteCloser) (Writer, error) {
	switch format {
	case FormatJSON:
		return newJSONWriter(w), nil
	case FormatCSV:
		return newFieldWriter(w), nil
	case FormatTable:
		return newTableWriter(w), nil
	default:
		w.Close()
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// DefaultFilename names the output of a single scraped profile, e.g.
// tinder_profile_Mary_Jane_20240501_120000.json. The table format uses the csv extension.
func DefaultFilename(p *schemas.ExtractedProfile, format string, now time.Time) string {
	name := "unknown"
	if p != nil && strings.TrimSpace(p.Name) != "" {
		name = strings.ReplaceAll(strings.TrimSpace(p.Name), " ", "_")
		name = strings.Map(func(r rune) rune {
			if r == '/' || r == '\\' || r == os.PathSeparator {
				return '_'
			}
			return r
		}, name)
	}
	ext := format
	if format == FormatTable {
		ext = FormatCSV
	}
	return fmt.Sprintf("tinder_profile_%s_%s.%s", name, now.Format("20060102_150405"), ext)
}

func joinList(items []string) string { return strings.Join(items, ", ") }

func formatInt(v *int) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(*v)
}

func formatPrompts(prompts []schemas.Prompt) string {
	parts := make([]string, 0, len(prompts))
	for _, p := range prompts {
		parts = append(parts, p.Question+": "+p.Answer)
	}
	return strings.Join(parts, " | ")
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
