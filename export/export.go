// Package export renders a catalog to JSON, indented
// text, and CSV. The catalog exposes stable iteration
// order, so all formats are deterministic for a given
// run.
package export

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	json "github.com/goccy/go-json"
	"github.com/valyala/fasttemplate"

	"github.com/byte4ever/service_catalog/catalog"
)

// Format selects which files Save writes.
type Format string

// Supported formats.
const (
	FormatAll  Format = "all"
	FormatJSON Format = "json"
	FormatText Format = "text"
	FormatCSV  Format = "csv"
)

// DefaultNamePattern is the output file name pattern.
// Placeholders: {format}, {timestamp}, {group}.
const DefaultNamePattern = "services_{format}_{timestamp}"

// Metadata describes the run that produced a catalog,
// embedded in the JSON export.
type Metadata struct {
	// CollectedAt is the wall clock time of the run.
	CollectedAt string `json:"collected_at"`
	// Group is the traversed root group.
	Group string `json:"group"`
	// Statistics carries the run counters.
	Statistics map[string]int `json:"statistics"`
}

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatAll, FormatJSON, FormatText, FormatCSV:
		return Format(s), nil
	default:
		return "", fmt.Errorf(
			"unknown format %q", s,
		)
	}
}

// JSON writes the catalog with metadata as indented
// JSON. Project, grouping, and service keys keep
// insertion order.
func JSON(
	w io.Writer,
	cat *catalog.Catalog,
	meta Metadata,
) error {
	const errCtx = "exporting json"

	document := struct {
		Metadata Metadata         `json:"metadata"`
		Projects *catalog.Catalog `json:"projects"`
	}{
		Metadata: meta,
		Projects: cat,
	}

	data, err := json.MarshalIndent(
		document, "", "  ",
	)
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	return nil
}

// Save renders the catalog into dir, one file per
// selected format, with names expanded from pattern
// (see DefaultNamePattern). It returns the written
// file paths.
func Save(
	dir string,
	pattern string,
	format Format,
	cat *catalog.Catalog,
	meta Metadata,
) ([]string, error) {
	const errCtx = "saving catalog"

	if pattern == "" {
		pattern = DefaultNamePattern
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf(
			"%s: %w", errCtx, err,
		)
	}

	timestamp := time.Now().Format("20060102_150405")

	var written []string

	save := func(
		f Format,
		ext string,
		render func(io.Writer) error,
	) error {
		if format != FormatAll && format != f {
			return nil
		}

		name := expandName(
			pattern, f, timestamp, meta.Group,
		)
		path := filepath.Join(dir, name+"."+ext)

		if err := writeFile(path, render); err != nil {
			return fmt.Errorf(
				"%s: %s: %w", errCtx, path, err,
			)
		}

		slog.Info(
			"catalog written",
			"format", string(f),
			"path", path,
		)

		written = append(written, path)

		return nil
	}

	if err := save(
		FormatJSON, "json",
		func(w io.Writer) error {
			return JSON(w, cat, meta)
		},
	); err != nil {
		return written, err
	}

	if err := save(
		FormatText, "txt",
		func(w io.Writer) error {
			return Text(w, cat)
		},
	); err != nil {
		return written, err
	}

	if err := save(
		FormatCSV, "csv",
		func(w io.Writer) error {
			return CSV(w, cat)
		},
	); err != nil {
		return written, err
	}

	return written, nil
}

// expandName substitutes pattern placeholders with
// fasttemplate; unknown placeholders expand to empty.
func expandName(
	pattern string,
	format Format,
	timestamp string,
	group string,
) string {
	tpl := fasttemplate.New(pattern, "{", "}")

	return tpl.ExecuteString(map[string]any{
		"format":    string(format),
		"timestamp": timestamp,
		"group":     group,
	})
}

func writeFile(
	path string,
	render func(io.Writer) error,
) (retErr error) {
	fi, err := os.Create(path) //nolint:gosec // path built from CLI flags
	if err != nil {
		return err
	}

	defer func() {
		if closeErr := fi.Close(); closeErr != nil &&
			retErr == nil {
			retErr = closeErr
		}
	}()

	return render(fi)
}
