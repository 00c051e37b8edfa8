// Package loader reads option catalogues from JSONL or YAML files.
package loader

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/Dicklesworthstone/vselect/pkg/model"

	"gopkg.in/yaml.v3"
)

// Format names a catalogue file format
type Format string

const (
	FormatJSONL Format = "jsonl"
	FormatYAML  Format = "yaml"
)

// DetectFormat infers the format from a file extension. Unknown extensions
// are treated as JSONL.
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSONL
	}
}

// Loader converts records into options with a field selector
type Loader struct {
	Fields model.FieldSelector
	Format Format
	Logger *slog.Logger
}

// LoadFile reads options from path. Format "" infers from the extension.
func (l Loader) LoadFile(path string) (model.Options, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("no options found at %s", path)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open options file: %w", err)
	}
	defer file.Close()

	format := l.Format
	if format == "" {
		format = DetectFormat(path)
	}
	switch format {
	case FormatYAML:
		return l.ReadYAML(file)
	case FormatJSONL:
		return l.ReadJSONL(file)
	default:
		return nil, fmt.Errorf("unknown options format %q", format)
	}
}

func (l Loader) logger() *slog.Logger {
	if l.Logger != nil {
		return l.Logger
	}
	return slog.Default()
}

// ReadJSONL reads one JSON object per line. Malformed lines and records
// missing a value are skipped.
func (l Loader) ReadJSONL(r io.Reader) (model.Options, error) {
	var opts model.Options
	scanner := bufio.NewScanner(r)
	// Increase buffer size for large records
	const maxCapacity = 1024 * 1024 * 10 // 10MB
	buf := make([]byte, 64*1024)
	scanner.Buffer(buf, maxCapacity)

	lineNum := 0
	skipped := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(strings.TrimSpace(string(line))) == 0 {
			continue
		}

		var rec model.Record
		if err := json.Unmarshal(line, &rec); err != nil {
			skipped++
			l.logger().Debug("skipping malformed line", "line", lineNum, "err", err)
			continue
		}
		opt, err := l.Fields.Option(rec)
		if err != nil {
			skipped++
			l.logger().Debug("skipping record", "line", lineNum, "err", err)
			continue
		}
		opts = append(opts, opt)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading options file: %w", err)
	}
	if skipped > 0 {
		l.logger().Warn("skipped unusable option records", "count", skipped)
	}
	return opts, nil
}

// ReadYAML reads either a top-level sequence of records or a mapping with an
// "options" sequence.
func (l Loader) ReadYAML(r io.Reader) (model.Options, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("error reading options file: %w", err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid YAML options: %w", err)
	}
	if len(doc.Content) == 0 {
		return nil, nil
	}

	var records []model.Record
	root := doc.Content[0]
	switch root.Kind {
	case yaml.SequenceNode:
		if err := root.Decode(&records); err != nil {
			return nil, fmt.Errorf("invalid YAML options: %w", err)
		}
	case yaml.MappingNode:
		var wrapped struct {
			Options []model.Record `yaml:"options"`
		}
		if err := root.Decode(&wrapped); err != nil {
			return nil, fmt.Errorf("invalid YAML options: %w", err)
		}
		records = wrapped.Options
	default:
		return nil, fmt.Errorf("YAML options must be a list or a mapping with an options key")
	}

	opts := make(model.Options, 0, len(records))
	for i, rec := range records {
		opt, err := l.Fields.Option(rec)
		if err != nil {
			l.logger().Debug("skipping record", "index", i, "err", err)
			continue
		}
		opts = append(opts, opt)
	}
	if skipped := len(records) - len(opts); skipped > 0 {
		l.logger().Warn("skipped unusable option records", "count", skipped)
	}
	return opts, nil
}
