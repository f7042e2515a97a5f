// Package export writes the whole journal in the formats a reader may want
// to take elsewhere.
package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/journal/pkg/core"
)

// Serializer writes a sequence of entries in one format.
type Serializer interface {
	Serialize(w io.Writer, entries []core.Entry) error
}

// DefaultSerializers returns the standard set of serializers keyed by format.
func DefaultSerializers() map[string]Serializer {
	return map[string]Serializer{
		"json": JSONSerializer{},
		"yaml": YAMLSerializer{},
		"csv":  CSVSerializer{},
		"md":   MarkdownSerializer{},
	}
}

// Formats lists the supported format names.
func Formats() []string {
	formats := make([]string, 0, 4)
	for name := range DefaultSerializers() {
		formats = append(formats, name)
	}
	sort.Strings(formats)
	return formats
}

// Lookup returns the serializer for format. "yml" and "markdown" are aliases.
func Lookup(format string) (Serializer, error) {
	format = strings.ToLower(strings.TrimPrefix(format, "."))
	switch format {
	case "yml":
		format = "yaml"
	case "markdown":
		format = "md"
	}
	s, ok := DefaultSerializers()[format]
	if !ok {
		return nil, fmt.Errorf("unsupported export format %q (want one of %s)", format, strings.Join(Formats(), ", "))
	}
	return s, nil
}

// FormatFromPath infers the format from a file extension, defaulting to json.
func FormatFromPath(path string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if _, err := Lookup(ext); err == nil && ext != "" {
		return ext
	}
	return "json"
}

// --- JSON Serializer ---

// JSONSerializer writes the entries as the persisted document does.
type JSONSerializer struct{}

func (JSONSerializer) Serialize(w io.Writer, entries []core.Entry) error {
	if entries == nil {
		entries = []core.Entry{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(entries)
}

// --- YAML Serializer ---

// YAMLSerializer writes the entries as a YAML sequence.
type YAMLSerializer struct{}

func (YAMLSerializer) Serialize(w io.Writer, entries []core.Entry) error {
	if entries == nil {
		entries = []core.Entry{}
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(entries); err != nil {
		return err
	}
	return enc.Close()
}

// --- CSV Serializer ---

// CSVSerializer writes one row per entry with a fixed header.
type CSVSerializer struct{}

var csvHeader = []string{"id", "date", "title", "name", "source", "text"}

func (CSVSerializer) Serialize(w io.Writer, entries []core.Entry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, e := range entries {
		row := []string{strconv.FormatInt(e.ID, 10), e.Date, e.Title, e.Name, e.Source, e.Text}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// --- Markdown Serializer ---

// MarkdownSerializer writes each entry as a frontmatter block followed by
// its text.
type MarkdownSerializer struct{}

type frontmatter struct {
	ID     int64  `yaml:"id"`
	Date   string `yaml:"date"`
	Title  string `yaml:"title,omitempty"`
	Name   string `yaml:"name,omitempty"`
	Source string `yaml:"source,omitempty"`
}

func (MarkdownSerializer) Serialize(w io.Writer, entries []core.Entry) error {
	var buf bytes.Buffer
	for i, e := range entries {
		if i > 0 {
			buf.WriteString("\n")
		}
		meta, err := yaml.Marshal(frontmatter{ID: e.ID, Date: e.Date, Title: e.Title, Name: e.Name, Source: e.Source})
		if err != nil {
			return err
		}
		buf.WriteString("---\n")
		buf.Write(meta)
		buf.WriteString("---\n\n")
		buf.WriteString(strings.TrimSpace(e.Text))
		buf.WriteString("\n")
	}
	_, err := w.Write(buf.Bytes())
	return err
}
