package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/journal/pkg/core"
)

var sample = []core.Entry{
	{ID: 1, Date: "2026-03-01T10:00:00Z", Title: "Weekly Reflection", Text: "Maps are not safe for concurrent writes.", Source: "cli", Name: "Ana"},
	{ID: 2, Date: "2026-03-08T10:00:00Z", Title: "Week two", Text: "A text with, commas and \"quotes\"\nand a newline.", Source: "api", Name: "Bo"},
}

func serialize(t *testing.T, format string, entries []core.Entry) []byte {
	t.Helper()
	s, err := Lookup(format)
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, s.Serialize(&buf, entries))
	return buf.Bytes()
}

func TestJSON(t *testing.T) {
	var got []core.Entry
	require.NoError(t, json.Unmarshal(serialize(t, "json", sample), &got))
	assert.Equal(t, sample, got)

	assert.JSONEq(t, `[]`, string(serialize(t, "json", nil)))
}

func TestYAML(t *testing.T) {
	var got []core.Entry
	require.NoError(t, yaml.Unmarshal(serialize(t, "yml", sample), &got))
	assert.Equal(t, sample, got)
}

func TestCSV(t *testing.T) {
	records, err := csv.NewReader(bytes.NewReader(serialize(t, "csv", sample))).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, csvHeader, records[0])
	assert.Equal(t, []string{"2", "2026-03-08T10:00:00Z", "Week two", "Bo", "api", sample[1].Text}, records[2])
}

func TestMarkdown(t *testing.T) {
	out := string(serialize(t, "markdown", sample[:1]))
	want := "---\n" +
		"id: 1\n" +
		"date: \"2026-03-01T10:00:00Z\"\n" +
		"title: Weekly Reflection\n" +
		"name: Ana\n" +
		"source: cli\n" +
		"---\n\n" +
		"Maps are not safe for concurrent writes.\n"
	assert.Equal(t, want, out)

	two := string(serialize(t, "md", sample))
	assert.Equal(t, 4, bytes.Count([]byte(two), []byte("---\n")))
}

func TestLookup(t *testing.T) {
	_, err := Lookup("xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "csv, json, md, yaml")

	_, err = Lookup(".JSON")
	assert.NoError(t, err)
}

func TestFormatFromPath(t *testing.T) {
	assert.Equal(t, "csv", FormatFromPath("out/journal.csv"))
	assert.Equal(t, "md", FormatFromPath("journal.md"))
	assert.Equal(t, "yml", FormatFromPath("journal.yml"))
	assert.Equal(t, "json", FormatFromPath("journal.txt"))
	assert.Equal(t, "json", FormatFromPath("journal"))
}
