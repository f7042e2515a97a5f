package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/journal/pkg/core"
)

// run executes the root command with args and stdin, resetting the flag
// globals first because cobra keeps them between executions.
func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	verbose, configPath, storePath, storeOrder = false, "", "", ""
	addText, addTitle, addName, addTUI = "", "", "", false
	listFormat = "text"
	exportFormat, exportOut = "", ""

	var out, errOut bytes.Buffer
	rootCmd.SetArgs(args)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	err := rootCmd.Execute()
	return out.String(), err
}

func journalPath(t *testing.T) string {
	return filepath.Join(t.TempDir(), "data", "reflections.json")
}

func TestAdd_SavesAndCounts(t *testing.T) {
	path := journalPath(t)

	out, err := run(t, "", "--path", path, "add", "--text", "Interfaces are satisfied implicitly.")
	require.NoError(t, err)
	assert.Contains(t, out, "Entry #1 added")

	out, err = run(t, "", "--path", path, "add", "Errors", "are", "values", "in", "Go.")
	require.NoError(t, err)
	assert.Contains(t, out, "Entry #2 added")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc []core.Entry
	require.NoError(t, json.Unmarshal(data, &doc))
	require.Len(t, doc, 2)
	assert.Equal(t, "cli", doc[0].Source)
	assert.Equal(t, "Errors are values in Go.", doc[1].Text)
}

func TestAdd_Prompt(t *testing.T) {
	path := journalPath(t)

	out, err := run(t, "  Learned how select picks a ready case.\n", "--path", path, "add", "--name", "Ana")
	require.NoError(t, err)
	assert.Contains(t, out, promptText)
	assert.Contains(t, out, "Entry #1 added")

	out, err = run(t, "", "--path", path, "list", "--format", "json")
	require.NoError(t, err)
	var entries []core.Entry
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "Learned how select picks a ready case.", entries[0].Text)
	assert.Equal(t, "Ana", entries[0].Name)
}

func TestAdd_ExitCodes(t *testing.T) {
	path := journalPath(t)

	_, err := run(t, "", "--path", path, "add", "--text", "short")
	require.Error(t, err)
	assert.Equal(t, 2, exitCode(err))
	assert.Contains(t, err.Error(), "too short")

	_, err = run(t, "\n", "--path", path, "add")
	require.Error(t, err)
	assert.Equal(t, 2, exitCode(err))
	assert.ErrorIs(t, err, core.ErrEmptyInput)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "rejected input must not create the document")

	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))
	_, err = run(t, "", "--path", filepath.Join(blocker, "reflections.json"), "add", "--text", "nowhere to store this")
	require.Error(t, err)
	assert.Equal(t, 1, exitCode(err))
}

func TestList_Text(t *testing.T) {
	path := journalPath(t)

	out, err := run(t, "", "--path", path, "list")
	require.NoError(t, err)
	assert.Equal(t, "No reflections yet.\n", out)

	_, err = run(t, "", "--path", path, "add", "--text", "first reflection text", "--title", "Week 1")
	require.NoError(t, err)
	_, err = run(t, "", "--path", path, "add", "--text", "second reflection text", "--title", "Week 2")
	require.NoError(t, err)

	out, err = run(t, "", "--path", path, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "#1")
	assert.Contains(t, out, "Week 1 (Anonymous)\n    first reflection text\n")

	_, err = run(t, "", "--path", path, "list", "--format", "xml")
	assert.Error(t, err)
}

func TestExport_CSVFile(t *testing.T) {
	path := journalPath(t)
	_, err := run(t, "", "--path", path, "add", "--text", "exported, with a comma")
	require.NoError(t, err)

	outFile := filepath.Join(t.TempDir(), "journal.csv")
	_, err = run(t, "", "--path", path, "export", "--out", outFile)
	require.NoError(t, err)

	f, err := os.Open(outFile)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "exported, with a comma", records[1][5])
}

func TestExport_UnknownFormat(t *testing.T) {
	_, err := run(t, "", "--path", journalPath(t), "export", "--format", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported export format")
}

func TestVersion(t *testing.T) {
	out, err := run(t, "", "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "journal version "))
}

func TestEditorModel(t *testing.T) {
	var m tea.Model = newEditorModel()

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("goroutines are cheap")})
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	require.NotNil(t, cmd)

	em := m.(editorModel)
	assert.True(t, em.submitted)
	assert.Equal(t, "goroutines are cheap", em.area.Value())
	assert.Empty(t, em.View())

	m, _ = newEditorModel().Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.True(t, m.(editorModel).cancelled)
}

// busyRepository answers List as if another writer kept appending after
// every Append it served.
type busyRepository struct {
	entries []core.Entry
}

func (r *busyRepository) Initialize(ctx context.Context) error { return nil }

func (r *busyRepository) List(ctx context.Context) ([]core.Entry, error) {
	return append(core.CloneEntries(r.entries), core.Entry{ID: 999, Text: "written by someone else"}), nil
}

func (r *busyRepository) Append(ctx context.Context, e core.Entry) (core.AppendResult, error) {
	r.entries = append(r.entries, e)
	return core.AppendResult{Entry: e, Entries: core.CloneEntries(r.entries)}, nil
}

func TestSubmit_CountsFromAppend(t *testing.T) {
	svc := core.NewService(&busyRepository{})
	var out bytes.Buffer

	require.NoError(t, submit(context.Background(), svc, core.Input{Text: "counted at append time"}, &out))
	assert.Contains(t, out.String(), "Entry #1 added")

	out.Reset()
	require.NoError(t, submit(context.Background(), svc, core.Input{Text: "still counted at append time"}, &out))
	assert.Contains(t, out.String(), "Entry #2 added")
}
