package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// editorModel is a single textarea that submits on ctrl+s.
type editorModel struct {
	area      textarea.Model
	submitted bool
	cancelled bool
}

func newEditorModel() editorModel {
	ta := textarea.New()
	ta.Placeholder = "What did you learn this week?"
	ta.SetWidth(72)
	ta.SetHeight(8)
	ta.CharLimit = 0
	ta.Focus()
	return editorModel{area: ta}
}

func (m editorModel) Init() tea.Cmd {
	return textarea.Blink
}

func (m editorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "ctrl+s":
			m.submitted = true
			return m, tea.Quit
		case "esc", "ctrl+c":
			m.cancelled = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.area, cmd = m.area.Update(msg)
	return m, cmd
}

func (m editorModel) View() string {
	if m.submitted || m.cancelled {
		return ""
	}
	return fmt.Sprintf("%s\n\n%s\n\n%s\n",
		titleStyle.Render(promptText),
		m.area.View(),
		helpStyle.Render("ctrl+s save • esc cancel"),
	)
}

// promptTUI runs the editor and returns the text. Cancelling returns "".
func promptTUI(in io.Reader, out io.Writer) (string, error) {
	p := tea.NewProgram(newEditorModel(), tea.WithInput(in), tea.WithOutput(out))
	final, err := p.Run()
	if err != nil {
		return "", fmt.Errorf("editor failed: %w", err)
	}
	m := final.(editorModel)
	if m.cancelled {
		return "", nil
	}
	return m.area.Value(), nil
}
