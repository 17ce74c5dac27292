package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

var errPromptCancelled = errors.New("prompt cancelled")

type promptModel struct {
	input       textinput.Model
	defaultPath string
	value       string
	cancelled   bool
}

func newPromptModel(defaultPath string) promptModel {
	ti := textinput.New()
	ti.Prompt = "› "
	ti.Placeholder = defaultPath
	ti.CharLimit = 1024
	ti.Focus()
	return promptModel{input: ti, defaultPath: defaultPath}
}

func (m promptModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m promptModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyEnter:
			m.value = strings.TrimSpace(m.input.Value())
			if m.value == "" {
				m.value = m.defaultPath
			}
			return m, tea.Quit
		case tea.KeyCtrlC, tea.KeyEsc:
			m.cancelled = true
			return m, tea.Quit
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m promptModel) View() string {
	if m.value != "" || m.cancelled {
		return ""
	}
	return fmt.Sprintf("%s\n%s\n%s\n",
		titleStyle.Render("Path to the tsconfig of the project to migrate"),
		m.input.View(),
		statusStyle.Render(fmt.Sprintf("enter to accept (default %s) • esc to cancel", m.defaultPath)),
	)
}

// promptTSConfig asks for the tsconfig path, returning defaultPath on an
// empty answer.
func promptTSConfig(in io.Reader, out io.Writer, defaultPath string) (string, error) {
	p := tea.NewProgram(newPromptModel(defaultPath), tea.WithInput(in), tea.WithOutput(out))
	final, err := p.Run()
	if err != nil {
		return "", err
	}
	m, ok := final.(promptModel)
	if !ok || m.cancelled {
		return "", errPromptCancelled
	}
	return m.value, nil
}
