package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"ngstandalone/internal/core/ports"
)

type phaseState int

const (
	phasePending phaseState = iota
	phaseRunning
	phaseDone
	phaseFailed
	phaseAborted
)

type phaseDoneMsg struct {
	index   int
	err     error
	elapsed time.Duration
}

// progressModel runs phases one after another and shows a spinner next to
// the running one. The first failure stops the run.
type progressModel struct {
	ctx     context.Context
	cancel  context.CancelFunc
	phases  []ports.Phase
	states  []phaseState
	elapsed []time.Duration
	current int
	err     error
	spinner spinner.Model
}

func newProgressModel(ctx context.Context, phases []ports.Phase) progressModel {
	ctx, cancel := context.WithCancel(ctx)
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = spinnerStyle
	states := make([]phaseState, len(phases))
	if len(states) > 0 {
		states[0] = phaseRunning
	}
	return progressModel{
		ctx:     ctx,
		cancel:  cancel,
		phases:  phases,
		states:  states,
		elapsed: make([]time.Duration, len(phases)),
		spinner: s,
	}
}

func (m progressModel) Init() tea.Cmd {
	if len(m.phases) == 0 {
		return tea.Quit
	}
	return tea.Batch(m.spinner.Tick, m.runPhase(0))
}

func (m progressModel) runPhase(i int) tea.Cmd {
	phase := m.phases[i]
	ctx := m.ctx
	return func() tea.Msg {
		start := time.Now()
		err := phase.Run(ctx)
		return phaseDoneMsg{index: i, err: err, elapsed: time.Since(start)}
	}
}

func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case phaseDoneMsg:
		m.elapsed[msg.index] = msg.elapsed
		if msg.err != nil {
			m.states[msg.index] = phaseFailed
			for i := msg.index + 1; i < len(m.states); i++ {
				m.states[i] = phaseAborted
			}
			m.err = msg.err
			m.cancel()
			return m, tea.Quit
		}
		m.states[msg.index] = phaseDone
		m.current = msg.index + 1
		if m.current >= len(m.phases) {
			m.cancel()
			return m, tea.Quit
		}
		m.states[m.current] = phaseRunning
		return m, m.runPhase(m.current)
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			// The running phase observes the cancellation; its result ends
			// the program.
			m.cancel()
		}
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m progressModel) View() string {
	var b strings.Builder
	for i, phase := range m.phases {
		b.WriteString(m.mark(i))
		b.WriteString(" ")
		b.WriteString(phase.Name)
		if m.states[i] == phaseDone || m.states[i] == phaseFailed {
			b.WriteString(statusStyle.Render(fmt.Sprintf(" %s", m.elapsed[i].Round(time.Millisecond))))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m progressModel) mark(i int) string {
	switch m.states[i] {
	case phaseRunning:
		return m.spinner.View()
	case phaseDone:
		return successStyle.Render("✓")
	case phaseFailed:
		return errorStyle.Render("✗")
	case phaseAborted:
		return statusStyle.Render("-")
	default:
		return statusStyle.Render("·")
	}
}

func runInteractive(ctx context.Context, in io.Reader, out io.Writer, phases []ports.Phase) error {
	p := tea.NewProgram(newProgressModel(ctx, phases), tea.WithInput(in), tea.WithOutput(out))
	final, err := p.Run()
	if err != nil {
		return err
	}
	if m, ok := final.(progressModel); ok {
		return m.err
	}
	return nil
}

// runPlain is the non-terminal fallback: one line per finished phase.
func runPlain(ctx context.Context, out io.Writer, phases []ports.Phase) error {
	for _, phase := range phases {
		start := time.Now()
		if err := phase.Run(ctx); err != nil {
			fmt.Fprintf(out, "%-8s failed\n", phase.Name)
			return err
		}
		fmt.Fprintf(out, "%-8s ok (%s)\n", phase.Name, time.Since(start).Round(time.Millisecond))
	}
	return nil
}
