package resolve

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ShayCichocki/toolroute/pkg/models"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true)
	itemIndexStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))
	itemDescStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))
	inputErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))
	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))
	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
)

// TUIChannel asks for each choice in a small bubbletea prompt.
type TUIChannel struct {
	opts []tea.ProgramOption
}

// NewTUIChannel creates a TUI channel. opts are passed to every program it runs.
func NewTUIChannel(opts ...tea.ProgramOption) *TUIChannel {
	return &TUIChannel{opts: opts}
}

// Choose implements Channel.
func (t *TUIChannel) Choose(ctx context.Context, setIndex int, available []models.ProviderDescriptor) ([]string, error) {
	opts := append([]tea.ProgramOption{tea.WithContext(ctx)}, t.opts...)
	final, err := tea.NewProgram(newChoiceModel(setIndex, available), opts...).Run()
	if err != nil {
		if ctx.Err() != nil || errors.Is(err, tea.ErrInterrupted) {
			return nil, ErrCancelled
		}
		return nil, fmt.Errorf("run choice prompt: %w", err)
	}

	m, ok := final.(*choiceModel)
	if !ok || m.cancelled {
		return nil, ErrCancelled
	}
	return m.selected, nil
}

// choiceModel is the bubbletea model of one capability set prompt.
type choiceModel struct {
	setIndex  int
	available []models.ProviderDescriptor
	input     textinput.Model
	errMsg    string

	selected  []string
	cancelled bool
}

func newChoiceModel(setIndex int, available []models.ProviderDescriptor) *choiceModel {
	ti := textinput.New()
	ti.Placeholder = "1,2 or all"
	ti.Focus()
	ti.CharLimit = 100
	ti.Width = 40

	return &choiceModel{
		setIndex:  setIndex,
		available: available,
		input:     ti,
	}
}

// Init implements tea.Model.
func (m *choiceModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m *choiceModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "ctrl+c", "esc":
			m.cancelled = true
			return m, tea.Quit
		case "enter":
			value := m.input.Value()
			if isCancelWord(value) {
				m.cancelled = true
				return m, tea.Quit
			}
			ids, err := ParseSelection(m.setIndex, value, m.available)
			if err != nil {
				var inputErr *ResolutionInputError
				if errors.As(err, &inputErr) {
					m.errMsg = inputErr.Reason
				} else {
					m.errMsg = err.Error()
				}
				m.input.Reset()
				return m, nil
			}
			m.selected = ids
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m *choiceModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("Several apps can handle part %d of this task", m.setIndex+1)))
	b.WriteString("\n\n")
	for i, p := range m.available {
		b.WriteString(itemIndexStyle.Render(fmt.Sprintf("%d)", i+1)))
		b.WriteString(" ")
		b.WriteString(p.Name)
		if p.Description != "" {
			b.WriteString(" ")
			b.WriteString(itemDescStyle.Render(p.Description))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.input.View())
	if m.errMsg != "" {
		b.WriteString("\n")
		b.WriteString(inputErrorStyle.Render(m.errMsg))
	}
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("enter: confirm  esc: cancel"))
	return boxStyle.Render(b.String()) + "\n"
}
