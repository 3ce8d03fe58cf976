package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// GraphListModel - Interactive selection over persisted graph names (-l)
// =============================================================================

// GraphListModel is the bubbletea model backing the -l flag: a flat,
// cursor-navigable list of graph names stored in the database, the same
// shape as the teacher's manifest picker but over one column instead of
// name/language pairs.
type GraphListModel struct {
	Names    []string
	Cursor   int
	Selected string
	quit     bool
}

// NewGraphListModel creates a new graph list model.
func NewGraphListModel(names []string) GraphListModel {
	return GraphListModel{Names: names}
}

func (m GraphListModel) Init() tea.Cmd {
	return nil
}

func (m GraphListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quit = true
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
			}
		case "down", "j":
			if m.Cursor < len(m.Names)-1 {
				m.Cursor++
			}
		case "enter":
			m.Selected = m.Names[m.Cursor]
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m GraphListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Stored graphs"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("arrows: navigate  enter: select  q: quit"))
	b.WriteString("\n\n")

	for i, name := range m.Names {
		cursor := "  "
		if i == m.Cursor {
			cursor = "> "
		}
		line := fmt.Sprintf("%s%s", cursor, name)
		if i == m.Cursor {
			b.WriteString(listSelectedStyle.Render(line))
		} else {
			b.WriteString(listNormalStyle.Render(line))
		}
		b.WriteString("\n")
	}

	return b.String()
}

// runGraphListModel drives the interactive picker for -l over the given
// names, printing the selected name (if any) once the program exits.
func runGraphListModel(names []string) error {
	p := tea.NewProgram(NewGraphListModel(names))
	final, err := p.Run()
	if err != nil {
		return err
	}
	if m, ok := final.(GraphListModel); ok && m.Selected != "" {
		printKeyValue("selected", m.Selected)
	}
	return nil
}
