package tui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ensigniasec/autorefresh/internal/menu"
)

// actionItem is the list item backing a registered menu action.
type actionItem struct {
	Name  string
	Label string
}

// List item interface methods.
func (it actionItem) Title() string       { return it.Label }
func (it actionItem) Description() string { return it.Name }
func (it actionItem) FilterValue() string { return it.Label }

// actionDelegate renders one action per line with a selection marker.
type actionDelegate struct{}

func (d actionDelegate) Height() int                             { return 1 }
func (d actionDelegate) Spacing() int                            { return 0 }
func (d actionDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (d actionDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	it, ok := listItem.(actionItem)
	if !ok {
		return
	}
	prefix := "  "
	style := lipgloss.NewStyle()
	if index == m.Index() {
		prefix = "> "
		style = style.Foreground(lipgloss.Color("69")).Bold(true)
	}
	_, _ = fmt.Fprint(w, style.Render(fmt.Sprintf("%s%s", prefix, it.Label)))
}

func newActionList(actions menu.Actions) list.Model {
	items := make([]list.Item, 0, len(actions))
	for _, a := range actions {
		items = append(items, actionItem{Name: a.Name, Label: a.Title})
	}
	lst := list.New(items, actionDelegate{}, promptWidth-4, len(items)+4)
	lst.Title = "Menu"
	lst.SetShowStatusBar(false)
	lst.SetFilteringEnabled(false)
	lst.SetShowHelp(false)
	lst.SetShowPagination(false)
	return lst
}
