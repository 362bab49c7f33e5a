package tui

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/ensigniasec/autorefresh/internal/countdown"
)

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) { // nolint:ireturn,gocyclo,cyclop
	switch x := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = x.Width, x.Height
		if m.surface != nil {
			m.surface.SetViewport(m.bodySize())
		}
		m.menuList.SetSize(promptWidth-4, len(m.actions)+4)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(x)

	case tea.MouseMsg:
		if m.overlayOpen() || m.surface == nil || m.engine == nil {
			return m, nil
		}
		action, cmd := m.surface.HandleMouse(x, m.engine.State().Paused)
		var actionCmd tea.Cmd
		m, actionCmd = m.applyPanelAction(action)
		return m, tea.Batch(cmd, actionCmd)

	case pageLoadedMsg:
		return m.mount(x)

	case tickMsg:
		if x.LoadID != m.loadID || m.engine == nil {
			return m, nil
		}
		if m.prompt != nil {
			// The countdown holds while a prompt waits for input.
			return m, m.tick()
		}
		if m.engine.Tick() {
			// The reload request is already queued; no further ticks.
			return m, m.windowTitle()
		}
		return m, tea.Batch(m.tick(), m.windowTitle())

	case fadeMsg:
		if m.surface != nil {
			m.surface.handleFade(x)
		}
		return m, nil

	case reloadMsg:
		if x.LoadID != m.loadID {
			return m, m.listenForReloads()
		}
		var cmd tea.Cmd
		m, cmd = m.startReload()
		return m, tea.Batch(cmd, m.listenForReloads())

	case positionSavedMsg:
		// Position memory is best-effort.
		return m, nil

	case promptRequest:
		m.menuVisible = false
		m.prompt = newPrompt(x.Message, x.Default, promptForAction, x.Reply)
		return m, tea.Batch(textinput.Blink, m.listenForPrompts())

	case noticeMsg:
		n := x.Notice
		m.notice = &n
		return m, m.listenForNotices()

	case actionDoneMsg:
		m.actionRunning = false
		return m, nil
	}

	if m.prompt != nil {
		var cmd tea.Cmd
		m.prompt.input, cmd = m.prompt.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

// mount installs a finished page load. Anything belonging to the previous
// load is dropped.
func (m Model) mount(x pageLoadedMsg) (Model, tea.Cmd) {
	m.loading = false
	m.loadID = x.LoadID
	m.loads++
	m.page = x.Page
	m.engine = x.Engine
	m.surface = nil
	if m.prompt != nil && m.prompt.purpose == promptForReconfigure {
		m.prompt = nil
	}

	logrus.WithFields(logrus.Fields{
		"address": m.address,
		"load_id": m.loadID,
	}).Debugf("page load %d complete", m.loads)

	if m.engine == nil {
		return m, m.windowTitle()
	}
	m.surface = NewSurface(m.loadID, m.opts.Surface, m.opts.Positions, x.Position, x.HasPos)
	m.surface.SetViewport(m.bodySize())
	return m, tea.Batch(m.surface.Init(), m.tick(), m.windowTitle())
}

// startReload discards the current load and starts the next one.
func (m Model) startReload() (Model, tea.Cmd) {
	if m.loading {
		return m, nil
	}
	m.loading = true
	m.engine = nil
	m.surface = nil
	return m, m.loadPage()
}

// applyPanelAction runs a panel button against the countdown.
func (m Model) applyPanelAction(action PanelAction) (Model, tea.Cmd) {
	if m.engine == nil || m.engine.Phase() == countdown.Expired {
		return m, nil
	}
	switch action {
	case ActionTogglePause:
		m.engine.TogglePause()
		return m, m.windowTitle()
	case ActionReset:
		m.engine.Reset()
		return m, m.windowTitle()
	case ActionSettings:
		m.prompt = m.reconfigurePrompt()
		return m, textinput.Blink
	case ActionNone:
	}
	return m, nil
}
