package tui

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ensigniasec/autorefresh/internal/countdown"
	"github.com/ensigniasec/autorefresh/internal/menu"
	"github.com/ensigniasec/autorefresh/internal/validate"
)

// handleKey processes key bindings and returns updated model and command.
func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) { // nolint:ireturn,gocyclo,cyclop
	if msg.Type == tea.KeyCtrlC {
		m.quitting = true
		return m, tea.Quit
	}

	if m.prompt != nil {
		return m.handlePromptKey(msg)
	}
	if m.menuVisible {
		return m.handleMenuKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.helpVisible = !m.helpVisible
		return m, nil

	case key.Matches(msg, m.keys.Escape):
		m.helpVisible = false
		m.notice = nil
		return m, nil

	case key.Matches(msg, m.keys.Pause):
		return m.panelKey(ActionTogglePause)

	case key.Matches(msg, m.keys.Reset):
		return m.panelKey(ActionReset)

	case key.Matches(msg, m.keys.Settings):
		return m.panelKey(ActionSettings)

	case key.Matches(msg, m.keys.Menu):
		if !m.actionRunning {
			m.menuVisible = true
		}
		return m, nil

	case key.Matches(msg, m.keys.SetNext):
		return m.runNamedAction(menu.ActionSetInterval)

	case key.Matches(msg, m.keys.ClearNext):
		return m.runNamedAction(menu.ActionClearInterval)

	case key.Matches(msg, m.keys.Reload):
		return m.startReload()
	}

	return m, nil
}

// panelKey treats a panel shortcut like a press on the panel: it wakes the
// panel, then runs the button.
func (m Model) panelKey(action PanelAction) (Model, tea.Cmd) {
	if m.surface == nil {
		return m, nil
	}
	wake := m.surface.Wake()
	var cmd tea.Cmd
	m, cmd = m.applyPanelAction(action)
	return m, tea.Batch(wake, cmd)
}

func (m Model) handlePromptKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	p := m.prompt
	switch {
	case key.Matches(msg, m.keys.Enter):
		m.prompt = nil
		return m.submitPrompt(p, p.input.Value(), nil)
	case key.Matches(msg, m.keys.Escape):
		m.prompt = nil
		return m.submitPrompt(p, "", menu.ErrCancelled)
	}
	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	return m, cmd
}

// submitPrompt hands the answer to the waiting action, or applies it to the
// running countdown.
func (m Model) submitPrompt(p *promptState, value string, err error) (Model, tea.Cmd) {
	if p.purpose == promptForAction {
		p.reply <- promptReply{Value: value, Err: err}
		return m, nil
	}

	if err != nil {
		m.notice = &menu.Notice{Kind: menu.KindValidation, Message: menu.ValidationMessage()}
		return m, nil
	}
	secs, err := validate.ParseInterval(value)
	if err != nil {
		m.notice = &menu.Notice{Kind: menu.KindValidation, Message: menu.ValidationMessage()}
		return m, nil
	}
	if m.engine == nil {
		return m.saveForNextLoad(secs)
	}
	err = m.engine.Reconfigure(m.ctx, secs)
	switch {
	case errors.Is(err, countdown.ErrExpired):
		return m.saveForNextLoad(secs)
	case err != nil:
		m.notice = &menu.Notice{Kind: menu.KindWriteFailed, Message: fmt.Sprintf("Could not save the refresh interval: %v", err)}
		return m, nil
	}
	m.notice = &menu.Notice{Kind: menu.KindSuccess, Message: fmt.Sprintf("Refresh interval updated to %d seconds.", secs)}
	return m, m.windowTitle()
}

// saveForNextLoad stores an interval when there is no live countdown to
// apply it to, so it takes effect on the next load.
func (m Model) saveForNextLoad(secs int) (Model, tea.Cmd) {
	if err := m.opts.Config.Put(m.ctx, m.address, secs); err != nil {
		m.notice = &menu.Notice{Kind: menu.KindWriteFailed, Message: fmt.Sprintf("Could not save the refresh interval: %v", err)}
		return m, nil
	}
	m.notice = &menu.Notice{
		Kind:    menu.KindSuccess,
		Message: fmt.Sprintf("This page will refresh every %d seconds, starting with the next reload.", secs),
	}
	return m, nil
}

func (m Model) handleMenuKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Escape), key.Matches(msg, m.keys.Menu):
		m.menuVisible = false
		return m, nil
	case key.Matches(msg, m.keys.Enter):
		m.menuVisible = false
		it, ok := m.menuList.SelectedItem().(actionItem)
		if !ok {
			return m, nil
		}
		return m.runNamedAction(it.Name)
	}
	var cmd tea.Cmd
	m.menuList, cmd = m.menuList.Update(msg)
	return m, cmd
}

// runNamedAction starts a registered menu action off the update loop.
func (m Model) runNamedAction(name string) (Model, tea.Cmd) {
	if m.actionRunning {
		return m, nil
	}
	act, ok := m.actions.Find(name)
	if !ok {
		return m, nil
	}
	m.actionRunning = true
	ctx := m.ctx
	return m, func() tea.Msg {
		return actionDoneMsg{Result: act.Run(ctx)}
	}
}

func (m Model) overlayOpen() bool {
	return m.prompt != nil || m.menuVisible || m.helpVisible
}

// bodySize returns the area available to the page and the panel.
func (m Model) bodySize() (int, int) {
	w, h := m.width, m.height
	if w <= 0 {
		w = fallbackWidth
	}
	if h <= 0 {
		h = fallbackHeight
	}
	return w, max(0, h-chromeLines)
}
