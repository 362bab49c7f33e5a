package tui

import (
	"context"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"

	"github.com/ensigniasec/autorefresh/internal/countdown"
	"github.com/ensigniasec/autorefresh/internal/prefs"
)

// SurfaceOptions toggles the optional panel capabilities. With both off the
// panel is a fixed, always-opaque box.
type SurfaceOptions struct {
	Draggable   bool
	FadeIdle    bool
	FadeDelay   time.Duration
	FadeOpacity float64
}

// DefaultSurfaceOptions enables dragging and idle fading with the standard
// timings.
func DefaultSurfaceOptions() SurfaceOptions {
	return SurfaceOptions{
		Draggable:   true,
		FadeIdle:    true,
		FadeDelay:   defaultFadeDelay,
		FadeOpacity: defaultFadeOpacity,
	}
}

// FadeState is the panel's idle-fade status. A zero Deadline means no fade
// is pending.
type FadeState struct {
	Opaque   bool
	Deadline time.Time
}

// PanelAction is a button activated on the panel.
type PanelAction int

const (
	ActionNone PanelAction = iota
	ActionTogglePause
	ActionReset
	ActionSettings
)

// Surface is the on-screen control panel for one page load. It owns the
// panel position, drag gesture and fade state; countdown state is passed in
// when rendering.
type Surface struct {
	opts      SurfaceOptions
	loadID    string
	positions *prefs.PositionStore
	now       func() time.Time

	// placed is false while the panel sits at its default bottom-right anchor.
	placed bool
	pos    prefs.Position

	viewportW int
	viewportH int

	dragging bool
	dragOffX int
	dragOffY int
	hovering bool

	fade    FadeState
	fadeGen int
}

// NewSurface creates the panel. A stored position, when present, replaces the
// default bottom-right anchor.
func NewSurface(loadID string, opts SurfaceOptions, positions *prefs.PositionStore, stored prefs.Position, hasStored bool) *Surface {
	if opts.FadeDelay <= 0 {
		opts.FadeDelay = defaultFadeDelay
	}
	if opts.FadeOpacity <= 0 || opts.FadeOpacity > 1 {
		opts.FadeOpacity = defaultFadeOpacity
	}
	return &Surface{
		opts:      opts,
		loadID:    loadID,
		positions: positions,
		now:       time.Now,
		placed:    hasStored,
		pos:       stored,
		fade:      FadeState{Opaque: true},
	}
}

// Init arms the fade timer for a freshly mounted panel.
func (s *Surface) Init() tea.Cmd {
	return s.scheduleFade()
}

// SetViewport records the area the panel must stay within.
func (s *Surface) SetViewport(w, h int) {
	s.viewportW, s.viewportH = w, h
}

// Position returns the panel's current top-left corner, clamped to the
// viewport.
func (s *Surface) Position() prefs.Position {
	if !s.placed {
		return prefs.Position{
			Left: max(0, s.viewportW-panelWidth-anchorMargin),
			Top:  max(0, s.viewportH-panelHeight-anchorMargin),
		}
	}
	return s.clamp(s.pos.Left, s.pos.Top)
}

// Anchored reports whether the panel still sits at its default anchor.
func (s *Surface) Anchored() bool { return !s.placed }

// Dragging reports whether a drag gesture is in progress.
func (s *Surface) Dragging() bool { return s.dragging }

// Fade returns the current fade state.
func (s *Surface) Fade() FadeState { return s.fade }

// Opacity returns 1 while opaque and the configured reduced value otherwise.
func (s *Surface) Opacity() float64 {
	if s.fade.Opaque {
		return 1
	}
	return s.opts.FadeOpacity
}

func (s *Surface) clamp(left, top int) prefs.Position {
	maxLeft := max(0, s.viewportW-panelWidth)
	maxTop := max(0, s.viewportH-panelHeight)
	return prefs.Position{
		Left: min(max(left, 0), maxLeft),
		Top:  min(max(top, 0), maxTop),
	}
}

func (s *Surface) contains(x, y int) bool {
	p := s.Position()
	return x >= p.Left && x < p.Left+panelWidth && y >= p.Top && y < p.Top+panelHeight
}

func (s *Surface) inHandle(x, y int) bool {
	p := s.Position()
	return s.contains(x, y) && y-p.Top < handleRows
}

// Wake restores full opacity and restarts the fade timer.
func (s *Surface) Wake() tea.Cmd {
	s.fade.Opaque = true
	return s.scheduleFade()
}

// scheduleFade cancels any pending fade and arms a new one.
func (s *Surface) scheduleFade() tea.Cmd {
	if !s.opts.FadeIdle {
		return nil
	}
	s.fadeGen++
	gen, loadID := s.fadeGen, s.loadID
	s.fade.Deadline = s.now().Add(s.opts.FadeDelay)
	return tea.Tick(s.opts.FadeDelay, func(time.Time) tea.Msg {
		return fadeMsg{LoadID: loadID, Gen: gen}
	})
}

// handleFade applies an expired fade timer unless a later wake superseded it.
func (s *Surface) handleFade(msg fadeMsg) {
	if msg.LoadID != s.loadID || msg.Gen != s.fadeGen {
		return
	}
	s.fade.Deadline = time.Time{}
	s.fade.Opaque = false
}

// HandleMouse applies a mouse event. paused selects the pause button label
// used for hit-testing. It returns the button activated, if any, and a
// command for timers or persistence.
func (s *Surface) HandleMouse(msg tea.MouseMsg, paused bool) (PanelAction, tea.Cmd) {
	switch msg.Action {
	case tea.MouseActionMotion:
		if s.dragging {
			s.moveTo(msg.X, msg.Y)
			return ActionNone, nil
		}
		inside := s.contains(msg.X, msg.Y)
		switch {
		case inside && !s.hovering:
			s.hovering = true
			return ActionNone, s.Wake()
		case !inside && s.hovering:
			// Leaving only re-arms the timer; opacity stays as it is.
			s.hovering = false
			return ActionNone, s.scheduleFade()
		}
		return ActionNone, nil

	case tea.MouseActionPress:
		if tea.MouseEvent(msg).IsWheel() || !s.contains(msg.X, msg.Y) {
			return ActionNone, nil
		}
		s.hovering = true
		cmd := s.Wake()
		if msg.Button != tea.MouseButtonLeft {
			return ActionNone, cmd
		}
		if s.opts.Draggable && s.inHandle(msg.X, msg.Y) {
			s.beginDrag(msg.X, msg.Y)
			return ActionNone, cmd
		}
		return s.buttonAt(msg.X, msg.Y, paused), cmd

	case tea.MouseActionRelease:
		if !s.dragging {
			return ActionNone, nil
		}
		s.dragging = false
		return ActionNone, s.savePosition(s.pos)
	}
	return ActionNone, nil
}

func (s *Surface) beginDrag(x, y int) {
	p := s.Position()
	s.placed = true
	s.pos = p
	s.dragOffX = x - p.Left
	s.dragOffY = y - p.Top
	s.dragging = true
}

func (s *Surface) moveTo(x, y int) {
	s.pos = s.clamp(x-s.dragOffX, y-s.dragOffY)
}

func (s *Surface) savePosition(pos prefs.Position) tea.Cmd {
	store := s.positions
	if store == nil {
		return nil
	}
	return func() tea.Msg {
		err := store.Save(context.Background(), pos)
		if err != nil {
			logrus.Debugf("panel position not saved: %v", err)
		}
		return positionSavedMsg{Err: err}
	}
}

type panelButton struct {
	action PanelAction
	label  string
}

// buttons returns the button labels in display order.
func buttons(paused bool) []panelButton {
	pause := "[pause]"
	if paused {
		pause = "[resume]"
	}
	return []panelButton{
		{ActionTogglePause, pause},
		{ActionReset, "[reset]"},
		{ActionSettings, "[settings]"},
	}
}

// buttonAt hit-tests the button row.
func (s *Surface) buttonAt(x, y int, paused bool) PanelAction {
	p := s.Position()
	if y-p.Top != buttonRow {
		return ActionNone
	}
	col := x - p.Left - contentOffsetX
	start := 0
	for _, b := range buttons(paused) {
		end := start + lipgloss.Width(b.label)
		if col >= start && col < end {
			return b.action
		}
		start = end + 1
	}
	return ActionNone
}

// View renders the panel for st.
func (s *Surface) View(st countdown.State, expired bool) string {
	border := lipgloss.Color("69")
	text := lipgloss.Color("252")
	if !s.fade.Opaque {
		border = lipgloss.Color("240")
		text = lipgloss.Color("241")
	}
	base := lipgloss.NewStyle().Foreground(text).Faint(!s.fade.Opaque)

	hint := "drag"
	if !s.opts.Draggable {
		hint = ""
	}
	title := base.Bold(true).Render("auto refresh")
	pad := panelInnerWidth - lipgloss.Width(title) - lipgloss.Width(hint)
	handle := title + strings.Repeat(" ", max(pad, 1)) + base.Render(hint)

	label := countdown.FormatRemaining(st.Remaining)
	if expired {
		label = "reloading"
	}
	remaining := base.Render("remaining ") + base.Bold(true).Render(label)

	labels := make([]string, 0, 3)
	for _, b := range buttons(st.Paused) {
		labels = append(labels, base.Render(b.label))
	}
	row := strings.Join(labels, " ")

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(0, 1).
		Width(panelInnerWidth + 2).
		Render(lipgloss.JoinVertical(lipgloss.Left, handle, remaining, row))
}
