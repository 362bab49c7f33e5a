package tui

import (
	"context"
	"strconv"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ensigniasec/autorefresh/internal/countdown"
	"github.com/ensigniasec/autorefresh/internal/menu"
	"github.com/ensigniasec/autorefresh/internal/prefs"
	"github.com/ensigniasec/autorefresh/internal/reload"
)

// Options configures a watch session.
type Options struct {
	Address   string
	Loader    reload.Loader
	Config    *prefs.ConfigStore
	Positions *prefs.PositionStore
	Surface   SurfaceOptions
}

type promptPurpose int

const (
	// promptForAction answers a blocked menu action.
	promptForAction promptPurpose = iota
	// promptForReconfigure changes the running countdown directly.
	promptForReconfigure
)

type promptState struct {
	message string
	input   textinput.Model
	purpose promptPurpose
	reply   chan<- promptReply
}

// Model is the root Bubble Tea model. It plays the role of the page host:
// every load re-reads the stores and gets a fresh engine and panel.
type Model struct {
	ctx     context.Context
	opts    Options
	address string

	// current load
	loadID  string
	loads   int
	loading bool
	page    reload.Page
	engine  *countdown.Engine
	surface *Surface

	// reloads receives load ids from the engine's reload primitive.
	reloads chan string

	// host menu
	bridge        *bridge
	actions       menu.Actions
	actionRunning bool
	menuVisible   bool
	menuList      list.Model

	// ui state
	notice      *menu.Notice
	prompt      *promptState
	helpVisible bool
	width       int
	height      int
	quitting    bool

	// keymap for consistent keybindings
	keys keyMap
}

// NewModel constructs a Model that starts loading opts.Address on Init.
func NewModel(ctx context.Context, opts Options) Model {
	b := newBridge()
	var actions menu.Actions
	menu.New(opts.Config, b, b).Register(&actions, opts.Address)

	return Model{
		ctx:      ctx,
		opts:     opts,
		address:  opts.Address,
		loading:  true,
		reloads:  make(chan string, channelBufferSize),
		bridge:   b,
		actions:  actions,
		menuList: newActionList(actions),
		keys:     newKeyMap(),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.loadPage(),
		m.listenForReloads(),
		m.listenForPrompts(),
		m.listenForNotices(),
	)
}

// loadPage performs one page load: fetch the page, then read the interval
// and panel position for the address.
func (m Model) loadPage() tea.Cmd {
	ctx, opts, reloads := m.ctx, m.opts, m.reloads
	return func() tea.Msg {
		loadID := uuid.NewString()
		log := logrus.WithFields(logrus.Fields{"address": opts.Address, "load_id": loadID})

		page := opts.Loader.Load(ctx, opts.Address)
		if page.Err != nil {
			log.Debugf("page load failed: %v", page.Err)
		}

		reloader := countdown.ReloadFunc(func() {
			select {
			case reloads <- loadID:
			default:
				log.Warn("reload request dropped")
			}
		})
		engine, ok := countdown.Mount(ctx, opts.Config, opts.Address, reloader)
		msg := pageLoadedMsg{LoadID: loadID, Page: page}
		if !ok {
			log.Debug("no refresh interval configured")
			return msg
		}
		msg.Engine = engine
		if opts.Positions != nil {
			msg.Position, msg.HasPos = opts.Positions.Load(ctx)
		}
		return msg
	}
}

// listenForReloads returns a Tea command that waits for a reload request.
func (m Model) listenForReloads() tea.Cmd {
	return func() tea.Msg {
		return reloadMsg{LoadID: <-m.reloads}
	}
}

// listenForPrompts returns a Tea command that waits for a menu action prompt.
func (m Model) listenForPrompts() tea.Cmd {
	return func() tea.Msg {
		return <-m.bridge.prompts
	}
}

// listenForNotices returns a Tea command that waits for a menu notice.
func (m Model) listenForNotices() tea.Cmd {
	return func() tea.Msg {
		return noticeMsg{Notice: <-m.bridge.notices}
	}
}

// tick schedules the next countdown tick for the current load.
func (m Model) tick() tea.Cmd {
	loadID := m.loadID
	return tea.Tick(tickInterval, func(time.Time) tea.Msg {
		return tickMsg{LoadID: loadID}
	})
}

func (m Model) windowTitle() tea.Cmd {
	title := m.page.Title
	if title == "" {
		title = m.address
	}
	if m.engine != nil {
		title = countdown.Title(m.engine.State(), title)
	}
	return tea.SetWindowTitle(title)
}

func newPrompt(message, def string, purpose promptPurpose, reply chan<- promptReply) *promptState {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.CharLimit = 12
	ti.Width = promptWidth - 8
	ti.SetValue(def)
	ti.Focus()
	return &promptState{message: message, input: ti, purpose: purpose, reply: reply}
}

func (m Model) reconfigurePrompt() *promptState {
	def := ""
	if m.engine != nil {
		def = strconv.Itoa(m.engine.State().Interval)
	}
	return newPrompt(menu.PromptMessage(), def, promptForReconfigure, nil)
}

// Engine exposes the current load's countdown, or nil when none is mounted.
func (m Model) Engine() *countdown.Engine { return m.engine }

// Surface exposes the current load's panel, or nil when none is mounted.
func (m Model) Surface() *Surface { return m.surface }

// Loads returns how many page loads have completed.
func (m Model) Loads() int { return m.loads }
