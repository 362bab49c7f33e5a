package tui

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ensigniasec/autorefresh/internal/countdown"
	"github.com/ensigniasec/autorefresh/internal/menu"
	"github.com/ensigniasec/autorefresh/internal/prefs"
	"github.com/ensigniasec/autorefresh/internal/reload"
	"github.com/ensigniasec/autorefresh/internal/storage"
)

const testAddr = "https://example.com/dashboard"

type stubLoader struct {
	mu    sync.Mutex
	calls int
}

func (l *stubLoader) Load(_ context.Context, address string) reload.Page {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
	return reload.Page{
		Address:  address,
		Title:    "Dashboard",
		Status:   "200 OK",
		Body:     []string{"hello", "world"},
		LoadedAt: time.Now(),
	}
}

func (l *stubLoader) Calls() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls
}

type harness struct {
	st     *storage.MemoryStore
	config *prefs.ConfigStore
	loader *stubLoader
}

func newHarness(t *testing.T, seconds int) (*harness, Model) {
	t.Helper()
	st := storage.NewMemoryStore()
	h := &harness{st: st, config: prefs.NewConfigStore(st), loader: &stubLoader{}}
	if seconds > 0 {
		require.NoError(t, h.config.Put(context.Background(), testAddr, seconds))
	}
	m := NewModel(context.Background(), Options{
		Address:   testAddr,
		Loader:    h.loader,
		Config:    h.config,
		Positions: prefs.NewPositionStore(st),
		Surface:   DefaultSurfaceOptions(),
	})
	m = step(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})
	return h, m
}

// step feeds msg to the model and drops the returned command.
func step(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out
}

// load runs one page load synchronously and mounts it.
func load(t *testing.T, m Model) Model {
	t.Helper()
	msg, ok := m.loadPage()().(pageLoadedMsg)
	require.True(t, ok)
	return step(t, m, msg)
}

func keyRune(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestModel_MountsCountdownForConfiguredAddress(t *testing.T) {
	t.Parallel()
	h, m := newHarness(t, 5)
	m = load(t, m)

	require.NotNil(t, m.Engine())
	require.NotNil(t, m.Surface())
	assert.Equal(t, countdown.State{Interval: 5, Remaining: 5}, m.Engine().State())
	assert.Equal(t, 1, m.Loads())
	assert.Equal(t, 1, h.loader.Calls())

	view := m.View()
	assert.Contains(t, view, "Dashboard")
	assert.Contains(t, view, "00:00:05")
}

func TestModel_IdleWithoutConfig(t *testing.T) {
	t.Parallel()
	_, m := newHarness(t, 0)
	m = load(t, m)

	assert.Nil(t, m.Engine())
	assert.Nil(t, m.Surface())
	assert.Contains(t, m.View(), "Auto refresh is off")

	// Panel keys do nothing without a countdown.
	m = step(t, m, keyRune('p'))
	assert.Nil(t, m.Engine())
}

func TestModel_ExpiryRequestsReloadOnce(t *testing.T) {
	t.Parallel()
	h, m := newHarness(t, 5)
	m = load(t, m)
	first := m.loadID

	for i := 0; i < 5; i++ {
		m = step(t, m, tickMsg{LoadID: first})
	}
	assert.Equal(t, countdown.Expired, m.Engine().Phase())
	assert.Contains(t, m.View(), "reloading")

	select {
	case id := <-m.reloads:
		assert.Equal(t, first, id)
	case <-time.After(time.Second):
		t.Fatal("no reload requested")
	}

	// Further ticks for the expired load do not request another reload.
	m = step(t, m, tickMsg{LoadID: first})
	select {
	case id := <-m.reloads:
		t.Fatalf("unexpected second reload for %s", id)
	default:
	}

	m = step(t, m, reloadMsg{LoadID: first})
	assert.Nil(t, m.Engine())
	m = load(t, m)
	assert.Equal(t, 2, m.Loads())
	assert.Equal(t, 2, h.loader.Calls())
	assert.NotEqual(t, first, m.loadID)
	assert.Equal(t, 5, m.Engine().State().Remaining)
}

func TestModel_StaleTicksIgnored(t *testing.T) {
	t.Parallel()
	_, m := newHarness(t, 10)
	m = load(t, m)
	stale := m.loadID

	m = step(t, m, reloadMsg{LoadID: stale})
	m = load(t, m)
	m = step(t, m, tickMsg{LoadID: stale})
	assert.Equal(t, 10, m.Engine().State().Remaining)

	m = step(t, m, tickMsg{LoadID: m.loadID})
	assert.Equal(t, 9, m.Engine().State().Remaining)
}

func TestModel_StaleReloadIgnored(t *testing.T) {
	t.Parallel()
	_, m := newHarness(t, 10)
	m = load(t, m)

	m = step(t, m, reloadMsg{LoadID: "previous-load"})
	assert.False(t, m.loading)
	assert.NotNil(t, m.Engine())
}

func TestModel_PauseAndResetKeys(t *testing.T) {
	t.Parallel()
	_, m := newHarness(t, 10)
	m = load(t, m)
	id := m.loadID

	m = step(t, m, tickMsg{LoadID: id})
	m = step(t, m, tickMsg{LoadID: id})
	m = step(t, m, keyRune('p'))
	assert.Equal(t, countdown.Paused, m.Engine().Phase())

	m = step(t, m, tickMsg{LoadID: id})
	assert.Equal(t, 8, m.Engine().State().Remaining)

	m = step(t, m, keyRune('r'))
	assert.Equal(t, countdown.State{Interval: 10, Remaining: 10, Paused: true}, m.Engine().State())

	m = step(t, m, tea.KeyMsg{Type: tea.KeySpace})
	assert.Equal(t, countdown.Running, m.Engine().Phase())
}

func TestModel_PanelButtonClick(t *testing.T) {
	t.Parallel()
	_, m := newHarness(t, 10)
	m = load(t, m)
	p := m.Surface().Position()

	m = step(t, m, press(p.Left+contentOffsetX, p.Top+buttonRow))
	assert.Equal(t, countdown.Paused, m.Engine().Phase())

	m = step(t, m, press(p.Left+contentOffsetX, p.Top+buttonRow))
	assert.Equal(t, countdown.Running, m.Engine().Phase())
}

func TestModel_StoredPositionRestoredOnLoad(t *testing.T) {
	t.Parallel()
	h, m := newHarness(t, 10)
	require.NoError(t, prefs.NewPositionStore(h.st).Save(context.Background(), prefs.Position{Left: 3, Top: 4}))

	m = load(t, m)
	assert.False(t, m.Surface().Anchored())
	assert.Equal(t, prefs.Position{Left: 3, Top: 4}, m.Surface().Position())
}

func TestModel_ReconfigureViaPrompt(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h, m := newHarness(t, 10)
	m = load(t, m)
	m = step(t, m, tickMsg{LoadID: m.loadID})

	m = step(t, m, keyRune('s'))
	require.NotNil(t, m.prompt)
	assert.Equal(t, "10", m.prompt.input.Value())
	assert.Contains(t, m.View(), menu.PromptMessage())

	m.prompt.input.SetValue("30")
	m = step(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Nil(t, m.prompt)
	assert.Equal(t, countdown.State{Interval: 30, Remaining: 30}, m.Engine().State())
	secs, ok := h.config.Lookup(ctx, testAddr)
	require.True(t, ok)
	assert.Equal(t, 30, secs)
	require.NotNil(t, m.notice)
	assert.Equal(t, menu.KindSuccess, m.notice.Kind)
}

func TestModel_ReconfigureRejectsInvalidInput(t *testing.T) {
	t.Parallel()
	h, m := newHarness(t, 10)
	m = load(t, m)
	writes := h.st.Writes()

	for _, input := range []string{"abc", "4", ""} {
		m = step(t, m, keyRune('s'))
		m.prompt.input.SetValue(input)
		m = step(t, m, tea.KeyMsg{Type: tea.KeyEnter})

		require.NotNil(t, m.notice, input)
		assert.Equal(t, menu.KindValidation, m.notice.Kind, input)
		assert.Equal(t, 10, m.Engine().State().Interval, input)
	}
	assert.Equal(t, writes, h.st.Writes())
}

func TestModel_ReconfigureWriteFailureKeepsState(t *testing.T) {
	t.Parallel()
	h, m := newHarness(t, 10)
	m = load(t, m)
	h.st.FailWrites(errors.New("quota exceeded"))

	m = step(t, m, keyRune('s'))
	m.prompt.input.SetValue("30")
	m = step(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	require.NotNil(t, m.notice)
	assert.Equal(t, menu.KindWriteFailed, m.notice.Kind)
	assert.Equal(t, countdown.State{Interval: 10, Remaining: 10}, m.Engine().State())
}

func TestModel_ReconfigureCancelled(t *testing.T) {
	t.Parallel()
	_, m := newHarness(t, 10)
	m = load(t, m)

	m = step(t, m, keyRune('s'))
	m = step(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Nil(t, m.prompt)
	require.NotNil(t, m.notice)
	assert.Equal(t, menu.KindValidation, m.notice.Kind)
	assert.Equal(t, 10, m.Engine().State().Interval)
}

func TestModel_CountdownHoldsWhilePromptOpen(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h, m := newHarness(t, 5)
	m = load(t, m)
	id := m.loadID
	m = step(t, m, tickMsg{LoadID: id})

	m = step(t, m, keyRune('s'))
	require.NotNil(t, m.prompt)
	m.prompt.input.SetValue("3")
	for i := 0; i < 10; i++ {
		next, cmd := m.Update(tickMsg{LoadID: id})
		require.NotNil(t, cmd)
		m = next.(Model)
	}
	assert.Equal(t, countdown.State{Interval: 5, Remaining: 4}, m.Engine().State())
	require.NotNil(t, m.prompt)
	assert.Equal(t, "3", m.prompt.input.Value())
	select {
	case got := <-m.reloads:
		t.Fatalf("unexpected reload for %s", got)
	default:
	}

	m.prompt.input.SetValue("30")
	m = step(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, countdown.State{Interval: 30, Remaining: 30}, m.Engine().State())
	secs, ok := h.config.Lookup(ctx, testAddr)
	require.True(t, ok)
	assert.Equal(t, 30, secs)

	m = step(t, m, tickMsg{LoadID: id})
	assert.Equal(t, 29, m.Engine().State().Remaining)
}

func TestModel_ReconfigureAfterExpirySavesForNextLoad(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h, m := newHarness(t, 5)
	m = load(t, m)

	m = step(t, m, keyRune('s'))
	require.NotNil(t, m.prompt)
	for i := 0; i < 5; i++ {
		m.Engine().Tick()
	}
	require.Equal(t, countdown.Expired, m.Engine().Phase())

	m.prompt.input.SetValue("30")
	m = step(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	require.NotNil(t, m.notice)
	assert.Equal(t, menu.KindSuccess, m.notice.Kind)
	assert.Contains(t, m.notice.Message, "starting with the next reload")
	secs, ok := h.config.Lookup(ctx, testAddr)
	require.True(t, ok)
	assert.Equal(t, 30, secs)
}

func TestModel_ReconfigureAfterExpiryReportsWriteFailure(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h, m := newHarness(t, 5)
	m = load(t, m)

	m = step(t, m, keyRune('s'))
	for i := 0; i < 5; i++ {
		m.Engine().Tick()
	}
	h.st.FailWrites(errors.New("quota exceeded"))
	m.prompt.input.SetValue("30")
	m = step(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	require.NotNil(t, m.notice)
	assert.Equal(t, menu.KindWriteFailed, m.notice.Kind)
	secs, _ := h.config.Lookup(ctx, testAddr)
	assert.Equal(t, 5, secs)
}

func TestModel_HoverWakesFadedPanel(t *testing.T) {
	t.Parallel()
	_, m := newHarness(t, 10)
	m = load(t, m)
	s := m.Surface()
	s.handleFade(fadeMsg{LoadID: m.loadID, Gen: s.fadeGen})
	require.False(t, s.Fade().Opaque)
	p := s.Position()

	next, cmd := m.Update(motion(p.Left+2, p.Top+2))
	m = next.(Model)
	require.NotNil(t, cmd)
	assert.True(t, m.Surface().Fade().Opaque)

	m = step(t, m, motion(0, 0))
	assert.True(t, m.Surface().Fade().Opaque)
}

func TestModel_MenuActionThroughBridge(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h, m := newHarness(t, 10)
	m = load(t, m)

	next, cmd := m.Update(keyRune('S'))
	m = next.(Model)
	require.NotNil(t, cmd)
	require.True(t, m.actionRunning)

	done := make(chan tea.Msg, 1)
	go func() { done <- cmd() }()

	var req promptRequest
	select {
	case req = <-m.bridge.prompts:
	case <-time.After(time.Second):
		t.Fatal("action did not prompt")
	}
	assert.Equal(t, "10", req.Default)

	m = step(t, m, req)
	require.NotNil(t, m.prompt)
	m.prompt.input.SetValue("45")
	m = step(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	var result actionDoneMsg
	select {
	case msg := <-done:
		result = msg.(actionDoneMsg)
	case <-time.After(time.Second):
		t.Fatal("action did not finish")
	}
	assert.Equal(t, menu.KindSuccess, result.Result.Kind)
	assert.Equal(t, 45, result.Result.Interval)

	notice := <-m.bridge.notices
	m = step(t, m, noticeMsg{Notice: notice})
	m = step(t, m, result)
	assert.False(t, m.actionRunning)
	assert.Equal(t, menu.KindSuccess, m.notice.Kind)

	// Menu changes apply from the next load on.
	assert.Equal(t, 10, m.Engine().State().Interval)
	secs, ok := h.config.Lookup(ctx, testAddr)
	require.True(t, ok)
	assert.Equal(t, 45, secs)
}

func TestModel_MenuOpensAndCloses(t *testing.T) {
	t.Parallel()
	_, m := newHarness(t, 10)
	m = load(t, m)

	m = step(t, m, keyRune('m'))
	assert.True(t, m.menuVisible)
	assert.Contains(t, m.View(), "Set refresh interval for this page")

	// Mouse input does not reach the panel while the menu is open.
	p := m.Surface().Position()
	m = step(t, m, press(p.Left+contentOffsetX, p.Top+buttonRow))
	assert.Equal(t, countdown.Running, m.Engine().Phase())

	m = step(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, m.menuVisible)
}

func TestModel_Quit(t *testing.T) {
	t.Parallel()
	_, m := newHarness(t, 10)
	m = step(t, m, keyRune('q'))
	assert.Equal(t, "Shutting down...\n", m.View())
}

func TestBridge_PromptHonoursCancellation(t *testing.T) {
	t.Parallel()
	b := newBridge()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := b.Prompt(ctx, "interval?", "60")
	require.ErrorIs(t, err, context.Canceled)
}
