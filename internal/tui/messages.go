package tui

import (
	"github.com/ensigniasec/autorefresh/internal/countdown"
	"github.com/ensigniasec/autorefresh/internal/menu"
	"github.com/ensigniasec/autorefresh/internal/prefs"
	"github.com/ensigniasec/autorefresh/internal/reload"
)

// Message types for Bubble Tea update loop.

// tickMsg fires every second while a countdown is mounted. Ticks carry the
// load they were scheduled for so that a new load ignores stale ones.
type tickMsg struct{ LoadID string }

// fadeMsg fires when a panel's idle-fade timer expires.
type fadeMsg struct {
	LoadID string
	Gen    int
}

// pageLoadedMsg carries everything read during one page load.
type pageLoadedMsg struct {
	LoadID   string
	Page     reload.Page
	Engine   *countdown.Engine
	Position prefs.Position
	HasPos   bool
}

// reloadMsg asks the host to load the page again.
type reloadMsg struct{ LoadID string }

// positionSavedMsg reports the outcome of a best-effort position write.
type positionSavedMsg struct{ Err error }

// promptRequest is sent by a menu action that needs user input. The action
// blocks until a reply arrives.
type promptRequest struct {
	Message string
	Default string
	Reply   chan<- promptReply
}

type promptReply struct {
	Value string
	Err   error
}

// noticeMsg carries a notice from a menu action.
type noticeMsg struct{ Notice menu.Notice }

// actionDoneMsg signals that a menu action finished.
type actionDoneMsg struct{ Result menu.Result }
