// Package countdown implements the per-load refresh countdown: a 1 Hz state
// machine that counts an interval down and fires a reload exactly once.
package countdown

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/ensigniasec/autorefresh/internal/prefs"
	"github.com/ensigniasec/autorefresh/internal/validate"
)

// ErrExpired is returned by Reconfigure once the countdown has fired. The
// page is already reloading and nothing was saved.
var ErrExpired = errors.New("countdown already expired")

// Phase is the engine's lifecycle state. There is no Idle phase: an address
// without a valid interval never gets an engine.
type Phase int

const (
	Running Phase = iota
	Paused
	Expired
)

func (p Phase) String() string {
	switch p {
	case Running:
		return "running"
	case Paused:
		return "paused"
	case Expired:
		return "expired"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// State is a snapshot of the countdown.
type State struct {
	Interval  int
	Remaining int
	Paused    bool
}

// Reloader reloads the current page. It is called once, on expiry.
type Reloader interface {
	Reload()
}

// ReloadFunc adapts a function to Reloader.
type ReloadFunc func()

func (f ReloadFunc) Reload() { f() }

// Engine owns the countdown for one page load. It is not safe for concurrent
// use; all calls come from the host's single update loop.
type Engine struct {
	address  string
	interval int
	// remaining may dip to zero or below inside Tick only.
	remaining int
	paused    bool
	expired   bool

	config   *prefs.ConfigStore
	reloader Reloader
}

// New starts a running countdown of interval seconds for address.
func New(address string, interval int, config *prefs.ConfigStore, reloader Reloader) (*Engine, error) {
	if err := validate.Interval(interval); err != nil {
		return nil, err
	}
	return &Engine{
		address:   address,
		interval:  interval,
		remaining: interval,
		config:    config,
		reloader:  reloader,
	}, nil
}

// Mount reads the configuration for address and starts an engine when a
// valid interval is stored. It reports false when the address is not
// configured; no engine exists for that load.
func Mount(ctx context.Context, config *prefs.ConfigStore, address string, reloader Reloader) (*Engine, bool) {
	secs, ok := config.Lookup(ctx, address)
	if !ok {
		return nil, false
	}
	e, err := New(address, secs, config, reloader)
	if err != nil {
		return nil, false
	}
	logrus.WithField("address", address).Debugf("countdown mounted with %ds interval", secs)
	return e, true
}

// Address returns the address the engine counts for.
func (e *Engine) Address() string { return e.address }

// Phase returns the current phase.
func (e *Engine) Phase() Phase {
	switch {
	case e.expired:
		return Expired
	case e.paused:
		return Paused
	default:
		return Running
	}
}

// State returns a snapshot with Remaining clamped at zero.
func (e *Engine) State() State {
	return State{Interval: e.interval, Remaining: max(e.remaining, 0), Paused: e.paused}
}

// Tick advances the countdown by one second. It reports true on the tick that
// expires the countdown; the reloader has been called by then. Ticks after
// expiry do nothing.
func (e *Engine) Tick() bool {
	if e.expired || e.paused {
		return false
	}
	e.remaining--
	if e.remaining > 0 {
		return false
	}
	e.expired = true
	e.remaining = 0
	logrus.WithField("address", e.address).Debug("countdown expired, reloading")
	if e.reloader != nil {
		e.reloader.Reload()
	}
	return true
}

func (e *Engine) Pause() {
	if e.expired {
		return
	}
	e.paused = true
}

func (e *Engine) Resume() {
	if e.expired {
		return
	}
	e.paused = false
}

// TogglePause flips between Running and Paused and returns the new phase.
func (e *Engine) TogglePause() Phase {
	if e.paused {
		e.Resume()
	} else {
		e.Pause()
	}
	return e.Phase()
}

// Reset restarts the countdown from the full interval without touching the
// paused flag.
func (e *Engine) Reset() {
	if e.expired {
		return
	}
	e.remaining = e.interval
}

// Reconfigure persists seconds for the engine's address and restarts the
// running countdown from it. On a persistence failure the countdown is left
// unchanged. After expiry it returns ErrExpired without saving.
func (e *Engine) Reconfigure(ctx context.Context, seconds int) error {
	if err := validate.Interval(seconds); err != nil {
		return err
	}
	if e.expired {
		return ErrExpired
	}
	if e.config != nil {
		if err := e.config.Put(ctx, e.address, seconds); err != nil {
			return fmt.Errorf("saving interval: %w", err)
		}
	}
	e.interval = seconds
	e.remaining = seconds
	return nil
}
