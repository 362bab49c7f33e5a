package menu

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/ensigniasec/autorefresh/internal/prefs"
	"github.com/ensigniasec/autorefresh/internal/validate"
)

// DefaultPromptInterval is offered when the address has no interval yet.
const DefaultPromptInterval = 60

// ErrCancelled is returned by a Prompter when the user dismisses the prompt.
var ErrCancelled = errors.New("prompt cancelled")

// Prompter asks the user for a line of text. It blocks until the user
// answers or cancels.
type Prompter interface {
	Prompt(ctx context.Context, message, def string) (string, error)
}

// Notifier shows a message to the user.
type Notifier interface {
	Notify(ctx context.Context, n Notice)
}

// Kind classifies the outcome of a menu action.
type Kind int

const (
	KindSuccess Kind = iota
	KindValidation
	KindWriteFailed
	KindNoop
)

func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindValidation:
		return "validation"
	case KindWriteFailed:
		return "write-failed"
	case KindNoop:
		return "noop"
	default:
		return "unknown"
	}
}

// Notice is a user-facing message.
type Notice struct {
	Kind    Kind
	Message string
}

// IsError reports whether the notice describes a failure.
func (n Notice) IsError() bool {
	return n.Kind == KindValidation || n.Kind == KindWriteFailed
}

// Result is the outcome of SetInterval or ClearInterval.
type Result struct {
	Notice
	Address  string
	Interval int
	Err      error
}

// Menu implements the host menu actions that edit the stored configuration
// for an address. Changes take effect on the next load of that address.
type Menu struct {
	config   *prefs.ConfigStore
	prompter Prompter
	notifier Notifier
}

func New(config *prefs.ConfigStore, prompter Prompter, notifier Notifier) *Menu {
	return &Menu{config: config, prompter: prompter, notifier: notifier}
}

// PromptMessage is the text shown when asking for an interval.
func PromptMessage() string {
	return fmt.Sprintf("Refresh interval in seconds (>= %d):", validate.MinInterval)
}

// ValidationMessage is the text shown for rejected interval input.
func ValidationMessage() string {
	return fmt.Sprintf("Invalid input: the interval must be a number of at least %d seconds.", validate.MinInterval)
}

// SetInterval prompts for an interval and stores it for address.
func (m *Menu) SetInterval(ctx context.Context, address string) Result {
	def := DefaultPromptInterval
	if secs, ok := m.config.Load(ctx)[address]; ok && secs > 0 {
		def = secs
	}
	input, err := m.prompter.Prompt(ctx, PromptMessage(), strconv.Itoa(def))
	if err != nil {
		// A dismissed prompt is reported like any other unusable input.
		logrus.WithField("address", address).Debugf("interval prompt ended: %v", err)
		return m.finish(ctx, Result{
			Notice:  Notice{Kind: KindValidation, Message: ValidationMessage()},
			Address: address,
			Err:     err,
		})
	}
	return m.ApplyInterval(ctx, address, input)
}

// ApplyInterval validates input and stores it for address.
func (m *Menu) ApplyInterval(ctx context.Context, address, input string) Result {
	secs, err := validate.ParseInterval(input)
	if err != nil {
		return m.finish(ctx, Result{
			Notice:  Notice{Kind: KindValidation, Message: ValidationMessage()},
			Address: address,
			Err:     err,
		})
	}
	if err := m.config.Put(ctx, address, secs); err != nil {
		return m.finish(ctx, Result{
			Notice:   Notice{Kind: KindWriteFailed, Message: fmt.Sprintf("Could not save the refresh interval: %v", err)},
			Address:  address,
			Interval: secs,
			Err:      err,
		})
	}
	return m.finish(ctx, Result{
		Notice: Notice{
			Kind:    KindSuccess,
			Message: fmt.Sprintf("This page will refresh every %d seconds, starting with the next reload.", secs),
		},
		Address:  address,
		Interval: secs,
	})
}

// ClearInterval removes the stored interval for address.
func (m *Menu) ClearInterval(ctx context.Context, address string) Result {
	existed, err := m.config.Delete(ctx, address)
	switch {
	case err != nil:
		return m.finish(ctx, Result{
			Notice:  Notice{Kind: KindWriteFailed, Message: fmt.Sprintf("Could not disable auto refresh: %v", err)},
			Address: address,
			Err:     err,
		})
	case !existed:
		return m.finish(ctx, Result{
			Notice:  Notice{Kind: KindNoop, Message: "Auto refresh is not set for this page."},
			Address: address,
		})
	default:
		return m.finish(ctx, Result{
			Notice:  Notice{Kind: KindSuccess, Message: "Auto refresh disabled for this page, starting with the next reload."},
			Address: address,
		})
	}
}

func (m *Menu) finish(ctx context.Context, r Result) Result {
	logrus.WithFields(logrus.Fields{
		"address": r.Address,
		"outcome": r.Kind.String(),
	}).Debug(r.Message)
	if m.notifier != nil {
		m.notifier.Notify(ctx, r.Notice)
	}
	return r
}
