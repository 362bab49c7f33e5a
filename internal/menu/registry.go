package menu

import "context"

// Names of the registered actions.
const (
	ActionSetInterval   = "set-interval"
	ActionClearInterval = "clear-interval"
)

// Action is a named zero-argument command the host can invoke outside the
// panel.
type Action struct {
	Name  string
	Title string
	Run   func(ctx context.Context) Result
}

// Registrar is the host facility that collects menu actions.
type Registrar interface {
	Register(a Action)
}

// Register adds the set and clear actions for address to r.
func (m *Menu) Register(r Registrar, address string) {
	r.Register(Action{
		Name:  ActionSetInterval,
		Title: "Set refresh interval for this page",
		Run:   func(ctx context.Context) Result { return m.SetInterval(ctx, address) },
	})
	r.Register(Action{
		Name:  ActionClearInterval,
		Title: "Disable auto refresh for this page",
		Run:   func(ctx context.Context) Result { return m.ClearInterval(ctx, address) },
	})
}

// Actions is a Registrar that keeps actions in registration order.
type Actions []Action

func (a *Actions) Register(act Action) { *a = append(*a, act) }

// Find returns the action called name.
func (a Actions) Find(name string) (Action, bool) {
	for _, act := range a {
		if act.Name == name {
			return act, true
		}
	}
	return Action{}, false
}
