package tui

import (
	"context"

	"github.com/ensigniasec/autorefresh/internal/menu"
)

// bridge lets menu actions, which run off the update loop, block on the
// in-TUI prompt and post notices.
type bridge struct {
	prompts chan promptRequest
	notices chan menu.Notice
}

func newBridge() *bridge {
	return &bridge{
		prompts: make(chan promptRequest, channelBufferSize),
		notices: make(chan menu.Notice, channelBufferSize),
	}
}

// Prompt implements menu.Prompter.
func (b *bridge) Prompt(ctx context.Context, message, def string) (string, error) {
	reply := make(chan promptReply, 1)
	select {
	case b.prompts <- promptRequest{Message: message, Default: def, Reply: reply}:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	select {
	case r := <-reply:
		return r.Value, r.Err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Notify implements menu.Notifier.
func (b *bridge) Notify(ctx context.Context, n menu.Notice) {
	select {
	case b.notices <- n:
	case <-ctx.Done():
	}
}
