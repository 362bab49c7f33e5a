package menu

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/chzyer/readline"
)

// LinePrompter prompts on the terminal using readline. Ctrl-C and EOF cancel.
type LinePrompter struct {
	Stdin  io.ReadCloser
	Stdout io.Writer
}

func (p LinePrompter) Prompt(_ context.Context, message, def string) (string, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          message + " ",
		InterruptPrompt: "^C",
		EOFPrompt:       "",
		Stdin:           p.Stdin,
		Stdout:          p.Stdout,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create readline: %w", err)
	}
	defer rl.Close()

	line, err := rl.ReadlineWithDefault(def)
	if err != nil {
		if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
			return "", ErrCancelled
		}
		return "", err
	}
	return line, nil
}

// WriterNotifier prints notices as single lines.
type WriterNotifier struct {
	W io.Writer
}

func (n WriterNotifier) Notify(_ context.Context, notice Notice) {
	fmt.Fprintf(n.W, "%s %s\n", Icon(notice.Kind), notice.Message)
}

// Icon returns the marker shown in front of a notice.
func Icon(k Kind) string {
	switch k {
	case KindSuccess:
		return "✅"
	case KindNoop:
		return "ℹ️"
	case KindValidation, KindWriteFailed:
		return "❌"
	default:
		return ""
	}
}
