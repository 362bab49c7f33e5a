package tui

import (
	"context"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
)

// Run starts the Bubble Tea program for one watched address and blocks until
// the user quits or ctx is cancelled. Log output goes to logFile when set and
// is discarded otherwise, so it cannot corrupt the view.
func Run(ctx context.Context, opts Options, logFile string) error {
	if opts.Loader == nil {
		return fmt.Errorf("tui: no page loader configured")
	}
	if opts.Config == nil {
		return fmt.Errorf("tui: no config store configured")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	prevOut := logrus.StandardLogger().Out
	defer logrus.SetOutput(prevOut)
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
		logrus.SetOutput(f)
	} else {
		logrus.SetOutput(io.Discard)
	}

	model := NewModel(ctx, opts)
	p := tea.NewProgram(model, programOptions(ctx)...)

	logrus.WithField("address", opts.Address).Info("watch started")
	_, err := p.Run()
	if err != nil && ctx.Err() != nil {
		// Cancellation from the caller is a normal shutdown.
		return nil
	}
	return err
}

// programOptions sets up the terminal for the watch screen. All-motion mouse
// reporting is needed so the panel sees the pointer hover with no button held.
func programOptions(ctx context.Context) []tea.ProgramOption {
	return []tea.ProgramOption{
		tea.WithAltScreen(),
		tea.WithMouseAllMotion(),
		tea.WithContext(ctx),
	}
}
