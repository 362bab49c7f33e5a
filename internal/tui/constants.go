package tui

import "time"

// Package-level constants to avoid magic numbers and improve readability.
const (
	channelBufferSize = 16
	tickSeconds       = 1

	// Panel geometry in terminal cells. The border adds one cell on each side.
	panelInnerWidth = 28
	panelWidth      = panelInnerWidth + 4 // padding + border
	panelHeight     = 5
	// anchorMargin keeps the default bottom-right panel off the screen edge.
	anchorMargin = 1
	// handleRows is the number of rows at the panel top that start a drag.
	handleRows = 2
	buttonRow  = 3
	// contentOffsetX is the column of panel text relative to the panel's left edge.
	contentOffsetX = 2

	// chromeLines is the status line plus the footer below the page body.
	chromeLines = 2
	promptWidth = 48

	// Used until the first WindowSizeMsg arrives.
	fallbackWidth  = 80
	fallbackHeight = 24

	defaultFadeDelay   = 3 * time.Second
	defaultFadeOpacity = 0.35

	tickInterval = time.Duration(tickSeconds) * time.Second
)
