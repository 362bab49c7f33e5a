// Package reload fetches the page behind an address. Each call to Load is
// one page load; the refresh countdown calls it again on expiry.
package reload

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os/exec"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	// maxBodyLines bounds how much of a page is kept for display.
	maxBodyLines = 200
	maxBodyBytes = 1 << 20

	DefaultHTTPTimeout = 15 * time.Second
)

var ErrEmptyAddress = errors.New("empty address")

// Page is the result of one load.
type Page struct {
	Address  string
	Title    string
	Status   string
	Body     []string
	LoadedAt time.Time
	Err      error
}

// Loader performs a single page load.
type Loader interface {
	Load(ctx context.Context, address string) Page
}

// HTTPLoader issues one GET per load.
type HTTPLoader struct {
	Client *http.Client
}

func NewHTTPLoader(timeout time.Duration) *HTTPLoader {
	if timeout <= 0 {
		timeout = DefaultHTTPTimeout
	}
	return &HTTPLoader{Client: &http.Client{Timeout: timeout}}
}

func (l *HTTPLoader) Load(ctx context.Context, address string) Page {
	page := Page{Address: address, Title: address, LoadedAt: time.Now()}
	if address == "" {
		page.Err = ErrEmptyAddress
		return page
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, address, nil)
	if err != nil {
		page.Err = fmt.Errorf("building request: %w", err)
		return page
	}
	resp, err := l.Client.Do(req)
	if err != nil {
		page.Err = err
		return page
	}
	defer resp.Body.Close()

	page.Status = resp.Status
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		page.Err = fmt.Errorf("reading body: %w", err)
	}
	if t := htmlTitle(body); t != "" {
		page.Title = t
	}
	page.Body = splitLines(body)
	logrus.WithField("address", address).Debugf("loaded %s (%d bytes)", resp.Status, len(body))
	return page
}

// CommandLoader runs a shell command per load. The address is exported to the
// command as $AUTOREFRESH_ADDRESS.
type CommandLoader struct {
	Command string
	Shell   string
}

func (l *CommandLoader) Load(ctx context.Context, address string) Page {
	page := Page{Address: address, Title: address, LoadedAt: time.Now()}
	shell := l.Shell
	if shell == "" {
		shell = "/bin/sh"
	}
	cmd := exec.CommandContext(ctx, shell, "-c", l.Command)
	cmd.Env = append(cmd.Environ(), "AUTOREFRESH_ADDRESS="+address)
	out, err := cmd.CombinedOutput()
	page.Body = splitLines(out)
	if err != nil {
		page.Err = err
		page.Status = err.Error()
		return page
	}
	page.Status = "exit 0"
	logrus.WithField("address", address).Debugf("command produced %d lines", len(page.Body))
	return page
}

func splitLines(b []byte) []string {
	var lines []string
	sc := bufio.NewScanner(bytes.NewReader(b))
	sc.Buffer(make([]byte, 0, 64*1024), maxBodyBytes)
	for sc.Scan() && len(lines) < maxBodyLines {
		lines = append(lines, strings.TrimRight(sc.Text(), "\r"))
	}
	return lines
}

// htmlTitle returns the contents of the first <title> element, if any.
func htmlTitle(b []byte) string {
	lower := bytes.ToLower(b)
	start := bytes.Index(lower, []byte("<title"))
	if start < 0 {
		return ""
	}
	open := bytes.IndexByte(lower[start:], '>')
	if open < 0 {
		return ""
	}
	from := start + open + 1
	end := bytes.Index(lower[from:], []byte("</title>"))
	if end < 0 {
		return ""
	}
	return strings.Join(strings.Fields(string(b[from:from+end])), " ")
}
