// Package console renders an ASTRO-CYBER session as a line-oriented
// terminal and feeds typed input back into the session.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"astrocyber/internal/command"
	"astrocyber/internal/session"
)

const (
	terminalPrompt   = `C:\ASTROCYBER> `
	keyPrompt        = "COSMIC KEY: "
	invalidKeyPrompt = "COSMIC KEY (INVALID): "
	divider        = "--------------------------------------------------"
)

// Session is the part of *session.Controller the console drives.
type Session interface {
	SubmitCommand(raw string) error
	SubmitLoginForm(name, dob, clock, place string) error
	SubmitKeyChallenge(candidate string) error
	SetPendingInput(text string)
	Snapshot() session.State
	Wait()
}

// Console reads input lines and prints the transcript as it grows.
type Console struct {
	session Session
	in      *bufio.Scanner
	out     io.Writer
	styles  styles

	mu      sync.Mutex
	printed int
	clears  int
}

// New creates a console for s.
func New(s Session, in io.Reader, out io.Writer) *Console {
	return &Console{
		session: s,
		in:      bufio.NewScanner(in),
		out:     out,
		styles:  newStyles(out),
	}
}

// Refresh prints transcript lines that have not been shown yet. It is
// safe to call from any goroutine; wire it as the session's notify hook.
func (c *Console) Refresh() {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := c.session.Snapshot()
	if snap.Clears != c.clears || len(snap.Transcript) < c.printed {
		c.clears = snap.Clears
		c.printed = 0
		fmt.Fprintln(c.out, c.styles.divider.Render(divider))
	}
	for _, line := range snap.Transcript[c.printed:] {
		fmt.Fprintln(c.out, c.styles.line(line))
	}
	c.printed = len(snap.Transcript)
}

// Run drives the session until input ends, then waits for outstanding
// asks and prints their replies.
func (c *Console) Run(ctx context.Context) error {
	for _, text := range command.Banner {
		c.println(c.styles.title.Render(text))
	}

	last := session.Screen(-1)
	for ctx.Err() == nil {
		snap := c.session.Snapshot()
		entered := snap.Screen != last
		last = snap.Screen

		var err error
		switch snap.Screen {
		case session.ScreenTerminal:
			err = c.terminal()
		case session.ScreenLogin:
			err = c.loginForm(entered)
		case session.ScreenKeyChallenge:
			err = c.keyChallenge(entered, snap.KeyInvalid)
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
	}

	c.session.Wait()
	c.Refresh()
	return nil
}

func (c *Console) terminal() error {
	raw, err := c.readLine(c.styles.prompt, terminalPrompt)
	if err != nil {
		return err
	}
	c.session.SetPendingInput(raw)
	return c.session.SubmitCommand(raw)
}

func (c *Console) loginForm(entered bool) error {
	if entered {
		c.println(c.styles.title.Render(">>> ACCESSING COSMIC DATABASE... <<<"))
	}

	var fields [4]string
	for i, label := range []string{"NAME: ", "ORIGIN DATE (YYYY-MM-DD): ", "CLOCK (HH:MM): ", "PLACE OF ORIGIN: "} {
		v, err := c.readLine(c.styles.prompt, label)
		if err != nil {
			return err
		}
		fields[i] = v
	}

	if err := c.session.SubmitLoginForm(fields[0], fields[1], fields[2], fields[3]); err != nil {
		c.println(c.styles.err.Render("INVALID ORIGIN DATA: " + err.Error()))
	}
	return nil
}

func (c *Console) keyChallenge(entered, keyInvalid bool) error {
	if entered {
		c.println(c.styles.divider.Render(divider))
		c.println(c.styles.title.Render("COSMIC AUTHENTICATION REQUIRED"))
		c.println(c.styles.system.Render(command.Riddle))
		c.println(c.styles.dim.Render(command.Hint))
		c.println(c.styles.divider.Render(divider))
	}

	style, prompt := c.styles.prompt, keyPrompt
	if keyInvalid {
		style, prompt = c.styles.err, invalidKeyPrompt
	}
	candidate, err := c.readLine(style, prompt)
	if err != nil {
		return err
	}
	return c.session.SubmitKeyChallenge(candidate)
}

// readLine prints prompt and returns the next input line, or io.EOF when
// input is exhausted.
func (c *Console) readLine(style lipgloss.Style, prompt string) (string, error) {
	c.mu.Lock()
	fmt.Fprint(c.out, style.Render(prompt))
	c.mu.Unlock()

	if !c.in.Scan() {
		if err := c.in.Err(); err != nil {
			return "", fmt.Errorf("reading input: %w", err)
		}
		return "", io.EOF
	}
	return strings.TrimRight(c.in.Text(), "\r"), nil
}

func (c *Console) println(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, s)
}
