// Package session is the ASTRO-CYBER session state machine.
//
// Apply is a pure transition function from a State and an Event to the
// next State and the Effects the caller must run. Controller owns a
// State, serializes events through Apply, and runs the effects.
package session

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"astrocyber/internal/command"
	"astrocyber/internal/keyderive"
	"astrocyber/internal/origin"
)

// ErrWrongScreen is returned when a form is submitted while its screen is
// not showing.
var ErrWrongScreen = errors.New("session: wrong screen")

// KeyFlagDelay is how long the key challenge shows its invalid state.
const KeyFlagDelay = 2 * time.Second

// Screen is the view the session is on.
type Screen int

const (
	ScreenTerminal Screen = iota
	ScreenLogin
	ScreenKeyChallenge
)

func (s Screen) String() string {
	switch s {
	case ScreenTerminal:
		return "terminal"
	case ScreenLogin:
		return "login"
	case ScreenKeyChallenge:
		return "key_challenge"
	default:
		return fmt.Sprintf("Screen(%d)", int(s))
	}
}

// LineKind tags a transcript line for rendering.
type LineKind int

const (
	LineEcho LineKind = iota
	LineSystem
	LineHelp
	LineReply
	LineError
)

// Line is one transcript line.
type Line struct {
	Kind LineKind
	Text string
}

// State is a session snapshot. SecretKey is set exactly when Origin is.
type State struct {
	Screen        Screen
	Origin        *origin.Record
	SecretKey     string
	Authenticated bool
	Transcript    []Line
	PendingInput  string

	// KeyInvalid is the cosmetic flag shown after a wrong key.
	KeyInvalid bool
	// Clears counts clear commands so renderers can redraw.
	Clears int

	keyFlagGen uint64
	nextAskID  uint64
}

// Event is an input to Apply.
type Event interface {
	event()
}

// CommandSubmitted is raw text entered at the terminal prompt.
type CommandSubmitted struct {
	Raw string
}

// LoginSubmitted is the origin form.
type LoginSubmitted struct {
	Name  string
	DOB   string // YYYY-MM-DD
	Time  string // HH:MM
	Place string
}

// KeySubmitted is a key challenge attempt.
type KeySubmitted struct {
	Candidate string
}

// AskCompleted reports the outcome of an IssueAsk effect.
type AskCompleted struct {
	ID    uint64
	Reply string
	Err   error
}

// KeyFlagExpired clears the invalid-key flag set with generation Gen.
type KeyFlagExpired struct {
	Gen uint64
}

// InputChanged records the renderer's uncommitted input text.
type InputChanged struct {
	Text string
}

func (CommandSubmitted) event() {}
func (LoginSubmitted) event()   {}
func (KeySubmitted) event()     {}
func (AskCompleted) event()     {}
func (KeyFlagExpired) event()   {}
func (InputChanged) event()     {}

// Effect is work Apply asks its caller to perform.
type Effect interface {
	effect()
}

// IssueAsk sends Query to the oracle on behalf of Origin. The outcome
// comes back as AskCompleted with the same ID.
type IssueAsk struct {
	ID     uint64
	Query  string
	Origin origin.Record
}

// ScheduleKeyFlagClear delivers KeyFlagExpired{Gen} after After.
type ScheduleKeyFlagClear struct {
	After time.Duration
	Gen   uint64
}

func (IssueAsk) effect()             {}
func (ScheduleKeyFlagClear) effect() {}

// Transcript texts.
const (
	deniedText       = "ACCESS DENIED. KEY INVALID."
	notAuthedText    = "Access restricted: not authenticated. Type 'login to astrocyber' to begin."
	unavailableText  = "Terminal inactive until authentication completes."
	emptyQueryText   = `AI: Please provide a question after "ask".`
	unknownFormat    = "Unknown command: %s. Type 'help' for a list of commands."
	processingFormat = `AI: Processing query "%s"...`
	welcomeFormat    = "Access granted. Welcome, %s."
	errorFormat      = "// ERROR: %s //"
)

// New returns the initial state: terminal screen, not authenticated.
func New() State {
	return State{Screen: ScreenTerminal}
}

// Clone returns a copy of s that shares no transcript storage with it.
func (s State) Clone() State {
	s.Transcript = slices.Clone(s.Transcript)
	return s
}

// Apply computes the transition for ev. On error the returned state is
// s unchanged and there are no effects.
func Apply(s State, ev Event) (State, []Effect, error) {
	switch ev := ev.(type) {
	case CommandSubmitted:
		next, effects := applyCommand(s, ev.Raw)
		return next, effects, nil
	case LoginSubmitted:
		return applyLogin(s, ev)
	case KeySubmitted:
		return applyKey(s, ev.Candidate)
	case AskCompleted:
		if ev.Err != nil {
			return s.appendLines(Line{Kind: LineError, Text: errorText(ev.Err)}), nil, nil
		}
		return s.appendLines(Line{Kind: LineReply, Text: "AI: " + ev.Reply}), nil, nil
	case KeyFlagExpired:
		if ev.Gen == s.keyFlagGen {
			s.KeyInvalid = false
		}
		return s, nil, nil
	case InputChanged:
		s.PendingInput = ev.Text
		return s, nil, nil
	default:
		return s, nil, fmt.Errorf("session: unknown event %T", ev)
	}
}

func applyCommand(s State, raw string) (State, []Effect) {
	s.PendingInput = ""
	s = s.appendLines(Line{Kind: LineEcho, Text: "> " + raw})

	cmd := command.Parse(raw)
	if s.Screen != ScreenTerminal {
		if _, ok := cmd.(command.Ask); ok {
			return s.appendLines(Line{Kind: LineSystem, Text: notAuthedText}), nil
		}
		return s.appendLines(Line{Kind: LineSystem, Text: unavailableText}), nil
	}

	switch cmd := cmd.(type) {
	case command.Help:
		lines := make([]Line, len(command.HelpText))
		for i, text := range command.HelpText {
			lines[i] = Line{Kind: LineHelp, Text: text}
		}
		return s.appendLines(lines...), nil
	case command.Login:
		s.Screen = ScreenLogin
		return s, nil
	case command.Clear:
		s.Transcript = nil
		s.Clears++
		return s, nil
	case command.Ask:
		if !s.Authenticated || s.Origin == nil {
			return s.appendLines(Line{Kind: LineSystem, Text: notAuthedText}), nil
		}
		if cmd.Query == "" {
			return s.appendLines(Line{Kind: LineSystem, Text: emptyQueryText}), nil
		}
		s.nextAskID++
		s = s.appendLines(Line{Kind: LineSystem, Text: fmt.Sprintf(processingFormat, cmd.Query)})
		return s, []Effect{IssueAsk{ID: s.nextAskID, Query: cmd.Query, Origin: *s.Origin}}
	case command.Unknown:
		return s.appendLines(Line{Kind: LineSystem, Text: fmt.Sprintf(unknownFormat, cmd.Input)}), nil
	default:
		panic(fmt.Sprintf("session: unhandled command %T", cmd))
	}
}

func applyLogin(s State, ev LoginSubmitted) (State, []Effect, error) {
	if s.Screen != ScreenLogin {
		return s, nil, fmt.Errorf("%w: login form on %s screen", ErrWrongScreen, s.Screen)
	}
	rec, err := origin.New(ev.Name, ev.DOB, ev.Time, ev.Place)
	if err != nil {
		return s, nil, err
	}
	key, err := rec.SecretKey()
	if err != nil {
		return s, nil, err
	}

	s.Origin = &rec
	s.SecretKey = key
	s.Authenticated = false
	s.KeyInvalid = false
	s.Screen = ScreenKeyChallenge
	return s, nil, nil
}

func applyKey(s State, candidate string) (State, []Effect, error) {
	if s.Screen != ScreenKeyChallenge {
		return s, nil, fmt.Errorf("%w: key challenge on %s screen", ErrWrongScreen, s.Screen)
	}

	if keyderive.Match(candidate, s.SecretKey) {
		s.Authenticated = true
		s.KeyInvalid = false
		s.Screen = ScreenTerminal
		return s.appendLines(Line{Kind: LineSystem, Text: fmt.Sprintf(welcomeFormat, s.Origin.Name)}), nil, nil
	}

	s.KeyInvalid = true
	s.keyFlagGen++
	s = s.appendLines(Line{Kind: LineError, Text: deniedText})
	return s, []Effect{ScheduleKeyFlagClear{After: KeyFlagDelay, Gen: s.keyFlagGen}}, nil
}

// appendLines returns s with lines appended to a fresh transcript slice.
func (s State) appendLines(lines ...Line) State {
	s.Transcript = append(slices.Clip(s.Transcript), lines...)
	return s
}

func errorText(err error) string {
	return fmt.Sprintf(errorFormat, err.Error())
}
