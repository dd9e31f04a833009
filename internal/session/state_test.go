package session

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"astrocyber/internal/command"
	"astrocyber/internal/keyderive"
	"astrocyber/internal/oracle"
	"astrocyber/internal/origin"
)

// mustApply applies events in order and fails on any error.
func mustApply(t *testing.T, s State, events ...Event) (State, []Effect) {
	t.Helper()
	var effects []Effect
	for _, ev := range events {
		var err error
		var effs []Effect
		s, effs, err = Apply(s, ev)
		require.NoError(t, err)
		effects = append(effects, effs...)
	}
	return s, effects
}

func texts(s State) []string {
	out := make([]string, len(s.Transcript))
	for i, line := range s.Transcript {
		out[i] = line.Text
	}
	return out
}

var vegaLogin = LoginSubmitted{Name: "Vega", DOB: "1990-03-15", Time: "14:30", Place: "Lyra Station"}

// authenticated returns a state that has passed the key challenge.
func authenticated(t *testing.T) State {
	t.Helper()
	s, _ := mustApply(t, New(),
		CommandSubmitted{Raw: "login to astrocyber"},
		vegaLogin,
		KeySubmitted{Candidate: "S5TH3O"},
	)
	require.True(t, s.Authenticated)
	return s
}

func TestNewState(t *testing.T) {
	s := New()
	assert.Equal(t, ScreenTerminal, s.Screen)
	assert.False(t, s.Authenticated)
	assert.Nil(t, s.Origin)
	assert.Empty(t, s.SecretKey)
	assert.Empty(t, s.Transcript)
}

func TestLoginFlow(t *testing.T) {
	s, effects := mustApply(t, New(), CommandSubmitted{Raw: "login to astrocyber"})
	assert.Equal(t, ScreenLogin, s.Screen)
	assert.Equal(t, []string{"> login to astrocyber"}, texts(s))
	assert.Empty(t, effects)

	s, _ = mustApply(t, s, vegaLogin)
	assert.Equal(t, ScreenKeyChallenge, s.Screen)
	require.NotNil(t, s.Origin)
	assert.Equal(t, "Vega", s.Origin.Name)
	assert.Equal(t, "S5TH3O", s.SecretKey)
	assert.False(t, s.Authenticated)

	s, _ = mustApply(t, s, KeySubmitted{Candidate: "s5th3o"})
	assert.Equal(t, ScreenTerminal, s.Screen)
	assert.True(t, s.Authenticated)
	assert.Equal(t, "Access granted. Welcome, Vega.", s.Transcript[len(s.Transcript)-1].Text)
}

func TestLoginInvalidInputKeepsState(t *testing.T) {
	s, _ := mustApply(t, New(), CommandSubmitted{Raw: "login to astrocyber"})

	next, effects, err := Apply(s, LoginSubmitted{Name: "Vega", DOB: "not-a-date", Time: "14:30", Place: "Lyra"})
	require.ErrorIs(t, err, keyderive.ErrInvalidInput)
	assert.Empty(t, effects)
	assert.Equal(t, ScreenLogin, next.Screen)
	assert.Nil(t, next.Origin)
	assert.Empty(t, next.SecretKey)

	_, _, err = Apply(s, LoginSubmitted{DOB: "1990-03-15", Time: "14:30", Place: "Lyra"})
	require.ErrorIs(t, err, origin.ErrMissingField)
}

func TestWrongScreenSubmissions(t *testing.T) {
	_, _, err := Apply(New(), vegaLogin)
	require.ErrorIs(t, err, ErrWrongScreen)

	_, _, err = Apply(New(), KeySubmitted{Candidate: "S5TH3O"})
	require.ErrorIs(t, err, ErrWrongScreen)

	s, _ := mustApply(t, New(), CommandSubmitted{Raw: "login to astrocyber"})
	_, _, err = Apply(s, KeySubmitted{Candidate: "S5TH3O"})
	require.ErrorIs(t, err, ErrWrongScreen)
}

func TestKeyMismatch(t *testing.T) {
	s, _ := mustApply(t, New(), CommandSubmitted{Raw: "login to astrocyber"}, vegaLogin)

	s, effects := mustApply(t, s, KeySubmitted{Candidate: "O0O0O"})
	assert.Equal(t, ScreenKeyChallenge, s.Screen)
	assert.False(t, s.Authenticated)
	assert.True(t, s.KeyInvalid)
	assert.Equal(t, Line{Kind: LineError, Text: "ACCESS DENIED. KEY INVALID."}, s.Transcript[len(s.Transcript)-1])
	require.Len(t, effects, 1)
	first := effects[0].(ScheduleKeyFlagClear)
	assert.Equal(t, KeyFlagDelay, first.After)

	s, effects = mustApply(t, s, KeySubmitted{Candidate: "nope"})
	second := effects[0].(ScheduleKeyFlagClear)
	assert.Greater(t, second.Gen, first.Gen)

	// The first timer must not clear the flag raised by the second miss.
	s, _ = mustApply(t, s, KeyFlagExpired{Gen: first.Gen})
	assert.True(t, s.KeyInvalid)
	s, _ = mustApply(t, s, KeyFlagExpired{Gen: second.Gen})
	assert.False(t, s.KeyInvalid)
	assert.False(t, s.Authenticated)
}

func TestHelp(t *testing.T) {
	s, _ := mustApply(t, New(), CommandSubmitted{Raw: "help"})
	require.Len(t, s.Transcript, 1+len(command.HelpText))
	assert.Equal(t, Line{Kind: LineEcho, Text: "> help"}, s.Transcript[0])
	for i, text := range command.HelpText {
		assert.Equal(t, Line{Kind: LineHelp, Text: text}, s.Transcript[i+1])
	}
}

func TestClear(t *testing.T) {
	for _, n := range []int{0, 1, 25} {
		s := New()
		for i := 0; i < n; i++ {
			s, _ = mustApply(t, s, CommandSubmitted{Raw: "help"})
		}
		s, _ = mustApply(t, s, CommandSubmitted{Raw: "clear"})
		assert.Empty(t, s.Transcript)
		assert.Equal(t, 1, s.Clears)
	}
}

func TestUnknownCommandEchoesOriginalText(t *testing.T) {
	s, _ := mustApply(t, New(), CommandSubmitted{Raw: "Open The Pod Bay Doors"})
	assert.Equal(t, []string{
		"> Open The Pod Bay Doors",
		"Unknown command: Open The Pod Bay Doors. Type 'help' for a list of commands.",
	}, texts(s))
}

func TestAskRequiresAuthentication(t *testing.T) {
	s, effects := mustApply(t, New(), CommandSubmitted{Raw: "ask what is my fate?"})
	assert.Empty(t, effects)
	assert.Equal(t, []string{
		"> ask what is my fate?",
		"Access restricted: not authenticated. Type 'login to astrocyber' to begin.",
	}, texts(s))

	// Captured origin without a matching key is still not enough.
	s, _ = mustApply(t, s, CommandSubmitted{Raw: "login to astrocyber"}, vegaLogin)
	s, effects = mustApply(t, s, CommandSubmitted{Raw: "ask what is my fate?"})
	assert.Empty(t, effects)
	assert.Equal(t, ScreenKeyChallenge, s.Screen)
	assert.Equal(t, notAuthedText, s.Transcript[len(s.Transcript)-1].Text)
}

func TestCommandsOffTerminalDoNotTransition(t *testing.T) {
	s, _ := mustApply(t, New(), CommandSubmitted{Raw: "login to astrocyber"})
	for _, raw := range []string{"clear", "help", "login to astrocyber"} {
		var effects []Effect
		s, effects = mustApply(t, s, CommandSubmitted{Raw: raw})
		assert.Empty(t, effects)
		assert.Equal(t, ScreenLogin, s.Screen)
		assert.Equal(t, unavailableText, s.Transcript[len(s.Transcript)-1].Text)
	}
	assert.Equal(t, 0, s.Clears)
}

func TestAskAuthenticated(t *testing.T) {
	s := authenticated(t)

	s, effects := mustApply(t, s, CommandSubmitted{Raw: "ask Will Mars Favor Me?"})
	require.Len(t, effects, 1)
	ask := effects[0].(IssueAsk)
	assert.Equal(t, "Will Mars Favor Me?", ask.Query)
	assert.Equal(t, "Vega", ask.Origin.Name)
	assert.Equal(t, `AI: Processing query "Will Mars Favor Me?"...`, s.Transcript[len(s.Transcript)-1].Text)

	s, _ = mustApply(t, s, AskCompleted{ID: ask.ID, Reply: "Mars burns bright for you."})
	assert.Equal(t, Line{Kind: LineReply, Text: "AI: Mars burns bright for you."}, s.Transcript[len(s.Transcript)-1])

	_, more := mustApply(t, s, CommandSubmitted{Raw: "ask again?"})
	assert.Greater(t, more[0].(IssueAsk).ID, ask.ID)
}

func TestAskEmptyQuery(t *testing.T) {
	s, effects := mustApply(t, authenticated(t), CommandSubmitted{Raw: "ask   "})
	assert.Empty(t, effects)
	assert.Equal(t, `AI: Please provide a question after "ask".`, s.Transcript[len(s.Transcript)-1].Text)
}

func TestAskErrorsBecomeErrorLines(t *testing.T) {
	for _, tc := range []struct {
		name string
		err  error
		want string
	}{
		{"Fatal", &oracle.Error{Kind: oracle.KindNetworkFatal, StatusCode: 404, Message: "not found"}, "// ERROR: Network response not ok. Status: 404. Message: not found. //"},
		{"Empty", &oracle.Error{Kind: oracle.KindEmptyResponse}, "// ERROR: Empty response from AI. //"},
		{"Exhausted", &oracle.Error{Kind: oracle.KindExhaustedRetries, Attempts: 5}, "// ERROR: AI datastream unreachable after 5 attempts. //"},
		{"Other", errors.New("boom"), "// ERROR: boom //"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			s, _ := mustApply(t, authenticated(t), AskCompleted{ID: 1, Err: tc.err})
			assert.Equal(t, Line{Kind: LineError, Text: tc.want}, s.Transcript[len(s.Transcript)-1])
		})
	}
}

func TestReloginReplacesOriginAndClearsAuth(t *testing.T) {
	s := authenticated(t)
	s, _ = mustApply(t, s,
		CommandSubmitted{Raw: "login to astrocyber"},
		LoginSubmitted{Name: "Rigel", DOB: "2000-01-01", Time: "00:00", Place: "Orion"},
	)
	assert.False(t, s.Authenticated)
	assert.Equal(t, "Rigel", s.Origin.Name)
	assert.Equal(t, "O0O0T", s.SecretKey)
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	base, _ := mustApply(t, New(), CommandSubmitted{Raw: "help"})
	snapshot := base.Clone()

	_, _ = mustApply(t, base, CommandSubmitted{Raw: "first"})
	_, _ = mustApply(t, base, CommandSubmitted{Raw: "second"})
	_, _ = mustApply(t, base, CommandSubmitted{Raw: "clear"})

	assert.Equal(t, snapshot, base)
}

func TestPendingInput(t *testing.T) {
	s, _ := mustApply(t, New(), InputChanged{Text: "hel"})
	assert.Equal(t, "hel", s.PendingInput)
	s, _ = mustApply(t, s, CommandSubmitted{Raw: "help"})
	assert.Empty(t, s.PendingInput)
}

func TestTranscriptOnlyGrowsExceptClear(t *testing.T) {
	s := New()
	events := []Event{
		CommandSubmitted{Raw: "help"},
		CommandSubmitted{Raw: "ask nothing"},
		CommandSubmitted{Raw: "whoami"},
		CommandSubmitted{Raw: "login to astrocyber"},
		vegaLogin,
		KeySubmitted{Candidate: "wrong"},
		KeyFlagExpired{Gen: 1},
		KeySubmitted{Candidate: "S5TH3O"},
		CommandSubmitted{Raw: "ask why?"},
		AskCompleted{ID: 1, Reply: "because"},
	}
	for _, ev := range events {
		before := len(s.Transcript)
		s, _ = mustApply(t, s, ev)
		assert.GreaterOrEqual(t, len(s.Transcript), before)
	}
}

func TestScreenString(t *testing.T) {
	assert.Equal(t, "terminal", ScreenTerminal.String())
	assert.Equal(t, "login", ScreenLogin.String())
	assert.Equal(t, "key_challenge", ScreenKeyChallenge.String())
	assert.Equal(t, "Screen(9)", Screen(9).String())
}
