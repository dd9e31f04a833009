// Package command classifies raw terminal input into the closed set of
// commands the ASTRO-CYBER terminal understands.
package command

import "strings"

const (
	keywordHelp  = "help"
	keywordLogin = "login to astrocyber"
	keywordClear = "clear"
	keywordAsk   = "ask"
)

// Command is one of Help, Login, Clear, Ask or Unknown.
type Command interface {
	command()
}

// Help lists the available commands.
type Help struct{}

// Login opens the origin login form.
type Login struct{}

// Clear empties the transcript.
type Clear struct{}

// Ask sends Query to the oracle. Query keeps the case it was typed in
// and may be empty when nothing followed the keyword.
type Ask struct {
	Query string
}

// Unknown is any input that is not a recognized command. Input is the
// text exactly as submitted.
type Unknown struct {
	Input string
}

func (Help) command()    {}
func (Login) command()   {}
func (Clear) command()   {}
func (Ask) command()     {}
func (Unknown) command() {}

// Parse classifies raw. Keywords match after trimming and lower-casing;
// the ask payload and unknown input keep their original text.
func Parse(raw string) Command {
	trimmed := strings.TrimSpace(raw)
	switch strings.ToLower(trimmed) {
	case keywordHelp:
		return Help{}
	case keywordLogin:
		return Login{}
	case keywordClear:
		return Clear{}
	case keywordAsk:
		return Ask{}
	}

	prefix := keywordAsk + " "
	if len(trimmed) >= len(prefix) && strings.EqualFold(trimmed[:len(prefix)], prefix) {
		return Ask{Query: strings.TrimSpace(trimmed[len(prefix):])}
	}
	return Unknown{Input: raw}
}

// HelpText is the block appended by the help command.
var HelpText = []string{
	"Available Commands:",
	"- help: Shows available commands.",
	"- login to astrocyber: Opens the login page.",
	"- clear: Clears the terminal screen.",
	"- ask [your question]: Ask the AI a question (after login and key validation).",
}

// Banner is shown when the terminal first starts.
var Banner = []string{
	">>> ASTRO-CYBER TERMINAL v2.1 INITIALIZED <<<",
	">>> ACCESSING COSMIC DATABASE... <<<",
	"Type 'help' to get started.",
}

// Riddle explains how the key is formed without giving it away.
const Riddle = "“Take the digits of your origin and collapse them into one final sign; " +
	"each sign speaks only by its first letter — O, T, TH, F, FI, S, SE, E, N; " +
	"let the clock speak in the machine’s language, then bind the two to uncover the key.”"

// Hint is the faint line under the key challenge.
const Hint = "Clock speaks in the machine’s tongue."
