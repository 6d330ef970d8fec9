package campaign

import (
	"strings"

	"github.com/jesseduffield/hardpresent/pkg/commands"
	"github.com/jesseduffield/hardpresent/pkg/fault"
	"github.com/jesseduffield/hardpresent/pkg/i18n"
	"github.com/jesseduffield/hardpresent/pkg/utils"
)

// Outcome is how an experiment ended
type Outcome string

const (
	// Detected means the strategy halted with its diagnostic
	Detected Outcome = "detected"
	// Corrupted means a wrong ciphertext came out unnoticed
	Corrupted Outcome = "corrupted"
	// Masked means the fault made no difference to the ciphertext
	Masked Outcome = "masked"
	// Crashed means the run died some other way
	Crashed Outcome = "crashed"
	// TimedOut means the run had to be killed
	TimedOut Outcome = "timeout"
)

// Outcomes lists every outcome in report order
var Outcomes = []Outcome{Detected, Corrupted, Masked, Crashed, TimedOut}

// haltStatus is what the shell sees when a process exits with fault.ExitCode
const haltStatus = fault.ExitCode & 0xff

// Classify compares what a run printed against the reference output. Line
// endings are normalised, so a binary built for windows compares the same.
func Classify(execution *commands.Execution, expected string) Outcome {
	switch {
	case execution.TimedOut:
		return TimedOut
	case execution.ExitCode == haltStatus && strings.HasPrefix(execution.Stderr, "HARDERR "):
		return Detected
	case execution.ExitCode != 0:
		return Crashed
	case utils.NormalizeLinefeeds(execution.Stdout) == expected:
		return Masked
	}
	return Corrupted
}

// Translate returns the outcome's name in the user's language
func (o Outcome) Translate(tr *i18n.TranslationSet) string {
	switch o {
	case Detected:
		return tr.Detected
	case Corrupted:
		return tr.Corrupted
	case Masked:
		return tr.Masked
	case Crashed:
		return tr.Crashed
	case TimedOut:
		return tr.TimedOut
	}
	return string(o)
}
