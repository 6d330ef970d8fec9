package fault

import (
	"fmt"
	"io"
	"os"
)

const (
	// Diagnostic follows the strategy tag on the error stream
	Diagnostic = "The algorithm failed to execute properly"
	// ExitCode is the status a halted process exits with. The shell sees 255.
	ExitCode = -1
)

// Handler reports a detected fault and terminates the process
type Handler struct {
	stderr io.Writer
	exit   func(int)
}

// NewHandler returns a handler writing to stderr and exiting with os.Exit
func NewHandler(stderr io.Writer) *Handler {
	return &Handler{
		stderr: stderr,
		exit:   os.Exit,
	}
}

// SetExit replaces the exit function.
// To be used for testing only
func (h *Handler) SetExit(exit func(int)) {
	h.exit = exit
}

// Message is the line Halt writes for a strategy tag
func Message(tag string) string {
	return fmt.Sprintf("HARDERR %s %s", tag, Diagnostic)
}

// Halt writes the diagnostic for f and exits. It never returns.
func (h *Handler) Halt(f *Fault) {
	fmt.Fprintln(h.stderr, Message(f.Tag))
	h.exit(ExitCode)
	panic("unreachable: exit returned")
}
