// Package fault holds what the hardening strategies share: the error they
// raise on an integrity violation, the handler that reports it and halts, and
// the injector used to simulate faults against them.
package fault

import (
	"fmt"

	"golang.org/x/xerrors"
)

// Kind tells us which class of inconsistency was detected
type Kind int

const (
	// ControlFlow means an action, iteration or call ran out of its expected order
	ControlFlow Kind = iota
	// DataConsistency means a value and its shadow diverged
	DataConsistency
)

func (k Kind) String() string {
	switch k {
	case ControlFlow:
		return "control-flow"
	case DataConsistency:
		return "data-consistency"
	}
	return "unknown"
}

// Fault is raised by a strategy the moment it detects an inconsistency. There
// is no recovery from it: the only thing a caller can do is halt.
type Fault struct {
	Kind     Kind
	Strategy string
	Tag      string
	Scope    string
	Check    string
	Expected int
	Actual   int
	// Round is -1 outside the round loop
	Round int
	// Index is -1 outside an indexed loop
	Index int
	frame xerrors.Frame
}

// FormatError prints the tag, the check that failed with what it expected and
// what it got, then the round and index when the check sits in those loops
func (f *Fault) FormatError(p xerrors.Printer) error {
	p.Printf("%s %s violation in %s at %s: expected %d, got %d", f.Tag, f.Kind, f.Scope, f.Check, f.Expected, f.Actual)
	if f.Round >= 0 {
		p.Printf(" (round %d", f.Round)
		if f.Index >= 0 {
			p.Printf(", index %d", f.Index)
		}
		p.Print(")")
	}
	f.frame.Format(p)
	return nil
}

// Format prints the fault through FormatError. %+v adds where it was raised
func (f *Fault) Format(s fmt.State, c rune) {
	xerrors.FormatError(f, s, c)
}

func (f *Fault) Error() string {
	return fmt.Sprint(f)
}

// Raise diverges with f. Strategies recover it at their boundary with Catch.
func Raise(f *Fault) {
	f.frame = xerrors.Caller(1)
	panic(f)
}

// Catch must be deferred directly by a strategy's Encrypt. A raised fault
// becomes the returned error; any other panic keeps going.
func Catch(err *error) {
	r := recover()
	if r == nil {
		return
	}
	f, ok := r.(*Fault)
	if !ok {
		panic(r)
	}
	*err = f
}

// As returns the fault inside err, if there is one
func As(err error) (*Fault, bool) {
	var f *Fault
	if xerrors.As(err, &f) {
		return f, true
	}
	return nil, false
}
