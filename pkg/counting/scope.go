package counting

import "github.com/jesseduffield/hardpresent/pkg/fault"

// Cursor is where the encryption currently is. It only annotates faults.
type Cursor struct {
	Round int
	Index int
}

func outside() *Cursor {
	return &Cursor{Round: -1, Index: -1}
}

// Scope is the statement counter of one function, loop body or branch. It
// starts at 1 and every guarded action moves it on by one.
type Scope struct {
	name  string
	value int
	at    *Cursor
}

// NewScope enters a scope. at may be nil when there is nothing to annotate.
func NewScope(name string, at *Cursor) *Scope {
	if at == nil {
		at = outside()
	}
	return &Scope{name: name, value: 1, at: at}
}

// Name is the scope's name as it appears in sites and faults
func (s *Scope) Name() string {
	return s.name
}

// Value is the current counter
func (s *Scope) Value() int {
	return s.value
}

// Check asserts the counter is at the ordinal of the action that just ran,
// then moves it on
func (s *Scope) Check(expected int) {
	if s.value != expected {
		s.violation("check", expected, s.value)
	}
	s.value++
}

// Reset starts a new iteration of a loop body. The counter must still be at 1
// (first iteration) or at the body's terminal value.
func (s *Scope) Reset(final int) {
	if s.value != 1 && s.value != final {
		s.violation("reset", final, s.value)
	}
	s.value = 1
}

// EndBranch leaves a conditional body: 1 if it was not taken, final if it ran
// to the end
func (s *Scope) EndBranch(final int) {
	if s.value != 1 && s.value != final {
		s.violation("branch", final, s.value)
	}
}

// End asserts the scope ran to its terminal value
func (s *Scope) End(final int) {
	if s.value != final {
		s.violation("end", final, s.value)
	}
}

// Return is the call boundary check. The callee must have reached its
// terminal value and the caller must be at the ordinal of the call, both at
// once, before the caller moves on.
func (s *Scope) Return(callee *Scope, calleeFinal, expected int) {
	if callee.value != calleeFinal {
		callee.violation("return", calleeFinal, callee.value)
	}
	if s.value != expected {
		s.violation("call", expected, s.value)
	}
	s.value++
}

func (s *Scope) violation(check string, expected, actual int) {
	fault.Raise(&fault.Fault{
		Kind:     fault.ControlFlow,
		Strategy: Name,
		Tag:      Tag,
		Scope:    s.name,
		Check:    check,
		Expected: expected,
		Actual:   actual,
		Round:    s.at.Round,
		Index:    s.at.Index,
	})
}

// Loop is a loop body scope plus the iteration counter that shadows the loop
// index
type Loop struct {
	*Scope
	iterations int
	total      int
	final      int
}

// NewLoop enters a loop that must run exactly total iterations, each ending
// with the body counter at final
func NewLoop(name string, total, final int, at *Cursor) *Loop {
	return &Loop{
		Scope: NewScope(name, at),
		total: total,
		final: final,
	}
}

// Next starts the iteration for index i. The iteration counter has to agree
// with the index, and may not run past the expected count even if the loop
// condition was corrupted into allowing it.
func (l *Loop) Next(i int) {
	l.Reset(l.final)
	if l.iterations != i {
		l.violation("iteration", i, l.iterations)
	}
	if l.iterations >= l.total {
		l.violation("overrun", l.total, l.iterations+1)
	}
	l.iterations++
}

// Exit checks the loop ran exactly its expected number of iterations and that
// the last one was not cut short
func (l *Loop) Exit() {
	if l.iterations != l.total {
		l.violation("exit", l.total, l.iterations)
	}
	if l.value != 1 && l.value != l.final {
		l.violation("reset", l.final, l.value)
	}
}

// Iterations is how many iterations have started
func (l *Loop) Iterations() int {
	return l.iterations
}
