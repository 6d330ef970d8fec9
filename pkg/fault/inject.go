package fault

import "fmt"

// SiteKind is what an injection site exposes to the injector
type SiteKind int

const (
	// Action is a statement that can be skipped
	Action SiteKind = iota
	// Value is an integer that can be corrupted right after it is written
	Value
	// Bound is the iteration limit of a loop
	Bound
)

func (k SiteKind) String() string {
	switch k {
	case Action:
		return "action"
	case Value:
		return "value"
	case Bound:
		return "bound"
	}
	return "unknown"
}

// Site identifies one place in one encryption where a fault can land
type Site struct {
	Strategy string
	Scope    string
	Point    string
	Kind     SiteKind
	// Round is -1 outside the round loop
	Round int
	// Index is -1 outside an indexed loop
	Index int
}

func (s Site) String() string {
	return fmt.Sprintf("%s.%s[%d,%d]", s.Scope, s.Point, s.Round, s.Index)
}

// Injector is consulted by a strategy at every site it passes. A clean run
// uses NoFaults.
type Injector interface {
	// Skip reports whether the action at site is not executed
	Skip(site Site) bool
	// Value returns what is actually stored when v is written at site
	Value(site Site, v int) int
	// Bound returns the limit the loop at site actually compares against
	Bound(site Site, n int) int
}

// NoFaults leaves every site alone
type NoFaults struct{}

func (NoFaults) Skip(Site) bool { return false }

func (NoFaults) Value(_ Site, v int) int { return v }

func (NoFaults) Bound(_ Site, n int) int { return n }

// Recorder injects nothing and remembers every site it was shown, in order
type Recorder struct {
	Sites []Site
}

// NewRecorder returns an empty recorder
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Skip(site Site) bool {
	r.Sites = append(r.Sites, site)
	return false
}

func (r *Recorder) Value(site Site, v int) int {
	r.Sites = append(r.Sites, site)
	return v
}

func (r *Recorder) Bound(site Site, n int) int {
	r.Sites = append(r.Sites, site)
	return n
}
