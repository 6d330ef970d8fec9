package fault

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/go-errors/errors"
	"github.com/samber/lo"
)

// Model is a kind of fault a plan injects
type Model string

const (
	// Nop skips one action. On a conditional it inverts the decision.
	Nop Model = "nop"
	// Flip flips one bit of a written value
	Flip Model = "flip"
	// Zero clears a written value
	Zero Model = "zero"
	// BoundUp makes a loop run one more iteration
	BoundUp Model = "bound+"
	// BoundDown makes a loop run one fewer iteration
	BoundDown Model = "bound-"
)

// Models lists every model in the order campaigns apply them
var Models = []Model{Nop, Flip, Zero, BoundUp, BoundDown}

// ValueBits is how many bit positions a flip can target
const ValueBits = 8

// Targets is the kind of site a model lands on
func (m Model) Targets() SiteKind {
	switch m {
	case Flip, Zero:
		return Value
	case BoundUp, BoundDown:
		return Bound
	}
	return Action
}

// ParseModel validates a model name
func ParseModel(s string) (Model, error) {
	m := Model(s)
	if !lo.Contains(Models, m) {
		return "", errors.Errorf("unknown fault model %q", s)
	}
	return m, nil
}

// Plan injects a single fault at one site and leaves the rest of the run alone
type Plan struct {
	Model Model
	Scope string
	Point string
	Round int
	Index int
	// Bit is only used by Flip
	Bit int

	fired bool
}

var planPattern = regexp.MustCompile(`^(nop|flip|zero|bound\+|bound-)@(\w+)\.(\w+)\[(-?\d+),(-?\d+)\](?:/([0-7]))?$`)

// ParsePlan reads a plan in the form model@scope.point[round,index], with a
// trailing /bit for flips, e.g. flip@permute.position[30,17]/4
func ParsePlan(s string) (*Plan, error) {
	match := planPattern.FindStringSubmatch(s)
	if match == nil {
		return nil, errors.Errorf("malformed fault plan %q, expected model@scope.point[round,index]", s)
	}

	round, err := strconv.Atoi(match[4])
	if err != nil {
		return nil, errors.Errorf("fault plan %q has an out of range round: %v", s, err)
	}
	index, err := strconv.Atoi(match[5])
	if err != nil {
		return nil, errors.Errorf("fault plan %q has an out of range index: %v", s, err)
	}

	plan := &Plan{
		Model: Model(match[1]),
		Scope: match[2],
		Point: match[3],
		Round: round,
		Index: index,
	}

	if plan.Model == Flip {
		if match[6] == "" {
			return nil, errors.Errorf("fault plan %q flips a value but names no bit", s)
		}
		// a single digit from 0 to 7
		plan.Bit, _ = strconv.Atoi(match[6])
	} else if match[6] != "" {
		return nil, errors.Errorf("fault plan %q names a bit but does not flip", s)
	}

	return plan, nil
}

// PlanAt builds the plan that hits site with model
func PlanAt(site Site, model Model, bit int) *Plan {
	return &Plan{
		Model: model,
		Scope: site.Scope,
		Point: site.Point,
		Round: site.Round,
		Index: site.Index,
		Bit:   bit,
	}
}

func (p *Plan) String() string {
	s := fmt.Sprintf("%s@%s.%s[%d,%d]", p.Model, p.Scope, p.Point, p.Round, p.Index)
	if p.Model == Flip {
		s += fmt.Sprintf("/%d", p.Bit)
	}
	return s
}

// Fired reports whether the plan found its site
func (p *Plan) Fired() bool {
	return p.fired
}

func (p *Plan) hits(site Site) bool {
	return !p.fired &&
		site.Kind == p.Model.Targets() &&
		site.Scope == p.Scope &&
		site.Point == p.Point &&
		site.Round == p.Round &&
		site.Index == p.Index
}

func (p *Plan) Skip(site Site) bool {
	if !p.hits(site) {
		return false
	}
	p.fired = true
	return true
}

func (p *Plan) Value(site Site, v int) int {
	if !p.hits(site) {
		return v
	}
	p.fired = true
	if p.Model == Zero {
		return 0
	}
	return v ^ 1<<uint(p.Bit)
}

func (p *Plan) Bound(site Site, n int) int {
	if !p.hits(site) {
		return n
	}
	p.fired = true
	if p.Model == BoundUp {
		return n + 1
	}
	return n - 1
}
