package shadow

import (
	"github.com/go-errors/errors"
	"github.com/samber/lo"
)

// Policy decides when a group of compared pairs counts as a fault
type Policy int

const (
	// PerVariable raises as soon as any pair of a group disagrees
	PerVariable Policy = iota
	// Conjunctive only raises when every pair of a group disagrees at once
	Conjunctive
)

var policyNames = map[Policy]string{
	PerVariable: "per-variable",
	Conjunctive: "conjunctive",
}

func (p Policy) String() string {
	if name, ok := policyNames[p]; ok {
		return name
	}
	return "unknown"
}

// Policies lists the policy names accepted by ParsePolicy
func Policies() []string {
	return []string{PerVariable.String(), Conjunctive.String()}
}

// ParsePolicy maps a policy name to its Policy
func ParsePolicy(name string) (Policy, error) {
	p, ok := lo.Invert(policyNames)[name]
	if !ok {
		return PerVariable, errors.Errorf("unknown shadow policy %q, expected one of %v", name, Policies())
	}
	return p, nil
}
