// Package hardening selects the strategy an encryption runs under
package hardening

import (
	"github.com/go-errors/errors"
	"github.com/jesseduffield/hardpresent/pkg/counting"
	"github.com/jesseduffield/hardpresent/pkg/fault"
	"github.com/jesseduffield/hardpresent/pkg/present"
	"github.com/jesseduffield/hardpresent/pkg/shadow"
	"github.com/samber/lo"
)

// Reference is the name of the unhardened strategy
const Reference = "reference"

// Strategy is one way of running the cipher. Exactly one is active per
// encryption.
type Strategy interface {
	Name() string
	// Tag is what the fault diagnostic names the strategy by
	Tag() string
	// Encrypt encrypts plaintext and updates key in place. A detected fault
	// comes back as a *fault.Fault and no ciphertext.
	Encrypt(plaintext present.Block, key *present.Key) (present.Block, error)
}

// Options configure a strategy
type Options struct {
	// Policy only applies to the shadow strategy
	Policy shadow.Policy
	// Injector simulates a fault. Nil for a clean run.
	Injector fault.Injector
}

// Names lists the strategies New knows
func Names() []string {
	return []string{counting.Name, shadow.Name, Reference}
}

// Hardened lists the strategies that detect faults
func Hardened() []string {
	return lo.Filter(Names(), func(name string, _ int) bool {
		return name != Reference
	})
}

// New returns the strategy called name
func New(name string, opts Options) (Strategy, error) {
	switch name {
	case counting.Name:
		return counting.New(opts.Injector), nil
	case shadow.Name:
		return shadow.New(opts.Injector, opts.Policy), nil
	case Reference:
		return referenceStrategy{}, nil
	}
	return nil, errors.Errorf("unknown strategy %q, expected one of %v", name, Names())
}

type referenceStrategy struct{}

func (referenceStrategy) Name() string {
	return Reference
}

func (referenceStrategy) Tag() string {
	return "T0"
}

func (referenceStrategy) Encrypt(plaintext present.Block, key *present.Key) (present.Block, error) {
	return present.Encrypt(plaintext, key), nil
}
