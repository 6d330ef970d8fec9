// Package shadow hardens the cipher with redundant computation. Every loop
// index, round counter, permutation coordinate and saved key byte is computed
// a second time from independent inputs, and the two sides are compared after
// each joint update.
package shadow

import (
	"github.com/jesseduffield/hardpresent/pkg/fault"
	"github.com/jesseduffield/hardpresent/pkg/present"
)

const (
	// Name is the strategy's name on the command line
	Name = "shadow"
	// Tag identifies the strategy in diagnostics
	Tag = "T4"
)

// Strategy encrypts with shadow variables
type Strategy struct {
	inj    fault.Injector
	policy Policy
}

// New returns the shadow strategy. inj may be nil for a clean run.
func New(inj fault.Injector, policy Policy) *Strategy {
	if inj == nil {
		inj = fault.NoFaults{}
	}
	return &Strategy{inj: inj, policy: policy}
}

func (s *Strategy) Name() string {
	return Name
}

func (s *Strategy) Tag() string {
	return Tag
}

// Policy is the comparison policy in use
func (s *Strategy) Policy() Policy {
	return s.policy
}

// Encrypt encrypts plaintext, updating key in place. On a detected fault the
// returned error is a *fault.Fault and the ciphertext is zero.
//
// Loop limits are not shadowed: a corrupted loop bound is outside what this
// strategy detects.
func (s *Strategy) Encrypt(plaintext present.Block, key *present.Key) (ciphertext present.Block, err error) {
	defer fault.Catch(&err)

	r := &run{
		inj:       s.inj,
		policy:    s.policy,
		plaintext: plaintext,
		key:       key,
		round:     -1,
		index:     -1,
		scratch:   NewBuffer("scratch"),
		i:         NewPair[int]("i"),
		rounds:    NewPair[int]("round"),
		position:  NewPair[int]("position"),
		srcByte:   NewPair[int]("srcByte"),
		srcBit:    NewPair[int]("srcBit"),
		dstByte:   NewPair[int]("dstByte"),
		dstBit:    NewPair[int]("dstBit"),
		save1:     NewPair[uint8]("save1"),
		save2:     NewPair[uint8]("save2"),
	}
	r.encrypt()

	return r.state, nil
}

// run is the working set of one encryption
type run struct {
	inj    fault.Injector
	policy Policy

	// where we are, for sites and faults. Taken from the shadow side.
	round, index int

	plaintext present.Block
	state     present.Block
	key       *present.Key
	scratch   *Buffer

	i, rounds                                  *Pair[int]
	position, srcByte, srcBit, dstByte, dstBit *Pair[int]
	save1, save2                               *Pair[uint8]
}

func (r *run) site(scope, point string, kind fault.SiteKind) fault.Site {
	return fault.Site{
		Strategy: Name,
		Scope:    scope,
		Point:    point,
		Kind:     kind,
		Round:    r.round,
		Index:    r.index,
	}
}

// verify compares a group of pairs right after they were updated
func (r *run) verify(scope string, pairs ...checked) {
	mismatched := 0
	first := -1
	for n, p := range pairs {
		if !p.Match() {
			mismatched++
			if first < 0 {
				first = n
			}
		}
	}
	if mismatched == 0 {
		return
	}
	if r.policy == Conjunctive && mismatched < len(pairs) {
		return
	}

	actual, expected := pairs[first].values()
	fault.Raise(&fault.Fault{
		Kind:     fault.DataConsistency,
		Strategy: Name,
		Tag:      Tag,
		Scope:    scope,
		Check:    pairs[first].label(),
		Expected: expected,
		Actual:   actual,
		Round:    r.round,
		Index:    r.index,
	})
}

// guard compares pairs before they are used as an index. Only the
// per-variable policy does this; the conjunctive policy compares after use.
func (r *run) guard(scope string, pairs ...checked) {
	if r.policy == PerVariable {
		r.verify(scope, pairs...)
	}
}

// do runs an action on the primary side that can be skipped
func (r *run) do(scope, point string, action func()) {
	if !r.inj.Skip(r.site(scope, point, fault.Action)) {
		action()
	}
}

// touch hands the freshly written primary to the injector
func touch[T ~int | ~uint8](r *run, scope, point string, p *Pair[T]) {
	p.v = T(r.inj.Value(r.site(scope, point, fault.Value), int(p.v)))
}

// step increments both sides. A skipped step only moves the shadow.
func step[T ~int | ~uint8](r *run, scope, point string, p *Pair[T]) {
	if r.inj.Skip(r.site(scope, point, fault.Action)) {
		p.shadow++
	} else {
		p.Inc()
	}
	touch(r, scope, point, p)
}

// back decrements both sides. A skipped step only moves the shadow.
func back[T ~int | ~uint8](r *run, scope, point string, p *Pair[T]) {
	if r.inj.Skip(r.site(scope, point, fault.Action)) {
		p.shadow--
	} else {
		p.Dec()
	}
	touch(r, scope, point, p)
}

func (r *run) start(scope string) {
	r.i.Set(0, 0)
	touch(r, scope, "i", r.i)
}

func (r *run) touchScratch(scope string, i int) {
	site := r.site(scope, "scratch", fault.Value)
	r.scratch.v[i] = byte(r.inj.Value(site, int(r.scratch.v[i])))
}

func (r *run) encrypt() {
	r.start("load")
	for r.i.v < present.BlockSize {
		r.index = r.i.shadow
		r.verify("load", r.i)
		r.do("load", "apply", func() { present.LoadState(&r.state, &r.plaintext, r.i.v) })
		step(r, "load", "i", r.i)
	}
	r.index = -1
	r.verify("load", r.i)

	r.rounds.Set(0, 0)
	touch(r, "rounds", "round", r.rounds)
	for r.rounds.v < present.Rounds {
		r.round = r.rounds.shadow
		r.guard("rounds", r.rounds)

		r.mix("mix")
		r.substitute()
		r.permute()
		r.schedule()

		step(r, "rounds", "round", r.rounds)
	}
	r.round = -1
	r.verify("rounds", r.rounds, r.i)

	r.mix("whiten")
}

func (r *run) mix(scope string) {
	r.start(scope)
	for r.i.v < present.BlockSize {
		r.index = r.i.shadow
		r.verify(scope, r.i)
		r.do(scope, "apply", func() { present.MixKey(&r.state, r.key, r.i.v) })
		step(r, scope, "i", r.i)
	}
	r.index = -1
	r.verify(scope, r.i)
}

// substitute walks the state downwards from where mix left the index
func (r *run) substitute() {
	const scope = "sbox"
	for r.i.v > 0 {
		r.index = r.i.shadow
		back(r, scope, "i", r.i)
		r.verify(scope, r.i)
		r.do(scope, "apply", func() { present.SubstituteState(&r.state, r.i.v) })
	}
	r.index = -1
	r.verify(scope, r.i)
}

func (r *run) permute() {
	r.clear()

	const scope = "permute"
	r.start(scope)
	for r.i.v < present.BlockBits {
		r.index = r.i.shadow
		r.guard(scope, r.i)

		r.position.Set(present.Spread(r.i.v), present.Spread(r.i.shadow))
		touch(r, scope, "position", r.position)
		r.verify(scope, r.i, r.position)
		if r.i.v == present.BlockBits-1 {
			r.position.v = present.BlockBits - 1
			touch(r, scope, "last", r.position)
		}
		if r.i.shadow == present.BlockBits-1 {
			r.position.shadow = present.BlockBits - 1
		}
		r.guard(scope, r.position)

		r.srcByte.Set(r.i.v/8, r.i.shadow/8)
		touch(r, scope, "srcByte", r.srcByte)
		r.verify(scope, r.i, r.srcByte)
		r.srcBit.Set(r.i.v%8, r.i.shadow%8)
		touch(r, scope, "srcBit", r.srcBit)
		r.verify(scope, r.i, r.srcBit)
		r.dstByte.Set(r.position.v/8, r.position.shadow/8)
		touch(r, scope, "dstByte", r.dstByte)
		r.verify(scope, r.position, r.dstByte)
		r.dstBit.Set(r.position.v%8, r.position.shadow%8)
		touch(r, scope, "dstBit", r.dstBit)
		r.verify(scope, r.position, r.dstBit)

		r.do(scope, "apply", func() {
			present.PermuteBit(&r.scratch.v, &r.state, r.srcByte.v, r.srcBit.v, r.dstByte.v, r.dstBit.v)
		})
		present.PermuteBit(&r.scratch.shadow, &r.state, r.srcByte.shadow, r.srcBit.shadow, r.dstByte.shadow, r.dstBit.shadow)
		r.touchScratch(scope, r.dstByte.v)
		r.verify(scope, r.dstByte, r.dstBit, r.srcByte, r.scratch.at(r.dstByte.v, r.dstByte.shadow))

		step(r, scope, "i", r.i)
	}
	r.index = -1
	r.verify(scope, r.i, r.position, r.srcByte, r.srcBit, r.dstByte, r.dstBit,
		r.scratch.at(r.dstByte.v, r.dstByte.shadow))

	r.copy()
}

func (r *run) clear() {
	const scope = "clear"
	r.start(scope)
	for r.i.v < present.BlockSize {
		r.index = r.i.shadow
		r.guard(scope, r.i)
		r.do(scope, "apply", func() { present.ClearScratch(&r.scratch.v, r.i.v) })
		present.ClearScratch(&r.scratch.shadow, r.i.shadow)
		r.touchScratch(scope, r.i.v)
		r.verify(scope, r.i, r.scratch.at(r.i.v, r.i.shadow))
		step(r, scope, "i", r.i)
	}
	r.index = -1
	r.verify(scope, r.i)
}

func (r *run) copy() {
	const scope = "copy"
	r.start(scope)
	for r.i.v < present.BlockSize {
		r.index = r.i.shadow
		r.verify(scope, r.i)
		r.guard(scope, r.scratch.at(r.i.v, r.i.shadow))
		r.do(scope, "apply", func() { present.CopyScratch(&r.state, &r.scratch.v, r.i.v) })
		step(r, scope, "i", r.i)
	}
	r.index = -1
	r.verify(scope, r.i)
}

func (r *run) schedule() {
	const scope = "schedule"

	// the shadows read the key again rather than copying the primary
	r.save1.Set(r.key[0], r.key[0])
	touch(r, scope, "save1", r.save1)
	r.save2.Set(r.key[1], r.key[1])
	touch(r, scope, "save2", r.save2)

	r.start("shift")
	for r.i.v < present.KeySize-2 {
		r.index = r.i.shadow
		r.guard("shift", r.i)
		r.do("shift", "apply", func() { present.ShiftKey(r.key, r.i.v) })
		step(r, "shift", "i", r.i)
	}
	r.index = -1
	r.verify("shift", r.i)

	r.guard(scope, r.save1, r.save2)
	r.do(scope, "restore1", func() { r.key[present.KeySize-2] = r.save1.v })
	r.do(scope, "restore2", func() { r.key[present.KeySize-1] = r.save2.v })
	r.verify(scope, r.save1, r.save2)

	r.start("rotate")
	r.save1.Set(r.key[0]&7, r.key[0]&7)
	touch(r, scope, "carry", r.save1)
	for r.i.v < present.KeySize-1 {
		r.index = r.i.shadow
		r.guard("rotate", r.i)
		r.do("rotate", "apply", func() { present.RotateKey(r.key, r.i.v) })
		step(r, "rotate", "i", r.i)
		r.verify("rotate", r.i)
	}
	r.index = -1
	r.verify("rotate", r.i)

	r.guard(scope, r.save1)
	r.do(scope, "absorb", func() { present.RotateCarry(r.key, r.save1.v) })
	r.verify(scope, r.save1)

	r.do(scope, "sboxTop", func() { present.SubstituteKeyTop(r.key) })
	if present.RoundIsOdd(r.rounds.v) {
		r.do(scope, "flip", func() { present.FlipRoundBit(r.key) })
	}
	r.do(scope, "counter", func() { present.AddRoundCounter(r.key, r.rounds.v) })
}
