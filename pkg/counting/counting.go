// Package counting hardens the cipher with statement counters. Every scope
// (the encryption, each loop body, each conditional) counts the actions it
// runs and checks the count after each one, so that a skipped, repeated or
// redirected statement or iteration is detected before output is produced.
package counting

import (
	"github.com/jesseduffield/hardpresent/pkg/fault"
	"github.com/jesseduffield/hardpresent/pkg/present"
)

const (
	// Name is the strategy's name on the command line
	Name = "counting"
	// Tag identifies the strategy in diagnostics
	Tag = "T1"
)

// terminal counter values, one past the number of guarded actions
const (
	encryptFinal = 7
	roundFinal   = 25
	elementFinal = 3
	permuteFinal = 9
	branchFinal  = 2
	callFinal    = 3
)

// Strategy encrypts with statement counters
type Strategy struct {
	inj fault.Injector
}

// New returns the counting strategy. inj may be nil for a clean run.
func New(inj fault.Injector) *Strategy {
	if inj == nil {
		inj = fault.NoFaults{}
	}
	return &Strategy{inj: inj}
}

func (s *Strategy) Name() string {
	return Name
}

func (s *Strategy) Tag() string {
	return Tag
}

// Encrypt encrypts plaintext, updating key in place. On a detected fault the
// returned error is a *fault.Fault and the ciphertext is zero.
func (s *Strategy) Encrypt(plaintext present.Block, key *present.Key) (ciphertext present.Block, err error) {
	defer fault.Catch(&err)

	r := &run{
		inj:       s.inj,
		key:       key,
		plaintext: plaintext,
		at:        outside(),
	}

	caller := NewScope("main", r.at)
	callee := NewScope("encrypt", r.at)
	caller.Check(1)
	r.encrypt(callee)
	caller.Return(callee, encryptFinal, 2)
	caller.End(callFinal)

	return r.state, nil
}

// run is the working set of one encryption
type run struct {
	inj fault.Injector
	at  *Cursor

	plaintext present.Block
	state     present.Block
	scratch   present.Block
	key       *present.Key

	i, j, round  int
	c            present.Coords
	save1, save2 byte
}

func (r *run) site(s *Scope, point string, kind fault.SiteKind) fault.Site {
	return fault.Site{
		Strategy: Name,
		Scope:    s.name,
		Point:    point,
		Kind:     kind,
		Round:    r.at.Round,
		Index:    r.at.Index,
	}
}

// do runs one guarded action and its checkpoint
func (r *run) do(s *Scope, ordinal int, point string, action func()) {
	if !r.inj.Skip(r.site(s, point, fault.Action)) {
		action()
	}
	s.Check(ordinal)
}

// set is a guarded write of a loop index or the round counter
func (r *run) set(s *Scope, ordinal int, point string, dst *int, v int) {
	r.do(s, ordinal, point, func() {
		*dst = r.inj.Value(r.site(s, point, fault.Value), v)
	})
}

// branch runs body when cond holds, in a scope named after point. The decision
// itself is a site: skipping it inverts it.
func (r *run) branch(s *Scope, ordinal int, point string, cond bool, body func(b *Scope)) {
	b := NewScope(point, r.at)
	if r.inj.Skip(r.site(s, point, fault.Action)) {
		cond = !cond
	}
	if cond {
		body(b)
	}
	s.Check(ordinal)
	b.EndBranch(branchFinal)
}

// loop runs a counted loop over *idx starting from wherever *idx is. The limit
// goes through the injector, the checks only trust total.
func (r *run) loop(outer *Scope, ordinal int, name string, idx *int, total, final int, body func(l *Scope)) {
	l := NewLoop(name, total, final, r.at)
	limit := r.inj.Bound(r.site(l.Scope, "bound", fault.Bound), total)

	saved := r.at.Index
	for *idx < limit {
		l.Next(*idx)
		r.at.Index = *idx
		body(l.Scope)
	}
	r.at.Index = saved

	outer.Check(ordinal)
	l.Exit()
}

// element is the two-action body shared by the byte loops: the action on
// element i, then i++
func (r *run) element(l *Scope, point string, action func(i int)) {
	r.do(l, 1, point, func() { action(r.i) })
	r.set(l, 2, "next", &r.i, r.i+1)
}

func (r *run) encrypt(fn *Scope) {
	r.set(fn, 1, "load", &r.j, 0)
	r.loop(fn, 2, "load", &r.j, present.BlockSize, elementFinal, func(l *Scope) {
		r.do(l, 1, "apply", func() { present.LoadState(&r.state, &r.plaintext, r.j) })
		r.set(l, 2, "next", &r.j, r.j+1)
	})

	r.set(fn, 3, "rounds", &r.round, 0)
	rounds := NewLoop("rounds", present.Rounds, roundFinal, r.at)
	limit := r.inj.Bound(r.site(rounds.Scope, "bound", fault.Bound), present.Rounds)
	for r.round < limit {
		rounds.Next(r.round)
		r.at.Round = r.round
		r.roundBody(rounds.Scope)
	}
	r.at.Round = -1
	fn.Check(4)
	rounds.Exit()

	r.set(fn, 5, "whiten", &r.i, 0)
	r.loop(fn, 6, "whiten", &r.i, present.BlockSize, elementFinal, func(l *Scope) {
		r.element(l, "apply", func(i int) { present.MixKey(&r.state, r.key, i) })
	})
}

func (r *run) roundBody(s *Scope) {
	r.set(s, 1, "mix", &r.i, 0)
	r.loop(s, 2, "mix", &r.i, present.BlockSize, elementFinal, func(l *Scope) {
		r.element(l, "apply", func(i int) { present.MixKey(&r.state, r.key, i) })
	})

	r.set(s, 3, "sbox", &r.i, 0)
	r.loop(s, 4, "sbox", &r.i, present.BlockSize, elementFinal, func(l *Scope) {
		r.element(l, "apply", func(i int) { present.SubstituteState(&r.state, i) })
	})

	r.set(s, 5, "clear", &r.i, 0)
	r.loop(s, 6, "clear", &r.i, present.BlockSize, elementFinal, func(l *Scope) {
		r.element(l, "apply", func(i int) { present.ClearScratch(&r.scratch, i) })
	})

	r.set(s, 7, "permute", &r.i, 0)
	r.loop(s, 8, "permute", &r.i, present.BlockBits, permuteFinal, r.permuteBit)

	r.set(s, 9, "copy", &r.i, 0)
	r.loop(s, 10, "copy", &r.i, present.BlockSize, elementFinal, func(l *Scope) {
		r.element(l, "apply", func(i int) { present.CopyScratch(&r.state, &r.scratch, i) })
	})

	r.do(s, 11, "save1", func() { r.save1 = r.key[0] })
	r.do(s, 12, "save2", func() { r.save2 = r.key[1] })
	r.set(s, 13, "shift", &r.i, 0)
	r.loop(s, 14, "shift", &r.i, present.KeySize-2, elementFinal, func(l *Scope) {
		r.element(l, "apply", func(i int) { present.ShiftKey(r.key, i) })
	})
	r.do(s, 15, "restore1", func() { r.key[present.KeySize-2] = r.save1 })
	r.do(s, 16, "restore2", func() { r.key[present.KeySize-1] = r.save2 })

	r.set(s, 17, "rotate", &r.i, 0)
	r.do(s, 18, "carry", func() { r.save1 = r.key[0] & 7 })
	r.loop(s, 19, "rotate", &r.i, present.KeySize-1, elementFinal, func(l *Scope) {
		r.element(l, "apply", func(i int) { present.RotateKey(r.key, i) })
	})
	r.do(s, 20, "absorb", func() { present.RotateCarry(r.key, r.save1) })

	r.do(s, 21, "sboxTop", func() { present.SubstituteKeyTop(r.key) })
	r.branch(s, 22, "odd", present.RoundIsOdd(r.round), func(b *Scope) {
		r.do(b, 1, "flip", func() { present.FlipRoundBit(r.key) })
	})
	r.do(s, 23, "counter", func() { present.AddRoundCounter(r.key, r.round) })

	r.set(s, 24, "next", &r.round, r.round+1)
}

func (r *run) permuteBit(l *Scope) {
	r.do(l, 1, "position", func() { r.c.Position = present.Spread(r.i) })
	r.branch(l, 2, "last", r.i == present.BlockBits-1, func(b *Scope) {
		r.do(b, 1, "position", func() { r.c.Position = present.BlockBits - 1 })
	})
	r.do(l, 3, "srcByte", func() { r.c.SrcByte = r.i / 8 })
	r.do(l, 4, "srcBit", func() { r.c.SrcBit = r.i % 8 })
	r.do(l, 5, "dstByte", func() { r.c.DstByte = r.c.Position / 8 })
	r.do(l, 6, "dstBit", func() { r.c.DstBit = r.c.Position % 8 })
	r.do(l, 7, "apply", func() {
		present.PermuteBit(&r.scratch, &r.state, r.c.SrcByte, r.c.SrcBit, r.c.DstByte, r.c.DstBit)
	})
	r.set(l, 8, "next", &r.i, r.i+1)
}
