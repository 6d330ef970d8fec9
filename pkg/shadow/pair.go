package shadow

import "github.com/jesseduffield/hardpresent/pkg/present"

// Pair is a value computed twice through independent variables
type Pair[T ~int | ~uint8] struct {
	name   string
	v      T
	shadow T
}

// NewPair returns a pair with both sides zero
func NewPair[T ~int | ~uint8](name string) *Pair[T] {
	return &Pair[T]{name: name}
}

// Set writes both sides. Callers derive shadow from shadow inputs only.
func (p *Pair[T]) Set(v, shadow T) {
	p.v = v
	p.shadow = shadow
}

// Inc increments both sides
func (p *Pair[T]) Inc() {
	p.v++
	p.shadow++
}

// Dec decrements both sides
func (p *Pair[T]) Dec() {
	p.v--
	p.shadow--
}

// Value is the primary side, the one the cipher uses
func (p *Pair[T]) Value() T {
	return p.v
}

// Shadow is the redundant side
func (p *Pair[T]) Shadow() T {
	return p.shadow
}

// Match reports whether both sides agree
func (p *Pair[T]) Match() bool {
	return p.v == p.shadow
}

func (p *Pair[T]) label() string {
	return p.name
}

func (p *Pair[T]) values() (int, int) {
	return int(p.v), int(p.shadow)
}

// checked is anything verify can compare
type checked interface {
	Match() bool
	label() string
	values() (int, int)
}

// Buffer is a byte block with a shadow block. Each side is indexed by its own
// side's index variable.
type Buffer struct {
	name   string
	v      present.Block
	shadow present.Block
}

// NewBuffer returns a zeroed buffer
func NewBuffer(name string) *Buffer {
	return &Buffer{name: name}
}

// at compares element i of the primary with element j of the shadow
func (b *Buffer) at(i, j int) cell {
	return cell{buf: b, i: i, j: j}
}

type cell struct {
	buf  *Buffer
	i, j int
}

func (c cell) Match() bool {
	return c.buf.v[c.i] == c.buf.shadow[c.j]
}

func (c cell) label() string {
	return c.buf.name
}

func (c cell) values() (int, int) {
	return int(c.buf.v[c.i]), int(c.buf.shadow[c.j])
}
