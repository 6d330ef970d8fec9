package present

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustBlock(t *testing.T, s string) Block {
	t.Helper()
	var b Block
	raw, err := hex.DecodeString(s)
	require.NoError(t, err)
	require.Len(t, raw, BlockSize)
	copy(b[:], raw)
	return b
}

func mustKey(t *testing.T, s string) Key {
	t.Helper()
	var k Key
	raw, err := hex.DecodeString(s)
	require.NoError(t, err)
	require.Len(t, raw, KeySize)
	copy(k[:], raw)
	return k
}

// the published PRESENT-80 vectors, byte-reversed to match the register layout
var knownAnswers = []struct {
	key        string
	plaintext  string
	ciphertext string
	finalKey   string
}{
	{"00000000000000000000", "0000000000000000", "4584227b38c17955", "598700d7414f7431ab6d"},
	{"ffffffffffffffffffff", "0000000000000000", "495094f5c0462ce7", "11c567b10eb68f547afe"},
	{"00000000000000000000", "ffffffffffffffff", "7b41682fc7ff12a1", "598700d7414f7431ab6d"},
	{"ffffffffffffffffffff", "ffffffffffffffff", "d2103221d3dc3333", "11c567b10eb68f547afe"},
	{"00010203040506070809", "badf00dbadc0ffee", "084883899557ba33", "09d9f0c7597374d7b769"},
	{"01234567890987654321", "deadbeafbabec0de", "67bc11bb6cc6bc14", "4a63c9e0df475f85bcdb"},
	{"deadbeafdeadc0debabe", "badf00dbadc0ffee", "240e27531dbac09c", "70a61dac6bee19ff72b4"},
}

func TestEncryptKnownAnswers(t *testing.T) {
	for _, s := range knownAnswers {
		t.Run(s.key+"/"+s.plaintext, func(t *testing.T) {
			key := mustKey(t, s.key)
			out := Encrypt(mustBlock(t, s.plaintext), &key)
			assert.Equal(t, mustBlock(t, s.ciphertext), out)
			assert.Equal(t, mustKey(t, s.finalKey), key, "the key register is left as the last schedule step wrote it")
		})
	}
}

func TestEncryptIsDeterministic(t *testing.T) {
	plaintext := mustBlock(t, "0123456789abcdef")
	first := mustKey(t, "00112233445566778899")
	second := mustKey(t, "00112233445566778899")

	assert.Equal(t, Encrypt(plaintext, &first), Encrypt(plaintext, &second))
	assert.Equal(t, first, second)
}

func TestSBoxIsAPermutation(t *testing.T) {
	seen := map[byte]bool{}
	for n := byte(0); n < 16; n++ {
		seen[SubstituteNibble(n)] = true
	}
	assert.Len(t, seen, 16)
}

// applying the table twice only fixes 7 and 13, which form the S-box's single
// 2-cycle
func TestSBoxAppliedTwice(t *testing.T) {
	for n := byte(0); n < 16; n++ {
		twice := SubstituteNibble(SubstituteNibble(n))
		if n == 0x7 || n == 0xD {
			assert.Equal(t, n, twice)
		} else {
			assert.NotEqual(t, n, twice, "nibble %x", n)
		}
	}
}

// the cycle lengths are 7, 4, 3 and 2, so 84 applications give the identity
func TestSBoxOrder(t *testing.T) {
	for n := byte(0); n < 16; n++ {
		v := n
		for i := 0; i < 84; i++ {
			v = SubstituteNibble(v)
		}
		assert.Equal(t, n, v)
	}
}

func TestSubstitute(t *testing.T) {
	type scenario struct {
		in       byte
		expected byte
	}

	scenarios := []scenario{
		{0x00, 0xCC},
		{0x0F, 0xC2},
		{0xF0, 0x2C},
		{0x7D, 0xD7},
		{0xA5, 0xF0},
	}

	for _, s := range scenarios {
		assert.EqualValues(t, s.expected, Substitute(s.in))
	}
}

func TestPosition(t *testing.T) {
	type scenario struct {
		bit      int
		expected int
	}

	scenarios := []scenario{
		{0, 0},
		{1, 16},
		{4, 1},
		{8, 2},
		{62, 47},
		{63, 63},
	}

	for _, s := range scenarios {
		assert.Equal(t, s.expected, Position(s.bit))
	}

	seen := map[int]bool{}
	for i := 0; i < BlockBits; i++ {
		seen[Position(i)] = true
	}
	assert.Len(t, seen, BlockBits)
}

func TestCoordinates(t *testing.T) {
	assert.Equal(t, Coords{Position: 47, SrcByte: 7, SrcBit: 6, DstByte: 5, DstBit: 7}, Coordinates(62))
	assert.Equal(t, Coords{Position: 63, SrcByte: 7, SrcBit: 7, DstByte: 7, DstBit: 7}, Coordinates(63))
}

func TestPermutationLayerMovesSingleBits(t *testing.T) {
	for i := 0; i < BlockBits; i++ {
		var state Block
		state[i/8] = 1 << uint(i%8)
		PermutationLayer(&state)

		var expected Block
		p := Position(i)
		expected[p/8] = 1 << uint(p%8)
		assert.Equal(t, expected, state, "bit %d", i)
	}
}

func TestUpdateKey(t *testing.T) {
	type scenario struct {
		key      string
		round    int
		expected string
	}

	scenarios := []scenario{
		{"00000000000000000000", 0, "008000000000000000c0"},
		{"00000000000000000000", 1, "000001000000000000c0"},
		{"00010203040506070809", 4, "6000a2c0e00021012090"},
	}

	for _, s := range scenarios {
		key := mustKey(t, s.key)
		UpdateKey(&key, s.round)
		assert.Equal(t, mustKey(t, s.expected), key)
	}
}

func TestAddRoundCounterKeepsHighNibble(t *testing.T) {
	key := Key{2: 0xA5}
	AddRoundCounter(&key, 30)
	assert.EqualValues(t, 0xA5^0x0F, key[2])
}
