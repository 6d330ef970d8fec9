// Package present implements the PRESENT-80 round primitives shared by every
// hardening strategy, plus an unhardened encryption used as the reference.
//
// Byte order follows the hardened firmware this was written against: state[0]
// is the least significant byte of the block and key[9] the most significant
// byte of the key register.
package present

const (
	// BlockSize is the size of the cipher state in bytes
	BlockSize = 8
	// KeySize is the size of the key register in bytes
	KeySize = 10
	// BlockBits is the number of bits moved by the permutation layer
	BlockBits = BlockSize * 8
	// Rounds is the number of full rounds before the final key whitening
	Rounds = 31
)

// Block is the 64-bit cipher state
type Block [BlockSize]byte

// Key is the 80-bit key register. It is updated in place by the key schedule.
type Key [KeySize]byte

var sbox = [16]byte{
	0xC, 0x5, 0x6, 0xB,
	0x9, 0x0, 0xA, 0xD,
	0x3, 0xE, 0xF, 0x8,
	0x4, 0x7, 0x1, 0x2,
}

// SubstituteNibble maps a 4-bit value through the S-box. Only the low nibble
// of n is used.
func SubstituteNibble(n byte) byte {
	return sbox[n&0xF]
}

// Substitute replaces the high and low nibble of b independently
func Substitute(b byte) byte {
	return sbox[b>>4]<<4 | sbox[b&0xF]
}

// Position returns the destination of bit i under the permutation layer
func Position(i int) int {
	if i == BlockBits-1 {
		return i
	}
	return Spread(i)
}

// Spread is the arithmetic part of the permutation rule. It is wrong for the
// last bit, which callers handle themselves.
func Spread(i int) int {
	return (16 * i) % 63
}

// Coords locates one bit move of the permutation layer
type Coords struct {
	Position int
	SrcByte  int
	SrcBit   int
	DstByte  int
	DstBit   int
}

// Coordinates derives every index the permutation layer needs for bit i
func Coordinates(i int) Coords {
	position := Position(i)
	return Coords{
		Position: position,
		SrcByte:  i / 8,
		SrcBit:   i % 8,
		DstByte:  position / 8,
		DstBit:   position % 8,
	}
}

// MixKey xors key byte i+2 into state byte i. The +2 offset accounts for the
// rotation already applied by the previous round's schedule.
func MixKey(state *Block, key *Key, i int) {
	state[i] ^= key[i+2]
}

// SubstituteState runs state byte i through the S-box
func SubstituteState(state *Block, i int) {
	state[i] = Substitute(state[i])
}

// LoadState copies plaintext byte i into the state
func LoadState(state *Block, plaintext *Block, i int) {
	state[i] = plaintext[i]
}

// ClearScratch zeroes byte i of the permutation scratch block
func ClearScratch(scratch *Block, i int) {
	scratch[i] = 0
}

// CopyScratch moves byte i of the scratch block into the state
func CopyScratch(state *Block, scratch *Block, i int) {
	state[i] = scratch[i]
}

// PermuteBit copies one bit of state into the scratch block
func PermuteBit(scratch *Block, state *Block, srcByte, srcBit, dstByte, dstBit int) {
	scratch[dstByte] |= ((state[srcByte] >> uint(srcBit)) & 0x1) << uint(dstBit)
}

// ShiftKey moves key byte i+2 down to i
func ShiftKey(key *Key, i int) {
	key[i] = key[i+2]
}

// RotateKey combines key bytes i and i+1 for the 61-bit rotation
func RotateKey(key *Key, i int) {
	key[i] = key[i]>>3 | key[i+1]<<5
}

// RotateCarry finishes the rotation: the top byte absorbs the three bits that
// were rotated out of the bottom byte
func RotateCarry(key *Key, carry byte) {
	key[KeySize-1] = key[KeySize-1]>>3 | carry<<5
}

// SubstituteKeyTop runs the top nibble of the key register through the S-box
func SubstituteKeyTop(key *Key) {
	top := key[KeySize-1]
	key[KeySize-1] = sbox[top>>4]<<4 | top&0xF
}

// RoundIsOdd tells us whether the round counter addition flips key bit 15
func RoundIsOdd(round int) bool {
	return (round+1)%2 == 1
}

// FlipRoundBit flips the lowest bit of the round counter, which lives in the
// top bit of key byte 1
func FlipRoundBit(key *Key) {
	key[1] ^= 0x80
}

// AddRoundCounter xors the upper four bits of the round counter into the low
// nibble of key byte 2
func AddRoundCounter(key *Key, round int) {
	key[2] = (byte((round+1)>>1) ^ key[2]&0x0F) | key[2]&0xF0
}
