package present

// Encrypt is the unhardened encryption. It performs the same steps in the same
// order as the hardened strategies and is what they are tested against.
func Encrypt(plaintext Block, key *Key) Block {
	var state Block
	for i := 0; i < BlockSize; i++ {
		LoadState(&state, &plaintext, i)
	}
	for round := 0; round < Rounds; round++ {
		AddRoundKey(&state, key)
		SubstitutionLayer(&state)
		PermutationLayer(&state)
		UpdateKey(key, round)
	}
	AddRoundKey(&state, key)
	return state
}

// AddRoundKey mixes the current round key into the whole state
func AddRoundKey(state *Block, key *Key) {
	for i := 0; i < BlockSize; i++ {
		MixKey(state, key, i)
	}
}

// SubstitutionLayer runs every state byte through the S-box
func SubstitutionLayer(state *Block) {
	for i := 0; i < BlockSize; i++ {
		SubstituteState(state, i)
	}
}

// PermutationLayer moves every bit of the state to its permuted position
func PermutationLayer(state *Block) {
	var scratch Block
	for i := 0; i < BlockSize; i++ {
		ClearScratch(&scratch, i)
	}
	for i := 0; i < BlockBits; i++ {
		c := Coordinates(i)
		PermuteBit(&scratch, state, c.SrcByte, c.SrcBit, c.DstByte, c.DstBit)
	}
	for i := 0; i < BlockSize; i++ {
		CopyScratch(state, &scratch, i)
	}
}

// UpdateKey runs one step of the key schedule for the given round
func UpdateKey(key *Key, round int) {
	save1, save2 := key[0], key[1]
	for i := 0; i < KeySize-2; i++ {
		ShiftKey(key, i)
	}
	key[KeySize-2] = save1
	key[KeySize-1] = save2

	carry := key[0] & 7
	for i := 0; i < KeySize-1; i++ {
		RotateKey(key, i)
	}
	RotateCarry(key, carry)

	SubstituteKeyTop(key)
	if RoundIsOdd(round) {
		FlipRoundBit(key)
	}
	AddRoundCounter(key, round)
}
