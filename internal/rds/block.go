package rds

// BlockType selects the offset word a block was transmitted with.
type BlockType int

const (
	BlockA BlockType = iota
	BlockB
	BlockC
	BlockCPrime
	BlockD
	BlockE
)

// Each block carries 16 data bits followed by a 10 bit checkword.
const (
	blockBits = 26
	checkBits = 10
	groupBits = 4 * blockBits

	// x^10 + x^8 + x^7 + x^5 + x^4 + x^3 + 1
	generator = 0x5B9
)

var offsetWords = [...]uint16{
	BlockA:      0x0FC,
	BlockB:      0x198,
	BlockC:      0x168,
	BlockCPrime: 0x350,
	BlockD:      0x1B4,
	BlockE:      0x000,
}

// Offset returns the 10 bit offset word of the block type.
func (t BlockType) Offset() uint16 {
	return offsetWords[t]
}

func (t BlockType) String() string {
	switch t {
	case BlockA:
		return "A"
	case BlockB:
		return "B"
	case BlockC:
		return "C"
	case BlockCPrime:
		return "C'"
	case BlockD:
		return "D"
	case BlockE:
		return "E"
	}
	return "?"
}

// BlockStatus is the outcome of decoding one block.
type BlockStatus int

const (
	BlockOK BlockStatus = iota
	BlockCorrected
	BlockFailed
)

func (s BlockStatus) String() string {
	switch s {
	case BlockOK:
		return "ok"
	case BlockCorrected:
		return "corrected"
	}
	return "failed"
}

// Block is one received 26 bit block and what the decoder made of it.
type Block struct {
	Raw    uint32
	Data   uint16
	Status BlockStatus
	// Bit position (0 is the last transmitted bit) that was flipped, or -1.
	ErrorBit int
}

// Valid reports whether the block decoded, with or without a correction.
func (b Block) Valid() bool {
	return b.Status != BlockFailed
}

// errorSyndromes[k] is the syndrome of a single error in bit k.
var errorSyndromes = func() [blockBits]uint16 {
	var s [blockBits]uint16
	p := uint16(1)
	for k := range s {
		s[k] = p
		p <<= 1
		if p&(1<<checkBits) != 0 {
			p ^= generator
		}
	}
	return s
}()

// Syndrome returns the remainder of the 26 bit word divided by the generator.
func Syndrome(word uint32) uint16 {
	word &= 1<<blockBits - 1
	for i := 0; i < blockBits-checkBits; i++ {
		if word&(1<<(blockBits-1-i)) != 0 {
			word ^= generator << (blockBits - checkBits - 1 - i)
		}
	}
	return uint16(word)
}

// EncodeBlock returns the 26 bit block carrying data with the offset word of typ.
func EncodeBlock(data uint16, typ BlockType) uint32 {
	w := uint32(data) << checkBits
	w |= uint32(Syndrome(w))
	return w ^ uint32(typ.Offset())
}

// DecodeBlock checks a raw 26 bit block against the offset word of typ and
// repairs a single bit error if the syndrome points at one.
func DecodeBlock(raw uint32, typ BlockType) Block {
	raw &= 1<<blockBits - 1
	b := Block{Raw: raw, ErrorBit: -1}

	w := raw ^ uint32(typ.Offset())
	syn := Syndrome(w)
	if syn == 0 {
		b.Data = uint16(w >> checkBits)
		return b
	}

	for k, s := range errorSyndromes {
		if s == syn {
			w ^= 1 << k
			b.Data = uint16(w >> checkBits)
			b.Status = BlockCorrected
			b.ErrorBit = k
			return b
		}
	}
	b.Status = BlockFailed
	return b
}

// DecodeBits packs 26 bits, first transmitted bit first, and decodes them.
func DecodeBits(bits []byte, typ BlockType) Block {
	if len(bits) < blockBits {
		return Block{Status: BlockFailed, ErrorBit: -1}
	}
	var raw uint32
	for _, bit := range bits[:blockBits] {
		raw = raw<<1 | uint32(bit&1)
	}
	return DecodeBlock(raw, typ)
}

// EncodeGroup returns the 104 bits of a group with the given block contents.
// Block C uses offset C' when the version B flag (bit 11 of block B) is set.
func EncodeGroup(a, b, c, d uint16) []byte {
	ctype := BlockC
	if b&0x0800 != 0 {
		ctype = BlockCPrime
	}
	words := [4]uint32{
		EncodeBlock(a, BlockA),
		EncodeBlock(b, BlockB),
		EncodeBlock(c, ctype),
		EncodeBlock(d, BlockD),
	}
	bits := make([]byte, 0, groupBits)
	for _, w := range words {
		for i := blockBits - 1; i >= 0; i-- {
			bits = append(bits, byte(w>>i)&1)
		}
	}
	return bits
}
