package rds

import "fmt"

// Group is four consecutive blocks A, B, C (or C') and D.
type Group struct {
	Blocks [4]Block
}

// A returns the program identification word.
func (g Group) A() uint16 { return g.Blocks[0].Data }

// B returns block B, holding group type, version, TP and PTY.
func (g Group) B() uint16 { return g.Blocks[1].Data }

// C returns block C or C'.
func (g Group) C() uint16 { return g.Blocks[2].Data }

// D returns block D.
func (g Group) D() uint16 { return g.Blocks[3].Data }

// Type returns the group type code, 0 to 15.
func (g Group) Type() int {
	return int(g.B() >> 12)
}

// VersionB reports whether this is a version B group.
func (g Group) VersionB() bool {
	return g.B()&0x0800 != 0
}

// Name returns the conventional group name such as "0A" or "2B".
func (g Group) Name() string {
	v := 'A'
	if g.VersionB() {
		v = 'B'
	}
	return fmt.Sprintf("%d%c", g.Type(), v)
}

// Corrections returns the number of blocks that needed a single bit repair.
func (g Group) Corrections() int {
	n := 0
	for _, b := range g.Blocks {
		if b.Status == BlockCorrected {
			n++
		}
	}
	return n
}

// DecodeGroup decodes 104 bits as one group. Block C is checked against
// offset C' when block B announces a version B group. Decoding stops at the
// first block that cannot be repaired.
func DecodeGroup(bits []byte) (Group, bool) {
	var g Group
	if len(bits) < groupBits {
		return g, false
	}
	g.Blocks[0] = DecodeBits(bits[0:], BlockA)
	if !g.Blocks[0].Valid() {
		return g, false
	}
	g.Blocks[1] = DecodeBits(bits[blockBits:], BlockB)
	if !g.Blocks[1].Valid() {
		return g, false
	}
	ctype := BlockC
	if g.VersionB() {
		ctype = BlockCPrime
	}
	g.Blocks[2] = DecodeBits(bits[2*blockBits:], ctype)
	if !g.Blocks[2].Valid() {
		return g, false
	}
	g.Blocks[3] = DecodeBits(bits[3*blockBits:], BlockD)
	return g, g.Blocks[3].Valid()
}
