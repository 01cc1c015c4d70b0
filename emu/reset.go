package emu

import "math/rand/v2"

// ResetValue selects the power-on contents of one kind of state.
type ResetValue int

const (
	ResetRandom ResetValue = iota
	ResetZero
	ResetOnes
)

// ParseResetValue maps an option value to a ResetValue.
func ParseResetValue(s string) ResetValue {
	switch s {
	case "zero":
		return ResetZero
	case "ones":
		return ResetOnes
	default:
		return ResetRandom
	}
}

// ResetValues is the power-on policy applied by Reset.
type ResetValues struct {
	MPR        ResetValue
	WRAM       ResetValue
	CardRAM    ResetValue
	ArcadeRAM  ResetValue
	Registers  ResetValue
	ColorTable ResetValue
}

// DefaultResetValues matches what most real consoles power on with.
func DefaultResetValues() ResetValues {
	return ResetValues{
		MPR:        ResetRandom,
		WRAM:       ResetRandom,
		CardRAM:    ResetRandom,
		ArcadeRAM:  ResetZero,
		Registers:  ResetZero,
		ColorTable: ResetRandom,
	}
}

// resetFiller produces power-on fill bytes. The random policy is driven by
// a PCG seeded from the media CRC so a given game always powers on the
// same way.
type resetFiller struct {
	rng *rand.Rand
}

func newResetFiller(seed uint32) *resetFiller {
	return &resetFiller{
		rng: rand.New(rand.NewPCG(uint64(seed), 0x9E3779B97F4A7C15)),
	}
}

func (f *resetFiller) byte(v ResetValue) uint8 {
	switch v {
	case ResetZero:
		return 0
	case ResetOnes:
		return 0xFF
	default:
		return uint8(f.rng.Uint32())
	}
}

func (f *resetFiller) word(v ResetValue) uint16 {
	return uint16(f.byte(v)) | uint16(f.byte(v))<<8
}

func (f *resetFiller) fill(buf []byte, v ResetValue) {
	for i := range buf {
		buf[i] = f.byte(v)
	}
}
