package emu

// MapperType identifies how HuCard ROM banks are decoded.
type MapperType int

const (
	MapperStandard MapperType = iota
	MapperSF2
)

const sf2ROMSize = 0x280000

// romBanks maps the 128 physical ROM banks ($00-$7F) onto offsets in the
// ROM image.
type romBanks struct {
	kind    MapperType
	count   int
	offsets [0x80]int
	sf2Bank uint8
}

func newROMBanks(size int, kind MapperType) *romBanks {
	if kind == MapperSF2 && size < sf2ROMSize {
		kind = MapperStandard
	}
	r := &romBanks{kind: kind, count: size / bankSize}
	for bank := 0; bank < 0x80; bank++ {
		r.offsets[bank] = standardBank(bank, r.count) * bankSize
	}
	return r
}

// standardBank returns the ROM bank seen at physical bank for a cart with
// count 8KB banks. 384KB and 768KB carts are wired with split mirrors.
func standardBank(bank, count int) int {
	if count == 0 {
		return 0
	}
	switch count {
	case 0x30:
		if bank < 0x40 {
			return bank & 0x1F
		}
		return bank&0x0F + 0x20
	case 0x40:
		if bank < 0x40 {
			return bank
		}
		return bank&0x1F + 0x20
	case 0x60:
		if bank < 0x40 {
			return bank & 0x3F
		}
		return bank&0x1F + 0x40
	}
	return bank % count
}

func (r *romBanks) reset() {
	r.sf2Bank = 0
}

// offset returns the ROM byte offset of physical bank.
func (r *romBanks) offset(bank uint8) int {
	if r.kind == MapperSF2 && bank >= 0x40 {
		return 0x80000 + int(r.sf2Bank)*0x80000 + int(bank-0x40)*bankSize
	}
	return r.offsets[bank]
}

// write handles a CPU write into the ROM region. Street Fighter II latches
// the upper window from writes to $1FF0-$1FF3 of any ROM bank.
func (r *romBanks) write(off uint16) {
	if r.kind == MapperSF2 && off&0x1FFC == 0x1FF0 {
		r.sf2Bank = uint8(off & 3)
	}
}
