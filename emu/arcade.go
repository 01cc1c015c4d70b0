package emu

const arcadeRAMSize = 0x200000

// Arcade Card control register bits.
const (
	arcadeAutoInc   = 0x01
	arcadeAddOffset = 0x02
	arcadeSigned    = 0x08
	arcadeIncBase   = 0x10
	arcadeTrigger   = 0x60
)

// Offset trigger modes (control bits 5-6).
const (
	triggerNone     = 0x00
	triggerLowByte  = 0x20
	triggerHighByte = 0x40
	triggerReg0A    = 0x60
)

type arcadePort struct {
	base      uint32
	offset    uint16
	increment uint16
	control   uint8
}

func (p *arcadePort) address() uint32 {
	addr := p.base
	if p.control&arcadeAddOffset != 0 {
		addr += p.offsetValue()
	}
	return addr & (arcadeRAMSize - 1)
}

func (p *arcadePort) offsetValue() uint32 {
	if p.control&arcadeSigned != 0 {
		return uint32(int32(int16(p.offset)))
	}
	return uint32(p.offset)
}

func (p *arcadePort) advance() {
	if p.control&arcadeAutoInc == 0 {
		return
	}
	if p.control&arcadeIncBase != 0 {
		p.base = (p.base + uint32(p.increment)) & 0xFFFFFF
	} else {
		p.offset += p.increment
	}
}

func (p *arcadePort) applyOffset() {
	p.base = (p.base + p.offsetValue()) & 0xFFFFFF
}

// ArcadeCard is the 2MB RAM expansion with four address generating ports.
type ArcadeCard struct {
	ram   []uint8
	ports [4]arcadePort

	shift       uint32
	shiftAmount uint8
	rotate      uint8
}

func (a *ArcadeCard) attach() {
	if a.ram == nil {
		a.ram = make([]uint8, arcadeRAMSize)
	}
}

func (a *ArcadeCard) detach() {
	a.ram = nil
}

func (a *ArcadeCard) reset(f *resetFiller, rv ResetValues) {
	a.ports = [4]arcadePort{}
	a.shift = 0
	a.shiftAmount = 0
	a.rotate = 0
	if a.ram != nil {
		f.fill(a.ram, rv.ArcadeRAM)
	}
}

// readData reads through a port's address generator, as seen through
// banks $40-$43 and data registers 0 and 1.
func (a *ArcadeCard) readData(port int) uint8 {
	p := &a.ports[port]
	v := a.ram[p.address()]
	p.advance()
	return v
}

func (a *ArcadeCard) peekData(port int) uint8 {
	return a.ram[a.ports[port].address()]
}

func (a *ArcadeCard) writeData(port int, v uint8) {
	p := &a.ports[port]
	a.ram[p.address()] = v
	p.advance()
}

// Read handles the register window at $1A00-$1AFF.
func (a *ArcadeCard) Read(off uint16) uint8 {
	if off&0xE0 == 0xE0 {
		return a.readGlobal(off)
	}
	port := int(off>>4) & 3
	p := &a.ports[port]
	switch off & 0x0F {
	case 0x00, 0x01:
		return a.readData(port)
	case 0x02:
		return uint8(p.base)
	case 0x03:
		return uint8(p.base >> 8)
	case 0x04:
		return uint8(p.base >> 16)
	case 0x05:
		return uint8(p.offset)
	case 0x06:
		return uint8(p.offset >> 8)
	case 0x07:
		return uint8(p.increment)
	case 0x08:
		return uint8(p.increment >> 8)
	case 0x09:
		return p.control
	}
	return 0xFF
}

func (a *ArcadeCard) readGlobal(off uint16) uint8 {
	switch off & 0xFF {
	case 0xE0, 0xE1, 0xE2, 0xE3:
		return uint8(a.shift >> (8 * (off & 3)))
	case 0xE4:
		return a.shiftAmount
	case 0xE5:
		return a.rotate
	case 0xFE:
		return 0x10
	case 0xFF:
		return 0x51
	}
	return 0xFF
}

// Write handles the register window at $1A00-$1AFF.
func (a *ArcadeCard) Write(off uint16, v uint8) {
	if off&0xE0 == 0xE0 {
		a.writeGlobal(off, v)
		return
	}
	port := int(off>>4) & 3
	p := &a.ports[port]
	switch off & 0x0F {
	case 0x00, 0x01:
		a.writeData(port, v)
	case 0x02:
		p.base = p.base&0xFFFF00 | uint32(v)
	case 0x03:
		p.base = p.base&0xFF00FF | uint32(v)<<8
	case 0x04:
		p.base = p.base&0x00FFFF | uint32(v)<<16
	case 0x05:
		p.offset = p.offset&0xFF00 | uint16(v)
		if p.control&arcadeTrigger == triggerLowByte {
			p.applyOffset()
		}
	case 0x06:
		p.offset = p.offset&0x00FF | uint16(v)<<8
		if p.control&arcadeTrigger == triggerHighByte {
			p.applyOffset()
		}
	case 0x07:
		p.increment = p.increment&0xFF00 | uint16(v)
	case 0x08:
		p.increment = p.increment&0x00FF | uint16(v)<<8
	case 0x09:
		p.control = v & 0x7F
	case 0x0A:
		if p.control&arcadeTrigger == triggerReg0A {
			p.applyOffset()
		}
	}
}

func (a *ArcadeCard) writeGlobal(off uint16, v uint8) {
	switch off & 0xFF {
	case 0xE0, 0xE1, 0xE2, 0xE3:
		s := 8 * uint32(off&3)
		a.shift = a.shift&^(0xFF<<s) | uint32(v)<<s
	case 0xE4:
		a.shiftAmount = v & 0x0F
		if v&0x08 != 0 {
			a.shift >>= 16 - uint32(v&0x0F)
		} else {
			a.shift <<= uint32(v & 0x07)
		}
	case 0xE5:
		a.rotate = v & 0x0F
		n := uint32(v & 0x07)
		if v&0x08 != 0 {
			n = 16 - uint32(v&0x0F)
			a.shift = a.shift>>n | a.shift<<(32-n)
		} else if n != 0 {
			a.shift = a.shift<<n | a.shift>>(32-n)
		}
	}
}

func (a *ArcadeCard) saveState(w *stateWriter) {
	for i := range a.ports {
		p := &a.ports[i]
		w.u32(p.base)
		w.u16(p.offset)
		w.u16(p.increment)
		w.u8(p.control)
	}
	w.u32(a.shift)
	w.u8(a.shiftAmount)
	w.u8(a.rotate)
	w.blob(a.ram)
}

func (a *ArcadeCard) loadState(r *stateReader) {
	for i := range a.ports {
		p := &a.ports[i]
		p.base = r.u32()
		p.offset = r.u16()
		p.increment = r.u16()
		p.control = r.u8()
	}
	a.shift = r.u32()
	a.shiftAmount = r.u8()
	a.rotate = r.u8()
	r.blob(a.ram)
}
