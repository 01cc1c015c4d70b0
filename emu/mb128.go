package emu

const (
	mb128Size  = 0x20000
	mb128Ident = 0xA8

	// Address is in 128 byte sectors, length in bits.
	mb128AddrBits   = 10
	mb128LenBits    = 20
	mb128TrailBits  = 3
	mb128SectorBits = 128 * 8
)

type mb128State uint8

const (
	mbIdle mb128State = iota
	mbCommand
	mbAddress
	mbLength
	mbData
	mbTrail
)

// MB128 is the Memory Base 128 backup unit. It sits between the console
// and the pad and talks a serial protocol: SEL carries the data bit and a
// rising CLR edge clocks it in. The ident byte $A8 (LSB first) wakes it up,
// then a read/write bit, a sector address, a bit length and the data bits
// follow.
type MB128 struct {
	mem   [mb128Size]uint8
	dirty bool

	state    mb128State
	shift    uint8
	count    int
	readMode bool
	addr     uint32 // bit address
	length   uint32 // bits left
	out      uint8
}

// NewMB128 creates an empty unit.
func NewMB128() *MB128 {
	return &MB128{}
}

func (m *MB128) reset() {
	m.state = mbIdle
	m.shift = 0
	m.count = 0
	m.out = 0
}

func (m *MB128) active() bool { return m.state != mbIdle }

// read returns the port nibble while the unit owns the bus. Right after the
// ident byte it answers with the presence marker.
func (m *MB128) read() uint8 {
	switch m.state {
	case mbCommand:
		return 0x04
	case mbData:
		if m.readMode {
			return m.out & 1
		}
	}
	return 0
}

func (m *MB128) bit(addr uint32) uint8 {
	addr &= mb128Size*8 - 1
	return m.mem[addr>>3] >> (addr & 7) & 1
}

func (m *MB128) setBit(addr uint32, v bool) {
	addr &= mb128Size*8 - 1
	mask := uint8(1) << (addr & 7)
	old := m.mem[addr>>3]
	if v {
		m.mem[addr>>3] |= mask
	} else {
		m.mem[addr>>3] &^= mask
	}
	if m.mem[addr>>3] != old {
		m.dirty = true
	}
}

// clock shifts one bit in.
func (m *MB128) clock(sel bool) {
	var b uint32
	if sel {
		b = 1
	}
	switch m.state {
	case mbIdle:
		m.shift = m.shift>>1 | uint8(b)<<7
		if m.shift == mb128Ident {
			m.state = mbCommand
			m.shift = 0
		}
	case mbCommand:
		m.readMode = sel
		m.state = mbAddress
		m.count = 0
		m.addr = 0
	case mbAddress:
		m.addr |= b << m.count
		m.count++
		if m.count == mb128AddrBits {
			m.addr *= mb128SectorBits
			m.state = mbLength
			m.count = 0
			m.length = 0
		}
	case mbLength:
		m.length |= b << m.count
		m.count++
		if m.count == mb128LenBits {
			m.count = 0
			if m.length == 0 {
				m.state = mbTrail
				return
			}
			m.state = mbData
			m.out = m.bit(m.addr)
		}
	case mbData:
		if !m.readMode {
			m.setBit(m.addr, sel)
		}
		m.addr++
		m.length--
		m.out = m.bit(m.addr)
		if m.length == 0 {
			m.state = mbTrail
			m.count = 0
		}
	case mbTrail:
		m.count++
		if m.count == mb128TrailBits {
			m.reset()
		}
	}
}

// Data returns the backing memory.
func (m *MB128) Data() []byte { return m.mem[:] }

// Load replaces the backing memory.
func (m *MB128) Load(data []byte) {
	clear(m.mem[:])
	copy(m.mem[:], data)
	m.dirty = false
}

func (m *MB128) saveState(w *stateWriter) {
	w.bytes(m.mem[:])
	w.u8(uint8(m.state))
	w.u8(m.shift)
	w.int(m.count)
	w.bool(m.readMode)
	w.u32(m.addr)
	w.u32(m.length)
	w.u8(m.out)
}

func (m *MB128) loadState(r *stateReader) {
	r.bytes(m.mem[:])
	m.state = mb128State(r.u8())
	r.check(m.state <= mbTrail, "mb128 state")
	m.shift = r.u8()
	m.count = r.intIn(0, 32, "mb128 bit count")
	m.readMode = r.bool()
	m.addr = r.u32()
	m.length = r.u32()
	m.out = r.u8()
}
