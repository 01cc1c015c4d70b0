package emu

// Status flags.
const (
	flagC uint8 = 0x01
	flagZ uint8 = 0x02
	flagI uint8 = 0x04
	flagD uint8 = 0x08
	flagB uint8 = 0x10
	flagT uint8 = 0x20
	flagV uint8 = 0x40
	flagN uint8 = 0x80
)

// Interrupt vectors in logical address space.
const (
	vectorIRQ2  = 0xFFF6
	vectorIRQ1  = 0xFFF8
	vectorTimer = 0xFFFA
	vectorNMI   = 0xFFFC
	vectorReset = 0xFFFE
)

// Interrupt request bits as seen in the $1402/$1403 registers.
const (
	irqBitIRQ2  uint8 = 0x01
	irqBitIRQ1  uint8 = 0x02
	irqBitTimer uint8 = 0x04
)

// CPU clock dividers in master cycles per CPU cycle.
const (
	cpuDividerLow  = 12
	cpuDividerHigh = 3
)

// Master cycles between timer decrements: 1024 CPU cycles at 7.16 MHz,
// fixed whatever speed the CPU itself runs at.
const timerPeriod = 3072

const (
	zeroPage  = 0x2000
	stackPage = 0x2100
)

// irqLines reports the level of the external interrupt inputs.
type irqLines interface {
	IRQ1() bool
	IRQ2() bool
}

// hucTimer is the 7-bit down counter built into the HuC6280.
type hucTimer struct {
	reload  uint8
	counter uint8
	enabled bool
	acc     int
	request bool
}

func (t *hucTimer) clock(cycles int) {
	if !t.enabled {
		return
	}
	t.acc += cycles
	for t.acc >= timerPeriod {
		t.acc -= timerPeriod
		if t.counter == 0 {
			t.counter = t.reload
			t.request = true
		} else {
			t.counter--
		}
	}
}

func (t *hucTimer) writeReload(v uint8) {
	t.reload = v & 0x7F
}

func (t *hucTimer) writeControl(v uint8) {
	on := v&0x01 != 0
	if on && !t.enabled {
		t.counter = t.reload
		t.acc = 0
	}
	t.enabled = on
}

// HuC6280 is the 65C02 derived CPU with an integrated MMU, timer and
// interrupt controller.
type HuC6280 struct {
	a, x, y, s, p uint8
	pc            uint16

	mem   *Memory
	lines irqLines

	speedHigh  bool
	irqDisable uint8
	timer      hucTimer
	nmi        bool

	// tActive is set while the instruction following SET executes.
	tActive bool

	// irqEntered is set when an interrupt was serviced by the last Step.
	irqEntered bool

	cycles uint64
	logs   *logOnce
}

// NewHuC6280 creates a CPU bound to mem.
func NewHuC6280(mem *Memory, lines irqLines) *HuC6280 {
	return &HuC6280{mem: mem, lines: lines}
}

// Reset performs a hardware reset: MPR7 is forced to $00, the CPU drops to
// low speed and execution resumes at the reset vector.
func (c *HuC6280) Reset() {
	c.mem.mpr[7] = 0x00
	c.p = flagI
	c.s = 0xFF
	c.speedHigh = false
	c.irqDisable = 0
	c.timer = hucTimer{}
	c.tActive = false
	c.nmi = false
	c.irqEntered = false
	c.pc = c.read16(vectorReset)
}

// Divider returns the current master cycles per CPU cycle.
func (c *HuC6280) Divider() int {
	if c.speedHigh {
		return cpuDividerHigh
	}
	return cpuDividerLow
}

// PC returns the program counter.
func (c *HuC6280) PC() uint16 { return c.pc }

// SetPC moves the program counter.
func (c *HuC6280) SetPC(pc uint16) { c.pc = pc }

// Cycles returns the total master cycles executed since power-on.
func (c *HuC6280) Cycles() uint64 { return c.cycles }

// TriggerNMI latches a non-maskable interrupt. No stock hardware drives the
// NMI input, it exists for debugging.
func (c *HuC6280) TriggerNMI() { c.nmi = true }

// pending returns the interrupt request bits as seen at $1403.
func (c *HuC6280) pending() uint8 {
	var r uint8
	if c.lines != nil {
		if c.lines.IRQ2() {
			r |= irqBitIRQ2
		}
		if c.lines.IRQ1() {
			r |= irqBitIRQ1
		}
	}
	if c.timer.request {
		r |= irqBitTimer
	}
	return r
}

// Step executes one instruction, or services one accepted interrupt, and
// returns the elapsed master cycles. The timer is clocked here so it sees
// the same cycle count as the instruction.
func (c *HuC6280) Step() int {
	c.irqEntered = false
	c.mem.penalty = 0

	var cpuCycles int
	if vector, ok := c.acceptInterrupt(); ok {
		c.serviceInterrupt(vector, false)
		c.irqEntered = true
		cpuCycles = 8
	} else {
		op := c.fetch()
		c.tActive = c.p&flagT != 0
		c.p &^= flagT
		cpuCycles = c.execute(op)
		c.tActive = false
	}
	cpuCycles += c.mem.penalty

	master := cpuCycles * c.Divider()
	c.cycles += uint64(master)
	c.timer.clock(master)
	return master
}

func (c *HuC6280) acceptInterrupt() (uint16, bool) {
	if c.nmi {
		c.nmi = false
		return vectorNMI, true
	}
	if c.p&flagI != 0 {
		return 0, false
	}
	req := c.pending() &^ c.irqDisable
	switch {
	case req&irqBitTimer != 0:
		return vectorTimer, true
	case req&irqBitIRQ1 != 0:
		return vectorIRQ1, true
	case req&irqBitIRQ2 != 0:
		return vectorIRQ2, true
	}
	return 0, false
}

func (c *HuC6280) serviceInterrupt(vector uint16, brk bool) {
	c.push(uint8(c.pc >> 8))
	c.push(uint8(c.pc))
	p := c.p &^ flagB
	if brk {
		p |= flagB
	}
	c.push(p)
	c.p |= flagI
	c.p &^= flagD | flagT
	c.pc = c.read16(vector)
}

// Memory access helpers.

func (c *HuC6280) read(addr uint16) uint8 {
	return c.mem.Read(addr)
}

func (c *HuC6280) write(addr uint16, v uint8) {
	c.mem.Write(addr, v)
}

func (c *HuC6280) read16(addr uint16) uint16 {
	return uint16(c.read(addr)) | uint16(c.read(addr+1))<<8
}

func (c *HuC6280) fetch() uint8 {
	v := c.read(c.pc)
	c.pc++
	return v
}

func (c *HuC6280) fetch16() uint16 {
	lo := c.fetch()
	hi := c.fetch()
	return uint16(lo) | uint16(hi)<<8
}

func (c *HuC6280) push(v uint8) {
	c.write(stackPage|uint16(c.s), v)
	c.s--
}

func (c *HuC6280) pull() uint8 {
	c.s++
	return c.read(stackPage | uint16(c.s))
}

func (c *HuC6280) readZp16(zp uint8) uint16 {
	lo := c.read(zeroPage | uint16(zp))
	hi := c.read(zeroPage | uint16(zp+1))
	return uint16(lo) | uint16(hi)<<8
}

func (c *HuC6280) setFlag(f uint8, on bool) {
	if on {
		c.p |= f
	} else {
		c.p &^= f
	}
}

func (c *HuC6280) setNZ(v uint8) {
	c.p &^= flagN | flagZ
	c.p |= v & flagN
	if v == 0 {
		c.p |= flagZ
	}
}

// Effective address computation.

func (c *HuC6280) addrZp() uint16  { return zeroPage | uint16(c.fetch()) }
func (c *HuC6280) addrZpX() uint16 { return zeroPage | uint16(c.fetch()+c.x) }
func (c *HuC6280) addrZpY() uint16 { return zeroPage | uint16(c.fetch()+c.y) }
func (c *HuC6280) addrAbs() uint16 { return c.fetch16() }

func (c *HuC6280) addrAbsX() uint16 { return c.fetch16() + uint16(c.x) }
func (c *HuC6280) addrAbsY() uint16 { return c.fetch16() + uint16(c.y) }

func (c *HuC6280) addrIzX() uint16 { return c.readZp16(c.fetch() + c.x) }
func (c *HuC6280) addrIzY() uint16 { return c.readZp16(c.fetch()) + uint16(c.y) }
func (c *HuC6280) addrIzp() uint16 { return c.readZp16(c.fetch()) }

// operand returns the effective address for a read-style instruction.
func (c *HuC6280) operandAddr(mode addrMode) uint16 {
	switch mode {
	case modeZp:
		return c.addrZp()
	case modeZpX:
		return c.addrZpX()
	case modeZpY:
		return c.addrZpY()
	case modeAbs:
		return c.addrAbs()
	case modeAbsX:
		return c.addrAbsX()
	case modeAbsY:
		return c.addrAbsY()
	case modeIzX:
		return c.addrIzX()
	case modeIzY:
		return c.addrIzY()
	case modeIzp:
		return c.addrIzp()
	}
	return 0
}

func (c *HuC6280) operandValue(mode addrMode) uint8 {
	if mode == modeImm {
		return c.fetch()
	}
	return c.read(c.operandAddr(mode))
}
