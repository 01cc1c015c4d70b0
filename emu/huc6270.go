package emu

// VDC register numbers.
const (
	regMAWR  = 0x00
	regMARR  = 0x01
	regVWR   = 0x02 // VRR on read
	regCR    = 0x05
	regRCR   = 0x06
	regBXR   = 0x07
	regBYR   = 0x08
	regMWR   = 0x09
	regHSR   = 0x0A
	regHDR   = 0x0B
	regVSR   = 0x0C
	regVDR   = 0x0D
	regVCR   = 0x0E
	regDCR   = 0x0F
	regSOUR  = 0x10
	regDESR  = 0x11
	regLENR  = 0x12
	regDVSSR = 0x13
	vdcRegs  = 0x14
)

// Status register bits.
const (
	statusCR  uint8 = 0x01 // sprite 0 collision
	statusOR  uint8 = 0x02 // sprite overflow
	statusRR  uint8 = 0x04 // raster compare
	statusDS  uint8 = 0x08 // SAT DMA end
	statusDV  uint8 = 0x10 // VRAM DMA end
	statusVD  uint8 = 0x20 // vertical blank
	statusBSY uint8 = 0x40
)

// Control register bits.
const (
	crCollision  = 0x0001
	crOverflow   = 0x0002
	crRaster     = 0x0004
	crVBlank     = 0x0008
	crSprites    = 0x0040
	crBackground = 0x0080
)

const (
	vramWords = 0x8000
	satWords  = 0x100

	// Pixel value emitted outside the active display.
	overscanPixel = 0x100

	// The raster counter reads 64 on the first display line.
	rasterFirstLine = 64

	satDMACycles     = 1024 * 4
	vramDMAWordDelay = 8
)

type hPhase uint8

const (
	phaseHSW hPhase = iota
	phaseHDS
	phaseHDW
	phaseHDE
)

type vPhase uint8

const (
	phaseVSW vPhase = iota
	phaseVDS
	phaseVDW
	phaseVCR
)

// HuC6270 is the video display controller. It is slaved to the VCE, which
// drives its sync inputs and pulls one pixel per dot.
type HuC6270 struct {
	vram [vramWords]uint16
	sat  [satWords]uint16
	regs [vdcRegs]uint16

	ar         uint8
	status     uint8
	readLatch  uint16
	writeLatch uint8

	// Horizontal state
	hPhase     hPhase
	hCount     int // dots left in the current phase
	pixelIndex int // dots into HDW

	// Vertical state
	vPhase        vPhase
	vCount        int // lines left in the current phase
	rasterCounter int
	displayLine   bool // current line is inside VDW
	firstLine     bool // next rendered line is the first of VDW
	vblankFired   bool
	bgY           uint16

	// Line buffers
	lineBuf   [1024]uint16
	lineWidth int
	sprBuf    [1024]uint16
	sprFront  [1024]bool
	spriteSel []int

	// DMA
	vramDMAPending bool
	vramDMAAcc     int
	satDMAPending  bool
	satDMACycles   int

	spriteLimit bool
}

// NewHuC6270 creates a VDC.
func NewHuC6270() *HuC6270 {
	v := &HuC6270{spriteLimit: true, spriteSel: make([]int, 0, 64)}
	v.Reset(nil, ResetValues{Registers: ResetZero})
	return v
}

// Reset clears registers and timing state. VRAM and SAT are kept.
func (v *HuC6270) Reset(f *resetFiller, rv ResetValues) {
	for i := range v.regs {
		if f != nil {
			v.regs[i] = f.word(rv.Registers)
		} else {
			v.regs[i] = 0
		}
	}
	v.ar = 0
	v.status = 0
	v.readLatch = 0
	v.writeLatch = 0
	v.hPhase = phaseHSW
	v.hCount = v.hswDots()
	v.pixelIndex = 0
	v.vPhase = phaseVSW
	v.vCount = v.vswLines()
	v.rasterCounter = rasterFirstLine
	v.displayLine = false
	v.firstLine = false
	v.vblankFired = false
	v.bgY = 0
	v.lineWidth = 0
	v.vramDMAPending = false
	v.vramDMAAcc = 0
	v.satDMAPending = false
	v.satDMACycles = 0
}

// SetSpriteLimit enables the 16 sprites per line limit.
func (v *HuC6270) SetSpriteLimit(on bool) { v.spriteLimit = on }

// IRQ reports the level of the VDC interrupt output.
func (v *HuC6270) IRQ() bool { return v.status&0x3F != 0 }

// Register returns the raw value of register r.
func (v *HuC6270) Register(r int) uint16 {
	if r < 0 || r >= vdcRegs {
		return 0
	}
	return v.regs[r]
}

// VRAM returns the video memory.
func (v *HuC6270) VRAM() []uint16 { return v.vram[:] }

// SAT returns the sprite attribute table.
func (v *HuC6270) SAT() []uint16 { return v.sat[:] }

// --- Register helpers ---

func (v *HuC6270) increment() uint16 {
	switch (v.regs[regCR] >> 11) & 3 {
	case 1:
		return 32
	case 2:
		return 64
	case 3:
		return 128
	}
	return 1
}

func (v *HuC6270) hswDots() int { return (int(v.regs[regHSR]&0x1F) + 1) * 8 }
func (v *HuC6270) hdsDots() int { return (int(v.regs[regHSR]>>8&0x7F) + 1) * 8 }
func (v *HuC6270) hdwDots() int { return (int(v.regs[regHDR]&0x7F) + 1) * 8 }
func (v *HuC6270) hdeDots() int { return (int(v.regs[regHDR]>>8&0x7F) + 1) * 8 }

func (v *HuC6270) vswLines() int { return int(v.regs[regVSR]&0x1F) + 1 }
func (v *HuC6270) vdsLines() int { return int(v.regs[regVSR]>>8) + 2 }
func (v *HuC6270) vdwLines() int { return int(v.regs[regVDR]&0x1FF) + 1 }
func (v *HuC6270) vcrLines() int { return int(v.regs[regVCR] & 0xFF) }

func (v *HuC6270) raise(flag uint8, enable uint16) {
	if v.regs[regCR]&enable != 0 {
		v.status |= flag
	}
}

// --- Port access ---

// ReadPort handles a CPU read of $0000-$0003.
func (v *HuC6270) ReadPort(off uint16) uint8 {
	switch off & 3 {
	case 0:
		s := v.status
		if v.busy() {
			s |= statusBSY
		}
		v.status = 0
		return s
	case 2:
		return uint8(v.readLatch)
	case 3:
		r := uint8(v.readLatch >> 8)
		if v.ar == regVWR {
			v.regs[regMARR] += v.increment()
			v.fetchRead()
		}
		return r
	}
	return 0
}

// WritePort handles a CPU write to $0000-$0003.
func (v *HuC6270) WritePort(off uint16, val uint8) {
	switch off & 3 {
	case 0:
		v.ar = val & 0x1F
	case 2:
		v.writeLow(val)
	case 3:
		v.writeHigh(val)
	}
}

func (v *HuC6270) writeLow(val uint8) {
	if v.ar == regVWR {
		v.writeLatch = val
		return
	}
	if v.ar >= vdcRegs {
		return
	}
	v.regs[v.ar] = v.regs[v.ar]&0xFF00 | uint16(val)
	v.registerWritten(v.ar, false)
}

func (v *HuC6270) writeHigh(val uint8) {
	if v.ar == regVWR {
		v.writeVRAM(v.regs[regMAWR], uint16(val)<<8|uint16(v.writeLatch))
		v.regs[regMAWR] += v.increment()
		return
	}
	if v.ar >= vdcRegs {
		return
	}
	v.regs[v.ar] = v.regs[v.ar]&0x00FF | uint16(val)<<8
	v.registerWritten(v.ar, true)
}

func (v *HuC6270) registerWritten(reg uint8, high bool) {
	switch reg {
	case regMARR:
		if high {
			v.fetchRead()
		}
	case regBYR:
		v.bgY = v.regs[regBYR]
	case regLENR:
		if high {
			v.vramDMAPending = true
			v.vramDMAAcc = 0
		}
	case regDVSSR:
		if high {
			v.satDMAPending = true
		}
	}
}

func (v *HuC6270) fetchRead() {
	addr := v.regs[regMARR]
	if addr < vramWords {
		v.readLatch = v.vram[addr]
	} else {
		v.readLatch = 0
	}
}

// writeVRAM stores a word. Addresses above 32K words do not exist.
func (v *HuC6270) writeVRAM(addr, val uint16) {
	if addr < vramWords {
		v.vram[addr] = val
	}
}

// --- Sync and dot generation ---

// HSync starts a new line: the horizontal counter returns to HSW and the
// vertical state machine advances.
func (v *HuC6270) HSync() {
	v.hPhase = phaseHSW
	v.hCount = v.hswDots()
	v.pixelIndex = 0
	v.nextLine()
}

// VSync restarts the vertical state machine at VSW.
func (v *HuC6270) VSync() {
	if !v.vblankFired {
		v.enterVBlank()
	}
	v.vblankFired = false
	v.vPhase = phaseVSW
	v.vCount = v.vswLines()
	v.displayLine = false
}

// Dot advances one pixel clock and returns the 9-bit color index of the
// pixel, or overscanPixel outside the display window.
func (v *HuC6270) Dot() uint16 {
	out := uint16(overscanPixel)
	if v.hPhase == phaseHDW {
		if v.displayLine && v.pixelIndex < v.lineWidth {
			out = v.lineBuf[v.pixelIndex]
		}
		v.pixelIndex++
	}
	v.hCount--
	if v.hCount <= 0 {
		v.nextHPhase()
	}
	return out
}

// DisplayX returns the current dot relative to the start of HDW. It is
// negative before the display window opens.
func (v *HuC6270) DisplayX() int {
	switch v.hPhase {
	case phaseHDW:
		return v.pixelIndex
	case phaseHDE:
		return v.lineWidth + v.pixelIndex
	}
	return -1 - v.hCount
}

func (v *HuC6270) nextHPhase() {
	switch v.hPhase {
	case phaseHSW:
		v.hPhase = phaseHDS
		v.hCount = v.hdsDots()
	case phaseHDS:
		v.hPhase = phaseHDW
		v.hCount = v.hdwDots()
		v.pixelIndex = 0
		v.renderLine()
	case phaseHDW:
		v.hPhase = phaseHDE
		v.hCount = v.hdeDots()
		v.pixelIndex = 0
		v.advanceRaster()
	case phaseHDE:
		// Wait here for the VCE to assert HSYNC.
		v.hCount = 1 << 20
	}
}

// advanceRaster runs at the end of the display window. The raster
// counter moves to the next line here, so an RCR match raises its
// interrupt in the blanking period before the matching line.
func (v *HuC6270) advanceRaster() {
	if v.vPhase == phaseVDS && v.vCount == 1 {
		v.rasterCounter = rasterFirstLine
	} else {
		v.rasterCounter++
		if v.rasterCounter > 0x3FF {
			v.rasterCounter = 0
		}
	}
	if v.rasterCounter == int(v.regs[regRCR]&0x3FF) {
		v.raise(statusRR, crRaster)
	}
}

func (v *HuC6270) nextLine() {
	v.vCount--
	if v.vCount > 0 {
		if v.vPhase == phaseVDW && v.displayLine {
			v.bgY++
		}
		return
	}
	switch v.vPhase {
	case phaseVSW:
		v.vPhase = phaseVDS
		v.vCount = v.vdsLines()
	case phaseVDS:
		v.vPhase = phaseVDW
		v.vCount = v.vdwLines()
		v.displayLine = true
		v.firstLine = true
	case phaseVDW:
		v.vPhase = phaseVCR
		v.vCount = v.vcrLines()
		v.displayLine = false
		v.enterVBlank()
		if v.vCount <= 0 {
			v.vCount = 1
		}
	case phaseVCR:
		// Hold in VCR until VSYNC.
		v.vCount = 1 << 20
	}
}

func (v *HuC6270) enterVBlank() {
	v.vblankFired = true
	v.raise(statusVD, crVBlank)
	if v.satDMAPending || v.regs[regDCR]&0x10 != 0 {
		v.satDMAPending = false
		v.satDMACycles = satDMACycles
	}
}

// Clock advances DMA engines by the given master cycles.
func (v *HuC6270) Clock(cycles int) {
	if v.satDMACycles > 0 {
		v.satDMACycles -= cycles
		if v.satDMACycles <= 0 {
			v.satDMACycles = 0
			v.completeSATDMA()
		}
	}
	if v.vramDMAPending && !v.inActiveDisplay() {
		v.runVRAMDMA(cycles)
	}
}

func (v *HuC6270) inActiveDisplay() bool {
	return v.displayLine && v.regs[regCR]&(crSprites|crBackground) != 0
}

func (v *HuC6270) busy() bool {
	return v.vramDMAPending || v.satDMACycles > 0
}
