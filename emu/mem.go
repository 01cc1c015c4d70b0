package emu

const (
	wramSizePCE  = 0x2000 // 8KB work RAM
	wramSizeSGX  = 0x8000 // 32KB work RAM on SuperGrafx
	bramSize     = 0x800  // 2KB backup RAM
	cdRAMSize    = 0x10000
	superRAMSize = 0x30000
	cardRAMSize  = 0x8000
	bankSize     = 0x2000
)

// Physical bank numbers of fixed regions.
const (
	bankCardRAM  = 0x40
	bankSuperRAM = 0x68
	bankCDRAM    = 0x80
	bankBRAM     = 0xF7
	bankWRAM     = 0xF8
	bankIO       = 0xFF
)

// Memory implements the HuC6280 MMU and the PC Engine physical map.
//
// Logical addresses are translated through eight MPRs into a 21-bit
// physical address (bank<<13 | offset):
//
//	$00-$7F  HuCard ROM (mapper dependent)
//	$40-$43  Populous card RAM or Arcade Card ports, when fitted
//	$68-$7F  Super CD-ROM RAM (192KB)
//	$80-$87  CD-ROM RAM (64KB)
//	$F7      Backup RAM (2KB)
//	$F8-$FB  Work RAM (8KB mirrored, 32KB on SuperGrafx)
//	$FF      I/O page
//
// I/O page layout:
//
//	$0000-$03FF  VDC (SuperGrafx: VDC1 $00, HuC6202 $08, VDC2 $10)
//	$0400-$07FF  VCE
//	$0800-$0BFF  PSG
//	$0C00-$0FFF  Timer
//	$1000-$13FF  Joypad port
//	$1400-$17FF  Interrupt controller
//	$1800-$19FF  CD-ROM interface
//	$1A00-$1AFF  Arcade Card
//	$1C00-$1FFF  HES player stub, when loaded
type Memory struct {
	mpr [8]uint8

	wram     [wramSizeSGX]uint8
	wramMask uint16

	bram         [bramSize]uint8
	bramUnlocked bool
	bramForced   bool
	bramSeq      int

	rom   []uint8
	banks *romBanks

	cardRAM  []uint8
	cdRAM    []uint8
	superRAM []uint8
	hesStub  []uint8

	ioBuffer uint8

	// penalty counts extra CPU cycles of the current instruction spent on
	// VDC and VCE accesses.
	penalty int

	cpu    *HuC6280
	vdc    [2]*HuC6270
	vpc    *HuC6202
	vce    *HuC6260
	psg    *PSG
	input  *Input
	cd     *CDROM
	arcade *ArcadeCard

	sgx            bool
	cdAttached     bool
	arcadeAttached bool

	logs *logOnce
}

// NewMemory creates an unmapped memory system.
func NewMemory() *Memory {
	return &Memory{wramMask: wramSizePCE - 1, banks: newROMBanks(0, MapperStandard)}
}

// SetROM installs a HuCard or System Card image.
func (m *Memory) SetROM(rom []byte, mapper MapperType) {
	m.rom = rom
	m.banks = newROMBanks(len(rom), mapper)
}

// setSGX switches between the PC Engine and SuperGrafx memory maps.
func (m *Memory) setSGX(sgx bool) {
	m.sgx = sgx
	if sgx {
		m.wramMask = wramSizeSGX - 1
	} else {
		m.wramMask = wramSizePCE - 1
	}
}

// reset applies power-on values. MPR7 is set separately by the CPU reset.
func (m *Memory) reset(f *resetFiller, rv ResetValues) {
	for i := range m.mpr {
		m.mpr[i] = f.byte(rv.MPR)
	}
	f.fill(m.wram[:], rv.WRAM)
	if m.cardRAM != nil {
		f.fill(m.cardRAM, rv.CardRAM)
	}
	if m.cdRAM != nil {
		f.fill(m.cdRAM, rv.WRAM)
	}
	if m.superRAM != nil {
		f.fill(m.superRAM, rv.WRAM)
	}
	m.bramUnlocked = false
	m.bramSeq = 0
	m.ioBuffer = 0
	m.banks.reset()
}

// MPR returns mapping register i.
func (m *Memory) MPR(i int) uint8 { return m.mpr[i&7] }

// Read performs a CPU read of a logical address.
func (m *Memory) Read(addr uint16) uint8 {
	return m.readPhysical(m.mpr[addr>>13], addr&0x1FFF)
}

// Write performs a CPU write to a logical address.
func (m *Memory) Write(addr uint16, v uint8) {
	m.writePhysical(m.mpr[addr>>13], addr&0x1FFF, v)
}

// Physical converts a logical address to a 21-bit physical address.
func (m *Memory) Physical(addr uint16) uint32 {
	return uint32(m.mpr[addr>>13])<<13 | uint32(addr&0x1FFF)
}

func (m *Memory) readPhysical(bank uint8, off uint16) uint8 {
	switch {
	case bank < 0x80:
		return m.readROMRegion(bank, off)
	case bank < bankCDRAM+8:
		if m.cdRAM != nil {
			return m.cdRAM[int(bank-bankCDRAM)<<13|int(off)]
		}
	case bank == bankBRAM:
		return m.bram[off&(bramSize-1)]
	case bank >= bankWRAM && bank <= bankWRAM+3:
		return m.wram[(uint16(bank-bankWRAM)<<13|off)&m.wramMask]
	case bank == bankIO:
		return m.readIO(off)
	}
	return 0xFF
}

func (m *Memory) writePhysical(bank uint8, off uint16, v uint8) {
	switch {
	case bank < 0x80:
		m.writeROMRegion(bank, off, v)
	case bank < bankCDRAM+8:
		if m.cdRAM != nil {
			m.cdRAM[int(bank-bankCDRAM)<<13|int(off)] = v
		}
	case bank == bankBRAM:
		if m.bramUnlocked || m.bramForced {
			m.bram[off&(bramSize-1)] = v
		}
	case bank >= bankWRAM && bank <= bankWRAM+3:
		m.wram[(uint16(bank-bankWRAM)<<13|off)&m.wramMask] = v
	case bank == bankIO:
		m.writeIO(off, v)
	}
}

func (m *Memory) readROMRegion(bank uint8, off uint16) uint8 {
	if bank >= bankCardRAM && bank < bankCardRAM+4 {
		if m.arcadeAttached {
			return m.arcade.readData(int(bank - bankCardRAM))
		}
		if m.cardRAM != nil {
			return m.cardRAM[int(bank-bankCardRAM)<<13|int(off)]
		}
	}
	if bank >= bankSuperRAM && m.superRAM != nil {
		return m.superRAM[int(bank-bankSuperRAM)<<13|int(off)]
	}
	if len(m.rom) == 0 {
		return 0xFF
	}
	return m.rom[m.banks.offset(bank)+int(off)]
}

func (m *Memory) writeROMRegion(bank uint8, off uint16, v uint8) {
	if bank >= bankCardRAM && bank < bankCardRAM+4 {
		if m.arcadeAttached {
			m.arcade.writeData(int(bank-bankCardRAM), v)
			return
		}
		if m.cardRAM != nil {
			m.cardRAM[int(bank-bankCardRAM)<<13|int(off)] = v
			return
		}
	}
	if bank >= bankSuperRAM && m.superRAM != nil {
		m.superRAM[int(bank-bankSuperRAM)<<13|int(off)] = v
		return
	}
	m.banks.write(off)
}

func (m *Memory) readIO(off uint16) uint8 {
	switch off & 0x1C00 {
	case 0x0000:
		m.penalty++
		return m.readVDC(off)
	case 0x0400:
		m.penalty++
		return m.vce.Read(off)
	case 0x0800:
		// PSG is write only
		return m.ioBuffer
	case 0x0C00:
		m.ioBuffer = m.ioBuffer&0x80 | m.cpu.timer.counter&0x7F
		return m.ioBuffer
	case 0x1000:
		m.ioBuffer = m.input.Read()
		return m.ioBuffer
	case 0x1400:
		switch off & 3 {
		case 2:
			m.ioBuffer = m.ioBuffer&0xF8 | m.cpu.irqDisable
		case 3:
			m.ioBuffer = m.ioBuffer&0xF8 | m.cpu.pending()
		}
		return m.ioBuffer
	case 0x1800:
		if off&0x1E00 == 0x1A00 {
			if m.arcadeAttached && off < 0x1B00 {
				return m.arcade.Read(off)
			}
			return 0xFF
		}
		if m.cdAttached {
			v := m.cd.Read(off)
			if off&0x3FF == 0x03 && !m.bramForced {
				m.bramUnlocked = false
			}
			return v
		}
		return 0xFF
	case 0x1C00:
		if i := int(off - 0x1C00); i < len(m.hesStub) {
			return m.hesStub[i]
		}
		return 0xFF
	}
	return 0xFF
}

func (m *Memory) writeIO(off uint16, v uint8) {
	switch off & 0x1C00 {
	case 0x0000:
		m.penalty++
		m.writeVDC(off, v)
	case 0x0400:
		m.penalty++
		m.vce.Write(off, v)
	case 0x0800:
		m.ioBuffer = v
		m.psg.Write(off, v)
	case 0x0C00:
		m.ioBuffer = v
		if off&1 == 0 {
			m.cpu.timer.writeReload(v)
		} else {
			m.cpu.timer.writeControl(v)
		}
	case 0x1000:
		m.ioBuffer = v
		m.input.Write(v)
	case 0x1400:
		m.ioBuffer = v
		switch off & 3 {
		case 2:
			m.cpu.irqDisable = v & 0x07
		case 3:
			m.cpu.timer.request = false
		}
	case 0x1800:
		if off&0x1E00 == 0x1A00 {
			if m.arcadeAttached && off < 0x1B00 {
				m.arcade.Write(off, v)
			}
			return
		}
		m.trackBRAMUnlock(off, v)
		if m.cdAttached {
			m.cd.Write(off, v)
		}
	default:
		m.logs.printf(logUnhandledIO, "write $%02X to I/O $%04X", v, off)
	}
}

// trackBRAMUnlock follows the "HUBM" key written to $1807-$180A. The CD
// interface also unlocks backup RAM when bit 7 of $1807 is set.
func (m *Memory) trackBRAMUnlock(off uint16, v uint8) {
	key := [4]uint8{0x48, 0x55, 0x42, 0x4D}
	reg := int(off&0x3FF) - 0x07
	if reg < 0 || reg > 3 {
		return
	}
	if reg == 0 && m.cdAttached && v&0x80 != 0 {
		m.bramUnlocked = true
	}
	switch {
	case v == key[reg] && reg == m.bramSeq:
		m.bramSeq++
		if m.bramSeq == len(key) {
			m.bramUnlocked = true
			m.bramSeq = 0
		}
	case v == key[0] && reg == 0:
		m.bramSeq = 1
	default:
		m.bramSeq = 0
	}
}

func (m *Memory) readVDC(off uint16) uint8 {
	if !m.sgx {
		return m.vdc[0].ReadPort(off)
	}
	switch off & 0x18 {
	case 0x00:
		return m.vdc[0].ReadPort(off)
	case 0x08:
		return m.vpc.Read(off)
	case 0x10:
		return m.vdc[1].ReadPort(off)
	}
	return 0xFF
}

func (m *Memory) writeVDC(off uint16, v uint8) {
	if !m.sgx {
		m.vdc[0].WritePort(off, v)
		return
	}
	switch off & 0x18 {
	case 0x00:
		m.vdc[0].WritePort(off, v)
	case 0x08:
		m.vpc.Write(off, v)
	case 0x10:
		m.vdc[1].WritePort(off, v)
	}
}

// writeVDCDirect handles ST0, ST1 and ST2. On SuperGrafx the HuC6202
// decides which VDC receives the write.
func (m *Memory) writeVDCDirect(port uint16, v uint8) {
	m.penalty++
	if m.sgx {
		m.vdc[m.vpc.stTarget()].WritePort(port, v)
		return
	}
	m.vdc[0].WritePort(port, v)
}

// peekPhysical reads a physical address without any side effect. I/O
// registers that change state when read return the open bus value.
func (m *Memory) peekPhysical(bank uint8, off uint16) uint8 {
	if bank != bankIO {
		if bank >= bankCardRAM && bank < bankCardRAM+4 && m.arcadeAttached {
			return m.arcade.peekData(int(bank - bankCardRAM))
		}
		return m.readPhysical(bank, off)
	}
	switch off & 0x1C00 {
	case 0x0C00:
		return m.ioBuffer&0x80 | m.cpu.timer.counter&0x7F
	case 0x1400:
		switch off & 3 {
		case 2:
			return m.ioBuffer&0xF8 | m.cpu.irqDisable
		case 3:
			return m.ioBuffer&0xF8 | m.cpu.pending()
		}
	case 0x1C00:
		if i := int(off - 0x1C00); i < len(m.hesStub) {
			return m.hesStub[i]
		}
		return 0xFF
	}
	return m.ioBuffer
}

// Peek reads a logical address without side effects.
func (m *Memory) Peek(addr uint16) uint8 {
	return m.peekPhysical(m.mpr[addr>>13], addr&0x1FFF)
}

// Poke writes a logical address. Writes to the I/O page are dropped so a
// debugger cannot disturb device state.
func (m *Memory) Poke(addr uint16, v uint8) {
	bank := m.mpr[addr>>13]
	if bank == bankIO {
		return
	}
	m.writePhysical(bank, addr&0x1FFF, v)
}

func (m *Memory) saveState(w *stateWriter) {
	w.bytes(m.mpr[:])
	w.bytes(m.wram[:])
	w.bytes(m.bram[:])
	w.bool(m.bramUnlocked)
	w.u8(uint8(m.bramSeq))
	w.u8(m.ioBuffer)
	w.u8(m.banks.sf2Bank)
	w.blob(m.cardRAM)
	w.blob(m.cdRAM)
	w.blob(m.superRAM)
}

func (m *Memory) loadState(r *stateReader) {
	r.bytes(m.mpr[:])
	r.bytes(m.wram[:])
	r.bytes(m.bram[:])
	m.bramUnlocked = r.bool()
	m.bramSeq = int(r.u8())
	r.check(m.bramSeq < 4, "backup RAM unlock step")
	m.ioBuffer = r.u8()
	m.banks.sf2Bank = r.u8()
	r.check(m.banks.sf2Bank < 4, "street fighter bank")
	r.blob(m.cardRAM)
	r.blob(m.cdRAM)
	r.blob(m.superRAM)
}
