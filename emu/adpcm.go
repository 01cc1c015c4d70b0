package emu

const (
	adpcmRAMSize = 0x10000

	// Master cycles per byte moved by ADPCM DMA.
	adpcmDMACycles = 36
)

var adpcmSteps = [49]int32{
	16, 17, 19, 21, 23, 25, 28, 31, 34, 37, 41, 45, 50, 55, 60, 66,
	73, 80, 88, 97, 107, 118, 130, 143, 157, 173, 190, 209, 230, 253, 279, 307,
	337, 371, 408, 449, 494, 544, 598, 658, 724, 796, 876, 963, 1060, 1166, 1282, 1411,
	1552,
}

var adpcmIndexShift = [8]int{-1, -1, -1, -1, 2, 4, 6, 8}

// ADPCM is the MSM5205 compatible voice engine of the CD-ROM unit with its
// 64KB sample RAM.
type ADPCM struct {
	cd *CDROM

	ram [adpcmRAMSize]uint8

	addr      uint16 // $1808/$1809 latch
	readAddr  uint16
	writeAddr uint16
	length    uint16
	readLatch uint8

	control uint8
	dmaCtrl uint8
	dmaAcc  int
	rate    uint8

	playing  bool
	lowNext  bool // second nibble of the current byte
	signal   int32
	stepIdx  int
	acc      int64
	endFlag  bool
	halfFlag bool
}

func (a *ADPCM) reset() {
	cd := a.cd
	ram := a.ram
	*a = ADPCM{cd: cd, ram: ram}
}

// sampleCycles returns the sample period, 32 kHz / (16 - RATE), in master
// cycles scaled by 32000.
func (a *ADPCM) sampleCycles() int64 {
	return int64(MasterClockHz) * int64(16-int(a.rate&0x0F))
}

func (a *ADPCM) writeAddrLow(v uint8)  { a.addr = a.addr&0xFF00 | uint16(v) }
func (a *ADPCM) writeAddrHigh(v uint8) { a.addr = a.addr&0x00FF | uint16(v)<<8 }

// readData handles $180A reads. The port returns the byte fetched by the
// previous read.
func (a *ADPCM) readData() uint8 {
	v := a.readLatch
	a.readLatch = a.ram[a.readAddr]
	a.readAddr++
	return v
}

func (a *ADPCM) writeData(v uint8) {
	a.ram[a.writeAddr] = v
	a.writeAddr++
}

// status returns $180C.
func (a *ADPCM) status() uint8 {
	if a.playing {
		return 0x08
	}
	return 0x01
}

// writeControl handles $180D. Address loads act on rising edges.
func (a *ADPCM) writeControl(v uint8) {
	prev := a.control
	a.control = v
	rising := v &^ prev

	if v&0x80 != 0 {
		a.readAddr, a.writeAddr, a.length = 0, 0, 0
		a.playing = false
		a.setEnd(false)
		a.setHalf(false)
		return
	}
	if rising&0x02 != 0 {
		a.writeAddr = a.addr
	}
	if rising&0x08 != 0 {
		a.readAddr = a.addr
	}
	if rising&0x10 != 0 {
		a.length = a.addr
		a.setEnd(false)
	}
	switch {
	case rising&0x40 != 0:
		a.playing = true
		a.lowNext = false
		a.signal = 0
		a.stepIdx = 0
		a.acc = 0
		a.setEnd(false)
	case v&0x40 == 0 && prev&0x40 != 0 && v&0x20 == 0:
		a.playing = false
	}
}

func (a *ADPCM) setEnd(on bool) {
	a.endFlag = on
	a.cd.setFlag(cdIRQEnd, on)
}

func (a *ADPCM) setHalf(on bool) {
	a.halfFlag = on
	a.cd.setFlag(cdIRQHalf, on)
}

// output is the current 12-bit sample scaled to 16 bits.
func (a *ADPCM) output() int32 {
	if !a.playing {
		return 0
	}
	return a.signal << 4
}

func (a *ADPCM) clock(cycles int) {
	a.clockDMA(cycles)
	if !a.playing {
		return
	}
	a.acc += int64(cycles) * 32000
	period := a.sampleCycles()
	for a.acc >= period {
		a.acc -= period
		a.decodeNext()
		if !a.playing {
			a.acc = 0
			return
		}
	}
}

// clockDMA moves bytes from the SCSI data phase into sample RAM while
// $180B enables it.
func (a *ADPCM) clockDMA(cycles int) {
	if a.dmaCtrl&0x03 == 0 {
		a.dmaAcc = 0
		return
	}
	s := a.cd.scsi
	a.dmaAcc += cycles
	for a.dmaAcc >= adpcmDMACycles {
		a.dmaAcc -= adpcmDMACycles
		if s.phase != scsiDataIn || !s.has(sigREQ) {
			a.dmaAcc = 0
			return
		}
		a.writeData(s.bus)
		s.setACK(true)
		s.setACK(false)
		if s.phase != scsiDataIn {
			a.dmaCtrl &^= 0x03
			return
		}
	}
}

func (a *ADPCM) decodeNext() {
	b := a.ram[a.readAddr]
	var n uint8
	if a.lowNext {
		n = b & 0x0F
	} else {
		n = b >> 4
	}
	a.decodeNibble(n)

	a.lowNext = !a.lowNext
	if a.lowNext {
		return
	}
	a.readAddr++
	switch {
	case a.length > 0:
		a.length--
		a.setHalf(a.length < 0x8000)
	case a.control&0x20 != 0:
		a.playing = false
		a.setHalf(false)
		a.setEnd(true)
	default:
		a.length--
	}
}

func (a *ADPCM) decodeNibble(n uint8) {
	step := adpcmSteps[a.stepIdx]
	diff := step >> 3
	if n&1 != 0 {
		diff += step >> 2
	}
	if n&2 != 0 {
		diff += step >> 1
	}
	if n&4 != 0 {
		diff += step
	}
	if n&8 != 0 {
		diff = -diff
	}
	a.signal = clampInt32(a.signal+diff, -2048, 2047)
	a.stepIdx += adpcmIndexShift[n&7]
	a.stepIdx = max(0, min(a.stepIdx, len(adpcmSteps)-1))
}

func (a *ADPCM) saveState(w *stateWriter) {
	w.bytes(a.ram[:])
	w.u16(a.addr)
	w.u16(a.readAddr)
	w.u16(a.writeAddr)
	w.u16(a.length)
	w.u8(a.readLatch)
	w.u8(a.control)
	w.u8(a.dmaCtrl)
	w.int(a.dmaAcc)
	w.u8(a.rate)
	w.bool(a.playing)
	w.bool(a.lowNext)
	w.u32(uint32(a.signal))
	w.int(a.stepIdx)
	w.u64(uint64(a.acc))
	w.bool(a.endFlag)
	w.bool(a.halfFlag)
}

func (a *ADPCM) loadState(r *stateReader) {
	r.bytes(a.ram[:])
	a.addr = r.u16()
	a.readAddr = r.u16()
	a.writeAddr = r.u16()
	a.length = r.u16()
	a.readLatch = r.u8()
	a.control = r.u8()
	a.dmaCtrl = r.u8()
	a.dmaAcc = r.intIn(0, adpcmDMACycles, "adpcm dma phase")
	a.rate = r.u8()
	a.playing = r.bool()
	a.lowNext = r.bool()
	a.signal = int32(r.u32())
	a.stepIdx = r.intIn(0, len(adpcmSteps), "adpcm step index")
	a.acc = int64(r.u64())
	r.check(a.acc >= 0 && a.acc < 16*MasterClockHz, "adpcm sample phase")
	a.endFlag = r.bool()
	a.halfFlag = r.bool()
}
