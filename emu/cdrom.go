package emu

// CD-ROM interrupt sources in $1802/$1803.
const (
	cdIRQHalf   = 0x04 // ADPCM half played
	cdIRQEnd    = 0x08 // ADPCM end
	cdIRQDone   = 0x20 // status and message in
	cdIRQDataIn = 0x40
	cdIRQMask   = 0x7C
)

const (
	fadeLongCycles  = MasterClockHz * 6
	fadeShortCycles = MasterClockHz * 5 / 2
	fadeFull        = 256
)

// CDROM is the CD-ROM² interface unit at $1800-$19FF: the SCSI drive, CD
// audio, the ADPCM engine and their shared interrupt logic.
type CDROM struct {
	img   *CDImage
	scsi  *scsiDrive
	audio *CDAudio
	adpcm *ADPCM
	super bool

	mask     uint8
	flags    uint8
	resetReg uint8
	readback bool // $1805/$1806 select the right channel

	fader       uint8
	fadeElapsed int

	sampleAcc int64
	buffer    []int16

	logs *logOnce
}

// NewCDROM creates the interface with no disc inserted.
func NewCDROM(logs *logOnce) *CDROM {
	cd := &CDROM{
		logs:   logs,
		buffer: make([]int16, 0, 2*(sampleRate/FPS+16)),
	}
	cd.scsi = &scsiDrive{cd: cd}
	cd.audio = &CDAudio{cd: cd}
	cd.adpcm = &ADPCM{cd: cd}
	return cd
}

// Insert loads a disc. super enables the Super System Card signature.
func (cd *CDROM) Insert(img *CDImage, super bool) {
	cd.img = img
	cd.super = super
}

// Eject removes the disc.
func (cd *CDROM) Eject() {
	cd.img = nil
}

// Image returns the inserted disc.
func (cd *CDROM) Image() *CDImage { return cd.img }

// Reset returns the drive and the audio engines to power-on state.
func (cd *CDROM) Reset() {
	cd.scsi.reset()
	cd.audio.reset()
	cd.adpcm.reset()
	cd.mask = 0
	cd.flags = 0
	cd.resetReg = 0
	cd.readback = false
	cd.fader = 0
	cd.fadeElapsed = 0
	cd.sampleAcc = 0
	cd.buffer = cd.buffer[:0]
}

// IRQ reports the IRQ2 line.
func (cd *CDROM) IRQ() bool {
	return cd.flags&cd.mask&cdIRQMask != 0
}

func (cd *CDROM) setFlag(f uint8, on bool) {
	if on {
		cd.flags |= f
	} else {
		cd.flags &^= f
	}
}

// --- Registers ---

// Read handles CPU reads of $1800-$19FF.
func (cd *CDROM) Read(off uint16) uint8 {
	reg := off & 0xFF
	if reg >= 0xC0 {
		return cd.readSignature(reg)
	}
	switch reg & 0x0F {
	case 0x00:
		return cd.scsi.statusByte()
	case 0x01:
		return cd.scsi.bus
	case 0x02:
		v := cd.mask
		if cd.scsi.has(sigACK) {
			v |= 0x80
		}
		return v
	case 0x03:
		cd.readback = !cd.readback
		v := cd.flags & cdIRQMask
		if !cd.readback {
			v |= 0x02
		}
		return v
	case 0x04:
		return cd.resetReg
	case 0x05:
		return uint8(cd.readbackSample())
	case 0x06:
		return uint8(cd.readbackSample() >> 8)
	case 0x08:
		return cd.scsi.autoAck()
	case 0x0A:
		return cd.adpcm.readData()
	case 0x0B:
		return cd.adpcm.dmaCtrl
	case 0x0C:
		return cd.adpcm.status()
	case 0x0D:
		return cd.adpcm.control
	}
	return 0
}

func (cd *CDROM) readSignature(reg uint16) uint8 {
	if !cd.super {
		return 0xFF
	}
	switch reg & 0x0F {
	case 0x01:
		return 0xAA
	case 0x02:
		return 0x55
	case 0x03:
		return 0x03
	}
	return 0x00
}

func (cd *CDROM) readbackSample() uint16 {
	if cd.readback {
		return uint16(cd.audio.right)
	}
	return uint16(cd.audio.left)
}

// Write handles CPU writes to $1800-$19FF.
func (cd *CDROM) Write(off uint16, v uint8) {
	reg := off & 0xFF
	if reg >= 0xC0 {
		return
	}
	switch reg & 0x0F {
	case 0x00:
		cd.scsi.selectTarget()
	case 0x01:
		cd.scsi.hostBus = v
	case 0x02:
		cd.mask = v & cdIRQMask
		cd.scsi.setACK(v&0x80 != 0)
	case 0x04:
		cd.resetReg = v & 0x0F
		if v&0x02 != 0 {
			cd.scsi.busReset()
		}
	case 0x08:
		cd.adpcm.writeAddrLow(v)
	case 0x09:
		cd.adpcm.writeAddrHigh(v)
	case 0x0A:
		cd.adpcm.writeData(v)
	case 0x0B:
		cd.adpcm.dmaCtrl = v
	case 0x0D:
		cd.adpcm.writeControl(v)
	case 0x0E:
		cd.adpcm.rate = v & 0x0F
	case 0x0F:
		if v&0x08 == 0 || v != cd.fader {
			cd.fadeElapsed = 0
		}
		cd.fader = v
	}
}

// --- Clock and audio ---

// Clock advances the drive, both audio engines and the output sampler.
func (cd *CDROM) Clock(cycles int) {
	cd.scsi.clock(cycles)
	cd.audio.clock(cycles)
	cd.adpcm.clock(cycles)
	if cd.fader&0x08 != 0 && cd.fadeElapsed < cd.fadeCycles() {
		cd.fadeElapsed += cycles
	}

	cd.sampleAcc += int64(cycles) * sampleRate
	for cd.sampleAcc >= MasterClockHz {
		cd.sampleAcc -= MasterClockHz
		cd.emit()
	}
}

func (cd *CDROM) fadeCycles() int {
	if cd.fader&0x04 != 0 {
		return fadeShortCycles
	}
	return fadeLongCycles
}

// fadeVolumes returns the CD-DA and ADPCM volumes out of fadeFull.
func (cd *CDROM) fadeVolumes() (int32, int32) {
	if cd.fader&0x08 == 0 {
		return fadeFull, fadeFull
	}
	total := cd.fadeCycles()
	vol := int32(fadeFull - fadeFull*int64(min(cd.fadeElapsed, total))/int64(total))
	if cd.fader&0x02 != 0 {
		return fadeFull, vol
	}
	return vol, fadeFull
}

func (cd *CDROM) emit() {
	cdVol, pcmVol := cd.fadeVolumes()
	pcm := cd.adpcm.output() * pcmVol / fadeFull
	l := int32(cd.audio.left)*cdVol/fadeFull + pcm
	r := int32(cd.audio.right)*cdVol/fadeFull + pcm
	cd.buffer = append(cd.buffer, int16(clampInt32(l, -32768, 32767)), int16(clampInt32(r, -32768, 32767)))
}

// GetBuffer returns the stereo samples produced since the last drain.
func (cd *CDROM) GetBuffer() []int16 { return cd.buffer }

func (cd *CDROM) resetBuffer() { cd.buffer = cd.buffer[:0] }

func (cd *CDROM) saveState(w *stateWriter) {
	w.u8(cd.mask)
	w.u8(cd.flags)
	w.u8(cd.resetReg)
	w.bool(cd.readback)
	w.u8(cd.fader)
	w.int(cd.fadeElapsed)
	w.u64(uint64(cd.sampleAcc))
	cd.scsi.saveState(w)
	cd.audio.saveState(w)
	cd.adpcm.saveState(w)
}

func (cd *CDROM) loadState(r *stateReader) {
	cd.mask = r.u8()
	cd.flags = r.u8()
	cd.resetReg = r.u8()
	cd.readback = r.bool()
	cd.fader = r.u8()
	cd.fadeElapsed = r.int()
	r.check(cd.fadeElapsed >= 0, "fader progress")
	cd.sampleAcc = int64(r.u64())
	r.check(cd.sampleAcc >= 0 && cd.sampleAcc < MasterClockHz, "cd sample phase")
	cd.scsi.loadState(r)
	cd.audio.loadState(r)
	cd.adpcm.loadState(r)
	cd.buffer = cd.buffer[:0]
}
