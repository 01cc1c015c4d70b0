package emu

import "encoding/binary"

type cdAudioState uint8

const (
	cdAudioIdle cdAudioState = iota
	cdAudioPlaying
	cdAudioPaused
	cdAudioStopped
)

// cdAudioStop is what happens when playback passes the stop address.
type cdAudioStop uint8

const (
	stopEventStop cdAudioStop = iota
	stopEventLoop
	stopEventIRQ
)

// 44.1 kHz from the master clock.
const cdAudioCyclesPerSample = 487

// CDAudio plays CD-DA straight from the track image.
type CDAudio struct {
	cd *CDROM

	state     cdAudioState
	startLBA  uint32
	current   uint32
	stopLBA   uint32
	stopEvent cdAudioStop
	sampleIdx int
	acc       int

	left  int16
	right int16

	sector []byte
}

func (a *CDAudio) reset() {
	cd := a.cd
	*a = CDAudio{cd: cd}
}

// start seeks to lba and either plays or holds there.
func (a *CDAudio) start(lba uint32, play bool) {
	a.startLBA = lba
	a.current = lba
	a.sampleIdx = 0
	a.sector = nil
	a.stopEvent = stopEventStop
	a.stopLBA = 0
	if img := a.cd.img; img != nil && img.LeadOut() > 0 {
		a.stopLBA = img.LeadOut() - 1
	}
	if play {
		a.state = cdAudioPlaying
	} else {
		a.state = cdAudioPaused
	}
}

func (a *CDAudio) setStop(lba uint32, ev cdAudioStop) {
	a.stopLBA = lba
	a.stopEvent = ev
}

func (a *CDAudio) pause() {
	if a.state == cdAudioPlaying {
		a.state = cdAudioPaused
	}
}

func (a *CDAudio) stop() {
	if a.state != cdAudioIdle {
		a.state = cdAudioStopped
	}
	a.left, a.right = 0, 0
}

func (a *CDAudio) clock(cycles int) {
	if a.state != cdAudioPlaying {
		return
	}
	a.acc += cycles
	for a.acc >= cdAudioCyclesPerSample {
		a.acc -= cdAudioCyclesPerSample
		a.nextSample()
		if a.state != cdAudioPlaying {
			a.acc = 0
			return
		}
	}
}

func (a *CDAudio) nextSample() {
	if a.sector == nil {
		a.sector = a.loadSector(a.current)
	}
	p := a.sampleIdx * 4
	a.left = int16(binary.LittleEndian.Uint16(a.sector[p:]))
	a.right = int16(binary.LittleEndian.Uint16(a.sector[p+2:]))

	a.sampleIdx++
	if a.sampleIdx < samplesPerSect {
		return
	}
	a.sampleIdx = 0
	a.sector = nil
	a.current++
	if a.current <= a.stopLBA {
		return
	}
	switch a.stopEvent {
	case stopEventLoop:
		a.current = a.startLBA
	case stopEventIRQ:
		a.stop()
		a.cd.scsi.audioReachedStop()
	default:
		a.stop()
	}
}

// loadSector returns silence for data tracks and unreadable sectors.
func (a *CDAudio) loadSector(lba uint32) []byte {
	img := a.cd.img
	if img == nil {
		return make([]byte, sectorSizeRaw)
	}
	if i := img.TrackAt(lba); i >= 0 && !img.tracks[i].IsAudio() {
		return make([]byte, sectorSizeRaw)
	}
	b, err := img.ReadAudio(lba)
	if err != nil {
		a.cd.logs.printf(logUnreadableTrack, "audio lba %d: %v", lba, err)
		return make([]byte, sectorSizeRaw)
	}
	return b
}

func (a *CDAudio) saveState(w *stateWriter) {
	w.u8(uint8(a.state))
	w.u32(a.startLBA)
	w.u32(a.current)
	w.u32(a.stopLBA)
	w.u8(uint8(a.stopEvent))
	w.int(a.sampleIdx)
	w.int(a.acc)
	w.u16(uint16(a.left))
	w.u16(uint16(a.right))
}

func (a *CDAudio) loadState(r *stateReader) {
	a.state = cdAudioState(r.u8())
	r.check(a.state <= cdAudioStopped, "cd audio state")
	a.startLBA = r.u32()
	a.current = r.u32()
	a.stopLBA = r.u32()
	a.stopEvent = cdAudioStop(r.u8())
	r.check(a.stopEvent <= stopEventIRQ, "cd audio stop mode")
	a.sampleIdx = r.intIn(0, samplesPerSect, "cd audio sample index")
	a.acc = r.intIn(0, cdAudioCyclesPerSample, "cd audio phase")
	a.left = int16(r.u16())
	a.right = int16(r.u16())
	a.sector = nil
}
