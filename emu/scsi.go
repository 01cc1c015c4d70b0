package emu

type scsiPhase uint8

const (
	scsiBusFree scsiPhase = iota
	scsiCommand
	scsiDataIn
	scsiStatus
	scsiMessageIn
)

func (p scsiPhase) String() string {
	switch p {
	case scsiBusFree:
		return "BUS FREE"
	case scsiCommand:
		return "COMMAND"
	case scsiDataIn:
		return "DATA IN"
	case scsiStatus:
		return "STATUS"
	case scsiMessageIn:
		return "MESSAGE IN"
	}
	return "?"
}

// Bus control signals.
const (
	sigBSY uint16 = 1 << iota
	sigREQ
	sigMSG
	sigCD
	sigIO
	sigACK
	sigSEL
	sigATN
	sigRST
)

type scsiEvent uint8

const (
	eventNone scsiEvent = iota
	eventCommandPhase
	eventSetReq
	eventSectorReady
	eventStatus
)

const (
	scsiSelectCycles = 75000
	scsiReqCycles    = 180
	scsiStatusCycles = 3000

	// One sector at single speed (75 sectors per second).
	cdSectorCycles = MasterClockHz / 75

	seekSettleCycles = cdSectorCycles * 3
	seekCyclesPerLBA = 4
)

// SCSI commands understood by the drive.
const (
	scsiTestUnitReady = 0x00
	scsiRequestSense  = 0x03
	scsiRead6         = 0x08
	scsiAudioStart    = 0xD8
	scsiAudioStop     = 0xD9
	scsiAudioPause    = 0xDA
	scsiReadSubcodeQ  = 0xDD
	scsiReadTOC       = 0xDE
)

const (
	statusGood           = 0x00
	statusCheckCondition = 0x02

	senseNone           = 0x00
	senseNotReady       = 0x02
	senseMediumError    = 0x03
	senseIllegalRequest = 0x05
)

// scsiDrive is the CD-ROM drive as a SCSI target. The CPU is the initiator
// and moves every byte with a REQ/ACK handshake.
type scsiDrive struct {
	cd *CDROM

	phase   scsiPhase
	signals uint16
	bus     uint8 // drive to host
	hostBus uint8 // host to drive
	latched bool

	cmd    [10]uint8
	cmdLen int

	buf    [sectorSizeData]uint8
	bufLen int
	bufPos int

	event       scsiEvent
	eventCycles int

	lba       uint32
	remaining int
	status    uint8
	sense     uint8

	// AUDIO STOP POSITION in IRQ mode holds the status phase until
	// playback reaches the stop address.
	waitAudio bool
}

func (s *scsiDrive) reset() {
	cd := s.cd
	*s = scsiDrive{cd: cd}
}

func (s *scsiDrive) has(sig uint16) bool { return s.signals&sig != 0 }
func (s *scsiDrive) set(sig uint16)      { s.signals |= sig }
func (s *scsiDrive) clear(sig uint16)    { s.signals &^= sig }

func (s *scsiDrive) schedule(ev scsiEvent, cycles int) {
	s.event = ev
	s.eventCycles = cycles
}

// statusByte is the value read at $1800.
func (s *scsiDrive) statusByte() uint8 {
	var v uint8
	if s.has(sigBSY) {
		v |= 0x80
	}
	if s.has(sigREQ) {
		v |= 0x40
	}
	if s.has(sigMSG) {
		v |= 0x20
	}
	if s.has(sigCD) {
		v |= 0x10
	}
	if s.has(sigIO) {
		v |= 0x08
	}
	return v
}

// selectTarget starts arbitration. The drive answers by entering the
// command phase some time later.
func (s *scsiDrive) selectTarget() {
	if s.phase != scsiBusFree || s.event == eventCommandPhase {
		return
	}
	s.set(sigSEL)
	s.schedule(eventCommandPhase, scsiSelectCycles)
}

// setACK drives the ACK line from $1802 bit 7.
func (s *scsiDrive) setACK(on bool) {
	switch {
	case on && !s.has(sigACK):
		s.set(sigACK)
		if s.has(sigREQ) {
			s.clear(sigREQ)
			s.latched = true
		}
	case !on && s.has(sigACK):
		s.clear(sigACK)
		if s.latched {
			s.latched = false
			s.advance()
		}
	}
}

// autoAck performs a full handshake for $1808 reads.
func (s *scsiDrive) autoAck() uint8 {
	v := s.bus
	if s.has(sigREQ) && s.phase == scsiDataIn {
		s.setACK(true)
		s.setACK(false)
	}
	return v
}

// busReset handles the RST line.
func (s *scsiDrive) busReset() {
	s.phase = scsiBusFree
	s.signals = 0
	s.latched = false
	s.cmdLen = 0
	s.bufLen, s.bufPos = 0, 0
	s.event = eventNone
	s.remaining = 0
	s.waitAudio = false
	s.cd.setFlag(cdIRQDone|cdIRQDataIn, false)
	s.cd.audio.stop()
}

func (s *scsiDrive) clock(cycles int) {
	if s.event == eventNone {
		return
	}
	s.eventCycles -= cycles
	if s.eventCycles > 0 {
		return
	}
	ev := s.event
	s.event = eventNone
	switch ev {
	case eventCommandPhase:
		s.clear(sigSEL)
		s.phase = scsiCommand
		s.signals = sigBSY | sigCD | sigREQ
		s.cmdLen = 0
	case eventSetReq:
		s.set(sigREQ)
	case eventSectorReady:
		s.sectorReady()
	case eventStatus:
		s.enterStatus(s.status)
	}
}

// advance moves the transfer on after the host completed a handshake.
func (s *scsiDrive) advance() {
	switch s.phase {
	case scsiCommand:
		s.cmd[s.cmdLen] = s.hostBus
		s.cmdLen++
		if s.cmdLen == commandLength(s.cmd[0]) {
			s.execute()
			return
		}
		s.schedule(eventSetReq, scsiReqCycles)
	case scsiDataIn:
		s.bufPos++
		if s.bufPos < s.bufLen {
			s.bus = s.buf[s.bufPos]
			s.set(sigREQ)
			return
		}
		s.cd.setFlag(cdIRQDataIn, false)
		if s.remaining == 0 {
			s.enterStatus(statusGood)
		}
	case scsiStatus:
		s.phase = scsiMessageIn
		s.signals = sigBSY | sigCD | sigIO | sigMSG | sigREQ
		s.bus = 0
	case scsiMessageIn:
		s.phase = scsiBusFree
		s.signals = 0
		s.cd.setFlag(cdIRQDone, false)
	}
}

func commandLength(op uint8) int {
	if op < 0x20 {
		return 6
	}
	return 10
}

func (s *scsiDrive) enterStatus(status uint8) {
	s.phase = scsiStatus
	s.signals = sigBSY | sigCD | sigIO | sigREQ
	s.bus = status
	s.status = status
	s.cd.setFlag(cdIRQDataIn, false)
	s.cd.setFlag(cdIRQDone, true)
}

// fail ends the command with CHECK CONDITION.
func (s *scsiDrive) fail(sense uint8) {
	s.sense = sense
	s.remaining = 0
	s.enterStatus(statusCheckCondition)
}

func (s *scsiDrive) startDataIn(data []byte) {
	s.bufLen = copy(s.buf[:], data)
	s.bufPos = 0
	s.phase = scsiDataIn
	s.signals = sigBSY | sigIO | sigREQ
	s.bus = s.buf[0]
}

func (s *scsiDrive) execute() {
	img := s.cd.img
	op := s.cmd[0]
	if img == nil && op != scsiRequestSense {
		s.fail(senseNotReady)
		return
	}
	switch op {
	case scsiTestUnitReady:
		s.sense = senseNone
		s.enterStatus(statusGood)
	case scsiRequestSense:
		s.requestSense()
	case scsiRead6:
		s.read6()
	case scsiAudioStart:
		s.audioStart()
	case scsiAudioStop:
		s.audioStop()
	case scsiAudioPause:
		s.cd.audio.pause()
		s.enterStatus(statusGood)
	case scsiReadSubcodeQ:
		s.readSubcodeQ()
	case scsiReadTOC:
		s.readTOC()
	default:
		s.cd.logs.printf(logUnknownSCSI, "command $%02X", op)
		s.fail(senseIllegalRequest)
	}
}

func (s *scsiDrive) requestSense() {
	n := int(s.cmd[4])
	if n == 0 {
		n = 4
	}
	data := make([]byte, 18)
	data[0] = 0x70
	data[2] = s.sense
	data[7] = 10
	if s.sense == senseIllegalRequest {
		data[12] = 0x20
	}
	s.sense = senseNone
	s.startDataIn(data[:min(n, len(data))])
}

func seekCycles(from, to uint32) int {
	d := int(to) - int(from)
	if d < 0 {
		d = -d
	}
	return seekSettleCycles + d*seekCyclesPerLBA
}

func (s *scsiDrive) read6() {
	lba := uint32(s.cmd[1]&0x1F)<<16 | uint32(s.cmd[2])<<8 | uint32(s.cmd[3])
	count := int(s.cmd[4])
	if count == 0 {
		count = 256
	}
	s.cd.audio.stop()
	seek := seekCycles(s.lba, lba)
	s.lba = lba
	s.remaining = count
	s.bufLen, s.bufPos = 0, 0
	// The drive stays busy in the command phase during the seek.
	s.clear(sigREQ)
	s.schedule(eventSectorReady, seek+cdSectorCycles)
}

// sectorReady delivers the next sector once the host drained the last one.
func (s *scsiDrive) sectorReady() {
	if s.phase == scsiDataIn && s.bufPos < s.bufLen {
		s.schedule(eventSectorReady, scsiReqCycles)
		return
	}
	data, err := s.cd.img.ReadData(s.lba)
	if err != nil {
		s.cd.logs.printf(logUnreadableTrack, "lba %d: %v", s.lba, err)
		s.fail(senseMediumError)
		return
	}
	s.startDataIn(data)
	s.cd.setFlag(cdIRQDataIn, true)
	s.lba++
	s.remaining--
	if s.remaining > 0 {
		s.schedule(eventSectorReady, cdSectorCycles)
	}
}

// audioAddress decodes the address of the audio commands. Bits 6-7 of the
// last command byte select LBA, MSF or track addressing.
func (s *scsiDrive) audioAddress() uint32 {
	img := s.cd.img
	switch s.cmd[9] & 0xC0 {
	case 0x40:
		lba := MSFToLBA(fromBCD(s.cmd[2]), fromBCD(s.cmd[3]), fromBCD(s.cmd[4]))
		if lba < leadInFrames {
			return 0
		}
		return lba - leadInFrames
	case 0x80:
		n := int(fromBCD(s.cmd[2]))
		if i := img.TrackByNumber(n); i >= 0 {
			return img.tracks[i].StartLBA
		}
		if n > len(img.tracks) {
			return img.LeadOut()
		}
		return 0
	}
	return uint32(s.cmd[3])<<16 | uint32(s.cmd[4])<<8 | uint32(s.cmd[5])
}

func (s *scsiDrive) audioStart() {
	lba := s.audioAddress()
	a := s.cd.audio
	seek := seekCycles(a.current, lba)
	s.waitAudio = false
	a.start(lba, s.cmd[1] != 0)
	s.status = statusGood
	s.schedule(eventStatus, seek)
}

func (s *scsiDrive) audioStop() {
	lba := s.audioAddress()
	a := s.cd.audio
	var ev cdAudioStop
	switch s.cmd[1] {
	case 1:
		ev = stopEventLoop
	case 2:
		ev = stopEventIRQ
	default:
		ev = stopEventStop
	}
	a.setStop(lba, ev)
	if a.state == cdAudioPaused || a.state == cdAudioIdle {
		a.state = cdAudioPlaying
	}
	if ev == stopEventIRQ {
		s.waitAudio = true
		return
	}
	s.enterStatus(statusGood)
}

// audioReachedStop completes a deferred AUDIO STOP POSITION command.
func (s *scsiDrive) audioReachedStop() {
	if !s.waitAudio {
		return
	}
	s.waitAudio = false
	s.enterStatus(statusGood)
}

func (s *scsiDrive) readSubcodeQ() {
	img := s.cd.img
	a := s.cd.audio
	var data [10]uint8
	switch a.state {
	case cdAudioPlaying:
		data[0] = 0
	case cdAudioPaused:
		data[0] = 2
	default:
		data[0] = 3
	}
	lba := a.current
	track := img.TrackAt(lba)
	if track < 0 {
		track = len(img.tracks) - 1
	}
	t := &img.tracks[track]
	data[1] = 0x01
	if !t.IsAudio() {
		data[1] = 0x41
	}
	data[2] = toBCD(uint8(t.Number))
	data[3] = 0x01
	rel := uint32(0)
	if lba > t.StartLBA {
		rel = lba - t.StartLBA
	}
	m, sec, f := LBAToMSF(rel)
	data[4], data[5], data[6] = toBCD(m), toBCD(sec), toBCD(f)
	m, sec, f = LBAToMSF(lba + leadInFrames)
	data[7], data[8], data[9] = toBCD(m), toBCD(sec), toBCD(f)
	s.startDataIn(data[:])
}

func (s *scsiDrive) readTOC() {
	img := s.cd.img
	var data [4]uint8
	switch s.cmd[1] {
	case 0:
		data[0] = toBCD(uint8(img.tracks[0].Number))
		data[1] = toBCD(uint8(img.tracks[len(img.tracks)-1].Number))
	case 1:
		m, sec, f := LBAToMSF(img.LeadOut() + leadInFrames)
		data[0], data[1], data[2] = toBCD(m), toBCD(sec), toBCD(f)
	case 2:
		n := int(fromBCD(s.cmd[2]))
		if n == 0 {
			n = 1
		}
		lba := img.LeadOut()
		var kind uint8
		if i := img.TrackByNumber(n); i >= 0 {
			lba = img.tracks[i].StartLBA
			if !img.tracks[i].IsAudio() {
				kind = 0x04
			}
		}
		m, sec, f := LBAToMSF(lba + leadInFrames)
		data[0], data[1], data[2], data[3] = toBCD(m), toBCD(sec), toBCD(f), kind
	default:
		s.fail(senseIllegalRequest)
		return
	}
	s.startDataIn(data[:])
}

func (s *scsiDrive) saveState(w *stateWriter) {
	w.u8(uint8(s.phase))
	w.u16(s.signals)
	w.u8(s.bus)
	w.u8(s.hostBus)
	w.bool(s.latched)
	w.bytes(s.cmd[:])
	w.int(s.cmdLen)
	w.bytes(s.buf[:])
	w.int(s.bufLen)
	w.int(s.bufPos)
	w.u8(uint8(s.event))
	w.int(s.eventCycles)
	w.u32(s.lba)
	w.int(s.remaining)
	w.u8(s.status)
	w.u8(s.sense)
	w.bool(s.waitAudio)
}

func (s *scsiDrive) loadState(r *stateReader) {
	s.phase = scsiPhase(r.u8())
	r.check(s.phase <= scsiMessageIn, "scsi phase")
	s.signals = r.u16()
	s.bus = r.u8()
	s.hostBus = r.u8()
	s.latched = r.bool()
	r.bytes(s.cmd[:])
	s.cmdLen = r.int()
	n := commandLength(s.cmd[0])
	r.check(s.cmdLen >= 0 && (s.cmdLen < n || s.cmdLen == n && s.phase != scsiCommand), "scsi command length")
	r.bytes(s.buf[:])
	s.bufLen = r.intIn(0, len(s.buf)+1, "scsi buffer length")
	s.bufPos = r.intIn(0, s.bufLen+1, "scsi buffer position")
	s.event = scsiEvent(r.u8())
	r.check(s.event <= eventStatus, "scsi event")
	s.eventCycles = r.int()
	s.lba = r.u32()
	s.remaining = r.int()
	s.status = r.u8()
	s.sense = r.u8()
	s.waitAudio = r.bool()
}
