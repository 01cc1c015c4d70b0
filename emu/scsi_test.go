package emu

import (
	"fmt"
	"testing"

	"github.com/spf13/afero"
)

// Status bits at $1800.
const (
	busBSY = 0x80
	busREQ = 0x40
	busMSG = 0x20
	busCD  = 0x10
	busIO  = 0x08
)

// scsiHost drives the CD-ROM interface the way the System Card does.
type scsiHost struct {
	t  *testing.T
	cd *CDROM
}

func (h *scsiHost) waitFor(what string, cond func(st uint8) bool) {
	h.t.Helper()
	for i := 0; i < 200000; i++ {
		if cond(h.cd.Read(0x00)) {
			return
		}
		h.cd.Clock(256)
	}
	h.t.Fatalf("timed out waiting for %s (status %02X, phase %v)", what, h.cd.Read(0x00), h.cd.scsi.phase)
}

func (h *scsiHost) ack() {
	h.cd.Write(0x02, 0x80)
	h.cd.Write(0x02, 0x00)
}

func (h *scsiHost) command(cmd ...uint8) {
	h.t.Helper()
	h.cd.Write(0x00, 0x81)
	for i, b := range cmd {
		h.waitFor(fmt.Sprintf("command byte %d", i), func(st uint8) bool {
			return st&(busREQ|busCD|busIO) == busREQ|busCD
		})
		h.cd.Write(0x01, b)
		h.ack()
	}
}

// readData collects data-in bytes until the drive enters the status phase.
func (h *scsiHost) readData() []byte {
	h.t.Helper()
	var out []byte
	for {
		h.waitFor("data or status", func(st uint8) bool { return st&busREQ != 0 })
		st := h.cd.Read(0x00)
		if st&busCD != 0 {
			return out
		}
		out = append(out, h.cd.Read(0x08))
	}
}

// finish reads the status byte and the message byte.
func (h *scsiHost) finish() uint8 {
	h.t.Helper()
	h.waitFor("status", func(st uint8) bool {
		return st&(busREQ|busCD|busIO|busMSG) == busREQ|busCD|busIO
	})
	status := h.cd.Read(0x01)
	h.ack()
	h.waitFor("message", func(st uint8) bool { return st&(busREQ|busMSG) == busREQ|busMSG })
	h.ack()
	if st := h.cd.Read(0x00); st&busBSY != 0 {
		h.t.Fatalf("bus still busy after message in: %02X", st)
	}
	return status
}

// newTestDisc builds a data track whose sectors are filled with their LBA
// followed by an audio track.
func newTestDisc(t *testing.T) *CDImage {
	t.Helper()
	fs := afero.NewMemMapFs()
	data := make([]byte, 10*sectorSizeData)
	for i := range data {
		data[i] = uint8(i / sectorSizeData)
	}
	writeFile(t, fs, "/d/data.iso", data)
	writeFile(t, fs, "/d/audio.bin", make([]byte, 300*sectorSizeRaw))
	writeFile(t, fs, "/d/disc.cue", []byte(`FILE "data.iso" BINARY
TRACK 01 MODE1/2048
INDEX 01 00:00:00
FILE "audio.bin" BINARY
TRACK 02 AUDIO
INDEX 01 00:00:00
`))
	img, err := OpenCue(fs, "/d/disc.cue")
	if err != nil {
		t.Fatal(err)
	}
	return img
}

func newTestDrive(t *testing.T, img *CDImage) *scsiHost {
	cd := NewCDROM(nil)
	cd.Reset()
	if img != nil {
		cd.Insert(img, false)
	}
	return &scsiHost{t: t, cd: cd}
}

func TestSCSIRead6(t *testing.T) {
	h := newTestDrive(t, newTestDisc(t))
	h.command(scsiRead6, 0x00, 0x00, 0x03, 0x02, 0x00)
	data := h.readData()

	if len(data) != 2*sectorSizeData {
		t.Fatalf("read %d bytes, want %d", len(data), 2*sectorSizeData)
	}
	if data[0] != 3 || data[sectorSizeData-1] != 3 || data[sectorSizeData] != 4 {
		t.Errorf("sector tags = %d/%d/%d, want 3/3/4", data[0], data[sectorSizeData-1], data[sectorSizeData])
	}
	if h.cd.flags&cdIRQDone == 0 {
		t.Error("status phase did not raise the done interrupt")
	}
	if st := h.finish(); st != statusGood {
		t.Errorf("status = %02X, want GOOD", st)
	}
	if h.cd.flags&cdIRQDone != 0 {
		t.Error("done interrupt still pending after message in")
	}
}

func TestSCSIDataInterruptMasked(t *testing.T) {
	h := newTestDrive(t, newTestDisc(t))
	h.command(scsiRead6, 0x00, 0x00, 0x00, 0x01, 0x00)
	h.waitFor("data", func(st uint8) bool { return st&busREQ != 0 })
	if h.cd.IRQ() {
		t.Error("IRQ2 asserted with the mask clear")
	}
	h.cd.mask = cdIRQDataIn
	if !h.cd.IRQ() {
		t.Error("IRQ2 not asserted with data ready and unmasked")
	}
}

func TestSCSINoDisc(t *testing.T) {
	h := newTestDrive(t, nil)
	h.command(scsiTestUnitReady, 0, 0, 0, 0, 0)
	if st := h.finish(); st != statusCheckCondition {
		t.Fatalf("status = %02X, want CHECK CONDITION", st)
	}

	h.command(scsiRequestSense, 0, 0, 0, 18, 0)
	sense := h.readData()
	if len(sense) != 18 || sense[2] != senseNotReady {
		t.Errorf("sense = % X", sense)
	}
	h.finish()
}

func TestSCSIUnknownCommand(t *testing.T) {
	h := newTestDrive(t, newTestDisc(t))
	h.command(0xFF, 0, 0, 0, 0, 0, 0, 0, 0, 0)
	if st := h.finish(); st != statusCheckCondition {
		t.Fatalf("status = %02X, want CHECK CONDITION", st)
	}
	h.command(scsiRequestSense, 0, 0, 0, 18, 0)
	sense := h.readData()
	h.finish()
	if sense[2] != senseIllegalRequest {
		t.Errorf("sense key = %d, want ILLEGAL REQUEST", sense[2])
	}
}

func TestSCSIReadTOC(t *testing.T) {
	h := newTestDrive(t, newTestDisc(t))

	h.command(scsiReadTOC, 0, 0, 0, 0, 0, 0, 0, 0, 0)
	if got := h.readData(); got[0] != 0x01 || got[1] != 0x02 {
		t.Errorf("track range = % X, want 01 02", got[:2])
	}
	h.finish()

	// Track 2 starts at LBA 10, MSF 00:02:10 after the lead-in.
	h.command(scsiReadTOC, 2, 0x02, 0, 0, 0, 0, 0, 0, 0)
	if got := h.readData(); got[0] != 0x00 || got[1] != 0x02 || got[2] != 0x10 || got[3] != 0x00 {
		t.Errorf("track 2 entry = % X", got)
	}
	h.finish()

	h.command(scsiReadTOC, 2, 0x01, 0, 0, 0, 0, 0, 0, 0)
	if got := h.readData(); got[3] != 0x04 {
		t.Errorf("track 1 type = %02X, want data", got[3])
	}
	h.finish()

	// Lead-out: 310 sectors + 150 = 00:06:10.
	h.command(scsiReadTOC, 1, 0, 0, 0, 0, 0, 0, 0, 0)
	if got := h.readData(); got[0] != 0x00 || got[1] != 0x06 || got[2] != 0x10 {
		t.Errorf("lead-out = % X", got[:3])
	}
	h.finish()
}

func TestSCSIBusReset(t *testing.T) {
	h := newTestDrive(t, newTestDisc(t))
	h.command(scsiRead6, 0x00, 0x00, 0x00, 0x04, 0x00)
	h.cd.Write(0x04, 0x02)
	h.cd.Write(0x04, 0x00)
	if st := h.cd.Read(0x00); st != 0 {
		t.Errorf("status after reset = %02X, want bus free", st)
	}
	h.cd.Clock(cdSectorCycles * 8)
	if h.cd.scsi.phase != scsiBusFree {
		t.Errorf("phase = %v after reset, want BUS FREE", h.cd.scsi.phase)
	}
}

func TestSCSIStateRoundTrip(t *testing.T) {
	img := newTestDisc(t)
	h := newTestDrive(t, img)
	h.command(scsiRead6, 0x00, 0x00, 0x05, 0x01, 0x00)
	h.waitFor("data", func(st uint8) bool { return st&busREQ != 0 })
	for i := 0; i < 100; i++ {
		h.cd.Read(0x08)
	}

	var w stateWriter
	h.cd.saveState(&w)
	h2 := newTestDrive(t, img)
	r := stateReader{data: w.buf.Bytes()}
	h2.cd.loadState(&r)
	if r.err != nil {
		t.Fatalf("loadState: %v", r.err)
	}

	rest := h2.readData()
	if len(rest) != sectorSizeData-100 || rest[0] != 5 {
		t.Errorf("resumed transfer: %d bytes, first %d", len(rest), rest[0])
	}
	if st := h2.finish(); st != statusGood {
		t.Errorf("status = %02X", st)
	}
}
