package emu

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// Save state format constants
const (
	stateMagic   = "GGSAVE"
	stateVersion = 1
)

// boolByte converts a bool to a uint8 (0 or 1).
func boolByte(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

// stateWriter appends little-endian fields to a section buffer.
type stateWriter struct {
	buf bytes.Buffer
}

func (w *stateWriter) u8(v uint8) { w.buf.WriteByte(v) }

func (w *stateWriter) bool(v bool) { w.buf.WriteByte(boolByte(v)) }

func (w *stateWriter) u16(v uint16) {
	w.buf.Write(binary.LittleEndian.AppendUint16(nil, v))
}

func (w *stateWriter) u32(v uint32) {
	w.buf.Write(binary.LittleEndian.AppendUint32(nil, v))
}

func (w *stateWriter) u64(v uint64) {
	w.buf.Write(binary.LittleEndian.AppendUint64(nil, v))
}

func (w *stateWriter) int(v int) { w.u64(uint64(int64(v))) }

func (w *stateWriter) bytes(b []byte) { w.buf.Write(b) }

func (w *stateWriter) u16s(s []uint16) {
	for _, v := range s {
		w.u16(v)
	}
}

// blob writes a length-prefixed byte slice. A nil slice is written as
// length zero.
func (w *stateWriter) blob(b []byte) {
	w.u32(uint32(len(b)))
	w.buf.Write(b)
}

// stateReader consumes fields written by stateWriter. The first short read
// sticks and every later read returns zero.
type stateReader struct {
	data []byte
	pos  int
	err  error
}

func (r *stateReader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if r.pos+n > len(r.data) {
		r.err = ErrSaveStateTruncated
		return nil
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b
}

func (r *stateReader) u8() uint8 {
	b := r.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *stateReader) bool() bool { return r.u8() != 0 }

func (r *stateReader) u16() uint16 {
	b := r.take(2)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}

func (r *stateReader) u32() uint32 {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (r *stateReader) u64() uint64 {
	b := r.take(8)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}

func (r *stateReader) int() int { return int(int64(r.u64())) }

func (r *stateReader) bytes(dst []byte) {
	if b := r.take(len(dst)); b != nil {
		copy(dst, b)
	}
}

func (r *stateReader) u16s(dst []uint16) {
	for i := range dst {
		dst[i] = r.u16()
	}
}

// blob reads a length-prefixed byte slice into dst. The stored length must
// match len(dst).
func (r *stateReader) blob(dst []byte) {
	n := int(r.u32())
	if r.err != nil {
		return
	}
	if n != len(dst) {
		r.err = fmt.Errorf("%w: blob size %d, want %d", ErrSaveStateTruncated, n, len(dst))
		return
	}
	r.bytes(dst)
}

// check marks the state corrupt when a restored field fails ok. Values
// later used as indices must pass through here before the section is applied.
func (r *stateReader) check(ok bool, field string) {
	if r.err == nil && !ok {
		r.err = fmt.Errorf("%w: %s", ErrSaveStateCorrupt, field)
	}
}

// intIn reads an int and checks lo <= v < hi.
func (r *stateReader) intIn(lo, hi int, field string) int {
	v := r.int()
	r.check(v >= lo && v < hi, field)
	return v
}

// stateSection is one size-prefixed component dump.
type stateSection struct {
	name string
	save func(w *stateWriter)
	load func(r *stateReader)
}

func (e *Emulator) stateSections() []stateSection {
	return []stateSection{
		{"core", e.saveCore, e.loadCore},
		{"cpu", e.cpu.saveState, e.cpu.loadState},
		{"memory", e.mem.saveState, e.mem.loadState},
		{"vdc1", e.vdc[0].saveState, e.vdc[0].loadState},
		{"vdc2", e.vdc[1].saveState, e.vdc[1].loadState},
		{"huc6202", e.vpc.saveState, e.vpc.loadState},
		{"vce", e.vce.saveState, e.vce.loadState},
		{"psg", e.psg.saveState, e.psg.loadState},
		{"input", e.input.saveState, e.input.loadState},
		{"cdrom", e.cdrom.saveState, e.cdrom.loadState},
		{"arcade", e.arcade.saveState, e.arcade.loadState},
	}
}

func (e *Emulator) saveCore(w *stateWriter) {
	w.u32(e.mediaCRC())
	w.u8(uint8(e.console))
	w.u8(uint8(e.cdType))
	w.u64(e.frameCount)
	w.u32(uint32(e.filterL))
	w.u32(uint32(e.filterR))
}

func (e *Emulator) loadCore(r *stateReader) {
	r.u32() // media CRC, informational
	r.u8()
	r.u8()
	e.frameCount = r.u64()
	e.filterL = int32(r.u32())
	e.filterR = int32(r.u32())
	r.check(e.filterL>>lpfFracBits >= -32768 && e.filterL>>lpfFracBits <= 32767, "low-pass state")
	r.check(e.filterR>>lpfFracBits >= -32768 && e.filterR>>lpfFracBits <= 32767, "low-pass state")
}

// SaveState writes the complete machine state to w.
//
// Layout: "GGSAVE", uint32 version, uint32 build length, build string, then
// one section per component, each preceded by its uint32 size.
func (e *Emulator) SaveState(w io.Writer) error {
	var out bytes.Buffer
	out.WriteString(stateMagic)
	out.Write(binary.LittleEndian.AppendUint32(nil, stateVersion))
	out.Write(binary.LittleEndian.AppendUint32(nil, uint32(len(BuildString))))
	out.WriteString(BuildString)

	for _, s := range e.stateSections() {
		var sw stateWriter
		s.save(&sw)
		out.Write(binary.LittleEndian.AppendUint32(nil, uint32(sw.buf.Len())))
		out.Write(sw.buf.Bytes())
	}

	_, err := w.Write(out.Bytes())
	return err
}

// LoadState restores machine state from r. On any failure the machine is
// left exactly as it was before the call.
func (e *Emulator) LoadState(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if err := verifyStateHeader(data); err != nil {
		return err
	}

	var snapshot bytes.Buffer
	if err := e.SaveState(&snapshot); err != nil {
		return err
	}
	if err := e.applyState(data); err != nil {
		if restoreErr := e.applyState(snapshot.Bytes()); restoreErr != nil {
			return fmt.Errorf("%w (restore failed: %v)", err, restoreErr)
		}
		return err
	}
	return nil
}

func verifyStateHeader(data []byte) error {
	if len(data) < len(stateMagic)+8 {
		return fmt.Errorf("header: %w", ErrSaveStateTruncated)
	}
	if string(data[:len(stateMagic)]) != stateMagic {
		return ErrSaveStateMagicMismatch
	}
	version := binary.LittleEndian.Uint32(data[len(stateMagic):])
	if version != stateVersion {
		return fmt.Errorf("%w: got %d, want %d", ErrSaveStateVersionMismatch, version, stateVersion)
	}
	return nil
}

// splitSections checks the header and returns the body of every section in
// stateSections order.
func splitSections(data []byte, names []string) ([][]byte, error) {
	if err := verifyStateHeader(data); err != nil {
		return nil, err
	}
	pos := len(stateMagic) + 4
	buildLen := int(binary.LittleEndian.Uint32(data[pos:]))
	pos += 4 + buildLen
	if pos > len(data) {
		return nil, fmt.Errorf("build string: %w", ErrSaveStateTruncated)
	}

	out := make([][]byte, len(names))
	for i, name := range names {
		if pos+4 > len(data) {
			return nil, fmt.Errorf("%s: %w", name, ErrSaveStateTruncated)
		}
		size := int(binary.LittleEndian.Uint32(data[pos:]))
		pos += 4
		if pos+size > len(data) {
			return nil, fmt.Errorf("%s: %w", name, ErrSaveStateTruncated)
		}
		out[i] = data[pos : pos+size]
		pos += size
	}
	return out, nil
}

func (e *Emulator) applyState(data []byte) error {
	sections := e.stateSections()
	names := make([]string, len(sections))
	for i, s := range sections {
		names[i] = s.name
	}
	bodies, err := splitSections(data, names)
	if err != nil {
		return err
	}
	for i, s := range sections {
		sr := stateReader{data: bodies[i]}
		s.load(&sr)
		if sr.err != nil {
			return fmt.Errorf("%s: %w", s.name, sr.err)
		}
	}
	return nil
}

// VerifyState checks if a save state is valid without loading it.
func (e *Emulator) VerifyState(data []byte) error {
	sections := e.stateSections()
	names := make([]string, len(sections))
	for i, s := range sections {
		names[i] = s.name
	}
	bodies, err := splitSections(data, names)
	if err != nil {
		return err
	}
	r := stateReader{data: bodies[0]}
	crc := r.u32()
	if r.err != nil {
		return fmt.Errorf("core: %w", r.err)
	}
	if crc != e.mediaCRC() {
		return fmt.Errorf("%w: state %08X, loaded %08X", ErrSaveStateWrongMedia, crc, e.mediaCRC())
	}
	return nil
}

// Serialize creates a save state and returns it as a byte slice.
func (e *Emulator) Serialize() ([]byte, error) {
	var buf bytes.Buffer
	if err := e.SaveState(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Deserialize restores emulator state from a save state byte slice.
func (e *Emulator) Deserialize(data []byte) error {
	return e.LoadState(bytes.NewReader(data))
}

// SerializeSize returns the size of a save state for the current machine.
func (e *Emulator) SerializeSize() int {
	data, err := e.Serialize()
	if err != nil {
		return 0
	}
	return len(data)
}

// MaxSerializeSize returns an upper bound on save state size, taken from a
// SuperGrafx plus the RAM of a fully equipped CD-ROM unit.
func MaxSerializeSize() int {
	e := New()
	e.consoleOpt = ConsoleSGX
	e.configureHardware()
	return e.SerializeSize() + cdRAMSize + superRAMSize + arcadeRAMSize + cardRAMSize + 4096
}
