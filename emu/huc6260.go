package emu

import "math"

const (
	// Lines of the frame that can carry picture.
	visibleLines     = 242
	firstVisibleLine = 14

	// Overscan mode 2 adds this many dots on each side.
	overscanDots = 16

	MaxFrameWidth  = 512 + 2*overscanDots
	MaxFrameHeight = visibleLines

	DefaultScanlineStart = 11
	DefaultScanlineEnd   = 234
)

// pixelSource is what the VCE pulls pixels from: a single VDC on the PC
// Engine or the HuC6202 on the SuperGrafx.
type pixelSource interface {
	HSync()
	VSync()
	Dot() uint16
}

// outputWindow is the captured horizontal range for a dot clock.
type outputWindow struct {
	start int
	width int
}

// Indexed by dot clock divider.
var outputWindows = [5]outputWindow{
	4: {start: 48, width: 256},
	3: {start: 56, width: 352},
	2: {start: 96, width: 512},
}

// color3to8 expands a 3-bit channel to 8 bits.
var color3to8 = [8]uint8{0, 36, 73, 109, 146, 182, 219, 255}

// compositeLUT approximates the color crosstalk of the composite output.
var compositeLUT [512][3]uint8

func init() {
	for i := range compositeLUT {
		r := float64(color3to8[(i>>3)&7])
		g := float64(color3to8[(i>>6)&7])
		b := float64(color3to8[i&7])
		y := 0.299*r + 0.587*g + 0.114*b
		ci := 0.596*r - 0.274*g - 0.322*b
		cq := 0.211*r - 0.523*g + 0.312*b
		ci *= 0.8
		cq *= 0.8
		y = 255 * math.Pow(y/255, 0.95)
		compositeLUT[i] = [3]uint8{
			clampByte(y + 0.956*ci + 0.621*cq),
			clampByte(y - 0.272*ci - 0.647*cq),
			clampByte(y - 1.106*ci + 1.703*cq),
		}
	}
}

func clampByte(v float64) uint8 {
	switch {
	case v < 0:
		return 0
	case v > 255:
		return 255
	}
	return uint8(v + 0.5)
}

// HuC6260 is the video color encoder. It owns the dot clock and the
// color table and produces the RGBA framebuffer.
type HuC6260 struct {
	cr     uint8
	cta    uint16
	colors [512]uint16
	rgb    [512][3]uint8

	source pixelSource

	divider int
	acc     int
	hpos    int
	line    int
	dot     int
	prev    [3]uint8

	frameReady bool
	fb         []byte
	width      int // width of the frame being drawn
	height     int
	outWidth   int // size of the last completed frame
	outHeight  int

	composite bool
	overscan  int
	scanStart int
	scanEnd   int
}

// NewHuC6260 creates a VCE pulling pixels from src.
func NewHuC6260(src pixelSource) *HuC6260 {
	v := &HuC6260{
		source:    src,
		divider:   4,
		fb:        make([]byte, MaxFrameWidth*MaxFrameHeight*4),
		scanStart: DefaultScanlineStart,
		scanEnd:   DefaultScanlineEnd,
	}
	v.latchFrameGeometry()
	v.outWidth, v.outHeight = v.width, v.height
	return v
}

// Reset clears the control register and timing. The color table is filled
// according to the reset policy.
func (v *HuC6260) Reset(f *resetFiller, rv ResetValues) {
	v.cr = 0
	v.cta = 0
	v.divider = 4
	v.acc = 0
	v.hpos = 0
	v.line = 0
	v.dot = 0
	v.frameReady = false
	for i := range v.colors {
		v.colors[i] = f.word(rv.ColorTable) & 0x1FF
	}
	v.refreshPalette()
	v.latchFrameGeometry()
}

// SetCompositePalette switches between RGB and composite color output.
func (v *HuC6260) SetCompositePalette(on bool) {
	v.composite = on
	v.refreshPalette()
}

// SetOverscan selects the captured area: 0 none, 1 all lines, 2 all lines
// plus horizontal borders.
func (v *HuC6260) SetOverscan(mode int) {
	v.overscan = mode
}

// SetScanlineWindow selects the visible line range (0-241 inclusive).
func (v *HuC6260) SetScanlineWindow(start, end int) {
	if start < 0 {
		start = 0
	}
	if end >= visibleLines {
		end = visibleLines - 1
	}
	if end < start {
		end = start
	}
	v.scanStart, v.scanEnd = start, end
}

// takeFrameReady reports whether a frame completed and clears the flag.
func (v *HuC6260) takeFrameReady() bool {
	r := v.frameReady
	v.frameReady = false
	return r
}

// Framebuffer returns the pixels of the last frame, packed at outWidth*4
// bytes per row.
func (v *HuC6260) Framebuffer() []byte {
	return v.fb[:v.outWidth*v.outHeight*4]
}

// FrameSize returns the dimensions of the last completed frame.
func (v *HuC6260) FrameSize() (int, int) {
	return v.outWidth, v.outHeight
}

// Color returns color table entry i.
func (v *HuC6260) Color(i int) uint16 { return v.colors[i&0x1FF] }

// --- Registers ---

// Read handles CPU reads of $0400-$07FF.
func (v *HuC6260) Read(off uint16) uint8 {
	switch off & 7 {
	case 4:
		return uint8(v.colors[v.cta])
	case 5:
		r := uint8(v.colors[v.cta]>>8) | 0xFE
		v.cta = (v.cta + 1) & 0x1FF
		return r
	}
	return 0xFF
}

// Write handles CPU writes to $0400-$07FF.
func (v *HuC6260) Write(off uint16, val uint8) {
	switch off & 7 {
	case 0:
		bw := (v.cr^val)&0x80 != 0
		v.cr = val
		v.divider = dotDivider(val)
		if bw {
			v.refreshPalette()
		}
	case 2:
		v.cta = v.cta&0x100 | uint16(val)
	case 3:
		v.cta = v.cta&0x0FF | uint16(val&1)<<8
	case 4:
		v.colors[v.cta] = v.colors[v.cta]&0x100 | uint16(val)
		v.refreshColor(int(v.cta))
	case 5:
		v.colors[v.cta] = v.colors[v.cta]&0x0FF | uint16(val&1)<<8
		v.refreshColor(int(v.cta))
		v.cta = (v.cta + 1) & 0x1FF
	}
}

func dotDivider(cr uint8) int {
	switch cr & 3 {
	case 0:
		return 4
	case 1:
		return 3
	}
	return 2
}

func (v *HuC6260) refreshPalette() {
	for i := range v.colors {
		v.refreshColor(i)
	}
}

func (v *HuC6260) refreshColor(i int) {
	c := v.colors[i] & 0x1FF
	var rgb [3]uint8
	if v.composite {
		rgb = compositeLUT[c]
	} else {
		rgb = [3]uint8{color3to8[(c>>3)&7], color3to8[(c>>6)&7], color3to8[c&7]}
	}
	if v.cr&0x80 != 0 {
		y := uint8((int(rgb[0])*299 + int(rgb[1])*587 + int(rgb[2])*114) / 1000)
		rgb = [3]uint8{y, y, y}
	}
	v.rgb[i] = rgb
}

// --- Dot clock ---

// Clock advances the dot clock by the given master cycles.
func (v *HuC6260) Clock(cycles int) {
	v.acc += cycles
	for v.acc >= v.divider {
		v.acc -= v.divider
		v.dotTick()
		v.hpos += v.divider
		if v.hpos >= CyclesPerLine {
			v.hpos -= CyclesPerLine
			v.newLine()
		}
	}
}

func (v *HuC6260) dotTick() {
	idx := v.source.Dot() & 0x1FF
	dot := v.dot
	v.dot++

	row := v.line - firstVisibleLine - v.firstRow()
	if row < 0 || row >= v.height {
		return
	}
	win := outputWindows[v.divider]
	col := dot - win.start
	if v.overscan == 2 {
		col += overscanDots
	}
	if col < 0 || col >= v.width {
		return
	}

	rgb := v.rgb[idx]
	if v.cr&0x04 != 0 {
		blurred := rgb
		for i := range blurred {
			blurred[i] = uint8((int(rgb[i]) + int(v.prev[i])) / 2)
		}
		v.prev = rgb
		rgb = blurred
	}
	p := (row*v.width + col) * 4
	v.fb[p] = rgb[0]
	v.fb[p+1] = rgb[1]
	v.fb[p+2] = rgb[2]
	v.fb[p+3] = 0xFF
}

func (v *HuC6260) firstRow() int {
	if v.overscan != 0 {
		return 0
	}
	return v.scanStart
}

// latchFrameGeometry fixes the frame size at the start of a frame so a
// mid-frame dot clock change cannot tear the packing.
func (v *HuC6260) latchFrameGeometry() {
	win := outputWindows[v.divider]
	v.width = win.width
	if v.overscan == 2 {
		v.width += 2 * overscanDots
	}
	if v.overscan != 0 {
		v.height = visibleLines
	} else {
		v.height = v.scanEnd - v.scanStart + 1
	}
}

func (v *HuC6260) newLine() {
	v.dot = 0
	v.line++
	if v.line == LinesPerFrame {
		v.line = 0
	}
	v.source.HSync()

	switch v.line {
	case 0:
		v.source.VSync()
		v.latchFrameGeometry()
	case firstVisibleLine + visibleLines:
		v.outWidth, v.outHeight = v.width, v.height
		v.frameReady = true
	}
}

func (v *HuC6260) saveState(w *stateWriter) {
	w.u8(v.cr)
	w.u16(v.cta)
	w.u16s(v.colors[:])
	w.int(v.acc)
	w.int(v.hpos)
	w.int(v.line)
	w.int(v.dot)
	w.bool(v.frameReady)
	w.int(v.width)
	w.int(v.height)
	w.bytes(v.prev[:])
}

func (v *HuC6260) loadState(r *stateReader) {
	v.cr = r.u8()
	v.cta = r.u16()
	r.check(int(v.cta) < len(v.colors), "vce color address")
	r.u16s(v.colors[:])
	for i := range v.colors {
		v.colors[i] &= 0x1FF
	}
	v.acc = r.intIn(0, 4, "vce dot clock phase")
	v.hpos = r.intIn(0, CyclesPerLine, "vce line position")
	v.line = r.intIn(0, LinesPerFrame, "vce line")
	v.dot = r.intIn(0, CyclesPerLine, "vce dot")
	v.frameReady = r.bool()
	v.width = r.intIn(1, MaxFrameWidth+1, "vce frame width")
	v.height = r.intIn(1, MaxFrameHeight+1, "vce frame height")
	r.bytes(v.prev[:])
	v.divider = dotDivider(v.cr)
	v.refreshPalette()
}
