package emu

// Key is a controller button.
type Key int

const (
	KeyUp Key = iota
	KeyDown
	KeyLeft
	KeyRight
	KeyI
	KeyII
	KeyIII
	KeyIV
	KeyV
	KeyVI
	KeyRun
	KeySelect
	keyCount
)

// PadType is the kind of controller plugged into a port.
type PadType int

const (
	PadStandard PadType = iota
	PadAvenue3
	PadAvenue6
)

// ParsePadType maps an option value to a PadType.
func ParsePadType(s string) PadType {
	switch s {
	case "avenue3":
		return PadAvenue3
	case "avenue6", "6button":
		return PadAvenue6
	}
	return PadStandard
}

// Avenue3Button selects which button III of an Avenue Pad 3 stands in for.
type Avenue3Button int

const (
	Avenue3None Avenue3Button = iota
	Avenue3Select
	Avenue3Run
)

// ParseAvenue3Button maps an option value to an Avenue3Button.
func ParseAvenue3Button(s string) Avenue3Button {
	switch s {
	case "select":
		return Avenue3Select
	case "run":
		return Avenue3Run
	}
	return Avenue3None
}

const (
	maxControllers    = 5
	defaultTurboSpeed = 4
)

type pad struct {
	typ     PadType
	avenue3 Avenue3Button
	pressed [keyCount]bool

	turbo      [2]bool // I, II
	turboSpeed [2]int

	// Six button pads alternate between the standard and the extended
	// nibble pair on every CLR rising edge.
	extended bool
}

func (p *pad) down(k Key, frame int) bool {
	if !p.pressed[k] {
		if p.typ == PadAvenue3 && p.pressed[KeyIII] {
			return (k == KeySelect && p.avenue3 == Avenue3Select) ||
				(k == KeyRun && p.avenue3 == Avenue3Run)
		}
		return false
	}
	if k == KeyI || k == KeyII {
		i := int(k - KeyI)
		if p.turbo[i] {
			n := max(p.turboSpeed[i], 1)
			return (frame/n)%2 == 0
		}
	}
	return true
}

// nibble returns the active low port nibble for the SEL level.
func (p *pad) nibble(sel bool, frame int) uint8 {
	var bits [4]Key
	switch {
	case p.typ == PadAvenue6 && p.extended && sel:
		return 0
	case p.typ == PadAvenue6 && p.extended:
		bits = [4]Key{KeyIII, KeyIV, KeyV, KeyVI}
	case sel:
		bits = [4]Key{KeyUp, KeyRight, KeyDown, KeyLeft}
	default:
		bits = [4]Key{KeyI, KeyII, KeySelect, KeyRun}
	}
	v := uint8(0x0F)
	for i, k := range bits {
		if p.down(k, frame) {
			v &^= 1 << i
		}
	}
	return v
}

// Input is the joypad port at $1000 with an optional TurboTap and MB128.
type Input struct {
	pads [maxControllers]pad
	tap  bool

	sel   bool
	clr   bool
	index int
	frame int

	tg16       bool
	cdAttached bool

	mb         *MB128
	mbAttached bool
}

// NewInput creates the port with standard pads and an MB128 attached.
func NewInput() *Input {
	in := &Input{mb: NewMB128(), mbAttached: true}
	for i := range in.pads {
		in.pads[i].turboSpeed = [2]int{defaultTurboSpeed, defaultTurboSpeed}
	}
	return in
}

// Reset clears the port latches. Button state is host owned and kept.
func (in *Input) Reset() {
	in.sel = false
	in.clr = false
	in.index = 0
	in.frame = 0
	for i := range in.pads {
		in.pads[i].extended = false
	}
	in.mb.reset()
}

// SetKey sets the state of a button on a controller.
func (in *Input) SetKey(controller int, k Key, down bool) {
	if controller < 0 || controller >= maxControllers || k < 0 || k >= keyCount {
		return
	}
	in.pads[controller].pressed[k] = down
}

// SetPadType selects the controller type of a port.
func (in *Input) SetPadType(controller int, t PadType) {
	if controller >= 0 && controller < maxControllers {
		in.pads[controller].typ = t
	}
}

// SetAvenuePad3Button routes button III of an Avenue Pad 3.
func (in *Input) SetAvenuePad3Button(controller int, b Avenue3Button) {
	if controller >= 0 && controller < maxControllers {
		in.pads[controller].avenue3 = b
	}
}

// SetTurbo enables auto fire for button I or II.
func (in *Input) SetTurbo(controller int, k Key, on bool) {
	if controller < 0 || controller >= maxControllers || (k != KeyI && k != KeyII) {
		return
	}
	in.pads[controller].turbo[k-KeyI] = on
}

// SetTurboSpeed sets the auto fire half period in frames.
func (in *Input) SetTurboSpeed(controller int, k Key, frames int) {
	if controller < 0 || controller >= maxControllers || (k != KeyI && k != KeyII) {
		return
	}
	in.pads[controller].turboSpeed[k-KeyI] = max(frames, 1)
}

// SetTurboTap plugs in or removes the multitap.
func (in *Input) SetTurboTap(on bool) { in.tap = on }

// endFrame advances the auto fire phase.
func (in *Input) endFrame() { in.frame++ }

// Write handles $1000 writes: bit 0 is SEL and bit 1 is CLR.
func (in *Input) Write(v uint8) {
	sel := v&0x01 != 0
	clr := v&0x02 != 0
	clrRise := clr && !in.clr
	selRise := sel && !in.sel

	if in.mbAttached && clrRise {
		in.mb.clock(sel)
	}
	if clrRise {
		for i := range in.pads {
			if in.pads[i].typ == PadAvenue6 {
				in.pads[i].extended = !in.pads[i].extended
			}
		}
	}
	if in.tap {
		switch {
		case sel && clr:
			in.index = 0
		case selRise && !clr:
			in.index = min(in.index+1, maxControllers)
		}
	}
	in.sel = sel
	in.clr = clr
}

// Read returns $1000. Bits 4-5 are always set, bit 6 is set on Japanese
// consoles and bit 7 is clear when a CD-ROM unit is attached.
func (in *Input) Read() uint8 {
	v := uint8(0x30)
	if !in.tg16 {
		v |= 0x40
	}
	if !in.cdAttached {
		v |= 0x80
	}
	if in.mbAttached && in.mb.active() {
		return v | in.mb.read()
	}
	if in.clr {
		return v
	}
	idx := 0
	if in.tap {
		idx = in.index
		if idx >= maxControllers {
			return v
		}
	}
	return v | in.pads[idx].nibble(in.sel, in.frame)
}

func (in *Input) saveState(w *stateWriter) {
	w.bool(in.sel)
	w.bool(in.clr)
	w.int(in.index)
	w.int(in.frame)
	for i := range in.pads {
		w.bool(in.pads[i].extended)
	}
	in.mb.saveState(w)
}

func (in *Input) loadState(r *stateReader) {
	in.sel = r.bool()
	in.clr = r.bool()
	in.index = r.intIn(0, maxControllers+1, "multitap index")
	in.frame = r.int()
	for i := range in.pads {
		in.pads[i].extended = r.bool()
	}
	in.mb.loadState(r)
}
