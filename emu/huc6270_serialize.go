package emu

func (v *HuC6270) saveState(w *stateWriter) {
	w.u16s(v.vram[:])
	w.u16s(v.sat[:])
	w.u16s(v.regs[:])
	w.u8(v.ar)
	w.u8(v.status)
	w.u16(v.readLatch)
	w.u8(v.writeLatch)

	w.u8(uint8(v.hPhase))
	w.int(v.hCount)
	w.int(v.pixelIndex)
	w.u8(uint8(v.vPhase))
	w.int(v.vCount)
	w.int(v.rasterCounter)
	w.bool(v.displayLine)
	w.bool(v.firstLine)
	w.bool(v.vblankFired)
	w.u16(v.bgY)
	w.int(v.lineWidth)
	w.u16s(v.lineBuf[:])

	w.bool(v.vramDMAPending)
	w.int(v.vramDMAAcc)
	w.bool(v.satDMAPending)
	w.int(v.satDMACycles)
}

func (v *HuC6270) loadState(r *stateReader) {
	r.u16s(v.vram[:])
	r.u16s(v.sat[:])
	r.u16s(v.regs[:])
	v.ar = r.u8()
	r.check(v.ar < 0x20, "vdc register select")
	v.status = r.u8()
	v.readLatch = r.u16()
	v.writeLatch = r.u8()

	v.hPhase = hPhase(r.u8())
	r.check(v.hPhase <= phaseHDE, "vdc horizontal phase")
	v.hCount = r.int()
	v.pixelIndex = r.int()
	r.check(v.pixelIndex >= 0, "vdc pixel index")
	v.vPhase = vPhase(r.u8())
	r.check(v.vPhase <= phaseVCR, "vdc vertical phase")
	v.vCount = r.int()
	v.rasterCounter = r.int()
	v.displayLine = r.bool()
	v.firstLine = r.bool()
	v.vblankFired = r.bool()
	v.bgY = r.u16()
	v.lineWidth = r.intIn(0, len(v.lineBuf)+1, "vdc line width")
	r.u16s(v.lineBuf[:])

	v.vramDMAPending = r.bool()
	v.vramDMAAcc = r.int()
	v.satDMAPending = r.bool()
	v.satDMACycles = r.int()
}
