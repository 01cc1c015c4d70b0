package emu

func (c *HuC6280) saveState(w *stateWriter) {
	w.u8(c.a)
	w.u8(c.x)
	w.u8(c.y)
	w.u8(c.s)
	w.u8(c.p)
	w.u16(c.pc)
	w.bool(c.speedHigh)
	w.u8(c.irqDisable)
	w.bool(c.nmi)
	w.u64(c.cycles)

	w.u8(c.timer.reload)
	w.u8(c.timer.counter)
	w.bool(c.timer.enabled)
	w.int(c.timer.acc)
	w.bool(c.timer.request)
}

func (c *HuC6280) loadState(r *stateReader) {
	c.a = r.u8()
	c.x = r.u8()
	c.y = r.u8()
	c.s = r.u8()
	c.p = r.u8()
	c.pc = r.u16()
	c.speedHigh = r.bool()
	c.irqDisable = r.u8()
	c.nmi = r.bool()
	c.cycles = r.u64()

	c.timer.reload = r.u8()
	c.timer.counter = r.u8()
	c.timer.enabled = r.bool()
	c.timer.acc = r.intIn(0, timerPeriod, "timer phase")
	c.timer.request = r.bool()
}
