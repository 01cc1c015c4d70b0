package emu

import "math"

const (
	sampleRate  = 48000
	psgChannels = 6

	// The PSG runs at master/6 (3.58 MHz).
	psgDivider = 6

	// Output level of a full scale channel at zero attenuation. Six
	// channels at full scale stay inside int16.
	psgMaxLevel = 340
)

// psgVolume maps attenuation steps of 1.5 dB to a linear level.
var psgVolume [0x20]int32

func init() {
	for i := range psgVolume {
		psgVolume[i] = int32(math.Round(psgMaxLevel * math.Pow(10, -1.5*float64(i)/20)))
	}
	psgVolume[0x1F] = 0
}

type psgChannel struct {
	freq      uint16
	control   uint8
	balance   uint8
	wave      [32]uint8
	waveIndex uint8
	dda       uint8
	noiseCtrl uint8

	counter      int
	noiseCounter int
	lfsr         uint16
}

func (c *psgChannel) enabled() bool { return c.control&0x80 != 0 }
func (c *psgChannel) ddaMode() bool { return c.control&0x40 != 0 }

func (c *psgChannel) period() int {
	if c.freq == 0 {
		return 0x1000
	}
	return int(c.freq)
}

// level returns the current 5-bit output centered around zero.
func (c *psgChannel) level(noise bool) int32 {
	switch {
	case c.ddaMode():
		return int32(c.dda) - 16
	case noise:
		if c.lfsr&1 != 0 {
			return 15
		}
		return -16
	}
	return int32(c.wave[c.waveIndex]) - 16
}

// PSG is the six channel wavetable sound generator built into the
// HuC6280.
type PSG struct {
	ch          [psgChannels]psgChannel
	sel         uint8
	mainBalance uint8
	lfoFreq     uint8
	lfoCtrl     uint8

	acc       int
	sampleAcc int64
	sumL      int64
	sumR      int64
	sumCount  int64

	buffer []int16
}

// NewPSG creates a PSG with an empty output buffer.
func NewPSG() *PSG {
	p := &PSG{buffer: make([]int16, 0, 2*(sampleRate/FPS+16))}
	p.Reset()
	return p
}

// Reset silences all channels.
func (p *PSG) Reset() {
	for i := range p.ch {
		p.ch[i] = psgChannel{lfsr: 1}
	}
	p.sel = 0
	p.mainBalance = 0
	p.lfoFreq = 0
	p.lfoCtrl = 0
	p.acc = 0
	p.sampleAcc = 0
	p.sumL, p.sumR, p.sumCount = 0, 0, 0
	p.buffer = p.buffer[:0]
}

// Write handles CPU writes to $0800-$0BFF.
func (p *PSG) Write(off uint16, v uint8) {
	reg := off & 0x0F
	switch reg {
	case 0x00:
		p.sel = v & 7
		return
	case 0x01:
		p.mainBalance = v
		return
	case 0x08:
		p.lfoFreq = v
		return
	case 0x09:
		p.lfoCtrl = v
		if v&0x80 != 0 {
			p.ch[1].waveIndex = 0
			p.ch[1].counter = p.ch[1].period()
		}
		return
	}
	if p.sel >= psgChannels {
		return
	}
	c := &p.ch[p.sel]
	switch reg {
	case 0x02:
		c.freq = c.freq&0xF00 | uint16(v)
	case 0x03:
		c.freq = c.freq&0x0FF | uint16(v&0x0F)<<8
	case 0x04:
		if v&0xC0 == 0x40 {
			c.waveIndex = 0
		}
		c.control = v
	case 0x05:
		c.balance = v
	case 0x06:
		switch {
		case c.ddaMode():
			c.dda = v & 0x1F
		case !c.enabled():
			c.wave[c.waveIndex] = v & 0x1F
			c.waveIndex = (c.waveIndex + 1) & 0x1F
		}
	case 0x07:
		if p.sel >= 4 {
			c.noiseCtrl = v
		}
	}
}

// Clock advances the PSG by the given master cycles and produces output
// samples at the host rate.
func (p *PSG) Clock(cycles int) {
	p.acc += cycles
	for p.acc >= psgDivider {
		p.acc -= psgDivider
		p.tick()
		p.sampleAcc += psgDivider * sampleRate
		if p.sampleAcc >= MasterClockHz {
			p.sampleAcc -= MasterClockHz
			p.emit()
		}
	}
}

func (p *PSG) lfoActive() bool {
	return p.lfoCtrl&0x03 != 0 && p.lfoCtrl&0x80 == 0
}

func (p *PSG) tick() {
	lfo := p.lfoActive()
	for i := range p.ch {
		c := &p.ch[i]
		noise := i >= 4 && c.noiseCtrl&0x80 != 0
		if noise {
			c.noiseCounter--
			if c.noiseCounter <= 0 {
				n := int(0x1F-c.noiseCtrl&0x1F) * 64
				if n == 0 {
					n = 32
				}
				c.noiseCounter = n
				fb := (c.lfsr ^ c.lfsr>>1) & 1
				c.lfsr = c.lfsr>>1 | fb<<13
			}
		} else if c.enabled() && !c.ddaMode() {
			c.counter--
			if c.counter <= 0 {
				c.counter = p.channelPeriod(i, lfo)
				c.waveIndex = (c.waveIndex + 1) & 0x1F
			}
		}

		if !c.enabled() || (lfo && i == 1) {
			continue
		}
		l, r := p.attenuation(c)
		lvl := c.level(noise)
		p.sumL += int64(lvl * psgVolume[l])
		p.sumR += int64(lvl * psgVolume[r])
	}
	p.sumCount++
}

// channelPeriod returns the wave step period of channel i. With the LFO
// running, channel 1 acts as the modulator of channel 0 and is slowed by
// the LFO frequency divider.
func (p *PSG) channelPeriod(i int, lfo bool) int {
	c := &p.ch[i]
	if !lfo {
		return c.period()
	}
	switch i {
	case 0:
		// ch1's current sample bends ch0's period, never the reverse.
		mod := int(p.ch[1].wave[p.ch[1].waveIndex]) - 16
		shift := [4]uint{0, 0, 4, 8}[p.lfoCtrl&3]
		n := c.period() + mod<<shift
		if n < 1 {
			n = 1
		}
		return n
	case 1:
		div := int(p.lfoFreq)
		if div == 0 {
			div = 0x100
		}
		return c.period() * div
	}
	return c.period()
}

// attenuation returns the combined left and right attenuation steps.
func (p *PSG) attenuation(c *psgChannel) (int, int) {
	vol := int(c.control & 0x1F)
	base := 0x1F - vol
	l := base + (0x0F-int(c.balance>>4))*2 + (0x0F-int(p.mainBalance>>4))*2
	r := base + (0x0F-int(c.balance&0x0F))*2 + (0x0F-int(p.mainBalance&0x0F))*2
	return min(l, 0x1F), min(r, 0x1F)
}

func (p *PSG) emit() {
	var l, r int64
	if p.sumCount > 0 {
		l = p.sumL / p.sumCount
		r = p.sumR / p.sumCount
	}
	p.sumL, p.sumR, p.sumCount = 0, 0, 0
	p.buffer = append(p.buffer, int16(clampInt32(int32(l), -32768, 32767)), int16(clampInt32(int32(r), -32768, 32767)))
}

// GetBuffer returns the stereo samples produced since the last reset of
// the buffer.
func (p *PSG) GetBuffer() []int16 { return p.buffer }

func (p *PSG) resetBuffer() { p.buffer = p.buffer[:0] }

// ChannelLevel describes one channel for visualisation.
type ChannelLevel struct {
	Enabled   bool
	Frequency uint16
	Volume    uint8
	Left      uint8
	Right     uint8
	Noise     bool
	DDA       bool
}

// ChannelLevels returns the state of all six channels.
func (p *PSG) ChannelLevels() [psgChannels]ChannelLevel {
	var out [psgChannels]ChannelLevel
	for i := range p.ch {
		c := &p.ch[i]
		out[i] = ChannelLevel{
			Enabled:   c.enabled(),
			Frequency: c.freq,
			Volume:    c.control & 0x1F,
			Left:      c.balance >> 4,
			Right:     c.balance & 0x0F,
			Noise:     i >= 4 && c.noiseCtrl&0x80 != 0,
			DDA:       c.ddaMode(),
		}
	}
	return out
}

func (p *PSG) saveState(w *stateWriter) {
	for i := range p.ch {
		c := &p.ch[i]
		w.u16(c.freq)
		w.u8(c.control)
		w.u8(c.balance)
		w.bytes(c.wave[:])
		w.u8(c.waveIndex)
		w.u8(c.dda)
		w.u8(c.noiseCtrl)
		w.int(c.counter)
		w.int(c.noiseCounter)
		w.u16(c.lfsr)
	}
	w.u8(p.sel)
	w.u8(p.mainBalance)
	w.u8(p.lfoFreq)
	w.u8(p.lfoCtrl)
	w.int(p.acc)
	w.u64(uint64(p.sampleAcc))
	w.u64(uint64(p.sumL))
	w.u64(uint64(p.sumR))
	w.u64(uint64(p.sumCount))
}

func (p *PSG) loadState(r *stateReader) {
	for i := range p.ch {
		c := &p.ch[i]
		c.freq = r.u16()
		c.control = r.u8()
		c.balance = r.u8()
		r.bytes(c.wave[:])
		for j := range c.wave {
			c.wave[j] &= 0x1F
		}
		c.waveIndex = r.u8()
		r.check(int(c.waveIndex) < len(c.wave), "psg wave index")
		c.dda = r.u8()
		c.noiseCtrl = r.u8()
		c.counter = r.int()
		c.noiseCounter = r.int()
		c.lfsr = r.u16()
	}
	p.sel = r.u8()
	r.check(p.sel < 8, "psg channel select")
	p.mainBalance = r.u8()
	p.lfoFreq = r.u8()
	p.lfoCtrl = r.u8()
	p.acc = r.intIn(0, psgDivider, "psg clock phase")
	p.sampleAcc = int64(r.u64())
	r.check(p.sampleAcc >= 0 && p.sampleAcc < MasterClockHz, "psg sample phase")
	p.sumL = int64(r.u64())
	p.sumR = int64(r.u64())
	p.sumCount = int64(r.u64())
	r.check(p.sumCount >= 0, "psg sample count")
	p.buffer = p.buffer[:0]
}
