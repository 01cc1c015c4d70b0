package emu

// Output stage RC filter of the console, a one-pole low-pass at about
// 14 kHz. lpfAlphaQ16 is 1-exp(-2*pi*14000/48000) in Q16. Filter state is
// integer Q8 so saved states replay bit-identically.
const (
	lpfAlphaQ16 = 55050
	lpfFracBits = 8
)

// mixAudio sums the PSG and CD-ROM output of the frame into audioBuffer.
// Both produce interleaved stereo at the output rate but may end a sample
// pair apart, so the longer tail is kept unmixed.
func (e *Emulator) mixAudio() {
	psgBuf := e.psg.GetBuffer()
	var cdBuf []int16
	if e.mem.cdAttached {
		cdBuf = e.cdrom.GetBuffer()
	}

	long, short := psgBuf, cdBuf
	if len(short) > len(long) {
		long, short = short, long
	}
	for i, s := range long {
		v := int32(s)
		if i < len(short) {
			v += int32(short[i])
		}
		e.audioBuffer = append(e.audioBuffer, int16(clampInt32(v, -32768, 32767)))
	}

	e.psg.resetBuffer()
	e.cdrom.resetBuffer()
	e.applyLowPass()
}

// applyLowPass runs the output filter over audioBuffer. Filter state is
// carried between frames and saved in states.
func (e *Emulator) applyLowPass() {
	buf := e.audioBuffer[:len(e.audioBuffer)&^1]
	for i := 0; i < len(buf); i += 2 {
		buf[i] = lowPassStep(&e.filterL, buf[i])
		buf[i+1] = lowPassStep(&e.filterR, buf[i+1])
	}
}

// lowPassStep moves the Q8 state toward in and returns it rounded.
func lowPassStep(state *int32, in int16) int16 {
	diff := int64(in)<<lpfFracBits - int64(*state)
	*state += int32(diff * lpfAlphaQ16 >> 16)
	return int16((*state + 1<<(lpfFracBits-1)) >> lpfFracBits)
}

// GetAudioSamples returns the last frame of audio, interleaved stereo at
// 48 kHz.
func (e *Emulator) GetAudioSamples() []int16 {
	return e.audioBuffer
}

func clampInt32(v, lo, hi int32) int32 {
	return max(lo, min(v, hi))
}
