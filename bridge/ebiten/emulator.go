// Package ebiten provides an Ebiten-specific wrapper for the emulator.
package ebiten

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/user-none/empce/emu"
)

// displayAspect is the shape of the picture on a television.
const displayAspect = 4.0 / 3.0

// Emulator wraps emu.Emulator with Ebiten-specific functionality.
type Emulator struct {
	*emu.Emulator

	offscreen *ebiten.Image           // Native resolution picture
	drawOpts  ebiten.DrawImageOptions // Reused every frame
	drawnSeq  uint64                  // Frame held by offscreen
}

// NewEmulator wraps a machine for Ebiten rendering.
func NewEmulator(e *emu.Emulator) *Emulator {
	return &Emulator{Emulator: e}
}

// Layout implements ebiten.Game.
func (e *Emulator) Layout(outsideWidth, outsideHeight int) (int, int) {
	return outsideWidth, outsideHeight
}

// DrawCachedFramebuffer renders pixel data produced by the emulation
// goroutine. seq identifies the frame; an unchanged seq reuses the last
// upload. The picture is always emu.ScreenWidth pixels wide whatever the
// dot clock, so it is scaled to a 4:3 box.
func (e *Emulator) DrawCachedFramebuffer(screen *ebiten.Image, pixels []byte, stride, activeHeight int, seq uint64) {
	if activeHeight == 0 || stride == 0 {
		return
	}
	requiredLen := stride * activeHeight
	if len(pixels) < requiredLen {
		return
	}

	if e.offscreen == nil || e.offscreen.Bounds().Dy() != activeHeight {
		e.offscreen = ebiten.NewImage(emu.ScreenWidth, activeHeight)
		e.drawnSeq = 0
	}
	if seq == 0 || seq != e.drawnSeq {
		e.offscreen.WritePixels(pixels[:requiredLen])
		e.drawnSeq = seq
	}

	screenW, screenH := float64(screen.Bounds().Dx()), float64(screen.Bounds().Dy())
	dispH := float64(activeHeight)
	dispW := dispH * displayAspect
	scale := min(screenW/dispW, screenH/dispH)

	scaleX := dispW * scale / emu.ScreenWidth
	scaleY := scale
	offsetX := (screenW - dispW*scale) / 2
	offsetY := (screenH - dispH*scale) / 2

	e.drawOpts = ebiten.DrawImageOptions{}
	e.drawOpts.GeoM.Scale(scaleX, scaleY)
	e.drawOpts.GeoM.Translate(offsetX, offsetY)
	e.drawOpts.Filter = ebiten.FilterLinear
	screen.DrawImage(e.offscreen, &e.drawOpts)
}
