package emu

import emucore "github.com/user-none/eblitui/api"

// Region is an alias for emucore.Region. The PC Engine family only shipped
// NTSC hardware, so the region never changes timing.
type Region = emucore.Region

const (
	RegionNTSC = emucore.RegionNTSC
	RegionPAL  = emucore.RegionPAL
)

// Master timing. All components are clocked in master cycles.
const (
	MasterClockHz  = 21477270
	CyclesPerLine  = 1365
	LinesPerFrame  = 262
	FPS            = 60
	CyclesPerFrame = CyclesPerLine * LinesPerFrame
)

// ConsoleType selects which console model is emulated.
type ConsoleType int

const (
	ConsoleAuto ConsoleType = iota
	ConsolePCE
	ConsoleSGX
	ConsoleTG16
)

// String returns the display name of the console type.
func (c ConsoleType) String() string {
	switch c {
	case ConsolePCE:
		return "PC Engine"
	case ConsoleSGX:
		return "SuperGrafx"
	case ConsoleTG16:
		return "TurboGrafx-16"
	default:
		return "Auto"
	}
}

// ParseConsoleType maps an option value to a ConsoleType.
func ParseConsoleType(s string) ConsoleType {
	switch s {
	case "pce", "PC Engine":
		return ConsolePCE
	case "sgx", "SuperGrafx":
		return ConsoleSGX
	case "tg16", "TurboGrafx-16":
		return ConsoleTG16
	default:
		return ConsoleAuto
	}
}

// CDROMType selects the CD-ROM hardware attached to the console.
type CDROMType int

const (
	CDROMAuto CDROMType = iota
	CDROMStandard
	CDROMSuperCD
	CDROMArcadeCard
)

// String returns the display name of the CD-ROM type.
func (c CDROMType) String() string {
	switch c {
	case CDROMStandard:
		return "CD-ROM2"
	case CDROMSuperCD:
		return "Super CD-ROM2"
	case CDROMArcadeCard:
		return "Arcade CD-ROM2"
	default:
		return "Auto"
	}
}

// ParseCDROMType maps an option value to a CDROMType.
func ParseCDROMType(s string) CDROMType {
	switch s {
	case "standard":
		return CDROMStandard
	case "supercd":
		return CDROMSuperCD
	case "arcade":
		return CDROMArcadeCard
	default:
		return CDROMAuto
	}
}

// GetTiming returns the fixed NTSC timing.
func (e *Emulator) GetTiming() emucore.Timing {
	return emucore.Timing{FPS: FPS, Scanlines: LinesPerFrame}
}

// GetRegion always reports NTSC.
func (e *Emulator) GetRegion() Region {
	return RegionNTSC
}

// SetRegion is accepted for interface compatibility. PAL is not a thing on
// this platform, so timing stays NTSC.
func (e *Emulator) SetRegion(region Region) {}
