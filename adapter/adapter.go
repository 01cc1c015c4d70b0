package adapter

import (
	"strconv"

	emucore "github.com/user-none/eblitui/api"
	"github.com/user-none/empce/emu"
)

// Compile-time interface check.
var _ emucore.CoreFactory = (*Factory)(nil)

// Factory implements emucore.CoreFactory for the PC Engine emulator.
type Factory struct{}

// SystemInfo returns system metadata for UI configuration.
func (f *Factory) SystemInfo() emucore.SystemInfo {
	return emucore.SystemInfo{
		Name:            "empce",
		ConsoleName:     "PC Engine",
		Extensions:      []string{".pce", ".sgx", ".hes", ".cue"},
		ScreenWidth:     emu.ScreenWidth,
		MaxScreenHeight: emu.MaxScreenHeight,
		AspectRatio:     4.0 / 3.0,
		SampleRate:      48000,
		Buttons: []emucore.Button{
			{Name: "I", ID: 4, DefaultKey: "K", DefaultPad: "A"},
			{Name: "II", ID: 5, DefaultKey: "J", DefaultPad: "X"},
			{Name: "Select", ID: 6, DefaultKey: "RightShift", DefaultPad: "Back"},
			{Name: "Run", ID: 7, DefaultKey: "Enter", DefaultPad: "Start"},
			{Name: "III", ID: 8, DefaultKey: "U", DefaultPad: "B"},
			{Name: "IV", ID: 9, DefaultKey: "I", DefaultPad: "Y"},
			{Name: "V", ID: 10, DefaultKey: "O", DefaultPad: "L1"},
			{Name: "VI", ID: 11, DefaultKey: "L", DefaultPad: "R1"},
		},
		Players: 5,
		CoreOptions: []emucore.CoreOption{
			{
				Key:         "console_type",
				Label:       "Console",
				Description: "Console model, auto picks from the game database",
				Type:        emucore.CoreOptionSelect,
				Default:     "auto",
				Values:      []string{"auto", "pce", "tg16", "sgx"},
				Category:    emucore.CoreOptionCategoryCore,
				PerGame:     true,
			},
			{
				Key:         "cdrom_type",
				Label:       "CD-ROM Unit",
				Description: "CD-ROM hardware, auto follows the System Card",
				Type:        emucore.CoreOptionSelect,
				Default:     "auto",
				Values:      []string{"auto", "standard", "supercd", "arcade"},
				Category:    emucore.CoreOptionCategoryCore,
				PerGame:     true,
			},
			{
				Key:         "backup_ram_forced",
				Label:       "Backup RAM",
				Description: "Provide backup RAM without a CD-ROM unit",
				Type:        emucore.CoreOptionBool,
				Default:     "false",
				Category:    emucore.CoreOptionCategoryCore,
				PerGame:     true,
			},
			{
				Key:         "preload_cdrom",
				Label:       "Preload CD-ROM",
				Description: "Read the whole disc into memory when it is loaded",
				Type:        emucore.CoreOptionBool,
				Default:     "false",
				Category:    emucore.CoreOptionCategoryCore,
			},
			{
				Key:         "pad_type",
				Label:       "Controller",
				Description: "Controller plugged into every port",
				Type:        emucore.CoreOptionSelect,
				Default:     "standard",
				Values:      []string{"standard", "avenue3", "avenue6"},
				Category:    emucore.CoreOptionCategoryInput,
				PerGame:     true,
			},
			{
				Key:         "avenue_pad3_button",
				Label:       "Avenue Pad 3 Button III",
				Description: "Button that III stands in for on an Avenue Pad 3",
				Type:        emucore.CoreOptionSelect,
				Default:     "select",
				Values:      []string{"select", "run"},
				Category:    emucore.CoreOptionCategoryInput,
				PerGame:     true,
			},
			{
				Key:         "turbo_tap",
				Label:       "TurboTap",
				Description: "Connect the five player multitap",
				Type:        emucore.CoreOptionBool,
				Default:     "false",
				Category:    emucore.CoreOptionCategoryInput,
			},
			{
				Key:         "composite_palette",
				Label:       "Composite Colors",
				Description: "Approximate the colors of the composite output",
				Type:        emucore.CoreOptionBool,
				Default:     "false",
				Category:    emucore.CoreOptionCategoryVideo,
			},
			{
				Key:         "no_sprite_limit",
				Label:       "No Sprite Limit",
				Description: "Draw every sprite on a line (reduces flicker, not accurate)",
				Type:        emucore.CoreOptionBool,
				Default:     "false",
				Category:    emucore.CoreOptionCategoryVideo,
			},
			{
				Key:         "overscan",
				Label:       "Overscan",
				Description: "0 crops to the scanline window, 1 shows every line, 2 adds the side borders",
				Type:        emucore.CoreOptionRange,
				Default:     "0",
				Min:         0,
				Max:         2,
				Step:        1,
				Category:    emucore.CoreOptionCategoryVideo,
			},
			{
				Key:         "scanline_start",
				Label:       "First Scanline",
				Description: "First line shown when overscan is off",
				Type:        emucore.CoreOptionRange,
				Default:     strconv.Itoa(emu.DefaultScanlineStart),
				Min:         0,
				Max:         40,
				Step:        1,
				Category:    emucore.CoreOptionCategoryVideo,
			},
			{
				Key:         "scanline_end",
				Label:       "Last Scanline",
				Description: "Last line shown when overscan is off",
				Type:        emucore.CoreOptionRange,
				Default:     strconv.Itoa(emu.DefaultScanlineEnd),
				Min:         200,
				Max:         241,
				Step:        1,
				Category:    emucore.CoreOptionCategoryVideo,
			},
			{
				Key:         "hes_song",
				Label:       "HES Song",
				Description: "Song a HES music file starts with, -1 for the file default",
				Type:        emucore.CoreOptionRange,
				Default:     "-1",
				Min:         -1,
				Max:         255,
				Step:        1,
				Category:    emucore.CoreOptionCategoryAudio,
			},
		},
		RDBName:       "NEC - PC Engine - TurboGrafx 16",
		ThumbnailRepo: "NEC_-_PC_Engine_-_TurboGrafx_16",
		DataDirName:   "empce",
		ConsoleID:     8,
		CoreName:      emu.Name,
		CoreVersion:   emu.Version,
		SerializeSize: emu.MaxSerializeSize(),
	}
}

// CreateEmulator creates a new emulator instance with the given ROM. The
// region is ignored.
func (f *Factory) CreateEmulator(rom []byte, region emucore.Region) (emucore.Emulator, error) {
	e, err := emu.NewEmulator(rom, region)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// DetectRegion always reports NTSC: every model of the family runs the
// same timing. The bool is false since no database lookup is involved.
func (f *Factory) DetectRegion(rom []byte) (emucore.Region, bool) {
	return emu.RegionNTSC, false
}
