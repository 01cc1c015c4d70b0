package emu

import (
	"context"
	"errors"
	"fmt"
	iofs "io/fs"
	"math/bits"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

const (
	romHeaderSize = 512
	romBankSize   = 0x2000

	// Anything larger needs the Street Fighter II bank switcher.
	standardROMMax = 0x100000
)

// MediaKind is the kind of loaded media.
type MediaKind int

const (
	MediaNone MediaKind = iota
	MediaHuCard
	MediaCD
	MediaHES
)

func (k MediaKind) String() string {
	switch k {
	case MediaHuCard:
		return "HuCard"
	case MediaCD:
		return "CD-ROM"
	case MediaHES:
		return "HES"
	}
	return "None"
}

// MediaInfo describes the loaded title.
type MediaInfo struct {
	Kind      MediaKind
	Path      string
	Title     string
	CRC       uint32
	Console   ConsoleType
	IsSGX     bool
	Mapper    MapperType
	CardRAM   bool
	Reversed  bool // TurboGrafx dump stored bit reversed
	Tracks    int
	SixButton bool
	Avenue3   Avenue3Button
	HESSongs  int
}

// Media is an immutable loaded title.
type Media struct {
	info MediaInfo
	rom  []byte
	cd   *CDImage
	hes  *hesFile

	cleanup func()
}

// Info returns the description of the media.
func (m *Media) Info() MediaInfo { return m.info }

// mediaExtensions lists the file types LoadMedia accepts directly.
var mediaExtensions = map[string]MediaKind{
	".pce": MediaHuCard,
	".sgx": MediaHuCard,
	".rom": MediaHuCard,
	".bin": MediaHuCard,
	".cue": MediaCD,
	".hes": MediaHES,
}

// newHuCard validates a HuCard image. A 512 byte copier header is removed,
// bit reversed TurboGrafx dumps are restored and the game database is
// consulted for mapper and console quirks.
func newHuCard(data []byte, path string) (*Media, error) {
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}
	if len(data)%romBankSize == romHeaderSize {
		data = data[romHeaderSize:]
	}
	if len(data) == 0 || len(data)%romBankSize != 0 {
		return nil, fmt.Errorf("%d bytes: %w", len(data), ErrBadSize)
	}
	rom := make([]byte, len(data))
	copy(rom, data)

	info := MediaInfo{
		Kind:    MediaHuCard,
		Path:    path,
		Title:   strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		Console: ConsolePCE,
		Mapper:  MapperStandard,
	}
	if needsBitReverse(rom) {
		for i, b := range rom {
			rom[i] = bits.Reverse8(b)
		}
		info.Reversed = true
		info.Console = ConsoleTG16
	}
	info.CRC = crc(rom)

	if strings.EqualFold(filepath.Ext(path), ".sgx") {
		info.IsSGX = true
	}
	if g, ok := lookupGame(info.CRC); ok {
		info.Title = g.title
		info.IsSGX = info.IsSGX || g.flags&gameSGX != 0
		info.CardRAM = g.flags&gameCardRAM != 0
		info.SixButton = g.flags&gameSixButton != 0
		if g.flags&gameTG16 != 0 {
			info.Console = ConsoleTG16
		}
		switch {
		case g.flags&gameAvenue3Select != 0:
			info.Avenue3 = Avenue3Select
		case g.flags&gameAvenue3Run != 0:
			info.Avenue3 = Avenue3Run
		}
		if g.flags&gameSF2 != 0 {
			info.Mapper = MapperSF2
		}
	}
	if len(rom) > standardROMMax {
		info.Mapper = MapperSF2
	}
	if info.IsSGX {
		info.Console = ConsoleSGX
	}
	return &Media{info: info, rom: rom}, nil
}

// needsBitReverse reports whether the reset vector only makes sense with
// every byte bit reversed.
func needsBitReverse(rom []byte) bool {
	if len(rom) < romBankSize {
		return false
	}
	hi := rom[0x1FFF]
	return hi < 0xE0 && bits.Reverse8(hi) >= 0xE0
}

func newHESMedia(data []byte, path string) (*Media, error) {
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}
	h, err := parseHES(data)
	if err != nil {
		return nil, err
	}
	return &Media{
		info: MediaInfo{
			Kind:     MediaHES,
			Path:     path,
			Title:    strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
			CRC:      crc(data),
			Console:  ConsolePCE,
			Mapper:   MapperStandard,
			HESSongs: 256,
		},
		rom: h.rom,
		hes: h,
	}, nil
}

func newCDMedia(img *CDImage, path string) *Media {
	return &Media{
		info: MediaInfo{
			Kind:    MediaCD,
			Path:    path,
			Title:   strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
			CRC:     img.CRC(),
			Console: ConsolePCE,
			Tracks:  len(img.Tracks()),
		},
		cd: img,
	}
}

// --- Loading ---

// LoadMedia loads a HuCard, CUE sheet, HES file or archive from the
// emulator's file system and resets the machine.
func (e *Emulator) LoadMedia(path string) error {
	if path == "" {
		return ErrInvalidPath
	}
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".zip", ".7z", ".rar":
		fs, inner, cleanup, err := extractArchive(e.fs, path)
		if err != nil {
			return err
		}
		if err := e.loadFrom(fs, inner); err != nil {
			cleanup()
			return err
		}
		// Track files are read while the disc plays.
		if e.media.cd != nil {
			e.media.cleanup = cleanup
		} else {
			cleanup()
		}
		return nil
	case ".chd":
		return fmt.Errorf("chd images: %w", ErrUnsupportedFormat)
	}
	return e.loadFrom(e.fs, path)
}

// LoadMediaBytes loads an in-memory image. name selects the format by its
// extension.
func (e *Emulator) LoadMediaBytes(name string, data []byte) error {
	ext := strings.ToLower(filepath.Ext(name))
	switch ext {
	case ".zip", ".7z", ".rar":
		fs, inner, err := extractArchiveBytes(name, data)
		if err != nil {
			return err
		}
		return e.loadFrom(fs, inner)
	case ".hes":
		m, err := newHESMedia(data, name)
		if err != nil {
			return err
		}
		return e.insert(m)
	case ".cue", ".chd":
		return fmt.Errorf("%s needs its track files: %w", name, ErrUnsupportedFormat)
	}
	if isHES(data) {
		m, err := newHESMedia(data, name)
		if err != nil {
			return err
		}
		return e.insert(m)
	}
	m, err := newHuCard(data, name)
	if err != nil {
		return err
	}
	return e.insert(m)
}

func (e *Emulator) loadFrom(fs afero.Fs, path string) error {
	ext := strings.ToLower(filepath.Ext(path))
	kind, ok := mediaExtensions[ext]
	if !ok {
		return fmt.Errorf("%s: %w", path, ErrUnsupportedFormat)
	}

	if kind == MediaCD {
		img, err := OpenCue(fs, path)
		if err != nil {
			return err
		}
		if e.preload {
			if err := img.Preload(context.Background()); err != nil {
				img.Close()
				return err
			}
		}
		return e.insert(newCDMedia(img, path))
	}

	data, err := readFile(fs, path)
	if err != nil {
		return err
	}
	var m *Media
	if kind == MediaHES || isHES(data) {
		m, err = newHESMedia(data, path)
	} else {
		m, err = newHuCard(data, path)
	}
	if err != nil {
		return err
	}
	return e.insert(m)
}

// insert replaces the current media and resets. CD media without a BIOS
// is rejected and the previous media stays loaded.
func (e *Emulator) insert(m *Media) error {
	if m.info.Kind == MediaCD && e.bios == nil {
		m.cd.Close()
		return ErrBiosRequired
	}
	e.closeMedia()
	e.media = m
	e.configureHardware()
	e.Reset()
	return nil
}

func (e *Emulator) closeMedia() {
	if e.media == nil {
		return
	}
	if e.media.cd != nil {
		e.media.cd.Close()
	}
	if e.media.cleanup != nil {
		e.media.cleanup()
	}
	e.media = nil
}

// UnloadMedia removes the current title and leaves the machine idle.
func (e *Emulator) UnloadMedia() {
	e.closeMedia()
	e.configureHardware()
	e.Reset()
}

// GetMediaInfo describes the loaded title. The zero value means no media.
func (e *Emulator) GetMediaInfo() MediaInfo {
	if e.media == nil {
		return MediaInfo{}
	}
	info := e.media.info
	info.Console = e.console
	info.IsSGX = e.console == ConsoleSGX
	return info
}

// LoadBios loads a System Card image from the emulator's file system.
func (e *Emulator) LoadBios(path string) error {
	data, err := readFile(e.fs, path)
	if err != nil {
		return err
	}
	return e.LoadBiosBytes(data)
}

// LoadBiosBytes installs a System Card image. An unknown CRC still
// installs the image and returns ErrBiosInvalid.
func (e *Emulator) LoadBiosBytes(data []byte) error {
	if len(data) == 0 {
		return ErrEmptyFile
	}
	if len(data)%romBankSize == romHeaderSize {
		data = data[romHeaderSize:]
	}
	if len(data)%romBankSize != 0 {
		return fmt.Errorf("bios %d bytes: %w", len(data), ErrBadSize)
	}
	bios := make([]byte, len(data))
	copy(bios, data)
	if needsBitReverse(bios) {
		for i, b := range bios {
			bios[i] = bits.Reverse8(b)
		}
	}
	e.bios = bios
	sum := crc(bios)
	entry, known := lookupBios(sum)
	e.biosInfo = entry
	if e.media != nil && e.media.info.Kind == MediaCD {
		e.configureHardware()
		e.Reset()
	}
	if !known {
		return fmt.Errorf("crc %08X: %w", sum, ErrBiosInvalid)
	}
	return nil
}

// BiosName returns the name of the installed System Card.
func (e *Emulator) BiosName() string {
	if e.bios == nil {
		return ""
	}
	if e.biosInfo.name == "" {
		return "Unknown System Card"
	}
	return e.biosInfo.name
}

// mediaCRC identifies the loaded media. It seeds the reset filler and tags
// save states.
func (e *Emulator) mediaCRC() uint32 {
	if e.media == nil {
		return 0
	}
	return e.media.info.CRC
}

func readFile(fs afero.Fs, path string) ([]byte, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		if errors.Is(err, iofs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", path, ErrInvalidPath)
		}
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrEmptyFile)
	}
	return data, nil
}
