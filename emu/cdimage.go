package emu

import (
	"context"
	"fmt"
	"hash/crc32"
	"io"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"
)

const (
	sectorSizeRaw  = 2352
	sectorSizeData = 2048
	samplesPerSect = sectorSizeRaw / 4 // 588 stereo frames

	// Frames before LBA 0 on a disc (2 seconds of lead-in).
	leadInFrames = 150

	sectorCacheSize = 256
)

// TrackType is the content of a CD track.
type TrackType int

const (
	TrackAudio TrackType = iota
	TrackMode1_2048
	TrackMode1_2352
)

func (t TrackType) String() string {
	switch t {
	case TrackAudio:
		return "AUDIO"
	case TrackMode1_2048:
		return "MODE1/2048"
	case TrackMode1_2352:
		return "MODE1/2352"
	}
	return "UNKNOWN"
}

// SectorSize returns the number of bytes a sector of this type occupies in
// the image file.
func (t TrackType) SectorSize() int {
	if t == TrackMode1_2048 {
		return sectorSizeData
	}
	return sectorSizeRaw
}

// Track is one entry of the disc table of contents.
type Track struct {
	Number     int
	Type       TrackType
	StartLBA   uint32 // INDEX 01
	EndLBA     uint32 // last sector, inclusive
	SectorSize int
	File       string
	Offset     int64 // byte offset of StartLBA in File
}

// IsAudio reports whether the track holds CD-DA.
func (t *Track) IsAudio() bool { return t.Type == TrackAudio }

// Contains reports whether lba falls within the track.
func (t *Track) Contains(lba uint32) bool {
	return lba >= t.StartLBA && lba <= t.EndLBA
}

// CDImage is a disc assembled from one or more track image files.
type CDImage struct {
	fs      afero.Fs
	tracks  []Track
	leadOut uint32

	files   map[string]afero.File
	preload map[string][]byte
	cache   *lru.Cache[uint32, []byte]
}

func newCDImage(fs afero.Fs, tracks []Track) (*CDImage, error) {
	if len(tracks) == 0 {
		return nil, fmt.Errorf("no tracks: %w", ErrCueParse)
	}
	cache, err := lru.New[uint32, []byte](sectorCacheSize)
	if err != nil {
		return nil, err
	}
	img := &CDImage{
		fs:     fs,
		tracks: tracks,
		files:  make(map[string]afero.File),
		cache:  cache,
	}
	img.leadOut = tracks[len(tracks)-1].EndLBA + 1
	return img, nil
}

// Tracks returns the table of contents.
func (img *CDImage) Tracks() []Track { return img.tracks }

// LeadOut returns the first LBA after the last track.
func (img *CDImage) LeadOut() uint32 { return img.leadOut }

// TrackAt returns the index of the track containing lba, or -1.
func (img *CDImage) TrackAt(lba uint32) int {
	for i := range img.tracks {
		if img.tracks[i].Contains(lba) {
			return i
		}
	}
	return -1
}

// TrackByNumber returns the index of track number n, or -1.
func (img *CDImage) TrackByNumber(n int) int {
	for i := range img.tracks {
		if img.tracks[i].Number == n {
			return i
		}
	}
	return -1
}

// Preload reads every track file into memory concurrently. Reads after a
// preload never touch the file system.
func (img *CDImage) Preload(ctx context.Context) error {
	names := make([]string, 0, len(img.tracks))
	seen := make(map[string]bool)
	for _, t := range img.tracks {
		if !seen[t.File] {
			seen[t.File] = true
			names = append(names, t.File)
		}
	}

	data := make([][]byte, len(names))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, name := range names {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			b, err := afero.ReadFile(img.fs, name)
			if err != nil {
				return fmt.Errorf("preload %s: %w", name, err)
			}
			data[i] = b
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	img.preload = make(map[string][]byte, len(names))
	for i, name := range names {
		img.preload[name] = data[i]
	}
	return nil
}

// Close releases open track files.
func (img *CDImage) Close() error {
	var first error
	for name, f := range img.files {
		if err := f.Close(); err != nil && first == nil {
			first = err
		}
		delete(img.files, name)
	}
	img.preload = nil
	img.cache.Purge()
	return first
}

// readRaw returns the sector as stored in its image file. LBAs outside of
// any track read as zeros.
func (img *CDImage) readRaw(lba uint32) ([]byte, *Track, error) {
	i := img.TrackAt(lba)
	if i < 0 {
		return make([]byte, sectorSizeRaw), nil, nil
	}
	t := &img.tracks[i]
	if b, ok := img.cache.Get(lba); ok {
		return b, t, nil
	}

	buf := make([]byte, t.SectorSize)
	off := t.Offset + int64(lba-t.StartLBA)*int64(t.SectorSize)
	if data, ok := img.preload[t.File]; ok {
		if off < int64(len(data)) {
			copy(buf, data[off:])
		}
	} else {
		f, err := img.open(t.File)
		if err != nil {
			return nil, t, err
		}
		if _, err := f.ReadAt(buf, off); err != nil && err != io.EOF {
			return nil, t, fmt.Errorf("read sector %d: %w", lba, err)
		}
	}
	img.cache.Add(lba, buf)
	return buf, t, nil
}

func (img *CDImage) open(name string) (afero.File, error) {
	if f, ok := img.files[name]; ok {
		return f, nil
	}
	f, err := img.fs.Open(name)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, ErrMissingTrackImage)
	}
	img.files[name] = f
	return f, nil
}

// ReadData returns the 2048 byte user data of a mode 1 sector.
func (img *CDImage) ReadData(lba uint32) ([]byte, error) {
	raw, t, err := img.readRaw(lba)
	if err != nil {
		return nil, err
	}
	if t != nil && t.Type == TrackMode1_2048 {
		return raw, nil
	}
	// Skip sync and header of a raw mode 1 sector.
	return raw[16 : 16+sectorSizeData], nil
}

// ReadAudio returns the 2352 bytes of a CD-DA sector.
func (img *CDImage) ReadAudio(lba uint32) ([]byte, error) {
	raw, t, err := img.readRaw(lba)
	if err != nil {
		return nil, err
	}
	if t == nil || t.SectorSize == sectorSizeRaw {
		return raw, nil
	}
	return make([]byte, sectorSizeRaw), nil
}

// CRC identifies the disc by its layout and the first sectors of the first
// data track.
func (img *CDImage) CRC() uint32 {
	h := crc32.NewIEEE()
	for _, t := range img.tracks {
		fmt.Fprintf(h, "%d:%d:%d:%d;", t.Number, t.Type, t.StartLBA, t.EndLBA)
	}
	for _, t := range img.tracks {
		if t.IsAudio() {
			continue
		}
		for lba := t.StartLBA; lba < t.StartLBA+16 && lba <= t.EndLBA; lba++ {
			if b, err := img.ReadData(lba); err == nil {
				h.Write(b)
			}
		}
		break
	}
	return h.Sum32()
}

// --- MSF helpers ---

// LBAToMSF converts a sector address to minutes, seconds and frames.
func LBAToMSF(lba uint32) (m, s, f uint8) {
	m = uint8(lba / (60 * 75))
	s = uint8(lba / 75 % 60)
	f = uint8(lba % 75)
	return m, s, f
}

// MSFToLBA converts minutes, seconds and frames to a sector address.
func MSFToLBA(m, s, f uint8) uint32 {
	return (uint32(m)*60+uint32(s))*75 + uint32(f)
}

func toBCD(v uint8) uint8   { return v/10<<4 | v%10 }
func fromBCD(v uint8) uint8 { return v>>4*10 + v&0x0F }
