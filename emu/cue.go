package emu

import (
	"bufio"
	"bytes"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/spf13/afero"
	"golang.org/x/text/encoding/japanese"
)

type cueTrack struct {
	file    string
	number  int
	typ     TrackType
	index0  int // frames into the file, -1 when absent
	index1  int
	pregap  int
	postgap int
}

// parseCue parses a cue sheet. Sheets that are not valid UTF-8 are decoded
// as Shift-JIS.
func parseCue(data []byte) ([]cueTrack, error) {
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})
	if !utf8.Valid(data) {
		dec, err := japanese.ShiftJIS.NewDecoder().Bytes(data)
		if err != nil {
			return nil, fmt.Errorf("decode cue: %w", ErrCueParse)
		}
		data = dec
	}

	var (
		tracks []cueTrack
		file   string
		cur    *cueTrack
	)
	sc := bufio.NewScanner(bytes.NewReader(data))
	line := 0
	for sc.Scan() {
		line++
		fields := cueFields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		bad := func(msg string) error {
			return fmt.Errorf("line %d: %s: %w", line, msg, ErrCueParse)
		}

		switch strings.ToUpper(fields[0]) {
		case "FILE":
			if len(fields) < 3 {
				return nil, bad("FILE needs a name and a type")
			}
			if t := strings.ToUpper(fields[2]); t != "BINARY" {
				return nil, fmt.Errorf("line %d: file type %s: %w", line, t, ErrUnsupportedFormat)
			}
			file = fields[1]
			cur = nil
		case "TRACK":
			if file == "" {
				return nil, bad("TRACK before FILE")
			}
			if len(fields) < 3 {
				return nil, bad("TRACK needs a number and a type")
			}
			n, err := strconv.Atoi(fields[1])
			if err != nil || n < 1 || n > 99 {
				return nil, bad("bad track number")
			}
			typ, err := parseTrackType(fields[2])
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			tracks = append(tracks, cueTrack{file: file, number: n, typ: typ, index0: -1, index1: -1})
			cur = &tracks[len(tracks)-1]
		case "INDEX":
			if cur == nil {
				return nil, bad("INDEX outside TRACK")
			}
			if len(fields) < 3 {
				return nil, bad("INDEX needs a number and a position")
			}
			pos, err := parseMSF(fields[2])
			if err != nil {
				return nil, bad(err.Error())
			}
			switch fields[1] {
			case "00", "0":
				cur.index0 = pos
			case "01", "1":
				cur.index1 = pos
			}
		case "PREGAP", "POSTGAP":
			if cur == nil || len(fields) < 2 {
				return nil, bad(fields[0] + " outside TRACK")
			}
			pos, err := parseMSF(fields[1])
			if err != nil {
				return nil, bad(err.Error())
			}
			if strings.EqualFold(fields[0], "PREGAP") {
				cur.pregap = pos
			} else {
				cur.postgap = pos
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(tracks) == 0 {
		return nil, fmt.Errorf("no tracks: %w", ErrCueParse)
	}
	for _, t := range tracks {
		if t.index1 < 0 {
			return nil, fmt.Errorf("track %d has no INDEX 01: %w", t.number, ErrCueParse)
		}
	}
	return tracks, nil
}

// cueFields splits a cue line on spaces, keeping quoted strings whole.
func cueFields(s string) []string {
	var out []string
	s = strings.TrimSpace(s)
	for s != "" {
		if s[0] == '"' {
			end := strings.IndexByte(s[1:], '"')
			if end < 0 {
				out = append(out, s[1:])
				break
			}
			out = append(out, s[1:end+1])
			s = strings.TrimSpace(s[end+2:])
			continue
		}
		end := strings.IndexAny(s, " \t")
		if end < 0 {
			out = append(out, s)
			break
		}
		out = append(out, s[:end])
		s = strings.TrimSpace(s[end:])
	}
	return out
}

func parseTrackType(s string) (TrackType, error) {
	switch strings.ToUpper(s) {
	case "AUDIO":
		return TrackAudio, nil
	case "MODE1/2048":
		return TrackMode1_2048, nil
	case "MODE1/2352":
		return TrackMode1_2352, nil
	}
	return 0, fmt.Errorf("track type %s: %w", s, ErrUnsupportedTrackType)
}

// parseMSF parses mm:ss:ff into a frame count.
func parseMSF(s string) (int, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("bad position %q", s)
	}
	var v [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("bad position %q", s)
		}
		v[i] = n
	}
	if v[1] >= 60 || v[2] >= 75 {
		return 0, fmt.Errorf("bad position %q", s)
	}
	return (v[0]*60+v[1])*75 + v[2], nil
}

// OpenCue loads a cue sheet and lays its tracks out on a disc. Track file
// names are resolved relative to the sheet.
func OpenCue(fs afero.Fs, path string) (*CDImage, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, ErrInvalidPath)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrEmptyFile)
	}
	sheet, err := parseCue(data)
	if err != nil {
		return nil, err
	}

	dir := filepath.Dir(path)
	sizes := make(map[string]int64)
	for i := range sheet {
		name, err := resolveTrackFile(fs, dir, sheet[i].file)
		if err != nil {
			return nil, err
		}
		sheet[i].file = name
		if _, ok := sizes[name]; !ok {
			st, err := fs.Stat(name)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", name, ErrMissingTrackImage)
			}
			sizes[name] = st.Size()
		}
	}
	return newCDImage(fs, layoutTracks(sheet, sizes))
}

// resolveTrackFile finds a track file next to the cue sheet, falling back
// to a case-insensitive match.
func resolveTrackFile(fs afero.Fs, dir, name string) (string, error) {
	p := filepath.Join(dir, filepath.FromSlash(strings.ReplaceAll(name, "\\", "/")))
	if ok, _ := afero.Exists(fs, p); ok {
		return p, nil
	}
	entries, err := afero.ReadDir(fs, dir)
	if err == nil {
		base := filepath.Base(p)
		for _, e := range entries {
			if strings.EqualFold(e.Name(), base) {
				return filepath.Join(dir, e.Name()), nil
			}
		}
	}
	return "", fmt.Errorf("%s: %w", name, ErrMissingTrackImage)
}

// layoutTracks assigns disc LBAs. Files follow each other on the disc and
// PREGAP/POSTGAP directives insert sectors that are not in any file.
func layoutTracks(sheet []cueTrack, sizes map[string]int64) []Track {
	tracks := make([]Track, len(sheet))
	var fileBase, gap uint32
	for i := range sheet {
		s := &sheet[i]
		if i > 0 && s.file != sheet[i-1].file {
			prev := sheet[i-1]
			fileBase += uint32(sizes[prev.file] / int64(prev.typ.SectorSize()))
		}
		gap += uint32(s.pregap)
		tracks[i] = Track{
			Number:     s.number,
			Type:       s.typ,
			StartLBA:   fileBase + gap + uint32(s.index1),
			SectorSize: s.typ.SectorSize(),
			File:       s.file,
			Offset:     int64(s.index1) * int64(s.typ.SectorSize()),
		}
		gap += uint32(s.postgap)
	}

	for i := range tracks {
		if i+1 < len(sheet) && sheet[i+1].file == sheet[i].file {
			next := sheet[i+1]
			end := next.index1
			if next.index0 >= 0 {
				end = next.index0
			}
			tracks[i].EndLBA = tracks[i].StartLBA + uint32(max(end-sheet[i].index1, 1)) - 1
			continue
		}
		sectors := int(sizes[sheet[i].file]/int64(tracks[i].SectorSize)) - sheet[i].index1
		tracks[i].EndLBA = tracks[i].StartLBA + uint32(max(sectors, 1)) - 1
	}
	return tracks
}
