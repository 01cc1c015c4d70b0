package emu

import "errors"

// Errors surfaced to the host. Loader failures wrap one of these with
// context so callers can test with errors.Is.
var (
	ErrInvalidPath              = errors.New("invalid path")
	ErrUnsupportedFormat        = errors.New("unsupported format")
	ErrEmptyFile                = errors.New("empty file")
	ErrBadSize                  = errors.New("bad size")
	ErrCueParse                 = errors.New("cue parse error")
	ErrMissingTrackImage        = errors.New("missing track image")
	ErrUnsupportedTrackType     = errors.New("unsupported track type")
	ErrBiosRequired             = errors.New("bios required")
	ErrBiosInvalid              = errors.New("bios invalid")
	ErrSaveStateMagicMismatch   = errors.New("save state magic mismatch")
	ErrSaveStateVersionMismatch = errors.New("save state version mismatch")
	ErrSaveStateTruncated       = errors.New("save state truncated")
	ErrSaveStateCorrupt         = errors.New("save state field out of range")
	ErrSaveStateWrongMedia      = errors.New("save state is for different media")
	ErrAudioBufferOverflow      = errors.New("audio buffer overflow")
	ErrNoMedia                  = errors.New("no media loaded")
)
