package emu

import (
	"fmt"
	"log"
)

// Kinds of runtime conditions that are reported once and then suppressed.
const (
	logUnknownOpcode   = "unknown opcode"
	logUnknownSCSI     = "unknown scsi command"
	logUnhandledIO     = "unhandled io"
	logAudioOverflow   = "audio overflow"
	logUnreadableTrack = "unreadable track"
)

// logOnce reports each kind of runtime anomaly a single time. The emulator
// keeps running after any of them.
type logOnce struct {
	seen map[string]bool
}

func newLogOnce() *logOnce {
	return &logOnce{seen: make(map[string]bool)}
}

func (l *logOnce) printf(kind string, format string, args ...any) {
	if l == nil || l.seen[kind] {
		return
	}
	l.seen[kind] = true
	log.Printf("%s: %s (further reports suppressed)", kind, fmt.Sprintf(format, args...))
}
