package emu

// Core identification reported to hosts and embedded in save states.
const (
	Name    = "empce"
	Version = "0.1.0"

	BuildString = Name + " " + Version
)
