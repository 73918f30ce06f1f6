package main

import (
	"github.com/retroenv/retrogolib/buildinfo"
)

// Set by -ldflags "-X main.version=... -X main.commit=... -X main.date=...".
var (
	version = "dev"
	commit  = ""
	date    = ""
)

// Version is the human readable build string.
var Version = buildinfo.Version(version, commit, date)
