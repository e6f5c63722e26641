package main

// Version variables for the binary, typically overridden at build time:
//
//	go build -ldflags "-X main.version=1.2.3 -X main.commit=$(git rev-parse --short HEAD) -X main.date=$(date -u +%Y-%m-%d)"

// These values are logged once at startup and exposed as build_info.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)
