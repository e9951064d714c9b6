package main

import "github.com/UnknownOlympus/pinpoint/internal/cli"

// Version is stamped at build time with -ldflags "-X main.Version=...".
var Version = "development"

// main is the entry point of the application.
func main() {
	cli.Execute(Version)
}
