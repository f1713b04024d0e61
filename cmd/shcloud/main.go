// Package main is the entry point for the shcloud CLI.
//
// shcloud is a command-line tool for declaring the desired state of
// SiteHost cloud resources (DNS zones and records, servers, Cloud
// Container stacks) in a YAML manifest and reconciling that state
// against the SiteHost API.
//
// For detailed usage information, run:
//
//	shcloud --help
package main

import (
	"fmt"
	"os"

	"github.com/sitehostnz/shcloud/cmd/shcloud/commands"
)

// Version information set by goreleaser at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.SetVersionInfo(version, commit, date)
	if err := commands.Root().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
