// Package main provides the entry point for the skyforge command line
// client. The client is a thin layer over the skyforge server API: it
// manages the access token lifecycle and dispatches one request per
// invocation.
package main

import (
	"github.com/joho/godotenv"

	"github.com/skyforge-project/skyforge-cli/internal/buildinfo"
	"github.com/skyforge-project/skyforge-cli/internal/cmd"
	"github.com/skyforge-project/skyforge-cli/internal/logging"
)

var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func init() {
	logging.Setup()
	buildinfo.Version = Version
	buildinfo.Commit = Commit
	buildinfo.BuildDate = BuildDate
}

func main() {
	// A .env file in the working directory can seed proxy or server
	// settings; missing files are ignored.
	_ = godotenv.Load()

	cmd.Execute()
}
