package main

import (
	"github.com/ksyq12/heroku-auto-ssl/internal/cli"
)

// version is set by goreleaser via ldflags
var version = "dev"

func main() {
	cli.SetVersion(version)
	cli.Execute()
}
