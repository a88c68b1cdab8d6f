package utils

import (
	"fmt"
	"runtime"

	"github.com/urfave/cli/v2"

	"github.com/Jayke770/stablebot-worker/params"
)

// VersionCommand prints the build identity, one field per line so it
// stays easy to grep from scripts.
var VersionCommand = &cli.Command{
	Action:    version,
	Name:      "version",
	Usage:     "Print version numbers",
	ArgsUsage: " ",
}

func version(ctx *cli.Context) error {
	fmt.Println(clientIdentifier)
	fmt.Println("Version:", params.VersionWithMeta)
	if gitCommit != "" {
		fmt.Println("Git Commit:", gitCommit)
	}
	if gitDate != "" {
		fmt.Println("Git Commit Date:", gitDate)
	}
	fmt.Println("Go Version:", runtime.Version())
	fmt.Println("OS/Arch:", runtime.GOOS+"/"+runtime.GOARCH)
	return nil
}
