package utils

import (
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/Jayke770/stablebot-worker/params"
)

var (
	clientIdentifier string
	gitCommit        string
	gitDate          string
)

// NewApp builds the cli app skeleton shared by all commands and
// remembers the build identity for the version subcommand.
func NewApp(identifier, gitcommit, gitdate, usage string) *cli.App {
	clientIdentifier = identifier
	gitCommit = gitcommit
	gitDate = gitdate
	app := cli.NewApp()
	app.Name = filepath.Base(os.Args[0])
	app.Version = params.VersionWithCommit(gitCommit, gitDate)
	app.Usage = usage
	return app
}
