package main

import (
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/Jayke770/stablebot-worker/cmd/utils"
	"github.com/Jayke770/stablebot-worker/log"
	"github.com/Jayke770/stablebot-worker/params"
	rpcserver "github.com/Jayke770/stablebot-worker/rpc/server"
	"github.com/Jayke770/stablebot-worker/worker"
)

var (
	clientIdentifier = "stablebotworker"
	// Git SHA1 commit hash of the release (set via linker flags)
	gitCommit = ""
	gitDate   = ""
	// The app that holds all commands and flags.
	app = utils.NewApp(clientIdentifier, gitCommit, gitDate, "the stablebot settlement worker command line interface")
)

func initApp() {
	// Initialize the CLI app and start action
	app.Action = stablebotworker
	app.HideVersion = true // we have a command to print the version
	app.Commands = []*cli.Command{
		utils.VersionCommand,
	}
	app.Flags = []cli.Flag{
		utils.ConfigFileFlag,
		utils.VerbosityFlag,
		utils.JSONFormatFlag,
		utils.ColorFormatFlag,
	}
	sort.Sort(cli.CommandsByName(app.Commands))
}

func main() {
	initApp()
	if err := app.Run(os.Args); err != nil {
		log.Println(err)
		os.Exit(1)
	}
}

func stablebotworker(ctx *cli.Context) error {
	utils.SetLogger(ctx)
	if ctx.NArg() > 0 {
		return fmt.Errorf("invalid command: %q", ctx.Args().Get(0))
	}
	exitCh := make(chan struct{})
	configFile := utils.GetConfigFilePath(ctx)
	params.LoadConfig(configFile)

	worker.StartWork(exitCh)
	time.Sleep(100 * time.Millisecond)
	rpcserver.StartAPIServer()

	<-exitCh
	return nil
}
