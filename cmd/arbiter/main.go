// Command arbiter runs tournaments from the terminal with the staff
// account "arbiter".
package main

import (
	"log"
	"os"

	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "arbiter",
		Usage: "manage swiss tournaments",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Value:   "config.yaml",
				Usage:   "path to the configuration file",
				EnvVars: []string{"CHESSEIRB_CONFIG"},
			},
		},
		Commands: []*cli.Command{
			migrateCommand(),
			createCommand(),
			lifecycleCommand("open", "open registration", openRegistration),
			lifecycleCommand("close", "close registration", closeRegistration),
			lifecycleCommand("start", "start the tournament and pair round 1", startTournament),
			lifecycleCommand("advance", "pair the next round", advanceRound),
			lifecycleCommand("complete", "complete the tournament", completeTournament),
			registerCommand(),
			resultCommand(),
			standingsCommand(),
			exportCommand(),
			tokenCommand(),
			usersCommand(),
		},
	}
}
