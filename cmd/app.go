package cmd

import (
	"gopkg.in/urfave/cli.v1"
)

var (
	ephemeralFlag = cli.BoolFlag{
		Name:  "ephemeral",
		Usage: "Keep rounds and reveals in memory instead of Postgres and bbolt",
	}
	participantFlag = cli.StringFlag{
		Name:  "participant",
		Usage: "Hex address of the participant",
	}
	choicesFlag = cli.StringFlag{
		Name:  "choices",
		Usage: "Three choice bits, e.g. 101",
	}
	commitmentFlag = cli.StringFlag{
		Name:  "commitment",
		Usage: "Hex commitment to brute force instead of computing one",
	}
	blockTimeFlag = cli.Uint64Flag{
		Name:  "block-time",
		Usage: "Block time recorded with the draw",
	}
	difficultyFlag = cli.Uint64Flag{
		Name:  "difficulty",
		Usage: "Difficulty recorded with the draw",
	}
	entriesFlag = cli.IntFlag{
		Name:  "entries",
		Usage: "Number of entries in the round at draw time",
	}
	secretFlag = cli.StringFlag{
		Name:  "secret",
		Usage: "Round secret disclosed after the draw",
	}
)

// NewApp builds the lottery command line
func NewApp() *cli.App {
	app := cli.NewApp()
	app.Name = "fhelotto"
	app.Usage = "commit-reveal lottery round engine"
	app.Commands = []cli.Command{
		{
			Name:   "serve",
			Usage:  "Run the lottery engine, command consumer and draw worker",
			Flags:  []cli.Flag{ephemeralFlag},
			Action: serveAction,
		},
		{
			Name:  "migrate",
			Usage: "Manage database migrations",
			Subcommands: []cli.Command{
				{Name: "up", Usage: "Apply all pending migrations", Action: migrateUpAction},
				{Name: "down", Usage: "Roll back migrations", ArgsUsage: "[steps]", Action: migrateDownAction},
				{Name: "status", Usage: "Show the current migration version", Action: migrateStatusAction},
			},
		},
		{
			Name:   "status",
			Usage:  "Print the journaled round and winner history",
			Action: statusAction,
		},
		{
			Name:   "commit",
			Usage:  "Compute a commitment, or recover the choices behind one",
			Flags:  []cli.Flag{participantFlag, choicesFlag, commitmentFlag},
			Action: commitAction,
		},
		{
			Name:   "verify-draw",
			Usage:  "Recompute the winning index from published draw inputs",
			Flags:  []cli.Flag{blockTimeFlag, difficultyFlag, entriesFlag, secretFlag},
			Action: verifyDrawAction,
		},
	}
	return app
}
