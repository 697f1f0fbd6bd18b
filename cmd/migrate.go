package cmd

import (
	"fmt"
	"strconv"

	"fhelotto/database"

	"gopkg.in/urfave/cli.v1"
)

func migrateUpAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	return database.MigrateUp(cfg.GetDatabaseURL())
}

func migrateDownAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	steps := 1
	if arg := c.Args().First(); arg != "" {
		steps, err = strconv.Atoi(arg)
		if err != nil {
			return fmt.Errorf("invalid steps value %q: %w", arg, err)
		}
	}
	return database.MigrateDown(cfg.GetDatabaseURL(), steps)
}

func migrateStatusAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	status, err := database.GetMigrationStatus(cfg.GetDatabaseURL())
	if err != nil {
		return err
	}
	if !status.Applied {
		fmt.Fprintln(c.App.Writer, "No migrations applied")
		return nil
	}
	fmt.Fprintf(c.App.Writer, "Current version: %d (dirty: %t)\n", status.Version, status.Dirty)
	return nil
}
