package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/auto/internal/config"
	"github.com/vango-dev/auto/internal/errors"
)

func initCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default auto.yaml",
		Long: `Write auto.yaml with default values to the current directory,
or to the path given with --config.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := configPath
			if path == "" {
				path = config.ConfigFileName
			}
			if _, err := os.Stat(path); err == nil && !force {
				return errors.Newf(errors.CategoryConfig, "%s already exists (use --force to overwrite)", path)
			}
			if err := config.New().SaveTo(path); err != nil {
				return err
			}
			success("Wrote %s", path)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing file")

	return cmd
}
