package main

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/vango-dev/auto/internal/errors"
)

func versionCmd() *cobra.Command {
	var short bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long: `Print version, commit, and build information for the auto CLI.

Binaries installed with 'go install' report the module version
recorded in the build info.`,
		Run: func(cmd *cobra.Command, args []string) {
			v := resolveVersion()
			if short {
				fmt.Println(v)
				return
			}

			printBanner()
			fmt.Println()
			fmt.Printf("  Version:     %s\n", v)
			fmt.Printf("  Commit:      %s\n", commit)
			fmt.Printf("  Built:       %s\n", date)
			fmt.Printf("  Go version:  %s\n", runtime.Version())
			fmt.Printf("  OS/Arch:     %s/%s\n", runtime.GOOS, runtime.GOARCH)
			fmt.Printf("  Error codes: %d\n", len(errors.GetAllCodes()))
			fmt.Println()
		},
	}

	cmd.Flags().BoolVarP(&short, "short", "s", false, "Print only version number")

	return cmd
}

// resolveVersion prefers the linker-set version, then the module version.
func resolveVersion() string {
	if version != "dev" {
		return version
	}
	if bi, ok := debug.ReadBuildInfo(); ok && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		return bi.Main.Version
	}
	return version
}
