package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vango-dev/auto/internal/demo"
	"github.com/vango-dev/auto/internal/server"
	"github.com/vango-dev/auto/pkg/auto"
)

func inspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect",
		Short: "Print the annotated fields of the built-in classes",
		Long: `Define the demo dashboard and the server's feed connection classes
on a fresh registry and print every annotated field in registration order,
with its kind and type.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := builtinRegistry()
			if err != nil {
				return err
			}
			return printRegistry(cmd.OutOrStdout(), r)
		},
	}
}

func builtinRegistry() (*auto.Registry, error) {
	r := auto.NewRegistry()
	if _, err := demo.Define(r); err != nil {
		return nil, err
	}
	if err := server.Define(r); err != nil {
		return nil, err
	}
	return r, nil
}

func printRegistry(out io.Writer, r *auto.Registry) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, class := range r.Classes() {
		fmt.Fprintf(w, "%s\n", class)
		for _, f := range r.All(class) {
			fmt.Fprintf(w, "  %s\t%s\t%s\n", f.Name, f.Kind, f.Type)
		}
		fmt.Fprintln(w)
	}
	return w.Flush()
}
