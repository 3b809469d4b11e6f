package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newInfoCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Print effective configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, err := a.context()
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), a.cfg.String())
			fmt.Fprintf(cmd.OutOrStdout(), "# nodes: %d\n", ctx.Len())
			return nil
		},
	}
}
