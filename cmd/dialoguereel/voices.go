package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newVoicesCommand(env *environment) *cobra.Command {
	return &cobra.Command{
		Use:   "voices",
		Short: "List the voices available from the synthesis provider",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			application, err := env.newApp()
			if err != nil {
				return err
			}
			defer application.Logger().Sync()

			voices, err := application.ListVoices(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(env.stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "VOICE ID\tNAME\tCATEGORY")
			for _, v := range voices {
				fmt.Fprintf(w, "%s\t%s\t%s\n", v.ID, v.Name, v.Category)
			}
			return w.Flush()
		},
	}
}
