package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"dialoguereel/internal/dialogue"
)

func newRenderCommand(env *environment) *cobra.Command {
	var (
		output string
		stats  bool
	)

	cmd := &cobra.Command{
		Use:     "render <script.yaml>",
		Short:   "Synthesize a dialogue script and render it to video",
		Example: `dialoguereel render scripts/garage.yaml -o out/garage.mp4`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := env.newApp()
			if err != nil {
				return err
			}
			defer application.Logger().Sync()

			file, err := env.fs.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open script: %w", err)
			}
			defer file.Close()

			script, err := dialogue.LoadScript(file, application.Roster())
			if err != nil {
				return err
			}

			if output == "" {
				output = strings.TrimSuffix(args[0], filepath.Ext(args[0])) + ".mp4"
			}

			report, err := application.Render(cmd.Context(), script, output)
			if err != nil {
				return err
			}

			fmt.Fprintf(env.stdout, "Rendered %d lines (%.2fs) to %s [job %s]\n",
				report.Lines, report.Duration, report.Output, report.JobID)
			if stats {
				fmt.Fprintln(env.stdout, application.SynthesisSummary())
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: script name with .mp4)")
	cmd.Flags().BoolVar(&stats, "stats", false, "print synthesis latency statistics")
	return cmd
}
