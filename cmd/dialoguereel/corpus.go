package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"dialoguereel/internal/app"
	"dialoguereel/internal/dialogue"
)

func newCorpusCommand(env *environment) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "corpus",
		Short: "Build or check a voice training corpus",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(newCorpusBuildCommand(env), newCorpusCheckCommand(env))
	return cmd
}

func newCorpusBuildCommand(env *environment) *cobra.Command {
	var opts app.CorpusOptions

	cmd := &cobra.Command{
		Use:     "build",
		Short:   "Cut tagged utterances out of episode audio",
		Example: `dialoguereel corpus build --transcripts ./subs --audio ./episodes --output ./dataset --publish`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			application, err := env.newApp()
			if err != nil {
				return err
			}
			defer application.Logger().Sync()

			report, err := application.BuildCorpus(cmd.Context(), opts)
			if err != nil {
				return fmt.Errorf("corpus build failed: %w", err)
			}

			fmt.Fprintf(env.stdout, "Accepted %d utterances, rejected %d, from %d episodes\n",
				report.Accepted, report.Rejected, len(report.Episodes))
			for _, speaker := range application.Roster().Speakers() {
				if n := report.Stats.BySpeaker[speaker]; n > 0 {
					fmt.Fprintf(env.stdout, "  %s: %d\n", dialogue.DisplayName(speaker), n)
				}
			}
			for _, tr := range report.Unmatched {
				fmt.Fprintf(env.stdout, "  no audio for %s\n", tr)
			}
			if report.Publication != nil {
				fmt.Fprintf(env.stdout, "Published %d objects (%d skipped)\n",
					len(report.Publication.Uploaded), len(report.Publication.Skipped))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.TranscriptDir, "transcripts", "", "directory of annotated transcripts")
	cmd.Flags().StringVar(&opts.AudioDir, "audio", "", "directory of episode audio (wav or mp3)")
	cmd.Flags().StringVarP(&opts.OutputDir, "output", "o", "", "corpus output directory")
	cmd.Flags().BoolVar(&opts.Publish, "publish", false, "upload the corpus to the configured object store")
	_ = cmd.MarkFlagRequired("transcripts")
	_ = cmd.MarkFlagRequired("audio")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

func newCorpusCheckCommand(env *environment) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "check <dir>",
		Short: "Validate the metadata and audio of a corpus directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			application, err := env.newApp()
			if err != nil {
				return err
			}
			defer application.Logger().Sync()

			report, err := application.CheckCorpus(args[0])
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(env.stdout)
				enc.SetIndent("", "  ")
				if err := enc.Encode(report); err != nil {
					return err
				}
			} else {
				fmt.Fprintf(env.stdout, "%d entries, %d wav files\n", report.Entries, report.WavFiles)
				for _, missing := range report.MissingAudio {
					fmt.Fprintf(env.stdout, "  missing %s\n", missing)
				}
			}

			if !report.OK() {
				return fmt.Errorf("%d metadata rows have no audio", len(report.MissingAudio))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")
	return cmd
}
