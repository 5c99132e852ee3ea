package main

import (
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"dialoguereel/internal/app"
)

// environment carries what commands need from the outside world
type environment struct {
	fs     afero.Fs
	stdout io.Writer
	newApp func() (*app.Application, error)
}

func defaultEnvironment() *environment {
	return &environment{
		fs:     afero.NewOsFs(),
		stdout: os.Stdout,
		newApp: app.NewApplication,
	}
}

// NewRootCommand assembles the dialoguereel command tree
func NewRootCommand(env *environment) *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "dialoguereel",
		Short: "Build voice corpora from annotated episodes and render dialogue reels",
		Long: `dialoguereel cuts speaker-tagged transcript utterances out of episode audio
into a voice training corpus, and renders scripted dialogue into short vertical
videos with speaker overlays, captions and a background track.

Configuration is read from the file named by --config or CONFIG_PATH, otherwise
from REEL_* environment variables.`,
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			if configPath != "" {
				return os.Setenv("CONFIG_PATH", configPath)
			}
			return nil
		},
	}
	cmd.SetOut(env.stdout)
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to the configuration file")

	cmd.AddCommand(
		newCorpusCommand(env),
		newRenderCommand(env),
		newServeCommand(env),
		newVoicesCommand(env),
		newVersionCommand(env),
	)
	return cmd
}

func newVersionCommand(env *environment) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			printVersion(env.stdout)
		},
	}
}

func formatVersion() string {
	v := version
	if gitCommit != "" {
		v += fmt.Sprintf(" (git: %s)", gitCommit)
	}
	return v
}

func printVersion(w io.Writer) {
	fmt.Fprintf(w, "dialoguereel %s\n", formatVersion())
	if buildTime != "" {
		fmt.Fprintf(w, "  Build: %s\n", buildTime)
	}
	fmt.Fprintf(w, "  Go: %s\n", runtime.Version())
}
