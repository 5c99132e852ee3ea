package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"dialoguereel/internal/logger"
)

var (
	version   = "dev"
	gitCommit string
	buildTime string
)

// main is the application entry point
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := NewRootCommand(defaultEnvironment()).ExecuteContext(ctx); err != nil {
		// the application logger may not exist yet
		bootstrap := logger.NewLogger()
		bootstrap.Error("Command failed",
			zap.String("version", version),
			zap.String("git_commit", gitCommit),
			zap.Error(err))
		_ = bootstrap.Sync()
		stop()
		os.Exit(1)
	}
}
