package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jakoblorz/ui5lab-combine/internal/filesystem"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// NewRootCommand creates the root command
func NewRootCommand(fs filesystem.FileSystem) *cobra.Command {
	cmd := &CombineCommand{
		fs:        fs,
		lookupEnv: os.LookupEnv,
	}
	return cmd.Command()
}

// Execute runs the root command
func Execute() error {
	// .env never overrides variables that are already set.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := NewRootCommand(filesystem.NewOSFileSystem())

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		return fmt.Errorf("command failed: %w", err)
	}

	return nil
}
