package cli

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	buildRebuild bool
	buildWatch   bool
)

var buildCmd = &cobra.Command{
	Use:   "build [sourceDir]",
	Short: "Build the document index",
	Long: `Loads every supported document under sourceDir, splits it into
overlapping chunks, embeds them and persists the result. A collection
that already holds chunks is reused unless --rebuild is given.`,
	Args: cobra.ExactArgs(1),
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().BoolVar(&buildRebuild, "rebuild", false, "discard the existing collection and re-index from scratch")
	buildCmd.Flags().BoolVarP(&buildWatch, "watch", "w", false, "keep running and re-index files as they change")
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	if err := ensureSession(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	size, err := session.BuildIndex(ctx, args[0], buildRebuild)
	if err != nil {
		return err
	}
	cmd.Printf("Index ready: %d chunks in collection %q\n", size, cfg.CollectionName)

	if !buildWatch {
		return nil
	}
	if sessionWatcher == nil {
		return errors.New("watch mode not supported by this session")
	}

	cmd.Printf("Watching %s for changes (ctrl-c to stop)\n", args[0])
	if err := sessionWatcher.Watch(ctx, args[0]); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
