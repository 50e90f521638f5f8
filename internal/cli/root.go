// Package cli wires the doclore commands. Commands register themselves
// against rootCmd in their init functions; services are held in package
// variables so tests can substitute fakes.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/doclore/doclore/internal/config"
	"github.com/doclore/doclore/internal/core/ports/driving"
	"github.com/doclore/doclore/internal/logger"
)

// version is overridden at build time via -ldflags.
var version = "dev"

var (
	flagConfig  string
	flagVerbose bool
)

// cfg is the loaded configuration, available to all commands after
// the persistent pre-run.
var cfg *config.Config

// session is the knowledge session commands operate on. Left nil until
// a command needs it; tests inject fakes directly.
var session driving.KnowledgeSession

// watcher is the optional file-watching surface of the session.
type watcher interface {
	Watch(ctx context.Context, sourceDir string) error
}

// sessionWatcher is set alongside session when the concrete session
// supports watching.
var sessionWatcher watcher

// closers releases adapter resources after the command finishes.
var closers []func() error

var rootCmd = &cobra.Command{
	Use:   "doclore",
	Short: "Ask questions about your local documents",
	Long: `Doclore builds a searchable index over a directory of documents
(txt, markdown, pdf, docx, epub) and answers questions about them
using retrieval-augmented generation against a local or remote model.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

func loadConfig(cmd *cobra.Command, _ []string) error {
	if cfg != nil {
		return nil
	}

	path := flagConfig
	if path == "" {
		p, err := config.DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}

	loaded, err := config.Load(path)
	if err != nil {
		return err
	}
	cfg = loaded

	logger.SetLevel(logger.ParseLevel(cfg.LogLevel))
	logger.SetVerbose(flagVerbose)
	return nil
}

// ensureSession builds the session from the loaded configuration unless
// one was already injected.
func ensureSession() error {
	if session != nil {
		return nil
	}
	return wireSession()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to config file (default ~/.doclore/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
}

// Execute runs the root command and releases any adapter resources the
// invoked command acquired.
func Execute() error {
	err := rootCmd.Execute()
	for _, c := range closers {
		if cerr := c(); cerr != nil {
			logger.Warn("closing adapter: %v", cerr)
		}
	}
	closers = nil
	return err
}
