// Package cmd implements the pksave command line tool.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/arloliu/pksave"
	"github.com/arloliu/pksave/config"
)

// app is the state shared by every subcommand once the root command has
// loaded the configuration.
type app struct {
	configPath string
	magic      string
	checksum   string
	skipVerify bool
	verbose    bool

	config *config.Config
	logger *slog.Logger
}

// NewRootCmd builds the pksave command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "pksave",
		Short: "pksave - inspect and edit save containers",
		Long: `pksave opens a save container (a single-entry archive holding an
envelope around a tagged-value tree), prints or edits fields of the tree and
writes the container back with fresh checksums and sizes.

The envelope magic and checksum algorithm must be configured, either in the
config file or with --magic and --checksum.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load(cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", config.GetDefaultConfigPath(), "Path to the configuration file")
	flags.StringVar(&a.magic, "magic", "", "Envelope magic as 8 hex digits (overrides config)")
	flags.StringVar(&a.checksum, "checksum", "", "Envelope checksum algorithm (overrides config)")
	flags.BoolVar(&a.skipVerify, "skip-verify", false, "Do not verify the envelope checksum when opening")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "Log each pipeline stage to stderr")

	rootCmd.AddCommand(
		newDumpCmd(a),
		newGetCmd(a),
		newSetCmd(a),
		newRestoreCmd(a),
	)

	return rootCmd
}

// Execute runs the root command against os.Args.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(rootCmd.ErrOrStderr(), "Error: %v\n", err)
		return err
	}

	return nil
}

func (a *app) load(cmd *cobra.Command) error {
	switch {
	case config.ConfigExists(a.configPath):
		cfg, err := config.LoadConfig(a.configPath)
		if err != nil {
			return err
		}
		a.config = cfg
	case cmd.Flags().Changed("config"):
		return fmt.Errorf("config file does not exist: %s", a.configPath)
	default:
		a.config = config.DefaultConfig()
	}

	if a.magic != "" {
		a.config.Envelope.Magic = a.magic
	}
	if a.checksum != "" {
		a.config.Envelope.Checksum = a.checksum
	}
	if a.skipVerify {
		a.config.Envelope.SkipVerify = true
	}

	level, err := a.config.LogLevel()
	if err != nil {
		return err
	}
	if a.verbose {
		level = slog.LevelDebug
	}
	a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	return nil
}

// open reads and decodes the container at path.
func (a *app) open(path string) (*pksave.Document, []byte, error) {
	opts, err := a.config.Options()
	if err != nil {
		return nil, nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	a.logger.Debug("read container", "path", path, "bytes", len(data))

	doc, err := pksave.Open(data, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", path, err)
	}
	a.logger.Debug("decoded container",
		"entry_compressed", doc.Entry.CompressedSize,
		"entry_uncompressed", doc.Entry.UncompressedSize,
		"magic", fmt.Sprintf("%q", doc.Magic[:]),
		"root_pairs", doc.Root.Len(),
	)

	return doc, data, nil
}
