package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/arloliu/pksave"
	"github.com/arloliu/pksave/backup"
)

func newRestoreCmd(a *app) *cobra.Command {
	var output string

	restoreCmd := &cobra.Command{
		Use:   "restore <backup>",
		Short: "Restore a container from a backup",
		Long: `Decompress a backup written by "pksave set" and write the original
container back. Without --output the file next to the backup that it was
taken of is overwritten. When backup.dir is configured backups no longer sit
next to their save, so --output is required.

Example:
  pksave restore main.sav.20240309T160405Z.pksb`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := output
			if target == "" {
				if a.config.Backup.Dir != "" {
					return fmt.Errorf("--output is required when backup.dir is set (%s)", a.config.Backup.Dir)
				}

				var err error
				if target, err = backup.TargetOf(args[0]); err != nil {
					return err
				}
			}

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			data, err := backup.Read(f)
			if err != nil {
				return fmt.Errorf("read backup %s: %w", args[0], err)
			}

			// Restoring an unreadable container is allowed; the check only informs.
			if opts, err := a.config.Options(); err == nil {
				if _, err := pksave.Open(data, opts...); err != nil {
					a.logger.Warn("restored data does not open with the current configuration", "error", err)
				}
			}

			if err := writeFileLike(target, target, data); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "restored %s (%d bytes)\n", target, len(data))

			return nil
		},
	}

	restoreCmd.Flags().StringVarP(&output, "output", "o", "", "Write the restored container here")

	return restoreCmd
}
