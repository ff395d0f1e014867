package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/arloliu/pksave/backup"
	"github.com/arloliu/pksave/value"
)

func newSetCmd(a *app) *cobra.Command {
	var (
		kind     string
		output   string
		noBackup bool
	)

	setCmd := &cobra.Command{
		Use:   "set <file> <path> <value>",
		Short: "Rewrite one field and save the container",
		Long: `Set the field at a dotted path and write the container back.

The value is parsed as the type of the field it replaces unless --type is
given; --type is required to add a new field. Unless disabled, the file being
overwritten is first copied to a compressed backup.

Example:
  pksave set main.sav player.tutorial_done true
  pksave set main.sav player.money 99999 --type u32 -o edited.sav`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			input, path, text := args[0], value.SplitPath(args[1]), args[2]
			if output == "" {
				output = input
			}

			doc, original, err := a.open(input)
			if err != nil {
				return err
			}

			var current value.Value
			if slot := doc.Lookup(path...); slot != nil {
				current = *slot
			}
			v, err := parseValue(kind, text, current)
			if err != nil {
				return fmt.Errorf("parse %q: %w", text, err)
			}
			if err := doc.Set(path, v); err != nil {
				return err
			}

			out, err := doc.Bytes()
			if err != nil {
				return err
			}
			a.logger.Debug("rebuilt container", "bytes", len(out))

			if !noBackup && a.config.Backup.Enabled {
				if err := a.backupExisting(output, input, original); err != nil {
					return err
				}
			}

			if err := writeFileLike(output, input, out); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s = %s\n", output, value.JoinPath(path), text)

			return nil
		},
	}

	setCmd.Flags().StringVarP(&kind, "type", "t", "", "Value type: bool, u16, u32, u64, string or opaque")
	setCmd.Flags().StringVarP(&output, "output", "o", "", "Write the container here instead of overwriting the input")
	setCmd.Flags().BoolVar(&noBackup, "no-backup", false, "Do not back up the file being overwritten")

	return setCmd
}

// backupExisting stores the current contents of target, if it exists, as a
// backup file.
func (a *app) backupExisting(target, input string, original []byte) error {
	data := original
	if target != input {
		existing, err := os.ReadFile(target)
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		if err != nil {
			return err
		}
		data = existing
	}

	ct, err := a.config.BackupCompression()
	if err != nil {
		return err
	}

	name := target
	if dir := a.config.Backup.Dir; dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create backup directory: %w", err)
		}
		name = filepath.Join(dir, filepath.Base(target))
	}
	path := backup.Path(name, time.Now())

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return err
	}
	if err := backup.Write(f, data, ct); err != nil {
		_ = f.Close()
		return fmt.Errorf("write backup %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	a.logger.Info("backup written", "path", path, "compression", ct.String())

	return nil
}

// writeFileLike writes data to path with the permissions of like, or 0644
// when like does not exist.
func writeFileLike(path, like string, data []byte) error {
	perm := fs.FileMode(0o644)
	if info, err := os.Stat(like); err == nil {
		perm = info.Mode().Perm()
	}

	return os.WriteFile(path, data, perm)
}
