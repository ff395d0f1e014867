package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arloliu/pksave/errs"
	"github.com/arloliu/pksave/value"
)

func newDumpCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "dump <file>",
		Short: "Print the decoded tree as YAML",
		Long: `Print the whole decoded tree of a save container as YAML.

Integers are tagged with their width (!u16, !u32, !u64), uninterpreted
payloads are printed as !opaque hex and booleans stored with a byte other
than 0 or 1 as !bool.

Example:
  pksave dump main.sav`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, _, err := a.open(args[0])
			if err != nil {
				return err
			}

			return writeYAML(cmd.OutOrStdout(), renderValue(doc.Root))
		},
	}
}

func newGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <file> <path>",
		Short: "Print one field of the tree",
		Long: `Print the field at a dotted path as YAML.

Example:
  pksave get main.sav player.tutorial_done`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, _, err := a.open(args[0])
			if err != nil {
				return err
			}

			slot := doc.Lookup(value.SplitPath(args[1])...)
			if slot == nil {
				return fmt.Errorf("%w: %s", errs.ErrPathNotFound, args[1])
			}

			return writeYAML(cmd.OutOrStdout(), renderValue(*slot))
		},
	}
}
