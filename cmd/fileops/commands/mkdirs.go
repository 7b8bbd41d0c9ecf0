package commands

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/pressdrop/fileops/pkg/fsx"
)

var mkdirsMode string

var mkdirsCmd = &cobra.Command{
	Use:   "mkdirs PATH...",
	Short: "Create directories including parents",
	Long: `Create each directory along with any missing parents. Existing
directories are left untouched.

Examples:
  fileops mkdirs /srv/files/incoming
  fileops mkdirs --mode 0700 ~/.cache/fileops`,
	Args: cobra.MinimumNArgs(1),
	RunE: runMkdirs,
}

func init() {
	mkdirsCmd.Flags().StringVar(&mkdirsMode, "mode", "0755", "Permission for created directories (octal)")
}

func runMkdirs(cmd *cobra.Command, args []string) error {
	mode, err := strconv.ParseUint(mkdirsMode, 8, 32)
	if err != nil {
		return fmt.Errorf("invalid --mode %q: %w", mkdirsMode, err)
	}

	for _, path := range args {
		if err := fsx.NewDir(path).Create(os.FileMode(mode)); err != nil {
			return err
		}
	}
	return nil
}
