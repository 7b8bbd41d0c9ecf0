package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pressdrop/fileops/internal/cli/prompt"
	"github.com/pressdrop/fileops/pkg/fsx"
)

var rmForce bool

var rmCmd = &cobra.Command{
	Use:   "rm PATH...",
	Short: "Remove files and directories",
	Long: `Remove files, symbolic links and directories. Directories are removed
recursively after confirmation. Nonexistent paths are ignored.

Examples:
  fileops rm stale.tmp
  fileops rm --force build/ dist/`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRm,
}

func init() {
	rmCmd.Flags().BoolVarP(&rmForce, "force", "f", false, "Remove directories without confirmation")
}

func runRm(cmd *cobra.Command, args []string) error {
	for _, path := range args {
		f := fsx.NewFile(path)
		// A symlink to a directory is just unlinked, no confirmation.
		if f.IsDir() && !f.IsSymlink() {
			ok, err := prompt.ConfirmWithForce(
				fmt.Sprintf("Recursively remove directory %s", path), rmForce)
			if err != nil {
				return err
			}
			if !ok {
				fmt.Printf("Skipped %s\n", path)
				continue
			}
		}
		if err := f.Remove(); err != nil {
			return err
		}
	}
	return nil
}
