package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pressdrop/fileops/pkg/fsx"
)

var mvOverwrite bool

var mvCmd = &cobra.Command{
	Use:   "mv SRC DST",
	Short: "Move a file",
	Long: `Move a regular file, by rename when possible and by copy-plus-unlink
across filesystems. Missing parent directories of the destination are
created. A rename that only changes letter case is handled safely on
case-insensitive filesystems.

Examples:
  fileops mv staging/app.tar.gz releases/app.tar.gz
  fileops mv --overwrite readme.txt README.txt`,
	Args: cobra.ExactArgs(2),
	RunE: runMv,
}

func init() {
	mvCmd.Flags().BoolVar(&mvOverwrite, "overwrite", false, "Replace an existing destination")
}

func runMv(cmd *cobra.Command, args []string) error {
	if err := fsx.NewFile(args[0]).Move(args[1], mvOverwrite, true); err != nil {
		return err
	}
	fmt.Printf("Moved %s -> %s\n", args[0], args[1])
	return nil
}
