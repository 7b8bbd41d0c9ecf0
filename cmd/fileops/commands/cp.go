package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pressdrop/fileops/internal/bytesize"
	"github.com/pressdrop/fileops/pkg/fsx"
)

var (
	cpOverwrite bool
	cpIfNewer   bool
)

var cpCmd = &cobra.Command{
	Use:   "cp SRC DST",
	Short: "Copy a file",
	Long: `Copy a regular file, preserving mode and timestamps.

Missing parent directories of the destination are created. An existing
destination is refused unless --overwrite is given. With --if-newer the
copy is skipped when the destination is at least as recent as the source.

Examples:
  fileops cp report.pdf /srv/files/report.pdf
  fileops cp --overwrite --if-newer build/app.tar.gz releases/app.tar.gz`,
	Args: cobra.ExactArgs(2),
	RunE: runCp,
}

func init() {
	cpCmd.Flags().BoolVar(&cpOverwrite, "overwrite", false, "Replace an existing destination")
	cpCmd.Flags().BoolVar(&cpIfNewer, "if-newer", false, "Copy only when the source is newer than the destination")
}

func runCp(cmd *cobra.Command, args []string) error {
	src := fsx.NewFile(args[0])
	if cpIfNewer && !src.IsNewer(fsx.NewFile(args[1])) {
		fmt.Printf("Skipped %s: destination is up to date\n", args[1])
		return nil
	}

	n, err := src.Copy(args[1], cpOverwrite)
	if err != nil {
		return err
	}
	fmt.Printf("Copied %s -> %s (%s)\n", args[0], args[1], bytesize.Format(n))
	return nil
}
