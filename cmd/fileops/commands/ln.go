package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pressdrop/fileops/pkg/fsx"
	"github.com/pressdrop/fileops/pkg/pathops"
)

var lnCmd = &cobra.Command{
	Use:   "ln TARGET LINK",
	Short: "Create a symbolic link",
	Long: `Create LINK as a symbolic link to TARGET. When both paths resolve, the
stored target is made relative to the link's directory, so the tree can
be relocated without breaking the link.

Examples:
  fileops ln /srv/files/current/app.tar.gz latest.tar.gz`,
	Args: cobra.ExactArgs(2),
	RunE: runLn,
}

func runLn(cmd *cobra.Command, args []string) error {
	target := args[0]
	if abs, ok := pathops.Abs(target); ok {
		target = abs
	}
	if err := fsx.NewFile(args[1]).Link(target); err != nil {
		return err
	}
	fmt.Printf("Linked %s -> %s\n", args[1], args[0])
	return nil
}
