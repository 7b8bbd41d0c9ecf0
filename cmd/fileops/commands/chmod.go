package commands

import (
	"github.com/spf13/cobra"

	"github.com/pressdrop/fileops/pkg/fsx"
)

var chmodCmd = &cobra.Command{
	Use:   "chmod MODE PATH...",
	Short: "Change file modes",
	Long: `Change the mode of each path. MODE is either octal ("644", "0755") or a
symbolic clause list as accepted by chmod(1): "u+x", "go-w", "a=r",
"u+s,g-s" and so on.

Examples:
  fileops chmod 600 secrets.yaml
  fileops chmod u+x,go-w deploy.sh`,
	Args: cobra.MinimumNArgs(2),
	RunE: runChmod,
}

func runChmod(cmd *cobra.Command, args []string) error {
	spec := args[0]
	for _, path := range args[1:] {
		if err := fsx.NewFile(path).Chmod(spec); err != nil {
			return err
		}
	}
	return nil
}
