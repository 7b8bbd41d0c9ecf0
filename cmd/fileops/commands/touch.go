package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pressdrop/fileops/pkg/fsx"
)

var touchTime string

var touchCmd = &cobra.Command{
	Use:   "touch PATH...",
	Short: "Create files or update their timestamps",
	Long: `Create each file when absent and set its access and modification times
to now, or to --time when given.

Examples:
  fileops touch marker.done
  fileops touch --time 2026-01-15T09:00:00Z snapshot.tar`,
	Args: cobra.MinimumNArgs(1),
	RunE: runTouch,
}

func init() {
	touchCmd.Flags().StringVar(&touchTime, "time", "", "Timestamp to apply (RFC 3339, default: now)")
}

func runTouch(cmd *cobra.Command, args []string) error {
	var when time.Time
	if touchTime != "" {
		t, err := time.Parse(time.RFC3339, touchTime)
		if err != nil {
			return fmt.Errorf("invalid --time %q: %w", touchTime, err)
		}
		when = t
	}

	for _, path := range args {
		if err := fsx.NewFile(path).Touch(when, when); err != nil {
			return err
		}
	}
	return nil
}
