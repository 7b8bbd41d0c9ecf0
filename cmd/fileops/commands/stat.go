package commands

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/pressdrop/fileops/internal/bytesize"
	"github.com/pressdrop/fileops/internal/cli/output"
	"github.com/pressdrop/fileops/pkg/fsx"
)

var (
	statOutput string
	statDeref  bool
)

var statCmd = &cobra.Command{
	Use:   "stat PATH...",
	Short: "Show file status",
	Long: `Show mode, size, ownership and timestamps for one or more paths.

Symbolic links are reported as links. Use --dereference to follow them.

Examples:
  fileops stat /etc/hosts
  fileops stat --dereference /usr/bin/editor
  fileops stat -o json build/*.tar.gz`,
	Args: cobra.MinimumNArgs(1),
	RunE: runStat,
}

func init() {
	statCmd.Flags().StringVarP(&statOutput, "output", "o", "table", "Output format (table|json|yaml)")
	statCmd.Flags().BoolVarP(&statDeref, "dereference", "L", false, "Follow symbolic links")
}

// statEntry is the status of one path.
type statEntry struct {
	Path     string `json:"path"     yaml:"path"`
	Type     string `json:"type"     yaml:"type"`
	Mode     string `json:"mode"     yaml:"mode"`
	Size     int64  `json:"size"     yaml:"size"`
	UID      int    `json:"uid"      yaml:"uid"`
	GID      int    `json:"gid"      yaml:"gid"`
	Modified string `json:"modified" yaml:"modified"`
	Accessed string `json:"accessed" yaml:"accessed"`
	Changed  string `json:"changed"  yaml:"changed"`
}

type statEntries []statEntry

func (l statEntries) Headers() []string {
	return []string{"PATH", "TYPE", "MODE", "SIZE", "UID", "GID", "MODIFIED"}
}

func (l statEntries) Rows() [][]string {
	rows := make([][]string, 0, len(l))
	for _, e := range l {
		rows = append(rows, []string{
			e.Path, e.Type, e.Mode, bytesize.Format(e.Size),
			itoa(e.UID), itoa(e.GID), e.Modified,
		})
	}
	return rows
}

const timeLayout = "2006-01-02 15:04:05"

func runStat(cmd *cobra.Command, args []string) error {
	entries := make(statEntries, 0, len(args))
	for _, path := range args {
		var st *fsx.Stat
		var err error
		if statDeref {
			st, err = fsx.ReadStat(path)
		} else {
			st, err = fsx.ReadLinkStat(path)
		}
		if err != nil {
			return err
		}
		entries = append(entries, statEntry{
			Path:     path,
			Type:     entryType(st),
			Mode:     st.String(),
			Size:     st.Size(),
			UID:      st.Uid(),
			GID:      st.Gid(),
			Modified: st.Mtime().Format(timeLayout),
			Accessed: st.Atime().Format(timeLayout),
			Changed:  st.Ctime().Format(timeLayout),
		})
	}

	format, err := output.ParseFormat(statOutput)
	if err != nil {
		return err
	}
	return output.NewPrinter(os.Stdout, format).Print(entries)
}
