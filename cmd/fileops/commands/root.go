// Package commands implements the fileops CLI commands.
package commands

import (
	"os"

	"github.com/spf13/cobra"

	configcmd "github.com/pressdrop/fileops/cmd/fileops/commands/config"
	"github.com/pressdrop/fileops/internal/logger"
	"github.com/pressdrop/fileops/pkg/config"
)

var (
	// Version information injected at build time.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"

	// Global flags.
	cfgFile string
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "fileops",
	Short: "fileops - File transfer and manipulation toolkit",
	Long: `fileops is a toolkit for inspecting, copying, moving and fetching files.
It wraps the fileops library: stat-aware file operations with freshness
comparison, extension-filtered directory scans, chmod-style mode specs
and a parallel download coordinator with checksum verification.

Use "fileops [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

// GetRootCmd returns the root command for testing purposes.
func GetRootCmd() *cobra.Command {
	return rootCmd
}

func init() {
	// Global persistent flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $XDG_CONFIG_HOME/fileops/config.yaml)")

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(lsCmd)
	rootCmd.AddCommand(statCmd)
	rootCmd.AddCommand(cpCmd)
	rootCmd.AddCommand(mvCmd)
	rootCmd.AddCommand(rmCmd)
	rootCmd.AddCommand(touchCmd)
	rootCmd.AddCommand(chmodCmd)
	rootCmd.AddCommand(lnCmd)
	rootCmd.AddCommand(mkdirsCmd)
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(configcmd.Cmd)
}

// loadConfig loads the configuration honoring the global --config flag and
// initializes logging from it. Commands that only touch the local
// filesystem rely on the logger's defaults and skip this.
func loadConfig() (*config.Config, error) {
	cfg, err := config.MustLoad(cfgFile)
	if err != nil {
		return nil, err
	}
	if err := logger.Init(cfg.Logging); err != nil {
		return nil, err
	}
	if cfg.Store.TmpDir != "" {
		os.Setenv("TMPDIR", cfg.Store.TmpDir)
	}
	return cfg, nil
}
