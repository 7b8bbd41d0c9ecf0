package config

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pressdrop/fileops/pkg/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a configuration file with defaults",
	Long: `Create a fileops configuration file populated with default values.

By default, the configuration file is created at $XDG_CONFIG_HOME/fileops/config.yaml.
Use --config to specify a custom path.

Examples:
  # Initialize with default location
  fileops config init

  # Initialize with custom path
  fileops config init --config /etc/fileops/config.yaml

  # Force overwrite existing config
  fileops config init --force`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Force overwrite existing config file")
}

func runInit(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	if configPath == "" {
		configPath = config.GetDefaultConfigPath()
	}

	if !initForce {
		if _, err := os.Stat(configPath); err == nil {
			return fmt.Errorf("config file already exists at %s (use --force to overwrite)", configPath)
		}
	}

	cfg := config.GetDefaultConfig()
	if err := config.SaveConfig(cfg, configPath); err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}

	fmt.Printf("Configuration file created at: %s\n", configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Edit the configuration file to customize your setup")
	fmt.Println("  2. Inspect the result with: fileops config show")
	fmt.Printf("  3. Or point commands at it: fileops fetch --config %s ...\n", configPath)

	return nil
}
