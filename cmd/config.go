package cmd

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/arcanaland/proxymancer/internal/config"
)

// configCmd represents the config command group
var configCmd = &cobra.Command{
	Use:               "config",
	Short:             "Manage the proxymancer configuration file",
	PersistentPreRunE: setupLogging,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file with default values",
	RunE: func(cmd *cobra.Command, args []string) error {
		log := envFrom(cmd).log
		path := currentConfigPath()
		force, _ := cmd.Flags().GetBool("force")

		if _, err := os.Stat(path); err == nil && !force {
			log.Warn("Config file already exists; use --force to overwrite", "path", path)
			return nil
		}
		if err := config.Save(path, config.Default()); err != nil {
			return err
		}
		log.Info("Config file written", "path", path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "# %s\n", currentConfigPath())
		return toml.NewEncoder(cmd.OutOrStdout()).Encode(cfg)
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set KEY VALUE",
	Short: "Change one configuration value",
	Long: fmt.Sprintf(`Set updates KEY in the config file and saves it.

Keys: %v`, config.Keys()),
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		log := envFrom(cmd).log
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := cfg.Set(args[0], args[1]); err != nil {
			return err
		}
		if err := config.Save(currentConfigPath(), cfg); err != nil {
			return err
		}
		log.Info("Config updated", "key", args[0], "value", args[1])
		return nil
	},
}

func init() {
	configCmd.AddCommand(configInitCmd, configShowCmd, configSetCmd)
	configInitCmd.Flags().Bool("force", false, "Overwrite an existing config file")
}

func currentConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return config.GetConfigFilePath()
}
