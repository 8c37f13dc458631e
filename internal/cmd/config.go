package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/skyforge-project/skyforge-cli/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage client configuration profiles",
}

var configSetupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Interactively create or update the active profile",
	RunE: run(func(cmd *cobra.Command, args []string, rt *runtime) error {
		cfg := rt.cfg

		host, err := promptLine("Server host", cfg.Host)
		if err != nil {
			return err
		}
		port, err := promptLine("Server port (empty for scheme default)", cfg.Port)
		if err != nil {
			return err
		}
		email, err := promptLine("User email", cfg.Email)
		if err != nil {
			return err
		}
		logLevel, err := promptLine("Log level (debug, info, warning)", cfg.LogLevel)
		if err != nil {
			return err
		}
		verify, err := promptLine("Verify TLS certificates (true, false or CA bundle path)", cfg.Verify)
		if err != nil {
			return err
		}
		noColor := confirm("Disable colored output?")

		cfg.Host = host
		cfg.Port = port
		cfg.Email = email
		cfg.LogLevel = logLevel
		cfg.Verify = verify
		cfg.NoColor = noColor

		if err = cfg.Save(); err != nil {
			return err
		}
		rt.printer.Message(fmt.Sprintf("Profile written to %s", cfg.ProfilePath()))
		return nil
	}),
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the profile file of the active profile",
	RunE: run(func(cmd *cobra.Command, args []string, rt *runtime) error {
		data, err := os.ReadFile(rt.cfg.ProfilePath())
		if err != nil {
			if os.IsNotExist(err) {
				return fmt.Errorf("no configuration file for profile %q, run: skyforge config setup", rt.cfg.Profile)
			}
			return err
		}

		var onDisk config.Config
		if err = yaml.Unmarshal(data, &onDisk); err != nil {
			return fmt.Errorf("failed to parse config file %s: %w", rt.cfg.ProfilePath(), err)
		}

		rt.printer.Message(fmt.Sprintf("Profile: %s (%s)", rt.cfg.Profile, rt.cfg.ProfilePath()))
		rt.printer.Message(string(data))
		return nil
	}),
}

func init() {
	configCmd.AddCommand(configSetupCmd)
	configCmd.AddCommand(configShowCmd)
}
