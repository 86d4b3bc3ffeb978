package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/nerrad567/gray-logic-door/internal/command"
	"github.com/nerrad567/gray-logic-door/internal/infrastructure/config"
)

const (
	defaultConfigPath = "configs/config.yaml"
	configEnv         = "GRAYLOGIC_DOOR_CONFIG"
)

// configPath returns GRAYLOGIC_DOOR_CONFIG if set, otherwise the default.
func configPath() string {
	if path := os.Getenv(configEnv); path != "" {
		return path
	}
	return defaultConfigPath
}

func newRootCmd() *cobra.Command {
	var path string

	root := &cobra.Command{
		Use:   "graylogic-door",
		Short: "Single-door MQTT access controller",
		Long: `Listens for OPEN commands on an MQTT topic, drives the door latch through
one open, hold, close and cooldown cycle, and publishes retained state events.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), path)
		},
	}
	root.PersistentFlags().StringVarP(&path, "config", "c", configPath(),
		"path to the YAML configuration file (env "+configEnv+")")

	root.AddCommand(newVersionCmd(), newCheckConfigCmd(&path))
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "graylogic-door %s\n", version)
			fmt.Fprintf(out, "  commit: %s\n", commit)
			fmt.Fprintf(out, "  built:  %s\n", date)
			fmt.Fprintf(out, "  go:     %s\n", runtime.Version())
		},
	}
}

// newCheckConfigCmd loads and validates the configuration without touching
// hardware or the network.
func newCheckConfigCmd(path *string) *cobra.Command {
	return &cobra.Command{
		Use:   "check-config",
		Short: "Validate the configuration file and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*path)
			if err != nil {
				return err
			}
			if err := validateTopics(cfg); err != nil {
				return err
			}
			auth, err := command.NewAuthorizer(command.Options{
				Topic:                  cfg.Door.CommandTopic,
				Token:                  cfg.Door.Token,
				RequireTokenForLiteral: cfg.Door.RequireTokenForLiteral,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "configuration OK: %s\n", *path)
			fmt.Fprintf(out, "  door:      %s (%s)\n", cfg.Door.ID, cfg.Door.CommandTopic)
			fmt.Fprintf(out, "  hold:      %v, cooldown %v\n", cfg.OpenDuration(), cfg.Cooldown())
			fmt.Fprintf(out, "  broker:    %s:%d\n", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port)
			fmt.Fprintf(out, "  actuator:  %s\n", cfg.Actuator.Driver)
			fmt.Fprintf(out, "  token:     %v\n", auth.TokenRequired())
			if auth.LiteralBypassesToken() {
				fmt.Fprintln(out, "  warning:   bare OPEN literal bypasses the token")
			}
			return nil
		},
	}
}
