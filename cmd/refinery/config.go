package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"refinery/internal/config"
)

func init() {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or create the configuration file",
	}
	cmd.AddCommand(cmdConfigInit(), cmdConfigValidate())
	cmdRoot.AddCommand(cmd)
}

func cmdConfigInit() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write the current settings to the configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := cmd.Flag("config").Value.String()
			if err := config.Save(state.cfg, path); err != nil {
				return err
			}
			state.out.Status("ok", "written", "%s", path)
			return nil
		},
	}
}

func cmdConfigValidate() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short:       "Check the configuration and report every problem",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipValidation: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			result := config.ValidateConfig(state.cfg)
			for _, w := range result.Warnings {
				state.out.Status("warn", "warning", "%s: %s", w.Field, w.Message)
			}
			for _, e := range result.Errors {
				state.out.Status("fail", "error", "%s: %s", e.Field, e.Message)
			}
			if !result.Valid {
				return fmt.Errorf("%d configuration errors", len(result.Errors))
			}
			state.out.Info("Configuration is valid")
			return nil
		},
	}
}
