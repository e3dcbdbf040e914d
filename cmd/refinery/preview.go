package main

import (
	"github.com/spf13/cobra"

	"refinery/internal/session"
)

func init() {
	cmdRoot.AddCommand(cmdPreview())
}

func cmdPreview() *cobra.Command {
	var naming namingFlags
	cmd := &cobra.Command{
		Use:   "preview [file|folder]...",
		Short: "Show the names a batch rename would produce",
		Long:  "Show the names a batch rename would produce. Without arguments the configured music directory is scanned.",
		RunE: func(cmd *cobra.Command, args []string) error {
			naming.apply(cmd)
			if err := addPaths(pathsOrMusicDir(args)); err != nil {
				return err
			}
			all, _ := cmd.Flags().GetBool("all")

			styles := state.out.Styles()
			changed := 0
			for _, row := range state.orch.Preview() {
				switch {
				case row.Target == "":
					state.out.Status("fail", "no name", "%s", row.OriginalName)
				case row.State == session.StateManual:
					changed++
					state.out.Status("warn", "manual", "%s -> %s", row.OriginalName, row.Target)
				case row.Changed():
					changed++
					state.out.Status("ok", "rename", "%s -> %s", row.OriginalName, row.Target)
				case all:
					state.out.Status("", "keep", "%s", state.out.Style(styles.Muted, row.OriginalName))
				}
			}
			state.out.Info("%d of %d files would be renamed (mode %s)", changed, state.orch.Session().Len(), state.orch.Session().Mode())
			return nil
		},
	}
	naming.register(cmd.Flags())
	cmd.Flags().Bool("all", false, "Also list files whose name would not change")
	return cmd
}
