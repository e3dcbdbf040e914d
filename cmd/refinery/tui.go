package main

import (
	"os"

	"github.com/spf13/cobra"

	"refinery/internal/tui"
)

func init() {
	cmdRoot.AddCommand(cmdTUI())
}

func cmdTUI() *cobra.Command {
	var naming namingFlags
	cmd := &cobra.Command{
		Use:   "tui [file|folder]...",
		Short: "Review and rename files interactively",
		RunE: func(cmd *cobra.Command, args []string) error {
			naming.apply(cmd)
			if err := addPaths(args); err != nil {
				return err
			}

			nuke := state.cfg.NukeMetadata
			if cmd.Flags().Changed("nuke-metadata") {
				nuke, _ = cmd.Flags().GetBool("nuke-metadata")
			}

			opts := tui.Options{
				ClearMetadata: nuke,
				WatchConfig:   state.cfg.Watch,
				Logger:        state.logger,
			}
			if watch, _ := cmd.Flags().GetBool("watch"); watch {
				opts.WatchDirs = watchDirs(pathsOrMusicDir(args))
			}
			return tui.Run(state.orch, opts)
		},
	}
	naming.register(cmd.Flags())
	cmd.Flags().Bool("nuke-metadata", false, "Start with tag removal enabled")
	cmd.Flags().BoolP("watch", "w", false, "Add audio files created in the given folders while running")
	return cmd
}

// watchDirs keeps the folders among paths.
func watchDirs(paths []string) []string {
	var dirs []string
	for _, p := range paths {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			dirs = append(dirs, p)
		}
	}
	return dirs
}
