package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"refinery/internal/organizer"
)

func init() {
	cmdRoot.AddCommand(cmdRename())
}

func cmdRename() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <file> <new-name>",
		Short: "Rename one file within its folder",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, name := args[0], args[1]
			state.orch.AddFiles(src)

			ok, err := state.orch.RenameOne(src, name)
			if ok {
				state.out.Status("ok", "renamed", "%s -> %s", src, name)
				return nil
			}
			if organizer.IsConflict(err) {
				return fmt.Errorf("%s already exists; nothing was renamed", name)
			}
			return err
		},
	}
}
