package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"refinery/internal/orchestrator"
	"refinery/internal/session"
)

func init() {
	cmdRoot.AddCommand(cmdApply())
}

func cmdApply() *cobra.Command {
	var naming namingFlags
	cmd := &cobra.Command{
		Use:   "apply [file|folder]...",
		Short: "Rename files in place to their cleaned names",
		Long: "Rename files in place to their cleaned names. Existing files are never overwritten: " +
			"a file whose new name is taken is left alone and reported as a conflict.",
		RunE: func(cmd *cobra.Command, args []string) error {
			naming.apply(cmd)
			if err := addPaths(pathsOrMusicDir(args)); err != nil {
				return err
			}

			skips, _ := cmd.Flags().GetStringArray("skip")
			if err := disable(skips); err != nil {
				return err
			}

			nuke := state.cfg.NukeMetadata
			if cmd.Flags().Changed("nuke-metadata") {
				nuke, _ = cmd.Flags().GetBool("nuke-metadata")
			}

			state.out.StartProgress(state.orch.Session().EnabledCount())
			result := state.orch.ApplyBatch(orchestrator.BatchOptions{
				ClearMetadata: nuke,
				Progress: func(done, _ int) {
					state.out.UpdateProgress(done, "")
				},
			})
			state.out.EndProgress()

			printBatch(result)
			state.out.Info("%s", result.Message())
			if result.HasErrors() {
				return fmt.Errorf("%d renames and %d tag operations failed", result.Failed, result.TagErrors)
			}
			return nil
		},
	}
	naming.register(cmd.Flags())
	cmd.Flags().Bool("nuke-metadata", false, "Remove every tag from each processed file")
	cmd.Flags().StringArray("skip", nil, "Leave this file (name or path) untouched; repeatable")
	return cmd
}

// disable turns off the entries named by skips, matched by basename or path.
func disable(skips []string) error {
	if len(skips) == 0 {
		return nil
	}
	sess := state.orch.Session()
	for _, e := range sess.Entries() {
		for _, s := range skips {
			if s == e.Name() || session.CleanPath(s) == e.Path {
				if err := sess.SetEnabled(e.Path, false); err != nil {
					return err
				}
				state.out.Verbose("skipping %s", e.Path)
			}
		}
	}
	return nil
}

func printBatch(result *orchestrator.BatchResult) {
	for _, er := range result.Entries {
		to := filepath.Base(er.DestinationPath)
		switch er.Outcome {
		case orchestrator.OutcomeRenamed:
			state.out.Status("ok", "renamed", "%s -> %s", er.OriginalName, to)
		case orchestrator.OutcomeConflict:
			state.out.Status("warn", "conflict", "%s: %s already exists", er.OriginalName, to)
		case orchestrator.OutcomeSkipped:
			state.out.Status("warn", "skipped", "%s: no usable name", er.OriginalName)
		case orchestrator.OutcomeFailed:
			state.out.Status("fail", "failed", "%s: %v", er.OriginalName, er.Err)
		case orchestrator.OutcomeUnchanged:
			state.out.Verbose("unchanged %s", er.OriginalName)
		}
		if er.TagErr != nil {
			state.out.Status("fail", "tags", "%s: %v", er.OriginalName, er.TagErr)
		}
	}
}
