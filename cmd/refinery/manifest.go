package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"refinery/internal/audit"
)

func init() {
	cmdRoot.AddCommand(cmdManifest())
}

func cmdManifest() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "manifest [run-id]",
		Short: "Show what a run changed, by default the latest batch",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if state.cfg.Journal == nil || !state.cfg.Journal.Enabled {
				return fmt.Errorf("the journal is disabled in %s", cmd.Flag("config").Value)
			}
			reader := audit.NewReader(state.cfg.Journal.LogDirectory)

			if list, _ := cmd.Flags().GetBool("list"); list {
				return listRuns(reader)
			}

			var (
				m   *audit.Manifest
				err error
			)
			if len(args) == 1 {
				m, err = reader.Manifest(audit.RunID(args[0]))
			} else {
				m, err = reader.LatestManifest()
			}
			if err != nil {
				return err
			}

			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				return m.RenderJSON(os.Stdout)
			}
			return m.RenderText(os.Stdout)
		},
	}
	cmd.Flags().Bool("json", false, "Print the manifest as JSON")
	cmd.Flags().BoolP("list", "l", false, "List journaled runs instead")
	return cmd
}

func listRuns(reader *audit.Reader) error {
	runs, err := reader.ListRuns()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		state.out.Info("No runs journaled yet")
		return nil
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tTYPE\tSTARTED\tSTATUS\tRENAMED\tCONFLICTS\tFAILED")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%d\n",
			r.RunID, r.RunType, r.StartTime.Local().Format(time.DateTime), r.Status,
			r.Summary.Renamed, r.Summary.Conflicts, r.Summary.Failed)
	}
	return tw.Flush()
}
