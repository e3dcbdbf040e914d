package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"refinery/internal/tagstore"
)

func init() {
	cmdRoot.AddCommand(cmdTag())
}

// tagFlags maps each tag field to its flag name.
var tagFlags = []struct {
	field tagstore.Field
	flag  string
}{
	{tagstore.FieldTitle, "title"},
	{tagstore.FieldContributingArtist, "artist"},
	{tagstore.FieldAlbumArtist, "album-artist"},
	{tagstore.FieldAlbum, "album"},
	{tagstore.FieldYear, "year"},
	{tagstore.FieldGenre, "genre"},
}

func cmdTag() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tag <file|folder>...",
		Short: "Show or write tags",
		Long:  "Write the given tags to every file. Tags left empty keep their current value. Without tag flags the current tags are shown.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := addPaths(args); err != nil {
				return err
			}

			sets, _ := cmd.Flags().GetStringArray("set")
			fields, err := parseAssignments(sets)
			if err != nil {
				return err
			}
			for _, tf := range tagFlags {
				if v, _ := cmd.Flags().GetString(tf.flag); v != "" {
					fields[tf.field] = v
				}
			}
			if len(tagstore.NonEmpty(fields)) == 0 {
				return showTags()
			}

			result := state.orch.EditMetadata(fields)
			for _, err := range result.Errors {
				state.out.Status("fail", "failed", "%v", err)
			}
			state.out.Info("%s", result.Message())
			return result.Err()
		},
	}
	for _, tf := range tagFlags {
		cmd.Flags().String(tf.flag, "", "Set the "+string(tf.field)+" tag")
	}
	cmd.Flags().StringArray("set", nil, "Set a tag as field=value, e.g. --set \"album artist=Various\" (repeatable)")
	return cmd
}

func showTags() error {
	var errs []error
	for _, path := range state.orch.Session().Paths() {
		tags, err := state.orch.Tags(path)
		if err != nil {
			errs = append(errs, err)
			state.out.Status("fail", "failed", "%s: %v", path, err)
			continue
		}
		state.out.Info("%s", state.out.Style(state.out.Styles().Header, path))
		for _, f := range tagstore.Fields {
			state.out.Info("  %-20s %s", f, tags[f])
		}
	}
	return errors.Join(errs...)
}

// parseAssignments turns "field=value" arguments into tag fields.
func parseAssignments(args []string) (map[tagstore.Field]string, error) {
	fields := make(map[tagstore.Field]string, len(args))
	for _, arg := range args {
		name, value, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --set %q: expected field=value", arg)
		}
		field, err := tagstore.ParseField(name)
		if err != nil {
			return nil, fmt.Errorf("invalid --set %q: %w", arg, err)
		}
		fields[field] = value
	}
	return fields, nil
}
