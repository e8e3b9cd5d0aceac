package main

import (
	dircast "github.com/mattkeenan/dircast/pkg"
	"github.com/spf13/cobra"
)

// NewDupesCmd creates the dupes subcommand
func NewDupesCmd(a *app) *cobra.Command {
	var (
		includeEmpty bool
		format       string
	)

	cmd := &cobra.Command{
		Use:   "dupes SOURCE",
		Short: "List duplicated subdirectories",
		Long: `Find groups of subdirectories with identical contents in SOURCE, a cast
file or a directory. Groups nested inside an already reported group are
omitted and groups are listed largest first.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := a.cfg.BuildOptions()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("format") {
				format = a.cfg.GetOutputConfig().Format
			}
			ignoreEmpty := a.cfg.GetDuplicatesConfig().IgnoreEmpty
			if includeEmpty {
				ignoreEmpty = false
			}

			c, err := dircast.OpenSource(cmd.Context(), args[0], opts)
			if err != nil {
				return err
			}
			groups := dircast.FindDuplicates(c, dircast.DuplicateOptions{IgnoreEmpty: ignoreEmpty})
			return dircast.WriteDuplicateReport(a.stdout, groups, format)
		},
	}

	cmd.Flags().BoolVar(&includeEmpty, "include-empty", false, "Report empty directories as duplicates too")
	cmd.Flags().StringVar(&format, "format", dircast.FormatHuman, "Output format: human, json or fdupes")

	return cmd
}
