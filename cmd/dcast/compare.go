package main

import (
	"fmt"

	dircast "github.com/mattkeenan/dircast/pkg"
	"github.com/spf13/cobra"
)

// NewCompareCmd creates the compare subcommand
func NewCompareCmd(a *app) *cobra.Command {
	var (
		atA    string
		atB    string
		format string
	)

	cmd := &cobra.Command{
		Use:   "compare A B",
		Short: "Compare two casts or directories",
		Long: `Compare the subtree of A against the subtree of B.

A and B are cast files or directories; directories are built on the fly.
The first output line is the verdict token (eq, ne, pd or fd). The exit
status is 0 for eq, 1 for any difference and 2 on error.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a.failCode = 2

			opts, err := a.cfg.BuildOptions()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("format") {
				format = a.cfg.GetOutputConfig().Format
			}

			ca, err := dircast.OpenSource(cmd.Context(), args[0], opts)
			if err != nil {
				return err
			}
			cb, err := dircast.OpenSource(cmd.Context(), args[1], opts)
			if err != nil {
				return err
			}

			ia, err := resolveAt(ca, atA, args[0])
			if err != nil {
				return err
			}
			ib, err := resolveAt(cb, atB, args[1])
			if err != nil {
				return err
			}

			result, err := dircast.Compare(ca, ia, cb, ib, dircast.CompareOptions{})
			if err != nil {
				return err
			}
			if err := dircast.WriteDiffReport(a.stdout, result, format); err != nil {
				return err
			}
			if result.Verdict != dircast.VerdictEqual {
				a.exitCode = 1
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&atA, "at-a", "", "Subtree of A to compare (path relative to its root)")
	cmd.Flags().StringVar(&atB, "at-b", "", "Subtree of B to compare (path relative to its root)")
	cmd.Flags().StringVar(&format, "format", dircast.FormatHuman, "Output format: human or json")

	return cmd
}

// resolveAt maps an optional subtree path to an entry index
func resolveAt(c *dircast.Cast, path, source string) (int, error) {
	if path == "" {
		return c.Root(), nil
	}
	idx, ok := c.IndexOf(path, c.Root())
	if !ok {
		return -1, fmt.Errorf("%s: no entry at %s", source, path)
	}
	return idx, nil
}
