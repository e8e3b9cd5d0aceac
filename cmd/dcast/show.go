package main

import (
	"encoding/json"
	"fmt"

	dircast "github.com/mattkeenan/dircast/pkg"
	"github.com/spf13/cobra"
)

// NewShowCmd creates the show subcommand
func NewShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show SOURCE",
		Short: "Print a cast in its uncompressed line format",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := a.cfg.BuildOptions()
			if err != nil {
				return err
			}
			c, err := dircast.OpenSource(cmd.Context(), args[0], opts)
			if err != nil {
				return err
			}
			text, err := dircast.MarshalLines(c)
			if err != nil {
				return err
			}
			_, err = a.stdout.Write(text)
			return err
		},
	}
}

// NewStatsCmd creates the stats subcommand
func NewStatsCmd(a *app) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "stats SOURCE",
		Short: "Summarise a cast",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := a.cfg.BuildOptions()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("format") {
				format = a.cfg.GetOutputConfig().Format
			}
			c, err := dircast.OpenSource(cmd.Context(), args[0], opts)
			if err != nil {
				return err
			}
			stats := c.Stats()

			switch format {
			case dircast.FormatJSON:
				enc := json.NewEncoder(a.stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(stats)
			case dircast.FormatHuman:
				fmt.Fprintf(a.stdout, "Entries:     %d\n", c.Len())
				fmt.Fprintf(a.stdout, "Directories: %d\n", stats.Directories)
				fmt.Fprintf(a.stdout, "Files:       %d\n", stats.Files)
				fmt.Fprintf(a.stdout, "Bytes:       %d\n", stats.Bytes)
				return nil
			default:
				return fmt.Errorf("unsupported stats format: %s (supported: human, json)", format)
			}
		},
	}

	cmd.Flags().StringVar(&format, "format", dircast.FormatHuman, "Output format: human or json")
	return cmd
}
