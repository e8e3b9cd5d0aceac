package main

import (
	"fmt"
	"io"

	dircast "github.com/mattkeenan/dircast/pkg"
	"github.com/spf13/cobra"
)

// NewBuildCmd creates the build subcommand
func NewBuildCmd(a *app) *cobra.Command {
	var (
		output       string
		compression  string
		showProgress bool
		symlinks     string
		workers      int
		algorithm    string
	)

	cmd := &cobra.Command{
		Use:   "build ROOT",
		Short: "Build a cast of a directory tree",
		Long: `Walk ROOT once, hash every regular file and write the resulting cast.

Without -o, or with -o -, the compressed cast is written to standard output.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := a.cfg.BuildOptions()
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("symlinks") {
				opts.SymlinkMode = symlinks
			}
			if flags.Changed("workers") {
				opts.Workers = workers
			}
			if flags.Changed("hash") {
				opts.Hash.Algorithm = algorithm
			}
			if showProgress {
				opts.Progress = progressPrinter(a.stderr)
			}

			comp, err := a.compression(flags.Changed("compression"), compression)
			if err != nil {
				return err
			}

			c, err := dircast.Build(cmd.Context(), args[0], opts)
			if err != nil {
				return err
			}

			if output == "" || output == "-" {
				return dircast.WriteCast(a.stdout, c, comp)
			}
			if err := dircast.SaveCast(output, c, comp); err != nil {
				return err
			}
			stats := c.Stats()
			fmt.Fprintf(a.stderr, "Wrote %s: %d directories, %d files, %d bytes\n",
				output, stats.Directories, stats.Files, stats.Bytes)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Cast file to write (- for stdout)")
	cmd.Flags().StringVar(&compression, "compression", "", "Compression: xz, lzma or zstd (default from config)")
	cmd.Flags().BoolVar(&showProgress, "progress", false, "Show progress on stderr")
	cmd.Flags().StringVar(&symlinks, "symlinks", "", "Directory link handling: nofollow, follow, contained or skip")
	cmd.Flags().IntVar(&workers, "workers", 0, "Concurrent hash workers")
	cmd.Flags().StringVar(&algorithm, "hash", "", "Strong hash algorithm")

	return cmd
}

// compression resolves the flag value, falling back to the configured default
func (a *app) compression(set bool, name string) (dircast.Compression, error) {
	if !set {
		return a.cfg.Compression()
	}
	comp, ok := dircast.CompressionFromName(name)
	if !ok {
		return "", fmt.Errorf("unknown compression: %s (supported: xz, lzma, zstd)", name)
	}
	return comp, nil
}

// progressPrinter renders phase percentages on a single terminal line
func progressPrinter(w io.Writer) dircast.ProgressFunc {
	return func(phase string, percent int) {
		fmt.Fprintf(w, "\r%-10s %3d%%", phase, percent)
		if percent == 100 {
			fmt.Fprintln(w)
		}
	}
}
