package main

import (
	"fmt"
	"io"
	"strings"

	dircast "github.com/mattkeenan/dircast/pkg"
	"github.com/spf13/cobra"
)

// app carries the state shared by all subcommands of one invocation
type app struct {
	stdout io.Writer
	stderr io.Writer

	configPath string
	verbose    int
	debug      string

	cfg *dircast.Config

	// exitCode is returned on success, failCode when a command errors
	exitCode int
	failCode int
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{stdout: stdout, stderr: stderr, failCode: 1}
}

// NewRootCmd creates the dcast command tree
func NewRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "dcast",
		Short: "dcast - snapshot, compare and deduplicate directory trees",
		Long: `dcast records a directory tree as a cast: a flat, parent-indexed list of
entries with content digests for files and recursive totals for directories.

Casts can be saved to compressed files, compared against each other or
against live directories, and searched for duplicated subdirectories.`,
		Version:       versionString(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", dircast.DefaultConfigPath(), "Configuration file")
	rootCmd.PersistentFlags().CountVarP(&a.verbose, "verbose", "v", "Increase verbosity (repeatable)")
	rootCmd.PersistentFlags().StringVar(&a.debug, "debug", "", "Debug flags ("+strings.Join(dircast.DebugFlags, ",")+")")

	groupCasts := "casts"
	groupUtilities := "utilities"
	rootCmd.AddGroup(&cobra.Group{ID: groupCasts, Title: "Cast Operations"})
	rootCmd.AddGroup(&cobra.Group{ID: groupUtilities, Title: "Utility Commands"})

	for _, c := range []*cobra.Command{
		NewBuildCmd(a),
		NewCompareCmd(a),
		NewDupesCmd(a),
		NewShowCmd(a),
		NewStatsCmd(a),
	} {
		c.GroupID = groupCasts
		rootCmd.AddCommand(c)
	}
	for _, c := range []*cobra.Command{
		NewConfigCmd(a),
		NewVersionCmd(a),
	} {
		c.GroupID = groupUtilities
		rootCmd.AddCommand(c)
	}

	rootCmd.SetOut(a.stdout)
	rootCmd.SetErr(a.stderr)
	return rootCmd
}

// setup loads the configuration and applies the global logging flags
func (a *app) setup() error {
	cfg, err := dircast.LoadConfig(a.configPath)
	if err != nil {
		return err
	}

	var overrides []string
	if a.verbose > 0 {
		overrides = append(overrides, fmt.Sprintf("level:%d", a.verbose))
	}
	if a.debug != "" {
		overrides = append(overrides, "debug:"+a.debug)
	}
	if err := cfg.ApplyOverrides(overrides); err != nil {
		return err
	}

	vc := cfg.GetVerboseConfig()
	dircast.SetDebugFlags(vc.Debug)
	dircast.InitLogging(vc.Level, vc.Debug)
	a.cfg = cfg
	return nil
}
