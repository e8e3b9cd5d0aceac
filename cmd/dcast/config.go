package main

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// NewConfigCmd creates the config subcommand and its show/set children
func NewConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change the configuration file",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(a.stdout, "# %s\n", a.cfg.Path())
			_, err := a.cfg.WriteTo(a.stdout)
			return err
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set SECTION.KEY VALUE",
		Short: "Set a configuration value and save the file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.cfg.Set(args[0], args[1]); err != nil {
				return err
			}
			if err := a.cfg.Save(); err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "Set %s = %s in %s\n", args[0], args[1], a.cfg.Path())
			return nil
		},
	})

	return cmd
}

// NewVersionCmd creates the version subcommand
func NewVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(a.stdout, "dcast %s\n", versionString())
			return nil
		},
	}
}

// versionString reports the module version and VCS revision from the build info
func versionString() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "development"
	}
	version := info.Main.Version
	if version == "" || version == "(devel)" {
		version = "development"
	}
	for _, setting := range info.Settings {
		if setting.Key == "vcs.revision" && len(setting.Value) >= 12 {
			return version + " (" + setting.Value[:12] + ")"
		}
	}
	return version
}
