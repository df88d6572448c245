package main

import (
	"github.com/spf13/cobra"
)

type globalFlags struct {
	config string
	opt    string
	source string
	output string
	editor string
	viewer string
	runner string
}

func newRootCommand() *cobra.Command {
	flags := &globalFlags{}
	ctx := newCommandContext(flags)

	rootCmd := &cobra.Command{
		Use:           "optflow",
		Short:         "Edit and run ordered Python text-transformation fragments",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flags.config, "config", "c", "", "Configuration file path")
	pf.StringVar(&flags.opt, "opt", "", "Fragment directory (overrides paths.opt_dir)")
	pf.StringVar(&flags.source, "source", "", "Source document (overrides paths.source)")
	pf.StringVar(&flags.output, "output", "", "Output document (overrides paths.output)")
	pf.StringVarP(&flags.editor, "editor", "E", "", "Editor command line (overrides commands.editor)")
	pf.StringVar(&flags.viewer, "viewer", "", "Viewer command line (overrides commands.viewer)")
	pf.StringVar(&flags.runner, "runner", "", "Interpreter command line (overrides commands.runner)")

	rootCmd.AddCommand(newEditCommand(ctx))
	rootCmd.AddCommand(newViewCommand(ctx))
	rootCmd.AddCommand(newAddCommand(ctx))
	rootCmd.AddCommand(newDeleteCommand(ctx))
	rootCmd.AddCommand(newListCommand(ctx))
	rootCmd.AddCommand(newResequenceCommand(ctx))
	rootCmd.AddCommand(newRunCommand(ctx))
	rootCmd.AddCommand(newPreviewCommand(ctx))
	rootCmd.AddCommand(newHistoryCommand(ctx))
	rootCmd.AddCommand(newCheckCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))

	return rootCmd
}
