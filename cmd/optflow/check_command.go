package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"optflow/internal/deps"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Report whether configured commands and paths are usable",
		Long: "Check that the runner, editor and viewer commands resolve on PATH and that the\n" +
			"fragment directory exists. Source and output are only needed by run and preview,\n" +
			"so their absence is a warning.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if ctx.configPath != "" {
				fmt.Fprintf(out, "Config: %s\n\n", ctx.configPath)
			}

			report := newCheckReport(out)
			report.section("Commands")
			for _, status := range deps.CheckBinaries([]deps.Requirement{
				{Name: "Runner", Command: cfg.Commands.Runner, Description: "Interpreter for the composed script"},
				{Name: "Editor", Command: cfg.Commands.Editor, Description: "Used by edit"},
				{Name: "Viewer", Command: cfg.Commands.Viewer, Description: "Used by view", Optional: true},
			}) {
				report.requirement(status)
			}

			report.section("Paths")
			report.requirement(deps.CheckPath("Fragments", cfg.Paths.OptDir, true))
			report.requirement(optional(deps.CheckPath("Source", cfg.Paths.Source, false)))
			report.requirement(optional(deps.CheckPath("Output", cfg.Paths.Output, false)))
			if cfg.History.Enabled {
				report.note("History", cfg.History.Path)
			} else {
				report.note("History", "disabled")
			}
			return report.err()
		},
	}
}

func optional(status deps.Status) deps.Status {
	status.Optional = true
	return status
}
