package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"optflow/internal/logging"
	"optflow/internal/registry"
	"optflow/internal/template"
)

// reserveFragment resolves --step/--add into a fragment handle. fresh reports
// whether a new slot was reserved.
func reserveFragment(reg *registry.Registry, cmd *cobra.Command, step int, add bool) (frag *registry.Fragment, fresh bool, err error) {
	stepSet := cmd.Flags().Changed("step")
	if stepSet {
		if err := validateStep(step); err != nil {
			return nil, false, err
		}
	}
	if add {
		if stepSet {
			frag, err = reg.Insert(step)
		} else {
			frag, err = reg.Append()
		}
		return frag, err == nil, err
	}
	if !stepSet {
		return nil, false, errors.New("--step is required")
	}
	frag, ok, err := reg.Get(step)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, fmt.Errorf("fragment %d does not exist", step)
	}
	return frag, false, nil
}

func newEditCommand(ctx *commandContext) *cobra.Command {
	var step int
	var add bool

	cmd := &cobra.Command{
		Use:   "edit",
		Short: "Edit a fragment in the configured editor",
		Long: "Open fragment --step in the editor. Only the text below the marker line is saved.\n" +
			"With --add, a new fragment is inserted at --step (shifting later ones) or appended.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			reg, err := ctx.openRegistry()
			if err != nil {
				return err
			}
			frag, fresh, err := reserveFragment(reg, cmd, step, add)
			if err != nil {
				return err
			}

			if err := editFragment(cmd, ctx, cfg.Commands.Editor, frag); err != nil {
				if fresh {
					if _, reseqErr := reg.Resequence(); reseqErr != nil {
						ctx.log().Warn("resequence after failed edit", logging.Error(reseqErr))
					}
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved opt-%d\n", frag.ID())
			return nil
		},
	}

	cmd.Flags().IntVarP(&step, "step", "s", 0, "Fragment id")
	cmd.Flags().BoolVarP(&add, "add", "a", false, "Create a new fragment instead of editing an existing one")
	return cmd
}

func editFragment(cmd *cobra.Command, ctx *commandContext, launcher string, frag *registry.Fragment) error {
	view, err := frag.EditView()
	if err != nil {
		return err
	}
	edited, err := ctx.terminal(cmd).Edit(cmd.Context(), launcher, view)
	if err != nil {
		return fmt.Errorf("edit opt-%d: %w", frag.ID(), err)
	}
	return frag.Save(edited)
}

func newViewCommand(ctx *commandContext) *cobra.Command {
	var step int
	var runnerView bool

	cmd := &cobra.Command{
		Use:   "view",
		Short: "Show a fragment in the configured viewer",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			reg, err := ctx.openRegistry()
			if err != nil {
				return err
			}
			frag, _, err := reserveFragment(reg, cmd, step, false)
			if err != nil {
				return err
			}

			var content string
			if runnerView {
				content, err = frag.RunnerView()
			} else {
				content, err = frag.EditView()
			}
			if err != nil {
				return err
			}
			return ctx.terminal(cmd).View(cmd.Context(), cfg.Commands.Viewer, content)
		},
	}

	cmd.Flags().IntVarP(&step, "step", "s", 0, "Fragment id")
	cmd.Flags().BoolVar(&runnerView, "runner-view", false, "Show the full runner script this fragment executes in")
	return cmd
}

func newAddCommand(ctx *commandContext) *cobra.Command {
	var step int

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a fragment holding the default template",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := ctx.openRegistry()
			if err != nil {
				return err
			}
			frag, _, err := reserveFragment(reg, cmd, step, true)
			if err != nil {
				return err
			}
			if err := frag.SetBody(template.DefaultBody()); err != nil {
				if _, reseqErr := reg.Resequence(); reseqErr != nil {
					ctx.log().Warn("resequence after failed add", logging.Error(reseqErr))
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added opt-%d (%s)\n", frag.ID(), frag.Path())
			return nil
		},
	}

	cmd.Flags().IntVarP(&step, "step", "s", 0, "Insert at this id instead of appending")
	return cmd
}

func newDeleteCommand(ctx *commandContext) *cobra.Command {
	var step int

	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete a fragment and close the gap it leaves",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateStep(step); err != nil {
				return err
			}
			reg, err := ctx.openRegistry()
			if err != nil {
				return err
			}
			removed, err := reg.Remove(step)
			if err != nil {
				return err
			}
			if !removed {
				return fmt.Errorf("fragment %d does not exist", step)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted opt-%d\n", step)
			return nil
		},
	}

	cmd.Flags().IntVarP(&step, "step", "s", 0, "Fragment id")
	_ = cmd.MarkFlagRequired("step")
	return cmd
}

func newListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List fragments in pipeline order",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := ctx.openRegistry()
			if err != nil {
				return err
			}
			ids, err := reg.ListIDs()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(ids) == 0 {
				fmt.Fprintf(out, "No fragments in %s\n", reg.Dir())
				return nil
			}

			rows := make([][]string, 0, len(ids))
			for _, id := range ids {
				frag := reg.Fragment(id)
				summary := "<unreadable>"
				if body, err := frag.Body(); err == nil {
					summary = firstCodeLine(body)
				}
				rows = append(rows, []string{strconv.Itoa(id), filepath.Base(frag.Path()), summary})
			}
			fmt.Fprintln(out, renderTable([]string{"ID", "File", "First line"}, rows, []columnAlignment{alignRight, alignLeft, alignLeft}))
			return nil
		},
	}
}

func newResequenceCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "resequence",
		Short: "Renumber fragments to close gaps, preserving order",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := ctx.openRegistry()
			if err != nil {
				return err
			}
			ids, err := reg.Resequence()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(ids) == 0 {
				fmt.Fprintln(out, "No fragments to resequence")
				return nil
			}
			fmt.Fprintf(out, "Fragments: %s\n", joinInts(ids))
			return nil
		},
	}
}

const summaryWidth = 60

// firstCodeLine returns the first non-blank line of body, truncated.
func firstCodeLine(body string) string {
	for line := range strings.Lines(body) {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if runes := []rune(line); len(runes) > summaryWidth {
			return string(runes[:summaryWidth-3]) + "..."
		}
		return line
	}
	return ""
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ", ")
}
