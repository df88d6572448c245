package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"optflow/internal/fileutil"
	"optflow/internal/logging"
	"optflow/internal/pipeline"
	"optflow/internal/registry"
	"optflow/internal/watch"
)

// runRequest is one execution of the pipeline from the CLI.
type runRequest struct {
	step    int
	prefix  bool
	runner  *pipeline.Runner
	source  string
	command string
}

func (r runRequest) execute(ctx context.Context) (*pipeline.Output, error) {
	data, err := os.ReadFile(r.source)
	if err != nil {
		return nil, fmt.Errorf("read source: %w", err)
	}
	if r.prefix {
		return r.runner.RunPrefix(ctx, r.step, string(data), r.command)
	}
	return r.runner.RunAll(ctx, string(data), r.command)
}

func newRunCommand(ctx *commandContext) *cobra.Command {
	var step int

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the pipeline over the source and write the output document",
		Long: "Run every fragment (or the first --step fragments) over paths.source and write\n" +
			"the resulting new_content to paths.output. A full run must consume the whole document.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := requirePaths(
				namedPath{"source", cfg.Paths.Source},
				namedPath{"output", cfg.Paths.Output},
				namedPath{"opt dir", cfg.Paths.OptDir},
			); err != nil {
				return err
			}
			req, closeRunner, err := prepareRun(cmd, ctx, step)
			if err != nil {
				return err
			}
			defer closeRunner()

			out, err := req.execute(cmd.Context())
			if err != nil {
				return fmt.Errorf("pipeline run: %w", err)
			}
			if err := fileutil.WriteFileAtomic(cfg.Paths.Output, []byte(out.NewContent), 0o644); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			w := cmd.OutOrStdout()
			printDataMap(w, out.DataMap)
			fmt.Fprintf(w, "Wrote %s\n", cfg.Paths.Output)
			return nil
		},
	}

	cmd.Flags().IntVarP(&step, "step", "s", 0, "Run only the first N fragments")
	return cmd
}

func newPreviewCommand(ctx *commandContext) *cobra.Command {
	var step int
	var watchMode bool

	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Run the pipeline and print the result instead of writing it",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := requirePaths(
				namedPath{"source", cfg.Paths.Source},
				namedPath{"opt dir", cfg.Paths.OptDir},
			); err != nil {
				return err
			}
			req, closeRunner, err := prepareRun(cmd, ctx, step)
			if err != nil {
				return err
			}
			defer closeRunner()

			out := cmd.OutOrStdout()
			if !watchMode {
				return previewOnce(cmd.Context(), req, out)
			}

			if err := previewOnce(cmd.Context(), req, out); err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), "Error:", err)
			}
			w, err := watch.New(watch.Options{
				Dirs:     []string{cfg.Paths.OptDir},
				Files:    []string{cfg.Paths.Source},
				Match:    isFragmentFile,
				Debounce: time.Duration(cfg.Watch.DebounceMillis) * time.Millisecond,
				Logger:   ctx.log(),
			})
			if err != nil {
				return err
			}
			defer w.Close()

			fmt.Fprintf(cmd.ErrOrStderr(), "Watching %s and %s (Ctrl-C to stop)\n", cfg.Paths.OptDir, cfg.Paths.Source)
			return w.Run(cmd.Context(), func(runCtx context.Context, changed []string) error {
				ctx.log().Info("re-running preview", logging.Int("changed", len(changed)))
				fmt.Fprintln(out, "----")
				if err := previewOnce(runCtx, req, out); err != nil {
					fmt.Fprintln(cmd.ErrOrStderr(), "Error:", err)
				}
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&step, "step", "s", 0, "Run only the first N fragments")
	cmd.Flags().BoolVarP(&watchMode, "watch", "w", false, "Re-run whenever a fragment or the source changes")
	return cmd
}

func prepareRun(cmd *cobra.Command, ctx *commandContext, step int) (runRequest, func(), error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return runRequest{}, func() {}, err
	}
	prefix := cmd.Flags().Changed("step")
	if prefix {
		if err := validateStep(step); err != nil {
			return runRequest{}, func() {}, err
		}
	}
	reg, err := ctx.openRegistry()
	if err != nil {
		return runRequest{}, func() {}, err
	}
	runner, closeRunner, err := ctx.newRunner(cmd.Context(), cmd, reg)
	if err != nil {
		return runRequest{}, closeRunner, err
	}
	return runRequest{
		step:    step,
		prefix:  prefix,
		runner:  runner,
		source:  cfg.Paths.Source,
		command: cfg.Commands.Runner,
	}, closeRunner, nil
}

func previewOnce(ctx context.Context, req runRequest, w io.Writer) error {
	out, err := req.execute(ctx)
	if err != nil {
		return fmt.Errorf("pipeline run: %w", err)
	}
	printDataMap(w, out.DataMap)
	fmt.Fprintln(w, out.NewContent)
	return nil
}

func printDataMap(w io.Writer, dataMap map[string]string) {
	encoded, err := json.Marshal(dataMap)
	if err != nil {
		encoded = []byte("{}")
	}
	fmt.Fprintf(w, "Data map: %s\n", encoded)
}

func isFragmentFile(path string) bool {
	_, ok := registry.ParseFileName(filepath.Base(path))
	return ok
}
