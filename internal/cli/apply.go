package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/prodsys/internal/action"
)

// ApplyOptions holds flags for the apply command.
type ApplyOptions struct {
	*RootOptions
	Database string
	File     string
}

// ApplyResult summarises an apply run.
type ApplyResult struct {
	File     string `json:"file"`
	Applied  int    `json:"applied"`
	FirstSeq int64  `json:"first_seq,omitempty"`
	LastSeq  int64  `json:"last_seq"`
}

// NewApplyCommand creates the apply command.
func NewApplyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ApplyOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Append actions from an event file to the log",
		Long: `Validate the actions of a YAML or JSON event file and apply them, in
order, on top of the existing action log.

Event file format:
  resource: stories
  steps:
    - kind: request_many
      ids: [1, 2]
    - kind: fetched_many
      results:
        - { id: 1, title: "First" }

Exit codes:
  0 - All actions applied
  1 - The file contains invalid actions; nothing was applied
  2 - Command error (unreadable file, database error)

Examples:
  prodsys apply --db ./prodsys.db --file events.yaml
  prodsys apply --db ./prodsys.db --file events.json --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApply(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	cmd.Flags().StringVarP(&opts.File, "file", "f", "", "event file, .yaml or .json (required)")
	_ = cmd.MarkFlagRequired("db")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func runApply(opts *ApplyOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := newFormatter(opts.RootOptions, cmd)

	file, err := action.LoadFile(opts.File)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load event file", err)
	}
	if _, err := action.ParseResource(file.Resource); err != nil && file.Resource != "" {
		return WrapExitError(ExitCommandError, "invalid event file", err)
	}

	actions, err := file.Actions()
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid event file", err)
	}

	var problems []string
	for i, a := range actions {
		for _, v := range a.Validate() {
			problems = append(problems, fmt.Sprintf("steps[%d] %s", i, v.Error()))
		}
	}
	if len(problems) > 0 {
		if err := formatter.Error("E_INVALID_ACTION", "event file contains invalid actions", problems); err != nil {
			return err
		}
		if !formatter.JSON() {
			fmt.Fprintln(formatter.Writer, "  "+strings.Join(problems, "\n  "))
		}
		return NewExitError(ExitFailure, fmt.Sprintf("%d invalid action(s)", len(problems)))
	}

	st, err := openStore(opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	eng, err := resumeEngine(ctx, st)
	if err != nil {
		return err
	}

	first := eng.Seq() + 1
	for _, a := range actions {
		formatter.VerboseLog("dispatch %s", a)
		eng.Dispatch(a)
	}
	eng.Stop()
	if err := eng.Run(ctx); err != nil {
		return WrapExitError(ExitCommandError, "engine error", err)
	}

	last, err := st.LastSeq(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read action log", err)
	}

	result := ApplyResult{File: opts.File, Applied: int(last - first + 1), LastSeq: last}
	if result.Applied > 0 {
		result.FirstSeq = first
	}
	if result.Applied != len(actions) {
		return NewExitError(ExitCommandError, fmt.Sprintf("only %d of %d actions reached the log", result.Applied, len(actions)))
	}

	if formatter.JSON() {
		return formatter.Success(result)
	}
	if result.Applied == 0 {
		fmt.Fprintf(formatter.Writer, "No actions in %s\n", opts.File)
		return nil
	}
	fmt.Fprintf(formatter.Writer, "Applied %d action(s) from %s (seq %d..%d)\n", result.Applied, opts.File, result.FirstSeq, result.LastSeq)
	return nil
}
