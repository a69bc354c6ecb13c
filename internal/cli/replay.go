package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/prodsys/internal/action"
	"github.com/roach88/prodsys/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
	Resource string // optional - one slice only
}

// ReplaySliceResult holds the replay result for one resource.
type ReplaySliceResult struct {
	store.ReplayStats
	Deterministic bool `json:"deterministic"`
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	Slices           []ReplaySliceResult `json:"slices"`
	TotalSlices      int                 `json:"total_slices"`
	AllDeterministic bool                `json:"all_deterministic"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay the action log and verify determinism",
		Long: `Rebuild each cache slice from the action log twice, compare the
resulting content hashes and report per-slice statistics.

Exit codes:
  0 - All slices are deterministic
  1 - Determinism verification failed
  2 - Command error (database not found, etc.)

Examples:
  prodsys replay --db ./prodsys.db
  prodsys replay --db ./prodsys.db --resource stories
  prodsys replay --db ./prodsys.db --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Resource, "resource", "", "replay one resource only")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var resources []action.Resource
	if opts.Resource != "" {
		res, err := parseResource(opts.Resource)
		if err != nil {
			return err
		}
		resources = []action.Resource{res}
	}

	st, err := openStore(opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	if resources == nil {
		all, err := st.Resources(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list resources", err)
		}
		for _, r := range all {
			if _, err := action.ParseResource(string(r)); err == nil {
				resources = append(resources, r)
			}
		}
	}

	result := ReplayResult{
		Slices:           make([]ReplaySliceResult, 0, len(resources)),
		TotalSlices:      len(resources),
		AllDeterministic: true,
	}

	for _, res := range resources {
		slice, err := replayAndVerify(ctx, st, res)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to replay %s", res), err)
		}
		result.Slices = append(result.Slices, slice)
		if !slice.Deterministic {
			result.AllDeterministic = false
		}
	}

	formatter := newFormatter(opts.RootOptions, cmd)
	if formatter.JSON() {
		return outputReplayJSON(formatter, result)
	}
	return outputReplayText(formatter, result)
}

// replayAndVerify rebuilds one slice twice and compares the hashes.
func replayAndVerify(ctx context.Context, st *store.Store, res action.Resource) (ReplaySliceResult, error) {
	_, first, err := st.Replay(ctx, res)
	if err != nil {
		return ReplaySliceResult{}, fmt.Errorf("first replay: %w", err)
	}
	_, second, err := st.Replay(ctx, res)
	if err != nil {
		return ReplaySliceResult{}, fmt.Errorf("second replay: %w", err)
	}

	return ReplaySliceResult{
		ReplayStats:   first,
		Deterministic: first.Hash == second.Hash,
	}, nil
}

func outputReplayJSON(f *OutputFormatter, result ReplayResult) error {
	if !result.AllDeterministic {
		if err := f.Failure("E_DETERMINISM", "determinism verification failed", result); err != nil {
			return err
		}
		return NewExitError(ExitFailure, "determinism verification failed")
	}
	return f.Success(result)
}

func outputReplayText(f *OutputFormatter, result ReplayResult) error {
	w := f.Writer

	if result.TotalSlices == 0 {
		fmt.Fprintln(w, "No actions found in database.")
		return nil
	}

	fmt.Fprintf(w, "Replay Summary: %d slice(s)\n", result.TotalSlices)
	fmt.Fprintln(w)

	for _, s := range result.Slices {
		status := "✓"
		if !s.Deterministic {
			status = "✗"
		}

		fmt.Fprintf(w, "%s Slice: %s\n", status, s.Resource)
		fmt.Fprintf(w, "  Actions: %d (last seq %d)\n", s.Actions, s.LastSeq)
		fmt.Fprintf(w, "  Entities: %d, fetching: %d\n", s.Entities, s.Fetching)
		if f.Verbose {
			fmt.Fprintf(w, "  Snapshot seq: %d\n", s.SnapshotSeq)
			fmt.Fprintf(w, "  Hash: %s\n", s.Hash)
		}

		if !s.Deterministic {
			fmt.Fprintln(w, "  Warning: Non-deterministic replay detected!")
		}
		fmt.Fprintln(w)
	}

	if result.AllDeterministic {
		fmt.Fprintln(w, "✓ All slices verified deterministic")
		return nil
	}

	fmt.Fprintln(w, "✗ Determinism verification failed")
	return NewExitError(ExitFailure, "determinism verification failed")
}
