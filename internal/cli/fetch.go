package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/prodsys/internal/action"
	"github.com/roach88/prodsys/internal/engine"
	"github.com/roach88/prodsys/internal/entity"
	"github.com/roach88/prodsys/internal/transport"
)

// FetchOptions holds flags for the fetch command.
type FetchOptions struct {
	*RootOptions
	Database string
	API      string
	Resource string
	IDs      []string
	Prefetch bool
	Timeout  time.Duration
	Retries  int
}

// NewFetchCommand creates the fetch command.
func NewFetchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &FetchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Request entities from the API and record the outcome",
		Long: `Resume the cache from the action log, dispatch a request for the given
ids and wait until every completion has been applied. Requests and
completions are appended to the log. --timeout bounds the whole command,
retries included; calls still running when it expires are cancelled.

A single id is requested on its own; several ids share one batch call.

Exit codes:
  0 - Every id settled
  1 - Timed out waiting for completions
  2 - Command error (bad flags, database not found, etc.)

Examples:
  prodsys fetch --db ./prodsys.db --api https://example.org --resource stories --id 12
  prodsys fetch --db ./prodsys.db --api https://example.org --resource photos --id 3,4,5`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFetch(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	cmd.Flags().StringVar(&opts.API, "api", "", "API base URL (required)")
	cmd.Flags().StringVar(&opts.Resource, "resource", "", "resource name (required)")
	cmd.Flags().StringSliceVar(&opts.IDs, "id", nil, "entity id (repeatable, comma separated; required)")
	cmd.Flags().BoolVar(&opts.Prefetch, "prefetch", false, "mark a single-id request as a prefetch")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 30*time.Second, "overall limit for the fetch, retries included")
	cmd.Flags().IntVar(&opts.Retries, "retries", 3, "retries per failed call")
	_ = cmd.MarkFlagRequired("db")
	_ = cmd.MarkFlagRequired("api")
	_ = cmd.MarkFlagRequired("resource")
	_ = cmd.MarkFlagRequired("id")

	return cmd
}

func runFetch(opts *FetchOptions, cmd *cobra.Command) error {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := parseResource(opts.Resource)
	if err != nil {
		return err
	}
	ids := entity.ParseIDs(opts.IDs)
	if len(ids) == 0 {
		return NewExitError(ExitCommandError, "at least one --id is required")
	}
	if opts.Retries < 0 {
		return NewExitError(ExitCommandError, "--retries must not be negative")
	}

	collab, err := transport.NewHTTP(opts.API,
		transport.WithRetryMax(opts.Retries),
		transport.WithTimeout(opts.Timeout),
		transport.WithLogger(slog.Default()),
	)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid --api", err)
	}

	st, err := openStore(opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	e, err := resumeEngine(ctx, st, engine.WithTransport(collab))
	if err != nil {
		return err
	}

	// --timeout bounds the whole command: the engine, and with it every
	// in-flight transport call, runs on runCtx.
	runCtx, cancelRun := context.WithTimeout(ctx, opts.Timeout)
	defer cancelRun()

	done := make(chan error, 1)
	go func() {
		done <- e.Run(runCtx)
	}()

	var req action.Action
	if len(ids) == 1 {
		req = action.NewRequestOne(res, ids[0], opts.Prefetch)
	} else {
		req = action.NewRequestMany(res, ids)
	}

	formatter := newFormatter(opts.RootOptions, cmd)
	formatter.VerboseLog("dispatching %s for %d id(s)", req.Type, len(ids))
	e.Dispatch(req)

	waitErr := e.Wait(runCtx, res, ids...)
	if waitErr != nil {
		// abort transport calls still retrying; their completions would be
		// dropped by the stopped engine anyway
		cancelRun()
	}

	e.Stop()
	if err := <-done; err != nil && !isContextErr(err) {
		return WrapExitError(ExitCommandError, "engine stopped", err)
	}

	out := collectEntities(res, e.State().Slice(res), ids)

	if waitErr != nil {
		msg := fmt.Sprintf("completions for %s did not arrive: %v", res, waitErr)
		if err := formatter.Failure("E_TIMEOUT", msg, out); err != nil {
			return err
		}
		return NewExitError(ExitFailure, msg)
	}

	if formatter.JSON() {
		return formatter.Success(out)
	}
	return writeEntitiesText(formatter.Writer, out, ids)
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
