package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/roach88/prodsys/internal/entity"
)

// GetOptions holds flags for the get command.
type GetOptions struct {
	*RootOptions
	Database string
	Resource string
	IDs      []string
}

// NewGetCommand creates the get command.
func NewGetCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GetOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "get",
		Short: "Print cached records of one resource",
		Long: `Rebuild one slice from the action log and print the records at the
given ids, or every record when no id is given. Ids that were never
requested or fetched are reported as absent.

Examples:
  prodsys get --db ./prodsys.db --resource stories
  prodsys get --db ./prodsys.db --resource stories --id 12 --id 13
  prodsys get --db ./prodsys.db --resource photos --id 3,4 --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGet(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	cmd.Flags().StringVar(&opts.Resource, "resource", "", "resource name (required)")
	cmd.Flags().StringSliceVar(&opts.IDs, "id", nil, "entity id (repeatable, comma separated)")
	_ = cmd.MarkFlagRequired("db")
	_ = cmd.MarkFlagRequired("resource")

	return cmd
}

func runGet(opts *GetOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	res, err := parseResource(opts.Resource)
	if err != nil {
		return err
	}
	ids := entity.ParseIDs(opts.IDs)

	st, err := openStore(opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	slice, stats, err := st.Replay(ctx, res)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to replay action log", err)
	}

	formatter := newFormatter(opts.RootOptions, cmd)
	formatter.VerboseLog("replayed %d action(s) for %s up to seq %d", stats.Actions, res, stats.LastSeq)

	out := collectEntities(res, slice, ids)
	if formatter.JSON() {
		return formatter.Success(out)
	}
	return writeEntitiesText(formatter.Writer, out, ids)
}
