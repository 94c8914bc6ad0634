package cli

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/costcore/internal/engine"
)

// SnapshotOptions holds flags for the snapshot command.
type SnapshotOptions struct {
	*RootOptions
	ProjectID string
	Material  string
	Part      string
	Labor     string
	Logistics string
	Latest    bool
}

// NewSnapshotCommand creates the snapshot command.
func NewSnapshotCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SnapshotOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Freeze four validated files into a cost snapshot",
		Long: `Snapshot sums the calculable rows of one material, part, labor and logistics
file into a new active cost summary for the project. The previous active
summary is replaced and the four files are locked permanently.

With --latest, any file flag left unset is filled with the project's newest
usable file of that kind (a manual file may fill the logistics slot).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(opts.RootOptions, cmd)
			if err != nil {
				return newFormatter(opts.RootOptions, cmd).Fail(err)
			}
			defer s.Close()

			ctx := cmd.Context()
			req := engine.SnapshotRequest{
				ProjectID:       opts.ProjectID,
				MaterialFileID:  opts.Material,
				PartFileID:      opts.Part,
				LaborFileID:     opts.Labor,
				LogisticsFileID: opts.Logistics,
				OperatorID:      opts.Operator,
			}
			if opts.Latest {
				if req, err = s.engine.LatestSnapshotRequest(ctx, req); err != nil {
					return s.out.Fail(err)
				}
				s.out.VerboseLog("Using files material=%s part=%s labor=%s logistics=%s",
					req.MaterialFileID, req.PartFileID, req.LaborFileID, req.LogisticsFileID)
			}

			sum, err := s.engine.GenerateSnapshot(ctx, req)
			if err != nil {
				return s.out.Fail(err)
			}
			return s.out.Render(sum, func(w io.Writer) { renderSummary(w, sum) })
		},
	}

	cmd.Flags().StringVar(&opts.ProjectID, "project", "", "project id (required)")
	cmd.Flags().StringVar(&opts.Material, "material", "", "material file id")
	cmd.Flags().StringVar(&opts.Part, "part", "", "part file id")
	cmd.Flags().StringVar(&opts.Labor, "labor", "", "labor file id")
	cmd.Flags().StringVar(&opts.Logistics, "logistics", "", "logistics or manual file id")
	cmd.Flags().BoolVar(&opts.Latest, "latest", false, "fill unset file flags with the newest usable files")
	_ = cmd.MarkFlagRequired("project")

	return cmd
}

// NewSummariesCommand creates the summaries command.
func NewSummariesCommand(rootOpts *RootOptions) *cobra.Command {
	var projectID string
	var activeOnly bool

	cmd := &cobra.Command{
		Use:   "summaries",
		Short: "List a project's cost snapshots",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(rootOpts, cmd)
			if err != nil {
				return newFormatter(rootOpts, cmd).Fail(err)
			}
			defer s.Close()

			list := s.store.ListSummaries
			if activeOnly {
				list = s.store.ActiveSummaries
			}
			summaries, err := list(cmd.Context(), projectID)
			if err != nil {
				return s.out.Fail(err)
			}
			return s.out.Render(summaries, func(w io.Writer) { renderSummaries(w, summaries) })
		},
	}

	cmd.Flags().StringVar(&projectID, "project", "", "project id (required)")
	cmd.Flags().BoolVar(&activeOnly, "active", false, "only the active snapshot")
	_ = cmd.MarkFlagRequired("project")

	return cmd
}
