package cli

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/costcore/internal/model"
	"github.com/roach88/costcore/internal/store"
)

// AuditOptions holds flags for the audit command.
type AuditOptions struct {
	*RootOptions
	ProjectID  string
	EntityType string
	EntityID   string
	Limit      int
}

// NewAuditCommand creates the audit command.
func NewAuditCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AuditOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Show the audit log",
		Long: `Audit prints field-level change records in the order they were written.

Entity types: file_record, material_item, part_item, labor_item,
logistics_item, cost_summary.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(opts.RootOptions, cmd)
			if err != nil {
				return newFormatter(opts.RootOptions, cmd).Fail(err)
			}
			defer s.Close()

			filter := store.AuditFilter{
				ProjectID: opts.ProjectID,
				EntityID:  opts.EntityID,
				Limit:     opts.Limit,
			}
			if opts.EntityType != "" {
				et, err := model.ParseEntityType(opts.EntityType)
				if err != nil {
					return s.out.Fail(WrapExitError(ExitCommandError, "invalid --entity-type", err))
				}
				filter.EntityType = et
			}
			entries, err := s.store.ListAudit(cmd.Context(), filter)
			if err != nil {
				return s.out.Fail(err)
			}
			return s.out.Render(entries, func(w io.Writer) { renderAudit(w, entries) })
		},
	}

	cmd.Flags().StringVar(&opts.ProjectID, "project", "", "only entries of this project")
	cmd.Flags().StringVar(&opts.EntityType, "entity-type", "", "only entries for this entity type")
	cmd.Flags().StringVar(&opts.EntityID, "entity-id", "", "only entries for this entity id")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum number of entries (0 = all)")

	return cmd
}
