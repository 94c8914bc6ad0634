package cli

import (
	"io"

	"github.com/spf13/cobra"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file-id>",
		Short: "Re-run the row rules over a parsed file",
		Long: `Validate re-evaluates every row of a parsed, unlocked file and updates item
and file statuses. Confirmed rows keep their status. Running it twice in a row
changes nothing.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(rootOpts, cmd)
			if err != nil {
				return newFormatter(rootOpts, cmd).Fail(err)
			}
			defer s.Close()

			rep, err := s.engine.ValidateFile(cmd.Context(), args[0])
			if err != nil {
				return s.out.Fail(err)
			}
			return s.out.Render(rep, func(w io.Writer) { renderReport(w, rep) })
		},
	}
}
