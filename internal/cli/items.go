package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

type itemAction struct {
	ItemID string `json:"item_id"`
	Kind   string `json:"kind"`
	Action string `json:"action"`
}

// NewConfirmCommand creates the confirm command.
func NewConfirmCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "confirm <kind> <item-id>",
		Short: "Accept a warning row as correct",
		Long: `Confirm marks a warning row as confirmed by the operator. Only warning rows
can be confirmed, and rows on locked files or manual logistics rows cannot.

Kinds: material, part, labor, logistics.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(rootOpts, cmd)
			if err != nil {
				return newFormatter(rootOpts, cmd).Fail(err)
			}
			defer s.Close()

			if err := s.engine.ConfirmItem(cmd.Context(), args[0], args[1], rootOpts.Operator); err != nil {
				return s.out.Fail(err)
			}
			res := itemAction{ItemID: args[1], Kind: args[0], Action: "confirmed"}
			return s.out.Render(res, func(w io.Writer) {
				fmt.Fprintf(w, "✓ Confirmed %s item %s\n", res.Kind, res.ItemID)
			})
		},
	}
}

// NewEditCommand creates the edit command.
func NewEditCommand(rootOpts *RootOptions) *cobra.Command {
	var sets []string

	cmd := &cobra.Command{
		Use:   "edit <kind> <item-id> --set field=value...",
		Short: "Change fields of an item",
		Long: `Edit updates whitelisted fields of an item and re-validates its file when a
rule field changed. An empty value clears the field.

Example:
  costcore edit material 0190... --set subtotal=50 --set supplier=ACME`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(rootOpts, cmd)
			if err != nil {
				return newFormatter(rootOpts, cmd).Fail(err)
			}
			defer s.Close()

			updates, err := parseAssignments(sets)
			if err != nil {
				return s.out.Fail(err)
			}
			if err := s.engine.EditItem(cmd.Context(), args[0], args[1], updates, rootOpts.Operator); err != nil {
				return s.out.Fail(err)
			}
			res := itemAction{ItemID: args[1], Kind: args[0], Action: "edited"}
			return s.out.Render(res, func(w io.Writer) {
				fmt.Fprintf(w, "✓ Edited %s item %s (%d field(s))\n", res.Kind, res.ItemID, len(updates))
			})
		},
	}

	cmd.Flags().StringArrayVar(&sets, "set", nil, "field=value assignment (repeatable)")
	_ = cmd.MarkFlagRequired("set")

	return cmd
}

// parseAssignments splits field=value pairs on the first "=".
func parseAssignments(sets []string) (map[string]string, error) {
	updates := make(map[string]string, len(sets))
	for _, a := range sets {
		field, value, ok := strings.Cut(a, "=")
		field = strings.TrimSpace(field)
		if !ok || field == "" {
			return nil, NewExitError(ExitCommandError, fmt.Sprintf("invalid --set %q: want field=value", a))
		}
		if _, dup := updates[field]; dup {
			return nil, NewExitError(ExitCommandError, fmt.Sprintf("field %q set more than once", field))
		}
		updates[field] = value
	}
	return updates, nil
}
