package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/costcore/internal/engine"
	"github.com/roach88/costcore/internal/ingest"
	"github.com/roach88/costcore/internal/model"
	"github.com/roach88/costcore/internal/store"
)

// RegisterOptions holds flags for the register command.
type RegisterOptions struct {
	*RootOptions
	ProjectID string
	Kind      string
	Ingest    bool
}

// NewRegisterCommand creates the register command.
func NewRegisterCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RegisterOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "register <sheet.yaml>",
		Short: "Register an uploaded cost sheet",
		Long: `Register records a new file version for a project and kind. The file starts
pending; pass --ingest to parse and validate its rows in the same call.

Kinds: material, part, labor, logistics, material_plan, part_plan.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRegister(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.ProjectID, "project", "", "project id (required)")
	cmd.Flags().StringVar(&opts.Kind, "kind", "", "file kind (required)")
	cmd.Flags().BoolVar(&opts.Ingest, "ingest", false, "parse and validate the sheet after registering")
	_ = cmd.MarkFlagRequired("project")
	_ = cmd.MarkFlagRequired("kind")

	return cmd
}

type registerResult struct {
	File   *model.FileRecord `json:"file"`
	Report *engine.Report    `json:"report,omitempty"`
}

func runRegister(cmd *cobra.Command, opts *RegisterOptions, path string) error {
	s, err := openSession(opts.RootOptions, cmd)
	if err != nil {
		return newFormatter(opts.RootOptions, cmd).Fail(err)
	}
	defer s.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		return s.out.Fail(WrapExitError(ExitCommandError, "failed to read sheet", err))
	}
	// Decode before registering so an unreadable sheet leaves no file behind.
	var sheet *ingest.Sheet
	if opts.Ingest {
		if sheet, err = ingest.ParseSheet(data); err != nil {
			return s.out.Fail(WrapExitError(ExitCommandError, "invalid sheet", err))
		}
	}

	ctx := cmd.Context()
	f, err := s.engine.RegisterFile(ctx, engine.RegisterRequest{
		ProjectID:    opts.ProjectID,
		Kind:         model.FileKind(opts.Kind),
		OriginalName: filepath.Base(path),
		Content:      data,
		OperatorID:   opts.Operator,
	})
	if err != nil {
		return s.out.Fail(err)
	}
	s.out.VerboseLog("Registered %s version %d as %s", f.Kind, f.Version, f.ID)

	res := registerResult{File: f}
	if sheet != nil {
		if res.Report, err = s.engine.Ingest(ctx, f.ID, sheet, opts.Operator); err != nil {
			return s.out.Fail(err)
		}
		if res.File, err = s.engine.GetFile(ctx, f.ID); err != nil {
			return s.out.Fail(err)
		}
	}

	return s.out.Render(res, func(w io.Writer) {
		renderFile(w, res.File)
		if res.Report != nil {
			renderReport(w, res.Report)
		}
	})
}

// NewIngestCommand creates the ingest command.
func NewIngestCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ingest <file-id> <sheet.yaml>",
		Short: "Parse a pending file's rows and validate them",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(rootOpts, cmd)
			if err != nil {
				return newFormatter(rootOpts, cmd).Fail(err)
			}
			defer s.Close()

			sheet, hash, err := ingest.ReadSheet(args[1])
			if err != nil {
				return s.out.Fail(WrapExitError(ExitCommandError, "invalid sheet", err))
			}
			s.out.VerboseLog("Read %d row(s) from %s (sha256 %s)", len(sheet.Rows), args[1], hash)

			rep, err := s.engine.Ingest(cmd.Context(), args[0], sheet, rootOpts.Operator)
			if err != nil {
				return s.out.Fail(err)
			}
			return s.out.Render(rep, func(w io.Writer) { renderReport(w, rep) })
		},
	}
}

// FilesOptions holds flags for the files command.
type FilesOptions struct {
	*RootOptions
	ProjectID string
	Kind      string
}

// NewFilesCommand creates the files command.
func NewFilesCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &FilesOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "files",
		Short: "List a project's files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(opts.RootOptions, cmd)
			if err != nil {
				return newFormatter(opts.RootOptions, cmd).Fail(err)
			}
			defer s.Close()

			filter := store.FileFilter{ProjectID: opts.ProjectID}
			if opts.Kind != "" {
				kind, err := model.ParseFileKind(opts.Kind)
				if err != nil {
					return s.out.Fail(WrapExitError(ExitCommandError, "invalid --kind", err))
				}
				filter.Kind = kind
			}
			files, err := s.store.ListFiles(cmd.Context(), filter)
			if err != nil {
				return s.out.Fail(err)
			}
			return s.out.Render(files, func(w io.Writer) { renderFiles(w, files) })
		},
	}

	cmd.Flags().StringVar(&opts.ProjectID, "project", "", "project id (required)")
	cmd.Flags().StringVar(&opts.Kind, "kind", "", "only list files of this kind")
	_ = cmd.MarkFlagRequired("project")

	return cmd
}

// NewItemsCommand creates the items command.
func NewItemsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "items <file-id>",
		Short: "List the items parsed from a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(rootOpts, cmd)
			if err != nil {
				return newFormatter(rootOpts, cmd).Fail(err)
			}
			defer s.Close()

			items, err := s.engine.FileItems(cmd.Context(), args[0])
			if err != nil {
				return s.out.Fail(err)
			}
			return s.out.Render(items, func(w io.Writer) { renderItems(w, items) })
		},
	}
}

// NewManualFileCommand creates the manual-file command.
func NewManualFileCommand(rootOpts *RootOptions) *cobra.Command {
	var projectID string

	cmd := &cobra.Command{
		Use:   "manual-file",
		Short: "Create a manual logistics file",
		Long: `Manual-file creates an empty logistics file for hand-entered rows. Add rows
with manual-item; the file can fill the logistics slot of a snapshot.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(rootOpts, cmd)
			if err != nil {
				return newFormatter(rootOpts, cmd).Fail(err)
			}
			defer s.Close()

			f, err := s.engine.CreateManualFile(cmd.Context(), projectID, rootOpts.Operator)
			if err != nil {
				return s.out.Fail(err)
			}
			return s.out.Render(f, func(w io.Writer) { renderFile(w, f) })
		},
	}

	cmd.Flags().StringVar(&projectID, "project", "", "project id (required)")
	_ = cmd.MarkFlagRequired("project")

	return cmd
}

// ManualItemOptions holds flags for the manual-item command.
type ManualItemOptions struct {
	*RootOptions
	Type        string
	Description string
	Subtotal    string
}

// NewManualItemCommand creates the manual-item command.
func NewManualItemCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ManualItemOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "manual-item <file-id>",
		Short: "Add a hand-entered logistics row to a manual file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(opts.RootOptions, cmd)
			if err != nil {
				return newFormatter(opts.RootOptions, cmd).Fail(err)
			}
			defer s.Close()

			subtotal, err := model.ParseDecimal(opts.Subtotal)
			if err != nil {
				return s.out.Fail(WrapExitError(ExitCommandError, "invalid --subtotal", err))
			}
			it, err := s.engine.AddManualItem(cmd.Context(), args[0], engine.ManualItem{
				LogisticsType: model.LogisticsType(opts.Type),
				Description:   opts.Description,
				Subtotal:      subtotal,
			}, opts.Operator)
			if err != nil {
				return s.out.Fail(err)
			}
			return s.out.Render(it, func(w io.Writer) {
				fmt.Fprintf(w, "Added item %s (row %d): %s\n", it.ID, it.RowNo, it.Status)
			})
		},
	}

	cmd.Flags().StringVar(&opts.Type, "type", "", "logistics type: transport, installation or other (default other)")
	cmd.Flags().StringVar(&opts.Description, "description", "", "free-text description")
	cmd.Flags().StringVar(&opts.Subtotal, "subtotal", "", "row cost; omit to leave the row blocked until edited")

	return cmd
}
