package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/roach88/costcore/internal/engine"
	"github.com/roach88/costcore/internal/model"
)

func newTable(w io.Writer, header ...string) *tabwriter.Writer {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	return tw
}

func row(tw *tabwriter.Writer, cells ...any) {
	parts := make([]string, len(cells))
	for i, c := range cells {
		parts[i] = fmt.Sprint(c)
	}
	fmt.Fprintln(tw, strings.Join(parts, "\t"))
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func renderFile(w io.Writer, f *model.FileRecord) {
	fmt.Fprintf(w, "File %s\n", f.ID)
	fmt.Fprintf(w, "  project:    %s\n", f.ProjectID)
	fmt.Fprintf(w, "  kind:       %s (version %d)\n", f.Kind, f.Version)
	fmt.Fprintf(w, "  parse:      %s\n", f.ParseStatus)
	fmt.Fprintf(w, "  validation: %s\n", f.ValidationStatus)
	if f.Locked {
		fmt.Fprintln(w, "  locked:     yes")
	}
}

func renderFiles(w io.Writer, files []model.FileRecord) {
	if len(files) == 0 {
		fmt.Fprintln(w, "No files found")
		return
	}
	tw := newTable(w, "ID", "KIND", "VERSION", "PARSE", "VALIDATION", "LOCKED", "NAME")
	for _, f := range files {
		row(tw, f.ID, f.Kind, f.Version, f.ParseStatus, f.ValidationStatus, f.Locked, f.OriginalName)
	}
	tw.Flush()
}

func renderReport(w io.Writer, rep *engine.Report) {
	fmt.Fprintf(w, "File %s (%s): %s\n", rep.FileID, rep.FileKind, rep.FileStatus)
	fmt.Fprintf(w, "  items: %d  ok: %d  warning: %d  confirmed: %d  blocked: %d\n",
		rep.Total, rep.OK, rep.Warning, rep.Confirmed, rep.Blocked)
	for _, id := range rep.BlockedItems {
		res := rep.Items[id]
		fmt.Fprintf(w, "  ✗ %s %v: %s\n", id, res.Codes, strings.Join(res.Messages, "; "))
	}
	for _, id := range rep.WarningItems {
		res := rep.Items[id]
		fmt.Fprintf(w, "  ! %s %v: %s\n", id, res.Codes, strings.Join(res.Messages, "; "))
	}
}

func renderItems(w io.Writer, items []model.Item) {
	if len(items) == 0 {
		fmt.Fprintln(w, "No items found")
		return
	}
	tw := newTable(w, "ID", "ROW", "STATUS", "CALC", "NAME", "QTY", "PRICE", "SUBTOTAL", "BUNDLE")
	for _, it := range items {
		bundle := ""
		if it.BundleKey != nil {
			bundle = fmt.Sprint(*it.BundleKey)
		}
		name := it.DisplayName()
		if it.Kind == model.ItemLogistics {
			name = fmt.Sprintf("[%s] %s", it.LogisticsType, it.Description)
		}
		row(tw, it.ID, it.RowNo, it.Status, it.Calculable, name,
			model.FormatDecimal(it.Quantity), model.FormatDecimal(it.UnitPrice),
			model.FormatDecimal(it.Subtotal), bundle)
	}
	tw.Flush()
}

func renderSummary(w io.Writer, s *model.CostSummary) {
	fmt.Fprintf(w, "Snapshot %s (version %d, %s)\n", s.ID, s.CalculationVersion, s.Status)
	tw := newTable(w, "  SLOT", "FILE", "VERSION", "COST")
	row(tw, "  material", s.MaterialFile.ID, s.MaterialFile.Version, s.MaterialCost)
	row(tw, "  part", s.PartFile.ID, s.PartFile.Version, s.PartCost)
	row(tw, "  labor", s.LaborFile.ID, s.LaborFile.Version, s.LaborCost)
	row(tw, "  logistics", s.LogisticsFile.ID, s.LogisticsFile.Version, s.LogisticsCost)
	row(tw, "  total", "", "", s.TotalCost)
	tw.Flush()
}

func renderSummaries(w io.Writer, summaries []model.CostSummary) {
	if len(summaries) == 0 {
		fmt.Fprintln(w, "No snapshots found")
		return
	}
	tw := newTable(w, "VERSION", "ID", "STATUS", "TOTAL", "CALCULATED", "REPLACED BY")
	for _, s := range summaries {
		row(tw, s.CalculationVersion, s.ID, s.Status, s.TotalCost, formatTime(s.CalculatedAt), s.ReplacesID)
	}
	tw.Flush()
}

func renderAudit(w io.Writer, entries []model.AuditEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No audit entries found")
		return
	}
	tw := newTable(w, "SEQ", "TIME", "OPERATOR", "ACTION", "ENTITY", "FIELD", "BEFORE", "AFTER")
	for _, e := range entries {
		row(tw, e.Seq, formatTime(e.Timestamp), e.OperatorID, e.Action,
			fmt.Sprintf("%s/%s", e.EntityType, e.EntityID), e.Field, e.Before, e.After)
	}
	tw.Flush()
}
