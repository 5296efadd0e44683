package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/de-tools/fleet-compliance/pkg/adapters"
	"github.com/de-tools/fleet-compliance/pkg/models/api"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
)

func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case FormatTable, "":
		return FormatTable, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported output format %q (expected table or json)", s)
	}
}

// Reporter renders API models either as go-pretty tables or as indented JSON.
type Reporter struct {
	writer io.Writer
	format Format
}

func NewReporter(writer io.Writer) *Reporter {
	if writer == nil {
		writer = os.Stdout
	}
	return &Reporter{
		writer: writer,
		format: FormatTable,
	}
}

func (r *Reporter) SetFormat(f Format) {
	r.format = f
}

func (r *Reporter) Applications(apps api.Applications) error {
	if r.format == FormatJSON {
		return r.json(apps)
	}
	tw := r.newTable()
	tw.AppendHeader(table.Row{"Application"})
	for _, app := range apps.Apps {
		tw.AppendRow(table.Row{app})
	}
	tw.AppendFooter(table.Row{fmt.Sprintf("%d applications", apps.Count)})
	tw.Render()
	return nil
}

func (r *Reporter) ApplicationResult(res api.ApplicationResult) error {
	if r.format == FormatJSON {
		return r.json(res)
	}
	r.applicationTables(res)
	return nil
}

func (r *Reporter) EvaluationRun(run api.EvaluationRun) error {
	if r.format == FormatJSON {
		return r.json(run)
	}
	names := make([]string, 0, len(run.Apps))
	for name := range run.Apps {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		r.applicationTables(run.Apps[name])
	}
	return nil
}

func (r *Reporter) FleetSummary(summary api.FleetSummary) error {
	if r.format == FormatJSON {
		return r.json(summary)
	}
	tw := r.newTable()
	tw.SetTitle("Compliance summary " + summary.Timestamp.Format("2006-01-02 15:04:05 MST"))
	tw.AppendHeader(table.Row{"Application", "Total", "Compliant", "Non-compliant", "Compliance"})
	for _, app := range summary.ByApp {
		tw.AppendRow(totalsRow(app.AppName, app.ComplianceTotals))
	}
	tw.AppendFooter(totalsRow("Overall", summary.Overall))
	tw.Render()
	return nil
}

func (r *Reporter) applicationTables(res api.ApplicationResult) {
	title := res.AppName
	if res.CurrentYear != nil && res.CurrentWeek != nil {
		title = fmt.Sprintf("%s (reference week %d-W%02d)", res.AppName, *res.CurrentYear, *res.CurrentWeek)
	}
	if res.Error != "" {
		fmt.Fprintf(r.writer, "%s: %s\n", title, failure(res.Error))
		return
	}

	regions := adapters.SortedRegionNames(res)

	tw := r.newTable()
	tw.SetTitle(title)
	tw.AppendHeader(table.Row{"Region", "Total", "Compliant", "Non-compliant", "Compliance", "Error"})
	for _, name := range regions {
		region := res.Regions[name]
		tw.AppendRow(table.Row{
			name,
			region.TotalServers,
			region.Compliant,
			region.NonCompliant,
			percentage(region.CompliancePercentage),
			failure(region.Error),
		})
	}
	tw.Render()

	bad := r.newTable()
	bad.AppendHeader(table.Row{"Region", "Server", "Image", "Reason"})
	rows := 0
	for _, name := range regions {
		for _, s := range res.Regions[name].BadServers {
			bad.AppendRow(table.Row{name, s.Name, s.ImageName, s.Reason})
			rows++
		}
	}
	if rows > 0 {
		bad.Render()
	}
}

func (r *Reporter) newTable() table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(r.writer)
	tw.SetStyle(table.StyleLight)
	return tw
}

func (r *Reporter) json(v any) error {
	enc := json.NewEncoder(r.writer)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return nil
}

func totalsRow(name string, t api.ComplianceTotals) table.Row {
	return table.Row{name, t.TotalServers, t.Compliant, t.NonCompliant, percentage(t.CompliancePercentage)}
}

func percentage(p float64) string {
	s := fmt.Sprintf("%.2f%%", p)
	switch {
	case p >= 100:
		return text.FgGreen.Sprint(s)
	case p >= 80:
		return text.FgYellow.Sprint(s)
	default:
		return text.FgRed.Sprint(s)
	}
}

func failure(msg string) string {
	if msg == "" {
		return ""
	}
	return text.FgRed.Sprint(msg)
}
