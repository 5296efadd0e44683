package report

import (
	"sort"

	"github.com/de-tools/fleet-compliance/pkg/models/domain"
	"github.com/de-tools/fleet-compliance/pkg/services/compliance"
)

// Summarize rolls an evaluation run into fleet totals. Regions that failed are skipped, and
// an application that failed entirely contributes zero servers.
func Summarize(run domain.EvaluationRun) domain.FleetSummary {
	summary := domain.FleetSummary{
		Timestamp: run.Timestamp,
		ByApp:     make([]domain.AppSummary, 0, len(run.Apps)),
	}

	for name, app := range run.Apps {
		totals := applicationTotals(app)
		summary.ByApp = append(summary.ByApp, domain.AppSummary{AppName: name, ComplianceTotals: totals})

		summary.Overall.TotalServers += totals.TotalServers
		summary.Overall.Compliant += totals.Compliant
		summary.Overall.NonCompliant += totals.NonCompliant
	}
	summary.Overall.CompliancePercentage = compliance.Percentage(
		summary.Overall.Compliant,
		summary.Overall.TotalServers,
	)

	sort.Slice(summary.ByApp, func(i, j int) bool {
		return summary.ByApp[i].AppName < summary.ByApp[j].AppName
	})
	return summary
}

func applicationTotals(app domain.ApplicationResult) domain.ComplianceTotals {
	var totals domain.ComplianceTotals
	if app.Err != nil {
		return totals
	}
	for _, region := range app.Regions {
		if region.Err != nil {
			continue
		}
		totals.TotalServers += region.TotalServers
		totals.Compliant += region.Compliant
		totals.NonCompliant += region.NonCompliant
	}
	totals.CompliancePercentage = compliance.Percentage(totals.Compliant, totals.TotalServers)
	return totals
}
