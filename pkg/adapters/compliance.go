package adapters

import (
	"maps"
	"slices"

	"github.com/de-tools/fleet-compliance/pkg/models/api"
	"github.com/de-tools/fleet-compliance/pkg/models/domain"
)

func MapServerInfoDomainToApi(s domain.ServerInfo) api.ServerInfo {
	c := s.Classification
	return api.ServerInfo{
		Name:      s.Name,
		ImageName: valueOrNotAvailable(c.ImageName),
		ImageID:   valueOrNotAvailable(c.ImageID),
		ImageYear: c.Year,
		ImageWeek: c.Week,
		Reason:    c.Reason,
	}
}

func MapRegionResultDomainToApi(r domain.RegionResult) api.RegionResult {
	res := api.RegionResult{
		TotalServers:         r.TotalServers,
		Compliant:            r.Compliant,
		NonCompliant:         r.NonCompliant,
		CompliancePercentage: r.CompliancePercentage,
		GoodServers:          make([]api.ServerInfo, 0, len(r.GoodServers)),
		BadServers:           make([]api.ServerInfo, 0, len(r.BadServers)),
		Error:                errorString(r.Err),
	}
	for _, s := range r.GoodServers {
		res.GoodServers = append(res.GoodServers, MapServerInfoDomainToApi(s))
	}
	for _, s := range r.BadServers {
		res.BadServers = append(res.BadServers, MapServerInfoDomainToApi(s))
	}
	return res
}

func MapApplicationResultDomainToApi(a domain.ApplicationResult) api.ApplicationResult {
	res := api.ApplicationResult{
		AppName: a.AppName,
		Regions: make(map[string]api.RegionResult, len(a.Regions)),
		Error:   errorString(a.Err),
	}
	// a failed application has no evaluation instant to report
	if !a.Timestamp.IsZero() {
		ts := a.Timestamp
		year, week := a.Reference.Year, a.Reference.Week
		res.Timestamp = &ts
		res.CurrentYear = &year
		res.CurrentWeek = &week
	}
	for name, r := range a.Regions {
		res.Regions[name] = MapRegionResultDomainToApi(r)
	}
	return res
}

func MapEvaluationRunDomainToApi(run domain.EvaluationRun) api.EvaluationRun {
	res := api.EvaluationRun{
		Timestamp: run.Timestamp,
		Apps:      make(map[string]api.ApplicationResult, len(run.Apps)),
	}
	for name, a := range run.Apps {
		res.Apps[name] = MapApplicationResultDomainToApi(a)
	}
	return res
}

func MapComplianceTotalsDomainToApi(t domain.ComplianceTotals) api.ComplianceTotals {
	return api.ComplianceTotals{
		TotalServers:         t.TotalServers,
		Compliant:            t.Compliant,
		NonCompliant:         t.NonCompliant,
		CompliancePercentage: t.CompliancePercentage,
	}
}

func MapFleetSummaryDomainToApi(s domain.FleetSummary) api.FleetSummary {
	res := api.FleetSummary{
		Timestamp: s.Timestamp,
		Overall:   MapComplianceTotalsDomainToApi(s.Overall),
		ByApp:     make([]api.AppSummary, 0, len(s.ByApp)),
	}
	for _, app := range s.ByApp {
		res.ByApp = append(res.ByApp, api.AppSummary{
			AppName:          app.AppName,
			ComplianceTotals: MapComplianceTotalsDomainToApi(app.ComplianceTotals),
		})
	}
	return res
}

// MapApplicationsToApi returns the application names sorted.
func MapApplicationsToApi(apps []string) api.Applications {
	sorted := slices.Sorted(slices.Values(apps))
	if sorted == nil {
		sorted = []string{}
	}
	return api.Applications{Apps: sorted, Count: len(sorted)}
}

// SortedRegionNames returns the region keys of an application result in lexical order.
func SortedRegionNames(a api.ApplicationResult) []string {
	return slices.Sorted(maps.Keys(a.Regions))
}

func valueOrNotAvailable(v *string) string {
	if v == nil {
		return api.NotAvailable
	}
	return *v
}

func errorString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
