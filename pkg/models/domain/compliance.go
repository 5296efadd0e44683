package domain

import "time"

// RegionResult holds the compliance of one application in one region. When Err is set
// every counter is zero and both server lists are empty.
type RegionResult struct {
	TotalServers         int
	Compliant            int
	NonCompliant         int
	CompliancePercentage float64
	GoodServers          []ServerInfo
	BadServers           []ServerInfo
	Err                  error
}

// ApplicationResult holds the compliance of one application across all configured regions.
// Err is set when evaluation failed before any region was reached.
type ApplicationResult struct {
	AppName   string
	Timestamp time.Time
	Reference YearWeek
	Regions   map[string]RegionResult
	Err       error
}

// EvaluationRun is the outcome of evaluating every known application.
type EvaluationRun struct {
	Timestamp time.Time
	Apps      map[string]ApplicationResult
}

// ComplianceTotals are server counters with their derived percentage.
type ComplianceTotals struct {
	TotalServers         int
	Compliant            int
	NonCompliant         int
	CompliancePercentage float64
}

type AppSummary struct {
	AppName string
	ComplianceTotals
}

// FleetSummary rolls application results into fleet-wide totals. ByApp is ordered by
// application name.
type FleetSummary struct {
	Timestamp time.Time
	Overall   ComplianceTotals
	ByApp     []AppSummary
}
