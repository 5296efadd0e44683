package api

import "time"

// NotAvailable stands in for an image id or name the inventory did not provide.
const NotAvailable = "N/A"

type ServerInfo struct {
	Name      string `json:"name"`
	ImageName string `json:"image_name"`
	ImageID   string `json:"image_id"`
	ImageYear *int   `json:"image_year,omitempty"`
	ImageWeek *int   `json:"image_week,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

type RegionResult struct {
	TotalServers         int          `json:"total_servers"`
	Compliant            int          `json:"compliant"`
	NonCompliant         int          `json:"non_compliant"`
	CompliancePercentage float64      `json:"compliance_percentage"`
	GoodServers          []ServerInfo `json:"good_servers"`
	BadServers           []ServerInfo `json:"bad_servers"`
	Error                string       `json:"error,omitempty"`
}

type ApplicationResult struct {
	AppName     string                  `json:"app_name"`
	Timestamp   *time.Time              `json:"timestamp,omitempty"`
	CurrentWeek *int                    `json:"current_week,omitempty"`
	CurrentYear *int                    `json:"current_year,omitempty"`
	Regions     map[string]RegionResult `json:"regions"`
	Error       string                  `json:"error,omitempty"`
}

type EvaluationRun struct {
	Timestamp time.Time                    `json:"timestamp"`
	Apps      map[string]ApplicationResult `json:"apps"`
}

type ComplianceTotals struct {
	TotalServers         int     `json:"total_servers"`
	Compliant            int     `json:"compliant"`
	NonCompliant         int     `json:"non_compliant"`
	CompliancePercentage float64 `json:"compliance_percentage"`
}

type AppSummary struct {
	AppName string `json:"app_name"`
	ComplianceTotals
}

type FleetSummary struct {
	Timestamp time.Time        `json:"timestamp"`
	Overall   ComplianceTotals `json:"overall"`
	ByApp     []AppSummary     `json:"by_app"`
}
