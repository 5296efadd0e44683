package report

import (
	"errors"
	"testing"
	"time"

	"github.com/de-tools/fleet-compliance/pkg/models/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func region(total, compliant int) domain.RegionResult {
	return domain.RegionResult{
		TotalServers: total,
		Compliant:    compliant,
		NonCompliant: total - compliant,
	}
}

func TestSummarize(t *testing.T) {
	ts := time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name          string
		run           domain.EvaluationRun
		expectOverall domain.ComplianceTotals
		expectByApp   []domain.AppSummary
	}{
		{
			name:          "empty run",
			run:           domain.EvaluationRun{Timestamp: ts},
			expectOverall: domain.ComplianceTotals{},
			expectByApp:   []domain.AppSummary{},
		},
		{
			name: "sums regions and sorts by app",
			run: domain.EvaluationRun{
				Timestamp: ts,
				Apps: map[string]domain.ApplicationResult{
					"search": {AppName: "search", Regions: map[string]domain.RegionResult{
						"paris": region(3, 1),
					}},
					"billing": {AppName: "billing", Regions: map[string]domain.RegionResult{
						"paris": region(2, 2),
						"north": region(2, 1),
					}},
				},
			},
			expectOverall: domain.ComplianceTotals{TotalServers: 7, Compliant: 4, NonCompliant: 3, CompliancePercentage: 57.14},
			expectByApp: []domain.AppSummary{
				{AppName: "billing", ComplianceTotals: domain.ComplianceTotals{TotalServers: 4, Compliant: 3, NonCompliant: 1, CompliancePercentage: 75}},
				{AppName: "search", ComplianceTotals: domain.ComplianceTotals{TotalServers: 3, Compliant: 1, NonCompliant: 2, CompliancePercentage: 33.33}},
			},
		},
		{
			name: "skips failed regions and applications",
			run: domain.EvaluationRun{
				Timestamp: ts,
				Apps: map[string]domain.ApplicationResult{
					"billing": {AppName: "billing", Regions: map[string]domain.RegionResult{
						"paris": region(2, 2),
						"north": {Err: errors.New("timeout")},
					}},
					"search": {AppName: "search", Regions: map[string]domain.RegionResult{}, Err: errors.New("bad config")},
				},
			},
			expectOverall: domain.ComplianceTotals{TotalServers: 2, Compliant: 2, CompliancePercentage: 100},
			expectByApp: []domain.AppSummary{
				{AppName: "billing", ComplianceTotals: domain.ComplianceTotals{TotalServers: 2, Compliant: 2, CompliancePercentage: 100}},
				{AppName: "search"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			summary := Summarize(tt.run)

			assert.Equal(t, ts, summary.Timestamp)
			assert.Equal(t, tt.expectOverall, summary.Overall)
			require.Len(t, summary.ByApp, len(tt.expectByApp))
			assert.Equal(t, tt.expectByApp, summary.ByApp)
		})
	}
}

func TestSummarize_CountsAddUp(t *testing.T) {
	run := domain.EvaluationRun{Apps: map[string]domain.ApplicationResult{
		"a": {Regions: map[string]domain.RegionResult{"paris": region(10, 7), "north": region(5, 0)}},
		"b": {Regions: map[string]domain.RegionResult{"paris": region(1, 1)}},
	}}

	summary := Summarize(run)

	o := summary.Overall
	assert.Equal(t, o.TotalServers, o.Compliant+o.NonCompliant)
	sum := 0
	for _, app := range summary.ByApp {
		assert.Equal(t, app.TotalServers, app.Compliant+app.NonCompliant)
		sum += app.TotalServers
	}
	assert.Equal(t, o.TotalServers, sum)
}
