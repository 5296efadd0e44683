package terminal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/de-tools/fleet-compliance/pkg/models/api"
	"github.com/de-tools/fleet-compliance/pkg/models/domain"
	"github.com/de-tools/fleet-compliance/pkg/services/compliance"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockService struct {
	mock.Mock
}

func (m *mockService) ListApplications(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *mockService) EvaluateApplication(
	ctx context.Context,
	app string,
	opts compliance.Options,
) (domain.ApplicationResult, error) {
	args := m.Called(ctx, app, opts)
	return args.Get(0).(domain.ApplicationResult), args.Error(1)
}

func (m *mockService) EvaluateAll(ctx context.Context, opts compliance.Options) (domain.EvaluationRun, error) {
	args := m.Called(ctx, opts)
	return args.Get(0).(domain.EvaluationRun), args.Error(1)
}

var evaluatedAt = time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)

func billingResult() domain.ApplicationResult {
	name := "ubuntu_2024_w50"
	id := "img-1"
	return domain.ApplicationResult{
		AppName:   "billing",
		Timestamp: evaluatedAt,
		Reference: domain.YearWeek{Year: 2025, Week: 3},
		Regions: map[string]domain.RegionResult{
			"paris": {
				TotalServers: 1,
				NonCompliant: 1,
				GoodServers:  []domain.ServerInfo{},
				BadServers: []domain.ServerInfo{{
					Name: "pay-1",
					Classification: domain.ImageClassification{
						ImageID: &id, ImageName: &name, Reason: domain.ReasonOutdated,
					},
				}},
			},
			"north": {Err: errors.New("failed to fetch servers from region north: timeout")},
		},
	}
}

func newTestCLI(t *testing.T, service *mockService) (*CLI, *bytes.Buffer) {
	t.Helper()
	text.DisableColors()
	var out bytes.Buffer
	cli := NewCLI(Options{
		Output: &out,
		Connect: func(ctx context.Context, _ string) (context.Context, compliance.Service, error) {
			return ctx, service, nil
		},
	})
	return cli, &out
}

func TestCLI_Apps(t *testing.T) {
	service := new(mockService)
	service.On("ListApplications", mock.Anything).Return([]string{"search", "billing"}, nil)
	cli, out := newTestCLI(t, service)

	require.NoError(t, cli.ExecuteContext(context.Background(), "apps", "--output", "json"))

	var apps api.Applications
	require.NoError(t, json.Unmarshal(out.Bytes(), &apps))
	assert.Equal(t, api.Applications{Apps: []string{"billing", "search"}, Count: 2}, apps)
}

func TestCLI_CheckApplicationTable(t *testing.T) {
	service := new(mockService)
	service.On("EvaluateApplication", mock.Anything, "billing", compliance.Options{Debug: true}).
		Return(billingResult(), nil)
	cli, out := newTestCLI(t, service)

	require.NoError(t, cli.ExecuteContext(context.Background(), "check", "--app", "billing", "--debug"))

	rendered := out.String()
	assert.Contains(t, rendered, "billing (reference week 2025-W03)")
	assert.Contains(t, rendered, "pay-1")
	assert.Contains(t, rendered, "ubuntu_2024_w50")
	assert.Contains(t, rendered, domain.ReasonOutdated)
	assert.Contains(t, rendered, "timeout")
	service.AssertExpectations(t)
}

func TestCLI_CheckUnknownApplication(t *testing.T) {
	service := new(mockService)
	service.On("EvaluateApplication", mock.Anything, "ghost", compliance.Options{}).
		Return(domain.ApplicationResult{}, domain.ErrApplicationNotFound)
	cli, _ := newTestCLI(t, service)

	err := cli.ExecuteContext(context.Background(), "check", "--app", "ghost")
	assert.ErrorIs(t, err, domain.ErrApplicationNotFound)
}

func TestCLI_Summary(t *testing.T) {
	service := new(mockService)
	service.On("EvaluateAll", mock.Anything, compliance.Options{}).Return(domain.EvaluationRun{
		Timestamp: evaluatedAt,
		Apps:      map[string]domain.ApplicationResult{"billing": billingResult()},
	}, nil)
	cli, out := newTestCLI(t, service)

	require.NoError(t, cli.ExecuteContext(context.Background(), "summary", "-o", "json"))

	var summary api.FleetSummary
	require.NoError(t, json.Unmarshal(out.Bytes(), &summary))
	assert.Equal(t, api.ComplianceTotals{TotalServers: 1, NonCompliant: 1}, summary.Overall)
	require.Len(t, summary.ByApp, 1)
	assert.Equal(t, "billing", summary.ByApp[0].AppName)
}

func TestCLI_InvalidOutput(t *testing.T) {
	cli, _ := newTestCLI(t, new(mockService))

	err := cli.ExecuteContext(context.Background(), "apps", "--output", "xml")
	assert.ErrorContains(t, err, "unsupported output format")
}
