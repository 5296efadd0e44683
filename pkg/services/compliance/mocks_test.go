package compliance

import (
	"context"

	"github.com/de-tools/fleet-compliance/pkg/models/domain"
	"github.com/de-tools/fleet-compliance/pkg/services/token"
	"github.com/stretchr/testify/mock"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) ListApplications(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *mockStore) GetApplicationConfig(ctx context.Context, app string) (domain.ApplicationConfig, error) {
	args := m.Called(ctx, app)
	return args.Get(0).(domain.ApplicationConfig), args.Error(1)
}

func (m *mockStore) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type mockTokens struct {
	mock.Mock
}

func (m *mockTokens) AccessToken(ctx context.Context, req token.Request) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

type mockInventory struct {
	mock.Mock
}

func (m *mockInventory) ListServers(ctx context.Context, region, tok string) ([]domain.ServerRecord, error) {
	args := m.Called(ctx, region, tok)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ServerRecord), args.Error(1)
}

func (m *mockInventory) ResolveImageName(ctx context.Context, region, imageID, tok string) (string, bool) {
	args := m.Called(ctx, region, imageID, tok)
	return args.String(0), args.Bool(1)
}
