package compliance

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/de-tools/fleet-compliance/pkg/models/domain"
	"github.com/de-tools/fleet-compliance/pkg/monitoring"
	"github.com/de-tools/fleet-compliance/pkg/services/inventory"
	"github.com/de-tools/fleet-compliance/pkg/services/secrets"
	"github.com/de-tools/fleet-compliance/pkg/services/token"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

var DefaultRegions = []string{"paris", "north"}

type Settings struct {
	Regions           []string `mapstructure:"regions"`
	AppConcurrency    int      `mapstructure:"app_concurrency"`
	RegionConcurrency int      `mapstructure:"region_concurrency"`
	ImageConcurrency  int      `mapstructure:"image_concurrency"`
}

func DefaultSettings() Settings {
	return Settings{
		Regions:           DefaultRegions,
		AppConcurrency:    4,
		RegionConcurrency: 2,
		ImageConcurrency:  8,
	}
}

type Options struct {
	// Debug lowers the evaluation log level to debug.
	Debug bool
}

type Service interface {
	ListApplications(ctx context.Context) ([]string, error)
	// EvaluateApplication fails only with domain.ErrApplicationNotFound. Every other failure
	// is recorded in the returned result.
	EvaluateApplication(ctx context.Context, app string, opts Options) (domain.ApplicationResult, error)
	EvaluateAll(ctx context.Context, opts Options) (domain.EvaluationRun, error)
}

type Evaluator struct {
	secrets   secrets.Store
	tokens    token.Provider
	inventory inventory.Fetcher
	settings  Settings
	now       func() time.Time
}

type EvaluatorOption func(*Evaluator)

func WithClock(now func() time.Time) EvaluatorOption {
	return func(e *Evaluator) {
		e.now = now
	}
}

func NewEvaluator(
	store secrets.Store,
	tokens token.Provider,
	fetcher inventory.Fetcher,
	settings Settings,
	opts ...EvaluatorOption,
) *Evaluator {
	if len(settings.Regions) == 0 {
		settings.Regions = DefaultRegions
	}
	e := &Evaluator{
		secrets:   store,
		tokens:    tokens,
		inventory: fetcher,
		settings:  settings,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Evaluator) ListApplications(ctx context.Context) ([]string, error) {
	return e.secrets.ListApplications(ctx)
}

func (e *Evaluator) EvaluateAll(ctx context.Context, opts Options) (domain.EvaluationRun, error) {
	ctx = withRunLogger(ctx, opts)
	logger := zerolog.Ctx(ctx)
	start := time.Now()
	defer func() {
		monitoring.EvaluationDuration.WithLabelValues("fleet").Observe(time.Since(start).Seconds())
	}()

	run := domain.EvaluationRun{Timestamp: e.now()}
	apps, err := e.secrets.ListApplications(ctx)
	if err != nil {
		return run, fmt.Errorf("failed to list applications: %w", err)
	}
	logger.Info().Int("apps", len(apps)).Msg("checking compliance for all applications")

	results := make([]domain.ApplicationResult, len(apps))
	g := errgroup.Group{}
	g.SetLimit(limit(e.settings.AppConcurrency))
	for i, app := range apps {
		g.Go(func() error {
			result, err := e.evaluateApplication(ctx, app)
			if err != nil {
				result = failedApplication(app, err)
			}
			results[i] = result
			return nil
		})
	}
	_ = g.Wait()

	run.Apps = make(map[string]domain.ApplicationResult, len(apps))
	for _, result := range results {
		run.Apps[result.AppName] = result
	}
	return run, nil
}

func (e *Evaluator) EvaluateApplication(
	ctx context.Context,
	app string,
	opts Options,
) (domain.ApplicationResult, error) {
	return e.evaluateApplication(withRunLogger(ctx, opts), app)
}

func (e *Evaluator) evaluateApplication(ctx context.Context, app string) (domain.ApplicationResult, error) {
	logger := zerolog.Ctx(ctx).With().Str("app", app).Logger()
	ctx = logger.WithContext(ctx)
	start := time.Now()
	defer func() {
		monitoring.EvaluationDuration.WithLabelValues("application").Observe(time.Since(start).Seconds())
	}()

	now := e.now()
	reference := CurrentWeek(now)
	logger.Info().Msg("checking compliance")
	logger.Debug().Str("reference_week", reference.String()).Msg("current ISO week")

	cfg, err := e.secrets.GetApplicationConfig(ctx, app)
	if errors.Is(err, domain.ErrApplicationNotFound) {
		return domain.ApplicationResult{}, err
	}
	if err != nil {
		logger.Error().Err(err).Msg("failed to resolve application configuration")
		return failedApplication(app, err), nil
	}
	if err := ValidateConfig(cfg); err != nil {
		logger.Error().Err(err).Msg("invalid application configuration")
		return failedApplication(app, err), nil
	}

	accessToken, err := e.tokens.AccessToken(ctx, token.Request{
		TokenURL:     cfg.TokenURL,
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Scope:        token.BuildScope(cfg.AccountID, cfg.Scopes),
	})
	if err != nil {
		logger.Error().Err(err).Msg("failed to obtain access token")
		return failedApplication(app, &domain.AuthenticationError{Err: err}), nil
	}

	regions := e.settings.Regions
	regionResults := make([]domain.RegionResult, len(regions))
	g := errgroup.Group{}
	g.SetLimit(limit(e.settings.RegionConcurrency))
	for i, region := range regions {
		g.Go(func() error {
			regionResults[i] = e.EvaluateRegion(ctx, region, accessToken, reference, NewImageNameCache())
			return nil
		})
	}
	_ = g.Wait()

	result := domain.ApplicationResult{
		AppName:   app,
		Timestamp: now,
		Reference: reference,
		Regions:   make(map[string]domain.RegionResult, len(regions)),
	}
	for i, region := range regions {
		result.Regions[region] = regionResults[i]
	}
	return result, nil
}

// EvaluateRegion classifies every server of region against reference. Failures are recorded
// in the result. cache must not be shared with another region.
func (e *Evaluator) EvaluateRegion(
	ctx context.Context,
	region, accessToken string,
	reference domain.YearWeek,
	cache *ImageNameCache,
) domain.RegionResult {
	logger := zerolog.Ctx(ctx).With().Str("region", region).Logger()
	ctx = logger.WithContext(ctx)
	logger.Info().Msg("checking compliance for region")

	servers, err := e.inventory.ListServers(ctx, region, accessToken)
	if err != nil {
		logger.Error().Err(err).Msg("failed to fetch servers")
		return failedRegion(&domain.UpstreamError{Region: region, Err: err})
	}

	e.resolveImageNames(ctx, region, accessToken, servers, cache)

	result := domain.RegionResult{
		TotalServers: len(servers),
		GoodServers:  []domain.ServerInfo{},
		BadServers:   []domain.ServerInfo{},
	}
	for _, server := range servers {
		var name *string
		if server.ImageID != nil {
			if n, ok, _ := cache.Lookup(*server.ImageID); ok {
				name = &n
			}
		}
		info := domain.ServerInfo{Name: server.Name, Classification: Classify(server.ImageID, name, reference)}
		if info.Classification.Compliant() {
			result.GoodServers = append(result.GoodServers, info)
		} else {
			result.BadServers = append(result.BadServers, info)
		}
		logger.Debug().
			Str("server", server.Name).
			Str("reason", info.Classification.Reason).
			Bool("compliant", info.Classification.Compliant()).
			Msg("classified server")
	}

	result.Compliant = len(result.GoodServers)
	result.NonCompliant = len(result.BadServers)
	result.CompliancePercentage = Percentage(result.Compliant, result.TotalServers)

	monitoring.ServersClassified.WithLabelValues(region, "compliant").Add(float64(result.Compliant))
	monitoring.ServersClassified.WithLabelValues(region, "non_compliant").Add(float64(result.NonCompliant))
	logger.Info().
		Int("total", result.TotalServers).
		Int("compliant", result.Compliant).
		Float64("compliance_percentage", result.CompliancePercentage).
		Msg("region evaluated")
	return result
}

func (e *Evaluator) resolveImageNames(
	ctx context.Context,
	region, accessToken string,
	servers []domain.ServerRecord,
	cache *ImageNameCache,
) {
	resolve := func(ctx context.Context, id string) (string, bool) {
		return e.inventory.ResolveImageName(ctx, region, id, accessToken)
	}

	var mu sync.Mutex
	unresolved := 0
	g := errgroup.Group{}
	g.SetLimit(limit(e.settings.ImageConcurrency))
	for _, id := range distinctImageIDs(servers) {
		g.Go(func() error {
			if _, ok := cache.Resolve(ctx, id, resolve); !ok {
				mu.Lock()
				unresolved++
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	if unresolved > 0 {
		zerolog.Ctx(ctx).Warn().Int("images", unresolved).Msg("image names could not be resolved")
	}
}

// distinctImageIDs returns the non-nil image ids of servers in first-seen order.
func distinctImageIDs(servers []domain.ServerRecord) []string {
	seen := make(map[string]struct{})
	var ids []string
	for _, s := range servers {
		if s.ImageID == nil {
			continue
		}
		if _, ok := seen[*s.ImageID]; ok {
			continue
		}
		seen[*s.ImageID] = struct{}{}
		ids = append(ids, *s.ImageID)
	}
	return ids
}

func failedRegion(err error) domain.RegionResult {
	return domain.RegionResult{
		GoodServers: []domain.ServerInfo{},
		BadServers:  []domain.ServerInfo{},
		Err:         err,
	}
}

func failedApplication(app string, err error) domain.ApplicationResult {
	return domain.ApplicationResult{
		AppName: app,
		Regions: map[string]domain.RegionResult{},
		Err:     err,
	}
}

func withRunLogger(ctx context.Context, opts Options) context.Context {
	logger := zerolog.Ctx(ctx).With().Str("run_id", uuid.NewString()).Logger()
	if opts.Debug {
		logger = logger.Level(zerolog.DebugLevel)
	}
	return logger.WithContext(ctx)
}

func limit(n int) int {
	if n < 1 {
		return 1
	}
	return n
}
