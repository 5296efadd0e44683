package compliance

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/de-tools/fleet-compliance/pkg/adapters"
	"github.com/de-tools/fleet-compliance/pkg/models/api"
	"github.com/de-tools/fleet-compliance/pkg/models/domain"
	"github.com/de-tools/fleet-compliance/pkg/services/compliance"
	"github.com/de-tools/fleet-compliance/pkg/services/report"
	"github.com/de-tools/fleet-compliance/pkg/services/secrets"
	"github.com/rs/zerolog"
)

const (
	healthyMessage      = "API is running and Vault is accessible"
	unhealthyMessage    = "API is running but Vault is not accessible"
	listAppsFailed      = "Failed to fetch apps from Vault"
	checkFailed         = "Failed to check compliance"
	summaryFailed       = "Failed to generate compliance summary"
	applicationNotFound = "Application not found"
)

type Handler struct {
	service compliance.Service
	secrets secrets.Store
}

func NewHandler(service compliance.Service, store secrets.Store) *Handler {
	return &Handler{
		service: service,
		secrets: store,
	}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := zerolog.Ctx(ctx)

	if err := h.secrets.Ping(ctx); err != nil {
		logger.Warn().Err(err).Msg("secret store is not reachable")
		writeJSON(w, r, http.StatusOK, api.Health{
			Status:         api.HealthStatusUnhealthy,
			VaultConnected: false,
			Message:        unhealthyMessage,
		})
		return
	}

	writeJSON(w, r, http.StatusOK, api.Health{
		Status:         api.HealthStatusHealthy,
		VaultConnected: true,
		Message:        healthyMessage,
	})
}

func (h *Handler) ListApps(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := zerolog.Ctx(ctx)

	apps, err := h.service.ListApplications(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("failed to list applications")
		WriteError(w, r, http.StatusInternalServerError, err.Error(), listAppsFailed)
		return
	}

	writeJSON(w, r, http.StatusOK, adapters.MapApplicationsToApi(apps))
}

// GetCompliance and GetSummary evaluate under a context that keeps the request logger but
// not its cancellation: an evaluation runs to completion even if the client goes away.
func (h *Handler) GetCompliance(w http.ResponseWriter, r *http.Request) {
	ctx := context.WithoutCancel(r.Context())
	logger := zerolog.Ctx(ctx)
	app := r.URL.Query().Get("app")
	opts := compliance.Options{Debug: debugParam(r)}

	if app != "" {
		result, err := h.service.EvaluateApplication(ctx, app, opts)
		if errors.Is(err, domain.ErrApplicationNotFound) {
			WriteError(w, r, http.StatusNotFound, err.Error(), applicationNotFound)
			return
		}
		if err != nil {
			logger.Error().Err(err).Str("app", app).Msg("failed to check compliance")
			WriteError(w, r, http.StatusInternalServerError, err.Error(), checkFailed)
			return
		}
		writeJSON(w, r, http.StatusOK, adapters.MapApplicationResultDomainToApi(result))
		return
	}

	run, err := h.service.EvaluateAll(ctx, opts)
	if err != nil {
		logger.Error().Err(err).Msg("failed to check compliance")
		WriteError(w, r, http.StatusInternalServerError, err.Error(), checkFailed)
		return
	}
	writeJSON(w, r, http.StatusOK, adapters.MapEvaluationRunDomainToApi(run))
}

func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	ctx := context.WithoutCancel(r.Context())
	logger := zerolog.Ctx(ctx)

	run, err := h.service.EvaluateAll(ctx, compliance.Options{Debug: debugParam(r)})
	if err != nil {
		logger.Error().Err(err).Msg("failed to generate compliance summary")
		WriteError(w, r, http.StatusInternalServerError, err.Error(), summaryFailed)
		return
	}
	writeJSON(w, r, http.StatusOK, adapters.MapFleetSummaryDomainToApi(report.Summarize(run)))
}

// debugParam accepts the strconv.ParseBool spellings. Anything else means false.
func debugParam(r *http.Request) bool {
	debug, err := strconv.ParseBool(r.URL.Query().Get("debug"))
	return err == nil && debug
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("failed to encode response")
	}
}

// WriteError renders the error body shared by every endpoint.
func WriteError(w http.ResponseWriter, r *http.Request, status int, errMsg, message string) {
	writeJSON(w, r, status, api.ErrorResponse{Error: errMsg, Message: message})
}
