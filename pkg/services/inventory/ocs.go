package inventory

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/de-tools/fleet-compliance/pkg/models/domain"
	"github.com/de-tools/fleet-compliance/pkg/monitoring"
	"github.com/de-tools/fleet-compliance/pkg/retrypolicy"
	"github.com/rs/zerolog"
)

const DefaultOCSBaseURL = "https://ocs.eu-fr-%s.cloud/v0"

type ocsFetcher struct {
	httpClient *http.Client
	baseURL    string
	policy     retrypolicy.Policy
}

// NewOCSFetcher builds a fetcher for OpenStack-style compute APIs. baseURL may contain a
// single %s which is replaced by the region name.
func NewOCSFetcher(httpClient *http.Client, baseURL string, policy retrypolicy.Policy) Fetcher {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if baseURL == "" {
		baseURL = DefaultOCSBaseURL
	}
	return &ocsFetcher{httpClient: httpClient, baseURL: baseURL, policy: policy}
}

type serversResponse struct {
	Servers *[]serverPayload `json:"servers"`
}

type serverPayload struct {
	Name  string          `json:"name"`
	Image json.RawMessage `json:"image"`
}

type imageResponse struct {
	Image *struct {
		Name *string `json:"name"`
	} `json:"image"`
}

func (f *ocsFetcher) ListServers(ctx context.Context, region, token string) ([]domain.ServerRecord, error) {
	logger := zerolog.Ctx(ctx)
	endpoint := f.regionURL(region) + "/servers/detail"
	logger.Info().Str("url", endpoint).Msg("fetching servers")

	var resp serversResponse
	err := f.policy.Do(ctx, "list_servers", func(ctx context.Context) error {
		resp = serversResponse{}
		if err := f.getJSON(ctx, endpoint, token, &resp); err != nil {
			return err
		}
		if resp.Servers == nil {
			return errors.New("no servers in response")
		}
		return nil
	})
	if err != nil {
		monitoring.UpstreamCalls.WithLabelValues("list_servers", "failure").Inc()
		return nil, err
	}
	monitoring.UpstreamCalls.WithLabelValues("list_servers", "success").Inc()

	servers := make([]domain.ServerRecord, 0, len(*resp.Servers))
	for _, s := range *resp.Servers {
		servers = append(servers, domain.ServerRecord{Name: s.Name, ImageID: imageID(s.Image)})
	}
	logger.Info().Int("count", len(servers)).Str("region", region).Msg("fetched servers")
	return servers, nil
}

func (f *ocsFetcher) ResolveImageName(ctx context.Context, region, imageID, token string) (string, bool) {
	endpoint := f.regionURL(region) + "/images/" + url.PathEscape(imageID)

	var resp imageResponse
	err := f.policy.Do(ctx, "resolve_image", func(ctx context.Context) error {
		resp = imageResponse{}
		return f.getJSON(ctx, endpoint, token, &resp)
	})
	if err != nil {
		monitoring.UpstreamCalls.WithLabelValues("resolve_image", "failure").Inc()
		zerolog.Ctx(ctx).Warn().
			Err(err).
			Str("image_id", imageID).
			Str("region", region).
			Msg("failed to fetch image")
		return "", false
	}
	monitoring.UpstreamCalls.WithLabelValues("resolve_image", "success").Inc()

	if resp.Image == nil || resp.Image.Name == nil {
		return "", false
	}
	return *resp.Image.Name, true
}

func (f *ocsFetcher) regionURL(region string) string {
	base := f.baseURL
	if strings.Contains(base, "%s") {
		base = fmt.Sprintf(base, region)
	}
	return strings.TrimSuffix(base, "/")
}

func (f *ocsFetcher) getJSON(ctx context.Context, endpoint, token string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return retrypolicy.Permanent(err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, endpoint)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", endpoint, err)
	}
	return nil
}

// imageID extracts image.id. Servers booted from volume carry an empty string instead of an
// image object.
func imageID(raw json.RawMessage) *string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return nil
	}
	var ref struct {
		ID *string `json:"id"`
	}
	if err := json.Unmarshal(raw, &ref); err != nil || ref.ID == nil || *ref.ID == "" {
		return nil
	}
	return ref.ID
}
