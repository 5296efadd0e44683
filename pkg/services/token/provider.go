package token

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/de-tools/fleet-compliance/pkg/monitoring"
	"github.com/de-tools/fleet-compliance/pkg/retrypolicy"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

type Request struct {
	TokenURL     string
	ClientID     string
	ClientSecret string
	Scope        string
}

// Provider exchanges client credentials for a bearer token.
type Provider interface {
	AccessToken(ctx context.Context, req Request) (string, error)
}

type clientCredentialsProvider struct {
	httpClient *http.Client
	policy     retrypolicy.Policy
}

func NewProvider(httpClient *http.Client, policy retrypolicy.Policy) Provider {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &clientCredentialsProvider{httpClient: httpClient, policy: policy}
}

func (p *clientCredentialsProvider) AccessToken(ctx context.Context, req Request) (string, error) {
	logger := zerolog.Ctx(ctx)
	logger.Info().Str("token_url", req.TokenURL).Msg("requesting access token")

	cfg := clientcredentials.Config{
		ClientID:     req.ClientID,
		ClientSecret: req.ClientSecret,
		TokenURL:     req.TokenURL,
		AuthStyle:    oauth2.AuthStyleInHeader,
	}
	if req.Scope != "" {
		cfg.Scopes = []string{req.Scope}
	}

	httpClient := *p.httpClient
	httpClient.Transport = &rawBasicAuth{
		base:         p.httpClient.Transport,
		clientID:     req.ClientID,
		clientSecret: req.ClientSecret,
	}

	var accessToken string
	err := p.policy.Do(ctx, "token_exchange", func(ctx context.Context) error {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, &httpClient)
		tok, err := cfg.Token(ctx)
		if err != nil {
			return err
		}
		if tok.AccessToken == "" {
			return errors.New("no access_token in token response")
		}
		accessToken = tok.AccessToken
		return nil
	})
	if err != nil {
		monitoring.UpstreamCalls.WithLabelValues("token_exchange", "failure").Inc()
		return "", fmt.Errorf("token exchange with %s failed: %w", req.TokenURL, err)
	}
	monitoring.UpstreamCalls.WithLabelValues("token_exchange", "success").Inc()
	logger.Info().Msg("obtained access token")
	return accessToken, nil
}

// BuildScope prefixes every whitespace-separated scope of template with "{accountID}:sgcp:"
// and joins them with single spaces.
func BuildScope(accountID, template string) string {
	scopes := strings.Fields(template)
	for i, scope := range scopes {
		scopes[i] = accountID + ":sgcp:" + scope
	}
	return strings.Join(scopes, " ")
}

// rawBasicAuth replaces the Authorization header set by oauth2, which form-encodes the client
// id and secret, with the credentials as they are stored.
type rawBasicAuth struct {
	base         http.RoundTripper
	clientID     string
	clientSecret string
}

func (t *rawBasicAuth) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	req = req.Clone(req.Context())
	req.SetBasicAuth(t.clientID, t.clientSecret)
	return base.RoundTrip(req)
}
