package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	json "github.com/goccy/go-json"
	"golang.org/x/oauth2"

	"strava-dashboard/internal/config"
)

// ProviderError means Strava rejected a grant (expired or reused code,
// redirect URI mismatch, revoked refresh token).
type ProviderError struct {
	Status  int
	Message string
}

func (e *ProviderError) Error() string {
	if e.Status == 0 {
		return "strava oauth: " + e.Message
	}
	return fmt.Sprintf("strava oauth (%d): %s", e.Status, e.Message)
}

// Grant is the result of an authorization-code exchange.
type Grant struct {
	Pair      TokenPair
	Expiry    time.Time
	AthleteID int64
}

// TokenService exchanges authorization codes and refresh tokens at Strava's token endpoint.
// It never retries; callers own the retry policy.
type TokenService struct {
	oauth      *oauth2.Config
	httpClient *http.Client
}

// NewTokenService creates a TokenService. httpClient may be nil.
func NewTokenService(cfg *oauth2.Config, httpClient *http.Client) *TokenService {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &TokenService{oauth: cfg, httpClient: httpClient}
}

// OAuthConfig exposes the underlying oauth2 config (authorize URL building).
func (s *TokenService) OAuthConfig() *oauth2.Config {
	return s.oauth
}

// ExchangeCode trades an authorization code for a token pair.
func (s *TokenService) ExchangeCode(ctx context.Context, code string) (*Grant, error) {
	if err := s.checkConfigured(); err != nil {
		return nil, err
	}

	token, err := s.oauth.Exchange(s.withClient(ctx), code)
	if err != nil {
		return nil, providerError(err)
	}

	return &Grant{
		Pair:      TokenPair{AccessToken: token.AccessToken, RefreshToken: token.RefreshToken},
		Expiry:    token.Expiry,
		AthleteID: ExtractAthleteID(token),
	}, nil
}

// ExchangeRefreshToken mints a new token pair from a refresh token.
func (s *TokenService) ExchangeRefreshToken(ctx context.Context, refreshToken string) (TokenPair, error) {
	if err := s.checkConfigured(); err != nil {
		return TokenPair{}, err
	}
	if refreshToken == "" {
		return TokenPair{}, &ProviderError{Message: "refresh token is empty"}
	}

	// An empty access token forces the source to hit the token endpoint.
	src := s.oauth.TokenSource(s.withClient(ctx), &oauth2.Token{RefreshToken: refreshToken})
	token, err := src.Token()
	if err != nil {
		return TokenPair{}, providerError(err)
	}

	return TokenPair{AccessToken: token.AccessToken, RefreshToken: token.RefreshToken}, nil
}

func (s *TokenService) checkConfigured() error {
	if s.oauth.ClientID == "" {
		return &config.ConfigError{Field: "strava.client_id"}
	}
	if s.oauth.ClientSecret == "" {
		return &config.ConfigError{Field: "strava.client_secret"}
	}
	return nil
}

func (s *TokenService) withClient(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
}

// providerError turns oauth2 retrieve errors into ProviderError, preferring
// Strava's own JSON "message" field.
func providerError(err error) error {
	var rerr *oauth2.RetrieveError
	if !errors.As(err, &rerr) {
		return fmt.Errorf("token request: %w", err)
	}

	pe := &ProviderError{Message: rerr.Error()}
	if rerr.Response != nil {
		pe.Status = rerr.Response.StatusCode
	}

	var body struct {
		Message string `json:"message"`
	}
	switch {
	case json.Unmarshal(rerr.Body, &body) == nil && body.Message != "":
		pe.Message = body.Message
	case rerr.ErrorDescription != "":
		pe.Message = rerr.ErrorDescription
	case rerr.ErrorCode != "":
		pe.Message = rerr.ErrorCode
	}
	return pe
}
