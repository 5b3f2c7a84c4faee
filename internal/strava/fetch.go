package strava

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/sync/singleflight"

	"strava-dashboard/internal/auth"
)

// FetchState is a state of one logical authenticated request.
//
//	Idle -> Requesting -> Success
//	                   -> Unauthorized -> Refreshing -> RetrySuccess
//	                                                 -> RetryFailure
//	                                                 -> RefreshFailure -> LoggedOut
type FetchState int

const (
	StateIdle FetchState = iota
	StateRequesting
	// StateSuccess means the first attempt completed without an authorization
	// failure. The status may still be a non-2xx; see Response.Err.
	StateSuccess
	StateUnauthorized
	StateRefreshing
	StateRetrySuccess
	StateRetryFailure
	StateRefreshFailure
	StateLoggedOut
)

var stateNames = [...]string{
	StateIdle:           "idle",
	StateRequesting:     "requesting",
	StateSuccess:        "success",
	StateUnauthorized:   "unauthorized",
	StateRefreshing:     "refreshing",
	StateRetrySuccess:   "retry_success",
	StateRetryFailure:   "retry_failure",
	StateRefreshFailure: "refresh_failure",
	StateLoggedOut:      "logged_out",
}

func (s FetchState) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("FetchState(%d)", int(s))
}

// Terminal reports whether no transition leaves s.
func (s FetchState) Terminal() bool {
	switch s {
	case StateSuccess, StateRetrySuccess, StateRetryFailure, StateLoggedOut:
		return true
	}
	return false
}

// Refresher mints a new token pair from a refresh token.
type Refresher interface {
	ExchangeRefreshToken(ctx context.Context, refreshToken string) (auth.TokenPair, error)
}

// Limiter paces outbound attempts.
type Limiter interface {
	Wait(ctx context.Context) error
	UpdateFromHeaders(h http.Header)
}

// Request describes one logical API call. Header must not carry Authorization.
type Request struct {
	Method string
	URL    string
	Header http.Header
}

// Response is the final answer to a logical request.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	// State is the terminal state that produced this response.
	State FetchState
}

// OK reports a 2xx status.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Err classifies a non-2xx response: a 401 after the retry is an AuthError,
// anything else an HTTPError.
func (r *Response) Err() error {
	if r.OK() {
		return nil
	}
	herr := &HTTPError{Status: r.StatusCode, Body: truncate(string(r.Body), 512)}
	if r.StatusCode == http.StatusUnauthorized {
		return &AuthError{Reason: ReasonUnauthorized, Err: herr}
	}
	return herr
}

// FetcherConfig configures a Fetcher. Zero values get defaults.
type FetcherConfig struct {
	HTTPClient *http.Client
	// Timeout bounds each attempt (first request, refresh, retry) separately.
	Timeout time.Duration
	Limiter Limiter
	Breaker gobreaker.Settings
	Logger  zerolog.Logger
}

// DefaultTimeout applies when FetcherConfig.Timeout is zero.
const DefaultTimeout = 15 * time.Second

// errUpstream marks 5xx answers as failures for the circuit breaker.
var errUpstream = errors.New("upstream server error")

// Fetcher issues authenticated requests and handles token expiry: on a 401 it
// refreshes once, stores the new pair, and retries once. Refreshes are
// single-flighted so concurrent callers share one token request.
type Fetcher struct {
	httpClient *http.Client
	creds      auth.CredentialStore
	refresher  Refresher
	limiter    Limiter
	breaker    *gobreaker.CircuitBreaker[*http.Response]
	timeout    time.Duration
	refreshes  singleflight.Group
	logger     zerolog.Logger
}

// NewFetcher creates a Fetcher over the given credential store.
func NewFetcher(creds auth.CredentialStore, refresher Refresher, cfg FetcherConfig) *Fetcher {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	f := &Fetcher{
		httpClient: cfg.HTTPClient,
		creds:      creds,
		refresher:  refresher,
		limiter:    cfg.Limiter,
		timeout:    cfg.Timeout,
		logger:     cfg.Logger,
	}
	f.breaker = gobreaker.NewCircuitBreaker[*http.Response](f.breakerSettings(cfg.Breaker))
	return f
}

func (f *Fetcher) breakerSettings(st gobreaker.Settings) gobreaker.Settings {
	if st.Name == "" {
		st.Name = "strava-api"
	}
	if st.Timeout == 0 {
		st.Timeout = 30 * time.Second
	}
	if st.ReadyToTrip == nil {
		st.ReadyToTrip = func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= 5
		}
	}
	onChange := st.OnStateChange
	st.OnStateChange = func(name string, from, to gobreaker.State) {
		breakerState.Set(breakerStateValue(to))
		f.logger.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
		if onChange != nil {
			onChange(name, from, to)
		}
	}
	return st
}

// Do performs one logical request. It returns an error only when no final
// response exists: transport failures, an open breaker, or an AuthError
// (missing access token, missing refresh token, failed refresh). HTTP-level
// outcomes come back as a Response; use Response.Err to classify them.
func (f *Fetcher) Do(ctx context.Context, req Request) (*Response, error) {
	pair, err := f.creds.Get(ctx)
	if err != nil && !errors.Is(err, auth.ErrNoCredentials) {
		return nil, fmt.Errorf("reading credentials: %w", err)
	}
	if pair.AccessToken == "" {
		fetchTotal.WithLabelValues(StateLoggedOut.String()).Inc()
		return nil, &AuthError{Reason: ReasonNoAccessToken}
	}

	state := f.enter(StateIdle, StateRequesting, req)
	resp, err := f.send(ctx, req, pair.AccessToken)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		resp.State = f.enter(state, StateSuccess, req)
		return resp, nil
	}

	state = f.enter(state, StateUnauthorized, req)
	state = f.enter(state, StateRefreshing, req)
	fresh, err := f.refresh(ctx, pair.AccessToken)
	if err != nil {
		state = f.enter(state, StateRefreshFailure, req)
		f.enter(state, StateLoggedOut, req)
		return nil, err
	}

	// The new pair is already stored; the retry result is final either way.
	retry, err := f.send(ctx, req, fresh.AccessToken)
	if err != nil {
		return nil, err
	}
	if retry.OK() {
		retry.State = f.enter(state, StateRetrySuccess, req)
	} else {
		retry.State = f.enter(state, StateRetryFailure, req)
	}
	return retry, nil
}

func (f *Fetcher) enter(from, to FetchState, req Request) FetchState {
	f.logger.Debug().
		Str("from", from.String()).
		Str("to", to.String()).
		Str("url", redact(req.URL)).
		Msg("fetch transition")
	if to.Terminal() {
		fetchTotal.WithLabelValues(to.String()).Inc()
	}
	return to
}

// refresh obtains a usable pair after staleAccess was rejected. If another
// caller has already rotated the stored token, that pair is reused without a
// second token request. Failures clear the store.
func (f *Fetcher) refresh(ctx context.Context, staleAccess string) (auth.TokenPair, error) {
	// Shared by every waiting caller, so one caller's cancellation must not fail the rest.
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), f.timeout)
	defer cancel()

	v, err, shared := f.refreshes.Do("refresh", func() (interface{}, error) {
		current, err := f.creds.Get(rctx)
		if err != nil && !errors.Is(err, auth.ErrNoCredentials) {
			return nil, fmt.Errorf("reading credentials: %w", err)
		}
		if current.AccessToken != "" && current.AccessToken != staleAccess {
			refreshTotal.WithLabelValues("reused").Inc()
			return current, nil
		}
		if current.RefreshToken == "" {
			refreshTotal.WithLabelValues("missing").Inc()
			f.clear(rctx)
			return nil, &AuthError{Reason: ReasonNoRefreshToken}
		}

		fresh, err := f.refresher.ExchangeRefreshToken(rctx, current.RefreshToken)
		if err != nil {
			refreshTotal.WithLabelValues("failed").Inc()
			f.clear(rctx)
			return nil, &AuthError{Reason: ReasonRefreshFailed, Err: err}
		}
		if fresh.RefreshToken == "" {
			fresh.RefreshToken = current.RefreshToken
		}
		if err := f.creds.Set(rctx, fresh); err != nil {
			return nil, fmt.Errorf("storing refreshed tokens: %w", err)
		}
		refreshTotal.WithLabelValues("refreshed").Inc()
		f.logger.Info().Msg("access token refreshed")
		return fresh, nil
	})
	if err != nil {
		return auth.TokenPair{}, err
	}
	if shared {
		f.logger.Debug().Msg("joined in-flight token refresh")
	}
	return v.(auth.TokenPair), nil
}

func (f *Fetcher) clear(ctx context.Context) {
	if err := f.creds.Clear(ctx); err != nil {
		f.logger.Error().Err(err).Msg("clearing credentials failed")
	}
}

// send makes one HTTP attempt with its own timeout and reads the whole body.
func (f *Fetcher) send(ctx context.Context, req Request, accessToken string) (*Response, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	actx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	httpReq, err := http.NewRequestWithContext(actx, method, req.URL, nil)
	if err != nil {
		return nil, err
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	httpReq.Header.Set("Authorization", "Bearer "+accessToken)
	httpReq.Header.Set("Accept", "application/json")

	resp, err := f.breaker.Execute(func() (*http.Response, error) {
		resp, err := f.httpClient.Do(httpReq)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= 500 {
			return resp, errUpstream
		}
		return resp, nil
	})
	if err != nil && !errors.Is(err, errUpstream) {
		return nil, fmt.Errorf("%s %s: %w", method, redact(req.URL), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if f.limiter != nil {
		f.limiter.UpdateFromHeaders(resp.Header)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
	}, nil
}

// redact drops the query string, which may carry identifiers.
func redact(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "<invalid url>"
	}
	u.RawQuery = ""
	return u.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
