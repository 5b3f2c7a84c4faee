package auth

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
)

// StateCookieName carries the CSRF state between /login and the callback.
const StateCookieName = "strava_oauth_state"

// Error codes appended to the landing URL as ?error=<code>.
const (
	ErrCodeNoCode        = "no_code"
	ErrCodeStateMismatch = "state_mismatch"
	ErrCodeExchange      = "token_exchange_failed"
	ErrCodeStore         = "token_store_failed"
)

// CodeExchanger is the part of TokenService the callback needs.
type CodeExchanger interface {
	ExchangeCode(ctx context.Context, code string) (*Grant, error)
}

// CallbackHandler is the OAuth redirect endpoint. It runs server-side so the
// client secret never leaves this process. On success the browser is sent to
// the dashboard with the tokens in the URL fragment, which never reaches server logs.
type CallbackHandler struct {
	Exchanger CodeExchanger
	// BaseURL is the public origin, e.g. "https://dash.example.com".
	BaseURL string
	// OnGrant, when set, runs after a successful exchange (the CLI stores the pair here).
	OnGrant func(ctx context.Context, g *Grant) error
	Logger  zerolog.Logger
}

func (h *CallbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if code := q.Get("error"); code != "" {
		h.Logger.Warn().Str("error", code).Msg("authorization denied by provider")
		h.fail(w, r, code)
		return
	}

	code := q.Get("code")
	if code == "" {
		h.fail(w, r, ErrCodeNoCode)
		return
	}

	// A grant is only accepted for a flow this browser started at /login.
	c, err := r.Cookie(StateCookieName)
	if err != nil || c.Value == "" || q.Get("state") != c.Value {
		clearStateCookie(w)
		h.Logger.Warn().Bool("cookie", err == nil).Msg("oauth state mismatch")
		h.fail(w, r, ErrCodeStateMismatch)
		return
	}
	clearStateCookie(w)

	grant, err := h.Exchanger.ExchangeCode(r.Context(), code)
	if err != nil {
		h.Logger.Error().Err(err).Msg("token exchange failed")
		h.fail(w, r, ErrCodeExchange)
		return
	}

	if h.OnGrant != nil {
		if err := h.OnGrant(r.Context(), grant); err != nil {
			h.Logger.Error().Err(err).Msg("storing tokens failed")
			h.fail(w, r, ErrCodeStore)
			return
		}
	}

	h.Logger.Info().Int64("athlete_id", grant.AthleteID).Msg("authorization complete")

	fragment := url.Values{}
	fragment.Set("access_token", grant.Pair.AccessToken)
	if grant.Pair.RefreshToken != "" {
		fragment.Set("refresh_token", grant.Pair.RefreshToken)
	}
	http.Redirect(w, r, h.base()+"/dashboard#"+fragment.Encode(), http.StatusFound)
}

func (h *CallbackHandler) fail(w http.ResponseWriter, r *http.Request, code string) {
	http.Redirect(w, r, h.base()+"/?error="+url.QueryEscape(code), http.StatusFound)
}

func (h *CallbackHandler) base() string {
	return strings.TrimRight(h.BaseURL, "/")
}

// LoginHandler starts the authorization-code flow: it issues a state cookie
// and redirects to Strava's authorize page.
type LoginHandler struct {
	OAuth   *oauth2.Config
	BaseURL string
}

func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	state := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     StateCookieName,
		Value:    state,
		Path:     "/",
		MaxAge:   int((10 * time.Minute).Seconds()),
		HttpOnly: true,
		Secure:   strings.HasPrefix(h.BaseURL, "https://"),
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, AuthCodeURL(h.OAuth, state), http.StatusFound)
}

func clearStateCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:   StateCookieName,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
}
