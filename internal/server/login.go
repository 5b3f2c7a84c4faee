package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"strava-dashboard/internal/auth"
)

// AuthTimeout is how long to wait for the user to complete auth
const AuthTimeout = 5 * time.Minute

// ErrAuthTimeout is returned when the browser flow isn't finished in time.
var ErrAuthTimeout = errors.New("authentication timed out")

// LoginFlow runs the browser login against a short-lived local server.
type LoginFlow struct {
	Addr string
	// Listener, when set, is used instead of listening on Addr.
	Listener net.Listener
	Router   Config
	Store    auth.CredentialStore
	Timeout  time.Duration
	// Ready is called with the URL the user should open once the server listens.
	Ready func(loginURL string)
}

// Run serves the login flow until one grant has been stored, then shuts the
// server down. The grant is stored before Run returns.
func (f *LoginFlow) Run(ctx context.Context) (*auth.Grant, error) {
	timeout := f.Timeout
	if timeout <= 0 {
		timeout = AuthTimeout
	}

	grants := make(chan *auth.Grant, 1)
	errc := make(chan error, 1)

	rc := f.Router
	next := rc.OnGrant
	rc.OnGrant = func(ctx context.Context, g *auth.Grant) error {
		if err := f.Store.Set(ctx, g.Pair); err != nil {
			return fmt.Errorf("saving tokens: %w", err)
		}
		if next != nil {
			if err := next(ctx, g); err != nil {
				return err
			}
		}
		select {
		case grants <- g:
		default:
		}
		return nil
	}

	listener := f.Listener
	if listener == nil {
		ln, err := net.Listen("tcp", f.Addr)
		if err != nil {
			return nil, fmt.Errorf("starting callback server: %w", err)
		}
		listener = ln
	}

	server := &http.Server{Handler: NewRouter(rc), ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := server.Serve(listener); !errors.Is(err, http.ErrServerClosed) {
			errc <- fmt.Errorf("server error: %w", err)
		}
	}()
	defer shutdownServer(server)

	if f.Ready != nil {
		f.Ready(rc.BaseURL + "/login")
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case g := <-grants:
		return g, nil
	case err := <-errc:
		return nil, err
	case <-timer.C:
		return nil, fmt.Errorf("%w after %v", ErrAuthTimeout, timeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Serve runs handler on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string, handler http.Handler) error {
	server := &http.Server{Addr: addr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}

	errc := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownServer(server)
		return nil
	}
}

// shutdownServer gracefully shuts down the HTTP server
func shutdownServer(server *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	server.Shutdown(ctx)
}
