package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"strava-dashboard/internal/auth"
	"strava-dashboard/internal/config"
	"strava-dashboard/internal/logging"
	"strava-dashboard/internal/store"
	"strava-dashboard/internal/strava"
)

// --- Global Command Variables ---
var (
	cfg *config.Config

	rootCmd = &cobra.Command{
		Use:          "strava-dashboard",
		Short:        "Strava activity dashboard and segment explorer",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := loadConfig()
			if err != nil {
				return err
			}
			cfg = loaded
			logging.Init(logging.Config{
				Level:  cfg.Log.Level,
				Format: cfg.Log.Format,
				Caller: cfg.Log.Caller,
			})
			return nil
		},
	}
)

func init() {
	rootCmd.AddCommand(loginCmd, logoutCmd, serveCmd, tuiCmd, segmentsCmd, compareCmd, coverageCmd, dashboardCmd)
}

// loadConfig loads and validates the configuration, writing an example file
// the first time no credentials are configured.
func loadConfig() (*config.Config, error) {
	c, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	err = c.Validate()
	if errors.Is(err, config.ErrNoConfig) {
		path, cerr := config.CreateExample()
		if cerr != nil {
			return nil, fmt.Errorf("creating example config: %w", cerr)
		}
		fmt.Fprintf(os.Stderr, "No Strava API credentials configured.\n\nPlease edit the config file at:\n  %s\n\n", path)
		fmt.Fprintln(os.Stderr, "Get your credentials from: https://www.strava.com/settings/api")
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return c, nil
}

// session bundles the credential store, token service and API client one
// command needs.
type session struct {
	store  *store.Store
	tokens *auth.TokenService
	client *strava.Client
}

func openSession(logger zerolog.Logger) (*session, error) {
	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("opening credential store: %w", err)
	}

	tokens := auth.NewTokenService(auth.NewOAuthConfig(auth.Config{
		ClientID:     cfg.Strava.ClientID,
		ClientSecret: cfg.Strava.ClientSecret,
		RedirectURL:  cfg.Strava.RedirectURI,
		Scope:        cfg.Strava.Scope,
		OAuthURL:     cfg.Strava.OAuthURL,
	}), nil)

	client := strava.NewClient(st, tokens, strava.ClientOptions{
		BaseURL: cfg.Strava.APIURL,
		Timeout: cfg.HTTP.Timeout,
		Logger:  logger,
	})

	return &session{store: st, tokens: tokens, client: client}, nil
}

func (s *session) Close() error {
	return s.store.Close()
}

// requireLogin fails fast when nothing is stored yet.
func (s *session) requireLogin(ctx context.Context) error {
	if _, err := s.store.Get(ctx); err != nil {
		if errors.Is(err, auth.ErrNoCredentials) {
			return errors.New("not logged in: run `strava-dashboard login` first")
		}
		return fmt.Errorf("reading credentials: %w", err)
	}
	return nil
}

// checkAuth clears the stored credentials once the login is gone and adds
// the re-login hint. Other errors, including a 401 on one resource after a
// successful refresh, pass through.
func (s *session) checkAuth(ctx context.Context, err error) error {
	if err == nil || !(strava.IsLoggedOut(err) || errors.Is(err, auth.ErrNoCredentials)) {
		return err
	}
	if cerr := s.store.Clear(context.WithoutCancel(ctx)); cerr != nil {
		logging.Warn().Err(cerr).Msg("clearing credentials failed")
	}
	return fmt.Errorf("%w\nYour Strava session is no longer valid. Run `strava-dashboard login` to sign in again", err)
}

// dataPath places a file next to the credential store.
func dataPath(name string) string {
	return filepath.Join(filepath.Dir(cfg.Store.Path), name)
}
