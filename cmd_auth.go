package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"strava-dashboard/internal/auth"
	"strava-dashboard/internal/logging"
	"strava-dashboard/internal/server"
)

var (
	loginCmd = &cobra.Command{
		Use:   "login",
		Short: "Sign in with Strava through the browser",
		Args:  cobra.NoArgs,
		RunE:  runLogin,
	}

	logoutCmd = &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored Strava tokens",
		Args:  cobra.NoArgs,
		RunE:  runLogout,
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the OAuth callback server until interrupted",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
)

func runLogin(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	logger := logging.Component("login")
	sess, err := openSession(logger)
	if err != nil {
		return err
	}
	defer sess.Close()

	flow := &server.LoginFlow{
		Addr:   cfg.Server.Addr,
		Router: routerConfig(sess, logger),
		Store:  sess.store,
		Ready: func(loginURL string) {
			fmt.Println("Open this URL in your browser to authorize with Strava:")
			fmt.Println()
			fmt.Printf("  %s\n\n", loginURL)
			fmt.Printf("Waiting for authorization (timeout: %v)...\n", server.AuthTimeout)
		},
	}

	grant, err := flow.Run(ctx)
	if err != nil {
		return fmt.Errorf("authentication: %w", err)
	}

	fmt.Println()
	fmt.Printf("Successfully authenticated as athlete %d!\n", grant.AthleteID)
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	sess, err := openSession(logging.Component("logout"))
	if err != nil {
		return err
	}
	defer sess.Close()

	if err := sess.store.Clear(cmd.Context()); err != nil {
		return fmt.Errorf("clearing credentials: %w", err)
	}
	fmt.Println("Logged out. Stored Strava tokens removed.")
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	logger := logging.Component("server")
	sess, err := openSession(logger)
	if err != nil {
		return err
	}
	defer sess.Close()

	rc := routerConfig(sess, logger)
	rc.OnGrant = func(ctx context.Context, g *auth.Grant) error {
		return sess.store.Set(ctx, g.Pair)
	}

	logger.Info().Str("addr", cfg.Server.Addr).Str("base_url", cfg.Server.BaseURL).Msg("serving OAuth callback")
	return server.Serve(ctx, cfg.Server.Addr, server.NewRouter(rc))
}

func routerConfig(sess *session, logger zerolog.Logger) server.Config {
	return server.Config{
		BaseURL:   cfg.Server.BaseURL,
		OAuth:     sess.tokens.OAuthConfig(),
		Exchanger: sess.tokens,
		Logger:    logger,
	}
}
