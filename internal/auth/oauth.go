package auth

import (
	"strings"

	"golang.org/x/oauth2"
)

// DefaultOAuthURL is Strava's OAuth base; /authorize and /token hang off it.
const DefaultOAuthURL = "https://www.strava.com/oauth"

// Config holds the OAuth client credentials
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string // e.g. "http://localhost:8089/api/auth/callback"
	// Scope is Strava's comma-separated scope list, sent as a single value.
	Scope string
	// OAuthURL overrides DefaultOAuthURL (tests, proxies).
	OAuthURL string
}

// NewOAuthConfig creates an oauth2.Config from our Config.
// Strava expects the client credentials in the form body.
func NewOAuthConfig(cfg Config) *oauth2.Config {
	base := strings.TrimRight(cfg.OAuthURL, "/")
	if base == "" {
		base = DefaultOAuthURL
	}

	var scopes []string
	if cfg.Scope != "" {
		scopes = []string{cfg.Scope}
	}

	return &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:   base + "/authorize",
			TokenURL:  base + "/token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
		RedirectURL: cfg.RedirectURL,
		Scopes:      scopes,
	}
}

// AuthCodeURL builds the authorize URL; approval_prompt=force always shows the consent screen.
func AuthCodeURL(cfg *oauth2.Config, state string) string {
	return cfg.AuthCodeURL(state, oauth2.SetAuthURLParam("approval_prompt", "force"))
}

// ExtractAthleteID extracts the athlete ID from the token extras
// Strava includes athlete info in the token response
func ExtractAthleteID(token *oauth2.Token) int64 {
	if athlete, ok := token.Extra("athlete").(map[string]interface{}); ok {
		if id, ok := athlete["id"].(float64); ok {
			return int64(id)
		}
	}
	return 0
}
