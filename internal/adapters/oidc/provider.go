// Package oidc implements SSO sign-in against an OpenID Connect provider.
package oidc

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	domainauth "github.com/narrai/narrai-web/internal/domain/auth"
	"github.com/narrai/narrai-web/internal/ports"
)

var _ ports.AuthProvider = (*Provider)(nil)

// Provider implements ports.AuthProvider using go-oidc discovery and ID token verification.
type Provider struct {
	config     *oauth2.Config
	httpClient *http.Client
	provider   *gooidc.Provider
	verifier   *gooidc.IDTokenVerifier
	now        func() time.Time
}

// ProviderConfig holds configuration for the OIDC provider.
type ProviderConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scope        string
	// IssuerURL is the issuer or its /.well-known/openid-configuration URL.
	IssuerURL  string
	HTTPClient *http.Client // Optional, defaults to a 30s client
}

// NewProvider performs discovery and returns a ready provider.
func NewProvider(ctx context.Context, cfg ProviderConfig) (*Provider, error) {
	switch {
	case cfg.ClientID == "":
		return nil, errors.New("client ID is required")
	case cfg.ClientSecret == "":
		return nil, errors.New("client secret is required")
	case cfg.RedirectURL == "":
		return nil, errors.New("redirect URL is required")
	case cfg.IssuerURL == "":
		return nil, errors.New("issuer URL is required")
	}

	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}

	issuer := strings.TrimSuffix(cfg.IssuerURL, "/")
	issuer = strings.TrimSuffix(issuer, "/.well-known/openid-configuration")
	op, err := gooidc.NewProvider(gooidc.ClientContext(ctx, hc), issuer)
	if err != nil {
		return nil, fmt.Errorf("oidc discovery: %w", err)
	}

	scopes := strings.Fields(cfg.Scope)
	if len(scopes) == 0 {
		scopes = []string{gooidc.ScopeOpenID, "profile", "email"}
	}

	return &Provider{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       scopes,
			Endpoint:     op.Endpoint(),
		},
		httpClient: hc,
		provider:   op,
		verifier:   op.Verifier(&gooidc.Config{ClientID: cfg.ClientID}),
		now:        time.Now,
	}, nil
}

func (p *Provider) Begin(_ context.Context, in ports.BeginInput) (string, string, string, error) {
	if in.RedirectURL == "" {
		return "", "", "", errors.New("redirect URL is required")
	}
	state, err := randomToken(32)
	if err != nil {
		return "", "", "", fmt.Errorf("generate state: %w", err)
	}
	nonce, err := randomToken(32)
	if err != nil {
		return "", "", "", fmt.Errorf("generate nonce: %w", err)
	}
	// redirect_uri stays the configured RedirectURL; in.RedirectURL is the post-login target kept by the caller
	authURL := p.config.AuthCodeURL(state, gooidc.Nonce(nonce), oauth2.SetAuthURLParam("prompt", "select_account"))
	return authURL, state, nonce, nil
}

func (p *Provider) Exchange(ctx context.Context, in ports.ExchangeInput) (domainauth.Identity, error) {
	switch {
	case in.Code == "":
		return domainauth.Identity{}, errors.New("authorization code is required")
	case in.State == "":
		return domainauth.Identity{}, errors.New("state is required")
	case in.Nonce == "":
		return domainauth.Identity{}, errors.New("nonce is required")
	}

	ctx = gooidc.ClientContext(ctx, p.httpClient)
	tok, err := p.config.Exchange(ctx, in.Code)
	if err != nil {
		return domainauth.Identity{}, fmt.Errorf("exchange code for token: %w", err)
	}

	claims, err := p.idTokenClaims(ctx, tok, in.Nonce)
	if err != nil {
		return domainauth.Identity{}, err
	}
	if claims.Email == "" || claims.Subject == "" {
		if uiErr := p.fillFromUserInfo(ctx, tok, &claims); uiErr != nil {
			return domainauth.Identity{}, fmt.Errorf("get user info: %w", uiErr)
		}
	}

	expiresAt := p.now().Add(time.Hour)
	if !tok.Expiry.IsZero() {
		expiresAt = tok.Expiry
	}
	return domainauth.Identity{
		UserID:    claims.Subject,
		FirstName: claims.GivenName,
		LastName:  claims.FamilyName,
		Email:     claims.Email,
		Groups:    claims.Groups,
		Claims:    claims.raw,
		ExpiresAt: expiresAt,
	}, nil
}

// standardClaims is the subset of OIDC claims the front end reads; raw keeps everything for role mapping.
type standardClaims struct {
	Subject    string   `json:"sub"`
	Email      string   `json:"email"`
	GivenName  string   `json:"given_name"`
	FamilyName string   `json:"family_name"`
	Groups     []string `json:"groups"`
	Nonce      string   `json:"nonce"`
	raw        map[string]any
}

type claimsSource interface {
	Claims(v any) error
}

func decodeClaims(src claimsSource) (standardClaims, error) {
	var c standardClaims
	if err := src.Claims(&c); err != nil {
		return c, fmt.Errorf("decode claims: %w", err)
	}
	if err := src.Claims(&c.raw); err != nil {
		return c, fmt.Errorf("decode raw claims: %w", err)
	}
	return c, nil
}

func (p *Provider) idTokenClaims(ctx context.Context, tok *oauth2.Token, nonce string) (standardClaims, error) {
	if !slices.Contains(p.config.Scopes, gooidc.ScopeOpenID) {
		return standardClaims{}, nil
	}
	rawID, ok := tok.Extra("id_token").(string)
	if !ok || rawID == "" {
		return standardClaims{}, errors.New("missing id_token in token response")
	}
	idTok, err := p.verifier.Verify(ctx, rawID)
	if err != nil {
		return standardClaims{}, fmt.Errorf("verify id_token: %w", err)
	}
	c, err := decodeClaims(idTok)
	if err != nil {
		return c, err
	}
	if c.Nonce != nonce {
		return standardClaims{}, errors.New("invalid nonce")
	}
	return c, nil
}

func (p *Provider) fillFromUserInfo(ctx context.Context, tok *oauth2.Token, c *standardClaims) error {
	ui, err := p.provider.UserInfo(ctx, oauth2.StaticTokenSource(tok))
	if err != nil {
		return err
	}
	extra, err := decodeClaims(ui)
	if err != nil {
		return err
	}
	mergeClaims(c, extra)
	return nil
}

// mergeClaims fills empty fields of dst from src. Existing values win.
func mergeClaims(dst *standardClaims, src standardClaims) {
	if dst.Subject == "" {
		dst.Subject = src.Subject
	}
	if dst.Email == "" {
		dst.Email = src.Email
	}
	if dst.GivenName == "" {
		dst.GivenName = src.GivenName
	}
	if dst.FamilyName == "" {
		dst.FamilyName = src.FamilyName
	}
	if len(dst.Groups) == 0 {
		dst.Groups = src.Groups
	}
	if dst.raw == nil {
		dst.raw = map[string]any{}
	}
	for k, v := range src.raw {
		if _, ok := dst.raw[k]; !ok {
			dst.raw[k] = v
		}
	}
}

// randomToken returns a URL-safe random string of exactly n characters.
func randomToken(n int) (string, error) {
	if n <= 0 {
		return "", nil
	}
	b := make([]byte, base64.RawURLEncoding.DecodedLen(n)+1)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b)[:n], nil
}
