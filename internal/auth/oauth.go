// Package auth obtains and persists Google OAuth tokens and hands out
// authorized HTTP clients per account.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"sync"

	"github.com/dmitrijs2005/healthtrend/internal/common"
	"github.com/dmitrijs2005/healthtrend/internal/logging"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	gsheets "google.golang.org/api/sheets/v4"
)

// Scopes needed to read and write the sheet and to find it by title.
var Scopes = []string{gsheets.SpreadsheetsScope, drive.DriveMetadataReadonlyScope}

// LoadOAuthConfig reads an OAuth client credentials file as downloaded from
// the Google Cloud console.
func LoadOAuthConfig(path string) (*oauth2.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read credentials: %w", err)
	}
	cfg, err := google.ConfigFromJSON(data, Scopes...)
	if err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}
	return cfg, nil
}

// UnconfiguredConfig stands in when no credentials file is available.
// Exchanges and refreshes against it fail, which keeps sync disabled.
func UnconfiguredConfig() *oauth2.Config {
	return &oauth2.Config{Endpoint: google.Endpoint, Scopes: Scopes, RedirectURL: "urn:ietf:wg:oauth:2.0:oob"}
}

// Authorizer implements sheets.ClientSource on top of a TokenStore.
// Clients are cached per account since unsealing a token is costly.
type Authorizer struct {
	config *oauth2.Config
	store  *TokenStore
	logger logging.Logger

	mu      sync.Mutex
	clients map[string]*http.Client
}

func NewAuthorizer(config *oauth2.Config, store *TokenStore, logger logging.Logger) *Authorizer {
	return &Authorizer{
		config:  config,
		store:   store,
		logger:  logger.With("module", "auth"),
		clients: make(map[string]*http.Client),
	}
}

func (a *Authorizer) drop(identity string) {
	a.mu.Lock()
	delete(a.clients, identity)
	a.mu.Unlock()
}

// AuthCodeURL is the consent URL the user opens to grant access.
func (a *Authorizer) AuthCodeURL(state string) string {
	return a.config.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// Exchange trades an authorization code for a token and stores it.
func (a *Authorizer) Exchange(ctx context.Context, identity, code string) error {
	tok, err := a.config.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrUnauthorized, err)
	}
	if err := a.store.Save(identity, tok); err != nil {
		return err
	}
	a.drop(identity)
	a.logger.Info(ctx, "account authorized", "identity", identity)
	return nil
}

// Forget drops the stored token for identity.
func (a *Authorizer) Forget(identity string) error {
	a.drop(identity)
	return a.store.Delete(identity)
}

// Client returns an HTTP client that signs requests for identity. Refreshed
// tokens are written back to the store. The client outlives ctx; only its
// values are kept.
func (a *Authorizer) Client(ctx context.Context, identity string) (*http.Client, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if c, ok := a.clients[identity]; ok {
		return c, nil
	}

	tok, err := a.store.Load(identity)
	if err != nil {
		return nil, err
	}

	ctx = context.WithoutCancel(ctx)
	src := &persistingSource{
		base:     a.config.TokenSource(ctx, tok),
		store:    a.store,
		identity: identity,
		last:     tok.AccessToken,
		logger:   a.logger,
	}
	c := oauth2.NewClient(ctx, oauth2.ReuseTokenSource(tok, src))
	a.clients[identity] = c
	return c, nil
}

type persistingSource struct {
	mu       sync.Mutex
	base     oauth2.TokenSource
	store    *TokenStore
	identity string
	last     string
	logger   logging.Logger
}

func (p *persistingSource) Token() (*oauth2.Token, error) {
	tok, err := p.base.Token()
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if tok.AccessToken != p.last {
		p.last = tok.AccessToken
		if err := p.store.Save(p.identity, tok); err != nil {
			p.logger.Warn(context.Background(), "failed to persist refreshed token", "error", err)
		}
	}
	return tok, nil
}
