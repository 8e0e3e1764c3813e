// Package account is the client side of sign-in: it talks to the auth endpoints and
// keeps the resulting identity on disk.
package account

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"bookworld/internal/auth"
	"bookworld/internal/platform/apiclient"
)

type Client struct {
	api   *apiclient.Client
	store *IdentityStore

	mu      sync.RWMutex
	current *auth.Identity
}

// NewClient builds the account client and an API client that carries its token.
func NewClient(baseURL string, store *IdentityStore, opts ...apiclient.Option) *Client {
	c := &Client{store: store}
	opts = append(opts, apiclient.WithTokenSource(c.Token))
	c.api = apiclient.New(baseURL, opts...)
	return c
}

// API returns the authenticated API client shared with other remotes.
func (c *Client) API() *apiclient.Client {
	return c.api
}

func (c *Client) Register(ctx context.Context, name, email, password string) (auth.Identity, error) {
	body := map[string]string{"name": name, "email": email, "password": password}
	return c.signIn(ctx, "/api/auth/register", body)
}

func (c *Client) Login(ctx context.Context, email, password string) (auth.Identity, error) {
	body := map[string]string{"email": email, "password": password}
	return c.signIn(ctx, "/api/auth/login", body)
}

func (c *Client) signIn(ctx context.Context, path string, body any) (auth.Identity, error) {
	var id auth.Identity
	if err := c.api.Do(ctx, http.MethodPost, path, body, &id); err != nil {
		return auth.Identity{}, err
	}
	if id.Token == "" {
		return auth.Identity{}, errors.New("account: server returned no token")
	}
	if err := c.store.Save(ctx, id); err != nil {
		return auth.Identity{}, fmt.Errorf("persist identity: %w", err)
	}
	c.set(&id)
	return id, nil
}

// Restore loads the stored identity and verifies its token with /me. A rejected token
// is forgotten; a transport failure keeps it and returns the error.
func (c *Client) Restore(ctx context.Context) (auth.Identity, bool, error) {
	id, ok, err := c.store.Load(ctx)
	if err != nil || !ok {
		return auth.Identity{}, false, err
	}
	c.set(&id)

	var me auth.User
	if err := c.api.Do(ctx, http.MethodGet, "/api/auth/me", nil, &me); err != nil {
		if errors.Is(err, apiclient.ErrUnauthorized) {
			return auth.Identity{}, false, c.Logout(ctx)
		}
		return id, true, fmt.Errorf("verify identity: %w", err)
	}

	if me.Name != id.Name || me.Email != id.Email {
		id.Name, id.Email = me.Name, me.Email
		if err := c.store.Save(ctx, id); err != nil {
			return id, true, fmt.Errorf("persist identity: %w", err)
		}
		c.set(&id)
	}
	return id, true, nil
}

func (c *Client) Logout(ctx context.Context) error {
	c.set(nil)
	return c.store.Delete(ctx)
}

func (c *Client) Current() (auth.Identity, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.current == nil {
		return auth.Identity{}, false
	}
	return *c.current, true
}

func (c *Client) UserID() string {
	id, _ := c.Current()
	return id.ID
}

func (c *Client) Token() string {
	id, _ := c.Current()
	return id.Token
}

func (c *Client) set(id *auth.Identity) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = id
}
