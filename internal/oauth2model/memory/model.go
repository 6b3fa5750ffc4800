// Copyright 2026 The OpenTrusty Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package memory is a reference implementation of oauth2.Model backed by
// plain maps, guarded by a single mutex. It exists for tests and for
// running the server without a database, not as a production store.
package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/opentrusty/authcore/internal/oauth2"
	"github.com/opentrusty/authcore/internal/security"
)

// registeredUser is a resource owner the Model knows how to authenticate.
type registeredUser struct {
	username     string
	passwordHash string
}

// Model is an in-memory oauth2.Model plus every optional capability
// interface the engine can assert against it, except the three token/code
// generators, so the engine's own opaque generator is used.
type Model struct {
	mu sync.Mutex

	hasher *security.Hasher

	clients map[string]*oauth2.Client
	users   map[string]*registeredUser

	codes         map[string]*oauth2.AuthorizationCode
	accessTokens  map[string]*oauth2.Token
	refreshTokens map[string]*oauth2.Token

	validScopes map[string]bool
}

// New returns an empty Model.
func New() *Model {
	return &Model{
		hasher:        security.DefaultHasher(),
		clients:       make(map[string]*oauth2.Client),
		users:         make(map[string]*registeredUser),
		codes:         make(map[string]*oauth2.AuthorizationCode),
		accessTokens:  make(map[string]*oauth2.Token),
		refreshTokens: make(map[string]*oauth2.Token),
		validScopes:   make(map[string]bool),
	}
}

// RegisterClient adds or replaces a client. secret is stored hashed; pass
// "" for a public client that authenticates by ID alone.
func (m *Model) RegisterClient(client *oauth2.Client, secret string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c := *client
	if secret != "" {
		hash, err := m.hasher.Hash(secret)
		if err != nil {
			return fmt.Errorf("memory: hash client secret: %w", err)
		}
		c.Secret = hash
	}
	m.clients[client.ID] = &c
	return nil
}

// RegisterUser adds or replaces a resource owner.
func (m *Model) RegisterUser(username, password string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	hash, err := m.hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("memory: hash password: %w", err)
	}
	m.users[username] = &registeredUser{username: username, passwordHash: hash}
	return nil
}

// RegisterScope declares scope as grantable. With no scopes registered,
// ValidateScope accepts anything.
func (m *Model) RegisterScope(scope string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.validScopes[scope] = true
}

// GetClient implements oauth2.Model.
func (m *Model) GetClient(ctx context.Context, clientID, clientSecret string) (*oauth2.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.clients[clientID]
	if !ok {
		return nil, nil
	}
	if clientSecret == "" {
		if c.Secret != "" {
			return nil, nil
		}
		return c, nil
	}
	ok2, err := m.hasher.Verify(clientSecret, c.Secret)
	if err != nil || !ok2 {
		return nil, nil
	}
	return c, nil
}

// GetUser implements oauth2.UserAuthenticator.
func (m *Model) GetUser(ctx context.Context, username, password string) (*oauth2.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[username]
	if !ok {
		return nil, nil
	}
	ok2, err := m.hasher.Verify(password, u.passwordHash)
	if err != nil || !ok2 {
		return nil, nil
	}
	return &oauth2.User{Username: u.username}, nil
}

// GetUserFromClient implements oauth2.ClientUserResolver: the
// client_credentials grant runs as the client's own service identity.
func (m *Model) GetUserFromClient(ctx context.Context, client *oauth2.Client) (*oauth2.User, error) {
	return &oauth2.User{Username: client.ID}, nil
}

// ValidateScope implements oauth2.ScopeValidator.
func (m *Model) ValidateScope(ctx context.Context, client *oauth2.Client, user *oauth2.User, scope string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.validScopes) == 0 {
		return scope, nil
	}
	for _, s := range strings.Fields(scope) {
		if !m.validScopes[s] {
			return "", nil
		}
	}
	return scope, nil
}

// VerifyScope implements oauth2.ScopeVerifier: required is satisfied when
// every space-separated scope it names is present on the token.
func (m *Model) VerifyScope(ctx context.Context, token *oauth2.Token, required string) (bool, error) {
	have := make(map[string]bool)
	for _, s := range strings.Fields(token.Scope) {
		have[s] = true
	}
	for _, s := range strings.Fields(required) {
		if !have[s] {
			return false, nil
		}
	}
	return true, nil
}

// SaveAuthorizationCode implements oauth2.AuthorizationCodeSaver.
func (m *Model) SaveAuthorizationCode(ctx context.Context, client *oauth2.Client, user *oauth2.User, code *oauth2.AuthorizationCode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.codes[code.Code] = code
	return nil
}

// GetAuthorizationCode implements oauth2.AuthorizationCodeGetter.
func (m *Model) GetAuthorizationCode(ctx context.Context, code string) (*oauth2.AuthorizationCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.codes[code]
	if !ok {
		return nil, nil
	}
	return c, nil
}

// RevokeAuthorizationCode implements oauth2.AuthorizationCodeRevoker: the
// code is deleted so a second redemption attempt finds nothing.
func (m *Model) RevokeAuthorizationCode(ctx context.Context, code *oauth2.AuthorizationCode) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.codes[code.Code]; !ok {
		return false, nil
	}
	delete(m.codes, code.Code)
	return true, nil
}

// SaveToken implements oauth2.TokenSaver.
func (m *Model) SaveToken(ctx context.Context, client *oauth2.Client, user *oauth2.User, token *oauth2.Token) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accessTokens[token.AccessToken] = token
	if token.RefreshToken != "" {
		m.refreshTokens[token.RefreshToken] = token
	}
	return nil
}

// GetAccessToken implements oauth2.AccessTokenGetter.
func (m *Model) GetAccessToken(ctx context.Context, token string) (*oauth2.Token, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.accessTokens[token]
	if !ok {
		return nil, nil
	}
	return t, nil
}

// GetRefreshToken implements oauth2.RefreshTokenGetter.
func (m *Model) GetRefreshToken(ctx context.Context, token string) (*oauth2.Token, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.refreshTokens[token]
	if !ok {
		return nil, nil
	}
	return t, nil
}

// RevokeAccessToken implements oauth2.AccessTokenRevoker.
func (m *Model) RevokeAccessToken(ctx context.Context, token *oauth2.Token) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accessTokens[token.AccessToken]; !ok {
		return false, nil
	}
	delete(m.accessTokens, token.AccessToken)
	return true, nil
}

// RevokeRefreshToken implements oauth2.RefreshTokenRevoker.
func (m *Model) RevokeRefreshToken(ctx context.Context, token *oauth2.Token) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.refreshTokens[token.RefreshToken]; !ok {
		return false, nil
	}
	delete(m.refreshTokens, token.RefreshToken)
	return true, nil
}
