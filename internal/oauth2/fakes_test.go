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

package oauth2

import "context"

// fakeModel is a hand-rolled Model double implementing every optional
// capability interface except the token/code generators, used across the
// package's white-box tests.
type fakeModel struct {
	clients map[string]*Client
	users   map[string]*User

	codes         map[string]*AuthorizationCode
	revokedCodes  map[string]bool
	accessTokens  map[string]*Token
	refreshTokens map[string]*Token

	revokeAuthCodeCalls int
	revokeAccessCalls   int
	revokeRefreshCalls  int

	saveTokenErr error
}

func newFakeModel() *fakeModel {
	return &fakeModel{
		clients:       make(map[string]*Client),
		users:         make(map[string]*User),
		codes:         make(map[string]*AuthorizationCode),
		revokedCodes:  make(map[string]bool),
		accessTokens:  make(map[string]*Token),
		refreshTokens: make(map[string]*Token),
	}
}

func (m *fakeModel) GetClient(ctx context.Context, clientID, clientSecret string) (*Client, error) {
	c, ok := m.clients[clientID]
	if !ok {
		return nil, nil
	}
	if clientSecret != "" && c.Secret != clientSecret {
		return nil, nil
	}
	if clientSecret == "" && c.Secret != "" {
		return nil, nil
	}
	return c, nil
}

func (m *fakeModel) GetUser(ctx context.Context, username, password string) (*User, error) {
	u, ok := m.users[username]
	if !ok {
		return nil, nil
	}
	if password != "correct-password" {
		return nil, nil
	}
	return u, nil
}

func (m *fakeModel) GetUserFromClient(ctx context.Context, client *Client) (*User, error) {
	return &User{Username: client.ID}, nil
}

func (m *fakeModel) ValidateScope(ctx context.Context, client *Client, user *User, scope string) (string, error) {
	if scope == "forbidden" {
		return "", nil
	}
	return scope, nil
}

func (m *fakeModel) VerifyScope(ctx context.Context, token *Token, required string) (bool, error) {
	return token.Scope == required, nil
}

func (m *fakeModel) SaveAuthorizationCode(ctx context.Context, client *Client, user *User, code *AuthorizationCode) error {
	m.codes[code.Code] = code
	return nil
}

func (m *fakeModel) GetAuthorizationCode(ctx context.Context, code string) (*AuthorizationCode, error) {
	if m.revokedCodes[code] {
		return nil, nil
	}
	c, ok := m.codes[code]
	if !ok {
		return nil, nil
	}
	return c, nil
}

func (m *fakeModel) RevokeAuthorizationCode(ctx context.Context, code *AuthorizationCode) (bool, error) {
	m.revokeAuthCodeCalls++
	if m.revokedCodes[code.Code] {
		return false, nil
	}
	m.revokedCodes[code.Code] = true
	return true, nil
}

func (m *fakeModel) SaveToken(ctx context.Context, client *Client, user *User, token *Token) error {
	if m.saveTokenErr != nil {
		return m.saveTokenErr
	}
	m.accessTokens[token.AccessToken] = token
	if token.RefreshToken != "" {
		m.refreshTokens[token.RefreshToken] = token
	}
	return nil
}

func (m *fakeModel) GetAccessToken(ctx context.Context, token string) (*Token, error) {
	t, ok := m.accessTokens[token]
	if !ok {
		return nil, nil
	}
	return t, nil
}

func (m *fakeModel) GetRefreshToken(ctx context.Context, token string) (*Token, error) {
	t, ok := m.refreshTokens[token]
	if !ok {
		return nil, nil
	}
	return t, nil
}

func (m *fakeModel) RevokeAccessToken(ctx context.Context, token *Token) (bool, error) {
	m.revokeAccessCalls++
	if _, ok := m.accessTokens[token.AccessToken]; !ok {
		return false, nil
	}
	delete(m.accessTokens, token.AccessToken)
	return true, nil
}

func (m *fakeModel) RevokeRefreshToken(ctx context.Context, token *Token) (bool, error) {
	m.revokeRefreshCalls++
	if _, ok := m.refreshTokens[token.RefreshToken]; !ok {
		return false, nil
	}
	delete(m.refreshTokens, token.RefreshToken)
	return true, nil
}
