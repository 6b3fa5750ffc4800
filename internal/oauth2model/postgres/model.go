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

package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/opentrusty/authcore/internal/oauth2"
	"github.com/opentrusty/authcore/internal/security"
)

// Model is a PostgreSQL-backed oauth2.Model. It implements every optional
// capability interface the engine can assert against a Model except the
// three token/code generators (the engine's own opaque generator is used), so a host
// wiring this package gets the full protocol surface.
type Model struct {
	db     *DB
	hasher *security.Hasher
}

// New builds a Model over an already-migrated DB.
func New(db *DB) *Model {
	return &Model{db: db, hasher: security.DefaultHasher()}
}

// RegisterClient inserts or replaces a client row. secret is stored hashed;
// pass "" for a public client.
func (m *Model) RegisterClient(ctx context.Context, client *oauth2.Client, secret string) error {
	hash := ""
	if secret != "" {
		h, err := m.hasher.Hash(secret)
		if err != nil {
			return fmt.Errorf("postgres: hash client secret: %w", err)
		}
		hash = h
	}

	_, err := m.db.pool.Exec(ctx, `
		INSERT INTO oauth2_clients (
			client_id, secret_hash, grants, redirect_uris,
			access_token_lifetime, refresh_token_lifetime, authorization_code_lifetime
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (client_id) DO UPDATE SET
			secret_hash = EXCLUDED.secret_hash,
			grants = EXCLUDED.grants,
			redirect_uris = EXCLUDED.redirect_uris,
			access_token_lifetime = EXCLUDED.access_token_lifetime,
			refresh_token_lifetime = EXCLUDED.refresh_token_lifetime,
			authorization_code_lifetime = EXCLUDED.authorization_code_lifetime
	`,
		client.ID, hash, client.Grants, client.RedirectURIs,
		client.AccessTokenLifetime, client.RefreshTokenLifetime, client.AuthorizationCodeLifetime,
	)
	if err != nil {
		return fmt.Errorf("postgres: register client: %w", err)
	}
	return nil
}

// RegisterUser inserts or replaces a resource owner row.
func (m *Model) RegisterUser(ctx context.Context, username, password string) error {
	hash, err := m.hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("postgres: hash password: %w", err)
	}
	_, err = m.db.pool.Exec(ctx, `
		INSERT INTO oauth2_users (username, password_hash) VALUES ($1, $2)
		ON CONFLICT (username) DO UPDATE SET password_hash = EXCLUDED.password_hash
	`, username, hash)
	if err != nil {
		return fmt.Errorf("postgres: register user: %w", err)
	}
	return nil
}

// RegisterScope declares scope as grantable. With no scopes registered,
// ValidateScope accepts anything.
func (m *Model) RegisterScope(ctx context.Context, scope string) error {
	_, err := m.db.pool.Exec(ctx, `
		INSERT INTO oauth2_scopes (scope) VALUES ($1) ON CONFLICT DO NOTHING
	`, scope)
	if err != nil {
		return fmt.Errorf("postgres: register scope: %w", err)
	}
	return nil
}

// GetClient implements oauth2.Model.
func (m *Model) GetClient(ctx context.Context, clientID, clientSecret string) (*oauth2.Client, error) {
	client, hash, err := m.scanClient(ctx, clientID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("postgres: get client: %w", err)
	}

	if clientSecret == "" {
		if hash != "" {
			return nil, nil
		}
		return client, nil
	}
	ok, err := m.hasher.Verify(clientSecret, hash)
	if err != nil || !ok {
		return nil, nil
	}
	return client, nil
}

func (m *Model) scanClient(ctx context.Context, clientID string) (*oauth2.Client, string, error) {
	var client oauth2.Client
	var hash string
	err := m.db.pool.QueryRow(ctx, `
		SELECT client_id, secret_hash, grants, redirect_uris,
		       access_token_lifetime, refresh_token_lifetime, authorization_code_lifetime
		FROM oauth2_clients WHERE client_id = $1
	`, clientID).Scan(
		&client.ID, &hash, &client.Grants, &client.RedirectURIs,
		&client.AccessTokenLifetime, &client.RefreshTokenLifetime, &client.AuthorizationCodeLifetime,
	)
	if err != nil {
		return nil, "", err
	}
	return &client, hash, nil
}

// GetUser implements oauth2.UserAuthenticator.
func (m *Model) GetUser(ctx context.Context, username, password string) (*oauth2.User, error) {
	var hash string
	err := m.db.pool.QueryRow(ctx, `
		SELECT password_hash FROM oauth2_users WHERE username = $1
	`, username).Scan(&hash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("postgres: get user: %w", err)
	}

	ok, err := m.hasher.Verify(password, hash)
	if err != nil || !ok {
		return nil, nil
	}
	return &oauth2.User{Username: username}, nil
}

// GetUserFromClient implements oauth2.ClientUserResolver: the
// client_credentials grant runs as the client's own service identity.
func (m *Model) GetUserFromClient(ctx context.Context, client *oauth2.Client) (*oauth2.User, error) {
	return &oauth2.User{Username: client.ID}, nil
}

// ValidateScope implements oauth2.ScopeValidator.
func (m *Model) ValidateScope(ctx context.Context, client *oauth2.Client, user *oauth2.User, scope string) (string, error) {
	rows, err := m.db.pool.Query(ctx, `SELECT scope FROM oauth2_scopes`)
	if err != nil {
		return "", fmt.Errorf("postgres: list scopes: %w", err)
	}
	defer rows.Close()

	registered := make(map[string]bool)
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return "", fmt.Errorf("postgres: scan scope: %w", err)
		}
		registered[s] = true
	}
	if err := rows.Err(); err != nil {
		return "", err
	}

	if len(registered) == 0 {
		return scope, nil
	}
	for _, s := range strings.Fields(scope) {
		if !registered[s] {
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
	_, err := m.db.pool.Exec(ctx, `
		INSERT INTO oauth2_authorization_codes (code, client_id, username, scope, redirect_uri, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, code.Code, client.ID, user.Username, code.Scope, code.RedirectURI, code.ExpiresAt)
	if err != nil {
		return fmt.Errorf("postgres: save authorization code: %w", err)
	}
	return nil
}

// GetAuthorizationCode implements oauth2.AuthorizationCodeGetter.
func (m *Model) GetAuthorizationCode(ctx context.Context, codeValue string) (*oauth2.AuthorizationCode, error) {
	var code oauth2.AuthorizationCode
	var clientID, username string

	err := m.db.pool.QueryRow(ctx, `
		SELECT code, client_id, username, scope, redirect_uri, expires_at
		FROM oauth2_authorization_codes WHERE code = $1
	`, codeValue).Scan(&code.Code, &clientID, &username, &code.Scope, &code.RedirectURI, &code.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("postgres: get authorization code: %w", err)
	}

	client, _, err := m.scanClient(ctx, clientID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("postgres: resolve code client: %w", err)
	}
	code.Client = client
	code.User = &oauth2.User{Username: username}
	return &code, nil
}

// RevokeAuthorizationCode implements oauth2.AuthorizationCodeRevoker: the
// row is deleted so a second redemption attempt finds nothing.
func (m *Model) RevokeAuthorizationCode(ctx context.Context, code *oauth2.AuthorizationCode) (bool, error) {
	tag, err := m.db.pool.Exec(ctx, `DELETE FROM oauth2_authorization_codes WHERE code = $1`, code.Code)
	if err != nil {
		return false, fmt.Errorf("postgres: revoke authorization code: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// SaveToken implements oauth2.TokenSaver.
func (m *Model) SaveToken(ctx context.Context, client *oauth2.Client, user *oauth2.User, token *oauth2.Token) error {
	var refreshToken sql.NullString
	var refreshExpiresAt sql.NullTime
	if token.RefreshToken != "" {
		refreshToken = sql.NullString{String: token.RefreshToken, Valid: true}
		refreshExpiresAt = sql.NullTime{Time: token.RefreshTokenExpiresAt, Valid: true}
	}

	_, err := m.db.pool.Exec(ctx, `
		INSERT INTO oauth2_tokens (
			access_token, access_token_expires_at, refresh_token, refresh_token_expires_at,
			scope, client_id, username
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, token.AccessToken, token.AccessTokenExpiresAt, refreshToken, refreshExpiresAt,
		token.Scope, client.ID, user.Username)
	if err != nil {
		return fmt.Errorf("postgres: save token: %w", err)
	}
	return nil
}

// GetAccessToken implements oauth2.AccessTokenGetter.
func (m *Model) GetAccessToken(ctx context.Context, accessToken string) (*oauth2.Token, error) {
	return m.scanToken(ctx, `
		SELECT access_token, access_token_expires_at, refresh_token, refresh_token_expires_at,
		       scope, client_id, username
		FROM oauth2_tokens WHERE access_token = $1
	`, accessToken)
}

// GetRefreshToken implements oauth2.RefreshTokenGetter.
func (m *Model) GetRefreshToken(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	return m.scanToken(ctx, `
		SELECT access_token, access_token_expires_at, refresh_token, refresh_token_expires_at,
		       scope, client_id, username
		FROM oauth2_tokens WHERE refresh_token = $1
	`, refreshToken)
}

func (m *Model) scanToken(ctx context.Context, query, arg string) (*oauth2.Token, error) {
	var token oauth2.Token
	var clientID, username string
	var refreshToken sql.NullString
	var refreshExpiresAt sql.NullTime

	err := m.db.pool.QueryRow(ctx, query, arg).Scan(
		&token.AccessToken, &token.AccessTokenExpiresAt, &refreshToken, &refreshExpiresAt,
		&token.Scope, &clientID, &username,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("postgres: get token: %w", err)
	}

	if refreshToken.Valid {
		token.RefreshToken = refreshToken.String
		token.RefreshTokenExpiresAt = refreshExpiresAt.Time
	}

	client, _, err := m.scanClient(ctx, clientID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("postgres: resolve token client: %w", err)
	}
	token.Client = client
	token.User = &oauth2.User{Username: username}
	return &token, nil
}

// RevokeAccessToken implements oauth2.AccessTokenRevoker.
func (m *Model) RevokeAccessToken(ctx context.Context, token *oauth2.Token) (bool, error) {
	tag, err := m.db.pool.Exec(ctx, `DELETE FROM oauth2_tokens WHERE access_token = $1`, token.AccessToken)
	if err != nil {
		return false, fmt.Errorf("postgres: revoke access token: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// RevokeRefreshToken implements oauth2.RefreshTokenRevoker.
func (m *Model) RevokeRefreshToken(ctx context.Context, token *oauth2.Token) (bool, error) {
	tag, err := m.db.pool.Exec(ctx, `DELETE FROM oauth2_tokens WHERE refresh_token = $1`, token.RefreshToken)
	if err != nil {
		return false, fmt.Errorf("postgres: revoke refresh token: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
