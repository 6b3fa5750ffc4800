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

import (
	"context"
	"time"
)

// Standard grant-type identifiers (RFC 6749 §4) plus the implicit grant,
// which the Authorize endpoint drives directly rather than dispatching
// through the Token endpoint's registry.
const (
	GrantAuthorizationCode = "authorization_code"
	GrantClientCredentials = "client_credentials"
	GrantPassword          = "password"
	GrantRefreshToken      = "refresh_token"
	GrantImplicit          = "implicit"
)

// TokenRequest is the parsed body of a call to the Token endpoint, shared
// by every grant's Execute method. Fields not used by a given grant are
// simply left zero.
type TokenRequest struct {
	GrantType    string
	Code         string
	RedirectURI  string
	Username     string
	Password     string
	RefreshToken string
	Scope        string

	// Raw is the original parsed request, available to extension grants
	// registered via TokenOptions.ExtendedGrantTypes that need fields the
	// standard TokenRequest does not carry.
	Raw *Request
}

// GrantType is one pluggable authorization-grant flow. Execute receives the
// parsed token request, the already-authenticated client, and the Token
// endpoint's resolved per-call options (lifetimes, rotation policy), and
// returns the Token to persist and return as a Bearer token. See §9
// ("extensible grants" design note).
type GrantType interface {
	Execute(ctx context.Context, req *TokenRequest, client *Client, opts TokenOptions) (*Token, error)
}

// GrantFactory builds a GrantType bound to a Model. Extension grants are
// registered the same way the four standard grants are constructed
// internally. opts is the server's resolved defaults at construction time,
// used only to validate the Model exposes what the grant needs; the
// per-call options passed to Execute are what actually govern behavior.
type GrantFactory func(model Model, opts TokenOptions) (GrantType, error)

// baseGrant holds the machinery every standard grant shares: scope
// validation, token/refresh/code generation (falling back to the engine's
// opaque generator, C2), expiry computation, and final persistence via
// Model.SaveToken. See §4.7's preamble.
type baseGrant struct {
	model Model
}

func (b *baseGrant) validateScope(ctx context.Context, client *Client, user *User, scope string) (string, error) {
	if scope == "" {
		return "", nil
	}
	if !IsNQSChar(scope) {
		return "", NewError(ErrInvalidScope, "scope contains invalid characters")
	}
	validator, ok := b.model.(ScopeValidator)
	if !ok {
		return scope, nil
	}
	validated, err := validator.ValidateScope(ctx, client, user, scope)
	if err != nil {
		return "", AsProtocolError(err)
	}
	if validated == "" {
		return "", NewError(ErrInvalidScope, "requested scope is invalid, unknown or exceeds the scope granted")
	}
	return validated, nil
}

func (b *baseGrant) accessTokenLifetime(client *Client, opts TokenOptions) int {
	if client != nil && client.AccessTokenLifetime > 0 {
		return client.AccessTokenLifetime
	}
	return opts.AccessTokenLifetime
}

func (b *baseGrant) refreshTokenLifetime(client *Client, opts TokenOptions) int {
	if client != nil && client.RefreshTokenLifetime > 0 {
		return client.RefreshTokenLifetime
	}
	return opts.RefreshTokenLifetime
}

func (b *baseGrant) generateAccessToken(ctx context.Context, client *Client, user *User, scope string) (string, error) {
	if gen, ok := b.model.(AccessTokenGenerator); ok {
		tok, err := gen.GenerateAccessToken(ctx, client, user, scope)
		if err != nil {
			return "", AsProtocolError(err)
		}
		if tok != "" {
			return tok, nil
		}
	}
	return GenerateOpaqueToken(), nil
}

func (b *baseGrant) generateRefreshToken(ctx context.Context, client *Client, user *User, scope string) (string, error) {
	if gen, ok := b.model.(RefreshTokenGenerator); ok {
		tok, err := gen.GenerateRefreshToken(ctx, client, user, scope)
		if err != nil {
			return "", AsProtocolError(err)
		}
		if tok != "" {
			return tok, nil
		}
	}
	return GenerateOpaqueToken(), nil
}

// issueToken builds, persists and returns a Token for client/user/scope.
// withRefresh controls whether a refresh token is minted alongside the
// access token (client_credentials and implicit never issue one).
func (b *baseGrant) issueToken(ctx context.Context, client *Client, user *User, scope string, withRefresh bool, opts TokenOptions) (*Token, error) {
	now := time.Now()

	accessToken, err := b.generateAccessToken(ctx, client, user, scope)
	if err != nil {
		return nil, err
	}

	token := &Token{
		AccessToken:          accessToken,
		AccessTokenExpiresAt: now.Add(time.Duration(b.accessTokenLifetime(client, opts)) * time.Second),
		Scope:                scope,
		Client:               client,
		User:                 user,
	}

	if withRefresh {
		refreshToken, err := b.generateRefreshToken(ctx, client, user, scope)
		if err != nil {
			return nil, err
		}
		token.RefreshToken = refreshToken
		token.RefreshTokenExpiresAt = now.Add(time.Duration(b.refreshTokenLifetime(client, opts)) * time.Second)
	}

	saver, ok := b.model.(TokenSaver)
	if !ok {
		return nil, NewError(ErrInvalidArgument, "model does not implement SaveToken")
	}
	if err := saver.SaveToken(ctx, client, user, token); err != nil {
		return nil, AsProtocolError(err)
	}

	return token, nil
}

// standardGrantFactories wires the four Token-endpoint grants; the implicit
// grant is not among them. newTokenEndpoint composes these with whatever
// extension grants TokenOptions.ExtendedGrantTypes supplies.
func standardGrantFactories() map[string]GrantFactory {
	return map[string]GrantFactory{
		GrantAuthorizationCode: newAuthorizationCodeGrant,
		GrantClientCredentials: newClientCredentialsGrant,
		GrantPassword:          newPasswordGrant,
		GrantRefreshToken:      newRefreshTokenGrant,
	}
}
