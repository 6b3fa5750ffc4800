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

// refreshTokenGrant implements RFC 6749 §6: exchanging a refresh token for
// a new access token, optionally rotating the refresh token itself. See
// spec §4.7.4.
type refreshTokenGrant struct {
	baseGrant
}

func newRefreshTokenGrant(model Model, opts TokenOptions) (GrantType, error) {
	if _, ok := model.(RefreshTokenGetter); !ok {
		return nil, NewError(ErrInvalidArgument, "model does not implement GetRefreshToken")
	}
	if _, ok := model.(TokenSaver); !ok {
		return nil, NewError(ErrInvalidArgument, "model does not implement SaveToken")
	}
	return &refreshTokenGrant{baseGrant{model: model}}, nil
}

func (g *refreshTokenGrant) Execute(ctx context.Context, req *TokenRequest, client *Client, opts TokenOptions) (*Token, error) {
	if !IsVSChar(req.RefreshToken) {
		return nil, NewError(ErrInvalidRequest, "refresh_token is required")
	}
	if req.Scope != "" && !IsNQSChar(req.Scope) {
		return nil, NewError(ErrInvalidRequest, "scope contains invalid characters")
	}

	token, err := g.model.(RefreshTokenGetter).GetRefreshToken(ctx, req.RefreshToken)
	if err != nil {
		return nil, AsProtocolError(err)
	}
	if token == nil {
		return nil, NewError(ErrInvalidGrant, "refresh token is invalid")
	}
	if token.Client == nil || token.User == nil {
		return nil, NewError(ErrServerError, "refresh token is missing client or user")
	}
	if token.Client.ID != client.ID {
		return nil, NewError(ErrInvalidGrant, "refresh token was issued to a different client")
	}
	if token.RefreshTokenExpiresAt.IsZero() || token.RefreshExpired(time.Now()) {
		return nil, NewError(ErrInvalidGrant, "refresh token has expired")
	}

	// The new token always carries forward the scope the refresh token was
	// originally issued with; the request's scope parameter, if any, is
	// parsed for shape only and never narrows or widens it here.
	scope := token.Scope

	if opts.AlwaysIssueNewRefreshToken {
		revoker, ok := g.model.(RefreshTokenRevoker)
		if !ok {
			return nil, NewError(ErrInvalidArgument, "model does not implement RevokeRefreshToken")
		}
		ok2, err := revoker.RevokeRefreshToken(ctx, token)
		if err != nil {
			return nil, AsProtocolError(err)
		}
		if !ok2 {
			return nil, NewError(ErrInvalidGrant, "refresh token could not be revoked")
		}
	}

	next, err := g.issueToken(ctx, client, token.User, scope, opts.AlwaysIssueNewRefreshToken, opts)
	if err != nil {
		return nil, err
	}
	if !opts.AlwaysIssueNewRefreshToken {
		next.RefreshToken = token.RefreshToken
		next.RefreshTokenExpiresAt = token.RefreshTokenExpiresAt
	}
	return next, nil
}
