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

// authorizationCodeGrant implements RFC 6749 §4.1.3: redeeming a single-use
// authorization code for an access/refresh token pair. See spec §4.7.1.
type authorizationCodeGrant struct {
	baseGrant
}

func newAuthorizationCodeGrant(model Model, opts TokenOptions) (GrantType, error) {
	if _, ok := model.(AuthorizationCodeGetter); !ok {
		return nil, NewError(ErrInvalidArgument, "model does not implement GetAuthorizationCode")
	}
	if _, ok := model.(AuthorizationCodeRevoker); !ok {
		return nil, NewError(ErrInvalidArgument, "model does not implement RevokeAuthorizationCode")
	}
	if _, ok := model.(TokenSaver); !ok {
		return nil, NewError(ErrInvalidArgument, "model does not implement SaveToken")
	}
	return &authorizationCodeGrant{baseGrant{model: model}}, nil
}

func (g *authorizationCodeGrant) Execute(ctx context.Context, req *TokenRequest, client *Client, opts TokenOptions) (*Token, error) {
	if !IsVSChar(req.Code) {
		return nil, NewError(ErrInvalidRequest, "code is required")
	}
	if req.RedirectURI != "" && !validRedirectURIShape(req.RedirectURI) {
		return nil, NewError(ErrInvalidRequest, "redirect_uri is malformed")
	}

	code, err := g.model.(AuthorizationCodeGetter).GetAuthorizationCode(ctx, req.Code)
	if err != nil {
		return nil, AsProtocolError(err)
	}
	if code == nil {
		return nil, NewError(ErrInvalidGrant, "authorization code is invalid")
	}
	if code.Client == nil || code.User == nil {
		return nil, NewError(ErrServerError, "authorization code is missing client or user")
	}
	if code.Client.ID != client.ID {
		return nil, NewError(ErrInvalidGrant, "authorization code was issued to a different client")
	}
	if code.ExpiresAt.IsZero() || code.Expired(time.Now()) {
		return nil, NewError(ErrInvalidGrant, "authorization code has expired")
	}
	if code.RedirectURI != "" && code.RedirectURI != req.RedirectURI {
		return nil, NewError(ErrInvalidRequest, "redirect_uri does not match the authorization request")
	}

	ok, err := g.model.(AuthorizationCodeRevoker).RevokeAuthorizationCode(ctx, code)
	if err != nil {
		return nil, AsProtocolError(err)
	}
	if !ok {
		return nil, NewError(ErrInvalidGrant, "authorization code could not be revoked")
	}

	return g.issueToken(ctx, client, code.User, code.Scope, true, opts)
}
