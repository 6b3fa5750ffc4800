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

const (
	tokenHintAccess  = "access_token"
	tokenHintRefresh = "refresh_token"
)

// introspectEndpoint implements RFC 7662 token introspection: an
// authenticated client asks whether a token issued to it is still active,
// and if so, for which client/user/scope. A token issued to another client
// is reported as inactive.
type introspectEndpoint struct {
	model Model
	opts  IntrospectOptions
}

func newIntrospectEndpoint(model Model, opts IntrospectOptions) (*introspectEndpoint, error) {
	if _, ok := model.(AccessTokenGetter); !ok {
		return nil, NewError(ErrInvalidArgument, "model does not implement GetAccessToken")
	}
	if _, ok := model.(RefreshTokenGetter); !ok {
		return nil, NewError(ErrInvalidArgument, "model does not implement GetRefreshToken")
	}
	return &introspectEndpoint{model: model, opts: opts}, nil
}

func (e *introspectEndpoint) Execute(ctx context.Context, req *Request, res *Response) error {
	res.SetHeader("Cache-Control", "no-store")
	res.SetHeader("Pragma", "no-cache")

	if req.Method != "POST" || !req.IsFormURLEncoded() {
		return e.fail(res, NewError(ErrInvalidRequest, "introspection requests must be application/x-www-form-urlencoded POSTs"))
	}

	clientID, clientSecret, usedAuthHeader, cerr := clientCredentialsFrom(req)
	if cerr != nil {
		return e.fail(res, cerr)
	}
	if !IsVSChar(clientID) {
		return e.fail(res, NewError(ErrInvalidRequest, "client_id is required"))
	}
	if e.opts.IsClientSecretRequired && clientSecret == "" {
		return e.fail(res, NewError(ErrInvalidRequest, "client_secret is required"))
	}

	client, err := e.model.GetClient(ctx, clientID, clientSecret)
	if err != nil {
		return e.fail(res, NewError(ErrServerError, err.Error()))
	}
	if client == nil {
		cerr := NewError(ErrInvalidClient, "client credentials are invalid")
		if usedAuthHeader {
			cerr = cerr.WithClientAuthHeader()
		}
		return e.fail(res, cerr)
	}

	tokenValue := req.Param("token")
	hint := req.Param("token_hint")
	if !IsVSChar(tokenValue) {
		return e.fail(res, NewError(ErrInvalidRequest, "token is required"))
	}
	if hint != tokenHintAccess && hint != tokenHintRefresh {
		return e.fail(res, NewError(ErrInvalidRequest, "token_hint must be access_token or refresh_token"))
	}

	token, client2, verr := e.lookup(ctx, tokenValue, hint)
	if verr != nil {
		return e.fail(res, verr)
	}

	if token == nil || client2 == nil || client2.ID != client.ID || e.expired(token, hint) {
		res.SetBody(map[string]any{"active": false})
		return nil
	}

	username := ""
	if token.User != nil {
		username = token.User.Username
	}
	res.SetBody(map[string]any{
		"active":     true,
		"client_id":  client2.ID,
		"username":   username,
		"scope":      token.Scope,
		"expires_at": e.expiresAt(token, hint),
	})
	return nil
}

func (e *introspectEndpoint) lookup(ctx context.Context, tokenValue, hint string) (*Token, *Client, *Error) {
	if hint == tokenHintAccess {
		tok, err := e.model.(AccessTokenGetter).GetAccessToken(ctx, tokenValue)
		if err != nil {
			return nil, nil, NewError(ErrServerError, err.Error())
		}
		if tok == nil {
			return nil, nil, nil
		}
		return tok, tok.Client, nil
	}
	tok, err := e.model.(RefreshTokenGetter).GetRefreshToken(ctx, tokenValue)
	if err != nil {
		return nil, nil, NewError(ErrServerError, err.Error())
	}
	if tok == nil {
		return nil, nil, nil
	}
	return tok, tok.Client, nil
}

func (e *introspectEndpoint) expired(token *Token, hint string) bool {
	now := time.Now()
	if hint == tokenHintAccess {
		return token.AccessTokenExpiresAt.IsZero() || token.Expired(now)
	}
	return token.RefreshTokenExpiresAt.IsZero() || token.RefreshExpired(now)
}

func (e *introspectEndpoint) expiresAt(token *Token, hint string) int64 {
	if hint == tokenHintAccess {
		return token.AccessTokenExpiresAt.Unix()
	}
	return token.RefreshTokenExpiresAt.Unix()
}

func (e *introspectEndpoint) fail(res *Response, err *Error) error {
	res.SetStatus(err.Status)
	if err.Code == ErrInvalidClient && err.UsedClientAuthHeader() {
		res.SetHeader("WWW-Authenticate", `Basic realm="Service"`)
	}
	res.SetBody(map[string]any{
		"error":             err.Code,
		"error_description": err.Description,
	})
	return err
}
