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

// revokeEndpoint implements RFC 7009 token revocation. Per §2.2 of that
// RFC, the endpoint always answers 200 with an empty body once the client
// has authenticated successfully, whether or not the token existed or was
// owned by the caller — revocation must not leak whether a token is valid.
type revokeEndpoint struct {
	model Model
	opts  RevokeOptions
}

func newRevokeEndpoint(model Model, opts RevokeOptions) (*revokeEndpoint, error) {
	if _, ok := model.(AccessTokenGetter); !ok {
		return nil, NewError(ErrInvalidArgument, "model does not implement GetAccessToken")
	}
	if _, ok := model.(RefreshTokenGetter); !ok {
		return nil, NewError(ErrInvalidArgument, "model does not implement GetRefreshToken")
	}
	if _, ok := model.(AccessTokenRevoker); !ok {
		return nil, NewError(ErrInvalidArgument, "model does not implement RevokeAccessToken")
	}
	if _, ok := model.(RefreshTokenRevoker); !ok {
		return nil, NewError(ErrInvalidArgument, "model does not implement RevokeRefreshToken")
	}
	return &revokeEndpoint{model: model, opts: opts}, nil
}

func (e *revokeEndpoint) Execute(ctx context.Context, req *Request, res *Response) error {
	res.SetHeader("Cache-Control", "no-store")
	res.SetHeader("Pragma", "no-cache")

	if req.Method != "POST" || !req.IsFormURLEncoded() {
		return e.fail(res, NewError(ErrInvalidRequest, "revocation requests must be application/x-www-form-urlencoded POSTs"))
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

	if err := e.revoke(ctx, client, tokenValue, hint); err != nil {
		return e.fail(res, err)
	}

	res.SetStatus(200)
	res.SetBody(map[string]any{})
	return nil
}

func (e *revokeEndpoint) revoke(ctx context.Context, client *Client, tokenValue, hint string) *Error {
	if hint == tokenHintAccess {
		tok, err := e.model.(AccessTokenGetter).GetAccessToken(ctx, tokenValue)
		if err != nil {
			return NewError(ErrServerError, err.Error())
		}
		if tok == nil || tok.Client == nil || tok.Client.ID != client.ID {
			return nil
		}
		if _, err := e.model.(AccessTokenRevoker).RevokeAccessToken(ctx, tok); err != nil {
			return NewError(ErrServerError, err.Error())
		}
		return nil
	}

	tok, err := e.model.(RefreshTokenGetter).GetRefreshToken(ctx, tokenValue)
	if err != nil {
		return NewError(ErrServerError, err.Error())
	}
	if tok == nil || tok.Client == nil || tok.Client.ID != client.ID {
		return nil
	}
	if _, err := e.model.(RefreshTokenRevoker).RevokeRefreshToken(ctx, tok); err != nil {
		return NewError(ErrServerError, err.Error())
	}
	return nil
}

func (e *revokeEndpoint) fail(res *Response, err *Error) error {
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
