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
	"encoding/base64"
	"strings"
	"time"
)

// tokenEndpoint implements the Token endpoint (§4.6): authenticating the
// client, dispatching to the requested grant, and shaping the Bearer
// token response.
type tokenEndpoint struct {
	model  Model
	opts   TokenOptions
	grants map[string]GrantType
}

func newTokenEndpoint(model Model, opts TokenOptions) (*tokenEndpoint, error) {
	factories := standardGrantFactories()
	for name, f := range opts.ExtendedGrantTypes {
		factories[name] = f
	}
	grants := make(map[string]GrantType, len(factories))
	for name, factory := range factories {
		g, err := factory(model, opts)
		if err != nil {
			return nil, err
		}
		grants[name] = g
	}
	return &tokenEndpoint{model: model, opts: opts, grants: grants}, nil
}

// Execute runs the Token endpoint pipeline and fully populates res; the
// returned error, when non-nil, is the same *Error already written to res
// in JSON form, handed back so callers can log it.
func (e *tokenEndpoint) Execute(ctx context.Context, req *Request, res *Response) error {
	res.SetHeader("Content-Type", "application/json;charset=UTF-8")
	res.SetHeader("Cache-Control", "no-store")
	res.SetHeader("Pragma", "no-cache")

	if req.Method != "POST" || !req.IsFormURLEncoded() {
		return e.fail(res, NewError(ErrInvalidRequest, "token requests must be application/x-www-form-urlencoded POSTs"))
	}

	grantType := req.Param("grant_type")
	if grantType == "" || (!IsNChar(grantType) && !IsURI(grantType)) {
		return e.fail(res, NewError(ErrInvalidRequest, "grant_type is required"))
	}
	grant, ok := e.grants[grantType]
	if !ok {
		return e.fail(res, NewError(ErrUnsupportedGrantType, "grant_type is not supported"))
	}

	clientID, clientSecret, usedAuthHeader, cerr := clientCredentialsFrom(req)
	if cerr != nil {
		return e.fail(res, cerr)
	}
	if !IsVSChar(clientID) {
		return e.fail(res, NewError(ErrInvalidRequest, "client_id is required"))
	}
	if e.opts.RequireClientAuthentication[grantType] && clientSecret == "" {
		return e.fail(res, NewError(ErrInvalidRequest, "client_secret is required for this grant_type"))
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
	if client.Grants == nil {
		return e.fail(res, NewError(ErrServerError, "client has no grants configured"))
	}
	if !client.HasGrant(grantType) {
		return e.fail(res, NewError(ErrUnauthorizedClient, "client is not authorized for this grant_type"))
	}

	tokReq := &TokenRequest{
		GrantType:    grantType,
		Code:         req.Param("code"),
		RedirectURI:  req.Param("redirect_uri"),
		Username:     req.Param("username"),
		Password:     req.Param("password"),
		RefreshToken: req.Param("refresh_token"),
		Scope:        req.Param("scope"),
		Raw:          req,
	}

	token, gerr := grant.Execute(ctx, tokReq, client, e.opts)
	if gerr != nil {
		return e.fail(res, AsProtocolError(gerr))
	}

	res.SetBody(e.render(token))
	return nil
}

func (e *tokenEndpoint) render(token *Token) map[string]any {
	body := map[string]any{
		"access_token": token.AccessToken,
		"token_type":   "Bearer",
		"expires_in":   token.AccessTokenLifetimeSeconds(time.Now()),
	}
	if token.RefreshToken != "" {
		body["refresh_token"] = token.RefreshToken
	}
	if token.Scope != "" {
		body["scope"] = token.Scope
	}
	if e.opts.AllowExtendedTokenAttributes {
		for k, v := range token.Extended {
			body[k] = v
		}
	}
	return body
}

func (e *tokenEndpoint) fail(res *Response, err *Error) error {
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

// clientCredentialsFrom extracts client_id/client_secret, preferring HTTP
// Basic authentication over body parameters per RFC 6749 §2.3.1.
func clientCredentialsFrom(req *Request) (id, secret string, usedAuthHeader bool, err *Error) {
	if auth := req.Header("Authorization"); auth != "" {
		const prefix = "Basic "
		if !strings.HasPrefix(auth, prefix) {
			return "", "", false, NewError(ErrInvalidRequest, "Authorization header must use Basic scheme")
		}
		raw, decErr := base64.StdEncoding.DecodeString(strings.TrimPrefix(auth, prefix))
		if decErr != nil {
			return "", "", false, NewError(ErrInvalidRequest, "Authorization header is not valid base64")
		}
		parts := strings.SplitN(string(raw), ":", 2)
		if len(parts) != 2 {
			return "", "", false, NewError(ErrInvalidRequest, "Authorization header is malformed")
		}
		return parts[0], parts[1], true, nil
	}
	return req.Param("client_id"), req.Param("client_secret"), false, nil
}
