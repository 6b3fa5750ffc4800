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
	"strings"
	"time"
)

// authenticateEndpoint implements RFC 6750 bearer-token verification
// (§4.8): locating the presented token, validating it against the Model,
// and optionally checking it carries a required scope.
type authenticateEndpoint struct {
	model Model
	opts  AuthenticateOptions
}

func newAuthenticateEndpoint(model Model, opts AuthenticateOptions) (*authenticateEndpoint, error) {
	if _, ok := model.(AccessTokenGetter); !ok {
		return nil, NewError(ErrInvalidArgument, "model does not implement GetAccessToken")
	}
	return &authenticateEndpoint{model: model, opts: opts}, nil
}

// Execute returns the authenticated User on success. On failure it writes
// the appropriate status/headers/body onto res and returns the *Error.
func (e *authenticateEndpoint) Execute(ctx context.Context, req *Request, res *Response) (*User, error) {
	token, ferr := e.locateToken(req)
	if ferr != nil {
		return nil, e.fail(res, ferr)
	}

	tok, err := e.model.(AccessTokenGetter).GetAccessToken(ctx, token)
	if err != nil {
		return nil, e.fail(res, NewError(ErrServerError, err.Error()))
	}
	if tok == nil {
		return nil, e.fail(res, NewError(ErrInvalidToken, "access token is invalid"))
	}
	if tok.User == nil {
		return nil, e.fail(res, NewError(ErrServerError, "access token is missing its user"))
	}
	if tok.AccessTokenExpiresAt.IsZero() {
		return nil, e.fail(res, NewError(ErrServerError, "access token is missing its expiry"))
	}
	if tok.Expired(time.Now()) {
		return nil, e.fail(res, NewError(ErrInvalidToken, "access token has expired"))
	}

	if e.opts.Scope != "" {
		verifier, ok := e.model.(ScopeVerifier)
		if ok {
			sufficient, err := verifier.VerifyScope(ctx, tok, e.opts.Scope)
			if err != nil {
				return nil, e.fail(res, NewError(ErrServerError, err.Error()))
			}
			if !sufficient {
				return nil, e.fail(res, NewError(ErrInsufficientScope, "access token does not carry the required scope"))
			}
		}
	}

	if e.opts.AddAcceptedScopesHeader && e.opts.Scope != "" {
		res.SetHeader("X-Accepted-OAuth-Scopes", e.opts.Scope)
	}
	if e.opts.AddAuthorizedScopesHeader {
		res.SetHeader("X-OAuth-Scopes", tok.Scope)
	}

	return tok.User, nil
}

// locateToken finds the bearer token in exactly one of the three places
// RFC 6750 allows it to appear. Zero or more than one location supplying a
// token is itself an error.
func (e *authenticateEndpoint) locateToken(req *Request) (string, *Error) {
	var found []string

	if auth := req.Header("Authorization"); auth != "" {
		const prefix = "Bearer "
		if !strings.HasPrefix(auth, prefix) || strings.TrimPrefix(auth, prefix) == "" {
			return "", NewError(ErrInvalidRequest, "Authorization header must use the Bearer scheme")
		}
		found = append(found, strings.TrimPrefix(auth, prefix))
	}

	if e.opts.AllowBearerTokensInQueryString {
		if v := req.Query["access_token"]; v != "" {
			found = append(found, v)
		}
	}

	if req.Method != "GET" && req.IsFormURLEncoded() {
		if v := req.Body["access_token"]; v != "" {
			found = append(found, v)
		}
	}

	switch len(found) {
	case 0:
		return "", NewError(ErrUnauthorizedRequest, "no access token was presented")
	case 1:
		return found[0], nil
	default:
		return "", NewError(ErrInvalidRequest, "access token was presented in more than one location")
	}
}

func (e *authenticateEndpoint) fail(res *Response, err *Error) error {
	res.SetStatus(err.Status)
	if err.Code == ErrUnauthorizedRequest {
		res.SetHeader("WWW-Authenticate", `Bearer realm="Service"`)
	}
	res.SetBody(map[string]any{
		"error":             err.Code,
		"error_description": err.Description,
	})
	return err
}
