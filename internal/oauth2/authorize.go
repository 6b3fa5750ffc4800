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
	"strconv"
	"time"
)

const (
	responseTypeCode  = "code"
	responseTypeToken = "token"
)

// authorizeRequest is the parsed, validated form of an Authorize call,
// per §4.5's parse step.
type authorizeRequest struct {
	responseType string
	redirectURI  string
	clientID     string
	scope        string
	state        string
}

// authorizeEndpoint implements the Authorize endpoint (§4.5): it
// authenticates the resource owner, validates the client/scope, and
// dispatches to the authorization-code or implicit issuance path.
type authorizeEndpoint struct {
	model    Model
	opts     AuthorizeOptions
	implicit *implicitGrant
}

func newAuthorizeEndpoint(model Model, opts AuthorizeOptions) (*authorizeEndpoint, error) {
	if _, ok := model.(AuthorizationCodeSaver); !ok {
		return nil, NewError(ErrInvalidArgument, "model does not implement SaveAuthorizationCode")
	}
	if opts.Authenticator == nil {
		return nil, NewError(ErrInvalidArgument, "AuthorizeOptions.Authenticator is required")
	}
	grant, err := newImplicitGrant(model)
	if err != nil {
		return nil, err
	}
	return &authorizeEndpoint{model: model, opts: opts, implicit: grant}, nil
}

// Execute runs the full Authorize pipeline, writing either a redirect or a
// JSON error body onto res. The returned error is non-nil exactly when the
// error was written as a JSON body rather than a redirect (no trusted
// redirect_uri, or an invalid_client/unauthorized_request error), mirroring what
// the transport adapter needs to know to pick a status code; in every
// other case the response is already fully populated.
func (e *authorizeEndpoint) Execute(ctx context.Context, req *Request, res *Response) error {
	areq, perr := parseAuthorizeRequest(req, e.opts.AllowEmptyState)
	if perr != nil {
		return e.fail(res, perr, "")
	}

	client, cerr := e.model.GetClient(ctx, areq.clientID, "")
	if cerr != nil {
		return e.fail(res, NewError(ErrServerError, cerr.Error()), "")
	}
	if client == nil {
		return e.fail(res, NewError(ErrInvalidClient, "client is unknown").WithState(areq.state), "")
	}
	if !client.HasRedirectURI(areq.redirectURI) {
		return e.fail(res, NewError(ErrInvalidClient, "redirect_uri is not registered for this client").WithState(areq.state), "")
	}

	grantType := GrantAuthorizationCode
	if areq.responseType == responseTypeToken {
		grantType = GrantImplicit
	}
	if len(client.Grants) == 0 {
		return e.fail(res, NewError(ErrInvalidClient, "client is not authorized for any grant type").WithState(areq.state), "")
	}
	if !client.HasGrant(grantType) {
		return e.fail(res, NewError(ErrUnauthorizedClient, "client is not authorized for this response_type").WithState(areq.state), areq.redirectURI)
	}

	user, uerr := e.opts.Authenticator.Execute(ctx, req, res)
	if uerr != nil {
		return e.fail(res, AsProtocolError(uerr).WithState(areq.state), areq.redirectURI)
	}
	if user == nil {
		return e.fail(res, NewError(ErrAccessDenied, "resource owner denied the request").WithState(areq.state), areq.redirectURI)
	}

	scope, serr := e.validateScope(ctx, client, user, areq.scope)
	if serr != nil {
		return e.fail(res, serr.WithState(areq.state), areq.redirectURI)
	}

	switch areq.responseType {
	case responseTypeCode:
		return e.issueCode(ctx, res, areq, client, user, scope)
	case responseTypeToken:
		return e.issueToken(ctx, res, areq, client, user, scope)
	default:
		return e.fail(res, NewError(ErrUnsupportedResponse, "response_type is not supported").WithState(areq.state), areq.redirectURI)
	}
}

func (e *authorizeEndpoint) validateScope(ctx context.Context, client *Client, user *User, scope string) (string, *Error) {
	if scope == "" {
		return "", nil
	}
	if !IsNQSChar(scope) {
		return "", NewError(ErrInvalidScope, "scope contains invalid characters")
	}
	validator, ok := e.model.(ScopeValidator)
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

func (e *authorizeEndpoint) issueCode(ctx context.Context, res *Response, areq *authorizeRequest, client *Client, user *User, scope string) error {
	code, err := e.generateCode(ctx, client, user, scope)
	if err != nil {
		return e.fail(res, err.WithState(areq.state), areq.redirectURI)
	}

	now := time.Now()
	lifetime := e.opts.AuthorizationCodeLifetime
	if client.AuthorizationCodeLifetime > 0 {
		lifetime = client.AuthorizationCodeLifetime
	}
	ac := &AuthorizationCode{
		Code:        code,
		Client:      client,
		User:        user,
		Scope:       scope,
		RedirectURI: areq.redirectURI,
		ExpiresAt:   now.Add(time.Duration(lifetime) * time.Second),
	}
	if err := e.model.(AuthorizationCodeSaver).SaveAuthorizationCode(ctx, client, user, ac); err != nil {
		return e.fail(res, AsProtocolError(err).WithState(areq.state), areq.redirectURI)
	}

	params := map[string]string{"code": code}
	if areq.state != "" {
		params["state"] = areq.state
	}
	res.Redirect(addQueryParams(clearQuery(areq.redirectURI), params))
	return nil
}

func (e *authorizeEndpoint) generateCode(ctx context.Context, client *Client, user *User, scope string) (string, *Error) {
	if gen, ok := e.model.(AuthorizationCodeGenerator); ok {
		code, err := gen.GenerateAuthorizationCode(ctx, client, user, scope)
		if err != nil {
			return "", AsProtocolError(err)
		}
		if code != "" {
			return code, nil
		}
	}
	return GenerateOpaqueToken(), nil
}

func (e *authorizeEndpoint) issueToken(ctx context.Context, res *Response, areq *authorizeRequest, client *Client, user *User, scope string) error {
	lifetime := e.opts.AccessTokenLifetime
	if client.AccessTokenLifetime > 0 {
		lifetime = client.AccessTokenLifetime
	}
	token, err := e.implicit.issue(ctx, client, user, scope, lifetime)
	if err != nil {
		return e.fail(res, AsProtocolError(err).WithState(areq.state), areq.redirectURI)
	}

	params := map[string]string{
		"access_token": token.AccessToken,
		"token_type":   "Bearer",
		"expires_in":   strconv.Itoa(token.AccessTokenLifetimeSeconds(time.Now())),
		"scope":        token.Scope,
	}
	if areq.state != "" {
		params["state"] = areq.state
	}
	res.Redirect(addFragmentParams(areq.redirectURI, params))
	return nil
}

// fail renders a protocol error, either as a redirect (when redirectURI is
// known to be registered to the client) or as a JSON body, per §4.5: the
// two client-identification failures (invalid_client, unauthorized_request)
// always render as JSON since redirecting would hand an attacker-supplied
// redirect_uri the error detail before it has been validated.
func (e *authorizeEndpoint) fail(res *Response, err *Error, redirectURI string) error {
	if redirectURI == "" || err.Code == ErrInvalidClient || err.Code == ErrUnauthorizedRequest {
		res.SetStatus(err.Status)
		res.SetBody(map[string]any{
			"error":             err.Code,
			"error_description": err.Description,
		})
		return err
	}
	params := map[string]string{
		"error":             err.Code,
		"error_description": err.Description,
	}
	if err.State != "" {
		params["state"] = err.State
	}
	res.Redirect(addQueryParams(clearQuery(redirectURI), params))
	return nil
}

func parseAuthorizeRequest(req *Request, allowEmptyState bool) (*authorizeRequest, *Error) {
	if req.Param("allowed") == "false" {
		return nil, NewError(ErrAccessDenied, "resource owner denied the request")
	}

	responseType := req.Param("response_type")
	if responseType != responseTypeCode && responseType != responseTypeToken {
		return nil, NewError(ErrUnsupportedResponse, "response_type must be code or token")
	}

	redirectURI := req.Param("redirect_uri")
	if !validRedirectURIShape(redirectURI) {
		return nil, NewError(ErrInvalidRequest, "redirect_uri is required and must be a valid URI")
	}

	clientID := req.Param("client_id")
	if !IsVSChar(clientID) {
		return nil, NewError(ErrInvalidRequest, "client_id is required")
	}

	scope := req.Param("scope")
	if scope != "" && !IsNQSChar(scope) {
		return nil, NewError(ErrInvalidRequest, "scope contains invalid characters")
	}

	state := req.Param("state")
	if state == "" && !allowEmptyState {
		return nil, NewError(ErrInvalidRequest, "state is required")
	}
	if state != "" && !IsVSChar(state) {
		return nil, NewError(ErrInvalidRequest, "state contains invalid characters")
	}

	return &authorizeRequest{
		responseType: responseType,
		redirectURI:  redirectURI,
		clientID:     clientID,
		scope:        scope,
		state:        state,
	}, nil
}
