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
)

// Server is the engine's entry point: a bound Model plus per-endpoint
// default options. Each call constructs the endpoint fresh against the
// options resolved for that call (server defaults merged with any
// per-call overlay), so a Model missing a capability only breaks the
// endpoints that actually need it. See §4.4 and §6.
type Server struct {
	model Model

	authorizeOpts    AuthorizeOptions
	authenticateOpts AuthenticateOptions
	tokenOpts        TokenOptions
	introspectOpts   IntrospectOptions
	revokeOpts       RevokeOptions
}

// NewServer builds a Server bound to model, with the given per-endpoint
// default options. Pass DefaultAuthorizeOptions(), DefaultTokenOptions(),
// etc. for a single field override; AuthorizeOptions.Authenticator must be
// set before Authorize can be called.
func NewServer(model Model, authorizeOpts AuthorizeOptions, authenticateOpts AuthenticateOptions, tokenOpts TokenOptions, introspectOpts IntrospectOptions, revokeOpts RevokeOptions) *Server {
	return &Server{
		model:            model,
		authorizeOpts:    authorizeOpts,
		authenticateOpts: authenticateOpts,
		tokenOpts:        tokenOpts,
		introspectOpts:   introspectOpts,
		revokeOpts:       revokeOpts,
	}
}

// Authorize runs the Authorize endpoint (§4.5). raw, when non-nil, is a
// per-call option overlay produced by CleanOptions.
func (s *Server) Authorize(ctx context.Context, req *Request, res *Response, raw map[string]any) error {
	opts := s.authorizeOpts.Merge(raw)
	ep, err := newAuthorizeEndpoint(s.model, opts)
	if err != nil {
		return s.writeFatal(res, err)
	}
	return ep.Execute(ctx, req, res)
}

// Token runs the Token endpoint (§4.6).
func (s *Server) Token(ctx context.Context, req *Request, res *Response, raw map[string]any) error {
	opts := s.tokenOpts.Merge(raw)
	ep, err := newTokenEndpoint(s.model, opts)
	if err != nil {
		return s.writeFatal(res, err)
	}
	return ep.Execute(ctx, req, res)
}

// Authenticate runs the bearer-token Authenticate endpoint (RFC 6750) and
// returns the resolved User on success.
func (s *Server) Authenticate(ctx context.Context, req *Request, res *Response, raw map[string]any) (*User, error) {
	opts := s.authenticateOpts.Merge(raw)
	ep, err := newAuthenticateEndpoint(s.model, opts)
	if err != nil {
		return nil, s.writeFatal(res, err)
	}
	return ep.Execute(ctx, req, res)
}

// Introspect runs the Introspect endpoint (RFC 7662).
func (s *Server) Introspect(ctx context.Context, req *Request, res *Response, raw map[string]any) error {
	opts := s.introspectOpts.Merge(raw)
	ep, err := newIntrospectEndpoint(s.model, opts)
	if err != nil {
		return s.writeFatal(res, err)
	}
	return ep.Execute(ctx, req, res)
}

// Revoke runs the Revoke endpoint (RFC 7009).
func (s *Server) Revoke(ctx context.Context, req *Request, res *Response, raw map[string]any) error {
	opts := s.revokeOpts.Merge(raw)
	ep, err := newRevokeEndpoint(s.model, opts)
	if err != nil {
		return s.writeFatal(res, err)
	}
	return ep.Execute(ctx, req, res)
}

func (s *Server) writeFatal(res *Response, err error) error {
	perr := AsProtocolError(err)
	res.SetStatus(perr.Status)
	res.SetBody(map[string]any{
		"error":             perr.Code,
		"error_description": perr.Description,
	})
	return perr
}
