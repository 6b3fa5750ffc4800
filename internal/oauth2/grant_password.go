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

// passwordGrant implements RFC 6749 §4.3: exchanging resource-owner
// credentials directly for an access/refresh token pair. See spec §4.7.3.
type passwordGrant struct {
	baseGrant
}

func newPasswordGrant(model Model, opts TokenOptions) (GrantType, error) {
	if _, ok := model.(UserAuthenticator); !ok {
		return nil, NewError(ErrInvalidArgument, "model does not implement GetUser")
	}
	if _, ok := model.(TokenSaver); !ok {
		return nil, NewError(ErrInvalidArgument, "model does not implement SaveToken")
	}
	return &passwordGrant{baseGrant{model: model}}, nil
}

func (g *passwordGrant) Execute(ctx context.Context, req *TokenRequest, client *Client, opts TokenOptions) (*Token, error) {
	if !IsUnicodeCharNoCRLF(req.Username) {
		return nil, NewError(ErrInvalidRequest, "username is required")
	}
	if !IsUnicodeCharNoCRLF(req.Password) {
		return nil, NewError(ErrInvalidRequest, "password is required")
	}

	user, err := g.model.(UserAuthenticator).GetUser(ctx, req.Username, req.Password)
	if err != nil {
		return nil, AsProtocolError(err)
	}
	if user == nil {
		return nil, NewError(ErrInvalidGrant, "username or password is invalid")
	}

	scope, err := g.validateScope(ctx, client, user, req.Scope)
	if err != nil {
		return nil, err
	}

	return g.issueToken(ctx, client, user, scope, true, opts)
}
