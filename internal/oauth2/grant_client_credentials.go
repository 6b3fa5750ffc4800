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

// clientCredentialsGrant implements RFC 6749 §4.4: issuing an access token
// scoped to the client itself, with no refresh token. See spec §4.7.2.
type clientCredentialsGrant struct {
	baseGrant
}

func newClientCredentialsGrant(model Model, opts TokenOptions) (GrantType, error) {
	if _, ok := model.(ClientUserResolver); !ok {
		return nil, NewError(ErrInvalidArgument, "model does not implement GetUserFromClient")
	}
	if _, ok := model.(TokenSaver); !ok {
		return nil, NewError(ErrInvalidArgument, "model does not implement SaveToken")
	}
	return &clientCredentialsGrant{baseGrant{model: model}}, nil
}

func (g *clientCredentialsGrant) Execute(ctx context.Context, req *TokenRequest, client *Client, opts TokenOptions) (*Token, error) {
	user, err := g.model.(ClientUserResolver).GetUserFromClient(ctx, client)
	if err != nil {
		return nil, AsProtocolError(err)
	}
	if user == nil {
		return nil, NewError(ErrInvalidGrant, "client has no associated user")
	}

	scope, err := g.validateScope(ctx, client, user, req.Scope)
	if err != nil {
		return nil, err
	}

	return g.issueToken(ctx, client, user, scope, false, opts)
}
