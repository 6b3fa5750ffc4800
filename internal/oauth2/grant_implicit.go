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

// implicitGrant implements RFC 6749 §4.2: minting an access token directly
// off the Authorize endpoint's redirect, with no authorization code and no
// refresh token. Unlike the four standard grants it is never registered in
// the Token endpoint's factory map; the Authorize endpoint (§4.5) invokes
// it inline once the resource owner has authenticated and the client and
// scope have been validated. See spec §4.7.5.
type implicitGrant struct {
	baseGrant
}

func newImplicitGrant(model Model) (*implicitGrant, error) {
	if _, ok := model.(TokenSaver); !ok {
		return nil, NewError(ErrInvalidArgument, "model does not implement SaveToken")
	}
	return &implicitGrant{baseGrant{model: model}}, nil
}

func (g *implicitGrant) issue(ctx context.Context, client *Client, user *User, scope string, accessTokenLifetime int) (*Token, error) {
	opts := TokenOptions{AccessTokenLifetime: accessTokenLifetime}
	return g.issueToken(ctx, client, user, scope, false, opts)
}
