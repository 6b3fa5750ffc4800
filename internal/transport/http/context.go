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

package http

import (
	"context"

	"github.com/opentrusty/authcore/internal/oauth2"
)

type contextKey int

const userContextKey contextKey = iota

func withUser(ctx context.Context, user *oauth2.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// UserFromContext returns the resource owner authenticated by RequireBearer,
// or nil if the request reached this point without passing through it.
func UserFromContext(ctx context.Context) *oauth2.User {
	user, _ := ctx.Value(userContextKey).(*oauth2.User)
	return user
}
