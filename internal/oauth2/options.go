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

// RawOptions is a per-call option overlay exactly as it arrives off the
// wire: string-keyed, string-valued (query-parameter passthroughs carry
// strings, never booleans). CleanOptions turns it into a merge-ready map,
// coercing the literal strings "true"/"false" into real booleans and
// dropping empty values so they don't clobber a default. See §4.4/§9.
type RawOptions map[string]string

// CleanOptions strips empty values and coerces "true"/"false" strings to
// bool, leaving every other value as a string. The result is suitable for
// AuthorizeOptions.Merge and friends for boolean and string options; Merge
// applies integer options (lifetimes) only from int values, so a numeric
// string left here does not change them.
func CleanOptions(raw RawOptions) map[string]any {
	out := make(map[string]any, len(raw))
	for k, v := range raw {
		switch v {
		case "":
			continue
		case "true":
			out[k] = true
		case "false":
			out[k] = false
		default:
			out[k] = v
		}
	}
	return out
}

func mergeBool(dst *bool, m map[string]any, key string) {
	if v, ok := m[key]; ok {
		if b, ok := v.(bool); ok {
			*dst = b
		}
	}
}

func mergeInt(dst *int, m map[string]any, key string) {
	if v, ok := m[key]; ok {
		if i, ok := v.(int); ok {
			*dst = i
		}
	}
}

func mergeString(dst *string, m map[string]any, key string) {
	if v, ok := m[key]; ok {
		if s, ok := v.(string); ok {
			*dst = s
		}
	}
}

// AuthorizeOptions configures the Authorize endpoint (§4.4).
type AuthorizeOptions struct {
	Authenticator             ResourceOwnerAuthenticator
	AccessTokenLifetime       int
	AuthorizationCodeLifetime int
	AllowEmptyState           bool
}

// DefaultAuthorizeOptions returns the server's built-in defaults.
func DefaultAuthorizeOptions() AuthorizeOptions {
	return AuthorizeOptions{
		AccessTokenLifetime:       1800,
		AuthorizationCodeLifetime: 300,
		AllowEmptyState:           false,
	}
}

// Merge overlays raw (as produced by CleanOptions) onto a copy of o.
func (o AuthorizeOptions) Merge(raw map[string]any) AuthorizeOptions {
	out := o
	mergeInt(&out.AccessTokenLifetime, raw, "accessTokenLifetime")
	mergeInt(&out.AuthorizationCodeLifetime, raw, "authorizationCodeLifetime")
	mergeBool(&out.AllowEmptyState, raw, "allowEmptyState")
	if v, ok := raw["authenticateHandler"]; ok {
		if a, ok := v.(ResourceOwnerAuthenticator); ok {
			out.Authenticator = a
		}
	}
	return out
}

// AuthenticateOptions configures the bearer Authenticate endpoint (§4.4).
type AuthenticateOptions struct {
	Scope                          string
	AddAcceptedScopesHeader        bool
	AddAuthorizedScopesHeader      bool
	AllowBearerTokensInQueryString bool
}

// DefaultAuthenticateOptions returns the server's built-in defaults.
func DefaultAuthenticateOptions() AuthenticateOptions {
	return AuthenticateOptions{
		AddAcceptedScopesHeader:        true,
		AddAuthorizedScopesHeader:      true,
		AllowBearerTokensInQueryString: false,
	}
}

// Merge overlays raw onto a copy of o.
func (o AuthenticateOptions) Merge(raw map[string]any) AuthenticateOptions {
	out := o
	mergeString(&out.Scope, raw, "scope")
	mergeBool(&out.AddAcceptedScopesHeader, raw, "addAcceptedScopesHeader")
	mergeBool(&out.AddAuthorizedScopesHeader, raw, "addAuthorizedScopesHeader")
	mergeBool(&out.AllowBearerTokensInQueryString, raw, "allowBearerTokensInQueryString")
	return out
}

// TokenOptions configures the Token endpoint (§4.4).
type TokenOptions struct {
	AccessTokenLifetime          int
	RefreshTokenLifetime         int
	AllowExtendedTokenAttributes bool
	RequireClientAuthentication  map[string]bool
	AlwaysIssueNewRefreshToken   bool
	ExtendedGrantTypes           map[string]GrantFactory
}

// DefaultTokenOptions returns the server's built-in defaults.
func DefaultTokenOptions() TokenOptions {
	return TokenOptions{
		AccessTokenLifetime:          1800,
		RefreshTokenLifetime:         86400,
		AllowExtendedTokenAttributes: false,
		RequireClientAuthentication: map[string]bool{
			"password":      true,
			"refresh_token": true,
		},
		AlwaysIssueNewRefreshToken: true,
		ExtendedGrantTypes:         map[string]GrantFactory{},
	}
}

// Merge overlays raw onto a copy of o. RequireClientAuthentication and
// ExtendedGrantTypes are replaced wholesale when present, not merged
// key-by-key, matching a plain record-merge semantics.
func (o TokenOptions) Merge(raw map[string]any) TokenOptions {
	out := o
	mergeInt(&out.AccessTokenLifetime, raw, "accessTokenLifetime")
	mergeInt(&out.RefreshTokenLifetime, raw, "refreshTokenLifetime")
	mergeBool(&out.AllowExtendedTokenAttributes, raw, "allowExtendedTokenAttributes")
	mergeBool(&out.AlwaysIssueNewRefreshToken, raw, "alwaysIssueNewRefreshToken")
	if v, ok := raw["requireClientAuthentication"]; ok {
		if m, ok := v.(map[string]bool); ok {
			out.RequireClientAuthentication = m
		}
	}
	if v, ok := raw["extendedGrantTypes"]; ok {
		if m, ok := v.(map[string]GrantFactory); ok {
			out.ExtendedGrantTypes = m
		}
	}
	return out
}

// IntrospectOptions configures the Introspect endpoint (§4.4).
type IntrospectOptions struct {
	IsClientSecretRequired bool
}

// DefaultIntrospectOptions returns the server's built-in defaults.
func DefaultIntrospectOptions() IntrospectOptions {
	return IntrospectOptions{IsClientSecretRequired: true}
}

// Merge overlays raw onto a copy of o.
func (o IntrospectOptions) Merge(raw map[string]any) IntrospectOptions {
	out := o
	mergeBool(&out.IsClientSecretRequired, raw, "isClientSecretRequired")
	return out
}

// RevokeOptions configures the Revoke endpoint (§4.4).
type RevokeOptions struct {
	IsClientSecretRequired bool
}

// DefaultRevokeOptions returns the server's built-in defaults.
func DefaultRevokeOptions() RevokeOptions {
	return RevokeOptions{IsClientSecretRequired: true}
}

// Merge overlays raw onto a copy of o.
func (o RevokeOptions) Merge(raw map[string]any) RevokeOptions {
	out := o
	mergeBool(&out.IsClientSecretRequired, raw, "isClientSecretRequired")
	return out
}
