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

// Package oauth2 implements the server side of RFC 6749 (OAuth 2.0
// Authorization Framework), RFC 6750 (Bearer Token Usage), RFC 7662 (Token
// Introspection) and RFC 7009 (Token Revocation).
//
// The package is a protocol engine, not an HTTP server: it never touches
// net/http directly. Callers hand it a Request built from whatever
// transport they front (internal/transport/http does this for net/http)
// and it fills in a Response. All persistence — clients, users, tokens,
// authorization codes, scope validation — is delegated to a Model supplied
// by the host application; see model.go for the capability set an
// implementation must provide.
package oauth2
