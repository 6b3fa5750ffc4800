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
	"net/url"
	"testing"
)

func authenticatedAs(user *User) ResourceOwnerAuthenticator {
	return ResourceOwnerAuthenticatorFunc(func(ctx context.Context, req *Request, res *Response) (*User, error) {
		return user, nil
	})
}

func TestAuthorizeCodeFlowRedirectsWithCode(t *testing.T) {
	model := newFakeModel()
	model.clients["cli"] = &Client{
		ID:           "cli",
		Grants:       []string{GrantAuthorizationCode},
		RedirectURIs: []string{"https://example.com/cb"},
	}

	opts := DefaultAuthorizeOptions()
	opts.Authenticator = authenticatedAs(&User{Username: "alice"})

	ep, err := newAuthorizeEndpoint(model, opts)
	if err != nil {
		t.Fatalf("newAuthorizeEndpoint: %v", err)
	}

	req := NewRequest("GET", nil, map[string]string{
		"response_type": "code",
		"redirect_uri":  "https://example.com/cb",
		"client_id":     "cli",
		"state":         "xyz",
	}, nil, "")
	res := NewResponse()

	if err := ep.Execute(context.Background(), req, res); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.Status != 302 {
		t.Fatalf("Status = %d, want 302", res.Status)
	}
	loc, err := url.Parse(res.Header("Location"))
	if err != nil {
		t.Fatalf("parse Location: %v", err)
	}
	if loc.Query().Get("code") == "" {
		t.Fatal("expected a code query parameter on the redirect")
	}
	if loc.Query().Get("state") != "xyz" {
		t.Fatalf("state = %q, want %q", loc.Query().Get("state"), "xyz")
	}
	if len(model.codes) != 1 {
		t.Fatalf("expected exactly one authorization code to be saved, got %d", len(model.codes))
	}
}

func TestAuthorizeTokenFlowRedirectsWithFragment(t *testing.T) {
	model := newFakeModel()
	model.clients["cli"] = &Client{
		ID:           "cli",
		Grants:       []string{GrantImplicit},
		RedirectURIs: []string{"https://example.com/cb"},
	}

	opts := DefaultAuthorizeOptions()
	opts.Authenticator = authenticatedAs(&User{Username: "alice"})

	ep, err := newAuthorizeEndpoint(model, opts)
	if err != nil {
		t.Fatalf("newAuthorizeEndpoint: %v", err)
	}

	req := NewRequest("GET", nil, map[string]string{
		"response_type": "token",
		"redirect_uri":  "https://example.com/cb",
		"client_id":     "cli",
		"state":         "xyz",
	}, nil, "")
	res := NewResponse()

	if err := ep.Execute(context.Background(), req, res); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	loc, err := url.Parse(res.Header("Location"))
	if err != nil {
		t.Fatalf("parse Location: %v", err)
	}
	frag, err := url.ParseQuery(loc.Fragment)
	if err != nil {
		t.Fatalf("parse fragment: %v", err)
	}
	if frag.Get("access_token") == "" {
		t.Fatal("expected an access_token in the redirect fragment")
	}
	if frag.Get("token_type") != "Bearer" {
		t.Fatalf("token_type = %q, want Bearer", frag.Get("token_type"))
	}
}

func TestAuthorizeDeniedRedirectsWithAccessDenied(t *testing.T) {
	model := newFakeModel()
	model.clients["cli"] = &Client{
		ID:           "cli",
		Grants:       []string{GrantAuthorizationCode},
		RedirectURIs: []string{"https://example.com/cb"},
	}

	opts := DefaultAuthorizeOptions()
	opts.Authenticator = authenticatedAs(nil)

	ep, err := newAuthorizeEndpoint(model, opts)
	if err != nil {
		t.Fatalf("newAuthorizeEndpoint: %v", err)
	}

	req := NewRequest("GET", nil, map[string]string{
		"response_type": "code",
		"redirect_uri":  "https://example.com/cb",
		"client_id":     "cli",
		"state":         "xyz",
	}, nil, "")
	res := NewResponse()

	if err := ep.Execute(context.Background(), req, res); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	loc, err := url.Parse(res.Header("Location"))
	if err != nil {
		t.Fatalf("parse Location: %v", err)
	}
	if loc.Query().Get("error") != ErrAccessDenied {
		t.Fatalf("error = %q, want %q", loc.Query().Get("error"), ErrAccessDenied)
	}
}

func TestAuthorizeConsentDeniedRendersAccessDenied(t *testing.T) {
	model := newFakeModel()
	model.clients["cli"] = &Client{
		ID:           "cli",
		Grants:       []string{GrantAuthorizationCode},
		RedirectURIs: []string{"https://example.com/cb"},
	}

	opts := DefaultAuthorizeOptions()
	opts.Authenticator = authenticatedAs(&User{Username: "alice"})

	ep, err := newAuthorizeEndpoint(model, opts)
	if err != nil {
		t.Fatalf("newAuthorizeEndpoint: %v", err)
	}

	req := NewRequest("GET", nil, map[string]string{
		"response_type": "code",
		"redirect_uri":  "https://example.com/cb",
		"client_id":     "cli",
		"state":         "xyz",
		"allowed":       "false",
	}, nil, "")
	res := NewResponse()

	if err := ep.Execute(context.Background(), req, res); err == nil {
		t.Fatal("expected an error when allowed=false")
	}
	if res.Header("Location") != "" {
		t.Fatal("expected no redirect before the client/redirect_uri are validated")
	}
	if res.Body["error"] != ErrAccessDenied {
		t.Fatalf("error = %v, want %q", res.Body["error"], ErrAccessDenied)
	}
}

func TestAuthorizeBadRedirectURIForKnownClientRendersInvalidClient(t *testing.T) {
	model := newFakeModel()
	model.clients["cli"] = &Client{
		ID:           "cli",
		Grants:       []string{GrantAuthorizationCode},
		RedirectURIs: []string{"https://example.com/cb"},
	}

	opts := DefaultAuthorizeOptions()
	opts.Authenticator = authenticatedAs(&User{Username: "alice"})

	ep, err := newAuthorizeEndpoint(model, opts)
	if err != nil {
		t.Fatalf("newAuthorizeEndpoint: %v", err)
	}

	req := NewRequest("GET", nil, map[string]string{
		"response_type": "code",
		"redirect_uri":  "https://attacker.example/cb",
		"client_id":     "cli",
		"state":         "xyz",
	}, nil, "")
	res := NewResponse()

	if err := ep.Execute(context.Background(), req, res); err == nil {
		t.Fatal("expected an error for an unregistered redirect_uri")
	}
	if res.Header("Location") != "" {
		t.Fatal("expected no redirect to an unregistered redirect_uri")
	}
	if res.Body["error"] != ErrInvalidClient {
		t.Fatalf("error = %v, want %q", res.Body["error"], ErrInvalidClient)
	}
}

func TestAuthorizeClientWithNoGrantsRendersInvalidClient(t *testing.T) {
	model := newFakeModel()
	model.clients["cli"] = &Client{
		ID:           "cli",
		RedirectURIs: []string{"https://example.com/cb"},
	}

	opts := DefaultAuthorizeOptions()
	opts.Authenticator = authenticatedAs(&User{Username: "alice"})

	ep, err := newAuthorizeEndpoint(model, opts)
	if err != nil {
		t.Fatalf("newAuthorizeEndpoint: %v", err)
	}

	req := NewRequest("GET", nil, map[string]string{
		"response_type": "code",
		"redirect_uri":  "https://example.com/cb",
		"client_id":     "cli",
		"state":         "xyz",
	}, nil, "")
	res := NewResponse()

	if err := ep.Execute(context.Background(), req, res); err == nil {
		t.Fatal("expected an error for a client with no configured grants")
	}
	if res.Header("Location") != "" {
		t.Fatal("expected no redirect for a client with no configured grants")
	}
	if res.Body["error"] != ErrInvalidClient {
		t.Fatalf("error = %v, want %q", res.Body["error"], ErrInvalidClient)
	}
}

func TestAuthorizeUnknownClientRendersJSON(t *testing.T) {
	model := newFakeModel()
	opts := DefaultAuthorizeOptions()
	opts.Authenticator = authenticatedAs(&User{Username: "alice"})

	ep, err := newAuthorizeEndpoint(model, opts)
	if err != nil {
		t.Fatalf("newAuthorizeEndpoint: %v", err)
	}

	req := NewRequest("GET", nil, map[string]string{
		"response_type": "code",
		"redirect_uri":  "https://example.com/cb",
		"client_id":     "ghost",
		"state":         "xyz",
	}, nil, "")
	res := NewResponse()

	if err := ep.Execute(context.Background(), req, res); err == nil {
		t.Fatal("expected an error for an unknown client")
	}
	if res.Header("Location") != "" {
		t.Fatal("expected no redirect for an unverified client")
	}
	if res.Body["error"] != ErrInvalidClient {
		t.Fatalf("error = %v, want %q", res.Body["error"], ErrInvalidClient)
	}
}
