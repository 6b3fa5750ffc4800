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
	"testing"
	"time"
)

func TestRevokeUnknownTokenStillReturns200(t *testing.T) {
	model := newFakeModel()
	model.clients["cli"] = &Client{ID: "cli", Secret: "s3cret"}

	ep, err := newRevokeEndpoint(model, DefaultRevokeOptions())
	if err != nil {
		t.Fatalf("newRevokeEndpoint: %v", err)
	}

	req := NewRequest("POST", nil, nil, map[string]string{
		"client_id":     "cli",
		"client_secret": "s3cret",
		"token":         "does-not-exist",
		"token_hint":    "access_token",
	}, "application/x-www-form-urlencoded")
	res := NewResponse()

	if err := ep.Execute(context.Background(), req, res); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.Status != 200 {
		t.Fatalf("Status = %d, want 200", res.Status)
	}
	if model.revokeAccessCalls != 0 {
		t.Fatalf("RevokeAccessToken calls = %d, want 0 for an unknown token", model.revokeAccessCalls)
	}
}

func TestRevokeDoesNotRevokeTokenOwnedByAnotherClient(t *testing.T) {
	model := newFakeModel()
	owner := &Client{ID: "owner"}
	requester := &Client{ID: "requester", Secret: "s3cret"}
	model.clients["requester"] = requester
	model.accessTokens["tok"] = &Token{
		AccessToken:          "tok",
		AccessTokenExpiresAt: time.Now().Add(time.Minute),
		Client:               owner,
		User:                 &User{Username: "alice"},
	}

	ep, err := newRevokeEndpoint(model, DefaultRevokeOptions())
	if err != nil {
		t.Fatalf("newRevokeEndpoint: %v", err)
	}

	req := NewRequest("POST", nil, nil, map[string]string{
		"client_id":     "requester",
		"client_secret": "s3cret",
		"token":         "tok",
		"token_hint":    "access_token",
	}, "application/x-www-form-urlencoded")
	res := NewResponse()

	if err := ep.Execute(context.Background(), req, res); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.Status != 200 {
		t.Fatalf("Status = %d, want 200", res.Status)
	}
	if model.revokeAccessCalls != 0 {
		t.Fatalf("RevokeAccessToken calls = %d, want 0 for a token owned by a different client", model.revokeAccessCalls)
	}
	if _, ok := model.accessTokens["tok"]; !ok {
		t.Fatal("expected the token to remain in place")
	}
}

func TestRevokeOwnedTokenSucceeds(t *testing.T) {
	model := newFakeModel()
	client := &Client{ID: "cli", Secret: "s3cret"}
	model.clients["cli"] = client
	model.accessTokens["tok"] = &Token{
		AccessToken:          "tok",
		AccessTokenExpiresAt: time.Now().Add(time.Minute),
		Client:               client,
		User:                 &User{Username: "alice"},
	}

	ep, err := newRevokeEndpoint(model, DefaultRevokeOptions())
	if err != nil {
		t.Fatalf("newRevokeEndpoint: %v", err)
	}

	req := NewRequest("POST", nil, nil, map[string]string{
		"client_id":     "cli",
		"client_secret": "s3cret",
		"token":         "tok",
		"token_hint":    "access_token",
	}, "application/x-www-form-urlencoded")
	res := NewResponse()

	if err := ep.Execute(context.Background(), req, res); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if model.revokeAccessCalls != 1 {
		t.Fatalf("RevokeAccessToken calls = %d, want 1", model.revokeAccessCalls)
	}
}
