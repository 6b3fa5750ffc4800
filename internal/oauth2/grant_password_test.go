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
)

func TestPasswordGrantSuccess(t *testing.T) {
	model := newFakeModel()
	model.users["alice"] = &User{Username: "alice"}
	client := &Client{ID: "cli", Grants: []string{GrantPassword}}

	grant, err := newPasswordGrant(model, DefaultTokenOptions())
	if err != nil {
		t.Fatalf("newPasswordGrant: %v", err)
	}

	token, err := grant.Execute(context.Background(), &TokenRequest{
		Username: "alice",
		Password: "correct-password",
		Scope:    "read",
	}, client, DefaultTokenOptions())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if token.AccessToken == "" {
		t.Fatal("expected a non-empty access token")
	}
	if token.RefreshToken == "" {
		t.Fatal("expected a refresh token to be issued")
	}
	if token.Scope != "read" {
		t.Fatalf("Scope = %q, want %q", token.Scope, "read")
	}
	if _, ok := model.accessTokens[token.AccessToken]; !ok {
		t.Fatal("expected the token to be persisted via SaveToken")
	}
}

func TestPasswordGrantRejectsBadCredentials(t *testing.T) {
	model := newFakeModel()
	model.users["alice"] = &User{Username: "alice"}
	client := &Client{ID: "cli", Grants: []string{GrantPassword}}

	grant, err := newPasswordGrant(model, DefaultTokenOptions())
	if err != nil {
		t.Fatalf("newPasswordGrant: %v", err)
	}

	_, err = grant.Execute(context.Background(), &TokenRequest{
		Username: "alice",
		Password: "wrong",
	}, client, DefaultTokenOptions())
	if err == nil {
		t.Fatal("expected an error for invalid credentials")
	}
	oerr, ok := err.(*Error)
	if !ok || oerr.Code != ErrInvalidGrant {
		t.Fatalf("error = %v, want invalid_grant", err)
	}
}
