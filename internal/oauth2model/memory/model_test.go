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

package memory

import (
	"context"
	"testing"

	"github.com/opentrusty/authcore/internal/oauth2"
)

func TestGetClientRejectsWrongSecret(t *testing.T) {
	m := New()
	if err := m.RegisterClient(&oauth2.Client{ID: "web"}, "s3cret"); err != nil {
		t.Fatalf("RegisterClient: %v", err)
	}

	if c, err := m.GetClient(context.Background(), "web", "wrong"); err != nil || c != nil {
		t.Fatalf("GetClient with wrong secret = %v, %v, want nil, nil", c, err)
	}
	c, err := m.GetClient(context.Background(), "web", "s3cret")
	if err != nil || c == nil {
		t.Fatalf("GetClient with correct secret = %v, %v, want non-nil, nil", c, err)
	}
}

func TestAuthorizationCodeSingleUse(t *testing.T) {
	m := New()
	ctx := context.Background()
	code := &oauth2.AuthorizationCode{Code: "abc123"}

	if err := m.SaveAuthorizationCode(ctx, nil, nil, code); err != nil {
		t.Fatalf("SaveAuthorizationCode: %v", err)
	}

	got, err := m.GetAuthorizationCode(ctx, "abc123")
	if err != nil || got == nil {
		t.Fatalf("GetAuthorizationCode = %v, %v, want non-nil, nil", got, err)
	}

	ok, err := m.RevokeAuthorizationCode(ctx, code)
	if err != nil || !ok {
		t.Fatalf("RevokeAuthorizationCode (first) = %v, %v, want true, nil", ok, err)
	}

	ok, err = m.RevokeAuthorizationCode(ctx, code)
	if err != nil || ok {
		t.Fatalf("RevokeAuthorizationCode (second) = %v, %v, want false, nil", ok, err)
	}

	got, err = m.GetAuthorizationCode(ctx, "abc123")
	if err != nil || got != nil {
		t.Fatalf("GetAuthorizationCode after revoke = %v, %v, want nil, nil", got, err)
	}
}

func TestVerifyScopeRequiresEverySubscope(t *testing.T) {
	m := New()
	token := &oauth2.Token{Scope: "read write"}

	ok, err := m.VerifyScope(context.Background(), token, "read")
	if err != nil || !ok {
		t.Fatalf("VerifyScope(read) = %v, %v, want true, nil", ok, err)
	}

	ok, err = m.VerifyScope(context.Background(), token, "admin")
	if err != nil || ok {
		t.Fatalf("VerifyScope(admin) = %v, %v, want false, nil", ok, err)
	}
}
