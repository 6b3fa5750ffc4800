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

//go:build integration
// +build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/opentrusty/authcore/internal/oauth2"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	ctx := context.Background()
	cfg := Config{
		Host:         "localhost",
		Port:         "5432",
		User:         "authcore",
		Password:     "authcore_dev_password",
		Database:     "authcore",
		SSLMode:      "disable",
		MaxOpenConns: 5,
		MaxIdleConns: 5,
	}

	db, err := Open(ctx, cfg)
	if err != nil {
		t.Skipf("skipping integration test: failed to connect to database: %v", err)
	}
	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestModel_ClientSecretRoundTrip(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)
	defer db.Close()

	model := New(db)
	client := &oauth2.Client{ID: "it-client", Grants: []string{oauth2.GrantPassword}}
	if err := model.RegisterClient(ctx, client, "s3cret"); err != nil {
		t.Fatalf("RegisterClient: %v", err)
	}

	got, err := model.GetClient(ctx, "it-client", "s3cret")
	if err != nil {
		t.Fatalf("GetClient: %v", err)
	}
	if got == nil {
		t.Fatal("expected client, got nil")
	}

	if _, err := model.GetClient(ctx, "it-client", "wrong"); err != nil {
		t.Fatalf("GetClient with wrong secret: %v", err)
	}
}

func TestModel_AuthorizationCodeSingleUse(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)
	defer db.Close()

	model := New(db)
	client := &oauth2.Client{ID: "it-code-client", Grants: []string{oauth2.GrantAuthorizationCode}}
	if err := model.RegisterClient(ctx, client, ""); err != nil {
		t.Fatalf("RegisterClient: %v", err)
	}
	if err := model.RegisterUser(ctx, "it-user", "correct-password"); err != nil {
		t.Fatalf("RegisterUser: %v", err)
	}
	user, err := model.GetUser(ctx, "it-user", "correct-password")
	if err != nil || user == nil {
		t.Fatalf("GetUser: %v", err)
	}

	code := &oauth2.AuthorizationCode{Code: "it-code-value", Scope: "read", ExpiresAt: time.Now().Add(time.Minute)}
	if err := model.SaveAuthorizationCode(ctx, client, user, code); err != nil {
		t.Fatalf("SaveAuthorizationCode: %v", err)
	}

	got, err := model.GetAuthorizationCode(ctx, "it-code-value")
	if err != nil || got == nil {
		t.Fatalf("GetAuthorizationCode: %v", err)
	}

	ok, err := model.RevokeAuthorizationCode(ctx, got)
	if err != nil || !ok {
		t.Fatalf("RevokeAuthorizationCode: ok=%v err=%v", ok, err)
	}
	ok, err = model.RevokeAuthorizationCode(ctx, got)
	if err != nil || ok {
		t.Fatalf("expected second revoke to report false, got ok=%v err=%v", ok, err)
	}
}
