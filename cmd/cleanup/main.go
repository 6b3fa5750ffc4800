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

// Command cleanup drops the oauth2 reference schema entirely, for
// resetting a local test database between integration test runs.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5"

	"github.com/opentrusty/authcore/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	url := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		cfg.Database.User, cfg.Database.Password, cfg.Database.Host, cfg.Database.Port,
		cfg.Database.Database, cfg.Database.SSLMode)

	ctx := context.Background()
	conn, err := pgx.Connect(ctx, url)
	if err != nil {
		fmt.Fprintf(os.Stderr, "unable to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer conn.Close(ctx)

	_, err = conn.Exec(ctx, `
		DROP TABLE IF EXISTS oauth2_tokens CASCADE;
		DROP TABLE IF EXISTS oauth2_authorization_codes CASCADE;
		DROP TABLE IF EXISTS oauth2_scopes CASCADE;
		DROP TABLE IF EXISTS oauth2_clients CASCADE;
		DROP TABLE IF EXISTS oauth2_users CASCADE;
	`)
	if err != nil {
		fmt.Fprintf(os.Stderr, "drop tables failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("dropped oauth2 reference schema")
}
