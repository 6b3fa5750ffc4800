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

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/opentrusty/authcore/internal/config"
	"github.com/opentrusty/authcore/internal/oauth2"
	"github.com/opentrusty/authcore/internal/oauth2model/memory"
	"github.com/opentrusty/authcore/internal/oauth2model/postgres"
	"github.com/opentrusty/authcore/internal/observability/logger"
	"github.com/opentrusty/authcore/internal/observability/metrics"
	"github.com/opentrusty/authcore/internal/observability/tracing"
	transportHTTP "github.com/opentrusty/authcore/internal/transport/http"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger.InitLogger(logger.Config{
		Level:       cfg.Observability.LogLevel,
		Format:      cfg.Observability.LogFormat,
		ServiceName: cfg.Observability.ServiceName,
	})
	slog.Info("starting authcore oauth2 server")

	ctx := context.Background()

	tracer, err := tracing.New(ctx, tracing.Config{
		Enabled:        cfg.Observability.OTELEnabled,
		ServiceName:    cfg.Observability.ServiceName,
		ServiceVersion: cfg.Observability.ServiceVersion,
		SamplingRate:   1.0,
	})
	if err != nil {
		slog.Error("failed to initialize tracer", logger.Error(err))
	}
	defer tracer.Shutdown(ctx)

	if _, err := metrics.New(ctx, metrics.Config{Enabled: cfg.Observability.OTELEnabled}, cfg.Observability.ServiceName); err != nil {
		slog.Error("failed to initialize meter", logger.Error(err))
	}

	model, closeModel, err := buildModel(ctx, cfg)
	if err != nil {
		slog.Error("failed to initialize oauth2 model", logger.Error(err))
		os.Exit(1)
	}
	defer closeModel()

	server := oauth2.NewServer(
		model,
		authorizeOptions(cfg),
		oauth2.DefaultAuthenticateOptions(),
		tokenOptions(cfg),
		oauth2.DefaultIntrospectOptions(),
		oauth2.DefaultRevokeOptions(),
	)

	handler := transportHTTP.NewHandler(server).WithAuditLogger(logger.NewAuditLogger(slog.Default()))
	router := transportHTTP.NewRouter(handler)

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		slog.Info("listening", logger.Component("server"), "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", logger.Error(err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", logger.Error(err))
	}
	slog.Info("server stopped")
}

// buildModel resolves the reference oauth2.Model named by
// cfg.OAuth2.Store. The returned closer is always safe to call even for
// the memory store, which has nothing to release.
func buildModel(ctx context.Context, cfg *config.Config) (oauth2.Model, func(), error) {
	switch cfg.OAuth2.Store {
	case "postgres":
		db, err := postgres.Open(ctx, postgres.Config{
			Host:         cfg.Database.Host,
			Port:         cfg.Database.Port,
			User:         cfg.Database.User,
			Password:     cfg.Database.Password,
			Database:     cfg.Database.Database,
			SSLMode:      cfg.Database.SSLMode,
			MaxOpenConns: cfg.Database.MaxOpenConns,
			MaxIdleConns: cfg.Database.MaxIdleConns,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("connect to database: %w", err)
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("migrate: %w", err)
		}
		slog.Info("connected to database")
		pgModel := postgres.New(db)
		if cfg.OAuth2.SeedDemoClient {
			if err := seedPostgres(ctx, pgModel, cfg.OAuth2); err != nil {
				db.Close()
				return nil, nil, fmt.Errorf("seed demo client: %w", err)
			}
		}
		return pgModel, db.Close, nil
	default:
		slog.Info("using in-memory oauth2 model; data does not survive a restart")
		memModel := memory.New()
		if cfg.OAuth2.SeedDemoClient {
			if err := seedMemory(memModel, cfg.OAuth2); err != nil {
				return nil, nil, fmt.Errorf("seed demo client: %w", err)
			}
		}
		return memModel, func() {}, nil
	}
}

func seedMemory(model *memory.Model, oc config.OAuth2Config) error {
	if err := model.RegisterClient(&oauth2.Client{
		ID:     oc.SeedClientID,
		Grants: []string{oauth2.GrantPassword, oauth2.GrantAuthorizationCode, oauth2.GrantRefreshToken, oauth2.GrantClientCredentials},
	}, oc.SeedClientSecret); err != nil {
		return err
	}
	if err := model.RegisterUser(oc.SeedUsername, oc.SeedPassword); err != nil {
		return err
	}
	slog.Info("seeded demo oauth2 client and user", "client_id", oc.SeedClientID, "username", oc.SeedUsername)
	return nil
}

func seedPostgres(ctx context.Context, model *postgres.Model, oc config.OAuth2Config) error {
	if err := model.RegisterClient(ctx, &oauth2.Client{
		ID:     oc.SeedClientID,
		Grants: []string{oauth2.GrantPassword, oauth2.GrantAuthorizationCode, oauth2.GrantRefreshToken, oauth2.GrantClientCredentials},
	}, oc.SeedClientSecret); err != nil {
		return err
	}
	if err := model.RegisterUser(ctx, oc.SeedUsername, oc.SeedPassword); err != nil {
		return err
	}
	slog.Info("seeded demo oauth2 client and user", "client_id", oc.SeedClientID, "username", oc.SeedUsername)
	return nil
}

func authorizeOptions(cfg *config.Config) oauth2.AuthorizeOptions {
	opts := oauth2.DefaultAuthorizeOptions()
	opts.AccessTokenLifetime = int(cfg.OAuth2.AccessTokenLifetime.Seconds())
	opts.AuthorizationCodeLifetime = int(cfg.OAuth2.AuthorizationCodeLifetime.Seconds())
	opts.AllowEmptyState = cfg.OAuth2.AllowEmptyState
	// Authenticator must be supplied by the host application: this engine
	// has no opinion on how a resource owner logs in. A host wiring this
	// binary directly would set opts.Authenticator here; none is set by
	// default, so Authorize fails fast with ErrInvalidArgument until one is.
	return opts
}

func tokenOptions(cfg *config.Config) oauth2.TokenOptions {
	opts := oauth2.DefaultTokenOptions()
	opts.AccessTokenLifetime = int(cfg.OAuth2.AccessTokenLifetime.Seconds())
	opts.RefreshTokenLifetime = int(cfg.OAuth2.RefreshTokenLifetime.Seconds())
	opts.AlwaysIssueNewRefreshToken = cfg.OAuth2.AlwaysIssueNewRefreshToken
	return opts
}
