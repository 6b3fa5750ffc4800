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

//go:build e2e

// Package e2e drives a running authcore binary over real HTTP. Start the
// server first with OAUTH2_SEED_DEMO_CLIENT=true so the demo client/user
// used below exist:
//
//	OAUTH2_SEED_DEMO_CLIENT=true go run ./cmd/server
//	AUTHCORE_API_URL=http://127.0.0.1:8080 go test -tags e2e ./tests/e2e/...
package e2e

import (
	"encoding/json"
	"net/http"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseURL = getEnv("AUTHCORE_API_URL", "http://127.0.0.1:8080")

const (
	demoClientID     = "demo-client"
	demoClientSecret = "demo-secret"
	demoUsername     = "demo-user"
	demoPassword     = "demo-password"
)

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

var httpClient = &http.Client{Timeout: 10 * time.Second}

func postForm(t *testing.T, path string, form url.Values) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, baseURL+path, strings.NewReader(form.Encode()))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := httpClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestE2E_HealthCheck(t *testing.T) {
	resp, err := httpClient.Get(baseURL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

// TestE2E_PasswordGrantAndRefresh exercises the resource owner password
// credentials grant, then the refresh_token grant, against a live server.
func TestE2E_PasswordGrantAndRefresh(t *testing.T) {
	resp := postForm(t, "/oauth2/token", url.Values{
		"grant_type":    {"password"},
		"client_id":     {demoClientID},
		"client_secret": {demoClientSecret},
		"username":      {demoUsername},
		"password":      {demoPassword},
	})
	body := decodeJSON(t, resp)
	require.Equal(t, http.StatusOK, resp.StatusCode, "token response: %v", body)

	accessToken, _ := body["access_token"].(string)
	refreshToken, _ := body["refresh_token"].(string)
	require.NotEmpty(t, accessToken)
	require.NotEmpty(t, refreshToken)

	resp = postForm(t, "/oauth2/token", url.Values{
		"grant_type":    {"refresh_token"},
		"client_id":     {demoClientID},
		"client_secret": {demoClientSecret},
		"refresh_token": {refreshToken},
	})
	refreshed := decodeJSON(t, resp)
	require.Equal(t, http.StatusOK, resp.StatusCode, "refresh response: %v", refreshed)
	newAccessToken, _ := refreshed["access_token"].(string)
	assert.NotEmpty(t, newAccessToken)
	assert.NotEqual(t, accessToken, newAccessToken)
}

// TestE2E_IntrospectAndRevoke covers the introspection and revocation
// endpoints against a token issued by the password grant.
func TestE2E_IntrospectAndRevoke(t *testing.T) {
	resp := postForm(t, "/oauth2/token", url.Values{
		"grant_type":    {"password"},
		"client_id":     {demoClientID},
		"client_secret": {demoClientSecret},
		"username":      {demoUsername},
		"password":      {demoPassword},
	})
	body := decodeJSON(t, resp)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	accessToken, _ := body["access_token"].(string)
	require.NotEmpty(t, accessToken)

	resp = postForm(t, "/oauth2/introspect", url.Values{
		"token":         {accessToken},
		"token_hint":    {"access_token"},
		"client_id":     {demoClientID},
		"client_secret": {demoClientSecret},
	})
	introspection := decodeJSON(t, resp)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, introspection["active"])

	resp = postForm(t, "/oauth2/revoke", url.Values{
		"token":         {accessToken},
		"token_hint":    {"access_token"},
		"client_id":     {demoClientID},
		"client_secret": {demoClientSecret},
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = postForm(t, "/oauth2/introspect", url.Values{
		"token":         {accessToken},
		"token_hint":    {"access_token"},
		"client_id":     {demoClientID},
		"client_secret": {demoClientSecret},
	})
	introspection = decodeJSON(t, resp)
	assert.Equal(t, false, introspection["active"])
}

// TestE2E_InvalidClientCredentialsRejected checks that a wrong client
// secret fails the client_secret_basic challenge rather than issuing a
// token.
func TestE2E_InvalidClientCredentialsRejected(t *testing.T) {
	form := url.Values{
		"grant_type": {"password"},
		"username":   {demoUsername},
		"password":   {demoPassword},
	}
	req, err := http.NewRequest(http.MethodPost, baseURL+"/oauth2/token", strings.NewReader(form.Encode()))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(demoClientID, "wrong-secret")
	resp, err := httpClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
