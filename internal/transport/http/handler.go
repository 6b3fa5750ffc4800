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

// Package http is the reference transport adapter: it translates real
// net/http traffic into internal/oauth2.Request/Response value objects and
// back, and is the only package under internal/ that imports net/http
// alongside the oauth2 engine. The engine itself never sees an
// http.Request.
package http

import (
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/opentrusty/authcore/internal/oauth2"
	"github.com/opentrusty/authcore/internal/observability/logger"
)

// Handler adapts the oauth2.Server to net/http.
type Handler struct {
	server *oauth2.Server
	audit  *logger.AuditLogger
}

// NewHandler builds a Handler bound to server. Audit logging is a no-op
// until WithAuditLogger is called.
func NewHandler(server *oauth2.Server) *Handler {
	return &Handler{server: server}
}

// WithAuditLogger attaches an audit trail for token issuance, revocation
// and introspection. Returns h for chaining.
func (h *Handler) WithAuditLogger(audit *logger.AuditLogger) *Handler {
	h.audit = audit
	return h
}

// Authorize handles GET /oauth2/authorize (RFC 6749 §3.1).
func (h *Handler) Authorize(w http.ResponseWriter, r *http.Request) {
	req := newRequest(r)
	res := oauth2.NewResponse()
	h.server.Authorize(r.Context(), req, res, nil)
	h.auditAuthorize(r, req, res)
	writeResponse(w, res)
}

// Token handles POST /oauth2/token (RFC 6749 §3.2).
func (h *Handler) Token(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeJSONError(w, http.StatusBadRequest, oauth2.ErrInvalidRequest, "malformed form body")
		return
	}
	req := newRequest(r)
	res := oauth2.NewResponse()
	h.server.Token(r.Context(), req, res, nil)
	h.auditToken(r, req, res)
	writeResponse(w, res)
}

// Introspect handles POST /oauth2/introspect (RFC 7662).
func (h *Handler) Introspect(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeJSONError(w, http.StatusBadRequest, oauth2.ErrInvalidRequest, "malformed form body")
		return
	}
	req := newRequest(r)
	res := oauth2.NewResponse()
	h.server.Introspect(r.Context(), req, res, nil)
	if h.audit != nil {
		active, _ := res.Body["active"].(bool)
		h.audit.TokenIntrospected(r.Context(), req.Param("client_id"), active, r.RemoteAddr)
	}
	writeResponse(w, res)
}

// Revoke handles POST /oauth2/revoke (RFC 7009).
func (h *Handler) Revoke(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeJSONError(w, http.StatusBadRequest, oauth2.ErrInvalidRequest, "malformed form body")
		return
	}
	req := newRequest(r)
	res := oauth2.NewResponse()
	h.server.Revoke(r.Context(), req, res, nil)
	if h.audit != nil && res.Status < 400 {
		h.audit.TokenRevoked(r.Context(), req.Param("client_id"), req.Param("token_hint"), r.RemoteAddr)
	}
	writeResponse(w, res)
}

func (h *Handler) auditAuthorize(r *http.Request, req *oauth2.Request, res *oauth2.Response) {
	if h.audit == nil {
		return
	}
	clientID := req.Param("client_id")
	loc := res.Header("Location")
	if loc == "" {
		reason, _ := res.Body["error"].(string)
		h.audit.AuthorizationDenied(r.Context(), "", clientID, reason, r.RemoteAddr)
		return
	}
	if parsed, err := url.Parse(loc); err == nil {
		if errCode := parsed.Query().Get("error"); errCode != "" {
			h.audit.AuthorizationDenied(r.Context(), "", clientID, errCode, r.RemoteAddr)
			return
		}
	}
	h.audit.AuthorizationGranted(r.Context(), "", clientID, req.Param("scope"), r.RemoteAddr)
}

func (h *Handler) auditToken(r *http.Request, req *oauth2.Request, res *oauth2.Response) {
	if h.audit == nil {
		return
	}
	grantType := req.Body["grant_type"]
	clientID := req.Body["client_id"]
	if res.Status >= 400 {
		reason, _ := res.Body["error"].(string)
		h.audit.TokenIssueFailed(r.Context(), clientID, grantType, reason, r.RemoteAddr)
		return
	}
	scope, _ := res.Body["scope"].(string)
	h.audit.TokenIssued(r.Context(), "", clientID, grantType, scope, r.RemoteAddr)
}

// RequireBearer adapts the Authenticate endpoint into net/http middleware,
// rejecting the request before next runs when no valid bearer token is
// presented. The authenticated *oauth2.User is stashed in the request
// context for downstream handlers via UserFromContext.
func (h *Handler) RequireBearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req := newRequest(r)
		res := oauth2.NewResponse()

		user, err := h.server.Authenticate(r.Context(), req, res, nil)
		if err != nil {
			writeResponse(w, res)
			return
		}

		next.ServeHTTP(w, r.WithContext(withUser(r.Context(), user)))
	})
}

func writeResponse(w http.ResponseWriter, res *oauth2.Response) {
	for k, v := range res.Headers {
		w.Header().Set(k, v)
	}
	if loc := res.Header("Location"); loc != "" {
		w.WriteHeader(res.Status)
		return
	}
	w.Header().Set("Content-Type", "application/json;charset=UTF-8")
	w.WriteHeader(res.Status)
	if len(res.Body) == 0 {
		return
	}
	json.NewEncoder(w).Encode(res.Body)
}

func writeJSONError(w http.ResponseWriter, status int, code, description string) {
	w.Header().Set("Content-Type", "application/json;charset=UTF-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{
		"error":             code,
		"error_description": description,
	})
}
