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
	"net/url"
	"strings"
)

// header is a case-insensitive string->string map, per §3 ("headers
// (case-insensitive mapping string→string)"). Keys are normalized to
// canonical lower-case form on every access.
type header map[string]string

func newHeader() header { return make(header) }

func (h header) Get(key string) string {
	return h[strings.ToLower(key)]
}

func (h header) Set(key, value string) {
	h[strings.ToLower(key)] = value
}

// Request is the engine's normalized view of an inbound HTTP request. It is
// built once per call by the transport adapter and is immutable afterwards;
// the engine never mutates it. See §3.
type Request struct {
	// Method is the HTTP method, upper-cased.
	Method string
	// Headers is a case-insensitive header map.
	Headers header
	// Query holds the decoded query-string parameters.
	Query map[string]string
	// Body holds decoded form-encoded body parameters. For non-form
	// bodies this is left empty; IsFormURLEncoded() or the transport
	// adapter is responsible for policing the Content-Type.
	Body map[string]string
	// ContentType is the request's declared Content-Type, lower-cased and
	// stripped of parameters (e.g. "application/x-www-form-urlencoded").
	ContentType string
}

// NewRequest builds a Request from already-decoded pieces. headers, query
// and body may be nil, which is treated as empty.
func NewRequest(method string, headers map[string]string, query map[string]string, body map[string]string, contentType string) *Request {
	h := newHeader()
	for k, v := range headers {
		h.Set(k, v)
	}
	if query == nil {
		query = map[string]string{}
	}
	if body == nil {
		body = map[string]string{}
	}
	return &Request{
		Method:      strings.ToUpper(method),
		Headers:     h,
		Query:       query,
		Body:        body,
		ContentType: strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0])),
	}
}

// Header returns the value of the given request header, case-insensitively.
func (r *Request) Header(key string) string { return r.Headers.Get(key) }

// Param returns the value of key from the body if present, falling back to
// the query string. This mirrors how RFC 6749 parameters are frequently
// accepted from either location.
func (r *Request) Param(key string) string {
	if v, ok := r.Body[key]; ok && v != "" {
		return v
	}
	return r.Query[key]
}

// IsFormURLEncoded reports whether the request declared a form-urlencoded
// content type, required by the Token/Introspect/Revoke endpoints.
func (r *Request) IsFormURLEncoded() bool {
	return r.ContentType == "application/x-www-form-urlencoded"
}

// Response is a mutable HTTP response builder that pipelines write into as
// they run. See §3. Its lifetime is a single call; no aliasing outside of
// the task that owns the request.
type Response struct {
	Status  int
	Headers header
	Body    map[string]any
}

// NewResponse returns a Response defaulted to status 200 with no headers
// or body set.
func NewResponse() *Response {
	return &Response{
		Status:  200,
		Headers: newHeader(),
		Body:    map[string]any{},
	}
}

// Header returns the current value of a response header, case-insensitively.
func (r *Response) Header(key string) string { return r.Headers.Get(key) }

// SetHeader sets a response header, case-insensitively keyed.
func (r *Response) SetHeader(key, value string) { r.Headers.Set(key, value) }

// SetStatus sets the response status code.
func (r *Response) SetStatus(status int) { r.Status = status }

// SetBody replaces the entire response body map.
func (r *Response) SetBody(body map[string]any) { r.Body = body }

// Redirect sets Location and a 302 status, per §3 ("redirect(url) which
// sets Location and 302").
func (r *Response) Redirect(rawURL string) {
	r.SetHeader("Location", rawURL)
	r.SetStatus(302)
}

// addQueryParams appends params to u's query string, preserving whatever
// query u already carries.
func addQueryParams(rawURL string, params map[string]string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		// An unparsable URL is returned unchanged, without the params;
		// callers are expected to have already validated the URI shape.
		return rawURL
	}
	q := u.Query()
	for k, v := range params {
		if v != "" {
			q.Set(k, v)
		}
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// addFragmentParams sets params as u's URI fragment, replacing any fragment
// already present and leaving the query string untouched.
func addFragmentParams(rawURL string, params map[string]string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	q := url.Values{}
	for k, v := range params {
		if v != "" {
			q.Set(k, v)
		}
	}
	u.Fragment = ""
	u.RawFragment = ""
	base := u.String()
	return base + "#" + q.Encode()
}

// clearQuery returns rawURL with its query string removed.
func clearQuery(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	u.RawQuery = ""
	return u.String()
}
