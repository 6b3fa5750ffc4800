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

package http

import (
	"net/http"

	"github.com/opentrusty/authcore/internal/oauth2"
)

// newRequest builds an oauth2.Request from an inbound *http.Request. The
// caller must have already run r.ParseForm() for POST bodies; GET requests
// need no such call since the engine reads those parameters from Query.
func newRequest(r *http.Request) *oauth2.Request {
	headers := make(map[string]string, len(r.Header))
	for k := range r.Header {
		headers[k] = r.Header.Get(k)
	}

	query := make(map[string]string, len(r.URL.Query()))
	for k, v := range r.URL.Query() {
		if len(v) > 0 {
			query[k] = v[0]
		}
	}

	body := make(map[string]string)
	if r.Form != nil {
		for k, v := range r.Form {
			if len(v) > 0 {
				body[k] = v[0]
			}
		}
	}

	return oauth2.NewRequest(r.Method, headers, query, body, r.Header.Get("Content-Type"))
}
