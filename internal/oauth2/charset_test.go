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

import "testing"

func TestIsVSCharRejectsControlCharacters(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"abc123", true},
		{"state-with-\r\n", false},
		{"", false},
		{"a\tb", false},
	}
	for _, c := range cases {
		if got := IsVSChar(c.in); got != c.want {
			t.Errorf("IsVSChar(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestIsNQSCharAllowsSpaceSeparatedScopes(t *testing.T) {
	if !IsNQSChar("read write") {
		t.Error(`IsNQSChar("read write") = false, want true`)
	}
	if IsNQSChar("") {
		t.Error(`IsNQSChar("") = true, want false`)
	}
	if IsNQSChar("bad\"quote") {
		t.Error(`IsNQSChar("bad\"quote") = true, want false`)
	}
}

func TestIsURI(t *testing.T) {
	if !IsURI("https://example.com/cb") {
		t.Error("expected https URI to match")
	}
	if IsURI("not a uri") {
		t.Error("expected non-URI string to be rejected")
	}
}
