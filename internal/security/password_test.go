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

package security

import "testing"

func TestHashAndVerify(t *testing.T) {
	h := NewHasher(64*1024, 1, 1, 16, 32)

	encoded, err := h.Hash("correct horse battery staple")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}

	ok, err := h.Verify("correct horse battery staple", encoded)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !ok {
		t.Fatal("Verify: expected match")
	}

	ok, err = h.Verify("wrong password", encoded)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if ok {
		t.Fatal("Verify: expected mismatch")
	}
}

func TestHashProducesUniqueSalts(t *testing.T) {
	h := NewHasher(64*1024, 1, 1, 16, 32)

	a, err := h.Hash("secret")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	b, err := h.Hash("secret")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if a == b {
		t.Fatal("expected distinct encodings for repeated hashing of the same secret")
	}
}

func TestVerifyRejectsMalformedHash(t *testing.T) {
	h := DefaultHasher()
	if _, err := h.Verify("secret", "not-a-hash"); err == nil {
		t.Fatal("expected error for malformed hash")
	}
}
