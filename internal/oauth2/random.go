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
	"crypto/rand"
	"crypto/sha1"
	"encoding/hex"
)

// GenerateOpaqueToken returns a 40-character hex string derived from
// SHA-1 of 256 random bytes. It is an opaque identifier, not a
// secret-derivation function — the engine falls back to it only when a
// Model does not supply its own generator.
func GenerateOpaqueToken() string {
	buf := make([]byte, 256)
	if _, err := rand.Read(buf); err != nil {
		panic("oauth2: failed to read random bytes: " + err.Error())
	}
	sum := sha1.Sum(buf)
	return hex.EncodeToString(sum[:])
}
