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

import "regexp"

// Character-class predicates from RFC 6749 Appendix A. Each one reports
// whether the entire input string matches the class; an empty string never
// matches. Callers that treat a parameter as optional must not call these
// on an absent value — an absent value is "not tested", not a pass.
var (
	reNChar             = regexp.MustCompile(`^[-._\w]+$`)
	reNQChar            = regexp.MustCompile(`^[\x21\x23-\x5B\x5D-\x7E]+$`)
	reNQSChar           = regexp.MustCompile(`^[\x20-\x21\x23-\x5B\x5D-\x7E]+$`)
	reUnicodeCharNoCRLF = regexp.MustCompile(`^[\x{09}\x{20}-\x{7E}\x{80}-\x{D7FF}\x{E000}-\x{FFFD}\x{10000}-\x{10FFFF}]+$`)
	reURI               = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9+.\-]+:`)
	reVSChar            = regexp.MustCompile(`^[\x20-\x7E]+$`)
)

// IsNChar reports whether s is entirely NCHAR: "-._" plus word characters.
// Used for grant_type (RFC 6749 Appendix A.10).
func IsNChar(s string) bool { return s != "" && reNChar.MatchString(s) }

// IsNQChar reports whether s is entirely NQCHAR: visible ASCII excluding
// the double quote and backslash (RFC 6749 Appendix A.7).
func IsNQChar(s string) bool { return s != "" && reNQChar.MatchString(s) }

// IsNQSChar reports whether s is entirely NQSCHAR: NQCHAR plus space. Used
// for the scope parameter (RFC 6749 Appendix A.4).
func IsNQSChar(s string) bool { return s != "" && reNQSChar.MatchString(s) }

// IsUnicodeCharNoCRLF reports whether s is entirely UNICODECHARNOCRLF: tab,
// printable ASCII, and every code point from U+0080 up except surrogates and
// U+FFFE/U+FFFF (CR, LF and the other ASCII controls are rejected), used for
// usernames and passwords in the password grant (RFC 6749 Appendix A.2/A.3).
func IsUnicodeCharNoCRLF(s string) bool { return s != "" && reUnicodeCharNoCRLF.MatchString(s) }

// IsURI reports whether s begins with a URI scheme prefix ("scheme:"). This
// is a scheme-prefix check only, not a full RFC 3986 parse.
func IsURI(s string) bool { return s != "" && reURI.MatchString(s) }

// IsVSChar reports whether s is entirely VSCHAR: visible printable ASCII,
// used for client_id, state and authorization codes (RFC 6749 Appendix A.5).
func IsVSChar(s string) bool { return s != "" && reVSChar.MatchString(s) }
