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


package tenant

import "strings"

// KeyspaceSuffix is appended to every derived keyspace name
const KeyspaceSuffix = "_ks"

// KeyspaceName derives the storage namespace hint for a tenant name:
// lower-cased, stripped of everything outside [a-z0-9], suffixed.
// Distinct names may collide ("A-1" and "A1" both give "a1_ks").
func KeyspaceName(name string) string {
	stripped := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			return r
		}
		return -1
	}, strings.ToLower(name))
	return stripped + KeyspaceSuffix
}
