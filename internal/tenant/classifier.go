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

import (
	"fmt"
	"slices"
)

// Requested roles that drive classification
const (
	RoleSuperAdmin = "ROLE_SUPER_ADMIN"
	RoleAdmin      = "ROLE_ADMIN"
)

// ClassifyType maps the roles requested for a new tenant to its Type.
// RoleSuperAdmin takes precedence over RoleAdmin; anything else, including
// no roles at all, yields a user.
func ClassifyType(roles []string) Type {
	switch {
	case slices.Contains(roles, RoleSuperAdmin):
		return TypeOrganization
	case slices.Contains(roles, RoleAdmin):
		return TypeCompany
	default:
		return TypeUser
	}
}

// ClassifyAccessLevel returns the access level fixed for t.
// It panics on a Type outside the declared constants.
func ClassifyAccessLevel(t Type) AccessLevel {
	switch t {
	case TypeOrganization:
		return AccessSuper
	case TypeCompany:
		return AccessAdmin
	case TypeUser:
		return AccessReadOnly
	}
	panic(fmt.Sprintf("tenant: no access level for tenant type %q", string(t)))
}

// Valid reports whether t is one of the declared tenant types
func (t Type) Valid() bool {
	switch t {
	case TypeOrganization, TypeCompany, TypeUser:
		return true
	}
	return false
}

// Valid reports whether l is one of the declared access levels
func (l AccessLevel) Valid() bool {
	switch l {
	case AccessSuper, AccessAdmin, AccessReadOnly:
		return true
	}
	return false
}
