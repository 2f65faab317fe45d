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
	"time"

	"github.com/google/uuid"
)

// Type classifies a tenant's position in the hierarchy
type Type string

// Tenant types
const (
	TypeOrganization Type = "ORGANIZATION"
	TypeCompany      Type = "COMPANY"
	TypeUser         Type = "USER"
)

// AccessLevel is the permission tier derived from a tenant's Type
type AccessLevel string

// Access levels
const (
	AccessSuper    AccessLevel = "SUPER"
	AccessAdmin    AccessLevel = "ADMIN"
	AccessReadOnly AccessLevel = "READ_ONLY"
)

// Tenant is a node in the Organization → Company → User hierarchy.
//
// ParentID is a lookup key into the store, never an owned object. It is nil
// only for root tenants and is not changed after creation.
type Tenant struct {
	ID               uuid.UUID
	Name             string
	SubscriptionPlan string
	CreatedAt        time.Time
	ParentID         *uuid.UUID
	Type             Type
	AccessLevel      AccessLevel
}

// Summary is the read projection of a tenant
type Summary struct {
	ID               uuid.UUID   `json:"id"`
	Name             string      `json:"name"`
	SubscriptionPlan string      `json:"subscription_plan"`
	ParentID         *uuid.UUID  `json:"parent_id"`
	Type             Type        `json:"tenant_type"`
	AccessLevel      AccessLevel `json:"access_level"`
	CreatedAt        time.Time   `json:"created_at"`
}

// Created is returned by CreateTenant. KeyspaceName is a provisioning hint
// and is not persisted with the tenant.
type Created struct {
	ID               uuid.UUID   `json:"id"`
	Name             string      `json:"name"`
	SubscriptionPlan string      `json:"subscription_plan"`
	KeyspaceName     string      `json:"keyspace_name"`
	CreatedAt        time.Time   `json:"created_at"`
	Type             Type        `json:"tenant_type"`
	AccessLevel      AccessLevel `json:"access_level"`
}

// TreeNode is one level of an assembled subtree: a tenant, its direct users
// and its direct sub-companies, each expanded recursively.
type TreeNode struct {
	Company      *Summary    `json:"company"`
	Users        []*Summary  `json:"users"`
	SubCompanies []*TreeNode `json:"sub_companies"`
}

// Summary projects t for read responses
func (t *Tenant) Summary() *Summary {
	s := &Summary{
		ID:               t.ID,
		Name:             t.Name,
		SubscriptionPlan: t.SubscriptionPlan,
		Type:             t.Type,
		AccessLevel:      t.AccessLevel,
		CreatedAt:        t.CreatedAt,
	}
	if t.ParentID != nil {
		parent := *t.ParentID
		s.ParentID = &parent
	}
	return s
}

// IsRoot reports whether t has no parent
func (t *Tenant) IsRoot() bool {
	return t.ParentID == nil
}

func summaries(tenants []*Tenant) []*Summary {
	out := make([]*Summary, 0, len(tenants))
	for _, t := range tenants {
		out = append(out, t.Summary())
	}
	return out
}
