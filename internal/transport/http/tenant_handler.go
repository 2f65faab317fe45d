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
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/opentrusty/tenancy/internal/tenant"
)

// CreateTenantRequest represents tenant creation data
type CreateTenantRequest struct {
	Name             string     `json:"name" validate:"required,max=255" example:"Acme Corp"`
	SubscriptionPlan string     `json:"subscription_plan" validate:"max=64" example:"enterprise"`
	ParentID         *uuid.UUID `json:"parent_id" example:"5f0c6f1e-8d7a-4a43-9b55-2b1b8f0c2d11"`
	Roles            []string   `json:"roles" validate:"max=16,dive,required,max=64" example:"ROLE_ADMIN"`
}

// CreateTenant handles tenant creation
// @Summary Create Tenant
// @Description Create a tenant under an optional parent. Its type and access level follow from the requested roles.
// @Tags Tenant
// @Accept json
// @Produce json
// @Param request body CreateTenantRequest true "Tenant Data"
// @Success 201 {object} tenant.Created
// @Failure 400 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /tenants [post]
func (h *Handler) CreateTenant(w http.ResponseWriter, r *http.Request) {
	var req CreateTenantRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	created, err := h.tenantService.CreateTenant(r.Context(), tenant.CreateInput{
		Name:             req.Name,
		SubscriptionPlan: req.SubscriptionPlan,
		ParentID:         req.ParentID,
		Roles:            req.Roles,
	})
	if err != nil {
		respondServiceError(w, r, "create_tenant", err)
		return
	}

	respondJSON(w, http.StatusCreated, created)
}

// GetTenant returns a single tenant
// @Summary Get Tenant
// @Tags Tenant
// @Produce json
// @Param tenantID path string true "Tenant ID"
// @Success 200 {object} tenant.Summary
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /tenants/{tenantID} [get]
func (h *Handler) GetTenant(w http.ResponseWriter, r *http.Request) {
	id, ok := tenantIDParam(w, r)
	if !ok {
		return
	}

	t, err := h.tenantService.GetTenant(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, "get_tenant", err)
		return
	}

	respondJSON(w, http.StatusOK, t)
}

// ListTenants lists every tenant
// @Summary List Tenants
// @Tags Tenant
// @Produce json
// @Success 200 {array} tenant.Summary
// @Failure 503 {object} map[string]string
// @Router /tenants [get]
func (h *Handler) ListTenants(w http.ResponseWriter, r *http.Request) {
	tenants, err := h.tenantService.ListTenants(r.Context())
	if err != nil {
		respondServiceError(w, r, "list_tenants", err)
		return
	}

	respondJSON(w, http.StatusOK, tenants)
}

// ListChildren lists the direct children of a tenant
// @Summary List Child Tenants
// @Tags Tenant
// @Produce json
// @Param tenantID path string true "Parent Tenant ID"
// @Success 200 {array} tenant.Summary
// @Failure 400 {object} map[string]string
// @Router /tenants/{tenantID}/children [get]
func (h *Handler) ListChildren(w http.ResponseWriter, r *http.Request) {
	id, ok := tenantIDParam(w, r)
	if !ok {
		return
	}

	children, err := h.tenantService.ListChildren(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, "list_children", err)
		return
	}

	respondJSON(w, http.StatusOK, children)
}

// GetSubtree returns the nested company/user tree rooted at a tenant
// @Summary Get Tenant Tree
// @Tags Tenant
// @Produce json
// @Param tenantID path string true "Root Tenant ID"
// @Success 200 {object} tenant.TreeNode
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /tenants/{tenantID}/tree [get]
func (h *Handler) GetSubtree(w http.ResponseWriter, r *http.Request) {
	id, ok := tenantIDParam(w, r)
	if !ok {
		return
	}

	tree, err := h.tenantService.GetSubtree(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, "get_subtree", err)
		return
	}

	respondJSON(w, http.StatusOK, tree)
}

func tenantIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "tenantID"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid tenant id")
		return uuid.Nil, false
	}
	return id, true
}

func validationMessage(err error) string {
	var errs validator.ValidationErrors
	if errors.As(err, &errs) && len(errs) > 0 {
		fe := errs[0]
		return "invalid field " + fe.Field() + ": failed " + fe.Tag() + " validation"
	}
	return "invalid request body"
}
