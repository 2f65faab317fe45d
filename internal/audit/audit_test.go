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


package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestPurpose: Validates that sensitive keys are identified as secrets so they never reach the audit log in plaintext.
// Scope: Unit Test
// Expected: Returns true for keys naming passwords, tokens, secrets and keys, false for hierarchy metadata.
// Test Case ID: AUD-01
func TestAudit_IsSecret(t *testing.T) {
	tests := []struct {
		key      string
		isSecret bool
	}{
		{"password", true},
		{"PASSWORD", true},
		{"access_token", true},
		{"api_key", true},
		{"private_key", true},
		{"password_hash", true},
		{"credential", true},
		{"key", true},
		{"tenant_id", false},
		{"parent_id", false},
		{"tenant_type", false},
		{"access_level", false},
		{"keyspace_name", false},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.isSecret, isSecret(tt.key))
		})
	}
}

// TestPurpose: Validates that a tenant creation event is written as one structured record with its metadata group.
// Scope: Unit Test
// Expected: The record carries the audit type, tenant id and metadata, with secrets redacted.
// Test Case ID: AUD-02
func TestAudit_SlogLogger_WritesEvent(t *testing.T) {
	var buf bytes.Buffer
	l := NewSlogLogger(slog.New(slog.NewJSONHandler(&buf, nil)))

	l.Log(context.Background(), Event{
		Type:     TypeTenantCreated,
		TenantID: "3f1c9a52-52e1-4c1e-9d55-6a4f0e8f2b11",
		Resource: "Acme Corp",
		Metadata: map[string]any{
			"tenant_type":   "COMPANY",
			"keyspace_name": "acmecorp_ks",
			"api_key":       "do-not-log",
		},
	})

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "AUDIT_EVENT", rec["msg"])
	assert.Equal(t, TypeTenantCreated, rec["audit_type"])
	assert.Equal(t, "3f1c9a52-52e1-4c1e-9d55-6a4f0e8f2b11", rec["tenant_id"])
	assert.Equal(t, "audit", rec["component"])

	meta, ok := rec["metadata"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "COMPANY", meta["tenant_type"])
	assert.Equal(t, "acmecorp_ks", meta["keyspace_name"])
	assert.Equal(t, "[REDACTED]", meta["api_key"])
}
