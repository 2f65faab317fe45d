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
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/opentrusty/tenancy/internal/audit"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/opentrusty/tenancy/internal/tenant"

// Instruments are the metrics recorded by the service
type Instruments struct {
	Created      metric.Int64Counter
	SubtreeNodes metric.Float64Histogram
}

// Service provides tenant hierarchy business logic
type Service struct {
	repo        Repository
	auditLogger audit.Logger
	tracer      trace.Tracer
	instruments Instruments
	concurrency int
	newID       func() uuid.UUID
	now         func() time.Time
}

// Option configures a Service
type Option func(*Service)

// WithTracer sets the tracer used for service spans
func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		if tracer != nil {
			s.tracer = tracer
		}
	}
}

// WithInstruments sets the metric instruments. Nil instruments stay no-op.
func WithInstruments(in Instruments) Option {
	return func(s *Service) {
		if in.Created != nil {
			s.instruments.Created = in.Created
		}
		if in.SubtreeNodes != nil {
			s.instruments.SubtreeNodes = in.SubtreeNodes
		}
	}
}

// WithSubtreeConcurrency bounds how many sibling branches GetSubtree
// assembles at once. Values below 2 keep assembly sequential.
func WithSubtreeConcurrency(n int) Option {
	return func(s *Service) {
		if n < 1 {
			n = 1
		}
		s.concurrency = n
	}
}

// WithClock overrides the creation timestamp source
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithIDGenerator overrides tenant ID generation
func WithIDGenerator(fn func() uuid.UUID) Option {
	return func(s *Service) {
		s.newID = fn
	}
}

// NewService creates a new tenant service
func NewService(repo Repository, auditLogger audit.Logger, opts ...Option) *Service {
	s := &Service{
		repo:        repo,
		auditLogger: auditLogger,
		tracer:      otel.Tracer(instrumentationName),
		instruments: Instruments{
			Created:      noop.Int64Counter{},
			SubtreeNodes: noop.Float64Histogram{},
		},
		concurrency: 1,
		newID:       uuid.New,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateInput carries the caller-supplied fields of a new tenant
type CreateInput struct {
	Name             string
	SubscriptionPlan string
	ParentID         *uuid.UUID
	Roles            []string
}

// CreateTenant validates the parent, classifies the tenant from the
// requested roles and persists it with a single write.
func (s *Service) CreateTenant(ctx context.Context, in CreateInput) (*Created, error) {
	ctx, span := s.tracer.Start(ctx, "tenant.CreateTenant")
	defer span.End()

	if strings.TrimSpace(in.Name) == "" {
		return nil, fail(span, ErrNameRequired)
	}

	if in.ParentID != nil {
		span.SetAttributes(attribute.String("tenant.parent_id", in.ParentID.String()))
		if _, err := s.repo.GetByID(ctx, *in.ParentID); err != nil {
			if errors.Is(err, ErrTenantNotFound) {
				return nil, fail(span, fmt.Errorf("%w: %s", ErrParentNotFound, in.ParentID))
			}
			return nil, fail(span, fmt.Errorf("failed to look up parent tenant: %w", err))
		}
	}

	tenantType := ClassifyType(in.Roles)
	accessLevel := ClassifyAccessLevel(tenantType)

	t := &Tenant{
		ID:               s.newID(),
		Name:             in.Name,
		SubscriptionPlan: in.SubscriptionPlan,
		CreatedAt:        s.now().UTC().Truncate(time.Microsecond),
		Type:             tenantType,
		AccessLevel:      accessLevel,
	}
	if in.ParentID != nil {
		parent := *in.ParentID
		t.ParentID = &parent
	}
	span.SetAttributes(
		attribute.String("tenant.id", t.ID.String()),
		attribute.String("tenant.type", string(tenantType)),
	)

	if err := s.repo.Save(ctx, t); err != nil {
		return nil, fail(span, fmt.Errorf("failed to create tenant: %w", err))
	}

	keyspace := KeyspaceName(t.Name)

	s.instruments.Created.Add(ctx, 1, metric.WithAttributes(attribute.String("tenant_type", string(tenantType))))

	metadata := map[string]any{
		"tenant_type":   string(tenantType),
		"access_level":  string(accessLevel),
		"keyspace_name": keyspace,
	}
	if t.ParentID != nil {
		metadata["parent_id"] = t.ParentID.String()
	}
	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeTenantCreated,
		TenantID: t.ID.String(),
		Resource: t.Name,
		Metadata: metadata,
	})

	return &Created{
		ID:               t.ID,
		Name:             t.Name,
		SubscriptionPlan: t.SubscriptionPlan,
		KeyspaceName:     keyspace,
		CreatedAt:        t.CreatedAt,
		Type:             t.Type,
		AccessLevel:      t.AccessLevel,
	}, nil
}

// GetTenant retrieves a tenant by ID
func (s *Service) GetTenant(ctx context.Context, id uuid.UUID) (*Summary, error) {
	ctx, span := s.tracer.Start(ctx, "tenant.GetTenant",
		trace.WithAttributes(attribute.String("tenant.id", id.String())))
	defer span.End()

	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fail(span, err)
	}
	return t.Summary(), nil
}

// ListTenants lists every tenant in the store's natural order
func (s *Service) ListTenants(ctx context.Context) ([]*Summary, error) {
	ctx, span := s.tracer.Start(ctx, "tenant.ListTenants")
	defer span.End()

	tenants, err := s.repo.List(ctx)
	if err != nil {
		return nil, fail(span, fmt.Errorf("failed to list tenants: %w", err))
	}
	return summaries(tenants), nil
}

// ListChildren lists the direct children of parentID. An unknown parent
// has no children.
func (s *Service) ListChildren(ctx context.Context, parentID uuid.UUID) ([]*Summary, error) {
	ctx, span := s.tracer.Start(ctx, "tenant.ListChildren",
		trace.WithAttributes(attribute.String("tenant.parent_id", parentID.String())))
	defer span.End()

	tenants, err := s.repo.ListByParent(ctx, parentID)
	if err != nil {
		return nil, fail(span, fmt.Errorf("failed to list child tenants: %w", err))
	}
	return summaries(tenants), nil
}

func fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
