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
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// GetSubtree assembles the nested company/user tree rooted at rootID.
// Users are the root's direct USER children; every direct COMPANY child is
// expanded the same way. Any tenant type may be the root.
func (s *Service) GetSubtree(ctx context.Context, rootID uuid.UUID) (*TreeNode, error) {
	ctx, span := s.tracer.Start(ctx, "tenant.GetSubtree",
		trace.WithAttributes(attribute.String("tenant.id", rootID.String())))
	defer span.End()

	root, err := s.repo.GetByID(ctx, rootID)
	if err != nil {
		return nil, fail(span, err)
	}

	var nodes atomic.Int64
	tree, err := s.buildNode(ctx, root, nil, &nodes)
	if err != nil {
		return nil, fail(span, err)
	}

	visited := nodes.Load()
	span.SetAttributes(attribute.Int64("tenant.subtree_nodes", visited))
	s.instruments.SubtreeNodes.Record(ctx, float64(visited))
	slog.DebugContext(ctx, "assembled tenant subtree",
		slog.String("tenant_id", rootID.String()),
		slog.Int64("nodes", visited),
	)

	return tree, nil
}

// lineage is the chain of company IDs from the subtree root down to the
// node being built. Branches share their common prefix.
type lineage struct {
	id     uuid.UUID
	parent *lineage
}

func (l *lineage) contains(id uuid.UUID) bool {
	for n := l; n != nil; n = n.parent {
		if n.id == id {
			return true
		}
	}
	return false
}

func (s *Service) buildNode(ctx context.Context, t *Tenant, ancestors *lineage, nodes *atomic.Int64) (*TreeNode, error) {
	if ancestors.contains(t.ID) {
		return nil, fmt.Errorf("%w: tenant %s is its own ancestor", ErrHierarchyCycle, t.ID)
	}
	nodes.Add(1)
	path := &lineage{id: t.ID, parent: ancestors}

	users, err := s.repo.ListByParentAndType(ctx, t.ID, TypeUser)
	if err != nil {
		return nil, fmt.Errorf("failed to list users of tenant %s: %w", t.ID, err)
	}
	companies, err := s.repo.ListByParentAndType(ctx, t.ID, TypeCompany)
	if err != nil {
		return nil, fmt.Errorf("failed to list companies of tenant %s: %w", t.ID, err)
	}

	node := &TreeNode{
		Company:      t.Summary(),
		Users:        summaries(users),
		SubCompanies: make([]*TreeNode, len(companies)),
	}

	if s.concurrency <= 1 || len(companies) < 2 {
		for i, c := range companies {
			child, err := s.buildNode(ctx, c, path, nodes)
			if err != nil {
				return nil, err
			}
			node.SubCompanies[i] = child
		}
		return node, nil
	}

	// Each child writes only its own slot, so store order is kept.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, c := range companies {
		i, c := i, c
		g.Go(func() error {
			child, err := s.buildNode(gctx, c, path, nodes)
			if err != nil {
				return err
			}
			node.SubCompanies[i] = child
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return node, nil
}
