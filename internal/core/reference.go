package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/edvin/bgpvpn/internal/model"
)

const resolveConcurrency = 8

// Resolver looks up networks and routers in the service that owns them.
// Lookups of unknown resources return an error matching ErrNotFound.
type Resolver interface {
	Network(ctx context.Context, id string) (*model.ResourceRef, error)
	Router(ctx context.Context, id string) (*model.ResourceRef, error)
}

// ReferenceService checks and describes the networks and routers bound to
// BGPVPNs. With a nil Resolver every reference is trusted as found.
type ReferenceService struct {
	resolver Resolver
}

// NewReferenceService creates a new ReferenceService.
func NewReferenceService(resolver Resolver) *ReferenceService {
	return &ReferenceService{resolver: resolver}
}

// Enabled reports whether references are checked against a resolver.
func (s *ReferenceService) Enabled() bool {
	return s.resolver != nil
}

// VerifyNetwork checks that identity may bind networkID.
func (s *ReferenceService) VerifyNetwork(ctx context.Context, identity *model.Identity, networkID string) error {
	if s.resolver == nil {
		return nil
	}
	return verify(ctx, identity, "network", networkID, s.resolver.Network)
}

// VerifyRouter checks that identity may bind routerID.
func (s *ReferenceService) VerifyRouter(ctx context.Context, identity *model.Identity, routerID string) error {
	if s.resolver == nil {
		return nil
	}
	return verify(ctx, identity, "router", routerID, s.resolver.Router)
}

// ResolveNetworks describes each network id, preserving order.
func (s *ReferenceService) ResolveNetworks(ctx context.Context, ids []string) []model.ResourceRef {
	if s.resolver == nil {
		return trusted(ids)
	}
	return resolveAll(ctx, "network", ids, s.resolver.Network)
}

// ResolveRouters describes each router id, preserving order.
func (s *ReferenceService) ResolveRouters(ctx context.Context, ids []string) []model.ResourceRef {
	if s.resolver == nil {
		return trusted(ids)
	}
	return resolveAll(ctx, "router", ids, s.resolver.Router)
}

type lookupFunc func(ctx context.Context, id string) (*model.ResourceRef, error)

func verify(ctx context.Context, identity *model.Identity, kind, id string, lookup lookupFunc) error {
	ref, err := lookup(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("look up %s %s: %w", kind, id, err)
	}
	ref.ID = id
	ref.Found = true
	return CanReference(identity, kind, ref)
}

func resolveAll(ctx context.Context, kind string, ids []string, lookup lookupFunc) []model.ResourceRef {
	refs := make([]model.ResourceRef, len(ids))

	var g errgroup.Group
	g.SetLimit(resolveConcurrency)
	for i, id := range ids {
		g.Go(func() error {
			ref, err := lookup(ctx, id)
			switch {
			case errors.Is(err, ErrNotFound):
				refs[i] = model.ResourceRef{ID: id}
			case err != nil:
				zerolog.Ctx(ctx).Warn().Err(err).Str(kind+"_id", id).Msgf("failed to resolve %s", kind)
				refs[i] = model.ResourceRef{ID: id, Error: "lookup failed"}
			default:
				ref.ID = id
				ref.Found = true
				refs[i] = *ref
			}
			return nil
		})
	}
	_ = g.Wait()
	return refs
}

func trusted(ids []string) []model.ResourceRef {
	refs := make([]model.ResourceRef, 0, len(ids))
	for _, id := range ids {
		refs = append(refs, model.ResourceRef{ID: id, Found: true})
	}
	return refs
}
