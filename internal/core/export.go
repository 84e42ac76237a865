package core

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/edvin/bgpvpn/internal/model"
)

const exportPageSize = 200

// ExportService builds inventory snapshots of every BGPVPN and association.
type ExportService struct {
	bgpvpns *BGPVPNService
	assocs  *AssociationService
	now     func() time.Time
}

// NewExportService creates a new ExportService.
func NewExportService(bgpvpns *BGPVPNService, assocs *AssociationService) *ExportService {
	return &ExportService{bgpvpns: bgpvpns, assocs: assocs, now: time.Now}
}

// Snapshot reads the full inventory. The three listings run in parallel and
// are not taken from a single transaction.
func (s *ExportService) Snapshot(ctx context.Context) (*model.Snapshot, error) {
	snap := &model.Snapshot{GeneratedAt: s.now().UTC()}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		vpns, err := s.allBGPVPNs(ctx)
		snap.BGPVPNs = vpns
		return err
	})
	g.Go(func() error {
		assocs, err := s.assocs.ListNetworkAssociations(ctx, "")
		snap.NetworkAssociations = assocs
		return err
	})
	g.Go(func() error {
		assocs, err := s.assocs.ListRouterAssociations(ctx, "")
		snap.RouterAssociations = assocs
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	return snap, nil
}

func (s *ExportService) allBGPVPNs(ctx context.Context) ([]model.BGPVPN, error) {
	all := []model.BGPVPN{}
	filter := model.BGPVPNFilter{Limit: exportPageSize}
	for {
		page, hasMore, err := s.bgpvpns.List(ctx, filter)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if !hasMore || len(page) == 0 {
			return all, nil
		}
		filter.Cursor = page[len(page)-1].ID
	}
}

// SnapshotKey is the object key a snapshot taken at t is stored under.
func SnapshotKey(t time.Time) string {
	return "snapshots/bgpvpn-" + t.UTC().Format("20060102T150405Z") + ".json"
}
