package core

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/edvin/bgpvpn/internal/model"
	"github.com/edvin/bgpvpn/internal/platform"
)

// assocKind describes one association table.
type assocKind struct {
	name   string
	table  string
	column string
}

var (
	networkKind = assocKind{name: "network", table: "bgpvpn_network_associations", column: "network_id"}
	routerKind  = assocKind{name: "router", table: "bgpvpn_router_associations", column: "router_id"}
)

// assocRow is the row shape shared by both association tables.
type assocRow struct {
	ID         string
	BGPVPNID   string
	ResourceID string
	TenantID   string
	CreatedAt  time.Time
}

func (r assocRow) network() model.NetworkAssociation {
	return model.NetworkAssociation{ID: r.ID, BGPVPNID: r.BGPVPNID, NetworkID: r.ResourceID, TenantID: r.TenantID, CreatedAt: r.CreatedAt}
}

func (r assocRow) router() model.RouterAssociation {
	return model.RouterAssociation{ID: r.ID, BGPVPNID: r.BGPVPNID, RouterID: r.ResourceID, TenantID: r.TenantID, CreatedAt: r.CreatedAt}
}

// AssociationService binds networks and routers to BGPVPNs.
//
// Every mutation takes the parent BGPVPN's row lock first, so association
// changes on one BGPVPN are serialized with each other and with updates and
// deletes of that BGPVPN. Duplicate pairs are rejected by the unique
// constraint on each table, which holds across concurrent callers.
type AssociationService struct {
	db DB
}

// NewAssociationService creates a new AssociationService.
func NewAssociationService(db DB) *AssociationService {
	return &AssociationService{db: db}
}

// AssociateNetwork binds networkID to the BGPVPN. It returns ErrNotFound if
// the BGPVPN does not exist and ErrConflict if the pair is already bound.
func (s *AssociationService) AssociateNetwork(ctx context.Context, bgpvpnID, networkID string) (*model.NetworkAssociation, error) {
	row, err := s.associate(ctx, networkKind, bgpvpnID, networkID)
	if err != nil {
		return nil, err
	}
	a := row.network()
	return &a, nil
}

// AssociateRouter binds routerID to the BGPVPN. Routers can only join l3
// BGPVPNs.
func (s *AssociationService) AssociateRouter(ctx context.Context, bgpvpnID, routerID string) (*model.RouterAssociation, error) {
	row, err := s.associate(ctx, routerKind, bgpvpnID, routerID)
	if err != nil {
		return nil, err
	}
	a := row.router()
	return &a, nil
}

// DisassociateNetwork removes a network association by its ID.
func (s *AssociationService) DisassociateNetwork(ctx context.Context, bgpvpnID, assocID string) error {
	return s.disassociate(ctx, networkKind, bgpvpnID, assocID)
}

// DisassociateRouter removes a router association by its ID.
func (s *AssociationService) DisassociateRouter(ctx context.Context, bgpvpnID, assocID string) error {
	return s.disassociate(ctx, routerKind, bgpvpnID, assocID)
}

// GetNetworkAssociation retrieves one network association of a BGPVPN.
func (s *AssociationService) GetNetworkAssociation(ctx context.Context, bgpvpnID, assocID string) (*model.NetworkAssociation, error) {
	row, err := s.get(ctx, networkKind, bgpvpnID, assocID)
	if err != nil {
		return nil, err
	}
	a := row.network()
	return &a, nil
}

// GetRouterAssociation retrieves one router association of a BGPVPN.
func (s *AssociationService) GetRouterAssociation(ctx context.Context, bgpvpnID, assocID string) (*model.RouterAssociation, error) {
	row, err := s.get(ctx, routerKind, bgpvpnID, assocID)
	if err != nil {
		return nil, err
	}
	a := row.router()
	return &a, nil
}

// ListNetworkAssociations returns the network associations of a BGPVPN in
// creation order. An empty bgpvpnID lists all of them.
func (s *AssociationService) ListNetworkAssociations(ctx context.Context, bgpvpnID string) ([]model.NetworkAssociation, error) {
	rows, err := s.list(ctx, networkKind, bgpvpnID)
	if err != nil {
		return nil, err
	}
	out := make([]model.NetworkAssociation, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.network())
	}
	return out, nil
}

// ListRouterAssociations returns the router associations of a BGPVPN in
// creation order. An empty bgpvpnID lists all of them.
func (s *AssociationService) ListRouterAssociations(ctx context.Context, bgpvpnID string) ([]model.RouterAssociation, error) {
	rows, err := s.list(ctx, routerKind, bgpvpnID)
	if err != nil {
		return nil, err
	}
	out := make([]model.RouterAssociation, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.router())
	}
	return out, nil
}

func (s *AssociationService) associate(ctx context.Context, kind assocKind, bgpvpnID, resourceID string) (assocRow, error) {
	if resourceID == "" {
		return assocRow{}, invalid(kind.column, "must not be empty")
	}
	if err := checkText(kind.column, resourceID); err != nil {
		return assocRow{}, err
	}

	row := assocRow{ID: platform.NewID(), BGPVPNID: bgpvpnID, ResourceID: resourceID}
	err := inTx(ctx, s.db, func(tx pgx.Tx) error {
		var vpnType string
		err := tx.QueryRow(ctx,
			`SELECT tenant_id, type FROM bgpvpns WHERE id = $1 FOR UPDATE`, bgpvpnID,
		).Scan(&row.TenantID, &vpnType)
		if err != nil {
			return notFoundOr(err, "lock bgpvpn %s", bgpvpnID)
		}
		if kind == routerKind && vpnType != model.BGPVPNTypeL3 {
			return invalid("router_id", "routers can only be associated with %s bgpvpns", model.BGPVPNTypeL3)
		}

		err = tx.QueryRow(ctx,
			fmt.Sprintf(`INSERT INTO %s (id, bgpvpn_id, %s, tenant_id, created_at)
			 VALUES ($1, $2, $3, $4, now()) RETURNING created_at`, kind.table, kind.column),
			row.ID, bgpvpnID, resourceID, row.TenantID,
		).Scan(&row.CreatedAt)
		if isUniqueViolation(err) {
			return fmt.Errorf("%s %s is already associated with bgpvpn %s: %w", kind.name, resourceID, bgpvpnID, ErrConflict)
		}
		if err != nil {
			return fmt.Errorf("insert %s association: %w", kind.name, err)
		}
		return nil
	})
	if err != nil {
		return assocRow{}, err
	}
	return row, nil
}

func (s *AssociationService) disassociate(ctx context.Context, kind assocKind, bgpvpnID, assocID string) error {
	return inTx(ctx, s.db, func(tx pgx.Tx) error {
		var id string
		err := tx.QueryRow(ctx, `SELECT id FROM bgpvpns WHERE id = $1 FOR UPDATE`, bgpvpnID).Scan(&id)
		if err != nil {
			return notFoundOr(err, "lock bgpvpn %s", bgpvpnID)
		}

		tag, err := tx.Exec(ctx,
			fmt.Sprintf(`DELETE FROM %s WHERE id = $1 AND bgpvpn_id = $2`, kind.table),
			assocID, bgpvpnID,
		)
		if err != nil {
			return fmt.Errorf("delete %s association %s: %w", kind.name, assocID, err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("%s association %s: %w", kind.name, assocID, ErrNotFound)
		}
		return nil
	})
}

func (s *AssociationService) get(ctx context.Context, kind assocKind, bgpvpnID, assocID string) (assocRow, error) {
	var r assocRow
	err := s.db.QueryRow(ctx,
		fmt.Sprintf(`SELECT id, bgpvpn_id, %s, tenant_id, created_at FROM %s WHERE id = $1 AND bgpvpn_id = $2`,
			kind.column, kind.table),
		assocID, bgpvpnID,
	).Scan(&r.ID, &r.BGPVPNID, &r.ResourceID, &r.TenantID, &r.CreatedAt)
	if err != nil {
		return assocRow{}, notFoundOr(err, "get %s association %s", kind.name, assocID)
	}
	return r, nil
}

func (s *AssociationService) list(ctx context.Context, kind assocKind, bgpvpnID string) ([]assocRow, error) {
	query := fmt.Sprintf(`SELECT id, bgpvpn_id, %s, tenant_id, created_at FROM %s`, kind.column, kind.table)
	args := []any{}
	if bgpvpnID != "" {
		query += ` WHERE bgpvpn_id = $1`
		args = append(args, bgpvpnID)
	}
	query += ` ORDER BY created_at, id`

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list %s associations: %w", kind.name, err)
	}
	defer rows.Close()

	var out []assocRow
	for rows.Next() {
		var r assocRow
		if err := rows.Scan(&r.ID, &r.BGPVPNID, &r.ResourceID, &r.TenantID, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan %s association: %w", kind.name, err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s associations: %w", kind.name, err)
	}
	return out, nil
}
