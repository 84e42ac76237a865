package core

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/edvin/bgpvpn/internal/bgp"
	"github.com/edvin/bgpvpn/internal/model"
	"github.com/edvin/bgpvpn/internal/platform"
)

const maxNameLength = 255

// selectBGPVPN reads a BGPVPN together with the ids of its associated
// networks and routers, in association order.
const selectBGPVPN = `SELECT b.id, b.tenant_id, b.name, b.type, b.route_targets, b.import_targets,
	b.export_targets, b.route_distinguishers, b.vni, b.local_pref,
	COALESCE((SELECT array_agg(n.network_id ORDER BY n.created_at, n.id)
		FROM bgpvpn_network_associations n WHERE n.bgpvpn_id = b.id), '{}') AS networks,
	COALESCE((SELECT array_agg(r.router_id ORDER BY r.created_at, r.id)
		FROM bgpvpn_router_associations r WHERE r.bgpvpn_id = b.id), '{}') AS routers,
	b.created_at, b.updated_at
	FROM bgpvpns b`

type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// BGPVPNService stores BGPVPN resources in the database.
type BGPVPNService struct {
	db DB
}

// NewBGPVPNService creates a new BGPVPNService.
func NewBGPVPNService(db DB) *BGPVPNService {
	return &BGPVPNService{db: db}
}

// Create validates and inserts a BGPVPN, assigning its ID. An empty type
// defaults to l3.
func (s *BGPVPNService) Create(ctx context.Context, vpn *model.BGPVPN) error {
	if vpn.Type == "" {
		vpn.Type = model.BGPVPNTypeL3
	}
	normalizeSets(vpn)
	if err := validateBGPVPN(vpn); err != nil {
		return err
	}

	vpn.ID = platform.NewID()
	vpn.Networks = []string{}
	vpn.Routers = []string{}

	err := s.db.QueryRow(ctx,
		`INSERT INTO bgpvpns (id, tenant_id, name, type, route_targets, import_targets, export_targets,
			route_distinguishers, vni, local_pref, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now(), now())
		 RETURNING created_at, updated_at`,
		vpn.ID, vpn.TenantID, vpn.Name, vpn.Type, vpn.RouteTargets, vpn.ImportTargets, vpn.ExportTargets,
		vpn.RouteDistinguishers, vpn.VNI, vpn.LocalPref,
	).Scan(&vpn.CreatedAt, &vpn.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert bgpvpn: %w", err)
	}
	return nil
}

// GetByID retrieves a BGPVPN by its ID.
func (s *BGPVPNService) GetByID(ctx context.Context, id string) (*model.BGPVPN, error) {
	return getBGPVPN(ctx, s.db, id)
}

func getBGPVPN(ctx context.Context, q rowQuerier, id string) (*model.BGPVPN, error) {
	vpn, err := scanBGPVPN(q.QueryRow(ctx, selectBGPVPN+` WHERE b.id = $1`, id))
	if err != nil {
		return nil, notFoundOr(err, "get bgpvpn %s", id)
	}
	return vpn, nil
}

// Update applies the non-nil fields of upd to the BGPVPN. Target and route
// distinguisher sets are replaced, never merged. The row is locked for the
// duration so concurrent updates and association changes serialize.
func (s *BGPVPNService) Update(ctx context.Context, id string, upd model.BGPVPNUpdate) (*model.BGPVPN, error) {
	var updated *model.BGPVPN
	err := inTx(ctx, s.db, func(tx pgx.Tx) error {
		vpn, err := lockBGPVPN(ctx, tx, id)
		if err != nil {
			return err
		}

		applyUpdate(vpn, upd)
		normalizeSets(vpn)
		if err := validateBGPVPN(vpn); err != nil {
			return err
		}

		_, err = tx.Exec(ctx,
			`UPDATE bgpvpns SET name = $1, route_targets = $2, import_targets = $3, export_targets = $4,
				route_distinguishers = $5, vni = $6, local_pref = $7, updated_at = now()
			 WHERE id = $8`,
			vpn.Name, vpn.RouteTargets, vpn.ImportTargets, vpn.ExportTargets,
			vpn.RouteDistinguishers, vpn.VNI, vpn.LocalPref, id,
		)
		if err != nil {
			return fmt.Errorf("update bgpvpn %s: %w", id, err)
		}

		updated, err = getBGPVPN(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes a BGPVPN. Its network and router associations are removed
// with it by the foreign key cascade.
func (s *BGPVPNService) Delete(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM bgpvpns WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete bgpvpn %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete bgpvpn %s: %w", id, ErrNotFound)
	}
	return nil
}

// List retrieves BGPVPNs matching the filter with cursor-based pagination.
func (s *BGPVPNService) List(ctx context.Context, f model.BGPVPNFilter) ([]model.BGPVPN, bool, error) {
	for field, v := range map[string]string{"tenant_id": f.TenantID, "name": f.Name, "type": f.Type, "cursor": f.Cursor} {
		if err := checkText(field, v); err != nil {
			return nil, false, err
		}
	}

	query := selectBGPVPN + ` WHERE 1=1`
	args := []any{}
	argIdx := 1

	if f.TenantID != "" {
		query += fmt.Sprintf(` AND b.tenant_id = $%d`, argIdx)
		args = append(args, f.TenantID)
		argIdx++
	}
	if f.Name != "" {
		query += fmt.Sprintf(` AND b.name = $%d`, argIdx)
		args = append(args, f.Name)
		argIdx++
	}
	if f.Type != "" {
		query += fmt.Sprintf(` AND b.type = $%d`, argIdx)
		args = append(args, f.Type)
		argIdx++
	}
	if f.Cursor != "" {
		query += fmt.Sprintf(` AND b.id > $%d`, argIdx)
		args = append(args, f.Cursor)
		argIdx++
	}

	query += ` ORDER BY b.id`
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, f.Limit+1)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, false, fmt.Errorf("list bgpvpns: %w", err)
	}
	defer rows.Close()

	var vpns []model.BGPVPN
	for rows.Next() {
		vpn, err := scanBGPVPN(rows)
		if err != nil {
			return nil, false, fmt.Errorf("scan bgpvpn: %w", err)
		}
		vpns = append(vpns, *vpn)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterate bgpvpns: %w", err)
	}

	hasMore := len(vpns) > f.Limit
	if hasMore {
		vpns = vpns[:f.Limit]
	}
	return vpns, hasMore, nil
}

// lockBGPVPN reads the stored attributes of a BGPVPN and takes its row lock.
// Networks and Routers are left empty.
func lockBGPVPN(ctx context.Context, tx pgx.Tx, id string) (*model.BGPVPN, error) {
	var v model.BGPVPN
	err := tx.QueryRow(ctx,
		`SELECT id, tenant_id, name, type, route_targets, import_targets, export_targets,
			route_distinguishers, vni, local_pref, created_at, updated_at
		 FROM bgpvpns WHERE id = $1 FOR UPDATE`, id,
	).Scan(&v.ID, &v.TenantID, &v.Name, &v.Type, &v.RouteTargets, &v.ImportTargets, &v.ExportTargets,
		&v.RouteDistinguishers, &v.VNI, &v.LocalPref, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return nil, notFoundOr(err, "lock bgpvpn %s", id)
	}
	return &v, nil
}

func scanBGPVPN(row pgx.Row) (*model.BGPVPN, error) {
	var v model.BGPVPN
	if err := row.Scan(&v.ID, &v.TenantID, &v.Name, &v.Type, &v.RouteTargets, &v.ImportTargets,
		&v.ExportTargets, &v.RouteDistinguishers, &v.VNI, &v.LocalPref, &v.Networks, &v.Routers,
		&v.CreatedAt, &v.UpdatedAt); err != nil {
		return nil, err
	}
	return &v, nil
}

func applyUpdate(vpn *model.BGPVPN, upd model.BGPVPNUpdate) {
	if upd.Name != nil {
		vpn.Name = *upd.Name
	}
	if upd.RouteTargets != nil {
		vpn.RouteTargets = upd.RouteTargets
	}
	if upd.ImportTargets != nil {
		vpn.ImportTargets = upd.ImportTargets
	}
	if upd.ExportTargets != nil {
		vpn.ExportTargets = upd.ExportTargets
	}
	if upd.RouteDistinguishers != nil {
		vpn.RouteDistinguishers = upd.RouteDistinguishers
	}
	if upd.VNI != nil {
		vpn.VNI = upd.VNI
	}
	if upd.LocalPref != nil {
		vpn.LocalPref = upd.LocalPref
	}
}

func normalizeSets(vpn *model.BGPVPN) {
	vpn.RouteTargets = bgp.Dedup(vpn.RouteTargets)
	vpn.ImportTargets = bgp.Dedup(vpn.ImportTargets)
	vpn.ExportTargets = bgp.Dedup(vpn.ExportTargets)
	vpn.RouteDistinguishers = bgp.Dedup(vpn.RouteDistinguishers)
}

func validateBGPVPN(vpn *model.BGPVPN) error {
	if vpn.TenantID == "" {
		return invalid("tenant_id", "must not be empty")
	}
	if err := checkText("tenant_id", vpn.TenantID); err != nil {
		return err
	}
	if err := checkText("name", vpn.Name); err != nil {
		return err
	}
	if vpn.Type != model.BGPVPNTypeL2 && vpn.Type != model.BGPVPNTypeL3 {
		return invalid("type", "must be one of %s, %s", model.BGPVPNTypeL2, model.BGPVPNTypeL3)
	}
	if len(vpn.Name) > maxNameLength {
		return invalid("name", "must be at most %d characters", maxNameLength)
	}

	sets := []struct {
		field  string
		values []string
	}{
		{"route_targets", vpn.RouteTargets},
		{"import_targets", vpn.ImportTargets},
		{"export_targets", vpn.ExportTargets},
	}
	for _, set := range sets {
		if err := bgp.ValidateRouteTargets(set.values); err != nil {
			return invalid(set.field, "%s", err)
		}
	}
	if err := bgp.ValidateRouteDistinguishers(vpn.RouteDistinguishers); err != nil {
		return invalid("route_distinguishers", "%s", err)
	}

	if vpn.VNI != nil && (*vpn.VNI < model.MinVNI || *vpn.VNI > model.MaxVNI) {
		return invalid("vni", "must be between %d and %d", model.MinVNI, model.MaxVNI)
	}
	if vpn.LocalPref != nil && (*vpn.LocalPref < 0 || *vpn.LocalPref > model.MaxLocalPref) {
		return invalid("local_pref", "must be between 0 and %d", int64(model.MaxLocalPref))
	}
	return nil
}
