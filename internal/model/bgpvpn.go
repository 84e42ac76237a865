package model

import "time"

// BGPVPN types.
const (
	BGPVPNTypeL2 = "l2"
	BGPVPNTypeL3 = "l3"
)

// Bounds for the optional numeric BGPVPN attributes.
const (
	MinVNI       = 1
	MaxVNI       = 1<<24 - 1
	MaxLocalPref = 1<<32 - 1
)

// BGPVPN is a VPN whose membership is expressed with BGP route targets.
// Networks and Routers are derived from the associations and are read-only.
type BGPVPN struct {
	ID                  string    `json:"id"`
	TenantID            string    `json:"tenant_id"`
	Name                string    `json:"name"`
	Type                string    `json:"type"`
	RouteTargets        []string  `json:"route_targets"`
	ImportTargets       []string  `json:"import_targets"`
	ExportTargets       []string  `json:"export_targets"`
	RouteDistinguishers []string  `json:"route_distinguishers"`
	VNI                 *int      `json:"vni,omitempty"`
	LocalPref           *int64    `json:"local_pref,omitempty"`
	Networks            []string  `json:"networks"`
	Routers             []string  `json:"routers"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// BGPVPNUpdate holds the mutable BGPVPN fields. A nil field is left unchanged;
// a non-nil slice replaces the stored set entirely.
type BGPVPNUpdate struct {
	Name                *string
	RouteTargets        []string
	ImportTargets       []string
	ExportTargets       []string
	RouteDistinguishers []string
	VNI                 *int
	LocalPref           *int64
}

// BGPVPNFilter narrows a BGPVPN listing. TenantID is always applied for
// non-admin callers.
type BGPVPNFilter struct {
	TenantID string
	Name     string
	Type     string
	Limit    int
	Cursor   string
}
