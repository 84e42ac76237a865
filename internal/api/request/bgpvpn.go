package request

// CreateBGPVPN is the body of POST /bgpvpns.
type CreateBGPVPN struct {
	BGPVPN *CreateBGPVPNFields `json:"bgpvpn" validate:"required"`
}

// CreateBGPVPNFields holds the attributes of a new BGPVPN. An empty TenantID
// means the caller's own tenant.
type CreateBGPVPNFields struct {
	TenantID            string   `json:"tenant_id" validate:"omitempty,max=255"`
	Name                string   `json:"name" validate:"max=255"`
	Type                string   `json:"type" validate:"omitempty,oneof=l2 l3"`
	RouteTargets        []string `json:"route_targets" validate:"omitempty,dive,route_target"`
	ImportTargets       []string `json:"import_targets" validate:"omitempty,dive,route_target"`
	ExportTargets       []string `json:"export_targets" validate:"omitempty,dive,route_target"`
	RouteDistinguishers []string `json:"route_distinguishers" validate:"omitempty,dive,route_distinguisher"`
	VNI                 *int     `json:"vni" validate:"omitempty,min=1,max=16777215"`
	LocalPref           *int64   `json:"local_pref" validate:"omitempty,min=0,max=4294967295"`
}

// UpdateBGPVPN is the body of PUT /bgpvpns/{id}.
type UpdateBGPVPN struct {
	BGPVPN *UpdateBGPVPNFields `json:"bgpvpn" validate:"required"`
}

// UpdateBGPVPNFields holds the attributes to change. Absent fields are left
// alone; a present list replaces the stored one, and [] clears it.
// TenantID and Type are decoded only so that attempts to change them can be
// rejected.
type UpdateBGPVPNFields struct {
	TenantID            *string  `json:"tenant_id"`
	Type                *string  `json:"type"`
	Name                *string  `json:"name" validate:"omitempty,max=255"`
	RouteTargets        []string `json:"route_targets" validate:"omitempty,dive,route_target"`
	ImportTargets       []string `json:"import_targets" validate:"omitempty,dive,route_target"`
	ExportTargets       []string `json:"export_targets" validate:"omitempty,dive,route_target"`
	RouteDistinguishers []string `json:"route_distinguishers" validate:"omitempty,dive,route_distinguisher"`
	VNI                 *int     `json:"vni" validate:"omitempty,min=1,max=16777215"`
	LocalPref           *int64   `json:"local_pref" validate:"omitempty,min=0,max=4294967295"`
}
