package model

import "time"

// NetworkAssociation binds a network to a BGPVPN.
type NetworkAssociation struct {
	ID        string    `json:"id"`
	BGPVPNID  string    `json:"bgpvpn_id"`
	NetworkID string    `json:"network_id"`
	TenantID  string    `json:"tenant_id"`
	CreatedAt time.Time `json:"created_at"`
}

// RouterAssociation binds a router to a BGPVPN.
type RouterAssociation struct {
	ID        string    `json:"id"`
	BGPVPNID  string    `json:"bgpvpn_id"`
	RouterID  string    `json:"router_id"`
	TenantID  string    `json:"tenant_id"`
	CreatedAt time.Time `json:"created_at"`
}

// ResourceRef is an associated network or router as seen by the service that
// owns it. Found is false when the resource no longer exists there.
type ResourceRef struct {
	ID       string `json:"id"`
	Name     string `json:"name,omitempty"`
	TenantID string `json:"tenant_id,omitempty"`
	Found    bool   `json:"found"`
	Error    string `json:"error,omitempty"`
}
