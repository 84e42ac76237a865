package model

import "time"

// APIKey represents an API key for authenticating against the BGPVPN API.
// A key acts on behalf of exactly one tenant; admin keys may act on any.
type APIKey struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	KeyHash   string     `json:"-"`
	KeyPrefix string     `json:"key_prefix,omitempty"`
	TenantID  string     `json:"tenant_id"`
	IsAdmin   bool       `json:"is_admin"`
	CreatedAt time.Time  `json:"created_at"`
	RevokedAt *time.Time `json:"revoked_at,omitempty"`
}

// Identity is the authenticated caller of a request.
type Identity struct {
	KeyID    string
	TenantID string
	IsAdmin  bool
}

// Owns reports whether the identity's tenant owns a resource of tenantID.
func (i *Identity) Owns(tenantID string) bool {
	return i != nil && i.TenantID != "" && i.TenantID == tenantID
}
