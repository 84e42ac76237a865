package core

import (
	"fmt"

	"github.com/edvin/bgpvpn/internal/model"
)

// The authorization rules for BGPVPN resources. Admins may do anything.
// Tenants may read their own BGPVPNs and manage their associations, but only
// admins create, update or delete BGPVPNs. A BGPVPN owned by another tenant is
// reported as not found wherever hiding it is possible.

// CanCreateBGPVPN reports whether identity may create BGPVPNs.
func CanCreateBGPVPN(identity *model.Identity) error {
	if isAdmin(identity) {
		return nil
	}
	return fmt.Errorf("create bgpvpn: %w", ErrForbidden)
}

// CanReadBGPVPN reports whether identity may see vpn.
func CanReadBGPVPN(identity *model.Identity, vpn *model.BGPVPN) error {
	if isAdmin(identity) || identity.Owns(vpn.TenantID) {
		return nil
	}
	return fmt.Errorf("bgpvpn %s: %w", vpn.ID, ErrNotFound)
}

// CanUpdateBGPVPN reports whether identity may update vpn. Any non-admin
// gets ErrForbidden once vpn is known to exist.
func CanUpdateBGPVPN(identity *model.Identity, vpn *model.BGPVPN) error {
	if isAdmin(identity) {
		return nil
	}
	return fmt.Errorf("update bgpvpn %s: %w", vpn.ID, ErrForbidden)
}

// CanDeleteBGPVPN reports whether identity may delete vpn. Non-admins always
// see ErrNotFound, owners included.
func CanDeleteBGPVPN(identity *model.Identity, vpn *model.BGPVPN) error {
	if isAdmin(identity) {
		return nil
	}
	return fmt.Errorf("bgpvpn %s: %w", vpn.ID, ErrNotFound)
}

// CanAssociate reports whether identity may add or remove associations on vpn.
func CanAssociate(identity *model.Identity, vpn *model.BGPVPN) error {
	return CanReadBGPVPN(identity, vpn)
}

// CanReference reports whether identity may bind the resolved resource ref.
func CanReference(identity *model.Identity, kind string, ref *model.ResourceRef) error {
	if !ref.Found {
		return fmt.Errorf("%s %s: %w", kind, ref.ID, ErrNotFound)
	}
	if isAdmin(identity) || ref.TenantID == "" || identity.Owns(ref.TenantID) {
		return nil
	}
	return fmt.Errorf("%s %s: %w", kind, ref.ID, ErrNotFound)
}

// ScopeFilter restricts a listing to the tenant of a non-admin identity.
func ScopeFilter(identity *model.Identity, f model.BGPVPNFilter) (model.BGPVPNFilter, error) {
	if isAdmin(identity) {
		return f, nil
	}
	if identity == nil || identity.TenantID == "" {
		return f, fmt.Errorf("list bgpvpns: %w", ErrForbidden)
	}
	f.TenantID = identity.TenantID
	return f, nil
}

func isAdmin(identity *model.Identity) bool {
	return identity != nil && identity.IsAdmin
}
