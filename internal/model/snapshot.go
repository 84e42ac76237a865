package model

import "time"

// Snapshot is a point-in-time inventory of all BGPVPNs and their associations.
type Snapshot struct {
	GeneratedAt         time.Time            `json:"generated_at"`
	BGPVPNs             []BGPVPN             `json:"bgpvpns"`
	NetworkAssociations []NetworkAssociation `json:"network_associations"`
	RouterAssociations  []RouterAssociation  `json:"router_associations"`
}
