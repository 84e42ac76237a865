package request

// CreateNetworkAssociation is the body of POST /bgpvpns/{id}/network_associations.
type CreateNetworkAssociation struct {
	NetworkAssociation *NetworkAssociationFields `json:"network_association" validate:"required"`
}

type NetworkAssociationFields struct {
	NetworkID string `json:"network_id" validate:"required,max=255"`
}

// CreateRouterAssociation is the body of POST /bgpvpns/{id}/router_associations.
type CreateRouterAssociation struct {
	RouterAssociation *RouterAssociationFields `json:"router_association" validate:"required"`
}

type RouterAssociationFields struct {
	RouterID string `json:"router_id" validate:"required,max=255"`
}
