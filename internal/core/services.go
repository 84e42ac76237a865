package core

// Services groups the services used by the API and the commands.
type Services struct {
	BGPVPN      *BGPVPNService
	Association *AssociationService
	Reference   *ReferenceService
	APIKey      *APIKeyService
	Export      *ExportService
}

// NewServices wires the services on db. resolver may be nil, in which case
// network and router references are not verified.
func NewServices(db DB, resolver Resolver) *Services {
	bgpvpns := NewBGPVPNService(db)
	assocs := NewAssociationService(db)
	return &Services{
		BGPVPN:      bgpvpns,
		Association: assocs,
		Reference:   NewReferenceService(resolver),
		APIKey:      NewAPIKeyService(db),
		Export:      NewExportService(bgpvpns, assocs),
	}
}
