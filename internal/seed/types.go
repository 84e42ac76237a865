package seed

// Config is the layout of a seed fixture file.
type Config struct {
	APIKeys []APIKey `yaml:"api_keys"`
	BGPVPNs []BGPVPN `yaml:"bgpvpns"`
}

// APIKey is a well-known key to install with a fixed raw value.
type APIKey struct {
	Name     string `yaml:"name"`
	Key      string `yaml:"key"`
	TenantID string `yaml:"tenant_id"`
	Admin    bool   `yaml:"admin"`
}

// BGPVPN is a BGPVPN to create, together with its associations.
type BGPVPN struct {
	Name                string   `yaml:"name"`
	TenantID            string   `yaml:"tenant_id"`
	Type                string   `yaml:"type"`
	RouteTargets        []string `yaml:"route_targets"`
	ImportTargets       []string `yaml:"import_targets"`
	ExportTargets       []string `yaml:"export_targets"`
	RouteDistinguishers []string `yaml:"route_distinguishers"`
	VNI                 *int     `yaml:"vni"`
	LocalPref           *int64   `yaml:"local_pref"`
	Networks            []string `yaml:"networks"`
	Routers             []string `yaml:"routers"`
}
