package network

// Network is a network as returned by the network-resource service.
type Network struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	TenantID string `json:"tenant_id"`
}

// Router is a router as returned by the network-resource service.
type Router struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	TenantID string `json:"tenant_id"`
}

type networkResponse struct {
	Network Network `json:"network"`
}

type routerResponse struct {
	Router Router `json:"router"`
}
