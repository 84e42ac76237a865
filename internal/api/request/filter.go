package request

import (
	"net/http"

	"github.com/edvin/bgpvpn/internal/model"
)

// ParseBGPVPNFilter reads the name, type and tenant_id filters and the
// pagination parameters of GET /bgpvpns.
func ParseBGPVPNFilter(r *http.Request) model.BGPVPNFilter {
	q := r.URL.Query()
	pg := ParsePagination(r)
	return model.BGPVPNFilter{
		TenantID: q.Get("tenant_id"),
		Name:     q.Get("name"),
		Type:     q.Get("type"),
		Limit:    pg.Limit,
		Cursor:   pg.Cursor,
	}
}
