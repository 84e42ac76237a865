package handler

import (
	"net/http"

	mw "github.com/edvin/bgpvpn/internal/api/middleware"
	"github.com/edvin/bgpvpn/internal/api/request"
	"github.com/edvin/bgpvpn/internal/api/response"
	"github.com/edvin/bgpvpn/internal/core"
	"github.com/edvin/bgpvpn/internal/model"
)

// BGPVPN handles BGPVPN resource endpoints.
type BGPVPN struct {
	svc  *core.BGPVPNService
	refs *core.ReferenceService
}

// NewBGPVPN creates a new BGPVPN handler.
func NewBGPVPN(svc *core.BGPVPNService, refs *core.ReferenceService) *BGPVPN {
	return &BGPVPN{svc: svc, refs: refs}
}

// Create godoc
//
//	@Summary		Create a BGPVPN
//	@Description	Admin only. The BGPVPN belongs to tenant_id when given, otherwise to the caller's tenant. Duplicate route targets are dropped.
//	@Tags			BGPVPNs
//	@Security		ApiKeyAuth
//	@Param			body body request.CreateBGPVPN true "BGPVPN attributes"
//	@Success		201 {object} map[string]model.BGPVPN
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		403 {object} response.ErrorResponse
//	@Router			/bgpvpns [post]
func (h *BGPVPN) Create(w http.ResponseWriter, r *http.Request) {
	identity := mw.GetIdentity(r.Context())
	if err := core.CanCreateBGPVPN(identity); err != nil {
		writeServiceError(w, r, err)
		return
	}

	var req request.CreateBGPVPN
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	f := req.BGPVPN
	tenantID := f.TenantID
	if tenantID == "" {
		tenantID = identity.TenantID
	}
	vpn := &model.BGPVPN{
		TenantID:            tenantID,
		Name:                f.Name,
		Type:                f.Type,
		RouteTargets:        f.RouteTargets,
		ImportTargets:       f.ImportTargets,
		ExportTargets:       f.ExportTargets,
		RouteDistinguishers: f.RouteDistinguishers,
		VNI:                 f.VNI,
		LocalPref:           f.LocalPref,
	}
	if err := h.svc.Create(r.Context(), vpn); err != nil {
		writeServiceError(w, r, err)
		return
	}

	response.WriteEnvelope(w, http.StatusCreated, "bgpvpn", vpn)
}

// List godoc
//
//	@Summary		List BGPVPNs
//	@Description	Admins see every BGPVPN and may filter by tenant_id. Other callers see only their own tenant's.
//	@Tags			BGPVPNs
//	@Security		ApiKeyAuth
//	@Param			tenant_id query string false "Owning tenant (admin only)"
//	@Param			name query string false "Exact name"
//	@Param			type query string false "l2 or l3"
//	@Param			limit query int false "Page size" default(50)
//	@Param			cursor query string false "Pagination cursor"
//	@Success		200 {object} map[string]any
//	@Router			/bgpvpns [get]
func (h *BGPVPN) List(w http.ResponseWriter, r *http.Request) {
	f, err := core.ScopeFilter(mw.GetIdentity(r.Context()), request.ParseBGPVPNFilter(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	vpns, hasMore, err := h.svc.List(r.Context(), f)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if vpns == nil {
		vpns = []model.BGPVPN{}
	}

	var nextCursor string
	if hasMore && len(vpns) > 0 {
		nextCursor = vpns[len(vpns)-1].ID
	}
	response.WritePaginated(w, http.StatusOK, "bgpvpns", vpns, nextCursor, hasMore)
}

// Get godoc
//
//	@Summary		Show a BGPVPN
//	@Tags			BGPVPNs
//	@Security		ApiKeyAuth
//	@Param			id path string true "BGPVPN ID"
//	@Success		200 {object} map[string]model.BGPVPN
//	@Failure		404 {object} response.ErrorResponse
//	@Router			/bgpvpns/{id} [get]
func (h *BGPVPN) Get(w http.ResponseWriter, r *http.Request) {
	vpn, ok := loadBGPVPN(w, r, h.svc, core.CanReadBGPVPN)
	if !ok {
		return
	}
	response.WriteEnvelope(w, http.StatusOK, "bgpvpn", vpn)
}

// Update godoc
//
//	@Summary		Update a BGPVPN
//	@Description	Admin only. Supplied target lists replace the stored ones; an empty list clears them. tenant_id and type cannot change.
//	@Tags			BGPVPNs
//	@Security		ApiKeyAuth
//	@Param			id path string true "BGPVPN ID"
//	@Param			body body request.UpdateBGPVPN true "Attributes to change"
//	@Success		200 {object} map[string]model.BGPVPN
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		403 {object} response.ErrorResponse
//	@Failure		404 {object} response.ErrorResponse
//	@Router			/bgpvpns/{id} [put]
func (h *BGPVPN) Update(w http.ResponseWriter, r *http.Request) {
	vpn, ok := loadBGPVPN(w, r, h.svc, core.CanUpdateBGPVPN)
	if !ok {
		return
	}

	var req request.UpdateBGPVPN
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	f := req.BGPVPN
	if f.TenantID != nil && *f.TenantID != vpn.TenantID {
		response.WriteError(w, http.StatusBadRequest, "tenant_id cannot be changed")
		return
	}
	if f.Type != nil && *f.Type != vpn.Type {
		response.WriteError(w, http.StatusBadRequest, "type cannot be changed")
		return
	}

	updated, err := h.svc.Update(r.Context(), vpn.ID, model.BGPVPNUpdate{
		Name:                f.Name,
		RouteTargets:        f.RouteTargets,
		ImportTargets:       f.ImportTargets,
		ExportTargets:       f.ExportTargets,
		RouteDistinguishers: f.RouteDistinguishers,
		VNI:                 f.VNI,
		LocalPref:           f.LocalPref,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	response.WriteEnvelope(w, http.StatusOK, "bgpvpn", updated)
}

// Delete godoc
//
//	@Summary		Delete a BGPVPN
//	@Description	Admin only. Removes the BGPVPN's network and router associations with it.
//	@Tags			BGPVPNs
//	@Security		ApiKeyAuth
//	@Param			id path string true "BGPVPN ID"
//	@Success		204
//	@Failure		404 {object} response.ErrorResponse
//	@Router			/bgpvpns/{id} [delete]
func (h *BGPVPN) Delete(w http.ResponseWriter, r *http.Request) {
	vpn, ok := loadBGPVPN(w, r, h.svc, core.CanDeleteBGPVPN)
	if !ok {
		return
	}

	if err := h.svc.Delete(r.Context(), vpn.ID); err != nil {
		writeServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Networks godoc
//
//	@Summary		List the networks of a BGPVPN
//	@Description	Each associated network as reported by the network service. Networks deleted there are listed with found=false.
//	@Tags			BGPVPNs
//	@Security		ApiKeyAuth
//	@Param			id path string true "BGPVPN ID"
//	@Success		200 {object} map[string][]model.ResourceRef
//	@Failure		404 {object} response.ErrorResponse
//	@Router			/bgpvpns/{id}/networks [get]
func (h *BGPVPN) Networks(w http.ResponseWriter, r *http.Request) {
	vpn, ok := loadBGPVPN(w, r, h.svc, core.CanReadBGPVPN)
	if !ok {
		return
	}
	response.WriteEnvelope(w, http.StatusOK, "networks", h.refs.ResolveNetworks(r.Context(), vpn.Networks))
}

// Routers godoc
//
//	@Summary		List the routers of a BGPVPN
//	@Tags			BGPVPNs
//	@Security		ApiKeyAuth
//	@Param			id path string true "BGPVPN ID"
//	@Success		200 {object} map[string][]model.ResourceRef
//	@Failure		404 {object} response.ErrorResponse
//	@Router			/bgpvpns/{id}/routers [get]
func (h *BGPVPN) Routers(w http.ResponseWriter, r *http.Request) {
	vpn, ok := loadBGPVPN(w, r, h.svc, core.CanReadBGPVPN)
	if !ok {
		return
	}
	response.WriteEnvelope(w, http.StatusOK, "routers", h.refs.ResolveRouters(r.Context(), vpn.Routers))
}
