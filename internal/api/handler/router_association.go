package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	mw "github.com/edvin/bgpvpn/internal/api/middleware"
	"github.com/edvin/bgpvpn/internal/api/request"
	"github.com/edvin/bgpvpn/internal/api/response"
	"github.com/edvin/bgpvpn/internal/core"
	"github.com/edvin/bgpvpn/internal/model"
)

// RouterAssociation handles the router associations of a BGPVPN.
type RouterAssociation struct {
	bgpvpns *core.BGPVPNService
	svc     *core.AssociationService
	refs    *core.ReferenceService
}

// NewRouterAssociation creates a new RouterAssociation handler.
func NewRouterAssociation(bgpvpns *core.BGPVPNService, svc *core.AssociationService, refs *core.ReferenceService) *RouterAssociation {
	return &RouterAssociation{bgpvpns: bgpvpns, svc: svc, refs: refs}
}

// Create godoc
//
//	@Summary		Associate a router with a BGPVPN
//	@Description	Only l3 BGPVPNs accept routers. A router can be associated with a BGPVPN at most once.
//	@Tags			Router Associations
//	@Security		ApiKeyAuth
//	@Param			id path string true "BGPVPN ID"
//	@Param			body body request.CreateRouterAssociation true "Router to associate"
//	@Success		201 {object} map[string]model.RouterAssociation
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		404 {object} response.ErrorResponse
//	@Failure		409 {object} response.ErrorResponse
//	@Router			/bgpvpns/{id}/router_associations [post]
func (h *RouterAssociation) Create(w http.ResponseWriter, r *http.Request) {
	vpn, ok := loadBGPVPN(w, r, h.bgpvpns, core.CanAssociate)
	if !ok {
		return
	}

	var req request.CreateRouterAssociation
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	routerID := req.RouterAssociation.RouterID

	if err := h.refs.VerifyRouter(r.Context(), mw.GetIdentity(r.Context()), routerID); err != nil {
		mw.RecordAssociation("router", "associate", operationResult(err))
		writeServiceError(w, r, err)
		return
	}

	assoc, err := h.svc.AssociateRouter(r.Context(), vpn.ID, routerID)
	mw.RecordAssociation("router", "associate", operationResult(err))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	response.WriteEnvelope(w, http.StatusCreated, "router_association", assoc)
}

// List returns the router associations of a BGPVPN in association order.
func (h *RouterAssociation) List(w http.ResponseWriter, r *http.Request) {
	vpn, ok := loadBGPVPN(w, r, h.bgpvpns, core.CanReadBGPVPN)
	if !ok {
		return
	}

	assocs, err := h.svc.ListRouterAssociations(r.Context(), vpn.ID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if assocs == nil {
		assocs = []model.RouterAssociation{}
	}
	response.WriteEnvelope(w, http.StatusOK, "router_associations", assocs)
}

// Get returns one router association of a BGPVPN.
func (h *RouterAssociation) Get(w http.ResponseWriter, r *http.Request) {
	vpn, ok := loadBGPVPN(w, r, h.bgpvpns, core.CanReadBGPVPN)
	if !ok {
		return
	}
	assocID, err := request.RequireID(chi.URLParam(r, "assocID"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	assoc, err := h.svc.GetRouterAssociation(r.Context(), vpn.ID, assocID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.WriteEnvelope(w, http.StatusOK, "router_association", assoc)
}

// Delete removes a router association.
func (h *RouterAssociation) Delete(w http.ResponseWriter, r *http.Request) {
	vpn, ok := loadBGPVPN(w, r, h.bgpvpns, core.CanAssociate)
	if !ok {
		return
	}
	assocID, err := request.RequireID(chi.URLParam(r, "assocID"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	err = h.svc.DisassociateRouter(r.Context(), vpn.ID, assocID)
	mw.RecordAssociation("router", "disassociate", operationResult(err))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
