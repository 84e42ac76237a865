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

// NetworkAssociation handles the network associations of a BGPVPN.
type NetworkAssociation struct {
	bgpvpns *core.BGPVPNService
	svc     *core.AssociationService
	refs    *core.ReferenceService
}

// NewNetworkAssociation creates a new NetworkAssociation handler.
func NewNetworkAssociation(bgpvpns *core.BGPVPNService, svc *core.AssociationService, refs *core.ReferenceService) *NetworkAssociation {
	return &NetworkAssociation{bgpvpns: bgpvpns, svc: svc, refs: refs}
}

// Create godoc
//
//	@Summary		Associate a network with a BGPVPN
//	@Description	A network can be associated with a BGPVPN at most once. When the network service is configured the network must exist and belong to the caller's tenant.
//	@Tags			Network Associations
//	@Security		ApiKeyAuth
//	@Param			id path string true "BGPVPN ID"
//	@Param			body body request.CreateNetworkAssociation true "Network to associate"
//	@Success		201 {object} map[string]model.NetworkAssociation
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		404 {object} response.ErrorResponse
//	@Failure		409 {object} response.ErrorResponse
//	@Router			/bgpvpns/{id}/network_associations [post]
func (h *NetworkAssociation) Create(w http.ResponseWriter, r *http.Request) {
	vpn, ok := loadBGPVPN(w, r, h.bgpvpns, core.CanAssociate)
	if !ok {
		return
	}

	var req request.CreateNetworkAssociation
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	networkID := req.NetworkAssociation.NetworkID

	if err := h.refs.VerifyNetwork(r.Context(), mw.GetIdentity(r.Context()), networkID); err != nil {
		mw.RecordAssociation("network", "associate", operationResult(err))
		writeServiceError(w, r, err)
		return
	}

	assoc, err := h.svc.AssociateNetwork(r.Context(), vpn.ID, networkID)
	mw.RecordAssociation("network", "associate", operationResult(err))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	response.WriteEnvelope(w, http.StatusCreated, "network_association", assoc)
}

// List godoc
//
//	@Summary		List the network associations of a BGPVPN
//	@Tags			Network Associations
//	@Security		ApiKeyAuth
//	@Param			id path string true "BGPVPN ID"
//	@Success		200 {object} map[string][]model.NetworkAssociation
//	@Failure		404 {object} response.ErrorResponse
//	@Router			/bgpvpns/{id}/network_associations [get]
func (h *NetworkAssociation) List(w http.ResponseWriter, r *http.Request) {
	vpn, ok := loadBGPVPN(w, r, h.bgpvpns, core.CanReadBGPVPN)
	if !ok {
		return
	}

	assocs, err := h.svc.ListNetworkAssociations(r.Context(), vpn.ID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if assocs == nil {
		assocs = []model.NetworkAssociation{}
	}
	response.WriteEnvelope(w, http.StatusOK, "network_associations", assocs)
}

// Get godoc
//
//	@Summary		Show a network association
//	@Tags			Network Associations
//	@Security		ApiKeyAuth
//	@Param			id path string true "BGPVPN ID"
//	@Param			assocID path string true "Association ID"
//	@Success		200 {object} map[string]model.NetworkAssociation
//	@Failure		404 {object} response.ErrorResponse
//	@Router			/bgpvpns/{id}/network_associations/{assocID} [get]
func (h *NetworkAssociation) Get(w http.ResponseWriter, r *http.Request) {
	vpn, ok := loadBGPVPN(w, r, h.bgpvpns, core.CanReadBGPVPN)
	if !ok {
		return
	}
	assocID, err := request.RequireID(chi.URLParam(r, "assocID"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	assoc, err := h.svc.GetNetworkAssociation(r.Context(), vpn.ID, assocID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.WriteEnvelope(w, http.StatusOK, "network_association", assoc)
}

// Delete godoc
//
//	@Summary		Remove a network association
//	@Tags			Network Associations
//	@Security		ApiKeyAuth
//	@Param			id path string true "BGPVPN ID"
//	@Param			assocID path string true "Association ID"
//	@Success		204
//	@Failure		404 {object} response.ErrorResponse
//	@Router			/bgpvpns/{id}/network_associations/{assocID} [delete]
func (h *NetworkAssociation) Delete(w http.ResponseWriter, r *http.Request) {
	vpn, ok := loadBGPVPN(w, r, h.bgpvpns, core.CanAssociate)
	if !ok {
		return
	}
	assocID, err := request.RequireID(chi.URLParam(r, "assocID"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	err = h.svc.DisassociateNetwork(r.Context(), vpn.ID, assocID)
	mw.RecordAssociation("network", "disassociate", operationResult(err))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
