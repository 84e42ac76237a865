package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	mw "github.com/edvin/bgpvpn/internal/api/middleware"
	"github.com/edvin/bgpvpn/internal/api/request"
	"github.com/edvin/bgpvpn/internal/api/response"
	"github.com/edvin/bgpvpn/internal/core"
	"github.com/edvin/bgpvpn/internal/model"
)

// writeServiceError translates a service error into a status code. Unknown
// errors are logged and reported without detail.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *core.ValidationError
	switch {
	case errors.Is(err, core.ErrNotFound):
		response.WriteError(w, http.StatusNotFound, "resource not found")
	case errors.Is(err, core.ErrForbidden):
		response.WriteError(w, http.StatusForbidden, "operation not permitted")
	case errors.Is(err, core.ErrConflict):
		response.WriteError(w, http.StatusConflict, err.Error())
	case errors.As(err, &verr):
		response.WriteError(w, http.StatusBadRequest, verr.Error())
	case errors.Is(err, core.ErrValidation):
		response.WriteError(w, http.StatusBadRequest, err.Error())
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("request failed")
		response.WriteError(w, http.StatusInternalServerError, "internal server error")
	}
}

// gateFunc is one of the core.Can* BGPVPN policy checks.
type gateFunc func(identity *model.Identity, vpn *model.BGPVPN) error

// loadBGPVPN reads the {id} BGPVPN and applies gate for the caller. It
// writes the error response and returns false when the request must stop.
func loadBGPVPN(w http.ResponseWriter, r *http.Request, svc *core.BGPVPNService, gate gateFunc) (*model.BGPVPN, bool) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}

	vpn, err := svc.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return nil, false
	}
	if err := gate(mw.GetIdentity(r.Context()), vpn); err != nil {
		writeServiceError(w, r, err)
		return nil, false
	}
	return vpn, true
}

// operationResult is the result label of an association operation metric.
func operationResult(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, core.ErrConflict):
		return "conflict"
	case errors.Is(err, core.ErrNotFound):
		return "not_found"
	case errors.Is(err, core.ErrValidation):
		return "invalid"
	default:
		return "error"
	}
}
