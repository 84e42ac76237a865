package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/edvin/bgpvpn/internal/core"
	"github.com/edvin/bgpvpn/internal/model"
)

func newBGPVPNHandler(db core.DB, resolver core.Resolver) *BGPVPN {
	return NewBGPVPN(core.NewBGPVPNService(db), core.NewReferenceService(resolver))
}

func decodeBGPVPN(t *testing.T, rec *httptest.ResponseRecorder) model.BGPVPN {
	t.Helper()
	var body struct {
		BGPVPN model.BGPVPN `json:"bgpvpn"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.BGPVPN
}

// --- Create ---

func TestBGPVPNCreate_NonAdminForbidden(t *testing.T) {
	db := &handlerMockDB{}
	h := newBGPVPNHandler(db, nil)
	rec := httptest.NewRecorder()
	r := newRequest(http.MethodPost, "/bgpvpns", map[string]any{"bgpvpn": map[string]any{"name": "vpn1"}})
	r = withTenant(r, "tenant-a", false)

	h.Create(rec, r)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	db.AssertNotCalled(t, "QueryRow", mock.Anything, mock.Anything, mock.Anything)
}

func TestBGPVPNCreate_InvalidJSON(t *testing.T) {
	h := newBGPVPNHandler(&handlerMockDB{}, nil)
	rec := httptest.NewRecorder()
	r := withAdmin(newRequestRaw(http.MethodPost, "/bgpvpns", "{bad json"))

	h.Create(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeErrorResponse(rec)["error"], "invalid JSON")
}

func TestBGPVPNCreate_MissingEnvelope(t *testing.T) {
	h := newBGPVPNHandler(&handlerMockDB{}, nil)
	rec := httptest.NewRecorder()
	r := withAdmin(newRequest(http.MethodPost, "/bgpvpns", map[string]any{"name": "vpn1"}))

	h.Create(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeErrorResponse(rec)["error"], "validation error")
}

func TestBGPVPNCreate_InvalidRouteTarget(t *testing.T) {
	h := newBGPVPNHandler(&handlerMockDB{}, nil)
	rec := httptest.NewRecorder()
	r := withAdmin(newRequest(http.MethodPost, "/bgpvpns", map[string]any{
		"bgpvpn": map[string]any{"route_targets": []string{"foo"}},
	}))

	h.Create(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBGPVPNCreate_InvalidType(t *testing.T) {
	h := newBGPVPNHandler(&handlerMockDB{}, nil)
	rec := httptest.NewRecorder()
	r := withAdmin(newRequest(http.MethodPost, "/bgpvpns", map[string]any{
		"bgpvpn": map[string]any{"type": "l4"},
	}))

	h.Create(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBGPVPNCreate_OnBehalfOfTenant(t *testing.T) {
	db := &handlerMockDB{}
	db.On("QueryRow", mock.Anything, sqlContains("INSERT INTO bgpvpns"), mock.MatchedBy(func(args []any) bool {
		return args[1] == "tenant-b" && args[3] == model.BGPVPNTypeL3
	})).Return(&handlerMockRow{scanFunc: func(dest ...any) error {
		*(dest[0].(*time.Time)) = testTime
		*(dest[1].(*time.Time)) = testTime
		return nil
	}})
	h := newBGPVPNHandler(db, nil)
	rec := httptest.NewRecorder()
	r := withAdmin(newRequest(http.MethodPost, "/bgpvpns", map[string]any{
		"bgpvpn": map[string]any{
			"tenant_id":     "tenant-b",
			"name":          "vpn1",
			"route_targets": []string{"64512:1", "64512:1", "64512:2"},
		},
	}))

	h.Create(rec, r)

	require.Equal(t, http.StatusCreated, rec.Code)
	vpn := decodeBGPVPN(t, rec)
	assert.NotEmpty(t, vpn.ID)
	assert.Equal(t, "tenant-b", vpn.TenantID)
	assert.Equal(t, model.BGPVPNTypeL3, vpn.Type)
	assert.Equal(t, []string{"64512:1", "64512:2"}, vpn.RouteTargets)
	assert.Equal(t, []string{}, vpn.Networks)
	db.AssertExpectations(t)
}

func TestBGPVPNCreate_DefaultsToCallerTenant(t *testing.T) {
	db := &handlerMockDB{}
	db.On("QueryRow", mock.Anything, sqlContains("INSERT INTO bgpvpns"), mock.MatchedBy(func(args []any) bool {
		return args[1] == "admin"
	})).Return(&handlerMockRow{scanFunc: func(dest ...any) error { return nil }})
	h := newBGPVPNHandler(db, nil)
	rec := httptest.NewRecorder()
	r := withAdmin(newRequest(http.MethodPost, "/bgpvpns", map[string]any{"bgpvpn": map[string]any{"type": "l2"}}))

	h.Create(rec, r)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "admin", decodeBGPVPN(t, rec).TenantID)
}

// --- Get ---

func TestBGPVPNGet_EmptyID(t *testing.T) {
	h := newBGPVPNHandler(&handlerMockDB{}, nil)
	rec := httptest.NewRecorder()
	r := withAdmin(withChiURLParam(newRequest(http.MethodGet, "/bgpvpns/", nil), "id", ""))

	h.Get(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeErrorResponse(rec)["error"], "missing required ID")
}

func TestBGPVPNGet_NotFound(t *testing.T) {
	db := &handlerMockDB{}
	db.On("QueryRow", mock.Anything, mock.Anything, mock.Anything).Return(noRows)
	h := newBGPVPNHandler(db, nil)
	rec := httptest.NewRecorder()
	r := withAdmin(withChiURLParam(newRequest(http.MethodGet, "/bgpvpns/"+validID, nil), "id", validID))

	h.Get(rec, r)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBGPVPNGet_OtherTenantHidden(t *testing.T) {
	db := &handlerMockDB{}
	db.On("QueryRow", mock.Anything, mock.Anything, mock.Anything).Return(bgpvpnRow(testBGPVPN("tenant-a")))
	h := newBGPVPNHandler(db, nil)
	rec := httptest.NewRecorder()
	r := withChiURLParam(newRequest(http.MethodGet, "/bgpvpns/"+validID, nil), "id", validID)
	r = withTenant(r, "tenant-b", false)

	h.Get(rec, r)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "resource not found", decodeErrorResponse(rec)["error"])
}

func TestBGPVPNGet_Owner(t *testing.T) {
	vpn := testBGPVPN("tenant-a")
	vpn.Networks = []string{"net-1"}
	db := &handlerMockDB{}
	db.On("QueryRow", mock.Anything, sqlContains("WHERE b.id = $1"), []any{validID}).Return(bgpvpnRow(vpn))
	h := newBGPVPNHandler(db, nil)
	rec := httptest.NewRecorder()
	r := withChiURLParam(newRequest(http.MethodGet, "/bgpvpns/"+validID, nil), "id", validID)
	r = withTenant(r, "tenant-a", false)

	h.Get(rec, r)

	require.Equal(t, http.StatusOK, rec.Code)
	got := decodeBGPVPN(t, rec)
	assert.Equal(t, validID, got.ID)
	assert.Equal(t, []string{"net-1"}, got.Networks)
}

// --- List ---

func TestBGPVPNList_NonAdminScopedToOwnTenant(t *testing.T) {
	db := &handlerMockDB{}
	db.On("Query", mock.Anything, sqlContains("b.tenant_id = $1"), mock.MatchedBy(func(args []any) bool {
		return len(args) == 2 && args[0] == "tenant-a"
	})).Return(newRows(), nil)
	h := newBGPVPNHandler(db, nil)
	rec := httptest.NewRecorder()
	r := withTenant(newRequest(http.MethodGet, "/bgpvpns?tenant_id=tenant-b", nil), "tenant-a", false)

	h.List(rec, r)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []any{}, body["bgpvpns"])
	assert.Equal(t, false, body["has_more"])
	db.AssertExpectations(t)
}

func TestBGPVPNList_AdminPaginates(t *testing.T) {
	first := testBGPVPN("tenant-a")
	second := testBGPVPN("tenant-b")
	second.ID = validID2
	db := &handlerMockDB{}
	db.On("Query", mock.Anything, mock.Anything, mock.MatchedBy(func(args []any) bool {
		return len(args) == 1 && args[0] == 2
	})).Return(newRows(bgpvpnScan(first), bgpvpnScan(second)), nil)
	h := newBGPVPNHandler(db, nil)
	rec := httptest.NewRecorder()
	r := withAdmin(newRequest(http.MethodGet, "/bgpvpns?limit=1", nil))

	h.List(rec, r)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		BGPVPNs    []model.BGPVPN `json:"bgpvpns"`
		NextCursor string         `json:"next_cursor"`
		HasMore    bool           `json:"has_more"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.BGPVPNs, 1)
	assert.True(t, body.HasMore)
	assert.Equal(t, validID, body.NextCursor)
}

// --- Update ---

func TestBGPVPNUpdate_NonAdminForbidden(t *testing.T) {
	db := &handlerMockDB{}
	db.On("QueryRow", mock.Anything, mock.Anything, mock.Anything).Return(bgpvpnRow(testBGPVPN("tenant-a")))
	h := newBGPVPNHandler(db, nil)
	rec := httptest.NewRecorder()
	r := withChiURLParam(newRequest(http.MethodPut, "/bgpvpns/"+validID, map[string]any{
		"bgpvpn": map[string]any{"name": "renamed"},
	}), "id", validID)
	r = withTenant(r, "tenant-a", false)

	h.Update(rec, r)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	db.AssertNotCalled(t, "Begin", mock.Anything)
}

func TestBGPVPNUpdate_NotFound(t *testing.T) {
	db := &handlerMockDB{}
	db.On("QueryRow", mock.Anything, mock.Anything, mock.Anything).Return(noRows)
	h := newBGPVPNHandler(db, nil)
	rec := httptest.NewRecorder()
	r := withAdmin(withChiURLParam(newRequest(http.MethodPut, "/bgpvpns/"+validID, map[string]any{
		"bgpvpn": map[string]any{"name": "renamed"},
	}), "id", validID))

	h.Update(rec, r)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBGPVPNUpdate_TenantImmutable(t *testing.T) {
	db := &handlerMockDB{}
	db.On("QueryRow", mock.Anything, mock.Anything, mock.Anything).Return(bgpvpnRow(testBGPVPN("tenant-a")))
	h := newBGPVPNHandler(db, nil)
	rec := httptest.NewRecorder()
	r := withAdmin(withChiURLParam(newRequest(http.MethodPut, "/bgpvpns/"+validID, map[string]any{
		"bgpvpn": map[string]any{"tenant_id": "tenant-b"},
	}), "id", validID))

	h.Update(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeErrorResponse(rec)["error"], "tenant_id cannot be changed")
}

func TestBGPVPNUpdate_TypeImmutable(t *testing.T) {
	db := &handlerMockDB{}
	db.On("QueryRow", mock.Anything, mock.Anything, mock.Anything).Return(bgpvpnRow(testBGPVPN("tenant-a")))
	h := newBGPVPNHandler(db, nil)
	rec := httptest.NewRecorder()
	r := withAdmin(withChiURLParam(newRequest(http.MethodPut, "/bgpvpns/"+validID, map[string]any{
		"bgpvpn": map[string]any{"type": "l2"},
	}), "id", validID))

	h.Update(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBGPVPNUpdate_ReplacesRouteTargets(t *testing.T) {
	current := testBGPVPN("tenant-a")
	updated := current
	updated.RouteTargets = []string{"64512:4"}

	db, tx := newTxDB()
	db.On("QueryRow", mock.Anything, mock.Anything, mock.Anything).Return(bgpvpnRow(current))
	tx.On("QueryRow", mock.Anything, sqlContains("FOR UPDATE"), mock.Anything).Return(lockRow(current))
	tx.On("Exec", mock.Anything, sqlContains("UPDATE bgpvpns"), mock.MatchedBy(func(args []any) bool {
		rts, ok := args[1].([]string)
		return ok && len(rts) == 1 && rts[0] == "64512:4"
	})).Return(pgconn.NewCommandTag("UPDATE 1"), nil)
	tx.On("QueryRow", mock.Anything, sqlContains("WHERE b.id = $1"), mock.Anything).Return(bgpvpnRow(updated))
	tx.On("Commit", mock.Anything).Return(nil)

	h := newBGPVPNHandler(db, nil)
	rec := httptest.NewRecorder()
	r := withAdmin(withChiURLParam(newRequest(http.MethodPut, "/bgpvpns/"+validID, map[string]any{
		"bgpvpn": map[string]any{"route_targets": []string{"64512:4"}},
	}), "id", validID))

	h.Update(rec, r)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"64512:4"}, decodeBGPVPN(t, rec).RouteTargets)
	tx.AssertExpectations(t)
}

// --- Delete ---

func TestBGPVPNDelete_OwnerSeesNotFound(t *testing.T) {
	db := &handlerMockDB{}
	db.On("QueryRow", mock.Anything, mock.Anything, mock.Anything).Return(bgpvpnRow(testBGPVPN("tenant-a")))
	h := newBGPVPNHandler(db, nil)
	rec := httptest.NewRecorder()
	r := withChiURLParam(newRequest(http.MethodDelete, "/bgpvpns/"+validID, nil), "id", validID)
	r = withTenant(r, "tenant-a", false)

	h.Delete(rec, r)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	db.AssertNotCalled(t, "Exec", mock.Anything, mock.Anything, mock.Anything)
}

func TestBGPVPNDelete_Admin(t *testing.T) {
	db := &handlerMockDB{}
	db.On("QueryRow", mock.Anything, mock.Anything, mock.Anything).Return(bgpvpnRow(testBGPVPN("tenant-a")))
	db.On("Exec", mock.Anything, sqlContains("DELETE FROM bgpvpns"), []any{validID}).Return(pgconn.NewCommandTag("DELETE 1"), nil)
	h := newBGPVPNHandler(db, nil)
	rec := httptest.NewRecorder()
	r := withAdmin(withChiURLParam(newRequest(http.MethodDelete, "/bgpvpns/"+validID, nil), "id", validID))

	h.Delete(rec, r)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	db.AssertExpectations(t)
}

// --- Networks / Routers ---

func TestBGPVPNNetworks_DanglingReference(t *testing.T) {
	vpn := testBGPVPN("tenant-a")
	vpn.Networks = []string{"net-1", "net-gone"}
	db := &handlerMockDB{}
	db.On("QueryRow", mock.Anything, mock.Anything, mock.Anything).Return(bgpvpnRow(vpn))
	resolver := &fakeResolver{networks: map[string]*model.ResourceRef{
		"net-1": {Name: "frontend", TenantID: "tenant-a"},
	}}
	h := newBGPVPNHandler(db, resolver)
	rec := httptest.NewRecorder()
	r := withChiURLParam(newRequest(http.MethodGet, "/bgpvpns/"+validID+"/networks", nil), "id", validID)
	r = withTenant(r, "tenant-a", false)

	h.Networks(rec, r)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Networks []model.ResourceRef `json:"networks"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Networks, 2)
	assert.Equal(t, model.ResourceRef{ID: "net-1", Name: "frontend", TenantID: "tenant-a", Found: true}, body.Networks[0])
	assert.Equal(t, model.ResourceRef{ID: "net-gone"}, body.Networks[1])
}

func TestBGPVPNRouters_WithoutResolver(t *testing.T) {
	vpn := testBGPVPN("tenant-a")
	vpn.Routers = []string{"router-1"}
	db := &handlerMockDB{}
	db.On("QueryRow", mock.Anything, mock.Anything, mock.Anything).Return(bgpvpnRow(vpn))
	h := newBGPVPNHandler(db, nil)
	rec := httptest.NewRecorder()
	r := withAdmin(withChiURLParam(newRequest(http.MethodGet, "/bgpvpns/"+validID+"/routers", nil), "id", validID))

	h.Routers(rec, r)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Routers []model.ResourceRef `json:"routers"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []model.ResourceRef{{ID: "router-1", Found: true}}, body.Routers)
}

func TestBGPVPNCreate_OutOfRangeRouteTarget(t *testing.T) {
	h := newBGPVPNHandler(&handlerMockDB{}, nil)
	rec := httptest.NewRecorder()
	r := withAdmin(newRequest(http.MethodPost, "/bgpvpns", map[string]any{
		"bgpvpn": map[string]any{"route_targets": []string{"1.2.3.4:70000"}},
	}))

	h.Create(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBGPVPNCreate_NULInName(t *testing.T) {
	db := &handlerMockDB{}
	h := newBGPVPNHandler(db, nil)
	rec := httptest.NewRecorder()
	r := withAdmin(newRequestRaw(http.MethodPost, "/bgpvpns", `{"bgpvpn":{"name":"vpn\u0000"}}`))

	h.Create(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeErrorResponse(rec)["error"], "NUL")
	db.AssertNotCalled(t, "QueryRow", mock.Anything, mock.Anything, mock.Anything)
}
