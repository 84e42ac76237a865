package handler

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/mock"

	"github.com/edvin/bgpvpn/internal/core"
	"github.com/edvin/bgpvpn/internal/model"
)

// handlerMockDB implements core.DB for handler tests.
type handlerMockDB struct {
	mock.Mock
}

func (m *handlerMockDB) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	args := m.Called(ctx, sql, arguments)
	return args.Get(0).(pgconn.CommandTag), args.Error(1)
}

func (m *handlerMockDB) Query(ctx context.Context, sql string, arguments ...any) (pgx.Rows, error) {
	args := m.Called(ctx, sql, arguments)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(pgx.Rows), args.Error(1)
}

func (m *handlerMockDB) QueryRow(ctx context.Context, sql string, arguments ...any) pgx.Row {
	args := m.Called(ctx, sql, arguments)
	return args.Get(0).(pgx.Row)
}

func (m *handlerMockDB) Begin(ctx context.Context) (pgx.Tx, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(pgx.Tx), args.Error(1)
}

// handlerMockTx implements the parts of pgx.Tx the services use.
type handlerMockTx struct {
	pgx.Tx
	mock.Mock
}

func (m *handlerMockTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	args := m.Called(ctx, sql, arguments)
	return args.Get(0).(pgconn.CommandTag), args.Error(1)
}

func (m *handlerMockTx) QueryRow(ctx context.Context, sql string, arguments ...any) pgx.Row {
	args := m.Called(ctx, sql, arguments)
	return args.Get(0).(pgx.Row)
}

func (m *handlerMockTx) Commit(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *handlerMockTx) Rollback(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// handlerMockRow implements pgx.Row.
type handlerMockRow struct {
	scanFunc func(dest ...any) error
}

func (m *handlerMockRow) Scan(dest ...any) error {
	return m.scanFunc(dest...)
}

// handlerMockRows implements pgx.Rows, one scan function per row.
type handlerMockRows struct {
	idx       int
	scanFuncs []func(dest ...any) error
}

func (m *handlerMockRows) Next() bool                                   { return m.idx < len(m.scanFuncs) }
func (m *handlerMockRows) Close()                                       {}
func (m *handlerMockRows) Err() error                                   { return nil }
func (m *handlerMockRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (m *handlerMockRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (m *handlerMockRows) Values() ([]any, error)                       { return nil, nil }
func (m *handlerMockRows) RawValues() [][]byte                          { return nil }
func (m *handlerMockRows) Conn() *pgx.Conn                              { return nil }

func (m *handlerMockRows) Scan(dest ...any) error {
	fn := m.scanFuncs[m.idx]
	m.idx++
	return fn(dest...)
}

func newRows(scanFuncs ...func(dest ...any) error) *handlerMockRows {
	return &handlerMockRows{scanFuncs: scanFuncs}
}

// newTxDB returns a mock DB whose Begin hands out a mock transaction.
func newTxDB() (*handlerMockDB, *handlerMockTx) {
	db := &handlerMockDB{}
	tx := &handlerMockTx{}
	db.On("Begin", mock.Anything).Return(tx, nil)
	tx.On("Rollback", mock.Anything).Return(nil)
	return db, tx
}

// sqlContains matches a SQL argument containing fragment.
func sqlContains(fragment string) any {
	return mock.MatchedBy(func(sql string) bool { return strings.Contains(sql, fragment) })
}

var noRows = &handlerMockRow{scanFunc: func(dest ...any) error { return pgx.ErrNoRows }}

var testTime = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

func testBGPVPN(tenantID string) model.BGPVPN {
	return model.BGPVPN{
		ID:           validID,
		TenantID:     tenantID,
		Name:         "vpn1",
		Type:         model.BGPVPNTypeL3,
		RouteTargets: []string{"64512:1"},
		Networks:     []string{},
		Routers:      []string{},
	}
}

// bgpvpnScan fills the columns of a BGPVPN read with its associations.
func bgpvpnScan(v model.BGPVPN) func(dest ...any) error {
	return func(dest ...any) error {
		*(dest[0].(*string)) = v.ID
		*(dest[1].(*string)) = v.TenantID
		*(dest[2].(*string)) = v.Name
		*(dest[3].(*string)) = v.Type
		*(dest[4].(*[]string)) = v.RouteTargets
		*(dest[5].(*[]string)) = v.ImportTargets
		*(dest[6].(*[]string)) = v.ExportTargets
		*(dest[7].(*[]string)) = v.RouteDistinguishers
		*(dest[8].(**int)) = v.VNI
		*(dest[9].(**int64)) = v.LocalPref
		*(dest[10].(*[]string)) = v.Networks
		*(dest[11].(*[]string)) = v.Routers
		*(dest[12].(*time.Time)) = testTime
		*(dest[13].(*time.Time)) = testTime
		return nil
	}
}

func bgpvpnRow(v model.BGPVPN) *handlerMockRow {
	return &handlerMockRow{scanFunc: bgpvpnScan(v)}
}

// lockRow fills the columns of a locked BGPVPN row, without associations.
func lockRow(v model.BGPVPN) *handlerMockRow {
	return &handlerMockRow{scanFunc: func(dest ...any) error {
		*(dest[0].(*string)) = v.ID
		*(dest[1].(*string)) = v.TenantID
		*(dest[2].(*string)) = v.Name
		*(dest[3].(*string)) = v.Type
		*(dest[4].(*[]string)) = v.RouteTargets
		*(dest[5].(*[]string)) = v.ImportTargets
		*(dest[6].(*[]string)) = v.ExportTargets
		*(dest[7].(*[]string)) = v.RouteDistinguishers
		*(dest[8].(**int)) = v.VNI
		*(dest[9].(**int64)) = v.LocalPref
		*(dest[10].(*time.Time)) = testTime
		*(dest[11].(*time.Time)) = testTime
		return nil
	}}
}

// fakeResolver serves networks and routers from maps.
type fakeResolver struct {
	networks map[string]*model.ResourceRef
	routers  map[string]*model.ResourceRef
}

func (f *fakeResolver) Network(_ context.Context, id string) (*model.ResourceRef, error) {
	if ref, ok := f.networks[id]; ok {
		c := *ref
		return &c, nil
	}
	return nil, core.ErrNotFound
}

func (f *fakeResolver) Router(_ context.Context, id string) (*model.ResourceRef, error) {
	if ref, ok := f.routers[id]; ok {
		c := *ref
		return &c, nil
	}
	return nil, core.ErrNotFound
}
