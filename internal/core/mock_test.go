package core

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/mock"

	"github.com/edvin/bgpvpn/internal/model"
)

// ---------- Mock DB ----------

// mockDB implements the DB interface for testing.
type mockDB struct {
	mock.Mock
}

func (m *mockDB) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	args := m.Called(ctx, sql, arguments)
	return args.Get(0).(pgconn.CommandTag), args.Error(1)
}

func (m *mockDB) Query(ctx context.Context, sql string, arguments ...any) (pgx.Rows, error) {
	args := m.Called(ctx, sql, arguments)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(pgx.Rows), args.Error(1)
}

func (m *mockDB) QueryRow(ctx context.Context, sql string, arguments ...any) pgx.Row {
	args := m.Called(ctx, sql, arguments)
	return args.Get(0).(pgx.Row)
}

func (m *mockDB) Begin(ctx context.Context) (pgx.Tx, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(pgx.Tx), args.Error(1)
}

// ---------- Mock Tx ----------

// mockTx implements pgx.Tx for testing. Methods the services never call are
// left to the embedded nil interface.
type mockTx struct {
	pgx.Tx
	mock.Mock
}

func (m *mockTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	args := m.Called(ctx, sql, arguments)
	return args.Get(0).(pgconn.CommandTag), args.Error(1)
}

func (m *mockTx) Query(ctx context.Context, sql string, arguments ...any) (pgx.Rows, error) {
	args := m.Called(ctx, sql, arguments)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(pgx.Rows), args.Error(1)
}

func (m *mockTx) QueryRow(ctx context.Context, sql string, arguments ...any) pgx.Row {
	args := m.Called(ctx, sql, arguments)
	return args.Get(0).(pgx.Row)
}

func (m *mockTx) Commit(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockTx) Rollback(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// newTxDB returns a mockDB whose Begin hands out a mockTx. Rollback is always
// expected because the services defer it.
func newTxDB() (*mockDB, *mockTx) {
	db := &mockDB{}
	tx := &mockTx{}
	db.On("Begin", mock.Anything).Return(tx, nil)
	tx.On("Rollback", mock.Anything).Return(nil)
	return db, tx
}

// sqlContains matches a SQL argument containing fragment.
func sqlContains(fragment string) any {
	return mock.MatchedBy(func(sql string) bool { return strings.Contains(sql, fragment) })
}

// ---------- Mock Row ----------

// mockRow implements pgx.Row for testing.
type mockRow struct {
	scanFunc func(dest ...any) error
}

func (m *mockRow) Scan(dest ...any) error {
	return m.scanFunc(dest...)
}

// ---------- Mock Rows ----------

// mockRows implements pgx.Rows for testing.
// It iterates through a list of scan functions, one per row.
type mockRows struct {
	callIndex int
	scanFuncs []func(dest ...any) error
	err       error
}

func newMockRows(scanFuncs ...func(dest ...any) error) *mockRows {
	return &mockRows{scanFuncs: scanFuncs}
}

// newEmptyMockRows returns a mockRows that yields zero rows.
func newEmptyMockRows() *mockRows {
	return &mockRows{}
}

func (m *mockRows) Next() bool {
	return m.callIndex < len(m.scanFuncs)
}

func (m *mockRows) Scan(dest ...any) error {
	if m.callIndex < len(m.scanFuncs) {
		fn := m.scanFuncs[m.callIndex]
		m.callIndex++
		return fn(dest...)
	}
	return nil
}

func (m *mockRows) Err() error                                   { return m.err }
func (m *mockRows) Close()                                       {}
func (m *mockRows) CommandTag() pgconn.CommandTag                 { return pgconn.CommandTag{} }
func (m *mockRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (m *mockRows) RawValues() [][]byte                          { return nil }
func (m *mockRows) Values() ([]any, error)                       { return nil, nil }
func (m *mockRows) Conn() *pgx.Conn                              { return nil }

// ---------- Row fixtures ----------

// bgpvpnScan fills a full BGPVPN row as read by selectBGPVPN.
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
		*(dest[12].(*time.Time)) = v.CreatedAt
		*(dest[13].(*time.Time)) = v.UpdatedAt
		return nil
	}
}

// lockScan fills a BGPVPN row as read by lockBGPVPN.
func lockScan(v model.BGPVPN) func(dest ...any) error {
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
		*(dest[10].(*time.Time)) = v.CreatedAt
		*(dest[11].(*time.Time)) = v.UpdatedAt
		return nil
	}
}

func noRows(dest ...any) error { return pgx.ErrNoRows }

func testBGPVPN() model.BGPVPN {
	now := time.Now().Truncate(time.Microsecond)
	return model.BGPVPN{
		ID:                  "vpn-1",
		TenantID:            "tenant-1",
		Name:                "blue",
		Type:                model.BGPVPNTypeL3,
		RouteTargets:        []string{"64512:1"},
		ImportTargets:       []string{},
		ExportTargets:       []string{},
		RouteDistinguishers: []string{},
		Networks:            []string{},
		Routers:             []string{},
		CreatedAt:           now,
		UpdatedAt:           now,
	}
}
