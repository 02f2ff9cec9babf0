package pagehelper

import (
	"context"
	"database/sql/driver"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/mattn/go-sqlite3"
	"github.com/startdusk/pagehelper/internal/countsql"
	"github.com/startdusk/pagehelper/internal/errs"
	"github.com/startdusk/pagehelper/orm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"modernc.org/sqlite"
)

func Test_productName(t *testing.T) {
	cases := []struct {
		name   string
		source orm.DataSource
		want   string
	}{
		{
			name:   "mysql driver",
			source: orm.DataSource{Driver: &mysql.MySQLDriver{}},
			want:   DialectMySQL,
		},
		{
			name:   "pgx driver",
			source: orm.DataSource{Driver: &stdlib.Driver{}},
			want:   DialectPostgreSQL,
		},
		{
			name:   "mattn sqlite",
			source: orm.DataSource{Driver: &sqlite3.SQLiteDriver{}},
			want:   DialectSQLite,
		},
		{
			name:   "modernc sqlite",
			source: orm.DataSource{Driver: &sqlite.Driver{}},
			want:   DialectSQLite,
		},
		{
			name:   "driver type wins",
			source: orm.DataSource{DriverName: "oracle", Driver: &mysql.MySQLDriver{}},
			want:   DialectMySQL,
		},
		{
			name:   "driver name",
			source: orm.DataSource{DriverName: "SQLServer"},
			want:   "sqlserver",
		},
		{
			name: "nothing",
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, productName(c.source))
		})
	}
}

func Test_parseAliases(t *testing.T) {
	cases := []struct {
		name    string
		text    string
		want    map[string]string
		wantErr error
	}{
		{
			name: "empty",
			want: map[string]string{},
		},
		{
			name: "pairs",
			text: "Shentong=oracle; yashan=mysql;",
			want: map[string]string{"shentong": DialectOracle, "yashan": DialectMySQL},
		},
		{
			name: "alias to alias",
			text: "gauss=pgx",
			want: map[string]string{"gauss": DialectPostgreSQL},
		},
		{
			name:    "unknown target",
			text:    "x=access",
			wantErr: errs.ErrUnknownDialect,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			res, err := parseAliases(c.text)
			if c.wantErr != nil {
				assert.ErrorIs(t, err, c.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, c.want, res)
		})
	}

	_, err := parseAliases("broken")
	assert.Error(t, err)
}

// withSource 模拟拦截器进入时的 ctx
func withSource(ctx context.Context, name string, drv driver.Driver) context.Context {
	return withCall(ctx, orm.DataSource{DriverName: name, Driver: drv})
}

func Test_autoDialect_initDelegate(t *testing.T) {
	st := &orm.Statement{ID: "users.list"}
	cases := []struct {
		name     string
		cfg      func(cfg *Config)
		ctx      context.Context
		wantName string
		wantErr  error
	}{
		{
			name:     "detect by driver",
			ctx:      withSource(context.Background(), "", &mysql.MySQLDriver{}),
			wantName: DialectMySQL,
		},
		{
			name:     "detect by driver name",
			ctx:      withSource(context.Background(), "mssql", nil),
			wantName: DialectSQLServer,
		},
		{
			name: "helper dialect",
			cfg: func(cfg *Config) {
				cfg.HelperDialect = "oracle"
			},
			ctx:      withSource(context.Background(), "", &mysql.MySQLDriver{}),
			wantName: DialectOracle,
		},
		{
			name: "custom alias",
			cfg: func(cfg *Config) {
				cfg.DialectAlias = "shentong=oracle"
			},
			ctx:      withSource(context.Background(), "shentong", nil),
			wantName: DialectOracle,
		},
		{
			name:    "unknown driver",
			ctx:     withSource(context.Background(), "access", nil),
			wantErr: errs.ErrDialectUndetected,
		},
		{
			name:    "no driver",
			ctx:     withSource(context.Background(), "", nil),
			wantErr: errs.ErrDialectUndetected,
		},
		{
			name: "outside interceptor",
			ctx:  context.Background(),
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			cfg := DefaultConfig()
			if c.cfg != nil {
				c.cfg(&cfg)
			}
			a, err := newAutoDialect(cfg, countsql.NewParser(), zap.NewNop())
			require.NoError(t, err)

			err = a.initDelegate(c.ctx, st)
			if callOf(c.ctx) == nil {
				assert.Error(t, err)
				return
			}
			if c.wantErr != nil {
				assert.ErrorIs(t, err, c.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, c.wantName, a.delegate(c.ctx).Name())

			a.clearDelegate(c.ctx)
			assert.Nil(t, a.delegate(c.ctx))
		})
	}
}

func Test_autoDialect_CachePerStatement(t *testing.T) {
	st := &orm.Statement{ID: "users.list"}
	a, err := newAutoDialect(DefaultConfig(), countsql.NewParser(), zap.NewNop())
	require.NoError(t, err)

	ctx := withSource(context.Background(), "", &mysql.MySQLDriver{})
	require.NoError(t, a.initDelegate(ctx, st))
	assert.Equal(t, DialectMySQL, a.delegate(ctx).Name())

	// 同一条语句换了数据源, 还是用第一次识别的结果
	ctx = withSource(context.Background(), "", &stdlib.Driver{})
	require.NoError(t, a.initDelegate(ctx, st))
	assert.Equal(t, DialectMySQL, a.delegate(ctx).Name())

	// 其它语句重新识别
	require.NoError(t, a.initDelegate(ctx, &orm.Statement{ID: "orders.list"}))
	assert.Equal(t, DialectPostgreSQL, a.delegate(ctx).Name())
}

func Test_autoDialect_AutoRuntime(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AutoRuntimeDialect = true
	st := &orm.Statement{ID: "users.list"}
	a, err := newAutoDialect(cfg, countsql.NewParser(), zap.NewNop())
	require.NoError(t, err)

	ctx := withSource(context.Background(), "", &mysql.MySQLDriver{})
	require.NoError(t, a.initDelegate(ctx, st))
	assert.Equal(t, DialectMySQL, a.delegate(ctx).Name())

	ctx = withSource(context.Background(), "", &sqlite.Driver{})
	require.NoError(t, a.initDelegate(ctx, st))
	assert.Equal(t, DialectSQLite, a.delegate(ctx).Name())
}

func Test_newAutoDialect_Errors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.HelperDialect = "access"
	_, err := newAutoDialect(cfg, countsql.NewParser(), zap.NewNop())
	assert.ErrorIs(t, err, errs.ErrUnknownDialect)

	cfg = DefaultConfig()
	cfg.DialectAlias = "a"
	_, err = newAutoDialect(cfg, countsql.NewParser(), zap.NewNop())
	assert.Error(t, err)
}
