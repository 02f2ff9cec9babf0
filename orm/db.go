package orm

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/startdusk/pagehelper/cache"
)

var (
	_ Session = &DB{}
)

type DBOption func(db *DB)

type DB struct {
	core
	db *sql.DB
}

func (db *DB) BeginTx(ctx context.Context, opts *sql.TxOptions) (*Tx, error) {
	tx, err := db.db.BeginTx(ctx, opts)
	if err != nil {
		return nil, err
	}
	return &Tx{tx: tx, db: db}, nil
}

func (db *DB) queryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return db.db.QueryContext(ctx, query, args...)
}

func (db *DB) execContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return db.db.ExecContext(ctx, query, args...)
}

func (db *DB) getCore() core {
	return db.core
}

// Query 执行语句, 返回值是 []any 或者中间件包装过的结果(例如分页结果)
func (db *DB) Query(ctx context.Context, id string, param any, bounds RowBounds) (any, error) {
	return Query(ctx, db, id, param, bounds)
}

func (db *DB) SelectList(ctx context.Context, id string, param any, bounds RowBounds) ([]any, error) {
	return SelectList(ctx, db, id, param, bounds)
}

func (db *DB) SelectOne(ctx context.Context, id string, param any) (any, error) {
	return SelectOne(ctx, db, id, param)
}

func (db *DB) Exec(ctx context.Context, id string, param any) (sql.Result, error) {
	return Exec(ctx, db, id, param)
}

func (db *DB) Configuration() *Configuration {
	return db.cfg
}

func (db *DB) DataSource() DataSource {
	return db.source
}

func (db *DB) Close() error {
	return db.db.Close()
}

func (db *DB) DoTx(ctx context.Context, fn func(ctx context.Context, tx *Tx) error, opts *sql.TxOptions) (err error) {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return err
	}

	panicked := true
	defer func() {
		if panicked || err != nil {
			rollbackErr := tx.Rollback()
			if rollbackErr != nil {
				err = fmt.Errorf("orm: 事务回滚失败: %w, 业务错误: %v, 是否 panic: %t", rollbackErr, err, panicked)
			}
		} else {
			err = tx.Commit()
		}
	}()
	err = fn(ctx, tx)
	// 执行过程中没有发生panic, 则标志位置为false
	panicked = false
	return err
}

func Open(driver string, dataSourceName string, opts ...DBOption) (*DB, error) {
	db, err := sql.Open(driver, dataSourceName)
	if err != nil {
		return nil, err
	}
	return OpenDB(db, append([]DBOption{DBWithDriverName(driver)}, opts...)...)
}

func OpenDB(db *sql.DB, opts ...DBOption) (*DB, error) {
	newDB := &DB{
		core: core{
			cfg: NewConfiguration(),
			source: DataSource{
				Driver: db.Driver(),
			},
		},
		db: db,
	}

	for _, opt := range opts {
		opt(newDB)
	}
	if newDB.placeholder == nil {
		newDB.placeholder = placeholderOf(newDB.source.DriverName)
	}
	return newDB, nil
}

func MustOpenDB(db *sql.DB, opts ...DBOption) *DB {
	newDB, err := OpenDB(db, opts...)
	if err != nil {
		panic(err)
	}
	return newDB
}

func MustOpen(driver string, dataSourceName string, opts ...DBOption) *DB {
	newDB, err := Open(driver, dataSourceName, opts...)
	if err != nil {
		panic(err)
	}
	return newDB
}

func DBWithConfiguration(cfg *Configuration) DBOption {
	return func(db *DB) {
		db.cfg = cfg
	}
}

// DBWithDriverName 驱动名, 用来推断占位符和数据库方言
func DBWithDriverName(name string) DBOption {
	return func(db *DB) {
		db.source.DriverName = name
	}
}

// DBWithPlaceholder 语句里统一写 ?, 执行前转换成数据库需要的占位符
func DBWithPlaceholder(format squirrel.PlaceholderFormat) DBOption {
	return func(db *DB) {
		db.placeholder = format
	}
}

// DBWithResultCache 打开了 UseCache 的语句, 结果按 CacheKey 缓存
func DBWithResultCache(c cache.Cache) DBOption {
	return func(db *DB) {
		db.resultCache = cache.NewReadThroughCache(c, 0)
	}
}

func DBWithMiddlewares(mdls ...Middleware) DBOption {
	return func(db *DB) {
		db.mdls = append(db.mdls, mdls...)
	}
}

func placeholderOf(driverName string) squirrel.PlaceholderFormat {
	switch strings.ToLower(driverName) {
	case "postgres", "pgx", "opengauss", "kingbase":
		return squirrel.Dollar
	case "godror", "oci8", "oracle", "dm":
		return squirrel.Colon
	case "sqlserver", "mssql":
		return squirrel.AtP
	default:
		return squirrel.Question
	}
}
