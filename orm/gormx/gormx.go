// Package gormx 让已经用 gorm 建好的连接也能执行 orm 语句
package gormx

import (
	"fmt"

	"github.com/startdusk/pagehelper/orm"
	"gorm.io/gorm"
)

// Open 复用 gorm 的连接池, 驱动名取 Dialector 的名字, 例如 mysql, postgres, sqlite
// 返回的 orm.DB 和 gorm 共用连接, 关闭任意一个都会关闭连接池
func Open(gdb *gorm.DB, opts ...orm.DBOption) (*orm.DB, error) {
	if gdb == nil || gdb.Dialector == nil {
		return nil, fmt.Errorf("gormx: gorm.DB 没有初始化")
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("gormx: 获取连接池失败: %w", err)
	}
	return orm.OpenDB(sqlDB, append([]orm.DBOption{orm.DBWithDriverName(DriverName(gdb))}, opts...)...)
}

func MustOpen(gdb *gorm.DB, opts ...orm.DBOption) *orm.DB {
	db, err := Open(gdb, opts...)
	if err != nil {
		panic(err)
	}
	return db
}

// DriverName gorm 的方言名, 分页插件用它识别数据库
func DriverName(gdb *gorm.DB) string {
	return gdb.Dialector.Name()
}
