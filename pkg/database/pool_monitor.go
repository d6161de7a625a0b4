package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"gorm.io/gorm"
)

// PoolSnapshot 连接池快照，供 /health 展示
type PoolSnapshot struct {
	OpenConnections int    `json:"open_connections"`
	InUse           int    `json:"in_use"`
	Idle            int    `json:"idle"`
	WaitCount       int64  `json:"wait_count"`
	WaitDuration    string `json:"wait_duration"`
}

// PoolHealth ping 数据库并返回当前连接池状态
func PoolHealth(ctx context.Context, db *gorm.DB) (PoolSnapshot, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return PoolSnapshot{}, err
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		return snapshot(sqlDB.Stats()), err
	}
	return snapshot(sqlDB.Stats()), nil
}

func snapshot(s sql.DBStats) PoolSnapshot {
	return PoolSnapshot{
		OpenConnections: s.OpenConnections,
		InUse:           s.InUse,
		Idle:            s.Idle,
		WaitCount:       s.WaitCount,
		WaitDuration:    s.WaitDuration.String(),
	}
}

// RegisterPoolCollector 把 database/sql 的连接池统计导出为 go_sql_* 指标
func RegisterPoolCollector(reg prometheus.Registerer, db *gorm.DB, name string) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return reg.Register(collectors.NewDBStatsCollector(sqlDB, name))
}
