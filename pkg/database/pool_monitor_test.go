package database

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func openSQLite(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})
	return db
}

func TestPoolHealth(t *testing.T) {
	db := openSQLite(t)

	snap, err := PoolHealth(context.Background(), db)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, snap.OpenConnections, 1)
	assert.Equal(t, snap.OpenConnections, snap.InUse+snap.Idle)
}

func TestRegisterPoolCollector(t *testing.T) {
	db := openSQLite(t)
	reg := prometheus.NewRegistry()

	require.NoError(t, RegisterPoolCollector(reg, db, "primary"))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["go_sql_open_connections"])
	assert.True(t, names["go_sql_in_use_connections"])

	// 同名重复注册应失败
	assert.Error(t, RegisterPoolCollector(reg, db, "primary"))
}
