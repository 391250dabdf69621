package database

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/web-casa/topoviz/internal/model"
)

func TestOpenConfiguresSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "topoviz.db")
	db, err := Open(path, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	var mode string
	require.NoError(t, db.Raw("PRAGMA journal_mode").Scan(&mode).Error)
	assert.Equal(t, "wal", mode)

	var fk int
	require.NoError(t, db.Raw("PRAGMA foreign_keys").Scan(&fk).Error)
	assert.Equal(t, 1, fk)

	for _, m := range model.All() {
		assert.True(t, db.Migrator().HasTable(m))
	}
}

func TestCascadeDeletes(t *testing.T) {
	db, err := OpenInMemory("database_cascade")
	require.NoError(t, err)

	a := model.Server{Name: "a", IPAddress: "10.0.0.1"}
	b := model.Server{Name: "b", IPAddress: "10.0.0.2"}
	require.NoError(t, db.Create(&a).Error)
	require.NoError(t, db.Create(&b).Error)
	require.NoError(t, db.Create(&model.ServerConnection{SourceID: b.ID, TargetID: a.ID}).Error)

	stack := model.Stack{ServerID: a.ID, Name: "shop"}
	require.NoError(t, db.Create(&stack).Error)
	require.NoError(t, db.Create(&model.ContainerService{StackID: stack.ID, ServiceName: "web"}).Error)

	require.NoError(t, db.Delete(&model.Server{}, a.ID).Error)

	var n int64
	db.Model(&model.Stack{}).Count(&n)
	assert.Zero(t, n)
	db.Model(&model.ContainerService{}).Count(&n)
	assert.Zero(t, n)
	db.Model(&model.ServerConnection{}).Count(&n)
	assert.Zero(t, n)

	dup := model.Stack{ServerID: b.ID, Name: "x"}
	require.NoError(t, db.Create(&dup).Error)
	assert.Error(t, db.Create(&model.Stack{ServerID: b.ID, Name: "x"}).Error, "stack names are unique per server")
}
