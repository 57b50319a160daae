package database

import (
	"fmt"
	"testing"

	"aklny/internal/config"
	"aklny/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
)

func openObserved(t *testing.T) (*gorm.DB, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)
	dsn := fmt.Sprintf("file:db_test_%s?mode=memory&cache=shared", uuid.NewString()[:8])

	db, err := NewConnection(config.DBConfig{Driver: "sqlite", SQLitePath: dsn}, zap.New(core))
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	logs.TakeAll()
	return db, logs
}

func gormEntries(logs *observer.ObservedLogs) []observer.LoggedEntry {
	return logs.Filter(func(e observer.LoggedEntry) bool { return e.LoggerName == "gorm" }).AllUntimed()
}

func TestNewConnection_MissingRowIsNotLogged(t *testing.T) {
	db, logs := openObserved(t)

	err := db.Where("email = ?", "ghost@example.com").First(&model.User{}).Error
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	assert.Empty(t, gormEntries(logs))
}

func TestNewConnection_QueryErrorsGoThroughZapWithoutValues(t *testing.T) {
	db, logs := openObserved(t)

	var rows []map[string]interface{}
	err := db.Raw("SELECT * FROM no_such_table WHERE email = ?", "secret@example.com").Scan(&rows).Error
	require.Error(t, err)

	entries := gormEntries(logs)
	require.Len(t, entries, 1)
	assert.Equal(t, zap.WarnLevel, entries[0].Level)
	assert.Contains(t, entries[0].Message, "no_such_table")
	assert.NotContains(t, entries[0].Message, "secret@example.com")
}
