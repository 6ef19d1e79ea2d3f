package db

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := Open(DriverSQLite, dsn)
	require.NoError(t, err)
	require.NoError(t, Migrate(context.Background(), conn))
	t.Cleanup(func() { _ = Close(conn) })
	return conn
}

func createUser(t *testing.T, conn *gorm.DB, id int64) {
	t.Helper()
	require.NoError(t, conn.Create(&User{ID: id, ChatID: id, FirstName: "test"}).Error)
}
