package database

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iaguu/axion-central-bot/internal/models"
)

func TestAuditAppendAndLimit(t *testing.T) {
	db := testDB(t)

	db.AddLog("first")
	db.AddLog("second")
	db.AddLog("third")

	logs := db.Logs(2)
	require.Len(t, logs, 2)
	assert.Equal(t, "second", logs[0].A)
	assert.Equal(t, "third", logs[1].A)
	assert.NotEmpty(t, logs[0].T)

	assert.Len(t, db.Logs(0), 3)
}

func TestAuditRingEviction(t *testing.T) {
	db := testDB(t)

	for i := 0; i < models.MaxAuditEntries+10; i++ {
		db.AddLog(fmt.Sprintf("action %d", i))
	}

	logs := db.Logs(0)
	require.Len(t, logs, models.MaxAuditEntries)
	assert.Equal(t, "action 10", logs[0].A, "oldest entries evicted first")
}

func TestClearLogs(t *testing.T) {
	db := testDB(t)

	db.AddLog("x")
	require.NoError(t, db.ClearLogs())
	assert.Empty(t, db.Logs(0))
}

func TestSystemPool(t *testing.T) {
	db := testDB(t)

	require.NoError(t, db.SetPool(100))
	assert.Equal(t, 100.0, db.Pool())

	v, err := db.AddPool(25.5)
	require.NoError(t, err)
	assert.Equal(t, 125.5, v)
	assert.Equal(t, 125.5, db.Pool())
}

func TestInvestmentsAppendOnly(t *testing.T) {
	db := testDB(t)

	inv, err := db.RegisterInvestment(map[string]any{"user": "42", "amount": 50.0})
	require.NoError(t, err)
	assert.NotZero(t, inv.ID)
	assert.NotEmpty(t, inv.Timestamp)

	all := db.Investments()
	require.Len(t, all, 1)
	assert.Equal(t, "42", all[0].Data["user"])
}
