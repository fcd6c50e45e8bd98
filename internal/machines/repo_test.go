package machines

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/vendfleet/vendfleet-backend/pkg/db/models"
	"github.com/vendfleet/vendfleet-backend/pkg/enums"
)

func setupMachinesTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	machines := `
CREATE TABLE IF NOT EXISTS machines (
  id TEXT PRIMARY KEY,
  machine_id TEXT NOT NULL UNIQUE,
  latitude REAL NOT NULL DEFAULT 0,
  longitude REAL NOT NULL DEFAULT 0,
  status TEXT NOT NULL DEFAULT 'offline',
  last_heartbeat DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(machines).Error)
	return db
}

func seedMachine(t *testing.T, db *gorm.DB, machineID string, status enums.MachineStatus, heartbeat time.Time) *models.Machine {
	t.Helper()

	machine := &models.Machine{
		ID:            uuid.New(),
		MachineID:     machineID,
		Status:        status,
		LastHeartbeat: &heartbeat,
	}
	require.NoError(t, db.Create(machine).Error)
	return machine
}

func TestRepositoryMarkOffline_SparesMachineThatHeartbeatedMidSweep(t *testing.T) {
	db := setupMachinesTestDB(t)
	repo := NewRepository(db)

	now := time.Now().UTC()
	cutoff := now.Add(-7 * time.Minute)
	staleAt := now.Add(-10 * time.Minute)
	seedMachine(t, db, "VM-001", enums.MachineStatusOnline, staleAt)
	seedMachine(t, db, "VM-002", enums.MachineStatusOnline, staleAt)

	stale, err := repo.FindStale(context.Background(), cutoff)
	require.NoError(t, err)
	require.Len(t, stale, 2)
	ids := []string{stale[0].MachineID, stale[1].MachineID}

	// VM-002 reports between the stale select and the offline write.
	revived, err := repo.UpsertHeartbeat(context.Background(), "VM-002", enums.MachineStatusOnline, now)
	require.NoError(t, err)
	require.NotNil(t, revived.LastHeartbeat)

	updated, err := repo.MarkOffline(context.Background(), ids, cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(1), updated)

	flipped, err := repo.FindByMachineID(context.Background(), "VM-001")
	require.NoError(t, err)
	assert.Equal(t, enums.MachineStatusOffline, flipped.Status)

	spared, err := repo.FindByMachineID(context.Background(), "VM-002")
	require.NoError(t, err)
	assert.Equal(t, enums.MachineStatusOnline, spared.Status)
	require.NotNil(t, spared.LastHeartbeat)
	assert.WithinDuration(t, now, *spared.LastHeartbeat, time.Second)
}

func TestRepositoryMarkOffline_LeavesAlreadyOfflineMachinesAlone(t *testing.T) {
	db := setupMachinesTestDB(t)
	repo := NewRepository(db)

	now := time.Now().UTC()
	cutoff := now.Add(-7 * time.Minute)
	seedMachine(t, db, "VM-003", enums.MachineStatusOffline, now.Add(-time.Hour))

	updated, err := repo.MarkOffline(context.Background(), []string{"VM-003"}, cutoff)
	require.NoError(t, err)
	assert.Zero(t, updated)
}

func TestRepositoryFindStale_SkipsFreshAndOfflineMachines(t *testing.T) {
	db := setupMachinesTestDB(t)
	repo := NewRepository(db)

	now := time.Now().UTC()
	cutoff := now.Add(-7 * time.Minute)
	seedMachine(t, db, "VM-010", enums.MachineStatusOnline, now.Add(-10*time.Minute))
	seedMachine(t, db, "VM-011", enums.MachineStatusOnline, now.Add(-time.Minute))
	seedMachine(t, db, "VM-012", enums.MachineStatusOffline, now.Add(-time.Hour))

	stale, err := repo.FindStale(context.Background(), cutoff)
	require.NoError(t, err)
	require.Len(t, stale, 1)
	assert.Equal(t, "VM-010", stale[0].MachineID)
}
