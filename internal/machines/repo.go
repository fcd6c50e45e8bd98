package machines

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vendfleet/vendfleet-backend/internal/repo"
	"github.com/vendfleet/vendfleet-backend/pkg/db/models"
	"github.com/vendfleet/vendfleet-backend/pkg/enums"
)

// Repository persists machine rows.
type Repository struct {
	repo.Base
}

// NewRepository builds a machine repository on the provided connection.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// Create inserts a new machine row.
func (r *Repository) Create(ctx context.Context, machine *models.Machine) error {
	return r.DB(ctx).Create(machine).Error
}

// List returns all machines ordered by their operator-assigned id.
func (r *Repository) List(ctx context.Context) ([]models.Machine, error) {
	var machines []models.Machine
	if err := r.DB(ctx).Order("machine_id ASC").Find(&machines).Error; err != nil {
		return nil, err
	}
	return machines, nil
}

// FindByMachineID fetches one machine by its operator-assigned id.
func (r *Repository) FindByMachineID(ctx context.Context, machineID string) (*models.Machine, error) {
	var machine models.Machine
	if err := r.DB(ctx).Where("machine_id = ?", machineID).First(&machine).Error; err != nil {
		return nil, err
	}
	return &machine, nil
}

// UpsertHeartbeat records a heartbeat, creating the machine row on first
// contact. Status and last_heartbeat always reflect the latest report.
func (r *Repository) UpsertHeartbeat(ctx context.Context, machineID string, status enums.MachineStatus, at time.Time) (*models.Machine, error) {
	machine := models.Machine{
		MachineID:     machineID,
		Status:        status,
		LastHeartbeat: &at,
	}
	err := r.DB(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "machine_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "last_heartbeat", "updated_at"}),
	}).Create(&machine).Error
	if err != nil {
		return nil, err
	}
	return r.FindByMachineID(ctx, machineID)
}

// FindStale returns online machines whose last heartbeat predates the cutoff.
func (r *Repository) FindStale(ctx context.Context, cutoff time.Time) ([]models.Machine, error) {
	var machines []models.Machine
	err := r.DB(ctx).
		Where("status = ? AND last_heartbeat < ?", enums.MachineStatusOnline, cutoff).
		Order("machine_id ASC").
		Find(&machines).Error
	if err != nil {
		return nil, err
	}
	return machines, nil
}

// MarkOffline flips the listed machines to offline, but only those still
// online with a heartbeat older than the cutoff. A heartbeat landing between
// the stale select and this write keeps its machine online.
func (r *Repository) MarkOffline(ctx context.Context, machineIDs []string, cutoff time.Time) (int64, error) {
	if len(machineIDs) == 0 {
		return 0, nil
	}
	result := r.DB(ctx).
		Model(&models.Machine{}).
		Where("machine_id IN ? AND status = ? AND last_heartbeat < ?", machineIDs, enums.MachineStatusOnline, cutoff).
		Update("status", enums.MachineStatusOffline)
	return result.RowsAffected, result.Error
}
