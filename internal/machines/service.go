package machines

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/vendfleet/vendfleet-backend/pkg/db"
	"github.com/vendfleet/vendfleet-backend/pkg/db/models"
	"github.com/vendfleet/vendfleet-backend/pkg/enums"
	pkgerrors "github.com/vendfleet/vendfleet-backend/pkg/errors"
	"github.com/vendfleet/vendfleet-backend/pkg/logger"
)

const defaultTolerance = 7 * time.Minute

type machineRepo interface {
	Create(ctx context.Context, machine *models.Machine) error
	List(ctx context.Context) ([]models.Machine, error)
	FindByMachineID(ctx context.Context, machineID string) (*models.Machine, error)
	UpsertHeartbeat(ctx context.Context, machineID string, status enums.MachineStatus, at time.Time) (*models.Machine, error)
	FindStale(ctx context.Context, cutoff time.Time) ([]models.Machine, error)
	MarkOffline(ctx context.Context, machineIDs []string, cutoff time.Time) (int64, error)
}

// OfflineAlerter fans an offline transition out to the configured channels.
type OfflineAlerter interface {
	MachineOffline(ctx context.Context, machine models.Machine) error
}

// ServiceParams configure the machine service.
type ServiceParams struct {
	Logger    *logger.Logger
	Repo      machineRepo
	Alerter   OfflineAlerter
	Tolerance time.Duration
}

// Service owns machine registration, heartbeats, and the liveness sweep.
type Service struct {
	logg      *logger.Logger
	repo      machineRepo
	alerter   OfflineAlerter
	tolerance time.Duration
	now       func() time.Time
}

// NewService builds the machine service. Alerter may be nil on instances
// that never run the sweep.
func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("machine repository required")
	}
	tolerance := params.Tolerance
	if tolerance <= 0 {
		tolerance = defaultTolerance
	}
	return &Service{
		logg:      params.Logger,
		repo:      params.Repo,
		alerter:   params.Alerter,
		tolerance: tolerance,
		now:       time.Now,
	}, nil
}

// Register creates a machine row for a newly deployed unit.
func (s *Service) Register(ctx context.Context, input RegisterMachineInput) (*MachineDTO, error) {
	if input.MachineID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "machine id is required")
	}

	machine := models.Machine{
		MachineID: input.MachineID,
		Latitude:  input.Latitude,
		Longitude: input.Longitude,
		Status:    enums.MachineStatusOffline,
	}
	if err := s.repo.Create(ctx, &machine); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "machine already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating machine")
	}

	dto := toDTO(machine)
	return &dto, nil
}

// List returns every registered machine.
func (s *Service) List(ctx context.Context) ([]MachineDTO, error) {
	machines, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing machines")
	}
	dtos := make([]MachineDTO, 0, len(machines))
	for _, m := range machines {
		dtos = append(dtos, toDTO(m))
	}
	return dtos, nil
}

// Get fetches one machine by its operator-assigned id.
func (s *Service) Get(ctx context.Context, machineID string) (*MachineDTO, error) {
	machine, err := s.repo.FindByMachineID(ctx, machineID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "machine not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetching machine")
	}
	dto := toDTO(*machine)
	return &dto, nil
}

// ReportHeartbeat upserts the machine with the reported status and refreshes
// its last heartbeat timestamp. Unknown machines are created on first report.
func (s *Service) ReportHeartbeat(ctx context.Context, machineID string, status enums.MachineStatus) (*MachineDTO, error) {
	if machineID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "machine id is required")
	}
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid machine status %q", status))
	}

	machine, err := s.repo.UpsertHeartbeat(ctx, machineID, status, s.now().UTC())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "recording heartbeat")
	}
	dto := toDTO(*machine)
	return &dto, nil
}

// Sweep flips machines whose heartbeat went stale to offline. Alerts are
// dispatched before the status write so a notification failure never blocks
// the transition; the conditional write keeps machines that heartbeated
// mid-sweep online.
func (s *Service) Sweep(ctx context.Context) error {
	now := s.now().UTC()
	cutoff := now.Add(-s.tolerance)

	stale, err := s.repo.FindStale(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("query stale machines: %w", err)
	}
	if len(stale) == 0 {
		s.logg.Info(ctx, "all online machines reporting")
		return nil
	}

	var errs []error
	ids := make([]string, 0, len(stale))
	for _, machine := range stale {
		machineCtx := s.logg.WithMachineID(ctx, machine.MachineID)
		if s.alerter != nil {
			if err := s.alerter.MachineOffline(machineCtx, machine); err != nil {
				s.logg.Error(machineCtx, "offline alert dispatch failed", err)
				errs = append(errs, fmt.Errorf("alert %s: %w", machine.MachineID, err))
			}
		}
		ids = append(ids, machine.MachineID)
	}

	updated, err := s.repo.MarkOffline(ctx, ids, cutoff)
	if err != nil {
		errs = append(errs, fmt.Errorf("mark machines offline: %w", err))
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"stale":       len(stale),
		"transitions": updated,
	})
	s.logg.Info(logCtx, "liveness sweep complete")

	return multierr.Combine(errs...)
}
