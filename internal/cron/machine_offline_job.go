package cron

import (
	"context"
	"fmt"

	"github.com/vendfleet/vendfleet-backend/pkg/logger"
)

type sweeper interface {
	Sweep(ctx context.Context) error
}

// MachineOfflineJobParams configure the liveness sweep job.
type MachineOfflineJobParams struct {
	Logger  *logger.Logger
	Sweeper sweeper
}

// NewMachineOfflineJob wraps the machine liveness sweep as a cron job.
func NewMachineOfflineJob(params MachineOfflineJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Sweeper == nil {
		return nil, fmt.Errorf("sweeper required")
	}
	return &machineOfflineJob{
		logg:    params.Logger,
		sweeper: params.Sweeper,
	}, nil
}

type machineOfflineJob struct {
	logg    *logger.Logger
	sweeper sweeper
}

func (j *machineOfflineJob) Name() string { return "machine-offline-sweep" }

func (j *machineOfflineJob) Run(ctx context.Context) error {
	return j.sweeper.Sweep(ctx)
}
