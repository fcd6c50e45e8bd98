package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vendfleet/vendfleet-backend/pkg/db/models"
	pkgerrors "github.com/vendfleet/vendfleet-backend/pkg/errors"
	"github.com/vendfleet/vendfleet-backend/pkg/logger"
)

type inventoryRepo interface {
	Upsert(ctx context.Context, item *models.InventoryItem) (*models.InventoryItem, error)
	FindByMachineChannel(ctx context.Context, machineID string, channelID int) (*models.InventoryItem, error)
	ListByMachine(ctx context.Context, machineID string) ([]models.InventoryItem, error)
	AdjustQuantity(ctx context.Context, machineID string, channelID, delta int) (int64, error)
	Delete(ctx context.Context, machineID string, channelID int) (int64, error)
}

// ServiceParams configure the inventory service.
type ServiceParams struct {
	Logger *logger.Logger
	Repo   inventoryRepo
}

// Service manages per-channel stock. A channel holds one product at a
// time; quantity never goes below zero.
type Service struct {
	logg *logger.Logger
	repo inventoryRepo
}

// NewService builds the inventory service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	return &Service{logg: params.Logger, repo: params.Repo}, nil
}

// Upsert stocks or reprices one channel, replacing whatever product it held.
func (s *Service) Upsert(ctx context.Context, input UpsertInput) (*ItemDTO, error) {
	if strings.TrimSpace(input.MachineID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "machine id is required")
	}
	if input.ChannelID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "channel id must be positive")
	}
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if input.Quantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity cannot be negative")
	}
	if input.Price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
	}

	item, err := s.repo.Upsert(ctx, &models.InventoryItem{
		MachineID: input.MachineID,
		ChannelID: input.ChannelID,
		ProductID: input.ProductID,
		Quantity:  input.Quantity,
		Price:     input.Price,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "stocking channel")
	}

	dto := toDTO(*item)
	return &dto, nil
}

// ListByMachine returns every stocked channel of one machine.
func (s *Service) ListByMachine(ctx context.Context, machineID string) ([]ItemDTO, error) {
	items, err := s.repo.ListByMachine(ctx, machineID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing inventory")
	}
	dtos := make([]ItemDTO, 0, len(items))
	for _, item := range items {
		dtos = append(dtos, toDTO(item))
	}
	return dtos, nil
}

// Adjust changes one channel's stock by a signed delta. An overdraw is a
// conflict; the stored quantity is untouched.
func (s *Service) Adjust(ctx context.Context, input AdjustInput) (*ItemDTO, error) {
	if input.Delta == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delta cannot be zero")
	}

	rows, err := s.repo.AdjustQuantity(ctx, input.MachineID, input.ChannelID, input.Delta)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "adjusting quantity")
	}
	if rows == 0 {
		// Disambiguate a missing row from an overdraw.
		if _, err := s.repo.FindByMachineChannel(ctx, input.MachineID, input.ChannelID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "channel not stocked")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetching channel")
		}
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "adjustment would make quantity negative")
	}

	item, err := s.repo.FindByMachineChannel(ctx, input.MachineID, input.ChannelID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetching channel")
	}
	dto := toDTO(*item)
	return &dto, nil
}

// Delete clears one channel.
func (s *Service) Delete(ctx context.Context, machineID string, channelID int) error {
	rows, err := s.repo.Delete(ctx, machineID, channelID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deleting channel")
	}
	if rows == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "channel not stocked")
	}
	return nil
}
