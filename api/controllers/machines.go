package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/vendfleet/vendfleet-backend/api/responses"
	"github.com/vendfleet/vendfleet-backend/api/validators"
	machinesvc "github.com/vendfleet/vendfleet-backend/internal/machines"
	"github.com/vendfleet/vendfleet-backend/pkg/enums"
	pkgerrors "github.com/vendfleet/vendfleet-backend/pkg/errors"
	"github.com/vendfleet/vendfleet-backend/pkg/logger"
)

// RegisterMachine handles the deployment of a new vending unit.
func RegisterMachine(svc *machinesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "machine service unavailable"))
			return
		}

		var payload machinesvc.RegisterMachineInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		machine, err := svc.Register(r.Context(), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, machine)
	}
}

// ListMachines returns the whole fleet.
func ListMachines(svc *machinesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "machine service unavailable"))
			return
		}

		machines, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, machines)
	}
}

// GetMachine returns one machine by its operator-assigned id.
func GetMachine(svc *machinesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "machine service unavailable"))
			return
		}

		machineID := strings.TrimSpace(chi.URLParam(r, "machineId"))
		machine, err := svc.Get(r.Context(), machineID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, machine)
	}
}

type heartbeatRequest struct {
	Status string `json:"status" validate:"required"`
}

// ReportHeartbeat records a status report from a machine. Unregistered
// machines are created on first contact.
func ReportHeartbeat(svc *machinesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "machine service unavailable"))
			return
		}

		machineID := strings.TrimSpace(chi.URLParam(r, "machineId"))
		if machineID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "machine id is required"))
			return
		}

		var payload heartbeatRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status, err := enums.ParseMachineStatus(strings.TrimSpace(payload.Status))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
			return
		}

		machine, err := svc.ReportHeartbeat(r.Context(), machineID, status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, machine)
	}
}
