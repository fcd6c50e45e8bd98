package alerts

import (
	"context"
	"fmt"

	"github.com/vendfleet/vendfleet-backend/pkg/db/models"
	"github.com/vendfleet/vendfleet-backend/pkg/enums"
	"github.com/vendfleet/vendfleet-backend/pkg/logger"
)

type recipientReader interface {
	FindMachineOfflineRecipients(ctx context.Context) ([]models.User, error)
}

type auditWriter interface {
	Create(ctx context.Context, notification *models.Notification) error
}

// Mailer delivers one HTML message to a batch of recipients.
type Mailer interface {
	Send(ctx context.Context, recipients []string, subject, htmlBody string) error
}

// DispatcherParams configure the alert dispatcher.
type DispatcherParams struct {
	Logger       *logger.Logger
	Users        recipientReader
	Audit        auditWriter
	Mailer       Mailer
	DashboardURL string
}

// Dispatcher resolves alert recipients from notification preferences and
// fans machine events out by mail. Transport failures are logged, never
// propagated; losing a mail must not fail the transition that caused it.
type Dispatcher struct {
	logg         *logger.Logger
	users        recipientReader
	audit        auditWriter
	mailer       Mailer
	dashboardURL string
}

// NewDispatcher builds an alert dispatcher. Mailer may be nil when no mail
// transport is configured; alerts are then audit-only.
func NewDispatcher(params DispatcherParams) (*Dispatcher, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("user reader required")
	}
	return &Dispatcher{
		logg:         params.Logger,
		users:        params.Users,
		audit:        params.Audit,
		mailer:       params.Mailer,
		dashboardURL: params.DashboardURL,
	}, nil
}

// MachineOffline notifies every opted-in operator that a machine went dark.
// The returned error covers recipient resolution only.
func (d *Dispatcher) MachineOffline(ctx context.Context, machine models.Machine) error {
	ctx = d.logg.WithMachineID(ctx, machine.MachineID)

	users, err := d.users.FindMachineOfflineRecipients(ctx)
	if err != nil {
		return fmt.Errorf("resolve offline recipients: %w", err)
	}

	d.recordAudit(ctx, machine)

	if len(users) == 0 {
		d.logg.Info(ctx, "no recipients opted in for offline alerts")
		return nil
	}

	recipients := make([]string, 0, len(users))
	for _, user := range users {
		recipients = append(recipients, user.Email)
	}

	if d.mailer == nil {
		d.logg.Warn(ctx, "no mail transport configured; offline alert recorded only")
		return nil
	}

	subject := fmt.Sprintf("Critical alert: machine %s went offline", machine.MachineID)
	if err := d.mailer.Send(ctx, recipients, subject, machineOfflineBody(machine, d.dashboardURL)); err != nil {
		d.logg.Error(ctx, "offline alert mail failed", err)
	}
	return nil
}

func (d *Dispatcher) recordAudit(ctx context.Context, machine models.Machine) {
	if d.audit == nil {
		return
	}
	machineID := machine.MachineID
	notification := models.Notification{
		Type:      enums.NotificationTypeMachineOffline,
		Message:   fmt.Sprintf("Machine %s stopped reporting heartbeats and was marked offline", machine.MachineID),
		MachineID: &machineID,
	}
	if err := d.audit.Create(ctx, &notification); err != nil {
		d.logg.Error(ctx, "recording offline notification failed", err)
	}
}
