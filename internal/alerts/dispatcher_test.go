package alerts

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/vendfleet/vendfleet-backend/pkg/db/models"
	"github.com/vendfleet/vendfleet-backend/pkg/enums"
	"github.com/vendfleet/vendfleet-backend/pkg/logger"
)

type fakeRecipientReader struct {
	users []models.User
	err   error
}

func (f *fakeRecipientReader) FindMachineOfflineRecipients(ctx context.Context) ([]models.User, error) {
	return f.users, f.err
}

type fakeAuditWriter struct {
	records []models.Notification
	err     error
}

func (f *fakeAuditWriter) Create(ctx context.Context, notification *models.Notification) error {
	if f.err != nil {
		return f.err
	}
	f.records = append(f.records, *notification)
	return nil
}

type fakeMailer struct {
	recipients []string
	subject    string
	body       string
	sends      int
	err        error
}

func (f *fakeMailer) Send(ctx context.Context, recipients []string, subject, htmlBody string) error {
	f.sends++
	f.recipients = recipients
	f.subject = subject
	f.body = htmlBody
	return f.err
}

func newTestDispatcher(t *testing.T, users *fakeRecipientReader, audit *fakeAuditWriter, mailer Mailer) *Dispatcher {
	t.Helper()
	d, err := NewDispatcher(DispatcherParams{
		Logger:       logger.New(logger.Options{ServiceName: "test"}),
		Users:        users,
		Audit:        audit,
		Mailer:       mailer,
		DashboardURL: "https://fleet.example.com",
	})
	if err != nil {
		t.Fatalf("NewDispatcher: %v", err)
	}
	return d
}

func TestMachineOffline_BatchesRecipientsIntoOneSend(t *testing.T) {
	users := &fakeRecipientReader{users: []models.User{
		{Email: "admin@example.com", Role: enums.UserRoleAdmin, NotifyMachineOffline: true},
		{Email: "tech@example.com", Role: enums.UserRoleTechnician, NotifyMachineOffline: true},
	}}
	audit := &fakeAuditWriter{}
	mailer := &fakeMailer{}
	d := newTestDispatcher(t, users, audit, mailer)

	beat := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)
	machine := models.Machine{MachineID: "VM-001", Latitude: 19.4326, Longitude: -99.1332, LastHeartbeat: &beat}

	if err := d.MachineOffline(context.Background(), machine); err != nil {
		t.Fatalf("MachineOffline: %v", err)
	}

	if mailer.sends != 1 {
		t.Fatalf("expected a single batched send, got %d", mailer.sends)
	}
	if len(mailer.recipients) != 2 {
		t.Fatalf("expected 2 recipients, got %v", mailer.recipients)
	}
	if !strings.Contains(mailer.subject, "VM-001") {
		t.Fatalf("subject missing machine id: %q", mailer.subject)
	}
	if !strings.Contains(mailer.body, "19.432600") {
		t.Fatalf("body missing location: %q", mailer.body)
	}
}

func TestMachineOffline_NoRecipientsSkipsSend(t *testing.T) {
	users := &fakeRecipientReader{}
	mailer := &fakeMailer{}
	d := newTestDispatcher(t, users, &fakeAuditWriter{}, mailer)

	if err := d.MachineOffline(context.Background(), models.Machine{MachineID: "VM-002"}); err != nil {
		t.Fatalf("MachineOffline: %v", err)
	}
	if mailer.sends != 0 {
		t.Fatalf("expected no sends without recipients, got %d", mailer.sends)
	}
}

func TestMachineOffline_MailFailureIsSwallowed(t *testing.T) {
	users := &fakeRecipientReader{users: []models.User{
		{Email: "admin@example.com", Role: enums.UserRoleAdmin, NotifyMachineOffline: true},
	}}
	mailer := &fakeMailer{err: errors.New("sendgrid 503")}
	audit := &fakeAuditWriter{}
	d := newTestDispatcher(t, users, audit, mailer)

	if err := d.MachineOffline(context.Background(), models.Machine{MachineID: "VM-003"}); err != nil {
		t.Fatalf("expected transport failure to be swallowed, got %v", err)
	}
	if len(audit.records) != 1 {
		t.Fatalf("expected audit row despite mail failure, got %d", len(audit.records))
	}
}

func TestMachineOffline_RecordsAuditRow(t *testing.T) {
	users := &fakeRecipientReader{}
	audit := &fakeAuditWriter{}
	d := newTestDispatcher(t, users, audit, &fakeMailer{})

	if err := d.MachineOffline(context.Background(), models.Machine{MachineID: "VM-004"}); err != nil {
		t.Fatalf("MachineOffline: %v", err)
	}
	if len(audit.records) != 1 {
		t.Fatalf("expected 1 audit row, got %d", len(audit.records))
	}
	record := audit.records[0]
	if record.Type != enums.NotificationTypeMachineOffline {
		t.Fatalf("unexpected audit type %s", record.Type)
	}
	if record.MachineID == nil || *record.MachineID != "VM-004" {
		t.Fatalf("audit row missing machine id")
	}
}

func TestMachineOffline_RecipientLookupFailurePropagates(t *testing.T) {
	users := &fakeRecipientReader{err: errors.New("db down")}
	d := newTestDispatcher(t, users, &fakeAuditWriter{}, &fakeMailer{})

	if err := d.MachineOffline(context.Background(), models.Machine{MachineID: "VM-005"}); err == nil {
		t.Fatal("expected recipient lookup failure to propagate")
	}
}
